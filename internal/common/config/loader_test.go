package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
backend:
  base_url: http://localhost:8080
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.Backend.BaseURL)
	assert.Equal(t, "/api/files/upload", cfg.Backend.UploadPath)
	assert.Equal(t, "/api/applications", cfg.Backend.ApplicationsPath)
	assert.Equal(t, "/api/files/download/", cfg.Backend.DownloadPrefix)
	assert.Equal(t, 30000, cfg.Backend.Timeout)
	assert.Equal(t, "static", cfg.Auth.Provider)
	assert.Equal(t, 5, cfg.Form.MaxFileSizeMB)
	assert.Equal(t, []string{".pdf", ".jpg", ".jpeg", ".png"}, cfg.Form.AllowedExtensions)
	assert.Equal(t, 2, cfg.Form.MinFamilyMembers)
	assert.Equal(t, 2, cfg.Form.MinActivities)
	assert.Equal(t, 3, cfg.Form.MinActivityLength)
	assert.Equal(t, 2.0, cfg.Form.CGPAMin)
	assert.Equal(t, 4.0, cfg.Form.CGPAMax)
	assert.Equal(t, "none", cfg.Drafts.Store)
	assert.False(t, cfg.Drafts.UsesRedisDrafts())
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TEST_PORTAL_BACKEND", "https://portal.example.edu")
	path := writeConfig(t, `
backend:
  base_url: ${TEST_PORTAL_BACKEND}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://portal.example.edu", cfg.Backend.BaseURL)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing backend",
			body:    "logging:\n  level: debug\n",
			wantErr: "backend.base_url is required",
		},
		{
			name:    "unknown auth provider",
			body:    "backend:\n  base_url: http://localhost\nauth:\n  provider: ldap\n",
			wantErr: "auth.provider must be static or keycloak",
		},
		{
			name:    "keycloak without realm",
			body:    "backend:\n  base_url: http://localhost\nauth:\n  provider: keycloak\n  keycloak:\n    url: http://kc\n",
			wantErr: "auth.keycloak.url and auth.keycloak.realm are required",
		},
		{
			name:    "redis drafts without address",
			body:    "backend:\n  base_url: http://localhost\ndrafts:\n  store: redis\n",
			wantErr: "database.redis.address is required",
		},
		{
			name:    "inverted cgpa range",
			body:    "backend:\n  base_url: http://localhost\nform:\n  cgpa_min: 3.0\n  cgpa_max: 2.0\n",
			wantErr: "form.cgpa_min must be below form.cgpa_max",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}
