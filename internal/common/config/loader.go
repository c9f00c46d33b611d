// internal/common/config/loader.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<env>.yaml on top and applies
// environment overrides (BACKEND_BASE_URL, AUTH_STATIC_TOKEN, ...).
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)
	return v
}

// AutomaticEnv only resolves keys viper already knows about, so the keys that
// are commonly supplied only through the environment are bound explicitly.
func bindEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"backend.base_url",
		"auth.provider",
		"auth.static.token",
		"auth.static.name",
		"auth.keycloak.url",
		"auth.keycloak.username",
		"auth.keycloak.password",
		"database.redis.address",
		"database.redis.password",
		"drafts.store",
		"logging.level",
	} {
		_ = v.BindEnv(key)
	}
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	paths := []string{".env", "../.env", "../../.env"}
	if root := findProjectRoot(); root != "" {
		paths = append(paths, filepath.Join(root, ".env"))
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			if err := godotenv.Load(p); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok || !strings.Contains(strVal, "$") {
			continue
		}
		if expanded := os.ExpandEnv(strVal); expanded != strVal && expanded != "" {
			v.Set(key, expanded)
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "scholarship-portal"
	}

	if cfg.Backend.UploadPath == "" {
		cfg.Backend.UploadPath = "/api/files/upload"
	}
	if cfg.Backend.ApplicationsPath == "" {
		cfg.Backend.ApplicationsPath = "/api/applications"
	}
	if cfg.Backend.DownloadPrefix == "" {
		cfg.Backend.DownloadPrefix = "/api/files/download/"
	}
	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = 30000
	}

	if cfg.Auth.Provider == "" {
		cfg.Auth.Provider = "static"
	}
	if cfg.Auth.Keycloak.ClientID == "" {
		cfg.Auth.Keycloak.ClientID = "scholarship-portal"
	}

	if cfg.Form.MaxFileSizeMB == 0 {
		cfg.Form.MaxFileSizeMB = 5
	}
	if len(cfg.Form.AllowedExtensions) == 0 {
		cfg.Form.AllowedExtensions = []string{".pdf", ".jpg", ".jpeg", ".png"}
	}
	if cfg.Form.MinFamilyMembers == 0 {
		cfg.Form.MinFamilyMembers = 2
	}
	if cfg.Form.MinActivities == 0 {
		cfg.Form.MinActivities = 2
	}
	if cfg.Form.MinActivityLength == 0 {
		cfg.Form.MinActivityLength = 3
	}
	if cfg.Form.CGPAMin == 0 {
		cfg.Form.CGPAMin = 2.0
	}
	if cfg.Form.CGPAMax == 0 {
		cfg.Form.CGPAMax = 4.0
	}

	if cfg.Drafts.Store == "" {
		cfg.Drafts.Store = "none"
	}
	if cfg.Drafts.TTLHours == 0 {
		cfg.Drafts.TTLHours = 72
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9464"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if _, err := url.ParseRequestURI(cfg.Backend.BaseURL); err != nil {
		return fmt.Errorf("backend.base_url is not a valid URL: %w", err)
	}

	switch strings.ToLower(cfg.Auth.Provider) {
	case "static":
	case "keycloak":
		if cfg.Auth.Keycloak.URL == "" || cfg.Auth.Keycloak.Realm == "" {
			return fmt.Errorf("auth.keycloak.url and auth.keycloak.realm are required for the keycloak provider")
		}
	default:
		return fmt.Errorf("auth.provider must be static or keycloak, got %q", cfg.Auth.Provider)
	}

	if cfg.Form.CGPAMin >= cfg.Form.CGPAMax {
		return fmt.Errorf("form.cgpa_min must be below form.cgpa_max")
	}

	switch strings.ToLower(cfg.Drafts.Store) {
	case "none":
	case "redis":
		if cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required when drafts.store is redis")
		}
	default:
		return fmt.Errorf("drafts.store must be none or redis, got %q", cfg.Drafts.Store)
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
