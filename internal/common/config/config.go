// internal/common/config/config.go
package config

import "strings"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Form     FormConfig     `mapstructure:"form"`
	Drafts   DraftsConfig   `mapstructure:"drafts"`
	Database DatabaseConfig `mapstructure:"database"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// BackendConfig points at the REST backend that owns persistence.
type BackendConfig struct {
	BaseURL          string `mapstructure:"base_url"`
	UploadPath       string `mapstructure:"upload_path"`
	ApplicationsPath string `mapstructure:"applications_path"`
	DownloadPrefix   string `mapstructure:"download_prefix"`
	Timeout          int    `mapstructure:"timeout_ms"`
}

// AuthConfig selects the identity provider used to obtain a bearer token.
type AuthConfig struct {
	Provider string `mapstructure:"provider"` // "static" or "keycloak"

	Keycloak struct {
		URL      string `mapstructure:"url"`
		Realm    string `mapstructure:"realm"`
		ClientID string `mapstructure:"client_id"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
	} `mapstructure:"keycloak"`

	Static struct {
		Token  string `mapstructure:"token"`
		Name   string `mapstructure:"name"`
		Email  string `mapstructure:"email"`
		UserID string `mapstructure:"user_id"`
	} `mapstructure:"static"`
}

// FormConfig holds the tunable limits of the application form.
type FormConfig struct {
	MaxFileSizeMB     int      `mapstructure:"max_file_size_mb"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
	MinFamilyMembers  int      `mapstructure:"min_family_members"`
	MinActivities     int      `mapstructure:"min_activities"`
	MinActivityLength int      `mapstructure:"min_activity_length"`
	CGPAMin           float64  `mapstructure:"cgpa_min"`
	CGPAMax           float64  `mapstructure:"cgpa_max"`
}

// DraftsConfig controls the optional draft store. Store "none" keeps drafts in memory only.
type DraftsConfig struct {
	Store    string `mapstructure:"store"`
	TTLHours int    `mapstructure:"ttl_hours"`
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// UsesRedisDrafts reports whether drafts should be persisted to Redis.
func (d DraftsConfig) UsesRedisDrafts() bool {
	return strings.EqualFold(d.Store, "redis")
}
