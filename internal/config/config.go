// Package config loads application configuration from a YAML file and
// environment variables, with sensible defaults for local development.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the complete application configuration.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Sheets       SheetsConfig       `mapstructure:"sheets"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Clock        ClockConfig        `mapstructure:"clock"`
	Verification VerificationConfig `mapstructure:"verification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig defines the HTTP listener.
type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	BindAddress string `mapstructure:"bind_address"`
}

// SheetsConfig defines the Google Sheets schedule source. SheetIDs maps an
// identity (class section or faculty name) to the numeric sheet GID of its
// tab inside the spreadsheet.
type SheetsConfig struct {
	Enabled         bool             `mapstructure:"enabled"`
	SpreadsheetID   string           `mapstructure:"spreadsheet_id"`
	CredentialsFile string           `mapstructure:"credentials_file"`
	SheetIDs        map[string]int64 `mapstructure:"sheet_ids"`
}

// CacheConfig defines grid cache freshness and sizing.
type CacheConfig struct {
	MaxAge          time.Duration `mapstructure:"max_age"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	FetchTimeout    time.Duration `mapstructure:"fetch_timeout"`
	Size            int           `mapstructure:"size"`
}

// DatabaseConfig defines the SQLite database location.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// ClockConfig defines how ambiguous time labels are interpreted. Bare hours
// below AfternoonCutoffHour are read as PM.
type ClockConfig struct {
	AfternoonCutoffHour int `mapstructure:"afternoon_cutoff_hour"`
}

// VerificationConfig defines the external face-verification service.
type VerificationConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from the given file path and ATTENDANCE_*
// environment variables. A missing file is not an error; defaults apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("attendance")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/attendance")
	}
	v.SetEnvPrefix("ATTENDANCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.bind_address", "0.0.0.0")

	v.SetDefault("sheets.enabled", true)
	v.SetDefault("sheets.credentials_file", "credentials.json")
	v.SetDefault("sheets.sheet_ids", map[string]int64{})

	v.SetDefault("cache.max_age", "30s")
	v.SetDefault("cache.refresh_interval", "30s")
	v.SetDefault("cache.fetch_timeout", "15s")
	v.SetDefault("cache.size", 128)

	v.SetDefault("database.path", "attendance.db")

	v.SetDefault("clock.afternoon_cutoff_hour", 8)

	v.SetDefault("verification.enabled", false)
	v.SetDefault("verification.url", "http://localhost:5001/verify")
	v.SetDefault("verification.timeout", "10s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}

	if cfg.Sheets.Enabled {
		if cfg.Sheets.SpreadsheetID == "" {
			return fmt.Errorf("sheets.spreadsheet_id is required when sheets are enabled")
		}
		if cfg.Sheets.CredentialsFile == "" {
			return fmt.Errorf("sheets.credentials_file is required when sheets are enabled")
		}
	}

	if cfg.Cache.MaxAge <= 0 {
		return fmt.Errorf("cache.max_age must be positive")
	}
	if cfg.Cache.FetchTimeout <= 0 {
		return fmt.Errorf("cache.fetch_timeout must be positive")
	}
	if cfg.Cache.Size <= 0 {
		return fmt.Errorf("cache.size must be positive")
	}

	if cfg.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	dbDir := filepath.Dir(cfg.Database.Path)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	if cfg.Clock.AfternoonCutoffHour < 0 || cfg.Clock.AfternoonCutoffHour > 12 {
		return fmt.Errorf("clock.afternoon_cutoff_hour must be between 0 and 12")
	}

	if cfg.Verification.Enabled && cfg.Verification.URL == "" {
		return fmt.Errorf("verification.url is required when verification is enabled")
	}

	return nil
}
