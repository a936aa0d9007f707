// Package config loads and validates permitbot configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/permitwatch/permit-crawler/internal/store"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Registry RegistryConfig `mapstructure:"registry"`
	Scan     ScanConfig     `mapstructure:"scan"`
	DB       DBConfig       `mapstructure:"db"`
	Publish  PublishConfig  `mapstructure:"publish"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Events   EventsConfig   `mapstructure:"events"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// RegistryConfig addresses the public permit registry.
type RegistryConfig struct {
	// BaseURL is the RSN-parameterized URL prefix; the RSN is appended.
	BaseURL     string        `mapstructure:"base_url"`
	UserAgent   string        `mapstructure:"user_agent"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxAttempts int           `mapstructure:"max_attempts"`
}

// ScanConfig governs the scan driver.
type ScanConfig struct {
	Workers       int   `mapstructure:"workers"`
	GiveUp        int   `mapstructure:"give_up"`
	BackfillLimit int   `mapstructure:"backfill_limit"`
	SeedRSN       int64 `mapstructure:"seed_rsn"`
}

// DBConfig controls access to the record store.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// PublishConfig controls the publication engine and posting API client.
type PublishConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Token    string        `mapstructure:"token"`
	Delay    time.Duration `mapstructure:"delay"`
	Interval time.Duration `mapstructure:"interval"`
}

// ArchiveConfig selects where raw pages are archived.
type ArchiveConfig struct {
	// Backend is one of "none", "fs", "gcs".
	Backend string `mapstructure:"backend"`
	Dir     string `mapstructure:"dir"`
	Bucket  string `mapstructure:"bucket"`
	Prefix  string `mapstructure:"prefix"`
}

// EventsConfig holds metadata for capture-event notifications.
type EventsConfig struct {
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// ServerConfig controls the HTTP posting server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PERMITBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("registry.user_agent", "permitbot/1.0 (+https://github.com/permitwatch/permit-crawler)")
	v.SetDefault("registry.timeout", "20s")
	v.SetDefault("registry.max_attempts", 4)
	v.SetDefault("scan.workers", 4)
	v.SetDefault("scan.give_up", 10)
	v.SetDefault("scan.backfill_limit", 1000)
	v.SetDefault("db.table", "permits")
	v.SetDefault("db.max_conns", 8)
	v.SetDefault("publish.delay", "3s")
	v.SetDefault("publish.interval", "60s")
	v.SetDefault("archive.backend", "none")
	v.SetDefault("archive.prefix", "permits-raw")
	v.SetDefault("server.port", 8000)
	v.SetDefault("logging.development", false)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Registry.BaseURL == "" {
		return fmt.Errorf("registry.base_url is required")
	}
	if c.Scan.Workers <= 0 {
		return fmt.Errorf("scan.workers must be > 0")
	}
	if c.Scan.GiveUp <= 0 {
		return fmt.Errorf("scan.give_up must be > 0")
	}
	if c.Scan.BackfillLimit <= 0 || c.Scan.BackfillLimit > store.BackfillQueryLimit {
		return fmt.Errorf("scan.backfill_limit must be 1..%d", store.BackfillQueryLimit)
	}
	if c.Registry.MaxAttempts <= 0 {
		return fmt.Errorf("registry.max_attempts must be > 0")
	}
	switch c.Archive.Backend {
	case "", "none":
	case "fs":
		if c.Archive.Dir == "" {
			return fmt.Errorf("archive.dir is required for the fs backend")
		}
	case "gcs":
		if c.Archive.Bucket == "" {
			return fmt.Errorf("archive.bucket is required for the gcs backend")
		}
	default:
		return fmt.Errorf("archive.backend must be none, fs, or gcs")
	}
	if c.Events.Topic != "" && c.Events.ProjectID == "" {
		return fmt.Errorf("events.project_id is required when events.topic is set")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	return nil
}
