// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config captures every configuration knob loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Source  SourceConfig  `mapstructure:"source"`
	Ingest  IngestConfig  `mapstructure:"ingest"`
	Remind  RemindConfig  `mapstructure:"remind"`
	DB      DBConfig      `mapstructure:"db"`
	Push    PushConfig    `mapstructure:"push"`
	Archive ArchiveConfig `mapstructure:"archive"`
}

// ServerConfig controls the admin HTTP server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig selects the zap profile.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// SourceConfig points at the remote notice board.
type SourceConfig struct {
	IndexURL  string        `mapstructure:"index_url"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// IngestConfig governs the crawl cycle.
type IngestConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Timezone string        `mapstructure:"timezone"`
}

// RemindConfig sets the daily reminder firing time (in the ingest timezone).
type RemindConfig struct {
	Hour   int `mapstructure:"hour"`
	Minute int `mapstructure:"minute"`
}

// DBConfig selects and configures the notice store.
type DBConfig struct {
	Provider     string `mapstructure:"provider"`
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int32  `mapstructure:"max_open_conns"`
}

// PushConfig selects the push dispatcher.
type PushConfig struct {
	Provider string        `mapstructure:"provider"`
	GCP      PushGCPConfig `mapstructure:"gcp"`
}

// PushGCPConfig configures the Pub/Sub push relay topic.
type PushGCPConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// ArchiveConfig selects the snapshot archive.
type ArchiveConfig struct {
	Provider string           `mapstructure:"provider"`
	GCS      ArchiveGCSConfig `mapstructure:"gcs"`
	Prefix   string           `mapstructure:"prefix"`
}

// ArchiveGCSConfig configures the GCS snapshot bucket.
type ArchiveGCSConfig struct {
	Bucket string `mapstructure:"bucket"`
}

// Load constructs a Config by unmarshaling from Viper and validating it.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks for obviously bad configuration combinations.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Source.IndexURL == "" {
		return fmt.Errorf("source.index_url must be set")
	}
	if c.Source.Timeout <= 0 {
		return fmt.Errorf("source.timeout must be > 0")
	}
	if c.Ingest.Interval <= 0 {
		return fmt.Errorf("ingest.interval must be > 0")
	}
	if _, err := time.LoadLocation(c.Ingest.Timezone); err != nil {
		return fmt.Errorf("ingest.timezone %q is invalid: %w", c.Ingest.Timezone, err)
	}
	if c.Remind.Hour < 0 || c.Remind.Hour > 23 {
		return fmt.Errorf("remind.hour must be between 0 and 23")
	}
	if c.Remind.Minute < 0 || c.Remind.Minute > 59 {
		return fmt.Errorf("remind.minute must be between 0 and 59")
	}
	switch c.DB.Provider {
	case "postgres":
		if c.DB.DSN == "" {
			return fmt.Errorf("db.provider is 'postgres' but db.dsn is not set")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown db provider: %s", c.DB.Provider)
	}
	switch c.Push.Provider {
	case "pubsub":
		if c.Push.GCP.ProjectID == "" || c.Push.GCP.TopicID == "" {
			return fmt.Errorf("push.provider is 'pubsub' but project_id or topic_id is not set")
		}
	case "noop":
	default:
		return fmt.Errorf("unknown push provider: %s", c.Push.Provider)
	}
	switch c.Archive.Provider {
	case "gcs":
		if c.Archive.GCS.Bucket == "" {
			return fmt.Errorf("archive.provider is 'gcs' but archive.gcs.bucket is not set")
		}
	case "noop":
	default:
		return fmt.Errorf("unknown archive provider: %s", c.Archive.Provider)
	}
	return nil
}

// Location resolves the configured ingest timezone. Call after Validate.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Ingest.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
