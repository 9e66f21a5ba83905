// Package config loads shipyard settings from SHIPYARD_* environment
// variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Prefix is prepended to every variable name.
const Prefix = "SHIPYARD_"

// Config is the full process configuration.
type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Library Library `envPrefix:"LIBRARY_"`
	Blob    Blob    `envPrefix:"BLOB_"`

	// CatalogPrefix is the blob key prefix holding <category>.yaml
	// overrides. Empty disables overrides.
	CatalogPrefix string `env:"CATALOG_PREFIX"`

	HistoryDepth    int           `env:"HISTORY_DEPTH"    envDefault:"100"`
	HistoryDebounce time.Duration `env:"HISTORY_DEBOUNCE" envDefault:"500ms"`

	// AutoSaveInterval of zero disables auto-save.
	AutoSaveInterval time.Duration `env:"AUTOSAVE_INTERVAL"`
}

// Library selects the named design library backend.
type Library struct {
	Driver      string `env:"DRIVER"       envDefault:"sqlite"`
	SQLitePath  string `env:"SQLITE_PATH"  envDefault:"./shipyard.db"`
	PostgresDSN string `env:"POSTGRES_DSN"`
}

// Blob selects the byte store for design files and catalog overrides.
type Blob struct {
	Driver string `env:"DRIVER"  envDefault:"fs"`
	FSRoot string `env:"FS_ROOT" envDefault:"./designs"`
	S3     S3     `envPrefix:"S3_"`
}

// S3 holds S3 / MinIO connection settings.
type S3 struct {
	Bucket          string `env:"BUCKET"`
	Region          string `env:"REGION"            envDefault:"us-east-1"`
	Endpoint        string `env:"ENDPOINT"`
	PathStyle       bool   `env:"PATH_STYLE"`
	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	SecretAccessKey string `env:"SECRET_ACCESS_KEY"`
	SessionToken    string `env:"SESSION_TOKEN"`
}

// Load parses the process environment.
func Load() (Config, error) {
	return LoadFrom(environ())
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix, Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings that cannot be used together.
func (c Config) Validate() error {
	if c.HistoryDepth < 1 {
		return fmt.Errorf("%sHISTORY_DEPTH must be at least 1, got %d", Prefix, c.HistoryDepth)
	}
	if c.HistoryDebounce < 0 || c.AutoSaveInterval < 0 {
		return fmt.Errorf("%sHISTORY_DEBOUNCE and %sAUTOSAVE_INTERVAL must not be negative", Prefix, Prefix)
	}
	if c.Library.Driver == "postgres" && c.Library.PostgresDSN == "" {
		return fmt.Errorf("%sLIBRARY_POSTGRES_DSN required for postgres driver", Prefix)
	}
	if c.Blob.Driver == "s3" && c.Blob.S3.Bucket == "" {
		return fmt.Errorf("%sBLOB_S3_BUCKET required for s3 driver", Prefix)
	}
	return nil
}

func environ() map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			out[k] = v
		}
	}
	return out
}
