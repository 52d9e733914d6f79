package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Storage backends accepted by STORAGE_BACKEND.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port           int    `envconfig:"PORT" default:"8080"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	Version        string `envconfig:"VERSION" default:"dev"`
	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"file"`
	StoragePath    string `envconfig:"STORAGE_PATH" default:"roster-data.json"`
	StorageKey     string `envconfig:"STORAGE_KEY" default:"crudItems"`
	DatabaseURL    string `envconfig:"DATABASE_URL" default:""`
	PageSize       int    `envconfig:"PAGE_SIZE" default:"5"`
	SeedFile       string `envconfig:"SEED_FILE" default:""`
	APIKeyHash     string `envconfig:"API_KEY_HASH" default:""`
	BcryptCost     int    `envconfig:"BCRYPT_COST" default:"12"`

	// ReconcilerInterval is in seconds; 0 disables the storage resync loop.
	ReconcilerInterval int `envconfig:"RECONCILER_INTERVAL" default:"10"`
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageBackend {
	case BackendFile, BackendMemory, BackendSQLite:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %q storage backend", BackendPostgres)
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.StorageKey == "" {
		return fmt.Errorf("STORAGE_KEY must not be empty")
	}
	if c.PageSize < 1 {
		return fmt.Errorf("PAGE_SIZE must be at least 1, got %d", c.PageSize)
	}
	if c.ReconcilerInterval < 0 {
		return fmt.Errorf("RECONCILER_INTERVAL must not be negative, got %d", c.ReconcilerInterval)
	}
	return nil
}
