// Package config loads the service configuration from config.toml, an
// optional config.<env>.toml overlay, and COSTMAP_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/costmap/internal/pipeline"
	"github.com/JaimeStill/costmap/pkg/database"
	"github.com/JaimeStill/costmap/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvCostmapEnv             = "COSTMAP_ENV"
	EnvCostmapShutdownTimeout = "COSTMAP_SHUTDOWN_TIMEOUT"
	EnvCostmapVersion         = "COSTMAP_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "COSTMAP_DB_HOST",
	Port:            "COSTMAP_DB_PORT",
	Name:            "COSTMAP_DB_NAME",
	User:            "COSTMAP_DB_USER",
	Password:        "COSTMAP_DB_PASSWORD",
	SSLMode:         "COSTMAP_DB_SSL_MODE",
	MaxOpenConns:    "COSTMAP_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "COSTMAP_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "COSTMAP_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "COSTMAP_DB_CONN_TIMEOUT",
	ApplicationName: "COSTMAP_DB_APPLICATION_NAME",
}

var storageEnv = &storage.Env{
	ContainerName:    "COSTMAP_STORAGE_CONTAINER_NAME",
	ConnectionString: "COSTMAP_STORAGE_CONNECTION_STRING",
	AccountURL:       "COSTMAP_STORAGE_ACCOUNT_URL",
}

var pipelineEnv = &pipeline.Env{
	WindowDays:            "COSTMAP_PIPELINE_WINDOW_DAYS",
	FingerprintWindowDays: "COSTMAP_PIPELINE_FINGERPRINT_WINDOW_DAYS",
	CacheTTL:              "COSTMAP_PIPELINE_CACHE_TTL",
	Schedule:              "COSTMAP_PIPELINE_SCHEDULE",
}

// Config is the root configuration for the costmap service and CLI.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	API             APIConfig       `toml:"api"`
	Pipeline        pipeline.Config `toml:"pipeline"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the COSTMAP_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvCostmapEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. Without config.toml, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	return LoadFile(BaseConfigFile)
}

// LoadFile is Load with an explicit base file path. The overlay is resolved
// next to the base file.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		loaded, err := load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if overlay := overlayPath(path); overlay != "" {
		o, err := load(overlay)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", overlay, err)
		}
		cfg.Merge(o)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Pipeline.Merge(&overlay.Pipeline)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Pipeline.Finalize(pipelineEnv); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvCostmapShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvCostmapVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return &cfg, nil
}

func overlayPath(base string) string {
	env := os.Getenv(EnvCostmapEnv)
	if env == "" {
		return ""
	}
	path := filepath.Join(filepath.Dir(base), fmt.Sprintf(OverlayConfigPattern, env))
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}
