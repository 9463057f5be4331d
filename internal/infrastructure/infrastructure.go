// Package infrastructure assembles the shared systems every entry point
// needs: logging, the lifecycle coordinator, the database, and the optional
// blob archive.
package infrastructure

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/JaimeStill/costmap/internal/config"
	"github.com/JaimeStill/costmap/pkg/database"
	"github.com/JaimeStill/costmap/pkg/lifecycle"
	"github.com/JaimeStill/costmap/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
// Storage is nil when no archive endpoint is configured.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
}

// Option adjusts infrastructure construction.
type Option func(*options)

type options struct {
	output io.Writer
	level  slog.Level
}

// WithLogOutput directs log output to w instead of stderr.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.output = w }
}

// WithLogLevel sets the minimum log level.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) { o.level = level }
}

// New creates an Infrastructure from the application configuration. The
// logger is installed as the slog default. Systems are created but not
// started; call Start separately.
func New(cfg *config.Config, opts ...Option) (*Infrastructure, error) {
	o := options{output: os.Stderr, level: slog.LevelInfo}
	for _, opt := range opts {
		opt(&o)
	}

	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(o.output, &slog.HandlerOptions{Level: o.level}))
	slog.SetDefault(logger)

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	infra := &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
	}

	if cfg.Storage.Enabled() {
		store, err := storage.New(&cfg.Storage, logger)
		if err != nil {
			return nil, fmt.Errorf("storage init failed: %w", err)
		}
		infra.Storage = store
	} else {
		logger.Info("storage not configured, archiving disabled")
	}

	return infra, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if i.Storage != nil {
		if err := i.Storage.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("storage start failed: %w", err)
		}
	}
	return nil
}
