package api

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/costmap/internal/config"
	"github.com/JaimeStill/costmap/pkg/formatting"
	"github.com/JaimeStill/costmap/pkg/handlers"
	"github.com/JaimeStill/costmap/pkg/routes"
)

// Environment reports non-secret runtime settings for diagnostics.
type Environment struct {
	Version               string `json:"version"`
	Env                   string `json:"env"`
	WindowDays            int    `json:"window_days"`
	FingerprintWindowDays int    `json:"fingerprint_window_days"`
	CacheTTL              string `json:"cache_ttl"`
	Schedule              string `json:"schedule,omitempty"`
	MaxBatchSize          int    `json:"max_batch_size"`
	MaxUploadSize         string `json:"max_upload_size"`
	StorageEnabled        bool   `json:"storage_enabled"`
	DatabaseHost          string `json:"database_host"`
	DatabaseName          string `json:"database_name"`
}

type environmentHandler struct {
	env    Environment
	logger *slog.Logger
}

func newEnvironmentHandler(cfg *config.Config, logger *slog.Logger) *environmentHandler {
	return &environmentHandler{
		env: Environment{
			Version:               cfg.Version,
			Env:                   cfg.Env(),
			WindowDays:            cfg.Pipeline.WindowDays,
			FingerprintWindowDays: cfg.Pipeline.FingerprintWindowDays,
			CacheTTL:              cfg.Pipeline.CacheTTL,
			Schedule:              cfg.Pipeline.Schedule,
			MaxBatchSize:          cfg.API.MaxBatchSize,
			MaxUploadSize:         formatting.FormatBytes(cfg.API.MaxUploadSizeBytes(), 1),
			StorageEnabled:        cfg.Storage.Enabled(),
			DatabaseHost:          cfg.Database.Host,
			DatabaseName:          cfg.Database.Name,
		},
		logger: logger.With("handler", "environment"),
	}
}

func (h *environmentHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/environment",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.get},
		},
	}
}

func (h *environmentHandler) get(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.env)
}
