// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/costmap/internal/config"
	"github.com/JaimeStill/costmap/internal/infrastructure"
	"github.com/JaimeStill/costmap/pkg/middleware"
	"github.com/JaimeStill/costmap/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware
// and registers the pipeline scheduler with the lifecycle coordinator.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime, cfg)

	mux := http.NewServeMux()
	if err := registerRoutes(mux, domain, cfg, runtime); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.RequestID())
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(middleware.Recover(runtime.Logger))

	domain.Scheduler.Start(runtime.Lifecycle)

	return m, nil
}
