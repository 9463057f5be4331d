package main

import (
	"github.com/JaimeStill/costmap/internal/api"
	"github.com/JaimeStill/costmap/internal/config"
	"github.com/JaimeStill/costmap/internal/infrastructure"
	"github.com/JaimeStill/costmap/pkg/module"
)

// Modules holds the prefixed sub-applications served by the router.
type Modules struct {
	API *module.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	return &Modules{API: apiModule}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()
	router.Probes(infra.Lifecycle.Ready)
	return router
}
