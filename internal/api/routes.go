package api

import (
	"net/http"

	"github.com/JaimeStill/costmap/internal/config"
	"github.com/JaimeStill/costmap/pkg/openapi"
	"github.com/JaimeStill/costmap/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) error {
	maxUpload := cfg.API.MaxUploadSizeBytes()

	groups := []routes.Group{
		domain.Transactions.Handler(maxUpload).Routes(),
		domain.Locations.Handler(maxUpload).Routes(),
		domain.Pipeline.Handler().Routes(),
		NewHealthHandler(NewHealthSource(runtime.Database), runtime.Logger).Routes(),
		newEnvironmentHandler(cfg, runtime.Logger).routes(),
	}

	if runtime.Storage != nil {
		groups = append(groups, newArchiveHandler(runtime.Storage, runtime.Logger).routes())
	}

	spec, err := buildSpec(cfg, groups...)
	if err != nil {
		return err
	}
	specBytes, err := openapi.MarshalJSON(spec)
	if err != nil {
		return err
	}

	routes.Register(mux, groups...)
	mux.HandleFunc("GET /openapi.json", openapi.ServeSpec(specBytes))
	return nil
}
