package api

import (
	"github.com/JaimeStill/costmap/internal/config"
	"github.com/JaimeStill/costmap/internal/locations"
	"github.com/JaimeStill/costmap/internal/pipeline"
	"github.com/JaimeStill/costmap/internal/transactions"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Transactions transactions.System
	Locations    locations.System
	Pipeline     pipeline.System
	Scheduler    *pipeline.Scheduler
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime, cfg *config.Config) *Domain {
	db := runtime.Database.Connection()

	txSystem := transactions.New(
		db,
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
		cfg.API.MaxBatchSize,
	)

	locSystem := locations.New(
		db,
		runtime.Logger,
		runtime.Pagination,
		cfg.Pipeline.CacheTTLDuration(),
	)

	deps := pipeline.Deps{
		DB:           runtime.Database,
		References:   locSystem,
		Transactions: txSystem,
		Fingerprints: txSystem,
		Sink:         txSystem,
		History:      pipeline.NewHistory(db, runtime.Logger, runtime.Pagination),
	}
	if runtime.Storage != nil {
		deps.Archive = runtime.Storage
	}

	p := pipeline.New(deps, cfg.Pipeline, runtime.Logger, runtime.Pagination)

	return &Domain{
		Transactions: txSystem,
		Locations:    locSystem,
		Pipeline:     p,
		Scheduler:    pipeline.NewScheduler(p, cfg.Pipeline.ScheduleInterval(), runtime.Logger),
	}
}
