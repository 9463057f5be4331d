package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/JaimeStill/costmap/pkg/database"
	"github.com/JaimeStill/costmap/pkg/handlers"
	"github.com/JaimeStill/costmap/pkg/routes"
)

const processedTable = "sap_transactions_processed"

// diagnosticTables are reported by the database diagnostics endpoint.
var diagnosticTables = []string{
	"sap_transactions",
	processedTable,
	"kostenstelle_mapping_hq",
	"kostenstelle_mapping_floor",
	"processing_runs",
}

// TableStatus reports whether a table exists and how many rows it holds.
type TableStatus struct {
	Name   string `json:"name"`
	Exists bool   `json:"exists"`
	Rows   int64  `json:"rows"`
	Error  string `json:"error,omitempty"`
}

// Health is the body of the health endpoint.
type Health struct {
	Status        string    `json:"status"`
	Database      string    `json:"database"`
	ProcessedRows *int64    `json:"processed_rows,omitempty"`
	Error         string    `json:"error,omitempty"`
	CheckedAt     time.Time `json:"checked_at"`
}

// DatabaseReport is the body of the database diagnostics endpoint.
type DatabaseReport struct {
	Database string        `json:"database"`
	Tables   []TableStatus `json:"tables,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// HealthSource checks connectivity and inspects tables.
type HealthSource interface {
	Ping(ctx context.Context) error
	Table(ctx context.Context, name string) (TableStatus, error)
}

type dbHealth struct {
	db database.System
}

// NewHealthSource reads table state from db.
func NewHealthSource(db database.System) HealthSource {
	return &dbHealth{db: db}
}

func (h *dbHealth) Ping(ctx context.Context) error {
	return h.db.Ping(ctx)
}

// Table only receives names from diagnosticTables.
func (h *dbHealth) Table(ctx context.Context, name string) (TableStatus, error) {
	status := TableStatus{Name: name}
	conn := h.db.Connection()

	err := conn.QueryRowContext(ctx, "SELECT to_regclass($1) IS NOT NULL", "public."+name).Scan(&status.Exists)
	if err != nil || !status.Exists {
		return status, err
	}

	err = conn.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM public.%s", name)).Scan(&status.Rows)
	return status, err
}

// HealthHandler serves database health and diagnostics.
type HealthHandler struct {
	src    HealthSource
	logger *slog.Logger
	now    func() time.Time
}

// NewHealthHandler creates a HealthHandler over src.
func NewHealthHandler(src HealthSource, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		src:    src,
		logger: logger.With("handler", "health"),
		now:    time.Now,
	}
}

// Routes returns the route group definition for health endpoints.
func (h *HealthHandler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/health",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.Health},
			{Method: "GET", Pattern: "/database", Handler: h.Database},
		},
	}
}

// Health pings the database and reports the processed row count. An
// unreachable database answers 503.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	body := Health{CheckedAt: h.now().UTC()}

	if err := h.src.Ping(r.Context()); err != nil {
		h.logger.Warn("database ping failed", "error", err)
		body.Status = "unhealthy"
		body.Database = "disconnected"
		body.Error = err.Error()
		handlers.RespondJSON(w, http.StatusServiceUnavailable, body)
		return
	}

	body.Status = "healthy"
	body.Database = "connected"

	status, err := h.src.Table(r.Context(), processedTable)
	switch {
	case err != nil:
		h.logger.Warn("processed row count failed", "error", err)
	case status.Exists:
		body.ProcessedRows = &status.Rows
	}

	handlers.RespondJSON(w, http.StatusOK, body)
}

// Database reports existence and row counts of the ledger and reference
// tables. Failures on one table are reported in its entry.
func (h *HealthHandler) Database(w http.ResponseWriter, r *http.Request) {
	if err := h.src.Ping(r.Context()); err != nil {
		h.logger.Warn("database ping failed", "error", err)
		handlers.RespondJSON(w, http.StatusServiceUnavailable, DatabaseReport{
			Database: "disconnected",
			Error:    err.Error(),
		})
		return
	}

	report := DatabaseReport{
		Database: "connected",
		Tables:   make([]TableStatus, 0, len(diagnosticTables)),
	}
	for _, name := range diagnosticTables {
		status, err := h.src.Table(r.Context(), name)
		if err != nil {
			status.Name = name
			status.Error = err.Error()
		}
		report.Tables = append(report.Tables, status)
	}

	handlers.RespondJSON(w, http.StatusOK, report)
}
