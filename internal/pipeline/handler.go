package pipeline

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/costmap/pkg/handlers"
	"github.com/JaimeStill/costmap/pkg/pagination"
	"github.com/JaimeStill/costmap/pkg/routes"
)

// Handler provides HTTP endpoints for triggering runs and reading run history.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// Status reports whether a run is in flight and the active windows.
type Status struct {
	Running               bool   `json:"running"`
	WindowDays            int    `json:"window_days"`
	FingerprintWindowDays int    `json:"fingerprint_window_days"`
	Schedule              string `json:"schedule,omitempty"`
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "pipeline"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for pipeline endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/pipeline",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/run", Handler: h.Run},
			{Method: "GET", Pattern: "/status", Handler: h.Status},
			{Method: "GET", Pattern: "/runs", Handler: h.Runs},
			{Method: "GET", Pattern: "/runs/{id}", Handler: h.FindRun},
		},
	}
}

// Run triggers a processing run and returns its summary. Busy runs answer
// 409 and failed runs 500, both with the summary as body.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	summary := h.sys.Run(r.Context(), TriggerManual)

	status := http.StatusOK
	switch summary.Status {
	case StatusBusy:
		status = http.StatusConflict
	case StatusError:
		status = http.StatusInternalServerError
	}

	handlers.RespondJSON(w, status, summary)
}

// Status returns the current pipeline state.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	cfg := h.sys.Config()
	handlers.RespondJSON(w, http.StatusOK, Status{
		Running:               h.sys.Running(),
		WindowDays:            cfg.WindowDays,
		FingerprintWindowDays: cfg.FingerprintWindowDays,
		Schedule:              cfg.Schedule,
	})
}

// Runs returns a paginated run history with optional status, trigger and batch_id filters.
func (h *Handler) Runs(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := RunFiltersFromQuery(r.URL.Query())

	result, err := h.sys.Runs(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// FindRun returns a single run by id.
func (h *Handler) FindRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRunID)
		return
	}

	run, err := h.sys.FindRun(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, run)
}
