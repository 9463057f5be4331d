package locations

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/costmap/pkg/handlers"
	"github.com/JaimeStill/costmap/pkg/pagination"
	"github.com/JaimeStill/costmap/pkg/routes"
)

// Handler provides HTTP endpoints for reference tables and code resolution.
type Handler struct {
	sys           System
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
}

// NewHandler creates a Handler with the given system, logger, pagination config, and upload size limit.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxUploadSize int64,
) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "locations"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for location endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/locations",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/hq", Handler: h.ListHQ},
			{Method: "GET", Pattern: "/floor", Handler: h.ListFloor},
			{Method: "GET", Pattern: "/resolve/{code}", Handler: h.Resolve},
			{Method: "POST", Pattern: "/import/{kind}", Handler: h.Import},
		},
	}
}

// ListHQ returns a paginated list of HQ mapping rows.
func (h *Handler) ListHQ(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	result, err := h.sys.ListHQ(r.Context(), page)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// ListFloor returns a paginated list of floor mapping rows.
func (h *Handler) ListFloor(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	result, err := h.sys.ListFloor(r.Context(), page)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Resolve resolves one cost-center code against the current reference tables.
// Unresolved codes are reported with resolved=false rather than an error.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if code == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrMissingCode)
		return
	}

	matches, err := h.sys.Resolve(r.Context(), code)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, matches[0])
}

// Import replaces the hq or floor reference table from an uploaded XLSX
// workbook sent as the multipart field "file". The optional form field
// "sheet" selects the worksheet.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	kind := r.PathValue("kind")
	if kind != KindHQ && kind != KindFloor {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidKind)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrPayloadTooLarge)
			return
		}
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidWorkbook)
		return
	}
	defer file.Close()

	result, err := h.sys.Import(r.Context(), kind, file, r.FormValue("sheet"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
