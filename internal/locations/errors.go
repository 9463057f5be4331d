package locations

import (
	"errors"
	"net/http"
)

// Domain errors for reference table operations.
var (
	ErrInvalidKind     = errors.New("reference table must be hq or floor")
	ErrEmptyImport     = errors.New("reference import contains no rows")
	ErrInvalidWorkbook = errors.New("invalid reference workbook")
	ErrMissingColumn   = errors.New("reference workbook is missing a required column")
	ErrMissingCode     = errors.New("cost center code is required")
	ErrPayloadTooLarge = errors.New("payload exceeds maximum upload size")
)

// MapHTTPStatus maps location domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrPayloadTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	if errors.Is(err, ErrInvalidKind) ||
		errors.Is(err, ErrEmptyImport) ||
		errors.Is(err, ErrInvalidWorkbook) ||
		errors.Is(err, ErrMissingColumn) ||
		errors.Is(err, ErrMissingCode) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
