package pipeline

import (
	"errors"
	"net/http"
)

// Domain errors for pipeline run history.
var (
	ErrNotFound     = errors.New("processing run not found")
	ErrDuplicate    = errors.New("processing run already recorded")
	ErrInvalidRunID = errors.New("invalid processing run id")
)

// MapHTTPStatus maps pipeline domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidRunID) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
