package transactions

import (
	"errors"
	"net/http"
)

// Domain errors for transaction operations.
var (
	ErrNotFound               = errors.New("transaction not found")
	ErrDuplicate              = errors.New("transaction already exists")
	ErrInvalidTransactionType = errors.New("invalid transaction_type, expected FAGLL03")
	ErrMissingBatchID         = errors.New("batch_id is required")
	ErrEmptyBatch             = errors.New("transactions must not be empty")
	ErrBatchTooLarge          = errors.New("too many transactions in one request")
	ErrInvalidPayload         = errors.New("invalid upload payload")
	ErrPayloadTooLarge        = errors.New("payload exceeds maximum upload size")
)

// MapHTTPStatus maps transaction domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrPayloadTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	if errors.Is(err, ErrInvalidTransactionType) ||
		errors.Is(err, ErrMissingBatchID) ||
		errors.Is(err, ErrEmptyBatch) ||
		errors.Is(err, ErrBatchTooLarge) ||
		errors.Is(err, ErrInvalidPayload) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
