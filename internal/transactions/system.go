package transactions

import (
	"context"
	"time"

	"github.com/JaimeStill/costmap/pkg/pagination"
)

// System defines the public contract for transaction domain operations.
type System interface {
	Handler(maxUploadSize int64) *Handler

	// LoadRecent returns raw rows uploaded within the trailing window,
	// most recent first.
	LoadRecent(ctx context.Context, windowDays int) ([]Raw, error)

	// LoadRecentFingerprints returns the distinct fingerprints persisted
	// within the trailing window.
	LoadRecentFingerprints(ctx context.Context, windowDays int) (map[string]struct{}, error)

	// SaveBatch writes classified records in one database transaction.
	// Rows that fail are skipped and counted rather than aborting the batch.
	SaveBatch(ctx context.Context, records []Record, batchID string, processedAt time.Time) (SaveResult, error)

	Upload(ctx context.Context, req UploadRequest) (*UploadResult, error)

	ListRaw(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[Transaction], error)

	ListProcessed(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Record], error)
}
