package transactions

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/costmap/pkg/pagination"
	"github.com/JaimeStill/costmap/pkg/query"
	"github.com/JaimeStill/costmap/pkg/repository"
	"github.com/JaimeStill/costmap/pkg/storage"
)

type repo struct {
	db           *sql.DB
	storage      storage.System
	logger       *slog.Logger
	pagination   pagination.Config
	maxBatchSize int
}

// New creates a transaction repository implementing the System interface.
// store may be nil, in which case upload payloads are not archived.
func New(
	db *sql.DB,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxBatchSize int,
) System {
	if maxBatchSize <= 0 {
		maxBatchSize = DefaultMaxBatchSize
	}
	return &repo{
		db:           db,
		storage:      store,
		logger:       logger.With("system", "transactions"),
		pagination:   pagination,
		maxBatchSize: maxBatchSize,
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) LoadRecent(ctx context.Context, windowDays int) ([]Raw, error) {
	q, args := query.
		NewBuilder(rawProjection, rawDefaultSort...).
		WhereWithinDays("upload_date", windowDays).
		Build()

	rows, err := repository.QueryMany(ctx, r.db, q, args, scanRaw)
	if err != nil {
		return nil, fmt.Errorf("load recent transactions: %w", err)
	}

	r.logger.Info("recent transactions loaded", "window_days", windowDays, "count", len(rows))
	return rows, nil
}

func (r *repo) LoadRecentFingerprints(ctx context.Context, windowDays int) (map[string]struct{}, error) {
	q := `
		SELECT DISTINCT transaction_fingerprint
		FROM sap_transactions_processed
		WHERE transaction_fingerprint IS NOT NULL
		  AND processing_date >= NOW() - make_interval(days => $1)`

	fingerprints, err := repository.QueryMany(ctx, r.db, q, []any{windowDays}, scanString)
	if err != nil {
		return nil, fmt.Errorf("load processed fingerprints: %w", err)
	}

	seen := make(map[string]struct{}, len(fingerprints))
	for _, fp := range fingerprints {
		seen[fp] = struct{}{}
	}

	r.logger.Info("processed fingerprints loaded", "window_days", windowDays, "count", len(seen))
	return seen, nil
}

func (r *repo) SaveBatch(
	ctx context.Context,
	records []Record,
	batchID string,
	processedAt time.Time,
) (SaveResult, error) {
	result, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (SaveResult, error) {
		var res SaveResult

		for i, rec := range records {
			err := repository.Savepoint(ctx, tx, "processed_row", func() error {
				_, err := tx.ExecContext(ctx, insertProcessedSQL, processedArgs(rec, batchID, processedAt)...)
				return err
			})
			if err != nil {
				if ctx.Err() != nil {
					return res, ctx.Err()
				}
				res.Failed++
				r.logger.Warn(
					"processed record skipped",
					"batch_id", batchID,
					"index", i,
					"belegnummer", rec.DocumentNumber,
					"error", err,
				)
				continue
			}
			res.Saved++
		}

		return res, nil
	})
	if err != nil {
		return SaveResult{}, fmt.Errorf("save batch %s: %w", batchID, err)
	}

	r.logger.Info(
		"batch saved",
		"batch_id", batchID,
		"saved", result.Saved,
		"failed", result.Failed,
	)
	return result, nil
}

func (r *repo) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if err := req.Validate(r.maxBatchSize); err != nil {
		return nil, err
	}

	rows, warnings := req.Prepare()
	uploadedAt := time.Now().UTC()

	archiveKey := r.archive(ctx, req, uploadedAt)

	saved, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (SaveResult, error) {
		var res SaveResult
		for i, row := range rows {
			err := repository.Savepoint(ctx, tx, "raw_row", func() error {
				_, err := tx.ExecContext(ctx, insertRawSQL, rawArgs(row, uploadedAt)...)
				return err
			})
			if err != nil {
				if ctx.Err() != nil {
					return res, ctx.Err()
				}
				res.Failed++
				warnings = append(warnings, fmt.Sprintf("transaction %s: save failed: %v", row.DocumentNumber, err))
				r.logger.Warn("uploaded row skipped", "batch_id", req.BatchID, "index", i, "error", err)
				continue
			}
			res.Saved++
		}
		return res, nil
	})
	if err != nil {
		if archiveKey != "" {
			if delErr := r.storage.Delete(ctx, archiveKey); delErr != nil {
				r.logger.Warn("compensating archive delete failed", "key", archiveKey, "error", delErr)
			}
		}
		return nil, fmt.Errorf("save upload %s: %w", req.BatchID, repository.MapError(err, ErrNotFound, ErrDuplicate))
	}

	result := &UploadResult{
		Status:  "success",
		Message: fmt.Sprintf("saved %d of %d transactions", saved.Saved, len(req.Transactions)),
		BatchID: req.BatchID,
		Details: UploadDetails{
			TotalReceived:     len(req.Transactions),
			SuccessfullySaved: saved.Saved,
			Failed:            len(req.Transactions) - saved.Saved,
		},
		Warnings:   warnings,
		ArchiveKey: archiveKey,
	}

	r.logger.Info(
		"upload stored",
		"batch_id", req.BatchID,
		"received", result.Details.TotalReceived,
		"saved", result.Details.SuccessfullySaved,
		"failed", result.Details.Failed,
	)
	return result, nil
}

func (r *repo) ListRaw(
	ctx context.Context,
	page pagination.PageRequest,
) (*pagination.PageResult[Transaction], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(rawProjection, rawDefaultSort...).
		WhereSearch(page.Search, "belegnummer", "kostenstelle", "text_field")

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	result, err := repository.QueryPage(ctx, r.db, qb, page, scanTransaction)
	if err != nil {
		return nil, fmt.Errorf("list raw transactions: %w", err)
	}
	return result, nil
}

func (r *repo) ListProcessed(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Record], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(processedProjection, processedDefaultSort...).
		WhereSearch(page.Search, "belegnummer", "kostenstelle", "text_field", "department", "region")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	result, err := repository.QueryPage(ctx, r.db, qb, page, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("list processed transactions: %w", err)
	}
	return result, nil
}

// archive stores the raw upload payload when blob storage is configured.
// Archive failures are logged and never block the upload.
func (r *repo) archive(ctx context.Context, req UploadRequest, uploadedAt time.Time) string {
	if r.storage == nil {
		return ""
	}

	data, err := json.Marshal(req)
	if err != nil {
		r.logger.Warn("upload archive encode failed", "batch_id", req.BatchID, "error", err)
		return ""
	}

	key := archiveKey(req.BatchID, "")
	exists, err := r.storage.Exists(ctx, key)
	if err != nil {
		r.logger.Warn("upload archive lookup failed", "key", key, "error", err)
		return ""
	}
	if exists {
		key = archiveKey(req.BatchID, uploadedAt.Format("20060102T150405"))
	}

	if err := r.storage.Upload(ctx, key, bytes.NewReader(data), "application/json"); err != nil {
		r.logger.Warn("upload archive failed", "key", key, "error", err)
		return ""
	}

	return key
}

func archiveKey(batchID, suffix string) string {
	if suffix == "" {
		return fmt.Sprintf("uploads/%s.json", batchID)
	}
	return fmt.Sprintf("uploads/%s-%s.json", batchID, suffix)
}

func scanString(s repository.Scanner) (string, error) {
	var v string
	err := s.Scan(&v)
	return v, err
}
