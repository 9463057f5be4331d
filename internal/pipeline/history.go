package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/google/uuid"

	"github.com/JaimeStill/costmap/pkg/pagination"
	"github.com/JaimeStill/costmap/pkg/query"
	"github.com/JaimeStill/costmap/pkg/repository"
)

// History persists processing run summaries.
type History interface {
	Record(ctx context.Context, s Summary) error
	List(ctx context.Context, page pagination.PageRequest, filters RunFilters) (*pagination.PageResult[Summary], error)
	Find(ctx context.Context, id uuid.UUID) (*Summary, error)
}

var runProjection = query.
	NewProjectionMap("public", "processing_runs", "r").
	Project("id", "id").
	Project("trigger", "trigger").
	Project("status", "status").
	Project("message", "message").
	Project("batch_id", "batch_id").
	Project("transactions_loaded", "transactions_loaded").
	Project("transactions_saved", "transactions_saved").
	Project("transactions_failed", "transactions_failed").
	Project("direct_costs", "direct_costs").
	Project("outliers", "outliers").
	Project("total_amount", "total_amount").
	Project("processing_time", "processing_time").
	Project("started_at", "started_at").
	Project("finished_at", "finished_at")

var runDefaultSort = query.SortField{Field: "started_at", Descending: true}

var insertRunSQL = query.Insert(
	"public", "processing_runs",
	"id", "trigger", "status", "message", "batch_id",
	"transactions_loaded", "transactions_saved", "transactions_failed",
	"direct_costs", "outliers", "total_amount", "processing_time",
	"started_at", "finished_at",
)

// RunFilters contains optional filtering criteria for run history queries.
type RunFilters struct {
	Status  *string `json:"status,omitempty"`
	Trigger *string `json:"trigger,omitempty"`
	BatchID *string `json:"batch_id,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f RunFilters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("status", f.Status).
		WhereEquals("trigger", f.Trigger).
		WhereEquals("batch_id", f.BatchID)
}

// RunFiltersFromQuery extracts filter values from URL query parameters.
func RunFiltersFromQuery(values url.Values) RunFilters {
	var f RunFilters
	if v := values.Get("status"); v != "" {
		f.Status = &v
	}
	if v := values.Get("trigger"); v != "" {
		f.Trigger = &v
	}
	if v := values.Get("batch_id"); v != "" {
		f.BatchID = &v
	}
	return f
}

type history struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHistory creates a run history repository backed by processing_runs.
func NewHistory(db *sql.DB, logger *slog.Logger, pagination pagination.Config) History {
	return &history{
		db:         db,
		logger:     logger.With("system", "processing_runs"),
		pagination: pagination,
	}
}

func (h *history) Record(ctx context.Context, s Summary) error {
	var batchID *string
	if s.BatchID != "" {
		batchID = &s.BatchID
	}

	_, err := h.db.ExecContext(ctx, insertRunSQL,
		s.RunID, s.Trigger, s.Status, s.Message, batchID,
		s.TransactionsLoaded, s.TransactionsSaved, s.TransactionsFailed,
		s.DirectCosts, s.Outliers, s.TotalAmount, s.ProcessingTime,
		s.StartedAt, s.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", s.RunID, repository.MapError(err, ErrNotFound, ErrDuplicate))
	}
	return nil
}

func (h *history) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters RunFilters,
) (*pagination.PageResult[Summary], error) {
	page.Normalize(h.pagination)

	qb := query.
		NewBuilder(runProjection, runDefaultSort).
		WhereSearch(page.Search, "message", "batch_id")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	result, err := repository.QueryPage(ctx, h.db, qb, page, scanRun)
	if err != nil {
		return nil, fmt.Errorf("list processing runs: %w", err)
	}
	return result, nil
}

func (h *history) Find(ctx context.Context, id uuid.UUID) (*Summary, error) {
	q, args := query.NewBuilder(runProjection).BuildSingle("id", id)

	s, err := repository.QueryOne(ctx, h.db, q, args, scanRun)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &s, nil
}

func scanRun(sc repository.Scanner) (Summary, error) {
	var (
		s       Summary
		batchID sql.NullString
	)
	err := sc.Scan(
		&s.RunID,
		&s.Trigger,
		&s.Status,
		&s.Message,
		&batchID,
		&s.TransactionsLoaded,
		&s.TransactionsSaved,
		&s.TransactionsFailed,
		&s.DirectCosts,
		&s.Outliers,
		&s.TotalAmount,
		&s.ProcessingTime,
		&s.StartedAt,
		&s.FinishedAt,
	)
	if err != nil {
		return Summary{}, err
	}
	s.BatchID = batchID.String
	s.CategoryCounts = categoryCounts(s.DirectCosts, s.Outliers)
	return s, nil
}
