// Package pipeline runs the incremental classification of ledger
// transactions: it loads rows not yet processed, maps their cost centers
// against fresh reference data, persists the classified batch, and keeps a
// history of every run.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/costmap/internal/classify"
	"github.com/JaimeStill/costmap/internal/locations"
	"github.com/JaimeStill/costmap/internal/transactions"
	"github.com/JaimeStill/costmap/pkg/pagination"
)

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReferenceSource loads the HQ and floor mapping tables.
type ReferenceSource interface {
	LoadHQ(ctx context.Context) ([]locations.HQRow, error)
	LoadFloor(ctx context.Context) ([]locations.FloorRow, error)
}

// TransactionSource loads raw ledger rows uploaded within a trailing window,
// most recent first.
type TransactionSource interface {
	LoadRecent(ctx context.Context, windowDays int) ([]transactions.Raw, error)
}

// FingerprintSource loads the fingerprints persisted within a trailing window.
type FingerprintSource interface {
	LoadRecentFingerprints(ctx context.Context, windowDays int) (map[string]struct{}, error)
}

// ResultSink persists a classified batch, skipping rows that fail.
type ResultSink interface {
	SaveBatch(
		ctx context.Context,
		records []transactions.Record,
		batchID string,
		processedAt time.Time,
	) (transactions.SaveResult, error)
}

// Archiver stores run summaries as blobs.
type Archiver interface {
	Exists(ctx context.Context, key string) (bool, error)
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error
}

// Deps are the collaborators of a Pipeline. Archive may be nil.
type Deps struct {
	DB           Pinger
	References   ReferenceSource
	Transactions TransactionSource
	Fingerprints FingerprintSource
	Sink         ResultSink
	History      History
	Archive      Archiver
}

// System defines the public contract for pipeline operations.
type System interface {
	Handler() *Handler

	// Run executes one pipeline run. Failures are reported through the
	// returned Summary's status, never as an error. A call made while
	// another run is in flight returns immediately with StatusBusy.
	Run(ctx context.Context, trigger string) Summary

	Running() bool
	Config() Config

	Runs(ctx context.Context, page pagination.PageRequest, filters RunFilters) (*pagination.PageResult[Summary], error)
	FindRun(ctx context.Context, id uuid.UUID) (*Summary, error)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock replaces the wall clock used for timestamps and batch ids.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// Pipeline implements System.
type Pipeline struct {
	deps       Deps
	cfg        Config
	logger     *slog.Logger
	pagination pagination.Config
	loader     Loader
	running    atomic.Bool
	now        func() time.Time
}

// New creates a Pipeline. cfg must already be finalized.
func New(
	deps Deps,
	cfg Config,
	logger *slog.Logger,
	pagination pagination.Config,
	opts ...Option,
) *Pipeline {
	logger = logger.With("system", "pipeline")
	p := &Pipeline{
		deps:       deps,
		cfg:        cfg,
		logger:     logger,
		pagination: pagination,
		loader:     Loader{Source: deps.Transactions, Logger: logger},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) Handler() *Handler {
	return NewHandler(p, p.logger, p.pagination)
}

func (p *Pipeline) Running() bool {
	return p.running.Load()
}

func (p *Pipeline) Config() Config {
	return p.cfg
}

func (p *Pipeline) Runs(
	ctx context.Context,
	page pagination.PageRequest,
	filters RunFilters,
) (*pagination.PageResult[Summary], error) {
	return p.deps.History.List(ctx, page, filters)
}

func (p *Pipeline) FindRun(ctx context.Context, id uuid.UUID) (*Summary, error) {
	return p.deps.History.Find(ctx, id)
}

func (p *Pipeline) Run(ctx context.Context, trigger string) Summary {
	if !p.running.CompareAndSwap(false, true) {
		p.logger.Warn("run rejected, another run is in progress", "trigger", trigger)
		s := newSummary(trigger, p.now())
		s.Status = StatusBusy
		s.Message = "a processing run is already in progress"
		return s
	}
	defer p.running.Store(false)

	// runs are not cancellable once started
	ctx = context.WithoutCancel(ctx)

	s := newSummary(trigger, p.now())
	logger := p.logger.With("run_id", s.RunID, "trigger", trigger)
	logger.Info("processing run started")

	err := p.execute(ctx, &s, logger)

	s.FinishedAt = p.now()
	s.ProcessingTime = s.FinishedAt.Sub(s.StartedAt).Seconds()

	if err != nil {
		s.Status = StatusError
		s.Message = err.Error()
		logger.Error("processing run failed", "error", err, "processing_time", s.ProcessingTime)
	} else {
		logger.Info(
			"processing run completed",
			"batch_id", s.BatchID,
			"saved", s.TransactionsSaved,
			"failed", s.TransactionsFailed,
			"processing_time", s.ProcessingTime,
		)
	}

	p.record(ctx, s, logger)
	return s
}

func (p *Pipeline) execute(ctx context.Context, s *Summary, logger *slog.Logger) error {
	if err := p.deps.DB.Ping(ctx); err != nil {
		return fmt.Errorf("connectivity check: %w", err)
	}

	seen, err := p.deps.Fingerprints.LoadRecentFingerprints(ctx, p.cfg.FingerprintWindowDays)
	if err != nil {
		return fmt.Errorf("load processed fingerprints: %w", err)
	}

	txs, err := p.loader.LoadUnprocessed(ctx, p.cfg.WindowDays, seen)
	if err != nil {
		return err
	}
	s.TransactionsLoaded = len(txs)

	if len(txs) == 0 {
		s.Status = StatusSuccess
		s.Message = "no new transactions to process"
		return nil
	}

	idx, err := p.buildIndex(ctx, logger)
	if err != nil {
		return err
	}

	// each run owns its resolver, so the cache starts empty
	resolver := locations.NewResolver(p.cfg.CacheTTLDuration())
	direct, outliers := classify.Classify(txs, resolver, idx)

	stats := resolver.Stats()
	logger.Info(
		"transactions classified",
		"direct_costs", len(direct),
		"outliers", len(outliers),
		"cache_hits", stats.Hits,
		"cache_entries", stats.Entries,
	)

	processedAt := p.now().UTC()
	s.BatchID = BatchID(processedAt)

	records := make([]transactions.Record, 0, len(direct)+len(outliers))
	records = append(records, direct...)
	records = append(records, outliers...)

	saved, err := p.deps.Sink.SaveBatch(ctx, records, s.BatchID, processedAt)
	if err != nil {
		return fmt.Errorf("persist batch %s: %w", s.BatchID, err)
	}

	s.Status = StatusSuccess
	s.TransactionsSaved = saved.Saved
	s.TransactionsFailed = saved.Failed
	s.DirectCosts = len(direct)
	s.Outliers = len(outliers)
	s.CategoryCounts = classify.Counts(direct, outliers)
	s.TotalAmount = classify.Total(direct, outliers)
	s.Message = fmt.Sprintf("processed %d transactions", saved.Saved)
	if saved.Failed > 0 {
		s.Message = fmt.Sprintf("processed %d transactions, %d failed", saved.Saved, saved.Failed)
	}
	return nil
}

func (p *Pipeline) buildIndex(ctx context.Context, logger *slog.Logger) (*locations.Index, error) {
	var (
		hq    []locations.HQRow
		floor []locations.FloorRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		hq, err = p.deps.References.LoadHQ(gctx)
		return err
	})
	g.Go(func() (err error) {
		floor, err = p.deps.References.LoadFloor(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load reference tables: %w", err)
	}

	idx := locations.BuildIndex(hq, floor)

	if idx.Len() == 0 {
		logger.Warn("reference tables are empty, every transaction will be an outlier")
	}
	if n := idx.Collisions(); n > 0 {
		logger.Warn("duplicate cost centers in reference tables, last row kept", "collisions", n)
	}

	logger.Info("location index built", "hq_rows", len(hq), "floor_rows", len(floor), "keys", idx.Len())
	return idx, nil
}

// record stores the summary in run history and archives it. Neither
// failure affects the run outcome.
func (p *Pipeline) record(ctx context.Context, s Summary, logger *slog.Logger) {
	if p.deps.History != nil {
		if err := p.deps.History.Record(ctx, s); err != nil {
			logger.Warn("run history not recorded", "error", err)
		}
	}

	if p.deps.Archive == nil || s.BatchID == "" {
		return
	}

	data, err := json.Marshal(s)
	if err != nil {
		logger.Warn("run summary encode failed", "error", err)
		return
	}

	key, err := p.archiveKey(ctx, s)
	if err != nil {
		logger.Warn("run summary archive lookup failed", "batch_id", s.BatchID, "error", err)
		return
	}
	if err := p.deps.Archive.Upload(ctx, key, bytes.NewReader(data), "application/json"); err != nil {
		logger.Warn("run summary archive failed", "key", key, "error", err)
	}
}

// archiveKey names the summary blob after the batch. Batch ids have
// one-second resolution, so a key already taken by an earlier run in the same
// second gets the run id appended.
func (p *Pipeline) archiveKey(ctx context.Context, s Summary) (string, error) {
	key := fmt.Sprintf("runs/%s.json", s.BatchID)
	exists, err := p.deps.Archive.Exists(ctx, key)
	if err != nil || !exists {
		return key, err
	}
	return fmt.Sprintf("runs/%s-%s.json", s.BatchID, s.RunID), nil
}
