package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/costmap/internal/locations"
	"github.com/JaimeStill/costmap/internal/pipeline"
	"github.com/JaimeStill/costmap/internal/transactions"
	"github.com/JaimeStill/costmap/pkg/pagination"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func raw(doc, kst, amount string) transactions.Raw {
	return transactions.Raw{
		DocumentNumber: doc,
		CostCenter:     kst,
		Amount:         amount,
		BookingDate:    "2026-02-14",
		GLAccount:      "6000100",
	}
}

type pinger struct{ err error }

func (p pinger) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.err
}

type references struct {
	hq       []locations.HQRow
	floor    []locations.FloorRow
	floorErr error
}

func (r *references) LoadHQ(context.Context) ([]locations.HQRow, error) {
	return r.hq, nil
}

func (r *references) LoadFloor(context.Context) ([]locations.FloorRow, error) {
	return r.floor, r.floorErr
}

// ledger stands in for the raw and processed transaction tables.
type ledger struct {
	mu        sync.Mutex
	rows      []transactions.Raw
	processed []transactions.Record
	batches   []string
	failEvery int
	saveErr   error
	release   chan struct{}
	entered   chan struct{}
}

func (l *ledger) LoadRecent(context.Context, int) ([]transactions.Raw, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]transactions.Raw(nil), l.rows...), nil
}

func (l *ledger) LoadRecentFingerprints(context.Context, int) (map[string]struct{}, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	seen := make(map[string]struct{}, len(l.processed))
	for _, rec := range l.processed {
		seen[rec.Fingerprint] = struct{}{}
	}
	return seen, nil
}

func (l *ledger) SaveBatch(
	_ context.Context,
	records []transactions.Record,
	batchID string,
	processedAt time.Time,
) (transactions.SaveResult, error) {
	if l.entered != nil {
		close(l.entered)
	}
	if l.release != nil {
		<-l.release
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.saveErr != nil {
		return transactions.SaveResult{}, l.saveErr
	}

	var res transactions.SaveResult
	for i, rec := range records {
		if l.failEvery > 0 && (i+1)%l.failEvery == 0 {
			res.Failed++
			continue
		}
		rec.BatchID = batchID
		rec.ProcessedAt = processedAt
		l.processed = append(l.processed, rec)
		res.Saved++
	}
	l.batches = append(l.batches, batchID)
	return res, nil
}

type history struct {
	mu      sync.Mutex
	runs    []pipeline.Summary
	failure error
}

func (h *history) Record(_ context.Context, s pipeline.Summary) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failure != nil {
		return h.failure
	}
	h.runs = append(h.runs, s)
	return nil
}

func (h *history) List(
	_ context.Context,
	page pagination.PageRequest,
	_ pipeline.RunFilters,
) (*pagination.PageResult[pipeline.Summary], error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	result := pagination.NewPageResult(h.runs, len(h.runs), page.Page, page.PageSize)
	return &result, nil
}

func (h *history) Find(_ context.Context, id uuid.UUID) (*pipeline.Summary, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.runs {
		if s.RunID == id {
			return &s, nil
		}
	}
	return nil, pipeline.ErrNotFound
}

type archive struct {
	keys      []string
	data      [][]byte
	existsErr error
}

func (a *archive) Exists(_ context.Context, key string) (bool, error) {
	if a.existsErr != nil {
		return false, a.existsErr
	}
	return slices.Contains(a.keys, key), nil
}

func (a *archive) Upload(_ context.Context, key string, r io.Reader, _ string) error {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return err
	}
	a.keys = append(a.keys, key)
	a.data = append(a.data, buf.Bytes())
	return nil
}

var errUnavailable = errors.New("connection refused")
