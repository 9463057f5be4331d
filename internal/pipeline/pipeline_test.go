package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JaimeStill/costmap/internal/locations"
	"github.com/JaimeStill/costmap/internal/pipeline"
	"github.com/JaimeStill/costmap/internal/transactions"
	"github.com/JaimeStill/costmap/pkg/pagination"
)

var fixedNow = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

type fixture struct {
	ledger  *ledger
	refs    *references
	history *history
	archive *archive
	ping    pinger
}

func newFixture() *fixture {
	return &fixture{
		ledger: &ledger{
			rows: []transactions.Raw{
				raw("5100000001", "10061000", "1.234,56"),
				raw("5100000002", "300123456", "-200.00"),
				raw("5100000003", "123", "15"),
			},
		},
		refs: &references{
			hq:    []locations.HQRow{{CostCenter: "10061000", Department: "Finance", Designation: "Zentrale"}},
			floor: []locations.FloorRow{{CostCenter: "123", Department: "Retail", Region: "Nord"}},
		},
		history: &history{},
		archive: &archive{},
	}
}

func (f *fixture) pipeline(t *testing.T) *pipeline.Pipeline {
	t.Helper()

	var cfg pipeline.Config
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize config: %v", err)
	}
	var page pagination.Config
	page.Finalize(nil)

	return pipeline.New(
		pipeline.Deps{
			DB:           f.ping,
			References:   f.refs,
			Transactions: f.ledger,
			Fingerprints: f.ledger,
			Sink:         f.ledger,
			History:      f.history,
			Archive:      f.archive,
		},
		cfg,
		discard(),
		page,
		pipeline.WithClock(func() time.Time { return fixedNow }),
	)
}

func TestRunClassifiesAndPersists(t *testing.T) {
	f := newFixture()
	s := f.pipeline(t).Run(context.Background(), pipeline.TriggerManual)

	if s.Status != pipeline.StatusSuccess {
		t.Fatalf("status = %s: %s", s.Status, s.Message)
	}
	if s.TransactionsLoaded != 3 || s.TransactionsSaved != 3 || s.TransactionsFailed != 0 {
		t.Errorf("loaded/saved/failed = %d/%d/%d", s.TransactionsLoaded, s.TransactionsSaved, s.TransactionsFailed)
	}
	if s.BatchID != "BATCH_20260301_080000" {
		t.Errorf("batch id = %s", s.BatchID)
	}
	if s.DirectCosts != 2 || s.Outliers != 1 {
		t.Errorf("direct/outliers = %d/%d", s.DirectCosts, s.Outliers)
	}
	if s.CategoryCounts[transactions.CategoryDirectCost] != 2 || s.CategoryCounts[transactions.CategoryOutlier] != 1 {
		t.Errorf("category counts = %v", s.CategoryCounts)
	}
	if want := decimal.RequireFromString("1049.56"); !s.TotalAmount.Equal(want) {
		t.Errorf("total = %s, want %s", s.TotalAmount, want)
	}

	for _, rec := range f.ledger.processed {
		if rec.BatchID != s.BatchID || rec.Fingerprint == "" {
			t.Errorf("%s: batch %q fingerprint %q", rec.DocumentNumber, rec.BatchID, rec.Fingerprint)
		}
	}

	if len(f.history.runs) != 1 || f.history.runs[0].RunID != s.RunID {
		t.Errorf("history = %+v", f.history.runs)
	}

	if len(f.archive.keys) != 1 || f.archive.keys[0] != "runs/BATCH_20260301_080000.json" {
		t.Fatalf("archive keys = %v", f.archive.keys)
	}
	var archived pipeline.Summary
	if err := json.Unmarshal(f.archive.data[0], &archived); err != nil {
		t.Fatalf("archived summary: %v", err)
	}
	if archived.RunID != s.RunID {
		t.Errorf("archived run id = %s, want %s", archived.RunID, s.RunID)
	}
}

func TestRunTwiceSavesNothingNew(t *testing.T) {
	f := newFixture()
	p := f.pipeline(t)

	first := p.Run(context.Background(), pipeline.TriggerSchedule)
	if first.TransactionsSaved != 3 {
		t.Fatalf("first run saved %d, want 3", first.TransactionsSaved)
	}

	second := p.Run(context.Background(), pipeline.TriggerSchedule)
	if second.Status != pipeline.StatusSuccess || second.TransactionsSaved != 0 {
		t.Errorf("second run = %s saved %d, want success saved 0", second.Status, second.TransactionsSaved)
	}
	if second.BatchID != "" {
		t.Errorf("second run batch id = %q, want none", second.BatchID)
	}
	if len(f.ledger.batches) != 1 {
		t.Errorf("batches written = %d, want 1", len(f.ledger.batches))
	}
}

func TestRunArchiveKeyWithinSameSecond(t *testing.T) {
	f := newFixture()
	p := f.pipeline(t)

	first := p.Run(context.Background(), pipeline.TriggerManual)
	f.ledger.rows = append(f.ledger.rows, raw("5100000004", "10061000", "99"))
	second := p.Run(context.Background(), pipeline.TriggerManual)

	if first.BatchID != second.BatchID {
		t.Fatalf("batch ids = %s, %s, want equal under a fixed clock", first.BatchID, second.BatchID)
	}

	want := []string{
		"runs/BATCH_20260301_080000.json",
		"runs/BATCH_20260301_080000-" + second.RunID.String() + ".json",
	}
	if len(f.archive.keys) != 2 || f.archive.keys[0] != want[0] || f.archive.keys[1] != want[1] {
		t.Errorf("archive keys = %v, want %v", f.archive.keys, want)
	}
}

func TestRunArchiveLookupFailureKeepsOutcome(t *testing.T) {
	f := newFixture()
	f.archive.existsErr = errUnavailable

	s := f.pipeline(t).Run(context.Background(), pipeline.TriggerManual)
	if s.Status != pipeline.StatusSuccess {
		t.Fatalf("status = %s: %s", s.Status, s.Message)
	}
	if len(f.archive.keys) != 0 {
		t.Errorf("archive keys = %v, want none", f.archive.keys)
	}
	if len(f.history.runs) != 1 {
		t.Errorf("history = %d runs, want 1", len(f.history.runs))
	}
}

func TestRunDeduplicatesWithinLoad(t *testing.T) {
	f := newFixture()
	// same content uploaded twice in different batches, plus a trailing-space variant
	f.ledger.rows = []transactions.Raw{
		raw("5100000001", "10061000", "1.234,56"),
		raw("5100000001 ", "10061000", "1234.56"),
	}

	s := f.pipeline(t).Run(context.Background(), pipeline.TriggerManual)

	if s.TransactionsLoaded != 1 || s.TransactionsSaved != 1 {
		t.Errorf("loaded/saved = %d/%d, want 1/1", s.TransactionsLoaded, s.TransactionsSaved)
	}
}

func TestRunFailures(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *fixture)
		message string
	}{
		{
			"connectivity",
			func(f *fixture) { f.ping = pinger{err: errUnavailable} },
			"connectivity check",
		},
		{
			"reference tables",
			func(f *fixture) { f.refs.floorErr = errUnavailable },
			"load reference tables",
		},
		{
			"batch write",
			func(f *fixture) { f.ledger.saveErr = errUnavailable },
			"persist batch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.setup(f)

			s := f.pipeline(t).Run(context.Background(), pipeline.TriggerManual)

			if s.Status != pipeline.StatusError {
				t.Fatalf("status = %s, want error", s.Status)
			}
			if !strings.Contains(s.Message, tt.message) || !strings.Contains(s.Message, errUnavailable.Error()) {
				t.Errorf("message = %q", s.Message)
			}
			if s.TransactionsSaved != 0 || len(f.ledger.processed) != 0 {
				t.Errorf("records persisted on failure: %d", len(f.ledger.processed))
			}
			if len(f.history.runs) != 1 || f.history.runs[0].Status != pipeline.StatusError {
				t.Errorf("history = %+v", f.history.runs)
			}
		})
	}
}

func TestRunEmptyReferenceTablesYieldOutliers(t *testing.T) {
	f := newFixture()
	f.refs.hq, f.refs.floor = nil, nil

	s := f.pipeline(t).Run(context.Background(), pipeline.TriggerManual)

	if s.Status != pipeline.StatusSuccess {
		t.Fatalf("status = %s: %s", s.Status, s.Message)
	}
	if s.DirectCosts != 0 || s.Outliers != 3 || s.TransactionsSaved != 3 {
		t.Errorf("direct/outliers/saved = %d/%d/%d", s.DirectCosts, s.Outliers, s.TransactionsSaved)
	}
}

func TestRunCountsRowFailures(t *testing.T) {
	f := newFixture()
	f.ledger.failEvery = 2

	s := f.pipeline(t).Run(context.Background(), pipeline.TriggerManual)

	if s.Status != pipeline.StatusSuccess {
		t.Fatalf("status = %s", s.Status)
	}
	if s.TransactionsSaved != 2 || s.TransactionsFailed != 1 {
		t.Errorf("saved/failed = %d/%d, want 2/1", s.TransactionsSaved, s.TransactionsFailed)
	}
	if !strings.Contains(s.Message, "1 failed") {
		t.Errorf("message = %q", s.Message)
	}
}

func TestRunIgnoresCallerCancellation(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := f.pipeline(t).Run(ctx, pipeline.TriggerManual)

	if s.Status != pipeline.StatusSuccess || s.TransactionsSaved != 3 {
		t.Errorf("status = %s saved %d: %s", s.Status, s.TransactionsSaved, s.Message)
	}
}

func TestRunHistoryFailureDoesNotFailRun(t *testing.T) {
	f := newFixture()
	f.history.failure = errors.New("processing_runs missing")

	s := f.pipeline(t).Run(context.Background(), pipeline.TriggerManual)

	if s.Status != pipeline.StatusSuccess {
		t.Errorf("status = %s, want success", s.Status)
	}
}

func TestRunRejectsOverlap(t *testing.T) {
	f := newFixture()
	f.ledger.entered = make(chan struct{})
	f.ledger.release = make(chan struct{})
	p := f.pipeline(t)

	done := make(chan pipeline.Summary)
	go func() {
		done <- p.Run(context.Background(), pipeline.TriggerSchedule)
	}()

	<-f.ledger.entered
	if !p.Running() {
		t.Error("Running() = false during a run")
	}

	busy := p.Run(context.Background(), pipeline.TriggerManual)
	if busy.Status != pipeline.StatusBusy {
		t.Errorf("overlapping run status = %s, want busy", busy.Status)
	}

	close(f.ledger.release)
	first := <-done

	if first.Status != pipeline.StatusSuccess {
		t.Errorf("first run status = %s", first.Status)
	}
	if p.Running() {
		t.Error("Running() = true after run finished")
	}
	if len(f.history.runs) != 1 {
		t.Errorf("history entries = %d, busy runs must not be recorded", len(f.history.runs))
	}
}

func TestRunsAndFindRun(t *testing.T) {
	f := newFixture()
	p := f.pipeline(t)
	s := p.Run(context.Background(), pipeline.TriggerCLI)

	page, err := p.Runs(context.Background(), pagination.PageRequest{Page: 1, PageSize: 10}, pipeline.RunFilters{})
	if err != nil || page.Total != 1 {
		t.Fatalf("Runs() = %+v, %v", page, err)
	}

	found, err := p.FindRun(context.Background(), s.RunID)
	if err != nil || found.BatchID != s.BatchID {
		t.Errorf("FindRun() = %+v, %v", found, err)
	}
}

func TestBatchID(t *testing.T) {
	got := pipeline.BatchID(time.Date(2026, 12, 31, 23, 59, 7, 0, time.UTC))
	if got != "BATCH_20261231_235907" {
		t.Errorf("BatchID() = %s", got)
	}
}
