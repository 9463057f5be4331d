package pipeline

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JaimeStill/costmap/internal/transactions"
)

// Run outcomes.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusBusy    = "busy"
)

// Run triggers.
const (
	TriggerManual   = "manual"
	TriggerSchedule = "schedule"
	TriggerCLI      = "cli"
)

// Summary reports the outcome of one pipeline run. It is returned on both
// success and failure and is persisted as the run's history entry.
type Summary struct {
	RunID              uuid.UUID       `json:"run_id"`
	Trigger            string          `json:"trigger"`
	Status             string          `json:"status"`
	Message            string          `json:"message"`
	BatchID            string          `json:"batch_id,omitempty"`
	TransactionsLoaded int             `json:"transactions_loaded"`
	TransactionsSaved  int             `json:"transactions_saved"`
	TransactionsFailed int             `json:"transactions_failed"`
	DirectCosts        int             `json:"direct_costs"`
	Outliers           int             `json:"outliers"`
	CategoryCounts     map[string]int  `json:"category_counts"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	ProcessingTime     float64         `json:"processing_time"`
	StartedAt          time.Time       `json:"started_at,omitzero"`
	FinishedAt         time.Time       `json:"finished_at,omitzero"`
}

func newSummary(trigger string, started time.Time) Summary {
	return Summary{
		RunID:          uuid.New(),
		Trigger:        trigger,
		StartedAt:      started,
		CategoryCounts: map[string]int{},
		TotalAmount:    decimal.Zero,
	}
}

// categoryCounts rebuilds the per-category map from stored totals.
func categoryCounts(direct, outliers int) map[string]int {
	counts := map[string]int{}
	if direct > 0 {
		counts[transactions.CategoryDirectCost] = direct
	}
	if outliers > 0 {
		counts[transactions.CategoryOutlier] = outliers
	}
	return counts
}

// BatchID formats the batch identifier stamped on records processed at t.
func BatchID(t time.Time) string {
	return "BATCH_" + t.Format("20060102_150405")
}
