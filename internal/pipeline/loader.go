package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/costmap/internal/transactions"
)

// Loader produces the transactions a run still has to process.
type Loader struct {
	Source TransactionSource
	Logger *slog.Logger
}

// LoadUnprocessed loads raw rows uploaded within the trailing windowDays,
// normalizes them, and drops every row whose fingerprint is in seen or
// already occurred earlier in the same load. Source order (most recent
// upload first) is preserved, so the most recent copy of a duplicate wins.
//
// The in-load check treats rows with equal fingerprints as one transaction.
// A re-uploaded export is therefore processed once, but two genuine line
// items of one document that agree on document number, cost center, amount,
// booking date and account also collapse into a single record. The count of
// dropped rows is logged as repeated_in_window.
func (l Loader) LoadUnprocessed(
	ctx context.Context,
	windowDays int,
	seen map[string]struct{},
) ([]transactions.Transaction, error) {
	rows, err := l.Source.LoadRecent(ctx, windowDays)
	if err != nil {
		return nil, fmt.Errorf("load recent transactions: %w", err)
	}

	batch := make(map[string]struct{}, len(rows))
	out := make([]transactions.Transaction, 0, len(rows))
	var processed, repeated int

	for _, row := range rows {
		tx := transactions.FromRaw(row)
		fp := transactions.Fingerprint(tx)

		if _, ok := seen[fp]; ok {
			processed++
			continue
		}
		if _, ok := batch[fp]; ok {
			repeated++
			continue
		}

		batch[fp] = struct{}{}
		out = append(out, tx)
	}

	if l.Logger != nil {
		l.Logger.Info(
			"unprocessed transactions selected",
			"window_days", windowDays,
			"loaded", len(rows),
			"already_processed", processed,
			"repeated_in_window", repeated,
			"new", len(out),
		)
	}

	return out, nil
}
