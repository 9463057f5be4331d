package transactions

import (
	"fmt"
	"strings"

	"github.com/JaimeStill/costmap/pkg/normalize"
)

// Upload constants for the FAGLL03 line-item export.
const (
	TransactionTypeFAGLL03 = "FAGLL03"
	SourceSystemAPI        = "SAP_API_FAGLL03"
	DefaultMaxBatchSize    = 1000
)

// UploadRequest is the body accepted by the upload endpoint.
type UploadRequest struct {
	TransactionType string `json:"transaction_type"`
	BatchID         string `json:"batch_id"`
	Transactions    []Raw  `json:"transactions"`
}

// UploadDetails counts the rows of one upload.
type UploadDetails struct {
	TotalReceived     int `json:"total_received"`
	SuccessfullySaved int `json:"successfully_saved"`
	Failed            int `json:"failed"`
}

// UploadResult reports the outcome of an upload. Warnings name each skipped row.
type UploadResult struct {
	Status     string        `json:"status"`
	Message    string        `json:"message"`
	BatchID    string        `json:"batch_id"`
	Details    UploadDetails `json:"details"`
	Warnings   []string      `json:"warnings,omitempty"`
	ArchiveKey string        `json:"archive_key,omitempty"`
}

// Validate checks the request envelope against the upload contract.
func (r UploadRequest) Validate(maxBatchSize int) error {
	if r.TransactionType != TransactionTypeFAGLL03 {
		return ErrInvalidTransactionType
	}
	if strings.TrimSpace(r.BatchID) == "" {
		return ErrMissingBatchID
	}
	if len(r.Transactions) == 0 {
		return ErrEmptyBatch
	}
	if maxBatchSize > 0 && len(r.Transactions) > maxBatchSize {
		return fmt.Errorf("%w: %d exceeds limit of %d", ErrBatchTooLarge, len(r.Transactions), maxBatchSize)
	}
	return nil
}

// Prepare normalizes each uploaded row, stamping the upload batch and source
// system. Rows without a document number or with an unreadable amount are
// skipped and described in the returned warnings.
func (r UploadRequest) Prepare() ([]Transaction, []string) {
	batchID := strings.TrimSpace(r.BatchID)
	source := SourceSystemAPI

	rows := make([]Transaction, 0, len(r.Transactions))
	var warnings []string

	for i, raw := range r.Transactions {
		if normalize.String(raw.DocumentNumber) == nil {
			warnings = append(warnings, fmt.Sprintf("transaction %d: missing belegnummer", i+1))
			continue
		}
		if _, err := normalize.ParseAmount(raw.Amount); err != nil {
			warnings = append(warnings, fmt.Sprintf("transaction %d: invalid betrag_in_hauswaehrung: %v", i+1, err))
			continue
		}

		t := FromRaw(raw)
		t.ID = 0
		t.SourceBatch = &batchID
		t.SourceSystem = &source
		rows = append(rows, t)
	}

	return rows, warnings
}
