package transactions_test

import (
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/JaimeStill/costmap/internal/transactions"
)

func uploadRequest(rows ...transactions.Raw) transactions.UploadRequest {
	return transactions.UploadRequest{
		TransactionType: transactions.TransactionTypeFAGLL03,
		BatchID:         "SAP_20260301",
		Transactions:    rows,
	}
}

func TestUploadValidate(t *testing.T) {
	row := transactions.Raw{DocumentNumber: "1", Amount: "1"}

	tests := []struct {
		name string
		req  transactions.UploadRequest
		max  int
		want error
	}{
		{"valid", uploadRequest(row), 10, nil},
		{"wrong type", transactions.UploadRequest{TransactionType: "FB03", BatchID: "b", Transactions: []transactions.Raw{row}}, 10, transactions.ErrInvalidTransactionType},
		{"missing batch", transactions.UploadRequest{TransactionType: "FAGLL03", BatchID: "  ", Transactions: []transactions.Raw{row}}, 10, transactions.ErrMissingBatchID},
		{"empty", uploadRequest(), 10, transactions.ErrEmptyBatch},
		{"too large", uploadRequest(row, row, row), 2, transactions.ErrBatchTooLarge},
		{"no limit", uploadRequest(row, row, row), 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate(tt.max)
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestUploadPrepare(t *testing.T) {
	req := uploadRequest(
		transactions.Raw{ID: 99, DocumentNumber: "5100000001", Amount: "1.234,56", CostCenter: "10061000"},
		transactions.Raw{DocumentNumber: "", Amount: "10"},
		transactions.Raw{DocumentNumber: "5100000003", Amount: "abc"},
		transactions.Raw{DocumentNumber: "5100000004", Amount: "-5"},
	)
	req.BatchID = " SAP_20260301 "

	rows, warnings := req.Prepare()

	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if len(warnings) != 2 {
		t.Fatalf("warnings = %v", warnings)
	}
	if !strings.Contains(warnings[0], "transaction 2") || !strings.Contains(warnings[1], "transaction 3") {
		t.Errorf("warnings = %v", warnings)
	}

	for _, row := range rows {
		if row.ID != 0 {
			t.Errorf("%s: client id %d kept", row.DocumentNumber, row.ID)
		}
		if row.SourceBatch == nil || *row.SourceBatch != "SAP_20260301" {
			t.Errorf("%s: source batch = %v", row.DocumentNumber, row.SourceBatch)
		}
		if row.SourceSystem == nil || *row.SourceSystem != transactions.SourceSystemAPI {
			t.Errorf("%s: source system = %v", row.DocumentNumber, row.SourceSystem)
		}
	}
}

func TestUploadRowText(t *testing.T) {
	tests := []struct {
		name string
		row  string
		want string
	}{
		{"text key", `{"belegnummer": "5100000001", "betrag_in_hauswaehrung": "12,50", "kostenstelle": "10061000", "text": "Miete Januar"}`, "Miete Januar"},
		{"column name", `{"belegnummer": "5100000001", "betrag_in_hauswaehrung": "12,50", "kostenstelle": "10061000", "text_field": "Miete Februar"}`, "Miete Februar"},
		{"text key wins", `{"belegnummer": "5100000001", "betrag_in_hauswaehrung": "12,50", "text": "Strom", "text_field": "Miete"}`, "Strom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"transaction_type": "FAGLL03", "batch_id": "SAP_20260301", "transactions": [` + tt.row + `]}`

			var req transactions.UploadRequest
			if err := json.Unmarshal([]byte(body), &req); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}

			rows, warnings := req.Prepare()
			if len(rows) != 1 || len(warnings) != 0 {
				t.Fatalf("rows = %d, warnings = %v", len(rows), warnings)
			}
			if rows[0].Text == nil || *rows[0].Text != tt.want {
				t.Errorf("Text = %v, want %q", rows[0].Text, tt.want)
			}
		})
	}
}

func TestUploadRowLargeNumbers(t *testing.T) {
	body := `{"transaction_type": "FAGLL03", "batch_id": "SAP_20260301", "transactions": [
		{"belegnummer": 9007199254740993, "betrag_in_hauswaehrung": 1234.56, "kostenstelle": 300123456, "geschaeftsjahr": 2026}
	]}`

	var req transactions.UploadRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	rows, warnings := req.Prepare()
	if len(rows) != 1 {
		t.Fatalf("rows = %d, warnings = %v", len(rows), warnings)
	}

	row := rows[0]
	if row.DocumentNumber != "9007199254740993" {
		t.Errorf("DocumentNumber = %q, want every digit kept", row.DocumentNumber)
	}
	if row.CostCenter != "300123456" {
		t.Errorf("CostCenter = %q", row.CostCenter)
	}
	if row.Amount.String() != "1234.56" {
		t.Errorf("Amount = %s", row.Amount)
	}
	if row.FiscalYear == nil || *row.FiscalYear != 2026 {
		t.Errorf("FiscalYear = %v", row.FiscalYear)
	}
}

func TestFiltersFromQuery(t *testing.T) {
	values, _ := url.ParseQuery("category=outlier&location_type=Floor&batch_id=BATCH_20260301_080000&kostenstelle=3001")
	f := transactions.FiltersFromQuery(values)

	if f.Category == nil || *f.Category != transactions.CategoryOutlier {
		t.Errorf("Category = %v", f.Category)
	}
	if f.LocationType == nil || *f.LocationType != "Floor" {
		t.Errorf("LocationType = %v", f.LocationType)
	}
	if f.BatchID == nil || f.CostCenter == nil || *f.CostCenter != "3001" {
		t.Errorf("filters = %+v", f)
	}
	if f.Department != nil {
		t.Errorf("Department = %v, want nil", *f.Department)
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{transactions.ErrNotFound, 404},
		{transactions.ErrDuplicate, 409},
		{transactions.ErrPayloadTooLarge, 413},
		{transactions.ErrBatchTooLarge, 400},
		{transactions.ErrInvalidTransactionType, 400},
		{errors.New("db down"), 500},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := transactions.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}
