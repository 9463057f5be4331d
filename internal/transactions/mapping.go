package transactions

import (
	"net/url"
	"strings"
	"time"

	"github.com/JaimeStill/costmap/pkg/normalize"
	"github.com/JaimeStill/costmap/pkg/query"
	"github.com/JaimeStill/costmap/pkg/repository"
)

var ledgerColumns = []string{
	"buchungskreis",
	"hauptbuchkonto",
	"geschaeftsjahr",
	"buchungsperiode",
	"belegart",
	"belegnummer",
	"buchungsdatum",
	"belegdatum",
	"text_field",
	"soll_haben_kennz",
	"buchungsschluessel",
	"betrag_in_hauswaehrung",
	"kostenstelle",
	"auftrag",
	"psp_element",
	"einkaufsbeleg",
	"steuerkennzeichen",
	"geschaeftsbereich",
	"ausgleichsbeleg",
	"konto_gegenbuchung",
	"material",
}

var rawProjection = project(
	query.NewProjectionMap("public", "sap_transactions", "t").Project("id", "id"),
	ledgerColumns,
).
	Project("batch_id", "batch_id").
	Project("upload_date", "upload_date").
	Project("source_system", "source_system")

var processedProjection = project(
	query.NewProjectionMap("public", "sap_transactions_processed", "p").Project("id", "id"),
	ledgerColumns,
).
	Project("source_batch_id", "source_batch_id").
	Project("upload_date", "upload_date").
	Project("source_system", "source_system").
	Project("department", "department").
	Project("region", "region").
	Project("district", "district").
	Project("location_type", "location_type").
	Project("category", "category").
	Project("status", "status").
	Project("transaction_fingerprint", "transaction_fingerprint").
	Project("batch_id", "batch_id").
	Project("processing_date", "processing_date")

var (
	rawDefaultSort = []query.SortField{
		{Field: "upload_date", Descending: true},
		{Field: "id", Descending: true},
	}
	processedDefaultSort = []query.SortField{
		{Field: "processing_date", Descending: true},
		{Field: "id", Descending: true},
	}
)

var insertRawSQL = query.Insert(
	"public", "sap_transactions",
	append(append([]string{}, ledgerColumns...), "batch_id", "upload_date", "source_system")...,
)

var insertProcessedSQL = query.Insert(
	"public", "sap_transactions_processed",
	append(append([]string{}, ledgerColumns...),
		"source_batch_id", "upload_date", "source_system",
		"department", "region", "district", "location_type",
		"category", "status", "transaction_fingerprint",
		"batch_id", "processing_date",
	)...,
)

// Filters contains optional criteria for processed record queries.
// Nil fields are ignored. CostCenter uses case-insensitive contains matching;
// the rest match exactly.
type Filters struct {
	Category     *string `json:"category,omitempty"`
	LocationType *string `json:"location_type,omitempty"`
	BatchID      *string `json:"batch_id,omitempty"`
	Department   *string `json:"department,omitempty"`
	CostCenter   *string `json:"kostenstelle,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("category", f.Category).
		WhereEquals("location_type", f.LocationType).
		WhereEquals("batch_id", f.BatchID).
		WhereEquals("department", f.Department).
		WhereContains("kostenstelle", f.CostCenter)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if c := values.Get("category"); c != "" {
		c = strings.ToUpper(c)
		f.Category = &c
	}
	if lt := values.Get("location_type"); lt != "" {
		f.LocationType = &lt
	}
	if b := values.Get("batch_id"); b != "" {
		f.BatchID = &b
	}
	if d := values.Get("department"); d != "" {
		f.Department = &d
	}
	if k := values.Get("kostenstelle"); k != "" {
		f.CostCenter = &k
	}

	return f
}

func project(p *query.ProjectionMap, columns []string) *query.ProjectionMap {
	for _, col := range columns {
		p.Project(col, col)
	}
	return p
}

func ledgerArgs(t Transaction) []any {
	return []any{
		t.CompanyCode,
		t.GLAccount,
		t.FiscalYear,
		t.PostingPeriod,
		t.DocumentType,
		t.DocumentNumber,
		dateArg(t.BookingDate),
		dateArg(t.DocumentDate),
		t.Text,
		t.DebitCredit,
		t.PostingKey,
		t.Amount,
		t.CostCenter,
		t.Order,
		t.WBSElement,
		t.PurchaseDocument,
		t.TaxCode,
		t.BusinessArea,
		t.ClearingDocument,
		t.OffsettingAccount,
		t.Material,
	}
}

func rawArgs(t Transaction, uploadedAt time.Time) []any {
	return append(ledgerArgs(t), t.SourceBatch, uploadedAt, t.SourceSystem)
}

func processedArgs(r Record, batchID string, processedAt time.Time) []any {
	return append(ledgerArgs(r.Transaction),
		r.SourceBatch,
		r.UploadDate,
		r.SourceSystem,
		r.Department,
		r.Region,
		r.District,
		r.LocationType,
		r.Category,
		r.Status,
		r.Fingerprint,
		batchID,
		processedAt,
	)
}

func scanRaw(s repository.Scanner) (Raw, error) {
	var r Raw
	err := s.Scan(
		&r.ID,
		&r.CompanyCode,
		&r.GLAccount,
		&r.FiscalYear,
		&r.PostingPeriod,
		&r.DocumentType,
		&r.DocumentNumber,
		&r.BookingDate,
		&r.DocumentDate,
		&r.Text,
		&r.DebitCredit,
		&r.PostingKey,
		&r.Amount,
		&r.CostCenter,
		&r.Order,
		&r.WBSElement,
		&r.PurchaseDocument,
		&r.TaxCode,
		&r.BusinessArea,
		&r.ClearingDocument,
		&r.OffsettingAccount,
		&r.Material,
		&r.BatchID,
		&r.UploadDate,
		&r.SourceSystem,
	)
	return r, err
}

func scanTransaction(s repository.Scanner) (Transaction, error) {
	r, err := scanRaw(s)
	if err != nil {
		return Transaction{}, err
	}
	return FromRaw(r), nil
}

func scanRecord(s repository.Scanner) (Record, error) {
	var (
		r                    Record
		bookingDate, docDate any
	)
	err := s.Scan(
		&r.ID,
		&r.CompanyCode,
		&r.GLAccount,
		&r.FiscalYear,
		&r.PostingPeriod,
		&r.DocumentType,
		&r.DocumentNumber,
		&bookingDate,
		&docDate,
		&r.Text,
		&r.DebitCredit,
		&r.PostingKey,
		&r.Amount,
		&r.CostCenter,
		&r.Order,
		&r.WBSElement,
		&r.PurchaseDocument,
		&r.TaxCode,
		&r.BusinessArea,
		&r.ClearingDocument,
		&r.OffsettingAccount,
		&r.Material,
		&r.SourceBatch,
		&r.UploadDate,
		&r.SourceSystem,
		&r.Department,
		&r.Region,
		&r.District,
		&r.LocationType,
		&r.Category,
		&r.Status,
		&r.Fingerprint,
		&r.BatchID,
		&r.ProcessedAt,
	)
	r.BookingDate = normalize.Date(bookingDate)
	r.DocumentDate = normalize.Date(docDate)
	return r, err
}

// dateArg binds an empty date as NULL.
func dateArg(d string) any {
	if d == "" {
		return nil
	}
	return d
}
