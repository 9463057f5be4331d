// Package transactions implements the SAP ledger transaction domain.
// It provides the raw and normalized row shapes, content fingerprints,
// persistence of raw uploads and classified records, and the FAGLL03
// upload API.
package transactions

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JaimeStill/costmap/pkg/normalize"
)

// Classification outcomes carried by a Record.
const (
	CategoryDirectCost = "DIRECT_COST"
	CategoryOutlier    = "OUTLIER"

	StatusDirectBooked    = "Direct Booked"
	StatusUnknownLocation = "Unknown Location"
)

// Raw is one ledger export row as it arrives from storage or the upload API.
// Cells are loosely typed and converted to a Transaction by FromRaw.
type Raw struct {
	ID                any `json:"id,omitempty"`
	CompanyCode       any `json:"buchungskreis"`
	GLAccount         any `json:"hauptbuchkonto"`
	FiscalYear        any `json:"geschaeftsjahr"`
	PostingPeriod     any `json:"buchungsperiode"`
	DocumentType      any `json:"belegart"`
	DocumentNumber    any `json:"belegnummer"`
	BookingDate       any `json:"buchungsdatum"`
	DocumentDate      any `json:"belegdatum"`
	Text              any `json:"text_field"`
	DebitCredit       any `json:"soll_haben_kennz"`
	PostingKey        any `json:"buchungsschluessel"`
	Amount            any `json:"betrag_in_hauswaehrung"`
	CostCenter        any `json:"kostenstelle"`
	Order             any `json:"auftrag"`
	WBSElement        any `json:"psp_element"`
	PurchaseDocument  any `json:"einkaufsbeleg"`
	TaxCode           any `json:"steuerkennzeichen"`
	BusinessArea      any `json:"geschaeftsbereich"`
	ClearingDocument  any `json:"ausgleichsbeleg"`
	OffsettingAccount any `json:"konto_gegenbuchung"`
	Material          any `json:"material"`
	BatchID           any `json:"batch_id,omitempty"`
	UploadDate        any `json:"upload_date,omitempty"`
	SourceSystem      any `json:"source_system,omitempty"`
}

// UnmarshalJSON decodes numbers as json.Number so document numbers and cost
// centers sent unquoted keep every digit. The free text is read from "text",
// falling back to the "text_field" column name.
func (r *Raw) UnmarshalJSON(data []byte) error {
	type plain Raw
	aux := struct {
		*plain
		FreeText any `json:"text"`
	}{plain: (*plain)(r)}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&aux); err != nil {
		return err
	}

	if aux.FreeText != nil {
		r.Text = aux.FreeText
	}
	return nil
}

// Transaction is a ledger row normalized once at the ingestion boundary.
// Document number, cost center and amount are always present; the remaining
// reference fields are optional.
type Transaction struct {
	ID                int64           `json:"id,omitempty"`
	CompanyCode       *string         `json:"buchungskreis"`
	GLAccount         *string         `json:"hauptbuchkonto"`
	FiscalYear        *int64          `json:"geschaeftsjahr"`
	PostingPeriod     *int64          `json:"buchungsperiode"`
	DocumentType      *string         `json:"belegart"`
	DocumentNumber    string          `json:"belegnummer"`
	BookingDate       string          `json:"buchungsdatum"`
	DocumentDate      string          `json:"belegdatum"`
	Text              *string         `json:"text_field"`
	DebitCredit       *string         `json:"soll_haben_kennz"`
	PostingKey        *string         `json:"buchungsschluessel"`
	Amount            decimal.Decimal `json:"betrag_in_hauswaehrung"`
	CostCenter        string          `json:"kostenstelle"`
	Order             *string         `json:"auftrag"`
	WBSElement        *string         `json:"psp_element"`
	PurchaseDocument  *string         `json:"einkaufsbeleg"`
	TaxCode           *string         `json:"steuerkennzeichen"`
	BusinessArea      *string         `json:"geschaeftsbereich"`
	ClearingDocument  *string         `json:"ausgleichsbeleg"`
	OffsettingAccount *string         `json:"konto_gegenbuchung"`
	Material          *string         `json:"material"`
	SourceBatch       *string         `json:"source_batch_id,omitempty"`
	UploadDate        *time.Time      `json:"upload_date,omitempty"`
	SourceSystem      *string         `json:"source_system,omitempty"`
}

// Record is a classified transaction ready for persistence.
// BatchID and ProcessedAt are assigned when the record is written.
type Record struct {
	Transaction
	Department   *string   `json:"department"`
	Region       *string   `json:"region"`
	District     *string   `json:"district"`
	LocationType string    `json:"location_type"`
	Category     string    `json:"category"`
	Status       string    `json:"status"`
	Fingerprint  string    `json:"transaction_fingerprint"`
	BatchID      string    `json:"batch_id,omitempty"`
	ProcessedAt  time.Time `json:"processing_date,omitzero"`
}

// SaveResult counts the outcome of a batch write.
type SaveResult struct {
	Saved  int `json:"saved"`
	Failed int `json:"failed"`
}

// FromRaw normalizes every cell of r into a Transaction.
func FromRaw(r Raw) Transaction {
	t := Transaction{
		CompanyCode:       normalize.String(r.CompanyCode),
		GLAccount:         normalize.String(r.GLAccount),
		FiscalYear:        normalize.Int(r.FiscalYear),
		PostingPeriod:     normalize.Int(r.PostingPeriod),
		DocumentType:      normalize.String(r.DocumentType),
		DocumentNumber:    normalize.Deref(normalize.String(r.DocumentNumber)),
		BookingDate:       normalize.Date(r.BookingDate),
		DocumentDate:      normalize.Date(r.DocumentDate),
		Text:              normalize.String(r.Text),
		DebitCredit:       normalize.String(r.DebitCredit),
		PostingKey:        normalize.String(r.PostingKey),
		Amount:            normalize.Amount(r.Amount),
		CostCenter:        normalize.Deref(normalize.String(r.CostCenter)),
		Order:             normalize.String(r.Order),
		WBSElement:        normalize.String(r.WBSElement),
		PurchaseDocument:  normalize.String(r.PurchaseDocument),
		TaxCode:           normalize.String(r.TaxCode),
		BusinessArea:      normalize.String(r.BusinessArea),
		ClearingDocument:  normalize.String(r.ClearingDocument),
		OffsettingAccount: normalize.String(r.OffsettingAccount),
		Material:          normalize.String(r.Material),
		SourceBatch:       normalize.String(r.BatchID),
		SourceSystem:      normalize.String(r.SourceSystem),
	}

	if id := normalize.Int(r.ID); id != nil {
		t.ID = *id
	}

	switch v := r.UploadDate.(type) {
	case time.Time:
		t.UploadDate = &v
	case *time.Time:
		t.UploadDate = v
	}

	return t
}
