package transactions_test

import (
	"regexp"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/JaimeStill/costmap/internal/transactions"
)

var md5Hex = regexp.MustCompile(`^[0-9a-f]{32}$`)

func strp(s string) *string { return &s }

func TestFingerprintFormat(t *testing.T) {
	tx := transactions.Transaction{
		DocumentNumber: "5100000001",
		CostCenter:     "10061000",
		Amount:         decimal.RequireFromString("1234.56"),
		BookingDate:    "2026-02-14",
		GLAccount:      strp("6000100"),
	}

	fp := transactions.Fingerprint(tx)
	if !md5Hex.MatchString(fp) {
		t.Fatalf("Fingerprint() = %q, want 32 lowercase hex characters", fp)
	}
	if again := transactions.Fingerprint(tx); again != fp {
		t.Errorf("Fingerprint() not deterministic: %s vs %s", fp, again)
	}
}

// md5("5100000001|10061000|1234.56|2026-02-14|6000100")
const knownFingerprint = "de13fab7a13a96efb6e77731d2771e02"

func TestFingerprintEquivalence(t *testing.T) {
	base := transactions.Raw{
		DocumentNumber: "5100000001",
		CostCenter:     "10061000",
		Amount:         "1.234,56",
		BookingDate:    "2026-02-14",
		GLAccount:      "6000100",
		Text:           "Miete Februar",
		BatchID:        "UPLOAD_A",
	}

	variants := []struct {
		name string
		raw  transactions.Raw
	}{
		{"whitespace padding", transactions.Raw{
			DocumentNumber: " 5100000001 ",
			CostCenter:     "10061000 ",
			Amount:         "1,234.56",
			BookingDate:    " 2026-02-14",
			GLAccount:      " 6000100",
		}},
		{"numeric amount", transactions.Raw{
			DocumentNumber: "5100000001",
			CostCenter:     "10061000",
			Amount:         1234.56,
			BookingDate:    "2026-02-14",
			GLAccount:      "6000100",
		}},
		{"other fields differ", transactions.Raw{
			DocumentNumber: "5100000001",
			CostCenter:     "10061000",
			Amount:         "1234.560",
			BookingDate:    "2026-02-14",
			GLAccount:      "6000100",
			Text:           "different text",
			BatchID:        "UPLOAD_B",
			FiscalYear:     2026,
		}},
	}

	want := transactions.FingerprintRaw(base)
	if want != knownFingerprint {
		t.Fatalf("fingerprint = %s, want %s", want, knownFingerprint)
	}

	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			if got := transactions.FingerprintRaw(v.raw); got != want {
				t.Errorf("fingerprint = %s, want %s", got, want)
			}
		})
	}

	if got := transactions.Fingerprint(transactions.FromRaw(base)); got != want {
		t.Errorf("typed and raw fingerprints differ: %s vs %s", got, want)
	}
}

func TestFingerprintDistinguishesKeyFields(t *testing.T) {
	base := transactions.Raw{
		DocumentNumber: "5100000001",
		CostCenter:     "10061000",
		Amount:         "100",
		BookingDate:    "2026-02-14",
		GLAccount:      "6000100",
	}
	want := transactions.FingerprintRaw(base)

	changes := map[string]func(r *transactions.Raw){
		"document number": func(r *transactions.Raw) { r.DocumentNumber = "5100000002" },
		"cost center":     func(r *transactions.Raw) { r.CostCenter = "10061001" },
		"amount":          func(r *transactions.Raw) { r.Amount = "100.01" },
		"booking date":    func(r *transactions.Raw) { r.BookingDate = "2026-02-15" },
		"account":         func(r *transactions.Raw) { r.GLAccount = nil },
	}

	for name, change := range changes {
		t.Run(name, func(t *testing.T) {
			r := base
			change(&r)
			if transactions.FingerprintRaw(r) == want {
				t.Errorf("changing %s kept the fingerprint", name)
			}
		})
	}
}
