package transactions

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/JaimeStill/costmap/pkg/normalize"
)

// Fingerprint derives the content hash that identifies equivalent ledger
// lines across upload batches. It covers document number, cost center,
// amount, booking date and G/L account after normalization.
func Fingerprint(t Transaction) string {
	return fingerprint(
		t.DocumentNumber,
		t.CostCenter,
		normalize.Amount(t.Amount).String(),
		normalize.Date(t.BookingDate),
		normalize.Deref(t.GLAccount),
	)
}

// FingerprintRaw normalizes r and returns its Fingerprint.
func FingerprintRaw(r Raw) string {
	return Fingerprint(FromRaw(r))
}

func fingerprint(document, costCenter, amount, date, account string) string {
	key := strings.Join([]string{
		strings.TrimSpace(document),
		strings.TrimSpace(costCenter),
		amount,
		date,
		strings.TrimSpace(account),
	}, "|")

	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}
