// Package classify splits normalized ledger transactions into direct costs
// and outliers by resolving each cost center to a location.
package classify

import (
	"github.com/shopspring/decimal"

	"github.com/JaimeStill/costmap/internal/locations"
	"github.com/JaimeStill/costmap/internal/transactions"
)

// Classify resolves every transaction's cost center and returns one Record
// per input. Resolved transactions are direct costs; the rest are outliers
// with no location. Inputs are not modified.
func Classify(
	txs []transactions.Transaction,
	resolver *locations.Resolver,
	idx *locations.Index,
) (direct, outliers []transactions.Record) {
	direct = make([]transactions.Record, 0, len(txs))
	outliers = make([]transactions.Record, 0)

	for _, tx := range txs {
		rec := transactions.Record{
			Transaction: tx,
			Fingerprint: transactions.Fingerprint(tx),
		}

		res, ok := resolver.Resolve(tx.CostCenter, idx)
		if !ok {
			rec.LocationType = locations.TypeUnknown
			rec.Category = transactions.CategoryOutlier
			rec.Status = transactions.StatusUnknownLocation
			outliers = append(outliers, rec)
			continue
		}

		rec.Department = clone(res.Location.Department)
		rec.Region = clone(res.Location.Region)
		rec.District = clone(res.Location.District)
		rec.LocationType = res.Type
		rec.Category = transactions.CategoryDirectCost
		rec.Status = transactions.StatusDirectBooked
		direct = append(direct, rec)
	}

	return direct, outliers
}

// Counts returns the number of records per category.
func Counts(groups ...[]transactions.Record) map[string]int {
	counts := make(map[string]int)
	for _, group := range groups {
		for _, rec := range group {
			counts[rec.Category]++
		}
	}
	return counts
}

// Total sums the amounts of all records.
func Total(groups ...[]transactions.Record) decimal.Decimal {
	total := decimal.Zero
	for _, group := range groups {
		for _, rec := range group {
			total = total.Add(rec.Amount)
		}
	}
	return total
}

// clone copies a shared location field so records never alias index values.
func clone(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
