// Package locations maps SAP cost-center codes to organizational locations.
// It owns the HQ and floor reference tables, builds the per-run lookup
// index, and resolves codes through a cached fallback search.
package locations

import "strings"

// Location types assigned by the resolver.
const (
	TypeHQ      = "HQ"
	TypeFloor   = "Floor"
	TypeUnknown = "Unknown"
)

// FloorPrefix namespaces floor keys inside an Index so that a five-digit
// floor code never shadows an HQ code.
const FloorPrefix = "FLOOR_"

// HQRow is one row of the headquarters mapping table.
type HQRow struct {
	CostCenter  string `json:"kostenstelle"`
	Department  string `json:"abteilung"`
	Designation string `json:"bezeichnung"`
}

// FloorRow is one row of the floor (branch) mapping table.
type FloorRow struct {
	CostCenter string `json:"kostenstelle"`
	Department string `json:"department"`
	Region     string `json:"region"`
	District   string `json:"district"`
}

// Location is the organizational placement of a cost center. Values are
// shared by every transaction that resolves to the same reference row and
// must not be modified.
type Location struct {
	Department *string `json:"department"`
	Region     *string `json:"region"`
	District   *string `json:"district"`
}

// Index maps reference keys to locations. It is built once per pipeline run
// and discarded afterwards.
type Index struct {
	entries    map[string]*Location
	collisions int
}

// BuildIndex keys HQ rows by their trimmed code and floor rows by
// FloorPrefix plus their trimmed code. Rows without a code are skipped.
// A later row replaces an earlier row with the same key; replacements are
// counted in Collisions.
func BuildIndex(hq []HQRow, floor []FloorRow) *Index {
	idx := &Index{entries: make(map[string]*Location, len(hq)+len(floor))}

	for _, row := range hq {
		code := strings.TrimSpace(row.CostCenter)
		if code == "" {
			continue
		}
		idx.put(code, &Location{
			Department: optional(row.Department),
			Region:     optional(row.Designation),
			District:   optional(TypeHQ),
		})
	}

	for _, row := range floor {
		code := strings.TrimSpace(row.CostCenter)
		if code == "" {
			continue
		}
		district := row.District
		if strings.TrimSpace(district) == "" {
			district = TypeFloor
		}
		idx.put(FloorPrefix+code, &Location{
			Department: optional(row.Department),
			Region:     optional(row.Region),
			District:   optional(district),
		})
	}

	return idx
}

// Lookup returns the location stored under key.
func (x *Index) Lookup(key string) (*Location, bool) {
	if x == nil {
		return nil, false
	}
	loc, ok := x.entries[key]
	return loc, ok
}

// Len returns the number of distinct keys.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.entries)
}

// Collisions returns how many rows replaced an earlier row with the same key.
func (x *Index) Collisions() int {
	if x == nil {
		return 0
	}
	return x.collisions
}

func (x *Index) put(key string, loc *Location) {
	if _, exists := x.entries[key]; exists {
		x.collisions++
	}
	x.entries[key] = loc
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
