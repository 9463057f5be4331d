package locations_test

import (
	"testing"
	"time"

	"github.com/JaimeStill/costmap/internal/locations"
)

func referenceIndex() *locations.Index {
	return locations.BuildIndex(
		[]locations.HQRow{
			{CostCenter: "10061000", Department: "Finance", Designation: "Zentrale"},
		},
		[]locations.FloorRow{
			{CostCenter: "123", Department: "Retail", Region: "Nord", District: "Hamburg"},
			{CostCenter: "04711", Department: "Logistics", Region: "West"},
		},
	)
}

func TestResolve(t *testing.T) {
	idx := referenceIndex()

	tests := []struct {
		name     string
		code     string
		wantOK   bool
		wantType string
		wantDept string
	}{
		{"hq direct", "10061000", true, locations.TypeHQ, "Finance"},
		{"hq with decimal remnant", " 10061000.0 ", true, locations.TypeHQ, "Finance"},
		{"hq unknown", "10069999", false, "", ""},
		{"floor prefixed", "3047119999", true, locations.TypeFloor, "Logistics"},
		{"floor zero-stripped fallback", "300123456", true, locations.TypeFloor, "Retail"},
		{"floor unmatched", "399999000", false, "", ""},
		{"short code", "123", false, "", ""},
		{"short after normalization", "1006.5", false, "", ""},
		{"empty", "", false, "", ""},
		{"other leading digit", "20061000", false, "", ""},
		{"non numeric noise", "ABCDEFG", false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, ok := locations.NewResolver(time.Hour).Resolve(tt.code, idx)
			if ok != tt.wantOK {
				t.Fatalf("Resolve(%q) ok = %v, want %v", tt.code, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if res.Type != tt.wantType {
				t.Errorf("type = %s, want %s", res.Type, tt.wantType)
			}
			if str(res.Location.Department) != tt.wantDept {
				t.Errorf("department = %s, want %s", str(res.Location.Department), tt.wantDept)
			}
		})
	}
}

func TestResolveFloorSearchOrder(t *testing.T) {
	// the unprefixed extracted key is tried before the floor key
	idx := locations.BuildIndex(
		[]locations.HQRow{{CostCenter: "00123", Department: "Direct"}},
		[]locations.FloorRow{{CostCenter: "00123", Department: "Prefixed"}},
	)

	res, ok := locations.NewResolver(0).Resolve("300123456", idx)
	if !ok {
		t.Fatal("expected resolution")
	}
	if str(res.Location.Department) != "Direct" || res.Type != locations.TypeFloor {
		t.Errorf("got %s/%s, want Direct/Floor", str(res.Location.Department), res.Type)
	}
}

func TestResolveShortFloorCode(t *testing.T) {
	// fewer than five characters follow the leading digit
	idx := locations.BuildIndex(nil, []locations.FloorRow{{CostCenter: "12", Department: "Kiosk"}})

	res, ok := locations.NewResolver(0).Resolve("30012", idx)
	if !ok || str(res.Location.Department) != "Kiosk" {
		t.Errorf("Resolve(30012) = %+v, %v", res, ok)
	}
}

func TestResolverCachesNegativeResults(t *testing.T) {
	r := locations.NewResolver(time.Hour)

	if _, ok := r.Resolve("10070000", locations.BuildIndex(nil, nil)); ok {
		t.Fatal("code resolved against empty index")
	}

	updated := locations.BuildIndex([]locations.HQRow{{CostCenter: "10070000", Department: "New"}}, nil)

	if _, ok := r.Resolve("10070000", updated); ok {
		t.Error("cached negative result should be served until cleared")
	}

	stats := r.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Entries != 1 {
		t.Errorf("Stats() = %+v", stats)
	}

	r.Clear()
	if r.Len() != 0 {
		t.Errorf("Len() after Clear = %d", r.Len())
	}

	res, ok := r.Resolve("10070000", updated)
	if !ok || str(res.Location.Department) != "New" {
		t.Errorf("after Clear: %+v, %v; want resolution from rebuilt index", res, ok)
	}
}

func TestResolverExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	r := locations.NewResolver(time.Minute, locations.WithClock(func() time.Time { return now }))

	empty := locations.BuildIndex(nil, nil)
	filled := locations.BuildIndex([]locations.HQRow{{CostCenter: "10080000", Department: "Late"}}, nil)

	r.Resolve("10080000", empty)

	now = now.Add(30 * time.Second)
	if _, ok := r.Resolve("10080000", filled); ok {
		t.Error("entry expired early")
	}

	now = now.Add(time.Minute)
	if _, ok := r.Resolve("10080000", filled); !ok {
		t.Error("expired entry was served from cache")
	}
}

func TestResolverKeysByRawCode(t *testing.T) {
	r := locations.NewResolver(time.Hour)
	idx := referenceIndex()

	r.Resolve("10061000", idx)
	r.Resolve(" 10061000", idx)
	r.Resolve("10061000.0", idx)

	if r.Len() != 3 {
		t.Errorf("Len() = %d, want one entry per raw code", r.Len())
	}
}

func TestMatchCodes(t *testing.T) {
	matches := locations.MatchCodes(referenceIndex(), locations.NewResolver(0), "10061000.00", "999")

	if len(matches) != 2 {
		t.Fatalf("len = %d, want 2", len(matches))
	}
	if !matches[0].Resolved || matches[0].Normalized != "10061000" || matches[0].LocationType != locations.TypeHQ {
		t.Errorf("matches[0] = %+v", matches[0])
	}
	if matches[1].Resolved || matches[1].LocationType != locations.TypeUnknown || matches[1].Location != nil {
		t.Errorf("matches[1] = %+v", matches[1])
	}
}
