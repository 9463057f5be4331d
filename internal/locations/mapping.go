package locations

import (
	"strings"

	"github.com/JaimeStill/costmap/pkg/query"
	"github.com/JaimeStill/costmap/pkg/repository"
)

// Reference table kinds accepted by Replace and the import endpoint.
const (
	KindHQ    = "hq"
	KindFloor = "floor"
)

const (
	hqTable    = "kostenstelle_mapping_hq"
	floorTable = "kostenstelle_mapping_floor"
)

var hqProjection = query.
	NewProjectionMap("public", hqTable, "h").
	Project("kostenstelle", "kostenstelle").
	Project("abteilung", "abteilung").
	Project("bezeichnung", "bezeichnung")

var floorProjection = query.
	NewProjectionMap("public", floorTable, "f").
	Project("kostenstelle", "kostenstelle").
	Project("department", "department").
	Project("region", "region").
	Project("district", "district")

var (
	hqDefaultSort    = []query.SortField{{Field: "kostenstelle"}}
	floorDefaultSort = []query.SortField{{Field: "kostenstelle"}}
)

var (
	insertHQSQL    = query.Insert("public", hqTable, "kostenstelle", "abteilung", "bezeichnung")
	insertFloorSQL = query.Insert("public", floorTable, "kostenstelle", "department", "region", "district")
)

func scanHQ(s repository.Scanner) (HQRow, error) {
	var (
		row         HQRow
		dept, desig *string
	)
	if err := s.Scan(&row.CostCenter, &dept, &desig); err != nil {
		return HQRow{}, err
	}
	row.Department = deref(dept)
	row.Designation = deref(desig)
	return row, nil
}

func scanFloor(s repository.Scanner) (FloorRow, error) {
	var (
		row                    FloorRow
		dept, region, district *string
	)
	if err := s.Scan(&row.CostCenter, &dept, &region, &district); err != nil {
		return FloorRow{}, err
	}
	row.Department = deref(dept)
	row.Region = deref(region)
	row.District = deref(district)
	return row, nil
}

func hqArgs(row HQRow) []any {
	return []any{strings.TrimSpace(row.CostCenter), optional(row.Department), optional(row.Designation)}
}

func floorArgs(row FloorRow) []any {
	return []any{strings.TrimSpace(row.CostCenter), optional(row.Department), optional(row.Region), optional(row.District)}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
