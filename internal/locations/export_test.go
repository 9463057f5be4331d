package locations

func DedupeHQ(rows []HQRow) ([]HQRow, int) {
	return dedupe(rows, func(row HQRow) string { return row.CostCenter })
}
