package locations

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Accepted header names per column, compared case-insensitively after trimming.
var (
	hqColumns = [][]string{
		{"kostenstelle", "cost_center", "costcenter"},
		{"abteilung", "department"},
		{"bezeichnung", "designation", "description"},
	}
	floorColumns = [][]string{
		{"kostenstelle", "cost_center", "costcenter"},
		{"department", "abteilung"},
		{"region"},
		{"district", "bezirk"},
	}
)

// ReadHQWorkbook reads HQ mapping rows from an XLSX workbook. The first row
// of sheet holds the headers; an empty sheet name selects the first sheet.
func ReadHQWorkbook(r io.Reader, sheet string) ([]HQRow, error) {
	records, err := readWorkbook(r, sheet, hqColumns)
	if err != nil {
		return nil, err
	}

	rows := make([]HQRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, HQRow{
			CostCenter:  rec[0],
			Department:  rec[1],
			Designation: rec[2],
		})
	}
	return rows, nil
}

// ReadFloorWorkbook reads floor mapping rows from an XLSX workbook.
func ReadFloorWorkbook(r io.Reader, sheet string) ([]FloorRow, error) {
	records, err := readWorkbook(r, sheet, floorColumns)
	if err != nil {
		return nil, err
	}

	rows := make([]FloorRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, FloorRow{
			CostCenter: rec[0],
			Department: rec[1],
			Region:     rec[2],
			District:   rec[3],
		})
	}
	return rows, nil
}

// readWorkbook returns one slice per data row holding the cells of the
// requested columns in order. Rows without a cost center are skipped and
// codes lose any decimal remnant from numeric cells.
func readWorkbook(r io.Reader, sheet string, columns [][]string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWorkbook, err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if sheet == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrInvalidWorkbook)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %w", ErrInvalidWorkbook, sheet, err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyImport
	}

	positions, err := headerPositions(rows[0], columns)
	if err != nil {
		return nil, err
	}

	var out [][]string
	for _, row := range rows[1:] {
		rec := make([]string, len(positions))
		for i, pos := range positions {
			if pos >= 0 && pos < len(row) {
				rec[i] = strings.TrimSpace(row[pos])
			}
		}
		rec[0] = NormalizeCode(rec[0])
		if rec[0] == "" {
			continue
		}
		out = append(out, rec)
	}

	if len(out) == 0 {
		return nil, ErrEmptyImport
	}
	return out, nil
}

// headerPositions locates each column in header. The cost center column is
// required; other missing columns map to -1.
func headerPositions(header []string, columns [][]string) ([]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}

	positions := make([]int, len(columns))
	for i, names := range columns {
		positions[i] = -1
		for _, name := range names {
			if pos, ok := index[name]; ok {
				positions[i] = pos
				break
			}
		}
	}

	if positions[0] < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, columns[0][0])
	}
	return positions, nil
}
