// Package sheet reads spreadsheet uploads into normalized rows and locates
// their header rows.
//
// Every cell is reduced to a trimmed string at load time regardless of how
// the workbook stores it: integral numbers lose their fractional part
// ("45" not "45.0"), booleans become "true"/"false", text is kept verbatim.
package sheet

import (
	"io"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnreadable is returned when the upload is not a readable workbook.
	ErrUnreadable = errors.New("workbook is unreadable")

	// ErrNoSheets is returned for a workbook without worksheets.
	ErrNoSheets = errors.New("workbook has no sheets")
)

// Sheet is an in-memory worksheet of normalized cell strings.
type Sheet struct {
	Name string
	rows [][]string
}

// Open reads the first worksheet of the workbook in r.
func Open(r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(ErrUnreadable, err.Error())
	}
	defer f.Close()

	name := f.GetSheetName(0)
	if name == "" {
		return nil, ErrNoSheets
	}
	return readSheet(f, name)
}

// FromRows builds a sheet from already-extracted string cells.
func FromRows(name string, rows [][]string) *Sheet {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = make([]string, len(row))
		for j, v := range row {
			out[i][j] = CleanCell(v)
		}
	}
	return &Sheet{Name: name, rows: out}
}

func readSheet(f *excelize.File, name string) (*Sheet, error) {
	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrapf(ErrUnreadable, "read sheet %q: %v", name, err)
	}

	rows := make([][]string, len(raw))
	for r, cells := range raw {
		rows[r] = make([]string, len(cells))
		for c, v := range cells {
			rows[r][c] = normalizeCell(f, name, c, r, v)
		}
	}
	return &Sheet{Name: name, rows: rows}, nil
}

// normalizeCell resolves numeric-looking raw values against the stored
// cell type so that text such as "007" survives while numbers and booleans
// are rendered canonically.
func normalizeCell(f *excelize.File, sheetName string, col, row int, raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return ""
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return CleanCell(v)
	}

	axis, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return v
	}
	typ, err := f.GetCellType(sheetName, axis)
	if err != nil {
		return v
	}

	switch typ {
	case excelize.CellTypeBool:
		if v == "1" {
			return "true"
		}
		return "false"
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		return d.String()
	default:
		return v
	}
}

// Len returns the number of physical rows.
func (s *Sheet) Len() int {
	return len(s.rows)
}

// LastRow returns the index of the last physical row, -1 for an empty sheet.
func (s *Sheet) LastRow() int {
	return len(s.rows) - 1
}

// Row returns the row at index i. Rows past the end are empty.
func (s *Sheet) Row(i int) Row {
	if i < 0 || i >= len(s.rows) {
		return Row{Index: i}
	}
	return Row{Index: i, cells: s.rows[i]}
}

// Rows returns every row starting at index from, in physical order.
func (s *Sheet) Rows(from int) []Row {
	if from < 0 {
		from = 0
	}
	var out []Row
	for i := from; i < len(s.rows); i++ {
		out = append(out, Row{Index: i, cells: s.rows[i]})
	}
	return out
}
