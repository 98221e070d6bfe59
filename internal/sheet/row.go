package sheet

import "strings"

// Row is one physical spreadsheet row.
type Row struct {
	Index int
	cells []string
}

// NewRow builds a row from normalized cells.
func NewRow(index int, cells ...string) Row {
	return Row{Index: index, cells: cells}
}

// Number is the 1-based row number shown to users.
func (r Row) Number() int {
	return r.Index + 1
}

// Len returns the number of populated columns.
func (r Row) Len() int {
	return len(r.cells)
}

// Cell returns the trimmed value at column col, or "" when col is out of range.
func (r Row) Cell(col int) string {
	if col < 0 || col >= len(r.cells) {
		return ""
	}
	return r.cells[col]
}

// Lower returns the lowercased value at column col.
func (r Row) Lower(col int) string {
	return strings.ToLower(r.Cell(col))
}

// Blank reports whether every listed column is empty. With no columns it
// checks the whole row.
func (r Row) Blank(cols ...int) bool {
	if len(cols) == 0 {
		for _, c := range r.cells {
			if c != "" {
				return false
			}
		}
		return true
	}
	for _, c := range cols {
		if r.Cell(c) != "" {
			return false
		}
	}
	return true
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace, including non-breaking spaces
// - Removes Excel formula prefix (="...")
func CleanCell(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))
	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = strings.TrimSpace(s[2 : len(s)-1])
	}
	return s
}

// HeaderIndex maps lowercased header labels to column positions.
type HeaderIndex map[string]int

// MakeHeaderIndex creates a HeaderIndex from a header row.
// The first occurrence of a label wins.
func MakeHeaderIndex(r Row) HeaderIndex {
	idx := make(HeaderIndex, r.Len())
	for i := 0; i < r.Len(); i++ {
		key := r.Lower(i)
		if key == "" {
			continue
		}
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

// Lookup returns the column of the first label present in the index.
func (h HeaderIndex) Lookup(labels ...string) (int, bool) {
	for _, l := range labels {
		if i, ok := h[strings.ToLower(l)]; ok {
			return i, true
		}
	}
	return -1, false
}

// Column returns the column of the first present label, or -1.
// Row.Cell treats -1 as an empty cell.
func (h HeaderIndex) Column(labels ...string) int {
	i, _ := h.Lookup(labels...)
	return i
}
