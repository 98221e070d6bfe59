// Package schema defines the column layouts of every spreadsheet the
// service reads or writes.
package schema

import "github.com/JonMunkholm/bookfund/internal/sheet"

// Column is one logical column. Labels are matched case-insensitively
// against the header row; the first label is used when writing templates.
type Column struct {
	Key    string
	Labels []string
}

// Layout is an ordered set of columns. A column's position in the layout is
// its positional fallback.
type Layout struct {
	Sheet   string
	Columns []Column
}

// Headers returns the template header labels in order.
func (l Layout) Headers() []string {
	out := make([]string, len(l.Columns))
	for i, c := range l.Columns {
		out[i] = c.Labels[0]
	}
	return out
}

// Columns maps column keys to sheet positions; missing columns map to -1.
type Columns map[string]int

// Get returns the position of key or -1.
func (c Columns) Get(key string) int {
	if i, ok := c[key]; ok {
		return i
	}
	return -1
}

// Locate finds every column by label. Columns absent from the header are -1.
func (l Layout) Locate(idx sheet.HeaderIndex) Columns {
	out := make(Columns, len(l.Columns))
	for _, c := range l.Columns {
		out[c.Key] = idx.Column(c.Labels...)
	}
	return out
}

// LocateOrPosition finds columns by label and falls back to the layout
// position for any label not present.
func (l Layout) LocateOrPosition(idx sheet.HeaderIndex) Columns {
	out := make(Columns, len(l.Columns))
	for i, c := range l.Columns {
		if pos, ok := idx.Lookup(c.Labels...); ok {
			out[c.Key] = pos
		} else {
			out[c.Key] = i
		}
	}
	return out
}

// Positional maps every column to its layout position.
func (l Layout) Positional() Columns {
	out := make(Columns, len(l.Columns))
	for i, c := range l.Columns {
		out[c.Key] = i
	}
	return out
}
