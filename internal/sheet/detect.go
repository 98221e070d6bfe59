package sheet

import (
	"strings"

	"github.com/go-faster/errors"
)

// DefaultScanRows is how many leading rows are searched for a header.
const DefaultScanRows = 50

// ErrHeaderNotFound is returned when no row in the scan window matches.
var ErrHeaderNotFound = errors.New("header row not found")

// Format is the layout a header row was classified as.
type Format int

const (
	FormatUnknown Format = iota
	FormatSelfTemplate
	FormatCitywide
	FormatLibrarianStock
	FormatLegacy
)

func (f Format) String() string {
	switch f {
	case FormatSelfTemplate:
		return "self_template"
	case FormatCitywide:
		return "citywide"
	case FormatLibrarianStock:
		return "librarian_stock"
	case FormatLegacy:
		return "legacy"
	default:
		return "unknown"
	}
}

// Header is a located header row.
type Header struct {
	Row    int
	Format Format
	Index  HeaderIndex
}

// FirstDataRow is the index of the row after the header.
func (h Header) FirstDataRow() int {
	return h.Row + 1
}

var (
	citywideTokens = []string{"название", "предмет", "параллель"}
	titleTokens    = []string{"название", "title"}
	subjectTokens  = []string{"предмет", "subject"}
)

// Detect scans rows 0..min(scanRows, lastRow) for the first row matching one
// of formats, checked per row in the order given. scanRows <= 0 uses
// DefaultScanRows.
func Detect(s *Sheet, scanRows int, formats ...Format) (Header, error) {
	if scanRows <= 0 {
		scanRows = DefaultScanRows
	}
	last := min(scanRows, s.LastRow())

	for i := 0; i <= last; i++ {
		row := s.Row(i)
		for _, f := range formats {
			if matchesFormat(row, f) {
				return Header{Row: i, Format: f, Index: MakeHeaderIndex(row)}, nil
			}
		}
	}

	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = f.String()
	}
	return Header{}, errors.Wrapf(ErrHeaderNotFound, "no %s header in the first %d rows",
		strings.Join(names, " or "), scanRows)
}

func matchesFormat(r Row, f Format) bool {
	switch f {
	case FormatSelfTemplate:
		c0 := r.Lower(0)
		return c0 == "buildingcode" || strings.Contains(c0, "код корпуса")
	case FormatCitywide:
		cells := cellSet(r)
		for _, t := range citywideTokens {
			if !cells[t] {
				return false
			}
		}
		return true
	case FormatLibrarianStock:
		cells := cellSet(r)
		return anyOf(cells, titleTokens) && anyOf(cells, subjectTokens)
	case FormatLegacy:
		return strings.Contains(r.Lower(0), "паралл") && strings.Contains(r.Lower(1), "наимен")
	}
	return false
}

func cellSet(r Row) map[string]bool {
	set := make(map[string]bool, r.Len())
	for i := 0; i < r.Len(); i++ {
		if v := r.Lower(i); v != "" {
			set[v] = true
		}
	}
	return set
}

func anyOf(set map[string]bool, tokens []string) bool {
	for _, t := range tokens {
		if set[t] {
			return true
		}
	}
	return false
}
