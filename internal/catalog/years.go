package catalog

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/JonMunkholm/bookfund/internal/sheet"
)

var yearRegex = regexp.MustCompile(`19\d{2}|20\d{2}`)

// YearPart is one per-year share of an aggregate quantity.
type YearPart struct {
	Year      *int
	Total     int
	Available int
	InUse     int
}

// ParseYears extracts distinct four-digit years in order of first
// appearance. A blank cell yields a single nil year; a non-blank cell with no
// recognizable year is parsed as a plain number.
func ParseYears(raw string) ([]*int, error) {
	if strings.TrimSpace(raw) == "" {
		return []*int{nil}, nil
	}

	var years []*int
	seen := make(map[int]bool)
	for _, m := range yearRegex.FindAllString(raw, -1) {
		y, _ := strconv.Atoi(m)
		if seen[y] {
			continue
		}
		seen[y] = true
		years = append(years, &y)
	}
	if len(years) > 0 {
		return years, nil
	}

	y, err := sheet.ParseNullableInt(raw)
	if err != nil {
		return nil, err
	}
	return []*int{y}, nil
}

// SplitInteger divides total into parts near-equal integers that sum to
// total. The first total mod parts entries get one extra.
func SplitInteger(total, parts int) []int {
	if parts <= 1 {
		return []int{total}
	}
	base := floorDiv(total, parts)
	rem := total - base*parts

	out := make([]int, parts)
	for i := range out {
		out[i] = base
		if i < rem {
			out[i]++
		}
	}
	return out
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// SplitByYears spreads total and available across the years in yearCell.
// InUse is derived per part and never negative.
func SplitByYears(yearCell string, total, available int) ([]YearPart, error) {
	years, err := ParseYears(yearCell)
	if err != nil {
		return nil, err
	}
	totals := SplitInteger(total, len(years))
	avails := SplitInteger(available, len(years))

	parts := make([]YearPart, len(years))
	for i, y := range years {
		parts[i] = YearPart{
			Year:      y,
			Total:     totals[i],
			Available: avails[i],
			InUse:     max(0, totals[i]-avails[i]),
		}
	}
	return parts, nil
}

// EffectiveKey suffixes an external key with the year when a single source
// record is being split into per-year titles.
func EffectiveKey(key string, year *int, split bool) string {
	key = strings.TrimSpace(key)
	if split && key != "" && year != nil {
		return key + "#" + strconv.Itoa(*year)
	}
	return key
}
