package sheet

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	gradeRegex  = regexp.MustCompile(`\d{1,2}`)
	numberClean = strings.NewReplacer(",", ".", " ", "", "\u00a0", "")
)

// ParseInt parses a quantity cell. Blank cells are zero, a decimal comma is
// accepted and fractions are truncated toward zero.
func ParseInt(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(numberClean.Replace(s))
	if err != nil {
		return 0, errors.Errorf("invalid number %q", raw)
	}
	return int(d.IntPart()), nil
}

// ParseNullableInt is ParseInt with nil for blank cells.
func ParseNullableInt(raw string) (*int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	n, err := ParseInt(raw)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ParseGrade takes the first one- or two-digit number in raw ("5 класс" is 5).
// Returns 0 when raw has no digits.
func ParseGrade(raw string) int {
	m := gradeRegex.FindString(raw)
	if m == "" {
		return 0
	}
	n, _ := strconv.Atoi(m)
	return n
}

// NonNegative clamps n at zero.
func NonNegative(n int) int {
	return max(0, n)
}
