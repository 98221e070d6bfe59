// Package catalog resolves spreadsheet references to canonical catalog
// records: building codes, subjects and book titles.
package catalog

import "strings"

// NormalizeBuildingCode canonicalizes free-form building identifiers.
// "Корпус 1", "сп1", "SP1" and "1" all become "1". Input without digits is
// returned trimmed but otherwise unchanged.
func NormalizeBuildingCode(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimSpace(strings.ReplaceAll(s, "корпус", ""))
	s = strings.ReplaceAll(s, "сп", "sp")
	if strings.HasPrefix(s, "sp") {
		s = strings.TrimSpace(s[len("sp"):])
	}

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if digits != "" {
		return digits
	}
	return strings.TrimSpace(raw)
}
