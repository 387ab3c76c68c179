package calendar

import (
	"strconv"
	"strings"
)

// magnitude suffixes, checked in this order; only the first match applies.
var suffixes = []struct {
	s    string
	mult float64
}{
	{"K", 1e3},
	{"M", 1e6},
	{"B", 1e9},
}

// ParseNumber turns a calendar cell like "1.2K", "3,400" or "0.4%" into its
// scaled numeric value. The second result is false when the text is empty or
// does not parse, which is the normal state for unreleased figures, not an
// error.
func ParseNumber(text string) (float64, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "%", "")
	s = strings.TrimSpace(s)

	mult := 1.0
	for _, suf := range suffixes {
		if strings.Contains(s, suf.s) {
			mult = suf.mult
			s = strings.Replace(s, suf.s, "", 1)
			break
		}
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v * mult, true
}
