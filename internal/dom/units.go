package dom

import (
	"strconv"
	"strings"
)

// FormatPx renders a pixel length with a fixed number of decimals, e.g. "110.00px".
func FormatPx(v float64, precision int) string {
	if precision < 0 {
		precision = 0
	}
	return strconv.FormatFloat(v, 'f', precision, 64) + "px"
}

// ParsePx parses a pixel length such as "12.5px" or "12". Other units are rejected.
func ParsePx(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.TrimSuffix(s, "px")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
