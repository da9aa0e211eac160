package core

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numericRegex validates that a string is a plain decimal number after cleanup.
// Matches integers, decimals, and scientific notation. Rejects NaN and Inf,
// which strconv would otherwise accept.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// ParseNumber is the single rule deciding whether a cell is numeric.
//
// Surrounding whitespace is ignored and every comma is treated as a
// thousands separator, so "1,200" is 1200 and "1,2" is 12. Anything that is
// not a decimal number afterwards is reported as non-numeric.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	s = strings.ReplaceAll(s, ",", "")
	if !numericRegex.MatchString(s) {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// finite reports whether a running sum is still a real number. Each cell is
// finite, but enough large cells overflow to ±Inf.
func finite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

// FormatNumber renders a total without trailing zeros or exponent noise.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
