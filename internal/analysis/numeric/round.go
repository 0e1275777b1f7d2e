// Package numeric holds the small float helpers shared by the analysis engines.
package numeric

import (
	"math"
	"strconv"
)

// Round rounds x to places decimal digits, half to even on the exact binary value.
// NaN and infinities are returned unchanged.
func Round(x float64, places int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', places, 64), 64)
	if err != nil {
		return x
	}
	if r == 0 {
		return 0 // drop negative zero
	}
	return r
}

// Finite replaces NaN and infinities with fallback
func Finite(x, fallback float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return fallback
	}
	return x
}

// FormatDecimal renders x in its shortest decimal form. Integral values keep one
// decimal place ("90.0").
func FormatDecimal(x float64) string {
	s := strconv.FormatFloat(x, 'f', -1, 64)
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return s
	}
	for _, c := range s {
		if c == '.' {
			return s
		}
	}
	return s + ".0"
}
