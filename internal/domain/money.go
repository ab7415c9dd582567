package domain

import (
	"math"
	"strings"
)

// Round2 rounds a monetary value to 2 decimal places. Every monetary
// figure is rounded at the point of computation, not at display time, so
// stored state stays stable across re-derivation.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// NormalizeSymbols trims, uppercases, and dedupes a symbol list while
// preserving first-occurrence order.
func NormalizeSymbols(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
