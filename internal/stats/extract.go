package stats

import (
	"strconv"
	"strings"

	"github.com/fortuna/totals/internal/store"
)

// ParseInt extracts the leading integer from a dataset value ("112", "45%", "7.0").
// Missing or malformed input yields 0.
func ParseInt(v store.FlexString) int {
	s := strings.TrimSpace(v.String())
	if s == "" {
		return 0
	}

	end := 0
	if s[0] == '-' || s[0] == '+' {
		end = 1
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// ParsePercent parses a percent-suffixed value ("38.5%") into 38.5.
func ParsePercent(v store.FlexString) float64 {
	s := strings.TrimSpace(v.String())
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	return parseFloat(s)
}

// ParseFloat parses a decimal dataset value such as a total line or a price.
func ParseFloat(v store.FlexString) float64 {
	return parseFloat(strings.TrimSpace(v.String()))
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
