// Package normalize holds the pure string and number canonicalization used by
// every pipeline stage.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// moneyMarkers mean "no price given" anywhere in the text.
var moneyMarkers = []string{"disclosed", "n/a", "none", "call"}

// A multiplier is a whole k, m or million token right after the number, so
// "350,000 monthly" stays 350000.
var moneyRe = regexp.MustCompile(`(\d+(?:\.\d+)?|\.\d+)(?:\s*(k|m|million)\b)?`)

// ParseMoney converts a free-text amount such as "$1.2M" or "500k" into whole
// currency units. Disclaimers and unparsable text yield 0.
func ParseMoney(text string) int64 {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return 0
	}
	s = strings.NewReplacer("$", "", ",", "").Replace(s)
	for _, m := range moneyMarkers {
		if strings.Contains(s, m) {
			return 0
		}
	}

	m := moneyRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	switch m[2] {
	case "m", "million":
		v *= 1_000_000
	case "k":
		v *= 1_000
	}
	if v >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}
