package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var firmSuffixRe = regexp.MustCompile(`(?i),?\s*\b(llc|inc|corp|ltd|llp|lp)\b\.?$`)

var honorifics = []string{"mr", "mrs", "ms", "dr", "jr", "sr"}

func isHonorific(token string) bool {
	token = strings.TrimRight(token, ",")
	for _, h := range honorifics {
		if strings.EqualFold(token, h) {
			return true
		}
	}
	return false
}

// placeholders are values sources use when a field is unknown.
var placeholders = map[string]bool{
	"":              true,
	"nan":           true,
	"none":          true,
	"n/a":           true,
	"not available": true,
}

// Whitespace collapses runs of whitespace into single spaces and trims.
func Whitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Name canonicalizes a person's name: honorifics removed, whitespace
// collapsed and title-cased. The result is stable under repeated application.
func Name(text string) string {
	s := stripHonorifics(Whitespace(text))
	s = strings.Trim(Whitespace(s), " ,")
	if s == "" {
		return ""
	}
	return cases.Title(language.English).String(s)
}

// stripHonorifics drops honorific tokens. Tokens are bounded by whitespace
// and '.', so "Dr.John" loses "Dr" while "Srđan" is left alone.
func stripHonorifics(s string) string {
	fields := strings.Fields(s)
	kept := fields[:0]
	for _, f := range fields {
		parts := strings.Split(f, ".")
		rest := parts[:0]
		for _, part := range parts {
			if isHonorific(part) {
				continue
			}
			rest = append(rest, part)
		}
		if w := strings.Join(rest, "."); w != "" {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// Firm strips trailing legal-entity suffixes from a brokerage name.
func Firm(text string) string {
	s := Whitespace(text)
	for {
		next := strings.TrimSpace(firmSuffixRe.ReplaceAllString(s, ""))
		if next == s || next == "" {
			return s
		}
		s = next
	}
}

// IsPlaceholder reports whether a value carries no information.
func IsPlaceholder(text string) bool {
	return placeholders[strings.ToLower(strings.TrimSpace(text))]
}
