package normalize

import "regexp"

var (
	stateCodeRe = regexp.MustCompile(`\b([A-Z]{2})\b`)
	cityStateRe = regexp.MustCompile(`[A-Z][a-z]+(?:\s[A-Z][a-z]+)*,\s?[A-Z]{2}\b`)
)

// StateCode returns the first standalone two-letter uppercase token.
func StateCode(text string) (string, bool) {
	m := stateCodeRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// FindCityState returns the first "City, ST" run in text.
func FindCityState(text string) (string, bool) {
	m := cityStateRe.FindString(text)
	return m, m != ""
}
