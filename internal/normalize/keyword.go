package normalize

import (
	"regexp"
	"strings"
)

// currencyToken matches an amount such as "$1,200,000", "$2.5M" or "450k".
const currencyToken = `(\$?\d[\d,.]*(?:\s?[km]\b)?)`

// FieldByKeyword finds the currency-shaped value labelled by keyword in text.
// A value directly after the keyword wins over one found later on the line.
func FieldByKeyword(keyword, text string) (string, bool) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" || text == "" {
		return "", false
	}
	kw := regexp.QuoteMeta(keyword)
	passes := []*regexp.Regexp{
		regexp.MustCompile(`(?i)` + kw + `[:\s]*` + currencyToken),
		regexp.MustCompile(`(?i)` + kw + `.*?` + currencyToken),
	}
	for _, re := range passes {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimRight(m[1], ".,"), true
		}
	}
	return "", false
}
