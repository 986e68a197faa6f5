package normalize

import (
	"regexp"
	"strings"
)

var (
	emailRe  = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	mailtoRe = regexp.MustCompile(`mailto:([^"'>\s]+)`)
	phoneRe  = regexp.MustCompile(`\+?[\d(][\d \t().-]{8,}\d`)
	nonDigit = regexp.MustCompile(`\D`)
)

// rejectedEmailParts mark addresses that never reach a person.
var rejectedEmailParts = []string{"noreply", "example.com", "test@"}

// FindEmails returns every email-shaped token in text, in order.
func FindEmails(text string) []string {
	return emailRe.FindAllString(text, -1)
}

// FindMailtos returns every mailto target in text, query strings removed.
func FindMailtos(text string) []string {
	var out []string
	for _, m := range mailtoRe.FindAllStringSubmatch(text, -1) {
		out = append(out, MailtoAddress(m[1]))
	}
	return out
}

// MailtoAddress strips the scheme and query from a mailto href.
func MailtoAddress(href string) string {
	addr := strings.TrimPrefix(strings.TrimSpace(href), "mailto:")
	addr, _, _ = strings.Cut(addr, "?")
	return addr
}

// UsableEmail lower-cases a candidate and rejects placeholder mailboxes.
func UsableEmail(candidate string) (string, bool) {
	e := strings.ToLower(strings.TrimSpace(candidate))
	if !emailRe.MatchString(e) {
		return "", false
	}
	for _, bad := range rejectedEmailParts {
		if strings.Contains(e, bad) {
			return "", false
		}
	}
	return e, true
}

// FirstUsableEmail returns the first usable candidate.
func FirstUsableEmail(candidates []string) (string, bool) {
	for _, c := range candidates {
		if e, ok := UsableEmail(c); ok {
			return e, true
		}
	}
	return "", false
}

// Phone formats the trailing ten digits of text as +1-AAA-BBB-CCCC.
func Phone(text string) (string, bool) {
	digits := nonDigit.ReplaceAllString(text, "")
	if len(digits) < 10 {
		return "", false
	}
	d := digits[len(digits)-10:]
	return "+1-" + d[:3] + "-" + d[3:6] + "-" + d[6:], true
}

// FindPhone returns the first phone-shaped run in text, formatted from the
// trailing ten digits of the whole run.
func FindPhone(text string) (string, bool) {
	for _, m := range phoneRe.FindAllString(text, -1) {
		if p, ok := Phone(m); ok {
			return p, true
		}
	}
	return "", false
}

// ExcelSafePhone wraps a phone so spreadsheets keep it as text.
func ExcelSafePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	return `="` + phone + `"`
}

// UnwrapExcelPhone reverses ExcelSafePhone.
func UnwrapExcelPhone(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		return s[2 : len(s)-1]
	}
	return s
}
