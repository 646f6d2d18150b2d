package evidence

import (
	"regexp"
	"strings"
)

var (
	whitespaceRegex = regexp.MustCompile(`\s+`)
	nonDigitRegex   = regexp.MustCompile(`\D+`)
)

// NormalizePhone produces the E.164-style key used by the identity-record store.
// Numbers that already carry a "+" are kept as typed; otherwise only digits are
// kept, 10-digit numbers are treated as US numbers and get "+1", 11-digit
// numbers starting with 1 get "+", anything else gets a best-effort "+".
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	digits := nonDigitRegex.ReplaceAllString(phone, "")
	if digits == "" {
		return ""
	}
	switch {
	case len(digits) == 10:
		return "+1" + digits
	case len(digits) == 11 && digits[0] == '1':
		return "+" + digits
	default:
		return "+" + digits
	}
}

// PhoneKeys lists the store keys to try for a normalized phone, in order:
// the number itself, the number JSON-quoted, and the number without "+".
func PhoneKeys(normalized string) []string {
	if normalized == "" {
		return nil
	}
	return []string{
		normalized,
		`"` + normalized + `"`,
		strings.ReplaceAll(normalized, "+", ""),
	}
}

// sanitizeString collapses whitespace and trims the result.
func sanitizeString(value string) string {
	value = whitespaceRegex.ReplaceAllString(value, " ")
	return strings.TrimSpace(value)
}
