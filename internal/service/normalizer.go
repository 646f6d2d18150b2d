package service

import (
	"net/netip"
	"regexp"
	"strings"

	"github.com/vanshika/chargeback/backend/internal/domain"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// normalizeEmail lowercases and trims the provided email.
func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// normalizeIP returns the canonical text form of an IP address, or "" when
// the value does not parse.
func normalizeIP(ip string) string {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return ""
	}
	return addr.Unmap().String()
}

// sanitizeString collapses whitespace and trims the result.
func sanitizeString(value string) string {
	value = whitespaceRegex.ReplaceAllString(value, " ")
	return strings.TrimSpace(value)
}

// sanitizeAll sanitizes every value and drops the empty ones.
func sanitizeAll(values []string) []string {
	var out []string
	for _, v := range values {
		if v = sanitizeString(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// normalizeLabel maps a location label to its canonical lower-case form.
func normalizeLabel(label string) domain.GeoLabel {
	return domain.GeoLabel(strings.ToLower(strings.TrimSpace(label)))
}
