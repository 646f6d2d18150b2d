// Package policy resolves a tenant's return/exchange policy.
package policy

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultKey is the fallback entry used for unknown tenants.
const DefaultKey = "default"

// Policy is one tenant's return policy. URL and Extract are optional.
type Policy struct {
	Text    string
	URL     string
	Extract string
}

// imageExtensions are tried in order when locating a policy screenshot.
var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}

var builtin = map[string]Policy{
	"edhardyoriginals": {
		Text:    creditReturnText,
		URL:     "https://edhardyoriginals.com/pages/returns-exchanges",
		Extract: "Items must be returned within 30 days of purchase. All items must be unworn, unwashed, and with original tags attached. Refunds will be processed within 5-7 business days after we receive your return.",
	},
	"e420": {
		Text:    creditReturnText,
		URL:     "https://everythingfor420.com/pages/shipping-returns",
		Extract: "Items must be returned within 30 days of purchase. All items must be UNUSED. Once shipped back, customer must contact merchant with your return inquiry.",
	},
	"tenant2": {
		Text:    "Customer must contact support to initiate a return within 14 days of delivery. Items must be unused and in original packaging. No return request was received from this customer.",
		URL:     "https://tenant2.com/return-policy",
		Extract: "All returns must be authorized. Unauthorized returns will not be processed.",
	},
	DefaultKey: {
		Text: "Per merchant's Returns & Exchanges Policy, customers must initiate a return request and send the item back to receive credit. The merchant has never received a return request nor the item back from this customer. The cardholder is therefore not eligible for a credit through chargeback.",
	},
}

const creditReturnText = "In order to receive a credit the cardholder must initiate the return and send purchased item back to the merchant. Once the merchant receives the item back, the credit will be processed. In this case the merchant has never received both return request and item, so the cardholder is not eligible for a credit."

// Table is an immutable tenant-keyed policy lookup. It always carries a default entry.
type Table struct {
	entries map[string]Policy
}

// DefaultTable returns the built-in tenant policies.
func DefaultTable() Table {
	return newTable(builtin, nil)
}

// With returns a copy of the table with the given entries added or replaced.
// Keys are matched case-insensitively.
func (t Table) With(overrides map[string]Policy) Table {
	return newTable(t.entries, overrides)
}

func newTable(base, overrides map[string]Policy) Table {
	entries := make(map[string]Policy, len(base)+len(overrides))
	for k, v := range base {
		entries[key(k)] = v
	}
	for k, v := range overrides {
		if k = key(k); k != "" {
			entries[k] = v
		}
	}
	if _, ok := entries[DefaultKey]; !ok {
		entries[DefaultKey] = builtin[DefaultKey]
	}
	return Table{entries: entries}
}

// Lookup returns the tenant's policy, or the default entry for unknown and empty tenants.
func (t Table) Lookup(tenant string) Policy {
	if t.entries == nil {
		t = DefaultTable()
	}
	if p, ok := t.entries[key(tenant)]; ok {
		return p
	}
	return t.entries[DefaultKey]
}

// Tenants lists the configured tenant keys.
func (t Table) Tenants() []string {
	out := make([]string, 0, len(t.entries))
	for k := range t.entries {
		out = append(out, k)
	}
	return out
}

func key(tenant string) string {
	return strings.ToLower(strings.TrimSpace(tenant))
}

// ImagePath returns the tenant's policy screenshot under dir, or "" if none exists.
func ImagePath(dir, tenant string) string {
	k := key(tenant)
	if k == "" {
		return ""
	}
	for _, ext := range imageExtensions {
		p := filepath.Join(dir, k+ext)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}
