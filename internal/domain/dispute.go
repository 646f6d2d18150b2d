package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Amount keeps the transaction amount either as an exact decimal or, when the
// upstream value is not numeric, as the raw text it arrived with.
type Amount struct {
	Value   decimal.Decimal
	Raw     string
	Numeric bool
}

// NumericAmount wraps a decimal amount.
func NumericAmount(v decimal.Decimal) Amount {
	return Amount{Value: v, Raw: v.String(), Numeric: true}
}

// RawAmount wraps a non-numeric amount that must be displayed verbatim.
func RawAmount(raw string) Amount {
	return Amount{Raw: raw}
}

// Display renders the amount as a dollar string: two decimals when numeric,
// otherwise the raw value behind a dollar sign.
func (a Amount) Display() string {
	if a.Numeric {
		return "$" + a.Value.StringFixed(2)
	}
	return "$" + a.Raw
}

// KYCImages references identity-document images. Every slot is optional.
type KYCImages struct {
	IDCard string
	Selfie string
	Card   string
}

// Any reports whether at least one KYC image is referenced.
func (k KYCImages) Any() bool {
	return k.IDCard != "" || k.Selfie != "" || k.Card != ""
}

// DisputeCase is the root aggregate for one document-generation run.
type DisputeCase struct {
	PaymentID        string
	Reference        string
	Amount           Amount
	Currency         string
	TransactionDate  string
	TransactedAt     *time.Time
	RawReason        string
	Category         ReasonCategory
	Tenant           string
	TenantID         string
	CustomerName     string
	CustomerGender   string
	Carrier          string
	OpeningStatement string
	ClosingStatement string
	KYC              KYCImages
}

// CurrencyOrDefault returns the ISO currency code, USD when unset.
func (c DisputeCase) CurrencyOrDefault() string {
	if c.Currency == "" {
		return "USD"
	}
	return c.Currency
}
