package domain

import "strings"

// PaymentInfo is the relational record behind a payment identifier.
type PaymentInfo struct {
	PaymentID         string
	TenantID          string
	ExternalReference string
	ShopName          string
	PayerMobile       string
}

// ShopCredentials authenticate against the order platform's admin API.
type ShopCredentials struct {
	ShopName    string
	AccessToken string
}

// Domain returns the shop's admin host.
func (c ShopCredentials) Domain() string {
	if strings.HasSuffix(c.ShopName, ".myshopify.com") {
		return c.ShopName
	}
	return c.ShopName + ".myshopify.com"
}

// IdentityRecord is a public-records match for a phone number.
type IdentityRecord struct {
	Name                 string
	FirstName            string
	MiddleName           string
	LastName             string
	AgeRange             string
	Gender               string
	LinkToPhoneStartDate string
	RecordType           string
	Industry             string
	AlternateNames       []string
	// Phone is the number that was queried, re-attached for provenance.
	Phone string
}

// DisplayName prefers the full name, then assembles first/middle/last.
func (r IdentityRecord) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	if r.FirstName == "" {
		return ""
	}
	parts := []string{r.FirstName}
	if r.MiddleName != "" {
		parts = append(parts, r.MiddleName)
	}
	if r.LastName != "" {
		parts = append(parts, r.LastName)
	}
	return strings.Join(parts, " ")
}

// GenderLabel expands single-letter gender codes.
func (r IdentityRecord) GenderLabel() string {
	switch r.Gender {
	case "F":
		return "Female"
	case "M":
		return "Male"
	}
	return r.Gender
}

// Rows renders the record as table rows, phone number first when known.
func (r IdentityRecord) Rows() []Field {
	var rows []Field
	if r.Phone != "" {
		rows = append(rows, Field{Label: FieldPhoneNumber, Value: r.Phone})
	}
	if name := r.DisplayName(); name != "" {
		rows = append(rows, Field{Label: "Name:", Value: name})
	}
	if r.AgeRange != "" {
		rows = append(rows, Field{Label: "Age Range:", Value: r.AgeRange})
	}
	if g := r.GenderLabel(); g != "" {
		rows = append(rows, Field{Label: "Gender:", Value: g})
	}
	if r.LinkToPhoneStartDate != "" {
		rows = append(rows, Field{Label: "Phone Linked Since:", Value: r.LinkToPhoneStartDate})
	}
	if len(r.AlternateNames) > 0 {
		rows = append(rows, Field{Label: "Alternate Names:", Value: strings.Join(r.AlternateNames, ", ")})
	}
	return rows
}

// CardDetails summarises the gateway authorization behind an order.
type CardDetails struct {
	OrderNumber    string
	Brand          string
	Last4          string
	CardholderName string
	Authorization  string
	Message        string
	Amount         string
	Gateway        string
	Status         string
	Kind           string
	Created        string
}

// AVSDetails carries the address-verification results of an authorization.
type AVSDetails struct {
	OrderNumber       string
	Brand             string
	CardNumber        string
	CardType          string
	Funding           string
	CardholderName    string
	ExpMonth          string
	ExpYear           string
	Issuer            string
	Country           string
	BIN               string
	AVSCode           string
	AddressCheck      string
	ZipCheck          string
	CVCCheck          string
	AuthorizationCode string
	NetworkStatus     string
	RiskLevel         string
	SellerMessage     string
}

// avsCodeDescriptions maps gateway AVS result codes to display text.
var avsCodeDescriptions = map[string]string{
	"Y": "Full Match (Address & ZIP)",
	"A": "Address Match Only",
	"Z": "ZIP Match Only",
	"N": "No Match",
	"U": "Unavailable",
	"":  "Not Checked",
}

// AVSDescription explains the AVS result code.
func (a AVSDetails) AVSDescription() string {
	if d, ok := avsCodeDescriptions[strings.ToUpper(a.AVSCode)]; ok {
		return d
	}
	return a.AVSCode
}

// TrackingInfo describes the shipment of an order.
type TrackingInfo struct {
	Number  string
	Company string
	URL     string
}
