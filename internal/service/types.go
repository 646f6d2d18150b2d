package service

import (
	"time"

	"github.com/vanshika/chargeback/backend/internal/domain"
)

// IPIntelInput is the inbound geolocation record of the payment IP.
type IPIntelInput struct {
	Country     string   `json:"country,omitempty" yaml:"country,omitempty"`
	CountryCode string   `json:"country_code,omitempty" yaml:"country_code,omitempty"`
	City        string   `json:"city,omitempty" yaml:"city,omitempty"`
	Region      string   `json:"region,omitempty" yaml:"region,omitempty"`
	Postal      string   `json:"postal,omitempty" yaml:"postal,omitempty"`
	Timezone    string   `json:"timezone,omitempty" yaml:"timezone,omitempty"`
	ISP         string   `json:"isp,omitempty" yaml:"isp,omitempty"`
	Proxy       bool     `json:"proxy,omitempty" yaml:"proxy,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty" yaml:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty" yaml:"longitude,omitempty"`
}

// LocationInput is a labeled billing or shipping coordinate.
type LocationInput struct {
	Label     string  `json:"label" yaml:"label"`
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
	Address   string  `json:"address,omitempty" yaml:"address,omitempty"`
	City      string  `json:"city,omitempty" yaml:"city,omitempty"`
	Region    string  `json:"region,omitempty" yaml:"region,omitempty"`
	Country   string  `json:"country,omitempty" yaml:"country,omitempty"`
}

// SessionInput is one recorded storefront session.
type SessionInput struct {
	ID              string     `json:"id" yaml:"id"`
	Start           *time.Time `json:"start,omitempty" yaml:"start,omitempty"`
	End             *time.Time `json:"end,omitempty" yaml:"end,omitempty"`
	DurationSeconds float64    `json:"duration_seconds,omitempty" yaml:"duration_seconds,omitempty"`
	IPAddresses     []string   `json:"ip_addresses,omitempty" yaml:"ip_addresses,omitempty"`
	PreviousOrders  int        `json:"previous_orders,omitempty" yaml:"previous_orders,omitempty"`
	Clicks          int        `json:"clicks,omitempty" yaml:"clicks,omitempty"`
	Moves           int        `json:"moves,omitempty" yaml:"moves,omitempty"`
	UserAgents      []string   `json:"user_agents,omitempty" yaml:"user_agents,omitempty"`
	Bot             bool       `json:"bot,omitempty" yaml:"bot,omitempty"`
}

// EvidenceInput is the inbound payload loaded into the evidence graph for one payment.
type EvidenceInput struct {
	PaymentID         string          `json:"payment_id" yaml:"payment_id"`
	ExternalReference string          `json:"external_reference,omitempty" yaml:"external_reference,omitempty"`
	CreatedAt         *time.Time      `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	PayerName         string          `json:"payer_name,omitempty" yaml:"payer_name,omitempty"`
	PayerSurname      string          `json:"payer_surname,omitempty" yaml:"payer_surname,omitempty"`
	Email             string          `json:"email,omitempty" yaml:"email,omitempty"`
	Mobile            string          `json:"mobile,omitempty" yaml:"mobile,omitempty"`
	IP                string          `json:"ip,omitempty" yaml:"ip,omitempty"`
	DeviceSignature   string          `json:"device_signature,omitempty" yaml:"device_signature,omitempty"`
	BillingAddress    string          `json:"billing_address,omitempty" yaml:"billing_address,omitempty"`
	Intel             *IPIntelInput   `json:"ip_intel,omitempty" yaml:"ip_intel,omitempty"`
	Locations         []LocationInput `json:"locations,omitempty" yaml:"locations,omitempty"`
	Sessions          []SessionInput  `json:"sessions,omitempty" yaml:"sessions,omitempty"`
}

// ToDomain converts the input into the stored evidence record, normalizing
// free-text fields on the way.
func (in EvidenceInput) ToDomain() domain.PaymentEvidence {
	ev := domain.PaymentEvidence{
		PaymentID:         sanitizeString(in.PaymentID),
		ExternalReference: sanitizeString(in.ExternalReference),
		CreatedAt:         in.CreatedAt,
		PayerName:         sanitizeString(in.PayerName),
		PayerSurname:      sanitizeString(in.PayerSurname),
		Email:             normalizeEmail(in.Email),
		Mobile:            sanitizeString(in.Mobile),
		IP:                normalizeIP(in.IP),
		DeviceSignature:   sanitizeString(in.DeviceSignature),
		BillingAddress:    sanitizeString(in.BillingAddress),
	}
	if in.Intel != nil {
		ev.Intel = &domain.IPIntel{
			Country:     sanitizeString(in.Intel.Country),
			CountryCode: sanitizeString(in.Intel.CountryCode),
			City:        sanitizeString(in.Intel.City),
			Region:      sanitizeString(in.Intel.Region),
			Postal:      sanitizeString(in.Intel.Postal),
			Timezone:    sanitizeString(in.Intel.Timezone),
			ISP:         sanitizeString(in.Intel.ISP),
			Proxy:       in.Intel.Proxy,
			Latitude:    in.Intel.Latitude,
			Longitude:   in.Intel.Longitude,
		}
	}
	for _, loc := range in.Locations {
		ev.Locations = append(ev.Locations, domain.GeoPoint{
			Label:     normalizeLabel(loc.Label),
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
			Address:   sanitizeString(loc.Address),
			City:      sanitizeString(loc.City),
			Region:    sanitizeString(loc.Region),
			Country:   sanitizeString(loc.Country),
		})
	}
	for _, s := range in.Sessions {
		ev.Sessions = append(ev.Sessions, domain.BrowsingSession{
			ID:              sanitizeString(s.ID),
			Start:           s.Start,
			End:             s.End,
			DurationSeconds: s.DurationSeconds,
			IPAddresses:     sanitizeAll(s.IPAddresses),
			PreviousOrders:  s.PreviousOrders,
			Clicks:          s.Clicks,
			Moves:           s.Moves,
			UserAgents:      sanitizeAll(s.UserAgents),
			Bot:             s.Bot,
		})
	}
	return ev
}
