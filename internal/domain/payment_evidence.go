package domain

import "time"

// PaymentEvidence is everything the evidence graph stores about one payment:
// checkout facts, the intelligence on its IP, labeled locations and the
// browsing sessions recorded around it.
type PaymentEvidence struct {
	PaymentID         string
	ExternalReference string
	CreatedAt         *time.Time
	PayerName         string
	PayerSurname      string
	Email             string
	Mobile            string
	IP                string
	DeviceSignature   string
	BillingAddress    string
	Intel             *IPIntel
	Locations         []GeoPoint
	Sessions          []BrowsingSession
}

// IPIntel is the cached geolocation record of an IP address.
type IPIntel struct {
	Country     string
	CountryCode string
	City        string
	Region      string
	Postal      string
	Timezone    string
	ISP         string
	Proxy       bool
	Latitude    *float64
	Longitude   *float64
}

// BrowsingSession is one recorded storefront session.
type BrowsingSession struct {
	ID              string
	Start           *time.Time
	End             *time.Time
	DurationSeconds float64
	IPAddresses     []string
	PreviousOrders  int
	Clicks          int
	Moves           int
	UserAgents      []string
	Bot             bool
}
