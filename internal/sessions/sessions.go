// Package sessions summarizes a customer's browsing sessions around a payment
// into the interaction-history narrative of a fraud dispute.
package sessions

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Category places a session relative to the payment time.
type Category string

const (
	Before  Category = "before"
	During  Category = "during"
	After   Category = "after"
	Unknown Category = "unknown"
)

// Payment holds the payment facts the summaries refer to.
type Payment struct {
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
}

// IPIntel is the cached geolocation record of the payment IP.
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

// Session is one recorded browsing session.
type Session struct {
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

// Categorize places the session before, during or after the payment.
func Categorize(s Session, paymentTime *time.Time) Category {
	if paymentTime == nil {
		return Unknown
	}
	switch {
	case s.End != nil && s.End.Before(*paymentTime):
		return Before
	case s.Start != nil && !s.Start.Before(*paymentTime):
		return After
	case s.Start != nil && s.End != nil && s.Start.Before(*paymentTime) && s.End.After(*paymentTime):
		return During
	}
	return Unknown
}

// Stats aggregates session activity. Average durations are nil when no
// session in the category recorded a positive duration.
type Stats struct {
	Total             int
	CountBefore       int
	CountDuring       int
	CountAfter        int
	AvgBefore         *float64
	AvgDuring         *float64
	AvgAfter          *float64
	TotalSeconds      float64
	UniqueIPs         []string
	Clicks            int
	Moves             int
	HasPreviousOrders bool
}

// ComputeStats aggregates sessions relative to the payment time.
func ComputeStats(sessions []Session, paymentTime *time.Time) Stats {
	st := Stats{Total: len(sessions)}
	var before, during, after []float64
	seen := make(map[string]struct{})

	for _, s := range sessions {
		d := s.DurationSeconds
		switch Categorize(s, paymentTime) {
		case Before:
			st.CountBefore++
			if d > 0 {
				before = append(before, d)
			}
		case During:
			st.CountDuring++
			if d > 0 {
				during = append(during, d)
			}
		case After:
			st.CountAfter++
			if d > 0 {
				after = append(after, d)
			}
		}

		for _, ip := range s.IPAddresses {
			if ip == "" {
				continue
			}
			if _, ok := seen[ip]; !ok {
				seen[ip] = struct{}{}
				st.UniqueIPs = append(st.UniqueIPs, ip)
			}
		}
		st.Clicks += s.Clicks
		st.Moves += s.Moves
		if s.PreviousOrders > 0 {
			st.HasPreviousOrders = true
		}
	}

	st.AvgBefore = average(before)
	st.AvgDuring = average(during)
	st.AvgAfter = average(after)
	st.TotalSeconds = sum(before) + sum(during) + sum(after)
	return st
}

func sum(vals []float64) float64 {
	var total float64
	for _, v := range vals {
		total += v
	}
	return total
}

func average(vals []float64) *float64 {
	if len(vals) == 0 {
		return nil
	}
	avg := math.Round(sum(vals)/float64(len(vals))*10) / 10
	return &avg
}

// FormatDuration renders seconds as "N seconds", "M min S sec" or "Hh Mm".
func FormatDuration(seconds float64) string {
	switch {
	case seconds <= 0:
		return "N/A"
	case seconds < 60:
		return fmt.Sprintf("%d seconds", int(seconds))
	case seconds < 3600:
		return fmt.Sprintf("%d min %d sec", int(seconds/60), int(math.Mod(seconds, 60)))
	default:
		return fmt.Sprintf("%dh %dm", int(seconds/3600), int(math.Mod(seconds, 3600)/60))
	}
}

func formatAverage(avg *float64) string {
	if avg == nil {
		return "N/A"
	}
	return FormatDuration(*avg)
}

// Summary renders the session-activity paragraph.
func (st Stats) Summary() string {
	if st.Total == 0 {
		return "Session data shows the customer accessed the merchant's website to complete this transaction."
	}

	lines := []string{fmt.Sprintf("The customer had %d browsing session(s) on the merchant's website.", st.Total)}
	if st.CountBefore > 0 {
		lines = append(lines, fmt.Sprintf("• %d session(s) before the purchase (avg duration: %s)", st.CountBefore, formatAverage(st.AvgBefore)))
	}
	if st.CountDuring > 0 {
		lines = append(lines, fmt.Sprintf("• %d session(s) during the purchase (avg duration: %s)", st.CountDuring, formatAverage(st.AvgDuring)))
	}
	if st.CountAfter > 0 {
		lines = append(lines, fmt.Sprintf("• %d session(s) after the purchase (avg duration: %s)", st.CountAfter, formatAverage(st.AvgAfter)))
	}
	lines = append(lines, "", "Total time spent on website: "+FormatDuration(st.TotalSeconds))

	if st.Clicks > 0 || st.Moves > 0 {
		lines = append(lines, fmt.Sprintf("User activity: %d clicks, %d mouse movements", st.Clicks, st.Moves))
	}
	if st.HasPreviousOrders {
		lines = append(lines, "Note: Customer has previous order history with this merchant")
	}
	switch n := len(st.UniqueIPs); {
	case n == 1:
		lines = append(lines, "Consistent IP address used throughout: "+st.UniqueIPs[0])
	case n > 1:
		shown := st.UniqueIPs
		if len(shown) > 3 {
			shown = shown[:3]
		}
		lines = append(lines, "IP addresses used: "+strings.Join(shown, ", "))
	}
	return strings.Join(lines, "\n")
}

// Location describes where the payment originated.
type Location struct {
	IP          string
	Country     string
	CountryCode string
	City        string
	Region      string
	Postal      string
	Timezone    string
	ISP         string
	Proxy       bool
	Coordinates string
}

// LocationFrom combines the payment IP with its cached intel, if any.
func LocationFrom(p Payment, intel *IPIntel) Location {
	loc := Location{IP: p.IP}
	if intel == nil {
		return loc
	}
	loc.Country = intel.Country
	loc.CountryCode = intel.CountryCode
	loc.City = intel.City
	loc.Region = intel.Region
	loc.Postal = intel.Postal
	loc.Timezone = intel.Timezone
	loc.ISP = intel.ISP
	loc.Proxy = intel.Proxy
	if intel.Latitude != nil && intel.Longitude != nil {
		loc.Coordinates = fmt.Sprintf("%v, %v", *intel.Latitude, *intel.Longitude)
	}
	return loc
}

// Summary renders the IP-location paragraph.
func (l Location) Summary() string {
	var lines []string
	if l.IP != "" {
		lines = append(lines, "Transaction IP Address: "+l.IP)
	}
	var parts []string
	for _, s := range []string{l.City, l.Region, l.Country} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) > 0 {
		lines = append(lines, "Location: "+strings.Join(parts, ", "))
	}
	if l.Postal != "" {
		lines = append(lines, "Postal Code: "+l.Postal)
	}
	if l.ISP != "" {
		lines = append(lines, "Internet Service Provider: "+l.ISP)
	}
	if l.Timezone != "" {
		lines = append(lines, "Timezone: "+l.Timezone)
	}
	if l.Proxy {
		lines = append(lines, "Note: Proxy/VPN detected")
	} else {
		lines = append(lines, "No proxy or VPN detected - direct connection from residential/commercial IP")
	}
	return strings.Join(lines, "\n")
}

const signatureDisplayLimit = 50

// Device summarizes the browsers and devices seen across sessions.
type Device struct {
	Signature        string
	UserAgents       []string
	Browsers         []string
	OperatingSystems []string
	Mobile           bool
	Bot              bool
}

// DeviceFrom collects distinct user agents in first-seen order.
func DeviceFrom(sessions []Session, signature string) Device {
	d := Device{Signature: signature}
	seenUA := make(map[string]struct{})
	browsers := make(map[string]struct{})
	systems := make(map[string]struct{})

	for _, s := range sessions {
		for _, ua := range s.UserAgents {
			if ua == "" {
				continue
			}
			if _, ok := seenUA[ua]; ok {
				continue
			}
			seenUA[ua] = struct{}{}
			d.UserAgents = append(d.UserAgents, ua)

			browser, system, mobile := ParseUserAgent(ua)
			if browser != "" {
				browsers[browser] = struct{}{}
			}
			if system != "" {
				systems[system] = struct{}{}
			}
			d.Mobile = d.Mobile || mobile
		}
		d.Bot = d.Bot || s.Bot
	}

	d.Browsers = sortedKeys(browsers)
	d.OperatingSystems = sortedKeys(systems)
	return d
}

func sortedKeys(m map[string]struct{}) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ParseUserAgent extracts the browser family, operating system and mobile flag.
func ParseUserAgent(ua string) (browser, system string, mobile bool) {
	s := strings.ToLower(ua)

	switch {
	case strings.Contains(s, "chrome") && !strings.Contains(s, "edg"):
		browser = "Chrome"
	case strings.Contains(s, "firefox"):
		browser = "Firefox"
	case strings.Contains(s, "safari") && !strings.Contains(s, "chrome"):
		browser = "Safari"
	case strings.Contains(s, "edg"):
		browser = "Edge"
	}

	switch {
	case strings.Contains(s, "android"):
		return browser, "Android", true
	case strings.Contains(s, "iphone") || strings.Contains(s, "ipad"):
		return browser, "iOS", true
	case strings.Contains(s, "windows"):
		system = "Windows"
	case strings.Contains(s, "mac os") || strings.Contains(s, "macintosh"):
		system = "macOS"
	case strings.Contains(s, "linux"):
		system = "Linux"
	}
	return browser, system, false
}

// Summary renders the device paragraph.
func (d Device) Summary() string {
	var lines []string
	if d.Signature != "" {
		sig := d.Signature
		if r := []rune(sig); len(r) > signatureDisplayLimit {
			sig = string(r[:signatureDisplayLimit]) + "..."
		}
		lines = append(lines, "Device Fingerprint: "+sig)
	}
	if len(d.Browsers) > 0 {
		lines = append(lines, "Browser(s): "+strings.Join(d.Browsers, ", "))
	}
	if len(d.OperatingSystems) > 0 {
		lines = append(lines, "Operating System(s): "+strings.Join(d.OperatingSystems, ", "))
	}
	if d.Mobile {
		lines = append(lines, "Device Type: Mobile")
	} else {
		lines = append(lines, "Device Type: Desktop/Laptop")
	}
	switch {
	case d.Bot:
		lines = append(lines, "Note: Bot behavior detected")
	case len(d.UserAgents) == 1:
		lines = append(lines, "Consistent device used throughout all sessions")
	case len(d.UserAgents) > 1:
		lines = append(lines, fmt.Sprintf("Note: %d different user agents detected", len(d.UserAgents)))
	}
	return strings.Join(lines, "\n")
}

// TimelineEntry is one session on the activity timeline.
type TimelineEntry struct {
	Start           *time.Time
	End             *time.Time
	DurationSeconds float64
	Category        Category
	IPAddresses     []string
}

// Evidence is the full session-evidence record for one payment.
type Evidence struct {
	PaymentID      string
	PaymentDate    string
	CustomerName   string
	Email          string
	Phone          string
	BillingAddress string
	Stats          Stats
	Location       Location
	Device         Device
	Timeline       []TimelineEntry
}

// Build assembles the evidence record. intel may be nil.
func Build(p Payment, intel *IPIntel, sessions []Session) Evidence {
	ev := Evidence{
		PaymentID:      p.PaymentID,
		CustomerName:   strings.TrimSpace(p.PayerName + " " + p.PayerSurname),
		Email:          p.Email,
		Phone:          p.Mobile,
		BillingAddress: p.BillingAddress,
		Stats:          ComputeStats(sessions, p.CreatedAt),
		Location:       LocationFrom(p, intel),
		Device:         DeviceFrom(sessions, p.DeviceSignature),
	}
	if p.CreatedAt != nil {
		ev.PaymentDate = p.CreatedAt.Format("January 02, 2006 at 03:04 PM")
	}

	for _, s := range sessions {
		ev.Timeline = append(ev.Timeline, TimelineEntry{
			Start:           s.Start,
			End:             s.End,
			DurationSeconds: s.DurationSeconds,
			Category:        Categorize(s, p.CreatedAt),
			IPAddresses:     s.IPAddresses,
		})
	}
	sort.SliceStable(ev.Timeline, func(i, j int) bool {
		a, b := ev.Timeline[i].Start, ev.Timeline[j].Start
		if a == nil || b == nil {
			return a == nil && b != nil
		}
		return a.Before(*b)
	})
	return ev
}

// Narrative joins the session, location and device summaries with blank lines.
func (e Evidence) Narrative() string {
	var parts []string
	for _, s := range []string{e.Stats.Summary(), e.Location.Summary(), e.Device.Summary()} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}
