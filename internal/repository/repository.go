// Package repository reads and writes payment evidence in the graph.
package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/vanshika/chargeback/backend/internal/domain"
	"github.com/vanshika/chargeback/backend/internal/graph"
	"github.com/vanshika/chargeback/backend/internal/sessions"
)

// ErrPaymentNotFound is returned when the graph holds no node for a payment.
var ErrPaymentNotFound = errors.New("payment evidence not found")

// Repository encapsulates evidence graph persistence.
type Repository struct {
	client graph.Client
}

// New instantiates a Repository backed by the supplied graph client.
func New(client graph.Client) *Repository {
	return &Repository{client: client}
}

// Activity is the session evidence input of one payment.
type Activity struct {
	Payment  sessions.Payment
	Intel    *sessions.IPIntel
	Sessions []sessions.Session
}

// UpsertPaymentEvidence merges a payment node with its IP, locations and sessions.
func (r *Repository) UpsertPaymentEvidence(ctx context.Context, ev domain.PaymentEvidence) error {
	if ev.PaymentID == "" {
		return errors.New("payment id is required")
	}

	locations, err := locationParams(ev.Locations)
	if err != nil {
		return fmt.Errorf("upsert payment %s: %w", ev.PaymentID, err)
	}
	sessionRows, err := sessionParams(ev.Sessions)
	if err != nil {
		return fmt.Errorf("upsert payment %s: %w", ev.PaymentID, err)
	}

	params := map[string]any{
		"paymentId": ev.PaymentID,
		"props":     paymentProperties(ev),
		"ip":        ev.IP,
		"intel":     intelProperties(ev.Intel),
		"locations": locations,
		"sessions":  sessionRows,
	}

	if _, err := r.client.ExecuteWrite(ctx, upsertPaymentEvidenceCypher, params); err != nil {
		return fmt.Errorf("upsert payment %s: %w", ev.PaymentID, err)
	}
	return nil
}

// GeoPoints returns the labeled locations of a payment in anchor-first order.
// The network-origin point comes from the coordinates of the payment IP.
func (r *Repository) GeoPoints(ctx context.Context, paymentID string) ([]domain.GeoPoint, error) {
	res, err := r.client.ExecuteRead(ctx, geoPointsCypher, map[string]any{"paymentId": paymentID})
	if err != nil {
		return nil, fmt.Errorf("fetch geo points for %s: %w", paymentID, err)
	}
	rec, ok := res.First()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPaymentNotFound, paymentID)
	}

	byLabel := make(map[domain.GeoLabel]domain.GeoPoint)
	if lat, lng := toFloatPtr(rec["ipLatitude"]), toFloatPtr(rec["ipLongitude"]); lat != nil && lng != nil {
		byLabel[domain.GeoNetworkOrigin] = domain.GeoPoint{
			Label:     domain.GeoNetworkOrigin,
			Latitude:  *lat,
			Longitude: *lng,
			Address:   toString(rec["ipAddress"]),
			City:      toString(rec["ipCity"]),
			Region:    toString(rec["ipRegion"]),
			Country:   toString(rec["ipCountry"]),
		}
	}
	for _, raw := range toSlice(rec["locations"]) {
		loc, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		label := domain.GeoLabel(toString(loc["label"]))
		lat, lng := toFloatPtr(loc["latitude"]), toFloatPtr(loc["longitude"])
		if lat == nil || lng == nil {
			continue
		}
		if _, taken := byLabel[label]; taken {
			continue
		}
		byLabel[label] = domain.GeoPoint{
			Label:     label,
			Latitude:  *lat,
			Longitude: *lng,
			Address:   toString(loc["address"]),
			City:      toString(loc["city"]),
			Region:    toString(loc["region"]),
			Country:   toString(loc["country"]),
		}
	}

	var points []domain.GeoPoint
	for _, label := range domain.GeoLabels {
		if p, ok := byLabel[label]; ok {
			points = append(points, p)
		}
	}
	return points, nil
}

// SessionActivity returns the payment facts, IP intelligence and sessions
// ordered by start time.
func (r *Repository) SessionActivity(ctx context.Context, paymentID string) (Activity, error) {
	res, err := r.client.ExecuteRead(ctx, sessionActivityCypher, map[string]any{"paymentId": paymentID})
	if err != nil {
		return Activity{}, fmt.Errorf("fetch sessions for %s: %w", paymentID, err)
	}
	rec, ok := res.First()
	if !ok {
		return Activity{}, fmt.Errorf("%w: %s", ErrPaymentNotFound, paymentID)
	}

	props, _ := rec["payment"].(map[string]any)
	activity := Activity{
		Payment: sessions.Payment{
			PaymentID:         paymentID,
			ExternalReference: toString(props["externalReference"]),
			CreatedAt:         toTimePtr(props["createdAt"]),
			PayerName:         toString(props["payerName"]),
			PayerSurname:      toString(props["payerSurname"]),
			Email:             toString(props["email"]),
			Mobile:            toString(props["mobile"]),
			IP:                toString(props["ip"]),
			DeviceSignature:   toString(props["deviceSignature"]),
			BillingAddress:    toString(props["billingAddress"]),
		},
	}

	if intel, ok := rec["intel"].(map[string]any); ok {
		activity.Intel = &sessions.IPIntel{
			Country:     toString(intel["country"]),
			CountryCode: toString(intel["countryCode"]),
			City:        toString(intel["city"]),
			Region:      toString(intel["region"]),
			Postal:      toString(intel["postal"]),
			Timezone:    toString(intel["timezone"]),
			ISP:         toString(intel["isp"]),
			Proxy:       toBool(intel["proxy"]),
			Latitude:    toFloatPtr(intel["latitude"]),
			Longitude:   toFloatPtr(intel["longitude"]),
		}
	}

	for _, raw := range toSlice(rec["sessions"]) {
		s, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		activity.Sessions = append(activity.Sessions, sessions.Session{
			ID:              toString(s["sessionId"]),
			Start:           toTimePtr(s["start"]),
			End:             toTimePtr(s["end"]),
			DurationSeconds: toFloat64(s["durationSeconds"]),
			IPAddresses:     toStrings(s["ipAddresses"]),
			PreviousOrders:  toInt(s["previousOrders"]),
			Clicks:          toInt(s["clicks"]),
			Moves:           toInt(s["moves"]),
			UserAgents:      toStrings(s["userAgents"]),
			Bot:             toBool(s["bot"]),
		})
	}
	slices.SortStableFunc(activity.Sessions, func(a, b sessions.Session) int {
		switch {
		case a.Start == nil && b.Start == nil:
			return 0
		case a.Start == nil:
			return 1
		case b.Start == nil:
			return -1
		}
		return a.Start.Compare(*b.Start)
	})
	return activity, nil
}

// Ping checks connectivity to the graph.
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.VerifyConnectivity(ctx)
}

func paymentProperties(ev domain.PaymentEvidence) map[string]any {
	return map[string]any{
		"externalReference": ev.ExternalReference,
		"createdAt":         formatTimePtr(ev.CreatedAt),
		"payerName":         ev.PayerName,
		"payerSurname":      ev.PayerSurname,
		"email":             ev.Email,
		"mobile":            ev.Mobile,
		"ip":                ev.IP,
		"deviceSignature":   ev.DeviceSignature,
		"billingAddress":    ev.BillingAddress,
		"updatedAt":         formatTime(time.Now()),
	}
}

func intelProperties(intel *domain.IPIntel) map[string]any {
	if intel == nil {
		return map[string]any{}
	}
	props := map[string]any{
		"country":     intel.Country,
		"countryCode": intel.CountryCode,
		"city":        intel.City,
		"region":      intel.Region,
		"postal":      intel.Postal,
		"timezone":    intel.Timezone,
		"isp":         intel.ISP,
		"proxy":       intel.Proxy,
	}
	if intel.Latitude != nil && intel.Longitude != nil {
		props["latitude"] = *intel.Latitude
		props["longitude"] = *intel.Longitude
	}
	return props
}

func locationParams(points []domain.GeoPoint) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(points))
	for _, p := range points {
		if !slices.Contains(domain.GeoLabels, p.Label) {
			return nil, fmt.Errorf("unknown location label %q", p.Label)
		}
		out = append(out, map[string]any{
			"label": string(p.Label),
			"props": map[string]any{
				"latitude":  p.Latitude,
				"longitude": p.Longitude,
				"address":   p.Address,
				"city":      p.City,
				"region":    p.Region,
				"country":   p.Country,
			},
		})
	}
	return out, nil
}

func sessionParams(rows []domain.BrowsingSession) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(rows))
	for _, s := range rows {
		if s.ID == "" {
			return nil, errors.New("session id is required")
		}
		out = append(out, map[string]any{
			"id": s.ID,
			"props": map[string]any{
				"start":           formatTimePtr(s.Start),
				"end":             formatTimePtr(s.End),
				"durationSeconds": s.DurationSeconds,
				"ipAddresses":     nonNil(s.IPAddresses),
				"previousOrders":  s.PreviousOrders,
				"clicks":          s.Clicks,
				"moves":           s.Moves,
				"userAgents":      nonNil(s.UserAgents),
				"bot":             s.Bot,
			},
		})
	}
	return out, nil
}

func nonNil(vals []string) []string {
	if vals == nil {
		return []string{}
	}
	return vals
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return formatTime(*t)
}

func toString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func toFloat64(val any) float64 {
	switch v := val.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

func toFloatPtr(val any) *float64 {
	switch val.(type) {
	case float64, float32, int64, int:
		f := toFloat64(val)
		return &f
	}
	return nil
}

func toInt(val any) int {
	switch v := val.(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

func toBool(val any) bool {
	b, _ := val.(bool)
	return b
}

func toSlice(val any) []any {
	switch v := val.(type) {
	case []any:
		return v
	case []map[string]any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out
	}
	return nil
}

func toStrings(val any) []string {
	if v, ok := val.([]string); ok {
		return v
	}
	var out []string
	for _, item := range toSlice(val) {
		if s := toString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func toTimePtr(val any) *time.Time {
	switch v := val.(type) {
	case time.Time:
		return &v
	case string:
		if v == "" {
			return nil
		}
		if parsed, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return &parsed
		}
		if parsed, err := time.Parse(time.RFC3339, v); err == nil {
			return &parsed
		}
	}
	return nil
}

const upsertPaymentEvidenceCypher = `
MERGE (p:Payment {paymentId: $paymentId})
SET p += $props
WITH p
FOREACH (_ IN CASE WHEN $ip = "" THEN [] ELSE [1] END |
	MERGE (ip:IPAddress {address: $ip})
	SET ip += $intel
	MERGE (p)-[:ORIGINATED_FROM]->(ip)
)
FOREACH (loc IN $locations |
	MERGE (l:Location {paymentId: $paymentId, label: loc.label})
	SET l += loc.props
	MERGE (p)-[:LOCATED_AT]->(l)
)
FOREACH (s IN $sessions |
	MERGE (sess:Session {sessionId: s.id})
	SET sess += s.props
	MERGE (p)-[:HAS_SESSION]->(sess)
)
RETURN p.paymentId AS paymentId
`

const geoPointsCypher = `
MATCH (p:Payment {paymentId: $paymentId})
OPTIONAL MATCH (p)-[:ORIGINATED_FROM]->(ip:IPAddress)
OPTIONAL MATCH (p)-[:LOCATED_AT]->(l:Location)
RETURN ip.address AS ipAddress,
       ip.latitude AS ipLatitude,
       ip.longitude AS ipLongitude,
       ip.city AS ipCity,
       ip.region AS ipRegion,
       ip.country AS ipCountry,
       collect(l {.label, .latitude, .longitude, .address, .city, .region, .country}) AS locations
`

const sessionActivityCypher = `
MATCH (p:Payment {paymentId: $paymentId})
OPTIONAL MATCH (p)-[:ORIGINATED_FROM]->(ip:IPAddress)
OPTIONAL MATCH (p)-[:HAS_SESSION]->(s:Session)
RETURN p {.*} AS payment,
       ip {.*} AS intel,
       collect(s {.*}) AS sessions
`
