// Package geo measures how close the network origin, billing and shipping
// locations of a payment are to each other.
package geo

import (
	"fmt"
	"math"
	"strings"

	"github.com/vanshika/chargeback/backend/internal/domain"
)

const (
	// EarthRadiusMiles is the mean Earth radius used by the haversine formula.
	EarthRadiusMiles = 3959.0
	// DefaultThresholdMiles bounds the distance at which two points count as close.
	DefaultThresholdMiles = 100.0
	// sameLocationMiles is the billing/shipping distance reported as one location.
	sameLocationMiles = 1.0
)

// Distance returns the great-circle distance in miles, rounded to two decimals.
func Distance(a, b domain.GeoPoint) float64 {
	lat1 := radians(a.Latitude)
	lat2 := radians(b.Latitude)
	dLat := radians(b.Latitude - a.Latitude)
	dLng := radians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return round2(EarthRadiusMiles * c)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Analyzer computes GeoAnalysis values against a fixed threshold.
type Analyzer struct {
	threshold float64
}

// NewAnalyzer returns an analyzer; a non-positive threshold selects the default.
func NewAnalyzer(thresholdMiles float64) *Analyzer {
	if thresholdMiles <= 0 {
		thresholdMiles = DefaultThresholdMiles
	}
	return &Analyzer{threshold: thresholdMiles}
}

// Threshold returns the configured closeness threshold in miles.
func (a *Analyzer) Threshold() float64 {
	return a.threshold
}

// Analyze computes pairwise distances and the relevant subset. Duplicate
// labels keep the first point. It never fails; with fewer than two relevant
// points the relevant set is empty.
func (a *Analyzer) Analyze(points []domain.GeoPoint) domain.GeoAnalysis {
	byLabel := make(map[domain.GeoLabel]domain.GeoPoint, len(points))
	for _, p := range points {
		if _, dup := byLabel[p.Label]; dup {
			continue
		}
		byLabel[p.Label] = p
	}

	out := domain.GeoAnalysis{ThresholdMiles: a.threshold}
	for _, label := range domain.GeoLabels {
		if p, ok := byLabel[label]; ok {
			out.Points = append(out.Points, p)
		}
	}

	// Pair order is origin→billing, origin→shipping, billing→shipping.
	for i := 0; i < len(out.Points); i++ {
		for j := i + 1; j < len(out.Points); j++ {
			from, to := out.Points[i], out.Points[j]
			out.Distances = append(out.Distances, domain.GeoDistance{
				From:  from.Label,
				To:    to.Label,
				Miles: Distance(from, to),
			})
		}
	}

	out.Relevant = a.relevant(out, byLabel)
	if len(out.Relevant) < 2 {
		out.Relevant = nil
	}

	if len(out.Distances) > 0 {
		out.AllClose = true
		for _, d := range out.Distances {
			if d.Miles > a.threshold {
				out.AllClose = false
				break
			}
		}
	}

	out.Summary = compactSummary(out)
	out.Narrative = narrativeSummary(out)
	return out
}

func (a *Analyzer) relevant(analysis domain.GeoAnalysis, points map[domain.GeoLabel]domain.GeoPoint) []domain.GeoLabel {
	var out []domain.GeoLabel
	_, hasOrigin := points[domain.GeoNetworkOrigin]
	_, hasBilling := points[domain.GeoBilling]
	_, hasShipping := points[domain.GeoShipping]

	if hasOrigin {
		out = append(out, domain.GeoNetworkOrigin)
	}
	if hasOrigin && hasBilling && a.within(analysis, domain.GeoNetworkOrigin, domain.GeoBilling) {
		out = append(out, domain.GeoBilling)
	}
	if hasShipping {
		closeToOrigin := hasOrigin && a.within(analysis, domain.GeoNetworkOrigin, domain.GeoShipping)
		closeToBilling := hasBilling && a.within(analysis, domain.GeoBilling, domain.GeoShipping)
		if closeToOrigin || closeToBilling {
			out = append(out, domain.GeoShipping)
		}
	}
	return out
}

func (a *Analyzer) within(analysis domain.GeoAnalysis, x, y domain.GeoLabel) bool {
	d, ok := analysis.Distance(x, y)
	return ok && d <= a.threshold
}

// compactSummary renders "IP to Billing: 7.0 miles | ..." for map captions.
func compactSummary(a domain.GeoAnalysis) string {
	parts := make([]string, 0, len(a.Distances))
	for _, d := range a.Distances {
		parts = append(parts, fmt.Sprintf("%s to %s: %.1f miles", d.From.Title(), d.To.Title(), d.Miles))
	}
	return strings.Join(parts, " | ")
}

// narrativeSummary renders the full-sentence distance text used in the document body.
func narrativeSummary(a domain.GeoAnalysis) string {
	var sentences []string

	toBilling, hasBilling := a.Distance(domain.GeoNetworkOrigin, domain.GeoBilling)
	toShipping, hasShipping := a.Distance(domain.GeoNetworkOrigin, domain.GeoShipping)
	switch {
	case hasBilling && hasShipping:
		sentences = append(sentences, fmt.Sprintf(
			"The transaction IP address is located approximately %.1f miles from the billing address and %.1f miles from the shipping address",
			toBilling, toShipping))
	case hasBilling:
		sentences = append(sentences, fmt.Sprintf(
			"The transaction IP address is located approximately %.1f miles from the billing address", toBilling))
	case hasShipping:
		sentences = append(sentences, fmt.Sprintf(
			"The transaction IP address is located approximately %.1f miles from the shipping address", toShipping))
	}

	if d, ok := a.Distance(domain.GeoBilling, domain.GeoShipping); ok {
		if d < sameLocationMiles {
			sentences = append(sentences, "Billing and shipping addresses are at the same location")
		} else {
			sentences = append(sentences, fmt.Sprintf("Billing and shipping addresses are %.1f miles apart", d))
		}
	}

	if len(sentences) == 0 {
		return ""
	}
	return strings.Join(sentences, ". ") + "."
}

// Describe formats a point's locality as "city, region, country", skipping blanks.
func Describe(p domain.GeoPoint) string {
	var parts []string
	for _, s := range []string{p.City, p.Region, p.Country} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}
