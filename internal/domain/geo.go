package domain

// GeoLabel identifies the role of a geographic point.
type GeoLabel string

const (
	GeoNetworkOrigin GeoLabel = "ip"
	GeoBilling       GeoLabel = "billing"
	GeoShipping      GeoLabel = "shipping"
)

// GeoLabels is the fixed anchor-first ordering of point roles.
var GeoLabels = []GeoLabel{GeoNetworkOrigin, GeoBilling, GeoShipping}

// Title is the display name used in summaries and map markers.
func (l GeoLabel) Title() string {
	switch l {
	case GeoNetworkOrigin:
		return "IP"
	case GeoBilling:
		return "Billing"
	case GeoShipping:
		return "Shipping"
	}
	return string(l)
}

// GeoPoint is one labeled location tied to a dispute.
type GeoPoint struct {
	Label     GeoLabel
	Latitude  float64
	Longitude float64
	Address   string
	City      string
	Region    string
	Country   string
}

// GeoDistance is the great-circle distance between two labeled points, in miles.
type GeoDistance struct {
	From  GeoLabel
	To    GeoLabel
	Miles float64
}

// GeoAnalysis is derived from a set of GeoPoints and never persisted.
type GeoAnalysis struct {
	Points         []GeoPoint
	Distances      []GeoDistance
	Relevant       []GeoLabel
	AllClose       bool
	Summary        string
	Narrative      string
	ThresholdMiles float64
}

// Distance returns the distance between two labels regardless of argument order.
func (a GeoAnalysis) Distance(x, y GeoLabel) (float64, bool) {
	for _, d := range a.Distances {
		if (d.From == x && d.To == y) || (d.From == y && d.To == x) {
			return d.Miles, true
		}
	}
	return 0, false
}

// IsRelevant reports whether the label made it into the relevant subset.
func (a GeoAnalysis) IsRelevant(l GeoLabel) bool {
	for _, r := range a.Relevant {
		if r == l {
			return true
		}
	}
	return false
}

// RelevantPoints returns the points of the relevant subset in anchor-first order.
func (a GeoAnalysis) RelevantPoints() []GeoPoint {
	var out []GeoPoint
	for _, p := range a.Points {
		if a.IsRelevant(p.Label) {
			out = append(out, p)
		}
	}
	return out
}
