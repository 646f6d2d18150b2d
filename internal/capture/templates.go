package capture

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/vanshika/chargeback/backend/internal/domain"
)

var cardTemplate = template.Must(template.New("card").Parse(`<!DOCTYPE html>
<html>
<head>
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; background: #F1F1F1; padding: 16px; font-size: 14px; color: #303030; line-height: 1.5; }
.container { max-width: 300px; }
.field { margin-bottom: 14px; }
.field-label { font-weight: 600; }
</style>
</head>
<body>
<div class="container">
{{range .}}<div class="field"><div class="field-label">{{.Label}}</div><div class="field-value">{{.Value}}</div></div>
{{end}}</div>
</body>
</html>`))

var avsTemplate = template.Must(template.New("avs").Parse(`<!DOCTYPE html>
<html>
<head>
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; background: #f6f6f7; padding: 20px; }
.card-container { background: white; border-radius: 8px; max-width: 600px; overflow: hidden; }
.card-header { background: #f9fafb; padding: 16px 20px; border-bottom: 1px solid #e1e3e5; font-weight: 600; font-size: 14px; color: #202223; }
.card-visual { display: flex; align-items: center; gap: 12px; padding: 16px 20px; background: #f9fafb; border-bottom: 1px solid #e1e3e5; }
.card-icon { width: 48px; height: 32px; background: linear-gradient(135deg, #1a1f71 0%, #2557d6 100%); border-radius: 4px; color: white; font-weight: bold; font-size: 12px; display: flex; align-items: center; justify-content: center; }
.card-number { font-family: 'Courier New', monospace; font-size: 16px; letter-spacing: 2px; }
.avs-highlight { background: #e3f5e1; border: 2px solid #22863a; border-radius: 6px; padding: 12px 20px; margin: 12px 20px; color: #1f7a1f; font-size: 13px; }
.avs-highlight b { display: block; color: #22863a; font-size: 14px; margin-bottom: 4px; }
.section { background: #f4f6f8; padding: 10px 20px; font-size: 12px; font-weight: 600; color: #6d7175; text-transform: uppercase; }
.row { display: flex; padding: 12px 20px; border-bottom: 1px solid #f1f2f3; font-size: 13px; }
.row .label { width: 200px; color: #6d7175; }
.row .value { flex: 1; color: #202223; font-weight: 500; }
.pass { color: #22863a; } .fail { color: #cb2431; } .none { color: #6a737d; }
</style>
</head>
<body>
<div class="card-container">
<div class="card-header">Payment &amp; AVS Verification Details</div>
<div class="card-visual"><div class="card-icon">{{.Icon}}</div><div><div class="card-number">{{.Number}}</div><div style="color:#6d7175;font-size:12px">{{.Type}} &bull; {{.Funding}}</div></div></div>
<div class="avs-highlight"><b>&#10003; AVS FULL MATCH CONFIRMED</b>The billing address provided by the cardholder matches the address on file with the card issuer.</div>
{{range .Sections}}<div class="section">{{.Title}}</div>
{{range .Rows}}<div class="row"><div class="label">{{.Label}}</div><div class="value{{if .Class}} {{.Class}}{{end}}">{{.Value}}</div></div>
{{end}}{{end}}</div>
</body>
</html>`))

var mapTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css" />
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>
body { margin: 0; padding: 0; }
#map { width: 800px; height: 500px; }
.distance-box { position: absolute; bottom: 20px; right: 20px; background: white; padding: 10px 15px; border-radius: 5px; box-shadow: 0 2px 10px rgba(0,0,0,0.2); font-family: Arial, sans-serif; font-size: 12px; z-index: 1000; line-height: 1.6; }
</style>
</head>
<body>
<div id="map"></div>
<div class="distance-box"><b>Distances:</b>{{range .Distances}}<br>{{.}}{{end}}</div>
<script>
var map = L.map('map').setView([{{.CenterLat}}, {{.CenterLng}}], 10);
L.tileLayer('https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png', {attribution: '&copy; OpenStreetMap'}).addTo(map);
var markers = {{.Markers}};
markers.forEach(function (m) {
  var icon = L.divIcon({
    className: 'custom-marker',
    html: '<div style="background-color:' + m.color + ';color:black;padding:5px 10px;border-radius:5px;font-weight:bold;white-space:nowrap">' + m.label + '</div>',
    iconAnchor: [50, m.anchorY]
  });
  L.marker([m.lat, m.lng], {icon: icon, zIndexOffset: m.z}).addTo(map);
});
var lines = {{.Lines}};
lines.forEach(function (l) {
  L.polyline(l, {color: '#718096', weight: 2, dashArray: '5, 10'}).addTo(map);
});
map.fitBounds(L.latLngBounds(markers.map(function (m) { return [m.lat, m.lng]; })), {padding: [60, 60]});
</script>
</body>
</html>`))

// markerStyles holds per-label colour, anchor offset and stacking order.
var markerStyles = map[domain.GeoLabel]struct {
	Color   string
	AnchorY int
	Z       int
	Label   string
}{
	domain.GeoNetworkOrigin: {"#e53e3e", 40, 1000, "IP Location"},
	domain.GeoBilling:       {"#3182ce", -5, 500, "Billing Address"},
	domain.GeoShipping:      {"#38a169", -50, 0, "Shipping Address"},
}

type mapMarker struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Color   string  `json:"color"`
	Label   string  `json:"label"`
	AnchorY int     `json:"anchorY"`
	Z       int     `json:"z"`
}

// CardRequest renders the card-details card of a gateway transaction.
func CardRequest(name string, c domain.CardDetails) (Request, error) {
	rows := []domain.Field{
		{Label: "Order", Value: c.OrderNumber},
		{Label: "Card details", Value: fmt.Sprintf("%s •••• •••• •••• %s", c.Brand, c.Last4)},
		{Label: "Name on card", Value: c.CardholderName},
		{Label: "Authorization key", Value: c.Authorization},
		{Label: "Amount", Value: c.Amount},
	}
	for _, f := range []domain.Field{{Label: "Gateway", Value: c.Gateway}, {Label: "Status", Value: c.Status}, {Label: "Type", Value: c.Kind}} {
		if f.Value != "" {
			rows = append(rows, f)
		}
	}
	rows = append(rows, domain.Field{Label: "Message", Value: c.Message}, domain.Field{Label: "Created", Value: c.Created})

	html, err := execute(cardTemplate, rows)
	if err != nil {
		return Request{}, err
	}
	return Request{Name: name, HTML: html, Selector: ".container", Viewport: Viewport{Width: 400, Height: 600}, WaitMS: 500}, nil
}

type avsRow struct {
	Label string
	Value string
	Class string
}

type avsSection struct {
	Title string
	Rows  []avsRow
}

// AVSRequest renders the address-verification card.
func AVSRequest(name string, a domain.AVSDetails) (Request, error) {
	icon := strings.ToUpper(a.Brand)
	if icon == "" {
		icon = "CARD"
	}
	if len(icon) > 4 {
		icon = icon[:4]
	}
	expiry := "—"
	if a.ExpMonth != "" && a.ExpYear != "" {
		month := a.ExpMonth
		if len(month) == 1 {
			month = "0" + month
		}
		expiry = month + "/" + a.ExpYear
	}

	data := struct {
		Icon, Number, Type, Funding string
		Sections                    []avsSection
	}{
		Icon: icon, Number: a.CardNumber, Type: a.CardType, Funding: a.Funding,
		Sections: []avsSection{
			{Title: "Card", Rows: []avsRow{
				{Label: "Cardholder Name", Value: dash(a.CardholderName)},
				{Label: "Card Expiry", Value: expiry},
				{Label: "Card Issuer", Value: dash(a.Issuer)},
				{Label: "Card Country", Value: dash(a.Country)},
				{Label: "BIN/IIN", Value: dash(a.BIN)},
			}},
			{Title: "AVS Verification Results", Rows: []avsRow{
				{Label: "AVS Result Code", Value: strings.TrimSpace(a.AVSCode + " - " + a.AVSDescription()), Class: "pass"},
				check("Address Line Check", a.AddressCheck),
				check("Postal Code Check", a.ZipCheck),
				check("CVC Check", a.CVCCheck),
			}},
			{Title: "Authorization Details", Rows: []avsRow{
				{Label: "Authorization Code", Value: dash(a.AuthorizationCode)},
				{Label: "Network Status", Value: dash(a.NetworkStatus)},
				{Label: "Risk Level", Value: dash(a.RiskLevel)},
				{Label: "Result", Value: dash(a.SellerMessage)},
			}},
		},
	}
	html, err := execute(avsTemplate, data)
	if err != nil {
		return Request{}, err
	}
	return Request{Name: name, HTML: html, Selector: ".card-container", Viewport: Viewport{Width: 700, Height: 900}, WaitMS: 500}, nil
}

// MapRequest renders the relevant points of an analysis on a Leaflet map. It
// fails when fewer than two points are relevant.
func MapRequest(name string, a domain.GeoAnalysis) (Request, error) {
	points := a.RelevantPoints()
	if len(points) < 2 {
		return Request{}, fmt.Errorf("map needs two relevant points, have %d", len(points))
	}

	var lat, lng float64
	markers := make([]mapMarker, 0, len(points))
	for _, p := range points {
		lat += p.Latitude
		lng += p.Longitude
		st := markerStyles[p.Label]
		markers = append(markers, mapMarker{Lat: p.Latitude, Lng: p.Longitude, Color: st.Color, Label: st.Label, AnchorY: st.AnchorY, Z: st.Z})
	}
	var lines [][2][2]float64
	for i := range points {
		for j := i + 1; j < len(points); j++ {
			lines = append(lines, [2][2]float64{
				{points[i].Latitude, points[i].Longitude},
				{points[j].Latitude, points[j].Longitude},
			})
		}
	}

	var distances []string
	if a.Summary != "" {
		distances = strings.Split(a.Summary, " | ")
	}
	data := struct {
		CenterLat, CenterLng float64
		Markers              []mapMarker
		Lines                [][2][2]float64
		Distances            []string
	}{lat / float64(len(points)), lng / float64(len(points)), markers, lines, distances}

	html, err := execute(mapTemplate, data)
	if err != nil {
		return Request{}, err
	}
	return Request{Name: name, HTML: html, Viewport: Viewport{Width: 800, Height: 500}, WaitMS: 2000}, nil
}

// PageRequest captures a full web page, such as an order admin or carrier tracking page.
func PageRequest(name, pageURL string) Request {
	return Request{Name: name, URL: pageURL, Viewport: Viewport{Width: 1280, Height: 900}, WaitMS: 3000}
}

// IdentityPageURL expands the {paymentid} and {tenantid} placeholders.
func IdentityPageURL(tmpl, paymentID, tenantID string) string {
	if tmpl == "" {
		return ""
	}
	return strings.NewReplacer("{paymentid}", paymentID, "{tenantid}", tenantID).Replace(tmpl)
}

func check(label, value string) avsRow {
	switch value {
	case "pass":
		return avsRow{Label: label, Value: "✓ Pass", Class: "pass"}
	case "fail":
		return avsRow{Label: label, Value: "✗ Fail", Class: "fail"}
	case "":
		return avsRow{Label: label, Value: "—", Class: "none"}
	}
	return avsRow{Label: label, Value: value}
}

func dash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

func execute(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s template: %w", t.Name(), err)
	}
	return buf.String(), nil
}
