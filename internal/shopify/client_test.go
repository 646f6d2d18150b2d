package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/chargeback/backend/internal/config"
	"github.com/vanshika/chargeback/backend/internal/domain"
)

var creds = domain.ShopCredentials{ShopName: "acme", AccessToken: "shpat_test"}

const stripeTransactions = `{"transactions": [
  {"kind": "authorization", "status": "failure", "amount": "10.00"},
  {
    "kind": "capture", "status": "success", "amount": "129.50", "gateway": "shopify_payments",
    "authorization": "ch_3Abc", "created_at": "2024-03-01T14:05:00Z",
    "payment_details": {"credit_card_company": "Visa", "credit_card_name": "Ana Diaz", "credit_card_number": "•••• •••• •••• 4242", "avs_result_code": "Y"},
    "receipt": {
      "latest_charge": "ch_3Abc",
      "charges": {"data": [{
        "outcome": {"seller_message": "Payment complete.", "network_status": "approved_by_network", "risk_level": "normal"},
        "payment_method_details": {"card": {"last4": "4242", "brand": "visa", "exp_month": 4, "exp_year": 2027, "iin": "424242", "funding": "credit",
          "checks": {"address_line1_check": "pass", "address_postal_code_check": "pass", "cvc_check": "pass"}}}
      }]}
    }
  }
]}`

func decodeTransactions(t *testing.T, body string) []Transaction {
	t.Helper()
	var payload struct {
		Transactions []Transaction `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	return payload.Transactions
}

func TestTransactions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/api/2024-01/orders/5501/transactions.json", r.URL.Path)
		assert.Equal(t, "shpat_test", r.Header.Get("X-Shopify-Access-Token"))
		_, _ = w.Write([]byte(stripeTransactions))
	}))
	defer srv.Close()

	c := New(config.ShopifyConfig{}, WithEndpoint(srv.URL))
	txns, err := c.Transactions(context.Background(), creds, "5501")
	require.NoError(t, err)
	assert.Len(t, txns, 2)
}

func TestTransactions_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/admin/api/2024-01/orders/1/transactions.json" {
			_, _ = w.Write([]byte(`{"transactions": []}`))
			return
		}
		http.Error(w, `{"errors":"Not Found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(config.ShopifyConfig{}, WithEndpoint(srv.URL))
	_, err := c.Transactions(context.Background(), creds, "1")
	assert.ErrorIs(t, err, ErrNoTransactions)

	_, err = c.Transactions(context.Background(), creds, "2")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
}

func TestTracking_FallsBackToHashReference(t *testing.T) {
	var names []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		names = append(names, name)
		assert.Equal(t, "any", r.URL.Query().Get("status"))
		if name != "#1042" {
			_, _ = w.Write([]byte(`{"orders": []}`))
			return
		}
		_, _ = w.Write([]byte(`{"orders": [{"fulfillments": [
			{"tracking_number": ""},
			{"tracking_number": "1Z999", "tracking_company": "UPS"}
		]}]}`))
	}))
	defer srv.Close()

	c := New(config.ShopifyConfig{APIVersion: "2024-04"}, WithEndpoint(srv.URL))
	info, err := c.Tracking(context.Background(), creds, "#1042")
	require.NoError(t, err)
	assert.Equal(t, []string{"1042", "#1042"}, names)
	assert.Equal(t, domain.TrackingInfo{Number: "1Z999", Company: "UPS", URL: "https://www.ups.com/track?tracknum=1Z999"}, info)
}

func TestTracking_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"orders": [{"fulfillments": []}]}`))
	}))
	defer srv.Close()

	c := New(config.ShopifyConfig{}, WithEndpoint(srv.URL))
	_, err := c.Tracking(context.Background(), creds, "1042")
	assert.ErrorIs(t, err, ErrNoTracking)
}

func TestTrackingURL(t *testing.T) {
	assert.Equal(t, "https://www.fedex.com/fedextrack/?tracknumbers=77", TrackingURL("77", "FedEx Ground"))
	assert.Equal(t, "https://tools.usps.com/go/TrackConfirmAction?tLabels=94", TrackingURL("94", "USPS"))
	assert.Equal(t, "https://www.dhl.com/us-en/home/tracking.html?tracking-id=JD1", TrackingURL("JD1", "DHL Express"))
	assert.Empty(t, TrackingURL("X1", "Royal Mail"))
}

func TestExtractCard(t *testing.T) {
	card, ok := ExtractCard(decodeTransactions(t, stripeTransactions), "#1042")
	require.True(t, ok)
	assert.Equal(t, domain.CardDetails{
		OrderNumber:    "#1042",
		Brand:          "Visa",
		Last4:          "4242",
		CardholderName: "Ana Diaz",
		Authorization:  "ch_3Abc",
		Message:        "Payment complete.",
		Amount:         "$129.50",
		Gateway:        "Shopify Payments",
		Status:         "Success",
		Kind:           "Capture",
		Created:        "Mar 01, 2024, 02:05 PM",
	}, card)
}

func TestExtractCard_Fallbacks(t *testing.T) {
	txns := []Transaction{{
		"kind":            "capture",
		"status":          "pending",
		"payment_details": map[string]any{"credit_card_number": "•••• 1881", "payment_method_name": "Shop Pay Installments"},
		"receipt":         "opaque",
	}}
	card, ok := ExtractCard(txns, "")
	require.True(t, ok)
	assert.Equal(t, "1881", card.Last4)
	assert.Equal(t, "Shop Pay Installments", card.Brand)
	assert.Equal(t, "$0.00", card.Amount)
	assert.Equal(t, "Payment complete.", card.Message)

	_, ok = ExtractCard(nil, "1")
	assert.False(t, ok)

	txns[0]["payment_details"] = map[string]any{"credit_card_number": "●●●● ●●●● ●●●● 77"}
	card, ok = ExtractCard(txns, "")
	require.True(t, ok)
	assert.Equal(t, "●●77", card.Last4)
	assert.True(t, utf8.ValidString(card.Last4))
}

func TestExtractAVS(t *testing.T) {
	avs, ok := ExtractAVS(decodeTransactions(t, stripeTransactions), "#1042")
	require.True(t, ok)
	assert.Equal(t, "Y", avs.AVSCode)
	assert.Equal(t, "Full Match (Address & ZIP)", avs.AVSDescription())
	assert.Equal(t, "4", avs.ExpMonth)
	assert.Equal(t, "2027", avs.ExpYear)
	assert.Equal(t, "424242", avs.BIN)
	assert.Equal(t, "pass", avs.AddressCheck)
	assert.Equal(t, "Approved By Network", avs.NetworkStatus)
	assert.Equal(t, "Credit", avs.Funding)
}
