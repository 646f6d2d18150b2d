package evidence

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/chargeback/backend/internal/domain"
)

const narrativeDoc = `{
	"reference": "1042",
	"transaction_id": "tx_99",
	"amount": 129.50,
	"currency": "USD",
	"transaction_date": "2024-03-01",
	"chargeback_reason": "product_not_received",
	"tenant": "e420",
	"order_details": "Order #1042 placed online.",
	"payment_proof": {"text": "AVS Y full match", "proof_placeholder": "Payment Screenshot", "avs_result_code": "y"},
	"public_records_proof": true,
	"location_proof": {},
	"interaction_proof": ["visit"],
	"shipping_proof": ""
}`

func TestNormalizeJSON_WrappedAndUnwrappedAreEqual(t *testing.T) {
	n := NewNormalizer(nil)

	wrappedOutput, err := json.Marshal(narrativeDoc)
	require.NoError(t, err)
	wrapped := []byte(`{"output": ` + string(wrappedOutput) + `}`)
	unwrapped := []byte(`{"output": ` + narrativeDoc + `}`)

	a, err := n.NormalizeJSON(wrapped)
	require.NoError(t, err)
	b, err := n.NormalizeJSON(unwrapped)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, "$129.50", a.Narrative.Amount.Display())
	assert.Equal(t, "1042", a.Narrative.Reference)
}

func TestNormalize_SlotCoercion(t *testing.T) {
	got, err := NewNormalizer(nil).NormalizeJSON([]byte(`{"output": ` + narrativeDoc + `}`))
	require.NoError(t, err)
	slots := got.Narrative

	assert.Equal(t, SlotNarrative{Present: true, Text: "Order #1042 placed online."}, slots.Slot(domain.SlotOrderDetails))
	assert.Equal(t, SlotNarrative{
		Present:     true,
		Text:        "AVS Y full match",
		Placeholder: "Payment Screenshot",
		AVSCode:     "Y",
	}, slots.Slot(domain.SlotPaymentProof))
	assert.True(t, slots.Slot(domain.SlotPublicRecords).Present)
	assert.True(t, slots.Slot(domain.SlotInteractionProof).Present)
	assert.False(t, slots.Slot(domain.SlotLocationProof).Present)
	assert.False(t, slots.Slot(domain.SlotShippingProof).Present)
	assert.False(t, slots.Slot(domain.SlotKYCProof).Present)
}

func TestNormalize_MalformedOutputIsRecovered(t *testing.T) {
	var buf bytes.Buffer
	n := NewNormalizer(slog.New(slog.NewTextHandler(&buf, nil)))

	got := n.Normalize(map[string]any{
		"output": "{not json",
		"reason": "fraud",
	})

	assert.Equal(t, "fraud", got.Reason)
	assert.Equal(t, DefaultTenant, got.Tenant)
	assert.Empty(t, got.Narrative.Slots)
	assert.Contains(t, buf.String(), "reasoning output is not valid JSON")
}

func TestNormalize_KYCAlwaysMaterialized(t *testing.T) {
	n := NewNormalizer(nil)

	empty := n.Normalize(map[string]any{})
	assert.Equal(t, domain.KYCImages{}, empty.KYC)
	assert.False(t, empty.KYC.Any())

	partial := n.Normalize(map[string]any{
		"kyc_images": map[string]any{"selfie": "https://cdn.example/selfie.jpg", "card": nil},
	})
	assert.Equal(t, domain.KYCImages{Selfie: "https://cdn.example/selfie.jpg"}, partial.KYC)
}

func TestNormalize_TenantPrecedence(t *testing.T) {
	n := NewNormalizer(nil)
	inner := map[string]any{"tenant": "narrative-tenant"}

	cases := []struct {
		name string
		resp map[string]any
		want string
	}{
		{"explicit", map[string]any{"tenant": "e420", "tenant_name": "x", "output": inner}, "e420"},
		{"tenant name", map[string]any{"tenant_name": "  edhardyoriginals ", "output": inner}, "edhardyoriginals"},
		{"narrative", map[string]any{"output": inner}, "narrative-tenant"},
		{"default", map[string]any{}, DefaultTenant},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, n.Normalize(tc.resp).Tenant)
		})
	}
}

func TestNormalize_ReasonPrecedence(t *testing.T) {
	n := NewNormalizer(nil)
	inner := map[string]any{"chargeback_reason": "credit_not_processed"}

	assert.Equal(t, "fraud", n.Normalize(map[string]any{"reason": "fraud", "output": inner}).Reason)
	assert.Equal(t, "credit_not_processed", n.Normalize(map[string]any{"output": inner}).Reason)
	assert.Equal(t, "", n.Normalize(map[string]any{}).Reason)
}

func TestNormalize_Amounts(t *testing.T) {
	n := NewNormalizer(nil)

	raw := n.Normalize(map[string]any{"output": map[string]any{"amount": "N/A"}})
	assert.False(t, raw.Narrative.Amount.Numeric)
	assert.Equal(t, "$N/A", raw.Narrative.Amount.Display())

	missing := n.Normalize(map[string]any{})
	assert.Equal(t, "$0.00", missing.Narrative.Amount.Display())

	native := n.Normalize(map[string]any{"output": map[string]any{"amount": 42.0}})
	assert.Equal(t, "$42.00", native.Narrative.Amount.Display())
}

func TestNormalizeJSON_Failures(t *testing.T) {
	n := NewNormalizer(nil)

	_, err := n.NormalizeJSON([]byte("  \n"))
	assert.ErrorIs(t, err, ErrEmptyResponse)

	_, err = n.NormalizeJSON([]byte("<html>bad gateway</html>"))
	assert.Error(t, err)

	_, err = n.NormalizeJSON([]byte(`"just a string"`))
	assert.ErrorIs(t, err, ErrMalformedResponse)

	got, err := n.NormalizeJSON([]byte(`[{"reason": "fraud"}]`))
	require.NoError(t, err)
	assert.Equal(t, "fraud", got.Reason)
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct{ in, want string }{
		{"(555) 123-4567", "+15551234567"},
		{"1-555-123-4567", "+15551234567"},
		{"+44 20 7946 0958", "+44 20 7946 0958"},
		{"447946095812", "+447946095812"},
		{"  ", ""},
		{"n/a", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizePhone(tc.in), "input %q", tc.in)
	}
}

func TestPhoneKeys(t *testing.T) {
	assert.Equal(t, []string{"+15551234567", `"+15551234567"`, "15551234567"}, PhoneKeys("+15551234567"))
	assert.Nil(t, PhoneKeys(""))
}
