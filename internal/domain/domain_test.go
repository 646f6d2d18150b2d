package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountDisplay(t *testing.T) {
	assert.Equal(t, "$129.50", NumericAmount(decimal.RequireFromString("129.5")).Display())
	assert.Equal(t, "$0.10", NumericAmount(decimal.RequireFromString("0.1")).Display())
	assert.Equal(t, "$1.01", NumericAmount(decimal.RequireFromString("1.005")).Display())
	assert.Equal(t, "$see invoice", RawAmount("see invoice").Display())
}

func TestEvidenceBundle(t *testing.T) {
	var b EvidenceBundle
	assert.Empty(t, b.Slots())
	assert.False(t, b.Has(SlotOrderDetails))

	b.Attach(SlotShippingProof, Fields(Field{Label: FieldCarrier, Value: "UPS"}))
	b.Attach(SlotOrderDetails, Narrative("Order placed online."))
	b.Attach(SlotOrderDetails, Narrative(""))
	b.Attach(SlotOrderDetails, ArtifactRef(ArtifactOrderScreenshot, "/tmp/order.png"))
	b.Attach(SlotShippingProof, Fields())
	b.Mark(SlotKYCProof)

	assert.Equal(t, []SlotName{SlotOrderDetails, SlotKYCProof, SlotShippingProof}, b.Slots())
	assert.Len(t, b.Fragments(SlotOrderDetails), 2, "absent fragments are dropped")
	assert.Equal(t, "Order placed online.", b.Text(SlotOrderDetails))
	assert.Empty(t, b.Text(SlotKYCProof))
	assert.True(t, b.Has(SlotKYCProof))
	assert.Nil(t, b.Fragments(SlotKYCProof))

	art, ok := b.Artifact(SlotOrderDetails, ArtifactOrderScreenshot)
	require.True(t, ok)
	assert.Equal(t, "/tmp/order.png", art.Path)
	_, ok = b.Artifact(SlotOrderDetails, ArtifactCardDetails)
	assert.False(t, ok)

	carrier, ok := b.Field(SlotShippingProof, FieldCarrier)
	require.True(t, ok)
	assert.Equal(t, "UPS", carrier)

	frags := b.Fragments(SlotOrderDetails)
	frags[0].Text = "changed"
	assert.Equal(t, "Order placed online.", b.Text(SlotOrderDetails), "Fragments returns a copy")
}

func TestNarrativeWithHint(t *testing.T) {
	f := NarrativeWithHint("Card ending 4242.", "[card screenshot]")
	assert.Equal(t, FragmentNarrative, f.Kind)
	assert.Equal(t, "[card screenshot]", f.Hint)
	assert.Equal(t, FragmentAbsent, NarrativeWithHint("", "hint").Kind)
	assert.Equal(t, "narrative", f.Kind.String())
}

func TestResult(t *testing.T) {
	ok := OK(3)
	v, usable := ok.Get()
	assert.True(t, usable)
	assert.Equal(t, 3, v)

	deg := Degraded[int]("no data")
	assert.False(t, deg.OK())
	assert.Equal(t, StatusDegraded, deg.Status)
	assert.Equal(t, "no data", deg.Reason)

	boom := errors.New("boom")
	failed := Failed[string](boom)
	assert.ErrorIs(t, failed.Err, boom)
	assert.Equal(t, "boom", failed.Reason)
	assert.Error(t, Failed[string](nil).Err)
}

func TestCategory(t *testing.T) {
	for _, c := range Categories {
		assert.True(t, c.Valid(), c)
	}
	assert.False(t, ReasonCategory("chargeback").Valid())
	assert.True(t, CategoryCreditNotProcessed.NeedsReturnPolicy())
	assert.False(t, CategoryProductNotReceived.NeedsReturnPolicy())
	assert.Equal(t, "USD", DisputeCase{}.CurrencyOrDefault())
	assert.True(t, KYCImages{Selfie: "s.png"}.Any())
}
