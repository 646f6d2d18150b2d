// Package aggregate merges normalized narrative evidence with the optional
// side-channel evidence gathered for a dispute into one evidence bundle.
package aggregate

import (
	"regexp"
	"strings"

	"github.com/vanshika/chargeback/backend/internal/domain"
	"github.com/vanshika/chargeback/backend/internal/evidence"
	"github.com/vanshika/chargeback/backend/internal/policy"
)

// Plan lists the optional evidence a category needs fetched.
type Plan struct {
	OrderCapture       bool
	TrackingCapture    bool
	CardDetails        bool
	AVSDetails         bool
	IdentityScreenshot bool
	SessionEvidence    bool
	PublicRecords      bool
	LocationAnalysis   bool
	KYCDownloads       bool
	ReturnPolicy       bool
}

// NewPlan decides which optional evidence the pipeline must fetch.
func NewPlan(n evidence.Normalized, c domain.ReasonCategory) Plan {
	p := Plan{
		OrderCapture:    true,
		TrackingCapture: true,
		CardDetails:     true,
	}
	if c != domain.CategoryFraud {
		p.ReturnPolicy = c.NeedsReturnPolicy()
		return p
	}

	payment := n.Narrative.Slot(domain.SlotPaymentProof)
	p.IdentityScreenshot = true
	p.SessionEvidence = true
	p.PublicRecords = n.Narrative.Slot(domain.SlotPublicRecords).Present
	p.LocationAnalysis = n.Narrative.Slot(domain.SlotLocationProof).Present
	p.KYCDownloads = n.KYC.Any()
	p.AVSDetails = DetectAVSMatch(payment.Text, payment.AVSCode)
	return p
}

// Tasks names the planned fetches in a stable order, for logging.
func (p Plan) Tasks() []string {
	var out []string
	add := func(on bool, name string) {
		if on {
			out = append(out, name)
		}
	}
	add(p.OrderCapture, "order")
	add(p.TrackingCapture, "tracking")
	add(p.CardDetails, "card_details")
	add(p.AVSDetails, "avs")
	add(p.IdentityScreenshot, "identity")
	add(p.SessionEvidence, "session")
	add(p.PublicRecords, "public_records")
	add(p.LocationAnalysis, "location")
	add(p.KYCDownloads, "kyc")
	add(p.ReturnPolicy, "return_policy")
	return out
}

// fullMatchCodes are gateway AVS codes meaning street address and postal code both matched.
var fullMatchCodes = map[string]bool{"Y": true, "X": true, "D": true, "M": true, "F": true}

var (
	avsToken     = regexp.MustCompile(`(?i)\bavs\b`)
	negatedMatch = regexp.MustCompile(`(?i)\b(?:no|not|non|does\s+not|did\s+not|doesn't|didn't)[\s-]+(?:a\s+)?match\w*|\bmis-?match\w*|\bnon-?match\w*`)
	affirmative  = regexp.MustCompile(`(?i)\bfull\s+match\b|\bmatch(?:ed|es|ing)?\b|\bY\b`)
)

// DetectAVSMatch reports whether the payment evidence shows an address
// verification match. A structured AVS code decides on its own; otherwise the
// text must mention AVS together with an affirmative indicator that is not negated.
func DetectAVSMatch(text, code string) bool {
	if code = strings.ToUpper(strings.TrimSpace(code)); code != "" {
		return fullMatchCodes[code]
	}
	if !avsToken.MatchString(text) {
		return false
	}
	cleaned := negatedMatch.ReplaceAllString(text, " ")
	return affirmative.MatchString(cleaned)
}

// Optional carries the side-channel evidence gathered for a case. Every field
// is independently optional.
type Optional struct {
	Identity         *domain.IdentityRecord
	Geo              *domain.GeoAnalysis
	SessionNarrative string
	Card             *domain.CardDetails
	AVS              *domain.AVSDetails
	Tracking         *domain.TrackingInfo
	Policy           *policy.Policy
	PolicyImage      string
	Artifacts        map[domain.ArtifactKind]string
}

func (o Optional) artifact(kind domain.ArtifactKind) (string, bool) {
	p, ok := o.Artifacts[kind]
	return p, ok
}

// Aggregate assembles the evidence bundle. Each slot is built on its own, so a
// missing piece of evidence never affects another slot.
func Aggregate(n evidence.Normalized, c domain.ReasonCategory, opt Optional) domain.EvidenceBundle {
	var b domain.EvidenceBundle
	narr := n.Narrative

	attachNarrative(&b, domain.SlotOrderDetails, narr.Slot(domain.SlotOrderDetails))
	attachArtifact(&b, domain.SlotOrderDetails, opt, domain.ArtifactOrderScreenshot)

	assemblePayment(&b, narr.Slot(domain.SlotPaymentProof), opt)
	assembleShipping(&b, narr.Slot(domain.SlotShippingProof), opt)

	if c == domain.CategoryFraud {
		attachNarrative(&b, domain.SlotIdentityProof, narr.Slot(domain.SlotIdentityProof))
		attachArtifact(&b, domain.SlotIdentityProof, opt, domain.ArtifactIdentityScreenshot)

		assembleKYC(&b, narr.Slot(domain.SlotKYCProof), n.KYC, opt)
		assemblePublicRecords(&b, narr.Slot(domain.SlotPublicRecords), opt)
		assembleLocation(&b, narr.Slot(domain.SlotLocationProof), opt)
		assembleInteraction(&b, narr.Slot(domain.SlotInteractionProof), opt)
	}

	if c.NeedsReturnPolicy() {
		assembleReturnPolicy(&b, opt)
	}
	return b
}

func attachNarrative(b *domain.EvidenceBundle, slot domain.SlotName, s evidence.SlotNarrative) {
	if !s.Present {
		return
	}
	b.Mark(slot)
	b.Attach(slot, domain.NarrativeWithHint(s.Text, s.Placeholder))
}

func attachArtifact(b *domain.EvidenceBundle, slot domain.SlotName, opt Optional, kind domain.ArtifactKind) {
	if p, ok := opt.artifact(kind); ok && p != "" {
		b.Attach(slot, domain.ArtifactRef(kind, p))
	}
}

func assemblePayment(b *domain.EvidenceBundle, s evidence.SlotNarrative, opt Optional) {
	attachNarrative(b, domain.SlotPaymentProof, s)
	attachArtifact(b, domain.SlotPaymentProof, opt, domain.ArtifactCardDetails)

	// The card table stands in for a missing card screenshot.
	if _, ok := b.Artifact(domain.SlotPaymentProof, domain.ArtifactCardDetails); !ok && opt.Card != nil {
		b.Attach(domain.SlotPaymentProof, domain.Fields(cardRows(*opt.Card)...))
	}

	// An AVS request was made, so keep the slot even if capture failed; the
	// renderer then shows its placeholder.
	if p, ok := opt.artifact(domain.ArtifactAVSDetails); ok {
		b.Attach(domain.SlotPaymentProof, domain.ArtifactRef(domain.ArtifactAVSDetails, p))
	}
}

func cardRows(c domain.CardDetails) []domain.Field {
	var rows []domain.Field
	add := func(label, value string) {
		if value != "" {
			rows = append(rows, domain.Field{Label: label, Value: value})
		}
	}
	add("Card Brand:", c.Brand)
	if c.Last4 != "" {
		add("Card Number:", "•••• •••• •••• "+c.Last4)
	}
	add("Cardholder:", c.CardholderName)
	add("Authorization:", c.Authorization)
	add("Gateway:", c.Gateway)
	add("Status:", c.Status)
	add("Processed:", c.Created)
	return rows
}

func assembleShipping(b *domain.EvidenceBundle, s evidence.SlotNarrative, opt Optional) {
	attachNarrative(b, domain.SlotShippingProof, s)
	attachArtifact(b, domain.SlotShippingProof, opt, domain.ArtifactTrackingScreenshot)
	if opt.Tracking == nil {
		return
	}
	var rows []domain.Field
	if opt.Tracking.Company != "" {
		rows = append(rows, domain.Field{Label: domain.FieldCarrier, Value: opt.Tracking.Company})
	}
	if opt.Tracking.URL != "" {
		rows = append(rows, domain.Field{Label: domain.FieldTrackingLink, Value: opt.Tracking.URL})
	}
	b.Attach(domain.SlotShippingProof, domain.Fields(rows...))
}

func assembleKYC(b *domain.EvidenceBundle, s evidence.SlotNarrative, kyc domain.KYCImages, opt Optional) {
	attachNarrative(b, domain.SlotKYCProof, s)
	refs := []struct {
		url  string
		kind domain.ArtifactKind
	}{
		{kyc.IDCard, domain.ArtifactKYCIDCard},
		{kyc.Selfie, domain.ArtifactKYCSelfie},
		{kyc.Card, domain.ArtifactKYCCard},
	}
	for _, r := range refs {
		if r.url == "" {
			continue
		}
		// A failed download keeps an empty path so the image is skipped at render time.
		p, _ := opt.artifact(r.kind)
		b.Attach(domain.SlotKYCProof, domain.ArtifactRef(r.kind, p))
	}
}

func assemblePublicRecords(b *domain.EvidenceBundle, s evidence.SlotNarrative, opt Optional) {
	if !s.Present {
		return
	}
	attachNarrative(b, domain.SlotPublicRecords, s)
	if opt.Identity != nil {
		b.Attach(domain.SlotPublicRecords, domain.Fields(opt.Identity.Rows()...))
	}
}

func assembleLocation(b *domain.EvidenceBundle, s evidence.SlotNarrative, opt Optional) {
	if !s.Present {
		return
	}
	b.Mark(domain.SlotLocationProof)

	// Precedence: computed distance narrative, then the reasoning text.
	text := s.Text
	if opt.Geo != nil && opt.Geo.Narrative != "" {
		text = opt.Geo.Narrative
	}
	b.Attach(domain.SlotLocationProof, domain.NarrativeWithHint(text, s.Placeholder))
	attachArtifact(b, domain.SlotLocationProof, opt, domain.ArtifactLocationMap)
}

func assembleInteraction(b *domain.EvidenceBundle, s evidence.SlotNarrative, opt Optional) {
	// Precedence: session evidence summaries, then the reasoning text.
	if opt.SessionNarrative != "" {
		b.Attach(domain.SlotInteractionProof, domain.Narrative(opt.SessionNarrative))
		return
	}
	attachNarrative(b, domain.SlotInteractionProof, s)
}

func assembleReturnPolicy(b *domain.EvidenceBundle, opt Optional) {
	p := policy.DefaultTable().Lookup(policy.DefaultKey)
	if opt.Policy != nil {
		p = *opt.Policy
	}
	b.Mark(domain.SlotReturnPolicy)
	b.Attach(domain.SlotReturnPolicy, domain.Narrative(p.Text))

	var rows []domain.Field
	if p.URL != "" {
		rows = append(rows, domain.Field{Label: domain.FieldPolicyURL, Value: p.URL})
	}
	if p.Extract != "" {
		rows = append(rows, domain.Field{Label: domain.FieldPolicyQuote, Value: p.Extract})
	}
	b.Attach(domain.SlotReturnPolicy, domain.Fields(rows...))
	b.Attach(domain.SlotReturnPolicy, domain.ArtifactRef(domain.ArtifactReturnPolicy, opt.PolicyImage))
}
