package render

import (
	"fmt"
	"strings"

	"github.com/vanshika/chargeback/backend/internal/domain"
)

const (
	fraudSubtitle    = "Formal Evidence Submission"
	fraudKYCSubtitle = "Formal Evidence Submission with KYC Verification"

	fraudOrderHeader       = "ORDER DETAILS"
	fraudPaymentHeader     = "PAYMENT VERIFICATION"
	fraudIdentityHeader    = "IDENTITY VERIFICATION"
	fraudKYCHeader         = "KYC VERIFICATION"
	fraudRecordsHeader     = "PUBLIC RECORDS VERIFICATION"
	fraudShippingHeader    = "SHIPPING VERIFICATION"
	fraudLocationHeader    = "IP LOCATION VERIFICATION"
	fraudInteractionHeader = "CUSTOMER INTERACTION HISTORY"
	fraudConclusion        = "CONCLUSION"

	paymentIntro     = "The following payment details were captured and verified during the transaction:"
	identityDefault  = "The following payment information was collected and verified during the transaction:"
	kycDefault       = "Customer completed comprehensive identity verification including government-issued ID validation and live facial recognition."
	shippingDefault  = "Please find below the Delivery Confirmation Receipt confirming successful delivery of the order:"
	interactionStub  = "Customer interaction and communication history."
	recordsPhoneLead = "The following public records are associated with the phone number %s, which was provided by the customer when placing this order:"
)

var kycCaptions = map[domain.ArtifactKind]string{
	domain.ArtifactKYCIDCard: "Government-Issued ID",
	domain.ArtifactKYCSelfie: "Live Selfie Verification",
	domain.ArtifactKYCCard:   "Payment Card Verification",
}

// fraud lays out the unrecognized-transaction response. Order, payment,
// identity, shipping and interaction sections always render; the others only
// with evidence. Sections are numbered in the order they appear.
func (rc *renderContext) fraud(doc *Document) {
	reason := "Not Specified"
	if raw := strings.TrimSpace(rc.c.RawReason); raw != "" {
		reason = titleCase(raw)
	}

	doc.Subtitle = fraudSubtitle
	if rc.c.KYC.Any() {
		doc.Subtitle = fraudKYCSubtitle
	}
	doc.Facts = rc.facts(reason)
	if opening := strings.TrimSpace(rc.c.OpeningStatement); opening != "" {
		doc.Opening = []Block{{Kind: BlockParagraph, Text: "SUMMARY: " + opening}}
	}

	n := 0
	next := func(header string) *sectionBuilder {
		n++
		return newSection(fmt.Sprintf("%d. %s", n, header))
	}
	emit := func(s *sectionBuilder) {
		doc.Sections = append(doc.Sections, s.close())
	}

	s := next(fraudOrderHeader)
	s.paragraph(rc.text(domain.SlotOrderDetails, rc.orderDefault()))
	rc.artifactOrPlaceholder(s, domain.SlotOrderDetails, domain.ArtifactOrderScreenshot, mainImageMaxHeight,
		"INSERT: Order Details Screenshot", "Shopify Order Details")
	emit(s)

	s = next(fraudPaymentHeader)
	s.paragraph(paymentIntro)
	rc.cardEvidence(s, "INSERT: Card Details Screenshot")
	if _, ok := rc.b.Artifact(domain.SlotPaymentProof, domain.ArtifactAVSDetails); ok {
		if t := strings.TrimSpace(rc.b.Text(domain.SlotPaymentProof)); t != "" {
			s.paragraph(t)
		}
		rc.artifactOrPlaceholder(s, domain.SlotPaymentProof, domain.ArtifactAVSDetails, mainImageMaxHeight,
			"INSERT: AVS Verification Screenshot", "AVS & Payment Verification Details")
	}
	emit(s)

	s = next(fraudIdentityHeader)
	s.paragraph(rc.text(domain.SlotIdentityProof, identityDefault))
	rc.artifactOrPlaceholder(s, domain.SlotIdentityProof, domain.ArtifactIdentityScreenshot, mainImageMaxHeight,
		"INSERT: Identity Verification Screenshot", "Payment Identity Information")
	emit(s)

	if rc.c.KYC.Any() {
		s = next(fraudKYCHeader)
		s.paragraph(rc.text(domain.SlotKYCProof, kycDefault))
		if grid := rc.kycGrid(); len(grid) > 0 {
			s.add(Block{Kind: BlockImageGrid, Grid: grid})
		}
		emit(s)
	} else if t := strings.TrimSpace(rc.b.Text(domain.SlotKYCProof)); t != "" {
		s = next(fraudKYCHeader)
		s.paragraph(t)
		s.placeholder("INSERT: " + rc.hint(domain.SlotKYCProof, fraudKYCHeader))
		emit(s)
	}

	if rc.b.Has(domain.SlotPublicRecords) {
		s = next(fraudRecordsHeader)
		rc.publicRecords(s)
		emit(s)
	}

	s = next(fraudShippingHeader)
	s.paragraph(rc.text(domain.SlotShippingProof, shippingDefault))
	rc.artifactOrPlaceholder(s, domain.SlotShippingProof, domain.ArtifactTrackingScreenshot, mainImageMaxHeight,
		"INSERT: Delivery Confirmation Screenshot", "Carrier Delivery Confirmation")
	rc.trackingLink(s)
	emit(s)

	if rc.b.Has(domain.SlotLocationProof) {
		s = next(fraudLocationHeader)
		s.paragraph(rc.text(domain.SlotLocationProof, genericStubText))
		if rc.artifactOrPlaceholder(s, domain.SlotLocationProof, domain.ArtifactLocationMap, mainImageMaxHeight,
			"INSERT: IP Location Map", "IP Location vs Billing/Shipping Address") && rc.geo != nil && rc.geo.Summary != "" {
			s.add(Block{Kind: BlockCaption, Text: rc.geo.Summary})
		}
		emit(s)
	}

	s = next(fraudInteractionHeader)
	s.paragraph(rc.text(domain.SlotInteractionProof, interactionStub))
	s.placeholder("INSERT: Customer Interaction Screenshot")
	emit(s)

	if closing := strings.TrimSpace(rc.c.ClosingStatement); closing != "" {
		cs := newSection(fraudConclusion)
		cs.emphasis(closing)
		sec := cs.close()
		doc.Closing = &sec
	}
}

// hint is the slot's placeholder label, defaulting to "<HEADER> Screenshot".
func (rc *renderContext) hint(slot domain.SlotName, header string) string {
	if f, ok := rc.b.Narrative(slot); ok && strings.TrimSpace(f.Hint) != "" {
		return strings.TrimSpace(f.Hint)
	}
	return header + " Screenshot"
}

// kycGrid lays the downloaded KYC images out in equal columns. Failed downloads
// are left out; images that fail to decode show their caption in brackets.
func (rc *renderContext) kycGrid() []GridCell {
	var arts []domain.Artifact
	for _, a := range rc.b.Artifacts(domain.SlotKYCProof) {
		if a.Path != "" {
			arts = append(arts, a)
		}
	}
	if len(arts) == 0 {
		return nil
	}

	colWidth := ContentWidth / float64(len(arts))
	cells := make([]GridCell, 0, len(arts))
	for _, a := range arts {
		caption := kycCaptions[a.Kind]
		cell := GridCell{Caption: caption, Width: colWidth}
		if img, ok := rc.load(domain.SlotKYCProof, a); ok {
			cell.Image = place(img, colWidth-kycColumnPadding, kycImageMaxHeight)
		} else {
			cell.Fallback = "[" + caption + "]"
		}
		cells = append(cells, cell)
	}
	return cells
}

func (rc *renderContext) publicRecords(s *sectionBuilder) {
	text := strings.TrimSpace(rc.b.Text(domain.SlotPublicRecords))
	rows := rc.b.Fields(domain.SlotPublicRecords)
	if text == "" && len(rows) == 0 {
		s.paragraph(genericStubText)
		s.placeholder("INSERT: " + fraudRecordsHeader + " Screenshot")
		return
	}
	if text != "" {
		s.paragraph(text)
	}
	if len(rows) == 0 {
		return
	}
	if phone, ok := rc.b.Field(domain.SlotPublicRecords, domain.FieldPhoneNumber); ok && phone != "" {
		s.paragraph(fmt.Sprintf(recordsPhoneLead, phone))
	} else if text == "" {
		s.paragraph(genericStubText)
	}
	s.table(rows)
}
