package render

import (
	"fmt"
	"strings"

	"github.com/vanshika/chargeback/backend/internal/domain"
	"github.com/vanshika/chargeback/backend/internal/policy"
)

const (
	pnrSubtitle = "Merchandise/Services Not Received - Delivery Confirmed"
	pnaSubtitle = "Product Unacceptable / Quality Dispute"
	cnpSubtitle = "Credit / Refund Not Processed"

	dearIssuer        = "Dear Issuer,"
	summaryHeader     = "Summary"
	cardIntro         = "The following card details were captured from the payment gateway:"
	pnaOrderDefault   = "Please find below the details of order which was created on the merchant's web-site:"
	cnpOrderDefault   = "Please find below the details of the order which was created on the merchant's web-site:"
	cnpPaymentText    = "The following payment details confirm that the transaction was successfully authorised and captured. No credit or refund was issued against this payment."
	policyLinkLead    = "Merchant's Returns & Exchanges Policy can be found by the below link:"
	policyExtractLead = "Here is an extract from merchant's refund policy:"

	pnrOpening = "We respectfully decline chargeback %s with reason code %s. The order was successfully delivered to the cardholder and delivery was confirmed by %s. This chargeback is therefore invalid."
	pnaOpening = "Please be informed that we wish to decline the chargeback with reason code %s. The order was successfully delivered to the client in good condition and %s never claimed about the quality of the item or asked for a return, so the chargeback is invalid."
	cnpOpening = "Please be informed that we wish to decline the chargeback with reason code %s. No refund or credit was agreed upon or issued for this transaction. The order was fulfilled and delivered to the client as confirmed by the shipping proof below. The cardholder did not follow the merchant's Returns & Exchanges Policy prior to initiating the chargeback."

	pnrClosing = "As shown in the delivery confirmation provided above, the package was successfully delivered to the cardholder's address. The merchant is not responsible for packages after confirmed delivery. These facts confirm that the product was received and the chargeback should be cancelled."
	pnaClosing = "All products are inspected and packaged for shipment prior to leaving the warehouse. The cardholder has never claimed about the quality of the item. The cardholder has never tried to return the product according to merchant's Returns & Exchanges Policy. These facts confirm that this is a clear case of buyer's remorse and so the chargeback should be cancelled."
	cnpClosing = "The transaction was successfully authorised, captured, and the order was delivered to the cardholder as confirmed by the shipping documentation above. No credit or refund was agreed upon or processed. The cardholder did not attempt to return the product in accordance with the merchant's Returns & Exchanges Policy. These facts confirm that this chargeback is unwarranted and should be cancelled."
)

var (
	pnaBullets = []string{"Order details", "Payment proof", "Shipping proof", "Merchant's Returns & Exchanges Policy"}
	cnpBullets = []string{"Order details", "Payment verification", "Shipping proof", "Merchant's Returns & Exchanges Policy"}
)

// productNotReceived lays out the delivery-confirmed response: order, card,
// shipping and a summary. It never carries a return policy.
func (rc *renderContext) productNotReceived(doc *Document) {
	reason := strings.TrimSpace(rc.c.RawReason)
	if reason == "" {
		reason = "Merchandise Not Received"
	}
	doc.Subtitle = pnrSubtitle
	doc.Facts = rc.facts(reason)

	if opening := strings.TrimSpace(rc.c.OpeningStatement); opening != "" {
		doc.Opening = openingLines(opening, false)
	} else {
		carrier := strings.TrimSpace(rc.c.Carrier)
		if carrier == "" {
			carrier = "the carrier"
		}
		doc.Opening = []Block{
			{Kind: BlockParagraph, Text: dearIssuer},
			{Kind: BlockParagraph, Text: fmt.Sprintf(pnrOpening, rc.c.Reference, reason, carrier)},
		}
	}

	doc.Sections = []Section{
		rc.orderSection("1. Order", rc.orderDefault()),
		rc.cardSection("2. Card Details"),
		rc.shippingSection("3. Shipping proof", true),
		rc.summarySection(pnrClosing),
	}
}

// productNotAcceptable lays out the quality-dispute response with the
// merchant's return policy.
func (rc *renderContext) productNotAcceptable(doc *Document) {
	reason := "Product Unacceptable"
	if raw := strings.TrimSpace(rc.c.RawReason); raw != "" {
		reason = titleCase(raw)
	}
	doc.Subtitle = pnaSubtitle
	doc.Facts = rc.facts(reason)
	doc.Opening = rc.returnOpening(fmt.Sprintf(pnaOpening, reason, pronoun(rc.c.CustomerGender)), pnaBullets)

	doc.Sections = []Section{
		rc.orderSection("1. Order details", pnaOrderDefault),
		rc.cardSection("2. Card Details"),
		rc.shippingSection("3. Shipping proof", false),
		rc.policySection(),
		rc.summarySection(pnaClosing),
	}
}

// creditNotProcessed lays out the refund-dispute response. Payment evidence
// replaces the plain card section.
func (rc *renderContext) creditNotProcessed(doc *Document) {
	reason := "Credit Not Processed"
	if raw := strings.TrimSpace(rc.c.RawReason); raw != "" {
		reason = titleCase(raw)
	}
	doc.Subtitle = cnpSubtitle
	doc.Facts = rc.facts(reason)
	doc.Opening = rc.returnOpening(fmt.Sprintf(cnpOpening, reason), cnpBullets)

	payment := newSection("2. Payment Verification")
	payment.paragraph(rc.text(domain.SlotPaymentProof, cnpPaymentText))
	rc.cardEvidence(payment, "INSERT: Payment Verification Screenshot")

	doc.Sections = []Section{
		rc.orderSection("1. Order details", cnpOrderDefault),
		payment.close(),
		rc.shippingSection("3. Shipping proof", false),
		rc.policySection(),
		rc.summarySection(cnpClosing),
	}
}

func (rc *renderContext) returnOpening(body string, bullets []string) []Block {
	if opening := strings.TrimSpace(rc.c.OpeningStatement); opening != "" {
		return openingLines(opening, true)
	}
	blocks := []Block{
		{Kind: BlockParagraph, Text: dearIssuer},
		{Kind: BlockParagraph, Text: body},
	}
	for _, b := range bullets {
		blocks = append(blocks, Block{Kind: BlockBullet, Text: bulletGlyph + " " + b})
	}
	return blocks
}

func (rc *renderContext) orderSection(heading, fallback string) Section {
	s := newSection(heading)
	s.paragraph(rc.text(domain.SlotOrderDetails, fallback))
	rc.artifactOrPlaceholder(s, domain.SlotOrderDetails, domain.ArtifactOrderScreenshot, mainImageMaxHeight,
		"INSERT: Order Details Screenshot", "Shopify Order Details")
	return s.close()
}

func (rc *renderContext) cardSection(heading string) Section {
	s := newSection(heading)
	s.paragraph(cardIntro)
	rc.cardEvidence(s, "INSERT: Card Details Screenshot")
	return s.close()
}

func (rc *renderContext) shippingSection(heading string, withLink bool) Section {
	s := newSection(heading)
	s.paragraph(rc.text(domain.SlotShippingProof, shippingDefault))
	rc.artifactOrPlaceholder(s, domain.SlotShippingProof, domain.ArtifactTrackingScreenshot, mainImageMaxHeight,
		"INSERT: Delivery Confirmation Screenshot", "Carrier Delivery Confirmation")
	if withLink {
		rc.trackingLink(s)
	}
	return s.close()
}

func (rc *renderContext) policySection() Section {
	s := newSection("4. Merchant's Return/Exchange Policy")
	s.paragraph(rc.text(domain.SlotReturnPolicy, policy.DefaultTable().Lookup(policy.DefaultKey).Text))
	if url, ok := rc.b.Field(domain.SlotReturnPolicy, domain.FieldPolicyURL); ok && url != "" {
		s.paragraph(policyLinkLead)
		s.link(url)
	}
	s.paragraph(policyExtractLead)
	// The screenshot wins over the quoted extract; the placeholder only
	// appears when neither is available.
	art, _ := rc.b.Artifact(domain.SlotReturnPolicy, domain.ArtifactReturnPolicy)
	extract, _ := rc.b.Field(domain.SlotReturnPolicy, domain.FieldPolicyQuote)
	if img, ok := rc.load(domain.SlotReturnPolicy, art); ok {
		s.add(Block{Kind: BlockImage, Image: place(img, ContentWidth, policyImageMaxHeight)})
	} else if extract = strings.TrimSpace(extract); extract != "" {
		s.emphasis(extract)
	} else {
		s.placeholder("INSERT: Return Policy Screenshot")
	}
	return s.close()
}

func (rc *renderContext) summarySection(fallback string) Section {
	s := newSection(summaryHeader)
	closing := strings.TrimSpace(rc.c.ClosingStatement)
	if closing == "" {
		closing = fallback
	}
	s.emphasis(closing)
	return s.close()
}
