package render

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/chargeback/backend/internal/domain"
	"github.com/vanshika/chargeback/backend/internal/policy"
)

// stubLoader serves images by path and fails for anything else.
type stubLoader map[string]Image

func (s stubLoader) Load(path string) (Image, error) {
	if img, ok := s[path]; ok {
		return img, nil
	}
	return Image{}, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
}

func stubImage(name string, w, h int) Image {
	return Image{Name: name, PNG: []byte("png:" + name), Width: w, Height: h}
}

func baseCase(c domain.ReasonCategory) domain.DisputeCase {
	return domain.DisputeCase{
		PaymentID:       "pay_123",
		Reference:       "1042",
		Amount:          domain.NumericAmount(decimal.RequireFromString("129.5")),
		Currency:        "USD",
		TransactionDate: "2024-03-01",
		Category:        c,
	}
}

func blockTexts(s Section, kind BlockKind) []string {
	var out []string
	for _, b := range s.Blocks {
		if b.Kind == kind {
			out = append(out, b.Text)
		}
	}
	return out
}

func TestRender_FraudMissingIdentityUsesPlaceholder(t *testing.T) {
	c := baseCase(domain.CategoryFraud)
	c.RawReason = "unrecognized_transaction"

	doc, err := New(stubLoader{}).Render(c, domain.EvidenceBundle{}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"1. ORDER DETAILS",
		"2. PAYMENT VERIFICATION",
		"3. IDENTITY VERIFICATION",
		"4. SHIPPING VERIFICATION",
		"5. CUSTOMER INTERACTION HISTORY",
	}, doc.Headings())
	assert.Equal(t, fraudSubtitle, doc.Subtitle)
	assert.Equal(t, domain.Field{Label: "Dispute Reason:", Value: "Unrecognized Transaction"}, doc.Facts[3])

	identity, ok := doc.Section("3. IDENTITY VERIFICATION")
	require.True(t, ok)
	assert.Equal(t, []string{identityDefault}, blockTexts(identity, BlockParagraph))
	assert.Equal(t, []string{"[ INSERT: Identity Verification Screenshot ]"}, blockTexts(identity, BlockPlaceholder))

	order, _ := doc.Section("1. ORDER DETAILS")
	assert.Equal(t, []string{"Order 1042 placed on 2024-03-01 totaling $129.50 USD."}, blockTexts(order, BlockParagraph))
	assert.Nil(t, doc.Closing)
}

func TestRender_FraudConditionalSections(t *testing.T) {
	c := baseCase(domain.CategoryFraud)
	c.KYC = domain.KYCImages{IDCard: "https://cdn/id.jpg", Selfie: "https://cdn/selfie.jpg", Card: "https://cdn/card.jpg"}
	c.ClosingStatement = "The cardholder authorized this purchase."
	c.OpeningStatement = "All evidence points to a legitimate order."

	var b domain.EvidenceBundle
	b.Attach(domain.SlotKYCProof, domain.ArtifactRef(domain.ArtifactKYCIDCard, "/kyc/id.png"))
	b.Attach(domain.SlotKYCProof, domain.ArtifactRef(domain.ArtifactKYCSelfie, "/kyc/broken.png"))
	b.Attach(domain.SlotKYCProof, domain.ArtifactRef(domain.ArtifactKYCCard, ""))
	b.Attach(domain.SlotPublicRecords, domain.Narrative("Public records confirm the cardholder."))
	b.Attach(domain.SlotPublicRecords, domain.Fields(
		domain.Field{Label: domain.FieldPhoneNumber, Value: "+15551234567"},
		domain.Field{Label: "Name:", Value: "Ana Diaz"},
	))
	b.Mark(domain.SlotLocationProof)
	b.Attach(domain.SlotLocationProof, domain.Narrative("The transaction IP address is located approximately 7.4 miles from the billing address."))
	b.Attach(domain.SlotLocationProof, domain.ArtifactRef(domain.ArtifactLocationMap, "/map.png"))
	b.Attach(domain.SlotShippingProof, domain.Fields(domain.Field{Label: domain.FieldTrackingLink, Value: "https://www.ups.com/track?tracknum=1Z999"}))

	loader := stubLoader{
		"/kyc/id.png": stubImage("id", 600, 400),
		"/map.png":    stubImage("map", 800, 500),
	}
	geo := &domain.GeoAnalysis{Summary: "IP to Billing: 7.4 miles"}

	doc, err := New(loader).Render(c, b, geo)
	require.NoError(t, err)

	assert.Equal(t, fraudKYCSubtitle, doc.Subtitle)
	assert.Equal(t, []Block{{Kind: BlockParagraph, Text: "SUMMARY: All evidence points to a legitimate order."}}, doc.Opening)
	assert.Equal(t, []string{
		"1. ORDER DETAILS",
		"2. PAYMENT VERIFICATION",
		"3. IDENTITY VERIFICATION",
		"4. KYC VERIFICATION",
		"5. PUBLIC RECORDS VERIFICATION",
		"6. SHIPPING VERIFICATION",
		"7. IP LOCATION VERIFICATION",
		"8. CUSTOMER INTERACTION HISTORY",
		"CONCLUSION",
	}, doc.Headings())

	kyc, _ := doc.Section("4. KYC VERIFICATION")
	assert.Equal(t, []string{kycDefault}, blockTexts(kyc, BlockParagraph))
	require.Len(t, kyc.Blocks, 2)
	grid := kyc.Blocks[1].Grid
	require.Len(t, grid, 2, "failed downloads are left out of the grid")
	colWidth := ContentWidth / 2
	assert.Equal(t, "Government-Issued ID", grid[0].Caption)
	require.NotNil(t, grid[0].Image)
	assert.LessOrEqual(t, grid[0].Image.Width, colWidth-kycColumnPadding+1e-9)
	assert.InDelta(t, kycImageMaxHeight, grid[0].Image.Height, 1e-9)
	assert.Nil(t, grid[1].Image)
	assert.Equal(t, "[Live Selfie Verification]", grid[1].Fallback)

	records, _ := doc.Section("5. PUBLIC RECORDS VERIFICATION")
	assert.Equal(t, []string{
		"Public records confirm the cardholder.",
		"The following public records are associated with the phone number +15551234567, which was provided by the customer when placing this order:",
	}, blockTexts(records, BlockParagraph))
	assert.Empty(t, blockTexts(records, BlockPlaceholder))

	shipping, _ := doc.Section("6. SHIPPING VERIFICATION")
	assert.Equal(t, []string{"Tracking link: https://www.ups.com/track?tracknum=1Z999"}, blockTexts(shipping, BlockLink))

	location, _ := doc.Section("7. IP LOCATION VERIFICATION")
	assert.Equal(t, []string{"IP Location vs Billing/Shipping Address", "IP to Billing: 7.4 miles"}, blockTexts(location, BlockCaption))

	require.NotNil(t, doc.Closing)
	assert.Equal(t, []string{"The cardholder authorized this purchase."}, blockTexts(*doc.Closing, BlockEmphasis))
}

func TestRender_FraudKYCNarrativeWithoutImages(t *testing.T) {
	var b domain.EvidenceBundle
	b.Attach(domain.SlotKYCProof, domain.NarrativeWithHint("Customer passed document checks.", "ID Scan"))

	doc, err := New(stubLoader{}).Render(baseCase(domain.CategoryFraud), b, nil)
	require.NoError(t, err)

	kyc, ok := doc.Section("4. KYC VERIFICATION")
	require.True(t, ok)
	assert.Equal(t, []string{"[ INSERT: ID Scan ]"}, blockTexts(kyc, BlockPlaceholder))
	assert.Equal(t, fraudSubtitle, doc.Subtitle)
}

func TestRender_FraudAVSFollowsCardDetails(t *testing.T) {
	var b domain.EvidenceBundle
	b.Attach(domain.SlotPaymentProof, domain.Narrative("AVS Y full match on street and ZIP."))
	b.Attach(domain.SlotPaymentProof, domain.ArtifactRef(domain.ArtifactCardDetails, "/card.png"))
	b.Attach(domain.SlotPaymentProof, domain.ArtifactRef(domain.ArtifactAVSDetails, "/missing-avs.png"))

	doc, err := New(stubLoader{"/card.png": stubImage("card", 400, 250)}).Render(baseCase(domain.CategoryFraud), b, nil)
	require.NoError(t, err)

	payment, _ := doc.Section("2. PAYMENT VERIFICATION")
	kinds := make([]BlockKind, 0, len(payment.Blocks))
	for _, blk := range payment.Blocks {
		kinds = append(kinds, blk.Kind)
	}
	assert.Equal(t, []BlockKind{BlockParagraph, BlockImage, BlockCaption, BlockParagraph, BlockPlaceholder}, kinds)
	assert.Equal(t, []string{paymentIntro, "AVS Y full match on street and ZIP."}, blockTexts(payment, BlockParagraph))
	assert.Equal(t, []string{"[ INSERT: AVS Verification Screenshot ]"}, blockTexts(payment, BlockPlaceholder))
}

func TestRender_ProductNotReceivedSkeleton(t *testing.T) {
	c := baseCase(domain.CategoryProductNotReceived)
	c.RawReason = "PRODUCT_NOT_RECEIVED"
	c.Carrier = "UPS"

	doc, err := New(stubLoader{}).Render(c, domain.EvidenceBundle{}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"1. Order", "2. Card Details", "3. Shipping proof", "Summary"}, doc.Headings())
	assert.Equal(t, pnrSubtitle, doc.Subtitle)
	assert.Equal(t, "PRODUCT_NOT_RECEIVED", doc.Facts[3].Value)
	assert.Equal(t, []Block{
		{Kind: BlockParagraph, Text: dearIssuer},
		{Kind: BlockParagraph, Text: "We respectfully decline chargeback 1042 with reason code PRODUCT_NOT_RECEIVED. The order was successfully delivered to the cardholder and delivery was confirmed by UPS. This chargeback is therefore invalid."},
	}, doc.Opening)

	summary, _ := doc.Section("Summary")
	assert.Equal(t, []string{pnrClosing}, blockTexts(summary, BlockEmphasis))
	for _, h := range doc.Headings() {
		assert.NotContains(t, h, "Policy")
	}
	assert.Equal(t, "chargeback_pnr_1042.pdf", doc.FileName)
}

func TestRender_ProductNotAcceptableWithPolicy(t *testing.T) {
	c := baseCase(domain.CategoryProductNotAcceptable)
	c.CustomerGender = "Female"
	p := policy.DefaultTable().Lookup("e420")

	var b domain.EvidenceBundle
	b.Attach(domain.SlotReturnPolicy, domain.Narrative(p.Text))
	b.Attach(domain.SlotReturnPolicy, domain.Fields(domain.Field{Label: domain.FieldPolicyURL, Value: p.URL}))
	b.Attach(domain.SlotReturnPolicy, domain.ArtifactRef(domain.ArtifactReturnPolicy, "/policies/e420.png"))

	doc, err := New(stubLoader{"/policies/e420.png": stubImage("policy", 1200, 1600)}).Render(c, b, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"1. Order details", "2. Card Details", "3. Shipping proof", "4. Merchant's Return/Exchange Policy", "Summary",
	}, doc.Headings())
	assert.Equal(t, "Product Unacceptable", doc.Facts[3].Value)
	require.Len(t, doc.Opening, 6)
	assert.Contains(t, doc.Opening[1].Text, "good condition and she never claimed")
	assert.Equal(t, Block{Kind: BlockBullet, Text: "∙ Merchant's Returns & Exchanges Policy"}, doc.Opening[5])

	pol, _ := doc.Section("4. Merchant's Return/Exchange Policy")
	assert.Equal(t, []string{p.URL}, blockTexts(pol, BlockLink))
	require.Equal(t, BlockImage, pol.Blocks[len(pol.Blocks)-1].Kind)
	img := pol.Blocks[len(pol.Blocks)-1].Image
	assert.InDelta(t, policyImageMaxHeight, img.Height, 1e-9)
	assert.InDelta(t, 216.0, img.Width, 1e-9)

	shipping, _ := doc.Section("3. Shipping proof")
	assert.Empty(t, blockTexts(shipping, BlockLink))
}

func TestRender_ProductNotAcceptableOpeningBullets(t *testing.T) {
	c := baseCase(domain.CategoryProductNotAcceptable)
	c.OpeningStatement = "Dear Issuer,\n\nWe decline this chargeback.\n∙ Order details\n  ∙ Shipping proof  "

	doc, err := New(stubLoader{}).Render(c, domain.EvidenceBundle{}, nil)
	require.NoError(t, err)

	assert.Equal(t, []Block{
		{Kind: BlockParagraph, Text: "Dear Issuer,"},
		{Kind: BlockParagraph, Text: "We decline this chargeback."},
		{Kind: BlockBullet, Text: "∙ Order details"},
		{Kind: BlockBullet, Text: "∙ Shipping proof"},
	}, doc.Opening)

	pol, _ := doc.Section("4. Merchant's Return/Exchange Policy")
	assert.Equal(t, []string{"[ INSERT: Return Policy Screenshot ]"}, blockTexts(pol, BlockPlaceholder))
	assert.Equal(t, policy.DefaultTable().Lookup("unknown_tenant_xyz").Text, blockTexts(pol, BlockParagraph)[0])
	assert.Empty(t, blockTexts(pol, BlockLink))
}

func TestRender_PolicyExtractWithoutScreenshot(t *testing.T) {
	p := policy.DefaultTable().Lookup("e420")
	var b domain.EvidenceBundle
	b.Attach(domain.SlotReturnPolicy, domain.Narrative(p.Text))
	b.Attach(domain.SlotReturnPolicy, domain.Fields(domain.Field{Label: domain.FieldPolicyQuote, Value: p.Extract}))
	b.Attach(domain.SlotReturnPolicy, domain.ArtifactRef(domain.ArtifactReturnPolicy, "/policies/missing.png"))

	doc, err := New(stubLoader{}).Render(baseCase(domain.CategoryProductNotAcceptable), b, nil)
	require.NoError(t, err)

	pol, ok := doc.Section("4. Merchant's Return/Exchange Policy")
	require.True(t, ok)
	assert.Empty(t, blockTexts(pol, BlockPlaceholder))
	assert.Equal(t, []string{p.Extract}, blockTexts(pol, BlockEmphasis))
	paragraphs := blockTexts(pol, BlockParagraph)
	assert.Equal(t, "Here is an extract from merchant's refund policy:", paragraphs[len(paragraphs)-1])
}

func TestRender_CreditNotProcessed(t *testing.T) {
	c := baseCase(domain.CategoryCreditNotProcessed)
	c.RawReason = "refund_not_processed"

	var b domain.EvidenceBundle
	b.Attach(domain.SlotPaymentProof, domain.Fields(
		domain.Field{Label: "Card Brand:", Value: "Visa"},
		domain.Field{Label: "Card Number:", Value: "•••• •••• •••• 4242"},
	))

	doc, err := New(stubLoader{}).Render(c, b, nil)
	require.NoError(t, err)

	assert.Equal(t, cnpSubtitle, doc.Subtitle)
	assert.Equal(t, "Refund Not Processed", doc.Facts[3].Value)
	assert.Equal(t, "∙ Payment verification", doc.Opening[3].Text)

	payment, ok := doc.Section("2. Payment Verification")
	require.True(t, ok)
	assert.Equal(t, []string{cnpPaymentText}, blockTexts(payment, BlockParagraph))
	require.Equal(t, BlockTable, payment.Blocks[1].Kind)
	assert.Len(t, payment.Blocks[1].Rows, 2)
	assert.NotContains(t, doc.Placeholders(), "[ INSERT: Payment Verification Screenshot ]")

	noCard, err := New(stubLoader{}).Render(c, domain.EvidenceBundle{}, nil)
	require.NoError(t, err)
	assert.Contains(t, noCard.Placeholders(), "[ INSERT: Payment Verification Screenshot ]")
}

func TestRender_NonNumericAmountPassesThrough(t *testing.T) {
	c := baseCase(domain.CategoryProductNotReceived)
	c.Amount = domain.RawAmount("N/A")
	c.Currency = ""

	doc, err := New(stubLoader{}).Render(c, domain.EvidenceBundle{}, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.Field{Label: "Amount:", Value: "$N/A USD"}, doc.Facts[1])
	order, _ := doc.Section("1. Order")
	assert.Equal(t, "Order 1042 placed on 2024-03-01 totaling $N/A USD.", blockTexts(order, BlockParagraph)[0])
}

func TestRender_ReferenceResolution(t *testing.T) {
	c := baseCase(domain.CategoryFraud)
	c.Reference = ""
	doc, err := New(stubLoader{}).Render(c, domain.EvidenceBundle{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "pay_123", doc.Facts[0].Value)

	c.PaymentID = "  "
	_, err = New(stubLoader{}).Render(c, domain.EvidenceBundle{}, nil)
	assert.True(t, errors.Is(err, ErrMissingReference))
}

func TestRender_Idempotent(t *testing.T) {
	c := baseCase(domain.CategoryFraud)
	c.KYC = domain.KYCImages{Selfie: "https://cdn/selfie.jpg"}
	var b domain.EvidenceBundle
	b.Attach(domain.SlotOrderDetails, domain.Narrative("Order placed from the storefront."))
	b.Attach(domain.SlotOrderDetails, domain.ArtifactRef(domain.ArtifactOrderScreenshot, "/order.png"))
	b.Attach(domain.SlotKYCProof, domain.ArtifactRef(domain.ArtifactKYCSelfie, "/selfie.png"))

	r := New(stubLoader{"/order.png": stubImage("order", 1400, 900), "/selfie.png": stubImage("selfie", 300, 300)})
	first, err := r.Render(c, b, nil)
	require.NoError(t, err)
	second, err := r.Render(c, b, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRender_Footer(t *testing.T) {
	doc, err := New(stubLoader{}, WithBrand("", "/missing-logo.png")).Render(baseCase(domain.CategoryFraud), domain.EvidenceBundle{}, nil)
	require.NoError(t, err)
	assert.Nil(t, doc.Footer.Logo)
	assert.Equal(t, "Powered by FUGU", doc.Footer.Fallback)

	logo := stubImage("logo", 120, 40)
	doc, err = New(stubLoader{"/logo.png": logo}, WithBrand("Acme", "/logo.png")).Render(baseCase(domain.CategoryFraud), domain.EvidenceBundle{}, nil)
	require.NoError(t, err)
	require.NotNil(t, doc.Footer.Logo)
	assert.Equal(t, logo, *doc.Footer.Logo)
	assert.Equal(t, "Powered by Acme", doc.Footer.Fallback)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "chargeback_fraud_1042.pdf", FileName(domain.CategoryFraud, "#1042"))
	assert.Equal(t, "chargeback_cnp_A_B_C.pdf", FileName(domain.CategoryCreditNotProcessed, "A/B C"))
	assert.Equal(t, "chargeback_pna_unknown.pdf", FileName(domain.CategoryProductNotAcceptable, "../"))
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Unrecognized Transaction", titleCase("unrecognized_transaction"))
	assert.Equal(t, "Not As Described", titleCase("NOT_AS_DESCRIBED"))
	assert.Equal(t, "13.1", titleCase("13.1"))
}

func TestSectionBuilderStates(t *testing.T) {
	s := newSection("1. Order")
	assert.Equal(t, StatePending, s.state)
	assert.Panics(t, func() { s.placeholder("INSERT: too early") })

	s.paragraph("text")
	assert.Equal(t, StateText, s.state)
	s.placeholder("INSERT: Order Details Screenshot")
	assert.Equal(t, StateMedia, s.state)
	s.link("Tracking link: https://example.com")
	assert.Equal(t, StateText, s.state)

	sec := s.close()
	assert.Len(t, sec.Blocks, 3)
	assert.Panics(t, func() { s.paragraph("late") })
}

func TestFit(t *testing.T) {
	w, h := Fit(1000, 500, ContentWidth, mainImageMaxHeight)
	assert.InDelta(t, 468.0, w, 1e-9)
	assert.InDelta(t, 234.0, h, 1e-9)

	w, h = Fit(100, 50, ContentWidth, mainImageMaxHeight)
	assert.Equal(t, 100.0, w)
	assert.Equal(t, 50.0, h)

	w, h = Fit(0, 10, ContentWidth, mainImageMaxHeight)
	assert.Zero(t, w)
	assert.Zero(t, h)
}

func writeTestImages(t *testing.T) (pngPath, jpegPath string) {
	t.Helper()
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for x := 0; x < 4; x++ {
		for y := 0; y < 2; y++ {
			img.Set(x, y, color.RGBA{R: uint8(60 * x), G: 120, B: 200, A: 255})
		}
	}

	pngPath = filepath.Join(dir, "order.png")
	var pb bytes.Buffer
	require.NoError(t, png.Encode(&pb, img))
	require.NoError(t, os.WriteFile(pngPath, pb.Bytes(), 0o644))

	jpegPath = filepath.Join(dir, "card.jpg")
	var jb bytes.Buffer
	require.NoError(t, jpeg.Encode(&jb, img, nil))
	require.NoError(t, os.WriteFile(jpegPath, jb.Bytes(), 0o644))
	return pngPath, jpegPath
}

func TestFileLoader(t *testing.T) {
	pngPath, jpegPath := writeTestImages(t)

	img, err := FileLoader{}.Load(pngPath)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Width)
	assert.Equal(t, 2, img.Height)

	img, err = FileLoader{}.Load(jpegPath)
	require.NoError(t, err)
	_, format, err := image.DecodeConfig(bytes.NewReader(img.PNG))
	require.NoError(t, err)
	assert.Equal(t, "png", format)

	corrupt := filepath.Join(t.TempDir(), "broken.png")
	require.NoError(t, os.WriteFile(corrupt, []byte("not an image"), 0o644))
	_, err = FileLoader{}.Load(corrupt)
	assert.Error(t, err)

	_, err = FileLoader{}.Load("")
	assert.ErrorIs(t, err, ErrEmptyPath)
}

func TestRender_CorruptArtifactOnDiskDegrades(t *testing.T) {
	corrupt := filepath.Join(t.TempDir(), "order.png")
	require.NoError(t, os.WriteFile(corrupt, []byte("garbage"), 0o644))

	var b domain.EvidenceBundle
	b.Attach(domain.SlotOrderDetails, domain.ArtifactRef(domain.ArtifactOrderScreenshot, corrupt))

	doc, err := New(nil).Render(baseCase(domain.CategoryProductNotReceived), b, nil)
	require.NoError(t, err)
	assert.Contains(t, doc.Placeholders(), "[ INSERT: Order Details Screenshot ]")
}

func TestWritePDF(t *testing.T) {
	pngPath, jpegPath := writeTestImages(t)
	var b domain.EvidenceBundle
	b.Attach(domain.SlotOrderDetails, domain.ArtifactRef(domain.ArtifactOrderScreenshot, pngPath))
	b.Attach(domain.SlotPaymentProof, domain.ArtifactRef(domain.ArtifactCardDetails, jpegPath))
	b.Attach(domain.SlotPublicRecords, domain.Fields(domain.Field{Label: domain.FieldPhoneNumber, Value: "+15551234567"}))

	c := baseCase(domain.CategoryFraud)
	c.ClosingStatement = "Conclusion text."
	doc, err := New(nil, WithBrand("FUGU", pngPath)).Render(c, b, nil)
	require.NoError(t, err)

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var first, second bytes.Buffer
	require.NoError(t, WritePDFAt(&first, doc, at))
	require.NoError(t, WritePDFAt(&second, doc, at))

	assert.True(t, bytes.HasPrefix(first.Bytes(), []byte("%PDF-")))
	assert.Equal(t, first.Bytes(), second.Bytes())
}

// interlacedPNG builds a 1x1 Adam7 RGB image. The standard encoder never
// interlaces, so the chunks are assembled by hand.
func interlacedPNG(t *testing.T) []byte {
	t.Helper()
	var out bytes.Buffer
	out.WriteString("\x89PNG\r\n\x1a\n")
	chunk := func(kind string, data []byte) {
		var n [4]byte
		binary.BigEndian.PutUint32(n[:], uint32(len(data)))
		out.Write(n[:])
		body := append([]byte(kind), data...)
		out.Write(body)
		binary.BigEndian.PutUint32(n[:], crc32.ChecksumIEEE(body))
		out.Write(n[:])
	}

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], 1)
	binary.BigEndian.PutUint32(ihdr[4:], 1)
	ihdr[8] = 8  // bit depth
	ihdr[9] = 2  // truecolor
	ihdr[12] = 1 // Adam7
	chunk("IHDR", ihdr)

	var idat bytes.Buffer
	zw := zlib.NewWriter(&idat)
	_, err := zw.Write([]byte{0, 200, 40, 40}) // only pass 1 holds a pixel
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	chunk("IDAT", idat.Bytes())
	chunk("IEND", nil)
	return out.Bytes()
}

func TestWritePDF_ReencodesPNGsTheWriterCannotEmbed(t *testing.T) {
	dir := t.TempDir()
	interlaced := filepath.Join(dir, "order.png")
	require.NoError(t, os.WriteFile(interlaced, interlacedPNG(t), 0o644))

	deep := image.NewNRGBA64(image.Rect(0, 0, 3, 3))
	for x := 0; x < 3; x++ {
		for y := 0; y < 3; y++ {
			deep.Set(x, y, color.NRGBA64{R: 0xffff, G: uint16(x * 0x3000), B: 0x1000, A: 0xffff})
		}
	}
	var db bytes.Buffer
	require.NoError(t, png.Encode(&db, deep))
	sixteenBit := filepath.Join(dir, "card.png")
	require.NoError(t, os.WriteFile(sixteenBit, db.Bytes(), 0o644))

	img, err := FileLoader{}.Load(interlaced)
	require.NoError(t, err)
	assert.Equal(t, 1, img.Width)
	require.Greater(t, len(img.PNG), 28)
	assert.Equal(t, byte(8), img.PNG[24], "bit depth")
	assert.Equal(t, byte(0), img.PNG[28], "interlace method")

	var b domain.EvidenceBundle
	b.Attach(domain.SlotOrderDetails, domain.ArtifactRef(domain.ArtifactOrderScreenshot, interlaced))
	b.Attach(domain.SlotPaymentProof, domain.ArtifactRef(domain.ArtifactCardDetails, sixteenBit))

	doc, err := New(nil).Render(baseCase(domain.CategoryProductNotReceived), b, nil)
	require.NoError(t, err)
	assert.NotContains(t, doc.Placeholders(), "[ INSERT: Order Details Screenshot ]")

	var buf bytes.Buffer
	require.NoError(t, WritePDFAt(&buf, doc, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}
