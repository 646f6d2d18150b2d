// Package render turns a dispute case and its evidence bundle into a
// category-specific response document and serializes it as PDF.
package render

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/vanshika/chargeback/backend/internal/domain"
)

// ErrMissingReference is returned when a case has neither a reference nor a payment id.
var ErrMissingReference = errors.New("dispute reference is required")

const (
	documentTitle   = "CHARGEBACK DISPUTE RESPONSE"
	defaultBrand    = "FUGU"
	footerLabel     = "Powered by"
	genericStubText = "Evidence documentation."
)

// Renderer builds documents. It is safe for concurrent use.
type Renderer struct {
	images   ImageLoader
	brand    string
	logoPath string
	logger   *slog.Logger
}

// Option customizes a Renderer.
type Option func(*Renderer)

// WithBrand sets the footer brand name and logo path.
func WithBrand(name, logoPath string) Option {
	return func(r *Renderer) {
		if name != "" {
			r.brand = name
		}
		r.logoPath = logoPath
	}
}

// WithLogger sets the logger used for degraded-artifact warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New constructs a Renderer. A nil loader reads images from disk.
func New(loader ImageLoader, opts ...Option) *Renderer {
	if loader == nil {
		loader = FileLoader{}
	}
	r := &Renderer{
		images: loader,
		brand:  defaultBrand,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render assembles the document for a case. Only an unresolvable reference is
// an error; every missing or broken artifact degrades to a placeholder.
func (r *Renderer) Render(c domain.DisputeCase, b domain.EvidenceBundle, g *domain.GeoAnalysis) (Document, error) {
	ref := strings.TrimSpace(c.Reference)
	if ref == "" {
		ref = strings.TrimSpace(c.PaymentID)
	}
	if ref == "" {
		return Document{}, ErrMissingReference
	}
	c.Reference = ref

	category := c.Category
	if !category.Valid() {
		category = domain.CategoryFraud
	}

	rc := &renderContext{Renderer: r, c: c, b: b, geo: g}
	doc := Document{
		FileName: FileName(category, ref),
		Category: category,
		Title:    documentTitle,
		Footer:   r.footer(),
	}

	switch category {
	case domain.CategoryProductNotReceived:
		rc.productNotReceived(&doc)
	case domain.CategoryProductNotAcceptable:
		rc.productNotAcceptable(&doc)
	case domain.CategoryCreditNotProcessed:
		rc.creditNotProcessed(&doc)
	default:
		rc.fraud(&doc)
	}
	return doc, nil
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName is the output name for a case document, with the reference made safe
// for the file system.
func FileName(c domain.ReasonCategory, reference string) string {
	ref := strings.ReplaceAll(strings.TrimSpace(reference), "#", "")
	ref = unsafeFileChars.ReplaceAllString(ref, "_")
	ref = strings.Trim(ref, "._")
	if ref == "" {
		ref = "unknown"
	}
	return fmt.Sprintf("chargeback_%s_%s.pdf", c, ref)
}

func (r *Renderer) footer() Footer {
	f := Footer{Label: footerLabel, Fallback: footerLabel + " " + r.brand}
	if r.logoPath == "" {
		return f
	}
	img, err := r.images.Load(r.logoPath)
	if err != nil {
		r.logger.Warn("footer logo unavailable, using text footer", "path", r.logoPath, "error", err)
		return f
	}
	f.Logo = &img
	return f
}

// renderContext carries one render call's inputs.
type renderContext struct {
	*Renderer
	c   domain.DisputeCase
	b   domain.EvidenceBundle
	geo *domain.GeoAnalysis
}

func (rc *renderContext) facts(reason string) []domain.Field {
	return []domain.Field{
		{Label: "Reference:", Value: rc.c.Reference},
		{Label: "Amount:", Value: rc.amount()},
		{Label: "Transaction Date:", Value: rc.transactionDate()},
		{Label: "Dispute Reason:", Value: reason},
	}
}

func (rc *renderContext) amount() string {
	return rc.c.Amount.Display() + " " + rc.c.CurrencyOrDefault()
}

func (rc *renderContext) transactionDate() string {
	if rc.c.TransactionDate != "" {
		return rc.c.TransactionDate
	}
	if rc.c.TransactedAt != nil {
		return rc.c.TransactedAt.Format("2006-01-02")
	}
	return ""
}

// orderDefault is the canned order sentence shared by fraud and delivery documents.
func (rc *renderContext) orderDefault() string {
	return fmt.Sprintf("Order %s placed on %s totaling %s.", rc.c.Reference, rc.transactionDate(), rc.amount())
}

func (rc *renderContext) text(slot domain.SlotName, fallback string) string {
	if t := strings.TrimSpace(rc.b.Text(slot)); t != "" {
		return t
	}
	return fallback
}

// artifactOrPlaceholder embeds the slot's artifact, or a labeled placeholder when
// it is missing or cannot be decoded. It reports whether the image was embedded.
func (rc *renderContext) artifactOrPlaceholder(s *sectionBuilder, slot domain.SlotName, kind domain.ArtifactKind, maxH float64, label, caption string) bool {
	art, _ := rc.b.Artifact(slot, kind)
	if img, ok := rc.load(slot, art); ok {
		s.add(Block{Kind: BlockImage, Image: place(img, ContentWidth, maxH)})
		if caption != "" {
			s.add(Block{Kind: BlockCaption, Text: caption})
		}
		return true
	}
	s.placeholder(label)
	return false
}

func (rc *renderContext) load(slot domain.SlotName, art domain.Artifact) (Image, bool) {
	if art.Path == "" {
		return Image{}, false
	}
	img, err := rc.images.Load(art.Path)
	if err != nil {
		rc.logger.Warn("evidence artifact unavailable, using placeholder",
			"slot", slot, "artifact", art.Kind, "path", art.Path, "reason", err.Error())
		return Image{}, false
	}
	return img, true
}

// cardEvidence shows the card screenshot, the card table when only gateway
// fields are known, or the placeholder.
func (rc *renderContext) cardEvidence(s *sectionBuilder, label string) {
	art, _ := rc.b.Artifact(domain.SlotPaymentProof, domain.ArtifactCardDetails)
	if img, ok := rc.load(domain.SlotPaymentProof, art); ok {
		s.add(Block{Kind: BlockImage, Image: place(img, ContentWidth, mainImageMaxHeight)})
		s.add(Block{Kind: BlockCaption, Text: "Payment Gateway Card Details"})
		return
	}
	if rows := rc.b.Fields(domain.SlotPaymentProof); len(rows) > 0 {
		s.table(rows)
		return
	}
	s.placeholder(label)
}

func (rc *renderContext) trackingLink(s *sectionBuilder) {
	if url, ok := rc.b.Field(domain.SlotShippingProof, domain.FieldTrackingLink); ok && url != "" {
		s.link("Tracking link: " + url)
	}
}

// openingLines splits a statement into paragraphs; with bullets set, lines
// starting with the bullet glyph become bullet blocks.
func openingLines(statement string, bullets bool) []Block {
	var out []Block
	for _, line := range strings.Split(statement, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		kind := BlockParagraph
		if bullets && strings.HasPrefix(line, bulletGlyph) {
			kind = BlockBullet
		}
		out = append(out, Block{Kind: kind, Text: line})
	}
	return out
}

const bulletGlyph = "∙"

// titleCase upper-cases the first letter of every word and lower-cases the rest,
// treating underscores as spaces.
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	var sb strings.Builder
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				sb.WriteRune(unicode.ToLower(r))
			} else {
				sb.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		prevLetter = false
		sb.WriteRune(r)
	}
	return sb.String()
}

func pronoun(gender string) string {
	switch strings.ToLower(strings.TrimSpace(gender)) {
	case "female":
		return "she"
	case "male":
		return "he"
	}
	return "they"
}
