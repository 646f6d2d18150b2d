package render

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/vanshika/chargeback/backend/internal/domain"
)

type rgb struct{ r, g, b int }

var (
	colorTitle       = rgb{0x1a, 0x36, 0x5d}
	colorMuted       = rgb{0x4a, 0x55, 0x68}
	colorHeader      = rgb{0x2c, 0x52, 0x82}
	colorBody        = rgb{0x2d, 0x37, 0x48}
	colorLink        = rgb{0x2b, 0x6c, 0xb0}
	colorValue       = rgb{0x1a, 0x20, 0x2c}
	colorPanel       = rgb{0xf7, 0xfa, 0xfc}
	colorRule        = rgb{0xe2, 0xe8, 0xf0}
	colorPlaceholder = rgb{0x71, 0x80, 0x96}
	colorBox         = rgb{0xcb, 0xd5, 0xe0}
	colorFooter      = rgb{0x28, 0x73, 0xc2}
)

const (
	bodyLeading   = 14.0
	footerOffset  = 0.4 * inch
	footerLogoH   = 20.0
	factLabelW    = 1.4 * inch
	recordLabelW  = 1.8 * inch
	tableRowH     = 20.0
	tableLineH    = 11.0
	kycGridHeight = 2 * inch
)

// WritePDF serializes the document as PDF.
func WritePDF(w io.Writer, d Document) error {
	return WritePDFAt(w, d, time.Now())
}

// WritePDFAt serializes the document with a fixed creation time, so the same
// document always produces the same bytes.
func WritePDFAt(w io.Writer, d Document, created time.Time) error {
	pw := newPDFWriter(d, created)
	pw.document(d)
	if err := pw.pdf.Error(); err != nil {
		return fmt.Errorf("layout pdf: %w", err)
	}
	if err := pw.pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

type pdfWriter struct {
	pdf        *fpdf.Fpdf
	tr         func(string) string
	registered map[string]bool
}

func newPDFWriter(d Document, created time.Time) *pdfWriter {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(Margin, Margin, Margin)
	pdf.SetAutoPageBreak(true, Margin)
	pdf.SetCreationDate(created)
	pdf.SetModificationDate(created)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(d.Title, true)
	pdf.SetSubject(d.FileName, true)

	pw := &pdfWriter{
		pdf:        pdf,
		tr:         pdf.UnicodeTranslatorFromDescriptor(""),
		registered: make(map[string]bool),
	}
	pdf.SetFooterFunc(func() { pw.footer(d.Footer) })
	return pw
}

// text converts to the core-font code page. The narrow bullet has no cp1252
// code point, so it is drawn as the regular bullet.
func (pw *pdfWriter) text(s string) string {
	return pw.tr(strings.ReplaceAll(s, bulletGlyph, "•"))
}

func (pw *pdfWriter) color(c rgb) {
	pw.pdf.SetTextColor(c.r, c.g, c.b)
}

func (pw *pdfWriter) document(d Document) {
	pdf := pw.pdf
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pw.color(colorTitle)
	pdf.CellFormat(0, 24, pw.text(d.Title), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pw.color(colorMuted)
	pdf.CellFormat(0, 14, pw.text(d.Subtitle), "", 1, "C", false, 0, "")
	pdf.Ln(12)
	pw.rule(colorHeader, 2)
	pdf.Ln(15)

	pw.table(d.Facts, factLabelW)
	pdf.Ln(20)

	for _, b := range d.Opening {
		pw.block(b)
	}
	if len(d.Opening) > 0 {
		pdf.Ln(15)
	}

	for _, s := range d.Sections {
		pw.section(s)
	}
	if d.Closing != nil {
		pdf.Ln(10)
		pw.rule(colorRule, 1)
		pdf.Ln(10)
		pw.section(*d.Closing)
	}
}

func (pw *pdfWriter) section(s Section) {
	pdf := pw.pdf
	pdf.Ln(14)
	pdf.SetFont("Helvetica", "B", 11)
	pw.color(colorHeader)
	pdf.MultiCell(0, 16, pw.text(s.Heading), "", "L", false)
	pdf.Ln(6)
	for _, b := range s.Blocks {
		pw.block(b)
	}
	pdf.Ln(10)
}

func (pw *pdfWriter) block(b Block) {
	pdf := pw.pdf
	switch b.Kind {
	case BlockParagraph:
		pdf.SetFont("Helvetica", "", 10)
		pw.color(colorBody)
		pdf.MultiCell(0, bodyLeading, pw.text(b.Text), "", "L", false)
		pdf.Ln(4)
	case BlockBullet:
		pdf.SetFont("Helvetica", "", 10)
		pw.color(colorBody)
		pdf.SetX(Margin + 10)
		pdf.MultiCell(ContentWidth-10, bodyLeading, pw.text(b.Text), "", "L", false)
	case BlockLink:
		pdf.SetFont("Helvetica", "U", 9)
		pw.color(colorLink)
		pdf.MultiCell(0, 12, pw.text(b.Text), "", "L", false)
		pdf.Ln(8)
	case BlockEmphasis:
		pdf.SetFont("Helvetica", "B", 10)
		pw.color(colorTitle)
		pdf.MultiCell(0, bodyLeading, pw.text(b.Text), "", "L", false)
	case BlockTable:
		pw.table(b.Rows, recordLabelW)
		pdf.Ln(6)
	case BlockImage:
		pw.image(b.Image)
	case BlockImageGrid:
		pw.grid(b.Grid)
	case BlockPlaceholder:
		pw.placeholder(b.Text)
	case BlockCaption:
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "I", 8)
		pw.color(colorMuted)
		pdf.MultiCell(0, 10, pw.text(b.Text), "", "C", false)
		pdf.Ln(4)
	}
}

func (pw *pdfWriter) rule(c rgb, width float64) {
	pdf := pw.pdf
	pdf.SetDrawColor(c.r, c.g, c.b)
	pdf.SetLineWidth(width)
	y := pdf.GetY()
	pdf.Line(Margin, y, PageWidth-Margin, y)
}

// ensure starts a new page when h points no longer fit above the bottom margin.
func (pw *pdfWriter) ensure(h float64) {
	if pw.pdf.GetY()+h > PageHeight-Margin {
		pw.pdf.AddPage()
	}
}

func (pw *pdfWriter) table(rows []domain.Field, labelW float64) {
	if len(rows) == 0 {
		return
	}
	pdf := pw.pdf
	valueW := ContentWidth - labelW
	pdf.SetFillColor(colorPanel.r, colorPanel.g, colorPanel.b)
	pdf.SetDrawColor(colorRule.r, colorRule.g, colorRule.b)
	pdf.SetLineWidth(0.5)
	for _, row := range rows {
		pdf.SetFont("Helvetica", "", 9)
		value := pw.text(row.Value)
		lines := pdf.SplitText(value, valueW-8)
		if len(lines) == 0 {
			lines = []string{""}
		}
		h := math.Max(tableRowH, float64(len(lines))*tableLineH+9)
		pw.ensure(h)

		x, y := Margin, pdf.GetY()
		pdf.Rect(x, y, labelW, h, "FD")
		pdf.Rect(x+labelW, y, valueW, h, "FD")

		pdf.SetFont("Helvetica", "B", 9)
		pw.color(colorMuted)
		pdf.SetXY(x, y)
		pdf.CellFormat(labelW-4, h, pw.text(row.Label), "", 0, "R", false, 0, "")

		pdf.SetFont("Helvetica", "", 9)
		pw.color(colorValue)
		pdf.SetXY(x+labelW+4, y+(h-float64(len(lines))*tableLineH)/2)
		pdf.MultiCell(valueW-8, tableLineH, strings.Join(lines, "\n"), "", "L", false)
		pdf.SetXY(x, y+h)
	}
}

func (pw *pdfWriter) register(img Image) string {
	name := img.Name
	if name == "" {
		name = fmt.Sprintf("img-%d", len(pw.registered))
	}
	if !pw.registered[name] {
		pw.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(img.PNG))
		pw.registered[name] = true
	}
	return name
}

func (pw *pdfWriter) image(p *Placed) {
	if p == nil {
		return
	}
	pw.ensure(p.Height)
	name := pw.register(p.Image)
	x := Margin + (ContentWidth-p.Width)/2
	pw.pdf.ImageOptions(name, x, pw.pdf.GetY(), p.Width, p.Height, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	pw.pdf.SetY(pw.pdf.GetY() + p.Height)
}

func (pw *pdfWriter) placeholder(label string) {
	pdf := pw.pdf
	pw.ensure(placeholderHeight)
	pdf.SetFillColor(colorPanel.r, colorPanel.g, colorPanel.b)
	pdf.SetDrawColor(colorBox.r, colorBox.g, colorBox.b)
	pdf.SetLineWidth(2)
	pdf.SetFont("Helvetica", "I", 10)
	pw.color(colorPlaceholder)
	pdf.CellFormat(ContentWidth, placeholderHeight, pw.text(label), "1", 1, "C", true, 0, "")
}

func (pw *pdfWriter) grid(cells []GridCell) {
	if len(cells) == 0 {
		return
	}
	pdf := pw.pdf
	pw.ensure(kycGridHeight + 16)
	top := pdf.GetY()
	pdf.SetFillColor(colorPanel.r, colorPanel.g, colorPanel.b)
	pdf.SetDrawColor(colorBox.r, colorBox.g, colorBox.b)
	pdf.SetLineWidth(1)

	x := Margin
	for _, c := range cells {
		pdf.Rect(x, top, c.Width, kycGridHeight, "FD")
		if c.Image != nil {
			name := pw.register(c.Image.Image)
			ix := x + (c.Width-c.Image.Width)/2
			iy := top + (kycGridHeight-c.Image.Height)/2
			pdf.ImageOptions(name, ix, iy, c.Image.Width, c.Image.Height, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		} else {
			pdf.SetFont("Helvetica", "", 8)
			pw.color(colorPlaceholder)
			pdf.SetXY(x, top+kycGridHeight/2-5)
			pdf.CellFormat(c.Width, 10, pw.text(c.Fallback), "", 0, "C", false, 0, "")
		}
		pdf.SetFont("Helvetica", "I", 8)
		pw.color(colorMuted)
		pdf.SetXY(x, top+kycGridHeight+4)
		pdf.CellFormat(c.Width, 10, pw.text(c.Caption), "", 0, "C", false, 0, "")
		x += c.Width
	}
	pdf.SetXY(Margin, top+kycGridHeight+16)
}

func (pw *pdfWriter) footer(f Footer) {
	pdf := pw.pdf
	y := PageHeight - footerOffset - footerLogoH/2
	if f.Logo != nil && f.Logo.Height > 0 {
		pdf.SetFont("Helvetica", "", 8)
		label := pw.text(f.Label)
		labelW := pdf.GetStringWidth(label)
		logoW := footerLogoH * float64(f.Logo.Width) / float64(f.Logo.Height)
		x := (PageWidth - labelW - 4 - logoW) / 2

		pw.color(colorFooter)
		pdf.SetXY(x, y)
		pdf.CellFormat(labelW, footerLogoH, label, "", 0, "L", false, 0, "")
		name := pw.register(*f.Logo)
		pdf.ImageOptions(name, x+labelW+4, y, logoW, footerLogoH, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		return
	}
	pdf.SetFont("Helvetica", "B", 9)
	pw.color(colorFooter)
	pdf.SetXY(Margin, y)
	pdf.CellFormat(ContentWidth, footerLogoH, pw.text(f.Fallback), "", 0, "C", false, 0, "")
}
