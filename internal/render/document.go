package render

import (
	"fmt"

	"github.com/vanshika/chargeback/backend/internal/domain"
)

// Page geometry in points (US letter, 0.75in margins).
const (
	inch         = 72.0
	PageWidth    = 8.5 * inch
	PageHeight   = 11 * inch
	Margin       = 0.75 * inch
	ContentWidth = PageWidth - 2*Margin

	mainImageMaxHeight   = 3.5 * inch
	policyImageMaxHeight = 4 * inch
	kycImageMaxHeight    = 1.8 * inch
	kycColumnPadding     = 0.2 * inch
	placeholderHeight    = 1.5 * inch
)

// Document is the rendered, format-independent dispute response. Two renders of
// the same inputs produce equal documents.
type Document struct {
	FileName string
	Category domain.ReasonCategory
	Title    string
	Subtitle string
	Facts    []domain.Field
	Opening  []Block
	Sections []Section
	Closing  *Section
	Footer   Footer
}

// Headings lists the section headings in document order, closing included.
func (d Document) Headings() []string {
	out := make([]string, 0, len(d.Sections)+1)
	for _, s := range d.Sections {
		out = append(out, s.Heading)
	}
	if d.Closing != nil {
		out = append(out, d.Closing.Heading)
	}
	return out
}

// Section returns the first section whose heading matches.
func (d Document) Section(heading string) (Section, bool) {
	for _, s := range d.Sections {
		if s.Heading == heading {
			return s, true
		}
	}
	if d.Closing != nil && d.Closing.Heading == heading {
		return *d.Closing, true
	}
	return Section{}, false
}

// Placeholders lists the text of every placeholder block in document order.
func (d Document) Placeholders() []string {
	var out []string
	for _, s := range d.Sections {
		for _, b := range s.Blocks {
			if b.Kind == BlockPlaceholder {
				out = append(out, b.Text)
			}
		}
	}
	return out
}

// Footer is repeated on every page. Without a logo the fallback text is used.
type Footer struct {
	Label    string
	Logo     *Image
	Fallback string
}

// BlockKind tags the content of a Block.
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockBullet
	BlockLink
	BlockEmphasis
	BlockTable
	BlockImage
	BlockImageGrid
	BlockPlaceholder
	BlockCaption
)

func (k BlockKind) String() string {
	switch k {
	case BlockParagraph:
		return "paragraph"
	case BlockBullet:
		return "bullet"
	case BlockLink:
		return "link"
	case BlockEmphasis:
		return "emphasis"
	case BlockTable:
		return "table"
	case BlockImage:
		return "image"
	case BlockImageGrid:
		return "image_grid"
	case BlockPlaceholder:
		return "placeholder"
	case BlockCaption:
		return "caption"
	}
	return fmt.Sprintf("block(%d)", int(k))
}

func (k BlockKind) media() bool {
	switch k {
	case BlockTable, BlockImage, BlockImageGrid, BlockPlaceholder, BlockCaption:
		return true
	}
	return false
}

// Block is one unit of section content.
type Block struct {
	Kind  BlockKind
	Text  string
	Rows  []domain.Field
	Image *Placed
	Grid  []GridCell
}

// Placed is an image scaled into its bounding box, in points.
type Placed struct {
	Image  Image
	Width  float64
	Height float64
}

// GridCell is one column of an image grid. A nil Image renders Fallback instead.
type GridCell struct {
	Image    *Placed
	Fallback string
	Caption  string
	Width    float64
}

// Section is a headed group of blocks.
type Section struct {
	Heading string
	Blocks  []Block
}

// SectionState tracks how far a section has been emitted.
type SectionState int

const (
	StatePending SectionState = iota
	StateText
	StateMedia
	StateClosed
)

func (s SectionState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateText:
		return "text"
	case StateMedia:
		return "media"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// sectionBuilder enforces pending -> text -> media -> closed. A section may go
// back from media to text for follow-up lines such as a tracking link, but media
// always needs some text before it and nothing may be added once closed.
type sectionBuilder struct {
	section Section
	state   SectionState
}

func newSection(heading string) *sectionBuilder {
	return &sectionBuilder{section: Section{Heading: heading}}
}

func (s *sectionBuilder) add(b Block) {
	switch {
	case s.state == StateClosed:
		panic(fmt.Sprintf("render: %s block added to closed section %q", b.Kind, s.section.Heading))
	case b.Kind.media() && s.state == StatePending:
		panic(fmt.Sprintf("render: %s block before any text in section %q", b.Kind, s.section.Heading))
	}
	if b.Kind.media() {
		s.state = StateMedia
	} else {
		s.state = StateText
	}
	s.section.Blocks = append(s.section.Blocks, b)
}

func (s *sectionBuilder) paragraph(text string) {
	s.add(Block{Kind: BlockParagraph, Text: text})
}

func (s *sectionBuilder) emphasis(text string) {
	s.add(Block{Kind: BlockEmphasis, Text: text})
}

func (s *sectionBuilder) link(text string) {
	s.add(Block{Kind: BlockLink, Text: text})
}

func (s *sectionBuilder) placeholder(label string) {
	s.add(Block{Kind: BlockPlaceholder, Text: "[ " + label + " ]"})
}

func (s *sectionBuilder) table(rows []domain.Field) {
	s.add(Block{Kind: BlockTable, Rows: rows})
}

func (s *sectionBuilder) close() Section {
	s.state = StateClosed
	return s.section
}
