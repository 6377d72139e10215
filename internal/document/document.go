// Package document models parsed reading material as sections of typed text
// blocks, with rune-accurate positions and ranges for speech and highlight
// placement.
package document

import "unicode/utf8"

// BlockKind classifies a block of section text.
type BlockKind int

const (
	Paragraph BlockKind = iota
	Heading
	ListItem
	Caption
	Raw
)

func (k BlockKind) String() string {
	switch k {
	case Paragraph:
		return "paragraph"
	case Heading:
		return "heading"
	case ListItem:
		return "list-item"
	case Caption:
		return "caption"
	case Raw:
		return "raw"
	default:
		return "unknown"
	}
}

// Block is one contiguous run of text within a section.
type Block struct {
	Kind BlockKind
	Text string
}

// Spoken reports whether the block carries prose a reader would speak.
// Captions and raw blocks (code fences, tables) are skipped when scanning
// for something to read.
func (b Block) Spoken() bool {
	switch b.Kind {
	case Paragraph, Heading, ListItem:
		return true
	default:
		return false
	}
}

// Section is one navigable unit of a document. Fixed marks pre-paginated
// (fixed-layout) sections whose highlights are placed by page geometry
// rather than text overlays.
type Section struct {
	Href   string
	Title  string
	Blocks []Block
	Fixed  bool
}

// Document is parsed reading material.
type Document struct {
	Title    string
	Language string
	Sections []Section
}

// Position addresses a rune within a section: a block index and a rune
// offset into that block's text. The offset may equal the block's rune
// length, addressing the position just past its last rune.
type Position struct {
	Block  int `json:"block" yaml:"block"`
	Offset int `json:"offset" yaml:"offset"`
}

// Compare orders positions within a section. It returns -1 when p precedes
// q, +1 when p follows q, and 0 when they are equal.
func (p Position) Compare(q Position) int {
	switch {
	case p.Block != q.Block:
		if p.Block < q.Block {
			return -1
		}
		return 1
	case p.Offset != q.Offset:
		if p.Offset < q.Offset {
			return -1
		}
		return 1
	default:
		return 0
	}
}

// Range is a half-open span [Start, End) of section text.
type Range struct {
	Start Position `json:"start" yaml:"start"`
	End   Position `json:"end" yaml:"end"`
}

// Collapsed reports whether the range spans no text.
func (r Range) Collapsed() bool { return r.Start == r.End }

// IsZero reports whether the range is the zero value.
func (r Range) IsZero() bool { return r == Range{} }

// Ordered reports whether Start does not follow End.
func (r Range) Ordered() bool { return r.Start.Compare(r.End) <= 0 }

// WholeSection returns the range covering every block of sec. For a section
// without blocks it returns a collapsed zero range.
func WholeSection(sec *Section) Range {
	if len(sec.Blocks) == 0 {
		return Range{}
	}
	last := len(sec.Blocks) - 1
	return Range{
		Start: Position{Block: 0, Offset: 0},
		End:   Position{Block: last, Offset: utf8.RuneCountInString(sec.Blocks[last].Text)},
	}
}
