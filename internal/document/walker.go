package document

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidRange is returned when a range does not address text that
	// exists in the section.
	ErrInvalidRange = errors.New("invalid range")

	// ErrSpanOutOfBounds is returned by Walker.Span when the requested span
	// falls outside the walker's text.
	ErrSpanOutOfBounds = errors.New("span out of bounds")
)

// Walker flattens the text of one section range and maps rune spans of the
// flattened text back to ranges. Block texts are joined with a single \n,
// which counts as one rune in flattened offsets.
type Walker struct {
	text   string
	pieces []piece
	length int
}

// piece is the slice of one block that falls inside the walker's range.
// flat offsets locate the piece within the flattened text.
type piece struct {
	block     int
	start     int // rune offset of the piece within the block text
	flatStart int
	flatEnd   int
}

// NewWalker builds a walker over rng within sec. The range must be ordered
// and must address existing blocks and offsets.
func NewWalker(sec *Section, rng Range) (*Walker, error) {
	if len(sec.Blocks) == 0 {
		return nil, fmt.Errorf("%w: section has no blocks", ErrInvalidRange)
	}
	if !rng.Ordered() {
		return nil, fmt.Errorf("%w: start after end", ErrInvalidRange)
	}
	if rng.Start.Block < 0 || rng.End.Block >= len(sec.Blocks) {
		return nil, fmt.Errorf("%w: block %d..%d outside section of %d blocks",
			ErrInvalidRange, rng.Start.Block, rng.End.Block, len(sec.Blocks))
	}

	w := &Walker{}

	var sb strings.Builder
	flat := 0
	for b := rng.Start.Block; b <= rng.End.Block; b++ {
		runes := []rune(sec.Blocks[b].Text)

		start := 0
		if b == rng.Start.Block {
			start = rng.Start.Offset
		}
		end := len(runes)
		if b == rng.End.Block {
			end = rng.End.Offset
		}
		if start < 0 || end > len(runes) || start > end {
			return nil, fmt.Errorf("%w: offset outside block %d", ErrInvalidRange, b)
		}

		if b > rng.Start.Block {
			sb.WriteByte('\n')
			flat++
		}
		sb.WriteString(string(runes[start:end]))

		w.pieces = append(w.pieces, piece{
			block:     b,
			start:     start,
			flatStart: flat,
			flatEnd:   flat + (end - start),
		})
		flat = w.pieces[len(w.pieces)-1].flatEnd
	}

	w.text = sb.String()
	w.length = flat
	return w, nil
}

// Text returns the flattened text of the walker's range.
func (w *Walker) Text() string { return w.text }

// Len returns the flattened text length in runes.
func (w *Walker) Len() int { return w.length }

// Span maps the rune span [start, start+length) of the flattened text back
// to a range within the section. A span boundary that lands on a block
// joiner resolves into the adjacent block.
func (w *Walker) Span(start, length int) (Range, error) {
	if start < 0 || length < 0 || start+length > w.length {
		return Range{}, fmt.Errorf("%w: [%d, %d) of %d runes",
			ErrSpanOutOfBounds, start, start+length, w.length)
	}
	return Range{
		Start: w.positionAt(start, false),
		End:   w.positionAt(start+length, true),
	}, nil
}

// positionAt resolves one flattened offset to a position. Offsets on a block
// joiner are ambiguous: a span start resolves forward to the next piece, a
// span end resolves backward to the previous one.
func (w *Walker) positionAt(off int, isEnd bool) Position {
	if isEnd {
		for _, p := range w.pieces {
			if off <= p.flatEnd {
				rel := off - p.flatStart
				if rel < 0 {
					rel = 0
				}
				return Position{Block: p.block, Offset: p.start + rel}
			}
		}
	} else {
		for _, p := range w.pieces {
			if off < p.flatEnd || (off == p.flatEnd && p.flatStart == p.flatEnd) {
				rel := off - p.flatStart
				if rel < 0 {
					rel = 0
				}
				return Position{Block: p.block, Offset: p.start + rel}
			}
		}
	}

	last := w.pieces[len(w.pieces)-1]
	return Position{Block: last.block, Offset: last.start + (last.flatEnd - last.flatStart)}
}
