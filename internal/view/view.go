// Package view defines the reading surface the shell and the speech
// controller drive: document presentation, selection, navigation, and the
// relocation events that track the visible window.
package view

import "github.com/example/readaloud/internal/document"

// RelocateEvent reports that the visible window moved, whether from a page
// turn, a jump, or a fresh load settling.
type RelocateEvent struct {
	// Fraction is the reading progress through the document, 0 to 1.
	Fraction float64
	// Section is the index of the section now on screen.
	Section int
	// VisibleRange is the range now on screen, when the view can tell.
	VisibleRange *document.Range
	// TOCLabel names the table-of-contents entry covering the location.
	TOCLabel string

	Page       int
	TotalPages int
}

// LoadEvent reports that a document finished loading into the view.
type LoadEvent struct {
	Doc     *document.Document
	Section int
}

// View is a reading surface. Implementations emit a RelocateEvent after
// every navigation and a LoadEvent once a document is presented.
type View interface {
	// Load presents doc at the given section index.
	Load(doc *document.Document, section int) error

	// Selection returns the active text selection. The second result is
	// false when nothing is selected; a collapsed range is a caret.
	Selection() (document.Range, bool)

	GoLeft() error
	GoRight() error
	GoToFraction(f float64) error
	GoTo(href string) error

	// OnRelocate registers a callback for window moves.
	OnRelocate(fn func(RelocateEvent))
	// OnLoad registers a callback for completed loads.
	OnLoad(fn func(LoadEvent))
}

// RangeQuerier is an optional View capability reporting the range currently
// on screen without waiting for a relocation event.
type RangeQuerier interface {
	VisibleRange() (document.Range, bool)
}
