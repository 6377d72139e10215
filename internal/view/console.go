package view

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/example/readaloud/internal/document"
	"github.com/example/readaloud/internal/highlight"
)

// ANSI sequences for the word highlight. Reverse video reads on any
// terminal theme, so the renderer's color hint is ignored.
const (
	ansiReverse = "\x1b[7m"
	ansiReset   = "\x1b[0m"
	ansiErase   = "\r\x1b[2K"
)

var errNoDocument = errors.New("no document loaded")

// Console is a terminal View. It prints the current section in full and
// tracks the spoken word by rewriting one status line with the word in
// reverse video. Sections page like a book: left and right move between
// them.
//
// Console implements highlight.OverlayProvider; it has no Surface, so the
// renderer always takes the flowed path.
type Console struct {
	mu       sync.Mutex
	w        io.Writer
	doc      *document.Document
	section  int
	relocate []func(RelocateEvent)
	load     []func(LoadEvent)
}

var (
	_ View                      = (*Console)(nil)
	_ highlight.OverlayProvider = (*Console)(nil)
)

// NewConsole builds a console view writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Load presents doc at the given section and announces it.
func (c *Console) Load(doc *document.Document, section int) error {
	if doc == nil || len(doc.Sections) == 0 {
		return errors.New("document has no sections")
	}
	if section < 0 || section >= len(doc.Sections) {
		return fmt.Errorf("section %d out of range", section)
	}

	c.mu.Lock()
	c.doc = doc
	c.section = section
	c.printLocked()
	fns := append(([]func(LoadEvent))(nil), c.load...)
	c.mu.Unlock()

	for _, fn := range fns {
		fn(LoadEvent{Doc: doc, Section: section})
	}
	c.emitRelocate()
	return nil
}

// Selection is never available on a terminal.
func (c *Console) Selection() (document.Range, bool) {
	return document.Range{}, false
}

func (c *Console) GoLeft() error  { return c.step(-1) }
func (c *Console) GoRight() error { return c.step(1) }

// GoToFraction jumps to the section nearest the given progress fraction.
func (c *Console) GoToFraction(f float64) error {
	c.mu.Lock()
	if c.doc == nil {
		c.mu.Unlock()
		return errNoDocument
	}
	f = math.Min(math.Max(f, 0), 1)
	c.section = int(math.Round(f * float64(len(c.doc.Sections)-1)))
	c.printLocked()
	c.mu.Unlock()

	c.emitRelocate()
	return nil
}

// GoTo jumps to the section with the given href.
func (c *Console) GoTo(href string) error {
	c.mu.Lock()
	if c.doc == nil {
		c.mu.Unlock()
		return errNoDocument
	}
	target := -1
	for i := range c.doc.Sections {
		if c.doc.Sections[i].Href == href {
			target = i
			break
		}
	}
	if target < 0 {
		c.mu.Unlock()
		return fmt.Errorf("no section with href %q", href)
	}
	c.section = target
	c.printLocked()
	c.mu.Unlock()

	c.emitRelocate()
	return nil
}

// OnRelocate registers a callback for section changes.
func (c *Console) OnRelocate(fn func(RelocateEvent)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.relocate = append(c.relocate, fn)
}

// OnLoad registers a callback for completed loads.
func (c *Console) OnLoad(fn func(LoadEvent)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load = append(c.load, fn)
}

// Section reports the current section index, for status surfaces.
func (c *Console) Section() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.section
}

func (c *Console) step(delta int) error {
	c.mu.Lock()
	if c.doc == nil {
		c.mu.Unlock()
		return errNoDocument
	}
	next := c.section + delta
	if next < 0 || next >= len(c.doc.Sections) {
		c.mu.Unlock()
		return nil
	}
	c.section = next
	c.printLocked()
	c.mu.Unlock()

	c.emitRelocate()
	return nil
}

func (c *Console) printLocked() {
	sec := &c.doc.Sections[c.section]
	title := sec.Title
	if title == "" {
		title = c.doc.Title
	}
	fmt.Fprintf(c.w, "\n== %s (%d/%d)\n\n", title, c.section+1, len(c.doc.Sections))
	for _, b := range sec.Blocks {
		fmt.Fprintln(c.w, b.Text)
		fmt.Fprintln(c.w)
	}
}

// emitRelocate reports the current location. The console shows whole
// sections, so no VisibleRange is claimed; the controller's opening-blocks
// heuristic decides where reading starts.
func (c *Console) emitRelocate() {
	c.mu.Lock()
	n := len(c.doc.Sections)
	fraction := 0.0
	if n > 1 {
		fraction = float64(c.section) / float64(n-1)
	}
	ev := RelocateEvent{
		Fraction:   fraction,
		Section:    c.section,
		TOCLabel:   c.doc.Sections[c.section].Title,
		Page:       c.section + 1,
		TotalPages: n,
	}
	fns := append(([]func(RelocateEvent))(nil), c.relocate...)
	c.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// ---------------------------------------------------------------------------
// Overlay capability
// ---------------------------------------------------------------------------

// Overlay exposes the console's single status line as a highlight overlay
// for the section currently shown.
func (c *Console) Overlay(section int) (highlight.Overlayer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.doc == nil || section != c.section {
		return nil, false
	}
	return (*consoleOverlay)(c), true
}

// consoleOverlay keeps the Overlayer methods off the View surface.
type consoleOverlay Console

func (o *consoleOverlay) Draw(rng document.Range, color string) (highlight.Drawing, error) {
	c := (*Console)(o)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.doc == nil {
		return nil, errNoDocument
	}
	sec := &c.doc.Sections[c.section]
	if rng.Start.Block < 0 || rng.Start.Block >= len(sec.Blocks) {
		return nil, fmt.Errorf("block %d out of range", rng.Start.Block)
	}

	line := reverseSpan(sec.Blocks[rng.Start.Block].Text, rng)
	fmt.Fprint(c.w, ansiErase+line)
	return consoleDrawing{c: c}, nil
}

type consoleDrawing struct{ c *Console }

// Remove erases the status line. The next word rewrites it.
func (d consoleDrawing) Remove() {
	d.c.mu.Lock()
	defer d.c.mu.Unlock()
	fmt.Fprint(d.c.w, ansiErase)
}

// reverseSpan renders text with [rng.Start.Offset, rng.End.Offset) in
// reverse video. A range running past the block highlights to its end.
func reverseSpan(text string, rng document.Range) string {
	runes := []rune(text)
	start := rng.Start.Offset
	if start < 0 {
		start = 0
	}
	if start > len(runes) {
		start = len(runes)
	}
	end := len(runes)
	if rng.End.Block == rng.Start.Block && rng.End.Offset < end {
		end = rng.End.Offset
	}
	if end < start {
		end = start
	}
	return string(runes[:start]) + ansiReverse + string(runes[start:end]) + ansiReset + string(runes[end:])
}
