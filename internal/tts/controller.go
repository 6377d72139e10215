// Package tts coordinates speech playback: it picks the text range to read,
// starts and stops the synthesizer, and keeps the word highlight in step
// with boundary callbacks. One controller serves one reading surface.
package tts

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/rs/xid"

	"github.com/example/readaloud/internal/document"
	"github.com/example/readaloud/internal/highlight"
	"github.com/example/readaloud/internal/synth"
	"github.com/example/readaloud/internal/text"
	"github.com/example/readaloud/internal/view"
	"github.com/example/readaloud/internal/voice"
)

// fallbackLocale is spoken when neither a selected voice nor a document
// language is available.
const fallbackLocale = "en-US"

// maxHeuristicBlocks bounds the opening read: first through eleventh spoken
// block of the section.
const maxHeuristicBlocks = 11

// State is the controller lifecycle.
type State int

const (
	Idle State = iota
	Speaking
)

func (s State) String() string {
	if s == Speaking {
		return "speaking"
	}
	return "idle"
}

// Deps wires the controller's collaborators.
type Deps struct {
	View       view.View
	Synth      synth.Synthesizer
	Voices     *voice.Selector
	Highlights *highlight.Renderer
	Log        *slog.Logger

	// Rate is the speaking-rate multiplier applied to every utterance;
	// 0 means 1.
	Rate float64
}

// session ties synthesizer callbacks to one utterance. Callbacks capture the
// id and re-check it under the controller mutex, so anything delivered after
// a cancel or restart drops itself.
type session struct {
	id      xid.ID
	section int
	walker  *document.Walker
}

// SessionInfo describes the in-flight utterance for status surfaces.
type SessionInfo struct {
	ID      string `json:"id"`
	Section int    `json:"section"`
	Chars   int    `json:"chars"`
}

// Controller drives read-aloud for one view.
type Controller struct {
	view       view.View
	synth      synth.Synthesizer
	voices     *voice.Selector
	highlights *highlight.Renderer
	log        *slog.Logger
	rate       float64

	mu          sync.Mutex
	state       State
	doc         *document.Document
	section     int
	lastVisible *document.Range
	sess        *session
}

// New builds a controller. Synth, Voices and Highlights are required; View
// may be nil for surfaces without selection or navigation.
func New(deps Deps) *Controller {
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		view:       deps.View,
		synth:      deps.Synth,
		voices:     deps.Voices,
		highlights: deps.Highlights,
		log:        log,
		rate:       deps.Rate,
	}
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

// Toggle stops speech when speaking and starts it when idle. Starting with
// no document, no usable range, or blank text is a no-op that stays Idle.
func (c *Controller) Toggle() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Speaking {
		c.stopLocked()
		return nil
	}
	return c.startLocked()
}

// Cancel stops speech and clears the highlight. Safe to call when idle;
// navigation calls it unconditionally.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// stopLocked tears down the current session. The synthesizer cancel is
// unconditional so an utterance orphaned by a lost session still stops.
func (c *Controller) stopLocked() {
	c.synth.Cancel()
	c.highlights.Clear()
	if c.sess != nil {
		c.log.Debug("speech cancelled", slog.String("session", c.sess.id.String()))
	}
	c.sess = nil
	c.state = Idle
}

func (c *Controller) startLocked() error {
	if c.doc == nil || c.section < 0 || c.section >= len(c.doc.Sections) {
		c.log.Debug("toggle with nothing to read")
		return nil
	}
	sec := &c.doc.Sections[c.section]

	rng, ok := c.speechRangeLocked(sec)
	if !ok {
		c.log.Debug("no readable range", slog.Int("section", c.section))
		return nil
	}

	walker, err := document.NewWalker(sec, rng)
	if err != nil {
		c.log.Debug("speech range rejected", slog.String("error", err.Error()))
		return nil
	}
	if text.IsBlank(walker.Text()) {
		c.log.Debug("speech range is blank", slog.Int("section", c.section))
		return nil
	}

	id := xid.New()
	u := &synth.Utterance{
		Text: walker.Text(),
		Rate: c.rate,
		OnBoundary: func(b synth.Boundary) {
			c.handleBoundary(id, b)
		},
		OnEnd: func() {
			c.handleEnd(id)
		},
		OnError: func(err error) {
			c.handleError(id, err)
		},
	}

	if v, ok := c.voices.Selected(); ok {
		u.VoiceID = v.ID
	} else {
		u.Lang = c.utteranceLang()
	}

	if err := c.synth.Speak(u); err != nil {
		return fmt.Errorf("start speech: %w", err)
	}

	c.sess = &session{id: id, section: c.section, walker: walker}
	c.state = Speaking
	c.log.Debug("speech started",
		slog.String("session", id.String()),
		slog.Int("section", c.section),
		slog.Int("chars", walker.Len()),
		slog.String("voice", u.VoiceID))
	return nil
}

// utteranceLang picks the fallback language tag for an utterance without a
// selected voice.
func (c *Controller) utteranceLang() string {
	if c.doc != nil && c.doc.Language != "" {
		return c.doc.Language
	}
	if locale := c.voices.Policy().DefaultLocale; locale != "" {
		return locale
	}
	return fallbackLocale
}

// speechRangeLocked resolves what to read, in priority order: the view
// selection, the last range a relocation reported visible, the view's own
// visible-range query, and finally the opening spoken blocks of the section.
func (c *Controller) speechRangeLocked(sec *document.Section) (document.Range, bool) {
	if c.view != nil {
		if rng, ok := c.view.Selection(); ok && !rng.Collapsed() {
			if !rng.Ordered() {
				rng.Start, rng.End = rng.End, rng.Start
			}
			return rng, true
		}
	}
	if c.lastVisible != nil {
		return *c.lastVisible, true
	}
	if q, ok := c.view.(view.RangeQuerier); ok {
		if rng, ok := q.VisibleRange(); ok {
			return rng, true
		}
	}
	return spokenBlocksRange(sec)
}

// spokenBlocksRange spans the section's first spoken block through its
// eleventh, or through the last when there are fewer. A section with no
// spoken blocks is read whole.
func spokenBlocksRange(sec *document.Section) (document.Range, bool) {
	first, last := -1, -1
	count := 0
	for i := range sec.Blocks {
		if !sec.Blocks[i].Spoken() {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
		count++
		if count == maxHeuristicBlocks {
			break
		}
	}

	if first < 0 {
		rng := document.WholeSection(sec)
		return rng, !rng.IsZero()
	}
	return document.Range{
		Start: document.Position{Block: first},
		End:   document.Position{Block: last, Offset: len([]rune(sec.Blocks[last].Text))},
	}, true
}

// ---------------------------------------------------------------------------
// Synthesizer callbacks
// ---------------------------------------------------------------------------

func (c *Controller) handleBoundary(id xid.ID, b synth.Boundary) {
	if b.Name != synth.BoundaryWord {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil || c.sess.id != id {
		return
	}

	rng, err := c.sess.walker.Span(b.CharIndex, b.CharLength)
	if err != nil {
		c.log.Debug("word boundary outside range",
			slog.Int("index", b.CharIndex),
			slog.Int("length", b.CharLength),
			slog.String("error", err.Error()))
		return
	}
	c.highlights.Draw(c.sess.section, rng)
}

func (c *Controller) handleEnd(id xid.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil || c.sess.id != id {
		return
	}
	c.highlights.Clear()
	c.log.Debug("speech finished", slog.String("session", id.String()))
	c.sess = nil
	c.state = Idle
}

func (c *Controller) handleError(id xid.ID, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil || c.sess.id != id {
		return
	}
	c.highlights.Clear()
	c.log.Warn("speech failed",
		slog.String("session", id.String()),
		slog.String("error", err.Error()))
	c.sess = nil
	c.state = Idle
}

// ---------------------------------------------------------------------------
// View events
// ---------------------------------------------------------------------------

// HandleLoad records the presented document and auto-selects a voice for its
// language. Any speech from a previous document stops.
func (c *Controller) HandleLoad(doc *document.Document, section int) {
	c.mu.Lock()
	c.stopLocked()
	c.doc = doc
	c.section = section
	c.lastVisible = nil
	c.mu.Unlock()

	if doc != nil {
		c.voices.AutoSelect(doc.Language)
	}
}

// HandleRelocate cancels speech and records the newly visible range as the
// next reading start.
func (c *Controller) HandleRelocate(ev view.RelocateEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	c.section = ev.Section
	if ev.VisibleRange != nil {
		rng := *ev.VisibleRange
		c.lastVisible = &rng
	} else {
		c.lastVisible = nil
	}
}

// ---------------------------------------------------------------------------
// Status
// ---------------------------------------------------------------------------

// State reports the controller lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session describes the in-flight utterance. The second result is false
// when idle.
func (c *Controller) Session() (SessionInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return SessionInfo{}, false
	}
	return SessionInfo{
		ID:      c.sess.id.String(),
		Section: c.sess.section,
		Chars:   c.sess.walker.Len(),
	}, true
}

// Voices exposes the controller's voice selector, for menus and control
// surfaces.
func (c *Controller) Voices() *voice.Selector { return c.voices }
