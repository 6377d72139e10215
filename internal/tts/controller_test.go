package tts

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/example/readaloud/internal/document"
	"github.com/example/readaloud/internal/highlight"
	"github.com/example/readaloud/internal/synth"
	"github.com/example/readaloud/internal/view"
	"github.com/example/readaloud/internal/voice"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

// fakeSynth records utterances and lets tests fire their callbacks directly.
type fakeSynth struct {
	mu      sync.Mutex
	current *synth.Utterance
	speaks  int
	cancels int
	err     error
	voices  []voice.Voice
}

func (f *fakeSynth) Speak(u *synth.Utterance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.current = u
	f.speaks++
	return nil
}

func (f *fakeSynth) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels++
}

func (f *fakeSynth) Speaking() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current != nil
}

func (f *fakeSynth) Voices() []voice.Voice { return f.voices }

func (f *fakeSynth) NotifyVoicesChanged(func()) {}

func (f *fakeSynth) utterance(t *testing.T) *synth.Utterance {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		t.Fatal("no utterance was spoken")
	}
	return f.current
}

type fakeView struct {
	sel    document.Range
	hasSel bool
}

func (v *fakeView) Load(*document.Document, int) error  { return nil }
func (v *fakeView) Selection() (document.Range, bool)   { return v.sel, v.hasSel }
func (v *fakeView) GoLeft() error                       { return nil }
func (v *fakeView) GoRight() error                      { return nil }
func (v *fakeView) GoToFraction(float64) error          { return nil }
func (v *fakeView) GoTo(string) error                   { return nil }
func (v *fakeView) OnRelocate(func(view.RelocateEvent)) {}
func (v *fakeView) OnLoad(func(view.LoadEvent))         {}

// queryView adds the optional visible-range capability.
type queryView struct {
	fakeView
	visible document.Range
	ok      bool
}

func (v *queryView) VisibleRange() (document.Range, bool) { return v.visible, v.ok }

// recordOverlay captures highlight drawings so tests can see what is live.
type recordOverlay struct {
	draws []*recordedDrawing
}

type recordedDrawing struct {
	rng     document.Range
	removed bool
}

func (d *recordedDrawing) Remove() { d.removed = true }

func (o *recordOverlay) Draw(rng document.Range, color string) (highlight.Drawing, error) {
	d := &recordedDrawing{rng: rng}
	o.draws = append(o.draws, d)
	return d, nil
}

func (o *recordOverlay) Overlay(int) (highlight.Overlayer, bool) { return o, true }

func (o *recordOverlay) live() []*recordedDrawing {
	var out []*recordedDrawing
	for _, d := range o.draws {
		if !d.removed {
			out = append(out, d)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDocument() *document.Document {
	return &document.Document{
		Title:    "Test Book",
		Language: "en-GB",
		Sections: []document.Section{
			{
				Href:  "ch1",
				Title: "Chapter One",
				Blocks: []document.Block{
					{Kind: document.Heading, Text: "Chapter One"},
					{Kind: document.Paragraph, Text: "It was a bright cold day."},
					{Kind: document.Paragraph, Text: "The clocks were striking."},
				},
			},
		},
	}
}

func testCatalog() []voice.Voice {
	return []voice.Voice{
		{ID: "local:en_US-amy-medium", Name: "Amy (Enhanced)", Lang: "en-US"},
		{ID: "local:de_DE-eva_k-x_low", Name: "Eva", Lang: "de-DE"},
	}
}

type harness struct {
	ctrl    *Controller
	synth   *fakeSynth
	view    *fakeView
	overlay *recordOverlay
	voices  *voice.Selector
}

func newHarness(v view.View) *harness {
	fv, _ := v.(*fakeView)
	if v == nil {
		fv = &fakeView{}
		v = fv
	}
	fs := &fakeSynth{voices: testCatalog()}
	overlay := &recordOverlay{}
	sel := voice.NewSelector(fs, voice.DefaultPolicy())
	ctrl := New(Deps{
		View:       v,
		Synth:      fs,
		Voices:     sel,
		Highlights: highlight.New(highlight.Capabilities{Overlays: overlay}, highlight.WithLogger(discardLogger())),
		Log:        discardLogger(),
	})
	return &harness{ctrl: ctrl, synth: fs, view: fv, overlay: overlay, voices: sel}
}

// blockRange spans [start, end) rune offsets inside one block.
func blockRange(block, start, end int) document.Range {
	return document.Range{
		Start: document.Position{Block: block, Offset: start},
		End:   document.Position{Block: block, Offset: end},
	}
}

// ---------------------------------------------------------------------------
// Toggle and range resolution
// ---------------------------------------------------------------------------

func TestController_ToggleSpeaksSelection(t *testing.T) {
	h := newHarness(nil)
	h.ctrl.HandleLoad(testDocument(), 0)
	h.view.sel = blockRange(1, 0, 25)
	h.view.hasSel = true

	if err := h.ctrl.Toggle(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	u := h.synth.utterance(t)
	if u.Text != "It was a bright cold day." {
		t.Errorf("utterance text = %q", u.Text)
	}
	if u.VoiceID == "" {
		t.Error("no voice resolved despite matching catalog")
	}
	if got := h.ctrl.State(); got != Speaking {
		t.Errorf("state = %v, want Speaking", got)
	}

	info, ok := h.ctrl.Session()
	if !ok {
		t.Fatal("no session while speaking")
	}
	if info.Section != 0 || info.Chars != 25 || info.ID == "" {
		t.Errorf("session = %+v", info)
	}
}

func TestController_ToggleWhileSpeakingStops(t *testing.T) {
	h := newHarness(nil)
	h.ctrl.HandleLoad(testDocument(), 0)
	h.view.sel = blockRange(1, 0, 25)
	h.view.hasSel = true

	if err := h.ctrl.Toggle(); err != nil {
		t.Fatalf("start: %v", err)
	}
	before := h.synth.cancels
	if err := h.ctrl.Toggle(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	if got := h.ctrl.State(); got != Idle {
		t.Errorf("state = %v, want Idle", got)
	}
	if _, ok := h.ctrl.Session(); ok {
		t.Error("session survived stop")
	}
	if h.synth.cancels <= before {
		t.Error("synthesizer was not cancelled")
	}
}

func TestController_RangePriority(t *testing.T) {
	visible := blockRange(2, 0, 25)

	t.Run("selection wins over recorded visible range", func(t *testing.T) {
		h := newHarness(nil)
		h.ctrl.HandleLoad(testDocument(), 0)
		h.ctrl.HandleRelocate(view.RelocateEvent{Section: 0, VisibleRange: &visible})
		h.view.sel = blockRange(1, 0, 25)
		h.view.hasSel = true

		if err := h.ctrl.Toggle(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := h.synth.utterance(t).Text; got != "It was a bright cold day." {
			t.Errorf("text = %q, want the selection", got)
		}
	})

	t.Run("reversed selection is normalized", func(t *testing.T) {
		h := newHarness(nil)
		h.ctrl.HandleLoad(testDocument(), 0)
		h.view.sel = document.Range{
			Start: document.Position{Block: 1, Offset: 25},
			End:   document.Position{Block: 1, Offset: 0},
		}
		h.view.hasSel = true

		if err := h.ctrl.Toggle(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := h.synth.utterance(t).Text; got != "It was a bright cold day." {
			t.Errorf("text = %q", got)
		}
	})

	t.Run("collapsed selection falls back to visible range", func(t *testing.T) {
		h := newHarness(nil)
		h.ctrl.HandleLoad(testDocument(), 0)
		h.ctrl.HandleRelocate(view.RelocateEvent{Section: 0, VisibleRange: &visible})
		h.view.sel = blockRange(1, 3, 3)
		h.view.hasSel = true

		if err := h.ctrl.Toggle(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := h.synth.utterance(t).Text; got != "The clocks were striking." {
			t.Errorf("text = %q, want the visible range", got)
		}
	})

	t.Run("view range query before heuristic", func(t *testing.T) {
		qv := &queryView{visible: blockRange(2, 4, 10), ok: true}
		h := newHarness(qv)
		h.ctrl.HandleLoad(testDocument(), 0)

		if err := h.ctrl.Toggle(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := h.synth.utterance(t).Text; got != "clocks" {
			t.Errorf("text = %q, want the queried range", got)
		}
	})

	t.Run("heuristic when nothing else answers", func(t *testing.T) {
		h := newHarness(nil)
		h.ctrl.HandleLoad(testDocument(), 0)

		if err := h.ctrl.Toggle(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := "Chapter One\nIt was a bright cold day.\nThe clocks were striking."
		if got := h.synth.utterance(t).Text; got != want {
			t.Errorf("text = %q, want whole opening", got)
		}
	})
}

func TestController_HeuristicSpan(t *testing.T) {
	t.Run("caps at eleven spoken blocks", func(t *testing.T) {
		var blocks []document.Block
		for i := 1; i <= 13; i++ {
			blocks = append(blocks, document.Block{
				Kind: document.Paragraph,
				Text: fmt.Sprintf("Block %d.", i),
			})
		}
		doc := &document.Document{Sections: []document.Section{{Href: "ch", Blocks: blocks}}}

		h := newHarness(nil)
		h.ctrl.HandleLoad(doc, 0)
		if err := h.ctrl.Toggle(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		text := h.synth.utterance(t).Text
		if !strings.Contains(text, "Block 11.") {
			t.Error("eleventh block missing from opening read")
		}
		if strings.Contains(text, "Block 12.") {
			t.Error("twelfth block included in opening read")
		}
	})

	t.Run("unspoken blocks between spoken ones stay in range", func(t *testing.T) {
		doc := &document.Document{Sections: []document.Section{{
			Href: "ch",
			Blocks: []document.Block{
				{Kind: document.Paragraph, Text: "One."},
				{Kind: document.Raw, Text: "x := 1"},
				{Kind: document.Paragraph, Text: "Two."},
			},
		}}}

		h := newHarness(nil)
		h.ctrl.HandleLoad(doc, 0)
		if err := h.ctrl.Toggle(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := h.synth.utterance(t).Text; got != "One.\nx := 1\nTwo." {
			t.Errorf("text = %q", got)
		}
	})

	t.Run("no spoken blocks reads whole section", func(t *testing.T) {
		doc := &document.Document{Sections: []document.Section{{
			Href:   "ch",
			Blocks: []document.Block{{Kind: document.Raw, Text: "only code here"}},
		}}}

		h := newHarness(nil)
		h.ctrl.HandleLoad(doc, 0)
		if err := h.ctrl.Toggle(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := h.synth.utterance(t).Text; got != "only code here" {
			t.Errorf("text = %q", got)
		}
	})

	t.Run("empty section is a no-op", func(t *testing.T) {
		doc := &document.Document{Sections: []document.Section{{Href: "ch"}}}

		h := newHarness(nil)
		h.ctrl.HandleLoad(doc, 0)
		if err := h.ctrl.Toggle(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if h.synth.speaks != 0 {
			t.Error("spoke an empty section")
		}
		if got := h.ctrl.State(); got != Idle {
			t.Errorf("state = %v, want Idle", got)
		}
	})
}

func TestController_NoDocumentStaysIdle(t *testing.T) {
	h := newHarness(nil)
	if err := h.ctrl.Toggle(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.synth.speaks != 0 {
		t.Error("spoke without a document")
	}
	if got := h.ctrl.State(); got != Idle {
		t.Errorf("state = %v, want Idle", got)
	}
}

func TestController_BlankTextStaysIdle(t *testing.T) {
	doc := &document.Document{Sections: []document.Section{{
		Href:   "ch",
		Blocks: []document.Block{{Kind: document.Paragraph, Text: "   "}},
	}}}

	h := newHarness(nil)
	h.ctrl.HandleLoad(doc, 0)
	if err := h.ctrl.Toggle(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.synth.speaks != 0 {
		t.Error("spoke blank text")
	}
}

func TestController_SectionOutOfRangeStaysIdle(t *testing.T) {
	h := newHarness(nil)
	h.ctrl.HandleLoad(testDocument(), 99)
	if err := h.ctrl.Toggle(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.synth.speaks != 0 {
		t.Error("spoke an out-of-range section")
	}
}

// ---------------------------------------------------------------------------
// Boundary handling
// ---------------------------------------------------------------------------

func TestController_WordBoundariesMoveHighlight(t *testing.T) {
	h := newHarness(nil)
	h.ctrl.HandleLoad(testDocument(), 0)
	h.view.sel = blockRange(1, 0, 25)
	h.view.hasSel = true
	if err := h.ctrl.Toggle(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	u := h.synth.utterance(t)

	u.OnBoundary(synth.Boundary{Name: synth.BoundaryWord, CharIndex: 0, CharLength: 2})
	live := h.overlay.live()
	if len(live) != 1 {
		t.Fatalf("got %d live drawings, want 1", len(live))
	}
	if want := blockRange(1, 0, 2); live[0].rng != want {
		t.Errorf("highlight = %+v, want %+v", live[0].rng, want)
	}

	u.OnBoundary(synth.Boundary{Name: synth.BoundaryWord, CharIndex: 3, CharLength: 3})
	live = h.overlay.live()
	if len(live) != 1 {
		t.Fatalf("got %d live drawings after second word, want 1", len(live))
	}
	if want := blockRange(1, 3, 6); live[0].rng != want {
		t.Errorf("highlight = %+v, want %+v", live[0].rng, want)
	}
	if len(h.overlay.draws) != 2 {
		t.Errorf("got %d total drawings, want 2", len(h.overlay.draws))
	}
}

func TestController_SentenceBoundariesIgnored(t *testing.T) {
	h := newHarness(nil)
	h.ctrl.HandleLoad(testDocument(), 0)
	if err := h.ctrl.Toggle(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	u := h.synth.utterance(t)

	u.OnBoundary(synth.Boundary{Name: synth.BoundarySentence, CharIndex: 0, CharLength: 11})
	if len(h.overlay.draws) != 0 {
		t.Errorf("sentence boundary drew a highlight")
	}
}

func TestController_BoundaryMappingErrorSkipsWord(t *testing.T) {
	h := newHarness(nil)
	h.ctrl.HandleLoad(testDocument(), 0)
	h.view.sel = blockRange(1, 0, 25)
	h.view.hasSel = true
	if err := h.ctrl.Toggle(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	u := h.synth.utterance(t)

	u.OnBoundary(synth.Boundary{Name: synth.BoundaryWord, CharIndex: 1000, CharLength: 4})
	if len(h.overlay.draws) != 0 {
		t.Error("out-of-range boundary drew a highlight")
	}
	if got := h.ctrl.State(); got != Speaking {
		t.Errorf("state = %v, want Speaking after a skipped word", got)
	}

	// The session survives and later boundaries still land.
	u.OnBoundary(synth.Boundary{Name: synth.BoundaryWord, CharIndex: 0, CharLength: 2})
	if len(h.overlay.live()) != 1 {
		t.Error("boundary after a skipped word did not highlight")
	}
}

func TestController_StaleCallbacksDiscarded(t *testing.T) {
	h := newHarness(nil)
	h.ctrl.HandleLoad(testDocument(), 0)
	h.view.sel = blockRange(1, 0, 25)
	h.view.hasSel = true
	if err := h.ctrl.Toggle(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stale := h.synth.utterance(t)

	h.ctrl.Cancel()

	stale.OnBoundary(synth.Boundary{Name: synth.BoundaryWord, CharIndex: 0, CharLength: 2})
	if len(h.overlay.live()) != 0 {
		t.Error("stale boundary drew a highlight")
	}
	stale.OnEnd()
	if got := h.ctrl.State(); got != Idle {
		t.Errorf("state = %v after stale end, want Idle", got)
	}

	// A fresh session must not be disturbed by the old utterance.
	if err := h.ctrl.Toggle(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	fresh := h.synth.utterance(t)

	stale.OnError(errors.New("late failure"))
	if got := h.ctrl.State(); got != Speaking {
		t.Errorf("stale error ended the fresh session: state = %v", got)
	}

	fresh.OnBoundary(synth.Boundary{Name: synth.BoundaryWord, CharIndex: 0, CharLength: 2})
	if len(h.overlay.live()) != 1 {
		t.Error("fresh boundary did not highlight")
	}
}

// ---------------------------------------------------------------------------
// Completion and failure
// ---------------------------------------------------------------------------

func TestController_EndClearsHighlightAndIdles(t *testing.T) {
	h := newHarness(nil)
	h.ctrl.HandleLoad(testDocument(), 0)
	if err := h.ctrl.Toggle(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	u := h.synth.utterance(t)

	u.OnBoundary(synth.Boundary{Name: synth.BoundaryWord, CharIndex: 0, CharLength: 7})
	if len(h.overlay.live()) != 1 {
		t.Fatal("no live highlight before end")
	}

	u.OnEnd()
	if len(h.overlay.live()) != 0 {
		t.Error("highlight survived utterance end")
	}
	if got := h.ctrl.State(); got != Idle {
		t.Errorf("state = %v, want Idle", got)
	}
	if _, ok := h.ctrl.Session(); ok {
		t.Error("session survived utterance end")
	}
}

func TestController_ErrorWarnsAndIdles(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	fs := &fakeSynth{voices: testCatalog()}
	overlay := &recordOverlay{}
	ctrl := New(Deps{
		View:       &fakeView{},
		Synth:      fs,
		Voices:     voice.NewSelector(fs, voice.DefaultPolicy()),
		Highlights: highlight.New(highlight.Capabilities{Overlays: overlay}, highlight.WithLogger(discardLogger())),
		Log:        log,
	})
	ctrl.HandleLoad(testDocument(), 0)
	if err := ctrl.Toggle(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	u := fs.utterance(t)

	u.OnBoundary(synth.Boundary{Name: synth.BoundaryWord, CharIndex: 0, CharLength: 7})
	u.OnError(errors.New("device lost"))

	if got := ctrl.State(); got != Idle {
		t.Errorf("state = %v, want Idle", got)
	}
	if len(overlay.live()) != 0 {
		t.Error("highlight survived utterance failure")
	}
	logged := buf.String()
	if !strings.Contains(logged, "speech failed") || !strings.Contains(logged, "device lost") {
		t.Errorf("failure not logged: %q", logged)
	}

	// A failed utterance must not poison the controller: the next toggle
	// starts a fresh session.
	if err := ctrl.Toggle(); err != nil {
		t.Fatalf("toggle after failure: %v", err)
	}
	if got := ctrl.State(); got != Speaking {
		t.Errorf("state after restart = %v, want Speaking", got)
	}
	if fs.speaks != 2 {
		t.Errorf("speaks = %d, want 2", fs.speaks)
	}
}

func TestController_CancelIdempotent(t *testing.T) {
	h := newHarness(nil)
	h.ctrl.Cancel()
	h.ctrl.Cancel()
	if got := h.ctrl.State(); got != Idle {
		t.Errorf("state = %v, want Idle", got)
	}
}

func TestController_SpeakFailureSurfaces(t *testing.T) {
	h := newHarness(nil)
	h.ctrl.HandleLoad(testDocument(), 0)
	h.synth.err = synth.ErrBusy

	err := h.ctrl.Toggle()
	if !errors.Is(err, synth.ErrBusy) {
		t.Errorf("got %v, want ErrBusy", err)
	}
	if got := h.ctrl.State(); got != Idle {
		t.Errorf("state = %v, want Idle after failed start", got)
	}
	if _, ok := h.ctrl.Session(); ok {
		t.Error("session exists after failed start")
	}
}

// ---------------------------------------------------------------------------
// View events and voice resolution
// ---------------------------------------------------------------------------

func TestController_HandleLoadAutoSelectsVoice(t *testing.T) {
	h := newHarness(nil)

	doc := testDocument()
	doc.Language = "de-DE"
	h.ctrl.HandleLoad(doc, 0)

	v, ok := h.voices.Selected()
	if !ok {
		t.Fatal("no voice selected after load")
	}
	if v.Lang != "de-DE" {
		t.Errorf("selected %q (%s), want a German voice", v.Name, v.Lang)
	}

	// An unknown language keeps the previous selection.
	other := testDocument()
	other.Language = "zz-ZZ"
	h.ctrl.HandleLoad(other, 0)
	if got, ok := h.voices.Selected(); !ok || got.ID != v.ID {
		t.Errorf("selection changed to %+v for unknown language", got)
	}
}

func TestController_UtteranceLangFallback(t *testing.T) {
	t.Run("document language", func(t *testing.T) {
		fs := &fakeSynth{} // empty catalog, nothing selectable
		ctrl := New(Deps{
			View:       &fakeView{},
			Synth:      fs,
			Voices:     voice.NewSelector(fs, voice.DefaultPolicy()),
			Highlights: highlight.New(highlight.Capabilities{}, highlight.WithLogger(discardLogger())),
			Log:        discardLogger(),
		})
		doc := testDocument()
		doc.Language = "fr-FR"
		ctrl.HandleLoad(doc, 0)
		if err := ctrl.Toggle(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		u := fs.utterance(t)
		if u.VoiceID != "" {
			t.Errorf("voice id = %q, want empty with no catalog", u.VoiceID)
		}
		if u.Lang != "fr-FR" {
			t.Errorf("lang = %q, want fr-FR", u.Lang)
		}
	})

	t.Run("policy default locale", func(t *testing.T) {
		fs := &fakeSynth{}
		ctrl := New(Deps{
			View:       &fakeView{},
			Synth:      fs,
			Voices:     voice.NewSelector(fs, voice.DefaultPolicy()),
			Highlights: highlight.New(highlight.Capabilities{}, highlight.WithLogger(discardLogger())),
			Log:        discardLogger(),
		})
		doc := testDocument()
		doc.Language = ""
		ctrl.HandleLoad(doc, 0)
		if err := ctrl.Toggle(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := fs.utterance(t).Lang; got != "en-US" {
			t.Errorf("lang = %q, want the policy default", got)
		}
	})

	t.Run("built-in locale when policy is blank", func(t *testing.T) {
		fs := &fakeSynth{}
		ctrl := New(Deps{
			View:       &fakeView{},
			Synth:      fs,
			Voices:     voice.NewSelector(fs, voice.Policy{}),
			Highlights: highlight.New(highlight.Capabilities{}, highlight.WithLogger(discardLogger())),
			Log:        discardLogger(),
		})
		doc := testDocument()
		doc.Language = ""
		ctrl.HandleLoad(doc, 0)
		if err := ctrl.Toggle(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := fs.utterance(t).Lang; got != "en-US" {
			t.Errorf("lang = %q, want en-US", got)
		}
	})
}

func TestController_RelocateCancelsAndRecords(t *testing.T) {
	h := newHarness(nil)
	h.ctrl.HandleLoad(testDocument(), 0)
	if err := h.ctrl.Toggle(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := h.synth.cancels

	visible := blockRange(2, 0, 25)
	h.ctrl.HandleRelocate(view.RelocateEvent{Section: 0, VisibleRange: &visible})

	if got := h.ctrl.State(); got != Idle {
		t.Errorf("state = %v after relocate, want Idle", got)
	}
	if h.synth.cancels <= before {
		t.Error("relocate did not cancel speech")
	}

	if err := h.ctrl.Toggle(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := h.synth.utterance(t).Text; got != "The clocks were striking." {
		t.Errorf("text = %q, want the recorded visible range", got)
	}
}

func TestController_RelocateWithoutRangeFallsBack(t *testing.T) {
	h := newHarness(nil)
	h.ctrl.HandleLoad(testDocument(), 0)

	visible := blockRange(2, 0, 25)
	h.ctrl.HandleRelocate(view.RelocateEvent{Section: 0, VisibleRange: &visible})
	h.ctrl.HandleRelocate(view.RelocateEvent{Section: 0})

	if err := h.ctrl.Toggle(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Chapter One\nIt was a bright cold day.\nThe clocks were striking."
	if got := h.synth.utterance(t).Text; got != want {
		t.Errorf("text = %q, want the heuristic opening", got)
	}
}

func TestController_RelocateSwitchesSection(t *testing.T) {
	doc := testDocument()
	doc.Sections = append(doc.Sections, document.Section{
		Href:   "ch2",
		Blocks: []document.Block{{Kind: document.Paragraph, Text: "Second chapter."}},
	})

	h := newHarness(nil)
	h.ctrl.HandleLoad(doc, 0)
	h.ctrl.HandleRelocate(view.RelocateEvent{Section: 1})

	if err := h.ctrl.Toggle(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := h.synth.utterance(t).Text; got != "Second chapter." {
		t.Errorf("text = %q, want section 1", got)
	}
	info, ok := h.ctrl.Session()
	if !ok || info.Section != 1 {
		t.Errorf("session = %+v, want section 1", info)
	}
}

func TestController_SessionIDsDiffer(t *testing.T) {
	h := newHarness(nil)
	h.ctrl.HandleLoad(testDocument(), 0)

	if err := h.ctrl.Toggle(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first, _ := h.ctrl.Session()
	h.ctrl.Cancel()

	if err := h.ctrl.Toggle(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _ := h.ctrl.Session()

	if first.ID == second.ID {
		t.Errorf("session ids collide: %q", first.ID)
	}
}

func TestController_RateFlowsIntoUtterance(t *testing.T) {
	fs := &fakeSynth{voices: testCatalog()}
	ctrl := New(Deps{
		View:       &fakeView{},
		Synth:      fs,
		Voices:     voice.NewSelector(fs, voice.DefaultPolicy()),
		Highlights: highlight.New(highlight.Capabilities{}, highlight.WithLogger(discardLogger())),
		Log:        discardLogger(),
		Rate:       1.25,
	})
	ctrl.HandleLoad(testDocument(), 0)
	if err := ctrl.Toggle(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := fs.utterance(t).Rate; got != 1.25 {
		t.Errorf("rate = %v, want 1.25", got)
	}
}
