// Package reader ties the pieces together: a view, the speech controller,
// and imported annotations, plus drop-folder loading through a directory
// watcher.
package reader

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/example/readaloud/internal/annotations"
	"github.com/example/readaloud/internal/document"
	"github.com/example/readaloud/internal/highlight"
	"github.com/example/readaloud/internal/tts"
	"github.com/example/readaloud/internal/view"
)

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

type options struct {
	notes  *annotations.Store
	logger *slog.Logger
}

func defaultOptions() options {
	return options{
		notes:  annotations.NewStore(),
		logger: slog.Default(),
	}
}

// Option configures the shell.
type Option func(*options)

// WithAnnotations attaches a pre-filled annotation store.
func WithAnnotations(s *annotations.Store) Option {
	return func(o *options) {
		if s != nil {
			o.notes = s
		}
	}
}

// WithLogger sets the shell's logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// ---------------------------------------------------------------------------
// Shell
// ---------------------------------------------------------------------------

// Shell owns one view and its speech controller. It forwards view events
// into the controller and keeps section annotations drawn.
type Shell struct {
	view  view.View
	ctrl  *tts.Controller
	notes *annotations.Store
	log   *slog.Logger

	mu         sync.Mutex
	doc        *document.Document
	sectionIdx int
	path       string
	drawings   []highlight.Drawing
}

// NewShell wires v and ctrl together. The shell registers for the view's
// load and relocate events; nothing else may consume them on its behalf.
func NewShell(v view.View, ctrl *tts.Controller, optFns ...Option) *Shell {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Shell{
		view:  v,
		ctrl:  ctrl,
		notes: opts.notes,
		log:   opts.logger,
	}
	v.OnLoad(s.handleLoad)
	v.OnRelocate(s.handleRelocate)
	return s
}

// Open loads the document at path (a file, or a directory read as one
// document) into the view.
func (s *Shell) Open(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	var doc *document.Document
	if info.IsDir() {
		doc, err = document.LoadDir(path)
	} else {
		doc, err = document.Load(path)
	}
	if err != nil {
		return err
	}

	if err := s.view.Load(doc, 0); err != nil {
		return fmt.Errorf("present %s: %w", path, err)
	}

	s.mu.Lock()
	s.path = path
	s.mu.Unlock()

	s.log.Info("document opened",
		slog.String("path", path),
		slog.String("title", doc.Title),
		slog.Int("sections", len(doc.Sections)))
	return nil
}

// ImportAnnotations reads a JSON or YAML annotation export into the store
// and redraws the current section. It reports how many entries were kept.
func (s *Shell) ImportAnnotations(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open annotations: %w", err)
	}
	defer f.Close()

	var list []annotations.Annotation
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		list, err = annotations.ImportJSON(f)
	case ".yaml", ".yml":
		list, err = annotations.ImportYAML(f)
	default:
		return 0, fmt.Errorf("unsupported annotation format %q", ext)
	}
	if err != nil {
		return 0, err
	}

	s.notes.AddAll(list)

	s.mu.Lock()
	doc := s.doc
	s.mu.Unlock()
	if doc != nil {
		s.drawAnnotations(doc, s.section())
	}
	return len(list), nil
}

// View returns the wired view, for navigation surfaces.
func (s *Shell) View() view.View { return s.view }

// Controller returns the wired speech controller.
func (s *Shell) Controller() *tts.Controller { return s.ctrl }

// Document returns the loaded document, if any.
func (s *Shell) Document() (*document.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc, s.doc != nil
}

// Path returns the path the current document was opened from.
func (s *Shell) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

func (s *Shell) section() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sectionIdx
}

// ---------------------------------------------------------------------------
// View events
// ---------------------------------------------------------------------------

func (s *Shell) handleLoad(ev view.LoadEvent) {
	s.ctrl.HandleLoad(ev.Doc, ev.Section)

	s.mu.Lock()
	s.doc = ev.Doc
	s.sectionIdx = ev.Section
	s.mu.Unlock()

	s.drawAnnotations(ev.Doc, ev.Section)
}

func (s *Shell) handleRelocate(ev view.RelocateEvent) {
	s.ctrl.HandleRelocate(ev)

	s.mu.Lock()
	doc := s.doc
	s.sectionIdx = ev.Section
	s.mu.Unlock()

	if doc != nil {
		s.drawAnnotations(doc, ev.Section)
	}
}

// drawAnnotations replaces the section's annotation drawings. The TTS word
// highlight lives in the renderer and is untouched here.
func (s *Shell) drawAnnotations(doc *document.Document, section int) {
	provider, ok := s.view.(highlight.OverlayProvider)
	if !ok {
		return
	}

	s.mu.Lock()
	old := s.drawings
	s.drawings = nil
	s.mu.Unlock()
	for _, d := range old {
		d.Remove()
	}

	if section < 0 || section >= len(doc.Sections) {
		return
	}
	notes := s.notes.ForSection(doc.Sections[section].Href)
	if len(notes) == 0 {
		return
	}
	overlay, ok := provider.Overlay(section)
	if !ok {
		return
	}

	var live []highlight.Drawing
	for _, a := range notes {
		if a.Range().Collapsed() {
			continue
		}
		color := a.Color
		if color == "" {
			color = highlight.Color
		}
		d, err := overlay.Draw(a.Range(), color)
		if err != nil {
			s.log.Debug("annotation draw failed",
				slog.String("href", a.Href),
				slog.String("error", err.Error()))
			continue
		}
		live = append(live, d)
	}

	s.mu.Lock()
	s.drawings = append(s.drawings, live...)
	s.mu.Unlock()
}
