// Package annotations holds imported reader annotations: highlights and
// bookmarks keyed by section href. Import only; writing annotation files
// back is out of scope.
package annotations

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/example/readaloud/internal/document"
)

// Annotation kinds accepted by the importers.
const (
	TypeHighlight = "highlight"
	TypeBookmark  = "bookmark"
)

// Annotation marks a span of section text. A bookmark is a collapsed
// annotation: End equals Start.
type Annotation struct {
	Href  string            `json:"href" yaml:"href"`
	Start document.Position `json:"start" yaml:"start"`
	End   document.Position `json:"end" yaml:"end"`
	Text  string            `json:"text,omitempty" yaml:"text,omitempty"`
	Note  string            `json:"note,omitempty" yaml:"note,omitempty"`
	Color string            `json:"color,omitempty" yaml:"color,omitempty"`
}

// Range returns the annotation's span.
func (a Annotation) Range() document.Range {
	return document.Range{Start: a.Start, End: a.End}
}

// entry is the import wire shape: an annotation plus its type tag.
type entry struct {
	Type       string `json:"type" yaml:"type"`
	Annotation `yaml:",inline"`
}

// ImportJSON reads an annotation export: a JSON array of objects tagged
// with type "highlight" or "bookmark". Entries of other types or without an
// href are skipped.
func ImportJSON(r io.Reader) ([]Annotation, error) {
	var entries []entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode annotations: %w", err)
	}
	return collect(entries), nil
}

// ImportYAML reads the same annotation shape from YAML.
func ImportYAML(r io.Reader) ([]Annotation, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read annotations: %w", err)
	}
	var entries []entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode annotations: %w", err)
	}
	return collect(entries), nil
}

func collect(entries []entry) []Annotation {
	var out []Annotation
	for _, e := range entries {
		if e.Href == "" {
			continue
		}
		a := e.Annotation
		switch e.Type {
		case TypeHighlight:
			if a.End.Compare(a.Start) < 0 {
				a.Start, a.End = a.End, a.Start
			}
		case TypeBookmark:
			a.End = a.Start
		default:
			continue
		}
		out = append(out, a)
	}
	return out
}

// Store keeps annotations grouped by section href.
type Store struct {
	mu     sync.RWMutex
	byHref map[string][]Annotation
}

// NewStore builds an empty store.
func NewStore() *Store {
	return &Store{byHref: make(map[string][]Annotation)}
}

// Add inserts one annotation.
func (s *Store) Add(a Annotation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byHref[a.Href] = append(s.byHref[a.Href], a)
}

// AddAll inserts a batch, typically an importer's result.
func (s *Store) AddAll(list []Annotation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range list {
		s.byHref[a.Href] = append(s.byHref[a.Href], a)
	}
}

// ForSection returns the section's annotations ordered by start position.
// The result is a copy.
func (s *Store) ForSection(href string) []Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.byHref[href]
	if len(list) == 0 {
		return nil
	}
	out := append([]Annotation(nil), list...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Compare(out[j].Start) < 0
	})
	return out
}

// Len counts all stored annotations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, list := range s.byHref {
		n += len(list)
	}
	return n
}
