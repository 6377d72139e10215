package voice

import (
	"strings"
	"sync"
)

// Source lists currently available voices. Satisfied by synthesizers.
type Source interface {
	Voices() []Voice
}

// notifier is implemented by sources whose voice list can change after
// startup (platform catalogs load asynchronously).
type notifier interface {
	NotifyVoicesChanged(func())
}

// Entry is one row of the voice menu.
type Entry struct {
	Voice   Voice
	Checked bool
}

// Selector applies a Policy to a voice source and tracks the selected voice
// by ID. The stored ID is resolved against the source's current list on
// every read, so a voice that disappears simply stops resolving.
type Selector struct {
	src    Source
	policy Policy

	mu       sync.Mutex
	selected string
	onChange []func()
}

// NewSelector binds a selector to a voice source. If the source announces
// voice-list changes, the selector re-announces them to its own listeners.
func NewSelector(src Source, policy Policy) *Selector {
	s := &Selector{src: src, policy: policy}
	if n, ok := src.(notifier); ok {
		n.NotifyVoicesChanged(s.Refresh)
	}
	return s
}

// Policy returns the selector's policy.
func (s *Selector) Policy() Policy { return s.policy }

// Menu returns the filtered, ranked, deduplicated voice list. At most one
// entry is checked: the one whose ID is currently selected.
func (s *Selector) Menu() []Entry {
	s.mu.Lock()
	selected := s.selected
	s.mu.Unlock()

	voices := Dedupe(Rank(Filter(s.src.Voices(), s.policy)))

	entries := make([]Entry, 0, len(voices))
	for _, v := range voices {
		entries = append(entries, Entry{Voice: v, Checked: v.ID == selected})
	}
	return entries
}

// Select records an explicit voice pick. The ID is not validated against the
// menu; an ID that later disappears fails resolution at speak time instead.
func (s *Selector) Select(id string) {
	s.mu.Lock()
	s.selected = id
	fns := append(([]func())(nil), s.onChange...)
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// AutoSelect picks the best voice for a document language: candidates are
// voices whose tag starts with the language's primary subtag and whose name
// passes the allow-list, ranked by score. On a hit the selection is
// overwritten and the pick returned; on a miss the selection is untouched.
func (s *Selector) AutoSelect(lang string) (Voice, bool) {
	primary := primarySubtag(lang, s.policy.PrimaryFallback)

	var candidates []Voice
	for _, v := range s.src.Voices() {
		if strings.HasPrefix(strings.ToLower(v.Lang), primary) && matchName(v.Name, s.policy.Names) {
			candidates = append(candidates, v)
		}
	}

	ranked := Rank(candidates)
	if len(ranked) == 0 {
		return Voice{}, false
	}

	s.Select(ranked[0].ID)
	return ranked[0], true
}

// Selected resolves the stored ID against the source's current voice list.
func (s *Selector) Selected() (Voice, bool) {
	s.mu.Lock()
	id := s.selected
	s.mu.Unlock()

	if id == "" {
		return Voice{}, false
	}
	for _, v := range s.src.Voices() {
		if v.ID == id {
			return v, true
		}
	}
	return Voice{}, false
}

// OnChange registers a hook invoked after every selection change and on
// Refresh. Menus rebuild themselves from it.
func (s *Selector) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = append(s.onChange, fn)
	s.mu.Unlock()
}

// Refresh re-announces the menu, for when the source's voice list changed.
func (s *Selector) Refresh() {
	s.mu.Lock()
	fns := append(([]func())(nil), s.onChange...)
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func primarySubtag(lang, fallback string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return strings.ToLower(fallback)
	}
	primary, _, _ := strings.Cut(lang, "-")
	if primary == "" {
		return strings.ToLower(fallback)
	}
	return strings.ToLower(primary)
}
