// Package voice implements the voice selection policy: filtering noisy
// platform voice lists down to known-good entries, ranking them, and keeping
// one selected voice that resolves against whatever the synthesizer
// currently offers.
package voice

import (
	"sort"
	"strings"

	"github.com/example/readaloud/internal/text"
)

// Voice describes one synthesizer voice.
type Voice struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Lang string `json:"lang" yaml:"lang"` // BCP 47 tag
}

// Score ranks a voice for menu ordering and auto-selection. Premium and
// enhanced variants outrank their plain siblings, compact variants sink.
func Score(v Voice) int {
	score := 0
	if strings.Contains(v.Name, "Premium") || strings.Contains(v.Name, "Enhanced") {
		score += 10
	}
	if strings.Contains(v.Name, "Google") {
		score += 5
	}
	if strings.Contains(strings.ToLower(v.ID), "compact") {
		score -= 10
	}
	return score
}

// Filter keeps voices whose language tag matches one of the policy locales
// (case-insensitive) and whose display name contains one of the policy name
// substrings. An empty locale or name list allows everything.
func Filter(voices []Voice, p Policy) []Voice {
	var out []Voice
	for _, v := range voices {
		if matchLocale(v.Lang, p.Locales) && matchName(v.Name, p.Names) {
			out = append(out, v)
		}
	}
	return out
}

// Rank returns voices sorted by descending score. The sort is stable, so
// equally scored voices keep their enumeration order.
func Rank(voices []Voice) []Voice {
	ranked := append([]Voice(nil), voices...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return Score(ranked[i]) > Score(ranked[j])
	})
	return ranked
}

// Dedupe collapses quality variants of the same voice to one entry. Voices
// group by (name with quality qualifiers stripped, language tag); the first
// entry per group wins, which after Rank is the best-scored variant.
func Dedupe(voices []Voice) []Voice {
	type key struct{ name, lang string }

	seen := make(map[key]bool, len(voices))
	var out []Voice
	for _, v := range voices {
		k := key{name: stripQualifiers(v.Name), lang: v.Lang}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}

var qualifierReplacer = strings.NewReplacer(
	"(Premium)", "",
	"(Enhanced)", "",
	"Premium", "",
	"Enhanced", "",
)

func stripQualifiers(name string) string {
	return text.CollapseSpaces(qualifierReplacer.Replace(name))
}

func matchLocale(lang string, locales []string) bool {
	if len(locales) == 0 {
		return true
	}
	for _, l := range locales {
		if strings.EqualFold(lang, l) {
			return true
		}
	}
	return false
}

func matchName(name string, subs []string) bool {
	if len(subs) == 0 {
		return true
	}
	for _, s := range subs {
		if strings.Contains(name, s) {
			return true
		}
	}
	return false
}
