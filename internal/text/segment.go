package text

import "unicode"

// Span is a segment of a larger text with its position recorded as rune
// offsets into that text. Start is the offset of the first rune, End is one
// past the last.
type Span struct {
	Text  string
	Start int
	End   int
}

// Len returns the span length in runes.
func (s Span) Len() int { return s.End - s.Start }

// Words splits s into whitespace-separated words and records the rune span
// of each. Punctuation stays attached to its word, which matches the
// granularity of synthesizer word-boundary events.
func Words(s string) []Span {
	runes := []rune(s)

	var spans []Span
	start := -1
	for i, r := range runes {
		if unicode.IsSpace(r) {
			if start >= 0 {
				spans = append(spans, Span{Text: string(runes[start:i]), Start: start, End: i})
				start = -1
			}
		} else if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		spans = append(spans, Span{Text: string(runes[start:]), Start: start, End: len(runes)})
	}

	return spans
}

// Sentences splits s on sentence-ending punctuation (., !, ?), keeping the
// terminator attached to its sentence. Surrounding whitespace is excluded
// from each span. Empty segments are dropped.
func Sentences(s string) []Span {
	runes := []rune(s)

	var spans []Span
	start := 0
	for i, r := range runes {
		if r == '.' || r == '!' || r == '?' {
			if sp, ok := trimmedSpan(runes, start, i+1); ok {
				spans = append(spans, sp)
			}
			start = i + 1
		}
	}
	if sp, ok := trimmedSpan(runes, start, len(runes)); ok {
		spans = append(spans, sp)
	}

	return spans
}

// EndsSentence reports whether w ends with sentence-final punctuation,
// ignoring trailing quotes and brackets.
func EndsSentence(w string) bool {
	runes := []rune(w)
	for i := len(runes) - 1; i >= 0; i-- {
		switch runes[i] {
		case '"', '\'', ')', ']', '»', '”', '’':
			continue
		case '.', '!', '?', '…':
			return true
		default:
			return false
		}
	}
	return false
}

func trimmedSpan(runes []rune, start, end int) (Span, bool) {
	for start < end && unicode.IsSpace(runes[start]) {
		start++
	}
	for end > start && unicode.IsSpace(runes[end-1]) {
		end--
	}
	if start == end {
		return Span{}, false
	}
	return Span{Text: string(runes[start:end]), Start: start, End: end}, true
}
