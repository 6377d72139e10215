package synth

import (
	"strings"
	"time"

	"github.com/example/readaloud/internal/text"
)

const (
	// defaultWPM is the speaking rate assumed when none is configured.
	defaultWPM = 165.0

	// avgWordRunes anchors the per-word length adjustment: a word of this
	// length takes exactly the base word duration.
	avgWordRunes = 5.0

	sentencePause = 350 * time.Millisecond
	clausePause   = 150 * time.Millisecond
)

// event is one scheduled boundary delivery.
type event struct {
	at time.Duration
	b  Boundary
}

type schedule struct {
	events []event
	total  time.Duration
}

// buildSchedule lays out boundary events for s on a words-per-minute clock.
// Each word's duration scales with its rune length around the wpm base, with
// pauses appended after clause and sentence punctuation. A sentence boundary
// is emitted at the start time of its first word.
func buildSchedule(s string, wpm float64) schedule {
	if wpm <= 0 {
		wpm = defaultWPM
	}
	base := time.Duration(float64(time.Minute) / wpm)

	words := text.Words(s)
	sentences := text.Sentences(s)

	var (
		events []event
		cursor time.Duration
		si     int
	)
	for _, w := range words {
		for si < len(sentences) && w.Start >= sentences[si].Start {
			events = append(events, event{
				at: cursor,
				b: Boundary{
					Name:       BoundarySentence,
					CharIndex:  sentences[si].Start,
					CharLength: sentences[si].Len(),
				},
			})
			si++
		}

		events = append(events, event{
			at: cursor,
			b: Boundary{
				Name:       BoundaryWord,
				CharIndex:  w.Start,
				CharLength: w.Len(),
			},
		})

		d := time.Duration(float64(base) * (0.5 + 0.5*float64(w.Len())/avgWordRunes))
		switch {
		case text.EndsSentence(w.Text):
			d += sentencePause
		case strings.HasSuffix(w.Text, ",") || strings.HasSuffix(w.Text, ";") || strings.HasSuffix(w.Text, ":"):
			d += clausePause
		}
		cursor += d
	}

	return schedule{events: events, total: cursor}
}

// rescale stretches the schedule to a known total duration, used when real
// audio length is available.
func (s schedule) rescale(total time.Duration) schedule {
	if s.total <= 0 || total <= 0 {
		return s
	}

	f := float64(total) / float64(s.total)
	out := schedule{events: make([]event, len(s.events)), total: total}
	for i, ev := range s.events {
		out.events[i] = event{at: time.Duration(float64(ev.at) * f), b: ev.b}
	}
	return out
}

// pcmDuration converts a sample count at a given rate to wall time.
func pcmDuration(samples, rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(float64(samples) / float64(rate) * float64(time.Second))
}
