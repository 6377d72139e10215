// Package synth defines the speech synthesizer contract the controller
// drives, plus a local implementation that delivers word boundaries from a
// words-per-minute timing model, optionally backed by a real audio engine.
package synth

import (
	"errors"

	"github.com/example/readaloud/internal/voice"
)

// Boundary names. Controllers highlight on word boundaries; sentence
// boundaries are informational.
const (
	BoundaryWord     = "word"
	BoundarySentence = "sentence"
)

// ErrBusy is returned by Speak while another utterance is in flight.
var ErrBusy = errors.New("synthesizer is busy")

// Boundary reports that speech reached the span
// [CharIndex, CharIndex+CharLength) of the utterance text, in runes.
type Boundary struct {
	Name       string
	CharIndex  int
	CharLength int
}

// Utterance is one speech request. Callbacks are invoked from the
// synthesizer's delivery goroutine; they must not block.
type Utterance struct {
	Text    string
	VoiceID string
	// Lang is the fallback language tag when VoiceID is empty, letting the
	// synthesizer pick a voice.
	Lang string
	// Rate is a speaking-rate multiplier; 0 means 1.
	Rate float64

	OnBoundary func(Boundary)
	OnEnd      func()
	OnError    func(error)
}

// Synthesizer is the platform speech surface.
type Synthesizer interface {
	// Speak starts the utterance and returns once delivery is scheduled.
	Speak(u *Utterance) error
	// Cancel stops the current utterance. No end or error callback fires
	// for a cancelled utterance. Safe to call when idle.
	Cancel()
	// Speaking reports whether an utterance is in flight.
	Speaking() bool
	// Voices lists the currently available voices.
	Voices() []voice.Voice
	// NotifyVoicesChanged registers a hook for voice-list changes.
	NotifyVoicesChanged(fn func())
}
