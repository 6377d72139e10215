package synth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/example/readaloud/internal/audio"
	"github.com/example/readaloud/internal/text"
	"github.com/example/readaloud/internal/voice"
)

// Engine renders utterance text to mono PCM samples.
type Engine interface {
	Synthesize(ctx context.Context, text, voiceID string) (samples []float32, sampleRate int, err error)
}

// Player plays PCM audio without blocking. Stop is idempotent.
type Player interface {
	Play(samples []float32, sampleRate int) error
	Stop()
}

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

type options struct {
	catalog    []voice.Voice
	wpm        float64
	volume     float64
	sampleRate int
	engine     Engine
	player     Player
	logger     *slog.Logger
}

func defaultOptions() options {
	return options{
		catalog: builtinCatalog(),
		wpm:     defaultWPM,
		volume:  1,
		logger:  slog.Default(),
	}
}

// Option configures the local synthesizer.
type Option func(*options)

// WithCatalog replaces the built-in voice catalog.
func WithCatalog(voices []voice.Voice) Option {
	return func(o *options) {
		if len(voices) > 0 {
			o.catalog = voices
		}
	}
}

// WithWordsPerMinute sets the base speaking rate of the boundary clock.
func WithWordsPerMinute(wpm float64) Option {
	return func(o *options) {
		if wpm > 0 {
			o.wpm = wpm
		}
	}
}

// WithVolume scales engine output before playback. Values outside [0, 1]
// are ignored.
func WithVolume(v float64) Option {
	return func(o *options) {
		if v >= 0 && v <= 1 {
			o.volume = v
		}
	}
}

// WithSampleRate fixes the playback rate. Engine output arriving at a
// different rate is resampled; zero plays at whatever rate the engine
// produced.
func WithSampleRate(rate int) Option {
	return func(o *options) {
		if rate > 0 {
			o.sampleRate = rate
		}
	}
}

// WithEngine attaches a real audio engine. The boundary schedule is rescaled
// to the rendered audio's duration.
func WithEngine(e Engine) Option {
	return func(o *options) { o.engine = e }
}

// WithPlayer attaches a playback device for engine output.
func WithPlayer(p Player) Option {
	return func(o *options) { o.player = p }
}

// WithLogger sets the slog.Logger for absorbed synthesis failures.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// ---------------------------------------------------------------------------
// Local
// ---------------------------------------------------------------------------

// Local delivers utterance callbacks from a per-utterance goroutine driven
// by the word schedule. Without an engine it is a silent clock; with one, it
// plays rendered audio while the clock tracks it. One utterance is in flight
// at a time; a bumped generation makes stale deliveries drop themselves.
type Local struct {
	wpm        float64
	volume     float64
	sampleRate int
	engine     Engine
	player     Player
	log        *slog.Logger

	mu         sync.Mutex
	voices     []voice.Voice
	generation uint64
	speaking   bool
	stop       chan struct{}
	changed    []func()
}

// NewLocal builds a local synthesizer.
func NewLocal(optFns ...Option) *Local {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Local{
		wpm:        opts.wpm,
		volume:     opts.volume,
		sampleRate: opts.sampleRate,
		engine:     opts.engine,
		player:     opts.player,
		log:        opts.logger,
		voices:     append([]voice.Voice(nil), opts.catalog...),
	}
}

// Speak schedules u for delivery. It returns ErrBusy while another
// utterance is in flight and an error for blank text.
func (l *Local) Speak(u *Utterance) error {
	if u == nil || text.IsBlank(u.Text) {
		return errors.New("utterance has no text")
	}

	l.mu.Lock()
	if l.speaking {
		l.mu.Unlock()
		return ErrBusy
	}
	l.generation++
	gen := l.generation
	l.speaking = true
	stop := make(chan struct{})
	l.stop = stop
	l.mu.Unlock()

	rate := u.Rate
	if rate <= 0 {
		rate = 1
	}
	sched := buildSchedule(u.Text, l.wpm*rate)

	go l.run(gen, u, sched, stop)
	return nil
}

// Cancel stops the current utterance. Stale deliveries racing this call are
// dropped by the generation check; callers that need stronger ordering tag
// their callbacks with a session identifier.
func (l *Local) Cancel() {
	l.mu.Lock()
	if !l.speaking {
		l.mu.Unlock()
		return
	}
	l.generation++
	l.speaking = false
	stop := l.stop
	l.stop = nil
	l.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	if l.player != nil {
		l.player.Stop()
	}
}

// Speaking reports whether an utterance is in flight.
func (l *Local) Speaking() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.speaking
}

// Voices returns a copy of the current catalog.
func (l *Local) Voices() []voice.Voice {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]voice.Voice(nil), l.voices...)
}

// SetVoices replaces the catalog and notifies listeners.
func (l *Local) SetVoices(voices []voice.Voice) {
	l.mu.Lock()
	l.voices = append([]voice.Voice(nil), voices...)
	fns := append(([]func())(nil), l.changed...)
	l.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// NotifyVoicesChanged registers a hook fired after SetVoices.
func (l *Local) NotifyVoicesChanged(fn func()) {
	l.mu.Lock()
	l.changed = append(l.changed, fn)
	l.mu.Unlock()
}

func (l *Local) current(gen uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return gen == l.generation && l.speaking
}

// run is the per-utterance delivery goroutine.
func (l *Local) run(gen uint64, u *Utterance, sched schedule, stop chan struct{}) {
	if l.engine != nil {
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			select {
			case <-stop:
				cancel()
			case <-ctx.Done():
			}
		}()

		samples, rate, err := l.engine.Synthesize(ctx, u.Text, u.VoiceID)
		cancel()
		if err != nil {
			l.finish(gen, u, err)
			return
		}
		if !l.current(gen) {
			return
		}

		if l.sampleRate > 0 && rate != l.sampleRate {
			samples = audio.Resample(samples, rate, l.sampleRate)
			rate = l.sampleRate
		}
		if d := pcmDuration(len(samples), rate); d > 0 {
			sched = sched.rescale(d)
		}
		if l.player != nil {
			samples = audio.Gain(samples, l.volume)
			if err := l.player.Play(samples, rate); err != nil {
				l.finish(gen, u, err)
				return
			}
		}
	}

	start := time.Now()
	for _, ev := range sched.events {
		if wait := ev.at - time.Since(start); wait > 0 {
			select {
			case <-time.After(wait):
			case <-stop:
				return
			}
		}
		if !l.current(gen) {
			return
		}
		if u.OnBoundary != nil {
			u.OnBoundary(ev.b)
		}
	}

	if tail := sched.total - time.Since(start); tail > 0 {
		select {
		case <-time.After(tail):
		case <-stop:
			return
		}
	}

	l.finish(gen, u, nil)
}

// finish ends the utterance if it is still current and fires exactly one of
// OnEnd or OnError. A cancelled generation fires neither.
func (l *Local) finish(gen uint64, u *Utterance, err error) {
	l.mu.Lock()
	if gen != l.generation || !l.speaking {
		l.mu.Unlock()
		return
	}
	l.speaking = false
	stop := l.stop
	l.stop = nil
	l.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	if l.player != nil {
		l.player.Stop()
	}

	if err != nil {
		l.log.Debug("utterance failed", slog.String("error", err.Error()))
		if u.OnError != nil {
			u.OnError(err)
		}
		return
	}
	if u.OnEnd != nil {
		u.OnEnd()
	}
}
