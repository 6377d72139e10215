// Package input registers system-wide hotkeys, so reading can be toggled
// while another window has focus.
package input

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.design/x/hotkey"
)

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	logger *slog.Logger
}

func defaultOptions() options {
	return options{logger: slog.Default()}
}

// Option configures the manager.
type Option func(*options)

// WithLogger sets the slog.Logger used for hotkey events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ---------------------------------------------------------------------------
// Manager
// ---------------------------------------------------------------------------

// Manager owns one global hotkey registration and invokes a callback on
// every press. The callback runs on the manager's listener goroutine, so it
// must be quick or hand off.
type Manager struct {
	onPress func()
	log     *slog.Logger
	done    chan struct{}

	mu     sync.Mutex
	hk     *hotkey.Hotkey
	cancel context.CancelFunc
}

// NewManager builds a manager calling onPress for each press of the combo
// later given to Start.
func NewManager(onPress func(), optFns ...Option) *Manager {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Manager{
		onPress: onPress,
		log:     opts.logger,
		done:    make(chan struct{}),
	}
}

// Start registers the combo ("ctrl+shift+space" style) with the OS and
// listens until ctx is cancelled or Stop is called.
func (m *Manager) Start(ctx context.Context, combo string) error {
	mods, key, err := parseCombo(combo)
	if err != nil {
		return fmt.Errorf("invalid hotkey %q: %w", combo, err)
	}

	hk := hotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return fmt.Errorf("register hotkey %q: %w", combo, err)
	}

	ctx, cancel := context.WithCancel(ctx)

	m.mu.Lock()
	m.hk = hk
	m.cancel = cancel
	m.mu.Unlock()

	m.log.Debug("hotkey registered", slog.String("combo", combo))

	go func() {
		defer close(m.done)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-hk.Keydown():
				if !ok {
					return
				}
				m.log.Debug("hotkey pressed", slog.String("combo", combo))
				m.onPress()
			}
		}
	}()
	return nil
}

// Stop unregisters the hotkey and waits briefly for the listener to exit.
// Safe to call when Start never ran or failed.
func (m *Manager) Stop() {
	m.mu.Lock()
	hk := m.hk
	cancel := m.cancel
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if hk == nil {
		return
	}
	_ = hk.Unregister()

	select {
	case <-m.done:
	case <-time.After(100 * time.Millisecond):
	}
}

// ---------------------------------------------------------------------------
// Combo parsing
// ---------------------------------------------------------------------------

// parseCombo splits a "ctrl+shift+space" style string into modifiers and
// exactly one key. Modifier and key names are case-insensitive.
func parseCombo(s string) ([]hotkey.Modifier, hotkey.Key, error) {
	var (
		mods     []hotkey.Modifier
		key      hotkey.Key
		keyFound bool
	)

	for _, part := range strings.Split(strings.ToLower(s), "+") {
		part = strings.TrimSpace(part)
		switch part {
		case "ctrl", "control":
			mods = append(mods, hotkey.ModCtrl)
		case "shift":
			mods = append(mods, hotkey.ModShift)
		case "alt", "option":
			mods = append(mods, modAlt())
		case "cmd", "command", "super", "win":
			mods = append(mods, modSuper())
		default:
			if keyFound {
				return nil, 0, fmt.Errorf("extra key %q", part)
			}
			k, err := parseKey(part)
			if err != nil {
				return nil, 0, err
			}
			key = k
			keyFound = true
		}
	}

	if !keyFound {
		return nil, 0, errors.New("missing key")
	}
	return mods, key, nil
}

func parseKey(s string) (hotkey.Key, error) {
	if k, ok := keyNames[s]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("unknown key %q", s)
}

var keyNames = map[string]hotkey.Key{
	"space":  hotkey.KeySpace,
	"return": hotkey.KeyReturn,
	"enter":  hotkey.KeyReturn,
	"tab":    hotkey.KeyTab,
	"escape": hotkey.KeyEscape,
	"esc":    hotkey.KeyEscape,

	"a": hotkey.KeyA,
	"b": hotkey.KeyB,
	"c": hotkey.KeyC,
	"d": hotkey.KeyD,
	"e": hotkey.KeyE,
	"f": hotkey.KeyF,
	"g": hotkey.KeyG,
	"h": hotkey.KeyH,
	"i": hotkey.KeyI,
	"j": hotkey.KeyJ,
	"k": hotkey.KeyK,
	"l": hotkey.KeyL,
	"m": hotkey.KeyM,
	"n": hotkey.KeyN,
	"o": hotkey.KeyO,
	"p": hotkey.KeyP,
	"q": hotkey.KeyQ,
	"r": hotkey.KeyR,
	"s": hotkey.KeyS,
	"t": hotkey.KeyT,
	"u": hotkey.KeyU,
	"v": hotkey.KeyV,
	"w": hotkey.KeyW,
	"x": hotkey.KeyX,
	"y": hotkey.KeyY,
	"z": hotkey.KeyZ,

	"0": hotkey.Key0,
	"1": hotkey.Key1,
	"2": hotkey.Key2,
	"3": hotkey.Key3,
	"4": hotkey.Key4,
	"5": hotkey.Key5,
	"6": hotkey.Key6,
	"7": hotkey.Key7,
	"8": hotkey.Key8,
	"9": hotkey.Key9,

	"f1":  hotkey.KeyF1,
	"f2":  hotkey.KeyF2,
	"f3":  hotkey.KeyF3,
	"f4":  hotkey.KeyF4,
	"f5":  hotkey.KeyF5,
	"f6":  hotkey.KeyF6,
	"f7":  hotkey.KeyF7,
	"f8":  hotkey.KeyF8,
	"f9":  hotkey.KeyF9,
	"f10": hotkey.KeyF10,
	"f11": hotkey.KeyF11,
	"f12": hotkey.KeyF12,
}
