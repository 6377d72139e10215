package input

import (
	"slices"
	"testing"

	"golang.design/x/hotkey"
)

func TestParseCombo(t *testing.T) {
	cases := []struct {
		name  string
		combo string
		mods  []hotkey.Modifier
		key   hotkey.Key
	}{
		{"modified letter", "ctrl+r", []hotkey.Modifier{hotkey.ModCtrl}, hotkey.KeyR},
		{"two modifiers", "ctrl+shift+space", []hotkey.Modifier{hotkey.ModCtrl, hotkey.ModShift}, hotkey.KeySpace},
		{"case and spacing", " Ctrl + Shift + F9 ", []hotkey.Modifier{hotkey.ModCtrl, hotkey.ModShift}, hotkey.KeyF9},
		{"bare function key", "f5", nil, hotkey.KeyF5},
		{"control alias", "control+p", []hotkey.Modifier{hotkey.ModCtrl}, hotkey.KeyP},
		{"enter alias", "ctrl+enter", []hotkey.Modifier{hotkey.ModCtrl}, hotkey.KeyReturn},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mods, key, err := parseCombo(tc.combo)
			if err != nil {
				t.Fatalf("parseCombo(%q): %v", tc.combo, err)
			}
			if !slices.Equal(mods, tc.mods) {
				t.Errorf("mods = %v; want %v", mods, tc.mods)
			}
			if key != tc.key {
				t.Errorf("key = %v; want %v", key, tc.key)
			}
		})
	}
}

func TestParseCombo_Errors(t *testing.T) {
	cases := []struct {
		name  string
		combo string
	}{
		{"empty", ""},
		{"only modifiers", "ctrl+shift"},
		{"two keys", "ctrl+a+b"},
		{"unknown key", "ctrl+meteor"},
		{"trailing plus", "ctrl+"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := parseCombo(tc.combo); err == nil {
				t.Errorf("parseCombo(%q) = nil error; want error", tc.combo)
			}
		})
	}
}

func TestParseCombo_PlatformModifiers(t *testing.T) {
	mods, key, err := parseCombo("alt+cmd+a")
	if err != nil {
		t.Fatalf("parseCombo: %v", err)
	}
	if len(mods) != 2 {
		t.Errorf("len(mods) = %d; want 2", len(mods))
	}
	if key != hotkey.KeyA {
		t.Errorf("key = %v; want KeyA", key)
	}
}

func TestManager_StopBeforeStart(t *testing.T) {
	m := NewManager(func() {})
	m.Stop()
}
