//go:build linux

package input

import "golang.design/x/hotkey"

// X11 numbers its modifiers: Mod1 is Alt, Mod4 is Super.
func modAlt() hotkey.Modifier   { return hotkey.Mod1 }
func modSuper() hotkey.Modifier { return hotkey.Mod4 }
