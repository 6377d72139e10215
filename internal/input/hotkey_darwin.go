//go:build darwin

package input

import "golang.design/x/hotkey"

// macOS calls Alt the Option key; Super is Command.
func modAlt() hotkey.Modifier   { return hotkey.ModOption }
func modSuper() hotkey.Modifier { return hotkey.ModCmd }
