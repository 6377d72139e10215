package audio

import (
	"fmt"
	"strings"

	"github.com/gen2brain/malgo"
)

// PlaybackDeviceInfo identifies one output device.
type PlaybackDeviceInfo struct {
	Name    string
	Default bool
}

// ListPlaybackDevices enumerates the system's playback devices.
func ListPlaybackDevices() ([]PlaybackDeviceInfo, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}
	defer func() {
		_ = ctx.Uninit()
		ctx.Free()
	}()

	infos, err := ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("enumerate playback devices: %w", err)
	}

	devices := make([]PlaybackDeviceInfo, 0, len(infos))
	for _, info := range infos {
		devices = append(devices, PlaybackDeviceInfo{
			Name:    info.Name(),
			Default: info.IsDefault > 0,
		})
	}
	return devices, nil
}

// FindPlaybackDevice returns the first playback device whose name contains
// name, case-insensitively.
func FindPlaybackDevice(name string) (PlaybackDeviceInfo, error) {
	devices, err := ListPlaybackDevices()
	if err != nil {
		return PlaybackDeviceInfo{}, err
	}

	want := strings.ToLower(name)
	for _, d := range devices {
		if strings.Contains(strings.ToLower(d.Name), want) {
			return d, nil
		}
	}
	return PlaybackDeviceInfo{}, fmt.Errorf("no playback device matching %q", name)
}
