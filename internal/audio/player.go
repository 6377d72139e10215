package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
)

// Device plays mono PCM through the system's default output. One buffer
// plays at a time; Play replaces whatever was playing. The zero Device is
// not usable; construct with NewDevice and Close when done.
type Device struct {
	mu  sync.Mutex // guards context and device lifecycle
	ctx *malgo.AllocatedContext
	dev *malgo.Device

	bufMu   sync.Mutex // guards the playback cursor, touched by the data callback
	samples []int16
	pos     int
}

// NewDevice initializes the audio backend.
func NewDevice() (*Device, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}
	return &Device{ctx: ctx}, nil
}

// Play starts playback of samples at sampleRate, replacing any current
// playback. It returns once the device is running.
func (d *Device) Play(samples []float32, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", sampleRate)
	}

	pcm := make([]int16, len(samples))
	for i, s := range samples {
		clamped := math.Max(-1.0, math.Min(1.0, float64(s)))
		pcm[i] = int16(clamped * 32767)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ctx == nil {
		return fmt.Errorf("audio device is closed")
	}
	d.stopLocked()

	d.bufMu.Lock()
	d.samples = pcm
	d.pos = 0
	d.bufMu.Unlock()

	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatS16
	cfg.Playback.Channels = Channels
	cfg.SampleRate = uint32(sampleRate)

	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutputSample, _ []byte, _ uint32) {
			d.fill(pOutputSample)
		},
	}

	dev, err := malgo.InitDevice(d.ctx.Context, cfg, callbacks)
	if err != nil {
		return fmt.Errorf("init playback device: %w", err)
	}
	if err := dev.Start(); err != nil {
		dev.Uninit()
		return fmt.Errorf("start playback device: %w", err)
	}

	d.dev = dev
	return nil
}

// Stop halts playback. Safe to call repeatedly or when idle.
func (d *Device) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

// Close stops playback and releases the audio backend.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	if d.ctx == nil {
		return nil
	}

	err := d.ctx.Uninit()
	d.ctx.Free()
	d.ctx = nil
	return err
}

func (d *Device) stopLocked() {
	if d.dev != nil {
		d.dev.Uninit()
		d.dev = nil
	}

	d.bufMu.Lock()
	d.samples = nil
	d.pos = 0
	d.bufMu.Unlock()
}

// fill writes the next PCM bytes into the device buffer, zero-filling once
// the samples run out.
func (d *Device) fill(out []byte) {
	d.bufMu.Lock()
	defer d.bufMu.Unlock()

	for i := 0; i+1 < len(out); i += 2 {
		var v int16
		if d.pos < len(d.samples) {
			v = d.samples[d.pos]
			d.pos++
		}
		binary.LittleEndian.PutUint16(out[i:], uint16(v))
	}
}
