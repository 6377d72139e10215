package audio

import "math"

// Hook transforms a PCM buffer in a post-processing chain.
type Hook func(samples []float32) []float32

// ApplyHooks runs samples through hooks in order.
func ApplyHooks(samples []float32, hooks ...Hook) []float32 {
	out := samples
	for _, hook := range hooks {
		out = hook(out)
	}

	return out
}

// normalizeTarget leaves headroom so later stages cannot clip.
const normalizeTarget = 0.95

// PeakNormalize scales samples so the peak amplitude reaches the normalize
// target. Silent buffers pass through unchanged.
func PeakNormalize(samples []float32) []float32 {
	var peak float32
	for _, s := range samples {
		if s > peak {
			peak = s
		} else if -s > peak {
			peak = -s
		}
	}
	if peak == 0 {
		return samples
	}

	gain := float32(normalizeTarget) / peak
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = s * gain
	}
	return out
}

// Gain scales every sample by factor, clamping the result to [-1, 1].
// A unit factor passes the buffer through unchanged.
func Gain(samples []float32, factor float64) []float32 {
	if factor == 1 {
		return samples
	}

	out := make([]float32, len(samples))
	for i, s := range samples {
		v := float64(s) * factor
		out[i] = float32(math.Max(-1, math.Min(1, v)))
	}
	return out
}

// Resample converts samples between rates using linear interpolation.
// Matching rates and buffers too short to interpolate pass through
// unchanged.
func Resample(samples []float32, from, to int) []float32 {
	if from == to || from <= 0 || to <= 0 || len(samples) < 2 {
		return samples
	}

	ratio := float64(from) / float64(to)
	n := int(float64(len(samples)) / ratio)
	if n < 1 {
		n = 1
	}

	out := make([]float32, n)
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		frac := pos - float64(idx)

		s0 := sampleAt(samples, idx)
		s1 := sampleAt(samples, idx+1)
		out[i] = s0 + float32(frac)*(s1-s0)
	}
	return out
}

// sampleAt clamps idx into the buffer so tail interpolation reuses the last
// sample.
func sampleAt(samples []float32, idx int) float32 {
	if idx >= len(samples) {
		idx = len(samples) - 1
	}
	if idx < 0 {
		return 0
	}
	return samples[idx]
}

// DCBlock removes constant offset with a single-pole high-pass filter whose
// cutoff sits around 20 Hz, well below speech fundamentals.
func DCBlock(samples []float32, sampleRate int) []float32 {
	if len(samples) == 0 || sampleRate <= 0 {
		return samples
	}

	r := float32(1.0 - 2.0*math.Pi*20.0/float64(sampleRate))
	out := make([]float32, len(samples))

	var prevIn, prevOut float32
	for i, s := range samples {
		out[i] = s - prevIn + r*prevOut
		prevIn = s
		prevOut = out[i]
	}
	return out
}

// FadeIn applies a linear ramp over the first ms milliseconds.
func FadeIn(samples []float32, sampleRate int, ms float64) []float32 {
	n := fadeSpan(len(samples), sampleRate, ms)
	if n == 0 {
		return samples
	}

	out := append([]float32(nil), samples...)
	for i := 0; i < n; i++ {
		out[i] *= float32(i) / float32(n)
	}
	return out
}

// FadeOut applies a linear ramp over the last ms milliseconds.
func FadeOut(samples []float32, sampleRate int, ms float64) []float32 {
	n := fadeSpan(len(samples), sampleRate, ms)
	if n == 0 {
		return samples
	}

	out := append([]float32(nil), samples...)
	last := len(out) - 1
	for i := 0; i < n; i++ {
		out[last-i] *= float32(i) / float32(n)
	}
	return out
}

func fadeSpan(total, sampleRate int, ms float64) int {
	if total == 0 || sampleRate <= 0 || ms <= 0 {
		return 0
	}
	n := int(float64(sampleRate) * ms / 1000.0)
	if n > total {
		n = total
	}
	return n
}
