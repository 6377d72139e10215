package audio

import (
	"math"
	"testing"
)

func TestApplyHooks(t *testing.T) {
	double := func(samples []float32) []float32 {
		out := make([]float32, len(samples))
		for i, s := range samples {
			out[i] = s * 2
		}
		return out
	}
	addOne := func(samples []float32) []float32 {
		out := make([]float32, len(samples))
		for i, s := range samples {
			out[i] = s + 1
		}
		return out
	}

	t.Run("runs hooks in order", func(t *testing.T) {
		out := ApplyHooks([]float32{1}, double, addOne)
		if out[0] != 3 {
			t.Errorf("got %f, want 3 (double then addOne)", out[0])
		}
	})

	t.Run("no hooks returns input", func(t *testing.T) {
		in := []float32{0.25, -0.5}
		out := ApplyHooks(in)
		if len(out) != 2 || out[0] != 0.25 || out[1] != -0.5 {
			t.Errorf("got %v, want input unchanged", out)
		}
	})
}

func TestPeakNormalize(t *testing.T) {
	t.Run("scales peak to target", func(t *testing.T) {
		out := PeakNormalize([]float32{0.5, -0.25})
		if math.Abs(float64(out[0])-0.95) > 1e-6 {
			t.Errorf("peak = %f, want 0.95", out[0])
		}
		if math.Abs(float64(out[1])+0.475) > 1e-6 {
			t.Errorf("second sample = %f, want -0.475", out[1])
		}
	})

	t.Run("negative peak counts", func(t *testing.T) {
		out := PeakNormalize([]float32{-0.5, 0.1})
		if math.Abs(float64(out[0])+0.95) > 1e-6 {
			t.Errorf("peak = %f, want -0.95", out[0])
		}
	})

	t.Run("silence passes through", func(t *testing.T) {
		out := PeakNormalize([]float32{0, 0, 0})
		for i, s := range out {
			if s != 0 {
				t.Errorf("sample[%d] = %f, want 0", i, s)
			}
		}
	})

	t.Run("does not mutate input", func(t *testing.T) {
		in := []float32{0.5}
		_ = PeakNormalize(in)
		if in[0] != 0.5 {
			t.Errorf("input mutated to %f", in[0])
		}
	})
}

func TestGain(t *testing.T) {
	t.Run("scales samples", func(t *testing.T) {
		out := Gain([]float32{0.5, -0.2}, 0.5)
		if math.Abs(float64(out[0])-0.25) > 1e-6 {
			t.Errorf("first sample = %f, want 0.25", out[0])
		}
		if math.Abs(float64(out[1])+0.1) > 1e-6 {
			t.Errorf("second sample = %f, want -0.1", out[1])
		}
	})

	t.Run("clamps to unit range", func(t *testing.T) {
		out := Gain([]float32{0.9, -0.9}, 2)
		if out[0] != 1 {
			t.Errorf("positive clamp = %f, want 1", out[0])
		}
		if out[1] != -1 {
			t.Errorf("negative clamp = %f, want -1", out[1])
		}
	})

	t.Run("unit factor passes through", func(t *testing.T) {
		in := []float32{0.3}
		out := Gain(in, 1)
		if &out[0] != &in[0] {
			t.Error("unit gain should return the input buffer")
		}
	})

	t.Run("does not mutate input", func(t *testing.T) {
		in := []float32{0.5}
		_ = Gain(in, 0.5)
		if in[0] != 0.5 {
			t.Errorf("input mutated to %f", in[0])
		}
	})
}

func TestResample(t *testing.T) {
	t.Run("downsampling halves the buffer", func(t *testing.T) {
		in := []float32{0, 0.2, 0.4, 0.6, 0.8, 1, 0.8, 0.6}
		out := Resample(in, 44100, 22050)
		if len(out) != 4 {
			t.Fatalf("got %d samples, want 4", len(out))
		}
		// A 2:1 ratio lands every output sample on an input sample.
		want := []float32{0, 0.4, 0.8, 0.8}
		for i, s := range out {
			if math.Abs(float64(s-want[i])) > 1e-6 {
				t.Errorf("sample %d = %f, want %f", i, s, want[i])
			}
		}
	})

	t.Run("upsampling interpolates midpoints", func(t *testing.T) {
		out := Resample([]float32{0, 1}, 11025, 22050)
		if len(out) != 4 {
			t.Fatalf("got %d samples, want 4", len(out))
		}
		want := []float32{0, 0.5, 1, 1}
		for i, s := range out {
			if math.Abs(float64(s-want[i])) > 1e-6 {
				t.Errorf("sample %d = %f, want %f", i, s, want[i])
			}
		}
	})

	t.Run("matching rates pass through", func(t *testing.T) {
		in := []float32{0.1, 0.2}
		out := Resample(in, 22050, 22050)
		if &out[0] != &in[0] {
			t.Error("equal rates should return the input buffer")
		}
	})

	t.Run("single sample passes through", func(t *testing.T) {
		in := []float32{0.5}
		out := Resample(in, 44100, 22050)
		if len(out) != 1 || out[0] != 0.5 {
			t.Errorf("got %v, want the input unchanged", out)
		}
	})
}

func TestDCBlock(t *testing.T) {
	t.Run("removes constant offset", func(t *testing.T) {
		in := make([]float32, 1000)
		for i := range in {
			in[i] = 0.25
		}
		out := DCBlock(in, 22050)
		if out[0] != 0.25 {
			t.Errorf("first sample = %f, want 0.25", out[0])
		}
		if tail := math.Abs(float64(out[len(out)-1])); tail > 0.01 {
			t.Errorf("tail = %f, want near zero", tail)
		}
	})

	t.Run("empty input passes through", func(t *testing.T) {
		if out := DCBlock(nil, 22050); len(out) != 0 {
			t.Errorf("got %d samples, want 0", len(out))
		}
	})

	t.Run("invalid rate passes through", func(t *testing.T) {
		in := []float32{0.5}
		out := DCBlock(in, 0)
		if out[0] != 0.5 {
			t.Errorf("got %f, want 0.5", out[0])
		}
	})
}

func TestFadeIn(t *testing.T) {
	ones := func(n int) []float32 {
		out := make([]float32, n)
		for i := range out {
			out[i] = 1
		}
		return out
	}

	t.Run("ramps from zero", func(t *testing.T) {
		out := FadeIn(ones(20), 1000, 10) // 10 ms at 1 kHz = 10 samples
		if out[0] != 0 {
			t.Errorf("first sample = %f, want 0", out[0])
		}
		if out[5] != 0.5 {
			t.Errorf("mid-ramp sample = %f, want 0.5", out[5])
		}
		if out[10] != 1 {
			t.Errorf("post-ramp sample = %f, want 1", out[10])
		}
	})

	t.Run("clamps ramp to buffer length", func(t *testing.T) {
		out := FadeIn(ones(5), 1000, 100)
		if out[0] != 0 {
			t.Errorf("first sample = %f, want 0", out[0])
		}
		if out[4] != 0.8 {
			t.Errorf("last sample = %f, want 0.8", out[4])
		}
	})

	t.Run("zero duration passes through", func(t *testing.T) {
		out := FadeIn(ones(5), 1000, 0)
		if out[0] != 1 {
			t.Errorf("first sample = %f, want 1", out[0])
		}
	})

	t.Run("does not mutate input", func(t *testing.T) {
		in := ones(20)
		_ = FadeIn(in, 1000, 10)
		if in[0] != 1 {
			t.Errorf("input mutated to %f", in[0])
		}
	})
}

func TestFadeOut(t *testing.T) {
	ones := func(n int) []float32 {
		out := make([]float32, n)
		for i := range out {
			out[i] = 1
		}
		return out
	}

	t.Run("ramps to zero", func(t *testing.T) {
		out := FadeOut(ones(20), 1000, 10)
		last := len(out) - 1
		if out[last] != 0 {
			t.Errorf("last sample = %f, want 0", out[last])
		}
		if out[last-5] != 0.5 {
			t.Errorf("mid-ramp sample = %f, want 0.5", out[last-5])
		}
		if out[9] != 1 {
			t.Errorf("pre-ramp sample = %f, want 1", out[9])
		}
	})

	t.Run("does not mutate input", func(t *testing.T) {
		in := ones(20)
		_ = FadeOut(in, 1000, 10)
		if in[len(in)-1] != 1 {
			t.Errorf("input mutated to %f", in[len(in)-1])
		}
	})
}
