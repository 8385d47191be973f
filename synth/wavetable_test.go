package synth

import (
	"math"
	"testing"
)

func TestNoiseTableIsNormalized(t *testing.T) {
	table := buildNoiseTable(12345)
	if len(table) != noiseTableSize {
		t.Fatalf("table length = %d, want %d", len(table), noiseTableSize)
	}

	peak := 0.0
	for _, v := range table {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if math.Abs(peak-1.0) > 1e-9 {
		t.Fatalf("table peak = %g, want 1.0", peak)
	}
}

func TestNoiseTableIsDeterministic(t *testing.T) {
	a := buildNoiseTable(42)
	b := buildNoiseTable(42)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("tables diverge at index %d: %g != %g", i, a[i], b[i])
		}
	}

	c := buildNoiseTable(43)
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("different seeds produced identical tables")
	}
}

func TestNoiseOscillatorBoundedOutput(t *testing.T) {
	osc := newNoiseOscillatorSeeded(OscillatorConfig{Waveform: WaveformNoise, Volume: 1.0}, 48000, 440, 7)
	for i := 0; i < 48000; i++ {
		v := osc.NextSample()
		// Cubic interpolation can overshoot the table peak slightly.
		if math.Abs(v) > 1.25 {
			t.Fatalf("noise sample %g at index %d, want |v| <= 1.25", v, i)
		}
	}
}

func TestNoiseOscillatorProducesSignal(t *testing.T) {
	osc := newNoiseOscillatorSeeded(OscillatorConfig{Waveform: WaveformNoise, Volume: 1.0}, 48000, 440, 7)
	samples := make([]float32, 48000)
	for i := range samples {
		samples[i] = float32(osc.NextSample())
	}
	if rms := windowRMS(samples); rms < 0.05 {
		t.Fatalf("noise RMS = %g, want audible output", rms)
	}
}

func TestNoiseOscillatorVolumeScales(t *testing.T) {
	loud := newNoiseOscillatorSeeded(OscillatorConfig{Waveform: WaveformNoise, Volume: 1.0}, 48000, 440, 7)
	quiet := newNoiseOscillatorSeeded(OscillatorConfig{Waveform: WaveformNoise, Volume: 0.5}, 48000, 440, 7)
	for i := 0; i < 4096; i++ {
		a := loud.NextSample()
		b := quiet.NextSample()
		if math.Abs(b-0.5*a) > 1e-12 {
			t.Fatalf("volume scaling broken at %d: %g vs %g", i, a, b)
		}
	}
}

func TestNewGeneratorDispatch(t *testing.T) {
	gen := newGenerator(OscillatorConfig{Waveform: WaveformNoise, Volume: 1.0}, 48000, 440)
	if _, ok := gen.(*NoiseOscillator); !ok {
		t.Fatalf("noise config produced %T, want *NoiseOscillator", gen)
	}
	gen = newGenerator(OscillatorConfig{Waveform: WaveformSine, Volume: 1.0}, 48000, 440)
	if _, ok := gen.(*Oscillator); !ok {
		t.Fatalf("sine config produced %T, want *Oscillator", gen)
	}
}
