package synth

import (
	"math"
	"testing"
)

func TestOscillatorSinePitch(t *testing.T) {
	const sampleRate = 48000.0
	const freq = 440.0
	osc := NewOscillator(OscillatorConfig{Waveform: WaveformSine, Volume: 1.0}, sampleRate, freq)

	samples := make([]float32, sampleRate)
	for i := range samples {
		samples[i] = float32(osc.NextSample())
	}

	measured := measureFundamentalFreq(samples, sampleRate)
	if math.Abs(float64(measured)-freq) > 2.0 {
		t.Fatalf("measured fundamental %.2f Hz, want %.2f Hz", measured, freq)
	}
}

func TestOscillatorSawShape(t *testing.T) {
	osc := NewOscillator(OscillatorConfig{Waveform: WaveformSaw, Volume: 1.0}, 48000, 100)
	min, max := 1.0, -1.0
	for i := 0; i < 48000; i++ {
		v := osc.NextSample()
		if v < -1.0-1e-9 || v > 1.0+1e-9 {
			t.Fatalf("saw sample %g outside [-1,1]", v)
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if min > -0.9 || max < 0.9 {
		t.Fatalf("saw range [%g, %g] does not sweep [-1,1]", min, max)
	}
}

func TestOscillatorSquareIsBinary(t *testing.T) {
	osc := NewOscillator(OscillatorConfig{Waveform: WaveformSquare, Volume: 1.0}, 48000, 220)
	for i := 0; i < 48000; i++ {
		v := osc.NextSample()
		if v != 1.0 && v != -1.0 {
			t.Fatalf("square sample %g, want exactly +1 or -1", v)
		}
	}
}

func TestOscillatorVolumeScales(t *testing.T) {
	const volume = 0.25
	osc := NewOscillator(OscillatorConfig{Waveform: WaveformSquare, Volume: volume}, 48000, 220)
	for i := 0; i < 4800; i++ {
		if v := math.Abs(osc.NextSample()); math.Abs(v-volume) > 1e-12 {
			t.Fatalf("sample magnitude %g, want %g", v, volume)
		}
	}
}

func TestOscillatorDetuneShiftsPitch(t *testing.T) {
	const sampleRate = 48000.0
	const base = 220.0
	// +12 semitones doubles the frequency.
	osc := NewOscillator(OscillatorConfig{Waveform: WaveformSine, DetuneSemitones: 12, Volume: 1.0}, sampleRate, base)

	samples := make([]float32, sampleRate)
	for i := range samples {
		samples[i] = float32(osc.NextSample())
	}

	measured := measureFundamentalFreq(samples, sampleRate)
	if math.Abs(float64(measured)-2*base) > 3.0 {
		t.Fatalf("detuned fundamental %.2f Hz, want %.2f Hz", measured, 2*base)
	}
}

func TestSemitonesToRatio(t *testing.T) {
	cases := []struct {
		semitones float64
		want      float64
	}{
		{0, 1.0},
		{12, 2.0},
		{-12, 0.5},
		{7, math.Pow(2, 7.0/12.0)},
	}
	for _, c := range cases {
		got := semitonesToRatio(c.semitones)
		if math.Abs(got-c.want)/c.want > 1e-3 {
			t.Fatalf("semitonesToRatio(%g) = %g, want %g", c.semitones, got, c.want)
		}
	}
}

func TestParseWaveform(t *testing.T) {
	for _, name := range []string{"sine", "saw", "square", "noise"} {
		w, err := ParseWaveform(name)
		if err != nil {
			t.Fatalf("ParseWaveform(%q): %v", name, err)
		}
		if w.String() != name {
			t.Fatalf("round trip %q -> %v", name, w)
		}
	}
	if _, err := ParseWaveform("triangle"); err == nil {
		t.Fatalf("ParseWaveform accepted unknown waveform")
	}
}
