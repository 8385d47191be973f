package synth

import (
	"math"
	"testing"
)

// sweepResponseRMS runs a fixed sine through the filter and returns the
// output RMS over the steady-state tail.
func sweepResponseRMS(f *Filter, freq, sampleRate float64, n int) float64 {
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		x := math.Sin(2.0 * math.Pi * freq * float64(i) / sampleRate)
		out[i] = float32(f.ProcessSample(x))
	}
	return windowRMS(out[n/2:])
}

func TestFilterLowpassAttenuatesHighs(t *testing.T) {
	const sampleRate = 48000.0
	params := FilterParameters{Type: LowPass, Slope: Slope12dB, Cutoff: 1000.0, Resonance: 0.7071}

	low := sweepResponseRMS(NewFilter(params, sampleRate), 100.0, sampleRate, 48000)
	high := sweepResponseRMS(NewFilter(params, sampleRate), 10000.0, sampleRate, 48000)

	if low < 0.5 {
		t.Fatalf("passband RMS = %g, want near unity gain", low)
	}
	if high > low/10 {
		t.Fatalf("stopband RMS %g not well below passband RMS %g", high, low)
	}
}

func TestFilterHighpassAttenuatesLows(t *testing.T) {
	const sampleRate = 48000.0
	params := FilterParameters{Type: HighPass, Slope: Slope12dB, Cutoff: 5000.0, Resonance: 0.7071}

	low := sweepResponseRMS(NewFilter(params, sampleRate), 200.0, sampleRate, 48000)
	high := sweepResponseRMS(NewFilter(params, sampleRate), 15000.0, sampleRate, 48000)

	if high < 0.5 {
		t.Fatalf("passband RMS = %g, want near unity gain", high)
	}
	if low > high/10 {
		t.Fatalf("stopband RMS %g not well below passband RMS %g", low, high)
	}
}

func TestFilterSteeperSlopeAttenuatesMore(t *testing.T) {
	const sampleRate = 48000.0
	base := FilterParameters{Type: LowPass, Cutoff: 1000.0, Resonance: 0.7071}

	gentle := base
	gentle.Slope = Slope6dB
	steep := base
	steep.Slope = Slope24dB

	g := sweepResponseRMS(NewFilter(gentle, sampleRate), 8000.0, sampleRate, 48000)
	s := sweepResponseRMS(NewFilter(steep, sampleRate), 8000.0, sampleRate, 48000)

	if s >= g {
		t.Fatalf("24dB slope RMS %g not below 6dB slope RMS %g", s, g)
	}
}

func TestFilterZeroResonanceIsFloored(t *testing.T) {
	const sampleRate = 48000.0
	f := NewFilter(FilterParameters{Type: LowPass, Slope: Slope24dB, Cutoff: 1000.0, Resonance: 0}, sampleRate)
	if got := f.Parameters().Resonance; got < minFilterResonance {
		t.Fatalf("resonance = %g, want floored to %g", got, minFilterResonance)
	}
	for i := 0; i < 10000; i++ {
		v := f.ProcessSample(math.Sin(2.0 * math.Pi * 500.0 * float64(i) / sampleRate))
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("non-finite output %g at sample %d", v, i)
		}
	}
}

func TestFilterCutoffClamped(t *testing.T) {
	const sampleRate = 48000.0
	f := NewFilter(FilterParameters{Type: LowPass, Slope: Slope6dB, Cutoff: 1e6, Resonance: 0.7}, sampleRate)
	if got := f.Parameters().Cutoff; got > sampleRate*maxCutoffRatio {
		t.Fatalf("cutoff = %g, want clamped below Nyquist", got)
	}
	f = NewFilter(FilterParameters{Type: LowPass, Slope: Slope6dB, Cutoff: 1.0, Resonance: 0.7}, sampleRate)
	if got := f.Parameters().Cutoff; got < minFilterCutoff {
		t.Fatalf("cutoff = %g, want floored to %g", got, minFilterCutoff)
	}
}

// constantSource is a fixed-level modulation source for tests.
type constantSource struct {
	value  float64
	active bool
}

func (c *constantSource) NextValue() float64 { return c.value }
func (c *constantSource) IsActive() bool     { return c.active }
func (c *constantSource) Reset()             {}

func TestFilterModulationOpensCutoff(t *testing.T) {
	const sampleRate = 48000.0
	// With the cutoff at 200 Hz a 5 kHz sine is deep in the stopband.
	// Full modulation at amount 0.3 raises it by three octaves to 1.6 kHz
	// and should let noticeably more of the sine through.
	params := FilterParameters{Type: LowPass, Slope: Slope12dB, Cutoff: 200.0, Resonance: 0.7071, ModAmount: 0.3}

	closed := NewFilter(params, sampleRate)
	closedRMS := sweepResponseRMS(closed, 5000.0, sampleRate, 24000)

	open := NewFilter(params, sampleRate)
	open.AddModulationSource(&constantSource{value: 1.0, active: true})
	openRMS := sweepResponseRMS(open, 5000.0, sampleRate, 24000)

	if openRMS < closedRMS*4 {
		t.Fatalf("modulated RMS %g not well above unmodulated RMS %g", openRMS, closedRMS)
	}
}

func TestFilterInactiveSourceIsIgnored(t *testing.T) {
	const sampleRate = 48000.0
	params := FilterParameters{Type: LowPass, Slope: Slope12dB, Cutoff: 200.0, Resonance: 0.7071, ModAmount: 1.0}

	plain := NewFilter(params, sampleRate)
	withSource := NewFilter(params, sampleRate)
	withSource.AddModulationSource(&constantSource{value: 1.0, active: false})

	for i := 0; i < 4096; i++ {
		x := math.Sin(2.0 * math.Pi * 500.0 * float64(i) / sampleRate)
		a := plain.ProcessSample(x)
		b := withSource.ProcessSample(x)
		if a != b {
			t.Fatalf("inactive source changed output at %d: %g != %g", i, a, b)
		}
	}
}

func TestFilterResetClearsState(t *testing.T) {
	const sampleRate = 48000.0
	f := NewFilter(FilterParameters{Type: LowPass, Slope: Slope24dB, Cutoff: 500.0, Resonance: 0.9}, sampleRate)
	for i := 0; i < 1000; i++ {
		f.ProcessSample(1.0)
	}
	f.Reset()
	for i := 0; i < 100; i++ {
		if v := f.ProcessSample(0); v != 0 {
			t.Fatalf("output %g after reset on zero input", v)
		}
	}
}

func TestParseFilterTypeAndSlope(t *testing.T) {
	ft, err := ParseFilterType("highpass")
	if err != nil || ft != HighPass {
		t.Fatalf("ParseFilterType(highpass) = %v, %v", ft, err)
	}
	if _, err := ParseFilterType("bandpass"); err == nil {
		t.Fatalf("ParseFilterType accepted unknown type")
	}

	fs, err := ParseFilterSlope("24db")
	if err != nil || fs != Slope24dB {
		t.Fatalf("ParseFilterSlope(24db) = %v, %v", fs, err)
	}
	if _, err := ParseFilterSlope("48db"); err == nil {
		t.Fatalf("ParseFilterSlope accepted unknown slope")
	}
}
