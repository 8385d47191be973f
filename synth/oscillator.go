package synth

import (
	"fmt"
	"math"
	"strings"
)

// Waveform selects the shape produced by an oscillator.
type Waveform int

const (
	WaveformSine Waveform = iota
	WaveformSaw
	WaveformSquare
	// WaveformNoise is a pitched, band-limited noise timbre played back
	// from a precomputed wavetable.
	WaveformNoise
)

func (w Waveform) String() string {
	switch w {
	case WaveformSine:
		return "sine"
	case WaveformSaw:
		return "saw"
	case WaveformSquare:
		return "square"
	case WaveformNoise:
		return "noise"
	default:
		return "unknown"
	}
}

// ParseWaveform converts a preset string into a Waveform.
func ParseWaveform(s string) (Waveform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sine":
		return WaveformSine, nil
	case "saw":
		return WaveformSaw, nil
	case "square":
		return WaveformSquare, nil
	case "noise":
		return WaveformNoise, nil
	default:
		return 0, fmt.Errorf("unknown waveform %q (expected sine, saw, square or noise)", s)
	}
}

// WaveformGenerator is the per-voice sample source capability. Retuning a
// generator must reapply its configured detune, so voices reused for a new
// note keep their relative pitch.
type WaveformGenerator interface {
	NextSample() float64
	SetFrequency(hz float64)
	UpdateSampleRate(rate float64)
	Volume() float64
}

// OscillatorConfig describes one oscillator of a patch.
type OscillatorConfig struct {
	Waveform        Waveform
	DetuneSemitones float64
	Volume          float64
}

// newGenerator builds the concrete generator for a config.
func newGenerator(config OscillatorConfig, sampleRate, baseFrequency float64) WaveformGenerator {
	if config.Waveform == WaveformNoise {
		return NewNoiseOscillator(config, sampleRate, baseFrequency)
	}
	return NewOscillator(config, sampleRate, baseFrequency)
}

// Oscillator generates sine, saw and square waveforms from a phase
// accumulator in [0,1). The saw and square shapes are not band-limited;
// aliasing at high fundamentals is an accepted trade-off.
type Oscillator struct {
	config     OscillatorConfig
	sampleRate float64
	frequency  float64
	phase      float64
}

// NewOscillator creates an oscillator tuned to baseFrequency with the
// config's detune applied.
func NewOscillator(config OscillatorConfig, sampleRate, baseFrequency float64) *Oscillator {
	o := &Oscillator{
		config:     config,
		sampleRate: clampSampleRate(sampleRate),
	}
	o.SetFrequency(baseFrequency)
	return o
}

// NextSample returns the waveform value at the current phase scaled by the
// oscillator volume, then advances the phase by frequency/sampleRate.
func (o *Oscillator) NextSample() float64 {
	var value float64
	switch o.config.Waveform {
	case WaveformSaw:
		value = 2.0 * (o.phase - 0.5)
	case WaveformSquare:
		if o.phase < 0.5 {
			value = 1.0
		} else {
			value = -1.0
		}
	default:
		value = math.Sin(o.phase * 2.0 * math.Pi)
	}

	o.phase = math.Mod(o.phase+o.frequency/o.sampleRate, 1.0)
	return value * o.config.Volume
}

// SetFrequency retunes the oscillator, reapplying the configured detune.
func (o *Oscillator) SetFrequency(hz float64) {
	o.frequency = hz * semitonesToRatio(o.config.DetuneSemitones)
}

// UpdateSampleRate changes the rate the phase accumulator advances at.
func (o *Oscillator) UpdateSampleRate(rate float64) {
	o.sampleRate = clampSampleRate(rate)
}

// Volume returns the configured gain multiplier.
func (o *Oscillator) Volume() float64 {
	return o.config.Volume
}
