package synth

import (
	"math"
	"math/rand/v2"

	"github.com/cwbudde/algo-synth/dsp"
)

const noiseTableSize = 4096

// NoiseOscillator plays a precomputed noise-like wavetable with cubic
// interpolation, producing a smooth pitched noise timbre. The table is
// generated once per oscillator and immutable afterwards.
type NoiseOscillator struct {
	config     OscillatorConfig
	sampleRate float64
	frequency  float64
	phase      float64
	table      []float64
}

// NewNoiseOscillator creates a noise oscillator with a freshly generated
// wavetable, seeded from process entropy.
func NewNoiseOscillator(config OscillatorConfig, sampleRate, baseFrequency float64) *NoiseOscillator {
	return newNoiseOscillatorSeeded(config, sampleRate, baseFrequency, rand.Uint64())
}

func newNoiseOscillatorSeeded(config OscillatorConfig, sampleRate, baseFrequency float64, seed uint64) *NoiseOscillator {
	o := &NoiseOscillator{
		config:     config,
		sampleRate: clampSampleRate(sampleRate),
		table:      buildNoiseTable(seed),
	}
	o.SetFrequency(baseFrequency)
	return o
}

// buildNoiseTable sums a handful of harmonics with randomized phase and
// amplitude, smooths the result with a 3-tap lowpass and peak-normalizes
// it to [-1,1].
func buildNoiseTable(seed uint64) []float64 {
	rng := seed
	random := func() float64 {
		// Knuth's 64-bit LCG; cheap and deterministic for a given seed.
		rng = rng*6364136223846793005 + 1442695040888963407
		return float64(rng>>32) / float64(1<<32)
	}

	const harmonics = 16
	table := make([]float64, noiseTableSize)
	for h := 1; h <= harmonics; h++ {
		amplitude := random() / float64(h)
		phase := random()
		for i := range table {
			x := float64(i)/noiseTableSize*float64(h) + phase
			table[i] += amplitude * math.Sin(2.0*math.Pi*x)
		}
	}

	// 3-tap smoothing pass to soften the upper partials.
	smoothed := make([]float64, noiseTableSize)
	for i := range smoothed {
		prev := table[(i+noiseTableSize-1)%noiseTableSize]
		next := table[(i+1)%noiseTableSize]
		smoothed[i] = 0.25*prev + 0.5*table[i] + 0.25*next
	}

	peak := 0.0
	for _, v := range smoothed {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if peak > 0 {
		for i := range smoothed {
			smoothed[i] /= peak
		}
	}
	return smoothed
}

// NextSample reads the table at the fractional phase index with 4-point
// cubic interpolation, then advances the phase.
func (o *NoiseOscillator) NextSample() float64 {
	indexF := o.phase * noiseTableSize
	index := int(indexF) % noiseTableSize
	frac := indexF - math.Floor(indexF)

	x0 := o.table[(index+noiseTableSize-1)%noiseTableSize]
	x1 := o.table[index]
	x2 := o.table[(index+1)%noiseTableSize]
	x3 := o.table[(index+2)%noiseTableSize]
	value := dsp.CubicInterpolate(x0, x1, x2, x3, frac)

	o.phase = math.Mod(o.phase+o.frequency/o.sampleRate, 1.0)
	return value * o.config.Volume
}

// SetFrequency retunes the oscillator, reapplying the configured detune.
func (o *NoiseOscillator) SetFrequency(hz float64) {
	o.frequency = hz * semitonesToRatio(o.config.DetuneSemitones)
}

// UpdateSampleRate changes the rate the phase accumulator advances at.
func (o *NoiseOscillator) UpdateSampleRate(rate float64) {
	o.sampleRate = clampSampleRate(rate)
}

// Volume returns the configured gain multiplier.
func (o *NoiseOscillator) Volume() float64 {
	return o.config.Volume
}
