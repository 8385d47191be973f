package synth

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-synth/dsp"
)

// FilterType selects the filter response.
type FilterType int

const (
	LowPass FilterType = iota
	HighPass
)

func (t FilterType) String() string {
	switch t {
	case LowPass:
		return "lowpass"
	case HighPass:
		return "highpass"
	default:
		return "unknown"
	}
}

// ParseFilterType converts a preset string into a FilterType.
func ParseFilterType(s string) (FilterType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lowpass", "lp":
		return LowPass, nil
	case "highpass", "hp":
		return HighPass, nil
	default:
		return 0, fmt.Errorf("unknown filter type %q (expected lowpass or highpass)", s)
	}
}

// FilterSlope selects the rolloff steepness, realized as 1, 2 or 4
// cascaded biquad stages.
type FilterSlope int

const (
	Slope6dB FilterSlope = iota
	Slope12dB
	Slope24dB
)

func (s FilterSlope) String() string {
	switch s {
	case Slope6dB:
		return "6db"
	case Slope12dB:
		return "12db"
	case Slope24dB:
		return "24db"
	default:
		return "unknown"
	}
}

func (s FilterSlope) stageCount() int {
	switch s {
	case Slope12dB:
		return 2
	case Slope24dB:
		return 4
	default:
		return 1
	}
}

// ParseFilterSlope converts a preset string into a FilterSlope.
func ParseFilterSlope(s string) (FilterSlope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "6db", "6":
		return Slope6dB, nil
	case "12db", "12":
		return Slope12dB, nil
	case "24db", "24":
		return Slope24dB, nil
	default:
		return 0, fmt.Errorf("unknown filter slope %q (expected 6db, 12db or 24db)", s)
	}
}

const (
	minFilterCutoff    = 20.0
	maxCutoffRatio     = 0.49
	minFilterResonance = 0.01
	// modOctavesPerUnit maps one full modulation unit to ten octaves of
	// cutoff movement before scaling by the modulation amount.
	modOctavesPerUnit = 10.0
)

// FilterParameters describes the filter of a patch.
type FilterParameters struct {
	Type      FilterType
	Slope     FilterSlope
	Cutoff    float64 // Hz
	Resonance float64 // 0..1, floored away from zero
	ModAmount float64 // scales modulation source depth
}

func (p FilterParameters) normalized(sampleRate float64) FilterParameters {
	if p.Resonance < minFilterResonance {
		p.Resonance = minFilterResonance
	}
	p.Cutoff = clamp(p.Cutoff, minFilterCutoff, sampleRate*maxCutoffRatio)
	return p
}

// ModulationSource is the capability the filter pulls cutoff modulation
// from: one control value in [0,1] per sample.
type ModulationSource interface {
	NextValue() float64
	IsActive() bool
	Reset()
}

// Filter is a resonant filter built from identical cascaded biquad
// stages. The cutoff is modulated per sample by the attached sources and
// the coefficients are rederived from scratch every sample; with no
// sources the base cutoff passes through unmodified.
type Filter struct {
	params     FilterParameters
	sampleRate float64
	stages     []*dsp.Biquad
	sources    []ModulationSource
}

// NewFilter creates a filter. Out-of-range parameters are clamped so the
// per-sample coefficient math never divides by zero.
func NewFilter(params FilterParameters, sampleRate float64) *Filter {
	sampleRate = clampSampleRate(sampleRate)
	stages := make([]*dsp.Biquad, params.Slope.stageCount())
	for i := range stages {
		stages[i] = dsp.NewBiquad(dsp.Coefficients{})
	}
	return &Filter{
		params:     params.normalized(sampleRate),
		sampleRate: sampleRate,
		stages:     stages,
	}
}

// Parameters returns the (normalized) parameters the filter runs on.
func (f *Filter) Parameters() FilterParameters { return f.params }

// AddModulationSource attaches a cutoff modulation source.
func (f *Filter) AddModulationSource(source ModulationSource) {
	f.sources = append(f.sources, source)
}

// ProcessSample runs one sample through the cascade. Active modulation
// sources move the cutoff exponentially: one modulation unit scaled by
// the modulation amount covers up to ten octaves.
func (f *Filter) ProcessSample(input float64) float64 {
	cutoff := f.params.Cutoff
	for _, source := range f.sources {
		if source.IsActive() {
			cutoff *= math.Exp2(source.NextValue() * f.params.ModAmount * modOctavesPerUnit)
		}
	}
	cutoff = clamp(cutoff, minFilterCutoff, f.sampleRate*maxCutoffRatio)

	coeffs := f.coefficients(cutoff)
	output := input
	for _, stage := range f.stages {
		stage.SetCoefficients(coeffs)
		output = stage.Process(output)
	}
	return output
}

// coefficients derives normalized biquad coefficients for the given
// cutoff using the cosine/alpha formulation; the denominator is shared
// by both filter types.
func (f *Filter) coefficients(cutoff float64) dsp.Coefficients {
	w0 := 2.0 * math.Pi * cutoff / f.sampleRate
	cosw0 := math.Cos(w0)
	alpha := math.Sin(w0) / (2.0 * f.params.Resonance)
	a0 := 1.0 + alpha

	var b0, b1, b2 float64
	switch f.params.Type {
	case HighPass:
		b0 = (1.0 + cosw0) / 2.0
		b1 = -(1.0 + cosw0)
		b2 = (1.0 + cosw0) / 2.0
	default:
		b0 = (1.0 - cosw0) / 2.0
		b1 = 1.0 - cosw0
		b2 = (1.0 - cosw0) / 2.0
	}

	return dsp.Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: -2.0 * cosw0 / a0,
		A2: (1.0 - alpha) / a0,
	}
}

// UpdateSampleRate moves the filter to a new sample rate. Cutoff bounds
// depend on the rate, so the parameters are re-normalized.
func (f *Filter) UpdateSampleRate(rate float64) {
	f.sampleRate = clampSampleRate(rate)
	f.params = f.params.normalized(f.sampleRate)
}

// Reset clears all stage histories and resets the modulation sources.
func (f *Filter) Reset() {
	for _, stage := range f.stages {
		stage.Reset()
	}
	for _, source := range f.sources {
		source.Reset()
	}
}
