package main

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-synth/synth"
)

type knobDef struct {
	Name  string
	Min   float64
	Max   float64
	IsInt bool
}

type candidate struct {
	Vals []float64
}

// initCandidate builds the knob set for the active groups and seeds it
// with the base patch's current values.
func initCandidate(base synth.Patch, baseReleaseAfter float64, groups map[string]bool) ([]knobDef, candidate) {
	defs := make([]knobDef, 0, 24)
	vals := make([]float64, 0, 24)
	addKnob := func(def knobDef, val float64) {
		for _, d := range defs {
			if d.Name == def.Name {
				return
			}
		}
		defs = append(defs, def)
		vals = append(vals, val)
	}

	if groups["osc"] {
		for i, osc := range base.Oscillators {
			addKnob(knobDef{Name: fmt.Sprintf("osc.%d.detune", i), Min: -12.0, Max: 12.0}, osc.DetuneSemitones)
			addKnob(knobDef{Name: fmt.Sprintf("osc.%d.volume", i), Min: 0.0, Max: 1.5}, osc.Volume)
		}
	}

	if groups["envelope"] {
		addKnob(knobDef{Name: "envelope.attack", Min: 0.001, Max: 2.0}, base.Envelope.AttackTime)
		addKnob(knobDef{Name: "envelope.decay", Min: 0.001, Max: 2.0}, base.Envelope.DecayTime)
		addKnob(knobDef{Name: "envelope.sustain", Min: 0.0, Max: 1.0}, base.Envelope.SustainLevel)
		addKnob(knobDef{Name: "envelope.release", Min: 0.01, Max: 5.0}, base.Envelope.ReleaseTime)
		addKnob(knobDef{Name: "render.release_after", Min: 0.1, Max: 3.5}, baseReleaseAfter)
	}

	if groups["filter"] {
		addKnob(knobDef{Name: "filter.cutoff_oct", Min: octavesAbove20(50.0), Max: octavesAbove20(12000.0)}, octavesAbove20(base.Filter.Cutoff))
		addKnob(knobDef{Name: "filter.resonance", Min: 0.05, Max: 1.0}, base.Filter.Resonance)
		addKnob(knobDef{Name: "filter.mod_amount", Min: 0.0, Max: 1.0}, base.Filter.ModAmount)
		addKnob(knobDef{Name: "filter.slope", Min: 0, Max: 2, IsInt: true}, float64(base.Filter.Slope))
	}

	if groups["filter-env"] {
		fe := base.FilterEnvelope
		if fe == nil {
			fe = &synth.EnvelopeConfig{AttackTime: 0.1, DecayTime: 0.2, SustainLevel: 0.5, ReleaseTime: 1.0}
		}
		addKnob(knobDef{Name: "filter_envelope.attack", Min: 0.001, Max: 2.0}, fe.AttackTime)
		addKnob(knobDef{Name: "filter_envelope.decay", Min: 0.001, Max: 2.0}, fe.DecayTime)
		addKnob(knobDef{Name: "filter_envelope.sustain", Min: 0.0, Max: 1.0}, fe.SustainLevel)
		addKnob(knobDef{Name: "filter_envelope.release", Min: 0.01, Max: 5.0}, fe.ReleaseTime)
	}

	for i := range vals {
		vals[i] = clamp(vals[i], defs[i].Min, defs[i].Max)
		if defs[i].IsInt {
			vals[i] = math.Round(vals[i])
		}
	}
	return defs, candidate{Vals: vals}
}

// applyCandidate maps a knob vector back onto a copy of the base patch.
func applyCandidate(base synth.Patch, baseReleaseAfter float64, defs []knobDef, c candidate) (synth.Patch, float64) {
	patch := clonePatch(base)
	releaseAfter := baseReleaseAfter

	for i, def := range defs {
		v := c.Vals[i]
		switch def.Name {
		case "envelope.attack":
			patch.Envelope.AttackTime = v
		case "envelope.decay":
			patch.Envelope.DecayTime = v
		case "envelope.sustain":
			patch.Envelope.SustainLevel = v
		case "envelope.release":
			patch.Envelope.ReleaseTime = v
		case "render.release_after":
			releaseAfter = v
		case "filter.cutoff_oct":
			patch.Filter.Cutoff = 20.0 * math.Exp2(v)
		case "filter.resonance":
			patch.Filter.Resonance = v
		case "filter.mod_amount":
			patch.Filter.ModAmount = v
		case "filter.slope":
			patch.Filter.Slope = synth.FilterSlope(int(math.Round(clamp(v, 0, 2))))
		case "filter_envelope.attack":
			ensureFilterEnvelope(&patch).AttackTime = v
		case "filter_envelope.decay":
			ensureFilterEnvelope(&patch).DecayTime = v
		case "filter_envelope.sustain":
			ensureFilterEnvelope(&patch).SustainLevel = v
		case "filter_envelope.release":
			ensureFilterEnvelope(&patch).ReleaseTime = v
		default:
			var idx int
			var field string
			if n, _ := fmt.Sscanf(def.Name, "osc.%d.%s", &idx, &field); n == 2 && idx >= 0 && idx < len(patch.Oscillators) {
				switch field {
				case "detune":
					patch.Oscillators[idx].DetuneSemitones = v
				case "volume":
					patch.Oscillators[idx].Volume = v
				}
			}
		}
	}

	if releaseAfter < 0.05 {
		releaseAfter = 0.05
	}
	return patch, releaseAfter
}

func ensureFilterEnvelope(p *synth.Patch) *synth.EnvelopeConfig {
	if p.FilterEnvelope == nil {
		p.FilterEnvelope = &synth.EnvelopeConfig{}
	}
	return p.FilterEnvelope
}

func clonePatch(src synth.Patch) synth.Patch {
	d := src
	d.Oscillators = make([]synth.OscillatorConfig, len(src.Oscillators))
	copy(d.Oscillators, src.Oscillators)
	if src.FilterEnvelope != nil {
		fe := *src.FilterEnvelope
		d.FilterEnvelope = &fe
	}
	return d
}

func octavesAbove20(hz float64) float64 {
	if hz < 20.0 {
		hz = 20.0
	}
	return math.Log2(hz / 20.0)
}

func fromNormalized(pos []float64, defs []knobDef) candidate {
	vals := make([]float64, len(defs))
	for i := range defs {
		x := 0.0
		if i < len(pos) {
			x = clamp(pos[i], 0, 1)
		}
		v := defs[i].Min + x*(defs[i].Max-defs[i].Min)
		if defs[i].IsInt {
			v = math.Round(v)
		}
		vals[i] = v
	}
	return candidate{Vals: vals}
}
