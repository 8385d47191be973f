// Package preset loads synthesizer patches from JSON files.
package preset

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cwbudde/algo-synth/synth"
)

// File is the JSON schema for synthesizer presets. Every field is
// optional; omitted fields keep their default patch value.
type File struct {
	Oscillators    []OscillatorSetting `json:"oscillators"`
	Envelope       *EnvelopeSetting    `json:"envelope"`
	Filter         *FilterSetting      `json:"filter"`
	FilterEnvelope *EnvelopeSetting    `json:"filter_envelope"`
	MaxVoices      *int                `json:"max_voices"`
}

// OscillatorSetting is one oscillator entry in a preset file.
type OscillatorSetting struct {
	Waveform string   `json:"waveform"`
	Detune   *float64 `json:"detune"`
	Volume   *float64 `json:"volume"`
}

// EnvelopeSetting is a partial ADSR override in a preset file.
type EnvelopeSetting struct {
	Attack    *float64 `json:"attack"`
	Decay     *float64 `json:"decay"`
	Sustain   *float64 `json:"sustain"`
	Release   *float64 `json:"release"`
	Retrigger *bool    `json:"retrigger"`
}

// FilterSetting is a partial filter override in a preset file.
type FilterSetting struct {
	Type      string   `json:"type"`
	Slope     string   `json:"slope"`
	Cutoff    *float64 `json:"cutoff"`
	Resonance *float64 `json:"resonance"`
	ModAmount *float64 `json:"mod_amount"`
}

// LoadJSON loads a preset JSON file and applies it on top of the
// default patch.
func LoadJSON(path string) (synth.Patch, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return synth.Patch{}, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return synth.Patch{}, err
	}

	p := synth.DefaultPatch()
	if err := ApplyFile(&p, &f); err != nil {
		return synth.Patch{}, err
	}
	return p, nil
}

// ApplyFile applies a parsed preset file onto an existing patch.
func ApplyFile(dst *synth.Patch, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination patch")
	}
	if f == nil {
		return nil
	}

	if len(f.Oscillators) > 0 {
		oscs := make([]synth.OscillatorConfig, 0, len(f.Oscillators))
		for i, setting := range f.Oscillators {
			cfg := synth.OscillatorConfig{Volume: 1.0}
			if setting.Waveform != "" {
				w, err := synth.ParseWaveform(setting.Waveform)
				if err != nil {
					return fmt.Errorf("oscillators[%d]: %w", i, err)
				}
				cfg.Waveform = w
			}
			if setting.Detune != nil {
				cfg.DetuneSemitones = *setting.Detune
			}
			if setting.Volume != nil {
				if *setting.Volume < 0 {
					return fmt.Errorf("oscillators[%d].volume must be >= 0", i)
				}
				cfg.Volume = *setting.Volume
			}
			oscs = append(oscs, cfg)
		}
		dst.Oscillators = oscs
	}

	if f.Envelope != nil {
		if err := applyEnvelope(&dst.Envelope, f.Envelope, "envelope"); err != nil {
			return err
		}
	}

	if f.Filter != nil {
		if f.Filter.Type != "" {
			ft, err := synth.ParseFilterType(f.Filter.Type)
			if err != nil {
				return fmt.Errorf("filter: %w", err)
			}
			dst.Filter.Type = ft
		}
		if f.Filter.Slope != "" {
			fs, err := synth.ParseFilterSlope(f.Filter.Slope)
			if err != nil {
				return fmt.Errorf("filter: %w", err)
			}
			dst.Filter.Slope = fs
		}
		if f.Filter.Cutoff != nil {
			if *f.Filter.Cutoff <= 0 {
				return fmt.Errorf("filter.cutoff must be > 0")
			}
			dst.Filter.Cutoff = *f.Filter.Cutoff
		}
		if f.Filter.Resonance != nil {
			if *f.Filter.Resonance < 0 {
				return fmt.Errorf("filter.resonance must be >= 0")
			}
			dst.Filter.Resonance = *f.Filter.Resonance
		}
		if f.Filter.ModAmount != nil {
			dst.Filter.ModAmount = *f.Filter.ModAmount
		}
	}

	if f.FilterEnvelope != nil {
		if dst.FilterEnvelope == nil {
			dst.FilterEnvelope = &synth.EnvelopeConfig{SustainLevel: 1.0}
		}
		if err := applyEnvelope(dst.FilterEnvelope, f.FilterEnvelope, "filter_envelope"); err != nil {
			return err
		}
	}

	if f.MaxVoices != nil {
		if *f.MaxVoices < 1 {
			return fmt.Errorf("max_voices must be >= 1")
		}
		dst.MaxVoices = *f.MaxVoices
	}

	return nil
}

func applyEnvelope(dst *synth.EnvelopeConfig, setting *EnvelopeSetting, name string) error {
	if setting.Attack != nil {
		if *setting.Attack < 0 {
			return fmt.Errorf("%s.attack must be >= 0", name)
		}
		dst.AttackTime = *setting.Attack
	}
	if setting.Decay != nil {
		if *setting.Decay < 0 {
			return fmt.Errorf("%s.decay must be >= 0", name)
		}
		dst.DecayTime = *setting.Decay
	}
	if setting.Sustain != nil {
		if *setting.Sustain < 0 || *setting.Sustain > 1 {
			return fmt.Errorf("%s.sustain must be in [0,1]", name)
		}
		dst.SustainLevel = *setting.Sustain
	}
	if setting.Release != nil {
		if *setting.Release < 0 {
			return fmt.Errorf("%s.release must be >= 0", name)
		}
		dst.ReleaseTime = *setting.Release
	}
	if setting.Retrigger != nil {
		dst.Retrigger = *setting.Retrigger
	}
	return nil
}

// SaveJSON writes a patch out as a preset file, fully specified so the
// result round-trips regardless of future default changes.
func SaveJSON(path string, p synth.Patch) error {
	f := FromPatch(p)
	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644)
}

// FromPatch converts a patch into its fully-populated file form.
func FromPatch(p synth.Patch) *File {
	f := &File{
		Envelope:  envelopeSetting(p.Envelope),
		MaxVoices: intPtr(p.MaxVoices),
		Filter: &FilterSetting{
			Type:      p.Filter.Type.String(),
			Slope:     p.Filter.Slope.String(),
			Cutoff:    floatPtr(p.Filter.Cutoff),
			Resonance: floatPtr(p.Filter.Resonance),
			ModAmount: floatPtr(p.Filter.ModAmount),
		},
	}
	for _, osc := range p.Oscillators {
		f.Oscillators = append(f.Oscillators, OscillatorSetting{
			Waveform: osc.Waveform.String(),
			Detune:   floatPtr(osc.DetuneSemitones),
			Volume:   floatPtr(osc.Volume),
		})
	}
	if p.FilterEnvelope != nil {
		f.FilterEnvelope = envelopeSetting(*p.FilterEnvelope)
	}
	return f
}

func envelopeSetting(cfg synth.EnvelopeConfig) *EnvelopeSetting {
	return &EnvelopeSetting{
		Attack:    floatPtr(cfg.AttackTime),
		Decay:     floatPtr(cfg.DecayTime),
		Sustain:   floatPtr(cfg.SustainLevel),
		Release:   floatPtr(cfg.ReleaseTime),
		Retrigger: boolPtr(cfg.Retrigger),
	}
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func boolPtr(v bool) *bool        { return &v }
