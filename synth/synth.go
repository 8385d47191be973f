// Package synth implements a polyphonic subtractive synthesizer with
// per-voice resonant filters and envelope-driven filter modulation.
package synth

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
)

const defaultMaxVoices = 16

// Patch is the complete sound description a synthesizer runs on.
type Patch struct {
	Oscillators    []OscillatorConfig
	Envelope       EnvelopeConfig
	Filter         FilterParameters
	FilterEnvelope *EnvelopeConfig
	MaxVoices      int
}

// DefaultPatch returns a playable two-oscillator patch: a square wave
// with a saw a fifth up, slow amplitude swells and an envelope sweeping
// a resonant lowpass.
func DefaultPatch() Patch {
	return Patch{
		Oscillators: []OscillatorConfig{
			{Waveform: WaveformSquare, DetuneSemitones: 0, Volume: 1.0},
			{Waveform: WaveformSaw, DetuneSemitones: 7, Volume: 0.6},
		},
		Envelope: EnvelopeConfig{
			AttackTime:   0.5,
			DecayTime:    0.5,
			SustainLevel: 0.7,
			ReleaseTime:  3.0,
			Retrigger:    false,
		},
		Filter: FilterParameters{
			Type:      LowPass,
			Slope:     Slope24dB,
			Cutoff:    2000.0,
			Resonance: 0.8,
			ModAmount: 0.6,
		},
		FilterEnvelope: &EnvelopeConfig{
			AttackTime:   0.3,
			DecayTime:    0.2,
			SustainLevel: 0.7,
			ReleaseTime:  3.0,
		},
		MaxVoices: defaultMaxVoices,
	}
}

// Validate checks the patch for values the engine cannot run on.
func (p Patch) Validate() error {
	if len(p.Oscillators) == 0 {
		return errors.New("patch needs at least one oscillator")
	}
	for i, osc := range p.Oscillators {
		if osc.Volume < 0 {
			return fmt.Errorf("oscillator %d: volume %g is negative", i, osc.Volume)
		}
		if !isFinite(osc.DetuneSemitones) {
			return fmt.Errorf("oscillator %d: detune is not finite", i)
		}
	}
	if err := validateEnvelope("envelope", p.Envelope); err != nil {
		return err
	}
	if p.FilterEnvelope != nil {
		if err := validateEnvelope("filter envelope", *p.FilterEnvelope); err != nil {
			return err
		}
	}
	if p.Filter.Cutoff <= 0 || !isFinite(p.Filter.Cutoff) {
		return fmt.Errorf("filter cutoff %g must be positive", p.Filter.Cutoff)
	}
	if p.Filter.Resonance < 0 {
		return fmt.Errorf("filter resonance %g is negative", p.Filter.Resonance)
	}
	if p.MaxVoices < 0 {
		return fmt.Errorf("max voices %d is negative", p.MaxVoices)
	}
	return nil
}

func validateEnvelope(name string, cfg EnvelopeConfig) error {
	if cfg.AttackTime < 0 || cfg.DecayTime < 0 || cfg.ReleaseTime < 0 {
		return fmt.Errorf("%s: times must be non-negative", name)
	}
	if cfg.SustainLevel < 0 || cfg.SustainLevel > 1 {
		return fmt.Errorf("%s: sustain level %g outside [0,1]", name, cfg.SustainLevel)
	}
	return nil
}

// Synthesizer holds a fixed pool of voices and renders them into
// interleaved float32 buffers. A single mutex serializes note control
// against rendering; TryRender lets a real-time audio callback skip a
// block instead of waiting on a slow control call.
type Synthesizer struct {
	mu sync.Mutex

	voices      []*Voice
	notes       map[int][]int // note id -> voice indices
	stealCursor int
	sampleRate  float64
	master      *biquad.Section
	active      []*Voice // scratch, reused across Render calls
}

// NewSynthesizer builds an engine with all voices pre-allocated so the
// render path never allocates.
func NewSynthesizer(patch Patch, sampleRate float64) (*Synthesizer, error) {
	if err := patch.Validate(); err != nil {
		return nil, fmt.Errorf("invalid patch: %w", err)
	}
	sampleRate = clampSampleRate(sampleRate)
	maxVoices := patch.MaxVoices
	if maxVoices == 0 {
		maxVoices = defaultMaxVoices
	}
	s := &Synthesizer{
		voices:     make([]*Voice, maxVoices),
		notes:      make(map[int][]int, maxVoices),
		sampleRate: sampleRate,
		master:     newMasterFilter(sampleRate),
		active:     make([]*Voice, 0, maxVoices),
	}
	for i := range s.voices {
		s.voices[i] = NewVoice(patch, sampleRate)
	}
	return s, nil
}

// newMasterFilter builds the gentle output lowpass that tames aliasing
// from the naive saw and square waveforms.
func newMasterFilter(sampleRate float64) *biquad.Section {
	cutoff := 18000.0
	if limit := sampleRate * 0.45; cutoff > limit {
		cutoff = limit
	}
	coeff := design.Lowpass(cutoff, 0.7071067811865476, sampleRate)
	return biquad.NewSection(coeff)
}

// SampleRate returns the current render rate in Hz.
func (s *Synthesizer) SampleRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sampleRate
}

// SetSampleRate retunes the whole engine to a new rate. Playing notes
// keep sounding at their nominal pitch.
func (s *Synthesizer) SetSampleRate(rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sampleRate = clampSampleRate(rate)
	s.master = newMasterFilter(s.sampleRate)
	for _, v := range s.voices {
		v.UpdateSampleRate(s.sampleRate)
	}
}

// NoteOn starts (or continues) a note at the given frequency. A note
// already sounding is re-triggered in place; otherwise a free voice is
// used, and with none available the steal cursor picks the next slot in
// round-robin order.
func (s *Synthesizer) NoteOn(frequency float64) {
	if frequency <= 0 || !isFinite(frequency) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	note := noteID(frequency)
	if indices, ok := s.notes[note]; ok && len(indices) > 0 {
		for _, idx := range indices {
			v := s.voices[idx]
			v.Trigger(frequency, note, v.EnvelopeValue())
		}
		return
	}

	idx := s.findFreeVoice()
	if idx < 0 {
		idx = s.stealVoice()
	}
	s.voices[idx].Trigger(frequency, note, -1)
	s.notes[note] = append(s.notes[note], idx)
}

// NoteOff releases every voice playing the note. Voices fade out over
// their release time; an unknown note is ignored.
func (s *Synthesizer) NoteOff(frequency float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	note := noteID(frequency)
	indices, ok := s.notes[note]
	if !ok {
		return
	}
	for _, idx := range indices {
		s.voices[idx].Release(note)
	}
	delete(s.notes, note)
}

func (s *Synthesizer) findFreeVoice() int {
	for i, v := range s.voices {
		if !v.IsActive() {
			return i
		}
	}
	return -1
}

// stealVoice reclaims a slot round-robin and drops its old note mapping
// so a later NoteOff for the stolen note cannot touch the new one.
func (s *Synthesizer) stealVoice() int {
	idx := s.stealCursor
	s.stealCursor = (s.stealCursor + 1) % len(s.voices)

	old := s.voices[idx].NoteID()
	if indices, ok := s.notes[old]; ok {
		kept := indices[:0]
		for _, i := range indices {
			if i != idx {
				kept = append(kept, i)
			}
		}
		if len(kept) == 0 {
			delete(s.notes, old)
		} else {
			s.notes[old] = kept
		}
	}
	return idx
}

// Render fills buf with frames*channels interleaved samples, blocking
// until the engine lock is available. buf must hold at least
// frames*channels entries.
func (s *Synthesizer) Render(buf []float32, frames, channels int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderLocked(buf, frames, channels)
}

// TryRender is Render for real-time callbacks: when a control call holds
// the lock it fills buf with silence and reports false instead of
// blocking the audio thread.
func (s *Synthesizer) TryRender(buf []float32, frames, channels int) bool {
	if !s.mu.TryLock() {
		zeroFill(buf, frames*channels)
		return false
	}
	defer s.mu.Unlock()
	s.renderLocked(buf, frames, channels)
	return true
}

func (s *Synthesizer) renderLocked(buf []float32, frames, channels int) {
	s.active = s.active[:0]
	for _, v := range s.voices {
		if v.IsActive() {
			s.active = append(s.active, v)
		}
	}

	scale := 1.0
	if n := len(s.active); n > 1 {
		scale = 1.0 / float64(n)
	}

	for frame := 0; frame < frames; frame++ {
		var mix float64
		for _, v := range s.active {
			mix += v.NextSample()
		}
		mix *= scale
		mix = s.master.ProcessSample(mix)
		mix = clamp(mix, -1.0, 1.0)

		out := float32(mix)
		base := frame * channels
		for ch := 0; ch < channels; ch++ {
			buf[base+ch] = out
		}
	}

	s.pruneNotesLocked()
}

// pruneNotesLocked drops mappings for voices that finished their release
// during the last block, freeing their note ids for reuse.
func (s *Synthesizer) pruneNotesLocked() {
	for note, indices := range s.notes {
		kept := indices[:0]
		for _, idx := range indices {
			if s.voices[idx].IsActive() {
				kept = append(kept, idx)
			}
		}
		if len(kept) == 0 {
			delete(s.notes, note)
		} else {
			s.notes[note] = kept
		}
	}
}

// ActiveVoices counts the voices currently producing output.
func (s *Synthesizer) ActiveVoices() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.voices {
		if v.IsActive() {
			n++
		}
	}
	return n
}

func zeroFill(buf []float32, n int) {
	if n > len(buf) {
		n = len(buf)
	}
	for i := 0; i < n; i++ {
		buf[i] = 0
	}
}
