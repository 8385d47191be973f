package synth

// noNote marks a voice slot that carries no note.
const noNote = -1

// Voice renders one note: a bank of oscillators summed, shaped by the
// amplitude envelope and run through its own filter. An optional filter
// envelope is attached to the filter as a modulation source.
type Voice struct {
	oscillators []WaveformGenerator
	amplitude   *Envelope
	filter      *Filter
	filterEnv   *Envelope
	sampleRate  float64
	note        int
	frequency   float64
}

// NewVoice builds a voice from a validated patch. The oscillators start
// at an arbitrary frequency; Trigger retunes them.
func NewVoice(patch Patch, sampleRate float64) *Voice {
	sampleRate = clampSampleRate(sampleRate)
	v := &Voice{
		amplitude:  NewEnvelope(patch.Envelope, sampleRate),
		filter:     NewFilter(patch.Filter, sampleRate),
		sampleRate: sampleRate,
		note:       noNote,
	}
	for _, config := range patch.Oscillators {
		v.oscillators = append(v.oscillators, newGenerator(config, sampleRate, defaultTuning))
	}
	if patch.FilterEnvelope != nil {
		v.filterEnv = NewEnvelope(*patch.FilterEnvelope, sampleRate)
		v.filter.AddModulationSource(v.filterEnv)
	}
	return v
}

const defaultTuning = 440.0

// Trigger starts the voice on a note. With a retriggering envelope the
// attack always restarts from zero; otherwise carryOver gives the
// envelope value to continue from, with a negative value meaning a cold
// start.
func (v *Voice) Trigger(frequency float64, note int, carryOver float64) {
	v.note = note
	v.frequency = frequency
	for _, osc := range v.oscillators {
		osc.SetFrequency(frequency)
	}
	if !v.amplitude.Config().Retrigger && carryOver >= 0 {
		v.amplitude.TriggerFrom(carryOver)
	} else {
		v.amplitude.Trigger()
	}
	if v.filterEnv != nil {
		v.filterEnv.Trigger()
	}
}

// Release moves the voice into its release phase, but only when it still
// plays the given note. A release for a note the slot was since stolen
// for is ignored.
func (v *Voice) Release(note int) {
	if v.note != note {
		return
	}
	v.amplitude.Release()
	if v.filterEnv != nil {
		v.filterEnv.Release()
	}
}

// NextSample renders one mono sample.
func (v *Voice) NextSample() float64 {
	var sum float64
	for _, osc := range v.oscillators {
		sum += osc.NextSample()
	}
	return v.filter.ProcessSample(sum * v.amplitude.NextValue())
}

// IsActive reports whether the voice still produces audible output.
func (v *Voice) IsActive() bool { return v.amplitude.IsActive() }

// NoteID returns the note the slot currently holds, or a negative value
// for a free slot.
func (v *Voice) NoteID() int { return v.note }

// EnvelopeValue exposes the current amplitude envelope level, used to
// carry a level over when a non-retriggering note restarts.
func (v *Voice) EnvelopeValue() float64 { return v.amplitude.Value() }

// UpdateSampleRate retunes every component to a new rate mid-note.
func (v *Voice) UpdateSampleRate(rate float64) {
	rate = clampSampleRate(rate)
	v.sampleRate = rate
	for _, osc := range v.oscillators {
		osc.UpdateSampleRate(rate)
	}
	v.amplitude.UpdateSampleRate(rate)
	v.filter.UpdateSampleRate(rate)
	if v.filterEnv != nil {
		v.filterEnv.UpdateSampleRate(rate)
	}
}

// Reset silences the voice and clears all component state.
func (v *Voice) Reset() {
	v.note = noNote
	v.frequency = 0
	v.amplitude.Reset()
	v.filter.Reset()
	if v.filterEnv != nil {
		v.filterEnv.Reset()
	}
}
