package synth

import (
	"math"
	"testing"
)

func testPatch() Patch {
	return Patch{
		Oscillators: []OscillatorConfig{
			{Waveform: WaveformSine, Volume: 1.0},
		},
		Envelope: EnvelopeConfig{
			AttackTime:   0.01,
			DecayTime:    0.01,
			SustainLevel: 0.8,
			ReleaseTime:  0.02,
			Retrigger:    true,
		},
		Filter: FilterParameters{
			Type:      LowPass,
			Slope:     Slope12dB,
			Cutoff:    8000.0,
			Resonance: 0.7071,
		},
		MaxVoices: 4,
	}
}

func TestVoiceStartsInactive(t *testing.T) {
	v := NewVoice(testPatch(), 48000)
	if v.IsActive() {
		t.Fatalf("fresh voice reports active")
	}
	if v.NoteID() != noNote {
		t.Fatalf("fresh voice holds note %d", v.NoteID())
	}
}

func TestVoiceTriggerProducesSound(t *testing.T) {
	const sampleRate = 48000.0
	v := NewVoice(testPatch(), sampleRate)
	v.Trigger(440.0, 440, -1)

	if !v.IsActive() {
		t.Fatalf("triggered voice reports inactive")
	}
	if v.NoteID() != 440 {
		t.Fatalf("note id = %d, want 440", v.NoteID())
	}

	samples := make([]float32, 4800)
	for i := range samples {
		samples[i] = float32(v.NextSample())
	}
	if rms := windowRMS(samples[2400:]); rms < 0.1 {
		t.Fatalf("triggered voice RMS = %g, want audible output", rms)
	}
}

func TestVoiceReleaseFadesOut(t *testing.T) {
	const sampleRate = 48000.0
	patch := testPatch()
	v := NewVoice(patch, sampleRate)
	v.Trigger(440.0, 440, -1)

	for i := 0; i < 4800; i++ {
		v.NextSample()
	}
	v.Release(440)

	// Run past the release time; the voice must finish.
	for i := 0; i < int(patch.Envelope.ReleaseTime*sampleRate)+100; i++ {
		v.NextSample()
	}
	if v.IsActive() {
		t.Fatalf("voice still active after full release")
	}
}

func TestVoiceIgnoresStaleRelease(t *testing.T) {
	v := NewVoice(testPatch(), 48000)
	v.Trigger(440.0, 440, -1)
	for i := 0; i < 1000; i++ {
		v.NextSample()
	}

	// The slot gets stolen for a new note; a release for the old note
	// must not touch it.
	v.Trigger(880.0, 880, -1)
	v.Release(440)
	for i := 0; i < 1000; i++ {
		v.NextSample()
	}
	if !v.IsActive() {
		t.Fatalf("stale release silenced the stolen voice")
	}
}

func TestVoiceCarryOverSkipsAttackRestart(t *testing.T) {
	patch := testPatch()
	patch.Envelope.Retrigger = false
	v := NewVoice(patch, 48000)
	v.Trigger(440.0, 440, -1)

	// Ride the envelope up to sustain.
	for i := 0; i < 2000; i++ {
		v.NextSample()
	}
	level := v.EnvelopeValue()
	if level < 0.5 {
		t.Fatalf("envelope level = %g before carry-over, want sustained output", level)
	}

	v.Trigger(440.0, 440, level)
	if got := v.EnvelopeValue(); got != level {
		t.Fatalf("carried level = %g, want %g", got, level)
	}
}

func TestVoiceRetriggerRestartsFromZero(t *testing.T) {
	v := NewVoice(testPatch(), 48000)
	v.Trigger(440.0, 440, -1)
	for i := 0; i < 2000; i++ {
		v.NextSample()
	}

	// Retrigger=true ignores the carry-over level.
	v.Trigger(440.0, 440, v.EnvelopeValue())
	if got := v.EnvelopeValue(); got != 0 {
		t.Fatalf("retriggered envelope starts at %g, want 0", got)
	}
}

func TestVoiceFilterEnvelopeBrightensAttack(t *testing.T) {
	const sampleRate = 48000.0
	patch := testPatch()
	patch.Oscillators[0].Waveform = WaveformSaw
	patch.Filter.Cutoff = 300.0
	patch.Filter.ModAmount = 0.4
	patch.FilterEnvelope = &EnvelopeConfig{
		AttackTime:   0.001,
		DecayTime:    0.2,
		SustainLevel: 0.0,
		ReleaseTime:  0.05,
	}

	v := NewVoice(patch, sampleRate)
	v.Trigger(110.0, 110, -1)

	early := make([]float32, 2400)
	for i := range early {
		early[i] = float32(v.NextSample())
	}
	// Let the filter envelope fall back to its zero sustain.
	for i := 0; i < int(sampleRate); i++ {
		v.NextSample()
	}
	late := make([]float32, 2400)
	for i := range late {
		late[i] = float32(v.NextSample())
	}

	// The swept-open filter passes more of the saw's upper harmonics
	// early on.
	earlyHF := dftBinMagnitude(early, len(early)*2000/int(sampleRate))
	lateHF := dftBinMagnitude(late, len(late)*2000/int(sampleRate))
	if earlyHF <= lateHF {
		t.Fatalf("early high-band magnitude %g not above late %g", earlyHF, lateHF)
	}
}

func TestVoiceUpdateSampleRateKeepsPitch(t *testing.T) {
	const freq = 440.0
	v := NewVoice(testPatch(), 44100)
	v.Trigger(freq, 440, -1)
	v.UpdateSampleRate(96000)

	samples := make([]float32, 96000)
	for i := range samples {
		samples[i] = float32(v.NextSample())
	}
	measured := measureFundamentalFreq(samples[9600:], 96000)
	if math.Abs(float64(measured)-freq) > 3.0 {
		t.Fatalf("fundamental after rate switch = %.2f Hz, want %.2f Hz", measured, freq)
	}
}
