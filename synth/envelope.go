package synth

// EnvelopeState identifies the phase of the ADSR state machine.
type EnvelopeState int

const (
	EnvelopeIdle EnvelopeState = iota
	EnvelopeAttack
	EnvelopeDecay
	EnvelopeSustain
	EnvelopeRelease
)

func (s EnvelopeState) String() string {
	switch s {
	case EnvelopeIdle:
		return "idle"
	case EnvelopeAttack:
		return "attack"
	case EnvelopeDecay:
		return "decay"
	case EnvelopeSustain:
		return "sustain"
	case EnvelopeRelease:
		return "release"
	default:
		return "unknown"
	}
}

const (
	// minEnvelopeTime keeps per-phase increments finite; zero time
	// constants are clamped here, never allowed near a division.
	minEnvelopeTime = 1e-4
	// envelopeSilence is the near-zero level at which a releasing
	// envelope is considered finished.
	envelopeSilence = 1e-5
)

// EnvelopeConfig holds the ADSR time constants shared by all voices of a
// patch. Times are in seconds. When Retrigger is false, re-pressing a
// still-sounding note continues from the current level instead of
// restarting the attack from zero.
type EnvelopeConfig struct {
	AttackTime   float64
	DecayTime    float64
	SustainLevel float64
	ReleaseTime  float64
	Retrigger    bool
}

func (c EnvelopeConfig) normalized() EnvelopeConfig {
	if c.AttackTime < minEnvelopeTime {
		c.AttackTime = minEnvelopeTime
	}
	if c.DecayTime < minEnvelopeTime {
		c.DecayTime = minEnvelopeTime
	}
	if c.ReleaseTime < minEnvelopeTime {
		c.ReleaseTime = minEnvelopeTime
	}
	c.SustainLevel = clamp(c.SustainLevel, 0, 1)
	return c
}

// Envelope is a per-voice ADSR generator producing one control value in
// [0,1] per sample. It also satisfies ModulationSource.
type Envelope struct {
	config     EnvelopeConfig
	sampleRate float64

	state EnvelopeState
	value float64
	rate  float64
}

// NewEnvelope creates an idle envelope. Out-of-range config values are
// clamped so the per-sample path never divides by zero.
func NewEnvelope(config EnvelopeConfig, sampleRate float64) *Envelope {
	return &Envelope{
		config:     config.normalized(),
		sampleRate: clampSampleRate(sampleRate),
	}
}

// Config returns the (normalized) configuration the envelope runs on.
func (e *Envelope) Config() EnvelopeConfig { return e.config }

// State returns the current ADSR phase.
func (e *Envelope) State() EnvelopeState { return e.state }

// Value returns the current level without advancing the envelope.
func (e *Envelope) Value() float64 { return e.value }

// Trigger restarts the envelope into the attack phase from zero.
func (e *Envelope) Trigger() {
	e.TriggerFrom(0)
}

// TriggerFrom starts the attack phase from the given level. The attack
// increment is recomputed so the phase still completes in AttackTime
// seconds from that starting point.
func (e *Envelope) TriggerFrom(start float64) {
	start = clamp(start, 0, 1)
	e.value = start
	e.state = EnvelopeAttack
	e.rate = (1.0 - start) / (e.config.AttackTime * e.sampleRate)
}

// Release moves the envelope into the release phase from wherever it is.
// The release increment is derived from the current level, so release
// always takes ReleaseTime seconds regardless of the level it starts at.
// Releasing an idle envelope is a no-op.
func (e *Envelope) Release() {
	if e.state == EnvelopeIdle {
		return
	}
	e.state = EnvelopeRelease
	e.rate = e.value / (e.config.ReleaseTime * e.sampleRate)
}

// NextValue advances the envelope by exactly one sample and returns the
// new level. Callers must invoke it once per audio sample.
func (e *Envelope) NextValue() float64 {
	switch e.state {
	case EnvelopeIdle:
		return 0
	case EnvelopeAttack:
		e.value += e.rate
		if e.value >= 1.0 {
			e.value = 1.0
			e.state = EnvelopeDecay
			e.rate = (1.0 - e.config.SustainLevel) / (e.config.DecayTime * e.sampleRate)
		}
		return e.value
	case EnvelopeDecay:
		e.value -= e.rate
		if e.value <= e.config.SustainLevel {
			e.value = e.config.SustainLevel
			e.state = EnvelopeSustain
		}
		return e.value
	case EnvelopeSustain:
		return e.config.SustainLevel
	case EnvelopeRelease:
		e.value -= e.rate
		if e.value <= envelopeSilence {
			e.value = 0
			e.state = EnvelopeIdle
		}
		return e.value
	default:
		return 0
	}
}

// UpdateSampleRate recomputes the active phase increment from the
// configured times and the current level, so a mid-envelope rate change
// does not glitch.
func (e *Envelope) UpdateSampleRate(rate float64) {
	e.sampleRate = clampSampleRate(rate)
	switch e.state {
	case EnvelopeAttack:
		e.rate = 1.0 / (e.config.AttackTime * e.sampleRate)
	case EnvelopeDecay:
		e.rate = (1.0 - e.config.SustainLevel) / (e.config.DecayTime * e.sampleRate)
	case EnvelopeRelease:
		e.rate = e.value / (e.config.ReleaseTime * e.sampleRate)
	}
}

// IsActive reports whether the envelope still contributes signal. A
// releasing envelope stays active until it falls below the near-silence
// threshold, so voice reuse never truncates an audible tail.
func (e *Envelope) IsActive() bool {
	switch e.state {
	case EnvelopeIdle:
		return false
	case EnvelopeRelease:
		return e.value > envelopeSilence
	default:
		return true
	}
}

// Reset forces the envelope back to idle.
func (e *Envelope) Reset() {
	e.state = EnvelopeIdle
	e.value = 0
	e.rate = 0
}
