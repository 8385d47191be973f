package synth

import (
	"math"

	"github.com/cwbudde/algo-approx"
)

const minSampleRate = 8000.0

// noteID derives the note identity used to correlate NoteOn/NoteOff pairs.
func noteID(frequency float64) int {
	return int(math.Round(frequency))
}

func semitonesToRatio(semitones float64) float64 {
	const ln2 = 0.69314718055994530942
	return float64(approx.FastExp(float32(semitones / 12.0 * ln2)))
}

func clampSampleRate(rate float64) float64 {
	if rate < minSampleRate {
		return minSampleRate
	}
	return rate
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
