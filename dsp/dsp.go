package dsp

import (
	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

// Coefficients holds normalized biquad coefficients (a0 already divided out).
type Coefficients struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// Biquad implements a second-order IIR filter section in Direct Form I.
// Coefficients may be replaced between samples without disturbing the
// two-sample input/output history, which is what a modulated filter needs.
type Biquad struct {
	coeffs Coefficients

	x1, x2 float64 // input history
	y1, y2 float64 // output history
}

// NewBiquad creates a biquad section with the given coefficients.
func NewBiquad(c Coefficients) *Biquad {
	return &Biquad{coeffs: c}
}

// SetCoefficients replaces the section coefficients, keeping state intact.
func (b *Biquad) SetCoefficients(c Coefficients) {
	b.coeffs = c
}

// Process runs one sample through the section and shifts the history.
func (b *Biquad) Process(input float64) float64 {
	c := &b.coeffs
	output := c.B0*input + c.B1*b.x1 + c.B2*b.x2 - c.A1*b.y1 - c.A2*b.y2
	output = dspcore.FlushDenormals(output)

	b.x2 = b.x1
	b.x1 = input
	b.y2 = b.y1
	b.y1 = output

	return output
}

// Reset clears the section state.
func (b *Biquad) Reset() {
	b.x1, b.x2 = 0, 0
	b.y1, b.y2 = 0, 0
}

// CubicInterpolate evaluates a 4-point cubic through x0..x3 at the
// fractional position frac in [0,1) between x1 and x2.
func CubicInterpolate(x0, x1, x2, x3, frac float64) float64 {
	c0 := x1
	c1 := 0.5 * (x2 - x0)
	c2 := x0 - 2.5*x1 + 2.0*x2 - 0.5*x3
	c3 := 0.5*(x3-x0) + 1.5*(x1-x2)
	return ((c3*frac+c2)*frac + c1) * frac + c0
}
