// Copyright 2024, The rsfec Authors, see LICENSE for details.

package rsfec

import (
	"github.com/pkg/errors"
)

var (
	// ErrDimensionMismatch is returned when vector or matrix shapes do not agree.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrInvalidDivisor is returned when a polynomial divisor is empty
	// or has a zero leading coefficient.
	ErrInvalidDivisor = errors.New("invalid polynomial divisor")
)

// Polynomials are coefficient slices, most significant term first.

// PolySum adds two polynomials of equal length.
func (f *Field) PolySum(a, b []byte) ([]byte, error) {
	if len(a) != len(b) {
		return nil, errors.Wrapf(ErrDimensionMismatch, "poly sum of length %d and %d", len(a), len(b))
	}
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out, nil
}

// PolyScale multiplies every coefficient by s.
func (f *Field) PolyScale(a []byte, s byte) []byte {
	out := make([]byte, len(a))
	for i, c := range a {
		out[i] = f.Mul(c, s)
	}
	return out
}

// PolyMul returns the product of a and b, of length len(a)+len(b)-1.
func (f *Field) PolyMul(a, b []byte) []byte {
	if len(a) == 0 || len(b) == 0 {
		return []byte{}
	}
	out := make([]byte, len(a)+len(b)-1)
	for i, x := range a {
		if x == 0 {
			continue
		}
		for j, y := range b {
			out[i+j] ^= f.Mul(x, y)
		}
	}
	return out
}

// PolyDiv divides dividend by divisor using long division.
// The remainder always has len(divisor)-1 coefficients.
func (f *Field) PolyDiv(dividend, divisor []byte) (quotient, remainder []byte, err error) {
	if len(divisor) == 0 {
		return nil, nil, errors.Wrap(ErrInvalidDivisor, "empty divisor")
	}
	lead := divisor[0]
	if lead == 0 {
		return nil, nil, errors.Wrap(ErrInvalidDivisor, "leading coefficient is zero")
	}
	remLen := len(divisor) - 1
	if len(dividend) < len(divisor) {
		remainder = make([]byte, remLen)
		copy(remainder[remLen-len(dividend):], dividend)
		return []byte{}, remainder, nil
	}

	work := make([]byte, len(dividend))
	copy(work, dividend)
	steps := len(dividend) - len(divisor) + 1
	quotient = make([]byte, steps)
	for i := 0; i < steps; i++ {
		scale := f.div(work[i], lead)
		quotient[i] = scale
		if scale == 0 {
			continue
		}
		for j, d := range divisor {
			work[i+j] ^= f.Mul(d, scale)
		}
	}
	remainder = make([]byte, remLen)
	copy(remainder, work[steps:])
	return quotient, remainder, nil
}

// Dot returns the field dot product of a and b.
func (f *Field) Dot(a, b []byte) (byte, error) {
	if len(a) != len(b) {
		return 0, errors.Wrapf(ErrDimensionMismatch, "dot product of length %d and %d", len(a), len(b))
	}
	return f.dot(a, b), nil
}

func (f *Field) dot(a, b []byte) byte {
	var p byte
	for i := range a {
		p ^= f.Mul(a[i], b[i])
	}
	return p
}
