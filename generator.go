// Copyright 2024, The rsfec Authors, see LICENSE for details.

package rsfec

import (
	"github.com/pkg/errors"
)

// ErrInvalidConfig is returned for a data/parity configuration the
// field cannot support.
var ErrInvalidConfig = errors.New("invalid data/parity configuration")

// MaxTotalSymbols is the longest codeword over GF(16).
const MaxTotalSymbols = groupOrder

// GeneratorPolynomial returns prod_{a=1..2t} (x - alpha^a), most
// significant coefficient first. The result has 2t+1 coefficients and
// leading coefficient 1.
func (f *Field) GeneratorPolynomial(t int) ([]byte, error) {
	if t < 1 || 2*t >= MaxTotalSymbols {
		return nil, errors.Wrapf(ErrInvalidConfig, "t=%d, need 1 <= 2t < %d", t, MaxTotalSymbols)
	}
	g := []byte{1}
	for a := 1; a <= 2*t; a++ {
		g = f.PolyMul(g, []byte{1, f.Alpha(a)})
	}
	return g, nil
}

// GeneratorMatrix returns the systematic k x (k+2t) generator matrix.
// Row r starts as the basis vector e_r; its last 2t entries are replaced
// with the remainder of e_r divided by gen.
func (f *Field) GeneratorMatrix(k, t int, gen []byte) (Matrix, error) {
	n := k + 2*t
	if k < 1 || t < 1 || n > MaxTotalSymbols {
		return nil, errors.Wrapf(ErrInvalidConfig, "k=%d t=%d, need k >= 1, t >= 1, k+2t <= %d", k, t, MaxTotalSymbols)
	}
	if len(gen) != 2*t+1 {
		return nil, errors.Wrapf(ErrInvalidConfig, "generator polynomial has %d coefficients, want %d", len(gen), 2*t+1)
	}
	g, err := NewMatrix(k, n)
	if err != nil {
		return nil, err
	}
	row := make([]byte, n)
	row[0] = 1
	for r := 0; r < k; r++ {
		_, rem, err := f.PolyDiv(row, gen)
		if err != nil {
			return nil, err
		}
		copy(g[r][:k], row[:k])
		copy(g[r][k:], rem)
		// Shift the basis vector one position right.
		copy(row[1:], row[:n-1])
		row[0] = 0
	}
	return g, nil
}

// ParityCheckMatrix returns H = transpose([P ; I]) = [P^T | I] for a
// systematic generator matrix G = [I | P].
func ParityCheckMatrix(g Matrix) (Matrix, error) {
	if err := g.Check(); err != nil {
		return nil, err
	}
	k, n := len(g), len(g[0])
	if n <= k {
		return nil, errors.Wrapf(ErrInvalidConfig, "generator matrix is %dx%d, no parity columns", k, n)
	}
	p := n - k
	stacked, err := g.SubMatrix(0, k, k, n)
	if err != nil {
		return nil, err
	}
	ident, err := IdentityMatrix(p)
	if err != nil {
		return nil, err
	}
	stacked = append(stacked, ident...)
	return stacked.Transpose(), nil
}
