// Copyright 2024, The rsfec Authors, see LICENSE for details.

package rsfec

import (
	"github.com/pkg/errors"
)

// Determinant returns the determinant of a square matrix.
//
// Triangular matrices use the product of the main diagonal. Everything
// else is reduced by Gaussian elimination; in characteristic 2 a row swap
// does not change the sign, so the determinant is the product of the pivots.
func (f *Field) Determinant(m Matrix) (byte, error) {
	if !m.IsSquare() {
		return 0, ErrNotSquare
	}
	if err := m.Check(); err != nil {
		return 0, err
	}
	if m.isTriangular() {
		return f.diagonalProduct(m), nil
	}
	return f.eliminationDeterminant(m.Clone()), nil
}

func (f *Field) diagonalProduct(m Matrix) byte {
	det := byte(1)
	for i := range m {
		det = f.Mul(det, m[i][i])
	}
	return det
}

// eliminationDeterminant destroys m.
func (f *Field) eliminationDeterminant(m Matrix) byte {
	size := len(m)
	det := byte(1)
	for r := 0; r < size; r++ {
		if m[r][r] == 0 {
			for rowBelow := r + 1; rowBelow < size; rowBelow++ {
				if m[rowBelow][r] != 0 {
					_ = m.SwapRows(r, rowBelow)
					break
				}
			}
		}
		pivot := m[r][r]
		if pivot == 0 {
			return 0
		}
		det = f.Mul(det, pivot)
		for rowBelow := r + 1; rowBelow < size; rowBelow++ {
			if m[rowBelow][r] == 0 {
				continue
			}
			scale := f.div(m[rowBelow][r], pivot)
			for c := r; c < size; c++ {
				m[rowBelow][c] ^= f.Mul(scale, m[r][c])
			}
		}
	}
	return det
}

// minor returns the determinant of m without row r and column c.
// The minor of a 1x1 matrix is 1.
func (f *Field) minor(m Matrix, r, c int) byte {
	if len(m) == 1 {
		return 1
	}
	sub := m.DeleteRows(r).DeleteCols(c)
	if sub.isTriangular() {
		return f.diagonalProduct(sub)
	}
	return f.eliminationDeterminant(sub)
}

// CofactorMatrix returns the matrix of minors divided by the determinant.
// Signs vanish in characteristic 2.
func (f *Field) CofactorMatrix(m Matrix) (Matrix, error) {
	det, err := f.Determinant(m)
	if err != nil {
		return nil, err
	}
	if det == 0 {
		return nil, ErrSingular
	}
	size := len(m)
	out, err := NewMatrix(size, size)
	if err != nil {
		return nil, err
	}
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			out[r][c] = f.div(f.minor(m, r, c), det)
		}
	}
	return out, nil
}

// AdjugateInverse returns the inverse of m as the transposed cofactor matrix.
// Returns ErrSingular when the determinant is zero.
func (f *Field) AdjugateInverse(m Matrix) (Matrix, error) {
	cof, err := f.CofactorMatrix(m)
	if err != nil {
		return nil, err
	}
	return cof.Transpose(), nil
}

// SchurComplement partitions m as
//
//	| A  B |
//	| C  D |
//
// with D the bottom-right element and returns A - B*D^-1*C.
// This is one step of a block inversion, not an inverse. It satisfies
// det(m) = D * det(A - B*D^-1*C).
func (f *Field) SchurComplement(m Matrix) (Matrix, error) {
	if !m.IsSquare() {
		return nil, ErrNotSquare
	}
	size := len(m)
	if size < 2 {
		return nil, errors.Wrap(ErrInvalidRowSize, "schur complement needs at least 2x2")
	}
	last := size - 1
	d := m[last][last]
	if d == 0 {
		return nil, errors.Wrap(ErrSingular, "bottom-right block is zero")
	}
	dInv := f.div(1, d)

	out, err := m.SubMatrix(0, 0, last, last)
	if err != nil {
		return nil, err
	}
	for r := 0; r < last; r++ {
		bd := f.Mul(m[r][last], dInv)
		if bd == 0 {
			continue
		}
		for c := 0; c < last; c++ {
			out[r][c] ^= f.Mul(bd, m[last][c])
		}
	}
	return out, nil
}
