/**
 * Matrix Algebra over GF(16)
 *
 * Copyright 2015, Klaus Post
 * Copyright 2015, Backblaze, Inc.
 */

package rsfec

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Matrix is a row-major matrix of field elements: byte[row][col].
type Matrix [][]byte

var (
	ErrInvalidRowSize  = errors.New("invalid row size")
	ErrInvalidColSize  = errors.New("invalid column size")
	ErrColSizeMismatch = errors.New("column size is not the same for all rows")
	ErrMatrixSize      = errors.New("matrix sizes does not match")
	ErrSingular        = errors.New("matrix is singular")
	ErrNotSquare       = errors.New("only square matrices can be inverted")
)

// NewMatrix returns a matrix of zeros.
func NewMatrix(rows, cols int) (Matrix, error) {
	if rows <= 0 {
		return nil, ErrInvalidRowSize
	}
	if cols <= 0 {
		return nil, ErrInvalidColSize
	}

	m := Matrix(make([][]byte, rows))
	for i := range m {
		m[i] = make([]byte, cols)
	}
	return m, nil
}

// NewMatrixData initializes a matrix with the given row-major data.
// Note that data is not copied from input.
func NewMatrixData(data [][]byte) (Matrix, error) {
	m := Matrix(data)
	err := m.Check()
	if err != nil {
		return nil, err
	}
	return m, nil
}

// IdentityMatrix returns an identity matrix of the given size.
func IdentityMatrix(size int) (Matrix, error) {
	m, err := NewMatrix(size, size)
	if err != nil {
		return nil, err
	}
	for i := range m {
		m[i][i] = 1
	}
	return m, nil
}

// Check verifies that the matrix is non-empty and rectangular.
func (m Matrix) Check() error {
	rows := len(m)
	if rows <= 0 {
		return ErrInvalidRowSize
	}
	cols := len(m[0])
	if cols <= 0 {
		return ErrInvalidColSize
	}

	for _, col := range m {
		if len(col) != cols {
			return ErrColSizeMismatch
		}
	}
	return nil
}

// String returns a human-readable string of the matrix contents.
//
// Example: [[1, 2], [3, 4]]
func (m Matrix) String() string {
	var rowOut []string
	for _, row := range m {
		var colOut []string
		for _, col := range row {
			colOut = append(colOut, strconv.Itoa(int(col)))
		}
		rowOut = append(rowOut, "["+strings.Join(colOut, ", ")+"]")
	}
	return "[" + strings.Join(rowOut, ", ") + "]"
}

// Clone returns a deep copy.
func (m Matrix) Clone() Matrix {
	out := make(Matrix, len(m))
	for i, row := range m {
		out[i] = append([]byte(nil), row...)
	}
	return out
}

// Equal reports whether both matrices have the same shape and contents.
func (m Matrix) Equal(n Matrix) bool {
	if m.SameSize(n) != nil {
		return false
	}
	for r := range m {
		for c := range m[r] {
			if m[r][c] != n[r][c] {
				return false
			}
		}
	}
	return true
}

// SameSize returns ErrMatrixSize unless both matrices have the same shape.
func (m Matrix) SameSize(n Matrix) error {
	if len(m) != len(n) {
		return ErrMatrixSize
	}
	for i := range m {
		if len(m[i]) != len(n[i]) {
			return ErrMatrixSize
		}
	}
	return nil
}

// Transpose returns a new matrix with rows and columns exchanged.
func (m Matrix) Transpose() Matrix {
	if len(m) == 0 {
		return Matrix{}
	}
	out := make(Matrix, len(m[0]))
	for c := range out {
		out[c] = make([]byte, len(m))
		for r := range m {
			out[c][r] = m[r][c]
		}
	}
	return out
}

// Augment returns the concatenation of this matrix and the matrix on the right.
func (m Matrix) Augment(right Matrix) (Matrix, error) {
	if len(m) != len(right) {
		return nil, ErrMatrixSize
	}

	result, _ := NewMatrix(len(m), len(m[0])+len(right[0]))
	for r, row := range m {
		copy(result[r], row)
		copy(result[r][len(row):], right[r])
	}
	return result, nil
}

// SubMatrix returns a part of this matrix. Data is copied.
func (m Matrix) SubMatrix(rmin, cmin, rmax, cmax int) (Matrix, error) {
	result, err := NewMatrix(rmax-rmin, cmax-cmin)
	if err != nil {
		return nil, err
	}
	for r := rmin; r < rmax; r++ {
		copy(result[r-rmin], m[r][cmin:cmax])
	}
	return result, nil
}

// SwapRows exchanges two rows in the matrix.
func (m Matrix) SwapRows(r1, r2 int) error {
	if r1 < 0 || len(m) <= r1 || r2 < 0 || len(m) <= r2 {
		return ErrInvalidRowSize
	}
	m[r2], m[r1] = m[r1], m[r2]
	return nil
}

// IsSquare will return true if the matrix is square.
func (m Matrix) IsSquare() bool {
	return len(m) > 0 && len(m) == len(m[0])
}

// DeleteRows returns a copy without the given row indices.
// Indices outside the matrix are ignored.
func (m Matrix) DeleteRows(rows ...int) Matrix {
	drop := indexSet(rows)
	out := make(Matrix, 0, len(m))
	for r, row := range m {
		if drop[r] {
			continue
		}
		out = append(out, append([]byte(nil), row...))
	}
	return out
}

// DeleteCols returns a copy without the given column indices.
func (m Matrix) DeleteCols(cols ...int) Matrix {
	drop := indexSet(cols)
	out := make(Matrix, len(m))
	for r, row := range m {
		out[r] = make([]byte, 0, len(row))
		for c, v := range row {
			if !drop[c] {
				out[r] = append(out[r], v)
			}
		}
	}
	return out
}

func indexSet(idx []int) map[int]bool {
	s := make(map[int]bool, len(idx))
	for _, i := range idx {
		s[i] = true
	}
	return s
}

// isTriangular reports whether a square matrix is upper or lower triangular.
func (m Matrix) isTriangular() bool {
	upper, lower := true, true
	for r, row := range m {
		for c, v := range row {
			if v == 0 {
				continue
			}
			if c < r {
				upper = false
			}
			if c > r {
				lower = false
			}
		}
		if !upper && !lower {
			return false
		}
	}
	return true
}

// Multiply multiplies a (the one on the left) by b (the one on the right)
// and returns a new matrix with the result.
func (f *Field) Multiply(a, b Matrix) (Matrix, error) {
	if len(a) == 0 || len(b) == 0 {
		return nil, ErrMatrixSize
	}
	if len(a[0]) != len(b) {
		return nil, errors.Wrapf(ErrDimensionMismatch, "columns on left (%d) is different than rows on right (%d)", len(a[0]), len(b))
	}
	result, err := NewMatrix(len(a), len(b[0]))
	if err != nil {
		return nil, err
	}
	for r, row := range result {
		for c := range row {
			var value byte
			for i := range a[0] {
				value ^= f.Mul(a[r][i], b[i][c])
			}
			result[r][c] = value
		}
	}
	return result, nil
}

// MulVec returns m*v, one dot product per row.
func (f *Field) MulVec(m Matrix, v []byte) ([]byte, error) {
	out := make([]byte, len(m))
	for r, row := range m {
		if len(row) != len(v) {
			return nil, errors.Wrapf(ErrDimensionMismatch, "row %d has %d columns, vector has %d entries", r, len(row), len(v))
		}
		out[r] = f.dot(row, v)
	}
	return out, nil
}

// Invert returns the inverse of m using Gauss-Jordan elimination.
// Returns ErrSingular when the matrix is singular and doesn't have an inverse.
// The matrix must be square, otherwise ErrNotSquare is returned.
func (f *Field) Invert(m Matrix) (Matrix, error) {
	if !m.IsSquare() {
		return nil, ErrNotSquare
	}

	size := len(m)
	work, err := IdentityMatrix(size)
	if err != nil {
		return nil, err
	}
	work, err = m.Augment(work)
	if err != nil {
		return nil, err
	}

	err = f.gaussianElimination(work)
	if err != nil {
		return nil, err
	}

	return work.SubMatrix(0, size, size, size*2)
}

func (f *Field) gaussianElimination(m Matrix) error {
	rows := len(m)
	columns := len(m[0])
	// Clear out the part below the main diagonal and scale the main
	// diagonal to be 1.
	for r := 0; r < rows; r++ {
		// If the element on the diagonal is 0, find a row below
		// that has a non-zero and swap them.
		if m[r][r] == 0 {
			for rowBelow := r + 1; rowBelow < rows; rowBelow++ {
				if m[rowBelow][r] != 0 {
					_ = m.SwapRows(r, rowBelow)
					break
				}
			}
		}
		// If we couldn't find one, the matrix is singular.
		if m[r][r] == 0 {
			return ErrSingular
		}
		// Scale to 1.
		if m[r][r] != 1 {
			scale := f.div(1, m[r][r])
			for c := 0; c < columns; c++ {
				m[r][c] = f.Mul(m[r][c], scale)
			}
		}
		// Make everything below the 1 be a 0 by subtracting
		// a multiple of it.
		for rowBelow := r + 1; rowBelow < rows; rowBelow++ {
			if m[rowBelow][r] != 0 {
				scale := m[rowBelow][r]
				for c := 0; c < columns; c++ {
					m[rowBelow][c] ^= f.Mul(scale, m[r][c])
				}
			}
		}
	}

	// Now clear the part above the main diagonal.
	for d := 0; d < rows; d++ {
		for rowAbove := 0; rowAbove < d; rowAbove++ {
			if m[rowAbove][d] != 0 {
				scale := m[rowAbove][d]
				for c := 0; c < columns; c++ {
					m[rowAbove][c] ^= f.Mul(scale, m[d][c])
				}
			}
		}
	}
	return nil
}
