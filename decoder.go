// Copyright 2024, The rsfec Authors, see LICENSE for details.

package rsfec

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	// ErrUncorrectableErasure is returned when the erased positions
	// cannot be recovered: more than 2t erasures, or no invertible
	// recovery matrix.
	ErrUncorrectableErasure = errors.New("uncorrectable erasure pattern")
	// ErrInvalidErasure is returned for an erasure position outside the codeword.
	ErrInvalidErasure = errors.New("erasure position out of range")
)

// Decode recovers the data symbols from the surviving symbols.
func (r *reedSolomon) Decode(received []byte, erasures []int) ([]byte, error) {
	if len(received) != r.totalSymbols {
		return nil, errors.Wrapf(ErrDimensionMismatch, "got %d symbols, want %d", len(received), r.totalSymbols)
	}
	erased, err := r.erasureSet(erasures)
	if err != nil {
		return nil, err
	}
	present := make([]byte, 0, len(received))
	for i, v := range received {
		if !containsSorted(erased, i) {
			present = append(present, v)
		}
	}
	if err := checkSymbols(present); err != nil {
		return nil, err
	}

	// Nothing lost among the data symbols: they are the data.
	if len(erased) == 0 || erased[0] >= r.dataSymbols {
		return append([]byte(nil), received[:r.dataSymbols]...), nil
	}

	dm, err := r.decodeMatrix(erased)
	if err != nil {
		return nil, err
	}
	survivors := make([]byte, r.dataSymbols)
	for i, pos := range dm.sources {
		survivors[i] = received[pos]
	}
	return r.field.MulVec(dm.inverse, survivors)
}

// erasureSet validates the positions and returns them sorted without
// duplicates.
func (r *reedSolomon) erasureSet(erasures []int) ([]int, error) {
	erased := make([]int, 0, len(erasures))
	for _, e := range erasures {
		if e < 0 || e >= r.totalSymbols {
			return nil, errors.Wrapf(ErrInvalidErasure, "position %d, codeword has %d symbols", e, r.totalSymbols)
		}
		erased = append(erased, e)
	}
	sort.Ints(erased)
	out := erased[:0]
	for i, e := range erased {
		if i > 0 && e == erased[i-1] {
			continue
		}
		out = append(out, e)
	}
	if len(out) > r.paritySymbols {
		r.o.logger.Debug("too many erasures",
			zap.Ints("erasures", out),
			zap.Int("capacity", r.paritySymbols))
		return nil, errors.Wrapf(ErrUncorrectableErasure, "%d erasures, at most %d can be corrected", len(out), r.paritySymbols)
	}
	return out, nil
}

func containsSorted(s []int, v int) bool {
	i := sort.SearchInts(s, v)
	return i < len(s) && s[i] == v
}

// decodeMatrix returns the inverse of the square recovery matrix for a
// sorted, non-empty erasure pattern, using the cache when enabled.
func (r *reedSolomon) decodeMatrix(erased []int) (*decodeMatrix, error) {
	if dm := r.tree.GetInvertedMatrix(erased); dm != nil {
		return dm, nil
	}

	var (
		sub     Matrix
		sources []int
		err     error
	)
	switch r.o.strategy {
	case DecodeSubstitution:
		sub, sources, err = r.substitutionMatrix(erased)
	default:
		sub, sources = r.deletionMatrix(erased)
	}
	if err != nil {
		return nil, err
	}

	var inverse Matrix
	switch r.o.inversion {
	case InversionGaussJordan:
		inverse, err = r.field.Invert(sub)
	default:
		inverse, err = r.field.AdjugateInverse(sub)
	}
	if err != nil {
		r.o.logger.Debug("recovery matrix is not invertible",
			zap.Ints("erasures", erased),
			zap.Stringer("matrix", sub),
			zap.Error(err))
		return nil, fmt.Errorf("%w: erasures %v: %w", ErrUncorrectableErasure, erased, err)
	}

	dm := &decodeMatrix{inverse: inverse, sources: sources}
	if r.tree != nil {
		if err := r.tree.InsertInvertedMatrix(erased, dm, r.totalSymbols); err != nil {
			return nil, err
		}
		r.o.logger.Debug("cached decode matrix", zap.Ints("erasures", erased))
	}
	return dm, nil
}

// precomputeDecodeTable caches the decode matrix of every pattern of
// one to 2t erased positions that includes a data position, and
// returns how many were stored. Patterns without an invertible
// recovery matrix are left out and fail in Decode as before.
func (r *reedSolomon) precomputeDecodeTable() int {
	erased := make([]int, 0, r.paritySymbols)
	n := 0
	var walk func(start int)
	walk = func(start int) {
		for i := start; i < r.totalSymbols; i++ {
			// Patterns starting in the parity section never need a matrix.
			if len(erased) == 0 && i >= r.dataSymbols {
				return
			}
			erased = append(erased, i)
			if _, err := r.decodeMatrix(erased); err == nil {
				n++
			}
			if len(erased) < r.paritySymbols {
				walk(i + 1)
			}
			erased = erased[:len(erased)-1]
		}
	}
	walk(0)
	return n
}

// deletionMatrix removes the erased rows of G^T and keeps the first k
// of the remaining rows.
func (r *reedSolomon) deletionMatrix(erased []int) (Matrix, []int) {
	sub := make(Matrix, 0, r.dataSymbols)
	sources := make([]int, 0, r.dataSymbols)
	for pos := 0; pos < r.totalSymbols && len(sub) < r.dataSymbols; pos++ {
		if containsSorted(erased, pos) {
			continue
		}
		sub = append(sub, r.gt[pos])
		sources = append(sources, pos)
	}
	return sub, sources
}

// substitutionMatrix starts from the data rows of G^T and swaps each
// erased data row for the next parity row that was received.
func (r *reedSolomon) substitutionMatrix(erased []int) (Matrix, []int, error) {
	sub := make(Matrix, r.dataSymbols)
	sources := make([]int, r.dataSymbols)
	copy(sub, r.gt[:r.dataSymbols])
	next := r.dataSymbols
	for i := range sources {
		sources[i] = i
		if !containsSorted(erased, i) {
			continue
		}
		for next < r.totalSymbols && containsSorted(erased, next) {
			next++
		}
		if next == r.totalSymbols {
			return nil, nil, errors.Wrapf(ErrUncorrectableErasure, "no parity symbol left for position %d", i)
		}
		sub[i] = r.gt[next]
		sources[i] = next
		next++
	}
	return sub, sources, nil
}
