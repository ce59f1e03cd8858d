/**
 * Reed-Solomon Coding over 4-bit values.
 *
 * Copyright 2015, Klaus Post
 * Copyright 2015, Backblaze, Inc.
 */

// Package rsfec implements a systematic Reed-Solomon erasure code over
// GF(16).
//
// k data symbols are encoded into k+2t symbols. Any 2t symbols may be
// lost, and as long as their positions are known the data is recovered
// from the rest.
package rsfec

import (
	"io"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Encoder is an interface to encode Reed-Solomon parity sets for your data.
type Encoder interface {
	// Encode returns the codeword for k data symbols: the data
	// followed by 2t parity symbols. It multiplies the data by the
	// transposed generator matrix.
	Encode(data []byte) ([]byte, error)

	// EncodePolynomial returns the same codeword as Encode, computed as
	// the remainder of data*x^2t divided by the generator polynomial.
	EncodePolynomial(data []byte) ([]byte, error)

	// Verify returns true if the codeword satisfies the parity checks.
	Verify(codeword []byte) (bool, error)

	// Decode recovers the data symbols of a received codeword.
	// erasures lists the positions that were not received; the values
	// at those positions are ignored. Up to 2t erasures can be corrected,
	// otherwise ErrUncorrectableErasure is returned.
	Decode(received []byte, erasures []int) ([]byte, error)

	// EncodeShards computes parity shards for a set of data shards.
	// Every byte holds two symbols, one per nibble, that are coded
	// independently. The number of shards must be TotalSymbols and all
	// shards must have the same size. Parity shards are overwritten.
	EncodeShards(shards [][]byte) error

	// VerifyShards returns true if the parity shards contain the right data.
	VerifyShards(shards [][]byte) (bool, error)

	// ReconstructShards recreates missing shards. A shard is missing
	// when it is nil or empty. If fewer than DataSymbols shards are
	// present, ErrTooFewShards is returned.
	ReconstructShards(shards [][]byte) error

	// Split a data slice into DataSymbols equally sized data shards
	// followed by zeroed parity shards. The last data shard is zero padded.
	Split(data []byte) ([][]byte, error)

	// Join writes the first outSize bytes of the data shards to dst.
	Join(dst io.Writer, shards [][]byte, outSize int) error

	// DataSymbols returns k.
	DataSymbols() int
	// ParitySymbols returns 2t.
	ParitySymbols() int
	// TotalSymbols returns k+2t.
	TotalSymbols() int

	// Field returns the field the code is defined over.
	Field() *Field
	// GeneratorPolynomial returns a copy of the generator polynomial.
	GeneratorPolynomial() []byte
	// GeneratorMatrix returns a copy of G.
	GeneratorMatrix() Matrix
	// ParityCheckMatrix returns a copy of H.
	ParityCheckMatrix() Matrix
}

// reedSolomon contains the matrices for a specific
// distribution of data and parity symbols.
// Construct if using New()
type reedSolomon struct {
	dataSymbols   int
	paritySymbols int
	totalSymbols  int

	field   *Field
	genPoly []byte
	// g is k x n, gt is its transpose.
	g  Matrix
	gt Matrix
	// parity holds the last 2t rows of gt.
	parity Matrix
	h      Matrix

	tree *inversionTree
	o    options
}

// New creates a new encoder for k data symbols that corrects up to 2t
// erasures. You can reuse this encoder, and it is safe for
// concurrent use.
func New(dataSymbols, t int, opts ...Option) (Encoder, error) {
	o := defaultOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.field == nil {
		o.field = DefaultField()
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if dataSymbols <= 0 || t <= 0 {
		return nil, errors.Wrapf(ErrInvalidConfig, "k=%d t=%d", dataSymbols, t)
	}
	if dataSymbols+2*t > MaxTotalSymbols {
		return nil, errors.Wrapf(ErrInvalidConfig, "k+2t=%d exceeds %d", dataSymbols+2*t, MaxTotalSymbols)
	}

	r := reedSolomon{
		dataSymbols:   dataSymbols,
		paritySymbols: 2 * t,
		totalSymbols:  dataSymbols + 2*t,
		field:         o.field,
		o:             o,
	}

	var err error
	r.genPoly, err = r.field.GeneratorPolynomial(t)
	if err != nil {
		return nil, err
	}
	r.g, err = r.field.GeneratorMatrix(dataSymbols, t, r.genPoly)
	if err != nil {
		return nil, err
	}
	r.gt = r.g.Transpose()
	r.parity = r.gt[dataSymbols:]
	r.h, err = ParityCheckMatrix(r.g)
	if err != nil {
		return nil, err
	}
	if o.inversionCache || o.precompute {
		r.tree = newInversionTree(r.totalSymbols)
	}
	if o.precompute {
		n := r.precomputeDecodeTable()
		o.logger.Debug("decode table precomputed", zap.Int("patterns", n))
	}

	o.logger.Debug("reed-solomon encoder created",
		zap.Int("dataSymbols", r.dataSymbols),
		zap.Int("paritySymbols", r.paritySymbols),
		zap.Stringer("strategy", o.strategy),
		zap.Stringer("inversion", o.inversion),
		zap.Bool("inversionCache", r.tree != nil),
	)
	return &r, nil
}

func (r *reedSolomon) DataSymbols() int   { return r.dataSymbols }
func (r *reedSolomon) ParitySymbols() int { return r.paritySymbols }
func (r *reedSolomon) TotalSymbols() int  { return r.totalSymbols }
func (r *reedSolomon) Field() *Field      { return r.field }

func (r *reedSolomon) GeneratorPolynomial() []byte {
	return append([]byte(nil), r.genPoly...)
}

func (r *reedSolomon) GeneratorMatrix() Matrix {
	return r.g.Clone()
}

func (r *reedSolomon) ParityCheckMatrix() Matrix {
	return r.h.Clone()
}

func (r *reedSolomon) checkData(data []byte) error {
	if len(data) != r.dataSymbols {
		return errors.Wrapf(ErrDimensionMismatch, "got %d data symbols, want %d", len(data), r.dataSymbols)
	}
	return checkSymbols(data)
}

// Encode multiplies the transposed generator matrix by the data.
func (r *reedSolomon) Encode(data []byte) ([]byte, error) {
	if err := r.checkData(data); err != nil {
		return nil, err
	}
	return r.field.MulVec(r.gt, data)
}

// EncodePolynomial appends the remainder of data*x^2t / g(x) to the data.
func (r *reedSolomon) EncodePolynomial(data []byte) ([]byte, error) {
	if err := r.checkData(data); err != nil {
		return nil, err
	}
	padded := make([]byte, r.totalSymbols)
	copy(padded, data)
	_, rem, err := r.field.PolyDiv(padded, r.genPoly)
	if err != nil {
		return nil, err
	}
	return append(append(make([]byte, 0, r.totalSymbols), data...), rem...), nil
}

// Verify checks H*c == 0.
func (r *reedSolomon) Verify(codeword []byte) (bool, error) {
	if len(codeword) != r.totalSymbols {
		return false, errors.Wrapf(ErrDimensionMismatch, "got %d symbols, want %d", len(codeword), r.totalSymbols)
	}
	if err := checkSymbols(codeword); err != nil {
		return false, err
	}
	syndrome, err := r.field.MulVec(r.h, codeword)
	if err != nil {
		return false, err
	}
	for _, s := range syndrome {
		if s != 0 {
			return false, nil
		}
	}
	return true, nil
}
