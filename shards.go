/**
 * Reed-Solomon Coding of byte shards, two symbols per byte.
 *
 * Copyright 2015, Klaus Post
 * Copyright 2015, Backblaze, Inc.
 * Copyright 2024, The rsfec Authors
 */

package rsfec

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	// ErrTooFewShards is returned if too few shards where given to
	// EncodeShards/VerifyShards/ReconstructShards. It will also be returned
	// from ReconstructShards if there were too few shards to reconstruct
	// the missing data. It matches ErrUncorrectableErasure.
	ErrTooFewShards = fmt.Errorf("too few shards given: %w", ErrUncorrectableErasure)

	// ErrShardNoData will be returned if there are no shards,
	// or if the length of all shards is zero.
	ErrShardNoData = errors.New("no shard data")

	// ErrShardSize is returned if shard length isn't the same for all
	// shards.
	ErrShardSize = errors.New("shard sizes do not match")

	// ErrShortData will be returned by Split(), if there isn't enough data
	// to fill the number of shards.
	ErrShortData = errors.New("not enough data to fill the number of requested shards")
)

// EncodeShards encodes parity for a set of data shards.
func (r *reedSolomon) EncodeShards(shards [][]byte) error {
	if len(shards) != r.totalSymbols {
		return ErrTooFewShards
	}
	if err := checkShards(shards, false); err != nil {
		return err
	}

	output := shards[r.dataSymbols:]
	r.codeSomeShards(r.parity, shards[:r.dataSymbols], output, len(shards[0]))
	return nil
}

// VerifyShards returns true if the parity shards contain the right data.
// The data is not modified.
func (r *reedSolomon) VerifyShards(shards [][]byte) (bool, error) {
	if len(shards) != r.totalSymbols {
		return false, ErrTooFewShards
	}
	if err := checkShards(shards, false); err != nil {
		return false, err
	}

	size := len(shards[0])
	computed := make([][]byte, r.paritySymbols)
	for i := range computed {
		computed[i] = make([]byte, size)
	}
	r.codeSomeShards(r.parity, shards[:r.dataSymbols], computed, size)
	for i, calc := range computed {
		if !bytes.Equal(calc, shards[r.dataSymbols+i]) {
			return false, nil
		}
	}
	return true, nil
}

// ReconstructShards recreates the missing shards, data first, then parity.
// The reconstructed shard set is complete, but integrity is not verified.
// Use VerifyShards to check if the data set is ok.
func (r *reedSolomon) ReconstructShards(shards [][]byte) error {
	if len(shards) != r.totalSymbols {
		return ErrTooFewShards
	}
	if err := checkShards(shards, true); err != nil {
		return err
	}
	size := shardSize(shards)

	var erased []int
	for i, shard := range shards {
		if len(shard) == 0 {
			erased = append(erased, i)
		}
	}
	if len(erased) == 0 {
		return nil
	}
	if len(erased) > r.paritySymbols {
		r.o.logger.Debug("too many missing shards",
			zap.Ints("missing", erased),
			zap.Int("capacity", r.paritySymbols))
		return ErrTooFewShards
	}

	// Re-create any data shards that were missing.
	if erased[0] < r.dataSymbols {
		dm, err := r.decodeMatrix(erased)
		if err != nil {
			return err
		}
		inputs := make([][]byte, r.dataSymbols)
		for i, pos := range dm.sources {
			inputs[i] = shards[pos]
		}
		var rows Matrix
		var outputs [][]byte
		for i := 0; i < r.dataSymbols; i++ {
			if len(shards[i]) != 0 {
				continue
			}
			shards[i] = make([]byte, size)
			rows = append(rows, dm.inverse[i])
			outputs = append(outputs, shards[i])
		}
		r.codeSomeShards(rows, inputs, outputs, size)
	}

	// Now that we have all of the data shards intact, we can
	// compute any of the parity that is missing.
	var rows Matrix
	var outputs [][]byte
	for i := r.dataSymbols; i < r.totalSymbols; i++ {
		if len(shards[i]) != 0 {
			continue
		}
		shards[i] = make([]byte, size)
		rows = append(rows, r.parity[i-r.dataSymbols])
		outputs = append(outputs, shards[i])
	}
	if len(outputs) > 0 {
		r.codeSomeShards(rows, shards[:r.dataSymbols], outputs, size)
	}
	return nil
}

// codeSomeShards multiplies a subset of matrix rows by the input shards
// to produce one output shard per row. Every row has len(inputs) entries.
func (r *reedSolomon) codeSomeShards(matrixRows Matrix, inputs, outputs [][]byte, byteCount int) {
	if len(outputs) == 0 {
		return
	}
	if r.o.maxGoroutines > 1 && byteCount > r.o.minSplitSize {
		r.codeSomeShardsP(matrixRows, inputs, outputs, byteCount)
		return
	}
	r.codeRange(matrixRows, inputs, outputs, 0, byteCount)
}

func (r *reedSolomon) codeRange(matrixRows Matrix, inputs, outputs [][]byte, start, stop int) {
	for iRow, out := range outputs {
		out = out[start:stop]
		for c, in := range inputs {
			in = in[start:stop]
			if c == 0 {
				r.field.mulSlice(matrixRows[iRow][c], in, out)
			} else {
				r.field.mulSliceXor(matrixRows[iRow][c], in, out)
			}
		}
	}
}

// Perform the same as codeSomeShards, but split the workload into
// several goroutines.
func (r *reedSolomon) codeSomeShardsP(matrixRows Matrix, inputs, outputs [][]byte, byteCount int) {
	var wg sync.WaitGroup
	do := byteCount / r.o.maxGoroutines
	if do < r.o.minSplitSize {
		do = r.o.minSplitSize
	}
	start := 0
	for start < byteCount {
		if start+do > byteCount {
			do = byteCount - start
		}
		wg.Add(1)
		go func(start, stop int) {
			defer wg.Done()
			r.codeRange(matrixRows, inputs, outputs, start, stop)
		}(start, start+do)
		start += do
	}
	wg.Wait()
}

// mulSlice sets out = c*in on both nibbles of every byte.
func (f *Field) mulSlice(c byte, in, out []byte) {
	out = out[:len(in)]
	if c == 1 {
		copy(out, in)
		return
	}
	mt := &f.mulByte[c]
	for n, input := range in {
		out[n] = mt[input]
	}
}

// mulSliceXor adds c*in to out on both nibbles of every byte.
func (f *Field) mulSliceXor(c byte, in, out []byte) {
	out = out[:len(in)]
	if c == 0 {
		return
	}
	mt := &f.mulByte[c]
	for n, input := range in {
		out[n] ^= mt[input]
	}
}

// checkShards will check if shards are the same size
// or 0, if allowed. An error is returned if this fails.
// An error is also returned if all shards are size 0.
func checkShards(shards [][]byte, nilok bool) error {
	size := shardSize(shards)
	if size == 0 {
		return ErrShardNoData
	}
	for _, shard := range shards {
		if len(shard) != size {
			if len(shard) != 0 || !nilok {
				return ErrShardSize
			}
		}
	}
	return nil
}

// shardSize return the size of a single shard.
// The first non-zero size is returned,
// or 0 if all shards are size 0.
func shardSize(shards [][]byte) int {
	for _, shard := range shards {
		if len(shard) != 0 {
			return len(shard)
		}
	}
	return 0
}

// Split a data slice into the number of shards given to the encoder,
// and create empty parity shards.
//
// The data will be split into equally sized shards.
// If the data size isn't divisible by the number of shards,
// the last shard will contain extra zeros.
//
// There must be at least 1 byte otherwise ErrShortData will be
// returned.
//
// The data will not be copied, except for the last shard, so you
// should not modify the data of the input slice afterwards.
func (r *reedSolomon) Split(data []byte) ([][]byte, error) {
	if len(data) == 0 {
		return nil, ErrShortData
	}
	perShard := (len(data) + r.dataSymbols - 1) / r.dataSymbols

	shards := make([][]byte, r.totalSymbols)
	for i := range shards[:r.dataSymbols] {
		lo, hi := i*perShard, (i+1)*perShard
		switch {
		case hi <= len(data):
			shards[i] = data[lo:hi:hi]
		default:
			shards[i] = make([]byte, perShard)
			if lo < len(data) {
				copy(shards[i], data[lo:])
			}
		}
	}
	for i := r.dataSymbols; i < r.totalSymbols; i++ {
		shards[i] = make([]byte, perShard)
	}
	return shards, nil
}

// Join the shards and write the data segment to dst.
//
// Only the data shards are considered.
// You must supply the exact output size you want.
//
// If there are to few shards given, ErrTooFewShards will be returned.
// If the total data size is less than outSize, ErrShortData will be returned.
func (r *reedSolomon) Join(dst io.Writer, shards [][]byte, outSize int) error {
	if len(shards) < r.dataSymbols {
		return ErrTooFewShards
	}
	shards = shards[:r.dataSymbols]

	size := 0
	for _, shard := range shards {
		if shard == nil {
			return ErrTooFewShards
		}
		size += len(shard)
		if size >= outSize {
			break
		}
	}
	if size < outSize {
		return ErrShortData
	}

	write := outSize
	for _, shard := range shards {
		if write < len(shard) {
			_, err := dst.Write(shard[:write])
			return errors.Wrap(err, "join")
		}
		n, err := dst.Write(shard)
		if err != nil {
			return errors.Wrap(err, "join")
		}
		write -= n
		if write == 0 {
			break
		}
	}
	return nil
}
