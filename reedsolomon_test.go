/**
 * Unit tests for ReedSolomon
 *
 * Copyright 2015, Klaus Post
 * Copyright 2015, Backblaze, Inc.  All rights reserved.
 */

package rsfec

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func testOpts() [][]Option {
	if testing.Short() {
		return [][]Option{
			{WithDecodeStrategy(DecodeDeletion)}, {WithDecodeStrategy(DecodeSubstitution)},
		}
	}
	return [][]Option{
		{WithDecodeStrategy(DecodeDeletion)},
		{WithDecodeStrategy(DecodeSubstitution)},
		{WithDecodeStrategy(DecodeDeletion), WithInversion(InversionGaussJordan)},
		{WithDecodeStrategy(DecodeSubstitution), WithInversion(InversionGaussJordan)},
		{WithInversionCache(true)},
		{WithDecodeStrategy(DecodeSubstitution), WithInversionCache(true)},
		{WithMaxGoroutines(1), WithMinSplitSize(500)},
		{WithMaxGoroutines(5000), WithMinSplitSize(50)},
		{WithMaxGoroutines(5000), WithMinSplitSize(500000)},
	}
}

// code sizes to test, as {k, t}.
var testSizes = [][2]int{{1, 1}, {1, 7}, {3, 1}, {4, 2}, {5, 3}, {8, 1}, {8, 2}, {8, 3}, {9, 3}, {11, 2}, {13, 1}}

func fillRandom(p []byte) {
	for i := 0; i < len(p); i += 7 {
		val := rand.Int63()
		for j := 0; i+j < len(p) && j < 7; j++ {
			p[i+j] = byte(val)
			val >>= 8
		}
	}
}

func randomSymbols(rng *rand.Rand, n int) []byte {
	v := make([]byte, n)
	for i := range v {
		v[i] = byte(rng.Intn(FieldSize))
	}
	return v
}

func TestNewInvalid(t *testing.T) {
	for _, size := range [][2]int{{0, 3}, {8, 0}, {-1, 1}, {10, 3}, {14, 1}, {1, 8}} {
		_, err := New(size[0], size[1])
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("k=%d t=%d: expected ErrInvalidConfig, got %v", size[0], size[1], err)
		}
	}
	r, err := New(13, 1)
	require.NoError(t, err)
	assert.Equal(t, 15, r.TotalSymbols())
}

func TestEncodeReference(t *testing.T) {
	r, err := New(8, 3)
	require.NoError(t, err)
	assert.Equal(t, 8, r.DataSymbols())
	assert.Equal(t, 6, r.ParitySymbols())
	assert.Equal(t, 14, r.TotalSymbols())
	assert.Equal(t, []byte{1, 7, 9, 3, 12, 10, 12}, r.GeneratorPolynomial())
	assert.Equal(t, referenceG8x3.String(), r.GeneratorMatrix().String())

	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	want := []byte{1, 2, 3, 4, 5, 6, 7, 8, 11, 12, 0, 5, 7, 8}

	cw, err := r.Encode(data)
	require.NoError(t, err)
	assert.Equal(t, want, cw)

	cw, err = r.EncodePolynomial(data)
	require.NoError(t, err)
	assert.Equal(t, want, cw)

	ok, err := r.Verify(cw)
	require.NoError(t, err)
	assert.True(t, ok)

	cw[3] ^= 1
	ok, err = r.Verify(cw)
	require.NoError(t, err)
	assert.False(t, ok)
}

// Both encoders agree and H*c == 0 for every code size.
func TestEncodePaths(t *testing.T) {
	rng := rand.New(rand.NewSource(0xabadc0cac01a))
	for _, size := range testSizes {
		k, tt := size[0], size[1]
		t.Run(fmt.Sprintf("%dx%d", k, tt), func(t *testing.T) {
			r, err := New(k, tt)
			require.NoError(t, err)
			for i := 0; i < 50; i++ {
				data := randomSymbols(rng, k)
				a, err := r.Encode(data)
				require.NoError(t, err)
				b, err := r.EncodePolynomial(data)
				require.NoError(t, err)
				require.Equal(t, a, b)
				require.Equal(t, data, a[:k])
				ok, err := r.Verify(a)
				require.NoError(t, err)
				require.True(t, ok)
			}
		})
	}
}

func TestEncodeInvalid(t *testing.T) {
	r, err := New(8, 3)
	require.NoError(t, err)

	_, err = r.Encode([]byte{1, 2, 3})
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
	_, err = r.EncodePolynomial(make([]byte, 9))
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
	_, err = r.Encode([]byte{1, 2, 3, 4, 5, 6, 7, 16})
	assert.True(t, errors.Is(err, ErrInvalidSymbol))
	_, err = r.Verify(make([]byte, 13))
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
	_, err = r.Verify(append(make([]byte, 13), 0xff))
	assert.True(t, errors.Is(err, ErrInvalidSymbol))
}

// forEachErasure calls fn with every sorted subset of [0,n) of the given size.
func forEachErasure(n, size int, fn func(erased []int)) {
	idx := make([]int, size)
	var rec func(pos, start int)
	rec = func(pos, start int) {
		if pos == size {
			fn(append([]int(nil), idx...))
			return
		}
		for i := start; i < n; i++ {
			idx[pos] = i
			rec(pos+1, i+1)
		}
	}
	rec(0, 0)
}

func TestDecodeReference(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	for i, o := range testOpts() {
		t.Run(fmt.Sprintf("options %d", i), func(t *testing.T) {
			r, err := New(8, 3, o...)
			require.NoError(t, err)
			cw, err := r.Encode(data)
			require.NoError(t, err)

			patterns := 0
			forEachErasure(r.TotalSymbols(), r.ParitySymbols(), func(erased []int) {
				received := append([]byte(nil), cw...)
				for _, e := range erased {
					received[e] = 0
				}
				got, err := r.Decode(received, erased)
				if err != nil {
					t.Fatalf("erasures %v: %v", erased, err)
				}
				if string(got) != string(data) {
					t.Fatalf("erasures %v: got %v, want %v", erased, got, data)
				}
				patterns++
			})
			assert.Equal(t, 3003, patterns)

			forEachErasure(r.TotalSymbols(), r.ParitySymbols()+1, func(erased []int) {
				if testing.Short() && erased[0] > 0 {
					return
				}
				_, err := r.Decode(cw, erased)
				if !errors.Is(err, ErrUncorrectableErasure) {
					t.Fatalf("erasures %v: expected ErrUncorrectableErasure, got %v", erased, err)
				}
			})
		})
	}
}

// Every pattern of up to 2t erasures decodes, for every code size.
func TestDecodeAllPatterns(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping exhaustive erasure test in short mode")
	}
	rng := rand.New(rand.NewSource(7))
	for _, size := range testSizes {
		k, tt := size[0], size[1]
		for _, strategy := range []DecodeStrategy{DecodeDeletion, DecodeSubstitution} {
			t.Run(fmt.Sprintf("%dx%d-%v", k, tt, strategy), func(t *testing.T) {
				r, err := New(k, tt, WithDecodeStrategy(strategy))
				require.NoError(t, err)
				data := randomSymbols(rng, k)
				cw, err := r.Encode(data)
				require.NoError(t, err)
				for e := 0; e <= r.ParitySymbols(); e++ {
					forEachErasure(r.TotalSymbols(), e, func(erased []int) {
						received := append([]byte(nil), cw...)
						for _, p := range erased {
							received[p] = byte(rng.Intn(FieldSize))
						}
						got, err := r.Decode(received, erased)
						if err != nil {
							t.Fatalf("erasures %v: %v", erased, err)
						}
						if string(got) != string(data) {
							t.Fatalf("erasures %v: got %v, want %v", erased, got, data)
						}
					})
				}
			})
		}
	}
}

func TestDecodeInvalid(t *testing.T) {
	r, err := New(8, 3)
	require.NoError(t, err)
	cw, err := r.Encode([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	require.NoError(t, err)

	_, err = r.Decode(cw[:13], nil)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
	_, err = r.Decode(cw, []int{14})
	assert.True(t, errors.Is(err, ErrInvalidErasure))
	_, err = r.Decode(cw, []int{-1})
	assert.True(t, errors.Is(err, ErrInvalidErasure))
	_, err = r.Decode(cw, []int{0, 1, 2, 3, 4, 5, 6})
	assert.True(t, errors.Is(err, ErrUncorrectableErasure))

	// Out of range values are only rejected where they are used.
	bad := append([]byte(nil), cw...)
	bad[2] = 0xff
	got, err := r.Decode(bad, []int{2})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, got)
	_, err = r.Decode(bad, []int{3})
	assert.True(t, errors.Is(err, ErrInvalidSymbol))
}

func TestDecodeDuplicateErasures(t *testing.T) {
	r, err := New(8, 3)
	require.NoError(t, err)
	data := []byte{8, 7, 6, 5, 4, 3, 2, 1}
	cw, err := r.Encode(data)
	require.NoError(t, err)

	// Seven entries, but only six distinct positions.
	erased := []int{5, 0, 5, 9, 3, 11, 1}
	received := append([]byte(nil), cw...)
	for _, e := range erased {
		received[e] = 0
	}
	got, err := r.Decode(received, erased)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestDecodeNoDataErased(t *testing.T) {
	r, err := New(8, 3)
	require.NoError(t, err)
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	cw, err := r.Encode(data)
	require.NoError(t, err)

	got, err := r.Decode(cw, nil)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	got, err = r.Decode(cw, []int{8, 9, 10, 11, 12, 13})
	require.NoError(t, err)
	assert.Equal(t, data, got)

	// The result does not alias the input.
	got[0] = 15
	assert.Equal(t, byte(1), cw[0])
}

func TestDecodeWithField(t *testing.T) {
	f, err := NewFieldFromPolynomial(0x19)
	require.NoError(t, err)
	r, err := New(8, 3, WithField(f))
	require.NoError(t, err)
	assert.Equal(t, f, r.Field())

	data := []byte{15, 0, 3, 9, 1, 12, 6, 2}
	cw, err := r.Encode(data)
	require.NoError(t, err)
	cw2, err := r.EncodePolynomial(data)
	require.NoError(t, err)
	require.Equal(t, cw, cw2)

	got, err := r.Decode(cw, []int{0, 2, 4, 6, 8, 10})
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestInversionCache(t *testing.T) {
	r, err := New(8, 3, WithInversionCache(true), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	rs := r.(*reedSolomon)
	require.NotNil(t, rs.tree)

	erased := []int{1, 4, 12}
	assert.Nil(t, rs.tree.GetInvertedMatrix(erased))
	first, err := rs.decodeMatrix(erased)
	require.NoError(t, err)
	cached := rs.tree.GetInvertedMatrix(erased)
	require.NotNil(t, cached)
	assert.True(t, first == cached)

	again, err := rs.decodeMatrix(erased)
	require.NoError(t, err)
	assert.True(t, first == again)

	plain, err := New(8, 3)
	require.NoError(t, err)
	assert.Nil(t, plain.(*reedSolomon).tree)
}

func TestPrecomputedDecodeTable(t *testing.T) {
	cases := []struct {
		k, t, patterns int
	}{
		{k: 4, t: 2, patterns: 147},
		{k: 13, t: 1, patterns: 117},
		{k: 8, t: 3, patterns: 6412},
	}
	for _, tc := range cases {
		if testing.Short() && tc.patterns > 1000 {
			continue
		}
		for _, strategy := range []DecodeStrategy{DecodeDeletion, DecodeSubstitution} {
			t.Run(fmt.Sprintf("k=%d,t=%d,%v", tc.k, tc.t, strategy), func(t *testing.T) {
				r, err := New(tc.k, tc.t, WithPrecomputedDecodeTable(true), WithDecodeStrategy(strategy))
				require.NoError(t, err)
				rs := r.(*reedSolomon)
				require.NotNil(t, rs.tree)

				rng := rand.New(rand.NewSource(int64(tc.k)))
				data := randomSymbols(rng, tc.k)
				cw, err := r.Encode(data)
				require.NoError(t, err)

				cached := 0
				for size := 1; size <= 2*tc.t; size++ {
					forEachErasure(rs.totalSymbols, size, func(erased []int) {
						dm := rs.tree.GetInvertedMatrix(erased)
						if erased[0] >= tc.k {
							assert.Nil(t, dm, "%v", erased)
							return
						}
						require.NotNil(t, dm, "%v", erased)
						cached++

						// Decode must be served from the table.
						again, err := rs.decodeMatrix(erased)
						require.NoError(t, err)
						require.True(t, dm == again, "%v", erased)

						recv := append([]byte(nil), cw...)
						for _, e := range erased {
							recv[e] = 0
						}
						got, err := r.Decode(recv, erased)
						require.NoError(t, err, "%v", erased)
						require.Equal(t, data, got, "%v", erased)
					})
				}
				assert.Equal(t, tc.patterns, cached)
			})
		}
	}

	r, err := New(4, 2, WithPrecomputedDecodeTable(false))
	require.NoError(t, err)
	assert.Nil(t, r.(*reedSolomon).tree)
}

func TestDecodeConcurrent(t *testing.T) {
	r, err := New(8, 3, WithInversionCache(true))
	require.NoError(t, err)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < 200; i++ {
				data := randomSymbols(rng, 8)
				cw, err := r.Encode(data)
				if err != nil {
					t.Error(err)
					return
				}
				erased := rng.Perm(14)[:rng.Intn(7)]
				got, err := r.Decode(cw, erased)
				if err != nil {
					t.Error(err)
					return
				}
				if string(got) != string(data) {
					t.Errorf("erasures %v: got %v, want %v", erased, got, data)
					return
				}
			}
		}(int64(g))
	}
	wg.Wait()
}

func TestDecodeStrategySources(t *testing.T) {
	r, err := New(8, 3, WithDecodeStrategy(DecodeSubstitution))
	require.NoError(t, err)
	rs := r.(*reedSolomon)
	_, sources, err := rs.substitutionMatrix([]int{1, 3, 8})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 9, 2, 10, 4, 5, 6, 7}, sources)

	sub, sources := rs.deletionMatrix([]int{1, 3, 8})
	assert.Equal(t, []int{0, 2, 4, 5, 6, 7, 9, 10}, sources)
	assert.Len(t, sub, 8)
}

func TestOptionStrings(t *testing.T) {
	assert.Equal(t, "deletion", DecodeDeletion.String())
	assert.Equal(t, "substitution", DecodeSubstitution.String())
	assert.Equal(t, "adjugate", InversionAdjugate.String())
	assert.Equal(t, "gauss-jordan", InversionGaussJordan.String())
	assert.Equal(t, "unknown", DecodeStrategy(9).String())

	r, err := New(4, 2, WithLogger(nil), WithMaxGoroutines(-1), WithMinSplitSize(0))
	require.NoError(t, err)
	o := r.(*reedSolomon).o
	assert.Equal(t, defaultOptions.maxGoroutines, o.maxGoroutines)
	assert.Equal(t, defaultOptions.minSplitSize, o.minSplitSize)
	assert.NotNil(t, o.logger)
	assert.IsType(t, zap.NewNop(), o.logger)
}

func benchmarkDecode(b *testing.B, k, t int, o ...Option) {
	r, err := New(k, t, o...)
	if err != nil {
		b.Fatal(err)
	}
	rng := rand.New(rand.NewSource(0))
	data := randomSymbols(rng, k)
	cw, err := r.Encode(data)
	if err != nil {
		b.Fatal(err)
	}
	erased := rng.Perm(k + 2*t)[:2*t]
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := r.Decode(cw, erased); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecode8x3Adjugate(b *testing.B) { benchmarkDecode(b, 8, 3) }
func BenchmarkDecode8x3GaussJordan(b *testing.B) {
	benchmarkDecode(b, 8, 3, WithInversion(InversionGaussJordan))
}
func BenchmarkDecode8x3Cached(b *testing.B) { benchmarkDecode(b, 8, 3, WithInversionCache(true)) }

func BenchmarkEncodeSymbols8x3(b *testing.B) {
	r, err := New(8, 3)
	if err != nil {
		b.Fatal(err)
	}
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	for i := 0; i < b.N; i++ {
		if _, err := r.Encode(data); err != nil {
			b.Fatal(err)
		}
	}
}
