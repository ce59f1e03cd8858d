// Copyright 2024, The rsfec Authors, see LICENSE for details.

package rsfec

import (
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolyMul(t *testing.T) {
	f := DefaultField()
	assert.Equal(t, []byte{1, 6, 8}, f.PolyMul([]byte{1, 2}, []byte{1, 4}))
	assert.Equal(t, []byte{}, f.PolyMul(nil, []byte{1}))
	assert.Equal(t, []byte{0, 0}, f.PolyMul([]byte{0}, []byte{3, 4}))
}

func TestPolyDiv(t *testing.T) {
	f := DefaultField()
	q, rem, err := f.PolyDiv([]byte{1, 2, 3, 4, 5}, []byte{1, 6, 8})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 4, 0}, q)
	assert.Equal(t, []byte{2, 5}, rem)

	// A dividend shorter than the divisor is its own remainder.
	q, rem, err = f.PolyDiv([]byte{7}, []byte{1, 6, 8})
	require.NoError(t, err)
	assert.Empty(t, q)
	assert.Equal(t, []byte{0, 7}, rem)

	_, _, err = f.PolyDiv([]byte{1, 2}, nil)
	assert.True(t, errors.Is(err, ErrInvalidDivisor))
	_, _, err = f.PolyDiv([]byte{1, 2}, []byte{0, 1})
	assert.True(t, errors.Is(err, ErrInvalidDivisor))
}

// dividend == quotient*divisor + remainder for random polynomials.
func TestPolyDivRoundTrip(t *testing.T) {
	f := DefaultField()
	rng := rand.New(rand.NewSource(4))
	for i := 0; i < 500; i++ {
		divisor := make([]byte, 1+rng.Intn(5))
		for j := range divisor {
			divisor[j] = byte(rng.Intn(FieldSize))
		}
		divisor[0] = byte(1 + rng.Intn(FieldSize-1))
		dividend := make([]byte, len(divisor)+rng.Intn(8))
		for j := range dividend {
			dividend[j] = byte(rng.Intn(FieldSize))
		}

		q, rem, err := f.PolyDiv(dividend, divisor)
		require.NoError(t, err)
		require.Len(t, rem, len(divisor)-1)

		back := f.PolyMul(q, divisor)
		require.Len(t, back, len(dividend))
		for j := range rem {
			back[len(back)-len(rem)+j] ^= rem[j]
		}
		require.Equal(t, dividend, back)
	}
}

func TestPolySumScaleDot(t *testing.T) {
	f := DefaultField()
	s, err := f.PolySum([]byte{1, 2, 3}, []byte{3, 2, 1})
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 0, 2}, s)

	_, err = f.PolySum([]byte{1}, []byte{1, 2})
	assert.True(t, errors.Is(err, ErrDimensionMismatch))

	assert.Equal(t, []byte{14, 0, 2}, f.PolyScale([]byte{7, 0, 1}, 2))

	d, err := f.Dot([]byte{2, 1}, []byte{7, 3})
	require.NoError(t, err)
	assert.Equal(t, f.Mul(2, 7)^3, d)
	_, err = f.Dot([]byte{1}, nil)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
}
