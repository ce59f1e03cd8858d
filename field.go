/**
 * Galois Field arithmetic over GF(2^4).
 *
 * Copyright 2024, The rsfec Authors
 */

package rsfec

import (
	"sync"

	"github.com/pkg/errors"
)

const (
	// FieldBits is the number of bits per symbol.
	FieldBits = 4
	// FieldSize is the number of elements in the field.
	FieldSize = 1 << FieldBits
	// groupOrder is the order of the multiplicative group.
	groupOrder = FieldSize - 1

	// DefaultPolynomial is x^4 + x + 1.
	DefaultPolynomial = 0x13
)

// DefaultGeneratorSequence lists alpha^i for i = 0..14 under
// DefaultPolynomial, terminated by the zero element.
var DefaultGeneratorSequence = []byte{1, 2, 4, 8, 3, 6, 12, 11, 5, 10, 7, 14, 15, 13, 9, 0}

var (
	// ErrDivisionByZero is returned when dividing a field element by zero.
	ErrDivisionByZero = errors.New("division by zero")
	// ErrInvalidSymbol is returned for a value outside the field.
	ErrInvalidSymbol = errors.New("symbol is not a field element")
	// ErrInvalidSequence is returned by NewField when the sequence does
	// not describe the multiplicative group of GF(16).
	ErrInvalidSequence = errors.New("invalid generator sequence")
	// ErrInvalidPolynomial is returned by NewFieldFromPolynomial when the
	// polynomial is not a primitive polynomial of degree 4.
	ErrInvalidPolynomial = errors.New("invalid field polynomial")
)

// Field holds the log and antilog tables of GF(16).
// A Field is read-only after construction and can be shared.
type Field struct {
	seq [FieldSize]byte
	// exp[e] = alpha^e. exp[15] is the terminating zero of the sequence.
	exp [FieldSize]byte
	// log[x] = e such that alpha^e = x. log[0] is set to 15.
	log [FieldSize]byte
	// mulByte[c][b] multiplies both nibbles of b by c.
	mulByte [FieldSize][256]byte
}

// NewField builds a field from an explicit generator sequence.
// The sequence must hold 16 entries: alpha^0 .. alpha^14 followed by 0.
func NewField(seq []byte) (*Field, error) {
	if len(seq) != FieldSize {
		return nil, errors.Wrapf(ErrInvalidSequence, "length %d, want %d", len(seq), FieldSize)
	}
	if seq[0] != 1 {
		return nil, errors.Wrapf(ErrInvalidSequence, "first entry is %d, want 1", seq[0])
	}
	if seq[groupOrder] != 0 {
		return nil, errors.Wrapf(ErrInvalidSequence, "last entry is %d, want 0", seq[groupOrder])
	}

	f := &Field{}
	var seen [FieldSize]bool
	for e, x := range seq[:groupOrder] {
		if x == 0 || x >= FieldSize || seen[x] {
			return nil, errors.Wrapf(ErrInvalidSequence, "entry %d (%d) repeats or is out of range", e, x)
		}
		seen[x] = true
		f.exp[e] = x
		f.log[x] = byte(e)
	}
	copy(f.seq[:], seq)
	f.log[0] = groupOrder

	// The tables only describe a field if multiplication distributes
	// over XOR.
	for a := 1; a < FieldSize; a++ {
		for b := 0; b < FieldSize; b++ {
			for c := b + 1; c < FieldSize; c++ {
				x := f.Mul(byte(a), byte(b^c))
				y := f.Mul(byte(a), byte(b)) ^ f.Mul(byte(a), byte(c))
				if x != y {
					return nil, errors.Wrapf(ErrInvalidSequence, "%d*(%d+%d) is not distributive", a, b, c)
				}
			}
		}
	}

	for c := 0; c < FieldSize; c++ {
		for b := 0; b < 256; b++ {
			lo := f.Mul(byte(c), byte(b)&0x0f)
			hi := f.Mul(byte(c), byte(b)>>4)
			f.mulByte[c][b] = hi<<4 | lo
		}
	}
	return f, nil
}

// NewFieldFromPolynomial generates the sequence for a primitive
// polynomial of degree 4 by repeated multiplication with x and builds
// the field from it.
func NewFieldFromPolynomial(poly int) (*Field, error) {
	if poly < FieldSize || poly >= FieldSize<<1 {
		return nil, errors.Wrapf(ErrInvalidPolynomial, "0x%x is not of degree %d", poly, FieldBits)
	}
	seq := make([]byte, FieldSize)
	x := 1
	for e := 0; e < groupOrder; e++ {
		if e > 0 && x == 1 {
			return nil, errors.Wrapf(ErrInvalidPolynomial, "0x%x is not primitive, order %d", poly, e)
		}
		seq[e] = byte(x)
		x <<= 1
		if x&FieldSize != 0 {
			x ^= poly
		}
	}
	f, err := NewField(seq)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidPolynomial, "0x%x: %v", poly, err)
	}
	return f, nil
}

var (
	defaultField     *Field
	defaultFieldOnce sync.Once
)

// DefaultField returns the field built from DefaultGeneratorSequence.
func DefaultField() *Field {
	defaultFieldOnce.Do(func() {
		f, err := NewField(DefaultGeneratorSequence)
		if err != nil {
			panic(err)
		}
		defaultField = f
	})
	return defaultField
}

// Sequence returns a copy of the generator sequence.
func (f *Field) Sequence() []byte {
	s := make([]byte, FieldSize)
	copy(s, f.seq[:])
	return s
}

// Add adds two elements. Subtraction is the same operation.
func (f *Field) Add(a, b byte) byte {
	return a ^ b
}

// Mul multiplies two elements.
func (f *Field) Mul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return f.exp[(int(f.log[a])+int(f.log[b]))%groupOrder]
}

// Div divides a by b.
func (f *Field) Div(a, b byte) (byte, error) {
	if b == 0 {
		return 0, ErrDivisionByZero
	}
	return f.div(a, b), nil
}

// div is Div for callers that have already checked b.
func (f *Field) div(a, b byte) byte {
	if a == 0 {
		return 0
	}
	e := int(f.log[a]) - int(f.log[b])
	if e < 0 {
		e += groupOrder
	}
	return f.exp[e%groupOrder]
}

// Inverse returns 1/a.
func (f *Field) Inverse(a byte) (byte, error) {
	return f.Div(1, a)
}

// Exp returns a**n.
func (f *Field) Exp(a byte, n int) byte {
	if n == 0 {
		return 1
	}
	if a == 0 {
		return 0
	}
	e := (int(f.log[a]) * n) % groupOrder
	if e < 0 {
		e += groupOrder
	}
	return f.exp[e]
}

// Alpha returns the generator raised to e.
func (f *Field) Alpha(e int) byte {
	e %= groupOrder
	if e < 0 {
		e += groupOrder
	}
	return f.exp[e]
}

// Log returns the exponent e with Alpha(e) == a.
func (f *Field) Log(a byte) (int, error) {
	if a == 0 || a >= FieldSize {
		return 0, errors.Wrapf(ErrInvalidSymbol, "log of %d", a)
	}
	return int(f.log[a]), nil
}

// checkSymbols returns ErrInvalidSymbol if any value is not a field element.
func checkSymbols(v []byte) error {
	for i, x := range v {
		if x >= FieldSize {
			return errors.Wrapf(ErrInvalidSymbol, "value %d at position %d", x, i)
		}
	}
	return nil
}
