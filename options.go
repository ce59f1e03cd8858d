package rsfec

import (
	"runtime"

	"github.com/klauspost/cpuid/v2"
	"go.uber.org/zap"
)

// Option allows to override processing parameters.
type Option func(*options)

// DecodeStrategy selects how the square recovery matrix is built.
type DecodeStrategy int

const (
	// DecodeDeletion deletes the erased rows of the transposed generator
	// matrix and keeps the first k survivors.
	DecodeDeletion DecodeStrategy = iota
	// DecodeSubstitution replaces each erased data row with the next
	// available parity row.
	DecodeSubstitution
)

func (s DecodeStrategy) String() string {
	switch s {
	case DecodeDeletion:
		return "deletion"
	case DecodeSubstitution:
		return "substitution"
	}
	return "unknown"
}

// Inversion selects the matrix inversion used by the decoder.
type Inversion int

const (
	// InversionAdjugate inverts through the transposed cofactor matrix.
	InversionAdjugate Inversion = iota
	// InversionGaussJordan inverts by elimination on [M | I].
	InversionGaussJordan
)

func (i Inversion) String() string {
	switch i {
	case InversionAdjugate:
		return "adjugate"
	case InversionGaussJordan:
		return "gauss-jordan"
	}
	return "unknown"
}

type options struct {
	maxGoroutines  int
	minSplitSize   int
	strategy       DecodeStrategy
	inversion      Inversion
	inversionCache bool
	precompute     bool
	field          *Field
	logger         *zap.Logger
}

var defaultOptions = options{
	maxGoroutines: 64,
	minSplitSize:  -1,
}

func init() {
	if runtime.GOMAXPROCS(0) <= 1 {
		defaultOptions.maxGoroutines = 1
	} else if cores := cpuid.CPU.LogicalCores; cores > 0 {
		defaultOptions.maxGoroutines = 4 * cores
	}
	// Keep one split inside the L1 data cache when it is known.
	if l1 := cpuid.CPU.Cache.L1D; l1 > 0 {
		defaultOptions.minSplitSize = l1 / 2
	} else {
		defaultOptions.minSplitSize = 16 << 10
	}
}

// WithMaxGoroutines is the maximum number of goroutines used for shard
// encoding and reconstruction.
// Jobs will be split into this many parts, unless each goroutine would have to process
// less than minSplitSize bytes (set with WithMinSplitSize).
// If n <= 0, it is ignored.
func WithMaxGoroutines(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxGoroutines = n
		}
	}
}

// WithMinSplitSize is the minimum encoding size in bytes per goroutine.
// See WithMaxGoroutines on how jobs are split.
// If n <= 0, it is ignored.
func WithMinSplitSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.minSplitSize = n
		}
	}
}

// WithDecodeStrategy selects how erasures are mapped to a square matrix.
// The default is DecodeDeletion.
func WithDecodeStrategy(s DecodeStrategy) Option {
	return func(o *options) {
		o.strategy = s
	}
}

// WithInversion selects the matrix inversion. The default is InversionAdjugate.
func WithInversion(i Inversion) Option {
	return func(o *options) {
		o.inversion = i
	}
}

// WithInversionCache caches decode matrices per erasure pattern.
// The cache is shared by all goroutines using the encoder.
func WithInversionCache(enabled bool) Option {
	return func(o *options) {
		o.inversionCache = enabled
	}
}

// WithPrecomputedDecodeTable builds the decode matrix of every
// correctable erasure pattern in New and serves Decode and
// ReconstructShards from that table. It enables the inversion cache.
func WithPrecomputedDecodeTable(enabled bool) Option {
	return func(o *options) {
		o.precompute = enabled
	}
}

// WithField uses a field other than DefaultField.
func WithField(f *Field) Option {
	return func(o *options) {
		o.field = f
	}
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
