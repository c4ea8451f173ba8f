// Package amxbench configuration constants
package amxbench

import (
	"github.com/LynnColeArt/amxbench/compute/f32"
	"github.com/LynnColeArt/amxbench/ffu"
)

// Benchmark defaults
const (
	// DefaultIterations is the number of timed invocations per configuration
	DefaultIterations = 10

	// DefaultSeed seeds every workload unless overridden
	DefaultSeed = 47

	// LaneWidth is the float32 lane count of the vector kernel
	LaneWidth = f32.LaneWidth
)

// Workload generation parameters
const (
	// FillBlockRows is the number of rows filled from one RNG stream.
	// Changing it changes the generated values.
	FillBlockRows = 64

	// StreamA and StreamB distinguish the two matrices of a workload
	StreamA = 0
	StreamB = 1
)

// Cross-check parameters
const (
	// VerifyPairs is the number of row pairs compared between the scalar
	// oracle and the vector kernel
	VerifyPairs = 8

	// VerifyRelTol is the relative tolerance of that comparison
	VerifyRelTol = 1e-3
)

// Search phase defaults
const (
	DefaultDim      = 128
	DefaultTopK     = 10
	DefaultBatch    = 32
	DefaultDatasets = 10000
	DefaultQueries  = 100
)

// Peak and memory suite defaults
const (
	// ChainOperands is the operand count of one add-chain pass: five values
	// repeated ten times, 49 dependent adds
	ChainOperands = 50

	// CacheLineWords is the int32 row width of the cache walks, one 64-byte
	// line
	CacheLineWords = 16

	DefaultChainIterations = 1 << 22
	DefaultMemWords        = 1 << 24
	DefaultCacheRows       = 1 << 16
)

// SquareSizes are the N1 = N2 = M shapes of the square suite.
var SquareSizes = []int{64, 128, 256, 512}

// RectShapes returns the rectangular suite shapes.
func RectShapes() []Shape {
	var shapes []Shape
	for _, n1 := range []int{10000} {
		for _, n2 := range []int{1000000} {
			for _, m := range []int{200, 1536, 3072} {
				shapes = append(shapes, Shape{N1: n1, N2: n2, M: m})
			}
		}
	}
	return shapes
}

// Config selects what a Benchmark runs and how it measures.
type Config struct {
	// Iterations is K, the number of timed invocations
	Iterations int

	// Seed seeds the workload generator
	Seed uint64

	// Policy picks which of the K durations is reported
	Policy ReportPolicy

	// Modes lists the kernels to run, in table order
	Modes []Mode

	// Compact is the 16-bit precision fed to the accelerated path
	Compact Precision

	// MatMulOutput and InnerProductOutput pin the accelerated
	// destination types per call site
	MatMulOutput       ffu.DataType
	InnerProductOutput ffu.DataType

	// ExactTail makes the benchmarked vector kernel add the tail elements
	ExactTail bool

	// Verify cross-checks the vector kernel against the scalar oracle
	Verify bool

	// Search shapes the search phase batches
	Search SearchParams

	// Loops sizes the peak and memory suites
	Loops LoopParams

	// Debug logs every timed iteration
	Debug bool
}

// DefaultConfig returns the configuration that reproduces the reference
// measurements.
func DefaultConfig() Config {
	return Config{
		Iterations:         DefaultIterations,
		Seed:               DefaultSeed,
		Policy:             ReportLast,
		Modes:              []Mode{ModeScalar, ModeVectorSIMD, ModeAccelerated},
		Compact:            BFloat16,
		MatMulOutput:       ffu.BF16,
		InnerProductOutput: ffu.BF16,
		Search:             SearchParams{Batch: DefaultBatch, TopK: DefaultTopK},
		Loops:              LoopParams{
			ChainIterations: DefaultChainIterations,
			MemWords:        DefaultMemWords,
			CacheRows:       DefaultCacheRows,
		},
		Verify: true,
	}
}
