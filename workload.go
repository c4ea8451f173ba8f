package amxbench

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mathext/prng"

	"github.com/LynnColeArt/amxbench/compute/half"
)

// Op is the benchmarked operation.
type Op int

const (
	// OpInnerProduct: A (N1×M) · Bᵀ for B (N2×M)
	OpInnerProduct Op = iota
	// OpMatMul: A (N1×M) × B (M×N2)
	OpMatMul
	// OpSearch: batched inner-product scoring with top-k selection
	OpSearch

	// OpPeakFloat and OpPeakInt: N1 iterations of an M-operand dependent
	// add chain in float32 and int32
	OpPeakFloat
	OpPeakInt

	// OpMemFill and OpMemRead: sequential write and read of N1 int64 words
	OpMemFill
	OpMemRead

	// Row-major and column-major increments over N1 rows of N2 int32
	// words. The Touched variants run a line-touch pass before measuring.
	OpCacheRows
	OpCacheColumns
	OpCacheRowsTouched
	OpCacheColumnsTouched
)

var allOps = []Op{
	OpInnerProduct, OpMatMul, OpSearch,
	OpPeakFloat, OpPeakInt,
	OpMemFill, OpMemRead,
	OpCacheRows, OpCacheColumns, OpCacheRowsTouched, OpCacheColumnsTouched,
}

func (o Op) String() string {
	switch o {
	case OpInnerProduct:
		return "IP"
	case OpMatMul:
		return "GEMM"
	case OpSearch:
		return "SEARCH"
	case OpPeakFloat:
		return "PEAK-F32"
	case OpPeakInt:
		return "PEAK-I32"
	case OpMemFill:
		return "MEM-FILL"
	case OpMemRead:
		return "MEM-READ"
	case OpCacheRows:
		return "CACHE-ROW"
	case OpCacheColumns:
		return "CACHE-COL"
	case OpCacheRowsTouched:
		return "CACHE-ROW-PF"
	case OpCacheColumnsTouched:
		return "CACHE-COL-PF"
	default:
		return "UNKNOWN"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Op) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Op) UnmarshalText(text []byte) error {
	for _, op := range allOps {
		if string(text) == op.String() {
			*o = op
			return nil
		}
	}
	return NewInvalidArgError("Op", fmt.Sprintf("unknown operation %q", text))
}

// Shape is the (N1, N2, M) problem size.
type Shape struct {
	N1 int `json:"n1"`
	N2 int `json:"n2"`
	M  int `json:"m"`
}

func (s Shape) String() string {
	return fmt.Sprintf("%d/%d/%d", s.N1, s.N2, s.M)
}

// Workload is the operand pair of one benchmark configuration.
type Workload struct {
	Op    Op
	Shape Shape
	A     *Matrix
	B     *Matrix

	// Search applies to OpSearch only
	Search SearchParams
}

// Generator fills matrices with uniform [0,1) values. Identical seeds give
// byte-identical matrices regardless of how many workers fill them.
type Generator struct {
	Seed uint64

	// Workers bounds the fill goroutines; <= 0 means GOMAXPROCS.
	Workers int
}

// NewGenerator creates a generator for seed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{Seed: seed}
}

// Matrix generates a rows×cols matrix from the given stream.
//
// Rows are split into blocks of FillBlockRows. Each block owns an MT19937-64
// generator seeded once from (seed, stream, block), so blocks can be filled
// concurrently without sharing RNG state.
func (g *Generator) Matrix(rows, cols int, stream uint64, p Precision) (*Matrix, error) {
	m, err := NewMatrix(rows, cols, p)
	if err != nil {
		return nil, err
	}
	if m.Len() == 0 {
		return m, nil
	}

	workers := g.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var (
		f32   []float32
		words []uint16
	)
	if p.Compact() {
		words = m.Compact()
	} else {
		f32 = m.Float32()
	}

	blocks := (rows + FillBlockRows - 1) / FillBlockRows
	var eg errgroup.Group
	eg.SetLimit(workers)
	for b := 0; b < blocks; b++ {
		lo := b * FillBlockRows * cols
		hi := min((b+1)*FillBlockRows, rows) * cols
		seed := blockSeed(g.Seed, stream, uint64(b))
		eg.Go(func() error {
			rng := prng.NewMT19937_64()
			rng.Seed(seed)
			if words != nil {
				format := p.format()
				for i := lo; i < hi; i++ {
					words[i] = half.Narrow(format, uniform(rng.Uint64()))
				}
				return nil
			}
			for i := lo; i < hi; i++ {
				f32[i] = uniform(rng.Uint64())
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return m, nil
}

// Workload generates both operands of op for shape. A comes from StreamA
// and B from StreamB.
func (g *Generator) Workload(op Op, shape Shape, p Precision) (*Workload, error) {
	a, err := g.Matrix(shape.N1, shape.M, StreamA, p)
	if err != nil {
		return nil, err
	}

	var b *Matrix
	if op == OpMatMul {
		b, err = g.Matrix(shape.M, shape.N2, StreamB, p)
	} else {
		b, err = g.Matrix(shape.N2, shape.M, StreamB, p)
	}
	if err != nil {
		return nil, err
	}
	return &Workload{Op: op, Shape: shape, A: a, B: b}, nil
}

// uniform maps the top 24 bits of a draw onto [0,1); every result is an
// exact float32.
func uniform(u uint64) float32 {
	return float32(u>>40) * (1.0 / (1 << 24))
}

// blockSeed derives the seed of one row block with a splitmix64 chain.
func blockSeed(seed, stream, block uint64) uint64 {
	return splitmix64(splitmix64(splitmix64(seed)^stream) ^ block)
}

func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB
	return x ^ (x >> 31)
}
