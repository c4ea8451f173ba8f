package f32

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scalarDot is the plain left-to-right reference.
func scalarDot(x, y []float32, dim int) float32 {
	var sum float32
	for i := 0; i < dim; i++ {
		sum += x[i] * y[i]
	}
	return sum
}

func sequence(n int, scale float32) []float32 {
	v := make([]float32, n)
	for i := range v {
		v[i] = float32((i*7)%13) * scale
	}
	return v
}

func relErr(want, got float32) float64 {
	if want == 0 {
		return math.Abs(float64(got))
	}
	return math.Abs(float64(want-got)) / math.Abs(float64(want))
}

func TestReduceSum(t *testing.T) {
	var v Vec16
	for i := range v {
		v[i] = float32(i + 1)
	}
	assert.Equal(t, float32(136), ReduceSum(v))
}

func TestMulAddIsFused(t *testing.T) {
	// (1+2^-12)^2 - (1+2^-11) = 2^-24 exactly when fused; a separate
	// float32 multiply rounds the 2^-24 term away.
	a := float32(1 + 1.0/4096)
	var va, acc Vec16
	for i := range va {
		va[i] = a
		acc[i] = -float32(1 + 1.0/2048)
	}
	got := MulAdd(va, va, acc)
	assert.Equal(t, float32(1.0/(1<<24)), got[0])
}

func TestDotWideMatchesScalarOnWholeLanes(t *testing.T) {
	for _, dim := range []int{16, 32, 48, 64, 80, 128, 1024} {
		t.Run(fmt.Sprint(dim), func(t *testing.T) {
			x := sequence(dim, 0.01)
			y := sequence(dim, 0.02)

			want := scalarDot(x, y, dim)
			got := DotWide(x, y, dim)
			assert.LessOrEqual(t, relErr(want, got), 1e-3)
			assert.Equal(t, got, DotWideExact(x, y, dim))
		})
	}
}

func TestDotWideOmitsTail(t *testing.T) {
	const dim = 20
	x := sequence(dim, 0.1)
	y := sequence(dim, 0.3)

	require.Equal(t, 4, Tail(dim))

	var omitted float32
	for i := dim - Tail(dim); i < dim; i++ {
		omitted += x[i] * y[i]
	}
	require.NotZero(t, omitted)

	full := scalarDot(x, y, dim)
	wide := DotWide(x, y, dim)
	assert.InDelta(t, omitted, full-wide, 1e-4)

	exact := DotWideExact(x, y, dim)
	assert.LessOrEqual(t, relErr(full, exact), 1e-4)
}

func TestDotWideShortInput(t *testing.T) {
	x := sequence(15, 1)
	assert.Zero(t, DotWide(x, x, 15))
	assert.Equal(t, scalarDot(x, x, 15), DotWideExact(x, x, 15))
	assert.Zero(t, DotWide(nil, nil, 0))
}

func TestDotWideUsesOnlyDimPrefix(t *testing.T) {
	x := sequence(64, 1)
	y := sequence(64, 1)
	// elements past dim must not contribute
	assert.Equal(t, DotWide(x[:32], y[:32], 32), DotWide(x, y, 32))
}

func BenchmarkDotWide(b *testing.B) {
	for _, dim := range []int{128, 1536, 3072} {
		x := sequence(dim, 0.01)
		y := sequence(dim, 0.02)
		b.Run(fmt.Sprint(dim), func(b *testing.B) {
			b.SetBytes(int64(dim * 8))
			for i := 0; i < b.N; i++ {
				_ = DotWide(x, y, dim)
			}
		})
	}
}
