package amxbench

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LynnColeArt/amxbench/compute/f32"
	"github.com/LynnColeArt/amxbench/compute/half"
	"github.com/LynnColeArt/amxbench/ffu/amx"
	"github.com/LynnColeArt/amxbench/ffu/blas"
)

// testAdapter returns a gonum backed adapter closed at the end of the test.
func testAdapter(t testing.TB) *amx.Adapter {
	t.Helper()
	a := amx.NewAdapter(blas.NewEngine(), amx.WithLogger(quietLogger()))
	t.Cleanup(func() { a.Close() })
	return a
}

func withAMX(t *testing.T, on bool) {
	t.Helper()
	prev := amx.HasAMXBF16()
	amx.SetAMXSupport(on)
	t.Cleanup(func() { amx.SetAMXSupport(prev) })
}

func TestParseModes(t *testing.T) {
	modes, err := ParseModes([]string{"amx", " SIMD", "", "scalar", "vector"})
	require.NoError(t, err)
	assert.Equal(t, []Mode{ModeAccelerated, ModeVectorSIMD, ModeScalar}, modes)

	_, err = ParseModes([]string{"gpu"})
	assert.True(t, IsInvalidArgError(err))

	var m Mode
	require.NoError(t, m.UnmarshalText([]byte("SIMD")))
	assert.Equal(t, ModeVectorSIMD, m)
}

func TestCPUKernelsAgreeOnWholeLanes(t *testing.T) {
	gen := NewGenerator(DefaultSeed)
	w, err := gen.Workload(OpInnerProduct, Shape{N1: 5, N2: 9, M: 64}, Float32)
	require.NoError(t, err)

	scalar := make([]float32, w.B.Rows)
	wide := make([]float32, w.B.Rows)
	innerProductRows(scalar, w.A, w.B, InnerProduct, nil)
	innerProductRows(wide, w.A, w.B, f32.DotWide, nil)
	for j := range scalar {
		assert.InEpsilon(t, scalar[j], wide[j], 1e-3, "column %d", j)
	}
}

func TestCPUKernelMatMulTransposesB(t *testing.T) {
	a, _ := NewMatrix(2, 3, Float32)
	copy(a.Float32(), []float32{1, 2, 3, 4, 5, 6})
	b, _ := NewMatrix(3, 2, Float32)
	copy(b.Float32(), []float32{7, 8, 9, 10, 11, 12})
	w := &Workload{Op: OpMatMul, Shape: Shape{N1: 2, N2: 2, M: 3}, A: a, B: b}

	k := NewScalarKernel().(*cpuKernel)
	call, err := k.Prepare(w)
	require.NoError(t, err)
	require.NoError(t, call())
	// last element of the last row of A×B
	assert.Equal(t, float32(4*8+5*10+6*12), k.last)
}

func TestCPUKernelRejectsCompactOperands(t *testing.T) {
	w, err := NewGenerator(1).Workload(OpInnerProduct, Shape{N1: 2, N2: 2, M: 2}, BFloat16)
	require.NoError(t, err)
	_, err = NewVectorKernel(false).Prepare(w)
	assert.True(t, IsInvalidArgError(err))
}

func TestCPUKernelSearch(t *testing.T) {
	w, err := NewGenerator(1).Workload(OpSearch, Shape{N1: 3, N2: 20, M: 32}, Float32)
	require.NoError(t, err)
	w.Search = SearchParams{Batch: 2, TopK: 5}

	k := NewVectorKernel(true).(*cpuKernel)
	call, err := k.Prepare(w)
	require.NoError(t, err)
	require.NoError(t, call())
	require.Len(t, k.hits, 3)
	for _, hits := range k.hits {
		assert.Len(t, hits, 5)
	}
}

func TestAcceleratedKernel(t *testing.T) {
	withAMX(t, true)
	cfg := DefaultConfig()
	k := NewAcceleratedKernel(testAdapter(t), cfg).(*acceleratedKernel)
	require.True(t, k.Available())
	assert.Equal(t, BFloat16, k.Precision())

	a, _ := NewMatrix(1, 2, BFloat16)
	half.NarrowSlice(half.FormatBFloat16, a.Compact(), []float32{1, 2})
	b, _ := NewMatrix(2, 2, BFloat16)
	half.NarrowSlice(half.FormatBFloat16, b.Compact(), []float32{3, 4, 5, 6})

	call, err := k.Prepare(&Workload{Op: OpInnerProduct, Shape: Shape{N1: 1, N2: 2, M: 2}, A: a, B: b})
	require.NoError(t, err)
	require.NoError(t, call())
	require.NoError(t, k.Finish())

	out, _ := NewMatrix(1, 2, BFloat16)
	copy(out.Bytes(), k.output)
	assert.Equal(t, []float32{11, 17}, out.Widen())
	assert.Nil(t, k.session, "Finish releases the session")

	_, err = k.Prepare(&Workload{Op: OpSearch, A: a, B: b})
	assert.ErrorIs(t, err, ErrNotSupported)
}

func TestAcceleratedKernelUnavailable(t *testing.T) {
	withAMX(t, false)
	k := NewAcceleratedKernel(testAdapter(t), DefaultConfig())
	assert.False(t, k.Available())

	w, err := NewGenerator(1).Workload(OpMatMul, Shape{N1: 2, N2: 2, M: 2}, BFloat16)
	require.NoError(t, err)
	_, err = k.Prepare(w)
	assert.True(t, IsCapabilityError(err))
}

func TestNewKernels(t *testing.T) {
	cfg := DefaultConfig()
	kernels := NewKernels(cfg, testAdapter(t))
	require.Len(t, kernels, 3)
	assert.Equal(t, ModeScalar, kernels[0].Mode())
	assert.Equal(t, ModeVectorSIMD, kernels[1].Mode())
	assert.Equal(t, ModeAccelerated, kernels[2].Mode())

	assert.Len(t, NewKernels(cfg, nil), 2, "no adapter, no accelerated kernel")
}
