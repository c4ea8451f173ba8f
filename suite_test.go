package amxbench

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LynnColeArt/amxbench/ffu"
	"github.com/LynnColeArt/amxbench/ffu/amx"
	"github.com/LynnColeArt/amxbench/ffu/blas"
)

// nullEngine hands out memory that was never backed.
type nullEngine struct {
	*blas.Engine
}

func (nullEngine) Alloc(d ffu.Desc) (*ffu.Memory, error) {
	return ffu.NewMemory(d, nil), nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestBenchmark(t *testing.T, cfg Config, engine ffu.Engine, opts ...BenchmarkOption) (*Benchmark, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	adapter := amx.NewAdapter(engine, amx.WithLogger(quietLogger()))
	t.Cleanup(func() { adapter.Close() })
	kernels := NewKernels(cfg, adapter)
	opts = append([]BenchmarkOption{WithBenchmarkLogger(quietLogger())}, opts...)
	return NewBenchmark(cfg, &out, kernels, opts...), &out
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Iterations = 3
	return cfg
}

func modesOf(rows []BenchmarkRun) []Mode {
	return lo.Map(rows, func(r BenchmarkRun, _ int) Mode { return r.Mode })
}

func TestEndToEndSquare64(t *testing.T) {
	withAMX(t, false)
	b, out := newTestBenchmark(t, testConfig(), blas.NewEngine())

	require.NoError(t, b.Run(OpInnerProduct, Shape{64, 64, 64}))
	rows := b.Reporter().Rows()
	assert.Equal(t, []Mode{ModeScalar, ModeVectorSIMD}, modesOf(rows))
	for _, r := range rows {
		assert.Equal(t, int64(520192), r.TotalFlop)
		assert.Equal(t, Float32, r.Precision)
		assert.Positive(t, r.Duration)
		assert.Positive(t, r.GFLOPS)
	}

	require.NoError(t, b.PrintResults())
	assert.Contains(t, out.String(), "IP / Scalar")
	assert.Contains(t, out.String(), "IP / SIMD")
	assert.NotContains(t, out.String(), "IP / AMX")
	assert.Zero(t, b.Reporter().Len())
}

func TestAcceleratedRowsWithCapability(t *testing.T) {
	withAMX(t, true)
	b, _ := newTestBenchmark(t, testConfig(), blas.NewEngine())

	require.NoError(t, b.Run(OpInnerProduct, Shape{64, 64, 64}))
	require.NoError(t, b.Run(OpMatMul, Shape{64, 32, 48}))

	rows := b.Reporter().Rows()
	require.Len(t, rows, 6)
	assert.Equal(t, []string{"IP / Scalar", "IP / SIMD", "IP / AMX", "GEMM / Scalar", "GEMM / SIMD", "GEMM / AMX"},
		lo.Map(rows, func(r BenchmarkRun, _ int) string { return r.Label() }))
	assert.Equal(t, BFloat16, rows[2].Precision)
	assert.Equal(t, int64(16384), rows[2].DataSizeBytes)
	assert.Equal(t, TotalFlop(64, 32, 48), rows[5].TotalFlop)
}

func TestNullHandleIsFatal(t *testing.T) {
	withAMX(t, true)
	b, _ := newTestBenchmark(t, testConfig(), nullEngine{blas.NewEngine()})

	err := b.Run(OpInnerProduct, Shape{64, 64, 64})
	require.Error(t, err)
	assert.True(t, IsDeviceError(err), "%v", err)
	assert.ErrorIs(t, err, ffu.ErrNullHandle)
	// rows before the failing kernel are kept
	assert.Equal(t, []Mode{ModeScalar, ModeVectorSIMD}, modesOf(b.Reporter().Rows()))
}

func TestEmptyShapeSkipsAccelerated(t *testing.T) {
	withAMX(t, true)
	session, err := NewSessionLog(t.TempDir(), "test")
	require.NoError(t, err)
	b, _ := newTestBenchmark(t, testConfig(), blas.NewEngine(), WithSessionLog(session))

	require.NoError(t, b.Run(OpInnerProduct, Shape{0, 64, 64}))
	require.NoError(t, b.Run(OpMatMul, Shape{4, 4, 0}))

	rows := b.Reporter().Rows()
	assert.Equal(t, []Mode{ModeScalar, ModeVectorSIMD, ModeScalar, ModeVectorSIMD}, modesOf(rows))
	for _, r := range rows {
		assert.Zero(t, r.TotalFlop)
	}
	statuses := lo.Map(session.Records(), func(r RunRecord, _ int) string { return r.Status })
	assert.Equal(t, []string{StatusPass, StatusPass, StatusSkip, StatusPass, StatusPass, StatusSkip}, statuses)
}

func TestCrossCheckIsTailAware(t *testing.T) {
	withAMX(t, false)
	for _, exact := range []bool{false, true} {
		cfg := testConfig()
		cfg.ExactTail = exact
		b, _ := newTestBenchmark(t, cfg, blas.NewEngine())
		require.NoError(t, b.Run(OpInnerProduct, Shape{16, 16, 20}), "exact=%v", exact)
		require.NoError(t, b.Run(OpMatMul, Shape{16, 24, 36}), "exact=%v", exact)
	}
}

func TestCrossCheckMismatchIsNumerical(t *testing.T) {
	cfg := testConfig()
	broken := &cpuKernel{mode: ModeVectorSIMD, dot: func(x, y []float32, dim int) float32 { return -1 }}
	b := NewBenchmark(cfg, io.Discard, []Kernel{broken}, WithBenchmarkLogger(quietLogger()))

	err := b.Run(OpInnerProduct, Shape{8, 8, 32})
	assert.True(t, IsNumericalError(err), "%v", err)

	cfg.Verify = false
	b = NewBenchmark(cfg, io.Discard, []Kernel{broken}, WithBenchmarkLogger(quietLogger()))
	assert.NoError(t, b.Run(OpInnerProduct, Shape{8, 8, 32}))
}

func TestSearchSkipsAccelerated(t *testing.T) {
	withAMX(t, true)
	cfg := testConfig()
	cfg.Search = SearchParams{Batch: 4, TopK: 3}
	session, err := NewSessionLog(t.TempDir(), "test")
	require.NoError(t, err)
	b, out := newTestBenchmark(t, cfg, blas.NewEngine(), WithSessionLog(session))

	require.NoError(t, b.RunSearch(10, 50, 32))
	assert.Contains(t, out.String(), "SEARCH / SIMD")
	assert.NotContains(t, out.String(), "SEARCH / AMX")

	statuses := lo.Map(session.Records(), func(r RunRecord, _ int) string { return r.Status })
	assert.Equal(t, []string{StatusPass, StatusPass, StatusSkip}, statuses)
}

func TestRunSuitesSquare(t *testing.T) {
	if testing.Short() {
		t.Skip("square suite runs up to 512³")
	}
	withAMX(t, false)
	cfg := testConfig()
	cfg.Iterations = 1
	cfg.Modes = []Mode{ModeVectorSIMD}
	b, out := newTestBenchmark(t, cfg, blas.NewEngine())

	require.NoError(t, b.RunSuites([]Suite{SuiteSquare}, Shape{}))
	assert.Equal(t, 2, bytes.Count(out.Bytes(), []byte("Data size (MiB)")), "one table per phase")
	assert.Contains(t, out.String(), "512 / 512 / 512")
}

func TestRunRejectsNegativeShape(t *testing.T) {
	b, _ := newTestBenchmark(t, testConfig(), blas.NewEngine())
	err := b.Run(OpInnerProduct, Shape{-1, 4, 4})
	assert.ErrorIs(t, err, ErrNegativeShape)

	err = b.RunSuites([]Suite{"conv"}, Shape{})
	assert.True(t, IsInvalidArgError(err))
}

func TestParseSuites(t *testing.T) {
	suites, err := ParseSuites([]string{"Square", "search", "square", ""})
	require.NoError(t, err)
	assert.Equal(t, []Suite{SuiteSquare, SuiteSearch}, suites)

	_, err = ParseSuites([]string{"huge"})
	assert.True(t, IsInvalidArgError(err))
}
