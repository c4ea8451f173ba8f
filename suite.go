package amxbench

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/LynnColeArt/amxbench/compute/f32"
	"github.com/LynnColeArt/amxbench/ffu"
)

// Suite names a group of benchmark phases.
type Suite string

const (
	SuiteSquare Suite = "square"
	SuiteRect   Suite = "rect"
	SuiteSearch Suite = "search"
	SuitePeak   Suite = "peak"
	SuiteMemory Suite = "memory"
)

var allSuites = []Suite{SuiteSquare, SuiteRect, SuiteSearch, SuitePeak, SuiteMemory}

// ParseSuites parses the --suite list, dropping blanks and duplicates.
func ParseSuites(names []string) ([]Suite, error) {
	suites := lo.Uniq(lo.Compact(lo.Map(names, func(s string, _ int) Suite {
		return Suite(strings.ToLower(strings.TrimSpace(s)))
	})))
	for _, s := range suites {
		if !lo.Contains(allSuites, s) {
			return nil, NewInvalidArgError("ParseSuites", fmt.Sprintf("unknown suite %q", s))
		}
	}
	return suites, nil
}

// Benchmark runs configurations through every kernel and collects rows.
// Configurations run strictly one after another.
type Benchmark struct {
	cfg      Config
	kernels  []Kernel
	harness  *Harness
	reporter *Reporter
	gen      *Generator
	logger   *slog.Logger
	session  *SessionLog
}

// BenchmarkOption configures a Benchmark.
type BenchmarkOption func(*Benchmark)

// WithBenchmarkLogger sets the logger for progress, skips and iterations.
func WithBenchmarkLogger(l *slog.Logger) BenchmarkOption {
	return func(b *Benchmark) { b.logger = l }
}

// WithSessionLog records every row in s.
func WithSessionLog(s *SessionLog) BenchmarkOption {
	return func(b *Benchmark) { b.session = s }
}

// NewBenchmark creates a benchmark printing tables to w.
func NewBenchmark(cfg Config, w io.Writer, kernels []Kernel, opts ...BenchmarkOption) *Benchmark {
	b := &Benchmark{
		cfg:      cfg,
		kernels:  kernels,
		reporter: NewReporter(w),
		gen:      NewGenerator(cfg.Seed),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.harness = NewHarness(cfg.Iterations, cfg.Policy, b.logger)
	b.harness.Debug = cfg.Debug
	return b
}

// Reporter returns the results table.
func (b *Benchmark) Reporter() *Reporter {
	return b.reporter
}

// PrintResults prints the pending rows and starts a new table.
func (b *Benchmark) PrintResults() error {
	return b.reporter.Print()
}

// Run measures op at shape on every kernel. Kernels that are unavailable or
// do not support op are skipped. Any other failure aborts the run.
func (b *Benchmark) Run(op Op, shape Shape) error {
	if shape.N1 < 0 || shape.N2 < 0 || shape.M < 0 {
		return fmt.Errorf("%s %s: %w", op, shape, ErrNegativeShape)
	}
	for _, k := range b.kernels {
		if err := b.runKernel(k, op, shape); err != nil {
			return err
		}
	}
	return nil
}

func (b *Benchmark) runKernel(k Kernel, op Op, shape Shape) error {
	label := op.String() + " / " + k.Mode().String()
	if !k.Available() {
		b.skip(k, op, shape, wrapEngineError("Available", ffu.ErrUnavailable))
		return nil
	}
	b.logger.Info("running", "config", label, "dims", shape.String(), "precision", k.Precision())

	timing, err := b.harness.Measure(label, shape, func() (Call, error) {
		w, err := b.gen.Workload(op, shape, k.Precision())
		if err != nil {
			return nil, err
		}
		w.Search = b.cfg.Search
		if err := b.crossCheck(k, w); err != nil {
			return nil, err
		}
		return k.Prepare(w)
	})
	if fin, ok := k.(finisher); ok {
		if ferr := fin.Finish(); err == nil {
			err = ferr
		}
	}

	switch {
	case err == nil:
	case IsNotImplementedError(err), IsCapabilityError(err):
		b.skip(k, op, shape, err)
		return nil
	default:
		b.logErr(b.session.LogFail(op, k.Mode(), shape, err))
		return fmt.Errorf("%s %s: %w", label, shape, err)
	}

	run := NewRun(op, k.Mode(), shape, k.Precision(), timing.Reported)
	b.reporter.Add(run)
	b.logErr(b.session.LogRun(run))
	return nil
}

func (b *Benchmark) skip(k Kernel, op Op, shape Shape, reason error) {
	b.logger.Info("skipping", "config", op.String()+" / "+k.Mode().String(), "dims", shape.String(), "reason", reason)
	b.logErr(b.session.LogSkip(op, k.Mode(), shape, reason))
}

func (b *Benchmark) logErr(err error) {
	if err != nil {
		b.logger.Warn("session log write failed", "err", err)
	}
}

// crossCheck compares the vector kernel against the scalar oracle on
// VerifyPairs sampled row pairs. Without ExactTail the oracle sums only the
// whole-lane prefix, matching what the vector kernel computes.
func (b *Benchmark) crossCheck(k Kernel, w *Workload) error {
	ck, ok := k.(*cpuKernel)
	if !b.cfg.Verify || !ok || ck.mode != ModeVectorSIMD {
		return nil
	}
	n1, n2, dim := w.Shape.N1, w.Shape.N2, w.Shape.M
	if n1 == 0 || n2 == 0 || dim == 0 {
		return nil
	}

	prefix := dim
	if tail := f32.Tail(dim); tail != 0 && !b.cfg.ExactTail {
		prefix -= tail
		b.logger.Debug("vector kernel omits tail", "dim", dim, "omitted", tail)
	}

	expected := make([]float32, VerifyPairs)
	actual := make([]float32, VerifyPairs)
	y := make([]float32, dim)
	for p := range VerifyPairs {
		i, j := samplePair(p, n1, n2)
		x := w.A.Row(i)
		if w.Op == OpMatMul {
			// column j of the M×N2 operand
			bv := w.B.Float32()
			for r := range y {
				y[r] = bv[r*n2+j]
			}
		} else {
			copy(y, w.B.Row(j))
		}
		expected[p] = InnerProduct(x, y, prefix)
		actual[p] = ck.dot(x, y, dim)
	}

	res := VerifyFloat32Array(expected, actual, RelaxedTolerance())
	if !res.OK() {
		return NewNumericalError("CrossCheck", fmt.Sprintf("%s %s: %s", w.Op, w.Shape, res))
	}
	return nil
}

// samplePair spreads the p-th verification pair over the output.
func samplePair(p, n1, n2 int) (int, int) {
	return (p*7919 + p/2) % n1, (p*104729 + 3*p) % n2
}

// RunSquareSuite runs IP then GEMM over SquareSizes, printing after each.
func (b *Benchmark) RunSquareSuite() error {
	for _, op := range []Op{OpInnerProduct, OpMatMul} {
		for _, size := range SquareSizes {
			if err := b.Run(op, Shape{N1: size, N2: size, M: size}); err != nil {
				return err
			}
		}
		if err := b.PrintResults(); err != nil {
			return err
		}
	}
	return nil
}

// RunRectSuite runs IP over RectShapes and prints the table.
func (b *Benchmark) RunRectSuite() error {
	for _, shape := range RectShapes() {
		if err := b.Run(OpInnerProduct, shape); err != nil {
			return err
		}
	}
	return b.PrintResults()
}

// RunSearch scores queries×datasets vectors of length dim and prints the
// table.
func (b *Benchmark) RunSearch(queries, datasets, dim int) error {
	if err := b.Run(OpSearch, Shape{N1: queries, N2: datasets, M: dim}); err != nil {
		return err
	}
	return b.PrintResults()
}

// RunSuites runs the named suites in order.
func (b *Benchmark) RunSuites(suites []Suite, search Shape) error {
	for _, s := range suites {
		var err error
		switch s {
		case SuiteSquare:
			err = b.RunSquareSuite()
		case SuiteRect:
			err = b.RunRectSuite()
		case SuiteSearch:
			err = b.RunSearch(search.N1, search.N2, search.M)
		case SuitePeak:
			err = b.RunPeakSuite()
		case SuiteMemory:
			err = b.RunMemorySuite()
		default:
			err = NewInvalidArgError("RunSuites", fmt.Sprintf("unknown suite %q", s))
		}
		if err != nil {
			return err
		}
	}
	return nil
}
