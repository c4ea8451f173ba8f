package amxbench

import "fmt"

// LoopParams sizes the peak and memory suites. Zero fields take the
// defaults.
type LoopParams struct {
	// ChainIterations is the number of add-chain passes per timed call
	ChainIterations int

	// MemWords is the int64 word count of the fill and read loops
	MemWords int

	// CacheRows is the number of CacheLineWords-wide rows of the cache walks
	CacheRows int
}

func (p LoopParams) normalize() (LoopParams, error) {
	if p.ChainIterations < 0 || p.MemWords < 0 || p.CacheRows < 0 {
		return p, NewInvalidArgError("Loops", fmt.Sprintf("sizes %d/%d/%d must be non-negative",
			p.ChainIterations, p.MemWords, p.CacheRows))
	}
	if p.ChainIterations == 0 {
		p.ChainIterations = DefaultChainIterations
	}
	if p.MemWords == 0 {
		p.MemWords = DefaultMemWords
	}
	if p.CacheRows == 0 {
		p.CacheRows = DefaultCacheRows
	}
	return p, nil
}

var (
	chainF32 = [5]float32{46776.56857784, 34445.14848484, 63344.76857294, 75685.83947567, 19494.34848399}
	chainI32 = [5]int32{46776, 34445, 63344, 75685, 19494}

	// results land here so the loops stay live
	sinkF32 float32
	sinkI32 int32
	sinkI64 int64
)

// addChain runs n passes of the ChainOperands add chain. Each pass starts
// from the previous result, so every add waits on the one before.
func addChain[T float32 | int32](n int, a, b, c, d, e T) T {
	var x T
	for range n {
		x = x + b + c + d + e +
			a + b + c + d + e + a + b + c + d + e + a + b + c + d + e +
			a + b + c + d + e + a + b + c + d + e + a + b + c + d + e +
			a + b + c + d + e + a + b + c + d + e + a + b + c + d + e
	}
	return x
}

func fillWords(v []int64) {
	for i := range v {
		v[i] = int64(i)
	}
}

func readWords(v []int64) int64 {
	var sum int64
	for _, x := range v {
		sum += x
	}
	return sum
}

// incrementRows walks v row by row, one cache line after the next.
func incrementRows(v []int32, width int) {
	rows := len(v) / width
	for i := range rows {
		row := v[i*width : (i+1)*width]
		for j := range row {
			row[j]++
		}
	}
}

// incrementColumns walks v column by column, touching every line once per
// column.
func incrementColumns(v []int32, width int) {
	rows := len(v) / width
	for j := range width {
		for i := range rows {
			v[i*width+j]++
		}
	}
}

// touchLines reads the first word of every row. Go has no prefetch
// intrinsic; a load brings the line in the same way.
func touchLines(v []int32, width int) int32 {
	var sum int32
	for i := 0; i < len(v); i += width {
		sum += v[i]
	}
	return sum
}

func cacheRows(rows, width int) []int32 {
	v := make([]int32, rows*width)
	for i := range rows {
		for j := range width {
			v[i*width+j] = int32(i + j)
		}
	}
	return v
}

// timedLoop is one timed scalar loop outside the kernel set.
type timedLoop struct {
	op        Op
	shape     Shape
	precision Precision
	warm      func() (Call, error)
}

func (b *Benchmark) runLoop(p timedLoop) (BenchmarkRun, error) {
	label := p.op.String() + " / " + ModeScalar.String()
	b.logger.Info("running", "config", label, "dims", p.shape.String(), "precision", p.precision)

	timing, err := b.harness.Measure(label, p.shape, p.warm)
	if err != nil {
		b.logErr(b.session.LogFail(p.op, ModeScalar, p.shape, err))
		return BenchmarkRun{}, fmt.Errorf("%s %s: %w", label, p.shape, err)
	}
	run := NewRun(p.op, ModeScalar, p.shape, p.precision, timing.Reported)
	b.reporter.Add(run)
	b.logErr(b.session.LogRun(run))
	return run, nil
}

// RunPeakSuite measures the float32 and int32 add chains and prints the
// table. The int32 row is also logged in MIPS.
func (b *Benchmark) RunPeakSuite() error {
	params, err := b.cfg.Loops.normalize()
	if err != nil {
		return err
	}
	shape := Shape{N1: params.ChainIterations, N2: 1, M: ChainOperands}
	f, i := chainF32, chainI32

	loops := []timedLoop{
		{OpPeakFloat, shape, Float32, func() (Call, error) {
			return func() error {
				sinkF32 = addChain(shape.N1, f[0], f[1], f[2], f[3], f[4])
				return nil
			}, nil
		}},
		{OpPeakInt, shape, Int32, func() (Call, error) {
			return func() error {
				sinkI32 = addChain(shape.N1, i[0], i[1], i[2], i[3], i[4])
				return nil
			}, nil
		}},
	}
	for _, p := range loops {
		run, err := b.runLoop(p)
		if err != nil {
			return err
		}
		if p.op == OpPeakInt {
			b.logger.Info("peak integer throughput", "mips", run.GFLOPS*1e3)
		}
	}
	return b.PrintResults()
}

// RunMemorySuite measures sequential fill and read, then row-major against
// column-major access with and without a line-touch pass, and prints the
// table.
func (b *Benchmark) RunMemorySuite() error {
	params, err := b.cfg.Loops.normalize()
	if err != nil {
		return err
	}
	words := Shape{N1: params.MemWords, N2: 1}
	lines := Shape{N1: params.CacheRows, N2: CacheLineWords}

	cache := func(op Op, walk func([]int32, int), touch bool) timedLoop {
		return timedLoop{op, lines, Int32, func() (Call, error) {
			v := cacheRows(lines.N1, lines.N2)
			if touch {
				sinkI32 = touchLines(v, lines.N2)
			}
			return func() error {
				walk(v, lines.N2)
				return nil
			}, nil
		}}
	}

	loops := []timedLoop{
		{OpMemFill, words, Int64, func() (Call, error) {
			v := make([]int64, words.N1)
			return func() error {
				fillWords(v)
				return nil
			}, nil
		}},
		{OpMemRead, words, Int64, func() (Call, error) {
			v := make([]int64, words.N1)
			fillWords(v)
			return func() error {
				sinkI64 = readWords(v)
				return nil
			}, nil
		}},
		cache(OpCacheRows, incrementRows, false),
		cache(OpCacheColumns, incrementColumns, false),
		cache(OpCacheRowsTouched, incrementRows, true),
		cache(OpCacheColumnsTouched, incrementColumns, true),
	}
	for _, p := range loops {
		if _, err := b.runLoop(p); err != nil {
			return err
		}
	}
	return b.PrintResults()
}
