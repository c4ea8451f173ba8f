// Package blas implements the ffu engine contract on the CPU with gonum's
// float32 BLAS. It stands in for the external matrix engine so the
// accelerated path can be driven end to end.
package blas

import (
	"fmt"
	"sync"
	"unsafe"

	gonum "gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/LynnColeArt/amxbench/compute/half"
	"github.com/LynnColeArt/amxbench/ffu"
)

// Engine is a gonum backed ffu.Engine.
type Engine struct{}

// NewEngine creates a CPU engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Name returns the engine name
func (e *Engine) Name() string {
	return "gonum/blas32"
}

// Alloc returns zeroed engine memory for desc.
func (e *Engine) Alloc(desc ffu.Desc) (*ffu.Memory, error) {
	if desc.Rows < 0 || desc.Cols < 0 {
		return nil, fmt.Errorf("alloc %s: %w", desc, ffu.ErrShapeMismatch)
	}
	return ffu.NewMemory(desc, make([]byte, desc.Bytes())), nil
}

// NewStream creates an in-order stream backed by one worker goroutine.
func (e *Engine) NewStream() ffu.Stream {
	s := &stream{tasks: make(chan func() error, 16)}
	go s.worker()
	return s
}

// MatMul builds dst = src × weights.
func (e *Engine) MatMul(src, weights, dst ffu.Desc) (ffu.Primitive, error) {
	if src.Cols != weights.Rows || dst.Rows != src.Rows || dst.Cols != weights.Cols {
		return nil, fmt.Errorf("matmul %s x %s -> %s: %w", src, weights, dst, ffu.ErrShapeMismatch)
	}
	return newGemm(ffu.KindMatMul, gonum.NoTrans, src, weights, dst)
}

// InnerProduct builds dst = src × weightsᵀ.
func (e *Engine) InnerProduct(src, weights, dst ffu.Desc) (ffu.Primitive, error) {
	if src.Cols != weights.Cols || dst.Rows != src.Rows || dst.Cols != weights.Rows {
		return nil, fmt.Errorf("inner product %s x %sᵀ -> %s: %w", src, weights, dst, ffu.ErrShapeMismatch)
	}
	return newGemm(ffu.KindInnerProduct, gonum.Trans, src, weights, dst)
}

// stream runs submitted tasks in order on a single worker.
type stream struct {
	tasks chan func() error
	wg    sync.WaitGroup

	// sendMu guards tasks against a send racing Close
	sendMu sync.Mutex
	closed bool

	mu  sync.Mutex
	err error
}

func (s *stream) worker() {
	for task := range s.tasks {
		if err := task(); err != nil {
			s.mu.Lock()
			if s.err == nil {
				s.err = err
			}
			s.mu.Unlock()
		}
		s.wg.Done()
	}
}

func (s *stream) submit(task func() error) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if s.closed {
		return ffu.ErrStreamClosed
	}
	s.wg.Add(1)
	s.tasks <- task
	return nil
}

// Close lets the worker exit after the queued tasks have run.
func (s *stream) Close() error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.tasks)
	}
	return nil
}

// Wait blocks until all submitted tasks are done and returns the first error.
func (s *stream) Wait() error {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.err
	s.err = nil
	return err
}

// gemm is one Sgemm call with compact operands widened on the way in and the
// result narrowed on the way out.
type gemm struct {
	kind    ffu.PrimitiveKind
	transB  gonum.Transpose
	src     ffu.Desc
	weights ffu.Desc
	dst     ffu.Desc

	// float32 scratch reused across executions
	a, b, c []float32
}

func newGemm(kind ffu.PrimitiveKind, transB gonum.Transpose, src, weights, dst ffu.Desc) (*gemm, error) {
	for _, d := range []ffu.Desc{src, weights} {
		if !d.Type.Compact() && d.Type != ffu.F32 {
			return nil, fmt.Errorf("%s operand %s: %w", kind, d, ffu.ErrUnsupportedType)
		}
	}
	return &gemm{
		kind:    kind,
		transB:  transB,
		src:     src,
		weights: weights,
		dst:     dst,
		a:       make([]float32, src.Rows*src.Cols),
		b:       make([]float32, weights.Rows*weights.Cols),
		c:       make([]float32, dst.Rows*dst.Cols),
	}, nil
}

func (g *gemm) Kind() ffu.PrimitiveKind {
	return g.kind
}

// Execute submits the multiplication on s.
func (g *gemm) Execute(s ffu.Stream, args ffu.Args) error {
	st, ok := s.(*stream)
	if !ok {
		return fmt.Errorf("%s: stream %T does not belong to this engine", g.kind, s)
	}
	src, wei, dst := args[ffu.ArgSrc], args[ffu.ArgWeights], args[ffu.ArgDst]
	for _, m := range []*ffu.Memory{src, wei, dst} {
		if m.DataHandle() == nil {
			return fmt.Errorf("%s argument %w", g.kind, ffu.ErrNullHandle)
		}
	}

	return st.submit(func() error {
		load(g.a, src)
		load(g.b, wei)

		a := blas32.General{Rows: g.src.Rows, Cols: g.src.Cols, Data: g.a, Stride: g.src.Cols}
		b := blas32.General{Rows: g.weights.Rows, Cols: g.weights.Cols, Data: g.b, Stride: g.weights.Cols}
		c := blas32.General{Rows: g.dst.Rows, Cols: g.dst.Cols, Data: g.c, Stride: g.dst.Cols}
		if a.Rows > 0 && a.Cols > 0 && c.Cols > 0 {
			blas32.Gemm(gonum.NoTrans, g.transB, 1, a, b, 0, c)
		}

		store(dst, g.c)
		return nil
	})
}

// load widens a memory object into a float32 scratch buffer.
func load(dst []float32, m *ffu.Memory) {
	raw := m.DataHandle()
	switch m.Desc().Type {
	case ffu.F32:
		copy(dst, asFloat32(raw))
	case ffu.BF16:
		half.WidenSlice(half.FormatBFloat16, dst, asUint16(raw))
	case ffu.F16:
		half.WidenSlice(half.FormatFloat16, dst, asUint16(raw))
	}
}

// store narrows the float32 result into the destination memory type.
func store(m *ffu.Memory, src []float32) {
	raw := m.DataHandle()
	switch m.Desc().Type {
	case ffu.F32:
		copy(asFloat32(raw), src)
	case ffu.BF16:
		half.NarrowSlice(half.FormatBFloat16, asUint16(raw), src)
	case ffu.F16:
		half.NarrowSlice(half.FormatFloat16, asUint16(raw), src)
	}
}

func asFloat32(b []byte) []float32 {
	if len(b) < 4 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), len(b)/4)
}

func asUint16(b []byte) []uint16 {
	if len(b) < 2 {
		return nil
	}
	return unsafe.Slice((*uint16)(unsafe.Pointer(&b[0])), len(b)/2)
}
