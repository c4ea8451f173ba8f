package amxbench

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/LynnColeArt/amxbench/compute/f32"
	"github.com/LynnColeArt/amxbench/ffu"
	"github.com/LynnColeArt/amxbench/ffu/amx"
)

// Mode is the execution path of a kernel.
type Mode int

const (
	ModeScalar Mode = iota
	ModeVectorSIMD
	ModeAccelerated
)

func (m Mode) String() string {
	switch m {
	case ModeScalar:
		return "Scalar"
	case ModeVectorSIMD:
		return "SIMD"
	case ModeAccelerated:
		return "AMX"
	default:
		return "Unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMode parses a single --modes entry.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "scalar":
		return ModeScalar, nil
	case "simd", "vector", "vectorsimd":
		return ModeVectorSIMD, nil
	case "amx", "accelerated":
		return ModeAccelerated, nil
	}
	return 0, NewInvalidArgError("ParseMode", fmt.Sprintf("unknown mode %q", s))
}

// ParseModes parses a mode list, dropping blanks and duplicates.
func ParseModes(names []string) ([]Mode, error) {
	names = lo.Compact(lo.Map(names, func(s string, _ int) string {
		return strings.TrimSpace(s)
	}))
	modes := make([]Mode, 0, len(names))
	for _, name := range names {
		m, err := ParseMode(name)
		if err != nil {
			return nil, err
		}
		modes = append(modes, m)
	}
	return lo.Uniq(modes), nil
}

// Call is one timed invocation of a prepared kernel.
type Call func() error

// Kernel is one execution path.
//
// Prepare is the warm step: it receives the generated workload, does any
// layout change or transfer-in, and returns the call the harness times.
type Kernel interface {
	Mode() Mode
	Precision() Precision
	Available() bool
	Prepare(w *Workload) (Call, error)
}

// finisher is implemented by kernels that hold engine resources after the
// timed loop.
type finisher interface {
	Finish() error
}

// cpuKernel computes every row-pair inner product with dot.
type cpuKernel struct {
	mode Mode
	dot  f32.DotFunc

	last float32
	hits [][]Hit
}

// NewScalarKernel returns the single-accumulator reference kernel.
func NewScalarKernel() Kernel {
	return &cpuKernel{mode: ModeScalar, dot: InnerProduct}
}

// NewVectorKernel returns the 16-lane kernel. With exactTail the trailing
// dim mod 16 products are added by a scalar cleanup loop.
func NewVectorKernel(exactTail bool) Kernel {
	dot := f32.DotWide
	if exactTail {
		dot = f32.DotWideExact
	}
	return &cpuKernel{mode: ModeVectorSIMD, dot: dot}
}

func (k *cpuKernel) Mode() Mode           { return k.mode }
func (k *cpuKernel) Precision() Precision { return Float32 }
func (k *cpuKernel) Available() bool      { return true }

func (k *cpuKernel) Prepare(w *Workload) (Call, error) {
	if w.A.Precision != Float32 || w.B.Precision != Float32 {
		return nil, NewInvalidArgError("Prepare", fmt.Sprintf("%s kernel needs f32 operands", k.mode))
	}

	switch w.Op {
	case OpSearch:
		params, err := w.Search.normalize()
		if err != nil {
			return nil, err
		}
		return func() error {
			k.hits = Search(w.A, w.B, params, k.dot)
			return nil
		}, nil
	case OpInnerProduct, OpMatMul:
	default:
		return nil, ErrNotSupported
	}

	b := w.B
	if w.Op == OpMatMul {
		b = w.B.Transpose()
	}
	if b.Cols != w.A.Cols {
		return nil, NewInvalidArgError("Prepare", fmt.Sprintf("contraction mismatch %d != %d", w.A.Cols, b.Cols))
	}

	out := make([]float32, b.Rows)
	return func() error {
		innerProductRows(out, w.A, b, k.dot, nil)
		if len(out) > 0 {
			k.last = out[len(out)-1]
		}
		return nil
	}, nil
}

// acceleratedKernel delegates to the AMX adapter.
type acceleratedKernel struct {
	adapter   *amx.Adapter
	precision Precision
	matmulOut ffu.DataType
	ipOut     ffu.DataType

	session *amx.Session
	output  []byte
}

// NewAcceleratedKernel returns the accelerated path over adapter. Inputs use
// cfg.Compact; destination types are pinned from cfg.
func NewAcceleratedKernel(adapter *amx.Adapter, cfg Config) Kernel {
	return &acceleratedKernel{
		adapter:   adapter,
		precision: cfg.Compact,
		matmulOut: cfg.MatMulOutput,
		ipOut:     cfg.InnerProductOutput,
	}
}

func (k *acceleratedKernel) Mode() Mode           { return ModeAccelerated }
func (k *acceleratedKernel) Precision() Precision { return k.precision }
func (k *acceleratedKernel) Available() bool      { return k.adapter.IsAvailable() }

func (k *acceleratedKernel) Prepare(w *Workload) (Call, error) {
	if w.Op == OpSearch {
		return nil, ErrNotSupported
	}
	// the engine rejects empty operands; there is nothing to offload
	if w.Shape.N1 == 0 || w.Shape.N2 == 0 || w.Shape.M == 0 {
		return nil, &BenchError{
			Type:    ErrTypeNotImplemented,
			Op:      "Prepare",
			Message: fmt.Sprintf("empty shape %s", w.Shape),
		}
	}
	k.release()

	in := w.A.Precision.DataType()
	var (
		sess *amx.Session
		err  error
	)
	switch w.Op {
	case OpInnerProduct:
		sess, err = k.adapter.PrepareInnerProduct(&ffu.InnerProductWorkload{
			N: w.Shape.N1, OC: w.Shape.N2, IC: w.Shape.M,
			S: w.A.Bytes(), W: w.B.Bytes(),
			InputType: in, OutputType: k.ipOut,
		})
	case OpMatMul:
		sess, err = k.adapter.PrepareMatMul(&ffu.MatMulWorkload{
			M: w.Shape.N1, N: w.Shape.N2, K: w.Shape.M,
			A: w.A.Bytes(), B: w.B.Bytes(),
			InputType: in, OutputType: k.matmulOut,
		})
	default:
		return nil, ErrNotSupported
	}
	if err != nil {
		return nil, wrapEngineError("Prepare", err)
	}
	k.session = sess

	return func() error {
		return wrapEngineError("Execute", sess.Execute())
	}, nil
}

// Finish transfers the destination out of engine memory and releases the
// session.
func (k *acceleratedKernel) Finish() error {
	if k.session == nil {
		return nil
	}
	defer k.release()

	k.output = make([]byte, k.session.OutputDesc().Bytes())
	return wrapEngineError("ReadOutput", k.session.ReadOutput(k.output))
}

func (k *acceleratedKernel) release() {
	if k.session != nil {
		k.session.Release()
		k.session = nil
	}
}

// NewKernels builds the kernels named by cfg.Modes, in order.
func NewKernels(cfg Config, adapter *amx.Adapter) []Kernel {
	return lo.FilterMap(cfg.Modes, func(m Mode, _ int) (Kernel, bool) {
		switch m {
		case ModeScalar:
			return NewScalarKernel(), true
		case ModeVectorSIMD:
			return NewVectorKernel(cfg.ExactTail), true
		case ModeAccelerated:
			if adapter == nil {
				return nil, false
			}
			return NewAcceleratedKernel(adapter, cfg), true
		}
		return nil, false
	})
}
