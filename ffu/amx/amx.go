// Package amx adapts an external matrix engine behind the Intel AMX-BF16
// capability gate.
package amx

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LynnColeArt/amxbench/ffu"
)

var _ ffu.FFU = (*Adapter)(nil)

// Adapter implements the FFU interface for AMX backed matrix operations
type Adapter struct {
	engine    ffu.Engine
	stream    ffu.Stream
	available bool
	logger    *slog.Logger

	mu      sync.Mutex
	metrics atomic.Value // *ffu.Metrics
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger used for preparation messages.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

// NewAdapter creates an adapter over engine. Availability is sampled from
// the capability gate once, here.
func NewAdapter(engine ffu.Engine, opts ...Option) *Adapter {
	a := &Adapter{
		engine:    engine,
		stream:    engine.NewStream(),
		available: HasAMXBF16(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}

	// Initialize metrics
	a.metrics.Store(&ffu.Metrics{
		LastUsed: time.Now(),
	})
	return a
}

// Close stops the adapter's engine stream. Sessions prepared afterwards
// fail to execute.
func (a *Adapter) Close() error {
	return a.stream.Close()
}

// Name returns the FFU name
func (a *Adapter) Name() string {
	return "Intel AMX"
}

// Type returns the FFU type
func (a *Adapter) Type() ffu.FFUType {
	return ffu.FFUTypeAMX
}

// IsAvailable returns true if the AMX FFU is available
func (a *Adapter) IsAvailable() bool {
	return a.available
}

// Engine returns the engine the adapter drives.
func (a *Adapter) Engine() ffu.Engine {
	return a.engine
}

// Metrics returns performance metrics for this FFU
func (a *Adapter) Metrics() ffu.Metrics {
	return *a.metrics.Load().(*ffu.Metrics)
}

func (a *Adapter) record(fn func(m *ffu.Metrics)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	m := *a.metrics.Load().(*ffu.Metrics)
	fn(&m)
	m.LastUsed = time.Now()
	a.metrics.Store(&m)
}

func (a *Adapter) fail(err error) error {
	a.record(func(m *ffu.Metrics) {
		m.ErrorCount++
		m.LastError = err
	})
	return err
}

// PrepareMatMul validates w, copies A and B into engine memory and builds
// the matmul primitive. C = A (M×K) × B (K×N).
func (a *Adapter) PrepareMatMul(w *ffu.MatMulWorkload) (*Session, error) {
	if !a.available {
		return nil, ffu.ErrUnavailable
	}
	if err := w.Validate(); err != nil {
		return nil, a.fail(fmt.Errorf("amx matmul: %w", err))
	}
	src, wei, dst := w.Descs()
	prim, err := a.engine.MatMul(src, wei, dst)
	if err != nil {
		return nil, a.fail(fmt.Errorf("amx matmul: %w", err))
	}
	return a.prepare(prim, src, wei, dst, w.A, w.B)
}

// PrepareInnerProduct validates w, copies S and W into engine memory and
// builds the inner product primitive. Dst = S (N×IC) × Wᵀ (IC×OC).
func (a *Adapter) PrepareInnerProduct(w *ffu.InnerProductWorkload) (*Session, error) {
	if !a.available {
		return nil, ffu.ErrUnavailable
	}
	if err := w.Validate(); err != nil {
		return nil, a.fail(fmt.Errorf("amx inner product: %w", err))
	}
	src, wei, dst := w.Descs()
	prim, err := a.engine.InnerProduct(src, wei, dst)
	if err != nil {
		return nil, a.fail(fmt.Errorf("amx inner product: %w", err))
	}
	return a.prepare(prim, src, wei, dst, w.S, w.W)
}

func (a *Adapter) prepare(prim ffu.Primitive, src, wei, dst ffu.Desc, srcData, weiData []byte) (*Session, error) {
	memSrc, err := a.engine.Alloc(src)
	if err != nil {
		return nil, a.fail(err)
	}
	memWei, err := a.engine.Alloc(wei)
	if err != nil {
		return nil, a.fail(err)
	}
	memDst, err := a.engine.Alloc(dst)
	if err != nil {
		return nil, a.fail(err)
	}

	if err := ffu.WriteMemory(srcData, memSrc); err != nil {
		return nil, a.fail(fmt.Errorf("amx %s: %w", prim.Kind(), err))
	}
	if err := ffu.WriteMemory(weiData, memWei); err != nil {
		return nil, a.fail(fmt.Errorf("amx %s: %w", prim.Kind(), err))
	}
	a.record(func(m *ffu.Metrics) {
		m.BytesProcessed += int64(src.Bytes() + wei.Bytes())
	})

	a.logger.Debug("amx primitive ready",
		"kind", prim.Kind().String(),
		"engine", a.engine.Name(),
		"src", src.String(),
		"weights", wei.String(),
		"dst", dst.String())

	return &Session{
		adapter: a,
		prim:    prim,
		args: ffu.Args{
			ffu.ArgSrc:     memSrc,
			ffu.ArgWeights: memWei,
			ffu.ArgDst:     memDst,
		},
	}, nil
}

// Session is a prepared primitive with its operands resident in engine
// memory.
type Session struct {
	adapter *Adapter
	prim    ffu.Primitive
	args    ffu.Args
}

// Execute runs the primitive and blocks until the engine has materialized
// the output. There is no timeout.
func (s *Session) Execute() error {
	start := time.Now()
	err := s.prim.Execute(s.adapter.stream, s.args)
	if err == nil {
		err = s.adapter.stream.Wait()
	}
	elapsed := time.Since(start)
	if err != nil {
		return s.adapter.fail(fmt.Errorf("amx %s execute: %w", s.prim.Kind(), err))
	}
	s.adapter.record(func(m *ffu.Metrics) {
		m.WorkloadCount++
		m.TotalDuration += elapsed
	})
	return nil
}

// OutputDesc describes the destination operand.
func (s *Session) OutputDesc() ffu.Desc {
	return s.args[ffu.ArgDst].Desc()
}

// ReadOutput copies the destination operand out of engine memory.
func (s *Session) ReadOutput(dst []byte) error {
	if err := ffu.ReadMemory(dst, s.args[ffu.ArgDst]); err != nil {
		return s.adapter.fail(fmt.Errorf("amx %s: %w", s.prim.Kind(), err))
	}
	s.adapter.record(func(m *ffu.Metrics) {
		m.BytesProcessed += int64(s.OutputDesc().Bytes())
	})
	return nil
}

// Release drops the engine memory held by the session.
func (s *Session) Release() {
	for _, m := range s.args {
		m.Release()
	}
}
