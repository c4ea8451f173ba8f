// Package ffu defines the call contract between the benchmark and an external
// fixed-function matrix engine.
package ffu

import (
	"errors"
	"time"
)

var (
	// ErrNullHandle is returned when a data handle is unavailable while
	// transferring into or out of engine memory. It is never retried.
	ErrNullHandle = errors.New("ffu: data handle is nil")

	// ErrUnavailable is returned when the unit's capability gate is closed.
	ErrUnavailable = errors.New("ffu: unit not available on this CPU")

	// ErrShapeMismatch is returned when operand dimensions do not contract.
	ErrShapeMismatch = errors.New("ffu: operand shapes do not match")

	// ErrUnsupportedType is returned for element types the engine cannot take.
	ErrUnsupportedType = errors.New("ffu: unsupported data type")

	// ErrStreamClosed is returned when work is submitted to a closed stream.
	ErrStreamClosed = errors.New("ffu: stream closed")
)

// FFU represents a Fixed-Function Unit
type FFU interface {
	// Name returns the FFU name
	Name() string

	// Type returns the FFU type
	Type() FFUType

	// IsAvailable checks if the FFU is currently available
	IsAvailable() bool

	// Metrics returns performance metrics for this FFU
	Metrics() Metrics
}

// FFUType represents the type of fixed-function unit
type FFUType int

const (
	FFUTypeUnknown FFUType = iota
	FFUTypeCPU             // General purpose CPU
	FFUTypeAMX             // Intel Advanced Matrix Extensions
)

func (t FFUType) String() string {
	switch t {
	case FFUTypeCPU:
		return "CPU"
	case FFUTypeAMX:
		return "AMX"
	default:
		return "Unknown"
	}
}

// Metrics tracks FFU performance metrics
type Metrics struct {
	// Total number of primitive executions
	WorkloadCount int64

	// Total bytes transferred into and out of engine memory
	BytesProcessed int64

	// Total execution time, waits included
	TotalDuration time.Duration

	// Number of errors
	ErrorCount int64

	// Last error (if any)
	LastError error

	// Timestamp of last use
	LastUsed time.Time
}

// Stream orders primitive executions on an engine.
type Stream interface {
	// Wait blocks until every submitted primitive has finished and returns
	// the first execution error.
	Wait() error

	// Close stops the stream once submitted work has drained. It is safe to
	// call more than once.
	Close() error
}

// Primitive is a compiled operation bound to operand descriptors.
type Primitive interface {
	Kind() PrimitiveKind

	// Execute submits the primitive on s. The output is only safe to read
	// after s.Wait returns.
	Execute(s Stream, args Args) error
}

// Engine is the external matrix engine. Its internals are opaque to the
// benchmark; only this contract is relied upon.
type Engine interface {
	Name() string

	// Alloc returns engine managed memory for desc.
	Alloc(desc Desc) (*Memory, error)

	NewStream() Stream

	// MatMul builds dst = src x weights for src (M×K), weights (K×N).
	MatMul(src, weights, dst Desc) (Primitive, error)

	// InnerProduct builds dst = src x weightsᵀ for src (N×IC), weights (OC×IC).
	InnerProduct(src, weights, dst Desc) (Primitive, error)
}

// PrimitiveKind names the operation a primitive performs.
type PrimitiveKind int

const (
	KindMatMul PrimitiveKind = iota
	KindInnerProduct
)

func (k PrimitiveKind) String() string {
	switch k {
	case KindMatMul:
		return "matmul"
	case KindInnerProduct:
		return "inner_product"
	default:
		return "unknown"
	}
}

// Arg identifies an operand slot.
type Arg int

const (
	ArgSrc Arg = iota
	ArgWeights
	ArgDst
)

// Args binds memory objects to operand slots.
type Args map[Arg]*Memory
