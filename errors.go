// Package amxbench structured error types for better error handling
package amxbench

import (
	"errors"
	"fmt"

	"github.com/LynnColeArt/amxbench/ffu"
)

// ErrorType represents categories of errors
type ErrorType int

const (
	// Invalid argument errors
	ErrTypeInvalidArg ErrorType = iota
	// Execution errors
	ErrTypeExecution
	// Device errors: data handles lost on the way into or out of the engine
	ErrTypeDevice
	// Capability errors: the execution path is absent on this CPU
	ErrTypeCapability
	// Numerical errors
	ErrTypeNumerical
	// Not implemented errors
	ErrTypeNotImplemented
)

// BenchError represents a structured error with context
type BenchError struct {
	Type    ErrorType
	Op      string // Operation that failed
	Message string // Human-readable message
	Err     error  // Underlying error if any
}

// Error implements the error interface
func (e *BenchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error in %s: %s (caused by: %v)",
			e.Type, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error in %s: %s", e.Type, e.Op, e.Message)
}

// Unwrap allows error chain inspection
func (e *BenchError) Unwrap() error {
	return e.Err
}

// String returns the error type as a string
func (t ErrorType) String() string {
	switch t {
	case ErrTypeInvalidArg:
		return "InvalidArgument"
	case ErrTypeExecution:
		return "Execution"
	case ErrTypeDevice:
		return "Device"
	case ErrTypeCapability:
		return "Capability"
	case ErrTypeNumerical:
		return "Numerical"
	case ErrTypeNotImplemented:
		return "NotImplemented"
	default:
		return "Unknown"
	}
}

// NewInvalidArgError creates an invalid argument error
func NewInvalidArgError(op string, message string) error {
	return &BenchError{Type: ErrTypeInvalidArg, Op: op, Message: message}
}

// NewExecutionError creates an execution error
func NewExecutionError(op string, message string, err error) error {
	return &BenchError{Type: ErrTypeExecution, Op: op, Message: message, Err: err}
}

// NewNumericalError creates a numerical error
func NewNumericalError(op string, message string) error {
	return &BenchError{Type: ErrTypeNumerical, Op: op, Message: message}
}

// wrapEngineError classifies an error coming back from the ffu layer.
func wrapEngineError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ffu.ErrNullHandle):
		return &BenchError{Type: ErrTypeDevice, Op: op, Message: "data handle unavailable", Err: err}
	case errors.Is(err, ffu.ErrUnavailable):
		return &BenchError{Type: ErrTypeCapability, Op: op, Message: "accelerator not available", Err: err}
	case errors.Is(err, ffu.ErrShapeMismatch), errors.Is(err, ffu.ErrUnsupportedType):
		return &BenchError{Type: ErrTypeInvalidArg, Op: op, Message: "operands rejected", Err: err}
	default:
		return NewExecutionError(op, "engine call failed", err)
	}
}

// Common pre-defined errors

var (
	// ErrNotSupported is returned by kernels for operations they do not run
	ErrNotSupported = &BenchError{Type: ErrTypeNotImplemented, Op: "Prepare", Message: "operation not supported by kernel"}

	// ErrNegativeShape indicates a negative matrix dimension
	ErrNegativeShape = NewInvalidArgError("Matrix", "dimensions must be non-negative")
)

func isType(err error, t ErrorType) bool {
	var e *BenchError
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// IsDeviceError checks if an error is a device error
func IsDeviceError(err error) bool { return isType(err, ErrTypeDevice) }

// IsCapabilityError checks if an error is a capability error
func IsCapabilityError(err error) bool { return isType(err, ErrTypeCapability) }

// IsInvalidArgError checks if an error is an invalid argument error
func IsInvalidArgError(err error) bool { return isType(err, ErrTypeInvalidArg) }

// IsNumericalError checks if an error is a numerical error
func IsNumericalError(err error) bool { return isType(err, ErrTypeNumerical) }

// IsNotImplementedError checks if an error is a not implemented error
func IsNotImplementedError(err error) bool { return isType(err, ErrTypeNotImplemented) }
