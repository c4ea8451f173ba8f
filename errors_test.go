package amxbench

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LynnColeArt/amxbench/ffu"
)

func TestStructuredErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType ErrorType
		wantOp   string
		checkFn  func(error) bool
	}{
		{
			name:     "Negative Shape",
			err:      ErrNegativeShape,
			wantType: ErrTypeInvalidArg,
			wantOp:   "Matrix",
			checkFn:  IsInvalidArgError,
		},
		{
			name:     "Not Supported",
			err:      ErrNotSupported,
			wantType: ErrTypeNotImplemented,
			wantOp:   "Prepare",
			checkFn:  IsNotImplementedError,
		},
		{
			name:     "Numerical",
			err:      NewNumericalError("CrossCheck", "mismatch"),
			wantType: ErrTypeNumerical,
			wantOp:   "CrossCheck",
			checkFn:  IsNumericalError,
		},
		{
			name:     "Execution",
			err:      NewExecutionError("Execute", "boom", errors.New("cause")),
			wantType: ErrTypeExecution,
			wantOp:   "Execute",
			checkFn:  func(err error) bool { return isType(err, ErrTypeExecution) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e *BenchError
			if assert.ErrorAs(t, tt.err, &e) {
				assert.Equal(t, tt.wantType, e.Type)
				assert.Equal(t, tt.wantOp, e.Op)
			}
			assert.True(t, tt.checkFn(tt.err))
		})
	}
}

func TestWrapEngineError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		checkFn func(error) bool
	}{
		{"NullHandle", fmt.Errorf("write: %w", ffu.ErrNullHandle), IsDeviceError},
		{"Unavailable", ffu.ErrUnavailable, IsCapabilityError},
		{"ShapeMismatch", ffu.ErrShapeMismatch, IsInvalidArgError},
		{"UnsupportedType", ffu.ErrUnsupportedType, IsInvalidArgError},
		{"Other", errors.New("engine crashed"), func(err error) bool { return isType(err, ErrTypeExecution) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := wrapEngineError("Op", tt.err)
			assert.True(t, tt.checkFn(wrapped), "%v", wrapped)
			assert.ErrorIs(t, wrapped, tt.err)
		})
	}

	assert.NoError(t, wrapEngineError("Op", nil))
}

func TestErrorMessage(t *testing.T) {
	err := NewExecutionError("Execute", "engine call failed", errors.New("stream closed"))
	assert.Equal(t, "Execution error in Execute: engine call failed (caused by: stream closed)", err.Error())

	err = NewInvalidArgError("ParseMode", "unknown mode")
	assert.Equal(t, "InvalidArgument error in ParseMode: unknown mode", err.Error())
	assert.False(t, IsDeviceError(err))
	assert.False(t, IsDeviceError(errors.New("plain")))
}
