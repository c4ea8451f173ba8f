package ffu

import (
	"fmt"
)

// MatMulWorkload describes C = A × B on the unit.
type MatMulWorkload struct {
	M int // Rows of A and C
	N int // Columns of B and C
	K int // Columns of A, Rows of B

	A []byte // M×K matrix (row-major)
	B []byte // K×N matrix (row-major)

	InputType  DataType
	OutputType DataType
}

// Descs returns the source, weights and destination descriptors.
func (w *MatMulWorkload) Descs() (src, weights, dst Desc) {
	return Desc{w.M, w.K, w.InputType}, Desc{w.K, w.N, w.InputType}, Desc{w.M, w.N, w.OutputType}
}

// Validate checks if the workload is valid
func (w *MatMulWorkload) Validate() error {
	return validate(w.M, w.N, w.K, w.A, w.B, w.InputType, w.OutputType)
}

// InnerProductWorkload describes Dst = S × Wᵀ for S (N×IC) and W (OC×IC).
type InnerProductWorkload struct {
	N  int // Rows of S and Dst
	OC int // Rows of W, columns of Dst
	IC int // Shared contraction dimension

	S []byte
	W []byte

	InputType  DataType
	OutputType DataType
}

// Descs returns the source, weights and destination descriptors.
func (w *InnerProductWorkload) Descs() (src, weights, dst Desc) {
	return Desc{w.N, w.IC, w.InputType}, Desc{w.OC, w.IC, w.InputType}, Desc{w.N, w.OC, w.OutputType}
}

// Validate checks if the workload is valid
func (w *InnerProductWorkload) Validate() error {
	return validate(w.N, w.OC, w.IC, w.S, w.W, w.InputType, w.OutputType)
}

func validate(rows, cols, inner int, a, b []byte, in, out DataType) error {
	if rows <= 0 || cols <= 0 || inner <= 0 {
		return fmt.Errorf("invalid dimensions %d/%d/%d: %w", rows, cols, inner, ErrShapeMismatch)
	}
	if !in.Compact() {
		return fmt.Errorf("input %s: %w", in, ErrUnsupportedType)
	}
	if out != F32 && out != in {
		return fmt.Errorf("output %s for %s input: %w", out, in, ErrUnsupportedType)
	}
	if a == nil || b == nil {
		return fmt.Errorf("operand %w", ErrNullHandle)
	}

	// Check data buffers
	if want := rows * inner * in.Size(); len(a) < want {
		return fmt.Errorf("first operand too small: %d < %d: %w", len(a), want, ErrShapeMismatch)
	}
	if want := cols * inner * in.Size(); len(b) < want {
		return fmt.Errorf("second operand too small: %d < %d: %w", len(b), want, ErrShapeMismatch)
	}
	return nil
}

// Size returns the bytes moved for the workload: both inputs and the output.
func (w *MatMulWorkload) Size() int64 {
	src, wei, dst := w.Descs()
	return int64(src.Bytes() + wei.Bytes() + dst.Bytes())
}

// Size returns the bytes moved for the workload: both inputs and the output.
func (w *InnerProductWorkload) Size() int64 {
	src, wei, dst := w.Descs()
	return int64(src.Bytes() + wei.Bytes() + dst.Bytes())
}
