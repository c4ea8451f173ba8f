package amxbench

import (
	"fmt"
	"unsafe"

	"github.com/LynnColeArt/amxbench/compute/half"
)

// Matrix is a dense row-major matrix. Storage is exactly
// Rows*Cols*Precision.ElementSize() bytes.
type Matrix struct {
	Rows      int
	Cols      int
	Precision Precision

	data []byte
}

// Vector is a 1×D matrix.
type Vector = Matrix

// NewMatrix allocates a zeroed rows×cols matrix.
func NewMatrix(rows, cols int, p Precision) (*Matrix, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("%dx%d: %w", rows, cols, ErrNegativeShape)
	}
	return &Matrix{
		Rows:      rows,
		Cols:      cols,
		Precision: p,
		data:      make([]byte, rows*cols*p.ElementSize()),
	}, nil
}

// NewVector allocates a zeroed 1×dim vector.
func NewVector(dim int, p Precision) (*Vector, error) {
	return NewMatrix(1, dim, p)
}

// Len returns Rows*Cols.
func (m *Matrix) Len() int {
	return m.Rows * m.Cols
}

// Bytes returns the raw storage.
func (m *Matrix) Bytes() []byte {
	return m.data
}

// Float32 returns the elements of a Float32 matrix.
func (m *Matrix) Float32() []float32 {
	if m.Precision != Float32 {
		panic(fmt.Sprintf("Float32 view of %s matrix", m.Precision))
	}
	if len(m.data) == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&m.data[0])), m.Len())
}

// Compact returns the raw 16-bit words of a compact matrix.
func (m *Matrix) Compact() []uint16 {
	m.Precision.mustCompact("Compact")
	if len(m.data) == 0 {
		return nil
	}
	return unsafe.Slice((*uint16)(unsafe.Pointer(&m.data[0])), m.Len())
}

// Row returns row i of a Float32 matrix.
func (m *Matrix) Row(i int) []float32 {
	return m.Float32()[i*m.Cols : (i+1)*m.Cols]
}

// Widen returns the elements as float32, decoding compact formats.
func (m *Matrix) Widen() []float32 {
	if m.Precision == Float32 {
		return append([]float32(nil), m.Float32()...)
	}
	out := make([]float32, m.Len())
	half.WidenSlice(m.Precision.format(), out, m.Compact())
	return out
}

// Transpose returns a Float32 copy of m with rows and columns swapped.
func (m *Matrix) Transpose() *Matrix {
	t, _ := NewMatrix(m.Cols, m.Rows, Float32)
	src := m.Widen()
	dst := t.Float32()
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			dst[j*m.Rows+i] = src[i*m.Cols+j]
		}
	}
	return t
}
