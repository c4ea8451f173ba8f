package ffu

import (
	"fmt"
)

// DataType represents the element type of an operand
type DataType int

const (
	F32 DataType = iota
	BF16
	F16
)

func (t DataType) String() string {
	switch t {
	case F32:
		return "F32"
	case BF16:
		return "BF16"
	case F16:
		return "F16"
	default:
		return "Unknown"
	}
}

// Size returns the element size in bytes.
func (t DataType) Size() int {
	if t == F32 {
		return 4
	}
	return 2
}

// Compact reports whether t is one of the 16-bit formats.
func (t DataType) Compact() bool {
	return t == BF16 || t == F16
}

// Desc describes a dense row-major 2-D operand.
type Desc struct {
	Rows int
	Cols int
	Type DataType
}

// Bytes returns the storage size of the operand.
func (d Desc) Bytes() int {
	return d.Rows * d.Cols * d.Type.Size()
}

func (d Desc) String() string {
	return fmt.Sprintf("%dx%d %s", d.Rows, d.Cols, d.Type)
}

// Memory is an engine owned buffer. Its data handle may be nil when the
// engine has not backed it yet or has released it.
type Memory struct {
	desc   Desc
	handle []byte
}

// NewMemory wraps handle as engine memory for desc. Engines use it from Alloc.
func NewMemory(desc Desc, handle []byte) *Memory {
	return &Memory{desc: desc, handle: handle}
}

// Desc returns the operand descriptor.
func (m *Memory) Desc() Desc {
	return m.desc
}

// DataHandle returns the raw bytes backing the memory, or nil.
func (m *Memory) DataHandle() []byte {
	if m == nil {
		return nil
	}
	return m.handle
}

// Release drops the data handle.
func (m *Memory) Release() {
	m.handle = nil
}

// WriteMemory copies the operand bytes from handle into mem.
func WriteMemory(handle []byte, mem *Memory) error {
	if handle == nil {
		return fmt.Errorf("write: source %w", ErrNullHandle)
	}
	dst := mem.DataHandle()
	if dst == nil {
		return fmt.Errorf("write: engine %w", ErrNullHandle)
	}
	size := mem.Desc().Bytes()
	if len(handle) < size || len(dst) < size {
		return fmt.Errorf("write: %d byte handle for %s: %w", len(handle), mem.Desc(), ErrShapeMismatch)
	}
	copy(dst[:size], handle[:size])
	return nil
}

// ReadMemory copies the operand bytes of mem into handle.
func ReadMemory(handle []byte, mem *Memory) error {
	if handle == nil {
		return fmt.Errorf("read: destination %w", ErrNullHandle)
	}
	src := mem.DataHandle()
	if src == nil {
		return fmt.Errorf("read: engine %w", ErrNullHandle)
	}
	size := mem.Desc().Bytes()
	if len(handle) < size || len(src) < size {
		return fmt.Errorf("read: %d byte handle for %s: %w", len(handle), mem.Desc(), ErrShapeMismatch)
	}
	copy(handle[:size], src[:size])
	return nil
}
