package amxbench

import (
	"fmt"

	"github.com/LynnColeArt/amxbench/compute/half"
	"github.com/LynnColeArt/amxbench/ffu"
)

// Precision is the element type of a generated matrix.
type Precision int

const (
	Float32 Precision = iota
	BFloat16
	Float16

	// Int32 and Int64 are only used by the peak and memory suites; they have
	// no engine type.
	Int32
	Int64
)

func (p Precision) String() string {
	switch p {
	case Float32:
		return "f32"
	case BFloat16:
		return "bf16"
	case Float16:
		return "f16"
	case Int32:
		return "i32"
	case Int64:
		return "i64"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Precision) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Precision) UnmarshalText(text []byte) error {
	for _, q := range []Precision{Float32, Int32, Int64} {
		if string(text) == q.String() {
			*p = q
			return nil
		}
	}
	c, err := ParseCompact(string(text))
	if err != nil {
		return err
	}
	*p = c
	return nil
}

// ElementSize returns the storage size of one element in bytes.
func (p Precision) ElementSize() int {
	switch p {
	case Float32, Int32:
		return 4
	case Int64:
		return 8
	default:
		return 2
	}
}

// Compact reports whether p is a 16-bit format.
func (p Precision) Compact() bool {
	return p == BFloat16 || p == Float16
}

// format maps a compact precision onto its encoder.
func (p Precision) format() half.Format {
	if p == Float16 {
		return half.FormatFloat16
	}
	return half.FormatBFloat16
}

// DataType maps p onto the engine element type.
func (p Precision) DataType() ffu.DataType {
	switch p {
	case BFloat16:
		return ffu.BF16
	case Float16:
		return ffu.F16
	default:
		return ffu.F32
	}
}

// ParseCompact parses the --compact flag value.
func ParseCompact(s string) (Precision, error) {
	f, err := half.ParseFormat(s)
	if err != nil {
		return 0, NewInvalidArgError("ParseCompact", err.Error())
	}
	if f == half.FormatFloat16 {
		return Float16, nil
	}
	return BFloat16, nil
}

// mustCompact panics unless p is a compact precision.
func (p Precision) mustCompact(op string) {
	if !p.Compact() {
		panic(fmt.Sprintf("%s: %s is not a compact precision", op, p))
	}
}
