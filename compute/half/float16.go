package half

import (
	"github.com/x448/float16"
)

// Float16 is an IEEE 754 binary16 value.
type Float16 = float16.Float16

// ToFloat16 converts float32 to Float16 rounding to nearest, ties to even.
func ToFloat16(f float32) Float16 {
	return float16.Fromfloat32(f)
}

// Float16FromBits reinterprets a raw 16-bit word as Float16.
func Float16FromBits(b uint16) Float16 {
	return float16.Frombits(b)
}
