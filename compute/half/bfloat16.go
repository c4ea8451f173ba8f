// Copyright ©2024 The GUDA Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package half provides the 16-bit compact float formats used by the
// accelerated benchmark path.
package half

import (
	"math"
)

// BFloat16 represents a 16-bit brain floating point number
// Format: 1 sign bit, 8 exponent bits, 7 mantissa bits
type BFloat16 uint16

// ToBFloat16 converts float32 to BFloat16 rounding to nearest, ties to even.
// NaN payloads are quieted so a NaN never rounds into Inf.
func ToBFloat16(f float32) BFloat16 {
	bits := math.Float32bits(f)
	if bits&0x7FFFFFFF > 0x7F800000 {
		return BFloat16(bits>>16 | 0x0040)
	}

	lsb := (bits >> 16) & 1
	bits += 0x7FFF + lsb
	return BFloat16(bits >> 16)
}

// ToFloat32 converts BFloat16 to float32
func (b BFloat16) ToFloat32() float32 {
	// Just shift back to float32 position
	return math.Float32frombits(uint32(b) << 16)
}

// Bits returns the raw 16-bit encoding.
func (b BFloat16) Bits() uint16 {
	return uint16(b)
}
