// Copyright ©2024 The GUDA Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package f32 provides the wide float32 inner-product kernels.
package f32

import "math"

// LaneWidth is the number of float32 lanes in one 512-bit register.
const LaneWidth = 16

// unroll is the number of register widths consumed per primary iteration.
const unroll = 4

// Vec16 models one zmm register of float32 lanes.
type Vec16 [LaneWidth]float32

// Zero16 returns a register with all lanes cleared.
func Zero16() Vec16 {
	return Vec16{}
}

// Load16 loads LaneWidth elements starting at src[0].
// src must hold at least LaneWidth elements.
func Load16(src []float32) Vec16 {
	var v Vec16
	copy(v[:], src[:LaneWidth])
	return v
}

// MulAdd returns a*b + acc per lane with a single rounding step.
// The product of two float32 values is exact in float64, so rounding the
// float64 FMA result back to float32 gives the fused result.
func MulAdd(a, b, acc Vec16) Vec16 {
	for i := range acc {
		acc[i] = float32(math.FMA(float64(a[i]), float64(b[i]), float64(acc[i])))
	}
	return acc
}

// ReduceSum adds all lanes together using the same pairwise tree as
// _mm512_reduce_add_ps: 16 -> 8 -> 4 -> 2 -> 1.
func ReduceSum(v Vec16) float32 {
	for width := LaneWidth / 2; width > 0; width /= 2 {
		for i := 0; i < width; i++ {
			v[i] += v[i+width]
		}
	}
	return v[0]
}
