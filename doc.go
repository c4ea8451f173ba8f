// Copyright ©2024 The GUDA Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package amxbench measures matrix-multiply and inner-product throughput on
// three execution paths: a scalar reference kernel, a 16-lane vector kernel,
// and an accelerated path that hands the work to an external matrix engine
// gated on Intel AMX-BF16.
//
// A benchmark run generates a reproducible workload, warms the kernel once
// (transfers and layout changes happen here), times a fixed number of
// invocations and converts the reported duration into GFLOPS:
//
//	total_flop = N1 * N2 * (2*M - 1)
//	gflops     = total_flop / (duration_ns / 1e9) / 1e9
//
// Results accumulate in an insertion-ordered table that is printed and reset
// once per phase.
package amxbench
