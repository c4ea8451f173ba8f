package amxbench

import "time"

// TotalFlop returns the floating-point operation count of an N1×N2 output
// with contraction length M: M multiplies and M-1 adds per element.
func TotalFlop(n1, n2, m int) int64 {
	if n1 <= 0 || n2 <= 0 || m <= 0 {
		return 0
	}
	return int64(n1) * int64(n2) * (2*int64(m) - 1)
}

// ChainOps returns the add count of iterations passes over an operands-long
// dependent add chain.
func ChainOps(iterations, operands int) int64 {
	if iterations <= 0 || operands <= 1 {
		return 0
	}
	return int64(iterations) * int64(operands-1)
}

// OpCount returns the operations counted for op at shape. Memory loops
// count none.
func OpCount(op Op, s Shape) int64 {
	switch op {
	case OpInnerProduct, OpMatMul, OpSearch:
		return TotalFlop(s.N1, s.N2, s.M)
	case OpPeakFloat, OpPeakInt:
		return ChainOps(s.N1, s.M)
	default:
		return 0
	}
}

// GFLOPS converts an operation count and a duration into 10^9 FLOP per
// second. Non-positive durations yield 0.
func GFLOPS(flop int64, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(flop) / (float64(d.Nanoseconds()) / 1e9) / 1e9
}

// DataSizeBytes returns the input footprint of both operands.
func DataSizeBytes(n1, n2, m, elemSize int) int64 {
	return (int64(n1)*int64(m) + int64(n2)*int64(m)) * int64(elemSize)
}

// Footprint returns the bytes op touches at shape: both operands for the
// matrix operations, the N1×N2 buffer for memory loops, nothing for the
// register-only add chains.
func Footprint(op Op, s Shape, elemSize int) int64 {
	switch op {
	case OpInnerProduct, OpMatMul, OpSearch:
		return DataSizeBytes(s.N1, s.N2, s.M, elemSize)
	case OpPeakFloat, OpPeakInt:
		return 0
	default:
		return int64(max(s.N1, 0)) * int64(max(s.N2, 0)) * int64(elemSize)
	}
}

// MiB expresses bytes in 2^20 byte units.
func MiB(bytes int64) float64 {
	return float64(bytes) / (1 << 20)
}
