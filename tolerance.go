// Package amxbench tolerance-based verification for floating-point comparisons
package amxbench

import (
	"fmt"
	"math"
)

// ToleranceConfig defines how far two float32 results may drift apart
type ToleranceConfig struct {
	// AbsTol is the absolute tolerance for values near zero
	AbsTol float32

	// RelTol is the relative tolerance as a fraction of the larger value
	RelTol float32

	// ULPTol is the maximum allowed difference in units in the last place
	ULPTol int

	// CheckNaN treats two NaNs as equal
	CheckNaN bool
}

// DefaultTolerance is for results computed in the same order.
func DefaultTolerance() ToleranceConfig {
	return ToleranceConfig{
		AbsTol:   1e-7,
		RelTol:   1e-5,
		ULPTol:   4,
		CheckNaN: true,
	}
}

// RelaxedTolerance is for sums accumulated in a different order, such as
// the 16-lane kernel against the scalar oracle.
func RelaxedTolerance() ToleranceConfig {
	return ToleranceConfig{
		AbsTol:   1e-5,
		RelTol:   VerifyRelTol,
		ULPTol:   16,
		CheckNaN: true,
	}
}

// Float32NearEqual checks if two float32 values are equal within tolerance
func Float32NearEqual(a, b float32, tol ToleranceConfig) bool {
	if math.IsNaN(float64(a)) || math.IsNaN(float64(b)) {
		return tol.CheckNaN && math.IsNaN(float64(a)) && math.IsNaN(float64(b))
	}

	// Exact match, including equal infinities and ±0
	if a == b {
		return true
	}
	if math.IsInf(float64(a), 0) || math.IsInf(float64(b), 0) {
		return false
	}

	diff := math.Abs(float64(a) - float64(b))
	if diff <= float64(tol.AbsTol) {
		return true
	}

	larger := math.Max(math.Abs(float64(a)), math.Abs(float64(b)))
	if diff <= larger*float64(tol.RelTol) {
		return true
	}

	return tol.ULPTol > 0 && Float32ULPDiff(a, b) <= tol.ULPTol
}

// Float32ULPDiff counts the representable float32 values between a and b.
// Values of opposite sign return math.MaxInt32.
func Float32ULPDiff(a, b float32) int {
	aBits := math.Float32bits(a)
	bBits := math.Float32bits(b)
	if (aBits^bBits)&0x80000000 != 0 {
		return math.MaxInt32
	}
	if aBits > bBits {
		return int(aBits - bBits)
	}
	return int(bBits - aBits)
}

// VerificationResult summarizes an element-wise comparison
type VerificationResult struct {
	MaxAbsError float32
	MaxRelError float32
	NumErrors   int
	TotalItems  int
	FirstError  int // Index of first error, -1 if none
}

// VerifyFloat32Array compares expected and actual element by element.
func VerifyFloat32Array(expected, actual []float32, tol ToleranceConfig) VerificationResult {
	result := VerificationResult{
		TotalItems: len(expected),
		FirstError: -1,
	}
	if len(expected) != len(actual) {
		result.NumErrors = len(expected)
		result.FirstError = min(len(expected), len(actual))
		return result
	}

	for i := range expected {
		if Float32NearEqual(expected[i], actual[i], tol) {
			continue
		}
		result.NumErrors++
		if result.FirstError == -1 {
			result.FirstError = i
		}

		absDiff := float32(math.Abs(float64(expected[i]) - float64(actual[i])))
		result.MaxAbsError = max(result.MaxAbsError, absDiff)
		if expected[i] != 0 {
			result.MaxRelError = max(result.MaxRelError, absDiff/float32(math.Abs(float64(expected[i]))))
		}
	}
	return result
}

// OK reports whether every element matched.
func (r VerificationResult) OK() bool {
	return r.NumErrors == 0
}

func (r VerificationResult) String() string {
	if r.NumErrors == 0 {
		return fmt.Sprintf("PASS: %d values within tolerance", r.TotalItems)
	}
	return fmt.Sprintf("FAIL: %d/%d values differ, max abs %e, max rel %e, first at %d",
		r.NumErrors, r.TotalItems, r.MaxAbsError, r.MaxRelError, r.FirstError)
}
