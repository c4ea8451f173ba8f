// Package amxbench reference implementations for verification
package amxbench

import "github.com/LynnColeArt/amxbench/compute/f32"

// InnerProduct computes Σ x[i]*y[i] for i in [0,dim) in element order with a
// single accumulator. It is the correctness oracle for the other kernels.
// The explicit conversion keeps the compiler from fusing the multiply-add.
func InnerProduct(x, y []float32, dim int) float32 {
	var sum float32
	for i := 0; i < dim; i++ {
		sum += float32(x[i] * y[i])
	}
	return sum
}

// innerProductRows computes, for each row i of a, the inner products against
// every row of b into out (len rows(b)) and then calls emit, if set. out is
// reused between rows.
func innerProductRows(out []float32, a, b *Matrix, dot f32.DotFunc, emit func(i int, row []float32)) {
	dim := a.Cols
	av, bv := a.Float32(), b.Float32()
	for i := 0; i < a.Rows; i++ {
		x := av[i*dim : (i+1)*dim]
		for j := range out {
			out[j] = dot(x, bv[j*dim:(j+1)*dim], dim)
		}
		if emit != nil {
			emit(i, out)
		}
	}
}
