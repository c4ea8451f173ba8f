package f32

// Tail returns the number of trailing elements that do not fill a whole
// register.
func Tail(dim int) int {
	return dim % LaneWidth
}

// DotWide computes the inner product of the first dim elements of x and y
// sixteen lanes at a time.
//
// Only dim/LaneWidth*LaneWidth elements are summed. The trailing Tail(dim)
// elements are skipped; use DotWideExact when the full product is needed.
func DotWide(x, y []float32, dim int) float32 {
	qty16 := dim / LaneWidth
	if qty16 == 0 {
		return 0
	}
	x = x[:qty16*LaneWidth]
	y = y[:qty16*LaneWidth]

	sum := Zero16()
	qty64 := qty16 / unroll
	i := 0
	for n := 0; n < qty64; n++ {
		sum = MulAdd(Load16(x[i:]), Load16(y[i:]), sum)
		sum = MulAdd(Load16(x[i+16:]), Load16(y[i+16:]), sum)
		sum = MulAdd(Load16(x[i+32:]), Load16(y[i+32:]), sum)
		sum = MulAdd(Load16(x[i+48:]), Load16(y[i+48:]), sum)
		i += unroll * LaneWidth
	}
	for ; i < len(x); i += LaneWidth {
		sum = MulAdd(Load16(x[i:]), Load16(y[i:]), sum)
	}

	return ReduceSum(sum)
}

// DotWideExact is DotWide followed by a scalar pass over the tail, so every
// one of the dim products is included.
func DotWideExact(x, y []float32, dim int) float32 {
	sum := DotWide(x, y, dim)
	for i := dim - Tail(dim); i < dim; i++ {
		sum += x[i] * y[i]
	}
	return sum
}

// DotFunc is the signature shared by the inner-product kernels.
type DotFunc func(x, y []float32, dim int) float32
