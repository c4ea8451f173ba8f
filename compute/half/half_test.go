package half

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBFloat16RoundToNearestEven(t *testing.T) {
	tests := []struct {
		name string
		in   uint32
		want uint16
	}{
		{"exact", 0x3F800000, 0x3F80},              // 1.0
		{"below half rounds down", 0x3F807FFF, 0x3F80},
		{"above half rounds up", 0x3F808001, 0x3F81},
		{"tie to even stays", 0x3F808000, 0x3F80},   // lsb 0
		{"tie to even bumps", 0x3F818000, 0x3F82},   // lsb 1
		{"max float overflows", 0x7F7FFFFF, 0x7F80}, // +Inf
		{"negative", 0xBF800000, 0xBF80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToBFloat16(math.Float32frombits(tt.in))
			assert.Equal(t, tt.want, got.Bits())
		})
	}
}

func TestBFloat16NaNStaysNaN(t *testing.T) {
	nan := math.Float32frombits(0x7F80FFFF)
	got := ToBFloat16(nan).ToFloat32()
	assert.True(t, math.IsNaN(float64(got)))
}

func TestNarrowWidenRoundTrip(t *testing.T) {
	src := []float32{0, 0.25, 0.5, 0.75, 1, -2}
	for _, f := range []Format{FormatBFloat16, FormatFloat16} {
		t.Run(f.String(), func(t *testing.T) {
			words := make([]uint16, len(src))
			NarrowSlice(f, words, src)

			back := make([]float32, len(src))
			WidenSlice(f, back, words)
			// all inputs are exactly representable in both formats
			assert.Equal(t, src, back)

			for i, v := range src {
				assert.Equal(t, words[i], Narrow(f, v))
				assert.Equal(t, v, Widen(f, words[i]))
			}
		})
	}
}

func TestNarrowPrecisionLoss(t *testing.T) {
	v := float32(0.1)
	bf := Widen(FormatBFloat16, Narrow(FormatBFloat16, v))
	fp := Widen(FormatFloat16, Narrow(FormatFloat16, v))

	assert.InDelta(t, v, bf, 1e-3)
	assert.InDelta(t, v, fp, 1e-4)
	// binary16 keeps more mantissa bits than bfloat16
	assert.Less(t, math.Abs(float64(fp-v)), math.Abs(float64(bf-v)))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("bf16")
	require.NoError(t, err)
	assert.Equal(t, FormatBFloat16, f)

	f, err = ParseFormat("fp16")
	require.NoError(t, err)
	assert.Equal(t, FormatFloat16, f)

	_, err = ParseFormat("int8")
	assert.Error(t, err)
}

func TestEmptySlices(t *testing.T) {
	assert.NotPanics(t, func() {
		NarrowSlice(FormatBFloat16, nil, nil)
		WidenSlice(FormatFloat16, nil, nil)
	})
}
