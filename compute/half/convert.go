package half

import "fmt"

// Format selects one of the compact encodings.
type Format int

const (
	FormatBFloat16 Format = iota
	FormatFloat16
)

func (f Format) String() string {
	switch f {
	case FormatBFloat16:
		return "bf16"
	case FormatFloat16:
		return "f16"
	default:
		return "unknown"
	}
}

// ParseFormat accepts "bf16" or "f16".
func ParseFormat(s string) (Format, error) {
	switch s {
	case "bf16", "bfloat16":
		return FormatBFloat16, nil
	case "f16", "fp16", "float16":
		return FormatFloat16, nil
	}
	return 0, fmt.Errorf("unknown compact format %q", s)
}

// Narrow encodes one float32 in the given format.
func Narrow(f Format, v float32) uint16 {
	if f == FormatFloat16 {
		return ToFloat16(v).Bits()
	}
	return ToBFloat16(v).Bits()
}

// Widen decodes one 16-bit word of the given format.
func Widen(f Format, w uint16) float32 {
	if f == FormatFloat16 {
		return Float16FromBits(w).Float32()
	}
	return BFloat16(w).ToFloat32()
}

// NarrowSlice encodes src into dst. dst must be at least len(src) long.
func NarrowSlice(f Format, dst []uint16, src []float32) {
	_ = dst[:len(src)]
	if f == FormatFloat16 {
		for i, v := range src {
			dst[i] = ToFloat16(v).Bits()
		}
		return
	}
	for i, v := range src {
		dst[i] = uint16(ToBFloat16(v))
	}
}

// WidenSlice decodes src into dst. dst must be at least len(src) long.
func WidenSlice(f Format, dst []float32, src []uint16) {
	_ = dst[:len(src)]
	if f == FormatFloat16 {
		for i, w := range src {
			dst[i] = Float16FromBits(w).Float32()
		}
		return
	}
	for i, w := range src {
		dst[i] = BFloat16(w).ToFloat32()
	}
}
