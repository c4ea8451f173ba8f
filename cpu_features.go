package amxbench

import (
	"runtime"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/sys/cpu"

	"github.com/LynnColeArt/amxbench/ffu/amx"
)

// CPUFeatures tracks the instruction set extensions relevant to the kernels
type CPUFeatures struct {
	HasAVX2       bool
	HasFMA        bool
	HasAVX512F    bool // Foundation, 16 float32 lanes
	HasAVX512BF16 bool
	HasAMXTile    bool
	HasAMXBF16    bool // Gates the accelerated path
}

// DetectCPUFeatures reads the feature bits of the running CPU. HasAMXBF16
// follows the accelerator gate, so test overrides apply.
func DetectCPUFeatures() CPUFeatures {
	return CPUFeatures{
		HasAVX2:       cpu.X86.HasAVX2,
		HasFMA:        cpu.X86.HasFMA,
		HasAVX512F:    cpu.X86.HasAVX512F,
		HasAVX512BF16: cpu.X86.HasAVX512BF16,
		HasAMXTile:    cpu.X86.HasAMXTile,
		HasAMXBF16:    amx.HasAMXBF16(),
	}
}

// Names lists the detected features in a fixed order.
func (f CPUFeatures) Names() []string {
	type feature struct {
		name string
		ok   bool
	}
	all := []feature{
		{"AVX2", f.HasAVX2},
		{"FMA", f.HasFMA},
		{"AVX512F", f.HasAVX512F},
		{"AVX512BF16", f.HasAVX512BF16},
		{"AMX-TILE", f.HasAMXTile},
		{"AMX-BF16", f.HasAMXBF16},
	}
	return lo.FilterMap(all, func(ft feature, _ int) (string, bool) {
		return ft.name, ft.ok
	})
}

// GetCPUInfo returns a string describing available CPU features
func GetCPUInfo() string {
	names := DetectCPUFeatures().Names()
	if len(names) == 0 {
		return runtime.GOARCH + ": no SIMD extensions detected"
	}
	return runtime.GOARCH + " CPU features: " + strings.Join(names, ", ")
}
