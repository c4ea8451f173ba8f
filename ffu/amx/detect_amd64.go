//go:build amd64
// +build amd64

package amx

import (
	"golang.org/x/sys/cpu"
)

// AMX feature flags
var (
	hasAMXBF16 bool
)

func init() {
	detectAMX()
}

// detectAMX reads CPUID leaf 7, EDX bit 22 (AMX-BF16).
func detectAMX() {
	hasAMXBF16 = cpu.X86.HasAMXBF16
}

// HasAMXBF16 returns true if AMX BF16 operations are available
func HasAMXBF16() bool {
	return hasAMXBF16
}

// SetAMXSupport allows manual override for testing
func SetAMXSupport(bf16 bool) {
	hasAMXBF16 = bf16
}
