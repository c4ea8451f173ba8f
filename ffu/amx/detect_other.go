//go:build !amd64
// +build !amd64

package amx

// AMX is Intel x86-64 only; the gate stays closed unless a test opens it.
var hasAMXBF16 bool

func HasAMXBF16() bool { return hasAMXBF16 }

func SetAMXSupport(bf16 bool) { hasAMXBF16 = bf16 }
