//go:build (!amd64 && !arm64) || noasm || nocgo

package cpu

// Relax is a no-op on architectures without a dedicated spin-wait
// instruction, or when cgo/asm is disabled. The compiler eliminates the
// empty, inlined body entirely, so callers pay nothing beyond the loop
// they were already spinning.
//
//go:nosplit
//go:inline
func Relax() {
}
