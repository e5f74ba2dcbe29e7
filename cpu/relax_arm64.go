//go:build arm64 && !noasm && !nocgo

package cpu

/*
#ifdef __aarch64__
static inline void cpu_yield() {
    __asm__ __volatile__("yield" ::: "memory");
}
#else
#error "this file requires arm64"
#endif
*/
import "C"

// Relax emits the ARM64 YIELD instruction. Particularly effective on
// Apple Silicon and other modern ARM cores sharing a physical core via SMT.
//
//go:nosplit
//go:inline
func Relax() {
	C.cpu_yield()
}
