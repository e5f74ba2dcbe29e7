//go:build amd64 && !noasm && !nocgo

package cpu

/*
#ifdef __x86_64__
static inline void cpu_pause() {
    __asm__ __volatile__("pause" ::: "memory");
}
#else
#error "this file requires x86-64"
#endif
*/
import "C"

// Relax emits the x86-64 PAUSE instruction, hinting to the core that the
// calling logical thread is spin-waiting. On SMT cores this lets a sibling
// thread make progress instead of contending for the pipeline.
//
//go:nosplit
//go:inline
func Relax() {
	C.cpu_pause()
}
