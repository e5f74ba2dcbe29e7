//go:build !linux || tinygo

package cpu

// Pin is a no-op on platforms without sched_setaffinity (macOS, Windows,
// BSD, tinygo). Core pinning is an optional latency optimization for
// busy-spin consumers on dedicated hardware; its absence never changes
// correctness, only how much jitter the OS scheduler can introduce.
func Pin(core int) {
}
