//go:build linux && !tinygo

package cpu

import (
	"syscall"
	"unsafe"
)

// cpuMasks holds one pre-computed sched_setaffinity mask per core index,
// covering the first 64 cores. Building them ahead of time keeps Pin
// allocation-free on the path a processor takes once at Start.
var cpuMasks [64][1]uintptr

func init() {
	for i := range cpuMasks {
		cpuMasks[i][0] = 1 << uint(i)
	}
}

// Pin binds the calling OS thread to the given core via sched_setaffinity(2).
// Callers must have already called runtime.LockOSThread; Pin only affects
// whichever OS thread is currently running the calling goroutine. Invalid
// core indices are silently ignored — pinning is a latency optimization,
// never a correctness requirement.
func Pin(core int) {
	if core < 0 || core >= len(cpuMasks) {
		return
	}
	mask := &cpuMasks[core]
	_, _, _ = syscall.RawSyscall(
		syscall.SYS_SCHED_SETAFFINITY,
		0,
		uintptr(unsafe.Sizeof(mask[0])),
		uintptr(unsafe.Pointer(mask)),
	)
}
