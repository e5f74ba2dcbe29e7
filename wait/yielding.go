package wait

import (
	"runtime"

	"github.com/ringline/disruptor/cpu"
)

// yieldSpinTries is how many spin iterations a YieldingWaitStrategy burns
// before conceding the OS thread with runtime.Gosched.
const yieldSpinTries = 100

// YieldingWaitStrategy spins for a short, fixed budget and then yields the
// thread, repeating until progress appears. It trades a little latency for
// letting other goroutines run, and is a reasonable default when consumers
// aren't pinned to dedicated cores.
type YieldingWaitStrategy struct{}

// NewYielding constructs a YieldingWaitStrategy.
func NewYielding() *YieldingWaitStrategy {
	return &YieldingWaitStrategy{}
}

func (w *YieldingWaitStrategy) WaitFor(expected int64, _, dependents Dependents, barrier Barrier) (int64, error) {
	spins := yieldSpinTries
	for {
		if barrier.IsAlerted() {
			return 0, ErrAlerted
		}
		if v := dependents.Value(); v >= expected {
			return v, nil
		}
		if spins > 0 {
			spins--
			cpu.Relax()
			continue
		}
		runtime.Gosched()
	}
}

func (w *YieldingWaitStrategy) SignalAllWhenBlocking() {}

// Park mirrors WaitFor's spin-then-yield shape for producers waiting on a
// wrap-gate.
func (w *YieldingWaitStrategy) Park(attempt int) {
	if attempt < yieldSpinTries {
		cpu.Relax()
		return
	}
	runtime.Gosched()
}
