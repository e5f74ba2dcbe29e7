package wait

import "github.com/ringline/disruptor/cpu"

// BusySpinWaitStrategy loops tightly on dependents.Value(), never yielding
// or sleeping. It delivers the lowest possible latency at the cost of
// pegging a core at 100%; use it only on threads pinned to dedicated cores
// (see processor.BatchEventProcessor.PinToCore).
type BusySpinWaitStrategy struct{}

// NewBusySpin constructs a BusySpinWaitStrategy.
func NewBusySpin() *BusySpinWaitStrategy {
	return &BusySpinWaitStrategy{}
}

func (w *BusySpinWaitStrategy) WaitFor(expected int64, _, dependents Dependents, barrier Barrier) (int64, error) {
	for {
		if barrier.IsAlerted() {
			return 0, ErrAlerted
		}
		if v := dependents.Value(); v >= expected {
			return v, nil
		}
		cpu.Relax()
	}
}

// SignalAllWhenBlocking is a no-op: nothing ever sleeps in this strategy.
func (w *BusySpinWaitStrategy) SignalAllWhenBlocking() {}

// Park spins with a CPU relax hint, identical to the consumer-side loop.
func (w *BusySpinWaitStrategy) Park(int) { cpu.Relax() }
