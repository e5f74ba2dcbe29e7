package wait

import (
	"runtime"
	"sync"
)

// BlockingWaitStrategy parks the consumer goroutine on a condition variable
// until the producer's cursor advances, then re-checks dependents (which
// may lag the raw cursor while upstream consumers are still behind it).
// It is the right choice for
// bursty workloads where CPU is scarce and a little wake-up latency is
// acceptable.
type BlockingWaitStrategy struct {
	mu   sync.Mutex
	cond *sync.Cond
}

// NewBlocking constructs a BlockingWaitStrategy.
func NewBlocking() *BlockingWaitStrategy {
	w := &BlockingWaitStrategy{}
	w.cond = sync.NewCond(&w.mu)
	return w
}

func (w *BlockingWaitStrategy) WaitFor(expected int64, cursor, dependents Dependents, barrier Barrier) (int64, error) {
	if v := dependents.Value(); v >= expected {
		return v, nil
	}

	w.mu.Lock()
	for cursor.Value() < expected {
		if barrier.IsAlerted() {
			w.mu.Unlock()
			return 0, ErrAlerted
		}
		w.cond.Wait()
	}
	w.mu.Unlock()

	for {
		if barrier.IsAlerted() {
			return 0, ErrAlerted
		}
		if v := dependents.Value(); v >= expected {
			return v, nil
		}
		runtime.Gosched()
	}
}

// SignalAllWhenBlocking wakes every goroutine parked in WaitFor. Called by
// a Sequencer after Publish.
func (w *BlockingWaitStrategy) SignalAllWhenBlocking() {
	w.mu.Lock()
	w.cond.Broadcast()
	w.mu.Unlock()
}

// Park yields the thread; a mutex/condvar strategy has no spin phase of its
// own to lend a producer.
func (w *BlockingWaitStrategy) Park(int) { runtime.Gosched() }
