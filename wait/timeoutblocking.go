package wait

import (
	"runtime"
	"sync"
	"time"
)

// TimeoutBlockingWaitStrategy behaves like BlockingWaitStrategy but returns
// TimeoutSignal instead of blocking forever once timeout elapses with no
// progress. Consumers translate that into an OnTimeout handler callback
// rather than treating it as an error.
type TimeoutBlockingWaitStrategy struct {
	mu      sync.Mutex
	cond    *sync.Cond
	timeout time.Duration
}

// NewTimeoutBlocking constructs a TimeoutBlockingWaitStrategy with the given
// wait ceiling.
func NewTimeoutBlocking(timeout time.Duration) *TimeoutBlockingWaitStrategy {
	w := &TimeoutBlockingWaitStrategy{timeout: timeout}
	w.cond = sync.NewCond(&w.mu)
	return w
}

func (w *TimeoutBlockingWaitStrategy) WaitFor(expected int64, cursor, dependents Dependents, barrier Barrier) (int64, error) {
	if v := dependents.Value(); v >= expected {
		return v, nil
	}

	deadline := time.Now().Add(w.timeout)

	w.mu.Lock()
	for cursor.Value() < expected {
		if barrier.IsAlerted() {
			w.mu.Unlock()
			return 0, ErrAlerted
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			w.mu.Unlock()
			return TimeoutSignal, nil
		}
		waitWithTimeout(w.cond, remaining)
	}
	w.mu.Unlock()

	for {
		if barrier.IsAlerted() {
			return 0, ErrAlerted
		}
		if v := dependents.Value(); v >= expected {
			return v, nil
		}
		if time.Now().After(deadline) {
			return TimeoutSignal, nil
		}
		runtime.Gosched()
	}
}

// waitWithTimeout wakes cond.Wait() early via a timer-driven Broadcast if no
// natural signal arrives first; sync.Cond has no native timed wait.
func waitWithTimeout(cond *sync.Cond, d time.Duration) {
	timer := time.AfterFunc(d, cond.Broadcast)
	cond.Wait()
	timer.Stop()
}

func (w *TimeoutBlockingWaitStrategy) SignalAllWhenBlocking() {
	w.mu.Lock()
	w.cond.Broadcast()
	w.mu.Unlock()
}

func (w *TimeoutBlockingWaitStrategy) Park(int) { runtime.Gosched() }
