package processor

import "time"

// task is the Task handle Start returns; it exists purely so a caller can
// join the run loop's goroutine without the processor exposing its
// internal done channel type.
type task struct {
	done chan struct{}
}

func (t *task) Wait(timeout time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (t *task) Done() <-chan struct{} { return t.done }

var _ Task = (*task)(nil)
