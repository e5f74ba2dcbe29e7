package processor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ringline/disruptor/ringbuffer"
	"github.com/ringline/disruptor/wait"
)

func newTestProcessor(t *testing.T) (*ringbuffer.RingBuffer[int64], *BatchEventProcessor[int64]) {
	t.Helper()
	ring := newInt64Ring(t, 8, wait.NewBusySpin())
	handler := &recordingHandler{}
	b := ring.NewBarrier()
	p, err := NewBatchEventProcessor(ring, b, handler)
	require.NoError(t, err)
	return ring, p
}

func TestHaltAllSignalsEveryProcessor(t *testing.T) {
	_, p1 := newTestProcessor(t)
	_, p2 := newTestProcessor(t)

	t1, err := p1.Start()
	require.NoError(t, err)
	t2, err := p2.Start()
	require.NoError(t, err)

	HaltAll(p1, p2)

	require.NoError(t, TaskSet(2*time.Second, t1, t2))
}

func TestTaskSetReportsStragglerTimeout(t *testing.T) {
	slow := &blockingTask{done: make(chan struct{})}
	defer close(slow.done)

	fast := &blockingTask{done: make(chan struct{})}
	close(fast.done)

	err := TaskSet(20*time.Millisecond, fast, slow)
	require.Error(t, err)
	require.Contains(t, err.Error(), "task 1 did not halt")
}

type blockingTask struct {
	done chan struct{}
}

func (b *blockingTask) Wait(timeout time.Duration) bool {
	select {
	case <-b.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (b *blockingTask) Done() <-chan struct{} { return b.done }
