package processor

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ringline/disruptor/ringbuffer"
	"github.com/ringline/disruptor/wait"
)

type recordingHandler struct {
	mu       sync.Mutex
	received []int64

	onStartCalls    int32
	onShutdownCalls int32
}

func (h *recordingHandler) OnBatch(batch Batch[int64], start int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := int64(0); i < batch.Len(); i++ {
		h.received = append(h.received, *batch.Get(i))
	}
	return nil
}

func (h *recordingHandler) OnStart() error {
	atomic.AddInt32(&h.onStartCalls, 1)
	return nil
}

func (h *recordingHandler) OnShutdown() error {
	atomic.AddInt32(&h.onShutdownCalls, 1)
	return nil
}

func (h *recordingHandler) snapshot() []int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]int64, len(h.received))
	copy(out, h.received)
	return out
}

// newInt64Ring builds a single-producer ring of the given size for tests
// that push plain int64 payloads through the pipeline.
func newInt64Ring(t *testing.T, size int64, ws wait.WaitStrategy) *ringbuffer.RingBuffer[int64] {
	t.Helper()
	r, err := ringbuffer.CreateSingleProducer(func() int64 { return 0 }, size, ws)
	require.NoError(t, err)
	return r
}

// TestSPSCDeliversEventsInOrder is scenario 1 from the testable-properties
// list: a single producer, single consumer, small ring, busy-spin wait.
func TestSPSCDeliversEventsInOrder(t *testing.T) {
	const total = 100
	ws := wait.NewBusySpin()
	ring := newInt64Ring(t, 16, ws)

	handler := &recordingHandler{}
	b := ring.NewBarrier()
	p, err := NewBatchEventProcessor(ring, b, handler)
	require.NoError(t, err)
	ring.AddGatingSequences(p.Sequence())

	task, err := p.Start()
	require.NoError(t, err)

	for i := int64(0); i < total; i++ {
		seq := ring.Next()
		*ring.Get(seq) = i
		ring.Publish(seq)
	}

	require.Eventually(t, func() bool {
		return len(handler.snapshot()) == total
	}, 2*time.Second, time.Millisecond)

	p.Halt()
	require.True(t, task.Wait(2*time.Second))

	got := handler.snapshot()
	for i := int64(0); i < total; i++ {
		require.Equal(t, i, got[i])
	}
}

// TestMultiProducerFanInDeliversEveryEventExactlyOnce is scenario 2: several
// producer goroutines claiming concurrently against one
// BatchEventProcessor must still deliver every published event, each
// exactly once, with the consumer sequence ending at the shared cursor.
func TestMultiProducerFanInDeliversEveryEventExactlyOnce(t *testing.T) {
	const producers = 4
	const perProducer = 1000
	const total = producers * perProducer

	ws := wait.NewBusySpin()
	ring, err := ringbuffer.CreateMultiProducer(func() int64 { return 0 }, 1024, ws)
	require.NoError(t, err)

	handler := &recordingHandler{}
	b := ring.NewBarrier()
	p, err := NewBatchEventProcessor(ring, b, handler)
	require.NoError(t, err)
	ring.AddGatingSequences(p.Sequence())

	task, err := p.Start()
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(producers)
	for pr := 0; pr < producers; pr++ {
		go func(base int64) {
			defer wg.Done()
			for i := int64(0); i < perProducer; i++ {
				seq := ring.Next()
				*ring.Get(seq) = base + i
				ring.Publish(seq)
			}
		}(int64(pr * perProducer))
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		return len(handler.snapshot()) == total
	}, 2*time.Second, time.Millisecond)

	p.Halt()
	require.True(t, task.Wait(2*time.Second))

	seen := make(map[int64]bool, total)
	for _, v := range handler.snapshot() {
		require.False(t, seen[v], "value %d delivered more than once", v)
		seen[v] = true
	}
	require.Len(t, seen, total)
	require.Equal(t, ring.Cursor().Value(), p.Sequence().Value())
}

// TestHaltUnderPressureCompletesWithinTimeout is scenario 4: Halt fired while
// the processor is busy must still return from Wait inside the caller's
// timeout, and OnShutdown must have run.
func TestHaltUnderPressureCompletesWithinTimeout(t *testing.T) {
	ws := wait.NewBusySpin()
	ring := newInt64Ring(t, 1024, ws)

	handler := &recordingHandler{}
	b := ring.NewBarrier()
	p, err := NewBatchEventProcessor(ring, b, handler)
	require.NoError(t, err)
	ring.AddGatingSequences(p.Sequence())

	task, err := p.Start()
	require.NoError(t, err)

	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
			}
			seq, err := ring.TryNext()
			if err != nil {
				continue
			}
			*ring.Get(seq) = seq
			ring.Publish(seq)
		}
	}()

	time.Sleep(100 * time.Millisecond)
	p.Halt()
	close(stop)

	require.True(t, task.Wait(2*time.Second))
	require.Equal(t, int32(1), atomic.LoadInt32(&handler.onShutdownCalls))
}

// TestTimeoutWaitStrategyFiresOnTimeoutWithoutProducers is scenario 5: with a
// timeout-capable wait strategy and no producers ever publishing, OnTimeout
// must fire within the caller's patience window and OnEvent must never fire.
func TestTimeoutWaitStrategyFiresOnTimeoutWithoutProducers(t *testing.T) {
	ws := wait.NewTimeoutBlocking(50 * time.Millisecond)
	ring := newInt64Ring(t, 8, ws)

	var timeoutCalls, eventCalls int32
	handler := FromEventHandler[int64](&timeoutOnlyHandler{calls: &timeoutCalls, events: &eventCalls})

	b := ring.NewBarrier()
	p, err := NewBatchEventProcessor(ring, b, handler)
	require.NoError(t, err)

	_, err = p.Start()
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&timeoutCalls) > 0
	}, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, int32(0), atomic.LoadInt32(&eventCalls), "OnEvent must never fire when no producer ever publishes")

	p.Halt()
}

type timeoutOnlyHandler struct {
	calls  *int32
	events *int32
}

func (h *timeoutOnlyHandler) OnEvent(event *int64, seq int64, endOfBatch bool) error {
	// the processor recovers handler panics, so the count is what the test
	// checks; the panic only makes a stray call loud in the logs.
	atomic.AddInt32(h.events, 1)
	panic("OnEvent must never fire when no producer ever publishes")
}

func (h *timeoutOnlyHandler) OnTimeout(seq int64) error {
	atomic.AddInt32(h.calls, 1)
	return nil
}

// poisonHandler fails whenever it sees the value 1, otherwise records it.
type poisonHandler struct {
	mu   sync.Mutex
	seen []int64
}

func (h *poisonHandler) OnEvent(event *int64, seq int64, endOfBatch bool) error {
	if *event == 1 {
		return errPoison
	}
	h.mu.Lock()
	h.seen = append(h.seen, *event)
	h.mu.Unlock()
	return nil
}

var errPoison = &poisonError{}

type poisonError struct{}

func (*poisonError) Error() string { return "poison event" }

type countingExceptionHandler struct {
	count int32
}

func (c *countingExceptionHandler) HandleEventException(err error, seq int64, event any) {
	atomic.AddInt32(&c.count, 1)
}
func (c *countingExceptionHandler) HandleOnBatchException(err error, seq int64, batch any) {
	atomic.AddInt32(&c.count, 1)
}
func (c *countingExceptionHandler) HandleOnTimeoutException(err error, seq int64) {}
func (c *countingExceptionHandler) HandleOnStartException(err error)             {}
func (c *countingExceptionHandler) HandleOnShutdownException(err error)          {}

// TestExceptionIsolationContinuesPastPoisonEvents is scenario 6: a handler
// that fails on specific values must not stall the run loop, the exception
// handler must be invoked exactly once per failing event, and the consumer
// sequence must still advance past every published event with no replay —
// all regardless of whether the events land in one batch or several, since
// per-event isolation must not depend on producer/consumer timing.
func TestExceptionIsolationContinuesPastPoisonEvents(t *testing.T) {
	ws := wait.NewBusySpin()
	ring := newInt64Ring(t, 8, ws)

	handler := &poisonHandler{}
	exc := &countingExceptionHandler{}

	b := ring.NewBarrier()
	p, err := NewBatchEventProcessor(ring, b, FromEventHandler[int64](handler), WithExceptionHandler[int64](exc))
	require.NoError(t, err)
	ring.AddGatingSequences(p.Sequence())

	values := []int64{0, 1, 0, 1, 0}
	for _, v := range values {
		seq := ring.Next()
		*ring.Get(seq) = v
		ring.Publish(seq)
	}

	// Publishing before Start guarantees every event is already visible on
	// the ring the first time the barrier reports availability, so this run
	// always delivers all five as a single batch — exercising exactly the
	// case the per-event isolation fix targets.
	task, err := p.Start()
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return p.Sequence().Value() == int64(len(values)-1)
	}, 2*time.Second, time.Millisecond, "consumer sequence must advance past every published event despite poison entries")

	p.Halt()
	require.True(t, task.Wait(2*time.Second))

	require.Equal(t, int32(2), atomic.LoadInt32(&exc.count), "exception handler must fire exactly once per poison event")

	handler.mu.Lock()
	defer handler.mu.Unlock()
	require.Equal(t, []int64{0, 0, 0}, handler.seen)
}

// TestStartHaltCycleStress is scenario 7: repeated Start/Halt cycles must
// invoke OnStart and OnShutdown exactly once per cycle, with no leaked
// goroutines or stuck states.
func TestStartHaltCycleStress(t *testing.T) {
	ws := wait.NewBusySpin()
	ring := newInt64Ring(t, 16, ws)

	handler := &recordingHandler{}
	b := ring.NewBarrier()
	p, err := NewBatchEventProcessor(ring, b, handler)
	require.NoError(t, err)

	const iterations = 1000
	for i := 0; i < iterations; i++ {
		task, err := p.Start()
		require.NoError(t, err)
		p.Halt()
		require.True(t, task.Wait(2*time.Second))
	}

	require.Equal(t, int32(iterations), atomic.LoadInt32(&handler.onStartCalls))
	require.Equal(t, int32(iterations), atomic.LoadInt32(&handler.onShutdownCalls))
	require.Equal(t, Idle, p.State(), "a joined processor must read Idle, not Halted, so it is restartable")
}

func TestStartWhileRunningReturnsErrAlreadyRunning(t *testing.T) {
	ws := wait.NewBusySpin()
	ring := newInt64Ring(t, 8, ws)
	handler := &recordingHandler{}
	b := ring.NewBarrier()
	p, err := NewBatchEventProcessor(ring, b, handler)
	require.NoError(t, err)

	task, err := p.Start()
	require.NoError(t, err)

	_, err = p.Start()
	require.ErrorIs(t, err, ErrAlreadyRunning)

	p.Halt()
	require.True(t, task.Wait(2*time.Second))
}

func TestHaltBeforeStartIsNoOpAndLeavesProcessorRestartable(t *testing.T) {
	ws := wait.NewBusySpin()
	ring := newInt64Ring(t, 8, ws)
	handler := &recordingHandler{}
	b := ring.NewBarrier()
	p, err := NewBatchEventProcessor(ring, b, handler)
	require.NoError(t, err)

	p.Halt()
	require.Equal(t, Idle, p.State())

	task, err := p.Start()
	require.NoError(t, err)
	p.Halt()
	require.True(t, task.Wait(2*time.Second))
}

func TestConstructorRejectsNilArguments(t *testing.T) {
	ws := wait.NewBusySpin()
	ring := newInt64Ring(t, 8, ws)
	b := ring.NewBarrier()
	handler := &recordingHandler{}

	_, err := NewBatchEventProcessor[int64](nil, b, handler)
	require.ErrorIs(t, err, ErrArgumentInvalid)

	_, err = NewBatchEventProcessor[int64](ring, nil, handler)
	require.ErrorIs(t, err, ErrArgumentInvalid)

	_, err = NewBatchEventProcessor[int64](ring, b, nil)
	require.ErrorIs(t, err, ErrArgumentInvalid)
}

func TestWithExceptionHandlerRejectsNil(t *testing.T) {
	ws := wait.NewBusySpin()
	ring := newInt64Ring(t, 8, ws)
	b := ring.NewBarrier()
	handler := &recordingHandler{}

	_, err := NewBatchEventProcessor(ring, b, handler, WithExceptionHandler[int64](nil))
	require.ErrorIs(t, err, ErrArgumentInvalid)
}
