package processor

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"

	pkgerrors "github.com/pkg/errors"

	"github.com/google/uuid"

	"github.com/ringline/disruptor/barrier"
	"github.com/ringline/disruptor/cpu"
	"github.com/ringline/disruptor/ringbuffer"
	"github.com/ringline/disruptor/sequence"
	"github.com/ringline/disruptor/wait"
)

// BatchEventProcessor is the consumer run loop described in §4.8: it claims
// batches from a barrier, invokes a BatchHandler, and publishes its own
// Sequence so upstream producers and downstream processors can gate on its
// progress.
type BatchEventProcessor[T any] struct {
	id      uuid.UUID
	name    string
	ring    *ringbuffer.RingBuffer[T]
	barrier *barrier.SequenceBarrier
	handler BatchHandler[T]
	excHdlr ExceptionHandler

	seq *sequence.Sequence

	state         int32 // atomic State
	stopRequested int32 // atomic bool
	pinCore       int   // -1 = not pinned
}

// Option configures a BatchEventProcessor at construction time.
type Option[T any] func(*BatchEventProcessor[T]) error

// WithExceptionHandler overrides the default logging ExceptionHandler.
// Passing a nil handler fails construction eagerly with ErrArgumentInvalid
// (§7: "Setting a null exception handler fails eagerly").
func WithExceptionHandler[T any](h ExceptionHandler) Option[T] {
	return func(p *BatchEventProcessor[T]) error {
		if h == nil {
			return ErrArgumentInvalid
		}
		p.excHdlr = h
		return nil
	}
}

// WithName tags the processor for diagnostics (exception-handler log
// fields); defaults to a generated uuid if not set.
func WithName[T any](name string) Option[T] {
	return func(p *BatchEventProcessor[T]) error {
		p.name = name
		return nil
	}
}

// NewBatchEventProcessor builds a processor consuming ring through b,
// invoking handler for each available batch.
func NewBatchEventProcessor[T any](ring *ringbuffer.RingBuffer[T], b *barrier.SequenceBarrier, handler BatchHandler[T], opts ...Option[T]) (*BatchEventProcessor[T], error) {
	if ring == nil || b == nil || handler == nil {
		return nil, ErrArgumentInvalid
	}
	id := uuid.New()
	p := &BatchEventProcessor[T]{
		id:      id,
		name:    id.String(),
		ring:    ring,
		barrier: b,
		handler: handler,
		seq:     sequence.New(sequence.Initial),
		pinCore: -1,
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	if p.excHdlr == nil {
		p.excHdlr = NewLoggingExceptionHandler(p.name, nil)
	}
	return p, nil
}

// Sequence exposes this processor's progress handle — register it as a
// gating sequence on upstream producers/processors to close the
// producer<->consumer dependency loop (§9).
func (p *BatchEventProcessor[T]) Sequence() *sequence.Sequence { return p.seq }

// State reports the processor's current lifecycle state.
func (p *BatchEventProcessor[T]) State() State {
	return State(atomic.LoadInt32(&p.state))
}

// PinToCore binds the run loop's OS thread to the given CPU core once
// started. Call before Start; has no effect on an already-running
// processor. Intended for BusySpinWaitStrategy consumers on dedicated
// hardware (§9 "dedicated cores").
func (p *BatchEventProcessor[T]) PinToCore(core int) {
	p.pinCore = core
}

// Start transitions Idle -> Running and launches the run loop on a new
// goroutine, returning a Task the caller joins on exit. Calling Start while
// already Running returns ErrAlreadyRunning. Halted is a transient state the
// exiting run loop clears to Idle right before it closes the Task it handed
// out (see run); Start spins past it rather than racing that handoff.
func (p *BatchEventProcessor[T]) Start() (Task, error) {
	for {
		cur := State(atomic.LoadInt32(&p.state))
		if cur == Running {
			return nil, ErrAlreadyRunning
		}
		if cur != Idle {
			runtime.Gosched()
			continue
		}
		if atomic.CompareAndSwapInt32(&p.state, int32(Idle), int32(Running)) {
			break
		}
	}

	atomic.StoreInt32(&p.stopRequested, 0)
	p.barrier.ClearAlert()

	done := make(chan struct{})
	go p.run(done)
	return &task{done: done}, nil
}

// Halt requests the run loop stop. It is idempotent and safe to call from
// any state, including Idle (a no-op that leaves the processor restartable
// — §9's Open Question resolution) and Halted. The caller joins the actual
// exit via the Task returned by Start.
func (p *BatchEventProcessor[T]) Halt() {
	if p.State() == Idle {
		return
	}
	atomic.StoreInt32(&p.stopRequested, 1)
	p.barrier.Alert()
}

func (p *BatchEventProcessor[T]) run(done chan struct{}) {
	// Idle is the stable, restartable state a joined Task observes (§3:
	// Idle -> Running -> Halted -> Idle); Halted below is only the
	// momentary state between the loop exiting and this handoff.
	defer func() {
		atomic.StoreInt32(&p.state, int32(Idle))
		close(done)
	}()

	if p.pinCore >= 0 {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		cpu.Pin(p.pinCore)
	}

	if err := p.callOnStart(); err != nil {
		p.excHdlr.HandleOnStartException(err)
	}
	if sc, ok := p.handler.(SequenceCallbacker); ok {
		sc.SetSequenceCallback(p.seq)
	}
	if eh, ok := p.handler.(EventExceptionHandler); ok {
		eh.SetExceptionHandler(p.excHdlr)
	}

	next := p.seq.Value() + 1

runLoop:
	for {
		available, err := p.barrier.WaitFor(next)
		if err != nil {
			// wait.ErrAlerted is the only error WaitFor ever returns; it
			// means Halt (or a future non-halt use of Alert) fired.
			if errors.Is(err, wait.ErrAlerted) && atomic.LoadInt32(&p.stopRequested) == 0 {
				continue runLoop
			}
			break runLoop
		}

		if available == wait.TimeoutSignal || available < next {
			if terr := p.callOnTimeout(next - 1); terr != nil {
				p.excHdlr.HandleOnTimeoutException(terr, next-1)
			}
			continue runLoop
		}

		batch := Batch[T]{ring: p.ring, start: next, end: available}
		if berr := p.callOnBatch(batch, next); berr != nil {
			// still advance past the batch to avoid a replay storm (§4.8):
			// a poison event would otherwise be redelivered forever.
			p.excHdlr.HandleOnBatchException(berr, available, batch)
		}
		p.seq.Set(available)
		next = available + 1
	}

	if err := p.callOnShutdown(); err != nil {
		p.excHdlr.HandleOnShutdownException(err)
	}
	atomic.StoreInt32(&p.state, int32(Halted))
}

func (p *BatchEventProcessor[T]) callOnStart() (err error) {
	defer func() { err = recoverPanic(recover(), err) }()
	if s, ok := p.handler.(Starter); ok {
		return s.OnStart()
	}
	return nil
}

func (p *BatchEventProcessor[T]) callOnShutdown() (err error) {
	defer func() { err = recoverPanic(recover(), err) }()
	if s, ok := p.handler.(Shutdowner); ok {
		return s.OnShutdown()
	}
	return nil
}

func (p *BatchEventProcessor[T]) callOnTimeout(seq int64) (err error) {
	defer func() { err = recoverPanic(recover(), err) }()
	if t, ok := p.handler.(Timeouter); ok {
		return t.OnTimeout(seq)
	}
	return nil
}

func (p *BatchEventProcessor[T]) callOnBatch(batch Batch[T], start int64) (err error) {
	defer func() { err = recoverPanic(recover(), err) }()
	return p.handler.OnBatch(batch, start)
}

// recoverPanic folds a recovered panic into err, stamped with a stack trace
// so the exception handler gets more than "runtime error: index out of
// range" to work with — the one place this module reaches for
// github.com/pkg/errors rather than the standard errors package.
func recoverPanic(r any, err error) error {
	if r == nil {
		return err
	}
	return pkgerrors.WithStack(fmt.Errorf("panic: %v", r))
}

var _ EventProcessor = (*BatchEventProcessor[int])(nil)
