package processor

import "github.com/ringline/disruptor/sequence"

// BatchHandler is the preferred consumer contract (§4.8): it receives a
// whole contiguous run of available sequences per wake-up instead of one
// event at a time.
type BatchHandler[T any] interface {
	OnBatch(batch Batch[T], startSequence int64) error
}

// EventHandler is the per-event consumer contract: OnEvent receives one
// slot at a time, with endOfBatch true iff this is the last event the
// processor will deliver before re-polling the barrier.
type EventHandler[T any] interface {
	OnEvent(event *T, sequence int64, endOfBatch bool) error
}

// Starter is implemented by handlers that need setup work run once before
// the first sequence is claimed.
type Starter interface {
	OnStart() error
}

// Shutdowner is implemented by handlers that need teardown work run once
// after the run loop exits, before the processor transitions to Halted.
type Shutdowner interface {
	OnShutdown() error
}

// Timeouter is implemented by handlers that want to react when a
// timeout-capable WaitStrategy reports no progress within its deadline.
// The processor calls OnTimeout whenever the barrier reports a sequence
// below the one it is waiting for, which also happens when a
// multi-producer ring has not yet published the next slot.
type Timeouter interface {
	OnTimeout(sequence int64) error
}

// SequenceCallbacker is implemented by handlers that want to advertise
// progress mid-batch rather than waiting for the whole batch to finish —
// the processor calls SetSequenceCallback once, handing the handler direct
// access to the processor's own Sequence so it can call Set as it goes.
type SequenceCallbacker interface {
	SetSequenceCallback(seq *sequence.Sequence)
}

// EventExceptionHandler is implemented by BatchHandler adapters that need
// the processor's resolved ExceptionHandler to isolate failures below
// batch granularity. The processor calls SetExceptionHandler once, the same
// way it calls SetSequenceCallback on a SequenceCallbacker.
type EventExceptionHandler interface {
	SetExceptionHandler(h ExceptionHandler)
}

// eventHandlerAdapter lets a per-event EventHandler run through the same
// batch-handler run loop the processor drives directly, per §4.8's note
// that the batch variant is preferred; any optional lifecycle interfaces on
// the underlying handler are forwarded transparently. Per-event failures are
// isolated via excHdlr.HandleEventException and never abort the rest of the
// batch (§8: every sequence is observed exactly once, in order) — the
// processor's own Sequence is advanced after every event, not just at the
// end of the batch, so a failing event never stalls downstream gating.
type eventHandlerAdapter[T any] struct {
	handler EventHandler[T]
	seq     *sequence.Sequence
	excHdlr ExceptionHandler
}

// FromEventHandler adapts h to the BatchHandler contract BatchEventProcessor
// consumes.
func FromEventHandler[T any](h EventHandler[T]) BatchHandler[T] {
	return &eventHandlerAdapter[T]{handler: h}
}

func (a *eventHandlerAdapter[T]) OnBatch(batch Batch[T], start int64) error {
	n := batch.Len()
	for i := int64(0); i < n; i++ {
		seq := start + i
		endOfBatch := i == n-1
		event := batch.Get(i)
		if err := a.handler.OnEvent(event, seq, endOfBatch); err != nil && a.excHdlr != nil {
			a.excHdlr.HandleEventException(err, seq, event)
		}
		if a.seq != nil {
			a.seq.Set(seq)
		}
	}
	return nil
}

func (a *eventHandlerAdapter[T]) OnStart() error {
	if s, ok := a.handler.(Starter); ok {
		return s.OnStart()
	}
	return nil
}

func (a *eventHandlerAdapter[T]) OnShutdown() error {
	if s, ok := a.handler.(Shutdowner); ok {
		return s.OnShutdown()
	}
	return nil
}

func (a *eventHandlerAdapter[T]) OnTimeout(seq int64) error {
	if t, ok := a.handler.(Timeouter); ok {
		return t.OnTimeout(seq)
	}
	return nil
}

func (a *eventHandlerAdapter[T]) SetSequenceCallback(seq *sequence.Sequence) {
	a.seq = seq
	if sc, ok := a.handler.(SequenceCallbacker); ok {
		sc.SetSequenceCallback(seq)
	}
}

func (a *eventHandlerAdapter[T]) SetExceptionHandler(h ExceptionHandler) {
	a.excHdlr = h
}

var _ EventExceptionHandler = (*eventHandlerAdapter[int])(nil)
