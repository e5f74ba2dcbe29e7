// Package wait provides the pluggable policies a consumer uses to block or
// spin until a sequence becomes available, and the small set of interfaces
// (Dependents, Barrier) that let it talk to a barrier/dependency group
// without importing either package — WaitStrategy is consumed by barrier,
// never the other way around.
package wait

import "errors"

// ErrAlerted is returned by WaitFor when the barrier it was consulting was
// alerted (typically because Halt was called) while the strategy waited.
var ErrAlerted = errors.New("wait: alerted")

// TimeoutSignal is the sentinel WaitFor returns, in place of a real
// sequence, when a TimeoutBlockingWaitStrategy's deadline elapses before any
// progress is observed. It is not a valid sequence value (sequences never
// go negative past Initial), so callers can distinguish it with a simple
// comparison against the expected sequence.
const TimeoutSignal int64 = -1 << 62

// Dependents is anything a WaitStrategy can poll for progress: a producer's
// cursor, or a DependentSequenceGroup aggregating several consumers.
// *sequence.Sequence satisfies this directly.
type Dependents interface {
	Value() int64
}

// Barrier is the minimal alert-checking surface a WaitStrategy needs from
// its SequenceBarrier. barrier.SequenceBarrier implements it.
type Barrier interface {
	IsAlerted() bool
}

// WaitStrategy is the policy object a SequenceBarrier delegates to. Every
// implementation must recheck Barrier.IsAlerted() at least once per
// iteration and must tolerate spurious wakeups by re-reading dependents
// after returning from any blocking primitive.
type WaitStrategy interface {
	// WaitFor blocks until dependents.Value() >= expectedSeq, the barrier is
	// alerted (returns ErrAlerted), or — for timeout-capable strategies — a
	// deadline elapses (returns TimeoutSignal, nil).
	WaitFor(expectedSeq int64, cursor, dependents Dependents, barrier Barrier) (int64, error)

	// SignalAllWhenBlocking wakes any goroutine parked inside WaitFor. It is
	// called by a Sequencer after every Publish so blocking strategies don't
	// need to poll.
	SignalAllWhenBlocking()
}

// Parker is an optional extension a WaitStrategy may implement to lend a
// producer its own backoff shape while the producer spins on a wrap-gate
// check (§4.3/§4.4's "spin on wait strategy until..."). Strategies that
// don't implement it fall back to a plain runtime.Gosched() in the
// sequencer.
type Parker interface {
	Park(attempt int)
}
