package barrier

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/ringline/disruptor/sequence"
	"github.com/ringline/disruptor/wait"
)

// ErrAlerted is returned by CheckAlert once Alert has been called and not
// yet cleared — typically because Halt was requested on the owning
// processor. WaitFor reports an alert with wait.ErrAlerted instead.
var ErrAlerted = errors.New("barrier: alerted")

// highestPublishedQuery is the one Sequencer capability a barrier needs:
// resolving a claimed range down to what's actually, contiguously
// published. Expressed as its own interface (rather than importing
// sequencer.Sequencer wholesale) to keep the barrier package honest about
// how little of the sequencer it depends on.
type highestPublishedQuery interface {
	GetHighestPublishedSequence(lowerBound, availableUpTo int64) int64
}

// SequenceBarrier is the gate a consumer polls to learn the highest
// sequence it may safely process, honoring cancellation and alerts (§4.7).
type SequenceBarrier struct {
	sequencer    highestPublishedQuery
	waitStrategy wait.WaitStrategy
	dependents   *DependentSequenceGroup
	cursor       *sequence.Sequence

	alerted int32 // atomic bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// New builds a SequenceBarrier gating on dependents, delegating waits to
// waitStrategy, and — for multi-producer sequencers — clamping WaitFor's
// result to the contiguously published run via seq.
func New(seq highestPublishedQuery, cursor *sequence.Sequence, waitStrategy wait.WaitStrategy, dependents *DependentSequenceGroup) *SequenceBarrier {
	ctx, cancel := context.WithCancel(context.Background())
	return &SequenceBarrier{
		sequencer:    seq,
		waitStrategy: waitStrategy,
		dependents:   dependents,
		cursor:       cursor,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// WaitFor blocks until the barrier can report a sequence >= expected,
// returning wait.ErrAlerted if Alert fires first, or wait.TimeoutSignal (nil
// error) if a timeout-capable strategy's deadline elapses. For a
// multi-producer sequencer the raw wait-strategy result is further clamped
// to the highest contiguously published sequence, so a consumer never sees
// a gap.
func (b *SequenceBarrier) WaitFor(expected int64) (int64, error) {
	available, err := b.waitStrategy.WaitFor(expected, b.cursor, b.dependents, b)
	if err != nil {
		return 0, err
	}
	if available == wait.TimeoutSignal || available < expected {
		return available, nil
	}
	return b.sequencer.GetHighestPublishedSequence(expected, available), nil
}

// Cursor exposes the producer cursor for diagnostics.
func (b *SequenceBarrier) Cursor() *sequence.Sequence { return b.cursor }

// Alert requests that any goroutine parked in WaitFor return immediately,
// and wakes blocking wait strategies to make that immediate. It is
// idempotent.
func (b *SequenceBarrier) Alert() {
	if atomic.CompareAndSwapInt32(&b.alerted, 0, 1) {
		b.cancel()
	}
	b.waitStrategy.SignalAllWhenBlocking()
}

// ClearAlert resets the alert flag so the barrier can be reused after a
// processor restarts (Halted -> Idle -> Running).
func (b *SequenceBarrier) ClearAlert() {
	if atomic.CompareAndSwapInt32(&b.alerted, 1, 0) {
		ctx, cancel := context.WithCancel(context.Background())
		b.ctx, b.cancel = ctx, cancel
	}
}

// CheckAlert returns ErrAlerted if Alert has been called and not yet
// cleared.
func (b *SequenceBarrier) CheckAlert() error {
	if b.IsAlerted() {
		return ErrAlerted
	}
	return nil
}

// IsAlerted satisfies wait.Barrier.
func (b *SequenceBarrier) IsAlerted() bool {
	return atomic.LoadInt32(&b.alerted) != 0
}

// Context returns the barrier's cancellation context, canceled the moment
// Alert is called. Consumers that spin via DependentSequenceGroup.Spin* use
// this instead of polling IsAlerted directly.
func (b *SequenceBarrier) Context() context.Context { return b.ctx }

var _ wait.Barrier = (*SequenceBarrier)(nil)
