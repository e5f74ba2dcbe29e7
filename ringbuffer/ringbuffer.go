// Package ringbuffer is the fixed-slot, preallocated circular buffer at the
// center of this module: a RingBuffer never allocates or copies a slot
// after construction, and every producer/consumer coordination decision is
// delegated to the sequencer it was built with (§4.2).
package ringbuffer

import (
	"errors"

	"github.com/ringline/disruptor/barrier"
	"github.com/ringline/disruptor/sequence"
	"github.com/ringline/disruptor/sequencer"
	"github.com/ringline/disruptor/wait"
)

// ErrArgumentInvalid mirrors sequencer.ErrArgumentInvalid for the
// construction-time checks RingBuffer itself is responsible for (nil
// factory, nil wait strategy).
var ErrArgumentInvalid = errors.New("ringbuffer: invalid argument")

// EventFactory produces one fresh slot instance. It must be pure and return
// a new value on every call — RingBuffer calls it exactly bufferSize times,
// once at construction, and never again.
type EventFactory[T any] func() T

// RingBuffer is a fixed power-of-two array of preallocated event slots
// indexed by sequence & mask, fronted by a Sequencer that assigns and
// tracks those sequence numbers.
type RingBuffer[T any] struct {
	entries      []T
	indexMask    int64
	seq          sequencer.Sequencer
	waitStrategy wait.WaitStrategy
}

// CreateSingleProducer builds a RingBuffer backed by a
// sequencer.SingleProducerSequencer.
func CreateSingleProducer[T any](factory EventFactory[T], bufferSize int64, ws wait.WaitStrategy) (*RingBuffer[T], error) {
	if factory == nil || ws == nil {
		return nil, ErrArgumentInvalid
	}
	return newRingBuffer(factory, bufferSize, ws, sequencer.NewSingleProducer(bufferSize, ws)), nil
}

// CreateMultiProducer builds a RingBuffer backed by a
// sequencer.MultiProducerSequencer.
func CreateMultiProducer[T any](factory EventFactory[T], bufferSize int64, ws wait.WaitStrategy) (*RingBuffer[T], error) {
	if factory == nil || ws == nil {
		return nil, ErrArgumentInvalid
	}
	return newRingBuffer(factory, bufferSize, ws, sequencer.NewMultiProducer(bufferSize, ws)), nil
}

func newRingBuffer[T any](factory EventFactory[T], bufferSize int64, ws wait.WaitStrategy, seq sequencer.Sequencer) *RingBuffer[T] {
	entries := make([]T, bufferSize)
	for i := range entries {
		entries[i] = factory()
	}
	return &RingBuffer[T]{
		entries:      entries,
		indexMask:    bufferSize - 1,
		seq:          seq,
		waitStrategy: ws,
	}
}

// Next claims the next sequence, blocking until wrap-safe.
func (r *RingBuffer[T]) Next() int64 { return r.seq.Next() }

// NextN claims n contiguous sequences, returning the highest claimed.
func (r *RingBuffer[T]) NextN(n int64) int64 { return r.seq.NextN(n) }

// TryNext is the non-blocking form of Next; it returns
// sequencer.ErrCapacityFull if claiming would wrap past a gating sequence.
func (r *RingBuffer[T]) TryNext() (int64, error) { return r.seq.TryNext() }

// TryNextN is the non-blocking form of NextN.
func (r *RingBuffer[T]) TryNextN(n int64) (int64, error) { return r.seq.TryNextN(n) }

// Publish makes seq's slot visible to consumers.
func (r *RingBuffer[T]) Publish(seq int64) { r.seq.Publish(seq) }

// PublishRange makes every sequence in [lo, hi] visible to consumers.
func (r *RingBuffer[T]) PublishRange(lo, hi int64) { r.seq.PublishRange(lo, hi) }

// Get returns a pointer to the preallocated slot for seq. The slot is
// never replaced or copied; callers mutate it in place before Publish and
// read it after the barrier confirms availability.
//
//go:nosplit
//go:inline
func (r *RingBuffer[T]) Get(seq int64) *T {
	return &r.entries[seq&r.indexMask]
}

// AddGatingSequences registers consumer sequences a future claim must not
// wrap past.
func (r *RingBuffer[T]) AddGatingSequences(seqs ...*sequence.Sequence) {
	r.seq.AddGatingSequences(seqs...)
}

// RemoveGatingSequence deregisters a previously-added gating sequence.
func (r *RingBuffer[T]) RemoveGatingSequence(seq *sequence.Sequence) bool {
	return r.seq.RemoveGatingSequence(seq)
}

// Cursor exposes the producer's progress handle.
func (r *RingBuffer[T]) Cursor() *sequence.Sequence { return r.seq.Cursor() }

// BufferSize is the ring's fixed capacity.
func (r *RingBuffer[T]) BufferSize() int64 { return r.seq.BufferSize() }

// Sequencer exposes the underlying Sequencer for callers building a barrier
// directly rather than through NewBarrier (e.g. a processor DAG wiring
// several barriers against the same ring).
func (r *RingBuffer[T]) Sequencer() sequencer.Sequencer { return r.seq }

// NewBarrier builds a SequenceBarrier gated on dependents (or, if dependents
// is empty, directly on this ring's cursor — a root consumer).
// AddGatingSequences is not called automatically; callers register the
// resulting processor's own Sequence once it exists, closing the
// producer<->consumer gating loop described in §9.
func (r *RingBuffer[T]) NewBarrier(dependents ...*sequence.Sequence) *barrier.SequenceBarrier {
	group := barrier.NewDependentSequenceGroup(r.seq.Cursor(), dependents...)
	return barrier.New(r.seq, r.seq.Cursor(), r.waitStrategy, group)
}
