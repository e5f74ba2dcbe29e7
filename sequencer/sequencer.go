// Package sequencer assigns monotonically increasing sequence numbers to
// producers and tracks what is safely published, in both single- and
// multi-producer flavors (§4.3, §4.4). It knows nothing about the event
// type stored in a ring buffer's slots — RingBuffer composes a Sequencer
// with a slice of slots; the sequencer only ever deals in int64 positions.
package sequencer

import (
	"errors"

	"github.com/ringline/disruptor/sequence"
)

// ErrCapacityFull is returned by TryNext/TryNextN when claiming would wrap
// past the slowest gating sequence.
var ErrCapacityFull = errors.New("sequencer: insufficient capacity")

// ErrArgumentInvalid is returned by TryNextN when n < 1. The constructors
// do not return it: NewSingleProducer and NewMultiProducer panic on a
// buffer size that is not a positive power of two.
var ErrArgumentInvalid = errors.New("sequencer: invalid argument")

// Sequencer is the producer-facing coordination root: it hands out claim
// positions, tracks what is safely published, and holds the set of gating
// sequences (downstream consumers) a claim must respect.
type Sequencer interface {
	// Next claims the next sequence, blocking until wrap-safe.
	Next() int64
	// NextN claims n contiguous sequences, returning the highest.
	NextN(n int64) int64
	// TryNext is the non-blocking form of Next.
	TryNext() (int64, error)
	// TryNextN is the non-blocking form of NextN.
	TryNextN(n int64) (int64, error)
	// HasAvailableCapacity reports whether n sequences could be claimed
	// right now without blocking.
	HasAvailableCapacity(n int64) bool

	// Publish makes seq visible to consumers.
	Publish(seq int64)
	// PublishRange makes every sequence in [lo, hi] visible to consumers.
	PublishRange(lo, hi int64)

	// AddGatingSequences registers consumer sequences a future claim must
	// not wrap past.
	AddGatingSequences(seqs ...*sequence.Sequence)
	// RemoveGatingSequence deregisters a previously-added gating sequence.
	RemoveGatingSequence(seq *sequence.Sequence) bool

	// GetHighestPublishedSequence returns the highest sequence in
	// [lowerBound, availableUpTo] that is contiguously published, or
	// lowerBound-1 if lowerBound itself isn't published yet.
	GetHighestPublishedSequence(lowerBound, availableUpTo int64) int64

	// Cursor exposes the producer's progress handle for barriers and
	// diagnostics.
	Cursor() *sequence.Sequence
	// BufferSize is the ring buffer's fixed capacity.
	BufferSize() int64
}
