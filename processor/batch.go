package processor

import "github.com/ringline/disruptor/ringbuffer"

// Batch is a view over a contiguous run of available sequences
// [startSequence, startSequence+Len()-1] in a RingBuffer. Mutating a slot
// through Get is race-free: the consumer exclusively owns every slot in the
// batch until it publishes its own Sequence past them (§6).
type Batch[T any] struct {
	ring  *ringbuffer.RingBuffer[T]
	start int64
	end   int64
}

// Len is the number of events in the batch.
func (b Batch[T]) Len() int64 { return b.end - b.start + 1 }

// StartSequence is the first sequence in the batch.
func (b Batch[T]) StartSequence() int64 { return b.start }

// EndSequence is the last sequence in the batch.
func (b Batch[T]) EndSequence() int64 { return b.end }

// Get returns a pointer to the i-th slot in the batch (0-indexed), valid
// for mutation.
func (b Batch[T]) Get(i int64) *T {
	return b.ring.Get(b.start + i)
}
