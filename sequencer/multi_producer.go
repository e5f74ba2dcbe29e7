package sequencer

import (
	"math/bits"
	"sync/atomic"

	"github.com/ringline/disruptor/sequence"
	"github.com/ringline/disruptor/wait"
)

// MultiProducerSequencer assigns sequences when more than one producer
// claims concurrently, using a CAS loop on cursor (§4.4). Unlike the
// single-producer case, cursor tracks the highest *claimed* sequence, not
// the highest published one — publication is tracked per-slot in
// available, so consumers tolerate producers finishing publication
// out of order relative to their claim order.
type MultiProducerSequencer struct {
	bufferSize int64
	indexMask  int64
	indexShift uint

	waitStrategy wait.WaitStrategy
	gating       *gatingSet
	cursor       *sequence.Sequence

	// cachedGatingSequence is shared read/write across every producer
	// goroutine, so — unlike the single-producer scratch field — it is a
	// *sequence.Sequence to get cache-line isolation for free, matching the
	// design note that it "must occupy its own cache line".
	cachedGatingSequence *sequence.Sequence

	// available[i] holds the wrap count at which slot i was last
	// published; a slot is available iff available[i] == seq>>indexShift.
	// This is the "availableBuffer" of §3.
	available []int32
}

// NewMultiProducer constructs a MultiProducerSequencer for a ring of the
// given power-of-two size.
func NewMultiProducer(bufferSize int64, ws wait.WaitStrategy) *MultiProducerSequencer {
	if bufferSize < 1 || bufferSize&(bufferSize-1) != 0 {
		panic("sequencer: bufferSize must be a positive power of two")
	}
	available := make([]int32, bufferSize)
	for i := range available {
		available[i] = -1
	}
	return &MultiProducerSequencer{
		bufferSize:           bufferSize,
		indexMask:            bufferSize - 1,
		indexShift:           uint(bits.Len64(uint64(bufferSize)) - 1),
		waitStrategy:         ws,
		gating:               newGatingSet(),
		cursor:               sequence.New(sequence.Initial),
		cachedGatingSequence: sequence.New(sequence.Initial),
		available:            available,
	}
}

func (s *MultiProducerSequencer) Next() int64 { return s.NextN(1) }

// NextN implements §4.4's CAS-loop claim algorithm.
func (s *MultiProducerSequencer) NextN(n int64) int64 {
	for attempt := 0; ; attempt++ {
		current := s.cursor.Value()
		next := current + n

		if !s.hasCapacity(next, current) {
			park(s.waitStrategy, attempt)
			continue
		}
		if s.cursor.CompareAndSet(current, next) {
			return next
		}
		// another producer advanced cursor first; recompute and retry
	}
}

func (s *MultiProducerSequencer) hasCapacity(next, current int64) bool {
	wrapPoint := next - s.bufferSize
	cachedGating := s.cachedGatingSequence.Value()
	if wrapPoint > cachedGating {
		minGating := s.gating.min(current)
		s.cachedGatingSequence.Set(minGating)
		if wrapPoint > minGating {
			return false
		}
	}
	return true
}

func (s *MultiProducerSequencer) TryNext() (int64, error) { return s.TryNextN(1) }

func (s *MultiProducerSequencer) TryNextN(n int64) (int64, error) {
	if n < 1 {
		return 0, ErrArgumentInvalid
	}
	for {
		current := s.cursor.Value()
		next := current + n
		if !s.hasCapacity(next, current) {
			return 0, ErrCapacityFull
		}
		if s.cursor.CompareAndSet(current, next) {
			return next, nil
		}
	}
}

func (s *MultiProducerSequencer) HasAvailableCapacity(n int64) bool {
	current := s.cursor.Value()
	return s.hasCapacity(current+n, current)
}

// setAvailable stores the wrap-count flag for seq's slot with a release
// store. Each slot is stamped individually — this resolves the §9 open
// question about whether Publish(lo, hi)'s per-slot stores need an extra
// fence between them: on every architecture Go targets, atomic.StoreInt32
// is itself a release operation, so the per-slot stores are already
// individually ordered and no batched fence is required.
func (s *MultiProducerSequencer) setAvailable(seq int64) {
	idx := seq & s.indexMask
	flag := int32(seq >> s.indexShift)
	atomic.StoreInt32(&s.available[idx], flag)
}

func (s *MultiProducerSequencer) isAvailable(seq int64) bool {
	idx := seq & s.indexMask
	flag := int32(seq >> s.indexShift)
	return atomic.LoadInt32(&s.available[idx]) == flag
}

func (s *MultiProducerSequencer) Publish(seq int64) {
	s.setAvailable(seq)
	s.waitStrategy.SignalAllWhenBlocking()
}

func (s *MultiProducerSequencer) PublishRange(lo, hi int64) {
	for seq := lo; seq <= hi; seq++ {
		s.setAvailable(seq)
	}
	s.waitStrategy.SignalAllWhenBlocking()
}

func (s *MultiProducerSequencer) AddGatingSequences(seqs ...*sequence.Sequence) {
	s.gating.add(seqs...)
}

func (s *MultiProducerSequencer) RemoveGatingSequence(seq *sequence.Sequence) bool {
	return s.gating.remove(seq)
}

// GetHighestPublishedSequence scans forward from lowerBound and returns the
// highest contiguously-published sequence at or below availableUpTo,
// tolerating producers that finished publishing out of claim order (§4.4).
func (s *MultiProducerSequencer) GetHighestPublishedSequence(lowerBound, availableUpTo int64) int64 {
	for seq := lowerBound; seq <= availableUpTo; seq++ {
		if !s.isAvailable(seq) {
			return seq - 1
		}
	}
	return availableUpTo
}

func (s *MultiProducerSequencer) Cursor() *sequence.Sequence { return s.cursor }

func (s *MultiProducerSequencer) BufferSize() int64 { return s.bufferSize }

var _ Sequencer = (*MultiProducerSequencer)(nil)
