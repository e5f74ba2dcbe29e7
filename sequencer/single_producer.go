package sequencer

import (
	"runtime"

	"github.com/ringline/disruptor/sequence"
	"github.com/ringline/disruptor/wait"
)

// SingleProducerSequencer assigns sequences for the single-writer case.
// Every field it exposes to other goroutines (cursor, the gating set) is
// safe for concurrent reads; nextValue is scratch state that only the one
// producer goroutine ever touches, so it carries no cache-line padding of
// its own — there is nothing to false-share it against.
type SingleProducerSequencer struct {
	bufferSize   int64
	waitStrategy wait.WaitStrategy
	gating       *gatingSet
	cursor       *sequence.Sequence

	nextValue            int64
	cachedGatingSequence *sequence.Sequence
}

// NewSingleProducer constructs a SingleProducerSequencer for a ring of the
// given power-of-two size.
func NewSingleProducer(bufferSize int64, ws wait.WaitStrategy) *SingleProducerSequencer {
	if bufferSize < 1 || bufferSize&(bufferSize-1) != 0 {
		panic("sequencer: bufferSize must be a positive power of two")
	}
	return &SingleProducerSequencer{
		bufferSize:           bufferSize,
		waitStrategy:         ws,
		gating:               newGatingSet(),
		cursor:               sequence.New(sequence.Initial),
		nextValue:            sequence.Initial,
		cachedGatingSequence: sequence.New(sequence.Initial),
	}
}

func (s *SingleProducerSequencer) Next() int64 { return s.NextN(1) }

// NextN implements §4.3's four-step claim algorithm.
func (s *SingleProducerSequencer) NextN(n int64) int64 {
	next := s.nextValue + n
	wrapPoint := next - s.bufferSize
	cachedGating := s.cachedGatingSequence.Value()

	if wrapPoint > cachedGating {
		minGating := s.gating.min(s.cursor.Value())
		for attempt := 0; wrapPoint > minGating; attempt++ {
			park(s.waitStrategy, attempt)
			minGating = s.gating.min(s.cursor.Value())
		}
		s.cachedGatingSequence.Set(minGating)
	}

	s.nextValue = next
	return next
}

func (s *SingleProducerSequencer) TryNext() (int64, error) { return s.TryNextN(1) }

func (s *SingleProducerSequencer) TryNextN(n int64) (int64, error) {
	if n < 1 {
		return 0, ErrArgumentInvalid
	}
	if !s.HasAvailableCapacity(n) {
		return 0, ErrCapacityFull
	}
	next := s.nextValue + n
	s.nextValue = next
	return next, nil
}

func (s *SingleProducerSequencer) HasAvailableCapacity(n int64) bool {
	wrapPoint := s.nextValue + n - s.bufferSize
	cachedGating := s.cachedGatingSequence.Value()
	if wrapPoint > cachedGating {
		minGating := s.gating.min(s.cursor.Value())
		s.cachedGatingSequence.Set(minGating)
		if wrapPoint > minGating {
			return false
		}
	}
	return true
}

// Publish sets cursor to seq with release semantics (§4.3) and wakes any
// blocked wait strategy.
func (s *SingleProducerSequencer) Publish(seq int64) {
	s.cursor.Set(seq)
	s.waitStrategy.SignalAllWhenBlocking()
}

func (s *SingleProducerSequencer) PublishRange(_, hi int64) {
	s.Publish(hi)
}

func (s *SingleProducerSequencer) AddGatingSequences(seqs ...*sequence.Sequence) {
	s.gating.add(seqs...)
}

func (s *SingleProducerSequencer) RemoveGatingSequence(seq *sequence.Sequence) bool {
	return s.gating.remove(seq)
}

// GetHighestPublishedSequence is trivial for a single producer: the cursor
// only ever advances across a contiguous run, so whatever the caller asked
// about up to the cursor is, by construction, published.
func (s *SingleProducerSequencer) GetHighestPublishedSequence(_, availableUpTo int64) int64 {
	return availableUpTo
}

func (s *SingleProducerSequencer) Cursor() *sequence.Sequence { return s.cursor }

func (s *SingleProducerSequencer) BufferSize() int64 { return s.bufferSize }

// park lends a producer the wait strategy's own backoff shape while it
// spins on a wrap-gate check, falling back to a plain Gosched for
// strategies that don't expose one.
func park(ws wait.WaitStrategy, attempt int) {
	if p, ok := ws.(wait.Parker); ok {
		p.Park(attempt)
		return
	}
	runtime.Gosched()
}

var _ Sequencer = (*SingleProducerSequencer)(nil)
