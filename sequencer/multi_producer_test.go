package sequencer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ringline/disruptor/sequence"
	"github.com/ringline/disruptor/wait"
)

func TestMultiProducerClaimsAreDistinct(t *testing.T) {
	s := NewMultiProducer(1024, wait.NewBusySpin())
	const producers = 4
	const perProducer = 1000

	claimed := make(chan int64, producers*perProducer)
	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				seq := s.Next()
				claimed <- seq
				s.Publish(seq)
			}
		}()
	}
	wg.Wait()
	close(claimed)

	seen := make(map[int64]bool, producers*perProducer)
	for seq := range claimed {
		require.False(t, seen[seq], "sequence %d claimed twice", seq)
		seen[seq] = true
	}
	require.Len(t, seen, producers*perProducer)
	require.Equal(t, int64(producers*perProducer-1), s.Cursor().Value())
}

// TestMultiProducerToleratesOutOfOrderPublish exercises the scenario §4.4
// exists for: a producer that claimed first can publish last, and
// GetHighestPublishedSequence must not report past the first gap.
func TestMultiProducerToleratesOutOfOrderPublish(t *testing.T) {
	s := NewMultiProducer(8, wait.NewBusySpin())

	first := s.Next()  // 0
	second := s.Next() // 1
	third := s.Next()  // 2

	require.Equal(t, int64(-1), s.GetHighestPublishedSequence(0, third))

	s.Publish(second)
	require.Equal(t, int64(-1), s.GetHighestPublishedSequence(0, third),
		"publishing sequence 1 alone must not appear available: 0 is still a gap")

	s.Publish(first)
	require.Equal(t, int64(1), s.GetHighestPublishedSequence(0, third),
		"once 0 and 1 are both published, the contiguous run extends through 1")

	s.Publish(third)
	require.Equal(t, int64(2), s.GetHighestPublishedSequence(0, third))
}

// TestMultiProducerHighestPublishedMatchesCursorAfterAllPublish is the
// property from §8: after all publishes complete, GetHighestPublishedSequence
// from 0 to cursor equals cursor.
func TestMultiProducerHighestPublishedMatchesCursorAfterAllPublish(t *testing.T) {
	s := NewMultiProducer(64, wait.NewBusySpin())
	const total = 50

	seqs := make([]int64, total)
	for i := range seqs {
		seqs[i] = s.Next()
	}
	for _, seq := range seqs {
		s.Publish(seq)
	}

	cursor := s.Cursor().Value()
	require.Equal(t, cursor, s.GetHighestPublishedSequence(0, cursor))
}

func TestMultiProducerTryNextCapacityFull(t *testing.T) {
	s := NewMultiProducer(4, wait.NewBusySpin())
	consumer := sequence.New(sequence.Initial)
	s.AddGatingSequences(consumer)

	for i := 0; i < 4; i++ {
		seq, err := s.TryNext()
		require.NoError(t, err)
		s.Publish(seq)
	}

	_, err := s.TryNext()
	require.ErrorIs(t, err, ErrCapacityFull)
}

func TestMultiProducerRemoveGatingSequence(t *testing.T) {
	s := NewMultiProducer(4, wait.NewBusySpin())
	c1 := sequence.New(sequence.Initial)
	c2 := sequence.New(sequence.Initial)
	s.AddGatingSequences(c1, c2)

	require.True(t, s.RemoveGatingSequence(c1))
	require.False(t, s.RemoveGatingSequence(c1))
	require.True(t, s.RemoveGatingSequence(c2))
}
