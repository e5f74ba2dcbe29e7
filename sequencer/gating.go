package sequencer

import (
	"sync/atomic"

	"github.com/ringline/disruptor/sequence"
)

// gatingSet is the CAS-replace, immutable-on-read snapshot of downstream
// consumer sequences a producer consults to avoid wrapping past unread
// slots (§3 "gatingSequences"). Readers take a snapshot with a single
// atomic load and never see a partially-updated slice; writers replace the
// whole slice under a compare-and-swap retry loop, exactly like the
// teacher's cpuMasks-style precomputed-then-swapped tables, generalized to
// a variable-length set.
type gatingSet struct {
	seqs atomic.Pointer[[]*sequence.Sequence]
}

func newGatingSet() *gatingSet {
	g := &gatingSet{}
	empty := make([]*sequence.Sequence, 0)
	g.seqs.Store(&empty)
	return g
}

func (g *gatingSet) snapshot() []*sequence.Sequence {
	return *g.seqs.Load()
}

func (g *gatingSet) add(seqs ...*sequence.Sequence) {
	if len(seqs) == 0 {
		return
	}
	for {
		old := g.seqs.Load()
		next := make([]*sequence.Sequence, len(*old)+len(seqs))
		copy(next, *old)
		copy(next[len(*old):], seqs)
		if g.seqs.CompareAndSwap(old, &next) {
			return
		}
	}
}

func (g *gatingSet) remove(target *sequence.Sequence) bool {
	for {
		old := g.seqs.Load()
		idx := -1
		for i, s := range *old {
			if s == target {
				idx = i
				break
			}
		}
		if idx == -1 {
			return false
		}
		next := make([]*sequence.Sequence, 0, len(*old)-1)
		next = append(next, (*old)[:idx]...)
		next = append(next, (*old)[idx+1:]...)
		if g.seqs.CompareAndSwap(old, &next) {
			return true
		}
	}
}

func (g *gatingSet) min(fallback int64) int64 {
	return sequence.MinOf(g.snapshot(), fallback)
}
