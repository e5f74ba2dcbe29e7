// Package barrier gives a consumer a single "highest safely consumable
// sequence" view: DependentSequenceGroup aggregates upstream sequences,
// and SequenceBarrier layers cancellation/alerting and (for multi-producer
// rings) contiguous-publish clamping on top of a WaitStrategy.
package barrier

import (
	"context"

	"github.com/ringline/disruptor/sequence"
)

// DependentSequenceGroup aggregates zero or more upstream sequences into a
// single Value(). With no upstream sequences it falls back to the
// producer's own cursor, which is the case for a root consumer reading
// straight from producers with no processors ahead of it in the DAG (§4.5).
type DependentSequenceGroup struct {
	cursor   *sequence.Sequence
	upstream []*sequence.Sequence
}

// NewDependentSequenceGroup builds a group gated on cursor when upstream is
// empty, or on min(upstream) otherwise.
func NewDependentSequenceGroup(cursor *sequence.Sequence, upstream ...*sequence.Sequence) *DependentSequenceGroup {
	return &DependentSequenceGroup{cursor: cursor, upstream: upstream}
}

// Value returns min(upstream), or cursor.Value() if there are no upstream
// sequences.
func (g *DependentSequenceGroup) Value() int64 {
	if len(g.upstream) == 0 {
		return g.cursor.Value()
	}
	return sequence.MinOf(g.upstream, g.cursor.Value())
}

// SpinAggressive busy-loops on Value() until it reaches at least expected,
// checking ctx between every iteration. Suited to latency-sensitive callers
// already running on a dedicated core.
func (g *DependentSequenceGroup) SpinAggressive(ctx context.Context, expected int64) (int64, error) {
	for {
		if v := g.Value(); v >= expected {
			return v, nil
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}
	}
}

// SpinPolite loops on Value() like SpinAggressive but yields the OS thread
// between checks, trading latency for letting other goroutines run.
func (g *DependentSequenceGroup) SpinPolite(ctx context.Context, expected int64) (int64, error) {
	for {
		if v := g.Value(); v >= expected {
			return v, nil
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
			politeYield()
		}
	}
}
