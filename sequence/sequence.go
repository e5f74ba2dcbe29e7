// Package sequence provides the cache-line-padded monotonic counter that the
// rest of this module builds on: every producer cursor, every consumer's
// progress marker, and every gating handle is a *Sequence.
//
// A Sequence is published with release semantics and read with acquire
// semantics so that a downstream reader observing a new value also observes
// every write the writer performed before publishing it. That single
// guarantee is what lets the ring buffer avoid locks entirely.
package sequence

import "sync/atomic"

// Initial is the sentinel value meaning "nothing claimed or published yet".
const Initial int64 = -1

const cacheLineSize = 64

// Sequence is a 64-bit counter padded on both sides so it occupies a cache
// line by itself. Two Sequences placed next to each other in memory (e.g. a
// producer cursor and a consumer sequence) would otherwise false-share and
// quietly cost an order of magnitude in throughput.
//
//go:align 64
type Sequence struct {
	_     [cacheLineSize]byte
	value int64
	_     [cacheLineSize - 8]byte
}

// New allocates a Sequence initialized to v.
func New(v int64) *Sequence {
	s := &Sequence{}
	s.value = v
	return s
}

// Value loads the current count with acquire semantics.
//
//go:nosplit
//go:inline
func (s *Sequence) Value() int64 {
	return atomic.LoadInt64(&s.value)
}

// Set stores v with release semantics, publishing every write the caller
// performed before this call to any reader that subsequently observes v.
//
//go:nosplit
//go:inline
func (s *Sequence) Set(v int64) {
	atomic.StoreInt64(&s.value, v)
}

// CompareAndSet atomically sets the value to next iff it currently equals
// expected, returning whether the swap happened.
//
//go:nosplit
//go:inline
func (s *Sequence) CompareAndSet(expected, next int64) bool {
	return atomic.CompareAndSwapInt64(&s.value, expected, next)
}

// AddAndGet atomically adds delta and returns the new value.
//
//go:nosplit
//go:inline
func (s *Sequence) AddAndGet(delta int64) int64 {
	return atomic.AddInt64(&s.value, delta)
}

// MinOf returns the smallest Value() among seqs, or fallback if seqs is
// empty. It is the building block for gating-sequence aggregation: a
// producer must never claim past bufferSize slots ahead of the slowest
// consumer, and a DependentSequenceGroup must never report progress past
// its slowest upstream.
func MinOf(seqs []*Sequence, fallback int64) int64 {
	if len(seqs) == 0 {
		return fallback
	}
	min := seqs[0].Value()
	for _, s := range seqs[1:] {
		if v := s.Value(); v < min {
			min = v
		}
	}
	return min
}
