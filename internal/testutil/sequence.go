package testutil

import "sync"

// Sequence is a resettable counter handing out corpus sequence numbers in
// tests. It satisfies corpus.Sequencer.
//
// Unlike corpus.Counter, a Sequence can be reset so that the same scenario
// run twice assigns identical sequence numbers.
//
// Thread-safety: All methods are safe for concurrent use.
type Sequence struct {
	mu  sync.Mutex
	seq int64
}

// NewSequence creates a sequence starting at 0. The first call to Next
// returns 1.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Next increments and returns the next sequence number.
func (s *Sequence) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// Current returns the last sequence number handed out.
func (s *Sequence) Current() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Reset rewinds the sequence to 0.
func (s *Sequence) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = 0
}
