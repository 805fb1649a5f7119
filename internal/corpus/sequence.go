package corpus

import "sync/atomic"

// Sequencer hands out the logical sequence numbers that order records.
type Sequencer interface {
	Next() int64
}

// Counter is a Sequencer backed by an atomic counter. The first call to Next
// returns 1. The zero value is ready to use.
type Counter struct {
	n atomic.Int64
}

// NewCounter returns a counter that continues after start, typically the
// largest sequence number already stored.
func NewCounter(start int64) *Counter {
	c := &Counter{}
	c.n.Store(start)
	return c
}

// Next increments and returns the sequence number.
func (c *Counter) Next() int64 {
	return c.n.Add(1)
}
