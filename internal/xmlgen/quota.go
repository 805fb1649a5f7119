package xmlgen

import (
	"errors"
	"fmt"
)

// quota tracks the number of nodes materialized by one generation and
// enforces the MaxNodes limit.
//
// Handlers drive repetition counts from drawn facts, so a single document
// can grow without bound even when the grammar itself is finite. The quota
// guarantees termination together with the depth limit.
type quota struct {
	max     int
	current int
}

func newQuota(max int) *quota {
	return &quota{max: max}
}

// Check counts one node and validates against the limit.
func (q *quota) Check() error {
	q.current++
	if q.max > 0 && q.current > q.max {
		return &LimitError{Limit: "max_nodes", Value: q.current, Max: q.max}
	}
	return nil
}

// Current returns the number of nodes counted so far.
func (q *quota) Current() int {
	return q.current
}

// LimitError is returned by the walker when a generation exceeds one of its
// limits. Generate turns it into a truncated result; it never reaches the
// caller as an error.
type LimitError struct {
	Limit string // "max_nodes" or "max_depth"
	Value int
	Max   int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("generation exceeded %s: %d > %d", e.Limit, e.Value, e.Max)
}

// IsLimitError reports whether err is or wraps a LimitError.
func IsLimitError(err error) bool {
	var le *LimitError
	return errors.As(err, &le)
}
