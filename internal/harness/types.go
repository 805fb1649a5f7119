package harness

import (
	"github.com/beevik/etree"

	"github.com/roach88/domfuzz/internal/corpus"
)

// Document is a generated document under test.
type Document struct {
	Seed uint64
	Root *etree.Element
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held for every document.
	Pass bool `json:"pass"`

	// RunID identifies the generation run.
	RunID string `json:"run_id"`

	// Documents is the number of distinct documents stored.
	Documents int `json:"documents"`

	// Diagnostics counts the rule misbehaviors recorded across the run.
	Diagnostics int `json:"diagnostics"`

	// Truncated counts documents cut short by a size limit.
	Truncated int `json:"truncated"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Records are the stored documents in sequence order.
	Records []corpus.Record `json:"records,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Errors:  []string{},
		Records: []corpus.Record{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
