package corpus

import (
	"github.com/roach88/domfuzz/internal/engine"
	"github.com/roach88/domfuzz/internal/xmlgen"
)

// Run describes one generation batch.
type Run struct {
	ID               string `json:"id"`
	Grammar          string `json:"grammar"`
	Mode             string `json:"mode"`
	Seed             uint64 `json:"seed"`
	Count            int    `json:"count"`
	GeneratorVersion string `json:"generator_version"`
}

// NewRun returns the run for the given batch parameters, with its id set.
func NewRun(grammar string, mode engine.Mode, seed uint64, count int) Run {
	return Run{
		ID:               RunID(grammar, mode.String(), seed, count),
		Grammar:          grammar,
		Mode:             mode.String(),
		Seed:             seed,
		Count:            count,
		GeneratorVersion: GeneratorVersion,
	}
}

// Record is one generated document.
type Record struct {
	ID          string       `json:"id"`
	RunID       string       `json:"run_id"`
	Seq         int64        `json:"seq"`
	Seed        uint64       `json:"seed"`
	Mode        string       `json:"mode"`
	Body        string       `json:"body"`
	Truncated   bool         `json:"truncated"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// Diagnostic is the stored form of an engine.Diagnostic.
type Diagnostic struct {
	Rule    string `json:"rule"`
	Kind    string `json:"kind"`
	DocPath string `json:"doc_path"`
	Message string `json:"message"`
}

// FromResult converts a generated document into a record of run, taking
// the next sequence number from seq.
func FromResult(run Run, res *xmlgen.Result, seq Sequencer) Record {
	body := res.String()
	rec := Record{
		ID:          DocumentID(body),
		RunID:       run.ID,
		Seq:         seq.Next(),
		Seed:        res.Seed,
		Mode:        res.Mode.String(),
		Body:        body,
		Truncated:   res.Truncated,
		Diagnostics: []Diagnostic{},
	}
	for _, d := range res.Diagnostics {
		rec.Diagnostics = append(rec.Diagnostics, Diagnostic{
			Rule:    d.Rule,
			Kind:    d.Kind.String(),
			DocPath: d.DocPath,
			Message: d.Message,
		})
	}
	return rec
}

// FromResults converts a batch in order.
func FromResults(run Run, results []*xmlgen.Result, seq Sequencer) []Record {
	out := make([]Record, 0, len(results))
	for _, res := range results {
		out = append(out, FromResult(run, res, seq))
	}
	return out
}
