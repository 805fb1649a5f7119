package store

import (
	"context"
	"fmt"

	"github.com/roach88/domfuzz/internal/corpus"
)

// RunState describes how far a run got, for resuming an interrupted batch.
type RunState struct {
	Run     corpus.Run
	Records []corpus.Record
	LastSeq int64

	// Missing lists the seeds of the run with no stored record, ascending.
	Missing []uint64
}

// IsComplete reports whether every seed of the run has a record.
func (st RunState) IsComplete() bool {
	return len(st.Missing) == 0
}

// GetRunState retrieves a run with its records and the seeds still to be
// generated.
func (s *Store) GetRunState(ctx context.Context, runID string) (RunState, error) {
	run, err := s.ReadRun(ctx, runID)
	if err != nil {
		return RunState{}, fmt.Errorf("get run state: %w", err)
	}
	recs, err := s.ListRecords(ctx, runID)
	if err != nil {
		return RunState{}, fmt.Errorf("get run state: %w", err)
	}

	st := RunState{Run: run, Records: recs}
	have := make(map[uint64]bool, len(recs))
	for _, rec := range recs {
		have[rec.Seed] = true
		if rec.Seq > st.LastSeq {
			st.LastSeq = rec.Seq
		}
	}
	for i := 0; i < run.Count; i++ {
		if seed := run.Seed + uint64(i); !have[seed] {
			st.Missing = append(st.Missing, seed)
		}
	}
	return st, nil
}

// GetLastSeq returns the highest seq number used in the store.
// Generation resumes numbering after it.
func (s *Store) GetLastSeq(ctx context.Context) (int64, error) {
	var maxSeq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM records
	`).Scan(&maxSeq)
	if err != nil {
		return 0, fmt.Errorf("get last seq: %w", err)
	}
	return maxSeq, nil
}
