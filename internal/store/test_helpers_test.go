package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/domfuzz/internal/corpus"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun writes and returns a run with the given base seed and count.
func createTestRun(t *testing.T, s *Store, seed uint64, count int) corpus.Run {
	t.Helper()
	run := corpus.Run{
		ID:               corpus.RunID("test.rng", "definable", seed, count),
		Grammar:          "test.rng",
		Mode:             "definable",
		Seed:             seed,
		Count:            count,
		GeneratorVersion: corpus.GeneratorVersion,
	}
	if err := s.WriteRun(context.Background(), run); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}
	return run
}

// createTestRecord creates a record of run with minimal required fields.
func createTestRecord(run corpus.Run, seed uint64, seq int64, body string) corpus.Record {
	return corpus.Record{
		ID:          corpus.DocumentID(body),
		RunID:       run.ID,
		Seq:         seq,
		Seed:        seed,
		Mode:        run.Mode,
		Body:        body,
		Diagnostics: []corpus.Diagnostic{},
	}
}
