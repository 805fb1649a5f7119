package store

import (
	"context"
	"fmt"

	"github.com/roach88/domfuzz/internal/corpus"
)

const recordColumns = `r.run_id, r.seed, r.seq, r.document_id, r.mode, r.truncated, r.diagnostics, d.body`

// ReadRun retrieves a run by id.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (corpus.Run, error) {
	var (
		run  corpus.Run
		seed int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, grammar, mode, seed, count, generator_version
		FROM runs
		WHERE id = ?
	`, id).Scan(&run.ID, &run.Grammar, &run.Mode, &seed, &run.Count, &run.GeneratorVersion)
	if err != nil {
		return corpus.Run{}, fmt.Errorf("read run: %w", err)
	}
	run.Seed = seedFromDB(seed)
	return run, nil
}

// ListRuns returns every run, ordered by id.
func (s *Store) ListRuns(ctx context.Context) ([]corpus.Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, grammar, mode, seed, count, generator_version
		FROM runs
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []corpus.Run{}
	for rows.Next() {
		var (
			run  corpus.Run
			seed int64
		)
		if err := rows.Scan(&run.ID, &run.Grammar, &run.Mode, &seed, &run.Count, &run.GeneratorVersion); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Seed = seedFromDB(seed)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRecord retrieves the earliest record that produced the document id.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRecord(ctx context.Context, id string) (corpus.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM records r
		JOIN documents d ON d.id = r.document_id
		WHERE r.document_id = ?
		ORDER BY r.seq ASC
		LIMIT 1
	`, id)
	rec, err := scanRecord(row)
	if err != nil {
		return corpus.Record{}, fmt.Errorf("read record: %w", err)
	}
	return rec, nil
}

// ListRecords returns the records of a run.
// Results are ordered deterministically: ORDER BY seq ASC, document_id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if the run has no records.
func (s *Store) ListRecords(ctx context.Context, runID string) ([]corpus.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM records r
		JOIN documents d ON d.id = r.document_id
		WHERE r.run_id = ?
		ORDER BY r.seq ASC, r.document_id COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	recs := []corpus.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return recs, nil
}

// Count returns the number of distinct documents in the store.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (corpus.Record, error) {
	var (
		rec      corpus.Record
		seed     int64
		diagJSON string
	)
	if err := row.Scan(&rec.RunID, &seed, &rec.Seq, &rec.ID, &rec.Mode, &rec.Truncated, &diagJSON, &rec.Body); err != nil {
		return corpus.Record{}, fmt.Errorf("scan record: %w", err)
	}
	rec.Seed = seedFromDB(seed)

	diags, err := unmarshalDiagnostics(diagJSON)
	if err != nil {
		return corpus.Record{}, fmt.Errorf("scan record: %w", err)
	}
	rec.Diagnostics = diags
	return rec, nil
}
