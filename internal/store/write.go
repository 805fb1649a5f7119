package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/domfuzz/internal/corpus"
)

// WriteRun inserts a run record into the store.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate ids are silently ignored.
func (s *Store) WriteRun(ctx context.Context, run corpus.Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, grammar, mode, seed, count, generator_version)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Grammar,
		run.Mode,
		seedToDB(run.Seed),
		run.Count,
		run.GeneratorVersion,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteRecord stores a record and its document body atomically. It reports
// whether the record was new; a record for the same (run, seed) already in
// the store is left unchanged.
//
// Note: The run referenced by RunID must exist (foreign key constraint).
func (s *Store) WriteRecord(ctx context.Context, rec corpus.Record) (inserted bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("write record: begin tx: %w", err)
	}
	defer tx.Rollback()

	inserted, err = writeRecordTx(ctx, tx, rec)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("write record: commit: %w", err)
	}
	return inserted, nil
}

// WriteRecords stores a batch of records in one transaction and returns
// how many were new. Either every record is written or none is.
func (s *Store) WriteRecords(ctx context.Context, recs []corpus.Record) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("write records: begin tx: %w", err)
	}
	defer tx.Rollback()

	var n int
	for _, rec := range recs {
		inserted, err := writeRecordTx(ctx, tx, rec)
		if err != nil {
			return 0, err
		}
		if inserted {
			n++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("write records: commit: %w", err)
	}
	return n, nil
}

func writeRecordTx(ctx context.Context, tx *sql.Tx, rec corpus.Record) (bool, error) {
	diagJSON, err := marshalDiagnostics(rec.Diagnostics)
	if err != nil {
		return false, fmt.Errorf("write record: %w", err)
	}

	// Step 1: the body, shared by every record producing the same document.
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents (id, body)
		VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, rec.ID, rec.Body); err != nil {
		return false, fmt.Errorf("write record: document: %w", err)
	}

	// Step 2: the record itself.
	result, err := tx.ExecContext(ctx, `
		INSERT INTO records
		(run_id, seed, seq, document_id, mode, truncated, diagnostics)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seed) DO NOTHING
	`,
		rec.RunID,
		seedToDB(rec.Seed),
		rec.Seq,
		rec.ID,
		rec.Mode,
		rec.Truncated,
		diagJSON,
	)
	if err != nil {
		return false, fmt.Errorf("write record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write record: rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}
