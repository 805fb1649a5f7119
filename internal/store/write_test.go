package store

import (
	"context"
	"testing"

	"github.com/roach88/domfuzz/internal/corpus"
)

func TestWriteRun_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run := createTestRun(t, s, 1, 3)
	if err := s.WriteRun(ctx, run); err != nil {
		t.Fatalf("second WriteRun() failed: %v", err)
	}

	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("runs = %d, want 1", n)
	}
}

func TestWriteRecord(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	run := createTestRun(t, s, 1, 3)

	rec := createTestRecord(run, 1, 1, `<domain type="kvm"/>`)
	inserted, err := s.WriteRecord(ctx, rec)
	if err != nil {
		t.Fatalf("WriteRecord() failed: %v", err)
	}
	if !inserted {
		t.Error("first WriteRecord() should insert")
	}

	inserted, err = s.WriteRecord(ctx, rec)
	if err != nil {
		t.Fatalf("second WriteRecord() failed: %v", err)
	}
	if inserted {
		t.Error("second WriteRecord() should be a no-op")
	}
}

func TestWriteRecord_SharedDocumentStoredOnce(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	run := createTestRun(t, s, 1, 3)

	body := `<domain type="qemu"/>`
	for i, seed := range []uint64{1, 2} {
		if _, err := s.WriteRecord(ctx, createTestRecord(run, seed, int64(i+1), body)); err != nil {
			t.Fatalf("WriteRecord(seed %d) failed: %v", seed, err)
		}
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}

	recs, err := s.ListRecords(ctx, run.ID)
	if err != nil {
		t.Fatalf("ListRecords() failed: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("ListRecords() returned %d records, want 2", len(recs))
	}
}

func TestWriteRecord_UnknownRun(t *testing.T) {
	s := createTestStore(t)

	rec := createTestRecord(corpus.Run{ID: "nope", Mode: "raw"}, 1, 1, `<domain/>`)
	if _, err := s.WriteRecord(context.Background(), rec); err == nil {
		t.Error("expected error for record of unknown run, got nil")
	}

	// The document insert was rolled back with the record.
	n, err := s.Count(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("Count() = %d after failed write, want 0", n)
	}
}

func TestWriteRecords_Batch(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	run := createTestRun(t, s, 10, 3)

	recs := []corpus.Record{
		createTestRecord(run, 10, 1, `<domain><name>a</name></domain>`),
		createTestRecord(run, 11, 2, `<domain><name>b</name></domain>`),
		createTestRecord(run, 12, 3, `<domain><name>c</name></domain>`),
	}
	n, err := s.WriteRecords(ctx, recs)
	if err != nil {
		t.Fatalf("WriteRecords() failed: %v", err)
	}
	if n != 3 {
		t.Errorf("WriteRecords() inserted %d, want 3", n)
	}

	n, err = s.WriteRecords(ctx, recs)
	if err != nil {
		t.Fatalf("second WriteRecords() failed: %v", err)
	}
	if n != 0 {
		t.Errorf("second WriteRecords() inserted %d, want 0", n)
	}
}

func TestWriteRecords_AllOrNothing(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	run := createTestRun(t, s, 1, 2)

	recs := []corpus.Record{
		createTestRecord(run, 1, 1, `<domain><name>ok</name></domain>`),
		createTestRecord(corpus.Run{ID: "missing", Mode: "raw"}, 2, 2, `<domain><name>bad</name></domain>`),
	}
	if _, err := s.WriteRecords(ctx, recs); err == nil {
		t.Fatal("expected error, got nil")
	}

	got, err := s.ListRecords(ctx, run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("ListRecords() returned %d records after rollback, want 0", len(got))
	}
}
