// Package store provides SQLite-backed durable storage for generated
// corpora.
//
// The store keeps three tables:
//   - runs: one row per generation batch (grammar, mode, base seed, count)
//   - documents: document bodies, keyed by content-addressed id
//   - records: one row per (run, seed), pointing at the document it produced
//
// A document generated by several runs is stored once. Writes are
// idempotent: writing the same run or record twice is a no-op.
//
// # Ordering
//
// All ordering uses the logical seq column, never timestamps. Queries order
// by seq ASC, document_id ASC COLLATE BINARY so that results are identical
// across runs.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Ids are computed by the corpus package with SHA-256 and domain
// separation.
package store
