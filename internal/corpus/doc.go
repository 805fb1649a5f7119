// Package corpus defines the records a generation run produces and their
// content-addressed identity.
//
// A record is identified by the hash of its document body, so the same
// document generated twice (same grammar, rules, mode and seed) maps to the
// same id and is stored once. Records are ordered by a logical sequence
// number assigned when they are collected, never by wall-clock time.
//
// corpus imports xmlgen and engine for conversion only; the store imports
// corpus and nothing above it.
package corpus
