// Package store provides a SQLite-backed journal of delivered patch batches.
//
// A run subscribes a Recorder to a document's whole-document publisher; each
// delivered batch becomes one row per patch in the deliveries table. The
// journal is append-only and read back by `patchwire trace`.
//
// # Ordering
//
//   - seq is assigned in insertion order and is the global delivery order
//   - batch numbers count up from 1 per document
//   - position orders the patches inside one batch
//
// Every read is compiled by journalq, which always orders by seq, so traces
// replay deliveries exactly as they happened. Select takes an arbitrary
// journalq filter; ReadDocument, ReadObject and ReadAll are fixed filters.
//
// # Encoding
//
// Patches are stored as canonical JSON (ir.MarshalPatch): sorted keys, NFC
// strings, tagged floats. Identical batches therefore produce identical rows.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
