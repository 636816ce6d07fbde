// Package engine turns document mutations into ordered patch deliveries.
//
// An Engine sits beside a Source (the CRDT document engine) and, after each
// mutation, asks the Source for the change records applied since the last
// published snapshot. It then fans those records out to two kinds of
// subscriber:
//
//   - the whole-document publisher (Patches), which receives every record
//   - per-object publishers (ObjectPatches), which receive the records for
//     one container, split into maximal contiguous runs
//
// Typed publishers (MapPatches, ListPatches, TextPatches) wrap an object
// publisher and translate each batch into container-specific patches.
//
// ARCHITECTURE:
//
// Snapshot tracking:
// The engine stores the heads it last published. Every diff runs from those
// heads to the current heads, and the published heads advance before any
// subscriber sees the batch. A failed diff leaves them untouched.
//
// Grouping:
// Begin/End (or Group) defer delivery. Records accumulate until the
// outermost End, then go out as one document batch and one batch per run.
//
// Delivery:
// A flush holds the delivery lock, queues its batches under the engine lock,
// and hands them to subscribers after the engine lock is released, on the
// same goroutine. Another goroutine's flush waits for the delivery lock, so
// AfterMutation and End return only after their own batches are delivered
// and deliveries follow engine lock order. A subscriber may mutate the
// document or subscribe from inside its callback; the delivery lock is
// re-entered and the resulting deliveries are queued behind the current one,
// running before the outermost call returns.
//
// Invariant violations (a list patch reaching a map observer) panic with a
// *ConsistencyError. Malformed data is never delivered, but the valid
// batches queued behind the offending one are; the panic resurfaces after
// the queue is empty.
package engine
