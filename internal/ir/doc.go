// Package ir defines the data model shared by every patchwire package.
//
// It holds the vocabulary that flows between the CRDT engine and observers:
// object identifiers, properties, scalar values, change records (Patch) and
// the container-specific typed patches (MapPatch, ListPatch, TextPatch).
//
// ir imports nothing internal. All other internal packages import ir.
//
// Key design constraints:
//   - Change records are immutable once built and safe to share
//   - Sum types are sealed interfaces; only this package implements them
//   - Canonical JSON (RFC 8785) is the only encoding used for hashing
//   - Text indexes count Unicode scalar values, never bytes or graphemes
package ir
