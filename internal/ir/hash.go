package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
)

// Domain prefix for change hashes.
// Version suffix enables future algorithm migration.
const DomainChange = "patchwire/change/v1"

// ChangeHash identifies one change in a document's history.
// Hex-encoded SHA-256.
type ChangeHash string

// Heads is the snapshot marker: the set of changes with no successors.
// Always sorted; an empty Heads names the empty document.
type Heads []ChangeHash

// NewHeads returns a sorted, de-duplicated copy of hashes.
func NewHeads(hashes ...ChangeHash) Heads {
	h := slices.Clone(hashes)
	slices.Sort(h)
	return slices.Compact(h)
}

// Equal reports whether both markers name the same state.
func (h Heads) Equal(other Heads) bool {
	return slices.Equal(h, other)
}

// Clone returns an independent copy.
func (h Heads) Clone() Heads {
	return slices.Clone(h)
}

// String renders heads as a comma-separated list of short hashes.
func (h Heads) String() string {
	parts := make([]string, len(h))
	for i, c := range h {
		parts[i] = c.Short()
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Short returns the first 8 hex digits, for logs.
func (c ChangeHash) Short() string {
	if len(c) <= 8 {
		return string(c)
	}
	return string(c[:8])
}

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// HashChange computes the content address of a change.
// The hash covers the author, its per-actor sequence number, its
// dependencies and every change record it produced.
func HashChange(actor string, seq uint64, deps Heads, patches []Patch) (ChangeHash, error) {
	depList := make([]any, len(deps))
	for i, d := range deps {
		depList[i] = string(d)
	}
	ops := make([]any, len(patches))
	for i, p := range patches {
		ops[i] = EncodePatch(p)
	}
	obj := map[string]any{
		"actor": actor,
		"seq":   seq,
		"deps":  depList,
		"ops":   ops,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("hash change: %w", err)
	}
	return ChangeHash(hashWithDomain(DomainChange, canonical)), nil
}
