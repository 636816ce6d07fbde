package crdt

import (
	"fmt"

	"github.com/roach88/patchwire/internal/ir"
)

// commit appends one change holding patches to the history.
// A mutation that produced no patches records nothing.
// Caller must hold d.mu.
func (d *Doc) commit(patches ...ir.Patch) error {
	if len(patches) == 0 {
		return nil
	}
	seq := uint64(len(d.history) + 1)
	hash, err := ir.HashChange(d.actor, seq, d.headsLocked(), patches)
	if err != nil {
		return fmt.Errorf("commit change %d: %w", seq, err)
	}
	d.index[hash] = len(d.history)
	d.history = append(d.history, change{hash: hash, patches: patches})
	return nil
}

// Heads returns the snapshot marker for the current state.
func (d *Doc) Heads() ir.Heads {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.headsLocked()
}

func (d *Doc) headsLocked() ir.Heads {
	if len(d.history) == 0 {
		return nil
	}
	return ir.NewHeads(d.history[len(d.history)-1].hash)
}

// Changes returns the number of changes in the history.
func (d *Doc) Changes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.history)
}

// Difference returns every change record applied between the states named
// by before and after, in the order they were applied.
//
// Both markers must come from this document. The history is linear, so
// after must not precede before.
func (d *Doc) Difference(before, after ir.Heads) ([]ir.Patch, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	from, err := d.position(before)
	if err != nil {
		return nil, fmt.Errorf("difference from %s: %w", before, err)
	}
	to, err := d.position(after)
	if err != nil {
		return nil, fmt.Errorf("difference to %s: %w", after, err)
	}
	if from > to {
		return nil, fmt.Errorf("%w: %s is newer than %s", ErrReverseDifference, before, after)
	}

	var patches []ir.Patch
	for _, c := range d.history[from:to] {
		patches = append(patches, c.patches...)
	}
	return patches, nil
}

// position returns how many changes the state named by h contains.
// Caller must hold d.mu.
func (d *Doc) position(h ir.Heads) (int, error) {
	switch len(h) {
	case 0:
		return 0, nil
	case 1:
		i, ok := d.index[h[0]]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnknownHeads, h[0].Short())
		}
		return i + 1, nil
	default:
		return 0, fmt.Errorf("%w: linear history has one head, got %d", ErrUnknownHeads, len(h))
	}
}
