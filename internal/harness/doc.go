// Package harness runs patch delivery scenarios against a live document.
//
// A scenario declares containers, subscribes to them, mutates them (alone
// or inside groups), and asserts on the batches each subscription received.
// Every delivery is recorded in order, so a run can also be compared
// against a golden file.
//
// # Scenario Format
//
// Scenarios are YAML (.yaml, .yml) or CUE (.cue) files with the same
// field names:
//
//	name: interleaved
//	description: "runs on different maps keep their order"
//	actor: aa
//	objects:
//	  - {name: m1, type: map, key: m1}
//	  - {name: l, type: list, key: items}
//	subscribe:
//	  - {target: m1}             # typed MapPatch batches
//	  - {target: l, raw: true}   # raw change records
//	  - {target: doc}            # every batch for the whole document
//	steps:
//	  - {op: put, target: m1, key: a, value: 1}
//	  - op: group
//	    steps:
//	      - {op: insert, target: l, index: 0, values: [x, y]}
//	assertions:
//	  - {type: batch_count, target: m1, count: 1}
//	  - {type: batch_sizes, target: l, raw: true, sizes: [1]}
//	  - {type: length, target: l, count: 2}
//
// Unknown fields are rejected so typos fail at load time.
//
// # Operations
//
//   - put, delete, increment, put_object: map edits by key
//   - insert, set, replace, remove, increment: list edits by index
//   - insert, splice_text, set_text, replace_graphemes, mark: text edits
//   - group: nested steps delivered as one transaction
//
// # Assertions
//
//   - batch_count: number of batches a subscription received
//   - batch_sizes: patch count of each batch, in delivery order
//   - text_equals: final content of a text object
//   - length: final length of any container
//
// # Golden Files
//
// RunWithGolden compares the canonical JSON of every delivery against
// testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
