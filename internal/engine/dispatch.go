package engine

import (
	"github.com/roach88/patchwire/internal/ir"
)

// Run is a maximal stretch of consecutive records for one object.
type Run struct {
	Obj     ir.ObjID
	Patches []ir.Patch
}

// SplitRuns partitions patches into runs of consecutive records with the
// same object, preserving order. Records for one object separated by
// another object's records land in separate runs.
func SplitRuns(patches []ir.Patch) []Run {
	var runs []Run
	for _, p := range patches {
		if n := len(runs); n > 0 && runs[n-1].Obj == p.Obj() {
			runs[n-1].Patches = append(runs[n-1].Patches, p)
			continue
		}
		runs = append(runs, Run{Obj: p.Obj(), Patches: []ir.Patch{p}})
	}
	return runs
}

// flushLocked moves the buffers onto the delivery queue: one document batch
// first, then one batch per run in order. Runs for unobserved objects are
// dropped. Caller must hold the delivery lock and e.mu, and drain the queue
// after releasing e.mu.
func (e *Engine) flushLocked() {
	doc, obj := e.pendingDoc, e.pendingObj
	e.pendingDoc, e.pendingObj = nil, nil

	if e.docPub != nil && len(doc) > 0 {
		pub := e.docPub
		e.queue.push(func() {
			e.metrics.delivered(ScopeDocument)
			pub.Publish(doc)
		})
	}

	runs := SplitRuns(obj)
	dropped := 0
	for _, run := range runs {
		pub, ok := e.objPubs[run.Obj]
		if !ok {
			dropped++
			continue
		}
		batch := run.Patches
		e.queue.push(func() {
			e.metrics.delivered(ScopeObject)
			pub.Publish(batch)
		})
	}
	e.metrics.dropped(dropped)

	if len(doc) > 0 || len(runs) > 0 {
		e.logger.Debug("flush",
			"doc_patches", len(doc),
			"runs", len(runs),
			"dropped_runs", dropped,
		)
	}
}
