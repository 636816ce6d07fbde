package engine

import (
	"github.com/roach88/patchwire/internal/ir"
)

// MapPatches returns the publisher of map patches for map id.
// Every call with the same id returns the same publisher.
//
// Delivering a record a map cannot hold panics with a *ConsistencyError.
func (e *Engine) MapPatches(id ir.ObjID) *Publisher[[]ir.MapPatch] {
	return typedPublisher(e, e.mapPubs, id, TranslateMap)
}

// ListPatches returns the publisher of list patches for list id.
// Every call with the same id returns the same publisher.
//
// Delivering a record a list cannot hold panics with a *ConsistencyError.
func (e *Engine) ListPatches(id ir.ObjID) *Publisher[[]ir.ListPatch] {
	return typedPublisher(e, e.listPubs, id, TranslateList)
}

// TextPatches returns the publisher of text patches for text id.
// Every call with the same id returns the same publisher.
//
// Delivering a record a text object cannot hold panics with a
// *ConsistencyError.
func (e *Engine) TextPatches(id ir.ObjID) *Publisher[[]ir.TextPatch] {
	return typedPublisher(e, e.textPubs, id, TranslateText)
}

// typedPublisher returns the cached typed publisher for id, creating it and
// its forwarder on first use. The forwarder translates each object batch
// once, and only while the typed publisher has subscribers.
func typedPublisher[T any](
	e *Engine,
	cache map[ir.ObjID]*Publisher[[]T],
	id ir.ObjID,
	conv func(ir.ObjID, []ir.Patch) ([]T, error),
) *Publisher[[]T] {
	e.mu.Lock()
	defer e.mu.Unlock()

	if pub, ok := cache[id]; ok {
		return pub
	}

	pub := NewPublisher[[]T]()
	cache[id] = pub
	e.objectPublisherLocked(id).Subscribe(func(batch []ir.Patch) {
		if pub.Len() == 0 {
			return
		}
		out, err := conv(id, batch)
		if err != nil {
			e.logger.Error("consistency violation", "obj", id, "error", err)
			panic(err)
		}
		pub.Publish(out)
	})
	return pub
}
