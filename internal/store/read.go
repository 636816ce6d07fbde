package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/patchwire/internal/ir"
	"github.com/roach88/patchwire/internal/journalq"
)

// Delivery is one journaled patch.
type Delivery struct {
	Seq      int64
	Document string
	Batch    int64
	Position int
	Obj      ir.ObjID
	Kind     ir.PatchKind
	Patch    json.RawMessage
}

// Batch is the journaled rows of one delivered batch, in position order.
type Batch struct {
	Document string
	Number   int64
	Patches  []Delivery
}

// ReadDocument returns every journaled batch for document in delivery order.
//
// Returns an empty slice (not nil) if nothing was journaled.
func (s *Store) ReadDocument(ctx context.Context, document string) ([]Batch, error) {
	deliveries, err := s.Select(ctx, journalq.Select{
		Filter: journalq.Equals{Field: journalq.FieldDocument, Value: ir.String(document)},
	})
	if err != nil {
		return nil, fmt.Errorf("read document %q: %w", document, err)
	}

	batches := []Batch{}
	for _, d := range deliveries {
		if n := len(batches); n > 0 && batches[n-1].Number == d.Batch {
			batches[n-1].Patches = append(batches[n-1].Patches, d)
			continue
		}
		batches = append(batches, Batch{Document: d.Document, Number: d.Batch, Patches: []Delivery{d}})
	}
	return batches, nil
}

// ReadObject returns every journaled patch touching obj, across documents,
// in delivery order.
//
// Returns an empty slice (not nil) if nothing was journaled.
func (s *Store) ReadObject(ctx context.Context, obj ir.ObjID) ([]Delivery, error) {
	deliveries, err := s.Select(ctx, journalq.Select{
		Filter: journalq.Equals{Field: journalq.FieldObj, Value: ir.String(obj)},
	})
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", obj, err)
	}
	return deliveries, nil
}

// ReadAll returns every journaled patch in delivery order.
func (s *Store) ReadAll(ctx context.Context) ([]Delivery, error) {
	deliveries, err := s.Select(ctx, journalq.Select{})
	if err != nil {
		return nil, fmt.Errorf("read all: %w", err)
	}
	return deliveries, nil
}

// Documents returns the distinct document names in the journal, in order
// of first delivery.
func (s *Store) Documents(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document
		FROM deliveries
		GROUP BY document
		ORDER BY MIN(seq) ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	docs := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// Select returns the journaled patches matching q, in delivery order.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) Select(ctx context.Context, q journalq.Select) ([]Delivery, error) {
	query, args, err := journalq.Compile(q)
	if err != nil {
		return nil, err
	}
	return s.query(ctx, query, args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Delivery, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	defer rows.Close()

	deliveries := []Delivery{}
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deliveries: %w", err)
	}
	return deliveries, nil
}

func scanDelivery(rows *sql.Rows) (Delivery, error) {
	var (
		d     Delivery
		obj   string
		kind  string
		patch string
	)
	if err := rows.Scan(&d.Seq, &d.Document, &d.Batch, &d.Position, &obj, &kind, &patch); err != nil {
		return Delivery{}, fmt.Errorf("scan delivery: %w", err)
	}
	d.Obj = ir.ObjID(obj)
	d.Kind = ir.PatchKind(kind)
	d.Patch = json.RawMessage(patch)
	return d, nil
}
