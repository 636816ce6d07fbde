// Package journalq builds parameterized SQLite queries over the delivery
// journal.
//
// A query is a Select over the deliveries table with an optional filter
// tree of Equals and And predicates:
//
//	Select{
//	  Filter: And{Predicates: []Predicate{
//	    Equals{Field: FieldDocument, Value: ir.String("interleaved")},
//	    Equals{Field: FieldKind, Value: ir.String("splice_text")},
//	  }},
//	}
//
// compiles to
//
//	SELECT seq, document, batch, position, obj, kind, patch
//	FROM deliveries WHERE document = ? AND kind = ? ORDER BY seq ASC
//
// Every compiled query orders by seq, so results always come back in
// delivery order. Values are never interpolated into the SQL text.
//
// Predicate is sealed: only types in this package implement it, and the
// compiler switches over them exhaustively.
package journalq
