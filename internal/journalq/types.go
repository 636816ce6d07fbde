package journalq

import "github.com/roach88/patchwire/internal/ir"

// Field names a filterable journal column.
type Field string

const (
	FieldDocument Field = "document"
	FieldBatch    Field = "batch"
	FieldObj      Field = "obj"
	FieldKind     Field = "kind"
)

// Predicate is a filter condition over journal rows.
type Predicate interface {
	predicateNode()
}

// Select reads journal rows matching Filter, in delivery order.
type Select struct {
	Filter Predicate // nil = every row
	Limit  int       // 0 = unlimited
}

// Equals matches rows whose Field equals Value.
type Equals struct {
	Field Field
	Value ir.ScalarValue
}

func (Equals) predicateNode() {}

// And matches rows satisfying every predicate. An empty And matches all rows.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Where joins the non-nil predicates into a filter. It returns nil when none
// remain and the single predicate when only one does.
func Where(preds ...Predicate) Predicate {
	var kept []Predicate
	for _, p := range preds {
		if p != nil {
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return And{Predicates: kept}
	}
}
