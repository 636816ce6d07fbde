package journalq

import (
	"fmt"

	"github.com/roach88/patchwire/internal/ir"
)

// Validate checks that every Equals names a known field and carries a value
// of the column's type. It returns the first problem found.
func Validate(q Select) error {
	if q.Limit < 0 {
		return fmt.Errorf("negative limit %d", q.Limit)
	}
	return validatePredicate(q.Filter)
}

func validatePredicate(p Predicate) error {
	switch pred := p.(type) {
	case nil:
		return nil
	case Equals:
		return validateEquals(pred)
	case *Equals:
		return validateEquals(*pred)
	case And:
		return validateAnd(pred)
	case *And:
		return validateAnd(*pred)
	default:
		return fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func validateEquals(eq Equals) error {
	switch eq.Field {
	case FieldDocument, FieldObj, FieldKind:
		if _, ok := eq.Value.(ir.String); !ok {
			return fmt.Errorf("field %s compares to text, got %T", eq.Field, eq.Value)
		}
	case FieldBatch:
		switch eq.Value.(type) {
		case ir.Int, ir.Uint:
		default:
			return fmt.Errorf("field %s compares to an integer, got %T", eq.Field, eq.Value)
		}
	default:
		return fmt.Errorf("unknown field %q", eq.Field)
	}
	return nil
}

func validateAnd(and And) error {
	for i, sub := range and.Predicates {
		if err := validatePredicate(sub); err != nil {
			return fmt.Errorf("and[%d]: %w", i, err)
		}
	}
	return nil
}
