package journalq

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/patchwire/internal/ir"
)

// Columns is the column list every compiled query selects, in scan order.
const Columns = "seq, document, batch, position, obj, kind, patch"

// Compile converts q to parameterized SQL for SQLite.
// Returns (sql, params, error).
//
// The query is validated first; every query ends in ORDER BY seq ASC.
func Compile(q Select) (string, []any, error) {
	if err := Validate(q); err != nil {
		return "", nil, fmt.Errorf("invalid query: %w", err)
	}

	var b strings.Builder
	b.WriteString("SELECT " + Columns + " FROM deliveries")

	var params []any
	if q.Filter != nil {
		where, whereParams, err := compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		b.WriteString(" WHERE " + where)
		params = whereParams
	}

	b.WriteString(" ORDER BY seq ASC")
	if q.Limit > 0 {
		b.WriteString(" LIMIT ?")
		params = append(params, q.Limit)
	}
	return b.String(), params, nil
}

func compilePredicate(p Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case nil:
		return "1 = 1", nil, nil
	case Equals:
		return compileEquals(pred)
	case *Equals:
		return compileEquals(*pred)
	case And:
		return compileAnd(pred)
	case *And:
		return compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compileEquals(eq Equals) (string, []any, error) {
	param, err := valueToParam(eq.Value)
	if err != nil {
		return "", nil, fmt.Errorf("field %s: %w", eq.Field, err)
	}
	return string(eq.Field) + " = ?", []any{param}, nil
}

func compileAnd(and And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, sub := range and.Predicates {
		sql, subParams, err := compilePredicate(sub)
		if err != nil {
			return "", nil, err
		}
		if _, nested := sub.(And); nested && len(and.Predicates) > 1 {
			sql = "(" + sql + ")"
		}
		parts = append(parts, sql)
		params = append(params, subParams...)
	}
	return strings.Join(parts, " AND "), params, nil
}

// valueToParam converts a scalar to a database/sql parameter.
func valueToParam(v ir.ScalarValue) (any, error) {
	switch val := v.(type) {
	case ir.String:
		return string(val), nil
	case ir.Int:
		return int64(val), nil
	case ir.Uint:
		if uint64(val) > math.MaxInt64 {
			return nil, fmt.Errorf("uint %d overflows int64", uint64(val))
		}
		return int64(val), nil
	default:
		return nil, fmt.Errorf("unsupported value type for SQL parameter: %T", v)
	}
}
