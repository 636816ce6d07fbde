package ir

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Value is anything a container slot can hold: a scalar or a nested object.
// Sealed: only the scalar types below and ObjectValue implement it.
type Value interface {
	value()
}

// ScalarValue is a leaf value. Every ScalarValue is also a Value.
type ScalarValue interface {
	Value
	scalar()
}

// Null is the explicit null scalar.
type Null struct{}

// String is a UTF-8 string scalar.
type String string

// Int is a signed 64-bit integer scalar.
type Int int64

// Uint is an unsigned 64-bit integer scalar.
type Uint uint64

// F64 is a 64-bit float scalar.
// Floats never reach canonical JSON as numbers, see EncodeValue.
type F64 float64

// Bool is a boolean scalar.
type Bool bool

// Bytes is an opaque byte string scalar.
type Bytes []byte

// Counter is an integer that merges by summing increments.
type Counter int64

// Timestamp is milliseconds since the Unix epoch.
type Timestamp int64

func (Null) value()      {}
func (String) value()    {}
func (Int) value()       {}
func (Uint) value()      {}
func (F64) value()       {}
func (Bool) value()      {}
func (Bytes) value()     {}
func (Counter) value()   {}
func (Timestamp) value() {}

func (Null) scalar()      {}
func (String) scalar()    {}
func (Int) scalar()       {}
func (Uint) scalar()      {}
func (F64) scalar()       {}
func (Bool) scalar()      {}
func (Bytes) scalar()     {}
func (Counter) scalar()   {}
func (Timestamp) scalar() {}

// ObjectValue is a reference to a nested container.
type ObjectValue struct {
	ID   ObjID
	Type ObjType
}

func (ObjectValue) value() {}

// ScalarFromAny converts a decoded YAML, CUE or JSON scalar into a ScalarValue.
// Whole floats stay floats; use an int literal for Int.
func ScalarFromAny(v any) (ScalarValue, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case ScalarValue:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint:
		return Uint(val), nil
	case uint32:
		return Uint(val), nil
	case uint64:
		return Uint(val), nil
	case float32:
		return F64(val), nil
	case float64:
		return F64(val), nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", val.String(), err)
		}
		return F64(f), nil
	case []byte:
		return Bytes(val), nil
	default:
		return nil, fmt.Errorf("unsupported scalar type: %T", v)
	}
}

// EncodeValue returns a JSON-shaped tree for v.
//
// Plain JSON types map directly. Types JSON cannot tell apart are tagged:
//
//	F64(1.5)         → {"f64": "1.5"}
//	Bytes{1,2}       → {"bytes": "AQI="}
//	Counter(3)       → {"counter": 3}
//	Timestamp(100)   → {"timestamp": 100}
//	ObjectValue{...} → {"object": "1@aa", "type": "list"}
func EncodeValue(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case String:
		return string(val)
	case Int:
		return int64(val)
	case Uint:
		return uint64(val)
	case F64:
		f := float64(val)
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return map[string]any{"f64": fmt.Sprintf("%v", f)}
		}
		return map[string]any{"f64": strconv.FormatFloat(f, 'g', -1, 64)}
	case Bool:
		return bool(val)
	case Bytes:
		return map[string]any{"bytes": base64.StdEncoding.EncodeToString(val)}
	case Counter:
		return map[string]any{"counter": int64(val)}
	case Timestamp:
		return map[string]any{"timestamp": int64(val)}
	case ObjectValue:
		return map[string]any{"object": string(val.ID), "type": val.Type.String()}
	default:
		return fmt.Sprintf("%T", v)
	}
}

// EncodeValues encodes a slice of values.
func EncodeValues(vals []Value) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = EncodeValue(v)
	}
	return out
}

// EncodeMarkSet encodes the marks active at a text insertion.
func EncodeMarkSet(marks map[string]Value) map[string]any {
	out := make(map[string]any, len(marks))
	for k, v := range marks {
		out[k] = EncodeValue(v)
	}
	return out
}

// EncodeMarks encodes mark spans in order.
func EncodeMarks(marks []Mark) []any {
	out := make([]any, len(marks))
	for i, m := range marks {
		out[i] = map[string]any{
			"start": m.Start,
			"end":   m.End,
			"name":  m.Name,
			"value": EncodeValue(m.Value),
		}
	}
	return out
}

// FormatValue renders a value for human-readable output.
func FormatValue(v Value) string {
	if s, ok := v.(String); ok {
		return strconv.Quote(string(s))
	}
	data, err := MarshalCanonical(EncodeValue(v))
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
