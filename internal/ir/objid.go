package ir

import (
	"fmt"
	"strconv"
)

// ObjID names one container inside a document.
// Stable for the container's lifetime and never recycled.
type ObjID string

// Root is the identifier of every document's root map.
const Root ObjID = "_root"

// String returns the identifier text.
func (id ObjID) String() string {
	return string(id)
}

// ObjType is the container kind behind an ObjID.
type ObjType int

const (
	// ObjTypeMap is a string-keyed map.
	ObjTypeMap ObjType = iota + 1
	// ObjTypeList is an index-addressed sequence of values.
	ObjTypeList
	// ObjTypeText is a sequence of Unicode scalars.
	ObjTypeText
)

// String returns the lower-case kind name used in JSON and scenario files.
func (t ObjType) String() string {
	switch t {
	case ObjTypeMap:
		return "map"
	case ObjTypeList:
		return "list"
	case ObjTypeText:
		return "text"
	default:
		return fmt.Sprintf("objtype(%d)", int(t))
	}
}

// ParseObjType parses "map", "list" or "text".
func ParseObjType(s string) (ObjType, error) {
	switch s {
	case "map":
		return ObjTypeMap, nil
	case "list":
		return ObjTypeList, nil
	case "text":
		return ObjTypeText, nil
	default:
		return 0, fmt.Errorf("unknown object type %q", s)
	}
}

// Prop addresses a slot inside a container.
// Sealed: only Key and Index implement it.
type Prop interface {
	prop()
	String() string
}

// Key addresses a map entry.
type Key string

func (Key) prop() {}

// String returns the key itself.
func (k Key) String() string { return string(k) }

// Index addresses a list element or text scalar.
type Index uint64

func (Index) prop() {}

// String returns the decimal index.
func (i Index) String() string { return strconv.FormatUint(uint64(i), 10) }

// Mark is a formatting span over a text object.
// Start and End are scalar offsets, End is exclusive.
type Mark struct {
	Start uint64
	End   uint64
	Name  string
	Value ScalarValue
}

// Range is a half-open span of sequence indexes.
type Range struct {
	Start uint64
	End   uint64
}

// Len returns the number of indexes covered.
func (r Range) Len() uint64 {
	return r.End - r.Start
}

// String renders the range as start..<end.
func (r Range) String() string {
	return fmt.Sprintf("%d..<%d", r.Start, r.End)
}
