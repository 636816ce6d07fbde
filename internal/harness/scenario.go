package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/patchwire/internal/ir"
)

// DocTarget is the subscription target for whole-document batches.
const DocTarget = "doc"

// Scenario defines a delivery scenario.
type Scenario struct {
	// Name uniquely identifies this scenario; golden files are named after it.
	Name string `yaml:"name" json:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description" json:"description"`

	// Actor fixes the document actor so object ids are reproducible.
	// If empty, a random actor is used.
	Actor string `yaml:"actor,omitempty" json:"actor,omitempty"`

	// Objects are created, in order, before any subscription exists.
	Objects []Object `yaml:"objects" json:"objects"`

	// Subscribe lists the subscriptions, in subscription order.
	Subscribe []Subscription `yaml:"subscribe" json:"subscribe"`

	// Steps are the mutations under test.
	Steps []Step `yaml:"steps" json:"steps"`

	// Assertions validate what was delivered and the final state.
	Assertions []Assertion `yaml:"assertions" json:"assertions"`
}

// Object declares a named container.
type Object struct {
	// Name is how steps, subscriptions and assertions refer to it.
	Name string `yaml:"name" json:"name"`

	// Type is "map", "list" or "text".
	Type string `yaml:"type" json:"type"`

	// Key is the map key the container is created under.
	Key string `yaml:"key" json:"key"`

	// Parent names an earlier map object; empty means the root map.
	Parent string `yaml:"parent,omitempty" json:"parent,omitempty"`
}

// Subscription subscribes to a named object or, with target "doc", to the
// whole document.
type Subscription struct {
	Target string `yaml:"target" json:"target"`

	// Raw receives ir.Patch batches instead of the container's typed
	// patches. Document subscriptions are always raw.
	Raw bool `yaml:"raw,omitempty" json:"raw,omitempty"`
}

// Label identifies the subscription in deliveries and assertions.
func (s Subscription) Label() string {
	return label(s.Target, s.Raw)
}

func label(target string, raw bool) string {
	if raw && target != DocTarget {
		return target + "/raw"
	}
	return target
}

// Step is one mutation, or a group of nested steps.
// Which fields apply depends on Op and on the target's container type.
type Step struct {
	Op     string `yaml:"op" json:"op"`
	Target string `yaml:"target,omitempty" json:"target,omitempty"`

	Key   string `yaml:"key,omitempty" json:"key,omitempty"`
	Index uint64 `yaml:"index,omitempty" json:"index,omitempty"`
	Start uint64 `yaml:"start,omitempty" json:"start,omitempty"`
	End   uint64 `yaml:"end,omitempty" json:"end,omitempty"`

	Value  any    `yaml:"value,omitempty" json:"value,omitempty"`
	Values []any  `yaml:"values,omitempty" json:"values,omitempty"`
	Text   string `yaml:"text,omitempty" json:"text,omitempty"`
	By     int64  `yaml:"by,omitempty" json:"by,omitempty"`

	// Name is the mark name for mark, and the new object's name for
	// put_object.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// Type is the container type for put_object.
	Type string `yaml:"type,omitempty" json:"type,omitempty"`

	// Steps are the nested steps of a group.
	Steps []Step `yaml:"steps,omitempty" json:"steps,omitempty"`
}

// Assertion validates deliveries or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "batch_count": number of batches a subscription received
	// - "batch_sizes": patch count of each batch
	// - "text_equals": final content of a text object
	// - "length": final length of a container
	Type string `yaml:"type" json:"type"`

	// Target is a subscription target (batch_*) or an object name.
	Target string `yaml:"target" json:"target"`

	// Raw selects the raw subscription on Target (batch_*).
	Raw bool `yaml:"raw,omitempty" json:"raw,omitempty"`

	// Count is the expected batch count (batch_count) or length (length).
	Count int `yaml:"count,omitempty" json:"count,omitempty"`

	// Sizes is the expected patch count per batch (batch_sizes).
	Sizes []int `yaml:"sizes,omitempty" json:"sizes,omitempty"`

	// Text is the expected content (text_equals).
	Text string `yaml:"text,omitempty" json:"text,omitempty"`
}

// Assertion type constants.
const (
	AssertBatchCount = "batch_count"
	AssertBatchSizes = "batch_sizes"
	AssertTextEquals = "text_equals"
	AssertLength     = "length"
)

// Step op constants.
const (
	OpPut              = "put"
	OpPutObject        = "put_object"
	OpDelete           = "delete"
	OpIncrement        = "increment"
	OpInsert           = "insert"
	OpSet              = "set"
	OpReplace          = "replace"
	OpRemove           = "remove"
	OpSpliceText       = "splice_text"
	OpSetText          = "set_text"
	OpReplaceGraphemes = "replace_graphemes"
	OpMark             = "mark"
	OpGroup            = "group"
)

// opTargets lists the container types each op accepts.
var opTargets = map[string][]ir.ObjType{
	OpPut:              {ir.ObjTypeMap},
	OpPutObject:        {ir.ObjTypeMap},
	OpDelete:           {ir.ObjTypeMap},
	OpIncrement:        {ir.ObjTypeMap, ir.ObjTypeList},
	OpInsert:           {ir.ObjTypeList, ir.ObjTypeText},
	OpSet:              {ir.ObjTypeList},
	OpReplace:          {ir.ObjTypeList},
	OpRemove:           {ir.ObjTypeList},
	OpSpliceText:       {ir.ObjTypeText},
	OpSetText:          {ir.ObjTypeText},
	OpReplaceGraphemes: {ir.ObjTypeText},
	OpMark:             {ir.ObjTypeText},
}

// LoadScenario reads and parses a scenario file. The format follows the
// extension: .cue is CUE, anything else is YAML.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or fails validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario *Scenario
	if filepath.Ext(path) == ".cue" {
		scenario, err = parseCUE(path, data)
	} else {
		scenario, err = parseYAML(data)
	}
	if err != nil {
		return nil, err
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseScenario parses and validates YAML scenario content.
func ParseScenario(data []byte) (*Scenario, error) {
	scenario, err := parseYAML(data)
	if err != nil {
		return nil, err
	}
	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

func parseYAML(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// parseCUE evaluates a CUE file and decodes it through JSON, so unknown
// fields are rejected the same way YAML rejects them.
func parseCUE(path string, data []byte) (*Scenario, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("failed to compile CUE: %w", err)
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("CUE scenario is not concrete: %w", err)
	}

	raw, err := value.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to export CUE: %w", err)
	}

	var scenario Scenario
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	decoder.UseNumber()
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to decode CUE scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and that every
// name a step, subscription or assertion uses was declared.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	types := make(map[string]ir.ObjType)
	for i, obj := range s.Objects {
		if err := validateObject(i, obj, types); err != nil {
			return err
		}
		typ, _ := ir.ParseObjType(obj.Type)
		types[obj.Name] = typ
	}

	subscribed := make(map[string]bool)
	for i, sub := range s.Subscribe {
		if sub.Target == "" {
			return fmt.Errorf("subscribe[%d]: target is required", i)
		}
		if _, ok := types[sub.Target]; !ok && sub.Target != DocTarget {
			return fmt.Errorf("subscribe[%d]: unknown target %q", i, sub.Target)
		}
		if subscribed[sub.Label()] {
			return fmt.Errorf("subscribe[%d]: duplicate subscription %q", i, sub.Label())
		}
		subscribed[sub.Label()] = true
	}

	// put_object steps declare objects too; collect them after subscriptions,
	// which only see declared objects.
	if err := collectStepObjects("steps", s.Steps, types); err != nil {
		return err
	}

	if err := validateSteps("steps", s.Steps, types); err != nil {
		return err
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a, types, subscribed); err != nil {
			return err
		}
	}

	return nil
}

func validateObject(index int, obj Object, types map[string]ir.ObjType) error {
	if obj.Name == "" {
		return fmt.Errorf("objects[%d]: name is required", index)
	}
	if obj.Name == DocTarget {
		return fmt.Errorf("objects[%d]: name %q is reserved", index, DocTarget)
	}
	if _, dup := types[obj.Name]; dup {
		return fmt.Errorf("objects[%d]: duplicate name %q", index, obj.Name)
	}
	if _, err := ir.ParseObjType(obj.Type); err != nil {
		return fmt.Errorf("objects[%d]: %w", index, err)
	}
	if obj.Key == "" {
		return fmt.Errorf("objects[%d]: key is required", index)
	}
	if obj.Parent != "" {
		typ, ok := types[obj.Parent]
		if !ok {
			return fmt.Errorf("objects[%d]: unknown parent %q", index, obj.Parent)
		}
		if typ != ir.ObjTypeMap {
			return fmt.Errorf("objects[%d]: parent %q is a %s, not a map", index, obj.Parent, typ)
		}
	}
	return nil
}

func collectStepObjects(path string, steps []Step, types map[string]ir.ObjType) error {
	for i, step := range steps {
		at := fmt.Sprintf("%s[%d]", path, i)
		switch step.Op {
		case OpGroup:
			if err := collectStepObjects(at+".steps", step.Steps, types); err != nil {
				return err
			}
		case OpPutObject:
			if step.Name == "" {
				return fmt.Errorf("%s: name is required for put_object", at)
			}
			if step.Name == DocTarget {
				return fmt.Errorf("%s: name %q is reserved", at, DocTarget)
			}
			if _, dup := types[step.Name]; dup {
				return fmt.Errorf("%s: duplicate name %q", at, step.Name)
			}
			typ, err := ir.ParseObjType(step.Type)
			if err != nil {
				return fmt.Errorf("%s: %w", at, err)
			}
			types[step.Name] = typ
		}
	}
	return nil
}

func validateSteps(path string, steps []Step, types map[string]ir.ObjType) error {
	for i, step := range steps {
		at := fmt.Sprintf("%s[%d]", path, i)
		if step.Op == "" {
			return fmt.Errorf("%s: op is required", at)
		}
		if step.Op == OpGroup {
			if step.Target != "" {
				return fmt.Errorf("%s: group takes no target", at)
			}
			if err := validateSteps(at+".steps", step.Steps, types); err != nil {
				return err
			}
			continue
		}

		accepted, ok := opTargets[step.Op]
		if !ok {
			return fmt.Errorf("%s: unknown op %q", at, step.Op)
		}
		if len(step.Steps) > 0 {
			return fmt.Errorf("%s: only group takes steps", at)
		}
		if step.Target == "" {
			return fmt.Errorf("%s: target is required for %s", at, step.Op)
		}
		typ, ok := types[step.Target]
		if !ok {
			return fmt.Errorf("%s: unknown target %q", at, step.Target)
		}
		if !slices.Contains(accepted, typ) {
			return fmt.Errorf("%s: %s does not apply to %s %q", at, step.Op, typ, step.Target)
		}
		if err := validateStepFields(at, step, typ); err != nil {
			return err
		}
	}
	return nil
}

func validateStepFields(at string, step Step, typ ir.ObjType) error {
	switch step.Op {
	case OpPut, OpPutObject, OpDelete:
		if step.Key == "" {
			return fmt.Errorf("%s: key is required for %s", at, step.Op)
		}
	case OpIncrement:
		if typ == ir.ObjTypeMap && step.Key == "" {
			return fmt.Errorf("%s: key is required for increment on a map", at)
		}
	case OpInsert:
		if typ == ir.ObjTypeList && step.Value == nil && len(step.Values) == 0 {
			return fmt.Errorf("%s: value or values is required for insert on a list", at)
		}
		if typ == ir.ObjTypeText && step.Text == "" {
			return fmt.Errorf("%s: text is required for insert on text", at)
		}
	case OpReplace, OpSpliceText, OpReplaceGraphemes:
		if step.End < step.Start {
			return fmt.Errorf("%s: end %d is before start %d", at, step.End, step.Start)
		}
		// grapheme offsets are ints in the text API
		if step.Op == OpReplaceGraphemes && step.End > math.MaxInt {
			return fmt.Errorf("%s: end %d is out of range for replace_graphemes", at, step.End)
		}
	case OpMark:
		if step.Name == "" {
			return fmt.Errorf("%s: name is required for mark", at)
		}
		if step.End <= step.Start {
			return fmt.Errorf("%s: mark needs start < end, got %d..%d", at, step.Start, step.End)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, types map[string]ir.ObjType, subscribed map[string]bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Target == "" {
		return fmt.Errorf("assertions[%d]: target is required", index)
	}

	switch a.Type {
	case AssertBatchCount, AssertBatchSizes:
		if !subscribed[label(a.Target, a.Raw)] {
			return fmt.Errorf("assertions[%d]: no subscription %q", index, label(a.Target, a.Raw))
		}
		if a.Type == AssertBatchCount && a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for batch_count", index)
		}
	case AssertTextEquals:
		typ, ok := types[a.Target]
		if !ok {
			return fmt.Errorf("assertions[%d]: unknown object %q", index, a.Target)
		}
		if typ != ir.ObjTypeText {
			return fmt.Errorf("assertions[%d]: text_equals needs a text object, %q is a %s", index, a.Target, typ)
		}
	case AssertLength:
		if _, ok := types[a.Target]; !ok {
			return fmt.Errorf("assertions[%d]: unknown object %q", index, a.Target)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for length", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
