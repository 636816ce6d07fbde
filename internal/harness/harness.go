package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/patchwire/internal/document"
	"github.com/roach88/patchwire/internal/engine"
	"github.com/roach88/patchwire/internal/ir"
	"github.com/roach88/patchwire/internal/store"
	"github.com/roach88/patchwire/internal/testutil"
)

// Option configures a scenario run.
type Option func(*config)

type config struct {
	logger  *slog.Logger
	metrics *engine.Metrics
	journal *store.Store
	ctx     context.Context
}

// WithLogger sets the document's logger. Runs are silent by default.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithMetrics records engine metrics for the run.
func WithMetrics(m *engine.Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// WithJournal journals every whole-document batch to st under the
// scenario name.
func WithJournal(ctx context.Context, st *store.Store) Option {
	return func(c *config) {
		c.ctx = ctx
		c.journal = st
	}
}

// runner holds the state of one scenario execution.
type runner struct {
	doc       *document.Document
	ids       map[string]ir.ObjID
	recorders map[string]*testutil.Recorder[map[string]any]
	result    *Result
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh document. Objects are created before
// any subscription exists, so their creation is never delivered.
//
// Execution flow:
// 1. Create the document and the declared objects
// 2. Subscribe, recording every delivered batch in order
// 3. Execute steps, groups as one transaction each
// 4. Evaluate assertions against deliveries and final state
//
// A step that fails to apply is an execution error, not an assertion
// failure.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := config{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		ctx:    context.Background(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &runner{
		doc: document.New(
			document.WithActor(scenario.Actor),
			document.WithLogger(cfg.logger),
			document.WithMetrics(cfg.metrics),
		),
		ids:       make(map[string]ir.ObjID),
		recorders: make(map[string]*testutil.Recorder[map[string]any]),
		result:    NewResult(),
	}

	for i, obj := range scenario.Objects {
		if err := r.createObject(obj); err != nil {
			return nil, fmt.Errorf("objects[%d] %q: %w", i, obj.Name, err)
		}
	}

	var cancels []func()
	defer func() {
		for _, cancel := range cancels {
			cancel()
		}
	}()
	for i, sub := range scenario.Subscribe {
		cancel, err := r.subscribe(sub)
		if err != nil {
			return nil, fmt.Errorf("subscribe[%d]: %w", i, err)
		}
		cancels = append(cancels, cancel)
	}

	var journal *store.Recorder
	if cfg.journal != nil {
		journal = cfg.journal.NewRecorder(cfg.ctx, scenario.Name)
		cancels = append(cancels, r.doc.Patches().Subscribe(journal.Record))
	}

	if err := r.execute("steps", scenario.Steps); err != nil {
		return nil, fmt.Errorf("failed to execute steps: %w", err)
	}

	if journal != nil {
		if err := journal.Err(); err != nil {
			return nil, fmt.Errorf("failed to journal deliveries: %w", err)
		}
	}

	for i, a := range scenario.Assertions {
		if msg := r.evaluate(a); msg != "" {
			r.result.AddError(fmt.Sprintf("assertions[%d] %s %s: %s", i, a.Type, label(a.Target, a.Raw), msg))
		}
	}

	return r.result, nil
}

func (r *runner) createObject(obj Object) error {
	parent := r.doc.Root()
	if obj.Parent != "" {
		m, err := r.mapNamed(obj.Parent)
		if err != nil {
			return err
		}
		parent = m
	}
	id, err := putObject(parent, obj.Key, obj.Type)
	if err != nil {
		return err
	}
	r.ids[obj.Name] = id
	return nil
}

func putObject(m document.Map, key, typ string) (ir.ObjID, error) {
	t, err := ir.ParseObjType(typ)
	if err != nil {
		return "", err
	}
	switch t {
	case ir.ObjTypeMap:
		child, err := m.PutMap(key)
		return child.ID(), err
	case ir.ObjTypeList:
		child, err := m.PutList(key)
		return child.ID(), err
	default:
		child, err := m.PutText(key)
		return child.ID(), err
	}
}

func (r *runner) subscribe(sub Subscription) (func(), error) {
	lbl := sub.Label()
	rec := testutil.NewRecorder[map[string]any]()
	r.recorders[lbl] = rec
	deliver := func(patches []map[string]any) {
		rec.Sink(patches)
		r.result.Deliveries = append(r.result.Deliveries, Delivery{
			Subscription: lbl,
			Batch:        rec.Count(),
			Patches:      patches,
		})
	}

	if sub.Target == DocTarget {
		return r.doc.Patches().Subscribe(func(batch []ir.Patch) {
			deliver(encodeBatch(batch, ir.EncodePatch))
		}), nil
	}

	v, err := r.object(sub.Target)
	if err != nil {
		return nil, err
	}
	if sub.Raw {
		return r.doc.ObjectPatches(r.ids[sub.Target]).Subscribe(func(batch []ir.Patch) {
			deliver(encodeBatch(batch, ir.EncodePatch))
		}), nil
	}
	if m, ok := v.AsMap(); ok {
		return m.Patches().Subscribe(func(batch []ir.MapPatch) {
			deliver(encodeBatch(batch, ir.EncodeMapPatch))
		}), nil
	}
	if l, ok := v.AsList(); ok {
		return l.Patches().Subscribe(func(batch []ir.ListPatch) {
			deliver(encodeBatch(batch, ir.EncodeListPatch))
		}), nil
	}
	t, _ := v.AsText()
	return t.Patches().Subscribe(func(batch []ir.TextPatch) {
		deliver(encodeBatch(batch, ir.EncodeTextPatch))
	}), nil
}

func encodeBatch[T any](batch []T, encode func(T) map[string]any) []map[string]any {
	out := make([]map[string]any, len(batch))
	for i, p := range batch {
		out[i] = encode(p)
	}
	return out
}

// execute runs steps in order, stopping at the first failure.
func (r *runner) execute(path string, steps []Step) error {
	for i, step := range steps {
		at := fmt.Sprintf("%s[%d]", path, i)
		var err error
		if step.Op == OpGroup {
			err = r.doc.Group(func() error {
				return r.execute(at+".steps", step.Steps)
			})
			if err != nil {
				return err
			}
			continue
		}
		if err = r.apply(step); err != nil {
			return fmt.Errorf("%s %s %q: %w", at, step.Op, step.Target, err)
		}
	}
	return nil
}

// apply executes one non-group step.
func (r *runner) apply(step Step) error {
	v, err := r.object(step.Target)
	if err != nil {
		return err
	}
	if m, ok := v.AsMap(); ok {
		return r.applyMap(m, step)
	}
	if l, ok := v.AsList(); ok {
		return applyList(l, step)
	}
	t, _ := v.AsText()
	return applyText(t, step)
}

func (r *runner) applyMap(m document.Map, step Step) error {
	switch step.Op {
	case OpPut:
		val, err := decodeScalar(step.Value)
		if err != nil {
			return err
		}
		return m.Put(step.Key, val)
	case OpPutObject:
		id, err := putObject(m, step.Key, step.Type)
		if err != nil {
			return err
		}
		r.ids[step.Name] = id
		return nil
	case OpDelete:
		return m.Delete(step.Key)
	case OpIncrement:
		return m.Increment(step.Key, step.By)
	default:
		return fmt.Errorf("op %s does not apply to a map", step.Op)
	}
}

func applyList(l document.List, step Step) error {
	switch step.Op {
	case OpInsert:
		vals, err := stepValues(step)
		if err != nil {
			return err
		}
		return l.ReplaceRange(step.Index, step.Index, vals)
	case OpSet:
		val, err := decodeScalar(step.Value)
		if err != nil {
			return err
		}
		return l.Set(step.Index, val)
	case OpReplace:
		vals, err := stepValues(step)
		if err != nil {
			return err
		}
		return l.ReplaceRange(step.Start, step.End, vals)
	case OpRemove:
		return l.Remove(step.Index)
	case OpIncrement:
		return l.Increment(step.Index, step.By)
	default:
		return fmt.Errorf("op %s does not apply to a list", step.Op)
	}
}

func applyText(t document.Text, step Step) error {
	switch step.Op {
	case OpInsert:
		return t.Insert(step.Index, step.Text)
	case OpSpliceText:
		return t.ReplaceRange(step.Start, step.End, step.Text)
	case OpSetText:
		return t.SetString(step.Text)
	case OpReplaceGraphemes:
		return t.ReplaceGraphemes(int(step.Start), int(step.End), step.Text)
	case OpMark:
		var val ir.ScalarValue = ir.Bool(true)
		if step.Value != nil {
			var err error
			if val, err = decodeScalar(step.Value); err != nil {
				return err
			}
		}
		return t.Mark(step.Start, step.End, step.Name, val)
	default:
		return fmt.Errorf("op %s does not apply to text", step.Op)
	}
}

// stepValues returns values, or value alone when values is empty.
func stepValues(step Step) ([]ir.ScalarValue, error) {
	raw := step.Values
	if len(raw) == 0 && step.Value != nil {
		raw = []any{step.Value}
	}
	vals := make([]ir.ScalarValue, len(raw))
	for i, v := range raw {
		val, err := decodeScalar(v)
		if err != nil {
			return nil, fmt.Errorf("values[%d]: %w", i, err)
		}
		vals[i] = val
	}
	return vals, nil
}

// decodeScalar converts a scenario value. Plain values go through
// ir.ScalarFromAny; {counter: n} and {timestamp: n} select the tagged
// integer types, mirroring ir.EncodeValue.
func decodeScalar(v any) (ir.ScalarValue, error) {
	tagged, ok := v.(map[string]any)
	if !ok {
		return ir.ScalarFromAny(v)
	}
	if len(tagged) != 1 {
		return nil, fmt.Errorf("tagged value needs exactly one key, got %d", len(tagged))
	}
	for tag, raw := range tagged {
		n, err := decodeInt(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", tag, err)
		}
		switch tag {
		case "counter":
			return ir.Counter(n), nil
		case "timestamp":
			return ir.Timestamp(n), nil
		default:
			return nil, fmt.Errorf("unknown value tag %q", tag)
		}
	}
	return nil, nil
}

func decodeInt(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case json.Number:
		return n.Int64()
	default:
		return 0, fmt.Errorf("expected an integer, got %T", v)
	}
}

// evaluate checks one assertion and returns a failure message, or "" if
// it holds.
func (r *runner) evaluate(a Assertion) string {
	switch a.Type {
	case AssertBatchCount:
		got := r.recorders[label(a.Target, a.Raw)].Count()
		if got != a.Count {
			return fmt.Sprintf("expected %d batches, got %d", a.Count, got)
		}
	case AssertBatchSizes:
		got := r.recorders[label(a.Target, a.Raw)].Sizes()
		if !slices.Equal(got, a.Sizes) {
			return fmt.Sprintf("expected batch sizes %v, got %v", a.Sizes, got)
		}
	case AssertTextEquals:
		v, err := r.object(a.Target)
		if err != nil {
			return err.Error()
		}
		t, _ := v.AsText()
		got, err := t.String()
		if err != nil {
			return err.Error()
		}
		if got != a.Text {
			return fmt.Sprintf("expected %q, got %q", a.Text, got)
		}
	case AssertLength:
		got, err := r.length(a.Target)
		if err != nil {
			return err.Error()
		}
		if got != uint64(a.Count) {
			return fmt.Sprintf("expected length %d, got %d", a.Count, got)
		}
	}
	return ""
}

func (r *runner) length(name string) (uint64, error) {
	v, err := r.object(name)
	if err != nil {
		return 0, err
	}
	if m, ok := v.AsMap(); ok {
		n, err := m.Len()
		return uint64(n), err
	}
	if l, ok := v.AsList(); ok {
		return l.Len()
	}
	t, _ := v.AsText()
	return t.Len()
}

// object resolves a declared object name.
func (r *runner) object(name string) (document.Value, error) {
	id, ok := r.ids[name]
	if !ok {
		return document.Value{}, fmt.Errorf("object %q does not exist yet", name)
	}
	return r.doc.Object(id)
}

func (r *runner) mapNamed(name string) (document.Map, error) {
	v, err := r.object(name)
	if err != nil {
		return document.Map{}, err
	}
	m, ok := v.AsMap()
	if !ok {
		return document.Map{}, fmt.Errorf("object %q is not a map", name)
	}
	return m, nil
}
