package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario writes content to dir/name and returns the path.
func writeScenario(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const minimalScenario = `
name: minimal
description: "one put"
objects:
  - {name: m, type: map, key: m}
subscribe:
  - {target: m}
steps:
  - {op: put, target: m, key: a, value: 1}
assertions:
  - {type: batch_count, target: m, count: 1}
`

func TestLoadScenario_ValidFile(t *testing.T) {
	scenario, err := LoadScenario(writeScenario(t, "test.yaml", minimalScenario))
	require.NoError(t, err)

	assert.Equal(t, "minimal", scenario.Name)
	assert.Equal(t, "one put", scenario.Description)
	require.Len(t, scenario.Objects, 1)
	assert.Equal(t, "map", scenario.Objects[0].Type)
	require.Len(t, scenario.Steps, 1)
	assert.Equal(t, OpPut, scenario.Steps[0].Op)
	assert.Equal(t, 1, scenario.Steps[0].Value)
	require.Len(t, scenario.Assertions, 1)
	assert.Equal(t, AssertBatchCount, scenario.Assertions[0].Type)
}

func TestLoadScenario_Testdata(t *testing.T) {
	for _, name := range []string{"interleaved.yaml", "text_edits.yaml", "document_scope.yaml", "counters.cue"} {
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(filepath.Join("testdata", name))
			require.NoError(t, err)
			assert.Equal(t, "aa", scenario.Actor)
		})
	}
}

func TestLoadScenario_CUE(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "counters.cue"))
	require.NoError(t, err)

	assert.Equal(t, "counters", scenario.Name)
	require.Len(t, scenario.Steps, 3)
	assert.Equal(t, OpGroup, scenario.Steps[2].Op)
	require.Len(t, scenario.Steps[2].Steps, 2)
	assert.Equal(t, int64(5), scenario.Steps[2].Steps[1].By)
	assert.True(t, scenario.Subscribe[1].Raw)
}

func TestLoadScenario_CUEUnknownField(t *testing.T) {
	path := writeScenario(t, "bad.cue", `
name: "x"
description: "y"
stepz: []
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stepz")
}

func TestLoadScenario_CUESyntaxError(t *testing.T) {
	_, err := LoadScenario(writeScenario(t, "bad.cue", `name: "x" description: `))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to compile CUE")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	content := minimalScenario + "assertion: []\n"
	_, err := LoadScenario(writeScenario(t, "test.yaml", content))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_MalformedYAML(t *testing.T) {
	_, err := LoadScenario(writeScenario(t, "test.yaml", "name: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestValidateScenario_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name: "missing name",
			content: `
description: d
steps: [{op: set_text, target: t, text: x}]
assertions: [{type: length, target: t}]
`,
			want: "name is required",
		},
		{
			name: "missing description",
			content: `
name: n
steps: [{op: set_text, target: t, text: x}]
assertions: [{type: length, target: t}]
`,
			want: "description is required",
		},
		{
			name: "missing steps",
			content: `
name: n
description: d
assertions: [{type: length, target: t}]
`,
			want: "steps list is required",
		},
		{
			name: "missing assertions",
			content: `
name: n
description: d
objects: [{name: t, type: text, key: t}]
steps: [{op: set_text, target: t, text: x}]
`,
			want: "assertions list is required",
		},
		{
			name: "bad object type",
			content: `
name: n
description: d
objects: [{name: t, type: tree, key: t}]
steps: [{op: set_text, target: t, text: x}]
assertions: [{type: length, target: t}]
`,
			want: `unknown object type "tree"`,
		},
		{
			name: "reserved object name",
			content: `
name: n
description: d
objects: [{name: doc, type: map, key: d}]
steps: [{op: put, target: doc, key: a, value: 1}]
assertions: [{type: length, target: doc}]
`,
			want: `name "doc" is reserved`,
		},
		{
			name: "duplicate object",
			content: `
name: n
description: d
objects: [{name: t, type: text, key: a}, {name: t, type: text, key: b}]
steps: [{op: set_text, target: t, text: x}]
assertions: [{type: length, target: t}]
`,
			want: `duplicate name "t"`,
		},
		{
			name: "parent not a map",
			content: `
name: n
description: d
objects: [{name: l, type: list, key: l}, {name: t, type: text, key: t, parent: l}]
steps: [{op: set_text, target: t, text: x}]
assertions: [{type: length, target: t}]
`,
			want: `parent "l" is a list, not a map`,
		},
		{
			name: "unknown subscription target",
			content: `
name: n
description: d
objects: [{name: t, type: text, key: t}]
subscribe: [{target: u}]
steps: [{op: set_text, target: t, text: x}]
assertions: [{type: length, target: t}]
`,
			want: `subscribe[0]: unknown target "u"`,
		},
		{
			name: "duplicate subscription",
			content: `
name: n
description: d
objects: [{name: t, type: text, key: t}]
subscribe: [{target: t}, {target: t}]
steps: [{op: set_text, target: t, text: x}]
assertions: [{type: length, target: t}]
`,
			want: `duplicate subscription "t"`,
		},
		{
			name: "unknown op",
			content: `
name: n
description: d
objects: [{name: t, type: text, key: t}]
steps: [{op: shout, target: t}]
assertions: [{type: length, target: t}]
`,
			want: `steps[0]: unknown op "shout"`,
		},
		{
			name: "op on wrong container",
			content: `
name: n
description: d
objects: [{name: t, type: text, key: t}]
steps: [{op: put, target: t, key: a, value: 1}]
assertions: [{type: length, target: t}]
`,
			want: `put does not apply to text "t"`,
		},
		{
			name: "nested step error",
			content: `
name: n
description: d
objects: [{name: m, type: map, key: m}]
steps:
  - op: group
    steps: [{op: put, target: m, value: 1}]
assertions: [{type: length, target: m}]
`,
			want: "steps[0].steps[0]: key is required for put",
		},
		{
			name: "mark needs a span",
			content: `
name: n
description: d
objects: [{name: t, type: text, key: t}]
steps: [{op: mark, target: t, start: 2, end: 2, name: bold}]
assertions: [{type: length, target: t}]
`,
			want: "mark needs start < end",
		},
		{
			name: "replace_graphemes past int range",
			content: `
name: n
description: d
objects: [{name: t, type: text, key: t}]
steps: [{op: replace_graphemes, target: t, start: 0, end: 18446744073709551615, text: x}]
assertions: [{type: length, target: t}]
`,
			want: "end 18446744073709551615 is out of range for replace_graphemes",
		},
		{
			name: "replace_graphemes end before start",
			content: `
name: n
description: d
objects: [{name: t, type: text, key: t}]
steps: [{op: replace_graphemes, target: t, start: 3, end: 1, text: x}]
assertions: [{type: length, target: t}]
`,
			want: "end 1 is before start 3",
		},
		{
			name: "assertion without subscription",
			content: `
name: n
description: d
objects: [{name: t, type: text, key: t}]
steps: [{op: set_text, target: t, text: x}]
assertions: [{type: batch_count, target: t, raw: true, count: 1}]
`,
			want: `no subscription "t/raw"`,
		},
		{
			name: "text_equals on a list",
			content: `
name: n
description: d
objects: [{name: l, type: list, key: l}]
steps: [{op: insert, target: l, value: 1}]
assertions: [{type: text_equals, target: l, text: x}]
`,
			want: "text_equals needs a text object",
		},
		{
			name: "unknown assertion type",
			content: `
name: n
description: d
objects: [{name: t, type: text, key: t}]
steps: [{op: set_text, target: t, text: x}]
assertions: [{type: eventually, target: t}]
`,
			want: `unknown assertion type "eventually"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateScenario_PutObjectDeclaresTarget(t *testing.T) {
	content := `
name: n
description: d
steps:
  - {op: put_object, target: root, key: items, name: l, type: list}
  - {op: insert, target: l, values: [a, b]}
objects: [{name: root, type: map, key: root}]
assertions: [{type: length, target: l, count: 2}]
`
	scenario, err := ParseScenario([]byte(content))
	require.NoError(t, err)
	assert.Len(t, scenario.Steps, 2)
}

func TestValidateScenario_SubscriptionCannotUseStepObject(t *testing.T) {
	content := `
name: n
description: d
objects: [{name: root, type: map, key: root}]
subscribe: [{target: l}]
steps:
  - {op: put_object, target: root, key: items, name: l, type: list}
assertions: [{type: length, target: l}]
`
	_, err := ParseScenario([]byte(content))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown target "l"`)
}

func TestSubscriptionLabel(t *testing.T) {
	assert.Equal(t, "m", Subscription{Target: "m"}.Label())
	assert.Equal(t, "m/raw", Subscription{Target: "m", Raw: true}.Label())
	assert.Equal(t, "doc", Subscription{Target: DocTarget, Raw: true}.Label())
}
