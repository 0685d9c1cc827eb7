package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCUE_Testdata(t *testing.T) {
	scenarios, err := LoadCUE("testdata/scenarios/scenarios.cue")
	require.NoError(t, err)
	require.Len(t, scenarios, 2)

	// Sorted by name
	assert.Equal(t, "compound_union", scenarios[0].Name)
	assert.Equal(t, "insert_values", scenarios[1].Name)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestCompileCUE_Decodes(t *testing.T) {
	src := `
scenario: del: {
	description: "DELETE"
	kind:        "DELETE"
	steps: [{op: "table", name: "t"}, {op: "literal", let: "one", id: 3, value: 1}]
}
`
	scenarios, err := CompileCUE([]byte(src), "inline.cue")
	require.NoError(t, err)
	require.Len(t, scenarios, 1)

	s := scenarios[0]
	assert.Equal(t, "del", s.Name)
	assert.Equal(t, "DELETE", s.Kind)
	require.Len(t, s.Steps, 2)
	assert.Equal(t, OpTable, s.Steps[0].Op)
	assert.Equal(t, uint32(3), s.Steps[1].ID)
	assert.Nil(t, s.Expect)
}

func TestCompileCUE_ExplicitName(t *testing.T) {
	src := `scenario: x: {name: "renamed", description: "d", kind: "DELETE", steps: [{op: "table", name: "t"}]}`
	scenarios, err := CompileCUE([]byte(src), "inline.cue")
	require.NoError(t, err)
	assert.Equal(t, "renamed", scenarios[0].Name)
}

func TestCompileCUE_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name:    "syntax error",
			src:     "scenario: {",
			wantErr: "inline.cue",
		},
		{
			name:    "no scenario struct",
			src:     `other: 1`,
			wantErr: "no scenario struct found",
		},
		{
			name:    "empty scenario struct",
			src:     `scenario: {}`,
			wantErr: "scenario struct is empty",
		},
		{
			name:    "invalid scenario",
			src:     `scenario: x: {description: "d", kind: "DELETE", steps: []}`,
			wantErr: "scenario.x",
		},
		{
			name:    "conflicting values",
			src:     `scenario: x: {description: "d", kind: "DELETE" & "SELECT", steps: []}`,
			wantErr: "conflicting values",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileCUE([]byte(tt.src), "inline.cue")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
