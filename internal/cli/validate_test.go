package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GNOME/libgda-sub020/internal/sqlstmt"
)

func TestValidateCanonicalFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "delete.json", deleteCanonical)

	out, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Equal(t, "✓ DELETE statement valid\n", out)
}

func TestValidateHelpDescribesPasses(t *testing.T) {
	cmd := NewValidateCommand(&RootOptions{})
	assert.Contains(t, cmd.Long, "semantic checks (duplicate FROM target names)")
	assert.NotContains(t, cmd.Long, "parent links")
}

func TestValidateScenarioFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "delete.yaml", deleteScenario)

	out, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ DELETE statement valid")
}

func TestValidateJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "delete.json", deleteCanonical)

	out, err := execute(t, "--format", "json", "validate", path)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, "DELETE", resp.Data.Type)
}

func TestValidateStructuralFailure(t *testing.T) {
	// A SELECT without fields
	path := writeStatement(t, t.TempDir(), "empty.json", &sqlstmt.Select{})

	out, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, string(sqlstmt.ErrCodeStructure))
}

func TestValidateSemanticFailureJSON(t *testing.T) {
	path := writeStatement(t, t.TempDir(), "dup.json", &sqlstmt.Select{
		Fields: []*sqlstmt.SelectField{{Expr: sqlstmt.NewValue("*")}},
		From: &sqlstmt.From{Targets: []*sqlstmt.SelectTarget{
			{Expr: sqlstmt.NewValue("a"), As: "t"},
			{Expr: sqlstmt.NewValue("b"), As: "t"},
		}},
	})

	out, err := execute(t, "--format", "json", "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	assert.Equal(t, "SELECT", resp.Data.Type)
	require.NotNil(t, resp.Error)
	assert.Equal(t, string(sqlstmt.ErrCodeDuplicateTarget), resp.Error.Code)
}

func TestValidateScenarioStoppingAtError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "dup.yaml", duplicateScenario)

	out, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "DUPLICATE_TARGET")
}

func TestValidateMalformedFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.json", `{"sql":null,`)

	out, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, string(sqlstmt.ErrCodeParse))
}

func TestValidateMissingFile(t *testing.T) {
	out, err := execute(t, "validate", "/nonexistent/stmt.json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.Contains(t, out, "not found")
}

func TestValidateMultiScenarioCUE(t *testing.T) {
	path := writeFile(t, t.TempDir(), "selects.cue", selectCUE)

	_, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "--scenario")

	out, err := execute(t, "validate", path, "--scenario", "select_b")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ SELECT statement valid")

	_, err = execute(t, "validate", path, "--scenario", "select_c")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeNotFound)
}
