package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GNOME/libgda-sub020/internal/sqlstmt"
)

const deleteScenario = `name: delete_by_id
description: DELETE with a parameterized condition
kind: DELETE
sql: DELETE FROM mytable WHERE id = ?
steps:
  - {op: table, name: mytable}
  - {op: literal, let: id_col, value: id}
  - {op: param, let: id, name: id, type: int}
  - {op: cond, let: cond, operator: "=", args: [id_col, id]}
  - {op: where, args: [cond]}
expect:
  render: DELETE FROM mytable WHERE id = ?
`

const deleteCanonical = `{"sql":"DELETE FROM mytable WHERE id = ?","stmt_type":"DELETE","contents":{"table":"mytable","condition":{"operation":{"operator":"=","operand0":{"value":"id"},"operand1":{"value":null,"param_spec":{"name":"id","descr":null,"type":"int","is_param":true,"nullok":false}}}}}}`

const duplicateScenario = `name: duplicate_alias
description: Two targets aliased t
kind: SELECT
steps:
  - {op: literal, let: star, value: "*"}
  - {op: add_field, args: [star]}
  - {op: literal, let: a, value: a}
  - {op: add_target, args: [a], alias: t}
  - {op: literal, let: b, value: b}
  - {op: add_target, args: [b], alias: t}
expect:
  error: DUPLICATE_TARGET
`

const selectCUE = `
scenario: select_a: {
	description: "SELECT a FROM t"
	kind:        "SELECT"
	steps: [
		{op: "ident", let: "a", name: "a"},
		{op: "add_field", args: ["a"]},
		{op: "literal", let: "t", value: "t"},
		{op: "add_target", args: ["t"]},
	]
	expect: render: "SELECT a FROM t"
}
scenario: select_b: {
	description: "SELECT b FROM t"
	kind:        "SELECT"
	steps: [
		{op: "ident", let: "b", name: "b"},
		{op: "add_field", args: ["b"]},
		{op: "literal", let: "t", value: "t"},
		{op: "add_target", args: ["t"]},
	]
}
`

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// writeStatement serializes contents into a canonical statement file.
func writeStatement(t *testing.T, dir, name string, contents sqlstmt.Contents) string {
	t.Helper()
	stmt, err := sqlstmt.NewStatement(contents)
	require.NoError(t, err)
	return writeFile(t, dir, name, sqlstmt.Serialize(stmt)+"\n")
}
