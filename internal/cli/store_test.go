package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GNOME/libgda-sub020/internal/sqlstmt"
)

func saveJSON(t *testing.T, db, path string, extra ...string) StoredStatement {
	t.Helper()
	args := append([]string{"--format", "json", "store", "save", path, "--db", db}, extra...)
	out, err := execute(t, args...)
	require.NoError(t, err, out)

	var resp struct {
		Status string          `json:"status"`
		Data   StoredStatement `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

func TestStoreSaveShowList(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "data", "statements.db")
	stmtPath := writeFile(t, dir, "delete.json", deleteCanonical)
	scenarioPath := writeFile(t, dir, "selects.cue", selectCUE)

	first := saveJSON(t, db, stmtPath)
	require.NotNil(t, first.Created)
	assert.True(t, *first.Created)
	assert.Equal(t, "DELETE", first.Type)
	assert.Equal(t, int64(1), first.Seq)
	assert.Len(t, first.ContentHash, 64)

	// Saving the same statement again returns the stored record
	again := saveJSON(t, db, stmtPath)
	require.NotNil(t, again.Created)
	assert.False(t, *again.Created)
	assert.Equal(t, first.ID, again.ID)

	second := saveJSON(t, db, scenarioPath, "--scenario", "select_a")
	assert.Equal(t, "SELECT", second.Type)
	assert.Equal(t, int64(2), second.Seq)

	// show by id prints the canonical form with the original SQL
	out, err := execute(t, "store", "show", first.ID, "--db", db)
	require.NoError(t, err)
	assert.Equal(t, deleteCanonical+"\n", out)

	// show by content hash
	out, err = execute(t, "--format", "json", "store", "show", second.ContentHash, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, second.ID)

	out, err = execute(t, "store", "list", "--db", db)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], first.ID)
	assert.Contains(t, lines[0], "DELETE FROM mytable WHERE id = ?")
	assert.Contains(t, lines[1], second.ID)

	out, err = execute(t, "--format", "json", "store", "list", "--db", db, "--type", "SELECT")
	require.NoError(t, err)
	var listed struct {
		Data []StoredStatement `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed.Data, 1)
	assert.Equal(t, second.ID, listed.Data[0].ID)
}

func TestStoreSaveRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "statements.db")
	path := writeStatement(t, dir, "empty.json", &sqlstmt.Select{})

	out, err := execute(t, "store", "save", path, "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, string(sqlstmt.ErrCodeStructure))

	out, err = execute(t, "store", "list", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "No statements stored.\n", out)
}

func TestStoreDelete(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "statements.db")
	rec := saveJSON(t, db, writeFile(t, dir, "delete.json", deleteCanonical))

	out, err := execute(t, "store", "delete", rec.ID, "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "✓ Deleted "+rec.ID+"\n", out)

	_, err = execute(t, "store", "show", rec.ID, "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)

	_, err = execute(t, "store", "delete", rec.ID, "--db", db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeNotFound)
}

func TestStoreMissingDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "missing.db")

	out, err := execute(t, "store", "list", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "database not found")
}

func TestShortHash(t *testing.T) {
	assert.Equal(t, "0123456789ab", shortHash("0123456789abcdef"))
	assert.Equal(t, "abc", shortHash("abc"))
}
