package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GNOME/libgda-sub020/internal/sqlstmt"
	"github.com/GNOME/libgda-sub020/internal/testutil"
)

func newDeterministicStore(t *testing.T) *Store {
	t.Helper()
	return createTestStore(t,
		WithIDGenerator(testutil.NewSequentialIDs("stmt")),
		WithClock(testutil.NewDeterministicClock()),
	)
}

func selectFrom(t *testing.T, table string, sql string) *sqlstmt.Statement {
	t.Helper()
	stmt, err := sqlstmt.NewStatement(&sqlstmt.Select{
		Fields: []*sqlstmt.SelectField{{Expr: sqlstmt.NewIdent("a")}},
		From: &sqlstmt.From{
			Targets: []*sqlstmt.SelectTarget{{Expr: sqlstmt.NewValue(table)}},
		},
	})
	require.NoError(t, err)
	stmt.SQL = sql
	return stmt
}

func deleteFrom(t *testing.T, table string) *sqlstmt.Statement {
	t.Helper()
	stmt, err := sqlstmt.NewStatement(&sqlstmt.Delete{
		Table: &sqlstmt.Table{Name: table},
		Where: sqlstmt.NewCond(sqlstmt.OpEq, sqlstmt.NewIdent("id"), sqlstmt.NewParam("id", "int", false)),
	})
	require.NoError(t, err)
	return stmt
}

func TestSave_CreatesRecord(t *testing.T) {
	s := newDeterministicStore(t)
	ctx := context.Background()

	rec, created, err := s.Save(ctx, selectFrom(t, "t", "SELECT a FROM t"))
	require.NoError(t, err)

	assert.True(t, created)
	assert.Equal(t, "stmt-0001", rec.ID)
	assert.Equal(t, "SELECT", rec.Type)
	assert.Equal(t, "SELECT a FROM t", rec.SQL)
	assert.Equal(t, int64(1), rec.Seq)
	assert.Len(t, rec.ContentHash, 64)
	assert.Contains(t, rec.Canonical, `"sql":null`)
}

func TestSave_DeduplicatesByContent(t *testing.T) {
	s := newDeterministicStore(t)
	ctx := context.Background()

	first, created, err := s.Save(ctx, selectFrom(t, "t", "SELECT a FROM t"))
	require.NoError(t, err)
	require.True(t, created)

	// Same contents, different spelling
	second, created, err := s.Save(ctx, selectFrom(t, "t", "select a from t"))
	require.NoError(t, err)

	assert.False(t, created)
	assert.Equal(t, first, second)
	assert.Equal(t, "SELECT a FROM t", second.SQL, "first SQL text saved is kept")

	records, err := s.List(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestSave_RejectsInvalidStatement(t *testing.T) {
	s := newDeterministicStore(t)

	stmt, err := sqlstmt.NewStatement(&sqlstmt.Select{})
	require.NoError(t, err)

	_, _, err = s.Save(context.Background(), stmt)
	require.Error(t, err)
	assert.True(t, sqlstmt.IsStructuralError(err))

	records, err := s.List(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestContentHash_IgnoresSQLText(t *testing.T) {
	a := selectFrom(t, "t", "SELECT a FROM t")
	b := selectFrom(t, "t", "")
	c := selectFrom(t, "u", "SELECT a FROM t")

	assert.Equal(t, ContentHash(a), ContentHash(b))
	assert.NotEqual(t, ContentHash(a), ContentHash(c))
}

func TestContentHash_DomainSeparated(t *testing.T) {
	stmt := selectFrom(t, "t", "")
	data := []byte(canonical(stmt))

	assert.Equal(t, hashWithDomain(DomainStatement, data), ContentHash(stmt))
	assert.NotEqual(t, hashWithDomain("other/v1", data), ContentHash(stmt))
}

func TestGet_And_Lookup(t *testing.T) {
	s := newDeterministicStore(t)
	ctx := context.Background()

	rec, _, err := s.Save(ctx, deleteFrom(t, "t"))
	require.NoError(t, err)

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	byHash, err := s.GetByHash(ctx, rec.ContentHash)
	require.NoError(t, err)
	assert.Equal(t, rec, byHash)

	for _, key := range []string{rec.ID, rec.ContentHash} {
		got, err := s.Lookup(ctx, key)
		require.NoError(t, err, key)
		assert.Equal(t, rec.ID, got.ID)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := newDeterministicStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = s.Lookup(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = s.Load(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLoad_RoundTrip(t *testing.T) {
	s := newDeterministicStore(t)
	ctx := context.Background()

	orig := selectFrom(t, "t", "SELECT a FROM t")
	rec, _, err := s.Save(ctx, orig)
	require.NoError(t, err)

	loaded, err := s.Load(ctx, rec.ID)
	require.NoError(t, err)

	assert.Equal(t, sqlstmt.Serialize(orig), sqlstmt.Serialize(loaded))
	assert.Equal(t, "SELECT a FROM t", loaded.SQL)
	assert.NoError(t, sqlstmt.Validate(loaded))
}

func TestList_OrderingAndFilter(t *testing.T) {
	s := newDeterministicStore(t)
	ctx := context.Background()

	_, _, err := s.Save(ctx, selectFrom(t, "a", ""))
	require.NoError(t, err)
	_, _, err = s.Save(ctx, deleteFrom(t, "b"))
	require.NoError(t, err)
	_, _, err = s.Save(ctx, selectFrom(t, "c", ""))
	require.NoError(t, err)

	all, err := s.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, rec := range all {
		assert.Equal(t, int64(i+1), rec.Seq)
	}

	selects, err := s.List(ctx, ListOptions{Type: "SELECT"})
	require.NoError(t, err)
	require.Len(t, selects, 2)
	assert.Equal(t, "stmt-0001", selects[0].ID)
	assert.Equal(t, "stmt-0003", selects[1].ID)

	limited, err := s.List(ctx, ListOptions{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "stmt-0001", limited[0].ID)

	none, err := s.List(ctx, ListOptions{Type: "UPDATE"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestDelete(t *testing.T) {
	s := newDeterministicStore(t)
	ctx := context.Background()

	rec, _, err := s.Save(ctx, deleteFrom(t, "t"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, rec.ID))

	_, err = s.Get(ctx, rec.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	err = s.Delete(ctx, rec.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestOpen_ContinuesSequence(t *testing.T) {
	path := t.TempDir() + "/seq.db"
	ctx := context.Background()

	s1, err := Open(path)
	require.NoError(t, err)
	_, _, err = s1.Save(ctx, selectFrom(t, "a", ""))
	require.NoError(t, err)
	_, _, err = s1.Save(ctx, selectFrom(t, "b", ""))
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	rec, created, err := s2.Save(ctx, selectFrom(t, "c", ""))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(3), rec.Seq)
}
