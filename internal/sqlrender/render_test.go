package sqlrender

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GNOME/libgda-sub020/internal/sqlbuilder"
	"github.com/GNOME/libgda-sub020/internal/sqlstmt"
)

func must(t *testing.T) func(sqlbuilder.ID, error) sqlbuilder.ID {
	return func(id sqlbuilder.ID, err error) sqlbuilder.ID {
		t.Helper()
		require.NoError(t, err)
		return id
	}
}

func fixture(t *testing.T) *sqlstmt.Statement {
	t.Helper()
	m := must(t)
	b := sqlbuilder.MustNew(sqlstmt.StmtSelect)
	// Conditions first: ids 1-3 overwrite operands that were already copied
	m(b.Cond(1, sqlstmt.OpEq, b.MustLiteral(0, "session"), m(b.Param(0, "session", "string", false))))
	m(b.Cond(2, sqlstmt.OpEq, b.MustLiteral(0, "type"), m(b.Expr(0, "TABLE"))))
	m(b.Cond(3, sqlstmt.OpEq, b.MustLiteral(0, "name"), m(b.Expr(0, "alf"))))
	require.NoError(t, b.SetWhere(m(b.Cond(0, sqlstmt.OpAnd, 1, m(b.Cond(0, sqlstmt.OpAnd, 2, 3))))))
	for _, f := range []string{"contents", "descr", "rank", "name"} {
		require.NoError(t, b.AddField(b.MustLiteral(0, f), 0))
	}
	m(b.SelectAddTarget(b.MustLiteral(0, "mytable"), ""))
	stmt, err := b.Statement()
	require.NoError(t, err)
	return stmt
}

func TestRender_Fixture(t *testing.T) {
	r := New(WithBindings(map[string]any{"session": "s-1"}))

	query, args, err := r.Render(fixture(t))
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT contents, descr, rank, name FROM mytable WHERE (session = ?) AND ((type = 'TABLE') AND (name = 'alf'))",
		query)
	assert.Equal(t, []any{"s-1"}, args)
}

func TestRender_Unbound(t *testing.T) {
	_, _, err := New().Render(fixture(t))
	require.ErrorIs(t, err, ErrUnbound)
	assert.Contains(t, err.Error(), "session")
}

func TestRender_AllowUnbound(t *testing.T) {
	query, args, err := New(WithAllowUnbound()).Render(fixture(t))
	require.NoError(t, err)
	assert.Contains(t, query, "session = ?")
	assert.Equal(t, []any{nil}, args)
}

func TestRender_RefusesInvalid(t *testing.T) {
	stmt, err := sqlstmt.NewStatement(&sqlstmt.Select{})
	require.NoError(t, err)

	_, _, err = New().Render(stmt)
	require.Error(t, err)
	assert.True(t, sqlstmt.IsStructuralError(err))
}

func TestRender_MissingOperand(t *testing.T) {
	stmt, err := sqlstmt.Parse(`{"sql":null,"stmt_type":"DELETE","contents":{"table":"items","condition":{"operation":{"operator":"=","operand0":null,"operand1":{"value":"7"}}}}}`)
	require.NoError(t, err)

	_, _, err = New().Render(stmt)
	require.Error(t, err)
	assert.True(t, sqlstmt.IsStructuralError(err))
	assert.Contains(t, err.Error(), "Operation has a missing operand")

	assert.NotPanics(t, func() {
		_, _, err = New(WithoutValidation()).Render(stmt)
	})
	assert.Error(t, err)
}

func TestRender_Statements(t *testing.T) {
	m := must(t)
	tests := []struct {
		name  string
		build func() *sqlbuilder.Builder
		want  string
		args  []any
	}{
		{
			name: "insert",
			build: func() *sqlbuilder.Builder {
				b := sqlbuilder.MustNew(sqlstmt.StmtInsert)
				require.NoError(t, b.SetTable("people"))
				require.NoError(t, b.AddFieldValue("name", "Ann"))
				require.NoError(t, b.AddFieldValueAsExpr("age", m(b.Param(0, "age", "int", false))))
				require.NoError(t, b.InsertSetOnConflict("replace"))
				return b
			},
			want: "INSERT OR REPLACE INTO people (name, age) VALUES ('Ann', ?)",
			args: []any{30},
		},
		{
			name: "update",
			build: func() *sqlbuilder.Builder {
				b := sqlbuilder.MustNew(sqlstmt.StmtUpdate)
				require.NoError(t, b.SetTable("people"))
				require.NoError(t, b.AddFieldValueAsExpr("age", m(b.Param(0, "age", "int", false))))
				require.NoError(t, b.SetWhere(m(b.Cond(0, sqlstmt.OpEq, b.MustLiteral(0, "name"), m(b.Expr(0, "Ann"))))))
				return b
			},
			want: "UPDATE people SET age = ? WHERE name = 'Ann'",
			args: []any{30},
		},
		{
			name: "delete",
			build: func() *sqlbuilder.Builder {
				b := sqlbuilder.MustNew(sqlstmt.StmtDelete)
				require.NoError(t, b.SetTable("people"))
				require.NoError(t, b.SetWhere(m(b.Cond(0, sqlstmt.OpBetween,
					b.MustLiteral(0, "age"), m(b.Expr(0, 1)), m(b.Param(0, "age", "int", false))))))
				return b
			},
			want: "DELETE FROM people WHERE age BETWEEN 1 AND ?",
			args: []any{30},
		},
		{
			name: "select with join and clauses",
			build: func() *sqlbuilder.Builder {
				b := sqlbuilder.MustNew(sqlstmt.StmtSelect)
				require.NoError(t, b.AddField(m(b.Ident(0, "p.name")), 0))
				require.NoError(t, b.AddField(m(b.Function(0, "count", b.MustLiteral(0, "*"))), m(b.Expr(0, "n"))))
				p := m(b.SelectAddTarget(b.MustLiteral(0, "people"), "p"))
				o := m(b.SelectAddTarget(b.MustLiteral(0, "pets"), "o"))
				m(b.SelectJoinTargets(p, o, sqlstmt.JoinLeft,
					m(b.Cond(0, sqlstmt.OpEq, m(b.Ident(0, "o.owner")), m(b.Ident(0, "p.name"))))))
				require.NoError(t, b.SelectGroupBy(m(b.Ident(0, "p.name"))))
				require.NoError(t, b.SelectSetHaving(m(b.Cond(0, sqlstmt.OpGt, b.MustLiteral(0, "n"), m(b.Expr(0, 0))))))
				require.NoError(t, b.SelectOrderBy(b.MustLiteral(0, "n"), false, ""))
				require.NoError(t, b.SelectSetLimit(m(b.Expr(0, 10)), m(b.Expr(0, 5))))
				return b
			},
			want: "SELECT p.name, count(*) AS n FROM people AS p LEFT JOIN pets AS o ON o.owner = p.name GROUP BY p.name HAVING n > 0 ORDER BY n DESC LIMIT 10 OFFSET 5",
		},
		{
			name: "in list and case",
			build: func() *sqlbuilder.Builder {
				b := sqlbuilder.MustNew(sqlstmt.StmtSelect)
				age := b.MustLiteral(0, "age")
				require.NoError(t, b.AddField(m(b.CaseExpr(0, 0, m(b.Expr(0, "adult")),
					m(b.Cond(0, sqlstmt.OpLt, age, m(b.Expr(0, 18)))), m(b.Expr(0, "minor")))), 0))
				m(b.SelectAddTarget(b.MustLiteral(0, "people"), ""))
				require.NoError(t, b.SetWhere(m(b.Cond(0, sqlstmt.OpNotIn, b.MustLiteral(0, "name"), m(b.Expr(0, "x")), m(b.Expr(0, "y"))))))
				return b
			},
			want: "SELECT CASE WHEN age < 18 THEN 'minor' ELSE 'adult' END FROM people WHERE name NOT IN ('x', 'y')",
		},
	}
	r := New(WithBindings(map[string]any{"age": 30}))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := tt.build().Statement()
			require.NoError(t, err)
			query, args, err := r.Render(stmt)
			require.NoError(t, err)
			assert.Equal(t, tt.want, query)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestRender_Compound(t *testing.T) {
	part := func(table string) *sqlstmt.Statement {
		stmt, err := sqlstmt.NewStatement(&sqlstmt.Select{
			Fields: []*sqlstmt.SelectField{{Expr: sqlstmt.NewValue("id")}},
			From:   &sqlstmt.From{Targets: []*sqlstmt.SelectTarget{{Expr: sqlstmt.NewValue(table)}}},
		})
		require.NoError(t, err)
		return stmt
	}
	comp := &sqlstmt.Compound{Type: sqlstmt.CompoundUnionAll, Statements: []*sqlstmt.Statement{part("a"), part("b")}}
	stmt, err := sqlstmt.NewStatement(comp)
	require.NoError(t, err)

	query, _, err := New().Render(stmt)
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM a UNION ALL SELECT id FROM b", query)

	comp.Type = sqlstmt.CompoundIntersectAll
	_, _, err = New().Render(stmt)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestRender_Transactions(t *testing.T) {
	tests := []struct {
		trans *sqlstmt.Trans
		want  string
	}{
		{&sqlstmt.Trans{Type: sqlstmt.StmtBegin, Mode: "immediate"}, "BEGIN IMMEDIATE TRANSACTION"},
		{&sqlstmt.Trans{Type: sqlstmt.StmtCommit}, "COMMIT"},
		{&sqlstmt.Trans{Type: sqlstmt.StmtSavepoint, Name: "sp1"}, "SAVEPOINT sp1"},
		{&sqlstmt.Trans{Type: sqlstmt.StmtRollbackSavepoint, Name: "sp1"}, "ROLLBACK TO SAVEPOINT sp1"},
		{&sqlstmt.Trans{Type: sqlstmt.StmtDeleteSavepoint, Name: "sp1"}, "RELEASE SAVEPOINT sp1"},
	}
	for _, tt := range tests {
		stmt, err := sqlstmt.NewStatement(tt.trans)
		require.NoError(t, err)
		got, args, err := New().Render(stmt)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.Empty(t, args)
	}
}

func TestIdent(t *testing.T) {
	assert.Equal(t, "name", ident("name"))
	assert.Equal(t, "t.*", ident("t.*"))
	assert.Equal(t, `"my table"`, ident("my table"))
	assert.Equal(t, `"a""b"`, ident(`a"b`))
	assert.Equal(t, `"Quoted"`, ident(`"Quoted"`))
}

func TestParams_TraversalOrder(t *testing.T) {
	var names []string
	for _, ps := range Params(fixture(t)) {
		names = append(names, ps.Name)
	}
	assert.Equal(t, []string{"session"}, names)
}

// Rendered SQL must be accepted by SQLite itself.
func TestRender_ExecutesOnSQLite(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "render.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec("CREATE TABLE mytable (contents TEXT, descr TEXT, rank INTEGER, name TEXT, session TEXT, type TEXT)")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO mytable VALUES ('c', 'd', 1, 'alf', 's-1', 'TABLE'), ('c2', 'd2', 2, 'bob', 's-1', 'TABLE')")
	require.NoError(t, err)

	query, args, err := New(WithBindings(map[string]any{"session": "s-1"})).Render(fixture(t))
	require.NoError(t, err)

	rows, err := db.Query(query, args...)
	require.NoError(t, err)
	defer rows.Close()

	var count int
	for rows.Next() {
		var contents, descr, name string
		var rank int
		require.NoError(t, rows.Scan(&contents, &descr, &rank, &name))
		assert.Equal(t, "alf", name)
		count++
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, 1, count)
}
