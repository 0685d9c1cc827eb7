package sqlstmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree(t *testing.T) *Statement {
	t.Helper()
	sel := &Select{
		Fields:  []*SelectField{{Expr: NewValue("a")}, {Expr: NewValue("b")}},
		From:    &From{Targets: []*SelectTarget{target("t", "")}},
		Where:   NewCond(OpEq, NewValue("a"), NewParam("a", "int", false)),
		OrderBy: []*Order{{Expr: NewValue("b"), Asc: true}},
	}
	return mustStatement(t, sel)
}

func TestForeach_PreOrderListsFirst(t *testing.T) {
	stmt := sampleTree(t)

	var kinds []string
	ok := Foreach(stmt, func(p Part) bool {
		kinds = append(kinds, p.Kind().String())
		return true
	})
	assert.True(t, ok)
	assert.Equal(t, []string{
		"Statement", "Select",
		"SelectField", "Expr",
		"SelectField", "Expr",
		"Order", "Expr",
		"From", "SelectTarget", "Expr",
		"Expr", "Operation", "Expr", "Expr", "ParamSpec",
	}, kinds)
}

func TestForeach_Abort(t *testing.T) {
	stmt := sampleTree(t)

	visited := 0
	ok := Foreach(stmt, func(p Part) bool {
		visited++
		return p.Kind() != KindSelectField
	})
	assert.False(t, ok)
	assert.Equal(t, 3, visited)

	assert.True(t, Foreach(nil, func(Part) bool { return false }))
}

func TestChildren_Labels(t *testing.T) {
	sel := sampleTree(t).Contents.(*Select)

	var labels []string
	for _, c := range Children(sel) {
		labels = append(labels, c.Label)
	}
	assert.Equal(t, []string{"fields[0]", "fields[1]", "order_by[0]", "from", "where"}, labels)
}

func TestLink_ParentsAssigned(t *testing.T) {
	stmt := sampleTree(t)
	Foreach(stmt, func(p Part) bool {
		for _, c := range Children(p) {
			assert.Same(t, p, c.Part.Parent(), "parent of %s", c.Label)
		}
		return true
	})
	assert.Nil(t, stmt.Parent())
}

func TestLink_SharedNode(t *testing.T) {
	shared := NewValue("x")
	sel := &Select{Fields: []*SelectField{{Expr: shared}, {Expr: shared}}}

	_, err := NewStatement(sel)
	assert.ErrorIs(t, err, ErrSharedNode)
}

func TestLink_AlreadyAttached(t *testing.T) {
	first := sampleTree(t)
	where := first.Contents.(*Select).Where

	other := &Delete{Table: &Table{Name: "t"}, Where: where}
	_, err := NewStatement(other)
	assert.ErrorIs(t, err, ErrAlreadyAttached)

	assert.ErrorIs(t, Attach(other, where), ErrAlreadyAttached)
	Detach(where)
	require.NoError(t, Attach(other, where))
	assert.Same(t, other, where.Parent())
}

func TestCopy_Independent(t *testing.T) {
	orig := sampleTree(t)
	want := Serialize(orig)

	cp := Copy(orig)
	assert.Equal(t, want, Serialize(cp))
	assert.Nil(t, cp.Parent())

	origNodes := map[Part]bool{}
	Foreach(orig, func(p Part) bool {
		origNodes[p] = true
		return true
	})
	Foreach(cp, func(p Part) bool {
		assert.False(t, origNodes[p], "copy shares a %s node", p.Kind())
		for _, c := range Children(p) {
			assert.Same(t, p, c.Part.Parent())
		}
		return true
	})

	cp.Contents.(*Select).Where.Cond.Operands[1].ParamSpec.Name = "changed"
	assert.Equal(t, want, Serialize(orig))
}

func TestCopy_SubtreeBecomesRoot(t *testing.T) {
	stmt := sampleTree(t)
	where := stmt.Contents.(*Select).Where

	cp := Copy(where)
	assert.Nil(t, cp.Parent())
	assert.Equal(t, Serialize(where), Serialize(cp))

	var nilExpr *Expr
	assert.Nil(t, Copy(nilExpr))
}

func TestSelectTarget_EffectiveName(t *testing.T) {
	assert.Equal(t, "x", (&SelectTarget{Expr: NewValue("t"), TableName: "tn", As: "x"}).EffectiveName())
	assert.Equal(t, "tn", (&SelectTarget{Expr: NewValue("t"), TableName: "tn"}).EffectiveName())
	assert.Equal(t, "t", (&SelectTarget{Expr: NewValue("t")}).EffectiveName())
	assert.Equal(t, "", (&SelectTarget{Expr: &Expr{Select: &Select{}}}).EffectiveName())
}

func TestIsIdentifier(t *testing.T) {
	valid := []string{"name", "_x", "a$b", "sch.tab.col", "*", "t.*", "my-table", `"Quoted Name"`, "`tick`", "été", "a1", "inf"}
	for _, s := range valid {
		assert.True(t, IsIdentifier(s), "%q should be an identifier", s)
	}
	invalid := []string{"", "12", "1.5", "-3", "a b", "a;b", "x'y", "(a)"}
	for _, s := range invalid {
		assert.False(t, IsIdentifier(s), "%q should not be an identifier", s)
	}
}

func TestParseOperator(t *testing.T) {
	op, ok := ParseOperator("=")
	require.True(t, ok)
	assert.Equal(t, OpEq, op)

	op, ok = ParseOperator("NOTIN")
	require.True(t, ok)
	assert.Equal(t, OpNotIn, op)

	_, ok = ParseOperator("~~~")
	assert.False(t, ok)
}

func TestStatementType_Names(t *testing.T) {
	typ, ok := ParseStatementType("ROLLBACK_SAVEPOINT")
	require.True(t, ok)
	assert.Equal(t, StmtRollbackSavepoint, typ)
	assert.True(t, typ.IsTransaction())
	assert.False(t, StmtSelect.IsTransaction())
}
