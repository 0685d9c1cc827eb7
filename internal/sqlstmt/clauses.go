package sqlstmt

import "fmt"

// Field names a column in an INSERT, UPDATE or JOIN ... USING list.
type Field struct {
	node

	Name string
}

// Table names the target table of an INSERT, UPDATE or DELETE.
type Table struct {
	node

	Name string
}

// SelectField is a projected field: expression, optional qualifiers and alias.
type SelectField struct {
	node

	Expr      *Expr
	FieldName string
	TableName string
	As        string
}

// SelectTarget is a FROM target: an expression naming a table or sub-select,
// plus an optional alias.
type SelectTarget struct {
	node

	Expr      *Expr
	TableName string
	As        string
}

// EffectiveName is the name the target is known by within its FROM clause:
// the alias, else the table name, else the plain value of its expression.
func (t *SelectTarget) EffectiveName() string {
	if t.As != "" {
		return t.As
	}
	if t.TableName != "" {
		return t.TableName
	}
	if t.Expr != nil && t.Expr.Select == nil {
		if v, ok := t.Expr.ValueString(); ok {
			return v
		}
	}
	return ""
}

// JoinType is the kind of a Join.
type JoinType int

const (
	JoinCross JoinType = iota
	JoinNatural
	JoinInner
	JoinLeft
	JoinRight
	JoinFull
)

var joinTypeNames = map[JoinType]string{
	JoinCross:   "CROSS",
	JoinNatural: "NATURAL",
	JoinInner:   "INNER",
	JoinLeft:    "LEFT",
	JoinRight:   "RIGHT",
	JoinFull:    "FULL",
}

func (t JoinType) String() string {
	if name, ok := joinTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("JoinType(%d)", int(t))
}

// ParseJoinType resolves a join type name (e.g., "LEFT").
func ParseJoinType(s string) (JoinType, bool) {
	for t, name := range joinTypeNames {
		if name == s {
			return t, true
		}
	}
	return 0, false
}

// Join joins the target at Position with the targets before it.
// At most one of Cond and Using may be set, and neither for a CROSS join.
type Join struct {
	node

	Type     JoinType
	Position int
	Cond     *Expr
	Using    []*Field
}

// From is a FROM clause: ordered targets and ordered joins between them.
type From struct {
	node

	Targets []*SelectTarget
	Joins   []*Join
}

// Order is an ORDER BY item.
type Order struct {
	node

	Expr      *Expr
	Asc       bool
	Collation string
}
