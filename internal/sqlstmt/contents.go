package sqlstmt

import "fmt"

// StatementType identifies the kind of statement a Statement holds.
type StatementType int

const (
	StmtSelect StatementType = iota
	StmtInsert
	StmtUpdate
	StmtDelete
	StmtCompound
	StmtBegin
	StmtRollback
	StmtCommit
	StmtSavepoint
	StmtRollbackSavepoint
	StmtDeleteSavepoint
	StmtUnknown
)

var statementTypeNames = map[StatementType]string{
	StmtSelect:            "SELECT",
	StmtInsert:            "INSERT",
	StmtUpdate:            "UPDATE",
	StmtDelete:            "DELETE",
	StmtCompound:          "COMPOUND",
	StmtBegin:             "BEGIN",
	StmtRollback:          "ROLLBACK",
	StmtCommit:            "COMMIT",
	StmtSavepoint:         "SAVEPOINT",
	StmtRollbackSavepoint: "ROLLBACK_SAVEPOINT",
	StmtDeleteSavepoint:   "DELETE_SAVEPOINT",
	StmtUnknown:           "UNKNOWN",
}

// String returns the serialized stmt_type name (e.g., "SELECT").
func (t StatementType) String() string {
	if name, ok := statementTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("StatementType(%d)", int(t))
}

// ParseStatementType resolves a stmt_type name.
func ParseStatementType(s string) (StatementType, bool) {
	for t, name := range statementTypeNames {
		if name == s {
			return t, true
		}
	}
	return 0, false
}

// IsTransaction reports whether t is one of the transaction control kinds.
func (t StatementType) IsTransaction() bool {
	switch t {
	case StmtBegin, StmtRollback, StmtCommit, StmtSavepoint, StmtRollbackSavepoint, StmtDeleteSavepoint:
		return true
	}
	return false
}

// Contents is the statement-kind-specific payload of a Statement.
//
// This is a sealed interface - only the contents variants below implement it.
type Contents interface {
	Part
	StatementType() StatementType
}

func (*Select) StatementType() StatementType   { return StmtSelect }
func (*Insert) StatementType() StatementType   { return StmtInsert }
func (*Update) StatementType() StatementType   { return StmtUpdate }
func (*Delete) StatementType() StatementType   { return StmtDelete }
func (*Compound) StatementType() StatementType { return StmtCompound }
func (t *Trans) StatementType() StatementType  { return t.Type }
func (*Unknown) StatementType() StatementType  { return StmtUnknown }

// Select is the contents of a SELECT statement.
//
// Invariants (checked by CheckStructure):
//   - Fields is non-empty
//   - DistinctOn requires Distinct
//   - Having requires a non-empty GroupBy
//   - Offset requires Limit
type Select struct {
	node

	Distinct   bool
	DistinctOn *Expr
	Fields     []*SelectField
	From       *From
	Where      *Expr
	GroupBy    []*Expr
	Having     *Expr
	OrderBy    []*Order
	Limit      *Expr
	Offset     *Expr
}

// Insert is the contents of an INSERT statement.
//
// Values holds rows of value expressions; Select holds a nested *Select or
// *Compound. At most one of them is set.
type Insert struct {
	node

	Table      *Table
	Fields     []*Field
	Values     [][]*Expr
	Select     Contents
	OnConflict string
}

// Update is the contents of an UPDATE statement. Fields and Exprs are
// parallel lists.
type Update struct {
	node

	Table  *Table
	Fields []*Field
	Exprs  []*Expr
	Where  *Expr
}

// Delete is the contents of a DELETE statement.
type Delete struct {
	node

	Table *Table
	Where *Expr
}

// CompoundType is the set operator of a Compound.
type CompoundType int

const (
	CompoundUnion CompoundType = iota
	CompoundUnionAll
	CompoundIntersect
	CompoundIntersectAll
	CompoundExcept
	CompoundExceptAll
)

var compoundTypeNames = map[CompoundType]string{
	CompoundUnion:        "UNION",
	CompoundUnionAll:     "AUNION",
	CompoundIntersect:    "INTERSECT",
	CompoundIntersectAll: "AINTERSECT",
	CompoundExcept:       "EXCEPT",
	CompoundExceptAll:    "AEXCEPT",
}

func (t CompoundType) String() string {
	if name, ok := compoundTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("CompoundType(%d)", int(t))
}

// ParseCompoundType resolves a compound_type name (e.g., "AUNION").
func ParseCompoundType(s string) (CompoundType, bool) {
	for t, name := range compoundTypeNames {
		if name == s {
			return t, true
		}
	}
	return 0, false
}

// Compound is a UNION / INTERSECT / EXCEPT of nested statements, each of
// which must hold a Select or a Compound.
type Compound struct {
	node

	Type       CompoundType
	Statements []*Statement
}

// IsolationLevel is a transaction isolation level.
type IsolationLevel int

const (
	IsolationUnknown IsolationLevel = iota
	IsolationReadCommitted
	IsolationReadUncommitted
	IsolationRepeatableRead
	IsolationSerializable
)

var isolationNames = map[IsolationLevel]string{
	IsolationReadCommitted:   "READ_COMMITTED",
	IsolationReadUncommitted: "READ_UNCOMMITTED",
	IsolationRepeatableRead:  "REPEATABLE_READ",
	IsolationSerializable:    "SERIALIZABLE",
}

func (l IsolationLevel) String() string {
	if name, ok := isolationNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseIsolationLevel resolves an isolation_level name.
func ParseIsolationLevel(s string) (IsolationLevel, bool) {
	for l, name := range isolationNames {
		if name == s {
			return l, true
		}
	}
	return IsolationUnknown, false
}

// Trans is the contents shared by the transaction control statements
// (BEGIN, COMMIT, ROLLBACK, SAVEPOINT, ROLLBACK_SAVEPOINT, DELETE_SAVEPOINT).
type Trans struct {
	node

	Type      StatementType
	Isolation IsolationLevel
	Mode      string
	Name      string
}

// Unknown holds statements that could not be classified, as a free-form
// expression list.
type Unknown struct {
	node

	Exprs []*Expr
}
