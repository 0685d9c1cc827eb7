package sqlbuilder

import (
	"github.com/GNOME/libgda-sub020/internal/sqlstmt"
)

// AddField registers a field of the statement.
//
// SELECT: fieldID is the projected expression; a non-zero valueID holding
// a string becomes the alias.
//
// INSERT: fieldID must hold the column name; valueID (optional) is appended
// to the VALUES row. A valueID holding a sub-select turns the statement
// into INSERT ... SELECT instead.
//
// UPDATE: fieldID must hold the column name and valueID its new value.
func (b *Builder) AddField(fieldID, valueID ID) error {
	if err := b.requireKind("AddField", sqlstmt.StmtSelect, sqlstmt.StmtInsert, sqlstmt.StmtUpdate); err != nil {
		return err
	}
	switch b.kind {
	case sqlstmt.StmtSelect:
		if _, err := b.exprAt(fieldID); err != nil {
			return err
		}
		var alias string
		if valueID != 0 {
			a, err := b.stringValue(valueID)
			if err != nil {
				return err
			}
			alias = a
		}
		b.selFields = append(b.selFields, fieldRef{exprID: fieldID, alias: alias})
		return nil
	case sqlstmt.StmtUpdate:
		if valueID == 0 {
			return invalidArg("UPDATE field needs a value")
		}
	}
	name, err := b.stringValue(fieldID)
	if err != nil {
		return err
	}
	return b.addColumn(name, valueID)
}

func (b *Builder) addColumn(name string, valueID ID) error {
	if valueID != 0 {
		e, err := b.exprAt(valueID)
		if err != nil {
			return err
		}
		if b.kind == sqlstmt.StmtInsert && e.Select != nil {
			b.columns = append(b.columns, columnRef{name: name})
			b.insSelect = valueID
			return nil
		}
	}
	b.columns = append(b.columns, columnRef{name: name, valueID: valueID})
	return nil
}

// AddFieldValueAsExpr pairs a column name with an already-registered
// expression (INSERT and UPDATE).
func (b *Builder) AddFieldValueAsExpr(name string, valueID ID) error {
	if err := b.requireKind("AddFieldValueAsExpr", sqlstmt.StmtInsert, sqlstmt.StmtUpdate); err != nil {
		return err
	}
	if name == "" {
		return invalidArg("field name must not be empty")
	}
	if b.kind == sqlstmt.StmtUpdate && valueID == 0 {
		return invalidArg("UPDATE field needs a value")
	}
	return b.addColumn(name, valueID)
}

// AddFieldValue is a convenience over AddField: it registers name as a
// field and v as its typed value. For SELECT, v must be nil.
func (b *Builder) AddFieldValue(name string, v any) error {
	if err := b.mutable(); err != nil {
		return err
	}
	if b.kind == sqlstmt.StmtSelect {
		if v != nil {
			return invalidArg("SELECT fields take no value")
		}
		id, err := b.Literal(0, name)
		if err != nil {
			return err
		}
		return b.AddField(id, 0)
	}
	valueID, err := b.Expr(0, v)
	if err != nil {
		return err
	}
	return b.AddFieldValueAsExpr(name, valueID)
}

// SelectAddTarget adds a FROM target. Adding the same expression with the
// same alias twice returns the existing target id.
func (b *Builder) SelectAddTarget(exprID ID, alias string) (ID, error) {
	return b.SelectAddTargetID(0, exprID, alias)
}

// SelectAddTargetID is SelectAddTarget with an explicit id hint.
func (b *Builder) SelectAddTargetID(hint, exprID ID, alias string) (ID, error) {
	if err := b.requireKind("SelectAddTarget", sqlstmt.StmtSelect); err != nil {
		return 0, err
	}
	e, err := b.exprAt(exprID)
	if err != nil {
		return 0, err
	}
	key := sqlstmt.Serialize(e)
	for _, id := range b.targets {
		t := b.slotAt(id).target
		if t.alias != alias {
			continue
		}
		if other, err := b.exprAt(t.exprID); err == nil && sqlstmt.Serialize(other) == key {
			return id, nil
		}
	}
	if hint != 0 && b.targetPos(hint) >= 0 {
		return 0, &BuilderError{Code: ErrCodeInvalidArgument, Message: "id already names a target", ID: hint}
	}
	if hint != 0 && b.slotAt(hint) != nil {
		return 0, &BuilderError{Code: ErrCodeInvalidArgument, Message: "id already registered", ID: hint}
	}
	id, err := b.put(hint, &slot{target: &targetRef{exprID: exprID, alias: alias}})
	if err != nil {
		return 0, err
	}
	b.targets = append(b.targets, id)
	return id, nil
}

// SelectJoinTargets joins two targets. The join is recorded at the
// position of the later target; when left comes after right the targets
// are swapped and LEFT/RIGHT flipped. onCond may be 0.
func (b *Builder) SelectJoinTargets(left, right ID, kind sqlstmt.JoinType, onCond ID) (ID, error) {
	if err := b.requireKind("SelectJoinTargets", sqlstmt.StmtSelect); err != nil {
		return 0, err
	}
	lp, rp := b.targetPos(left), b.targetPos(right)
	if lp < 0 {
		return 0, unknownID(left)
	}
	if rp < 0 {
		return 0, unknownID(right)
	}
	if lp == rp {
		return 0, invalidArg("cannot join a target with itself")
	}
	if err := b.optExpr(onCond); err != nil {
		return 0, err
	}
	if lp > rp {
		left, right = right, left
		switch kind {
		case sqlstmt.JoinLeft:
			kind = sqlstmt.JoinRight
		case sqlstmt.JoinRight:
			kind = sqlstmt.JoinLeft
		}
	}
	id, err := b.put(0, &slot{join: &joinRef{typ: kind, left: left, right: right, cond: onCond}})
	if err != nil {
		return 0, err
	}
	b.joins = append(b.joins, id)
	return id, nil
}

// JoinAddField adds a USING column to a join.
func (b *Builder) JoinAddField(joinID ID, name string) error {
	if err := b.mutable(); err != nil {
		return err
	}
	s := b.slotAt(joinID)
	if s == nil || s.join == nil {
		return unknownID(joinID)
	}
	if name == "" {
		return invalidArg("USING field name must not be empty")
	}
	j := s.join
	j.fields = append(j.fields, name)
	return nil
}

// SelectOrderBy appends an ORDER BY item.
func (b *Builder) SelectOrderBy(exprID ID, asc bool, collation string) error {
	if err := b.requireKind("SelectOrderBy", sqlstmt.StmtSelect); err != nil {
		return err
	}
	if _, err := b.exprAt(exprID); err != nil {
		return err
	}
	b.orderBy = append(b.orderBy, orderRef{exprID: exprID, asc: asc, collation: collation})
	return nil
}

// SelectSetDistinct sets DISTINCT and an optional DISTINCT ON expression.
func (b *Builder) SelectSetDistinct(distinct bool, onID ID) error {
	if err := b.requireKind("SelectSetDistinct", sqlstmt.StmtSelect); err != nil {
		return err
	}
	if err := b.optExpr(onID); err != nil {
		return err
	}
	b.distinct, b.distinctOn = distinct, onID
	return nil
}

// SelectSetLimit sets the LIMIT count and offset; either may be 0.
func (b *Builder) SelectSetLimit(countID, offsetID ID) error {
	if err := b.requireKind("SelectSetLimit", sqlstmt.StmtSelect); err != nil {
		return err
	}
	if err := b.optExpr(countID); err != nil {
		return err
	}
	if err := b.optExpr(offsetID); err != nil {
		return err
	}
	b.limit, b.offset = countID, offsetID
	return nil
}

// SelectSetHaving sets the HAVING condition (0 clears it).
func (b *Builder) SelectSetHaving(condID ID) error {
	if err := b.requireKind("SelectSetHaving", sqlstmt.StmtSelect); err != nil {
		return err
	}
	if err := b.optExpr(condID); err != nil {
		return err
	}
	b.having = condID
	return nil
}

// SelectGroupBy appends a GROUP BY expression; id 0 clears the list.
func (b *Builder) SelectGroupBy(exprID ID) error {
	if err := b.requireKind("SelectGroupBy", sqlstmt.StmtSelect); err != nil {
		return err
	}
	if exprID == 0 {
		b.groupBy = nil
		return nil
	}
	if _, err := b.exprAt(exprID); err != nil {
		return err
	}
	b.groupBy = append(b.groupBy, exprID)
	return nil
}

// SetWhere sets the WHERE condition of a SELECT, UPDATE or DELETE
// (0 clears it).
func (b *Builder) SetWhere(condID ID) error {
	if err := b.requireKind("SetWhere", sqlstmt.StmtSelect, sqlstmt.StmtUpdate, sqlstmt.StmtDelete); err != nil {
		return err
	}
	if err := b.optExpr(condID); err != nil {
		return err
	}
	b.where = condID
	return nil
}

// SetTable sets the target table of an INSERT, UPDATE or DELETE.
func (b *Builder) SetTable(name string) error {
	if err := b.requireKind("SetTable", sqlstmt.StmtInsert, sqlstmt.StmtUpdate, sqlstmt.StmtDelete); err != nil {
		return err
	}
	if name == "" {
		return invalidArg("table name must not be empty")
	}
	b.table = name
	return nil
}

// InsertSetOnConflict sets the INSERT conflict resolution (e.g., "REPLACE").
func (b *Builder) InsertSetOnConflict(mode string) error {
	if err := b.requireKind("InsertSetOnConflict", sqlstmt.StmtInsert); err != nil {
		return err
	}
	b.onConflict = mode
	return nil
}

// CompoundSetType sets the compound operator.
func (b *Builder) CompoundSetType(t sqlstmt.CompoundType) error {
	if err := b.requireKind("CompoundSetType", sqlstmt.StmtCompound); err != nil {
		return err
	}
	b.compoundType = t
	return nil
}

// CompoundAddSubSelect appends a copy of stmt, which must be a SELECT or
// COMPOUND statement.
func (b *Builder) CompoundAddSubSelect(stmt *sqlstmt.Statement) error {
	if err := b.requireKind("CompoundAddSubSelect", sqlstmt.StmtCompound); err != nil {
		return err
	}
	sub, err := subSelectContents(stmt)
	if err != nil {
		return err
	}
	b.subs = append(b.subs, &sqlstmt.Statement{Contents: sub})
	return nil
}

// CompoundAddSubSelectFromBuilder lowers other and appends the result.
func (b *Builder) CompoundAddSubSelectFromBuilder(other *Builder) error {
	if other == nil {
		return invalidArg("sub-select builder is nil")
	}
	stmt, err := other.Statement()
	if err != nil {
		return err
	}
	return b.CompoundAddSubSelect(stmt)
}
