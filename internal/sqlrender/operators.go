package sqlrender

import (
	"github.com/GNOME/libgda-sub020/internal/sqlstmt"
)

// infix maps operators written between their operands.
var infix = map[sqlstmt.Operator]string{
	sqlstmt.OpAnd:      " AND ",
	sqlstmt.OpOr:       " OR ",
	sqlstmt.OpEq:       " = ",
	sqlstmt.OpIs:       " IS ",
	sqlstmt.OpLike:     " LIKE ",
	sqlstmt.OpNotLike:  " NOT LIKE ",
	sqlstmt.OpILike:    " LIKE ", // SQLite LIKE is case-insensitive for ASCII
	sqlstmt.OpNotILike: " NOT LIKE ",
	sqlstmt.OpGt:       " > ",
	sqlstmt.OpLt:       " < ",
	sqlstmt.OpGeq:      " >= ",
	sqlstmt.OpLeq:      " <= ",
	sqlstmt.OpDiff:     " != ",
	sqlstmt.OpRegexp:   " REGEXP ",
	sqlstmt.OpConcat:   " || ",
	sqlstmt.OpPlus:     " + ",
	sqlstmt.OpMinus:    " - ",
	sqlstmt.OpStar:     " * ",
	sqlstmt.OpDiv:      " / ",
	sqlstmt.OpRem:      " % ",
	sqlstmt.OpBitAnd:   " & ",
	sqlstmt.OpBitOr:    " | ",
}

func (w *writer) operand(e *sqlstmt.Expr) error {
	if e == nil || e.Cond == nil || e.CastAs != "" {
		return w.expr(e)
	}
	w.WriteByte('(')
	if err := w.expr(e); err != nil {
		return err
	}
	w.WriteByte(')')
	return nil
}

func (w *writer) operation(op *sqlstmt.Operation) error {
	ops := op.Operands
	switch op.Operator {
	case sqlstmt.OpIsNull, sqlstmt.OpIsNotNull:
		if err := w.operand(ops[0]); err != nil {
			return err
		}
		if op.Operator == sqlstmt.OpIsNull {
			w.WriteString(" IS NULL")
		} else {
			w.WriteString(" IS NOT NULL")
		}
		return nil
	case sqlstmt.OpNot:
		w.WriteString("NOT ")
		return w.operand(ops[0])
	case sqlstmt.OpBitNot:
		w.WriteByte('~')
		return w.operand(ops[0])
	case sqlstmt.OpBetween:
		if err := w.operand(ops[0]); err != nil {
			return err
		}
		w.WriteString(" BETWEEN ")
		if err := w.operand(ops[1]); err != nil {
			return err
		}
		w.WriteString(" AND ")
		return w.operand(ops[2])
	case sqlstmt.OpIn, sqlstmt.OpNotIn:
		if err := w.operand(ops[0]); err != nil {
			return err
		}
		if op.Operator == sqlstmt.OpIn {
			w.WriteString(" IN ")
		} else {
			w.WriteString(" NOT IN ")
		}
		if len(ops) == 2 && ops[1] != nil && ops[1].Select != nil {
			return w.expr(ops[1])
		}
		w.WriteByte('(')
		for i, e := range ops[1:] {
			if i > 0 {
				w.WriteString(", ")
			}
			if err := w.expr(e); err != nil {
				return err
			}
		}
		w.WriteByte(')')
		return nil
	case sqlstmt.OpPlus, sqlstmt.OpMinus:
		if len(ops) == 1 {
			w.WriteString(infix[op.Operator][1:2])
			return w.operand(ops[0])
		}
	}

	sep, ok := infix[op.Operator]
	if !ok {
		return unsupported("operator " + op.Operator.String())
	}
	for i, e := range ops {
		if i > 0 {
			w.WriteString(sep)
		}
		if err := w.operand(e); err != nil {
			return err
		}
	}
	return nil
}
