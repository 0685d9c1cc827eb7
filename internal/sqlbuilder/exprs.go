package sqlbuilder

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/GNOME/libgda-sub020/internal/sqlstmt"
)

// registerExpr links e and stores it at hint (or a fresh id).
func (b *Builder) registerExpr(hint ID, e *sqlstmt.Expr) (ID, error) {
	if err := sqlstmt.Link(e); err != nil {
		return 0, fmt.Errorf("register expression: %w", err)
	}
	return b.put(hint, &slot{expr: e})
}

// Literal registers a literal value, written verbatim into the statement.
func (b *Builder) Literal(hint ID, text string) (ID, error) {
	return b.registerExpr(hint, sqlstmt.NewValue(text))
}

// MustLiteral is like Literal but panics on error.
func (b *Builder) MustLiteral(hint ID, text string) ID {
	id, err := b.Literal(hint, text)
	if err != nil {
		panic(err)
	}
	return id
}

// Ident registers an SQL identifier.
func (b *Builder) Ident(hint ID, name string) (ID, error) {
	if name == "" {
		return 0, invalidArg("empty identifier")
	}
	return b.registerExpr(hint, sqlstmt.NewIdent(name))
}

// Param registers a parameter placeholder bound at execution time.
func (b *Builder) Param(hint ID, name, typ string, nullable bool) (ID, error) {
	if name == "" {
		return 0, invalidArg("parameter name must not be empty")
	}
	return b.registerExpr(hint, sqlstmt.NewParam(name, typ, nullable))
}

// Expr registers a typed value rendered as an SQL literal. nil renders as
// NULL; strings are single-quoted with embedded quotes doubled; []byte
// becomes a hex blob literal.
func (b *Builder) Expr(hint ID, v any) (ID, error) {
	return b.CastExpr(hint, "", v)
}

// CastExpr is Expr with a cast type annotation.
func (b *Builder) CastExpr(hint ID, castAs string, v any) (ID, error) {
	text, err := render(v)
	if err != nil {
		return 0, err
	}
	e := sqlstmt.NewValue(text)
	e.CastAs = castAs
	return b.registerExpr(hint, e)
}

func render(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "NULL", nil
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'", nil
	case bool:
		if x {
			return "TRUE", nil
		}
		return "FALSE", nil
	case int:
		return strconv.FormatInt(int64(x), 10), nil
	case int8:
		return strconv.FormatInt(int64(x), 10), nil
	case int16:
		return strconv.FormatInt(int64(x), 10), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case uint:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case []byte:
		return "x'" + hex.EncodeToString(x) + "'", nil
	}
	return "", invalidArg("unsupported value type %T", v)
}

// Cond registers an operation over one to three operand ids.
// Operand ids must already be registered; each is copied at call time.
func (b *Builder) Cond(hint ID, op sqlstmt.Operator, operands ...ID) (ID, error) {
	if len(operands) == 0 || len(operands) > 3 {
		return 0, invalidArg("Cond takes 1 to 3 operands, got %d", len(operands))
	}
	return b.cond(hint, op, operands)
}

// MustCond is like Cond but panics on error.
func (b *Builder) MustCond(hint ID, op sqlstmt.Operator, operands ...ID) ID {
	id, err := b.Cond(hint, op, operands...)
	if err != nil {
		panic(err)
	}
	return id
}

// CondV registers an operation over any number of operands. A single
// operand id is returned unchanged, so AND/OR chains collapse naturally.
func (b *Builder) CondV(hint ID, op sqlstmt.Operator, operands []ID) (ID, error) {
	if len(operands) == 0 {
		return 0, invalidArg("CondV needs at least one operand")
	}
	if len(operands) == 1 {
		if _, err := b.exprAt(operands[0]); err != nil {
			return 0, err
		}
		return operands[0], nil
	}
	return b.cond(hint, op, operands)
}

func (b *Builder) cond(hint ID, op sqlstmt.Operator, ids []ID) (ID, error) {
	args, err := b.copyAll(ids)
	if err != nil {
		return 0, err
	}
	return b.registerExpr(hint, sqlstmt.NewCond(op, args...))
}

func (b *Builder) copyAll(ids []ID) ([]*sqlstmt.Expr, error) {
	out := make([]*sqlstmt.Expr, 0, len(ids))
	for _, id := range ids {
		e, err := b.exprAt(id)
		if err != nil {
			return nil, err
		}
		out = append(out, sqlstmt.Copy(e))
	}
	return out, nil
}

// Function registers a function call over already-registered argument ids.
func (b *Builder) Function(hint ID, name string, args ...ID) (ID, error) {
	return b.FunctionV(hint, name, args)
}

// FunctionV is Function with the arguments as a slice.
func (b *Builder) FunctionV(hint ID, name string, args []ID) (ID, error) {
	if name == "" {
		return 0, invalidArg("function name must not be empty")
	}
	exprs, err := b.copyAll(args)
	if err != nil {
		return 0, err
	}
	return b.registerExpr(hint, sqlstmt.NewFunc(name, exprs...))
}

// SubSelect registers a sub-select. stmt must be a SELECT or COMPOUND
// statement; it is copied, the caller keeps ownership of stmt.
func (b *Builder) SubSelect(hint ID, stmt *sqlstmt.Statement) (ID, error) {
	sub, err := subSelectContents(stmt)
	if err != nil {
		return 0, err
	}
	return b.registerExpr(hint, &sqlstmt.Expr{Select: sub})
}

func subSelectContents(stmt *sqlstmt.Statement) (sqlstmt.Contents, error) {
	if stmt == nil {
		return nil, invalidArg("sub-select statement is nil")
	}
	switch stmt.Type() {
	case sqlstmt.StmtSelect, sqlstmt.StmtCompound:
	default:
		return nil, invalidArg("a sub-select must be SELECT or COMPOUND, got %s", stmt.Type())
	}
	c := sqlstmt.Copy(stmt.Contents)
	sqlstmt.Detach(c)
	return c, nil
}

// CaseExpr registers CASE [base] WHEN w THEN t ... [ELSE e] END. whenThen
// alternates WHEN and THEN ids; base and elseID may be 0.
func (b *Builder) CaseExpr(hint, base, elseID ID, whenThen ...ID) (ID, error) {
	if len(whenThen)%2 != 0 {
		return 0, invalidArg("CASE needs WHEN/THEN pairs, got %d ids", len(whenThen))
	}
	var when, then []ID
	for i := 0; i < len(whenThen); i += 2 {
		when = append(when, whenThen[i])
		then = append(then, whenThen[i+1])
	}
	return b.CaseExprV(hint, base, when, then, elseID)
}

// CaseExprV is CaseExpr with parallel WHEN and THEN slices.
func (b *Builder) CaseExprV(hint, base ID, when, then []ID, elseID ID) (ID, error) {
	if len(when) != len(then) {
		return 0, invalidArg("CASE has %d WHEN and %d THEN expressions", len(when), len(then))
	}
	c := &sqlstmt.Case{}
	var err error
	if c.Base, err = b.copyAt(base); err != nil {
		return 0, err
	}
	if c.When, err = b.copyAll(when); err != nil {
		return 0, err
	}
	if c.Then, err = b.copyAll(then); err != nil {
		return 0, err
	}
	if c.Else, err = b.copyAt(elseID); err != nil {
		return 0, err
	}
	return b.registerExpr(hint, &sqlstmt.Expr{Case: c})
}

// ExportExpression returns an independent copy of the expression at id,
// for use in another builder or tree.
func (b *Builder) ExportExpression(id ID) (*sqlstmt.Expr, error) {
	e, err := b.exprAt(id)
	if err != nil {
		return nil, err
	}
	return sqlstmt.Copy(e), nil
}

// ImportExpression registers a copy of an expression built elsewhere.
func (b *Builder) ImportExpression(hint ID, e *sqlstmt.Expr) (ID, error) {
	if e == nil {
		return 0, invalidArg("cannot import a nil expression")
	}
	return b.registerExpr(hint, sqlstmt.Copy(e))
}

// stringValue returns the string held by a plain value expression: the
// literal with surrounding single quotes removed, or the raw text.
func (b *Builder) stringValue(id ID) (string, error) {
	e, err := b.exprAt(id)
	if err != nil {
		return "", err
	}
	v, ok := e.ValueString()
	if !ok || e.Func != nil || e.Cond != nil || e.Select != nil || e.Case != nil {
		return "", &BuilderError{Code: ErrCodeInvalidArgument, Message: "expression does not hold a string value", ID: id}
	}
	if len(v) >= 2 && v[0] == '\'' && v[len(v)-1] == '\'' {
		v = strings.ReplaceAll(v[1:len(v)-1], "''", "'")
	}
	return v, nil
}
