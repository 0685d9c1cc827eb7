package sqlstmt

import (
	"strconv"
	"strings"
)

// Serialize renders p in the canonical text form.
//
// Key order is fixed per node kind. Absent single children are written as
// null, except where a key is omitted entirely when unset (e.g. "from",
// "where" and "group_by" of a Select). Serialize never fails and accepts
// structurally invalid trees, so it can be used for diagnostics.
//
// For a Statement the result is the full document:
//
//	{"sql":null,"stmt_type":"DELETE","contents":{"table":"t","condition":null}}
//
// For a contents node it is the contents body alone ({...} or, for
// Unknown, [...]).
func Serialize(p Part) string {
	var w serializer
	w.part(p)
	return w.String()
}

// Marshal is Serialize with an error for a nil root.
func Marshal(p Part) ([]byte, error) {
	if isNil(p) {
		return nil, &SerializationError{Message: "cannot serialize a nil part"}
	}
	return []byte(Serialize(p)), nil
}

type serializer struct {
	strings.Builder
}

func (w *serializer) key(first bool, name string) {
	if !first {
		w.WriteByte(',')
	}
	w.WriteByte('"')
	w.WriteString(name)
	w.WriteString(`":`)
}

func (w *serializer) part(p Part) {
	if isNil(p) {
		w.WriteString("null")
		return
	}
	switch n := p.(type) {
	case *Statement:
		w.statement(n)
	case *Select:
		w.selectBody(n)
	case *Insert:
		w.insert(n)
	case *Update:
		w.update(n)
	case *Delete:
		w.WriteByte('{')
		w.key(true, "table")
		w.part(n.Table)
		w.key(false, "condition")
		w.part(n.Where)
		w.WriteByte('}')
	case *Compound:
		w.compound(n)
	case *Trans:
		w.trans(n)
	case *Unknown:
		w.exprList(n.Exprs)
	case *Expr:
		w.expr(n)
	case *ParamSpec:
		w.paramSpec(n)
	case *Field:
		w.WriteString(quoteOrNull(n.Name))
	case *Table:
		w.WriteString(quoteOrNull(n.Name))
	case *Function:
		w.WriteByte('{')
		w.key(true, "function_name")
		w.WriteString(quoteOrNull(n.Name))
		w.key(false, "function_args")
		w.exprListOrNull(n.Args)
		w.WriteByte('}')
	case *Operation:
		w.operation(n)
	case *Case:
		w.caseExpr(n)
	case *SelectField:
		w.WriteByte('{')
		w.key(true, "expr")
		w.part(n.Expr)
		w.optString("field_name", n.FieldName)
		w.optString("table_name", n.TableName)
		w.optString("as", n.As)
		w.WriteByte('}')
	case *SelectTarget:
		w.WriteByte('{')
		w.key(true, "expr")
		w.part(n.Expr)
		w.optString("table_name", n.TableName)
		w.optString("as", n.As)
		w.WriteByte('}')
	case *Join:
		w.join(n)
	case *From:
		w.from(n)
	case *Order:
		w.WriteByte('{')
		w.key(true, "expr")
		w.part(n.Expr)
		w.key(false, "sort")
		if n.Asc {
			w.WriteString(`"ASC"`)
		} else {
			w.WriteString(`"DESC"`)
		}
		w.optString("collation", n.Collation)
		w.WriteByte('}')
	}
}

func (w *serializer) optString(name, value string) {
	if value == "" {
		return
	}
	w.key(false, name)
	w.WriteString(quote(value))
}

func (w *serializer) statement(s *Statement) {
	w.WriteByte('{')
	w.key(true, "sql")
	w.WriteString(quoteOrNull(s.SQL))
	w.key(false, "stmt_type")
	w.WriteByte('"')
	w.WriteString(s.Type().String())
	w.WriteByte('"')
	w.key(false, "contents")
	w.part(s.Contents)
	w.WriteByte('}')
}

// nested writes a sub-select (as held by Expr.Select or Insert.Select):
// the contents wrapped in their own object.
func (w *serializer) nested(c Contents) {
	w.WriteByte('{')
	w.key(true, "contents")
	w.part(c)
	w.WriteByte('}')
}

func (w *serializer) selectBody(s *Select) {
	w.WriteByte('{')
	w.key(true, "distinct")
	if s.Distinct {
		w.WriteString(`"true"`)
	} else {
		w.WriteString(`"false"`)
	}
	if s.DistinctOn != nil {
		w.key(false, "distinct_on")
		w.expr(s.DistinctOn)
	}
	w.key(false, "fields")
	if len(s.Fields) > 0 {
		w.WriteByte('[')
		for i, f := range s.Fields {
			if i > 0 {
				w.WriteByte(',')
			}
			w.part(f)
		}
		w.WriteByte(']')
	} else {
		w.WriteString("null")
	}
	if s.From != nil {
		w.key(false, "from")
		w.from(s.From)
	}
	if s.Where != nil {
		w.key(false, "where")
		w.expr(s.Where)
	}
	if len(s.GroupBy) > 0 {
		w.key(false, "group_by")
		w.exprList(s.GroupBy)
	}
	if s.Having != nil {
		w.key(false, "having")
		w.expr(s.Having)
	}
	if len(s.OrderBy) > 0 {
		w.key(false, "order_by")
		w.WriteByte('[')
		for i, o := range s.OrderBy {
			if i > 0 {
				w.WriteByte(',')
			}
			w.part(o)
		}
		w.WriteByte(']')
	}
	if s.Limit != nil {
		w.key(false, "limit")
		w.expr(s.Limit)
		if s.Offset != nil {
			w.key(false, "offset")
			w.expr(s.Offset)
		}
	}
	w.WriteByte('}')
}

func (w *serializer) insert(ins *Insert) {
	w.WriteByte('{')
	w.key(true, "table")
	w.part(ins.Table)
	w.key(false, "fields")
	w.fieldListOrNull(ins.Fields)
	if len(ins.Values) > 0 {
		w.key(false, "values")
		w.WriteByte('[')
		for i, row := range ins.Values {
			if i > 0 {
				w.WriteByte(',')
			}
			if len(row) == 0 {
				w.WriteString("null")
				continue
			}
			w.exprList(row)
		}
		w.WriteByte(']')
	}
	if !isNil(ins.Select) {
		w.key(false, "select")
		w.nested(ins.Select)
	}
	if ins.OnConflict != "" {
		w.key(false, "on_conflict")
		w.WriteString(quote(ins.OnConflict))
	}
	w.WriteByte('}')
}

func (w *serializer) update(u *Update) {
	w.WriteByte('{')
	w.key(true, "table")
	w.part(u.Table)
	w.key(false, "fields")
	w.fieldListOrNull(u.Fields)
	w.key(false, "expressions")
	w.exprListOrNull(u.Exprs)
	w.key(false, "condition")
	w.part(u.Where)
	w.WriteByte('}')
}

func (w *serializer) compound(c *Compound) {
	w.WriteByte('{')
	w.key(true, "compound_type")
	w.WriteString(quote(c.Type.String()))
	w.key(false, "select")
	w.WriteByte('[')
	for i, s := range c.Statements {
		if i > 0 {
			w.WriteByte(',')
		}
		w.part(s)
	}
	w.WriteString("]}")
}

func (w *serializer) trans(t *Trans) {
	w.WriteByte('{')
	first := true
	if t.Isolation != IsolationUnknown {
		w.key(first, "isolation_level")
		w.WriteString(quote(t.Isolation.String()))
		first = false
	}
	if t.Mode != "" {
		w.key(first, "trans_mode")
		w.WriteString(quote(t.Mode))
		first = false
	}
	if t.Name != "" {
		w.key(first, "trans_name")
		w.WriteString(quote(t.Name))
	}
	w.WriteByte('}')
}

func (w *serializer) expr(e *Expr) {
	if e == nil {
		w.WriteString("null")
		return
	}
	w.WriteByte('{')
	switch {
	case e.Cond != nil:
		w.key(true, "operation")
		w.operation(e.Cond)
	case e.Func != nil:
		w.key(true, "func")
		w.part(e.Func)
	case !isNil(e.Select):
		w.key(true, "select")
		w.nested(e.Select)
	case e.Case != nil:
		w.key(true, "case")
		w.caseExpr(e.Case)
	default:
		w.key(true, "value")
		w.WriteString(quotePtr(e.Value))
		if e.ParamSpec != nil {
			w.key(false, "param_spec")
			w.paramSpec(e.ParamSpec)
		}
	}
	if e.CastAs != "" {
		w.key(false, "cast")
		w.WriteString(quote(e.CastAs))
	}
	if e.ValueIsIdent {
		w.WriteString(`,"sqlident":"TRUE"`)
	}
	w.WriteByte('}')
}

func (w *serializer) paramSpec(p *ParamSpec) {
	w.WriteByte('{')
	w.key(true, "name")
	w.WriteString(quoteOrNull(p.Name))
	w.key(false, "descr")
	w.WriteString(quoteOrNull(p.Descr))
	w.key(false, "type")
	w.WriteString(quoteOrNull(p.Type))
	w.key(false, "is_param")
	w.WriteString(strconv.FormatBool(p.IsParam))
	w.key(false, "nullok")
	w.WriteString(strconv.FormatBool(p.NullOK))
	w.WriteByte('}')
}

func (w *serializer) operation(op *Operation) {
	w.WriteByte('{')
	w.key(true, "operator")
	w.WriteString(quote(op.Operator.String()))
	for i, e := range op.Operands {
		w.key(false, "operand"+strconv.Itoa(i))
		w.expr(e)
	}
	w.WriteByte('}')
}

func (w *serializer) caseExpr(c *Case) {
	w.WriteByte('{')
	w.key(true, "base_expr")
	w.expr(c.Base)
	w.key(false, "body")
	w.WriteByte('[')
	for i := 0; i < len(c.When) && i < len(c.Then); i++ {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteByte('{')
		w.key(true, "when")
		w.expr(c.When[i])
		w.key(false, "then")
		w.expr(c.Then[i])
		w.WriteByte('}')
	}
	w.WriteByte(']')
	w.key(false, "else_expr")
	w.expr(c.Else)
	w.WriteByte('}')
}

func (w *serializer) join(j *Join) {
	w.WriteByte('{')
	w.key(true, "join_type")
	w.WriteString(quote(j.Type.String()))
	w.key(false, "join_pos")
	w.WriteString(quote(strconv.Itoa(j.Position)))
	if j.Cond != nil {
		w.key(false, "on_cond")
		w.expr(j.Cond)
	}
	if len(j.Using) > 0 {
		w.key(false, "using")
		w.fieldListOrNull(j.Using)
	}
	w.WriteByte('}')
}

func (w *serializer) from(f *From) {
	w.WriteByte('{')
	w.key(true, "targets")
	if len(f.Targets) > 0 {
		w.WriteByte('[')
		for i, t := range f.Targets {
			if i > 0 {
				w.WriteByte(',')
			}
			w.part(t)
		}
		w.WriteByte(']')
	} else {
		w.WriteString("null")
	}
	if len(f.Joins) > 0 {
		w.key(false, "joins")
		w.WriteByte('[')
		for i, j := range f.Joins {
			if i > 0 {
				w.WriteByte(',')
			}
			w.part(j)
		}
		w.WriteByte(']')
	}
	w.WriteByte('}')
}

func (w *serializer) exprList(list []*Expr) {
	w.WriteByte('[')
	for i, e := range list {
		if i > 0 {
			w.WriteByte(',')
		}
		w.expr(e)
	}
	w.WriteByte(']')
}

func (w *serializer) exprListOrNull(list []*Expr) {
	if len(list) == 0 {
		w.WriteString("null")
		return
	}
	w.exprList(list)
}

func (w *serializer) fieldListOrNull(list []*Field) {
	if len(list) == 0 {
		w.WriteString("null")
		return
	}
	w.WriteByte('[')
	for i, f := range list {
		if i > 0 {
			w.WriteByte(',')
		}
		w.part(f)
	}
	w.WriteByte(']')
}
