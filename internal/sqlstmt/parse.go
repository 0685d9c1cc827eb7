package sqlstmt

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Parser turns SQL text into a Statement. Implementations populate
// Statement.SQL with the input verbatim.
type Parser interface {
	ParseSQL(ctx context.Context, text string) (*Statement, error)
}

// CanonicalParser is the Parser for the canonical serialized form.
type CanonicalParser struct{}

// ParseSQL implements Parser by decoding the canonical form.
func (CanonicalParser) ParseSQL(ctx context.Context, text string) (*Statement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Parse(text)
}

// Parse decodes a document produced by Serialize back into a Statement.
//
// The round trip is stable: Serialize(Parse(Serialize(s))) == Serialize(s).
// Parse fails with a *ParseError on malformed input; it does not validate
// the resulting tree.
func Parse(text string) (*Statement, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, &ParseError{Message: err.Error()}
	}
	if dec.More() {
		return nil, &ParseError{Message: "trailing data after statement"}
	}
	stmt, err := decodeStatement(doc)
	if err != nil {
		return nil, err
	}
	if err := Link(stmt); err != nil {
		return nil, &ParseError{Message: err.Error()}
	}
	return stmt, nil
}

// ParseBytes is Parse for a byte slice.
func ParseBytes(data []byte) (*Statement, error) {
	return Parse(string(bytes.TrimSpace(data)))
}

type object map[string]any

func asObject(v any, key string) (object, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, parseErrorf(key, "expected object, got %T", v)
	}
	return object(m), nil
}

func asList(v any, key string) ([]any, error) {
	if v == nil {
		return nil, nil
	}
	l, ok := v.([]any)
	if !ok {
		return nil, parseErrorf(key, "expected array, got %T", v)
	}
	return l, nil
}

// str returns the string at key; null and a missing key both yield "".
func (o object) str(key string) (string, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", parseErrorf(key, "expected string, got %T", v)
	}
	return s, nil
}

func (o object) strPtr(key string) (*string, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, parseErrorf(key, "expected string, got %T", v)
	}
	return Text(s), nil
}

func (o object) boolean(key string) (bool, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return false, nil
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		return strings.EqualFold(b, "true"), nil
	}
	return false, parseErrorf(key, "expected boolean, got %T", v)
}

func decodeStatement(v any) (*Statement, error) {
	o, err := asObject(v, "statement")
	if err != nil {
		return nil, err
	}
	sql, err := o.str("sql")
	if err != nil {
		return nil, err
	}
	typeName, err := o.str("stmt_type")
	if err != nil {
		return nil, err
	}
	typ, ok := ParseStatementType(typeName)
	if !ok {
		return nil, parseErrorf("stmt_type", "unknown statement type %q", typeName)
	}
	raw, ok := o["contents"]
	if !ok {
		return nil, parseErrorf("contents", "missing contents")
	}
	stmt := &Statement{SQL: sql}
	if raw == nil {
		return stmt, nil
	}
	contents, err := decodeContents(typ, raw)
	if err != nil {
		return nil, err
	}
	stmt.Contents = contents
	return stmt, nil
}

func decodeContents(typ StatementType, v any) (Contents, error) {
	if typ == StmtUnknown {
		list, err := asList(v, "contents")
		if err != nil {
			return nil, err
		}
		exprs, err := decodeExprList(list, "contents")
		if err != nil {
			return nil, err
		}
		return &Unknown{Exprs: exprs}, nil
	}
	o, err := asObject(v, "contents")
	if err != nil {
		return nil, err
	}
	switch typ {
	case StmtSelect:
		return decodeSelect(o)
	case StmtInsert:
		return decodeInsert(o)
	case StmtUpdate:
		return decodeUpdate(o)
	case StmtDelete:
		return decodeDelete(o)
	case StmtCompound:
		return decodeCompound(o)
	default:
		return decodeTrans(typ, o)
	}
}

// decodeNested decodes a sub-select object ({"contents":{...}}), telling a
// Compound from a Select by its compound_type key.
func decodeNested(v any, key string) (Contents, error) {
	o, err := asObject(v, key)
	if err != nil {
		return nil, err
	}
	body, err := asObject(o["contents"], key+".contents")
	if err != nil {
		return nil, err
	}
	if _, ok := body["compound_type"]; ok {
		return decodeCompound(body)
	}
	return decodeSelect(body)
}

func decodeSelect(o object) (*Select, error) {
	distinct, err := o.boolean("distinct")
	if err != nil {
		return nil, err
	}
	s := &Select{Distinct: distinct}
	if s.DistinctOn, err = decodeOptExpr(o, "distinct_on"); err != nil {
		return nil, err
	}
	fields, err := asList(o["fields"], "fields")
	if err != nil {
		return nil, err
	}
	for _, f := range fields {
		sf, err := decodeSelectField(f)
		if err != nil {
			return nil, err
		}
		s.Fields = append(s.Fields, sf)
	}
	if raw, ok := o["from"]; ok && raw != nil {
		if s.From, err = decodeFrom(raw); err != nil {
			return nil, err
		}
	}
	if s.Where, err = decodeOptExpr(o, "where"); err != nil {
		return nil, err
	}
	if s.GroupBy, err = decodeExprs(o, "group_by"); err != nil {
		return nil, err
	}
	if s.Having, err = decodeOptExpr(o, "having"); err != nil {
		return nil, err
	}
	orders, err := asList(o["order_by"], "order_by")
	if err != nil {
		return nil, err
	}
	for _, raw := range orders {
		ord, err := decodeOrder(raw)
		if err != nil {
			return nil, err
		}
		s.OrderBy = append(s.OrderBy, ord)
	}
	if s.Limit, err = decodeOptExpr(o, "limit"); err != nil {
		return nil, err
	}
	if s.Offset, err = decodeOptExpr(o, "offset"); err != nil {
		return nil, err
	}
	return s, nil
}

func decodeInsert(o object) (*Insert, error) {
	ins := &Insert{}
	var err error
	if ins.Table, err = decodeTable(o, "table"); err != nil {
		return nil, err
	}
	if ins.Fields, err = decodeFields(o, "fields"); err != nil {
		return nil, err
	}
	rows, err := asList(o["values"], "values")
	if err != nil {
		return nil, err
	}
	for _, raw := range rows {
		list, err := asList(raw, "values")
		if err != nil {
			return nil, err
		}
		row, err := decodeExprList(list, "values")
		if err != nil {
			return nil, err
		}
		ins.Values = append(ins.Values, row)
	}
	if raw, ok := o["select"]; ok && raw != nil {
		if ins.Select, err = decodeNested(raw, "select"); err != nil {
			return nil, err
		}
	}
	if ins.OnConflict, err = o.str("on_conflict"); err != nil {
		return nil, err
	}
	return ins, nil
}

func decodeUpdate(o object) (*Update, error) {
	u := &Update{}
	var err error
	if u.Table, err = decodeTable(o, "table"); err != nil {
		return nil, err
	}
	if u.Fields, err = decodeFields(o, "fields"); err != nil {
		return nil, err
	}
	if u.Exprs, err = decodeExprs(o, "expressions"); err != nil {
		return nil, err
	}
	if u.Where, err = decodeOptExpr(o, "condition"); err != nil {
		return nil, err
	}
	return u, nil
}

func decodeDelete(o object) (*Delete, error) {
	d := &Delete{}
	var err error
	if d.Table, err = decodeTable(o, "table"); err != nil {
		return nil, err
	}
	if d.Where, err = decodeOptExpr(o, "condition"); err != nil {
		return nil, err
	}
	return d, nil
}

func decodeCompound(o object) (*Compound, error) {
	name, err := o.str("compound_type")
	if err != nil {
		return nil, err
	}
	typ, ok := ParseCompoundType(name)
	if !ok {
		return nil, parseErrorf("compound_type", "unknown compound type %q", name)
	}
	c := &Compound{Type: typ}
	list, err := asList(o["select"], "select")
	if err != nil {
		return nil, err
	}
	for _, raw := range list {
		if raw == nil {
			c.Statements = append(c.Statements, nil)
			continue
		}
		s, err := decodeStatement(raw)
		if err != nil {
			return nil, err
		}
		c.Statements = append(c.Statements, s)
	}
	return c, nil
}

func decodeTrans(typ StatementType, o object) (*Trans, error) {
	t := &Trans{Type: typ}
	level, err := o.str("isolation_level")
	if err != nil {
		return nil, err
	}
	if level != "" {
		if t.Isolation, _ = ParseIsolationLevel(level); t.Isolation == IsolationUnknown {
			return nil, parseErrorf("isolation_level", "unknown isolation level %q", level)
		}
	}
	if t.Mode, err = o.str("trans_mode"); err != nil {
		return nil, err
	}
	if t.Name, err = o.str("trans_name"); err != nil {
		return nil, err
	}
	return t, nil
}

func decodeOptExpr(o object, key string) (*Expr, error) {
	raw, ok := o[key]
	if !ok || raw == nil {
		return nil, nil
	}
	return decodeExpr(raw, key)
}

func decodeExprs(o object, key string) ([]*Expr, error) {
	list, err := asList(o[key], key)
	if err != nil {
		return nil, err
	}
	return decodeExprList(list, key)
}

func decodeExprList(list []any, key string) ([]*Expr, error) {
	var out []*Expr
	for _, raw := range list {
		var e *Expr
		if raw != nil {
			var err error
			if e, err = decodeExpr(raw, key); err != nil {
				return nil, err
			}
		}
		out = append(out, e)
	}
	return out, nil
}

func decodeExpr(v any, key string) (*Expr, error) {
	o, err := asObject(v, key)
	if err != nil {
		return nil, err
	}
	e := &Expr{}
	switch {
	case o["operation"] != nil:
		if e.Cond, err = decodeOperation(o["operation"]); err != nil {
			return nil, err
		}
	case o["func"] != nil:
		if e.Func, err = decodeFunction(o["func"]); err != nil {
			return nil, err
		}
	case o["select"] != nil:
		if e.Select, err = decodeNested(o["select"], "select"); err != nil {
			return nil, err
		}
	case o["case"] != nil:
		if e.Case, err = decodeCase(o["case"]); err != nil {
			return nil, err
		}
	default:
		if e.Value, err = o.strPtr("value"); err != nil {
			return nil, err
		}
		if raw := o["param_spec"]; raw != nil {
			if e.ParamSpec, err = decodeParamSpec(raw); err != nil {
				return nil, err
			}
		}
	}
	if e.CastAs, err = o.str("cast"); err != nil {
		return nil, err
	}
	ident, err := o.str("sqlident")
	if err != nil {
		return nil, err
	}
	e.ValueIsIdent = ident == "TRUE"
	return e, nil
}

func decodeParamSpec(v any) (*ParamSpec, error) {
	o, err := asObject(v, "param_spec")
	if err != nil {
		return nil, err
	}
	p := &ParamSpec{}
	if p.Name, err = o.str("name"); err != nil {
		return nil, err
	}
	if p.Descr, err = o.str("descr"); err != nil {
		return nil, err
	}
	if p.Type, err = o.str("type"); err != nil {
		return nil, err
	}
	if p.IsParam, err = o.boolean("is_param"); err != nil {
		return nil, err
	}
	if p.NullOK, err = o.boolean("nullok"); err != nil {
		return nil, err
	}
	return p, nil
}

func decodeOperation(v any) (*Operation, error) {
	o, err := asObject(v, "operation")
	if err != nil {
		return nil, err
	}
	name, err := o.str("operator")
	if err != nil {
		return nil, err
	}
	op, ok := ParseOperator(name)
	if !ok {
		return nil, parseErrorf("operator", "unknown operator %q", name)
	}

	// Operand keys are operand0..operandN; map order is not meaningful.
	var idx []int
	for k := range o {
		if n, found := strings.CutPrefix(k, "operand"); found {
			i, err := strconv.Atoi(n)
			if err != nil {
				return nil, parseErrorf(k, "bad operand index")
			}
			idx = append(idx, i)
		}
	}
	sort.Ints(idx)
	operation := &Operation{Operator: op}
	for pos, i := range idx {
		if i != pos {
			return nil, parseErrorf("operand"+strconv.Itoa(pos), "missing operand")
		}
		key := "operand" + strconv.Itoa(i)
		var e *Expr
		if raw := o[key]; raw != nil {
			if e, err = decodeExpr(raw, key); err != nil {
				return nil, err
			}
		}
		operation.Operands = append(operation.Operands, e)
	}
	return operation, nil
}

func decodeFunction(v any) (*Function, error) {
	o, err := asObject(v, "func")
	if err != nil {
		return nil, err
	}
	f := &Function{}
	if f.Name, err = o.str("function_name"); err != nil {
		return nil, err
	}
	if f.Args, err = decodeExprs(o, "function_args"); err != nil {
		return nil, err
	}
	return f, nil
}

func decodeCase(v any) (*Case, error) {
	o, err := asObject(v, "case")
	if err != nil {
		return nil, err
	}
	c := &Case{}
	if c.Base, err = decodeOptExpr(o, "base_expr"); err != nil {
		return nil, err
	}
	body, err := asList(o["body"], "body")
	if err != nil {
		return nil, err
	}
	for _, raw := range body {
		item, err := asObject(raw, "body")
		if err != nil {
			return nil, err
		}
		when, err := decodeOptExpr(item, "when")
		if err != nil {
			return nil, err
		}
		then, err := decodeOptExpr(item, "then")
		if err != nil {
			return nil, err
		}
		c.When = append(c.When, when)
		c.Then = append(c.Then, then)
	}
	if c.Else, err = decodeOptExpr(o, "else_expr"); err != nil {
		return nil, err
	}
	return c, nil
}

func decodeSelectField(v any) (*SelectField, error) {
	if v == nil {
		return nil, nil
	}
	o, err := asObject(v, "fields")
	if err != nil {
		return nil, err
	}
	f := &SelectField{}
	if f.Expr, err = decodeOptExpr(o, "expr"); err != nil {
		return nil, err
	}
	if f.FieldName, err = o.str("field_name"); err != nil {
		return nil, err
	}
	if f.TableName, err = o.str("table_name"); err != nil {
		return nil, err
	}
	if f.As, err = o.str("as"); err != nil {
		return nil, err
	}
	return f, nil
}

func decodeFrom(v any) (*From, error) {
	o, err := asObject(v, "from")
	if err != nil {
		return nil, err
	}
	f := &From{}
	targets, err := asList(o["targets"], "targets")
	if err != nil {
		return nil, err
	}
	for _, raw := range targets {
		t, err := asObject(raw, "targets")
		if err != nil {
			return nil, err
		}
		target := &SelectTarget{}
		if target.Expr, err = decodeOptExpr(t, "expr"); err != nil {
			return nil, err
		}
		if target.TableName, err = t.str("table_name"); err != nil {
			return nil, err
		}
		if target.As, err = t.str("as"); err != nil {
			return nil, err
		}
		f.Targets = append(f.Targets, target)
	}
	joins, err := asList(o["joins"], "joins")
	if err != nil {
		return nil, err
	}
	for _, raw := range joins {
		j, err := decodeJoin(raw)
		if err != nil {
			return nil, err
		}
		f.Joins = append(f.Joins, j)
	}
	return f, nil
}

func decodeJoin(v any) (*Join, error) {
	o, err := asObject(v, "joins")
	if err != nil {
		return nil, err
	}
	name, err := o.str("join_type")
	if err != nil {
		return nil, err
	}
	typ, ok := ParseJoinType(name)
	if !ok {
		return nil, parseErrorf("join_type", "unknown join type %q", name)
	}
	posText, err := o.str("join_pos")
	if err != nil {
		return nil, err
	}
	pos, err := strconv.Atoi(posText)
	if err != nil {
		return nil, parseErrorf("join_pos", "invalid position %q", posText)
	}
	j := &Join{Type: typ, Position: pos}
	if j.Cond, err = decodeOptExpr(o, "on_cond"); err != nil {
		return nil, err
	}
	if j.Using, err = decodeFields(o, "using"); err != nil {
		return nil, err
	}
	return j, nil
}

func decodeOrder(v any) (*Order, error) {
	o, err := asObject(v, "order_by")
	if err != nil {
		return nil, err
	}
	ord := &Order{}
	if ord.Expr, err = decodeOptExpr(o, "expr"); err != nil {
		return nil, err
	}
	sortDir, err := o.str("sort")
	if err != nil {
		return nil, err
	}
	ord.Asc = sortDir != "DESC"
	if ord.Collation, err = o.str("collation"); err != nil {
		return nil, err
	}
	return ord, nil
}

func decodeTable(o object, key string) (*Table, error) {
	raw, ok := o[key]
	if !ok || raw == nil {
		return nil, nil
	}
	name, ok := raw.(string)
	if !ok {
		return nil, parseErrorf(key, "expected table name, got %T", raw)
	}
	return &Table{Name: name}, nil
}

func decodeFields(o object, key string) ([]*Field, error) {
	list, err := asList(o[key], key)
	if err != nil {
		return nil, err
	}
	var out []*Field
	for _, raw := range list {
		var name string
		if raw != nil {
			s, ok := raw.(string)
			if !ok {
				return nil, parseErrorf(key, "expected field name, got %T", raw)
			}
			name = s
		}
		out = append(out, &Field{Name: name})
	}
	return out, nil
}
