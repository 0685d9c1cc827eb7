package sqlstmt

// Copy returns an independent deep copy of p. The copy is a root (its own
// Parent is nil) and every node below it has its parent back-reference
// pointing into the new tree.
//
// Copy of a nil Part returns nil.
func Copy[T Part](p T) T {
	var zero T
	if isNil(p) {
		return zero
	}
	c := copyPart(p)
	// A freshly copied tree has no shared nodes, so Link cannot fail.
	_ = Link(c)
	return c.(T)
}

// CopyStatement is Copy specialized for statements.
func CopyStatement(s *Statement) *Statement {
	return Copy(s)
}

func copyPart(p Part) Part {
	switch n := p.(type) {
	case *Statement:
		return &Statement{SQL: n.SQL, Contents: copyContents(n.Contents)}
	case *Select:
		return copySelect(n)
	case *Insert:
		c := &Insert{
			Table:      copyTable(n.Table),
			Fields:     copyFields(n.Fields),
			Select:     copyContents(n.Select),
			OnConflict: n.OnConflict,
		}
		if n.Values != nil {
			c.Values = make([][]*Expr, len(n.Values))
			for i, row := range n.Values {
				c.Values[i] = copyExprs(row)
			}
		}
		return c
	case *Update:
		return &Update{
			Table:  copyTable(n.Table),
			Fields: copyFields(n.Fields),
			Exprs:  copyExprs(n.Exprs),
			Where:  copyExpr(n.Where),
		}
	case *Delete:
		return &Delete{Table: copyTable(n.Table), Where: copyExpr(n.Where)}
	case *Compound:
		c := &Compound{Type: n.Type}
		for _, s := range n.Statements {
			var cs *Statement
			if s != nil {
				cs = copyPart(s).(*Statement)
			}
			c.Statements = append(c.Statements, cs)
		}
		return c
	case *Trans:
		return &Trans{Type: n.Type, Isolation: n.Isolation, Mode: n.Mode, Name: n.Name}
	case *Unknown:
		return &Unknown{Exprs: copyExprs(n.Exprs)}
	case *Expr:
		return copyExpr(n)
	case *ParamSpec:
		return copyParamSpec(n)
	case *Field:
		return &Field{Name: n.Name}
	case *Table:
		return copyTable(n)
	case *Function:
		return copyFunction(n)
	case *Operation:
		return copyOperation(n)
	case *Case:
		return copyCase(n)
	case *SelectField:
		return copySelectField(n)
	case *SelectTarget:
		return copySelectTarget(n)
	case *Join:
		return copyJoin(n)
	case *From:
		return copyFrom(n)
	case *Order:
		return copyOrder(n)
	}
	panic("sqlstmt: copy of unknown part kind " + p.Kind().String())
}

func copyContents(c Contents) Contents {
	if isNil(c) {
		return nil
	}
	return copyPart(c).(Contents)
}

func copySelect(n *Select) *Select {
	c := &Select{
		Distinct:   n.Distinct,
		DistinctOn: copyExpr(n.DistinctOn),
		From:       copyFrom(n.From),
		Where:      copyExpr(n.Where),
		GroupBy:    copyExprs(n.GroupBy),
		Having:     copyExpr(n.Having),
		Limit:      copyExpr(n.Limit),
		Offset:     copyExpr(n.Offset),
	}
	for _, f := range n.Fields {
		c.Fields = append(c.Fields, copySelectField(f))
	}
	for _, o := range n.OrderBy {
		c.OrderBy = append(c.OrderBy, copyOrder(o))
	}
	return c
}

func copyExpr(e *Expr) *Expr {
	if e == nil {
		return nil
	}
	c := &Expr{
		ValueIsIdent: e.ValueIsIdent,
		Func:         copyFunction(e.Func),
		Cond:         copyOperation(e.Cond),
		Select:       copyContents(e.Select),
		Case:         copyCase(e.Case),
		ParamSpec:    copyParamSpec(e.ParamSpec),
		CastAs:       e.CastAs,
	}
	if e.Value != nil {
		c.Value = Text(*e.Value)
	}
	return c
}

func copyExprs(list []*Expr) []*Expr {
	if list == nil {
		return nil
	}
	out := make([]*Expr, len(list))
	for i, e := range list {
		out[i] = copyExpr(e)
	}
	return out
}

func copyParamSpec(p *ParamSpec) *ParamSpec {
	if p == nil {
		return nil
	}
	return &ParamSpec{Name: p.Name, Descr: p.Descr, Type: p.Type, IsParam: p.IsParam, NullOK: p.NullOK}
}

func copyTable(t *Table) *Table {
	if t == nil {
		return nil
	}
	return &Table{Name: t.Name}
}

func copyFields(list []*Field) []*Field {
	if list == nil {
		return nil
	}
	out := make([]*Field, len(list))
	for i, f := range list {
		if f != nil {
			out[i] = &Field{Name: f.Name}
		}
	}
	return out
}

func copyFunction(f *Function) *Function {
	if f == nil {
		return nil
	}
	return &Function{Name: f.Name, Args: copyExprs(f.Args)}
}

func copyOperation(o *Operation) *Operation {
	if o == nil {
		return nil
	}
	return &Operation{Operator: o.Operator, Operands: copyExprs(o.Operands)}
}

func copyCase(c *Case) *Case {
	if c == nil {
		return nil
	}
	return &Case{
		Base: copyExpr(c.Base),
		When: copyExprs(c.When),
		Then: copyExprs(c.Then),
		Else: copyExpr(c.Else),
	}
}

func copySelectField(f *SelectField) *SelectField {
	if f == nil {
		return nil
	}
	return &SelectField{Expr: copyExpr(f.Expr), FieldName: f.FieldName, TableName: f.TableName, As: f.As}
}

func copySelectTarget(t *SelectTarget) *SelectTarget {
	if t == nil {
		return nil
	}
	return &SelectTarget{Expr: copyExpr(t.Expr), TableName: t.TableName, As: t.As}
}

func copyJoin(j *Join) *Join {
	if j == nil {
		return nil
	}
	return &Join{Type: j.Type, Position: j.Position, Cond: copyExpr(j.Cond), Using: copyFields(j.Using)}
}

func copyFrom(f *From) *From {
	if f == nil {
		return nil
	}
	c := &From{}
	for _, t := range f.Targets {
		c.Targets = append(c.Targets, copySelectTarget(t))
	}
	for _, j := range f.Joins {
		c.Joins = append(c.Joins, copyJoin(j))
	}
	return c
}

func copyOrder(o *Order) *Order {
	if o == nil {
		return nil
	}
	return &Order{Expr: copyExpr(o.Expr), Asc: o.Asc, Collation: o.Collation}
}
