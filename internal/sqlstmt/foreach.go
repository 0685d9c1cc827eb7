package sqlstmt

import "fmt"

// Child is an owned child of a node, labeled by the field holding it
// (e.g., "fields[1]", "where").
type Child struct {
	Label string
	Part  Part
}

// Children returns the owned children of p in traversal order: collection
// children first (in field declaration order), then single children.
// Absent children are skipped.
func Children(p Part) []Child {
	var c children
	switch n := p.(type) {
	case *Statement:
		c.one("contents", n.Contents)
	case *Select:
		for i, f := range n.Fields {
			c.one(index("fields", i), f)
		}
		for i, e := range n.GroupBy {
			c.one(index("group_by", i), e)
		}
		for i, o := range n.OrderBy {
			c.one(index("order_by", i), o)
		}
		c.one("distinct_on", n.DistinctOn)
		c.one("from", n.From)
		c.one("where", n.Where)
		c.one("having", n.Having)
		c.one("limit", n.Limit)
		c.one("offset", n.Offset)
	case *Insert:
		for i, f := range n.Fields {
			c.one(index("fields", i), f)
		}
		for i, row := range n.Values {
			for j, e := range row {
				c.one(fmt.Sprintf("values[%d][%d]", i, j), e)
			}
		}
		c.one("table", n.Table)
		c.one("select", n.Select)
	case *Update:
		for i, f := range n.Fields {
			c.one(index("fields", i), f)
		}
		for i, e := range n.Exprs {
			c.one(index("expressions", i), e)
		}
		c.one("table", n.Table)
		c.one("condition", n.Where)
	case *Delete:
		c.one("table", n.Table)
		c.one("condition", n.Where)
	case *Compound:
		for i, s := range n.Statements {
			c.one(index("select", i), s)
		}
	case *Trans:
		// no children
	case *Unknown:
		for i, e := range n.Exprs {
			c.one(index("expressions", i), e)
		}
	case *Expr:
		c.one("func", n.Func)
		c.one("operation", n.Cond)
		c.one("select", n.Select)
		c.one("case", n.Case)
		c.one("param_spec", n.ParamSpec)
	case *Operation:
		for i, e := range n.Operands {
			c.one(index("operand", i), e)
		}
	case *Case:
		for i, e := range n.When {
			c.one(index("when", i), e)
		}
		for i, e := range n.Then {
			c.one(index("then", i), e)
		}
		c.one("base_expr", n.Base)
		c.one("else_expr", n.Else)
	case *Function:
		for i, e := range n.Args {
			c.one(index("function_args", i), e)
		}
	case *Field, *Table, *ParamSpec:
		// leaves
	case *SelectField:
		c.one("expr", n.Expr)
	case *SelectTarget:
		c.one("expr", n.Expr)
	case *Join:
		for i, f := range n.Using {
			c.one(index("using", i), f)
		}
		c.one("on_cond", n.Cond)
	case *From:
		for i, t := range n.Targets {
			c.one(index("targets", i), t)
		}
		for i, j := range n.Joins {
			c.one(index("joins", i), j)
		}
	case *Order:
		c.one("expr", n.Expr)
	}
	return c.list
}

type children struct {
	list []Child
}

func (c *children) one(label string, p Part) {
	if isNil(p) {
		return
	}
	c.list = append(c.list, Child{Label: label, Part: p})
}

func index(label string, i int) string {
	return fmt.Sprintf("%s[%d]", label, i)
}

// Foreach performs a pre-order walk from root: visit is called for a node
// before any of its children. The walk aborts as soon as visit returns
// false, and Foreach then returns false. A nil root visits nothing and
// returns true.
func Foreach(root Part, visit func(Part) bool) bool {
	if isNil(root) {
		return true
	}
	if !visit(root) {
		return false
	}
	for _, child := range Children(root) {
		if !Foreach(child.Part, visit) {
			return false
		}
	}
	return true
}
