package sqlstmt

import (
	"fmt"
	"slices"
)

// CheckStructure runs the structural pass over the whole tree rooted at p:
// node-local shape rules, visited pre-order, first failure wins.
//
// Returns a *StructuralError describing the first offending node.
func CheckStructure(p Part) error {
	return walk(p, "", checkNode)
}

// walk calls fn for p and then for every descendant, pre-order, carrying
// the labeled path from the root. It stops at the first error.
func walk(p Part, path string, fn func(Part, string) error) error {
	if isNil(p) {
		return nil
	}
	if err := fn(p, path); err != nil {
		return err
	}
	for _, child := range Children(p) {
		label := child.Label
		if path != "" {
			label = path + "." + label
		}
		if err := walk(child.Part, label, fn); err != nil {
			return err
		}
	}
	return nil
}

// checkNode validates one node using only its own fields.
func checkNode(p Part, path string) error {
	switch n := p.(type) {
	case *Statement:
		return nil
	case *Select:
		return checkSelect(n, path)
	case *Insert:
		return checkInsert(n, path)
	case *Update:
		return checkUpdate(n, path)
	case *Delete:
		if n.Table == nil {
			return structural(n, path, "DELETE statement needs a table to delete from")
		}
	case *Compound:
		return checkCompound(n, path)
	case *Trans:
		if !n.Type.IsTransaction() {
			return structural(n, path, fmt.Sprintf("%s is not a transaction statement type", n.Type))
		}
	case *Unknown:
		if len(n.Exprs) == 0 {
			return structural(n, path, "UNKNOWN statement needs at least one expression")
		}
		if slices.Contains(n.Exprs, nil) {
			return structural(n, path, "UNKNOWN statement has a missing expression")
		}
	case *Expr:
		if n.CastAs != "" && n.ParamSpec != nil {
			return structural(n, path, "Expression can't have both a type cast and a parameter specification")
		}
		if exprSlots(n) > 1 {
			return structural(n, path, "Expression can only hold one of a value, a function, an operation, a sub-select or a CASE")
		}
	case *ParamSpec:
		return nil
	case *Field:
		return checkIdentifier(n, path, n.Name)
	case *Table:
		return checkIdentifier(n, path, n.Name)
	case *Function:
		if slices.Contains(n.Args, nil) {
			return structural(n, path, "Function has a missing argument")
		}
		return checkIdentifier(n, path, n.Name)
	case *Operation:
		return checkOperation(n, path)
	case *Case:
		if len(n.When) != len(n.Then) {
			return structural(n, path, "Number of WHEN is not the same as number of THEN in CASE expression")
		}
		if len(n.When) == 0 {
			return structural(n, path, "CASE expression must have at least one WHEN ... THEN element")
		}
		if slices.Contains(n.When, nil) || slices.Contains(n.Then, nil) {
			return structural(n, path, "CASE expression has a missing WHEN or THEN expression")
		}
	case *SelectField:
		if n.Expr == nil {
			return structural(n, path, "Missing expression in select field")
		}
	case *SelectTarget:
		if n.Expr == nil {
			return structural(n, path, "Missing expression in select target")
		}
	case *Join:
		if n.Cond != nil && len(n.Using) > 0 {
			return structural(n, path, "Join can't at the same time specify a join condition and a list of fields to join on")
		}
		if n.Type == JoinCross && (n.Cond != nil || len(n.Using) > 0) {
			return structural(n, path, "Cross join can't have a join condition or a list of fields to join on")
		}
		if slices.Contains(n.Using, nil) {
			return structural(n, path, "Join has a missing field in its USING list")
		}
	case *From:
		if len(n.Targets) == 0 {
			return structural(n, path, "Empty FROM clause")
		}
		if slices.Contains(n.Targets, nil) {
			return structural(n, path, "FROM clause has a missing target")
		}
		if slices.Contains(n.Joins, nil) {
			return structural(n, path, "FROM clause has a missing join")
		}
	case *Order:
		if n.Expr == nil {
			return structural(n, path, "ORDER BY expression must have an expression")
		}
	}
	return nil
}

func checkSelect(s *Select, path string) error {
	if len(s.Fields) == 0 {
		return structural(s, path, "SELECT does not contain any expression")
	}
	if slices.Contains(s.Fields, nil) {
		return structural(s, path, "SELECT has a missing field")
	}
	if slices.Contains(s.GroupBy, nil) {
		return structural(s, path, "SELECT has a missing GROUP BY expression")
	}
	if slices.Contains(s.OrderBy, nil) {
		return structural(s, path, "SELECT has a missing ORDER BY item")
	}
	if s.DistinctOn != nil && !s.Distinct {
		return structural(s, path, "SELECT can't have a DISTINCT expression if DISTINCT is not set")
	}
	if s.Having != nil && len(s.GroupBy) == 0 {
		return structural(s, path, "SELECT can't have a HAVING without GROUP BY")
	}
	if s.Offset != nil && s.Limit == nil {
		return structural(s, path, "SELECT can't have a limit offset without a limit")
	}
	return nil
}

func checkInsert(ins *Insert, path string) error {
	if ins.Table == nil {
		return structural(ins, path, "INSERT statement needs a table to insert into")
	}
	if slices.Contains(ins.Fields, nil) {
		return structural(ins, path, "INSERT statement has a missing target column")
	}
	if ins.Select != nil {
		if len(ins.Values) > 0 {
			return structural(ins, path, "Can't specify values to insert and SELECT statement in INSERT statement")
		}
		if len(ins.Fields) > 0 {
			if n := columnCount(ins.Select); n >= 0 && n != len(ins.Fields) {
				return structural(ins, path, "INSERT statement does not have the same number of target columns and expressions")
			}
		}
		return nil
	}
	if len(ins.Values) == 0 {
		return structural(ins, path, "Missing values to insert in INSERT statement")
	}
	width := len(ins.Values[0])
	for _, row := range ins.Values {
		if len(row) != width {
			return structural(ins, path, "VALUES lists must all be the same length in INSERT statement")
		}
		if slices.Contains(row, nil) {
			return structural(ins, path, "INSERT statement has a missing value")
		}
	}
	if len(ins.Fields) > 0 && len(ins.Fields) != width {
		return structural(ins, path, "INSERT statement does not have the same number of target columns and expressions")
	}
	return nil
}

func checkUpdate(u *Update, path string) error {
	if u.Table == nil {
		return structural(u, path, "UPDATE statement needs a table to update data")
	}
	if len(u.Fields) != len(u.Exprs) {
		return structural(u, path, "UPDATE statement does not have the same number of target columns and expressions")
	}
	if len(u.Fields) == 0 {
		return structural(u, path, "UPDATE statement does not have any target columns")
	}
	if slices.Contains(u.Fields, nil) || slices.Contains(u.Exprs, nil) {
		return structural(u, path, "UPDATE statement has a missing target column or expression")
	}
	return nil
}

func checkCompound(c *Compound, path string) error {
	switch len(c.Statements) {
	case 0:
		return structural(c, path, "COMPOUND statement does not contain any SELECT statement")
	case 1:
		return structural(c, path, "COMPOUND statement only contains one SELECT statement")
	}
	width := -1
	for _, s := range c.Statements {
		if s == nil {
			return structural(c, path, "COMPOUND statement contains a non SELECT statement")
		}
		switch s.Contents.(type) {
		case *Select, *Compound:
		default:
			return structural(c, path, "COMPOUND statement contains a non SELECT statement")
		}
		n := columnCount(s.Contents)
		if n < 0 {
			continue
		}
		if width >= 0 && n != width {
			return structural(c, path, "All statements in a COMPOUND must have the same number of columns")
		}
		width = n
	}
	return nil
}

// columnCount returns the number of projected columns of a Select or
// Compound, or -1 when it cannot be determined locally.
func columnCount(c Contents) int {
	switch n := c.(type) {
	case *Select:
		return len(n.Fields)
	case *Compound:
		for _, s := range n.Statements {
			if s != nil {
				if w := columnCount(s.Contents); w >= 0 {
					return w
				}
			}
		}
	}
	return -1
}

func checkOperation(op *Operation, path string) error {
	if len(op.Operands) == 0 {
		return structural(op, path, "Operation has no operand")
	}
	min, max, ok := op.Operator.arity()
	if !ok {
		return structural(op, path, fmt.Sprintf("Unknown operator %d", int(op.Operator)))
	}
	n := len(op.Operands)
	if n < min || (max >= 0 && n > max) {
		return structural(op, path, "Wrong number of operands")
	}
	if slices.Contains(op.Operands, nil) {
		return structural(op, path, "Operation has a missing operand")
	}
	return nil
}

// exprSlots counts the populated value slots of e.
func exprSlots(e *Expr) int {
	n := 0
	if e.Value != nil {
		n++
	}
	if e.Func != nil {
		n++
	}
	if e.Cond != nil {
		n++
	}
	if !isNil(e.Select) {
		n++
	}
	if e.Case != nil {
		n++
	}
	return n
}

func checkIdentifier(p Part, path, name string) error {
	if IsIdentifier(name) {
		return nil
	}
	msg := "Empty identifier"
	if name != "" {
		msg = fmt.Sprintf("'%s' is not a valid identifier", name)
	}
	return &StructuralError{Code: ErrCodeMalformedIdentifier, Message: msg, Kind: p.Kind(), Path: path}
}
