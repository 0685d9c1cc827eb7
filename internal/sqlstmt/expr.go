package sqlstmt

// Expr is a scalar-producing node.
//
// At most one of Value, Func, Cond, Select and Case is populated. An Expr
// with none of them set (and no ParamSpec) is a pass-through placeholder
// and serializes as {"value":null}.
type Expr struct {
	node

	// Value is the rendered literal (e.g., "'alf'", "5", "name").
	// nil means no value.
	Value *string

	// ValueIsIdent marks Value as an SQL identifier rather than a literal.
	ValueIsIdent bool

	Func   *Function
	Cond   *Operation
	Select Contents // *Select or *Compound
	Case   *Case

	// ParamSpec marks the expression as a hole bound at execution time.
	ParamSpec *ParamSpec

	// CastAs is the optional cast type ("" = no cast).
	CastAs string
}

// ParamSpec describes a parameter placeholder. It is always owned by an Expr.
type ParamSpec struct {
	node

	Name    string
	Descr   string
	Type    string
	IsParam bool
	NullOK  bool
}

// Operation applies an operator to an ordered list of operands.
//
// Construction accepts any operand count; CheckStructure enforces the
// per-operator arity.
type Operation struct {
	node

	Operator Operator
	Operands []*Expr
}

// Case is a CASE [base] WHEN .. THEN .. [ELSE ..] END expression.
// When and Then are parallel lists of equal length.
type Case struct {
	node

	Base *Expr
	When []*Expr
	Then []*Expr
	Else *Expr
}

// Function is a function call.
type Function struct {
	node

	Name string
	Args []*Expr
}

// Text returns a pointer to s, for populating Expr.Value.
func Text(s string) *string {
	return &s
}

// NewValue returns an Expr holding a rendered literal value.
func NewValue(value string) *Expr {
	return &Expr{Value: Text(value)}
}

// NewIdent returns an Expr holding an SQL identifier.
func NewIdent(name string) *Expr {
	return &Expr{Value: Text(name), ValueIsIdent: true}
}

// NewParam returns a parameter placeholder Expr.
func NewParam(name, typ string, nullable bool) *Expr {
	return &Expr{ParamSpec: &ParamSpec{
		Name:    name,
		Type:    typ,
		IsParam: true,
		NullOK:  nullable,
	}}
}

// NewCond wraps an Operation in an Expr.
func NewCond(op Operator, operands ...*Expr) *Expr {
	return &Expr{Cond: &Operation{Operator: op, Operands: operands}}
}

// NewFunc wraps a Function call in an Expr.
func NewFunc(name string, args ...*Expr) *Expr {
	return &Expr{Func: &Function{Name: name, Args: args}}
}

// ValueString returns the value and whether one is set.
func (e *Expr) ValueString() (string, bool) {
	if e == nil || e.Value == nil {
		return "", false
	}
	return *e.Value, true
}

// IsPlaceholder reports whether no slot of e is populated.
func (e *Expr) IsPlaceholder() bool {
	return e.Value == nil && e.Func == nil && e.Cond == nil &&
		e.Select == nil && e.Case == nil && e.ParamSpec == nil
}
