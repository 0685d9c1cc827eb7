package sqlstmt

// Kind tags every node of the statement tree.
type Kind int

const (
	KindStatement Kind = iota

	// Statement contents.
	KindSelect
	KindInsert
	KindUpdate
	KindDelete
	KindCompound
	KindTrans
	KindUnknown

	// Expressions and clause parts.
	KindExpr
	KindField
	KindTable
	KindFunction
	KindOperation
	KindCase
	KindParamSpec
	KindSelectField
	KindSelectTarget
	KindJoin
	KindFrom
	KindOrder
)

var kindNames = map[Kind]string{
	KindStatement:    "Statement",
	KindSelect:       "Select",
	KindInsert:       "Insert",
	KindUpdate:       "Update",
	KindDelete:       "Delete",
	KindCompound:     "Compound",
	KindTrans:        "Trans",
	KindUnknown:      "Unknown",
	KindExpr:         "Expr",
	KindField:        "Field",
	KindTable:        "Table",
	KindFunction:     "Function",
	KindOperation:    "Operation",
	KindCase:         "Case",
	KindParamSpec:    "ParamSpec",
	KindSelectField:  "SelectField",
	KindSelectTarget: "SelectTarget",
	KindJoin:         "Join",
	KindFrom:         "From",
	KindOrder:        "Order",
}

// String returns the kind name (e.g., "SelectTarget").
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Kind(?)"
}

// Part is the capability shared by every node of the tree.
//
// This is a sealed interface - only types in this package implement it.
// Parent is a non-owning back-reference used for upward navigation and
// error context; it is assigned by Link and never used for ownership.
type Part interface {
	Kind() Kind
	Parent() Part

	base() *node // Marker method - seals interface to this package
}

// node carries the parent back-reference embedded in every Part.
type node struct {
	parent Part
}

func (n *node) base() *node { return n }

// Parent returns the node owning this one, or nil for a root.
func (n *node) Parent() Part {
	if n == nil {
		return nil
	}
	return n.parent
}

func (*Statement) Kind() Kind    { return KindStatement }
func (*Select) Kind() Kind       { return KindSelect }
func (*Insert) Kind() Kind       { return KindInsert }
func (*Update) Kind() Kind       { return KindUpdate }
func (*Delete) Kind() Kind       { return KindDelete }
func (*Compound) Kind() Kind     { return KindCompound }
func (*Trans) Kind() Kind        { return KindTrans }
func (*Unknown) Kind() Kind      { return KindUnknown }
func (*Expr) Kind() Kind         { return KindExpr }
func (*Field) Kind() Kind        { return KindField }
func (*Table) Kind() Kind        { return KindTable }
func (*Function) Kind() Kind     { return KindFunction }
func (*Operation) Kind() Kind    { return KindOperation }
func (*Case) Kind() Kind         { return KindCase }
func (*ParamSpec) Kind() Kind    { return KindParamSpec }
func (*SelectField) Kind() Kind  { return KindSelectField }
func (*SelectTarget) Kind() Kind { return KindSelectTarget }
func (*Join) Kind() Kind         { return KindJoin }
func (*From) Kind() Kind         { return KindFrom }
func (*Order) Kind() Kind        { return KindOrder }

// isNil reports whether p is nil or a typed nil pointer.
func isNil(p Part) bool {
	if p == nil {
		return true
	}
	switch n := p.(type) {
	case *Statement:
		return n == nil
	case *Select:
		return n == nil
	case *Insert:
		return n == nil
	case *Update:
		return n == nil
	case *Delete:
		return n == nil
	case *Compound:
		return n == nil
	case *Trans:
		return n == nil
	case *Unknown:
		return n == nil
	case *Expr:
		return n == nil
	case *Field:
		return n == nil
	case *Table:
		return n == nil
	case *Function:
		return n == nil
	case *Operation:
		return n == nil
	case *Case:
		return n == nil
	case *ParamSpec:
		return n == nil
	case *SelectField:
		return n == nil
	case *SelectTarget:
		return n == nil
	case *Join:
		return n == nil
	case *From:
		return n == nil
	case *Order:
		return n == nil
	}
	return false
}
