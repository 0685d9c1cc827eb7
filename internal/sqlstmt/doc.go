// Package sqlstmt provides the SQL statement intermediate representation (IR).
//
// A Statement is a typed tree: one Contents variant (Select, Insert, Update,
// Delete, Compound, Trans, Unknown) owning clause nodes and expressions.
// Statements come from the canonical parser (Parse) or from the id-table
// builder in package sqlbuilder.
//
// ARCHITECTURE:
//
//	[sqlbuilder] ─┐
//	              ├→ [Statement] → Validate → Serialize / sqlrender / sqlgraph
//	[Parse]      ─┘
//
// SEALED INTERFACES:
//
// Part and Contents are sealed using the marker method pattern. Only types
// in this package implement them, so every consumer (serializer, validator,
// traversal, renderer) switches exhaustively over a closed set of kinds.
//
//	switch n := part.(type) {
//	case *Select:
//	case *Expr:
//	...
//	}
//
// OWNERSHIP:
//
// The tree is a tree, never a DAG. Every node has at most one owner and a
// non-owning Parent back-reference that Link assigns. Copy produces an
// independent deep copy with parents re-linked into the new tree.
//
// VALIDATION:
//
// Validate runs CheckStructure (node-local shape rules) and then
// CheckSemantics (cross-sibling rules such as unique FROM target names).
// The structural pass short-circuits: a tree that fails it never reaches
// the semantic pass.
//
// SERIALIZATION:
//
// Serialize renders the fixed-key-order canonical text form. Parse is its
// inverse: Serialize(Parse(Serialize(s))) == Serialize(s).
package sqlstmt
