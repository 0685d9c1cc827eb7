package sqlstmt

import "fmt"

// Statement is the root of a statement tree.
//
// SQL is the original source text, retained verbatim ("" when the statement
// was built programmatically). A Statement owns its Contents exclusively and
// is not mutated once validated; use Copy to derive a modified statement.
type Statement struct {
	node

	SQL      string
	Contents Contents
}

// NewStatement wraps contents in a Statement and links parent references
// throughout the tree.
func NewStatement(contents Contents) (*Statement, error) {
	if isNil(contents) {
		return nil, fmt.Errorf("statement contents must not be nil")
	}
	stmt := &Statement{Contents: contents}
	if err := Link(stmt); err != nil {
		return nil, err
	}
	return stmt, nil
}

// Type returns the kind of the statement's contents.
func (s *Statement) Type() StatementType {
	if isNil(s.Contents) {
		return StmtUnknown
	}
	return s.Contents.StatementType()
}

// String returns the canonical serialization of the statement.
func (s *Statement) String() string {
	return Serialize(s)
}

// Release detaches the statement's contents. A released Statement no longer
// owns a tree and serializes with null contents.
func Release(s *Statement) {
	if s == nil {
		return
	}
	if !isNil(s.Contents) {
		s.Contents.base().parent = nil
	}
	s.Contents = nil
}
