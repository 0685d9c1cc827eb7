package sqlstmt

// Validate runs the structural pass and then the semantic pass over stmt.
//
// The structural pass short-circuits: a statement that fails it is reported
// with its *StructuralError even if it would also fail the semantic pass.
// A statement that fails either pass must not be rendered or executed.
func Validate(stmt *Statement) error {
	if stmt == nil {
		return &StructuralError{Code: ErrCodeStructure, Message: "nil statement", Kind: KindStatement}
	}
	if isNil(stmt.Contents) {
		return &StructuralError{Code: ErrCodeStructure, Message: "statement has no contents", Kind: KindStatement}
	}
	if err := CheckStructure(stmt); err != nil {
		return err
	}
	return CheckSemantics(stmt)
}
