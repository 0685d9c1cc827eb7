package sqlstmt

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes statement errors.
type ErrorCode string

const (
	// ErrCodeStructure indicates a node violates its local shape rules.
	ErrCodeStructure ErrorCode = "STRUCTURE_CONTENTS"

	// ErrCodeMalformedIdentifier indicates a field, table or function name
	// is not a valid SQL identifier.
	ErrCodeMalformedIdentifier ErrorCode = "MALFORMED_IDENTIFIER"

	// ErrCodeDuplicateTarget indicates two FROM targets share a name or alias.
	ErrCodeDuplicateTarget ErrorCode = "DUPLICATE_TARGET"

	// ErrCodeParse indicates malformed serialized input.
	ErrCodeParse ErrorCode = "PARSE_ERROR"

	// ErrCodeSerialization indicates a node that cannot be rendered.
	ErrCodeSerialization ErrorCode = "SERIALIZATION_ERROR"
)

// StructuralError is returned by the structural validation pass.
type StructuralError struct {
	Code    ErrorCode
	Message string

	// Kind is the kind of the offending node.
	Kind Kind

	// Path locates the node from the validated root (e.g., "contents.fields[0]").
	Path string
}

func (e *StructuralError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (%s at %s)", e.Code, e.Message, e.Kind, e.Path)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Kind)
}

// SemanticError is returned by the semantic validation pass. It is only
// reachable when the structural pass succeeded.
type SemanticError struct {
	Code    ErrorCode
	Message string
	Kind    Kind
	Path    string
}

func (e *SemanticError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (%s at %s)", e.Code, e.Message, e.Kind, e.Path)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Kind)
}

// ParseError is returned when serialized text cannot be turned back into a
// Statement.
type ParseError struct {
	Message string

	// Key is the object key being decoded when the error occurred.
	Key string
}

func (e *ParseError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s: %s (key=%s)", ErrCodeParse, e.Message, e.Key)
	}
	return fmt.Sprintf("%s: %s", ErrCodeParse, e.Message)
}

// SerializationError is returned by Marshal for a nil root.
type SerializationError struct {
	Message string
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCodeSerialization, e.Message)
}

// IsStructuralError returns true if err is (or wraps) a StructuralError.
func IsStructuralError(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}

// IsSemanticError returns true if err is (or wraps) a SemanticError.
func IsSemanticError(err error) bool {
	var se *SemanticError
	return errors.As(err, &se)
}

// IsParseError returns true if err is (or wraps) a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsMalformedIdentifier returns true if err is a StructuralError rejecting
// an identifier.
func IsMalformedIdentifier(err error) bool {
	var se *StructuralError
	if errors.As(err, &se) {
		return se.Code == ErrCodeMalformedIdentifier
	}
	return false
}

func structural(n Part, path, msg string) *StructuralError {
	return &StructuralError{Code: ErrCodeStructure, Message: msg, Kind: n.Kind(), Path: path}
}

func parseErrorf(key, format string, args ...any) *ParseError {
	return &ParseError{Key: key, Message: fmt.Sprintf(format, args...)}
}
