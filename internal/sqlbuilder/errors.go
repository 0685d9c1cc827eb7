package sqlbuilder

import (
	"errors"
	"fmt"
)

// BuilderErrorCode categorizes builder errors.
type BuilderErrorCode string

const (
	// ErrCodeUnknownID indicates a reference to an id that was never registered.
	ErrCodeUnknownID BuilderErrorCode = "UNKNOWN_BUILDER_ID"

	// ErrCodeIncomplete indicates lowering was requested before the
	// statement had its mandatory parts (fields, table, sub-selects).
	ErrCodeIncomplete BuilderErrorCode = "INCOMPLETE_STATEMENT"

	// ErrCodeLowered indicates a mutation after Finalize.
	ErrCodeLowered BuilderErrorCode = "BUILDER_LOWERED"

	// ErrCodeWrongKind indicates an operation that does not apply to the
	// builder's statement kind (e.g., SetTable on a SELECT builder).
	ErrCodeWrongKind BuilderErrorCode = "WRONG_STATEMENT_KIND"

	// ErrCodeInvalidArgument indicates a malformed argument.
	ErrCodeInvalidArgument BuilderErrorCode = "INVALID_ARGUMENT"
)

// BuilderError is returned by every failing Builder operation.
type BuilderError struct {
	Code    BuilderErrorCode
	Message string

	// ID is the offending builder id, when there is one.
	ID ID
}

// Error implements the error interface.
func (e *BuilderError) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("%s: %s (id=%d)", e.Code, e.Message, e.ID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any BuilderError with the same code, so the sentinels below
// work with errors.Is.
func (e *BuilderError) Is(target error) bool {
	var be *BuilderError
	if errors.As(target, &be) {
		return be.Code == e.Code
	}
	return false
}

// Sentinels for errors.Is.
var (
	ErrUnknownBuilderID = &BuilderError{Code: ErrCodeUnknownID, Message: "unknown builder id"}
	ErrIncomplete       = &BuilderError{Code: ErrCodeIncomplete, Message: "incomplete statement"}
	ErrLowered          = &BuilderError{Code: ErrCodeLowered, Message: "builder already lowered"}
	ErrWrongKind        = &BuilderError{Code: ErrCodeWrongKind, Message: "wrong statement kind"}
	ErrInvalidArgument  = &BuilderError{Code: ErrCodeInvalidArgument, Message: "invalid argument"}
)

// IsBuilderError returns true if err is (or wraps) a BuilderError.
func IsBuilderError(err error) bool {
	var be *BuilderError
	return errors.As(err, &be)
}

func unknownID(id ID) *BuilderError {
	return &BuilderError{Code: ErrCodeUnknownID, Message: "no part registered with this id", ID: id}
}

func wrongKind(op string, kind fmt.Stringer) *BuilderError {
	return &BuilderError{Code: ErrCodeWrongKind, Message: fmt.Sprintf("%s is not valid for %s statements", op, kind)}
}

func invalidArg(format string, args ...any) *BuilderError {
	return &BuilderError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func incomplete(msg string) *BuilderError {
	return &BuilderError{Code: ErrCodeIncomplete, Message: msg}
}
