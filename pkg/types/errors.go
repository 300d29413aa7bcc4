package types

import "fmt"

// ErrorCode identifies a templating error.
type ErrorCode string

// Error codes. The leading letter groups them: S for expression syntax,
// T for type errors, D for evaluation failures, U for unresolved names and
// W for structural problems in the template itself.
const (
	// S0xxx: Parser/Syntax errors
	ErrStringNotClosed     ErrorCode = "S0101"
	ErrNumberOutOfRange    ErrorCode = "S0102"
	ErrUnsupportedEscape   ErrorCode = "S0103"
	ErrUnexpectedEnd       ErrorCode = "S0104"
	ErrUnexpectedCharacter ErrorCode = "S0105"
	ErrSyntaxError         ErrorCode = "S0201"
	ErrExpectedToken       ErrorCode = "S0202"
	ErrMaxDepthExceeded    ErrorCode = "S0203"
	ErrEmptyExpression     ErrorCode = "S0204"
	ErrUnterminatedBinding ErrorCode = "S0301"

	// T0xxx: Type errors
	ErrArgumentCountMismatch ErrorCode = "T0410"
	ErrCannotConvertNumber   ErrorCode = "T1001"
	ErrCannotConvertString   ErrorCode = "T1002"
	ErrInvalidTypeOperation  ErrorCode = "T1003"
	ErrCannotConvertDate     ErrorCode = "T1004"
	ErrInvalidArgument       ErrorCode = "T1005"

	// D0xxx: Evaluation errors
	ErrDivisionByZero    ErrorCode = "D1001"
	ErrInvokeNonFunction ErrorCode = "D1002"
	ErrInvalidRegex      ErrorCode = "D3001"
	ErrFunctionFailed    ErrorCode = "D3002"
	ErrInvalidJSON       ErrorCode = "D3003"

	// U0xxx: Runtime errors
	ErrUnresolvedReference ErrorCode = "U1001"
	ErrUndefinedFunction   ErrorCode = "U1002"

	// W0xxx: Structural errors
	ErrWhenNotBoolean  ErrorCode = "W0101"
	ErrWhenFailed      ErrorCode = "W0102"
	ErrDataNotIterable ErrorCode = "W0201"
	ErrDataFailed      ErrorCode = "W0202"
)

// Error represents a structured templating error.
type Error struct {
	Code     ErrorCode
	Message  string
	Position int
	Token    string
	Err      error
}

// NewError creates a new error. Pass -1 as position when it is unknown.
func NewError(code ErrorCode, message string, position int) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Position: position,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("%s at position %d: %s", e.Code, e.Position, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithToken adds token information to the error.
func (e *Error) WithToken(token string) *Error {
	e.Token = token
	return e
}

// WithCause wraps another error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}
