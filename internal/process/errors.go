package process

import "fmt"

// ErrorCode classifies supervisor errors.
type ErrorCode string

// Error codes.
const (
	CodeNotFound       ErrorCode = "PROCESS_NOT_FOUND"
	CodeExists         ErrorCode = "PROCESS_EXISTS"
	CodeScriptNotFound ErrorCode = "SCRIPT_NOT_FOUND"
	CodeInvalidParams  ErrorCode = "INVALID_PARAMS"
	CodeInputFailed    ErrorCode = "INPUT_FAILED"
	CodeClosed         ErrorCode = "SUPERVISOR_CLOSED"
)

// Error represents a domain-specific supervisor error.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same code, so errors.Is(err, ErrNotFound) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrNotFound       = &Error{Code: CodeNotFound, Message: "process not found"}
	ErrExists         = &Error{Code: CodeExists, Message: "process already registered"}
	ErrScriptNotFound = &Error{Code: CodeScriptNotFound, Message: "script not found"}
	ErrInvalidParams  = &Error{Code: CodeInvalidParams, Message: "invalid parameters"}
	ErrInputFailed    = &Error{Code: CodeInputFailed, Message: "failed to write input"}
	ErrClosed         = &Error{Code: CodeClosed, Message: "supervisor is shutting down"}
)

// NewError creates a new supervisor error.
func NewError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
