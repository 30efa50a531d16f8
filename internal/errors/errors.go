// Package errors provides explicit, human-readable error types for esql.
// Every error carries the operation it belongs to plus a Reason and, where
// one exists, a Suggestion the user can act on.
package errors

import (
	"errors"
	"fmt"
)

// EsqlError is the base error type for all esql errors.
type EsqlError struct {
	Code       ErrorCode
	Message    string
	Reason     string
	Suggestion string
	Cause      error
}

// ErrorCode represents the category of error for exit code mapping.
type ErrorCode int

const (
	CodeValidation  ErrorCode = 1
	CodeParse       ErrorCode = 2
	CodeFormat      ErrorCode = 3
	CodeTransport   ErrorCode = 4
	CodeUnsupported ErrorCode = 5
	CodeInternal    ErrorCode = 6
)

// String returns the lower-case name of the code.
func (c ErrorCode) String() string {
	switch c {
	case CodeValidation:
		return "validation"
	case CodeParse:
		return "parse"
	case CodeFormat:
		return "format"
	case CodeTransport:
		return "transport"
	case CodeUnsupported:
		return "unsupported"
	case CodeInternal:
		return "internal"
	default:
		return "unknown"
	}
}

func (e *EsqlError) Error() string {
	msg := e.Message
	if e.Reason != "" {
		msg = fmt.Sprintf("%s\nReason: %s", msg, e.Reason)
	}
	if e.Suggestion != "" {
		msg = fmt.Sprintf("%s\nSuggestion: %s", msg, e.Suggestion)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s\nCaused by: %v", msg, e.Cause)
	}
	return msg
}

func (e *EsqlError) Unwrap() error {
	return e.Cause
}

// ErrTransport is returned when the cluster answered with an error or could
// not be reached at all.
type ErrTransport struct {
	EsqlError
	Operation string
	// Status is the HTTP status code, 0 when no response was received.
	Status int
	// Body is the raw response body as sent by the cluster.
	Body string
}

// NewTransport creates a new ErrTransport. reason should be the remote
// error reason when the cluster sent one.
func NewTransport(operation string, status int, reason, body string, cause error) *ErrTransport {
	if reason == "" && cause != nil {
		reason = cause.Error()
	}
	return &ErrTransport{
		EsqlError: EsqlError{
			Code:    CodeTransport,
			Message: fmt.Sprintf("%s failed", operation),
			Reason:  reason,
			Cause:   cause,
		},
		Operation: operation,
		Status:    status,
		Body:      body,
	}
}

// WithOperation returns a copy of e bound to the given operation name.
func (e *ErrTransport) WithOperation(operation string) *ErrTransport {
	cp := *e
	cp.Operation = operation
	cp.Message = fmt.Sprintf("%s failed", operation)
	return &cp
}

// ErrUnsupported is returned when the connected cluster version has no
// equivalent of the requested operation.
type ErrUnsupported struct {
	EsqlError
	Operation string
	Version   string
}

// NewUnsupported creates a new ErrUnsupported.
func NewUnsupported(operation, version, reason string) *ErrUnsupported {
	return &ErrUnsupported{
		EsqlError: EsqlError{
			Code:       CodeUnsupported,
			Message:    fmt.Sprintf("%s is not supported on version %s", operation, version),
			Reason:     reason,
			Suggestion: "upgrade the cluster or use an operation available on this version",
		},
		Operation: operation,
		Version:   version,
	}
}

// ErrParse is returned by the SQL lexer and parser.
type ErrParse struct {
	EsqlError
	// Token is the offending token text.
	Token string
	// Expected names what the parser wanted instead. Empty for lexer errors.
	Expected string
	// Line and Column are 1-based.
	Line   int
	Column int
}

// NewParse creates a new ErrParse.
func NewParse(token, expected string, line, column int) *ErrParse {
	msg := fmt.Sprintf("unexpected %s at line %d, column %d", token, line, column)
	reason := ""
	if expected != "" {
		msg = fmt.Sprintf("Expected %s, got %s at line %d, column %d", expected, token, line, column)
		reason = fmt.Sprintf("the query grammar requires %s here", expected)
	}
	return &ErrParse{
		EsqlError: EsqlError{
			Code:       CodeParse,
			Message:    msg,
			Reason:     reason,
			Suggestion: "check the statement against: SELECT list FROM index [WHERE cond] [ORDER BY f [ASC|DESC]] [LIMIT n [OFFSET m]]",
		},
		Token:    token,
		Expected: expected,
		Line:     line,
		Column:   column,
	}
}

// ErrFormat is returned for malformed JSON input and for response
// documents whose shape is not one of the known variants.
type ErrFormat struct {
	EsqlError
	Operation string
}

// NewFormat creates a new ErrFormat.
func NewFormat(operation, reason string, cause error) *ErrFormat {
	return &ErrFormat{
		EsqlError: EsqlError{
			Code:    CodeFormat,
			Message: fmt.Sprintf("%s: malformed document", operation),
			Reason:  reason,
			Cause:   cause,
		},
		Operation: operation,
	}
}

// ErrValidation is returned when input is rejected before any request is
// issued.
type ErrValidation struct {
	EsqlError
	Operation string
	Field     string
}

// NewValidation creates a new ErrValidation.
func NewValidation(operation, field, reason, suggestion string) *ErrValidation {
	return &ErrValidation{
		EsqlError: EsqlError{
			Code:       CodeValidation,
			Message:    fmt.Sprintf("%s: invalid %s", operation, field),
			Reason:     reason,
			Suggestion: suggestion,
		},
		Operation: operation,
		Field:     field,
	}
}

// NewInternal wraps an unexpected failure.
func NewInternal(message string, cause error) *EsqlError {
	return &EsqlError{
		Code:    CodeInternal,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf returns the ErrorCode of the first esql error in err's chain, or
// CodeInternal when there is none.
func CodeOf(err error) ErrorCode {
	var te *ErrTransport
	if errors.As(err, &te) {
		return te.Code
	}
	var ue *ErrUnsupported
	if errors.As(err, &ue) {
		return ue.Code
	}
	var pe *ErrParse
	if errors.As(err, &pe) {
		return pe.Code
	}
	var fe *ErrFormat
	if errors.As(err, &fe) {
		return fe.Code
	}
	var ve *ErrValidation
	if errors.As(err, &ve) {
		return ve.Code
	}
	var be *EsqlError
	if errors.As(err, &be) {
		return be.Code
	}
	return CodeInternal
}

// IsUnsupported reports whether err is an ErrUnsupported.
func IsUnsupported(err error) bool {
	var ue *ErrUnsupported
	return errors.As(err, &ue)
}

// IsValidation reports whether err is an ErrValidation.
func IsValidation(err error) bool {
	var ve *ErrValidation
	return errors.As(err, &ve)
}
