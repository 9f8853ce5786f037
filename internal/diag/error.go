package diag

import (
	"errors"
	"fmt"

	"rook/internal/source"
)

// Error is a diagnostic travelling through an error return.
// Indexing operations return *Error and the worker turns it into a Diagnostic.
type Error struct {
	Code    Code
	Span    source.Span
	Message string
	Notes   []Note
	Cause   error
}

// Errorf builds an *Error with a formatted message.
func Errorf(code Code, span source.Span, format string, args ...any) *Error {
	return &Error{Code: code, Span: span, Message: fmt.Sprintf(format, args...)}
}

// Internal builds an internal consistency error.
func Internal(span source.Span, format string, args ...any) *Error {
	return Errorf(InternalError, span, format, args...)
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code.ID(), e.Message)
}

// WithNote attaches a secondary location.
func (e *Error) WithNote(span source.Span, msg string) *Error {
	e.Notes = append(e.Notes, Note{Span: span, Msg: msg})
	return e
}

// WithCause records the collaborator error behind the diagnostic.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Diagnostic converts the error into an error-severity Diagnostic.
func (e *Error) Diagnostic() Diagnostic {
	return Diagnostic{
		Severity: SevError,
		Code:     e.Code,
		Message:  e.Message,
		Primary:  e.Span,
		Notes:    e.Notes,
	}
}

// AsError unwraps err into an *Error when it carries one.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// FromError converts any error into a Diagnostic. Errors without a
// diagnostic payload get fallback code and span.
func FromError(err error, fallback Code, span source.Span) Diagnostic {
	if de, ok := AsError(err); ok {
		return de.Diagnostic()
	}
	return NewError(fallback, span, err.Error())
}
