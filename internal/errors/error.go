package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	// CategoryUsage marks a component used outside its required ancestor scope.
	CategoryUsage Category = "usage"
	// CategoryConfig marks a missing or invalid input combination.
	CategoryConfig Category = "config"
	// CategoryInitialization marks a provider SDK that failed to load.
	CategoryInitialization Category = "initialization"
	// CategoryWidget marks widget creation, mount or input validation failures.
	CategoryWidget Category = "widget"
	// CategoryRedirect marks a failed checkout redirect.
	CategoryRedirect Category = "redirect"
	// CategoryProtocol marks bridge wire errors.
	CategoryProtocol Category = "protocol"
	// CategoryBackend marks example backend request failures.
	CategoryBackend Category = "backend"
	// CategoryCLI marks command line errors.
	CategoryCLI Category = "cli"
)

// Error is a structured error with a code, suggestion, and documentation.
type Error struct {
	// Code is a unique error identifier (e.g., "P001").
	Code string

	// Category is the error type (usage, config, widget, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target carries the same code. This lets callers compare
// against templates, e.g. errors.Is(err, errors.New("P001")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// WithSuggestion adds a fix suggestion to the error.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// WithMessage replaces the template message with a formatted one.
func (e *Error) WithMessage(format string, args ...any) *Error {
	e.Message = fmt.Sprintf(format, args...)
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// WithDetailf adds a formatted detailed explanation to the error.
func (e *Error) WithDetailf(format string, args ...any) *Error {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// Wrap wraps another error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// New creates an Error from a registered error code.
func New(code string) *Error {
	template, ok := registry[code]
	if !ok {
		return &Error{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &Error{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   template.DocURL,
	}
}

// Newf creates a new Error with a formatted message (no code).
func Newf(category Category, format string, args ...any) *Error {
	return &Error{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in an Error.
// Errors that already are *Error are returned unchanged.
func FromError(err error, code string) *Error {
	if err == nil {
		return nil
	}
	var pe *Error
	if stderrors.As(err, &pe) {
		return pe
	}
	return New(code).Wrap(err)
}

// MessageOf returns the text to show a user for err: the root cause of a
// wrapped *Error, the message of a bare one, or err.Error() otherwise.
// It returns "" for a nil error.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var pe *Error
	if stderrors.As(err, &pe) {
		if pe.Wrapped != nil {
			return pe.Wrapped.Error()
		}
		return pe.Message
	}
	return err.Error()
}

// CategoryOf returns the category of the first *Error in err's chain,
// or the empty category when there is none.
func CategoryOf(err error) Category {
	var pe *Error
	if stderrors.As(err, &pe) {
		return pe.Category
	}
	return ""
}

// IsUsage reports whether err is a usage error.
func IsUsage(err error) bool { return CategoryOf(err) == CategoryUsage }

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool { return CategoryOf(err) == CategoryConfig }

// IsInitialization reports whether err is an initialization error.
func IsInitialization(err error) bool { return CategoryOf(err) == CategoryInitialization }

// IsWidget reports whether err is a widget error.
func IsWidget(err error) bool { return CategoryOf(err) == CategoryWidget }

// IsRedirect reports whether err is a checkout redirect error.
func IsRedirect(err error) bool { return CategoryOf(err) == CategoryRedirect }
