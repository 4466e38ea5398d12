package errors

import (
	stderrors "errors"
	"fmt"
)

// Category groups error codes.
type Category string

const (
	CategoryConfig   Category = "config"
	CategoryScenario Category = "scenario"
	CategoryReport   Category = "report"
	CategoryProtocol Category = "protocol"
	CategoryCLI      Category = "cli"
)

// Error is a structured error with a code, a suggestion and an optional
// wrapped cause.
type Error struct {
	// Code is the registry key, e.g. "E101".
	Code string `json:"code,omitempty"`

	Category Category `json:"category,omitempty"`

	// Message is a short description.
	Message string `json:"message"`

	// Detail is the specific reason for this occurrence.
	Detail string `json:"detail,omitempty"`

	// Suggestion is a hint on how to fix it.
	Suggestion string `json:"suggestion,omitempty"`

	Wrapped error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is matches another *Error by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code != "" && t.Code == e.Code
}

// WithDetail sets the detail.
func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// WithDetailf sets a formatted detail.
func (e *Error) WithDetailf(format string, args ...any) *Error {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithSuggestion sets the fix hint.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// Wrap sets the underlying cause.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// New creates an Error from a registered code.
func New(code string) *Error {
	tmpl, ok := registry[code]
	if !ok {
		return &Error{Code: code, Message: "Unknown error"}
	}
	return &Error{
		Code:       code,
		Category:   tmpl.Category,
		Message:    tmpl.Message,
		Suggestion: tmpl.Suggestion,
	}
}

// Newf creates an uncoded Error with a formatted message.
func Newf(category Category, format string, args ...any) *Error {
	return &Error{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError returns err as an *Error, wrapping it under code when it is not
// one already.
func FromError(err error, code string) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	return New(code).Wrap(err)
}

// HasCode reports whether err is or wraps an *Error with code.
func HasCode(err error, code string) bool {
	var e *Error
	return stderrors.As(err, &e) && e.Code == code
}
