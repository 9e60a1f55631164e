// Package errors carries the coded error taxonomy used by the waypost CLI.
// Runtime discovery errors live in pkg/waypost; this package covers the
// tooling side: scaffolding, manifest generation and configuration edits.
package errors

import (
	"fmt"
	"strings"
)

// ErrorCode classifies a CLI error.
type ErrorCode int

const (
	UnknownErrorCode ErrorCode = iota
	ValidationErrorCode
	FileSystemErrorCode
	TemplateErrorCode
	ConfigurationErrorCode
	ScanErrorCode
)

func (e ErrorCode) String() string {
	switch e {
	case ValidationErrorCode:
		return "ValidationError"
	case FileSystemErrorCode:
		return "FileSystemError"
	case TemplateErrorCode:
		return "TemplateError"
	case ConfigurationErrorCode:
		return "ConfigurationError"
	case ScanErrorCode:
		return "ScanError"
	default:
		return "UnknownError"
	}
}

// BaseError is a coded error with optional fix suggestions shown to the
// user.
type BaseError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Hints   []string
}

func (e *BaseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *BaseError) Unwrap() error { return e.Cause }

// WithHint appends a fix suggestion.
func (e *BaseError) WithHint(format string, args ...any) *BaseError {
	e.Hints = append(e.Hints, fmt.Sprintf(format, args...))
	return e
}

// Detail renders the error with its hints for terminal output.
func (e *BaseError) Detail() string {
	var b strings.Builder
	b.WriteString(e.Code.String())
	b.WriteString(": ")
	b.WriteString(e.Error())
	for _, hint := range e.Hints {
		b.WriteString("\n  hint: ")
		b.WriteString(hint)
	}
	return b.String()
}

// New creates a coded error.
func New(code ErrorCode, format string, args ...any) *BaseError {
	return &BaseError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a coded error around a cause.
func Wrap(code ErrorCode, cause error, format string, args ...any) *BaseError {
	return &BaseError{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// WrapFileSystem wraps a file operation failure.
func WrapFileSystem(operation, path string, cause error) *BaseError {
	return Wrap(FileSystemErrorCode, cause, "failed to %s %s", operation, path)
}

// WrapTemplate wraps a template rendering failure.
func WrapTemplate(name string, cause error) *BaseError {
	return Wrap(TemplateErrorCode, cause, "failed to render template %s", name)
}

// NewValidation reports invalid user input.
func NewValidation(format string, args ...any) *BaseError {
	return New(ValidationErrorCode, format, args...)
}
