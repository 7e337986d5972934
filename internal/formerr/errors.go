// Package formerr defines the stable error taxonomy reported to callers of
// the form compiler and executor, and translates upstream Forms Service
// failures into it.
package formerr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Code is a stable, machine-readable error identifier.
type Code string

const (
	// CodeValidation means the FormSpec shape is malformed. Fatal, never retried.
	CodeValidation Code = "VALIDATION_ERROR"

	// CodeUnsupportedQuestionType means a question carries a type the
	// compiler cannot emit. The generation input must be fixed.
	CodeUnsupportedQuestionType Code = "UNSUPPORTED_QUESTION_TYPE"

	// CodeTransientUpstream is surfaced only after the executor exhausted its
	// retries on a retryable upstream status.
	CodeTransientUpstream Code = "TRANSIENT_UPSTREAM"

	CodeUpstreamCreateFailed Code = "UPSTREAM_CREATE_FAILED"
	CodeUpstreamMutateFailed Code = "UPSTREAM_MUTATE_FAILED"
	CodeUpstreamReadFailed   Code = "UPSTREAM_READ_FAILED"

	// CodeGenerationFailed means the language-generation collaborator could
	// not produce a usable spec.
	CodeGenerationFailed Code = "GENERATION_FAILED"

	CodeNotFound Code = "FORM_NOT_FOUND"
	CodeInternal Code = "INTERNAL_ERROR"
)

// Error is a translated failure: status code, code string and human
// message, with the underlying cause preserved for diagnostics.
type Error struct {
	Status  int
	Code    Code
	Message string

	// Hint is an optional static remediation hint for known failure modes.
	Hint string

	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Hint != "" {
		b.WriteString("\n")
		b.WriteString(e.Hint)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an Error with the default status for code.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Status:  defaultStatus(code),
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap returns an Error with the default status for code that carries err
// as its cause.
func Wrap(code Code, err error, format string, args ...any) *Error {
	e := New(code, format, args...)
	e.Err = err
	return e
}

// Validation builds a VALIDATION_ERROR listing every problem found.
func Validation(problems []string) *Error {
	return New(CodeValidation, "invalid form spec: %s", strings.Join(problems, "; "))
}

// UnsupportedQuestionType builds an UNSUPPORTED_QUESTION_TYPE error.
func UnsupportedQuestionType(typ string) *Error {
	return New(CodeUnsupportedQuestionType, "Unsupported question type: %s", typ)
}

// CodeOf returns the taxonomy code of err, or CodeInternal when err does not
// carry one.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// StatusOf returns the HTTP-style status of err, or 500.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Status > 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

func defaultStatus(code Code) int {
	switch code {
	case CodeValidation, CodeUnsupportedQuestionType:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeGenerationFailed, CodeUpstreamCreateFailed, CodeUpstreamMutateFailed,
		CodeUpstreamReadFailed, CodeTransientUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
