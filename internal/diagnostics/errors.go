// Package diagnostics defines the error codes reported while building
// specialized operations and while executing dispatch nodes.
package diagnostics

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode identifies a class of diagnostic.
// S = specialization authoring, E = emission, M = manifest, R = runtime.
type ErrorCode string

const (
	ErrS001 ErrorCode = "S001" // explicit order contradicts lattice order
	ErrS002 ErrorCode = "S002" // ambiguous order
	ErrS003 ErrorCode = "S003" // unreachable specialization
	ErrS004 ErrorCode = "S004" // missing Generic
	ErrS005 ErrorCode = "S005" // unresolved guard
	ErrS006 ErrorCode = "S006" // arity mismatch
	ErrS007 ErrorCode = "S007" // duplicate or illegal Generic/Uninitialized
	ErrS008 ErrorCode = "S008" // unknown type
	ErrS009 ErrorCode = "S009" // missing body
	ErrS010 ErrorCode = "S010" // Generic does not cover a specialization
	ErrS011 ErrorCode = "S011" // invalid grouping tree

	ErrE001 ErrorCode = "E001" // emission failed

	ErrM001 ErrorCode = "M001" // manifest error

	ErrR001 ErrorCode = "R001" // no specialization matched
	ErrR002 ErrorCode = "R002" // re-entrant rewrite
)

var messages = map[ErrorCode]string{
	ErrS001: "specialization %s is ordered before %s but is more general",
	ErrS002: "ambiguous order between %s and %s: equal order %d and no type relation",
	ErrS003: "specialization %s is not reachable: it is shadowed by %s",
	ErrS004: "operation %s needs a Generic specialization: no declared specialization is total",
	ErrS005: "specialization %s references a guard that cannot be resolved: %s",
	ErrS006: "specialization %s has %d arguments, operation %s expects %d",
	ErrS007: "%s",
	ErrS008: "specialization %s uses unknown type %s",
	ErrS009: "specialization %s has no body",
	ErrS010: "Generic %s does not accept every argument of specialization %s %s",
	ErrS011: "grouping tree of %s is invalid: %s",
	ErrE001: "cannot emit %s: %s",
	ErrM001: "%s",
	ErrR001: "no specialization of %s matched arguments %s",
	ErrR002: "re-entrant rewrite of %s",
}

// DiagnosticError is a single reported problem. Subject names the operation
// or specialization the problem is attached to.
type DiagnosticError struct {
	Code    ErrorCode
	Subject string
	File    string
	Args    []interface{}
}

// NewError builds a diagnostic with the message template of code.
func NewError(code ErrorCode, subject string, args ...interface{}) *DiagnosticError {
	return &DiagnosticError{Code: code, Subject: subject, Args: args}
}

// Message returns the formatted message without code and location.
func (e *DiagnosticError) Message() string {
	tmpl, ok := messages[e.Code]
	if !ok {
		return fmt.Sprint(e.Args...)
	}
	return fmt.Sprintf(tmpl, e.Args...)
}

func (e *DiagnosticError) Error() string {
	var b strings.Builder
	if e.File != "" {
		b.WriteString(e.File)
		b.WriteString(": ")
	}
	b.WriteString("error [")
	b.WriteString(string(e.Code))
	b.WriteString("]: ")
	b.WriteString(e.Message())
	return b.String()
}

// Is matches diagnostics by code so callers can write
// errors.Is(err, diagnostics.NewError(diagnostics.ErrS003, "")).
func (e *DiagnosticError) Is(target error) bool {
	var other *DiagnosticError
	if errors.As(target, &other) {
		return other.Code == e.Code
	}
	return false
}

// HasCode reports whether any diagnostic in errs carries code.
func HasCode(errs []*DiagnosticError, code ErrorCode) bool {
	for _, e := range errs {
		if e.Code == code {
			return true
		}
	}
	return false
}

// Join combines diagnostics into one error, or nil when there are none.
func Join(errs []*DiagnosticError) error {
	if len(errs) == 0 {
		return nil
	}
	list := make([]error, len(errs))
	for i, e := range errs {
		list[i] = e
	}
	return errors.Join(list...)
}
