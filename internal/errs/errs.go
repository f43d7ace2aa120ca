// Package errs defines the error-kind taxonomy shared across parseforge's
// phases, per the propagation policy: recovered locally, surfaced with
// partial progress, or fatal.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an Error for routing.
type Kind string

const (
	KindConfig          Kind = "ConfigError"
	KindIO              Kind = "IoError"
	KindFetch           Kind = "FetchError"
	KindCluster         Kind = "ClusterError"
	KindModel           Kind = "ModelError"
	KindParse           Kind = "ParseError"
	KindSchemaMerge     Kind = "SchemaMergeError"
	KindCodeGeneration  Kind = "CodeGenerationError"
	KindExecutor        Kind = "ExecutorError"
	KindTimeout         Kind = "TimeoutError"
	KindCancelled       Kind = "Cancelled"
	KindInternal        Kind = "InternalError"
)

// Error wraps an underlying cause with a Kind and optional context.
type Error struct {
	Kind    Kind
	Context string
	Field   string // set for per-field ExecutorError
	Err     error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s[field=%s]: %s: %v", e.Kind, e.Field, e.Context, e.Err)
	}
	if e.Context != "" {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Context, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an Error of the given Kind wrapping err with context.
func New(kind Kind, context string, err error) *Error {
	return &Error{Kind: kind, Context: context, Err: err}
}

// WithField attaches a field name, which Error() then includes. Nothing
// in the executor calls it: artifact errors are reported without a field.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// Is reports whether err carries the given Kind, unwrapping as needed.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// IsFatal reports whether a Kind is in the fatal propagation class:
// ConfigError, corpus-level IoError, and Cancelled are never retried
// and always abort the enclosing operation.
func IsFatal(kind Kind) bool {
	switch kind {
	case KindConfig, KindIO, KindCancelled:
		return true
	default:
		return false
	}
}
