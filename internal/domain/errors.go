package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not_found")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrInvalidTransition = errors.New("invalid_transition")
	ErrSelfRequest       = errors.New("self_request")
	ErrDuplicateEdge     = errors.New("duplicate_edge")
	ErrNotAuthorized     = errors.New("not_authorized")
	ErrConflict          = errors.New("conflict")
	ErrRateLimited       = errors.New("rate_limited")
	ErrDependencyFailure = errors.New("dependency_failure")
	ErrValidation        = errors.New("validation")
)

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(fields map[string]string) error {
	return &ValidationError{Fields: fields}
}

// DependencyError reports a downstream write that failed after the primary
// mutation was already committed.
type DependencyError struct {
	Op  string
	Err error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("dependency failure: %s: %v", e.Op, e.Err)
}

func (e *DependencyError) Unwrap() []error { return []error{ErrDependencyFailure, e.Err} }

func NewDependencyError(op string, err error) error {
	return &DependencyError{Op: op, Err: err}
}
