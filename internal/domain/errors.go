package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound   = errors.New("product not found")
	ErrValidation = errors.New("validation failed")
)

// ValidationError carries one message per offending field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) Empty() bool { return e == nil || len(e.Fields) == 0 }

// OrNil lets callers return the collected errors as a plain error value.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// JoinValidation merges the field messages of every ValidationError in errs.
// Earlier errors win when two report the same field; non-validation errors
// are ignored.
func JoinValidation(errs ...error) error {
	verr := &ValidationError{}
	for _, err := range errs {
		var fieldErr *ValidationError
		if errors.As(err, &fieldErr) {
			for f, msg := range fieldErr.Fields {
				verr.Add(f, msg)
			}
		}
	}
	return verr.OrNil()
}
