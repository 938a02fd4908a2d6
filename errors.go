package postapi

import (
	"fmt"
	"sort"
	"strings"
)

// NotFoundError reports that no post matched the given id or slug.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return "post not found"
	}
	return fmt.Sprintf("post %q not found", e.Key)
}

// ConflictError reports a slug collision on create, update or upsert.
type ConflictError struct {
	Slug string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slug %q already exists", e.Slug)
}

// ValidationError reports one or more invalid input fields. Fields maps the
// JSON field name to a human-readable message.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid input"
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+e.Fields[name])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func validationErrorf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: fmt.Sprintf(format, args...)}}
}
