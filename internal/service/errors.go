package service

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError reports malformed booking input.  It is detected before
// any availability check or state change, so callers can retry with a
// corrected request.  Fields maps a field name to the human readable
// problem with it.
type ValidationError struct {
	Fields map[string]string
}

func newValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

func (e *ValidationError) add(field, msg string) {
	if _, dup := e.Fields[field]; !dup {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) ok() bool { return len(e.Fields) == 0 }

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, f := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e.Fields[f]))
	}
	return "invalid booking request: " + strings.Join(parts, "; ")
}
