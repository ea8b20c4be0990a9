package audit

import (
	"errors"
	"strings"
)

// Sentinel kinds for audit operations.
var (
	ErrValidation = errors.New("invalid audit")
	ErrNotFound   = errors.New("audit not found")
)

// ValidationError lists the fields that blocked a save.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing or invalid fields: " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
