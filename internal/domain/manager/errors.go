package manager

import (
	"errors"
	"fmt"
)

// Sentinel kinds for mapping configuration errors.
var (
	ErrInvalidMapping  = errors.New("client and manager are required")
	ErrDuplicateClient = errors.New("client already mapped")
	ErrClientNotFound  = errors.New("client not mapped")
	ErrReadOnly        = errors.New("mapping table is read-only")
)

// MappingError ties a sentinel to the client it concerns.
type MappingError struct {
	Client string
	Err    error
}

func (e *MappingError) Error() string {
	if e.Client == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Client)
}

func (e *MappingError) Unwrap() error { return e.Err }
