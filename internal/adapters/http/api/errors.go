package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest       = errors.New("bad request")
	ErrInvalidLimit     = fmt.Errorf("%w: limit must be a positive integer", ErrBadRequest)
	ErrLimitExceeded    = fmt.Errorf("%w: limit exceeds maximum", ErrBadRequest)
	ErrUnknownDimension = fmt.Errorf("%w: unknown ranking dimension", ErrBadRequest)
	ErrUnknownRange     = fmt.Errorf("%w: unknown date range", ErrBadRequest)
	ErrBodyTooLarge     = errors.New("request body too large")
	ErrUnknownImport    = errors.New("unknown import collection")
)
