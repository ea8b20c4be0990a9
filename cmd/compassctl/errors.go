package main

import "errors"

// Error constants.
var (
	ErrUnknownOutput    = errors.New("unknown output format")
	ErrUnknownDimension = errors.New("unknown ranking dimension")
	ErrInvalidLimit     = errors.New("limit must not be negative")
	ErrLimitExceeded    = errors.New("limit exceeds max_ranking_limit")
	ErrUnknownCriterion = errors.New("unknown checklist criterion")
	ErrUnknownRange     = errors.New("unknown date range")
)
