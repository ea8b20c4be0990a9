package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound = errors.New("key not found")
	ErrCorrupt  = errors.New("persisted value is not valid JSON")
)
