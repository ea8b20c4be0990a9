package source

import "errors"

// Sentinel kinds for collection loading.
var (
	ErrLoad        = errors.New("load collection failed")
	ErrUnsupported = errors.New("unsupported source")
)
