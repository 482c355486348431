package query

import "errors"

var (
	// ErrInvalidPattern is returned when a configured regex does not compile.
	ErrInvalidPattern = errors.New("invalid pattern")
)
