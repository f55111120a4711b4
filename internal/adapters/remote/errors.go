package remote

import "errors"

// Sentinel kinds for remote service errors.
var (
	ErrService      = errors.New("remote service error")
	ErrUnauthorized = errors.New("remote service rejected credentials")
)
