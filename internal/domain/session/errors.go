package session

import "errors"

// ErrSessionFetch marks a failed session lookup. The gate treats it as signed out.
var ErrSessionFetch = errors.New("session fetch failed")
