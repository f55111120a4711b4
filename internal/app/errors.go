package service

import "errors"

// ErrViewNotFound is returned for a view id that was never issued or has been
// evicted. Callers treat it like a page reload.
var ErrViewNotFound = errors.New("view not found")
