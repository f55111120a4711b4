package form

import "errors"

// Sentinel kinds for submission errors.
var (
	ErrNameRequired = errors.New("name is required")
	ErrBothSelected = errors.New("both checkboxes selected")
	ErrNoneSelected = errors.New("no checkbox selected")
	ErrSubmission   = errors.New("submission failed")
)
