package site

import (
	"errors"
	"fmt"
)

// Error kinds returned by the site package.
var (
	ErrTemplate  = errors.New("template parse failed")
	ErrRender    = errors.New("render failed")
	ErrContent   = errors.New("content render failed")
	ErrBadForm   = errors.New("bad form")
	ErrCSRFSetup = errors.New("csrf setup failed")
)

// newKind returns an error of kind tagged with op.
func newKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// wrap tags err with op and kind, keeping both matchable with errors.Is.
func wrap(op string, kind, err error) error {
	if err == nil {
		return newKind(op, kind)
	}
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}
