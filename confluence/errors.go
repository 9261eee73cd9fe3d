package confluence

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the remote object doesn't exist (or we're not allowed to
	// know that it does -- Confluence serves 404 for both).
	ErrNotFound = errors.New("confluence: object not found")

	// ErrAuth is returned on 401/403.  Retrying won't help, check your token.
	ErrAuth = errors.New("confluence: authentication failed")
)

// StatusError carries an unexpected HTTP response status.  Use errors.As to get at the code.
type StatusError struct {
	Code   int
	Status string
	URL    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("confluence: unexpected HTTP response status: %s: %s", e.Status, e.URL)
}

// RenderError is returned when the macro preview endpoint can't produce an image.
type RenderError struct {
	DiagramName string
	Err         error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("confluence: couldn't render preview for %q: %v", e.DiagramName, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
