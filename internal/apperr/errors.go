package apperr

import "errors"

// ErrNotFound is returned by lookup-style stores and sources when the
// participant profile or guest session does not exist.
var ErrNotFound = errors.New("not found")
