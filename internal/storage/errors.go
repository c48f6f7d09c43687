package storage

import "errors"

// Errors shared by every store backend. Backends translate their driver
// errors into these so services can classify them with errors.Is.
var (
	ErrNotFound      = errors.New("document not found")
	ErrAlreadyExists = errors.New("document already exists")
	ErrConflict      = errors.New("document changed concurrently")

	// ErrNoChange may be returned by an update callback to skip the write.
	// The update then reports the current document and a nil error.
	ErrNoChange = errors.New("no change")
)
