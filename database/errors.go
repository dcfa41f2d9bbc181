package database

import "errors"

var (
	// ErrValidation reports bad input, such as an empty title.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound reports an id that is not in the task list.
	ErrNotFound = errors.New("task not found")
	// ErrStoreUnavailable reports a tasks file that cannot be read, parsed or written.
	ErrStoreUnavailable = errors.New("task store unavailable")
)
