package state

import "errors"

// Session state errors.
var (
	// ErrFileNotFound is returned when reading a virtual file that was never written.
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidTodoStatus is returned when a todo carries a status outside the enum.
	ErrInvalidTodoStatus = errors.New("invalid todo status")

	// ErrEmptyFileName is returned when a file operation names no file.
	ErrEmptyFileName = errors.New("file name cannot be empty")
)
