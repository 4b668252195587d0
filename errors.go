package webroot

import "errors"

var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("not found")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrMalformedRequest is returned when a request cannot be framed or fails validation
	ErrMalformedRequest = errors.New("malformed request")
	// ErrConnection is returned when reading from or writing to a connection fails
	ErrConnection = errors.New("connection error")
	// ErrFileRead is returned when a file exists but its content cannot be read
	ErrFileRead = errors.New("file read error")
)
