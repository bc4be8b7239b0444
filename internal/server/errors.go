package server

import "errors"

// Request errors. Their messages are the error strings returned to clients.
var (
	// ErrMissingFile is returned when the request has no "file" part.
	ErrMissingFile = errors.New("no file part")

	// ErrNoSelectedFile is returned when the "file" part has an empty filename.
	ErrNoSelectedFile = errors.New("no selected file")

	// ErrMissingPointers is returned when the "pointers" field is absent or empty.
	ErrMissingPointers = errors.New("missing pointers")

	// ErrHistoryDisabled is returned by history endpoints when the server
	// runs without a history database.
	ErrHistoryDisabled = errors.New("extraction history is disabled")

	// ErrInvalidID is returned when an extraction id is not a positive integer.
	ErrInvalidID = errors.New("invalid extraction id")
)
