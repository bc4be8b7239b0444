package storage

import "errors"

var (
	// ErrTooLarge is returned when an upload exceeds the configured maximum size.
	ErrTooLarge = errors.New("upload exceeds maximum size")

	// ErrInvalidSchedule is returned when a sweep schedule cannot be parsed.
	ErrInvalidSchedule = errors.New("invalid sweep schedule")

	// ErrInvalidName is returned when a stored name would escape the upload directory.
	ErrInvalidName = errors.New("invalid stored document name")
)
