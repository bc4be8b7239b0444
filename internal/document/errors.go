package document

import (
	"errors"
	"fmt"
)

var (
	// ErrDocumentUnreadable is matched by every failure to read a stored
	// document: missing files, corrupt structure and invalid encoding.
	ErrDocumentUnreadable = errors.New("document unreadable")

	// ErrUnsupportedFormat is returned when no provider handles a file extension.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	errInvalidUTF8 = errors.New("invalid UTF-8 content")
	errPDFPanic    = errors.New("pdf reader panic")
)

// UnreadableError reports why a document could not be read.
type UnreadableError struct {
	// Path is the stored document path.
	Path string

	// Format is the provider name that failed.
	Format string

	// Cause is the underlying error.
	Cause error
}

func (e *UnreadableError) Error() string {
	return fmt.Sprintf("%s: %s document %s: %v", ErrDocumentUnreadable, e.Format, e.Path, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *UnreadableError) Unwrap() error {
	return e.Cause
}

// Is makes errors.Is(err, ErrDocumentUnreadable) true.
func (e *UnreadableError) Is(target error) bool {
	return target == ErrDocumentUnreadable
}

func unreadable(format, path string, cause error) error {
	return &UnreadableError{Path: path, Format: format, Cause: cause}
}
