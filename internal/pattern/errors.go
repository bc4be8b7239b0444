package pattern

import "errors"

var (
	// ErrDuplicateDetector is returned when two detectors serve one category.
	ErrDuplicateDetector = errors.New("duplicate detector for category")

	// ErrUnclassifiedDetector is returned when a detector has no category.
	ErrUnclassifiedDetector = errors.New("detector must serve a classified category")

	// ErrUnknownDetector is returned by Select for a name that is not a
	// built-in detector.
	ErrUnknownDetector = errors.New("unknown detector")
)
