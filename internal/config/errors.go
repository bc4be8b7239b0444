package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so that callers can use
// errors.Is() while still printing a readable message.
var (
	// ErrInvalidListenAddr is returned when the listen address is not host:port.
	ErrInvalidListenAddr = errors.New("invalid listen address: must be host:port")

	// ErrNoUploadDir is returned when no upload directory is configured.
	ErrNoUploadDir = errors.New("no upload directory specified")

	// ErrInvalidRetention is returned when the retention window is not positive.
	ErrInvalidRetention = errors.New("invalid retention: must be positive")

	// ErrInvalidSweepSchedule is returned when the sweep schedule is not a
	// valid cron expression.
	ErrInvalidSweepSchedule = errors.New("invalid sweep schedule: must be a cron expression such as @hourly")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid request timeout: must be positive")

	// ErrInvalidMaxUploadSize is returned when the upload limit is not positive.
	ErrInvalidMaxUploadSize = errors.New("invalid max upload size: must be positive")

	// ErrInvalidMaxPointers is returned when the pointer limit is not positive.
	ErrInvalidMaxPointers = errors.New("invalid max pointers: must be positive")

	// ErrInvalidWorkers is returned when the worker count is below one.
	ErrInvalidWorkers = errors.New("invalid workers: must be at least 1")

	// ErrInvalidBatchSize is returned when the batch size is below one.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be at least 1")

	// ErrInvalidReportFormat is returned for an unknown report format.
	ErrInvalidReportFormat = errors.New("invalid report format: must be text, json, markdown or xlsx")

	// ErrConflictingReportFormats is returned when more than one of --json,
	// --markdown and --xlsx is specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: choose one of --json, --markdown, --xlsx")

	// ErrXLSXNeedsFile is returned when xlsx output has no --output file.
	ErrXLSXNeedsFile = errors.New("xlsx report requires an output file")

	// ErrInvalidDetectors is returned when Detectors names an unknown detector.
	ErrInvalidDetectors = errors.New("invalid detectors: must be date, signature, currency_amount, email or phone")

	// ErrInvalidDuration is returned when a config file duration cannot be parsed.
	ErrInvalidDuration = errors.New("invalid duration in configuration file")
)
