package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"

	"github.com/nao1215/docpointer/internal/pattern"
	"github.com/nao1215/docpointer/internal/storage"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "docpointer"

	// DefaultListenAddr is where the HTTP server listens.
	DefaultListenAddr = "127.0.0.1:5000"

	// DefaultRetention is how long uploaded documents are kept before a
	// sweep deletes them.
	DefaultRetention = storage.DefaultRetention

	// DefaultSweepSchedule is the cron schedule of the background sweep.
	// Uploads are also swept before every extraction request.
	DefaultSweepSchedule = storage.DefaultSweepSchedule

	// DefaultRequestTimeout bounds one extraction request end to end.
	// Extraction work grows with pointers x pages x text length.
	DefaultRequestTimeout = 60 * time.Second

	// DefaultMaxUploadSize is the largest accepted document in bytes.
	DefaultMaxUploadSize = storage.DefaultMaxSize

	// DefaultMaxPointers caps the pointer list of one request.
	DefaultMaxPointers = 100

	// DefaultWorkers is the number of concurrent page scans per extraction.
	// 1 keeps extraction sequential.
	DefaultWorkers = 1

	// DefaultBatchSize is the number of documents the extract command
	// processes concurrently.
	DefaultBatchSize = 4

	// DefaultReportFormat is the extract command's output format.
	DefaultReportFormat = FormatText
)

// Report formats accepted by ReportFormat.
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatXLSX     = "xlsx"
)

// Config holds all configuration options for docpointer.
// It is populated from defaults, then the config file, then CLI flags, and
// passed through the application rather than kept as global state.
//
// Design decision: struct tags carry the simple range checks and
// go-playground/validator enforces them, so adding a numeric option is a
// field and a tag. Checks that span fields or need another package (the
// detector names, the xlsx output file) stay in Validate.
//
// Fields used by only one command (BatchSize and ReportFormat for
// extract, ListenAddr for serve) live here too, so one config file can
// serve every command.
type Config struct {
	// ListenAddr is the HTTP server address in "host:port" form.
	ListenAddr string `validate:"required,hostname_port"`

	// UploadDir is where uploaded documents are stored.
	UploadDir string `validate:"required"`

	// Retention is how long uploads are kept.
	Retention time.Duration `validate:"gt=0"`

	// SweepSchedule is a cron expression or descriptor such as "@hourly".
	SweepSchedule string `validate:"required,cronspec"`

	// RequestTimeout bounds one extraction request.
	RequestTimeout time.Duration `validate:"gt=0"`

	// MaxUploadSize is the largest accepted upload in bytes.
	MaxUploadSize int64 `validate:"gt=0"`

	// MaxPointers caps the number of pointers in one request.
	MaxPointers int `validate:"gt=0"`

	// Workers is the number of concurrent page scans per extraction.
	Workers int `validate:"gte=1"`

	// BatchSize is the number of documents processed concurrently by the
	// extract command.
	BatchSize int `validate:"gte=1"`

	// Detectors restricts extraction to the named detectors, e.g.
	// ["date", "email"]. Pointers routed to any other category get no
	// matches. Empty enables every detector.
	Detectors []string

	// DBDir is the directory of the SQLite history database.
	DBDir string

	// SaveToDB enables recording extractions in the history database.
	SaveToDB bool

	// ReportFormat selects the extract command's output.
	ReportFormat string `validate:"oneof=text json markdown xlsx"`

	// ReportFile writes the report to a file instead of stdout.
	// Required for the xlsx format.
	ReportFile string

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is an explicit configuration file path.
	// If empty, FindConfigFile searches the usual locations.
	ConfigFilePath string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		ListenAddr:     DefaultListenAddr,
		UploadDir:      XDGUploadDir(),
		Retention:      DefaultRetention,
		SweepSchedule:  DefaultSweepSchedule,
		RequestTimeout: DefaultRequestTimeout,
		MaxUploadSize:  DefaultMaxUploadSize,
		MaxPointers:    DefaultMaxPointers,
		Workers:        DefaultWorkers,
		BatchSize:      DefaultBatchSize,
		DBDir:          XDGDataDir(),
		ReportFormat:   DefaultReportFormat,
	}
}

// XDGDataDir returns the XDG data directory for docpointer.
// On Linux: ~/.local/share/docpointer
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGUploadDir returns the default upload directory.
// On Linux: ~/.local/share/docpointer/uploads
func XDGUploadDir() string {
	return filepath.Join(XDGDataDir(), "uploads")
}

// XDGConfigDir returns the XDG config directory for docpointer.
// On Linux: ~/.config/docpointer
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// fieldErrors maps a struct field to the error reported when it fails validation.
// Callers test for these sentinels with errors.Is instead of parsing
// validator messages.
var fieldErrors = map[string]error{
	"ListenAddr":     ErrInvalidListenAddr,
	"UploadDir":      ErrNoUploadDir,
	"Retention":      ErrInvalidRetention,
	"SweepSchedule":  ErrInvalidSweepSchedule,
	"RequestTimeout": ErrInvalidTimeout,
	"MaxUploadSize":  ErrInvalidMaxUploadSize,
	"MaxPointers":    ErrInvalidMaxPointers,
	"Workers":        ErrInvalidWorkers,
	"BatchSize":      ErrInvalidBatchSize,
	"ReportFormat":   ErrInvalidReportFormat,
}

// newValidator builds a validator with the cronspec tag registered.
// cronspec accepts what robfig/cron parses, descriptors such as "@hourly"
// included.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("cronspec", func(fl validator.FieldLevel) bool { //nolint:errcheck // tag name is valid
		return storage.ValidateSchedule(fl.Field().String()) == nil
	})
	return v
}

var validate = newValidator()

// Validate checks if the configuration is valid.
// It returns the sentinel error of the first invalid field.
//
// Validation happens once, after flags are applied, so a bad value in the
// config file can still be overridden on the command line.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			if sentinel, ok := fieldErrors[verrs[0].StructField()]; ok {
				return sentinel
			}
		}
		return err
	}

	if _, err := pattern.Select(c.Detectors...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDetectors, err)
	}
	if c.ReportFormat == FormatXLSX && c.ReportFile == "" {
		return ErrXLSXNeedsFile
	}
	return nil
}
