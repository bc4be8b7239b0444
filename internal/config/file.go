package config

import (
	"fmt"
	"time"
)

// File represents the structure of a docpointer configuration file.
// Every field is optional; unset fields leave the current value alone.
// Durations use Go syntax such as "24h" or "90s".
//
// Design decision: File is separate from Config so that the on-disk keys
// can stay snake_case and stable while Config evolves. Durations are kept
// as strings here because go-toml does not decode "24h" into a
// time.Duration, and both formats accept the same values. SaveToDB is a
// pointer so Apply can tell an explicit false from an absent key.
type File struct {
	Listen         string   `yaml:"listen,omitempty" toml:"listen,omitempty"`
	UploadDir      string   `yaml:"upload_dir,omitempty" toml:"upload_dir,omitempty"`
	Retention      string   `yaml:"retention,omitempty" toml:"retention,omitempty"`
	SweepSchedule  string   `yaml:"sweep_schedule,omitempty" toml:"sweep_schedule,omitempty"`
	RequestTimeout string   `yaml:"request_timeout,omitempty" toml:"request_timeout,omitempty"`
	MaxUploadSize  int64    `yaml:"max_upload_size,omitempty" toml:"max_upload_size,omitempty"`
	MaxPointers    int      `yaml:"max_pointers,omitempty" toml:"max_pointers,omitempty"`
	Workers        int      `yaml:"workers,omitempty" toml:"workers,omitempty"`
	BatchSize      int      `yaml:"batch_size,omitempty" toml:"batch_size,omitempty"`
	Detectors      []string `yaml:"detectors,omitempty" toml:"detectors,omitempty"`
	DBDir          string   `yaml:"db_dir,omitempty" toml:"db_dir,omitempty"`
	SaveToDB       *bool    `yaml:"save_to_db,omitempty" toml:"save_to_db,omitempty"`
	Format         string   `yaml:"format,omitempty" toml:"format,omitempty"`
}

// Apply copies every set field of f onto c.
// It fails only when a duration does not parse.
func (f *File) Apply(c *Config) error {
	if f.Listen != "" {
		c.ListenAddr = f.Listen
	}
	if f.UploadDir != "" {
		c.UploadDir = f.UploadDir
	}
	if err := applyDuration("retention", f.Retention, &c.Retention); err != nil {
		return err
	}
	if f.SweepSchedule != "" {
		c.SweepSchedule = f.SweepSchedule
	}
	if err := applyDuration("request_timeout", f.RequestTimeout, &c.RequestTimeout); err != nil {
		return err
	}
	if f.MaxUploadSize != 0 {
		c.MaxUploadSize = f.MaxUploadSize
	}
	if f.MaxPointers != 0 {
		c.MaxPointers = f.MaxPointers
	}
	if f.Workers != 0 {
		c.Workers = f.Workers
	}
	if f.BatchSize != 0 {
		c.BatchSize = f.BatchSize
	}
	if len(f.Detectors) > 0 {
		c.Detectors = append([]string(nil), f.Detectors...)
	}
	if f.DBDir != "" {
		c.DBDir = f.DBDir
	}
	if f.SaveToDB != nil {
		c.SaveToDB = *f.SaveToDB
	}
	if f.Format != "" {
		c.ReportFormat = f.Format
	}
	return nil
}

// applyDuration parses value into dst when value is set.
func applyDuration(key, value string, dst *time.Duration) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidDuration, key, err)
	}
	*dst = d
	return nil
}
