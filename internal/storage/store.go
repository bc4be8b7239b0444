package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"
)

// Default settings for a Store.
const (
	// DefaultRetention is how long uploads are kept.
	DefaultRetention = 24 * time.Hour

	// DefaultMaxSize is the largest upload accepted, in bytes.
	DefaultMaxSize int64 = 32 << 20
)

// tempPattern names in-progress uploads. They are renamed once complete.
const tempPattern = ".upload-*"

// StoredDocument describes one saved upload.
type StoredDocument struct {
	// OriginalName is the client-supplied filename.
	OriginalName string

	// StoredName is the unique base name inside the upload directory.
	StoredName string

	// Path is the absolute path of the stored file.
	Path string

	// Size is the file size in bytes.
	Size int64

	// SHA3 is the hex SHA3-256 digest of the content.
	SHA3 string

	// StoredAt is when the upload was saved.
	StoredAt time.Time
}

// SweepStats summarises one retention sweep.
type SweepStats struct {
	Scanned int
	Removed int
	Failed  int
	Freed   int64
}

// Store saves uploads under a single directory.
type Store struct {
	dir       string
	retention time.Duration
	maxSize   int64
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithRetention sets how long uploads are kept. Non-positive values are ignored.
func WithRetention(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.retention = d
		}
	}
}

// WithMaxSize sets the largest accepted upload. Non-positive values are ignored.
func WithMaxSize(n int64) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxSize = n
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Store rooted at dir, creating the directory if needed.
func New(dir string, opts ...Option) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upload directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	s := &Store{
		dir:       abs,
		retention: DefaultRetention,
		maxSize:   DefaultMaxSize,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// Dir returns the upload directory.
func (s *Store) Dir() string {
	return s.dir
}

// Retention returns the retention window.
func (s *Store) Retention() time.Duration {
	return s.retention
}

// MaxSize returns the largest accepted upload in bytes.
func (s *Store) MaxSize() int64 {
	return s.maxSize
}

// Save writes r under a unique name derived from originalName.
// Uploads larger than MaxSize fail with ErrTooLarge and leave no file behind.
func (s *Store) Save(ctx context.Context, originalName string, r io.Reader) (*StoredDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(s.dir, tempPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()        //nolint:errcheck // already failing
			_ = os.Remove(tmpPath) //nolint:errcheck // best effort cleanup
		}
	}()

	hasher := sha3.New256()
	n, err := io.Copy(io.MultiWriter(tmp, hasher), io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to write upload: %w", err)
	}
	if n > s.maxSize {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, s.maxSize)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close upload: %w", err)
	}

	now := s.now()
	name := UniqueName(originalName, now)
	path := filepath.Join(s.dir, name)
	if err := os.Rename(tmpPath, path); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	committed = true

	doc := &StoredDocument{
		OriginalName: originalName,
		StoredName:   name,
		Path:         path,
		Size:         n,
		SHA3:         hex.EncodeToString(hasher.Sum(nil)),
		StoredAt:     now,
	}
	s.logger.Debug("stored upload",
		"stored_name", name,
		"size", n,
	)
	return doc, nil
}

// Path returns the absolute path of a stored name.
func (s *Store) Path(storedName string) (string, error) {
	if storedName == "" || storedName != filepath.Base(storedName) || strings.HasPrefix(storedName, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, storedName)
	}
	return filepath.Join(s.dir, storedName), nil
}

// Remove deletes a stored document. Removing a missing document is not an error.
func (s *Store) Remove(storedName string) error {
	path, err := s.Path(storedName)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", storedName, err)
	}
	return nil
}

// Sweep deletes regular files whose modification time is older than the
// retention window. A file that cannot be inspected or removed is logged
// and counted in Failed; it does not stop the sweep.
func (s *Store) Sweep(ctx context.Context) (SweepStats, error) {
	var stats SweepStats

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return stats, fmt.Errorf("failed to list upload directory: %w", err)
	}

	cutoff := s.now().Add(-s.retention)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if !entry.Type().IsRegular() {
			continue
		}
		stats.Scanned++

		info, err := entry.Info()
		if err != nil {
			stats.Failed++
			s.logger.Warn("failed to inspect upload", "name", entry.Name(), "error", err)
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			stats.Failed++
			s.logger.Warn("failed to remove stale upload", "name", entry.Name(), "error", err)
			continue
		}
		stats.Removed++
		stats.Freed += info.Size()
	}

	if stats.Removed > 0 || stats.Failed > 0 {
		s.logger.Info("swept stale uploads",
			"removed", stats.Removed,
			"failed", stats.Failed,
			"freed_bytes", stats.Freed,
		)
	}
	return stats, nil
}

// DigestFile returns the hex SHA3-256 digest and size of the file at path.
// It is used for documents that were not uploaded through Save.
func DigestFile(path string) (string, int64, error) {
	f, err := os.Open(path) //nolint:gosec // path is chosen by the caller
	if err != nil {
		return "", 0, fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	hasher := sha3.New256()
	n, err := io.Copy(hasher, f)
	if err != nil {
		return "", 0, fmt.Errorf("failed to hash document: %w", err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), n, nil
}
