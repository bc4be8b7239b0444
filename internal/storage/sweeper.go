package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSweepSchedule runs the background sweep at the top of every hour.
const DefaultSweepSchedule = "@hourly"

// sweepTimeout bounds a single scheduled sweep.
const sweepTimeout = 5 * time.Minute

// ValidateSchedule reports whether spec is a standard cron expression or
// descriptor such as "@hourly" or "@every 30m".
func ValidateSchedule(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrInvalidSchedule, spec, err)
	}
	return nil
}

// Sweeper runs Store.Sweep on a cron schedule.
type Sweeper struct {
	store  *Store
	cron   *cron.Cron
	logger *slog.Logger
}

// NewSweeper schedules store sweeps according to spec.
func NewSweeper(store *Store, spec string, logger *slog.Logger) (*Sweeper, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := ValidateSchedule(spec); err != nil {
		return nil, err
	}

	s := &Sweeper{
		store:  store,
		cron:   cron.New(),
		logger: logger,
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSchedule, spec, err)
	}
	return s, nil
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	if _, err := s.store.Sweep(ctx); err != nil {
		s.logger.Error("scheduled sweep failed", "error", err)
	}
}

// Start begins running scheduled sweeps in the background.
func (s *Sweeper) Start() {
	s.cron.Start()
	s.logger.Debug("sweep scheduler started", "dir", s.store.Dir())
}

// Stop stops the scheduler and waits for a running sweep to finish or ctx
// to expire.
func (s *Sweeper) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NextRun returns when the next scheduled sweep will run.
// It is the zero time before Start.
func (s *Sweeper) NextRun() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
