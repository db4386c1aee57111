package refresh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Refresher runs one refresh cycle. *Job implements it.
type Refresher interface {
	Refresh(ctx context.Context) (*Result, error)
}

// Scheduler runs a Refresher at start and then on every tick. A failed
// cycle is retried with exponential backoff; a cycle that still fails is
// logged and the scheduler waits for the next tick.
type Scheduler struct {
	refresher       Refresher
	interval        time.Duration
	maxTries        uint
	initialInterval time.Duration
	cycleTimeout    time.Duration
	logger          Logger
}

// SchedulerOption is how options for the Scheduler are set up.
type SchedulerOption func(*Scheduler) error

// NewScheduler builds and returns a new *Scheduler.
func NewScheduler(refresher Refresher, opts ...SchedulerOption) (*Scheduler, error) {
	if refresher == nil {
		return nil, errors.New("refresher is required")
	}

	s := &Scheduler{
		refresher:       refresher,
		interval:        time.Hour,
		maxTries:        4,
		initialInterval: time.Second,
		cycleTimeout:    time.Minute,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	return s, nil
}

// WithInterval sets the time between cycles. Defaults to one hour.
func WithInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) error {
		if d <= 0 {
			return errors.New("interval must be positive")
		}
		s.interval = d
		return nil
	}
}

// WithMaxTries bounds the attempts of one cycle, the first included.
// Defaults to 4.
func WithMaxTries(n uint) SchedulerOption {
	return func(s *Scheduler) error {
		if n == 0 {
			return errors.New("max tries must be at least 1")
		}
		s.maxTries = n
		return nil
	}
}

// WithInitialBackoff sets the first retry delay. Defaults to one second.
func WithInitialBackoff(d time.Duration) SchedulerOption {
	return func(s *Scheduler) error {
		if d <= 0 {
			return errors.New("initial backoff must be positive")
		}
		s.initialInterval = d
		return nil
	}
}

// WithCycleTimeout bounds one attempt. Defaults to one minute.
func WithCycleTimeout(d time.Duration) SchedulerOption {
	return func(s *Scheduler) error {
		if d <= 0 {
			return errors.New("cycle timeout must be positive")
		}
		s.cycleTimeout = d
		return nil
	}
}

// WithSchedulerLogger sets the logger.
func WithSchedulerLogger(l Logger) SchedulerOption {
	return func(s *Scheduler) error {
		if l == nil {
			return errors.New("logger cannot be nil")
		}
		s.logger = l
		return nil
	}
}

// Run blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		_, _ = s.RunOnce(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce runs a single cycle with retries.
func (s *Scheduler) RunOnce(ctx context.Context) (*Result, error) {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = s.initialInterval
	expBackoff.MaxInterval = 60 * s.initialInterval
	expBackoff.Reset()

	attempt := 0
	var last *Result
	operation := func() (*Result, error) {
		attempt++
		cycleCtx, cancel := context.WithTimeout(ctx, s.cycleTimeout)
		defer cancel()

		result, err := s.refresher.Refresh(cycleCtx)
		last = result
		if err != nil && errors.Is(err, ErrEviction) {
			// The store already holds the fetched set; the next tick
			// retries the stale deletions.
			return result, backoff.Permanent(err)
		}
		return result, err
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxTries(s.maxTries),
		backoff.WithNotify(func(err error, d time.Duration) {
			if s.logger != nil {
				s.logger.Warn("key refresh failed, retrying", "attempt", attempt, "retry_in", d, "error", err)
			}
		}),
	)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("key refresh cycle failed", "attempts", attempt, "error", err)
		}
		return last, err
	}

	return last, nil
}
