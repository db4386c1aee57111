package refresh

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type refresherFunc func(ctx context.Context) (*Result, error)

func (f refresherFunc) Refresh(ctx context.Context) (*Result, error) { return f(ctx) }

func TestScheduler_RunOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("It retries a failed cycle with backoff", func(t *testing.T) {
		var calls int32
		s, err := NewScheduler(refresherFunc(func(context.Context) (*Result, error) {
			if atomic.AddInt32(&calls, 1) < 3 {
				return nil, errors.New("idp unreachable")
			}
			return &Result{}, nil
		}), WithInitialBackoff(time.Millisecond), WithMaxTries(5))
		require.NoError(t, err)

		_, err = s.RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})

	t.Run("It gives up after the configured tries", func(t *testing.T) {
		var calls int32
		s, err := NewScheduler(refresherFunc(func(context.Context) (*Result, error) {
			atomic.AddInt32(&calls, 1)
			return nil, errors.New("idp unreachable")
		}), WithInitialBackoff(time.Millisecond), WithMaxTries(2))
		require.NoError(t, err)

		_, err = s.RunOnce(ctx)
		assert.Error(t, err)
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})

	t.Run("It does not retry a partial eviction", func(t *testing.T) {
		var calls int32
		s, err := NewScheduler(refresherFunc(func(context.Context) (*Result, error) {
			atomic.AddInt32(&calls, 1)
			return &Result{Evicted: []string{"A"}}, ErrEviction
		}), WithInitialBackoff(time.Millisecond))
		require.NoError(t, err)

		result, err := s.RunOnce(ctx)
		assert.ErrorIs(t, err, ErrEviction)
		require.NotNil(t, result)
		assert.Equal(t, []string{"A"}, result.Evicted)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("It bounds every attempt with the cycle timeout", func(t *testing.T) {
		s, err := NewScheduler(refresherFunc(func(ctx context.Context) (*Result, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}), WithCycleTimeout(10*time.Millisecond), WithMaxTries(1))
		require.NoError(t, err)

		_, err = s.RunOnce(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestScheduler_Run(t *testing.T) {
	t.Run("It runs at start and on every tick until cancelled", func(t *testing.T) {
		var calls int32
		s, err := NewScheduler(refresherFunc(func(context.Context) (*Result, error) {
			atomic.AddInt32(&calls, 1)
			return &Result{}, nil
		}), WithInterval(10*time.Millisecond))
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			s.Run(ctx)
			close(done)
		}()

		assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) >= 3 }, time.Second, 5*time.Millisecond)
		cancel()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("scheduler did not stop after cancellation")
		}
	})

	t.Run("It keeps running after a failed cycle", func(t *testing.T) {
		var calls int32
		s, err := NewScheduler(refresherFunc(func(context.Context) (*Result, error) {
			atomic.AddInt32(&calls, 1)
			return nil, errors.New("down")
		}), WithInterval(10*time.Millisecond), WithMaxTries(1))
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go s.Run(ctx)

		assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) >= 2 }, time.Second, 5*time.Millisecond)
	})
}

func TestNewScheduler(t *testing.T) {
	_, err := NewScheduler(nil)
	assert.Error(t, err)

	ok := refresherFunc(func(context.Context) (*Result, error) { return nil, nil })
	for _, opt := range []SchedulerOption{
		WithInterval(0),
		WithMaxTries(0),
		WithInitialBackoff(0),
		WithCycleTimeout(0),
		WithSchedulerLogger(nil),
	} {
		_, err := NewScheduler(ok, opt)
		assert.Error(t, err)
	}
}
