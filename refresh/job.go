// Package refresh keeps the durable key store in step with the identity
// provider's advertised key set.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tokenbridge/idp-token-bridge/jwks"
	"github.com/tokenbridge/idp-token-bridge/keystore"
)

// ErrEviction is returned when at least one stale key could not be deleted.
// The other deletions still happened.
var ErrEviction = errors.New("evicting stale signing keys failed")

// Logger defines the logging interface used by the job and the scheduler.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Metrics records refresh outcomes.
type Metrics interface {
	IncCounter(name string, tags map[string]string)
	ObserveHistogram(name string, value float64, tags map[string]string)
	SetGauge(name string, value float64, tags map[string]string)
}

// Result describes one refresh cycle.
type Result struct {
	// Updated is the key set fetched and upserted into the store.
	Updated jwks.KeySet
	// Evicted lists the kids deleted from the store, sorted.
	Evicted []string
	// Failed maps each kid whose deletion failed to its error.
	Failed map[string]error
}

// Job performs refresh cycles.
type Job struct {
	fetcher jwks.Fetcher
	store   keystore.Store
	cache   *jwks.Cache
	logger  Logger
	metrics Metrics
}

// Option is how options for the Job are set up.
type Option func(*Job) error

// NewJob builds and returns a new *Job.
// WithFetcher and WithStore are required.
func NewJob(opts ...Option) (*Job, error) {
	j := &Job{}

	for _, opt := range opts {
		if err := opt(j); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if j.fetcher == nil {
		return nil, errors.New("fetcher is required (use WithFetcher)")
	}
	if j.store == nil {
		return nil, errors.New("store is required (use WithStore)")
	}

	return j, nil
}

// WithFetcher sets where the current key set is read from.
func WithFetcher(f jwks.Fetcher) Option {
	return func(j *Job) error {
		if f == nil {
			return errors.New("fetcher cannot be nil")
		}
		j.fetcher = f
		return nil
	}
}

// WithStore sets the durable store the job converges.
func WithStore(s keystore.Store) Option {
	return func(j *Job) error {
		if s == nil {
			return errors.New("store cannot be nil")
		}
		j.store = s
		return nil
	}
}

// WithCache sets a local cache reloaded with the fetched set after every
// successful upsert.
func WithCache(c *jwks.Cache) Option {
	return func(j *Job) error {
		if c == nil {
			return errors.New("cache cannot be nil")
		}
		j.cache = c
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(j *Job) error {
		if l == nil {
			return errors.New("logger cannot be nil")
		}
		j.logger = l
		return nil
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(j *Job) error {
		if m == nil {
			return errors.New("metrics cannot be nil")
		}
		j.metrics = m
		return nil
	}
}

// Refresh fetches the advertised key set, upserts every key, then deletes
// every stored kid the identity provider no longer advertises.
//
// A fetch or upsert failure aborts the cycle and returns a nil Result.
// Deletions are independent: a failed one is recorded in Result.Failed and
// the returned error matches ErrEviction, while the others still run.
func (j *Job) Refresh(ctx context.Context) (*Result, error) {
	start := time.Now()

	fetched, err := j.fetcher.FetchAll(ctx)
	if err != nil {
		j.finish("fetch_failed", start)
		return nil, err
	}

	for _, key := range fetched {
		if err := j.store.Put(ctx, key); err != nil {
			j.finish("store_failed", start)
			return nil, keystore.Wrap("put", key.Kid, err)
		}
	}

	if j.cache != nil {
		j.cache.LoadAll(fetched)
	}

	// Kids rather than GetAll, so an undecodable record is still evicted.
	stored, err := keystore.Kids(ctx, j.store)
	if err != nil {
		j.finish("store_failed", start)
		return nil, err
	}

	result := &Result{
		Updated: fetched,
		Evicted: []string{},
		Failed:  map[string]error{},
	}

	var errs []error
	for _, kid := range stored {
		if fetched.Contains(kid) {
			continue
		}
		if err := j.store.Delete(ctx, kid); err != nil {
			if j.logger != nil {
				j.logger.Warn("could not evict stale signing key", "kid", kid, "error", err)
			}
			result.Failed[kid] = err
			errs = append(errs, err)
			continue
		}
		result.Evicted = append(result.Evicted, kid)
	}

	if j.metrics != nil {
		j.metrics.SetGauge("tokenbridge_signing_keys", float64(len(fetched.Kids())), nil)
		for range result.Evicted {
			j.metrics.IncCounter("tokenbridge_signing_keys_evicted_total", nil)
		}
	}

	if len(errs) > 0 {
		j.finish("partial", start)
		return result, fmt.Errorf("%w: %w", ErrEviction, errors.Join(errs...))
	}

	if j.logger != nil {
		j.logger.Info("signing keys refreshed",
			"updated", len(fetched),
			"evicted", result.Evicted,
			"duration", time.Since(start),
		)
	}
	j.finish("success", start)

	return result, nil
}

func (j *Job) finish(outcome string, start time.Time) {
	if j.metrics == nil {
		return
	}
	tags := map[string]string{"outcome": outcome}
	j.metrics.IncCounter("tokenbridge_key_refresh_total", tags)
	j.metrics.ObserveHistogram("tokenbridge_key_refresh_duration_seconds", time.Since(start).Seconds(), tags)
}
