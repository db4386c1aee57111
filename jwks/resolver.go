package jwks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrKeyNotFound is returned when no tier knows the requested kid, even
// after a refill.
var ErrKeyNotFound = errors.New("signing key not found")

// ErrRefillThrottled is wrapped into ErrKeyNotFound when a miss could not
// reach the identity provider because it was queried too recently.
var ErrRefillThrottled = errors.New("identity provider was queried too recently")

// Fetcher reads the full key set from the identity provider.
type Fetcher interface {
	FetchAll(ctx context.Context) (KeySet, error)
}

// KeyStore is the durable tier as seen by the resolver.
type KeyStore interface {
	GetAll(ctx context.Context) (KeySet, error)
	Put(ctx context.Context, key SigningKey) error
}

// Logger defines the logging interface used by the resolver.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Resolver finds signing keys by kid across the in-memory cache, the
// durable store and the identity provider, in that order.
type Resolver struct {
	cache         *Cache
	store         KeyStore
	fetcher       Fetcher
	logger        Logger
	refillTimeout time.Duration
	minInterval   time.Duration
	now           func() time.Time

	group singleflight.Group

	fetchMu   sync.Mutex
	lastFetch time.Time
}

// NewResolver builds and returns a new *Resolver.
// WithFetcher is required.
func NewResolver(opts ...ResolverOption) (*Resolver, error) {
	r := &Resolver{
		refillTimeout: 10 * time.Second,
		minInterval:   time.Minute,
		now:           time.Now,
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if r.fetcher == nil {
		return nil, errors.New("fetcher is required (use WithFetcher)")
	}
	if r.cache == nil {
		r.cache = NewCache()
	}

	return r, nil
}

// Cache returns the in-memory tier so other components can reload it.
func (r *Resolver) Cache() *Cache {
	return r.cache
}

// Warm loads the cache from the durable store. It is meant for process
// start, when the cache is empty.
func (r *Resolver) Warm(ctx context.Context) error {
	if r.store == nil {
		return nil
	}

	keys, err := r.store.GetAll(ctx)
	if err != nil {
		return err
	}
	if len(keys) > 0 {
		r.cache.LoadAll(keys)
	}

	return nil
}

// Key returns the signing key with the given kid. A cache miss triggers a
// single refill shared by every concurrent caller asking for the same kid,
// followed by exactly one more cache lookup.
func (r *Resolver) Key(ctx context.Context, kid string) (SigningKey, error) {
	if key, ok := r.cache.Get(kid); ok {
		return key, nil
	}

	ch := r.group.DoChan(kid, func() (any, error) {
		if _, ok := r.cache.Get(kid); ok {
			return nil, nil
		}

		// The refill outlives a caller that gives up, so one abandoned
		// request cannot fail the others waiting on it.
		refillCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.refillTimeout)
		defer cancel()
		return nil, r.refill(refillCtx, kid)
	})

	select {
	case <-ctx.Done():
		return SigningKey{}, ctx.Err()
	case res := <-ch:
		if key, ok := r.cache.Get(kid); ok {
			return key, nil
		}
		if res.Err != nil {
			return SigningKey{}, fmt.Errorf("%w: %q: %w", ErrKeyNotFound, kid, res.Err)
		}
		return SigningKey{}, fmt.Errorf("%w: %q", ErrKeyNotFound, kid)
	}
}

// refill repopulates the cache, first from the store and, when the store
// does not know kid, from the identity provider. The identity provider is
// asked at most once per minimum refill interval across all kids.
func (r *Resolver) refill(ctx context.Context, kid string) error {
	if r.store != nil {
		stored, err := r.store.GetAll(ctx)
		switch {
		case err != nil:
			if r.logger != nil {
				r.logger.Warn("could not read signing keys from store", "kid", kid, "error", err)
			}
		case len(stored) > 0:
			r.cache.LoadAll(stored)
			if stored.Contains(kid) {
				if r.logger != nil {
					r.logger.Debug("signing key loaded from store", "kid", kid)
				}
				return nil
			}
		}
	}

	if !r.allowFetch() {
		if r.logger != nil {
			r.logger.Debug("signing key unknown and identity provider fetch throttled", "kid", kid)
		}
		return ErrRefillThrottled
	}

	fetched, err := r.fetch(ctx)
	if err != nil {
		return err
	}

	if r.store != nil {
		for _, key := range fetched {
			if err := r.store.Put(ctx, key); err != nil {
				if r.logger != nil {
					r.logger.Warn("could not persist fetched signing key", "kid", key.Kid, "error", err)
				}
			}
		}
	}

	r.cache.LoadAll(fetched)
	if r.logger != nil {
		r.logger.Info("signing keys fetched from identity provider", "count", len(fetched), "kid", kid)
	}

	return nil
}

// allowFetch reports whether a fetch may start now and, if so, claims the
// slot. Failed fetches count too.
func (r *Resolver) allowFetch() bool {
	r.fetchMu.Lock()
	defer r.fetchMu.Unlock()

	now := r.now()
	if !r.lastFetch.IsZero() && now.Sub(r.lastFetch) < r.minInterval {
		return false
	}
	r.lastFetch = now

	return true
}

// fetch calls the fetcher and retries once on failure.
func (r *Resolver) fetch(ctx context.Context) (KeySet, error) {
	keys, err := r.fetcher.FetchAll(ctx)
	if err == nil {
		return keys, nil
	}

	if r.logger != nil {
		r.logger.Warn("fetching signing keys failed, retrying once", "error", err)
	}
	if ctx.Err() != nil {
		return nil, err
	}

	return r.fetcher.FetchAll(ctx)
}
