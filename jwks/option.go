package jwks

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ProviderOption is how options for the Provider are set up.
type ProviderOption func(*Provider) error

// WithKeysURI sets the JWKS endpoint. No discovery happens when it is set.
func WithKeysURI(keysURI *url.URL) ProviderOption {
	return func(p *Provider) error {
		if keysURI == nil {
			return fmt.Errorf("keys URI cannot be nil")
		}
		p.KeysURI = keysURI
		return nil
	}
}

// WithIssuerURL sets the OIDC issuer used to discover the JWKS endpoint
// through .well-known/openid-configuration.
func WithIssuerURL(issuerURL *url.URL) ProviderOption {
	return func(p *Provider) error {
		if issuerURL == nil {
			return fmt.Errorf("issuer URL cannot be nil")
		}
		p.IssuerURL = issuerURL
		return nil
	}
}

// WithCustomClient sets a custom HTTP client for the Provider.
// If not specified, a default client with 30s timeout is used.
func WithCustomClient(c *http.Client) ProviderOption {
	return func(p *Provider) error {
		if c == nil {
			return fmt.Errorf("HTTP client cannot be nil")
		}
		p.Client = c
		return nil
	}
}

// ResolverOption is how options for the Resolver are set up.
type ResolverOption func(*Resolver) error

// WithFetcher sets the source consulted when neither tier has a key.
// This is a required option.
func WithFetcher(f Fetcher) ResolverOption {
	return func(r *Resolver) error {
		if f == nil {
			return fmt.Errorf("fetcher cannot be nil")
		}
		r.fetcher = f
		return nil
	}
}

// WithStore sets the durable tier. Without it the resolver goes straight
// from the cache to the identity provider.
func WithStore(s KeyStore) ResolverOption {
	return func(r *Resolver) error {
		if s == nil {
			return fmt.Errorf("store cannot be nil")
		}
		r.store = s
		return nil
	}
}

// WithCache sets the in-memory tier. A fresh cache is created by default.
func WithCache(c *Cache) ResolverOption {
	return func(r *Resolver) error {
		if c == nil {
			return fmt.Errorf("cache cannot be nil")
		}
		r.cache = c
		return nil
	}
}

// WithRefillTimeout bounds a single refill. Defaults to 10 seconds.
func WithRefillTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) error {
		if d <= 0 {
			return fmt.Errorf("refill timeout must be positive")
		}
		r.refillTimeout = d
		return nil
	}
}

// WithMinRefillInterval sets how long the resolver waits after asking the
// identity provider before it asks again on a cache miss. Misses inside the
// window are answered from the store only. Defaults to one minute; zero
// disables the limit.
func WithMinRefillInterval(d time.Duration) ResolverOption {
	return func(r *Resolver) error {
		if d < 0 {
			return fmt.Errorf("minimum refill interval cannot be negative")
		}
		r.minInterval = d
		return nil
	}
}

// WithResolverLogger sets the logger for refill diagnostics.
func WithResolverLogger(l Logger) ResolverOption {
	return func(r *Resolver) error {
		if l == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		r.logger = l
		return nil
	}
}
