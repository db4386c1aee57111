package jwks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/tokenbridge/idp-token-bridge/internal/oidc"
)

// maxJWKSBody limits the response body to prevent memory exhaustion.
// 1MB is generous for JWKS (typically <10KB).
const maxJWKSBody = 1 << 20

// ErrFetch is matched by every error returned from Provider.FetchAll.
var ErrFetch = errors.New("jwks fetch failed")

// FetchError describes a failed attempt to read the key set from the
// identity provider. It is recoverable: the caller decides whether to retry.
type FetchError struct {
	URI        string
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s returned status %d", ErrFetch, e.URI, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s: %v", ErrFetch, e.URI, e.Err)
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is allows the error to be compared with ErrFetch.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

// Provider fetches the identity provider's key set. The endpoint is either
// configured directly or discovered once from the issuer.
type Provider struct {
	KeysURI   *url.URL // Optional when IssuerURL is set.
	IssuerURL *url.URL // Used for discovery when KeysURI is nil.
	Client    *http.Client

	keysURIMu sync.Mutex
	keysURI   string
}

// NewProvider builds and returns a new *Provider.
// One of WithKeysURI or WithIssuerURL is required.
//
// Example:
//
//	provider, err := jwks.NewProvider(
//	    jwks.WithKeysURI(keysURI),
//	    jwks.WithCustomClient(&http.Client{Timeout: 10 * time.Second}),
//	)
func NewProvider(opts ...ProviderOption) (*Provider, error) {
	p := &Provider{
		Client: &http.Client{Timeout: 30 * time.Second},
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if p.KeysURI == nil && p.IssuerURL == nil {
		return nil, errors.New("keys URI or issuer URL is required (use WithKeysURI or WithIssuerURL)")
	}

	if p.KeysURI != nil {
		p.keysURI = p.KeysURI.String()
	}

	return p, nil
}

// FetchAll performs a single GET against the JWKS endpoint and returns
// every advertised key. The response must carry a non-empty keys array
// and every key must have a kid.
func (p *Provider) FetchAll(ctx context.Context) (KeySet, error) {
	uri, err := p.getKeysURI(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, &FetchError{URI: uri, Err: fmt.Errorf("could not build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, &FetchError{URI: uri, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &FetchError{URI: uri, StatusCode: resp.StatusCode}
	}

	var document struct {
		Keys KeySet `json:"keys"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJWKSBody)).Decode(&document); err != nil {
		return nil, &FetchError{URI: uri, Err: fmt.Errorf("could not decode jwks: %w", err)}
	}

	if len(document.Keys) == 0 {
		return nil, &FetchError{URI: uri, Err: errors.New("response does not contain any keys")}
	}

	for i, key := range document.Keys {
		if key.Kid == "" {
			return nil, &FetchError{URI: uri, Err: fmt.Errorf("key at index %d has no kid", i)}
		}
	}

	return document.Keys, nil
}

// getKeysURI returns the JWKS URI, discovering it if necessary.
// A failed discovery is not cached so the next call tries again.
func (p *Provider) getKeysURI(ctx context.Context) (string, error) {
	p.keysURIMu.Lock()
	defer p.keysURIMu.Unlock()

	if p.keysURI != "" {
		return p.keysURI, nil
	}

	wkEndpoints, err := oidc.GetWellKnownEndpointsFromIssuerURL(
		ctx,
		p.Client,
		*p.IssuerURL,
		p.IssuerURL.String(),
	)
	if err != nil {
		return "", &FetchError{URI: p.IssuerURL.String(), Err: fmt.Errorf("failed to discover JWKS URI: %w", err)}
	}

	p.keysURI = wkEndpoints.JWKSURI

	return p.keysURI, nil
}
