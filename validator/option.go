package validator

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Option is how options for the Validator are set up.
// Options return errors to enable validation during construction.
type Option func(*Validator) error

// WithKeyResolver sets where signing keys are looked up by kid.
// This is a required option.
func WithKeyResolver(resolver KeyResolver) Option {
	return func(v *Validator) error {
		if resolver == nil {
			return ErrKeyResolverRequired
		}
		v.keyResolver = resolver
		return nil
	}
}

// WithAlgorithm sets the signature algorithm that tokens must use.
// Defaults to RS256. Only RSA based algorithms are supported; "none" and
// HMAC algorithms are never accepted.
func WithAlgorithm(algorithm SignatureAlgorithm) Option {
	return func(v *Validator) error {
		if !allowedSigningAlgorithms[algorithm] {
			return fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, algorithm)
		}
		v.signatureAlgorithm = algorithm
		return nil
	}
}

// WithIssuer sets the expected issuer claim (iss).
// This is a required option. The comparison is exact.
func WithIssuer(issuerURL string) Option {
	return func(v *Validator) error {
		if issuerURL == "" {
			return ErrIssuerRequired
		}
		if _, err := url.Parse(issuerURL); err != nil {
			return fmt.Errorf("invalid issuer URL: %w", err)
		}
		v.issuer = issuerURL
		return nil
	}
}

// WithAudience sets the expected audience claim (aud), usually the
// application's client id. Without it the audience is not checked.
func WithAudience(audience string) Option {
	return func(v *Validator) error {
		if audience == "" {
			return errors.New("audience cannot be empty")
		}
		v.audience = audience
		return nil
	}
}

// WithAllowedClockSkew sets the allowed clock skew for exp, nbf and iat.
// The default is 0.
func WithAllowedClockSkew(skew time.Duration) Option {
	return func(v *Validator) error {
		if skew < 0 {
			return errors.New("clock skew cannot be negative")
		}
		v.allowedClockSkew = skew
		return nil
	}
}
