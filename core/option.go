package core

import (
	"errors"

	"go.opentelemetry.io/otel/trace"

	"github.com/tokenbridge/idp-token-bridge/issuer"
)

// Option is a function that configures the Core.
// Options return errors to enable validation during construction.
type Option func(*Core) error

// New creates a new Core instance with the provided options.
//
// WithValidator and WithIssuer are required.
//
// Example:
//
//	c, err := core.New(
//	    core.WithValidator(v),
//	    core.WithIssuer(customTokens),
//	    core.WithLogger(logger),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
func New(opts ...Option) (*Core, error) {
	c := &Core{}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	if c.tracer == nil {
		c.tracer = defaultTracer()
	}

	return c, nil
}

// validate ensures all required fields are set.
func (c *Core) validate() error {
	if c.validator == nil {
		return NewValidationError(
			ErrorCodeValidatorNotSet,
			"validator is required but not set (use WithValidator option)",
			nil,
		)
	}
	if c.issuer == nil {
		return NewValidationError(
			ErrorCodeIssuerNotSet,
			"issuer is required but not set (use WithIssuer option)",
			nil,
		)
	}
	return nil
}

// WithValidator sets the id token validator.
// This is a required option.
func WithValidator(v Validator) Option {
	return func(c *Core) error {
		if v == nil {
			return errors.New("validator cannot be nil")
		}
		c.validator = v
		return nil
	}
}

// WithIssuer sets the downstream token issuer.
// This is a required option.
func WithIssuer(i issuer.Issuer) Option {
	return func(c *Core) error {
		if i == nil {
			return errors.New("issuer cannot be nil")
		}
		c.issuer = i
		return nil
	}
}

// WithLogger sets an optional logger.
func WithLogger(logger Logger) Option {
	return func(c *Core) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithTracer sets the tracer used for exchange spans.
// Defaults to the global OpenTelemetry tracer provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Core) error {
		if tracer == nil {
			return errors.New("tracer cannot be nil")
		}
		c.tracer = tracer
		return nil
	}
}
