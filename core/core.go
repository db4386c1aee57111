// Package core provides the framework-agnostic token exchange pipeline:
// verify an id token, then mint a downstream token for the verified user.
//
// The Core type carries no transport concerns and can be wrapped by HTTP,
// gin or any other adapter.
package core

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tokenbridge/idp-token-bridge/issuer"
	"github.com/tokenbridge/idp-token-bridge/validator"
)

const tracerName = "github.com/tokenbridge/idp-token-bridge/core"

// Validator defines the interface for id token validation.
type Validator interface {
	ValidateToken(ctx context.Context, token string) (*validator.Identity, error)
}

// Logger defines an optional logging interface for the core pipeline.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Result is the outcome of a successful exchange.
type Result struct {
	Identity validator.Identity
	Token    string
}

// Core is the token exchange engine.
type Core struct {
	validator Validator
	issuer    issuer.Issuer
	logger    Logger
	tracer    trace.Tracer
}

// CheckToken validates an id token and returns the verified identity.
//
//   - If token is empty, returns ErrJWTMissing
//   - If validation fails, returns a *ValidationError matching ErrJWTInvalid
func (c *Core) CheckToken(ctx context.Context, token string) (*validator.Identity, error) {
	if token == "" {
		if c.logger != nil {
			c.logger.Warn("No token provided")
		}
		return nil, ErrJWTMissing
	}

	start := time.Now()
	identity, err := c.validator.ValidateToken(ctx, token)
	duration := time.Since(start)

	if err != nil {
		validationErr := classify(err)
		if c.logger != nil {
			c.logger.Error("Token validation failed", "code", validationErr.Code, "error", err, "duration", duration)
		}
		return nil, validationErr
	}

	if c.logger != nil {
		c.logger.Debug("Token validated successfully", "user", identity.ID, "duration", duration)
	}

	return identity, nil
}

// Exchange verifies idToken and mints a downstream token bound to exactly
// the verified user id. Issuance failures are returned as
// *issuer.IssuanceError and are not retried.
func (c *Core) Exchange(ctx context.Context, idToken string) (*Result, error) {
	ctx, span := c.tracer.Start(ctx, "tokenbridge.Exchange")
	defer span.End()

	identity, err := c.CheckToken(ctx, idToken)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, errorCode(err))
		return nil, err
	}

	token, err := c.issuer.Issue(ctx, identity.ID)
	if err != nil {
		err = issuer.Wrap(identity.ID, err)
		if c.logger != nil {
			c.logger.Error("Token issuance failed", "user", identity.ID, "error", err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "issuance_failed")
		return nil, err
	}

	if c.logger != nil {
		c.logger.Info("Token exchanged", "user", identity.ID)
	}
	span.SetStatus(codes.Ok, "")

	return &Result{Identity: *identity, Token: token}, nil
}

func defaultTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}
