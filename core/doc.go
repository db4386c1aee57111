/*
Package core provides the framework-agnostic token exchange pipeline.

The Core type verifies an id token and mints a downstream token for the
verified user without depending on any transport. The root tokenbridge
handler and the gin adapter both wrap it.

# Architecture

	┌─────────────────────────────────────────────┐
	│         Transport Adapters                  │
	│      (net/http handler, gin)                │
	└────────────────┬────────────────────────────┘
	                 │
	                 ▼
	┌─────────────────────────────────────────────┐
	│          Core Engine (THIS PACKAGE)         │
	│  • Token Validation                         │
	│  • Downstream Token Issuance                │
	│  • Logging and Tracing                      │
	└───────┬─────────────────────────┬───────────┘
	        │                         │
	        ▼                         ▼
	┌───────────────────┐   ┌───────────────────┐
	│     Validator     │   │      Issuer       │
	└───────────────────┘   └───────────────────┘

# Basic Usage

	c, err := core.New(
	    core.WithValidator(v),
	    core.WithIssuer(customTokens),
	)
	if err != nil {
	    log.Fatal(err)
	}

	result, err := c.Exchange(ctx, idToken)
	if err != nil {
	    // Handle the error
	}

# Error Handling

Validation failures are returned as *ValidationError and match ErrJWTInvalid.
The Code field tells what went wrong:

	var validationErr *core.ValidationError
	if errors.As(err, &validationErr) {
	    switch validationErr.Code {
	    case core.ErrorCodeInvalidIssuer:
	    case core.ErrorCodeInvalidAlgorithm:
	    case core.ErrorCodeJWKSKeyNotFound:
	    case core.ErrorCodeInvalidSignature:
	    }
	}

An empty token returns ErrJWTMissing. Issuance failures match
issuer.ErrIssuance and are never retried by Core.
*/
package core
