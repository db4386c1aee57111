package core

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tokenbridge/idp-token-bridge/validator"
)

// Sentinel errors for token exchange.
var (
	// ErrJWTMissing is returned when no id token was provided.
	ErrJWTMissing = errors.New("jwt missing")

	// ErrJWTInvalid is returned when the id token is invalid.
	// This is typically wrapped with more specific validation errors.
	ErrJWTInvalid = errors.New("jwt invalid")
)

// ValidationError wraps token validation errors with a machine readable
// code for logging, metrics and error responses.
type ValidationError struct {
	// Code is a machine-readable error code (e.g., "invalid_issuer", "invalid_signature")
	Code string

	// Message is a human-readable error message
	Message string

	// Details contains the underlying error
	Details error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Details != nil {
		return e.Message + ": " + e.Details.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ValidationError) Unwrap() error {
	return e.Details
}

// Is allows the error to be compared with ErrJWTInvalid.
func (e *ValidationError) Is(target error) bool {
	return target == ErrJWTInvalid
}

// Common error codes
const (
	ErrorCodeTokenMissing     = "token_missing"
	ErrorCodeTokenMalformed   = "token_malformed"
	ErrorCodeTokenExpired     = "token_expired"
	ErrorCodeTokenNotYetValid = "token_not_yet_valid"
	ErrorCodeInvalidSignature = "invalid_signature"
	ErrorCodeInvalidAlgorithm = "invalid_algorithm"
	ErrorCodeInvalidIssuer    = "invalid_issuer"
	ErrorCodeInvalidAudience  = "invalid_audience"
	ErrorCodeInvalidClaims    = "invalid_claims"
	ErrorCodeMissingUserID    = "missing_user_id"
	ErrorCodeJWKSKeyNotFound  = "jwks_key_not_found"
	ErrorCodeTokenInvalid     = "token_invalid"
	ErrorCodeValidatorNotSet  = "validator_not_set"
	ErrorCodeIssuerNotSet     = "issuer_not_set"
)

// NewValidationError creates a new ValidationError with the given code and message.
func NewValidationError(code, message string, details error) *ValidationError {
	return &ValidationError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// classify maps a validator rejection to a coded ValidationError.
func classify(err error) *ValidationError {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr
	}

	switch {
	case errors.Is(err, validator.ErrMalformedToken), errors.Is(err, validator.ErrMissingKeyID):
		return NewValidationError(ErrorCodeTokenMalformed, "token is malformed", err)
	case errors.Is(err, validator.ErrIssuerMismatch):
		return NewValidationError(ErrorCodeInvalidIssuer, "token issuer is not trusted", err)
	case errors.Is(err, validator.ErrAlgorithmMismatch):
		return NewValidationError(ErrorCodeInvalidAlgorithm, "token signing algorithm is not allowed", err)
	case errors.Is(err, validator.ErrKeyNotFound):
		return NewValidationError(ErrorCodeJWKSKeyNotFound, "token signing key is unknown", err)
	case errors.Is(err, validator.ErrSignatureInvalid):
		return NewValidationError(ErrorCodeInvalidSignature, "token signature is invalid", err)
	case errors.Is(err, validator.ErrMissingUserID):
		return NewValidationError(ErrorCodeMissingUserID, "token carries no user identifier", err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return NewValidationError(ErrorCodeTokenExpired, "token is expired", err)
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return NewValidationError(ErrorCodeTokenNotYetValid, "token is not valid yet", err)
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return NewValidationError(ErrorCodeInvalidAudience, "token audience is not accepted", err)
	case errors.Is(err, validator.ErrClaimsInvalid):
		return NewValidationError(ErrorCodeInvalidClaims, "token claims are invalid", err)
	default:
		return NewValidationError(ErrorCodeTokenInvalid, "token is invalid", err)
	}
}

// errorCode returns the code carried by err, if any.
func errorCode(err error) string {
	if errors.Is(err, ErrJWTMissing) {
		return ErrorCodeTokenMissing
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Code
	}
	return ErrorCodeTokenInvalid
}

// ErrorCode returns the machine-readable code for an exchange error, or an
// empty string for errors that are not about the token.
func ErrorCode(err error) string {
	if !errors.Is(err, ErrJWTMissing) && !errors.Is(err, ErrJWTInvalid) {
		return ""
	}
	return errorCode(err)
}
