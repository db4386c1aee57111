package validator

import (
	"errors"
	"fmt"
)

// ErrTokenInvalid is matched by every rejection from ValidateToken and Verify.
var ErrTokenInvalid = errors.New("token is invalid")

// Rejection reasons. An *InvalidTokenError matches exactly one of these.
var (
	ErrMalformedToken    = errors.New("token is malformed")
	ErrIssuerMismatch    = errors.New("issuer does not match")
	ErrAlgorithmMismatch = errors.New("unexpected signing algorithm")
	ErrMissingKeyID      = errors.New("token header has no kid")
	ErrKeyNotFound       = errors.New("no signing key matches the token kid")
	ErrSignatureInvalid  = errors.New("signature verification failed")
	ErrClaimsInvalid     = errors.New("token claims are invalid")
	ErrMissingUserID     = errors.New("token carries no user identifier")
)

// Construction errors.
var (
	ErrKeyResolverRequired  = errors.New("key resolver is required but was nil")
	ErrIssuerRequired       = errors.New("issuer is required but was empty")
	ErrUnsupportedAlgorithm = errors.New("unsupported signature algorithm")
)

// InvalidTokenError is returned when a token is rejected.
type InvalidTokenError struct {
	Reason error
	Err    error
}

func invalid(reason, err error) error {
	return &InvalidTokenError{Reason: reason, Err: err}
}

// Error implements the error interface.
func (e *InvalidTokenError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrTokenInvalid, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrTokenInvalid, e.Reason, e.Err)
}

// Is allows the error to be compared with ErrTokenInvalid and its reason.
func (e *InvalidTokenError) Is(target error) bool {
	return target == ErrTokenInvalid || target == e.Reason
}

// Unwrap returns the underlying cause.
func (e *InvalidTokenError) Unwrap() error {
	return e.Err
}
