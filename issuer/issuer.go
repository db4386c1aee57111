// Package issuer mints the downstream token handed back to the client once
// an id token has been verified.
package issuer

import (
	"context"
	"errors"
	"fmt"
)

// ErrIssuance is matched by every minting failure.
var ErrIssuance = errors.New("token issuance failed")

// Issuer mints a downstream token bound to a verified user id.
// Failures are reported as *IssuanceError and never retried here.
type Issuer interface {
	Issue(ctx context.Context, userID string) (string, error)
}

// IssuerFunc adapts a function to the Issuer interface.
type IssuerFunc func(ctx context.Context, userID string) (string, error)

// Issue calls f.
func (f IssuerFunc) Issue(ctx context.Context, userID string) (string, error) {
	return f(ctx, userID)
}

// IssuanceError reports a failed mint for a user.
type IssuanceError struct {
	UserID string
	Err    error
}

// Error implements the error interface.
func (e *IssuanceError) Error() string {
	return fmt.Sprintf("%s for %q: %v", ErrIssuance, e.UserID, e.Err)
}

// Unwrap returns the underlying cause.
func (e *IssuanceError) Unwrap() error {
	return e.Err
}

// Is allows the error to be compared with ErrIssuance.
func (e *IssuanceError) Is(target error) bool {
	return target == ErrIssuance
}

// Wrap turns err into an *IssuanceError unless it already is one.
func Wrap(userID string, err error) error {
	if err == nil {
		return nil
	}
	var issuanceErr *IssuanceError
	if errors.As(err, &issuanceErr) {
		return err
	}
	return &IssuanceError{UserID: userID, Err: err}
}
