package tokenbridge

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tokenbridge/idp-token-bridge/exchange"
)

// ErrProviderRejected is returned when the identity provider redirects back
// with an error instead of a code.
var ErrProviderRejected = errors.New("identity provider rejected the authentication request")

// ErrStateMismatch is returned when a posted authorization code does not
// come back with the state issued for it.
var ErrStateMismatch = errors.New("authorization state does not match")

const (
	genericFailureBody  = `{"message":"Something went wrong. Please contact support; see the logs for more information."}`
	providerFailureBody = `{"message":"Invalid authentication request."}`
	exchangeFailureBody = `{"message":"Could not complete sign-in with the identity provider."}`
)

// ErrorHandler is called when a request cannot be served. Responses must
// never carry the cause: callers only learn that something went wrong,
// while the details go to the logs.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// DefaultErrorHandler is the default error handler implementation. It
// returns 502 when the code exchange with the identity provider fails and
// 400 for everything else.
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("Content-Type", "application/json")

	switch {
	case errors.Is(err, ErrProviderRejected), errors.Is(err, ErrStateMismatch):
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(providerFailureBody))
	case errors.Is(err, exchange.ErrExchange):
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(exchangeFailureBody))
	default:
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(genericFailureBody))
	}
}

// providerError carries what the identity provider reported. It is kept
// private because Is and Unwrap give callers all they need.
type providerError struct {
	code        string
	description string
}

// Is allows the error to support equality to ErrProviderRejected.
func (e providerError) Is(target error) bool {
	return target == ErrProviderRejected
}

// Error returns a string representation of the error.
func (e providerError) Error() string {
	if e.description == "" {
		return fmt.Sprintf("%s: %s", ErrProviderRejected, e.code)
	}
	return fmt.Sprintf("%s: %s: %s", ErrProviderRejected, e.code, e.description)
}
