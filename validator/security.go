package validator

import (
	"errors"
	"strings"
)

// ErrExcessiveTokenDots is returned when a token has more segments than a
// compact JWS.
var ErrExcessiveTokenDots = errors.New("token contains excessive dots (possible DoS attack)")

const (
	// jwsDots is the number of dots of a compact JWS: header.payload.signature.
	jwsDots = 2

	// maxTokenSize rejects tokens that are suspiciously large.
	// Valid id tokens rarely exceed a few KB.
	maxTokenSize = 1024 * 1024
)

// validateTokenFormat rejects obviously malformed input before it reaches
// the decoder.
func validateTokenFormat(tokenString string) error {
	if len(tokenString) == 0 {
		return errors.New("token is empty")
	}

	if len(tokenString) > maxTokenSize {
		return errors.New("token exceeds maximum size (1MB)")
	}

	dotCount := strings.Count(tokenString, ".")
	if dotCount > jwsDots {
		return ErrExcessiveTokenDots
	}
	if dotCount < jwsDots {
		return errors.New("token is not a compact JWS")
	}

	return nil
}
