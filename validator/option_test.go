package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOptions(t *testing.T) {
	t.Run("WithKeyResolver", func(t *testing.T) {
		t.Run("valid", func(t *testing.T) {
			v := &Validator{}
			err := WithKeyResolver(newFakeResolver())(v)
			assert.NoError(t, err)
			assert.NotNil(t, v.keyResolver)
		})

		t.Run("nil resolver", func(t *testing.T) {
			v := &Validator{}
			err := WithKeyResolver(nil)(v)
			assert.Equal(t, ErrKeyResolverRequired, err)
		})
	})

	t.Run("WithAlgorithm", func(t *testing.T) {
		t.Run("valid", func(t *testing.T) {
			v := &Validator{}
			err := WithAlgorithm(PS256)(v)
			assert.NoError(t, err)
			assert.Equal(t, PS256, v.signatureAlgorithm)
		})

		for _, alg := range []SignatureAlgorithm{"none", "HS256", "ES256", ""} {
			t.Run("rejects "+string(alg), func(t *testing.T) {
				v := &Validator{}
				err := WithAlgorithm(alg)(v)
				assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
			})
		}
	})

	t.Run("WithIssuer", func(t *testing.T) {
		t.Run("valid", func(t *testing.T) {
			v := &Validator{}
			assert.NoError(t, WithIssuer(testIssuer)(v))
			assert.Equal(t, testIssuer, v.issuer)
		})

		t.Run("empty", func(t *testing.T) {
			assert.Equal(t, ErrIssuerRequired, WithIssuer("")(&Validator{}))
		})

		t.Run("unparseable", func(t *testing.T) {
			assert.Error(t, WithIssuer("://bad")(&Validator{}))
		})
	})

	t.Run("WithAudience", func(t *testing.T) {
		v := &Validator{}
		assert.NoError(t, WithAudience(testAudience)(v))
		assert.Equal(t, testAudience, v.audience)
		assert.Error(t, WithAudience("")(v))
	})

	t.Run("WithAllowedClockSkew", func(t *testing.T) {
		v := &Validator{}
		assert.NoError(t, WithAllowedClockSkew(30*time.Second)(v))
		assert.Equal(t, 30*time.Second, v.allowedClockSkew)
		assert.Error(t, WithAllowedClockSkew(-time.Second)(v))
	})
}

func TestIDTokenClaims_UserID(t *testing.T) {
	t.Run("It is empty when no identity claim is present", func(t *testing.T) {
		assert.Empty(t, (&IDTokenClaims{Name: "Alice"}).UserID())
	})

	t.Run("It prefers upn", func(t *testing.T) {
		c := &IDTokenClaims{UPN: "a", UniqueName: "b", PreferredUsername: "c"}
		assert.Equal(t, "a", c.UserID())
	})
}

func TestInvalidTokenError(t *testing.T) {
	err := invalid(ErrIssuerMismatch, nil)

	assert.ErrorIs(t, err, ErrTokenInvalid)
	assert.ErrorIs(t, err, ErrIssuerMismatch)
	assert.NotErrorIs(t, err, ErrSignatureInvalid)
	assert.Equal(t, "token is invalid: issuer does not match", err.Error())
}
