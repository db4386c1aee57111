package validator

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"fmt"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/tokenbridge/idp-token-bridge/jwks"
)

const (
	testIssuer   = "https://login.microsoftonline.com/T/v2.0"
	testAudience = "client-id"
)

type testKey struct {
	signing jwks.SigningKey
	private *rsa.PrivateKey
}

func newTestKey(t *testing.T, kid string) testKey {
	t.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: kid},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &privateKey.PublicKey, privateKey)
	require.NoError(t, err)

	return testKey{
		signing: jwks.SigningKey{
			Kty: "RSA",
			Use: "sig",
			Kid: kid,
			X5c: []string{base64.StdEncoding.EncodeToString(der)},
		},
		private: privateKey,
	}
}

func (k testKey) sign(t *testing.T, method jwt.SigningMethod, claims jwt.Claims) string {
	t.Helper()

	token := jwt.NewWithClaims(method, claims)
	token.Header["kid"] = k.signing.Kid
	signed, err := token.SignedString(k.private)
	require.NoError(t, err)
	return signed
}

func validClaims() *IDTokenClaims {
	now := time.Now()
	return &IDTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Subject:   "subject",
			Audience:  jwt.ClaimStrings{testAudience},
			IssuedAt:  jwt.NewNumericDate(now.Add(-time.Minute)),
			NotBefore: jwt.NewNumericDate(now.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		UPN:  "alice@example.com",
		Name: "Alice",
	}
}

type fakeResolver struct {
	keys  map[string]jwks.SigningKey
	calls int32
}

func newFakeResolver(keys ...testKey) *fakeResolver {
	r := &fakeResolver{keys: map[string]jwks.SigningKey{}}
	for _, k := range keys {
		r.keys[k.signing.Kid] = k.signing
	}
	return r
}

func (r *fakeResolver) Key(_ context.Context, kid string) (jwks.SigningKey, error) {
	atomic.AddInt32(&r.calls, 1)
	key, ok := r.keys[kid]
	if !ok {
		return jwks.SigningKey{}, fmt.Errorf("%w: %q", jwks.ErrKeyNotFound, kid)
	}
	return key, nil
}
