package jwks

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// newTestKey returns a signing key carrying both an x5c certificate and the
// modulus/exponent pair, together with its private half.
func newTestKey(t *testing.T, kid string) (SigningKey, *rsa.PrivateKey) {
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

	return SigningKey{
		Kty: "RSA",
		Use: "sig",
		Kid: kid,
		N:   base64.RawURLEncoding.EncodeToString(privateKey.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(privateKey.E)).Bytes()),
		X5c: []string{base64.StdEncoding.EncodeToString(der)},
	}, privateKey
}

// stubKey is a key good enough for cache and store bookkeeping.
func stubKey(kid string) SigningKey {
	return SigningKey{Kty: "RSA", Use: "sig", Kid: kid, N: "n-" + kid, E: "AQAB"}
}
