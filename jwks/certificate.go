package jwks

import (
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

const (
	beginCertificate = "-----BEGIN CERTIFICATE-----"
	endCertificate   = "-----END CERTIFICATE-----"

	// pemLineWidth is the column width the PEM decoder expects.
	pemLineWidth = 64
)

// ErrUnsupportedKey is returned when a signing key cannot be turned into an
// RSA public key.
var ErrUnsupportedKey = errors.New("unsupported signing key")

var certificateCleaner = strings.NewReplacer(
	"\r", "",
	"\n", "",
	beginCertificate, "",
	endCertificate, "",
)

// NormalizeCertificate converts a raw base64 x5c entry into a PEM block
// wrapped at 64 columns. Existing line breaks and BEGIN/END markers are
// stripped first, so already framed input is not wrapped twice.
func NormalizeCertificate(raw string) string {
	payload := certificateCleaner.Replace(raw)

	var b strings.Builder
	b.Grow(len(payload) + len(payload)/pemLineWidth + len(beginCertificate) + len(endCertificate) + 4)

	b.WriteString(beginCertificate)
	b.WriteByte('\n')
	for len(payload) > pemLineWidth {
		b.WriteString(payload[:pemLineWidth])
		b.WriteByte('\n')
		payload = payload[pemLineWidth:]
	}
	if payload != "" {
		b.WriteString(payload)
		b.WriteByte('\n')
	}
	b.WriteString(endCertificate)
	b.WriteByte('\n')

	return b.String()
}

// PublicKey returns the RSA public key used to verify signatures made with
// this key. The first x5c certificate is preferred; keys advertised without
// a certificate chain fall back to their modulus and exponent.
func (k SigningKey) PublicKey() (*rsa.PublicKey, error) {
	if len(k.X5c) > 0 {
		pub, err := jwt.ParseRSAPublicKeyFromPEM([]byte(NormalizeCertificate(k.X5c[0])))
		if err != nil {
			return nil, fmt.Errorf("could not parse x5c certificate of key %q: %w", k.Kid, err)
		}
		return pub, nil
	}

	if k.Kty != "" && k.Kty != "RSA" {
		return nil, fmt.Errorf("%w: key %q has type %q", ErrUnsupportedKey, k.Kid, k.Kty)
	}
	if k.N == "" || k.E == "" {
		return nil, fmt.Errorf("%w: key %q has neither x5c nor n/e", ErrUnsupportedKey, k.Kid)
	}

	raw, err := json.Marshal(map[string]string{
		"kty": "RSA",
		"kid": k.Kid,
		"n":   k.N,
		"e":   k.E,
	})
	if err != nil {
		return nil, err
	}

	key, err := jwk.ParseKey(raw)
	if err != nil {
		return nil, fmt.Errorf("could not parse modulus/exponent of key %q: %w", k.Kid, err)
	}

	var pub rsa.PublicKey
	if err := key.Raw(&pub); err != nil {
		return nil, fmt.Errorf("could not export RSA key %q: %w", k.Kid, err)
	}

	return &pub, nil
}
