package jwks

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NormalizeCertificate(t *testing.T) {
	key, privateKey := newTestKey(t, "k1")
	raw := key.X5c[0]

	t.Run("It frames the payload and wraps it at 64 columns", func(t *testing.T) {
		pem := NormalizeCertificate(raw)

		require.True(t, strings.HasSuffix(pem, "\n"))
		lines := strings.Split(strings.TrimSuffix(pem, "\n"), "\n")
		require.GreaterOrEqual(t, len(lines), 3)
		assert.Equal(t, "-----BEGIN CERTIFICATE-----", lines[0])
		assert.Equal(t, "-----END CERTIFICATE-----", lines[len(lines)-1])

		payload := lines[1 : len(lines)-1]
		for i, line := range payload {
			assert.LessOrEqual(t, len(line), 64, "line %d is too long", i)
			if i < len(payload)-1 {
				assert.Len(t, line, 64, "only the last line may be shorter")
			}
		}
	})

	t.Run("It keeps the payload intact", func(t *testing.T) {
		pem := NormalizeCertificate(raw)

		stripped := strings.NewReplacer(
			"-----BEGIN CERTIFICATE-----", "",
			"-----END CERTIFICATE-----", "",
			"\n", "",
		).Replace(pem)
		assert.Equal(t, raw, stripped)
	})

	t.Run("It does not wrap already framed input twice", func(t *testing.T) {
		once := NormalizeCertificate(raw)
		assert.Equal(t, once, NormalizeCertificate(once))
		assert.Equal(t, once, NormalizeCertificate(strings.ReplaceAll(once, "\n", "\r\n")))
	})

	t.Run("It is byte stable", func(t *testing.T) {
		assert.Equal(t, NormalizeCertificate(raw), NormalizeCertificate(raw))
	})

	t.Run("It emits a payload of exactly 64 characters on one line", func(t *testing.T) {
		payload := strings.Repeat("A", 64)
		assert.Equal(t,
			"-----BEGIN CERTIFICATE-----\n"+payload+"\n-----END CERTIFICATE-----\n",
			NormalizeCertificate(payload),
		)
	})

	t.Run("It produces a block the RSA parser accepts", func(t *testing.T) {
		pub, err := key.PublicKey()
		require.NoError(t, err)
		assert.Equal(t, 0, privateKey.PublicKey.N.Cmp(pub.N))
		assert.Equal(t, privateKey.PublicKey.E, pub.E)
	})
}

func Test_SigningKeyPublicKey(t *testing.T) {
	key, privateKey := newTestKey(t, "k1")

	t.Run("It falls back to modulus and exponent without x5c", func(t *testing.T) {
		bare := key
		bare.X5c = nil

		pub, err := bare.PublicKey()
		require.NoError(t, err)
		assert.Equal(t, 0, privateKey.PublicKey.N.Cmp(pub.N))
		assert.Equal(t, privateKey.PublicKey.E, pub.E)
	})

	t.Run("It only uses the first certificate of the chain", func(t *testing.T) {
		chained := key
		chained.X5c = append([]string{key.X5c[0]}, "not-a-certificate")

		pub, err := chained.PublicKey()
		require.NoError(t, err)
		assert.Equal(t, 0, privateKey.PublicKey.N.Cmp(pub.N))
	})

	t.Run("It rejects a corrupt certificate", func(t *testing.T) {
		broken := key
		broken.X5c = []string{"bm90IGEgY2VydGlmaWNhdGU="}

		_, err := broken.PublicKey()
		assert.Error(t, err)
	})

	t.Run("It rejects non RSA keys", func(t *testing.T) {
		_, err := SigningKey{Kid: "ec", Kty: "EC", N: "x", E: "y"}.PublicKey()
		assert.ErrorIs(t, err, ErrUnsupportedKey)
	})

	t.Run("It rejects keys without any key material", func(t *testing.T) {
		_, err := SigningKey{Kid: "empty", Kty: "RSA"}.PublicKey()
		assert.ErrorIs(t, err, ErrUnsupportedKey)
	})
}
