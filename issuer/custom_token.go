package issuer

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-jose/go-jose/v4"
	josejwt "github.com/go-jose/go-jose/v4/jwt"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CustomTokenAudience is the audience Firebase expects on custom tokens.
const CustomTokenAudience = "https://identitytoolkit.googleapis.com/google.identity.identitytoolkit.v1.IdentityToolkit"

const (
	maxUIDLength     = 128
	maxTokenLifetime = time.Hour
)

// CustomTokenIssuer mints Firebase custom tokens signed with a service
// account key.
type CustomTokenIssuer struct {
	serviceAccountEmail string
	privateKey          *rsa.PrivateKey
	keyID               string
	lifetime            time.Duration
	now                 func() time.Time
}

// customClaims carries the Firebase specific members next to the
// registered ones.
type customClaims struct {
	UID string `json:"uid"`
}

// CustomTokenOption is how options for the CustomTokenIssuer are set up.
type CustomTokenOption func(*CustomTokenIssuer) error

// NewCustomTokenIssuer builds and returns a new *CustomTokenIssuer.
// WithServiceAccountEmail and one of WithPrivateKey, WithPrivateKeyPEM or
// WithPrivateKeyFile are required.
func NewCustomTokenIssuer(opts ...CustomTokenOption) (*CustomTokenIssuer, error) {
	i := &CustomTokenIssuer{
		lifetime: maxTokenLifetime,
		now:      time.Now,
	}

	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if i.serviceAccountEmail == "" {
		return nil, errors.New("service account email is required (use WithServiceAccountEmail)")
	}
	if i.privateKey == nil {
		return nil, errors.New("private key is required (use WithPrivateKey, WithPrivateKeyPEM or WithPrivateKeyFile)")
	}

	return i, nil
}

// WithServiceAccountEmail sets the iss and sub of minted tokens.
func WithServiceAccountEmail(email string) CustomTokenOption {
	return func(i *CustomTokenIssuer) error {
		if email == "" {
			return errors.New("service account email cannot be empty")
		}
		i.serviceAccountEmail = email
		return nil
	}
}

// WithPrivateKey sets the signing key.
func WithPrivateKey(key *rsa.PrivateKey) CustomTokenOption {
	return func(i *CustomTokenIssuer) error {
		if key == nil {
			return errors.New("private key cannot be nil")
		}
		i.privateKey = key
		return nil
	}
}

// WithPrivateKeyPEM parses a PKCS#1 or PKCS#8 PEM encoded RSA key.
func WithPrivateKeyPEM(pemBytes []byte) CustomTokenOption {
	return func(i *CustomTokenIssuer) error {
		key, err := jwt.ParseRSAPrivateKeyFromPEM(pemBytes)
		if err != nil {
			return fmt.Errorf("could not parse private key: %w", err)
		}
		i.privateKey = key
		return nil
	}
}

// WithPrivateKeyFile reads the key from a PEM file.
func WithPrivateKeyFile(path string) CustomTokenOption {
	return func(i *CustomTokenIssuer) error {
		pemBytes, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("could not read private key file: %w", err)
		}
		return WithPrivateKeyPEM(pemBytes)(i)
	}
}

// WithKeyID sets the kid header of minted tokens.
func WithKeyID(kid string) CustomTokenOption {
	return func(i *CustomTokenIssuer) error {
		i.keyID = kid
		return nil
	}
}

// WithLifetime sets how long minted tokens are valid. Firebase accepts at
// most one hour, which is also the default.
func WithLifetime(lifetime time.Duration) CustomTokenOption {
	return func(i *CustomTokenIssuer) error {
		if lifetime <= 0 || lifetime > maxTokenLifetime {
			return fmt.Errorf("lifetime must be in (0, %s]", maxTokenLifetime)
		}
		i.lifetime = lifetime
		return nil
	}
}

// Issue mints a custom token for userID.
func (i *CustomTokenIssuer) Issue(ctx context.Context, userID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", Wrap(userID, err)
	}
	if userID == "" {
		return "", Wrap(userID, errors.New("user id cannot be empty"))
	}
	if len(userID) > maxUIDLength {
		return "", Wrap(userID, fmt.Errorf("user id exceeds %d characters", maxUIDLength))
	}

	opts := (&jose.SignerOptions{}).WithType("JWT")
	if i.keyID != "" {
		opts = opts.WithHeader("kid", i.keyID)
	}
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.RS256, Key: i.privateKey}, opts)
	if err != nil {
		return "", Wrap(userID, fmt.Errorf("failed to create signer: %w", err))
	}

	issuedAt := i.now()
	registered := josejwt.Claims{
		Issuer:   i.serviceAccountEmail,
		Subject:  i.serviceAccountEmail,
		Audience: josejwt.Audience{CustomTokenAudience},
		IssuedAt: josejwt.NewNumericDate(issuedAt),
		Expiry:   josejwt.NewNumericDate(issuedAt.Add(i.lifetime)),
		ID:       uuid.NewString(),
	}

	token, err := josejwt.Signed(signer).Claims(registered).Claims(customClaims{UID: userID}).Serialize()
	if err != nil {
		return "", Wrap(userID, fmt.Errorf("failed to serialize token: %w", err))
	}

	return token, nil
}
