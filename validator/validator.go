package validator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tokenbridge/idp-token-bridge/jwks"
)

// Signature algorithms accepted for id tokens. All of them verify with an
// RSA public key.
const (
	RS256 = SignatureAlgorithm("RS256") // RSASSA-PKCS-v1.5 using SHA-256
	RS384 = SignatureAlgorithm("RS384") // RSASSA-PKCS-v1.5 using SHA-384
	RS512 = SignatureAlgorithm("RS512") // RSASSA-PKCS-v1.5 using SHA-512
	PS256 = SignatureAlgorithm("PS256") // RSASSA-PSS using SHA256 and MGF1-SHA256
	PS384 = SignatureAlgorithm("PS384") // RSASSA-PSS using SHA384 and MGF1-SHA384
	PS512 = SignatureAlgorithm("PS512") // RSASSA-PSS using SHA512 and MGF1-SHA512
)

// SignatureAlgorithm is a signature algorithm.
type SignatureAlgorithm string

var allowedSigningAlgorithms = map[SignatureAlgorithm]bool{
	RS256: true,
	RS384: true,
	RS512: true,
	PS256: true,
	PS384: true,
	PS512: true,
}

// KeyResolver finds the signing key for a kid. *jwks.Resolver implements it.
type KeyResolver interface {
	Key(ctx context.Context, kid string) (jwks.SigningKey, error)
}

// Validator verifies id tokens issued by a single identity provider.
type Validator struct {
	keyResolver        KeyResolver        // Required.
	signatureAlgorithm SignatureAlgorithm // Defaults to RS256.
	issuer             string             // Required.
	audience           string             // Optional.
	allowedClockSkew   time.Duration      // Optional.
}

// New sets up a new Validator.
//
// Example:
//
//	v, err := validator.New(
//	    validator.WithKeyResolver(resolver),
//	    validator.WithIssuer("https://login.microsoftonline.com/{tenant}/v2.0"),
//	    validator.WithAudience(clientID),
//	)
func New(opts ...Option) (*Validator, error) {
	v := &Validator{
		signatureAlgorithm: RS256,
	}

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if err := v.validate(); err != nil {
		return nil, err
	}

	return v, nil
}

func (v *Validator) validate() error {
	if v.keyResolver == nil {
		return ErrKeyResolverRequired
	}
	if v.issuer == "" {
		return ErrIssuerRequired
	}
	return nil
}

// Issuer returns the issuer tokens must carry.
func (v *Validator) Issuer() string {
	return v.issuer
}

// ValidateToken verifies tokenString against the configured issuer.
func (v *Validator) ValidateToken(ctx context.Context, tokenString string) (*Identity, error) {
	return v.Verify(ctx, tokenString, v.issuer)
}

// Verify verifies tokenString and requires its iss claim to equal issuerURI
// exactly. issuerURI must be the configured issuer: the identity provider
// signs tokens for every tenant with the same keys. Issuer and algorithm are
// checked before any key lookup or signature work.
func (v *Validator) Verify(ctx context.Context, tokenString, issuerURI string) (*Identity, error) {
	if issuerURI != v.issuer {
		return nil, invalid(ErrIssuerMismatch, fmt.Errorf("issuer %q is not the configured issuer %q", issuerURI, v.issuer))
	}

	if err := validateTokenFormat(tokenString); err != nil {
		return nil, invalid(ErrMalformedToken, err)
	}

	unverified := &IDTokenClaims{}
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, unverified)
	// An unknown alg still yields a decoded token; it is rejected below.
	if err != nil && !errors.Is(err, jwt.ErrTokenUnverifiable) {
		return nil, invalid(ErrMalformedToken, err)
	}

	if issuerURI == "" || unverified.Issuer != issuerURI {
		return nil, invalid(ErrIssuerMismatch, fmt.Errorf("expected %q but token specified %q", issuerURI, unverified.Issuer))
	}

	alg, _ := token.Header["alg"].(string)
	if err := validateSigningMethod(string(v.signatureAlgorithm), alg); err != nil {
		return nil, invalid(ErrAlgorithmMismatch, err)
	}

	kid, _ := token.Header["kid"].(string)
	if kid == "" {
		return nil, invalid(ErrMissingKeyID, nil)
	}

	signingKey, err := v.keyResolver.Key(ctx, kid)
	if err != nil {
		return nil, invalid(ErrKeyNotFound, err)
	}

	publicKey, err := signingKey.PublicKey()
	if err != nil {
		return nil, invalid(ErrSignatureInvalid, err)
	}

	claims := &IDTokenClaims{}
	_, err = v.parser(issuerURI).ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return publicKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, invalid(ErrSignatureInvalid, err)
		}
		return nil, invalid(ErrClaimsInvalid, err)
	}

	userID := claims.UserID()
	if userID == "" {
		return nil, invalid(ErrMissingUserID, nil)
	}

	return &Identity{
		ID:          userID,
		DisplayName: claims.Name,
	}, nil
}

func (v *Validator) parser(issuerURI string) *jwt.Parser {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{string(v.signatureAlgorithm)}),
		jwt.WithIssuer(issuerURI),
		jwt.WithLeeway(v.allowedClockSkew),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}
	return jwt.NewParser(opts...)
}

func validateSigningMethod(validAlg, tokenAlg string) error {
	if validAlg != tokenAlg {
		return fmt.Errorf("expected %q signing algorithm but token specified %q", validAlg, tokenAlg)
	}
	return nil
}
