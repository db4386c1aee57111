package validator

import (
	"github.com/golang-jwt/jwt/v5"
)

// IDTokenClaims are the claims read from a Microsoft identity platform id
// token.
type IDTokenClaims struct {
	jwt.RegisteredClaims

	UPN               string `json:"upn,omitempty"`
	UniqueName        string `json:"unique_name,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
	Name              string `json:"name,omitempty"`
	TenantID          string `json:"tid,omitempty"`
	Nonce             string `json:"nonce,omitempty"`
}

// UserID returns the first non-empty of upn, unique_name and
// preferred_username.
func (c *IDTokenClaims) UserID() string {
	for _, candidate := range []string{c.UPN, c.UniqueName, c.PreferredUsername} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

// Identity is the verified user. It is only built from a token whose
// issuer, algorithm and signature have passed validation.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
}
