/*
Package validator verifies id tokens issued by the Microsoft identity
platform and turns them into a verified Identity.

Checks run in a fixed order so that no key lookup or signature work happens
for a token that is already known to be wrong:

 1. format: a compact JWS under 1MB;
 2. the unverified header and claims decode, and iss equals the expected
    issuer exactly;
 3. alg equals the configured algorithm (RS256 by default) and kid is set;
 4. the key for kid is resolved, refilling the cache at most once;
 5. signature, exp, nbf, iat and, when configured, aud are verified with
    golang-jwt;
 6. the user id is read from upn, unique_name or preferred_username, in that
    order.

# Usage

	v, err := validator.New(
	    validator.WithKeyResolver(resolver),
	    validator.WithIssuer("https://login.microsoftonline.com/" + tenant + "/v2.0"),
	    validator.WithAudience(clientID),
	)
	if err != nil {
	    log.Fatal(err)
	}

	identity, err := v.ValidateToken(ctx, idToken)

# Errors

Every rejection matches ErrTokenInvalid and exactly one reason:

	switch {
	case errors.Is(err, validator.ErrIssuerMismatch):
	case errors.Is(err, validator.ErrAlgorithmMismatch):
	case errors.Is(err, validator.ErrKeyNotFound):
	case errors.Is(err, validator.ErrSignatureInvalid):
	case errors.Is(err, validator.ErrMissingUserID):
	}

The cause is kept for operators; it is never meant for end users.
*/
package validator
