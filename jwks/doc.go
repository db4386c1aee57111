/*
Package jwks fetches, caches and resolves the identity provider's signing keys.

Keys live in two tiers. The Cache is process local and swapped whole on every
load, so readers never take a lock. A KeyStore, usually one of the keystore
backends, is durable and shared by every instance. The Provider is the only
network dependency: one GET against the JWKS endpoint, either configured or
discovered from the issuer's .well-known/openid-configuration.

# Resolving keys

	provider, err := jwks.NewProvider(jwks.WithKeysURI(keysURI))
	if err != nil {
	    log.Fatal(err)
	}

	resolver, err := jwks.NewResolver(
	    jwks.WithFetcher(provider),
	    jwks.WithStore(store),
	)
	if err != nil {
	    log.Fatal(err)
	}

	key, err := resolver.Key(ctx, kid)

On a cache miss the Resolver refills once: from the store, then from the
Provider when the store does not know the kid. Concurrent misses for the same
kid share one refill. A kid still unknown afterwards yields ErrKeyNotFound.

# Key material

Only RSA keys are supported. SigningKey.PublicKey prefers the first x5c
certificate, framed by NormalizeCertificate, and falls back to the n and e
members when the key carries no certificate. Further x5c entries are ignored.

# Errors

Every Provider failure matches ErrFetch and carries the URI and, for non-2xx
responses, the status code:

	var fetchErr *jwks.FetchError
	if errors.As(err, &fetchErr) {
	    log.Printf("jwks endpoint %s answered %d", fetchErr.URI, fetchErr.StatusCode)
	}
*/
package jwks
