/*
Package oidc resolves the JWKS endpoint of an identity provider through
OpenID Connect discovery.

The discovery document lives at a well-known URL below the issuer:

	https://login.microsoftonline.com/{tenant}/v2.0/.well-known/openid-configuration

Only the fields the key fetcher and the code exchange need are decoded:
issuer, jwks_uri, authorization_endpoint and token_endpoint. The issuer in
the document must match the issuer the caller expects, otherwise the
document is rejected.

# Usage

	issuerURL, _ := url.Parse("https://login.microsoftonline.com/tenant/v2.0")
	endpoints, err := oidc.GetWellKnownEndpointsFromIssuerURL(ctx, client, *issuerURL, issuerURL.String())
	if err != nil {
	    return err
	}
	keysURI := endpoints.JWKSURI

See OpenID Connect Discovery 1.0:
https://openid.net/specs/openid-connect-discovery-1_0.html
*/
package oidc
