/*
Package tokenbridge turns an identity provider sign-in into a downstream
token.

A single endpoint, served by Handler, drives the whole flow:

 1. the provider redirected back with ?error=... : respond 400 with a
    generic message and log the provider's description;
 2. the provider posted an authorization code (response_mode=form_post):
    redeem it and redirect to the configured URL with id_token and
    access_token query parameters;
 3. the request carries id_token and access_token: verify the id token and
    respond with {"customToken": "..."};
 4. anything else: redirect to the provider's authorize endpoint.

Failures never reveal their cause to the caller. The cause is logged and
counted instead.

# Basic Usage

	resolver, _ := jwks.NewResolver(jwks.WithFetcher(provider), jwks.WithStore(store))

	v, err := validator.New(
	    validator.WithKeyResolver(resolver),
	    validator.WithIssuer("https://login.microsoftonline.com/{tenant}/v2.0"),
	)
	if err != nil {
	    log.Fatal(err)
	}

	c, _ := core.New(core.WithValidator(v), core.WithIssuer(customTokens))
	e, _ := exchange.New(
	    exchange.WithTenant(tenant),
	    exchange.WithClientID(clientID),
	    exchange.WithClientSecret(clientSecret),
	    exchange.WithRedirectURL(redirectURL),
	)

	h, err := tokenbridge.New(
	    tokenbridge.WithTokenExchanger(c),
	    tokenbridge.WithCodeExchanger(e),
	    tokenbridge.WithRedirectURL(redirectURL),
	)
	if err != nil {
	    log.Fatal(err)
	}

	http.Handle("/auth", h)

# Logging and Metrics

Logger has the log/slog method set, so *slog.Logger works directly.
NewLogrusLogger adapts logrus. The same value can be passed to jwks,
refresh and core.

PrometheusMetrics registers its collectors on a caller-supplied registerer
and is shared with the refresh job:

	metrics := tokenbridge.NewPrometheusMetrics(prometheus.DefaultRegisterer)

# Error Handling

DefaultErrorHandler answers 400 for provider errors and invalid tokens and
502 when the code exchange fails. Supply WithErrorHandler to change the
response body; the error matches ErrProviderRejected, exchange.ErrExchange,
core.ErrJWTMissing, core.ErrJWTInvalid or issuer.ErrIssuance.
*/
package tokenbridge
