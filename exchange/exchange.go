// Package exchange trades an OAuth2 authorization code for the identity
// provider's id and access tokens.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

// ErrExchange is matched by every error returned from Exchanger.Exchange.
var ErrExchange = errors.New("authorization code exchange failed")

// Tokens are the credentials returned by the token endpoint.
type Tokens struct {
	IDToken     string
	AccessToken string
}

// Exchanger runs the authorization-code leg of the sign-in flow against a
// single tenant.
type Exchanger struct {
	config *oauth2.Config
	client *http.Client
}

// New builds and returns a new *Exchanger.
// WithTenant (or WithEndpoint), WithClientID and WithRedirectURL are required.
func New(opts ...Option) (*Exchanger, error) {
	e := &Exchanger{
		config: &oauth2.Config{
			Scopes: []string{"openid"},
		},
		client: &http.Client{Timeout: 30 * time.Second},
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if err := e.validate(); err != nil {
		return nil, err
	}

	return e, nil
}

func (e *Exchanger) validate() error {
	if e.config.Endpoint.AuthURL == "" || e.config.Endpoint.TokenURL == "" {
		return errors.New("endpoint is required (use WithTenant or WithEndpoint)")
	}
	if e.config.ClientID == "" {
		return errors.New("client ID is required (use WithClientID)")
	}
	if e.config.RedirectURL == "" {
		return errors.New("redirect URL is required (use WithRedirectURL)")
	}
	return nil
}

// AuthCodeURL returns the identity provider's authorize URL carrying state.
// The response is posted back as a form together with state, which the
// caller must compare with the value it issued. Every URL carries a fresh
// nonce.
func (e *Exchanger) AuthCodeURL(state string) string {
	return e.config.AuthCodeURL(
		state,
		oauth2.SetAuthURLParam("response_mode", "form_post"),
		oauth2.SetAuthURLParam("nonce", uuid.NewString()),
	)
}

// Exchange redeems code at the token endpoint. A response without an
// id_token is an error since nothing downstream can be verified without it.
func (e *Exchanger) Exchange(ctx context.Context, code string) (*Tokens, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: code is empty", ErrExchange)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, e.client)

	token, err := e.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExchange, err)
	}

	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		return nil, fmt.Errorf("%w: response does not contain an id_token", ErrExchange)
	}

	return &Tokens{
		IDToken:     idToken,
		AccessToken: token.AccessToken,
	}, nil
}

// Option configures an Exchanger.
type Option func(*Exchanger) error

// WithTenant targets the Microsoft identity platform v2.0 endpoints of the
// given tenant.
func WithTenant(tenant string) Option {
	return func(e *Exchanger) error {
		if tenant == "" {
			return errors.New("tenant cannot be empty")
		}
		e.config.Endpoint = microsoft.AzureADEndpoint(tenant)
		return nil
	}
}

// WithEndpoint sets the authorize and token URLs directly.
func WithEndpoint(authURL, tokenURL string) Option {
	return func(e *Exchanger) error {
		if authURL == "" || tokenURL == "" {
			return errors.New("authorize and token URLs cannot be empty")
		}
		e.config.Endpoint = oauth2.Endpoint{
			AuthURL:   authURL,
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		}
		return nil
	}
}

// WithClientID sets the application (client) id registered at the provider.
func WithClientID(clientID string) Option {
	return func(e *Exchanger) error {
		if clientID == "" {
			return errors.New("client ID cannot be empty")
		}
		e.config.ClientID = clientID
		return nil
	}
}

// WithClientSecret sets the client secret used at the token endpoint.
func WithClientSecret(secret string) Option {
	return func(e *Exchanger) error {
		e.config.ClientSecret = secret
		return nil
	}
}

// WithRedirectURL sets the URL the provider posts the code back to.
func WithRedirectURL(redirectURL string) Option {
	return func(e *Exchanger) error {
		if redirectURL == "" {
			return errors.New("redirect URL cannot be empty")
		}
		e.config.RedirectURL = redirectURL
		return nil
	}
}

// WithHTTPClient sets the client used to reach the token endpoint.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Exchanger) error {
		if client == nil {
			return errors.New("HTTP client cannot be nil")
		}
		e.client = client
		return nil
	}
}
