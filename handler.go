package tokenbridge

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/tokenbridge/idp-token-bridge/core"
	"github.com/tokenbridge/idp-token-bridge/exchange"
	"github.com/tokenbridge/idp-token-bridge/issuer"
)

// Metric names recorded by the Handler.
const (
	MetricRequests         = "tokenbridge_requests_total"
	MetricExchangeDuration = "tokenbridge_exchange_duration_seconds"
)

// StateCookie holds the state sent to the identity provider until the
// authorization code is posted back.
const StateCookie = "tokenbridge_state"

const stateCookieMaxAge = 10 * 60

// Branches of the sign-in flow, used as the "branch" metric label.
const (
	branchProviderError = "provider_error"
	branchCode          = "code"
	branchTokens        = "tokens"
	branchAuthorize     = "authorize"
)

// TokenExchanger turns a verified id token into a downstream token.
// It is satisfied by *core.Core.
type TokenExchanger interface {
	Exchange(ctx context.Context, idToken string) (*core.Result, error)
}

// CodeExchanger runs the authorization-code leg against the identity
// provider. It is satisfied by *exchange.Exchanger.
type CodeExchanger interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*exchange.Tokens, error)
}

// Handler serves the single sign-in endpoint. Depending on the request it
// reports a provider error, redeems a posted authorization code, exchanges
// an id token for a downstream token or redirects to the provider.
type Handler struct {
	tokens      TokenExchanger
	codes       CodeExchanger
	redirectURL *url.URL

	errorHandler         ErrorHandler
	codeExtractor        TokenExtractor
	stateExtractor       TokenExtractor
	idTokenExtractor     TokenExtractor
	accessTokenExtractor TokenExtractor
	logger               Logger
	metrics              Metrics
}

// customTokenResponse is the JSON body returned on a successful exchange.
type customTokenResponse struct {
	CustomToken string `json:"customToken"`
}

// New constructs a new Handler instance with the supplied options.
//
// Example:
//
//	h, err := tokenbridge.New(
//	    tokenbridge.WithTokenExchanger(c),
//	    tokenbridge.WithCodeExchanger(e),
//	    tokenbridge.WithRedirectURL("https://app.example.com/auth"),
//	)
//	if err != nil {
//	    log.Fatalf("failed to create handler: %v", err)
//	}
func New(opts ...Option) (*Handler, error) {
	h := &Handler{}

	for _, opt := range opts {
		if err := opt(h); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if err := h.validate(); err != nil {
		return nil, fmt.Errorf("invalid handler configuration: %w", err)
	}

	h.applyDefaults()

	return h, nil
}

// validate ensures all required fields are set
func (h *Handler) validate() error {
	if h.tokens == nil {
		return ErrTokenExchangerNil
	}
	if h.codes == nil {
		return ErrCodeExchangerNil
	}
	if h.redirectURL == nil {
		return ErrRedirectURLMissing
	}
	return nil
}

// applyDefaults sets default values for optional fields
func (h *Handler) applyDefaults() {
	if h.errorHandler == nil {
		h.errorHandler = DefaultErrorHandler
	}
	if h.codeExtractor == nil {
		h.codeExtractor = FormValueExtractor("code")
	}
	if h.stateExtractor == nil {
		h.stateExtractor = FormValueExtractor("state")
	}
	if h.idTokenExtractor == nil {
		h.idTokenExtractor = ParameterTokenExtractor("id_token")
	}
	if h.accessTokenExtractor == nil {
		h.accessTokenExtractor = ParameterTokenExtractor("access_token")
	}
	if h.metrics == nil {
		h.metrics = &NoopMetrics{}
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if code := query.Get("error"); code != "" {
		h.handleProviderError(w, r, code, query.Get("error_description"))
		return
	}

	code, err := h.codeExtractor(r)
	if err != nil {
		h.fail(w, r, branchCode, "bad_request", fmt.Errorf("could not read authorization code: %w", err))
		return
	}
	if code != "" {
		h.handleCode(w, r, code)
		return
	}

	idToken, err := h.idTokenExtractor(r)
	if err != nil {
		h.fail(w, r, branchTokens, "bad_request", fmt.Errorf("could not read id token: %w", err))
		return
	}
	accessToken, err := h.accessTokenExtractor(r)
	if err != nil {
		h.fail(w, r, branchTokens, "bad_request", fmt.Errorf("could not read access token: %w", err))
		return
	}
	if idToken != "" && accessToken != "" {
		h.handleTokens(w, r, idToken)
		return
	}

	h.redirectToProvider(w, r)
}

func (h *Handler) handleProviderError(w http.ResponseWriter, r *http.Request, code, description string) {
	h.fail(w, r, branchProviderError, "rejected", providerError{code: code, description: description})
}

func (h *Handler) handleCode(w http.ResponseWriter, r *http.Request, code string) {
	if err := h.checkState(r); err != nil {
		h.fail(w, r, branchCode, "state_mismatch", err)
		return
	}
	clearStateCookie(w)

	tokens, err := h.codes.Exchange(r.Context(), code)
	if err != nil {
		h.fail(w, r, branchCode, "exchange_failed", err)
		return
	}

	target := *h.redirectURL
	values := target.Query()
	values.Set("id_token", tokens.IDToken)
	values.Set("access_token", tokens.AccessToken)
	target.RawQuery = values.Encode()

	if h.logger != nil {
		h.logger.Debug("Authorization code redeemed, redirecting with tokens", "redirect", h.redirectURL.String())
	}
	h.count(branchCode, "redirected")

	http.Redirect(w, r, target.String(), http.StatusFound)
}

func (h *Handler) handleTokens(w http.ResponseWriter, r *http.Request, idToken string) {
	start := time.Now()
	result, err := h.tokens.Exchange(r.Context(), idToken)
	outcome := exchangeOutcome(err)
	h.metrics.ObserveHistogram(MetricExchangeDuration, time.Since(start).Seconds(), map[string]string{"outcome": outcome})

	if err != nil {
		h.fail(w, r, branchTokens, outcome, err)
		return
	}

	h.count(branchTokens, outcome)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(customTokenResponse{CustomToken: result.Token}); err != nil && h.logger != nil {
		h.logger.Error("Failed to write response", "error", err)
	}
}

func (h *Handler) redirectToProvider(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()

	// The code comes back as a cross-site form post, which only carries
	// SameSite=None cookies.
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   stateCookieMaxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})

	h.count(branchAuthorize, "redirected")
	http.Redirect(w, r, h.codes.AuthCodeURL(state), http.StatusFound)
}

// checkState requires the posted state to equal the one issued with the
// authorize redirect.
func (h *Handler) checkState(r *http.Request) error {
	posted, err := h.stateExtractor(r)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStateMismatch, err)
	}

	cookie, err := r.Cookie(StateCookie)
	if err != nil || cookie.Value == "" {
		return fmt.Errorf("%w: no state cookie", ErrStateMismatch)
	}

	if posted == "" || subtle.ConstantTimeCompare([]byte(posted), []byte(cookie.Value)) != 1 {
		return ErrStateMismatch
	}

	return nil
}

func clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

// fail logs the cause, records it and hands the error to the error handler.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, branch, outcome string, err error) {
	if h.logger != nil {
		h.logger.Error("Sign-in request failed", "branch", branch, "outcome", outcome, "error", err)
	}
	h.count(branch, outcome)
	h.errorHandler(w, r, err)
}

func (h *Handler) count(branch, outcome string) {
	h.metrics.IncCounter(MetricRequests, map[string]string{"branch": branch, "outcome": outcome})
}

// exchangeOutcome names the result of an exchange for metrics.
func exchangeOutcome(err error) string {
	switch {
	case err == nil:
		return "issued"
	case errors.Is(err, issuer.ErrIssuance):
		return "issuance_failed"
	case core.ErrorCode(err) != "":
		return core.ErrorCode(err)
	default:
		return "error"
	}
}
