package tokenbridge

import (
	"errors"
	"net/url"
)

// Option configures the Handler.
// Returns error for validation failures.
type Option func(*Handler) error

// WithTokenExchanger sets the pipeline that verifies id tokens and mints
// downstream tokens (REQUIRED). Usually a *core.Core.
func WithTokenExchanger(t TokenExchanger) Option {
	return func(h *Handler) error {
		if t == nil {
			return ErrTokenExchangerNil
		}
		h.tokens = t
		return nil
	}
}

// WithCodeExchanger sets the authorization-code collaborator (REQUIRED).
// Usually an *exchange.Exchanger.
func WithCodeExchanger(c CodeExchanger) Option {
	return func(h *Handler) error {
		if c == nil {
			return ErrCodeExchangerNil
		}
		h.codes = c
		return nil
	}
}

// WithRedirectURL sets where the browser is sent after a code has been
// redeemed (REQUIRED). The tokens are appended as query parameters.
func WithRedirectURL(rawURL string) Option {
	return func(h *Handler) error {
		u, err := url.Parse(rawURL)
		if err != nil {
			return err
		}
		if !u.IsAbs() {
			return errors.New("redirect URL must be absolute")
		}
		h.redirectURL = u
		return nil
	}
}

// WithErrorHandler sets the handler called when a request fails.
// See the ErrorHandler type for more information.
//
// Default: DefaultErrorHandler
func WithErrorHandler(e ErrorHandler) Option {
	return func(h *Handler) error {
		if e == nil {
			return ErrErrorHandlerNil
		}
		h.errorHandler = e
		return nil
	}
}

// WithCodeExtractor sets the function reading the authorization code.
//
// Default: FormValueExtractor("code")
func WithCodeExtractor(e TokenExtractor) Option {
	return func(h *Handler) error {
		if e == nil {
			return ErrTokenExtractorNil
		}
		h.codeExtractor = e
		return nil
	}
}

// WithStateExtractor sets the function reading the state posted back with
// the authorization code.
//
// Default: FormValueExtractor("state")
func WithStateExtractor(e TokenExtractor) Option {
	return func(h *Handler) error {
		if e == nil {
			return ErrTokenExtractorNil
		}
		h.stateExtractor = e
		return nil
	}
}

// WithIDTokenExtractor sets the function reading the id token.
//
// Default: ParameterTokenExtractor("id_token")
func WithIDTokenExtractor(e TokenExtractor) Option {
	return func(h *Handler) error {
		if e == nil {
			return ErrTokenExtractorNil
		}
		h.idTokenExtractor = e
		return nil
	}
}

// WithAccessTokenExtractor sets the function reading the access token.
//
// Default: ParameterTokenExtractor("access_token")
func WithAccessTokenExtractor(e TokenExtractor) Option {
	return func(h *Handler) error {
		if e == nil {
			return ErrTokenExtractorNil
		}
		h.accessTokenExtractor = e
		return nil
	}
}

// WithLogger sets an optional logger for the handler.
//
// The logger interface is compatible with log/slog.Logger and similar loggers.
func WithLogger(logger Logger) Option {
	return func(h *Handler) error {
		if logger == nil {
			return ErrLoggerNil
		}
		h.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics sink.
//
// Default: NoopMetrics
func WithMetrics(m Metrics) Option {
	return func(h *Handler) error {
		if m == nil {
			return ErrMetricsNil
		}
		h.metrics = m
		return nil
	}
}

// Sentinel errors for configuration validation
var (
	ErrTokenExchangerNil  = errors.New("token exchanger cannot be nil (use WithTokenExchanger)")
	ErrCodeExchangerNil   = errors.New("code exchanger cannot be nil (use WithCodeExchanger)")
	ErrRedirectURLMissing = errors.New("redirect URL is required (use WithRedirectURL)")
	ErrErrorHandlerNil    = errors.New("errorHandler cannot be nil")
	ErrTokenExtractorNil  = errors.New("tokenExtractor cannot be nil")
	ErrLoggerNil          = errors.New("logger cannot be nil")
	ErrMetricsNil         = errors.New("metrics cannot be nil")
)
