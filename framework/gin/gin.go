// Package tokenbridgegin serves the sign-in endpoint from a gin router.
package tokenbridgegin

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	tokenbridge "github.com/tokenbridge/idp-token-bridge"
)

type ginContextKey struct{}

type config struct {
	errorHandler func(*gin.Context, error)
}

// Option defines a functional option for configuring the gin handler.
type Option func(*config)

// WithErrorHandler sets a custom error handler. It receives the gin
// context, so it can use gin's rendering helpers.
func WithErrorHandler(handler func(*gin.Context, error)) Option {
	return func(c *config) {
		c.errorHandler = handler
	}
}

// NewGinHandler builds a tokenbridge.Handler from opts and returns it as a
// gin.HandlerFunc. Errors are routed to the gin error handler; by default
// that is tokenbridge.DefaultErrorHandler followed by c.Abort.
func NewGinHandler(opts []tokenbridge.Option, ginOpts ...Option) (gin.HandlerFunc, error) {
	cfg := &config{
		errorHandler: defaultGinErrorHandler,
	}
	for _, opt := range ginOpts {
		opt(cfg)
	}

	handlerOpts := make([]tokenbridge.Option, 0, len(opts)+1)
	handlerOpts = append(handlerOpts, opts...)
	handlerOpts = append(handlerOpts, tokenbridge.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
		c, ok := r.Context().Value(ginContextKey{}).(*gin.Context)
		if !ok || c == nil {
			tokenbridge.DefaultErrorHandler(w, r, err)
			return
		}
		cfg.errorHandler(c, err)
	}))

	h, err := tokenbridge.New(handlerOpts...)
	if err != nil {
		return nil, err
	}

	return func(c *gin.Context) {
		r := c.Request.WithContext(context.WithValue(c.Request.Context(), ginContextKey{}, c))
		h.ServeHTTP(c.Writer, r)
	}, nil
}

func defaultGinErrorHandler(c *gin.Context, err error) {
	_ = c.Error(err)
	tokenbridge.DefaultErrorHandler(c.Writer, c.Request, err)
	c.Abort()
}
