// Command tokenbridge serves the sign-in endpoint and keeps the identity
// provider's signing keys fresh.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	tokenbridge "github.com/tokenbridge/idp-token-bridge"
	"github.com/tokenbridge/idp-token-bridge/config"
	"github.com/tokenbridge/idp-token-bridge/core"
	"github.com/tokenbridge/idp-token-bridge/exchange"
	tokenbridgegin "github.com/tokenbridge/idp-token-bridge/framework/gin"
	"github.com/tokenbridge/idp-token-bridge/issuer"
	"github.com/tokenbridge/idp-token-bridge/jwks"
	"github.com/tokenbridge/idp-token-bridge/refresh"
	"github.com/tokenbridge/idp-token-bridge/validator"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := logrus.New()
	log.Formatter = &logrus.JSONFormatter{}

	if err := run(log); err != nil {
		log.WithError(err).Fatal("tokenbridge exited")
	}
}

func run(log *logrus.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(level)
	logger := tokenbridge.NewLogrusLogger(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("could not open key store: %w", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("could not close key store", "error", err)
		}
	}()

	keysURI, err := url.Parse(cfg.JWKSURI())
	if err != nil {
		return err
	}
	provider, err := jwks.NewProvider(jwks.WithKeysURI(keysURI))
	if err != nil {
		return err
	}

	resolver, err := jwks.NewResolver(
		jwks.WithFetcher(provider),
		jwks.WithStore(store),
		jwks.WithRefillTimeout(cfg.RefillTimeout),
		jwks.WithMinRefillInterval(cfg.MinRefillInterval),
		jwks.WithResolverLogger(logger),
	)
	if err != nil {
		return err
	}
	if err := resolver.Warm(ctx); err != nil {
		logger.Warn("could not warm signing key cache", "error", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := tokenbridge.NewPrometheusMetrics(registry)

	job, err := refresh.NewJob(
		refresh.WithFetcher(provider),
		refresh.WithStore(store),
		refresh.WithCache(resolver.Cache()),
		refresh.WithLogger(logger),
		refresh.WithMetrics(metrics),
	)
	if err != nil {
		return err
	}
	scheduler, err := refresh.NewScheduler(job,
		refresh.WithInterval(cfg.RefreshInterval),
		refresh.WithSchedulerLogger(logger),
	)
	if err != nil {
		return err
	}

	authHandler, err := newAuthHandler(cfg, resolver, logger, metrics)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           newRouter(authHandler, resolver.Cache(), registry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		scheduler.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newAuthHandler wires the verification and issuance pipeline behind the
// sign-in endpoint.
func newAuthHandler(cfg *config.Config, resolver *jwks.Resolver, logger tokenbridge.Logger, metrics tokenbridge.Metrics) (gin.HandlerFunc, error) {
	v, err := validator.New(
		validator.WithKeyResolver(resolver),
		validator.WithIssuer(cfg.IssuerURI()),
		validator.WithAudience(cfg.ClientID),
	)
	if err != nil {
		return nil, err
	}

	mint, err := issuer.NewCustomTokenIssuer(
		issuer.WithServiceAccountEmail(cfg.ServiceAccountEmail),
		issuer.WithPrivateKeyFile(cfg.SignerKeyFile),
		issuer.WithKeyID(cfg.SignerKeyID),
	)
	if err != nil {
		return nil, err
	}

	c, err := core.New(
		core.WithValidator(v),
		core.WithIssuer(mint),
		core.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	codes, err := exchange.New(
		exchange.WithTenant(cfg.TenantID),
		exchange.WithClientID(cfg.ClientID),
		exchange.WithClientSecret(cfg.ClientSecret),
		exchange.WithRedirectURL(cfg.RedirectURI),
	)
	if err != nil {
		return nil, err
	}

	return tokenbridgegin.NewGinHandler([]tokenbridge.Option{
		tokenbridge.WithTokenExchanger(c),
		tokenbridge.WithCodeExchanger(codes),
		tokenbridge.WithRedirectURL(cfg.RedirectURI),
		tokenbridge.WithLogger(logger),
		tokenbridge.WithMetrics(metrics),
	})
}

func newRouter(authHandler gin.HandlerFunc, cache *jwks.Cache, gatherer prometheus.Gatherer) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Any("/auth", authHandler)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "signingKeys": cache.Len()})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return router
}
