// Package config loads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/joeshaw/envdecode"
)

// Key store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreBolt   = "bolt"
)

const authorityHost = "https://login.microsoftonline.com"

// Config for the token bridge. Defaults are provided via struct tags.
type Config struct {
	// TenantID is the directory the users sign in to. ENV: TENANT_ID
	TenantID string `env:"TENANT_ID,required"`
	// ClientID is the application id registered at the provider. ENV: CLIENT_ID
	ClientID string `env:"CLIENT_ID,required"`
	// ClientSecret redeems authorization codes. ENV: CLIENT_SECRET
	ClientSecret string `env:"CLIENT_SECRET"`
	// RedirectURI receives the posted code. ENV: REDIRECT_URI
	RedirectURI string `env:"REDIRECT_URI,required"`
	// KeysURI overrides the tenant's JWKS endpoint. ENV: KEYS_URI
	KeysURI string `env:"KEYS_URI"`

	// KeyStore is one of memory, redis or bolt. ENV: KEY_STORE
	KeyStore       string `env:"KEY_STORE,default=memory"`
	RedisAddr      string `env:"REDIS_ADDR,default=localhost:6379"`
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX,default=tokenbridge:"`
	BoltPath       string `env:"BOLT_PATH,default=tokenbridge.db"`

	RefreshInterval time.Duration `env:"REFRESH_INTERVAL,default=1h"`
	RefillTimeout   time.Duration `env:"REFILL_TIMEOUT,default=10s"`

	// MinRefillInterval spaces out fetches caused by unknown kids. ENV: MIN_REFILL_INTERVAL
	MinRefillInterval time.Duration `env:"MIN_REFILL_INTERVAL,default=1m"`

	// SignerKeyFile holds the PEM private key for downstream tokens. ENV: SIGNER_KEY_FILE
	SignerKeyFile       string `env:"SIGNER_KEY_FILE,required"`
	SignerKeyID         string `env:"SIGNER_KEY_ID"`
	ServiceAccountEmail string `env:"SERVICE_ACCOUNT_EMAIL,required"`

	ListenAddr string `env:"LISTEN_ADDR,default=:8080"`
	LogLevel   string `env:"LOG_LEVEL,default=info"`
}

// Load decodes the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("could not decode configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the values that struct tags cannot express.
func (c *Config) Validate() error {
	switch c.KeyStore {
	case StoreMemory, StoreRedis, StoreBolt:
	default:
		return fmt.Errorf("unknown key store %q (want %s, %s or %s)", c.KeyStore, StoreMemory, StoreRedis, StoreBolt)
	}

	if c.RefreshInterval <= 0 {
		return errors.New("refresh interval must be positive")
	}
	if c.RefillTimeout <= 0 {
		return errors.New("refill timeout must be positive")
	}
	if c.MinRefillInterval < 0 {
		return errors.New("minimum refill interval cannot be negative")
	}

	if u, err := url.Parse(c.RedirectURI); err != nil || !u.IsAbs() {
		return fmt.Errorf("redirect URI %q must be an absolute URL", c.RedirectURI)
	}
	if c.KeysURI != "" {
		if u, err := url.Parse(c.KeysURI); err != nil || !u.IsAbs() {
			return fmt.Errorf("keys URI %q must be an absolute URL", c.KeysURI)
		}
	}

	return nil
}

// IssuerURI is the exact iss value of id tokens issued for the tenant.
func (c *Config) IssuerURI() string {
	return fmt.Sprintf("%s/%s/v2.0", authorityHost, url.PathEscape(c.TenantID))
}

// JWKSURI returns KeysURI when set, otherwise the tenant's v2.0 key endpoint.
func (c *Config) JWKSURI() string {
	if c.KeysURI != "" {
		return c.KeysURI
	}
	return fmt.Sprintf("%s/%s/discovery/v2.0/keys", authorityHost, url.PathEscape(c.TenantID))
}
