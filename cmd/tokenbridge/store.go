package main

import (
	"context"
	"fmt"

	"github.com/tokenbridge/idp-token-bridge/config"
	"github.com/tokenbridge/idp-token-bridge/keystore"
	"github.com/tokenbridge/idp-token-bridge/keystore/bolt"
	"github.com/tokenbridge/idp-token-bridge/keystore/memory"
	"github.com/tokenbridge/idp-token-bridge/keystore/redis"
)

// openStore selects the key store backend named by cfg.KeyStore. The
// returned close function is never nil.
func openStore(ctx context.Context, cfg *config.Config) (keystore.Store, func() error, error) {
	switch cfg.KeyStore {
	case config.StoreMemory:
		return memory.New(), func() error { return nil }, nil
	case config.StoreRedis:
		s, err := redis.Dial(ctx, cfg.RedisAddr, cfg.RedisKeyPrefix)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.StoreBolt:
		s, err := bolt.Open(cfg.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown key store %q", cfg.KeyStore)
	}
}
