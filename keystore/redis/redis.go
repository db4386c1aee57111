// Package redis provides a keystore.Store on a single Redis hash.
//
// Every key is one hash field: the field name is the kid and the value is
// the key's JSON. HSET and HDEL are atomic per field, so instances that
// refresh concurrently converge without coordination.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/tokenbridge/idp-token-bridge/jwks"
	"github.com/tokenbridge/idp-token-bridge/keystore"
)

const defaultKeyPrefix = "tokenbridge:"

// Config for the Redis-backed Store.
type Config struct {
	// Client is required.
	Client *redis.Client
	// KeyPrefix namespaces the hash. Defaults to "tokenbridge:".
	KeyPrefix string
}

// Store keeps signing keys in a Redis hash.
type Store struct {
	client *redis.Client
	hash   string
}

var (
	_ keystore.Store  = (*Store)(nil)
	_ keystore.Lister = (*Store)(nil)
)

// New returns a Store on cfg.Client.
func New(cfg Config) (*Store, error) {
	if cfg.Client == nil {
		return nil, errors.New("redis client is required")
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &Store{client: cfg.Client, hash: prefix + "idpkeys"}, nil
}

// Dial connects to addr and checks the connection.
func Dial(ctx context.Context, addr, keyPrefix string) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return New(Config{Client: client, KeyPrefix: keyPrefix})
}

// Close closes the Redis client.
func (s *Store) Close() error { return s.client.Close() }

// GetAll returns every stored key ordered by kid.
func (s *Store) GetAll(ctx context.Context) (jwks.KeySet, error) {
	fields, err := s.client.HGetAll(ctx, s.hash).Result()
	if err != nil {
		return nil, keystore.Wrap("get all", "", err)
	}

	keys := make(jwks.KeySet, 0, len(fields))
	for kid, raw := range fields {
		var key jwks.SigningKey
		if err := json.Unmarshal([]byte(raw), &key); err != nil {
			return nil, keystore.Wrap("decode", kid, err)
		}
		keys = append(keys, key)
	}
	return keys.Sorted(), nil
}

// Kids returns the hash's field names without decoding their values.
func (s *Store) Kids(ctx context.Context) ([]string, error) {
	kids, err := s.client.HKeys(ctx, s.hash).Result()
	if err != nil {
		return nil, keystore.Wrap("list", "", err)
	}
	sort.Strings(kids)
	return kids, nil
}

// Put upserts key.
func (s *Store) Put(ctx context.Context, key jwks.SigningKey) error {
	raw, err := json.Marshal(key)
	if err != nil {
		return keystore.Wrap("encode", key.Kid, err)
	}
	if err := s.client.HSet(ctx, s.hash, key.Kid, raw).Err(); err != nil {
		return keystore.Wrap("put", key.Kid, err)
	}
	return nil
}

// Delete removes kid. HDEL on a missing field is a no-op.
func (s *Store) Delete(ctx context.Context, kid string) error {
	if err := s.client.HDel(ctx, s.hash, kid).Err(); err != nil {
		return keystore.Wrap("delete", kid, err)
	}
	return nil
}
