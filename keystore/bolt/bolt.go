// Package bolt provides a keystore.Store in a bbolt file. It is durable
// across restarts of a single host.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/tokenbridge/idp-token-bridge/jwks"
	"github.com/tokenbridge/idp-token-bridge/keystore"
)

var bucketName = []byte("IdpKeys")

// Store keeps signing keys in the IdpKeys bucket, one record per kid.
type Store struct {
	db *bbolt.DB
}

var (
	_ keystore.Store  = (*Store)(nil)
	_ keystore.Lister = (*Store)(nil)
)

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("could not open bolt database %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("could not create bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database file.
func (s *Store) Close() error { return s.db.Close() }

// GetAll returns every stored key. bbolt iterates in byte order, so the
// result is ordered by kid.
func (s *Store) GetAll(ctx context.Context) (jwks.KeySet, error) {
	if err := ctx.Err(); err != nil {
		return nil, keystore.Wrap("get all", "", err)
	}

	keys := jwks.KeySet{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).ForEach(func(k, v []byte) error {
			var key jwks.SigningKey
			if err := json.Unmarshal(v, &key); err != nil {
				return keystore.Wrap("decode", string(k), err)
			}
			keys = append(keys, key)
			return nil
		})
	})
	if err != nil {
		return nil, keystore.Wrap("get all", "", err)
	}

	return keys, nil
}

// Kids returns every stored kid in byte order without decoding the records.
func (s *Store) Kids(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, keystore.Wrap("list", "", err)
	}

	kids := []string{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).ForEach(func(k, _ []byte) error {
			kids = append(kids, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, keystore.Wrap("list", "", err)
	}

	return kids, nil
}

// Put upserts key.
func (s *Store) Put(ctx context.Context, key jwks.SigningKey) error {
	if err := ctx.Err(); err != nil {
		return keystore.Wrap("put", key.Kid, err)
	}

	raw, err := json.Marshal(key)
	if err != nil {
		return keystore.Wrap("encode", key.Kid, err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key.Kid), raw)
	})
	return keystore.Wrap("put", key.Kid, err)
}

// Delete removes kid. Deleting a missing kid is not an error in bbolt.
func (s *Store) Delete(ctx context.Context, kid string) error {
	if err := ctx.Err(); err != nil {
		return keystore.Wrap("delete", kid, err)
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Delete([]byte(kid))
	})
	return keystore.Wrap("delete", kid, err)
}
