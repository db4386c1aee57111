// Package keystore defines the durable tier of the signing-key cache.
//
// A Store maps kid to the full key object. It survives restarts and is
// shared by every instance, so a refresh performed by one instance becomes
// visible to the others without each of them calling the identity provider.
// Backends live in the memory, redis and bolt sub-packages.
package keystore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/tokenbridge/idp-token-bridge/jwks"
)

// ErrStore is matched by every backend failure.
var ErrStore = errors.New("key store unavailable")

// Store is the durable key store.
//
// GetAll returning an empty set with a nil error is a valid first-run state.
// Put upserts by kid. Delete is idempotent: removing a missing kid succeeds.
// Each operation is atomic per key.
type Store interface {
	GetAll(ctx context.Context) (jwks.KeySet, error)
	Put(ctx context.Context, key jwks.SigningKey) error
	Delete(ctx context.Context, kid string) error
}

// Lister is implemented by stores that can enumerate their kids without
// decoding the records behind them, so a record that no longer decodes can
// still be found and deleted.
type Lister interface {
	Kids(ctx context.Context) ([]string, error)
}

// Kids returns every kid held by s, sorted. It uses Lister when s
// implements it and falls back to GetAll otherwise.
func Kids(ctx context.Context, s Store) ([]string, error) {
	if l, ok := s.(Lister); ok {
		kids, err := l.Kids(ctx)
		if err != nil {
			return nil, Wrap("list", "", err)
		}
		sort.Strings(kids)
		return kids, nil
	}

	keys, err := s.GetAll(ctx)
	if err != nil {
		return nil, Wrap("get all", "", err)
	}
	return keys.Kids(), nil
}

// StoreError reports a failed store operation.
type StoreError struct {
	Op  string
	Kid string
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Kid != "" {
		return fmt.Sprintf("%s: %s %q: %v", ErrStore, e.Op, e.Kid, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", ErrStore, e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is allows the error to be compared with ErrStore.
func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}

// Wrap turns err into a *StoreError unless it already is one.
func Wrap(op, kid string, err error) error {
	if err == nil {
		return nil
	}
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return err
	}
	return &StoreError{Op: op, Kid: kid, Err: err}
}
