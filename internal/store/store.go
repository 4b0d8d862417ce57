// Package store holds the persistent key-value layer the favorites and
// recents lists are written to. Values are opaque blobs; callers own the
// encoding.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned when no value is stored under a key.
var ErrNotFound = errors.New("store: key not found")

// ErrCorrupt wraps a stored value that no longer decodes.
var ErrCorrupt = errors.New("store: corrupt value")

// Keys of the persisted client state.
const (
	KeyFavoriteCities  = "favoriteCities"
	KeyRecentSearches  = "recentSearches"
	KeyRecentLocations = "recentLocations"
)

// Store is the contract every backend (memory, SQL, redis, S3) satisfies.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// LoadJSON decodes the value under key into v. It reports false, with no
// error, when the key is absent.
func LoadJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	data, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w: %w", key, ErrCorrupt, err)
	}
	return true, nil
}

// SaveJSON encodes v and stores it under key.
func SaveJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.Set(ctx, key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
