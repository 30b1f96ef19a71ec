// Package kvstore provides the durable key-value store abstraction the
// engine persists its overlay map and agent registry into. Values are
// JSON-encoded under string keys. Implementations must treat a missing
// key as absence, not an error.
package kvstore

import (
	"context"
	"encoding/json"
)

// Store is the durable key-value contract. Load reports absence via the
// second return value; Save overwrites unconditionally (last writer wins).
type Store interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, value []byte) error
}

// LoadJSON loads and decodes the value under key into dest.
// Returns false when the key is absent; dest is left untouched.
func LoadJSON(ctx context.Context, s Store, key string, dest interface{}) (bool, error) {
	raw, ok, err := s.Load(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SaveJSON encodes value and stores it under key.
func SaveJSON(ctx context.Context, s Store, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.Save(ctx, key, raw)
}
