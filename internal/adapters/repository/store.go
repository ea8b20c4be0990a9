// Package repository persists the service state as JSON blobs in a
// key-value store.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Keys of the persisted blobs.
const (
	KeyMappings         = "clienteGerenteMap"
	KeyAudits           = "auditorias"
	KeyWorkLogOverride  = "dadosImportados"
	KeyCycleOverride    = "ciclosImportados"
	KeyGenerationMarker = "auditoriasGeradas"
)

// KV is a key-value blob store.
type KV interface {
	// Get returns the value stored at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores value at key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys lists the stored keys in ascending order.
	Keys(ctx context.Context) ([]string, error)
	// UpdatedAt returns when key was last written, or ErrNotFound.
	UpdatedAt(ctx context.Context, key string) (time.Time, error)
}

// loadJSON decodes the value at key into dst. ok is false when the key is
// absent. A value that does not decode yields ErrCorrupt.
func loadJSON(ctx context.Context, kv KV, key string, dst any) (ok bool, err error) {
	raw, err := kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return true, nil
}

func saveJSON(ctx context.Context, kv KV, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return kv.Put(ctx, key, raw)
}
