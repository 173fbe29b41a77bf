// Package cache provides the small key/value cache used for community
// directory reads. Entries are invalidated by bumping a namespace generation
// rather than deleting keys.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Cache stores opaque values with a TTL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Incr atomically increments an integer key and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)
	Close() error
}

// Namespace groups keys under a generation counter so a single Invalidate
// drops every cached entry of the namespace.
type Namespace struct {
	cache Cache
	name  string
	ttl   time.Duration
}

// NewNamespace binds a cache to a key prefix.
func NewNamespace(c Cache, name string, ttl time.Duration) *Namespace {
	return &Namespace{cache: c, name: name, ttl: ttl}
}

func (n *Namespace) genKey() string {
	return n.name + ":gen"
}

func (n *Namespace) generation(ctx context.Context) (string, error) {
	raw, ok, err := n.cache.Get(ctx, n.genKey())
	if err != nil {
		return "", err
	}
	if !ok {
		return "0", nil
	}
	return string(raw), nil
}

func (n *Namespace) key(ctx context.Context, key string) (string, error) {
	gen, err := n.generation(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%s:%s", n.name, gen, key), nil
}

// GetJSON decodes a cached value into dst and reports whether it was present.
func (n *Namespace) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	full, err := n.key(ctx, key)
	if err != nil {
		return false, err
	}
	raw, ok, err := n.cache.Get(ctx, full)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes and stores value.
func (n *Namespace) SetJSON(ctx context.Context, key string, value any) error {
	full, err := n.key(ctx, key)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cached %s: %w", key, err)
	}
	return n.cache.Set(ctx, full, raw, n.ttl)
}

// Invalidate drops every entry in the namespace.
func (n *Namespace) Invalidate(ctx context.Context) error {
	_, err := n.cache.Incr(ctx, n.genKey())
	return err
}
