// Package cache provides the key-value caching layer shared by embeddings and candidate verdicts.
//
// A Store never reports errors to its callers: an unreachable backend behaves like an empty cache,
// so every consumer stays correct when caching is unavailable and only loses the speedup.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DefaultTTL is the expiry applied to embeddings and verdicts
const DefaultTTL = 24 * time.Hour

// Key prefixes
const (
	PrefixEmbedding = "embed"
	PrefixVerdict   = "score"
)

// Store is a byte-payload key-value store with per-key expiry
type Store interface {
	// Get returns the cached payload and whether it was found
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores a payload; failures are swallowed
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// Key builds a cache key of the form "<prefix>:<sha256 hex of raw>"
func Key(prefix, raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return prefix + ":" + hex.EncodeToString(sum[:])
}

// Noop is a Store that never holds anything
type Noop struct{}

// Get always misses
func (Noop) Get(context.Context, string) ([]byte, bool) { return nil, false }

// Set discards the value
func (Noop) Set(context.Context, string, []byte, time.Duration) {}

// Stats counts hits and misses of a Tiered store
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// Tiered checks an in-process L1 before a shared L2. An L2 hit repopulates L1.
type Tiered struct {
	l1     *Memory
	l2     Store
	logger *zap.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// NewTiered combines an in-process cache with an optional remote store (nil disables L2)
func NewTiered(l1 *Memory, l2 Store, logger *zap.Logger) *Tiered {
	if logger == nil {
		logger = zap.NewNop()
	}
	if l2 == nil {
		l2 = Noop{}
	}
	return &Tiered{l1: l1, l2: l2, logger: logger}
}

// Get tries L1 then L2
func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool) {
	if t.l1 != nil {
		if data, ok := t.l1.Lookup(key); ok {
			t.hits.Add(1)
			t.logger.Debug("cache L1 hit", zap.String("key", key))
			return data, true
		}
	}

	if data, ok := t.l2.Get(ctx, key); ok {
		t.hits.Add(1)
		t.logger.Debug("cache L2 hit", zap.String("key", key))
		if t.l1 != nil {
			t.l1.Store(key, data, t.l1.ttl)
		}
		return data, true
	}

	t.misses.Add(1)
	return nil, false
}

// Set writes through to both tiers
func (t *Tiered) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if t.l1 != nil {
		l1TTL := ttl
		if t.l1.ttl > 0 && (l1TTL <= 0 || t.l1.ttl < l1TTL) {
			l1TTL = t.l1.ttl
		}
		t.l1.Store(key, value, l1TTL)
	}
	t.l2.Set(ctx, key, value, ttl)
}

// Stats returns the hit and miss counters
func (t *Tiered) Stats() Stats {
	return Stats{Hits: t.hits.Load(), Misses: t.misses.Load()}
}
