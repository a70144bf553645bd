package cache

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapStore is a Store that records every write
type mapStore struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMapStore() *mapStore {
	return &mapStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *mapStore) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *mapStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttls[key] = ttl
}

func TestKey(t *testing.T) {
	k1 := Key(PrefixEmbedding, "python java")
	k2 := Key(PrefixEmbedding, "python java")
	k3 := Key(PrefixVerdict, "python java")

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.True(t, strings.HasPrefix(k1, "embed:"))
	assert.Len(t, strings.TrimPrefix(k1, "embed:"), 64)
}

func TestMemory_EvictsLeastRecentlyUsed(t *testing.T) {
	m := NewMemory(2, 0)
	m.Store("a", []byte("1"), 0)
	m.Store("b", []byte("2"), 0)

	_, ok := m.Lookup("a")
	require.True(t, ok)

	m.Store("c", []byte("3"), 0)

	_, ok = m.Lookup("b")
	assert.False(t, ok, "b was least recently used")
	_, ok = m.Lookup("a")
	assert.True(t, ok)
	_, ok = m.Lookup("c")
	assert.True(t, ok)
	assert.Equal(t, 2, m.Len())
}

func TestMemory_Expiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(0, 0)
	m.now = func() time.Time { return now }

	m.Store("k", []byte("v"), time.Minute)
	_, ok := m.Lookup("k")
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = m.Lookup("k")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestMemory_Replace(t *testing.T) {
	m := NewMemory(1, 0)
	m.Store("k", []byte("old"), 0)
	m.Store("k", []byte("new"), 0)

	v, ok := m.Lookup("k")
	require.True(t, ok)
	assert.Equal(t, "new", string(v))
	assert.Equal(t, 1, m.Len())
}

func TestNoop(t *testing.T) {
	var s Store = Noop{}
	s.Set(context.Background(), "k", []byte("v"), time.Hour)
	_, ok := s.Get(context.Background(), "k")
	assert.False(t, ok)
}

func TestTiered_L2HitPopulatesL1(t *testing.T) {
	ctx := context.Background()
	l2 := newMapStore()
	l2.data["k"] = []byte("remote")

	tiered := NewTiered(NewMemory(10, time.Hour), l2, nil)

	v, ok := tiered.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "remote", string(v))

	delete(l2.data, "k")
	v, ok = tiered.Get(ctx, "k")
	require.True(t, ok, "second read must be served from L1")
	assert.Equal(t, "remote", string(v))

	_, ok = tiered.Get(ctx, "missing")
	assert.False(t, ok)

	assert.Equal(t, Stats{Hits: 2, Misses: 1}, tiered.Stats())
}

func TestTiered_SetWritesThrough(t *testing.T) {
	ctx := context.Background()
	l2 := newMapStore()
	tiered := NewTiered(NewMemory(10, time.Minute), l2, nil)

	tiered.Set(ctx, "k", []byte("v"), DefaultTTL)

	assert.Equal(t, "v", string(l2.data["k"]))
	assert.Equal(t, DefaultTTL, l2.ttls["k"])
	v, ok := tiered.l1.Lookup("k")
	require.True(t, ok)
	assert.Equal(t, "v", string(v))
}

func TestTiered_WithoutL2(t *testing.T) {
	ctx := context.Background()
	tiered := NewTiered(nil, nil, nil)

	tiered.Set(ctx, "k", []byte("v"), time.Hour)
	_, ok := tiered.Get(ctx, "k")
	assert.False(t, ok)
}

func TestOpen_DegradesWithoutRedis(t *testing.T) {
	ctx := context.Background()

	store, closeFn := Open(ctx, "", 100, time.Hour, nil)
	require.NotNil(t, store)
	assert.NoError(t, closeFn())

	store.Set(ctx, "k", []byte("v"), time.Hour)
	v, ok := store.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", string(v))
}

func TestOpen_InvalidRedisURL(t *testing.T) {
	store, closeFn := Open(context.Background(), "not-a-redis-url", 10, time.Hour, nil)
	require.NotNil(t, store)
	assert.NoError(t, closeFn())
	_, isNoop := store.l2.(Noop)
	assert.True(t, isNoop)
}
