// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// fakeStore is an in-memory DurableStore.
type fakeStore struct {
	entries map[string]*types.CacheEntry
	puts    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string]*types.CacheEntry)}
}

func (f *fakeStore) GetCacheEntry(_ context.Context, kind types.CacheKind, key string) (*types.CacheEntry, error) {
	return f.entries[entryKey(kind, key)], nil
}

func (f *fakeStore) PutCacheEntry(_ context.Context, entry *types.CacheEntry) error {
	f.puts++
	f.entries[entryKey(entry.Kind, entry.Key)] = entry
	return nil
}

func (f *fakeStore) DeleteCacheEntry(_ context.Context, kind types.CacheKind, key string) error {
	delete(f.entries, entryKey(kind, key))
	return nil
}

func testConfig() types.CacheConfig {
	return types.CacheConfig{
		FastSize: 16,
		Fast:     types.CacheTTLs{Discovery: time.Hour, Download: time.Hour, Extracted: time.Hour},
		Durable:  types.CacheTTLs{Discovery: 24 * time.Hour, Download: 24 * time.Hour, Extracted: 24 * time.Hour},
	}
}

func TestMemoryTierExpiry(t *testing.T) {
	m := NewMemoryTier(4)
	past := time.Now().Add(-2 * time.Hour)
	m.Set(context.Background(), &types.CacheEntry{
		Kind: types.CacheDiscovery, Key: "k", Payload: []byte("v"),
		StoredAt: past, TTL: time.Hour,
	})
	if got, _ := m.Get(context.Background(), types.CacheDiscovery, "k"); got != nil {
		t.Fatal("expired entry returned")
	}
	// A second read confirms lazy eviction removed it.
	if got, _ := m.Get(context.Background(), types.CacheDiscovery, "k"); got != nil {
		t.Fatal("expired entry survived eviction")
	}
}

func TestMemoryTierZeroTTLNeverExpires(t *testing.T) {
	m := NewMemoryTier(4)
	m.Set(context.Background(), &types.CacheEntry{
		Kind: types.CacheDownload, Key: "k", Payload: []byte("v"),
		StoredAt: time.Now().Add(-1000 * time.Hour),
	})
	got, _ := m.Get(context.Background(), types.CacheDownload, "k")
	if got == nil || string(got.Payload) != "v" {
		t.Fatalf("entry = %+v", got)
	}
}

func TestHierarchyWriteThrough(t *testing.T) {
	store := newFakeStore()
	h := NewHierarchy(testConfig(), store, nil)
	ctx := context.Background()

	if err := h.Put(ctx, types.CacheDiscovery, "ds1|doi:10.1/x", []byte("ranking")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if store.puts != 1 {
		t.Errorf("durable writes = %d, want 1", store.puts)
	}

	payload, tier, ok := h.Get(ctx, types.CacheDiscovery, "ds1|doi:10.1/x")
	if !ok || string(payload) != "ranking" {
		t.Fatalf("Get = %q, %v", payload, ok)
	}
	if tier != types.TierFast {
		t.Errorf("tier = %s, want fast", tier)
	}
}

func TestHierarchyPromotion(t *testing.T) {
	store := newFakeStore()
	h := NewHierarchy(testConfig(), store, nil)
	ctx := context.Background()

	// Entry present only in the durable tier, as after a process restart.
	store.PutCacheEntry(ctx, &types.CacheEntry{
		Kind: types.CacheDiscovery, Key: "k", Tier: types.TierDurable,
		Payload: []byte("v"), StoredAt: time.Now(), TTL: 24 * time.Hour,
	})
	store.puts = 0

	_, tier, ok := h.Get(ctx, types.CacheDiscovery, "k")
	if !ok || tier != types.TierDurable {
		t.Fatalf("first read: tier = %s, ok = %v", tier, ok)
	}
	_, tier, ok = h.Get(ctx, types.CacheDiscovery, "k")
	if !ok || tier != types.TierFast {
		t.Fatalf("promoted read: tier = %s, ok = %v", tier, ok)
	}
	if store.puts != 0 {
		t.Error("promotion wrote to the durable tier")
	}
}

func TestHierarchyExpiredDurableEntryIsMiss(t *testing.T) {
	store := newFakeStore()
	h := NewHierarchy(testConfig(), store, nil)
	ctx := context.Background()

	store.PutCacheEntry(ctx, &types.CacheEntry{
		Kind: types.CacheDiscovery, Key: "k", Tier: types.TierDurable,
		Payload: []byte("stale"), StoredAt: time.Now().Add(-48 * time.Hour), TTL: 24 * time.Hour,
	})

	if _, _, ok := h.Get(ctx, types.CacheDiscovery, "k"); ok {
		t.Fatal("expired durable entry served")
	}
	if len(store.entries) != 0 {
		t.Error("expired entry not evicted from the durable tier")
	}
}

func TestGetOrComputeCachesOnce(t *testing.T) {
	h := NewHierarchy(testConfig(), newFakeStore(), nil)
	ctx := context.Background()

	computes := 0
	compute := func(context.Context) ([]byte, bool, error) {
		computes++
		return []byte("result"), true, nil
	}

	payload, hit, err := h.GetOrCompute(ctx, types.CacheDownload, "k", compute)
	if err != nil || hit || string(payload) != "result" {
		t.Fatalf("first call: %q, hit=%v, err=%v", payload, hit, err)
	}
	payload, hit, err = h.GetOrCompute(ctx, types.CacheDownload, "k", compute)
	if err != nil || !hit || string(payload) != "result" {
		t.Fatalf("second call: %q, hit=%v, err=%v", payload, hit, err)
	}
	if computes != 1 {
		t.Errorf("compute ran %d times, want 1", computes)
	}
}

func TestGetOrComputeSkipsNonCacheable(t *testing.T) {
	h := NewHierarchy(testConfig(), newFakeStore(), nil)
	ctx := context.Background()

	computes := 0
	compute := func(context.Context) ([]byte, bool, error) {
		computes++
		return []byte("transient"), false, nil
	}

	for i := 0; i < 2; i++ {
		if _, hit, err := h.GetOrCompute(ctx, types.CacheDownload, "k", compute); err != nil || hit {
			t.Fatalf("call %d: hit=%v, err=%v", i, hit, err)
		}
	}
	if computes != 2 {
		t.Errorf("non-cacheable result was cached, computes = %d", computes)
	}
}

func TestGetOrComputeErrorNotCached(t *testing.T) {
	store := newFakeStore()
	h := NewHierarchy(testConfig(), store, nil)

	boom := errors.New("cancelled")
	_, _, err := h.GetOrCompute(context.Background(), types.CacheDiscovery, "k",
		func(context.Context) ([]byte, bool, error) { return nil, true, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if store.puts != 0 {
		t.Error("failed compute wrote a cache entry")
	}
}

func TestHierarchyStats(t *testing.T) {
	h := NewHierarchy(testConfig(), newFakeStore(), nil)
	ctx := context.Background()

	h.Get(ctx, types.CacheDiscovery, "missing")
	h.Put(ctx, types.CacheDiscovery, "k", []byte("v"))
	h.Get(ctx, types.CacheDiscovery, "k")
	h.Get(ctx, types.CacheDiscovery, "k")

	s := h.Stats()[types.CacheDiscovery]
	if s.Misses != 1 || s.FastHits != 2 || s.DurableHits != 0 {
		t.Errorf("stats = %+v", s)
	}
}

func TestHierarchyInvalidate(t *testing.T) {
	store := newFakeStore()
	h := NewHierarchy(testConfig(), store, nil)
	ctx := context.Background()

	h.Put(ctx, types.CacheExtracted, "k", []byte("v"))
	h.Invalidate(ctx, types.CacheExtracted, "k")

	if _, _, ok := h.Get(ctx, types.CacheExtracted, "k"); ok {
		t.Fatal("invalidated entry still served")
	}
}

func TestRedisKeyNamespacing(t *testing.T) {
	got := redisKey(types.CacheDiscovery, "ds1|doi:10.1/x")
	want := "fulltext:discovery-result:ds1|doi:10.1/x"
	if got != want {
		t.Errorf("redisKey = %q, want %q", got, want)
	}
}
