// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// DurableStore is the persistence surface the hierarchy needs for its
// durable tier. The sqlite store implements it.
type DurableStore interface {
	GetCacheEntry(ctx context.Context, kind types.CacheKind, key string) (*types.CacheEntry, error)
	PutCacheEntry(ctx context.Context, entry *types.CacheEntry) error
	DeleteCacheEntry(ctx context.Context, kind types.CacheKind, key string) error
}

// storeTier adapts a DurableStore to the Tier interface, applying the
// read-side expiry check the store itself does not.
type storeTier struct {
	store DurableStore
	now   func() time.Time
}

func (s *storeTier) Get(ctx context.Context, kind types.CacheKind, key string) (*types.CacheEntry, error) {
	entry, err := s.store.GetCacheEntry(ctx, kind, key)
	if err != nil || entry == nil {
		return nil, err
	}
	if entry.Expired(s.now()) {
		_ = s.store.DeleteCacheEntry(ctx, kind, key)
		return nil, nil
	}
	return entry, nil
}

func (s *storeTier) Set(ctx context.Context, entry *types.CacheEntry) error {
	return s.store.PutCacheEntry(ctx, entry)
}

func (s *storeTier) Delete(ctx context.Context, kind types.CacheKind, key string) error {
	return s.store.DeleteCacheEntry(ctx, kind, key)
}

// Hierarchy layers a fast tier over the durable tier. Reads check fast
// first, then durable with promotion; writes land in both with the
// tier-appropriate TTL.
type Hierarchy struct {
	fast    Tier
	durable Tier

	fastTTLs    types.CacheTTLs
	durableTTLs types.CacheTTLs

	mu    sync.Mutex
	stats map[types.CacheKind]*types.CacheStats

	log *zap.Logger
}

// NewHierarchy wires a fast tier chosen by cfg.FastTier over the durable
// store. Tier failures degrade to misses; the cache never fails an
// acquisition.
func NewHierarchy(cfg types.CacheConfig, store DurableStore, log *zap.Logger) *Hierarchy {
	if log == nil {
		log = zap.NewNop()
	}
	var fast Tier
	if cfg.FastTier == "redis" && cfg.RedisAddr != "" {
		fast = NewRedisTier(cfg.RedisAddr)
	} else {
		fast = NewMemoryTier(cfg.FastSize)
	}
	return &Hierarchy{
		fast:        fast,
		durable:     &storeTier{store: store, now: time.Now},
		fastTTLs:    cfg.Fast,
		durableTTLs: cfg.Durable,
		stats:       make(map[types.CacheKind]*types.CacheStats),
		log:         log,
	}
}

// Get returns the freshest cached payload for (kind, key) and the tier
// it was found in. A durable hit is promoted into the fast tier.
func (h *Hierarchy) Get(ctx context.Context, kind types.CacheKind, key string) ([]byte, types.CacheTier, bool) {
	if entry, err := h.fast.Get(ctx, kind, key); err == nil && entry != nil {
		h.count(kind, types.TierFast)
		return entry.Payload, types.TierFast, true
	} else if err != nil {
		h.log.Debug("fast tier read failed", zap.String("key", key), zap.Error(err))
	}

	entry, err := h.durable.Get(ctx, kind, key)
	if err != nil {
		h.log.Debug("durable tier read failed", zap.String("key", key), zap.Error(err))
	}
	if entry == nil {
		h.count(kind, "")
		return nil, "", false
	}

	h.count(kind, types.TierDurable)
	h.promote(ctx, entry)
	return entry.Payload, types.TierDurable, true
}

// Put writes the payload into both tiers with each tier's per-kind TTL.
func (h *Hierarchy) Put(ctx context.Context, kind types.CacheKind, key string, payload []byte) error {
	now := time.Now().UTC()
	if err := h.fast.Set(ctx, &types.CacheEntry{
		Kind: kind, Key: key, Tier: types.TierFast,
		Payload: payload, StoredAt: now, TTL: h.fastTTLs.ForKind(kind),
	}); err != nil {
		h.log.Debug("fast tier write failed", zap.String("key", key), zap.Error(err))
	}
	return h.durable.Set(ctx, &types.CacheEntry{
		Kind: kind, Key: key, Tier: types.TierDurable,
		Payload: payload, StoredAt: now, TTL: h.durableTTLs.ForKind(kind),
	})
}

// Invalidate removes (kind, key) from both tiers.
func (h *Hierarchy) Invalidate(ctx context.Context, kind types.CacheKind, key string) {
	if err := h.fast.Delete(ctx, kind, key); err != nil {
		h.log.Debug("fast tier delete failed", zap.String("key", key), zap.Error(err))
	}
	if err := h.durable.Delete(ctx, kind, key); err != nil {
		h.log.Debug("durable tier delete failed", zap.String("key", key), zap.Error(err))
	}
}

// GetOrCompute returns the cached payload or runs compute. The compute
// result is cached only when it reports itself cacheable, which is how
// the caller keeps cancelled or partially failed results out of the
// negative cache.
func (h *Hierarchy) GetOrCompute(ctx context.Context, kind types.CacheKind, key string, compute func(context.Context) ([]byte, bool, error)) ([]byte, bool, error) {
	if payload, _, ok := h.Get(ctx, kind, key); ok {
		return payload, true, nil
	}
	payload, cacheable, err := compute(ctx)
	if err != nil {
		return nil, false, err
	}
	if cacheable {
		if perr := h.Put(ctx, kind, key, payload); perr != nil {
			h.log.Debug("cache write failed", zap.String("key", key), zap.Error(perr))
		}
	}
	return payload, false, nil
}

// Stats snapshots per-kind hit counters.
func (h *Hierarchy) Stats() map[types.CacheKind]types.CacheStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[types.CacheKind]types.CacheStats, len(h.stats))
	for kind, s := range h.stats {
		out[kind] = *s
	}
	return out
}

// promote copies a durable hit into the fast tier under the fast TTL.
func (h *Hierarchy) promote(ctx context.Context, entry *types.CacheEntry) {
	if err := h.fast.Set(ctx, &types.CacheEntry{
		Kind: entry.Kind, Key: entry.Key, Tier: types.TierFast,
		Payload: entry.Payload, StoredAt: time.Now().UTC(),
		TTL: h.fastTTLs.ForKind(entry.Kind),
	}); err != nil {
		h.log.Debug("promotion failed", zap.String("key", entry.Key), zap.Error(err))
	}
}

func (h *Hierarchy) count(kind types.CacheKind, tier types.CacheTier) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.stats[kind]
	if s == nil {
		s = &types.CacheStats{}
		h.stats[kind] = s
	}
	switch tier {
	case types.TierFast:
		s.FastHits++
	case types.TierDurable:
		s.DurableHits++
	default:
		s.Misses++
	}
}
