// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache implements the two-tier result cache: a fast tier
// (in-process LRU or shared redis) in front of a durable tier backed by
// the persistence layer. Hits promote downward-found entries into the
// fast tier.
package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

const defaultFastSize = 4096

// Tier is one level of the hierarchy. Get returns (nil, nil) on a miss;
// expired entries count as misses and may be evicted lazily.
type Tier interface {
	Get(ctx context.Context, kind types.CacheKind, key string) (*types.CacheEntry, error)
	Set(ctx context.Context, entry *types.CacheEntry) error
	Delete(ctx context.Context, kind types.CacheKind, key string) error
}

// entryKey builds the composite keyspace key for (kind, key).
func entryKey(kind types.CacheKind, key string) string {
	return fmt.Sprintf("%s:%s", kind, key)
}

// MemoryTier is the default fast tier: a bounded in-process LRU. TTLs
// vary per kind, so expiry is checked on read rather than delegated to
// the LRU.
type MemoryTier struct {
	lru *lru.Cache[string, *types.CacheEntry]
	now func() time.Time
}

// NewMemoryTier builds a memory tier with the given entry capacity.
func NewMemoryTier(size int) *MemoryTier {
	if size <= 0 {
		size = defaultFastSize
	}
	c, _ := lru.New[string, *types.CacheEntry](size)
	return &MemoryTier{lru: c, now: time.Now}
}

func (m *MemoryTier) Get(_ context.Context, kind types.CacheKind, key string) (*types.CacheEntry, error) {
	entry, ok := m.lru.Get(entryKey(kind, key))
	if !ok {
		return nil, nil
	}
	if entry.Expired(m.now()) {
		m.lru.Remove(entryKey(kind, key))
		return nil, nil
	}
	return entry, nil
}

func (m *MemoryTier) Set(_ context.Context, entry *types.CacheEntry) error {
	m.lru.Add(entryKey(entry.Kind, entry.Key), entry)
	return nil
}

func (m *MemoryTier) Delete(_ context.Context, kind types.CacheKind, key string) error {
	m.lru.Remove(entryKey(kind, key))
	return nil
}
