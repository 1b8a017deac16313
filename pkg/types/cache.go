// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// CacheKind partitions the cache keyspace. Each kind carries its own TTLs
// because the underlying facts age at different rates: source availability
// changes faster than "this byte-identical PDF exists".
type CacheKind string

const (
	CacheDiscovery CacheKind = "discovery-result"
	CacheDownload  CacheKind = "download-result"
	CacheExtracted CacheKind = "extracted-content"
)

// CacheTier marks where an entry lives.
type CacheTier string

const (
	TierFast    CacheTier = "fast"
	TierDurable CacheTier = "durable"
)

// CacheEntry is a durable cache fact keyed by (kind, key).
type CacheEntry struct {
	Kind     CacheKind     `json:"kind" yaml:"kind"`
	Key      string        `json:"key" yaml:"key"`
	Tier     CacheTier     `json:"tier" yaml:"tier"`
	Payload  []byte        `json:"payload" yaml:"payload"`
	StoredAt time.Time     `json:"stored_at" yaml:"stored_at"`
	TTL      time.Duration `json:"ttl" yaml:"ttl"`
}

// Expired reports whether the entry's TTL has elapsed as of now.
func (e *CacheEntry) Expired(now time.Time) bool {
	return e.TTL > 0 && now.After(e.StoredAt.Add(e.TTL))
}

// CacheStats counts hierarchy traffic per kind for the audit view.
type CacheStats struct {
	FastHits    int64 `json:"fast_hits" yaml:"fast_hits"`
	DurableHits int64 `json:"durable_hits" yaml:"durable_hits"`
	Misses      int64 `json:"misses" yaml:"misses"`
}
