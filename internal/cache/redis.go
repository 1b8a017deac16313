// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// redisKeyPrefix namespaces engine entries on a shared redis.
const redisKeyPrefix = "fulltext"

// RedisTier is the shared fast tier. Entries are JSON values with the
// TTL delegated to redis expiry, so Expired never fires for entries read
// from here.
type RedisTier struct {
	rdb *redis.Client
}

// NewRedisTier connects a redis fast tier at addr.
func NewRedisTier(addr string) *RedisTier {
	return &RedisTier{rdb: redis.NewClient(&redis.Options{Addr: addr})}
}

func redisKey(kind types.CacheKind, key string) string {
	return fmt.Sprintf("%s:%s:%s", redisKeyPrefix, kind, key)
}

func (r *RedisTier) Get(ctx context.Context, kind types.CacheKind, key string) (*types.CacheEntry, error) {
	raw, err := r.rdb.Get(ctx, redisKey(kind, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var entry types.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		// A corrupt value is a miss, not a failure; drop it.
		r.rdb.Del(ctx, redisKey(kind, key))
		return nil, nil
	}
	return &entry, nil
}

func (r *RedisTier) Set(ctx context.Context, entry *types.CacheEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	if err := r.rdb.Set(ctx, redisKey(entry.Kind, entry.Key), raw, entry.TTL).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisTier) Delete(ctx context.Context, kind types.CacheKind, key string) error {
	if err := r.rdb.Del(ctx, redisKey(kind, key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close releases the redis connection pool.
func (r *RedisTier) Close() error {
	return r.rdb.Close()
}
