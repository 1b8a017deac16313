// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate fans a publication record out to every enabled source
// provider concurrently and merges the results into one ranked candidate
// list. Collection happens once per record; download fallback walks the
// ranking without ever re-querying providers.
package aggregate

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/pdiddy/fulltext-engine/internal/sources"
	"github.com/pdiddy/fulltext-engine/pkg/types"
)

const (
	defaultFanOutLimit     = 16
	defaultProviderTimeout = 10 * time.Second
)

// Aggregator coordinates concurrent discovery across the injected
// provider set. The fan-out semaphore is shared across all records passing
// through this aggregator, so concurrent acquisitions cannot multiply the
// pressure on upstream hosts.
type Aggregator struct {
	providers []sources.Provider
	limiters  map[types.ProviderName]*rate.Limiter
	timeouts  map[types.ProviderName]time.Duration
	sem       *semaphore.Weighted
	timeout   time.Duration
	log       *zap.Logger
}

// New builds an Aggregator over an explicit, ordered provider collection.
// The slice order is the deterministic tie-break for equally ranked
// candidates, so callers should pass providers in registration order.
func New(providers []sources.Provider, cfg types.DiscoveryConfig, log *zap.Logger) *Aggregator {
	if log == nil {
		log = zap.NewNop()
	}
	limit := cfg.FanOutLimit
	if limit <= 0 {
		limit = defaultFanOutLimit
	}
	timeout := cfg.ProviderTimeout
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}

	limiters := make(map[types.ProviderName]*rate.Limiter, len(providers))
	timeouts := make(map[types.ProviderName]time.Duration, len(providers))
	for _, p := range providers {
		pc, _ := cfg.ProviderOverride(p.Name())
		if pc.RateLimit > 0 {
			limiters[p.Name()] = rate.NewLimiter(rate.Limit(pc.RateLimit), 1)
		}
		if pc.Timeout > 0 {
			timeouts[p.Name()] = pc.Timeout
		}
	}

	return &Aggregator{
		providers: providers,
		limiters:  limiters,
		timeouts:  timeouts,
		sem:       semaphore.NewWeighted(limit),
		timeout:   timeout,
		log:       log,
	}
}

// CollectAll queries every provider concurrently and returns the full
// ranked candidate list. A provider that times out or fails contributes
// zero candidates and an entry in Ranking.ProviderErrors; it never blocks
// the others. Partial failure is the expected common case and is logged
// at debug level only.
func (a *Aggregator) CollectAll(ctx context.Context, rec *types.PublicationRecord) (*types.Ranking, error) {
	type discovery struct {
		candidates []types.CandidateURL
		err        error
		name       types.ProviderName
		rank       int
	}

	ch := make(chan discovery, len(a.providers))
	for i, p := range a.providers {
		go func(rank int, p sources.Provider) {
			candidates, err := a.discoverOne(ctx, p, rec)
			ch <- discovery{candidates: candidates, err: err, name: p.Name(), rank: rank}
		}(i, p)
	}

	ranking := &types.Ranking{Key: rec.Key()}
	now := time.Now().UTC()
	for range a.providers {
		d := <-ch
		if d.err != nil {
			a.log.Debug("provider discovery failed",
				zap.String("provider", string(d.name)),
				zap.String("record", rec.Key()),
				zap.Error(d.err))
			ranking.ProviderErrors = append(ranking.ProviderErrors, fmt.Sprintf("%s: %v", d.name, d.err))
			continue
		}
		for _, c := range d.candidates {
			c.Rank = d.rank
			c.DiscoveredAt = now
			ranking.Candidates = append(ranking.Candidates, c)
		}
	}

	// The caller cancelling mid-collection must not look like a normal
	// empty ranking; a cached empty result would suppress retries.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sortCandidates(ranking.Candidates)
	ranking.Candidates = dedupeByURL(ranking.Candidates)
	ranking.CollectedAt = now
	return ranking, nil
}

// discoverOne runs a single provider under the global fan-out semaphore,
// its rate limiter, and its timeout.
func (a *Aggregator) discoverOne(ctx context.Context, p sources.Provider, rec *types.PublicationRecord) ([]types.CandidateURL, error) {
	if err := a.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer a.sem.Release(1)

	if lim := a.limiters[p.Name()]; lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return nil, err
		}
	}

	timeout := a.timeout
	if t, ok := a.timeouts[p.Name()]; ok {
		timeout = t
	}
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return p.Discover(pctx, rec)
}

// sortCandidates orders by (priority asc, confidence desc, registration
// rank asc, URL asc). The trailing URL comparison keeps the order total
// even for one provider returning equal-confidence candidates.
func sortCandidates(cs []types.CandidateURL) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].Priority != cs[j].Priority {
			return cs[i].Priority < cs[j].Priority
		}
		if cs[i].Confidence != cs[j].Confidence {
			return cs[i].Confidence > cs[j].Confidence
		}
		if cs[i].Rank != cs[j].Rank {
			return cs[i].Rank < cs[j].Rank
		}
		return cs[i].URL < cs[j].URL
	})
}

// dedupeByURL drops later duplicates of a URL, keeping the best-ranked
// claim. Input must already be sorted.
func dedupeByURL(cs []types.CandidateURL) []types.CandidateURL {
	seen := make(map[string]bool, len(cs))
	out := cs[:0]
	for _, c := range cs {
		if seen[c.URL] {
			continue
		}
		seen[c.URL] = true
		out = append(out, c)
	}
	return out
}
