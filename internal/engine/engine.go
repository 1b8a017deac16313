// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine orchestrates the full acquisition pipeline: identity
// resolution, cached source discovery, fallback download, text
// extraction, quality assessment, and persistence.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/pdiddy/fulltext-engine/internal/aggregate"
	"github.com/pdiddy/fulltext-engine/internal/cache"
	"github.com/pdiddy/fulltext-engine/internal/catalog"
	"github.com/pdiddy/fulltext-engine/internal/download"
	"github.com/pdiddy/fulltext-engine/internal/extract"
	"github.com/pdiddy/fulltext-engine/internal/identify"
	"github.com/pdiddy/fulltext-engine/internal/quality"
	"github.com/pdiddy/fulltext-engine/internal/sources"
	"github.com/pdiddy/fulltext-engine/internal/store"
	"github.com/pdiddy/fulltext-engine/pkg/types"
)

const (
	defaultBatchWorkers  = 4
	defaultDiscoveryHTTP = 30 * time.Second
	defaultDownloadHTTP  = 5 * time.Minute
	defaultCatalogHTTP   = 15 * time.Second
)

// Engine is the façade over the acquisition pipeline. One Engine is safe
// for concurrent use; all cross-record limits (provider fan-out, rate
// limits) are enforced by the shared components underneath.
type Engine struct {
	cfg types.EngineConfig

	store     *store.Store
	cache     *cache.Hierarchy
	agg       *aggregate.Aggregator
	dl        *download.Manager
	validator *quality.Validator
	catalog   *catalog.Client
	log       *zap.Logger

	mu            sync.Mutex
	knownDatasets map[string]bool

	batchWorkers int64
}

// New builds an Engine from config. The secrets map supplies provider
// credentials ("unpaywall-email", "openalex-email", "core-api-key").
func New(cfg types.EngineConfig, secrets map[string]string, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}

	st, err := store.Open(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	discoveryClient := &http.Client{Timeout: cfg.Discovery.Timeout}
	if discoveryClient.Timeout <= 0 {
		discoveryClient.Timeout = defaultDiscoveryHTTP
	}
	downloadClient := &http.Client{Timeout: cfg.Download.Timeout}
	if downloadClient.Timeout <= 0 {
		downloadClient.Timeout = defaultDownloadHTTP
	}
	catalogClient := &http.Client{Timeout: cfg.Catalog.Timeout}
	if catalogClient.Timeout <= 0 {
		catalogClient.Timeout = defaultCatalogHTTP
	}

	dlCfg := cfg.Download
	if dlCfg.StorageDir == "" {
		dlCfg.StorageDir = st.RawDir()
	}

	providers := sources.BuildRegistry(cfg.Discovery, secrets, discoveryClient)
	workers := int64(cfg.BatchWorkers)
	if workers <= 0 {
		workers = defaultBatchWorkers
	}

	return &Engine{
		cfg:           cfg,
		store:         st,
		cache:         cache.NewHierarchy(cfg.Cache, st, log),
		agg:           aggregate.New(providers, cfg.Discovery, log),
		dl:            download.New(downloadClient, dlCfg, log),
		validator:     quality.New(cfg.Quality),
		catalog:       catalog.New(catalogClient, cfg.Catalog),
		log:           log,
		knownDatasets: make(map[string]bool),
		batchWorkers:  workers,
	}, nil
}

// Close releases the engine's resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// AcquireFullText runs the whole pipeline for one publication: resolve
// identity, dedupe into the store, discover candidate URLs (cached),
// download with fallback (cached), and persist the outcome. Callers
// always get an outcome unless identity resolution fails or ctx is
// cancelled.
func (e *Engine) AcquireFullText(ctx context.Context, raw types.RawPublication) (*types.DownloadOutcome, error) {
	rec, err := identify.Resolve(raw)
	if err != nil {
		return nil, err
	}
	if err := e.validateDataset(ctx, rec.DatasetID); err != nil {
		return nil, err
	}

	stored, err := e.store.UpsertRecord(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("storing record: %w", err)
	}
	key := stored.Key()

	if payload, _, ok := e.cache.Get(ctx, types.CacheDownload, key); ok {
		var cached types.DownloadOutcome
		if err := json.Unmarshal(payload, &cached); err == nil {
			cached.Cached = true
			return &cached, nil
		}
		e.cache.Invalidate(ctx, types.CacheDownload, key)
	}

	ranking, err := e.collectRanking(ctx, stored)
	if err != nil {
		return nil, err
	}

	outcome, err := e.dl.Acquire(ctx, ranking)
	if err != nil {
		// Cancellation mid-download; nothing cacheable happened.
		return nil, err
	}
	if err := e.store.PutOutcome(ctx, outcome); err != nil {
		e.log.Warn("persisting outcome failed", zap.String("record", key), zap.Error(err))
	}

	if outcome.Succeeded() {
		e.cacheOutcome(ctx, key, outcome)
		e.extractAndCache(ctx, key, outcome.PDFPath)
	} else if len(outcome.Trail) > 0 && outcome.AllPermanent() {
		// Every URL failed permanently; the next call would fail the
		// same way, so the negative is cacheable. Any transient in the
		// trail means a retry deserves fresh network work, and an empty
		// trail means no candidate existed, which re-discovery may fix.
		e.cacheOutcome(ctx, key, outcome)
	}
	return outcome, nil
}

// BatchResult pairs one batch input with its outcome or error.
type BatchResult struct {
	Index   int
	Key     string
	Outcome *types.DownloadOutcome
	Err     error
}

// AcquireFullTextBatch acquires every input with at most maxConcurrency
// in flight. maxConcurrency <= 0 uses the configured default. Results
// align with the input order; one failing record never aborts the rest,
// but a cancelled ctx stops the batch.
func (e *Engine) AcquireFullTextBatch(ctx context.Context, raws []types.RawPublication, maxConcurrency int) ([]BatchResult, error) {
	workers := int64(maxConcurrency)
	if workers <= 0 {
		workers = e.batchWorkers
	}

	sem := semaphore.NewWeighted(workers)
	results := make([]BatchResult, len(raws))
	var wg sync.WaitGroup

	for i, raw := range raws {
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = BatchResult{Index: i, Err: err}
			continue
		}
		wg.Add(1)
		go func(i int, raw types.RawPublication) {
			defer wg.Done()
			defer sem.Release(1)
			outcome, err := e.AcquireFullText(ctx, raw)
			r := BatchResult{Index: i, Outcome: outcome, Err: err}
			if outcome != nil {
				r.Key = outcome.RecordKey
			}
			results[i] = r
		}(i, raw)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// AssessQuality assesses every record under datasetID, persists the
// assessments, and returns them with the count falling below the
// configured minimum level.
func (e *Engine) AssessQuality(ctx context.Context, datasetID string) ([]*types.QualityAssessment, int, error) {
	recs, err := e.store.ListRecords(ctx, datasetID)
	if err != nil {
		return nil, 0, err
	}
	_, assessments, removed := e.validator.Filter(recs)
	for _, a := range assessments {
		if err := e.store.PutAssessment(ctx, a); err != nil {
			return nil, 0, fmt.Errorf("persisting assessment for %s: %w", a.RecordKey, err)
		}
	}
	return assessments, removed, nil
}

// ExtractedText returns the cached extracted text for a record key,
// extracting from the stored PDF on a cache miss.
func (e *Engine) ExtractedText(ctx context.Context, key string) (string, error) {
	payload, _, err := e.cache.GetOrCompute(ctx, types.CacheExtracted, key,
		func(context.Context) ([]byte, bool, error) {
			outcome, err := e.store.LatestOutcome(ctx, key)
			if err != nil {
				return nil, false, err
			}
			if outcome == nil || !outcome.Succeeded() {
				return nil, false, fmt.Errorf("no acquired full text for %s", key)
			}
			result, err := extract.Text(outcome.PDFPath)
			if err != nil {
				return nil, false, err
			}
			raw, err := json.Marshal(result)
			return raw, true, err
		})
	if err != nil {
		return "", err
	}
	var result extract.Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return "", fmt.Errorf("decoding extracted content: %w", err)
	}
	return result.Text, nil
}

// AuditReport combines stored counts with cache hierarchy traffic.
type AuditReport struct {
	Summary    *store.AuditSummary                  `json:"summary" yaml:"summary"`
	CacheStats map[types.CacheKind]types.CacheStats `json:"cache_stats" yaml:"cache_stats"`
}

// Audit reports stored and cache state, optionally scoped to a dataset.
func (e *Engine) Audit(ctx context.Context, datasetID string) (*AuditReport, error) {
	sum, err := e.store.Audit(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	return &AuditReport{Summary: sum, CacheStats: e.cache.Stats()}, nil
}

// collectRanking serves discovery from the cache, collecting from
// providers and persisting the ranking on a miss.
func (e *Engine) collectRanking(ctx context.Context, rec *types.PublicationRecord) (*types.Ranking, error) {
	payload, _, err := e.cache.GetOrCompute(ctx, types.CacheDiscovery, rec.Key(),
		func(cctx context.Context) ([]byte, bool, error) {
			ranking, err := e.agg.CollectAll(cctx, rec)
			if err != nil {
				return nil, false, err
			}
			if err := e.store.PutRanking(cctx, ranking); err != nil {
				e.log.Warn("persisting ranking failed", zap.String("record", rec.Key()), zap.Error(err))
			}
			// An empty ranking where every provider errored is a
			// transient condition; caching it would suppress
			// re-discovery for the whole TTL. A genuinely empty
			// ranking with no errors stays cacheable.
			cacheable := len(ranking.Candidates) > 0 || len(ranking.ProviderErrors) == 0
			raw, err := json.Marshal(ranking)
			return raw, cacheable, err
		})
	if err != nil {
		return nil, err
	}
	var ranking types.Ranking
	if err := json.Unmarshal(payload, &ranking); err != nil {
		return nil, fmt.Errorf("decoding ranking: %w", err)
	}
	return &ranking, nil
}

// validateDataset checks the dataset against the catalog once per
// process. Without a configured catalog the check is skipped.
func (e *Engine) validateDataset(ctx context.Context, datasetID string) error {
	if datasetID == "" {
		return &types.IdentityError{Reason: "dataset ID is required"}
	}
	if e.cfg.Catalog.BaseURL == "" {
		return nil
	}

	e.mu.Lock()
	known := e.knownDatasets[datasetID]
	e.mu.Unlock()
	if known {
		return nil
	}

	ds, err := e.catalog.LookupDataset(ctx, datasetID)
	if err != nil {
		return fmt.Errorf("validating dataset %s: %w", datasetID, err)
	}
	if ds == nil {
		return fmt.Errorf("unknown dataset %s", datasetID)
	}

	e.mu.Lock()
	e.knownDatasets[datasetID] = true
	e.mu.Unlock()
	return nil
}

// cacheOutcome writes a terminal outcome into the download cache.
func (e *Engine) cacheOutcome(ctx context.Context, key string, outcome *types.DownloadOutcome) {
	raw, err := json.Marshal(outcome)
	if err != nil {
		return
	}
	if err := e.cache.Put(ctx, types.CacheDownload, key, raw); err != nil {
		e.log.Debug("caching outcome failed", zap.String("record", key), zap.Error(err))
	}
}

// extractAndCache pre-warms the extracted-content cache after a
// successful download. Extraction failure is not an acquisition failure.
func (e *Engine) extractAndCache(ctx context.Context, key, pdfPath string) {
	result, err := extract.Text(pdfPath)
	if err != nil {
		e.log.Debug("text extraction failed", zap.String("record", key), zap.Error(err))
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := e.cache.Put(ctx, types.CacheExtracted, key, raw); err != nil {
		e.log.Debug("caching extracted text failed", zap.String("record", key), zap.Error(err))
	}
}
