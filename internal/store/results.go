// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// PutRanking stores the collected candidate list for audit. One ranking
// per record; a fresh collection replaces the old one.
func (s *Store) PutRanking(ctx context.Context, ranking *types.Ranking) error {
	candidatesJSON, err := json.Marshal(ranking.Candidates)
	if err != nil {
		return fmt.Errorf("encoding candidates: %w", err)
	}
	errorsJSON, _ := json.Marshal(ranking.ProviderErrors)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO rankings (record_key, candidates, provider_errors, collected_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(record_key) DO UPDATE SET
			candidates=excluded.candidates, provider_errors=excluded.provider_errors,
			collected_at=excluded.collected_at`,
		ranking.Key, string(candidatesJSON), string(errorsJSON),
		ranking.CollectedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upserting ranking: %w", err)
	}
	return nil
}

// GetRanking returns the stored ranking for recordKey, or nil when absent.
func (s *Store) GetRanking(ctx context.Context, recordKey string) (*types.Ranking, error) {
	var candidatesJSON, errorsJSON, collectedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT candidates, provider_errors, collected_at FROM rankings WHERE record_key = ?`,
		recordKey).Scan(&candidatesJSON, &errorsJSON, &collectedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting ranking %s: %w", recordKey, err)
	}

	ranking := &types.Ranking{Key: recordKey}
	if err := json.Unmarshal([]byte(candidatesJSON), &ranking.Candidates); err != nil {
		return nil, fmt.Errorf("decoding candidates: %w", err)
	}
	if errorsJSON != "" {
		if err := json.Unmarshal([]byte(errorsJSON), &ranking.ProviderErrors); err != nil {
			return nil, fmt.Errorf("decoding provider errors: %w", err)
		}
	}
	ranking.CollectedAt, _ = time.Parse(time.RFC3339Nano, collectedAt)
	return ranking, nil
}

// PutOutcome stores one acquisition outcome, trail included.
func (s *Store) PutOutcome(ctx context.Context, outcome *types.DownloadOutcome) error {
	trailJSON, err := json.Marshal(outcome.Trail)
	if err != nil {
		return fmt.Errorf("encoding trail: %w", err)
	}
	cached := 0
	if outcome.Cached {
		cached = 1
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO outcomes
			(acquisition_id, record_key, status, url, provider, byte_size, sha256, pdf_path, trail, cached, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(acquisition_id) DO UPDATE SET
			status=excluded.status, url=excluded.url, provider=excluded.provider,
			byte_size=excluded.byte_size, sha256=excluded.sha256, pdf_path=excluded.pdf_path,
			trail=excluded.trail, cached=excluded.cached, completed_at=excluded.completed_at`,
		outcome.AcquisitionID, outcome.RecordKey, string(outcome.Status),
		outcome.URL, string(outcome.Provider), outcome.ByteSize, outcome.SHA256,
		outcome.PDFPath, string(trailJSON), cached,
		outcome.CompletedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upserting outcome: %w", err)
	}
	return nil
}

// LatestOutcome returns the most recent outcome for recordKey, or nil.
func (s *Store) LatestOutcome(ctx context.Context, recordKey string) (*types.DownloadOutcome, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT acquisition_id, record_key, status, url, provider, byte_size, sha256, pdf_path, trail, cached, completed_at
		 FROM outcomes WHERE record_key = ? ORDER BY completed_at DESC LIMIT 1`, recordKey)

	var out types.DownloadOutcome
	var status, provider, trailJSON, completedAt string
	var cached int
	err := row.Scan(&out.AcquisitionID, &out.RecordKey, &status, &out.URL,
		&provider, &out.ByteSize, &out.SHA256, &out.PDFPath, &trailJSON, &cached, &completedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting outcome for %s: %w", recordKey, err)
	}
	out.Status = types.AttemptStatus(status)
	out.Provider = types.ProviderName(provider)
	out.Cached = cached != 0
	if err := json.Unmarshal([]byte(trailJSON), &out.Trail); err != nil {
		return nil, fmt.Errorf("decoding trail: %w", err)
	}
	out.CompletedAt, _ = time.Parse(time.RFC3339Nano, completedAt)
	return &out, nil
}

// PutAssessment stores the latest quality assessment for a record.
func (s *Store) PutAssessment(ctx context.Context, a *types.QualityAssessment) error {
	issuesJSON, _ := json.Marshal(a.Issues)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO quality_assessments (record_key, score, level, issues, assessed_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(record_key) DO UPDATE SET
			score=excluded.score, level=excluded.level,
			issues=excluded.issues, assessed_at=excluded.assessed_at`,
		a.RecordKey, a.Score, string(a.Level), string(issuesJSON),
		a.AssessedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upserting assessment: %w", err)
	}
	return nil
}

// GetAssessment returns the stored assessment for recordKey, or nil.
func (s *Store) GetAssessment(ctx context.Context, recordKey string) (*types.QualityAssessment, error) {
	var a types.QualityAssessment
	var level, issuesJSON, assessedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT record_key, score, level, issues, assessed_at
		 FROM quality_assessments WHERE record_key = ?`, recordKey).
		Scan(&a.RecordKey, &a.Score, &level, &issuesJSON, &assessedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting assessment for %s: %w", recordKey, err)
	}
	a.Level = types.QualityLevel(level)
	if issuesJSON != "" {
		if err := json.Unmarshal([]byte(issuesJSON), &a.Issues); err != nil {
			return nil, fmt.Errorf("decoding issues: %w", err)
		}
	}
	a.AssessedAt, _ = time.Parse(time.RFC3339Nano, assessedAt)
	return &a, nil
}

// GetCacheEntry returns the durable cache entry for (kind, key), or nil.
func (s *Store) GetCacheEntry(ctx context.Context, kind types.CacheKind, key string) (*types.CacheEntry, error) {
	entry := &types.CacheEntry{Kind: kind, Key: key, Tier: types.TierDurable}
	var storedAt string
	var ttlNS int64
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, stored_at, ttl_ns FROM cache_entries WHERE kind = ? AND key = ?`,
		string(kind), key).Scan(&entry.Payload, &storedAt, &ttlNS)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting cache entry: %w", err)
	}
	entry.StoredAt, _ = time.Parse(time.RFC3339Nano, storedAt)
	entry.TTL = time.Duration(ttlNS)
	return entry, nil
}

// PutCacheEntry upserts a durable cache entry.
func (s *Store) PutCacheEntry(ctx context.Context, entry *types.CacheEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cache_entries (kind, key, payload, stored_at, ttl_ns)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(kind, key) DO UPDATE SET
			payload=excluded.payload, stored_at=excluded.stored_at, ttl_ns=excluded.ttl_ns`,
		string(entry.Kind), entry.Key, entry.Payload,
		entry.StoredAt.Format(time.RFC3339Nano), int64(entry.TTL))
	if err != nil {
		return fmt.Errorf("upserting cache entry: %w", err)
	}
	return nil
}

// DeleteCacheEntry removes the durable cache entry for (kind, key).
func (s *Store) DeleteCacheEntry(ctx context.Context, kind types.CacheKind, key string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE kind = ? AND key = ?`, string(kind), key); err != nil {
		return fmt.Errorf("deleting cache entry: %w", err)
	}
	return nil
}

// AuditSummary aggregates stored state for the audit command.
type AuditSummary struct {
	Records      int `json:"records" yaml:"records"`
	Acquired     int `json:"acquired" yaml:"acquired"`
	Exhausted    int `json:"exhausted" yaml:"exhausted"`
	Assessed     int `json:"assessed" yaml:"assessed"`
	CacheEntries int `json:"cache_entries" yaml:"cache_entries"`
}

// Audit computes summary counts across the whole database, or one
// dataset when datasetID is non-empty.
func (s *Store) Audit(ctx context.Context, datasetID string) (*AuditSummary, error) {
	var sum AuditSummary
	recordFilter, args := "", []any{}
	if datasetID != "" {
		recordFilter = " WHERE dataset_id = ?"
		args = append(args, datasetID)
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM publications`+recordFilter, args...).Scan(&sum.Records); err != nil {
		return nil, fmt.Errorf("counting publications: %w", err)
	}

	keyFilter := ""
	if datasetID != "" {
		keyFilter = ` AND record_key IN (SELECT key FROM publications WHERE dataset_id = ?)`
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM outcomes WHERE status = ?`+keyFilter,
		append([]any{string(types.AttemptSucceeded)}, args...)...).Scan(&sum.Acquired); err != nil {
		return nil, fmt.Errorf("counting acquisitions: %w", err)
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM outcomes WHERE status = ?`+keyFilter,
		append([]any{string(types.AttemptPermanent)}, args...)...).Scan(&sum.Exhausted); err != nil {
		return nil, fmt.Errorf("counting exhausted outcomes: %w", err)
	}

	assessFilter := ""
	if datasetID != "" {
		assessFilter = ` WHERE record_key IN (SELECT key FROM publications WHERE dataset_id = ?)`
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM quality_assessments`+assessFilter, args...).Scan(&sum.Assessed); err != nil {
		return nil, fmt.Errorf("counting assessments: %w", err)
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM cache_entries`).Scan(&sum.CacheEntries); err != nil {
		return nil, fmt.Errorf("counting cache entries: %w", err)
	}
	return &sum, nil
}
