// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"testing"
	"time"

	"github.com/pdiddy/fulltext-engine/internal/identify"
	"github.com/pdiddy/fulltext-engine/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.StorageConfig{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func resolve(t *testing.T, raw types.RawPublication) *types.PublicationRecord {
	t.Helper()
	rec, err := identify.Resolve(raw)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return rec
}

func TestUpsertRecordDedupConvergence(t *testing.T) {
	// The same paper arrives twice: once with only a DOI, once with only
	// a PMID plus matching title metadata. The fingerprint links them and
	// the final record carries both identifiers under one key.
	s := testStore(t)
	ctx := context.Background()

	first := resolve(t, types.RawPublication{
		DatasetID: "ds1", DOI: "10.1234/abc",
		Title: "Deep Learning for Protein Folding", Authors: []string{"A. Author"}, Year: 2024,
	})
	second := resolve(t, types.RawPublication{
		DatasetID: "ds1", PMID: "99887",
		Title: "Deep  Learning for Protein Folding!", Authors: []string{"A. Author"}, Year: 2024,
	})

	if _, err := s.UpsertRecord(ctx, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	stored, err := s.UpsertRecord(ctx, second)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if stored.DOI != "10.1234/abc" || stored.PMID != "99887" {
		t.Errorf("merged record = %+v", stored)
	}
	if stored.Key() != "ds1|doi:10.1234/abc" {
		t.Errorf("Key() = %s", stored.Key())
	}
	n, err := s.CountRecords(ctx, "ds1")
	if err != nil {
		t.Fatalf("CountRecords: %v", err)
	}
	if n != 1 {
		t.Errorf("records = %d, want 1 after convergence", n)
	}
}

func TestUpsertRecordRekeysOnStrongerIdentifier(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	fpOnly := resolve(t, types.RawPublication{
		DatasetID: "ds1", Title: "An Untitled Phenomenon", Authors: []string{"B"}, Year: 2020,
	})
	stored, err := s.UpsertRecord(ctx, fpOnly)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	oldKey := stored.Key()

	withDOI := resolve(t, types.RawPublication{
		DatasetID: "ds1", DOI: "10.5/later",
		Title: "An Untitled Phenomenon", Authors: []string{"B"}, Year: 2020,
	})
	stored, err = s.UpsertRecord(ctx, withDOI)
	if err != nil {
		t.Fatalf("upsert with DOI: %v", err)
	}
	if stored.Key() == oldKey {
		t.Fatalf("key not promoted: %s", stored.Key())
	}

	if old, _ := s.GetRecord(ctx, oldKey); old != nil {
		t.Error("old fingerprint row survived re-keying")
	}
	got, err := s.GetRecord(ctx, stored.Key())
	if err != nil || got == nil {
		t.Fatalf("GetRecord(%s) = %v, %v", stored.Key(), got, err)
	}
	if got.Fingerprint == "" {
		t.Error("fingerprint lost during promotion")
	}
}

func TestUpsertRecordDatasetScoping(t *testing.T) {
	// The same DOI under two datasets is two records.
	s := testStore(t)
	ctx := context.Background()

	for _, ds := range []string{"ds1", "ds2"} {
		rec := resolve(t, types.RawPublication{DatasetID: ds, DOI: "10.1/shared", Title: "T"})
		if _, err := s.UpsertRecord(ctx, rec); err != nil {
			t.Fatalf("upsert under %s: %v", ds, err)
		}
	}
	for _, ds := range []string{"ds1", "ds2"} {
		n, err := s.CountRecords(ctx, ds)
		if err != nil || n != 1 {
			t.Errorf("CountRecords(%s) = %d, %v", ds, n, err)
		}
	}
}

func TestUpsertRecordNeverDowngrades(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	full := resolve(t, types.RawPublication{
		DatasetID: "ds1", DOI: "10.1/x", PMID: "42",
		Title: "Complete Metadata", Abstract: "Long abstract text", Year: 2023,
	})
	if _, err := s.UpsertRecord(ctx, full); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	sparse := resolve(t, types.RawPublication{DatasetID: "ds1", PMID: "42", Title: "Complete Metadata"})
	stored, err := s.UpsertRecord(ctx, sparse)
	if err != nil {
		t.Fatalf("sparse upsert: %v", err)
	}
	if stored.DOI != "10.1/x" || stored.Abstract == "" || stored.Year != 2023 {
		t.Errorf("sparse input downgraded the record: %+v", stored)
	}
}

func TestOutcomeRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	out := &types.DownloadOutcome{
		AcquisitionID: "acq-1",
		RecordKey:     "ds1|doi:10.1/x",
		Status:        types.AttemptSucceeded,
		URL:           "https://host.example/a.pdf",
		Provider:      types.ProviderUnpaywall,
		ByteSize:      2048,
		SHA256:        "deadbeef",
		PDFPath:       "/data/raw/ds1_doi-10.1-x.pdf",
		Trail: []types.Attempt{
			{URL: "https://bad.example/x.pdf", Provider: types.ProviderInstitutional, Status: types.AttemptPermanent, Error: "HTTP 403", Number: 1},
			{URL: "https://host.example/a.pdf", Provider: types.ProviderUnpaywall, Status: types.AttemptSucceeded, Number: 1},
		},
		CompletedAt: time.Now().UTC(),
	}
	if err := s.PutOutcome(ctx, out); err != nil {
		t.Fatalf("PutOutcome: %v", err)
	}

	got, err := s.LatestOutcome(ctx, out.RecordKey)
	if err != nil {
		t.Fatalf("LatestOutcome: %v", err)
	}
	if got == nil || !got.Succeeded() || got.Provider != types.ProviderUnpaywall {
		t.Fatalf("outcome = %+v", got)
	}
	if len(got.Trail) != 2 || got.Trail[0].Error != "HTTP 403" {
		t.Errorf("trail = %+v", got.Trail)
	}
}

func TestLatestOutcomeOrdering(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	older := &types.DownloadOutcome{
		AcquisitionID: "acq-old", RecordKey: "k", Status: types.AttemptPermanent,
		CompletedAt: time.Now().Add(-time.Hour).UTC(),
	}
	newer := &types.DownloadOutcome{
		AcquisitionID: "acq-new", RecordKey: "k", Status: types.AttemptSucceeded,
		CompletedAt: time.Now().UTC(),
	}
	for _, o := range []*types.DownloadOutcome{newer, older} {
		if err := s.PutOutcome(ctx, o); err != nil {
			t.Fatalf("PutOutcome: %v", err)
		}
	}
	got, err := s.LatestOutcome(ctx, "k")
	if err != nil || got == nil {
		t.Fatalf("LatestOutcome: %v, %v", got, err)
	}
	if got.AcquisitionID != "acq-new" {
		t.Errorf("latest = %s", got.AcquisitionID)
	}
}

func TestRankingRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	r := &types.Ranking{
		Key: "ds1|doi:10.1/x",
		Candidates: []types.CandidateURL{
			{URL: "https://a.example/x.pdf", Provider: types.ProviderUnpaywall, Priority: types.BandOpenAccess, Confidence: 0.95},
		},
		ProviderErrors: []string{"core: timeout"},
		CollectedAt:    time.Now().UTC(),
	}
	if err := s.PutRanking(ctx, r); err != nil {
		t.Fatalf("PutRanking: %v", err)
	}
	got, err := s.GetRanking(ctx, r.Key)
	if err != nil || got == nil {
		t.Fatalf("GetRanking: %v, %v", got, err)
	}
	if len(got.Candidates) != 1 || got.Candidates[0].Confidence != 0.95 {
		t.Errorf("candidates = %+v", got.Candidates)
	}
	if len(got.ProviderErrors) != 1 {
		t.Errorf("provider errors = %v", got.ProviderErrors)
	}
}

func TestCacheEntryRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	entry := &types.CacheEntry{
		Kind: types.CacheDiscovery, Key: "k", Tier: types.TierDurable,
		Payload: []byte(`{"candidates":[]}`), StoredAt: time.Now().UTC(), TTL: 24 * time.Hour,
	}
	if err := s.PutCacheEntry(ctx, entry); err != nil {
		t.Fatalf("PutCacheEntry: %v", err)
	}
	got, err := s.GetCacheEntry(ctx, types.CacheDiscovery, "k")
	if err != nil || got == nil {
		t.Fatalf("GetCacheEntry: %v, %v", got, err)
	}
	if got.TTL != 24*time.Hour || string(got.Payload) != `{"candidates":[]}` {
		t.Errorf("entry = %+v", got)
	}

	if err := s.DeleteCacheEntry(ctx, types.CacheDiscovery, "k"); err != nil {
		t.Fatalf("DeleteCacheEntry: %v", err)
	}
	if got, _ := s.GetCacheEntry(ctx, types.CacheDiscovery, "k"); got != nil {
		t.Error("deleted entry still present")
	}
}

func TestAuditCounts(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	rec := resolve(t, types.RawPublication{DatasetID: "ds1", DOI: "10.1/x", Title: "T"})
	if _, err := s.UpsertRecord(ctx, rec); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	s.PutOutcome(ctx, &types.DownloadOutcome{
		AcquisitionID: "a1", RecordKey: rec.Key(), Status: types.AttemptSucceeded,
		CompletedAt: time.Now().UTC(),
	})
	s.PutAssessment(ctx, &types.QualityAssessment{
		RecordKey: rec.Key(), Score: 0.8, Level: types.QualityGood, AssessedAt: time.Now().UTC(),
	})

	sum, err := s.Audit(ctx, "ds1")
	if err != nil {
		t.Fatalf("Audit: %v", err)
	}
	if sum.Records != 1 || sum.Acquired != 1 || sum.Exhausted != 0 || sum.Assessed != 1 {
		t.Errorf("summary = %+v", sum)
	}
}
