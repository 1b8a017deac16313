// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package quality

import (
	"strings"
	"testing"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func completeRecord() *types.PublicationRecord {
	return &types.PublicationRecord{
		DatasetID:     "ds1",
		DOI:           "10.1/x",
		Title:         "A Sufficiently Descriptive Title",
		Authors:       []string{"A. Author", "B. Author"},
		Venue:         "Journal of Reproducible Results",
		Year:          2024,
		Abstract:      words(80),
		CitationCount: 150,
	}
}

func TestAssessCompleteRecord(t *testing.T) {
	v := New(types.QualityConfig{})
	a := v.Assess(completeRecord())
	if a.Level != types.QualityExcellent {
		t.Errorf("level = %s (score %.2f), want excellent", a.Level, a.Score)
	}
	if len(a.Issues) != 0 {
		t.Errorf("issues = %v, want none", a.Issues)
	}
}

func TestAssessShortAbstractAndDeniedVenue(t *testing.T) {
	// Thin abstract plus a denylisted venue: the level must cap at poor
	// and both problems must be named.
	rec := completeRecord()
	rec.Abstract = words(20)
	rec.Venue = "International Predatory Review"
	rec.CitationCount = 50

	v := New(types.QualityConfig{DenyVenues: []string{"predatory"}})
	a := v.Assess(rec)

	if a.Level.AtLeast(types.QualityAcceptable) {
		t.Errorf("level = %s (score %.2f), want poor or lower", a.Level, a.Score)
	}
	var sawAbstract, sawVenue bool
	for _, issue := range a.Issues {
		if strings.Contains(issue, "abstract") {
			sawAbstract = true
		}
		if strings.Contains(issue, "deny list") {
			sawVenue = true
		}
	}
	if !sawAbstract || !sawVenue {
		t.Errorf("issues = %v, want abstract and venue entries", a.Issues)
	}
}

func TestAssessFingerprintOnly(t *testing.T) {
	rec := &types.PublicationRecord{
		DatasetID:   "ds1",
		Fingerprint: "abc123",
		Title:       "Only a Title to Go On",
	}
	v := New(types.QualityConfig{})
	a := v.Assess(rec)
	if a.Level.AtLeast(types.QualityAcceptable) {
		t.Errorf("level = %s (score %.2f), want below acceptable", a.Level, a.Score)
	}
	found := false
	for _, issue := range a.Issues {
		if strings.Contains(issue, "fingerprint-only") {
			found = true
		}
	}
	if !found {
		t.Errorf("issues = %v, want fingerprint-only entry", a.Issues)
	}
}

func TestAssessPreprintPolicy(t *testing.T) {
	rec := completeRecord()
	rec.DOI = ""
	rec.PreprintID = "2301.07041"

	strict := New(types.QualityConfig{}).Assess(rec)
	lenient := New(types.QualityConfig{AllowPreprints: true}).Assess(rec)

	if lenient.Score <= strict.Score {
		t.Errorf("allow_preprints did not raise the score: strict %.2f, lenient %.2f",
			strict.Score, lenient.Score)
	}
	if len(lenient.Issues) != 0 {
		t.Errorf("lenient issues = %v, want none", lenient.Issues)
	}
}

func TestFilterRemovesBelowMinimum(t *testing.T) {
	sparse := &types.PublicationRecord{DatasetID: "ds1", Fingerprint: "f", Title: "Short"}
	recs := []*types.PublicationRecord{completeRecord(), sparse}

	v := New(types.QualityConfig{MinLevel: string(types.QualityAcceptable)})
	kept, assessments, removed := v.Filter(recs)

	if len(kept) != 1 || removed != 1 {
		t.Errorf("kept %d, removed %d, want 1 and 1", len(kept), removed)
	}
	if len(assessments) != 2 {
		t.Errorf("assessments = %d, want one per input", len(assessments))
	}
}

func TestFilterWithoutMinimumKeepsAll(t *testing.T) {
	sparse := &types.PublicationRecord{DatasetID: "ds1", Fingerprint: "f", Title: "Short"}
	v := New(types.QualityConfig{})
	kept, _, removed := v.Filter([]*types.PublicationRecord{completeRecord(), sparse})
	if len(kept) != 2 || removed != 0 {
		t.Errorf("kept %d, removed %d, want 2 and 0", len(kept), removed)
	}
}
