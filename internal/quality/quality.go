// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package quality scores publication records for inclusion using only
// metadata already on the record. Assessment never mutates the record and
// never touches the network.
package quality

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

const (
	defaultMinAbstractWords = 50
	defaultMinTitleLength   = 10

	// Sub-score weights; they sum to 1.
	weightCompleteness = 0.35
	weightIdentifier   = 0.25
	weightVenue        = 0.25
	weightCitations    = 0.15

	// citationSaturation is the count at which the citation sub-score
	// maxes out.
	citationSaturation = 100
)

// Validator applies the configured quality policy.
type Validator struct {
	minAbstractWords int
	minTitleLength   int
	allowPreprints   bool
	denyVenues       []string
	minLevel         types.QualityLevel
}

// New builds a Validator, applying defaults for zero thresholds.
func New(cfg types.QualityConfig) *Validator {
	v := &Validator{
		minAbstractWords: cfg.MinAbstractWords,
		minTitleLength:   cfg.MinTitleLength,
		allowPreprints:   cfg.AllowPreprints,
		minLevel:         types.QualityLevel(cfg.MinLevel),
	}
	if v.minAbstractWords <= 0 {
		v.minAbstractWords = defaultMinAbstractWords
	}
	if v.minTitleLength <= 0 {
		v.minTitleLength = defaultMinTitleLength
	}
	for _, venue := range cfg.DenyVenues {
		if venue = strings.ToLower(strings.TrimSpace(venue)); venue != "" {
			v.denyVenues = append(v.denyVenues, venue)
		}
	}
	return v
}

// Assess scores rec and derives its inclusion level. Every deduction is
// named in Issues so a failing record explains itself.
func (v *Validator) Assess(rec *types.PublicationRecord) *types.QualityAssessment {
	a := &types.QualityAssessment{
		RecordKey:  rec.Key(),
		AssessedAt: time.Now().UTC(),
	}

	denied := v.deniedVenue(rec.Venue)
	score := weightCompleteness*v.completeness(rec, a) +
		weightIdentifier*v.identifierStrength(rec, a) +
		weightVenue*v.venueScore(rec, denied, a) +
		weightCitations*citationScore(rec.CitationCount)

	a.Score = score
	a.Level = levelFor(score)
	// A denylisted venue caps the level regardless of how complete the
	// rest of the metadata is.
	if denied && a.Level.AtLeast(types.QualityAcceptable) {
		a.Level = types.QualityPoor
	}
	return a
}

// Filter assesses each record and drops those below the configured
// minimum level. It returns the kept records, every assessment, and the
// number removed. An unset or invalid minimum keeps everything.
func (v *Validator) Filter(recs []*types.PublicationRecord) ([]*types.PublicationRecord, []*types.QualityAssessment, int) {
	assessments := make([]*types.QualityAssessment, 0, len(recs))
	kept := make([]*types.PublicationRecord, 0, len(recs))
	removed := 0
	for _, rec := range recs {
		a := v.Assess(rec)
		assessments = append(assessments, a)
		if v.minLevel.Valid() && !a.Level.AtLeast(v.minLevel) {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	return kept, assessments, removed
}

// completeness measures how much of the expected metadata is present.
func (v *Validator) completeness(rec *types.PublicationRecord, a *types.QualityAssessment) float64 {
	present := 0
	const fields = 5

	if utf8.RuneCountInString(rec.Title) >= v.minTitleLength {
		present++
	} else {
		a.Issues = append(a.Issues, fmt.Sprintf("title shorter than %d characters", v.minTitleLength))
	}
	if words := len(strings.Fields(rec.Abstract)); words >= v.minAbstractWords {
		present++
	} else {
		a.Issues = append(a.Issues, fmt.Sprintf("abstract has %d words, expected at least %d", words, v.minAbstractWords))
	}
	if len(rec.Authors) > 0 {
		present++
	} else {
		a.Issues = append(a.Issues, "no authors listed")
	}
	if rec.Year > 0 {
		present++
	} else {
		a.Issues = append(a.Issues, "publication year missing")
	}
	if rec.Venue != "" {
		present++
	} else {
		a.Issues = append(a.Issues, "venue missing")
	}
	return float64(present) / fields
}

// identifierStrength scores identity by the strongest identifier held.
func (v *Validator) identifierStrength(rec *types.PublicationRecord, a *types.QualityAssessment) float64 {
	switch {
	case rec.DOI != "":
		return 1.0
	case rec.PMID != "" || rec.PMCID != "":
		return 0.8
	case rec.PreprintID != "":
		if v.allowPreprints {
			return 1.0
		}
		a.Issues = append(a.Issues, "preprint-only identification")
		return 0.6
	default:
		a.Issues = append(a.Issues, "fingerprint-only identification")
		return 0.3
	}
}

func (v *Validator) venueScore(rec *types.PublicationRecord, denied bool, a *types.QualityAssessment) float64 {
	if denied {
		a.Issues = append(a.Issues, fmt.Sprintf("venue %q is on the deny list", rec.Venue))
		return 0
	}
	if rec.Venue == "" {
		return 0.5
	}
	return 1.0
}

func (v *Validator) deniedVenue(venue string) bool {
	lower := strings.ToLower(venue)
	if lower == "" {
		return false
	}
	for _, deny := range v.denyVenues {
		if strings.Contains(lower, deny) {
			return true
		}
	}
	return false
}

// citationScore scales linearly to the saturation count. Zero citations
// still score a floor value; recency makes low counts expected.
func citationScore(count int) float64 {
	if count <= 0 {
		return 0.3
	}
	s := 0.3 + 0.7*float64(count)/citationSaturation
	if s > 1 {
		return 1
	}
	return s
}

func levelFor(score float64) types.QualityLevel {
	switch {
	case score >= 0.85:
		return types.QualityExcellent
	case score >= 0.70:
		return types.QualityGood
	case score >= 0.50:
		return types.QualityAcceptable
	case score >= 0.30:
		return types.QualityPoor
	default:
		return types.QualityRejected
	}
}
