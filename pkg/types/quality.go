// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// QualityLevel is the discrete inclusion level derived from the combined
// quality score.
type QualityLevel string

const (
	QualityExcellent  QualityLevel = "excellent"
	QualityGood       QualityLevel = "good"
	QualityAcceptable QualityLevel = "acceptable"
	QualityPoor       QualityLevel = "poor"
	QualityRejected   QualityLevel = "rejected"
)

// qualityOrder maps levels to a comparable rank, higher is better.
var qualityOrder = map[QualityLevel]int{
	QualityRejected:   0,
	QualityPoor:       1,
	QualityAcceptable: 2,
	QualityGood:       3,
	QualityExcellent:  4,
}

// AtLeast reports whether l meets or exceeds min. Unknown levels never
// pass a filter.
func (l QualityLevel) AtLeast(min QualityLevel) bool {
	lr, ok1 := qualityOrder[l]
	mr, ok2 := qualityOrder[min]
	return ok1 && ok2 && lr >= mr
}

// Valid reports whether l is one of the five known levels.
func (l QualityLevel) Valid() bool {
	_, ok := qualityOrder[l]
	return ok
}

// QualityAssessment scores a publication record for inclusion. Recomputed
// on demand from metadata already present; never mutates the record.
type QualityAssessment struct {
	RecordKey string       `json:"record_key" yaml:"record_key"`
	Score     float64      `json:"score" yaml:"score"`
	Level     QualityLevel `json:"level" yaml:"level"`

	// Issues lists human-readable reasons the score was reduced.
	Issues []string `json:"issues,omitempty" yaml:"issues,omitempty"`

	AssessedAt time.Time `json:"assessed_at" yaml:"assessed_at"`
}
