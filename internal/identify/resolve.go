// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package identify normalizes heterogeneous publication identifiers into
// one deduplication key per dataset.
package identify

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// IdentifierType classifies a raw input identifier.
type IdentifierType int

const (
	TypeUnknown IdentifierType = iota
	TypeDOI
	TypePMID
	TypePMCID
	TypePreprint
	TypeURL
)

func (t IdentifierType) String() string {
	switch t {
	case TypeDOI:
		return "doi"
	case TypePMID:
		return "pmid"
	case TypePMCID:
		return "pmcid"
	case TypePreprint:
		return "preprint"
	case TypeURL:
		return "url"
	default:
		return "unknown"
	}
}

// doiPattern matches DOIs: "10.1145/1234567.1234568". Registrant codes
// may be as short as one digit ("10.1/x") and may carry dotted
// sub-divisions ("10.1038.1/abc").
var doiPattern = regexp.MustCompile(`^10\.\d{1,9}(\.\d+)*/\S+$`)

// pmidPattern matches bare PubMed IDs: 1-8 digits.
var pmidPattern = regexp.MustCompile(`^\d{1,8}$`)

// pmcidPattern matches PubMed Central IDs: "PMC1234567", case-insensitive.
var pmcidPattern = regexp.MustCompile(`^(?i:pmc)(\d{1,8})$`)

// preprintPattern matches arXiv-style preprint IDs: "2301.07041",
// "arXiv:2301.07041", "2301.07041v2".
var preprintPattern = regexp.MustCompile(`^(?:arXiv:)?(\d{4}\.\d{4,5})(v\d+)?$`)

// doiPrefixes are stripped before DOI validation.
var doiPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"doi:",
}

// NormalizeDOI lowercases a DOI and strips resolver prefixes. Returns ""
// when the result is not a syntactically valid DOI.
func NormalizeDOI(s string) string {
	s = strings.TrimSpace(s)
	for _, p := range doiPrefixes {
		if len(s) >= len(p) && strings.EqualFold(s[:len(p)], p) {
			s = s[len(p):]
			break
		}
	}
	s = strings.ToLower(s)
	if !doiPattern.MatchString(s) {
		return ""
	}
	return s
}

// NormalizePMID strips a "PMID:" prefix and validates the digits.
func NormalizePMID(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 5 && strings.EqualFold(s[:5], "pmid:") {
		s = s[5:]
	}
	s = strings.TrimSpace(s)
	if !pmidPattern.MatchString(s) {
		return ""
	}
	return strings.TrimLeft(s, "0")
}

// NormalizePMCID uppercases the "PMC" prefix and accepts bare digits by
// prepending it, following Europe PMC conventions.
func NormalizePMCID(s string) string {
	s = strings.TrimSpace(s)
	if m := pmcidPattern.FindStringSubmatch(s); m != nil {
		return "PMC" + m[1]
	}
	if pmidPattern.MatchString(s) {
		return "PMC" + s
	}
	return ""
}

// NormalizePreprintID strips the "arXiv:" prefix and the version suffix so
// that revisions of the same preprint collapse to one identity.
func NormalizePreprintID(s string) string {
	s = strings.TrimSpace(s)
	if m := preprintPattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

// Classify determines the identifier type of a raw CLI input and returns
// the normalized form. PMIDs and PMC IDs need their prefix to be
// distinguished from each other; bare digits classify as PMID.
func Classify(identifier string) (IdentifierType, string) {
	identifier = strings.TrimSpace(identifier)

	if v := NormalizePreprintID(identifier); v != "" {
		return TypePreprint, v
	}
	if m := pmcidPattern.FindStringSubmatch(identifier); m != nil {
		return TypePMCID, "PMC" + m[1]
	}
	if strings.HasPrefix(strings.ToLower(identifier), "pmid:") || pmidPattern.MatchString(identifier) {
		if v := NormalizePMID(identifier); v != "" {
			return TypePMID, v
		}
	}
	if v := NormalizeDOI(identifier); v != "" {
		return TypeDOI, v
	}
	if u, err := url.Parse(identifier); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return TypeURL, identifier
	}
	return TypeUnknown, identifier
}

// Resolve normalizes raw metadata into a PublicationRecord. Identifier
// precedence for the dedup key is DOI > PMID > PMC-ID > preprint-ID >
// fingerprint. It returns an IdentityError when neither a primary
// identifier nor a non-empty title is available.
func Resolve(raw types.RawPublication) (*types.PublicationRecord, error) {
	rec := &types.PublicationRecord{
		DatasetID:     raw.DatasetID,
		DOI:           NormalizeDOI(raw.DOI),
		PMID:          NormalizePMID(raw.PMID),
		PMCID:         NormalizePMCID(raw.PMCID),
		PreprintID:    NormalizePreprintID(raw.PreprintID),
		Title:         strings.TrimSpace(raw.Title),
		Authors:       raw.Authors,
		Venue:         strings.TrimSpace(raw.Venue),
		Year:          raw.Year,
		Abstract:      strings.TrimSpace(raw.Abstract),
		CitationCount: raw.CitationCount,
	}

	if rec.Title != "" {
		rec.Fingerprint = Fingerprint(rec.Title, rec.Authors, rec.Year)
	}

	if !rec.HasPrimaryID() && rec.Fingerprint == "" {
		return nil, &types.IdentityError{
			Reason: fmt.Sprintf("no primary identifier and no title (dataset %q)", raw.DatasetID),
		}
	}

	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	return rec, nil
}

// Merge folds the identifiers and metadata of incoming into existing. The
// existing record wins every conflict; identifiers are only ever added,
// never overwritten or removed. Returns existing for chaining.
func Merge(existing, incoming *types.PublicationRecord) *types.PublicationRecord {
	if existing.DOI == "" {
		existing.DOI = incoming.DOI
	}
	if existing.PMID == "" {
		existing.PMID = incoming.PMID
	}
	if existing.PMCID == "" {
		existing.PMCID = incoming.PMCID
	}
	if existing.PreprintID == "" {
		existing.PreprintID = incoming.PreprintID
	}
	if existing.Fingerprint == "" {
		existing.Fingerprint = incoming.Fingerprint
	}
	if existing.Title == "" {
		existing.Title = incoming.Title
	}
	if len(existing.Authors) == 0 {
		existing.Authors = incoming.Authors
	}
	if existing.Venue == "" {
		existing.Venue = incoming.Venue
	}
	if existing.Year == 0 {
		existing.Year = incoming.Year
	}
	if existing.Abstract == "" {
		existing.Abstract = incoming.Abstract
	}
	if incoming.CitationCount > existing.CitationCount {
		existing.CitationCount = incoming.CitationCount
	}
	existing.UpdatedAt = time.Now().UTC()
	return existing
}

// Slug returns a filesystem-safe filename stem for a record key.
func Slug(key string) string {
	return strings.NewReplacer("/", "-", ":", "-", "|", "_").Replace(key)
}
