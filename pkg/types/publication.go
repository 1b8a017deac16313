// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared domain and configuration types for the
// full-text acquisition engine.
package types

import "time"

// RawPublication is caller-supplied publication metadata before identity
// resolution. Every field is optional except that a resolvable input must
// carry at least one primary identifier or a non-empty title.
type RawPublication struct {
	// DatasetID is the owning dataset context. Deduplication is scoped
	// to one dataset; the same paper under two datasets is two records.
	DatasetID string `json:"dataset_id" yaml:"dataset_id"`

	// DOI is the digital object identifier, in any common spelling
	// ("10.1/x", "doi:10.1/x", "https://doi.org/10.1/x").
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// PMID is the PubMed identifier.
	PMID string `json:"pmid,omitempty" yaml:"pmid,omitempty"`

	// PMCID is the PubMed Central identifier ("PMC1234567").
	PMCID string `json:"pmcid,omitempty" yaml:"pmcid,omitempty"`

	// PreprintID is a preprint-server identifier (arXiv style).
	PreprintID string `json:"preprint_id,omitempty" yaml:"preprint_id,omitempty"`

	Title    string   `json:"title,omitempty" yaml:"title,omitempty"`
	Authors  []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Venue    string   `json:"venue,omitempty" yaml:"venue,omitempty"`
	Year     int      `json:"year,omitempty" yaml:"year,omitempty"`
	Abstract string   `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// CitationCount is carried through when the caller already knows it
	// (e.g. from the dataset catalog); quality assessment uses it.
	CitationCount int `json:"citation_count,omitempty" yaml:"citation_count,omitempty"`
}

// PublicationRecord is one scholarly work under a dataset context. Records
// are created on first discovery, enriched as better identifiers become
// known, and never deleted.
type PublicationRecord struct {
	DatasetID string `json:"dataset_id" yaml:"dataset_id"`

	// Primary identifiers, all normalized, any subset may be empty.
	DOI        string `json:"doi,omitempty" yaml:"doi,omitempty"`
	PMID       string `json:"pmid,omitempty" yaml:"pmid,omitempty"`
	PMCID      string `json:"pmcid,omitempty" yaml:"pmcid,omitempty"`
	PreprintID string `json:"preprint_id,omitempty" yaml:"preprint_id,omitempty"`

	// Fingerprint is the content hash used as identity when no primary
	// identifier exists. Always computed when title metadata allows.
	Fingerprint string `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`

	// Title is the only field guaranteed non-empty for fingerprint-only
	// records.
	Title    string   `json:"title" yaml:"title"`
	Authors  []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Venue    string   `json:"venue,omitempty" yaml:"venue,omitempty"`
	Year     int      `json:"year,omitempty" yaml:"year,omitempty"`
	Abstract string   `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	CitationCount int `json:"citation_count,omitempty" yaml:"citation_count,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// HasPrimaryID reports whether any primary identifier is set.
func (r *PublicationRecord) HasPrimaryID() bool {
	return r.DOI != "" || r.PMID != "" || r.PMCID != "" || r.PreprintID != ""
}

// Key returns the deduplication key for the record, scoped to its dataset.
// Precedence: DOI > PMID > PMC-ID > preprint-ID > fingerprint.
func (r *PublicationRecord) Key() string {
	switch {
	case r.DOI != "":
		return r.DatasetID + "|doi:" + r.DOI
	case r.PMID != "":
		return r.DatasetID + "|pmid:" + r.PMID
	case r.PMCID != "":
		return r.DatasetID + "|pmcid:" + r.PMCID
	case r.PreprintID != "":
		return r.DatasetID + "|preprint:" + r.PreprintID
	default:
		return r.DatasetID + "|fp:" + r.Fingerprint
	}
}

// Dataset is the read-only record returned by the dataset-search
// collaborator.
type Dataset struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Summary     string   `json:"summary,omitempty" yaml:"summary,omitempty"`
	Identifiers []string `json:"identifiers,omitempty" yaml:"identifiers,omitempty"`
}
