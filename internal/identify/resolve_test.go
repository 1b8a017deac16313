// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package identify

import (
	"testing"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantType IdentifierType
		wantNorm string
	}{
		{"doi simple", "10.1145/1234567.1234568", TypeDOI, "10.1145/1234567.1234568"},
		{"doi url", "https://doi.org/10.1038/s41586-024-07487-w", TypeDOI, "10.1038/s41586-024-07487-w"},
		{"doi prefixed", "doi:10.1000/XYZ", TypeDOI, "10.1000/xyz"},
		{"doi short registrant", "10.1/x", TypeDOI, "10.1/x"},
		{"pmid bare", "12345678", TypePMID, "12345678"},
		{"pmid prefixed", "PMID:123", TypePMID, "123"},
		{"pmcid", "PMC7654321", TypePMCID, "PMC7654321"},
		{"pmcid lowercase", "pmc42", TypePMCID, "PMC42"},
		{"preprint bare", "2301.07041", TypePreprint, "2301.07041"},
		{"preprint prefixed", "arXiv:2301.07041", TypePreprint, "2301.07041"},
		{"preprint versioned", "2301.07041v2", TypePreprint, "2301.07041"},
		{"url https", "https://example.com/paper.pdf", TypeURL, "https://example.com/paper.pdf"},
		{"unknown bare word", "not-an-id", TypeUnknown, "not-an-id"},
		{"unknown empty", "", TypeUnknown, ""},
		{"whitespace trimmed", "  PMC99  ", TypePMCID, "PMC99"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, gotNorm := Classify(tt.input)
			if gotType != tt.wantType {
				t.Errorf("Classify(%q) type = %v, want %v", tt.input, gotType, tt.wantType)
			}
			if gotNorm != tt.wantNorm {
				t.Errorf("Classify(%q) norm = %q, want %q", tt.input, gotNorm, tt.wantNorm)
			}
		})
	}
}

func TestNormalizeDOIRegistrantLengths(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"one digit", "10.1/x", "10.1/x"},
		{"two digits", "10.99/abc-def", "10.99/abc-def"},
		{"four digits", "10.1038/s41586-024-07487-w", "10.1038/s41586-024-07487-w"},
		{"dotted registrant", "10.1038.1/abc", "10.1038.1/abc"},
		{"resolver prefix", "https://doi.org/10.1/x", "10.1/x"},
		{"no registrant digits", "10./x", ""},
		{"no suffix", "10.1234/", ""},
		{"not a doi", "11.1234/x", ""},
		{"embedded whitespace", "10.1/a b", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDOI(tt.input); got != tt.want {
				t.Errorf("NormalizeDOI(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFingerprintDeterminism(t *testing.T) {
	base := Fingerprint("Deep Learning for Protein Folding", []string{"Alice Smith", "Bob Jones"}, 2023)
	if base == "" {
		t.Fatal("fingerprint is empty")
	}

	variants := []struct {
		name    string
		title   string
		authors []string
	}{
		{"case variation", "deep learning FOR Protein folding", []string{"Alice Smith", "Bob Jones"}},
		{"whitespace variation", "  Deep  Learning\tfor Protein   Folding ", []string{"Alice Smith", "Bob Jones"}},
		{"author reorder", "Deep Learning for Protein Folding", []string{"Bob Jones", "Alice Smith"}},
		{"punctuation stripped", "Deep Learning, for Protein Folding!", []string{"Alice  Smith", "Bob Jones"}},
	}
	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			if got := Fingerprint(v.title, v.authors, 2023); got != base {
				t.Errorf("Fingerprint(%q, %v) = %q, want %q", v.title, v.authors, got, base)
			}
		})
	}

	if Fingerprint("Deep Learning for Protein Folding", []string{"Alice Smith"}, 2023) == base {
		t.Error("different author set should change the fingerprint")
	}
	if Fingerprint("Deep Learning for Protein Folding", []string{"Alice Smith", "Bob Jones"}, 2024) == base {
		t.Error("different year should change the fingerprint")
	}
}

func TestResolvePrecedence(t *testing.T) {
	rec, err := Resolve(types.RawPublication{
		DatasetID: "ds1",
		DOI:       "https://doi.org/10.1/X",
		PMID:      "123",
		Title:     "Some Paper",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if rec.DOI != "10.1/x" {
		t.Errorf("DOI = %q, want %q", rec.DOI, "10.1/x")
	}
	if got := rec.Key(); got != "ds1|doi:10.1/x" {
		t.Errorf("Key() = %q, want DOI-keyed", got)
	}

	rec2, err := Resolve(types.RawPublication{DatasetID: "ds1", PMID: "123", Title: "Some Paper"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := rec2.Key(); got != "ds1|pmid:123" {
		t.Errorf("Key() = %q, want PMID-keyed", got)
	}

	rec3, err := Resolve(types.RawPublication{DatasetID: "ds1", Title: "Some Paper", Authors: []string{"A"}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if rec3.Fingerprint == "" {
		t.Fatal("fingerprint not computed for title-only record")
	}
	if got, want := rec3.Key(), "ds1|fp:"+rec3.Fingerprint; got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}
}

func TestResolveRejectsUnidentifiable(t *testing.T) {
	_, err := Resolve(types.RawPublication{DatasetID: "ds1", Venue: "Nature"})
	if err == nil {
		t.Fatal("expected IdentityError for input with no identifier and no title")
	}
	if !types.IsIdentityError(err) {
		t.Errorf("error %v is not an IdentityError", err)
	}
}

func TestResolveInvalidIdentifiersDropped(t *testing.T) {
	rec, err := Resolve(types.RawPublication{
		DatasetID: "ds1",
		DOI:       "not-a-doi",
		PMID:      "12a45",
		Title:     "Fallback by Fingerprint",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if rec.DOI != "" || rec.PMID != "" {
		t.Errorf("invalid identifiers kept: doi=%q pmid=%q", rec.DOI, rec.PMID)
	}
	if rec.Fingerprint == "" {
		t.Error("fingerprint missing")
	}
}

func TestMergeNeverDowngrades(t *testing.T) {
	existing := &types.PublicationRecord{DatasetID: "ds1", DOI: "10.1/x", Title: "T"}
	incoming := &types.PublicationRecord{DatasetID: "ds1", DOI: "10.9/other", PMID: "123", Abstract: "abs"}

	Merge(existing, incoming)

	if existing.DOI != "10.1/x" {
		t.Errorf("existing DOI overwritten: %q", existing.DOI)
	}
	if existing.PMID != "123" {
		t.Errorf("new PMID not merged in: %q", existing.PMID)
	}
	if existing.Abstract != "abs" {
		t.Errorf("empty field not filled: %q", existing.Abstract)
	}
}
