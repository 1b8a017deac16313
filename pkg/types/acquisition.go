// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ProviderName identifies a source provider. The set is closed so that
// fallback-source handling can switch exhaustively instead of matching
// free-text strings.
type ProviderName string

const (
	ProviderInstitutional ProviderName = "institutional"
	ProviderUnpaywall     ProviderName = "unpaywall"
	ProviderOpenAlex      ProviderName = "openalex"
	ProviderCrossRef      ProviderName = "crossref"
	ProviderEuropePMC     ProviderName = "europepmc"
	ProviderPMC           ProviderName = "pmc"
	ProviderArxiv         ProviderName = "arxiv"
	ProviderBiorxiv       ProviderName = "biorxiv"
	ProviderCORE          ProviderName = "core"
	ProviderMirror        ProviderName = "mirror"
)

// AllProviders lists every known provider in registration order. The order
// doubles as the deterministic tie-break when priority and confidence are
// equal.
var AllProviders = []ProviderName{
	ProviderInstitutional,
	ProviderUnpaywall,
	ProviderOpenAlex,
	ProviderCrossRef,
	ProviderEuropePMC,
	ProviderPMC,
	ProviderArxiv,
	ProviderBiorxiv,
	ProviderCORE,
	ProviderMirror,
}

// PriorityBand groups providers by trust and access quality. Lower bands
// are tried first.
type PriorityBand int

const (
	// BandInstitutional is paid/proxied publisher access.
	BandInstitutional PriorityBand = 1
	// BandOpenAccess is open-access aggregator APIs.
	BandOpenAccess PriorityBand = 2
	// BandPreprint is preprint servers and OA aggregation of last record.
	BandPreprint PriorityBand = 3
	// BandMirror is last-resort mirrors, disabled by default.
	BandMirror PriorityBand = 4
)

// OAStatus tags the open-access status a provider claims for a URL.
type OAStatus string

const (
	OAGold    OAStatus = "gold"
	OAGreen   OAStatus = "green"
	OABronze  OAStatus = "bronze"
	OAClosed  OAStatus = "closed"
	OAUnknown OAStatus = "unknown"
)

// CandidateURL is one provider's claim that full text is reachable at a
// URL. Immutable after creation.
type CandidateURL struct {
	URL        string       `json:"url" yaml:"url"`
	Provider   ProviderName `json:"provider" yaml:"provider"`
	Priority   PriorityBand `json:"priority" yaml:"priority"`
	Confidence float64      `json:"confidence" yaml:"confidence"`
	OAStatus   OAStatus     `json:"oa_status" yaml:"oa_status"`

	DiscoveredAt time.Time `json:"discovered_at" yaml:"discovered_at"`

	// Rank is the provider's registration-order index, stamped by the
	// aggregator at merge time and used as the final sort tie-break.
	Rank int `json:"rank" yaml:"rank"`
}

// Ranking is the full, priority-sorted candidate list for one record,
// collected once so download fallback never re-queries providers.
type Ranking struct {
	Key        string         `json:"key" yaml:"key"`
	Candidates []CandidateURL `json:"candidates" yaml:"candidates"`

	// ProviderErrors records providers that failed or timed out during
	// discovery. Diagnostics only; an entry here is not a candidate.
	ProviderErrors []string `json:"provider_errors,omitempty" yaml:"provider_errors,omitempty"`

	CollectedAt time.Time `json:"collected_at" yaml:"collected_at"`
}

// AttemptStatus is the per-attempt download state.
type AttemptStatus string

const (
	AttemptPending    AttemptStatus = "pending"
	AttemptFetching   AttemptStatus = "fetching"
	AttemptValidating AttemptStatus = "validating"
	AttemptSucceeded  AttemptStatus = "succeeded"
	AttemptTransient  AttemptStatus = "failed-transient"
	AttemptPermanent  AttemptStatus = "failed-permanent"
)

// Terminal reports whether the status ends processing of the attempt.
func (s AttemptStatus) Terminal() bool {
	return s == AttemptSucceeded || s == AttemptTransient || s == AttemptPermanent
}

// Attempt is one entry in a download failure trail.
type Attempt struct {
	URL      string        `json:"url" yaml:"url"`
	Provider ProviderName  `json:"provider" yaml:"provider"`
	Status   AttemptStatus `json:"status" yaml:"status"`

	// Error holds the failure detail; empty on success.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// Number counts attempts against the same URL, starting at 1.
	Number    int       `json:"number" yaml:"number"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// DownloadOutcome is the terminal result of one acquisition. Callers always
// receive an outcome, even on total failure; the trail explains what was
// tried and why it failed.
type DownloadOutcome struct {
	// AcquisitionID uniquely identifies this acquisition run.
	AcquisitionID string `json:"acquisition_id" yaml:"acquisition_id"`

	// RecordKey is the deduplication key of the acquired record.
	RecordKey string `json:"record_key" yaml:"record_key"`

	// Status is succeeded or failed-permanent ("exhausted" when the
	// trail covers every candidate).
	Status AttemptStatus `json:"status" yaml:"status"`

	// URL and Provider identify the winning candidate on success.
	URL      string       `json:"url,omitempty" yaml:"url,omitempty"`
	Provider ProviderName `json:"provider,omitempty" yaml:"provider,omitempty"`

	ByteSize int64  `json:"byte_size,omitempty" yaml:"byte_size,omitempty"`
	SHA256   string `json:"sha256,omitempty" yaml:"sha256,omitempty"`
	PDFPath  string `json:"pdf_path,omitempty" yaml:"pdf_path,omitempty"`

	// Trail lists every attempt in the order it was made.
	Trail []Attempt `json:"trail,omitempty" yaml:"trail,omitempty"`

	// Cached reports that the outcome was served from the cache
	// hierarchy without new network work.
	Cached bool `json:"cached,omitempty" yaml:"cached,omitempty"`

	CompletedAt time.Time `json:"completed_at" yaml:"completed_at"`
}

// Succeeded reports whether full text was acquired.
func (o *DownloadOutcome) Succeeded() bool {
	return o.Status == AttemptSucceeded
}

// Exhausted reports whether every candidate URL failed (or none existed).
func (o *DownloadOutcome) Exhausted() bool {
	return o.Status == AttemptPermanent
}

// AllPermanent reports whether the trail contains no transient failure.
// Only such outcomes may be cached as negatives; a transient anywhere in
// the trail means the next call deserves a fresh try.
func (o *DownloadOutcome) AllPermanent() bool {
	for _, a := range o.Trail {
		if a.Status == AttemptTransient {
			return false
		}
	}
	return true
}
