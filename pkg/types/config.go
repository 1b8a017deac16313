// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "fulltext-engine/0.1 (mailto:ops@example.org)").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ProviderConfig configures one source provider. The zero value leaves
// the provider enabled with defaults, so an override that only tunes a
// rate limit or timeout never switches the provider off.
type ProviderConfig struct {
	// Disabled turns the provider off. Mirror providers are
	// additionally gated by DiscoveryConfig.EnableMirrors.
	Disabled bool `json:"disabled,omitempty" yaml:"disabled,omitempty"`

	// RateLimit is the per-provider request budget in requests/second.
	// Zero means unlimited.
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit"`

	// Timeout overrides the discovery-wide provider timeout when set.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// APIKeyName names the .secrets/ file holding this provider's key
	// or credential, if it needs one.
	APIKeyName string `json:"api_key_name,omitempty" yaml:"api_key_name,omitempty"`

	// BaseURL overrides the provider's endpoint. Required for mirror
	// providers, which ship with no default host.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
}

// DiscoveryConfig configures provider fan-out.
type DiscoveryConfig struct {
	HTTPConfig `yaml:",inline"`

	// FanOutLimit bounds concurrent provider calls across all in-flight
	// records, not per record (default 16).
	FanOutLimit int64 `json:"fanout_limit" yaml:"fanout_limit"`

	// ProviderTimeout is the per-provider discovery deadline (default 10s).
	// A provider that exceeds it contributes zero candidates.
	ProviderTimeout time.Duration `json:"provider_timeout" yaml:"provider_timeout"`

	// EnableMirrors opts in to last-resort mirror providers. Off by
	// default given their mixed legal status.
	EnableMirrors bool `json:"enable_mirrors" yaml:"enable_mirrors"`

	// ProxyBaseURL is the institutional proxy prefix (EZproxy style).
	// The institutional provider is skipped when empty.
	ProxyBaseURL string `json:"proxy_base_url,omitempty" yaml:"proxy_base_url,omitempty"`

	// Providers holds per-provider overrides keyed by provider name.
	Providers map[string]ProviderConfig `json:"providers,omitempty" yaml:"providers,omitempty"`
}

// ProviderOverride returns the override for name, if present.
func (c DiscoveryConfig) ProviderOverride(name ProviderName) (ProviderConfig, bool) {
	pc, ok := c.Providers[string(name)]
	return pc, ok
}

// DownloadConfig configures the download manager.
type DownloadConfig struct {
	HTTPConfig `yaml:",inline"`

	// RetryBudget is the number of retries after the first attempt on
	// one URL before falling back to the next candidate (default 2).
	RetryBudget int `json:"retry_budget" yaml:"retry_budget"`

	// BackoffBase is the first retry delay; it doubles per retry
	// (default 500ms).
	BackoffBase time.Duration `json:"backoff_base" yaml:"backoff_base"`

	// MinPDFSize is the smallest plausible full-text PDF in bytes;
	// smaller responses fail validation permanently (default 1024).
	MinPDFSize int64 `json:"min_pdf_size" yaml:"min_pdf_size"`

	// StorageDir is the directory for downloaded PDFs.
	StorageDir string `json:"storage_dir" yaml:"storage_dir"`
}

// CacheTTLs holds the per-kind time-to-live set for one tier.
type CacheTTLs struct {
	Discovery time.Duration `json:"discovery" yaml:"discovery"`
	Download  time.Duration `json:"download" yaml:"download"`
	Extracted time.Duration `json:"extracted" yaml:"extracted"`
}

// ForKind returns the TTL for kind, zero for unknown kinds.
func (t CacheTTLs) ForKind(kind CacheKind) time.Duration {
	switch kind {
	case CacheDiscovery:
		return t.Discovery
	case CacheDownload:
		return t.Download
	case CacheExtracted:
		return t.Extracted
	default:
		return 0
	}
}

// CacheConfig configures the cache hierarchy.
type CacheConfig struct {
	// FastTier selects the fast-tier backend: "memory" (in-process LRU)
	// or "redis" (shared).
	FastTier string `json:"fast_tier" yaml:"fast_tier"`

	// RedisAddr is the redis host:port, used when FastTier is "redis".
	RedisAddr string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`

	// FastSize is the in-process LRU entry capacity (default 4096).
	FastSize int `json:"fast_size" yaml:"fast_size"`

	// Fast holds short fast-tier TTLs (hours-days).
	Fast CacheTTLs `json:"fast" yaml:"fast"`

	// Durable holds long durable-tier TTLs (weeks-months).
	Durable CacheTTLs `json:"durable" yaml:"durable"`
}

// QualityConfig configures the quality validator.
type QualityConfig struct {
	// MinLevel is the default filter floor ("" disables filtering).
	MinLevel string `json:"min_level,omitempty" yaml:"min_level,omitempty"`

	// AllowPreprints includes preprint-only records at full score.
	AllowPreprints bool `json:"allow_preprints" yaml:"allow_preprints"`

	// DenyVenues lists venue substrings treated as known low quality.
	DenyVenues []string `json:"deny_venues,omitempty" yaml:"deny_venues,omitempty"`

	// MinAbstractWords is the completeness threshold (default 50).
	MinAbstractWords int `json:"min_abstract_words" yaml:"min_abstract_words"`

	// MinTitleLength is the completeness threshold in runes (default 10).
	MinTitleLength int `json:"min_title_length" yaml:"min_title_length"`
}

// StorageConfig configures the persistence layer.
type StorageConfig struct {
	// DataDir is the base directory; the SQLite database lives at
	// DataDir/index/fulltext.db and PDFs under DataDir/raw/.
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// CatalogConfig configures the dataset-search collaborator client.
type CatalogConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the catalog lookup endpoint.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// MaxRetries bounds lookup retries; the collaborator offers no
	// retry contract of its own.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// EngineConfig groups all component configurations.
type EngineConfig struct {
	Discovery DiscoveryConfig `json:"discovery" yaml:"discovery"`
	Download  DownloadConfig  `json:"download" yaml:"download"`
	Cache     CacheConfig     `json:"cache" yaml:"cache"`
	Quality   QualityConfig   `json:"quality" yaml:"quality"`
	Storage   StorageConfig   `json:"storage" yaml:"storage"`
	Catalog   CatalogConfig   `json:"catalog" yaml:"catalog"`

	// BatchWorkers is the default worker count for batch acquisition
	// when the caller passes maxConcurrency <= 0 (default 4).
	BatchWorkers int `json:"batch_workers" yaml:"batch_workers"`
}
