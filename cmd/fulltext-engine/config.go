package main

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

const defaultUserAgent = "fulltext-engine/0.1"

// engineConfig resolves the full engine configuration from viper keys,
// environment (FULLTEXT_ENGINE_*), and flags. Component defaults for
// unset values are applied by the components themselves.
func engineConfig(cmd *cobra.Command) types.EngineConfig {
	viper.SetDefault("data_dir", "data")
	viper.SetDefault("user_agent", defaultUserAgent)
	viper.SetDefault("cache.fast_tier", "memory")
	viper.SetDefault("cache.fast.discovery", 6*time.Hour)
	viper.SetDefault("cache.fast.download", 24*time.Hour)
	viper.SetDefault("cache.fast.extracted", 24*time.Hour)
	viper.SetDefault("cache.durable.discovery", 7*24*time.Hour)
	viper.SetDefault("cache.durable.download", 30*24*time.Hour)
	viper.SetDefault("cache.durable.extracted", 30*24*time.Hour)

	dataDir := viper.GetString("data_dir")
	if flagDir, _ := cmd.Flags().GetString("data-dir"); flagDir != "" {
		dataDir = flagDir
	}
	ua := viper.GetString("user_agent")

	providers := make(map[string]types.ProviderConfig)
	for _, name := range viper.GetStringSlice("discovery.disabled_providers") {
		providers[name] = types.ProviderConfig{Disabled: true}
	}
	if mirror := viper.GetString("discovery.mirror_base_url"); mirror != "" {
		providers[string(types.ProviderMirror)] = types.ProviderConfig{BaseURL: mirror}
	}

	return types.EngineConfig{
		Discovery: types.DiscoveryConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("discovery.timeout"),
				UserAgent: ua,
			},
			FanOutLimit:     viper.GetInt64("discovery.fanout_limit"),
			ProviderTimeout: viper.GetDuration("discovery.provider_timeout"),
			EnableMirrors:   viper.GetBool("discovery.enable_mirrors"),
			ProxyBaseURL:    viper.GetString("discovery.proxy_base_url"),
			Providers:       providers,
		},
		Download: types.DownloadConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("download.timeout"),
				UserAgent: ua,
			},
			RetryBudget: viper.GetInt("download.retry_budget"),
			BackoffBase: viper.GetDuration("download.backoff_base"),
			MinPDFSize:  viper.GetInt64("download.min_pdf_size"),
		},
		Cache: types.CacheConfig{
			FastTier:  viper.GetString("cache.fast_tier"),
			RedisAddr: viper.GetString("cache.redis_addr"),
			FastSize:  viper.GetInt("cache.fast_size"),
			Fast: types.CacheTTLs{
				Discovery: viper.GetDuration("cache.fast.discovery"),
				Download:  viper.GetDuration("cache.fast.download"),
				Extracted: viper.GetDuration("cache.fast.extracted"),
			},
			Durable: types.CacheTTLs{
				Discovery: viper.GetDuration("cache.durable.discovery"),
				Download:  viper.GetDuration("cache.durable.download"),
				Extracted: viper.GetDuration("cache.durable.extracted"),
			},
		},
		Quality: types.QualityConfig{
			MinLevel:         viper.GetString("quality.min_level"),
			AllowPreprints:   viper.GetBool("quality.allow_preprints"),
			DenyVenues:       viper.GetStringSlice("quality.deny_venues"),
			MinAbstractWords: viper.GetInt("quality.min_abstract_words"),
			MinTitleLength:   viper.GetInt("quality.min_title_length"),
		},
		Storage: types.StorageConfig{DataDir: dataDir},
		Catalog: types.CatalogConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("catalog.timeout"),
				UserAgent: ua,
			},
			BaseURL:    viper.GetString("catalog.base_url"),
			MaxRetries: viper.GetInt("catalog.max_retries"),
		},
		BatchWorkers: viper.GetInt("batch_workers"),
	}
}
