// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"net/http"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// Default .secrets/ key names per provider.
const (
	secretUnpaywallEmail = "unpaywall-email"
	secretOpenAlexEmail  = "openalex-email"
	secretCOREAPIKey     = "core-api-key"
)

// BuildRegistry constructs the enabled provider set in registration order.
// The slice is the aggregator's injected dependency; nothing here is
// global, so tests can pass their own fixed provider set instead.
//
// Providers default to enabled; a config override only removes one when
// it sets Disabled explicitly. Mirror providers additionally require
// discovery.enable_mirrors and a configured base URL.
func BuildRegistry(cfg types.DiscoveryConfig, secrets map[string]string, client *http.Client) []Provider {
	ua := cfg.UserAgent

	enabled := func(name types.ProviderName) bool {
		pc, _ := cfg.ProviderOverride(name)
		return !pc.Disabled
	}
	secret := func(name types.ProviderName, fallback string) string {
		key := fallback
		if pc, ok := cfg.ProviderOverride(name); ok && pc.APIKeyName != "" {
			key = pc.APIKeyName
		}
		return secrets[key]
	}

	var providers []Provider
	add := func(name types.ProviderName, p Provider) {
		if enabled(name) {
			providers = append(providers, p)
		}
	}

	add(types.ProviderInstitutional, &Institutional{ProxyBaseURL: cfg.ProxyBaseURL})
	add(types.ProviderUnpaywall, &Unpaywall{Client: client, Email: secret(types.ProviderUnpaywall, secretUnpaywallEmail), UserAgent: ua})
	add(types.ProviderOpenAlex, &OpenAlex{Client: client, Mailto: secret(types.ProviderOpenAlex, secretOpenAlexEmail), UserAgent: ua})
	add(types.ProviderCrossRef, &CrossRef{Client: client, UserAgent: ua})
	add(types.ProviderEuropePMC, &EuropePMC{Client: client, UserAgent: ua})
	add(types.ProviderPMC, &PMC{Client: client, UserAgent: ua})
	add(types.ProviderArxiv, &Arxiv{})
	add(types.ProviderBiorxiv, &Biorxiv{Client: client, UserAgent: ua})
	add(types.ProviderCORE, &CORE{Client: client, APIKey: secret(types.ProviderCORE, secretCOREAPIKey), UserAgent: ua})

	if cfg.EnableMirrors {
		if pc, ok := cfg.ProviderOverride(types.ProviderMirror); ok && pc.BaseURL != "" {
			add(types.ProviderMirror, &Mirror{BaseURL: pc.BaseURL})
		}
	}

	return providers
}
