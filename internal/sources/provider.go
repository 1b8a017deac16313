// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sources implements the source-provider adapters that discover
// candidate full-text URLs for a publication record. Each adapter queries
// one upstream (institutional proxy, open-access API, preprint server, or
// last-resort mirror) and maps its response to CandidateURLs.
package sources

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// Provider discovers candidate URLs for one upstream source. "Not found"
// is an empty result, never an error; errors indicate genuine transport
// failure. Rate limiting is the caller's job (the aggregator enforces it),
// not the provider's.
type Provider interface {
	Name() types.ProviderName
	Priority() types.PriorityBand
	Discover(ctx context.Context, rec *types.PublicationRecord) ([]types.CandidateURL, error)
}

// getJSON issues a GET with the engine User-Agent and optional extra
// headers. It returns (nil, nil) on 404 so adapters can map "not found" to
// an empty candidate list with no special casing.
func getJSON(ctx context.Context, client *http.Client, url, userAgent string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}
	return resp, nil
}

// candidate stamps the common fields of a CandidateURL. DiscoveredAt is
// set by the aggregator at merge time together with Rank.
func candidate(url string, name types.ProviderName, band types.PriorityBand, confidence float64, oa types.OAStatus) types.CandidateURL {
	return types.CandidateURL{
		URL:        url,
		Provider:   name,
		Priority:   band,
		Confidence: confidence,
		OAStatus:   oa,
	}
}
