// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// coreAPIBase is the CORE v3 works search endpoint. Declared as a var so
// tests can substitute an httptest server.
var coreAPIBase = "https://api.core.ac.uk/v3/search/works"

// CORE queries the CORE aggregator for repository copies of a DOI. CORE
// aggregates institutional repositories, so it often finds green OA copies
// the publisher-facing APIs miss.
type CORE struct {
	Client    *http.Client
	APIKey    string
	UserAgent string
}

func (p *CORE) Name() types.ProviderName     { return types.ProviderCORE }
func (p *CORE) Priority() types.PriorityBand { return types.BandPreprint }

// coreResponse mirrors the v3 search result shape.
type coreResponse struct {
	Results []struct {
		DownloadURL string `json:"downloadUrl"`
	} `json:"results"`
}

// Discover searches CORE by DOI and returns download URLs. The provider is
// skipped without an API key; CORE rejects anonymous v3 queries.
func (p *CORE) Discover(ctx context.Context, rec *types.PublicationRecord) ([]types.CandidateURL, error) {
	if rec.DOI == "" || p.APIKey == "" {
		return nil, nil
	}

	apiURL := fmt.Sprintf("%s?q=%s&limit=5", coreAPIBase, url.QueryEscape(fmt.Sprintf("doi:%q", rec.DOI)))
	headers := map[string]string{"Authorization": "Bearer " + p.APIKey}
	resp, err := getJSON(ctx, p.Client, apiURL, p.UserAgent, headers)
	if err != nil || resp == nil {
		return nil, err
	}
	defer resp.Body.Close()

	var cr coreResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("parsing CORE response: %w", err)
	}

	var out []types.CandidateURL
	seen := make(map[string]bool)
	for _, r := range cr.Results {
		if r.DownloadURL == "" || seen[r.DownloadURL] {
			continue
		}
		seen[r.DownloadURL] = true
		out = append(out, candidate(r.DownloadURL, p.Name(), p.Priority(), 0.6, types.OAGreen))
	}
	return out, nil
}
