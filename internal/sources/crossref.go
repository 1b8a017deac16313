// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// crossrefAPIBase is the CrossRef works endpoint. Declared as a var so
// tests can substitute an httptest server.
var crossrefAPIBase = "https://api.crossref.org/works/"

// CrossRef queries the CrossRef API for publisher full-text links
// registered alongside the DOI metadata.
type CrossRef struct {
	Client    *http.Client
	UserAgent string
}

func (p *CrossRef) Name() types.ProviderName     { return types.ProviderCrossRef }
func (p *CrossRef) Priority() types.PriorityBand { return types.BandOpenAccess }

// crossrefResponse captures the link fields from a CrossRef work record.
type crossrefResponse struct {
	Message struct {
		Link []crossrefLink `json:"link"`
	} `json:"message"`
}

type crossrefLink struct {
	URL         string `json:"URL"`
	ContentType string `json:"content-type"`
	Application string `json:"intended-application"`
}

// Discover returns the registered full-text links for a DOI, preferring
// links declared as application/pdf.
func (p *CrossRef) Discover(ctx context.Context, rec *types.PublicationRecord) ([]types.CandidateURL, error) {
	if rec.DOI == "" {
		return nil, nil
	}

	resp, err := getJSON(ctx, p.Client, crossrefAPIBase+rec.DOI, p.UserAgent, nil)
	if err != nil || resp == nil {
		return nil, err
	}
	defer resp.Body.Close()

	var cr crossrefResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("parsing CrossRef response: %w", err)
	}

	var out []types.CandidateURL
	for _, link := range cr.Message.Link {
		if link.URL == "" || link.Application == "similarity-checking" {
			continue
		}
		conf := 0.5
		if strings.Contains(link.ContentType, "pdf") {
			conf = 0.75
		}
		out = append(out, candidate(link.URL, p.Name(), p.Priority(), conf, types.OAUnknown))
	}
	return out, nil
}
