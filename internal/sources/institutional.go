// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"net/url"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// Institutional routes DOI resolution through an EZproxy-style
// institutional proxy. It performs no network discovery of its own: the
// proxy prefix plus the DOI resolver is the claim, and the download stage
// finds out whether the subscription actually covers the paper.
type Institutional struct {
	// ProxyBaseURL is the proxy login prefix, e.g.
	// "https://login.proxy.example.edu/login".
	ProxyBaseURL string
}

func (p *Institutional) Name() types.ProviderName     { return types.ProviderInstitutional }
func (p *Institutional) Priority() types.PriorityBand { return types.BandInstitutional }

// Discover returns the proxied resolver URL for records with a DOI.
func (p *Institutional) Discover(_ context.Context, rec *types.PublicationRecord) ([]types.CandidateURL, error) {
	if p.ProxyBaseURL == "" || rec.DOI == "" {
		return nil, nil
	}
	proxied := p.ProxyBaseURL + "?url=" + url.QueryEscape("https://doi.org/"+rec.DOI)
	return []types.CandidateURL{
		candidate(proxied, p.Name(), p.Priority(), 0.8, types.OAClosed),
	}, nil
}
