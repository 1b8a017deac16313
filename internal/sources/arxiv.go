// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// arxivPDFBase is the arXiv PDF endpoint. Declared as a var so tests can
// substitute an httptest server.
var arxivPDFBase = "https://arxiv.org/pdf/"

// Arxiv maps preprint identifiers straight to the arXiv PDF endpoint.
// arXiv serves every listed ID, so no discovery round-trip is needed; a
// wrong claim surfaces as a download failure and costs nothing extra.
type Arxiv struct{}

func (p *Arxiv) Name() types.ProviderName     { return types.ProviderArxiv }
func (p *Arxiv) Priority() types.PriorityBand { return types.BandPreprint }

func (p *Arxiv) Discover(_ context.Context, rec *types.PublicationRecord) ([]types.CandidateURL, error) {
	if rec.PreprintID == "" {
		return nil, nil
	}
	return []types.CandidateURL{
		candidate(arxivPDFBase+rec.PreprintID, p.Name(), p.Priority(), 0.9, types.OAGreen),
	}, nil
}
