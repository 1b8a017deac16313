// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// Mirror maps a DOI onto a last-resort mirror host. Mirrors have mixed
// legal status, so the registry only includes this provider when the
// operator sets discovery.enable_mirrors; callers never branch on it.
type Mirror struct {
	// BaseURL is the mirror host prefix, e.g. "https://mirror.example.org/".
	BaseURL string
}

func (p *Mirror) Name() types.ProviderName     { return types.ProviderMirror }
func (p *Mirror) Priority() types.PriorityBand { return types.BandMirror }

func (p *Mirror) Discover(_ context.Context, rec *types.PublicationRecord) ([]types.CandidateURL, error) {
	if p.BaseURL == "" || rec.DOI == "" {
		return nil, nil
	}
	return []types.CandidateURL{
		candidate(p.BaseURL+rec.DOI, p.Name(), p.Priority(), 0.4, types.OAUnknown),
	}, nil
}
