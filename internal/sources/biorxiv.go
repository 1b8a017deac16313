// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// Base URLs for the bioRxiv details API and content host. Declared as vars
// so tests can substitute httptest servers.
var (
	biorxivAPIBase     = "https://api.biorxiv.org/details/biorxiv/"
	biorxivContentBase = "https://www.biorxiv.org/content/"
)

// Biorxiv queries the bioRxiv details API for preprint versions of a DOI.
type Biorxiv struct {
	Client    *http.Client
	UserAgent string
}

func (p *Biorxiv) Name() types.ProviderName     { return types.ProviderBiorxiv }
func (p *Biorxiv) Priority() types.PriorityBand { return types.BandPreprint }

// biorxivResponse mirrors the details API collection.
type biorxivResponse struct {
	Collection []struct {
		DOI     string `json:"doi"`
		Version string `json:"version"`
	} `json:"collection"`
}

// Discover returns the full-text PDF URL for the newest posted version.
func (p *Biorxiv) Discover(ctx context.Context, rec *types.PublicationRecord) ([]types.CandidateURL, error) {
	if rec.DOI == "" {
		return nil, nil
	}

	resp, err := getJSON(ctx, p.Client, biorxivAPIBase+rec.DOI, p.UserAgent, nil)
	if err != nil || resp == nil {
		return nil, err
	}
	defer resp.Body.Close()

	var br biorxivResponse
	if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
		return nil, fmt.Errorf("parsing bioRxiv response: %w", err)
	}
	if len(br.Collection) == 0 {
		return nil, nil
	}

	// The collection is ordered oldest first; the last entry is the
	// newest version.
	latest := br.Collection[len(br.Collection)-1]
	pdfURL := fmt.Sprintf("%s%sv%s.full.pdf", biorxivContentBase, latest.DOI, latest.Version)
	return []types.CandidateURL{
		candidate(pdfURL, p.Name(), p.Priority(), 0.85, types.OAGreen),
	}, nil
}
