// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// unpaywallAPIBase is the Unpaywall DOI endpoint. Declared as a var so
// tests can substitute an httptest server.
var unpaywallAPIBase = "https://api.unpaywall.org/v2/"

// Unpaywall queries the Unpaywall API for open-access locations of a DOI.
type Unpaywall struct {
	Client *http.Client
	// Email is required by the Unpaywall terms of use.
	Email     string
	UserAgent string
}

func (p *Unpaywall) Name() types.ProviderName     { return types.ProviderUnpaywall }
func (p *Unpaywall) Priority() types.PriorityBand { return types.BandOpenAccess }

// unpaywallResponse captures the fields we need from an Unpaywall record.
type unpaywallResponse struct {
	OAStatus       string              `json:"oa_status"`
	BestOALocation *unpaywallLocation  `json:"best_oa_location"`
	OALocations    []unpaywallLocation `json:"oa_locations"`
}

type unpaywallLocation struct {
	URLForPDF string `json:"url_for_pdf"`
	URL       string `json:"url"`
	Version   string `json:"version"`
}

// Discover returns the best OA location first, then the remaining OA
// locations at reduced confidence.
func (p *Unpaywall) Discover(ctx context.Context, rec *types.PublicationRecord) ([]types.CandidateURL, error) {
	if rec.DOI == "" {
		return nil, nil
	}

	apiURL := fmt.Sprintf("%s%s?email=%s", unpaywallAPIBase, rec.DOI, p.Email)
	resp, err := getJSON(ctx, p.Client, apiURL, p.UserAgent, nil)
	if err != nil || resp == nil {
		return nil, err
	}
	defer resp.Body.Close()

	var ur unpaywallResponse
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		return nil, fmt.Errorf("parsing Unpaywall response: %w", err)
	}

	oa := oaStatusFrom(ur.OAStatus)
	var out []types.CandidateURL
	seen := make(map[string]bool)

	if loc := ur.BestOALocation; loc != nil && loc.URLForPDF != "" {
		out = append(out, candidate(loc.URLForPDF, p.Name(), p.Priority(), 0.95, oa))
		seen[loc.URLForPDF] = true
	}
	for _, loc := range ur.OALocations {
		u := loc.URLForPDF
		if u == "" {
			continue
		}
		if seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, candidate(u, p.Name(), p.Priority(), 0.7, oa))
	}
	return out, nil
}

// oaStatusFrom maps Unpaywall's oa_status vocabulary onto ours.
func oaStatusFrom(s string) types.OAStatus {
	switch s {
	case "gold", "hybrid":
		return types.OAGold
	case "green":
		return types.OAGreen
	case "bronze":
		return types.OABronze
	case "closed":
		return types.OAClosed
	default:
		return types.OAUnknown
	}
}
