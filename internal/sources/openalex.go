// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// openAlexAPIBase is the OpenAlex works endpoint. Declared as a var so
// tests can substitute an httptest server.
var openAlexAPIBase = "https://api.openalex.org/works/"

// OpenAlex queries the OpenAlex API for open-access locations of a DOI.
type OpenAlex struct {
	Client *http.Client
	// Mailto joins the OpenAlex polite pool for better rate limits.
	Mailto    string
	UserAgent string
}

func (p *OpenAlex) Name() types.ProviderName     { return types.ProviderOpenAlex }
func (p *OpenAlex) Priority() types.PriorityBand { return types.BandOpenAccess }

// openAlexResponse captures the fields we need from an OpenAlex work record.
type openAlexResponse struct {
	OpenAccess struct {
		OAStatus string `json:"oa_status"`
	} `json:"open_access"`
	BestOALocation  *openAlexLocation  `json:"best_oa_location"`
	PrimaryLocation *openAlexLocation  `json:"primary_location"`
	Locations       []openAlexLocation `json:"locations"`
}

// openAlexLocation represents a location in the OpenAlex response.
type openAlexLocation struct {
	PDFURL     string `json:"pdf_url"`
	LandingURL string `json:"landing_page_url"`
	IsOA       bool   `json:"is_oa"`
}

// Discover returns the best OA PDF URL, followed by any other OA location
// PDFs the work lists.
func (p *OpenAlex) Discover(ctx context.Context, rec *types.PublicationRecord) ([]types.CandidateURL, error) {
	if rec.DOI == "" {
		return nil, nil
	}

	apiURL := openAlexAPIBase + "https://doi.org/" + rec.DOI
	if p.Mailto != "" {
		apiURL += "?mailto=" + p.Mailto
	}

	resp, err := getJSON(ctx, p.Client, apiURL, p.UserAgent, nil)
	if err != nil || resp == nil {
		return nil, err
	}
	defer resp.Body.Close()

	var oar openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oar); err != nil {
		return nil, fmt.Errorf("parsing OpenAlex response: %w", err)
	}

	oa := oaStatusFrom(oar.OpenAccess.OAStatus)
	var out []types.CandidateURL
	seen := make(map[string]bool)

	if loc := oar.BestOALocation; loc != nil && loc.PDFURL != "" {
		out = append(out, candidate(loc.PDFURL, p.Name(), p.Priority(), 0.9, oa))
		seen[loc.PDFURL] = true
	}
	for _, loc := range oar.Locations {
		if !loc.IsOA || loc.PDFURL == "" || seen[loc.PDFURL] {
			continue
		}
		seen[loc.PDFURL] = true
		out = append(out, candidate(loc.PDFURL, p.Name(), p.Priority(), 0.65, oa))
	}
	return out, nil
}
