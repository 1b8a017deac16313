// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// pmcOAAPIBase is the PMC Open Access service endpoint. Declared as a var
// so tests can substitute an httptest server.
var pmcOAAPIBase = "https://www.ncbi.nlm.nih.gov/pmc/utils/oa/oa.fcgi"

// PMC queries the NCBI PMC Open Access service for archive/PDF links of a
// PMC-ID.
type PMC struct {
	Client    *http.Client
	UserAgent string
}

func (p *PMC) Name() types.ProviderName     { return types.ProviderPMC }
func (p *PMC) Priority() types.PriorityBand { return types.BandOpenAccess }

// pmcOAResult mirrors the oa.fcgi XML response.
type pmcOAResult struct {
	XMLName xml.Name `xml:"OA"`
	Error   *struct {
		Code string `xml:"code,attr"`
	} `xml:"error"`
	Records struct {
		Record []struct {
			Links []pmcOALink `xml:"link"`
		} `xml:"record"`
	} `xml:"records"`
}

type pmcOALink struct {
	Format string `xml:"format,attr"`
	Href   string `xml:"href,attr"`
}

// Discover returns the OA service links for records carrying a PMC-ID.
// The service answers with an <error code="idIsNotOpenAccess"> element for
// paywalled articles; that maps to an empty result, not an error.
func (p *PMC) Discover(ctx context.Context, rec *types.PublicationRecord) ([]types.CandidateURL, error) {
	if rec.PMCID == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pmcOAAPIBase+"?id="+rec.PMCID, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", p.UserAgent)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("PMC OA request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("PMC OA service returned HTTP %d", resp.StatusCode)
	}

	var result pmcOAResult
	if err := xml.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("parsing PMC OA response: %w", err)
	}
	if result.Error != nil {
		return nil, nil
	}

	var out []types.CandidateURL
	for _, record := range result.Records.Record {
		for _, link := range record.Links {
			if link.Href == "" {
				continue
			}
			conf := 0.6
			if link.Format == "pdf" {
				conf = 0.9
			}
			// The service hands out ftp:// URLs for some records;
			// rewrite to the HTTPS mirror NCBI serves in parallel.
			href := strings.Replace(link.Href, "ftp://ftp.ncbi.nlm.nih.gov/", "https://ftp.ncbi.nlm.nih.gov/", 1)
			out = append(out, candidate(href, p.Name(), p.Priority(), conf, types.OAGreen))
		}
	}
	return out, nil
}
