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

// europePMCAPIBase is the Europe PMC REST search endpoint. Declared as a
// var so tests can substitute an httptest server.
var europePMCAPIBase = "https://www.ebi.ac.uk/europepmc/webservices/rest/search"

// EuropePMC queries the Europe PMC REST API for full-text links. It can
// search by DOI, PMID, or PMC-ID, so it also serves records that carry no
// DOI at all.
type EuropePMC struct {
	Client    *http.Client
	UserAgent string
}

func (p *EuropePMC) Name() types.ProviderName     { return types.ProviderEuropePMC }
func (p *EuropePMC) Priority() types.PriorityBand { return types.BandOpenAccess }

// europePMCResponse mirrors the Europe PMC search result list.
type europePMCResponse struct {
	ResultList struct {
		Result []europePMCArticle `json:"result"`
	} `json:"resultList"`
}

type europePMCArticle struct {
	PMID            string `json:"pmid"`
	PMCID           string `json:"pmcid"`
	DOI             string `json:"doi"`
	IsOpenAccess    string `json:"isOpenAccess"`
	FullTextURLList struct {
		FullTextURL []europePMCFullTextURL `json:"fullTextUrl"`
	} `json:"fullTextUrlList"`
}

type europePMCFullTextURL struct {
	Availability  string `json:"availability"`
	DocumentStyle string `json:"documentStyle"`
	Site          string `json:"site"`
	URL           string `json:"url"`
}

// Discover searches Europe PMC by the strongest identifier the record has
// and maps the article's full-text URL list to candidates. PDF-style links
// score above HTML ones.
func (p *EuropePMC) Discover(ctx context.Context, rec *types.PublicationRecord) ([]types.CandidateURL, error) {
	query := europePMCQuery(rec)
	if query == "" {
		return nil, nil
	}

	apiURL := fmt.Sprintf("%s?query=%s&resultType=core&format=json", europePMCAPIBase, url.QueryEscape(query))
	resp, err := getJSON(ctx, p.Client, apiURL, p.UserAgent, nil)
	if err != nil || resp == nil {
		return nil, err
	}
	defer resp.Body.Close()

	var er europePMCResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("parsing Europe PMC response: %w", err)
	}
	if len(er.ResultList.Result) == 0 {
		return nil, nil
	}

	article := er.ResultList.Result[0]
	oa := types.OAUnknown
	if article.IsOpenAccess == "Y" {
		oa = types.OAGreen
	}

	var out []types.CandidateURL
	for _, ft := range article.FullTextURLList.FullTextURL {
		if ft.URL == "" {
			continue
		}
		conf := 0.6
		if ft.DocumentStyle == "pdf" {
			conf = 0.85
		}
		if ft.Availability == "Subscription required" {
			conf -= 0.3
		}
		out = append(out, candidate(ft.URL, p.Name(), p.Priority(), conf, oa))
	}
	return out, nil
}

// europePMCQuery builds the strongest identifier query the record allows.
func europePMCQuery(rec *types.PublicationRecord) string {
	switch {
	case rec.DOI != "":
		return fmt.Sprintf("DOI:%q", rec.DOI)
	case rec.PMID != "":
		return "EXT_ID:" + rec.PMID + " AND SRC:MED"
	case rec.PMCID != "":
		return "PMCID:" + rec.PMCID
	default:
		return ""
	}
}
