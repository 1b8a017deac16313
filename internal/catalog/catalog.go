// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog is the read-only client for the dataset-search
// collaborator. The engine only ever asks it to resolve a dataset ID into
// its catalog record; everything else about datasets is out of scope.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/fulltext-engine/internal/httputil"
	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// Client looks up dataset records over HTTP.
type Client struct {
	client     *http.Client
	baseURL    string
	userAgent  string
	maxRetries int
}

// New builds a catalog client. A nil httpClient uses http.DefaultClient.
func New(httpClient *http.Client, cfg types.CatalogConfig) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		client:     httpClient,
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
	}
}

// LookupDataset resolves id against the catalog. A 404 returns (nil, nil);
// the caller decides whether an unknown dataset is an error. The
// collaborator offers no retry contract, so transient statuses are retried
// here.
func (c *Client) LookupDataset(ctx context.Context, id string) (*types.Dataset, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("catalog base URL not configured")
	}

	endpoint := fmt.Sprintf("%s/datasets/%s", c.baseURL, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := httputil.DoWithRetry(ctx, c.client, req, c.maxRetries)
	if err != nil {
		return nil, fmt.Errorf("looking up dataset %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog returned HTTP %d for dataset %s", resp.StatusCode, id)
	}

	var ds types.Dataset
	if err := json.NewDecoder(resp.Body).Decode(&ds); err != nil {
		return nil, fmt.Errorf("decoding dataset %s: %w", id, err)
	}
	return &ds, nil
}
