package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const (
	defaultCrawlServiceBaseURL = "https://api.firecrawl.dev"
	defaultBacklinkLimit       = 20
)

// CrawlServiceClient counts backlinks with the Firecrawl search API.
type CrawlServiceClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limit      int
}

// CrawlServiceOption configures a CrawlServiceClient.
type CrawlServiceOption func(*CrawlServiceClient)

// WithCrawlServiceBaseURL overrides the API endpoint.
func WithCrawlServiceBaseURL(u string) CrawlServiceOption {
	return func(c *CrawlServiceClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithCrawlServiceHTTPClient replaces the HTTP client.
func WithCrawlServiceHTTPClient(hc *http.Client) CrawlServiceOption {
	return func(c *CrawlServiceClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBacklinkLimit sets how many search results are inspected.
func WithBacklinkLimit(n int) CrawlServiceOption {
	return func(c *CrawlServiceClient) {
		if n > 0 {
			c.limit = n
		}
	}
}

// NewCrawlServiceClient creates a CrawlServiceClient.
func NewCrawlServiceClient(apiKey string, opts ...CrawlServiceOption) *CrawlServiceClient {
	c := &CrawlServiceClient{
		httpClient: newHTTPClient(),
		baseURL:    defaultCrawlServiceBaseURL,
		apiKey:     apiKey,
		limit:      defaultBacklinkLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type crawlSearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type crawlSearchResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    []struct {
		URL   string `json:"url"`
		Title string `json:"title"`
	} `json:"data"`
}

// Backlinks returns how many of the inspected search results mentioning
// domain are hosted elsewhere.
func (c *CrawlServiceClient) Backlinks(ctx context.Context, domain string) (int, error) {
	if c.apiKey == "" {
		return 0, fmt.Errorf("crawl service: %w", ErrNoAPIKey)
	}

	payload, err := json.Marshal(crawlSearchRequest{Query: backlinkQuery(domain), Limit: c.limit})
	if err != nil {
		return 0, fmt.Errorf("crawl service: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/search", bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("crawl service: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	var body crawlSearchResponse
	if err := doJSON(c.httpClient, "crawl service", req, &body); err != nil {
		return 0, err
	}
	if !body.Success {
		return 0, &APIError{Service: "crawl service", StatusCode: http.StatusOK, Message: body.Error}
	}

	n := 0
	for _, d := range body.Data {
		if !onDomain(d.URL, domain) {
			n++
		}
	}
	return n, nil
}
