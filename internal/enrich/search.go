package enrich

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const defaultSearchBaseURL = "https://www.googleapis.com"

// SearchItem is one organic search result.
type SearchItem struct {
	Title       string
	Link        string
	DisplayLink string
}

// SearchResults is one page of search results.
type SearchResults struct {
	Query        string
	TotalResults int
	Items        []SearchItem
}

// SearchClient queries the Custom Search JSON API.
type SearchClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	engineID   string
}

// SearchOption configures a SearchClient.
type SearchOption func(*SearchClient)

// WithSearchBaseURL overrides the API endpoint.
func WithSearchBaseURL(u string) SearchOption {
	return func(c *SearchClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithSearchHTTPClient replaces the HTTP client.
func WithSearchHTTPClient(hc *http.Client) SearchOption {
	return func(c *SearchClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewSearchClient creates a SearchClient for the given programmable
// search engine.
func NewSearchClient(apiKey, engineID string, opts ...SearchOption) *SearchClient {
	c := &SearchClient{
		httpClient: newHTTPClient(),
		baseURL:    defaultSearchBaseURL,
		apiKey:     apiKey,
		engineID:   engineID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchResponse struct {
	SearchInformation struct {
		TotalResults string `json:"totalResults"`
	} `json:"searchInformation"`
	Items []struct {
		Title       string `json:"title"`
		Link        string `json:"link"`
		DisplayLink string `json:"displayLink"`
	} `json:"items"`
}

// Search returns the first page of results for query.
func (c *SearchClient) Search(ctx context.Context, query string) (*SearchResults, error) {
	if c.apiKey == "" || c.engineID == "" {
		return nil, fmt.Errorf("search: %w", ErrNoAPIKey)
	}

	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("cx", c.engineID)
	q.Set("q", query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/customsearch/v1?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("search: create request: %w", err)
	}

	var body searchResponse
	if err := doJSON(c.httpClient, "search", req, &body); err != nil {
		return nil, err
	}

	results := &SearchResults{Query: query}
	if s := body.SearchInformation.TotalResults; s != "" {
		total, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("search: invalid totalResults %q: %w", s, err)
		}
		results.TotalResults = total
	}
	for _, it := range body.Items {
		results.Items = append(results.Items, SearchItem{Title: it.Title, Link: it.Link, DisplayLink: it.DisplayLink})
	}
	if results.TotalResults < len(results.Items) {
		results.TotalResults = len(results.Items)
	}
	return results, nil
}

// Backlinks estimates how many pages mention domain outside the domain
// itself.
func (c *SearchClient) Backlinks(ctx context.Context, domain string) (int, error) {
	results, err := c.Search(ctx, backlinkQuery(domain))
	if err != nil {
		return 0, err
	}
	return results.TotalResults, nil
}

func backlinkQuery(domain string) string {
	return fmt.Sprintf("%q -site:%s", domain, domain)
}
