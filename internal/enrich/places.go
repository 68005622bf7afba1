package enrich

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const defaultPlacesBaseURL = "https://maps.googleapis.com"

// PlaceDetails is the business profile of the clinic.
type PlaceDetails struct {
	PlaceID     string
	Name        string
	Address     string
	Rating      float64
	ReviewCount int
}

// PlacesClient looks up business profiles with the Places text search API.
type PlacesClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// PlacesOption configures a PlacesClient.
type PlacesOption func(*PlacesClient)

// WithPlacesBaseURL overrides the API endpoint.
func WithPlacesBaseURL(u string) PlacesOption {
	return func(c *PlacesClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithPlacesHTTPClient replaces the HTTP client.
func WithPlacesHTTPClient(hc *http.Client) PlacesOption {
	return func(c *PlacesClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewPlacesClient creates a PlacesClient.
func NewPlacesClient(apiKey string, opts ...PlacesOption) *PlacesClient {
	c := &PlacesClient{
		httpClient: newHTTPClient(),
		baseURL:    defaultPlacesBaseURL,
		apiKey:     apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type placesResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		PlaceID          string  `json:"place_id"`
		Name             string  `json:"name"`
		FormattedAddress string  `json:"formatted_address"`
		Rating           float64 `json:"rating"`
		UserRatingsTotal int     `json:"user_ratings_total"`
	} `json:"results"`
}

// Lookup returns the best match for the business name and address.
func (c *PlacesClient) Lookup(ctx context.Context, name, address string) (*PlaceDetails, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("places: %w", ErrNoAPIKey)
	}

	q := url.Values{}
	q.Set("query", strings.TrimSpace(name+" "+address))
	q.Set("key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/maps/api/place/textsearch/json?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("places: create request: %w", err)
	}

	var body placesResponse
	if err := doJSON(c.httpClient, "places", req, &body); err != nil {
		return nil, err
	}

	switch body.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, fmt.Errorf("places: %w", ErrNotFound)
	default:
		return nil, &APIError{Service: "places", StatusCode: http.StatusOK, Message: strings.TrimSpace(body.Status + " " + body.ErrorMessage)}
	}
	if len(body.Results) == 0 {
		return nil, fmt.Errorf("places: %w", ErrNotFound)
	}

	top := body.Results[0]
	return &PlaceDetails{
		PlaceID:     top.PlaceID,
		Name:        top.Name,
		Address:     top.FormattedAddress,
		Rating:      top.Rating,
		ReviewCount: top.UserRatingsTotal,
	}, nil
}
