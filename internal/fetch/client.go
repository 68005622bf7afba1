package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nao1215/aiaudit/internal/model"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

// DefaultUserAgent identifies audit requests to the site being audited.
const DefaultUserAgent = "aiaudit/1.0 (+https://github.com/nao1215/aiaudit)"

// maxRedirects limits redirect chains.
const maxRedirects = 10

// Response is the outcome of one GET. A non-2xx status is a Response,
// not an error; only transport failures return an error.
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
	Elapsed    time.Duration
}

// OK reports whether the status is in the 2xx range.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Page converts the response into a fetched page record.
func (r *Response) Page() model.FetchedPage {
	page := model.FetchedPage{
		URL:        r.URL,
		StatusCode: r.StatusCode,
		Header:     r.Header,
		Body:       r.Body,
		Elapsed:    r.Elapsed,
	}
	if r.Header != nil {
		page.ContentType = r.Header.Get("Content-Type")
	}
	page.ComputeHash()
	return page
}

// Client fetches a single URL. Implementations must honor ctx for both
// the request and the body read.
type Client interface {
	Fetch(ctx context.Context, rawURL string) (*Response, error)
}

// HTTPClient is the default Client built on net/http.
type HTTPClient struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
	headers     map[string]string
	limiter     *rate.Limiter
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *HTTPClient) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithMaxBodySize caps the number of body bytes read per response.
func WithMaxBodySize(size int64) ClientOption {
	return func(c *HTTPClient) {
		if size > 0 {
			c.maxBodySize = size
		}
	}
}

// WithCrawlDelay spaces requests at least d apart. Zero disables the limit.
func WithCrawlDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		if d > 0 {
			c.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithHeaders adds headers to every request.
func WithHeaders(headers map[string]string) ClientOption {
	return func(c *HTTPClient) {
		c.headers = headers
	}
}

// WithHTTPClient replaces the underlying *http.Client. The client's
// transport is used as is.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *HTTPClient) {
		if hc != nil {
			c.client = hc
		}
	}
}

// NewHTTPClient creates an HTTPClient with a traced transport.
func NewHTTPClient(opts ...ClientOption) *HTTPClient {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 8
	transport.IdleConnTimeout = 30 * time.Second

	c := &HTTPClient{
		client: &http.Client{
			Transport: otelhttp.NewTransport(transport),
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		userAgent:   DefaultUserAgent,
		maxBodySize: model.MaxPageSize,
		limiter:     rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch performs a GET and reads at most the configured body size.
func (c *HTTPClient) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	return &Response{
		URL:        rawURL,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		Elapsed:    time.Since(start),
	}, nil
}
