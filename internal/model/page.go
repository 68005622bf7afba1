package model

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"
)

// MaxPageSize is the maximum size of a response body kept for analysis.
// Larger bodies are truncated by the fetch client.
const MaxPageSize = 5 * 1024 * 1024 // 5 MB

// FetchedPage is one successfully fetched URL.
type FetchedPage struct {
	// URL is the URL that was requested.
	URL string `json:"url"`

	// StatusCode is the HTTP response status code (always 2xx here).
	StatusCode int `json:"status_code"`

	// Header contains the response headers in canonical form.
	Header http.Header `json:"-"`

	// ContentType is the MIME type from the Content-Type header.
	ContentType string `json:"content_type,omitempty"`

	// Body is the response body, truncated to MaxPageSize.
	Body []byte `json:"-"`

	// Elapsed is the time from request start to the last body byte.
	Elapsed time.Duration `json:"elapsed"`

	// Hash is the hex SHA-256 of Body.
	Hash string `json:"hash,omitempty"`
}

// FetchFailure records a URL that could not be fetched and why.
type FetchFailure struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// FetchBatchResult is the outcome of one fetch batch. Every input URL
// appears exactly once across Succeeded and Failed. Abandoned lists the
// subset of Failed that was never attempted because the audit deadline
// passed.
type FetchBatchResult struct {
	Succeeded []FetchedPage  `json:"succeeded"`
	Failed    []FetchFailure `json:"failed"`
	Abandoned []string       `json:"abandoned,omitempty"`
}

// Total returns the number of URLs accounted for by the batch.
func (r *FetchBatchResult) Total() int {
	return len(r.Succeeded) + len(r.Failed)
}

// ComputeHash calculates and sets the SHA-256 hash of the body.
func (p *FetchedPage) ComputeHash() {
	if len(p.Body) == 0 {
		p.Hash = ""
		return
	}
	sum := sha256.Sum256(p.Body)
	p.Hash = hex.EncodeToString(sum[:])
}

// GetHeader returns the first value of the named header, or "".
func (p *FetchedPage) GetHeader(name string) string {
	if p.Header == nil {
		return ""
	}
	return p.Header.Get(name)
}

// IsHTML reports whether the content type indicates an HTML document.
// An empty content type is treated as HTML since many small sites omit it.
func (p *FetchedPage) IsHTML() bool {
	ct := strings.ToLower(strings.TrimSpace(p.ContentType))
	return ct == "" ||
		strings.HasPrefix(ct, "text/html") ||
		strings.HasPrefix(ct, "application/xhtml+xml")
}

// IsImage reports whether the content type indicates an image.
func (p *FetchedPage) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(p.ContentType), "image/")
}
