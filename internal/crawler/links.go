package crawler

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// skippedExtensions are link targets that are never audit pages.
var skippedExtensions = []string{
	".pdf", ".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg", ".ico",
	".css", ".js", ".zip", ".mp4", ".mp3", ".xml", ".txt", ".doc", ".docx",
}

// LinkExtractor pulls same-site page links out of an HTML document.
type LinkExtractor struct {
	base *url.URL
}

// NewLinkExtractor creates an extractor that resolves links against
// pageURL.
func NewLinkExtractor(pageURL string) (*LinkExtractor, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	return &LinkExtractor{base: u}, nil
}

// Extract returns the absolute, fragment-free URLs of every <a href>
// that stays on the base host, in document order. Non-page resources
// and rel="nofollow" links are skipped.
func (e *LinkExtractor) Extract(content io.Reader) ([]string, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	var links []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if link := e.pageLink(n); link != "" {
				links = append(links, link)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return links, nil
}

// pageLink returns the resolved same-site link of an anchor, or "".
func (e *LinkExtractor) pageLink(n *html.Node) string {
	if strings.Contains(strings.ToLower(getAttr(n, "rel")), "nofollow") {
		return ""
	}
	resolved := e.resolveURL(getAttr(n, "href"))
	if resolved == nil {
		return ""
	}
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	if !sameSite(resolved, e.base) {
		return ""
	}
	path := strings.ToLower(resolved.Path)
	for _, ext := range skippedExtensions {
		if strings.HasSuffix(path, ext) {
			return ""
		}
	}
	resolved.Fragment = ""
	resolved.RawFragment = ""
	return resolved.String()
}

// resolveURL resolves href against the base URL, skipping script, mail,
// phone, data and same-page anchors.
func (e *LinkExtractor) resolveURL(href string) *url.URL {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return nil
	}
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") ||
		strings.HasPrefix(lower, "mailto:") ||
		strings.HasPrefix(lower, "tel:") ||
		strings.HasPrefix(lower, "data:") {
		return nil
	}

	u, err := url.Parse(href)
	if err != nil {
		return nil
	}
	return e.base.ResolveReference(u)
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
