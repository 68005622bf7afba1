package signal

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// parseDocument parses HTML into a goquery document. The HTML5 parser
// accepts any input, but an empty document is returned if it ever fails.
func parseDocument(text string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return goquery.NewDocumentFromNode(&html.Node{Type: html.DocumentNode})
	}
	return doc
}

// looksLikeHTML reports whether a well-known text file is actually an
// HTML page, which happens when a server answers unknown paths with its
// homepage.
func looksLikeHTML(text string) bool {
	head := strings.ToLower(strings.TrimSpace(text))
	if len(head) > 256 {
		head = head[:256]
	}
	return strings.HasPrefix(head, "<!doctype html") ||
		strings.HasPrefix(head, "<html") ||
		strings.Contains(head, "<head>")
}

// hostKey lower-cases a host and strips a leading "www.".
func hostKey(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}

// resolveLink resolves href against base. It returns nil for links that
// are not http(s) destinations.
func resolveLink(base *url.URL, href string) *url.URL {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return nil
	}
	lower := strings.ToLower(href)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return nil
		}
	}
	u, err := url.Parse(href)
	if err != nil {
		return nil
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil
	}
	return u
}

// attrLower returns the lower-cased, trimmed value of an attribute.
func attrLower(s *goquery.Selection, name string) string {
	v, _ := s.Attr(name)
	return strings.ToLower(strings.TrimSpace(v))
}

// containsAny reports whether s contains any of the substrings.
func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
