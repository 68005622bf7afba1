package crawler

import (
	"net/url"
	"strings"
)

// NormalizeURL returns the deduplication key of a URL: lower-case scheme
// and host, no "www." prefix, no fragment, no trailing slash, no default
// port. Unparseable input is returned trimmed.
func NormalizeURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if port := u.Port(); port != "" && !isDefaultPort(u.Scheme, port) {
		host += ":" + port
	}
	u.Host = host
	u.Fragment = ""
	u.RawFragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""

	return u.String()
}

// Key returns the normalized site key for a root URL, the identity under
// which audits of the same site are stored and compared.
func Key(rootURL string) string {
	u, err := url.Parse(strings.TrimSpace(rootURL))
	if err != nil || u.Host == "" {
		return NormalizeURL(rootURL)
	}
	u.RawQuery = ""
	return NormalizeURL(u.String())
}

// EnsureScheme prefixes "https://" when rawURL has no scheme.
func EnsureScheme(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" || strings.Contains(rawURL, "://") {
		return rawURL
	}
	return "https://" + rawURL
}

// stripFragment removes the fragment but otherwise keeps the URL as
// written, so that the fetched URL is the one the site published.
func stripFragment(rawURL string) string {
	if i := strings.IndexByte(rawURL, '#'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

// sameSite reports whether two URLs share a host, ignoring "www.".
func sameSite(a, b *url.URL) bool {
	return hostKey(a.Hostname()) == hostKey(b.Hostname())
}

func hostKey(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}

func isDefaultPort(scheme, port string) bool {
	return (scheme == "http" && port == "80") || (scheme == "https" && port == "443")
}
