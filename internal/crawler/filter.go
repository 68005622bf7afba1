package crawler

import (
	"net/url"
	"path/filepath"
	"strings"
)

// FilterType restricts discovery to one family of pages.
type FilterType string

const (
	// FilterAll keeps every candidate.
	FilterAll FilterType = "all"
	// FilterBlog keeps blog, article and news pages.
	FilterBlog FilterType = "blog"
	// FilterDoctors keeps doctor, physician and staff pages.
	FilterDoctors FilterType = "doctors"
	// FilterArticles keeps article and resource pages.
	FilterArticles FilterType = "articles"
)

// filterPatterns are matched as substrings of the lower-cased URL path.
var filterPatterns = map[FilterType][]string{
	FilterBlog:     {"/blog/", "/articles/", "/news/"},
	FilterDoctors:  {"/doctor", "/doctors/", "/physicians/", "/team/", "/staff/"},
	FilterArticles: {"/articles/", "/article/", "/resources/"},
}

// FilterTypes returns every accepted filter type.
func FilterTypes() []FilterType {
	return []FilterType{FilterAll, FilterBlog, FilterDoctors, FilterArticles}
}

// Valid reports whether f is a known filter type. The empty value is
// treated as FilterAll.
func (f FilterType) Valid() bool {
	if f == "" {
		return true
	}
	for _, known := range FilterTypes() {
		if f == known {
			return true
		}
	}
	return false
}

// Matches reports whether rawURL belongs to the filter's page family.
func (f FilterType) Matches(rawURL string) bool {
	patterns, ok := filterPatterns[f]
	if !ok {
		return true
	}
	path := urlPath(rawURL)
	// The directory patterns also match their index page, "/blog" for "/blog/".
	withSlash := strings.TrimSuffix(path, "/") + "/"
	for _, p := range patterns {
		if strings.Contains(path, p) || strings.Contains(withSlash, p) {
			return true
		}
	}
	return false
}

// ignored reports whether rawURL's path matches any ignore pattern.
func ignored(rawURL string, patterns []string) bool {
	path := urlPath(rawURL)
	for _, pattern := range patterns {
		if matchPattern(pattern, path) {
			return true
		}
	}
	return false
}

func urlPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if u.Path == "" {
		return "/"
	}
	return strings.ToLower(u.Path)
}

// matchPattern checks if a path matches a glob pattern:
//   - "/admin/*" matches "/admin" and everything below it
//   - "*.pdf" matches any path with that extension
//   - other patterns use filepath.Match, and patterns without a slash are
//     also tried against the last path segment
func matchPattern(pattern, path string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
	}
	if ext, ok := strings.CutPrefix(pattern, "*."); ok && strings.HasSuffix(path, "."+ext) {
		return true
	}

	if matched, err := filepath.Match(pattern, path); err == nil && matched {
		return true
	}
	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		if matched, err := filepath.Match(pattern, filepath.Base(path)); err == nil && matched {
			return true
		}
	}
	return false
}
