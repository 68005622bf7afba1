package config

import (
	"maps"
	"slices"
	"strings"

	"github.com/nao1215/aiaudit/internal/crawler"
)

// SiteConfig holds the settings for one audited site.
type SiteConfig struct {
	// BusinessName is the clinic name used for review lookups. When empty
	// the domain is used.
	BusinessName string `yaml:"business_name,omitempty"`

	// Address disambiguates clinics with the same name.
	Address string `yaml:"address,omitempty"`

	// Queries are the search queries visibility is measured against.
	Queries []string `yaml:"queries,omitempty"`

	// FilterType overrides the global page filter.
	FilterType string `yaml:"filter_type,omitempty"`

	// MaxPages overrides the global page cap. Zero keeps the global value.
	MaxPages int `yaml:"max_pages,omitempty"`

	// Cookie is sent with every request to the site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers sent with every request to the site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// IgnorePatterns are URL path globs dropped from discovery.
	IgnorePatterns []string `yaml:"ignore_patterns,omitempty"`
}

// RequestHeaders returns Headers plus the Cookie header when set.
func (s SiteConfig) RequestHeaders() map[string]string {
	if s.Cookie == "" && len(s.Headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(s.Headers)+1)
	maps.Copy(out, s.Headers)
	if s.Cookie != "" {
		out["Cookie"] = s.Cookie
	}
	return out
}

// File is the structure of the .aiaudit.yaml configuration file.
type File struct {
	// Sites maps a site URL or bare domain to its settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to every site unless overridden.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the settings for siteURL merged over the
// defaults. Site keys match by normalized site key, so "clinic.example",
// "https://www.clinic.example/" and "https://clinic.example" are the
// same site.
func (cf *File) GetSiteConfig(siteURL string) SiteConfig {
	result := cf.Defaults
	result.Headers = maps.Clone(cf.Defaults.Headers)

	siteConfig, ok := cf.lookup(siteURL)
	if !ok {
		return result
	}

	if siteConfig.BusinessName != "" {
		result.BusinessName = siteConfig.BusinessName
	}
	if siteConfig.Address != "" {
		result.Address = siteConfig.Address
	}
	if len(siteConfig.Queries) > 0 {
		result.Queries = siteConfig.Queries
	}
	if siteConfig.FilterType != "" {
		result.FilterType = siteConfig.FilterType
	}
	if siteConfig.MaxPages != 0 {
		result.MaxPages = siteConfig.MaxPages
	}
	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		maps.Copy(result.Headers, siteConfig.Headers)
	}
	if len(siteConfig.IgnorePatterns) > 0 {
		result.IgnorePatterns = siteConfig.IgnorePatterns
	}
	return result
}

// SiteURLs returns the configured sites as root URLs in sorted order.
// Bare domains are given an https scheme.
func (cf *File) SiteURLs() []string {
	urls := make([]string, 0, len(cf.Sites))
	for name := range cf.Sites {
		urls = append(urls, crawler.EnsureScheme(name))
	}
	slices.Sort(urls)
	return slices.Compact(urls)
}

func (cf *File) lookup(siteURL string) (SiteConfig, bool) {
	if sc, ok := cf.Sites[siteURL]; ok {
		return sc, true
	}
	key := siteKey(siteURL)
	for name, sc := range cf.Sites {
		if siteKey(name) == key {
			return sc, true
		}
	}
	return SiteConfig{}, false
}

// siteKey compares sites by host and path, ignoring the scheme.
func siteKey(raw string) string {
	key := crawler.Key(crawler.EnsureScheme(raw))
	if rest, ok := strings.CutPrefix(key, "https://"); ok {
		return rest
	}
	return strings.TrimPrefix(key, "http://")
}
