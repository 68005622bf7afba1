package model

import (
	"net/url"
	"strings"
)

// PageKind classifies a page by its URL path.
type PageKind int

const (
	// PageKindOther is any page that matches no other pattern.
	PageKindOther PageKind = iota
	// PageKindHome is the site root.
	PageKindHome
	// PageKindBlog is a blog or news post.
	PageKindBlog
	// PageKindArticle is an article or patient resource.
	PageKindArticle
	// PageKindDoctor is a doctor, physician or staff profile.
	PageKindDoctor
	// PageKindContact is a contact page.
	PageKindContact
	// PageKindLocation is a location or directions page.
	PageKindLocation
)

// String returns the lower-case name of the kind.
func (k PageKind) String() string {
	switch k {
	case PageKindHome:
		return "home"
	case PageKindBlog:
		return "blog"
	case PageKindArticle:
		return "article"
	case PageKindDoctor:
		return "doctor"
	case PageKindContact:
		return "contact"
	case PageKindLocation:
		return "location"
	default:
		return "other"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k PageKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *PageKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "home":
		*k = PageKindHome
	case "blog":
		*k = PageKindBlog
	case "article":
		*k = PageKindArticle
	case "doctor":
		*k = PageKindDoctor
	case "contact":
		*k = PageKindContact
	case "location":
		*k = PageKindLocation
	default:
		*k = PageKindOther
	}
	return nil
}

// kindPatterns is checked in order; the first matching path fragment wins.
var kindPatterns = []struct {
	kind     PageKind
	patterns []string
}{
	{PageKindDoctor, []string{"/doctor", "/physician", "/our-team", "/team/", "/staff/", "/provider"}},
	{PageKindBlog, []string{"/blog/", "/blog", "/news/", "/posts/"}},
	{PageKindArticle, []string{"/articles/", "/article/", "/resources/", "/conditions/", "/treatments/"}},
	{PageKindContact, []string{"/contact"}},
	{PageKindLocation, []string{"/location", "/directions", "/find-us", "/access"}},
}

// ClassifyURL returns the PageKind of a URL based on its path.
// Unparseable URLs are PageKindOther.
func ClassifyURL(rawURL string) PageKind {
	u, err := url.Parse(rawURL)
	if err != nil {
		return PageKindOther
	}
	path := strings.ToLower(u.Path)
	if path == "" || path == "/" {
		return PageKindHome
	}
	for _, kp := range kindPatterns {
		for _, p := range kp.patterns {
			if strings.Contains(path, p) {
				return kp.kind
			}
		}
	}
	return PageKindOther
}
