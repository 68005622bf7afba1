package crawler

import (
	"bytes"
	"compress/gzip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// maxSitemapBytes bounds a decompressed sitemap.
const maxSitemapBytes = 50 * 1024 * 1024

type sitemapLoc struct {
	Loc string `xml:"loc"`
}

// sitemapDocument matches both <urlset> and <sitemapindex> roots.
type sitemapDocument struct {
	XMLName  xml.Name
	URLs     []sitemapLoc `xml:"url"`
	Sitemaps []sitemapLoc `xml:"sitemap"`
}

// parseSitemap returns the page URLs of a urlset and the child sitemap
// URLs of a sitemap index. Gzip-compressed bodies are accepted.
func parseSitemap(body []byte) (pages, children []string, err error) {
	if len(body) >= 2 && body[0] == 0x1f && body[1] == 0x8b {
		zr, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open gzip sitemap: %w", err)
		}
		defer zr.Close()
		body, err = io.ReadAll(io.LimitReader(zr, maxSitemapBytes))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to decompress sitemap: %w", err)
		}
	}

	var doc sitemapDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, nil, fmt.Errorf("failed to parse sitemap: %w", err)
	}

	switch doc.XMLName.Local {
	case "urlset":
		for _, u := range doc.URLs {
			if loc := strings.TrimSpace(u.Loc); loc != "" {
				pages = append(pages, loc)
			}
		}
	case "sitemapindex":
		for _, s := range doc.Sitemaps {
			if loc := strings.TrimSpace(s.Loc); loc != "" {
				children = append(children, loc)
			}
		}
	default:
		return nil, nil, fmt.Errorf("unexpected sitemap root element %q", doc.XMLName.Local)
	}
	return pages, children, nil
}
