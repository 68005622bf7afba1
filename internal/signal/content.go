package signal

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/nao1215/aiaudit/internal/model"
)

// faqMarkers are heading texts that indicate an FAQ section.
var faqMarkers = []string{"faq", "frequently asked", "common questions", "よくある質問"}

// ExtractContent measures structure and text of one page. pageURL is used
// to resolve links and to tell internal from external ones.
func ExtractContent(htmlText, pageURL string) model.ContentSignals {
	base, _ := url.Parse(pageURL) //nolint:errcheck // a nil base leaves links unresolved
	doc := parseDocument(htmlText)
	var sig model.ContentSignals

	sig.H1Count = doc.Find("h1").Length()
	sig.H2Count = doc.Find("h2").Length()
	sig.HeadingCount = doc.Find("h1, h2, h3, h4, h5, h6").Length()
	sig.ListCount = doc.Find("ul, ol").Length()
	sig.ParagraphCount = doc.Find("p").Length()

	doc.Find("h1, h2, h3, h4, summary, dt").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if containsAny(strings.ToLower(s.Text()), faqMarkers...) {
			sig.FAQPresent = true
			return false
		}
		return true
	})
	if !sig.FAQPresent && doc.Find("details").Length() >= 2 {
		sig.FAQPresent = true
	}

	countLinks(doc, base, &sig)
	countImages(doc, base, &sig)

	text := readableText(htmlText, base)
	sig.ReadableTextLength = len(text)
	if text == "" {
		doc.Find("script, style, noscript, template").Remove()
		text = doc.Find("body").Text()
	}
	normalized := normalizeText(text)
	sig.WordCount, sig.AvgSentenceLength = textStats(normalized)
	sig.Fingerprint = fingerprint(normalized)

	return sig
}

// readableText returns the main article text, or "" when none could be
// extracted.
func readableText(htmlText string, base *url.URL) string {
	if base == nil {
		base = &url.URL{Scheme: "https", Host: "localhost"}
	}
	article, err := readability.FromReader(strings.NewReader(htmlText), base)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(article.TextContent)
}

func countLinks(doc *goquery.Document, base *url.URL, sig *model.ContentSignals) {
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		u := resolveLink(base, href)
		if u == nil {
			return
		}
		if base != nil && hostKey(u.Host) == hostKey(base.Host) {
			sig.InternalLinks++
		} else {
			sig.ExternalLinks++
		}
	})
}

// countImages counts images and records same-site image URLs for the
// imagery extractor.
func countImages(doc *goquery.Document, base *url.URL, sig *model.ContentSignals) {
	seen := make(map[string]bool)
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		sig.ImageCount++
		if alt, ok := s.Attr("alt"); ok && strings.TrimSpace(alt) != "" {
			sig.ImagesWithAlt++
		}
		src, _ := s.Attr("src")
		u := resolveLink(base, src)
		if u == nil || base == nil || hostKey(u.Host) != hostKey(base.Host) {
			return
		}
		if !seen[u.String()] {
			seen[u.String()] = true
			sig.ImageURLs = append(sig.ImageURLs, u.String())
		}
	})
}
