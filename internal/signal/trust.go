package signal

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nao1215/aiaudit/internal/model"
)

var (
	credentialPattern = regexp.MustCompile(`\b(M\.?D|D\.?O|Ph\.?D|DDS|DMD|FACP|FAAP|FACS|MBBS|NP|PA-C|RN)\b|(?i:board[- ]certified)`)
	bylinePattern     = regexp.MustCompile(`(?i)\b(written|posted|authored) by\b|\bby dr\.?\s|\bauthor:`)
	reviewerPattern   = regexp.MustCompile(`(?i)medically reviewed|reviewed by|medical review(er)?\b|監修`)
	updatedPattern    = regexp.MustCompile(`(?i)last (updated|reviewed|modified)|updated on|更新日`)
)

// citationHosts are domains whose links count as medical citations.
var citationHosts = []string{
	".gov", ".edu", "nih.gov", "pubmed", "ncbi.nlm.nih.gov", "who.int", "cdc.gov",
	"doi.org", "nejm.org", "thelancet.com", "bmj.com", "jamanetwork.com", "cochranelibrary.com",
}

// ExtractTrust finds E-E-A-T trust indicators on one page.
func ExtractTrust(htmlText, pageURL string) model.TrustSignals {
	base, _ := url.Parse(pageURL) //nolint:errcheck // a nil base disables host checks
	doc := parseDocument(htmlText)
	var sig model.TrustSignals

	sig.HasHTTPS = base != nil && base.Scheme == "https"

	bodyText := doc.Find("body").Text()

	sig.HasAuthorByline = doc.Find(`[rel="author"], [itemprop="author"], .author, .byline, #author, meta[name="author"]`).Length() > 0 ||
		bylinePattern.MatchString(bodyText)
	sig.HasMedicalReviewer = doc.Find(`[itemprop="reviewedBy"], .reviewer, .medical-reviewer`).Length() > 0 ||
		reviewerPattern.MatchString(bodyText)
	sig.HasCredentials = credentialPattern.MatchString(bodyText)
	sig.HasLastUpdated = doc.Find(`meta[property="article:modified_time"], [itemprop="dateModified"], time[datetime]`).Length() > 0 ||
		updatedPattern.MatchString(bodyText)
	sig.HasCitations = doc.Find("cite, blockquote[cite]").Length() > 0

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := attrLower(s, "href")
		text := strings.ToLower(strings.TrimSpace(s.Text()))

		switch {
		case strings.HasPrefix(href, "tel:"), strings.HasPrefix(href, "mailto:"):
			sig.HasContactInfo = true
		case strings.Contains(href, "/contact"):
			sig.HasContactInfo = true
		}
		if strings.Contains(href, "privacy") || strings.Contains(text, "privacy") {
			sig.HasPrivacyPolicy = true
		}
		if strings.Contains(href, "terms") || strings.Contains(text, "terms of") {
			sig.HasTermsPage = true
		}
		if strings.Contains(href, "/about") || text == "about" || text == "about us" {
			sig.HasAboutPage = true
		}

		u := resolveLink(base, href)
		if u == nil || (base != nil && hostKey(u.Host) == hostKey(base.Host)) {
			return
		}
		if containsAny(hostKey(u.Host)+u.Path, citationHosts...) {
			sig.CitationCount++
		}
	})
	if sig.CitationCount > 0 {
		sig.HasCitations = true
	}

	return sig
}
