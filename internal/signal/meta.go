package signal

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/nao1215/aiaudit/internal/model"
)

// Optimal length bands in characters.
const (
	TitleMinLength       = 30
	TitleMaxLength       = 60
	DescriptionMinLength = 120
	DescriptionMaxLength = 160
)

// ExtractMeta reads the title, description and related head tags.
func ExtractMeta(htmlText string) model.MetaSignals {
	doc := parseDocument(htmlText)
	var sig model.MetaSignals

	if title := doc.Find("title").First(); title.Length() > 0 {
		sig.TitlePresent = true
		sig.Title = strings.TrimSpace(title.Text())
		sig.TitleLength = utf8.RuneCountInString(sig.Title)
		sig.TitleOptimal = sig.TitleLength >= TitleMinLength && sig.TitleLength <= TitleMaxLength
	}

	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		name := attrLower(s, "name")
		property := attrLower(s, "property")
		content, _ := s.Attr("content")

		switch {
		case name == "description" && !sig.DescriptionPresent:
			sig.DescriptionPresent = true
			sig.Description = strings.TrimSpace(content)
			sig.DescriptionLength = utf8.RuneCountInString(sig.Description)
			sig.DescriptionOptimal = sig.DescriptionLength >= DescriptionMinLength &&
				sig.DescriptionLength <= DescriptionMaxLength
		case name == "viewport":
			sig.ViewportPresent = true
		case strings.HasPrefix(property, "og:"):
			sig.OpenGraphCount++
		}
	})

	doc.Find("link").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if attrLower(s, "rel") == "canonical" {
			href, _ := s.Attr("href")
			sig.CanonicalPresent = strings.TrimSpace(href) != ""
			return false
		}
		return true
	})

	sig.Lang = attrLower(doc.Find("html").First(), "lang")
	return sig
}
