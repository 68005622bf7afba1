package signal

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"github.com/nao1215/aiaudit/internal/model"
)

var (
	streetPattern     = regexp.MustCompile(`(?i)\b\d{1,6}\s+[\w.\s]{2,40}\b(street|st\.?|avenue|ave\.?|road|rd\.?|boulevard|blvd\.?|drive|dr\.?|lane|ln\.?|suite|way)\b|〒\s?\d{3}-\d{4}`)
	phonePattern      = regexp.MustCompile(`\(?\b\d{3}\)?[\s.-]\d{3}[\s.-]\d{4}\b|\b0\d{1,4}-\d{1,4}-\d{4}\b|\+\d{1,3}[\s-]\d{1,4}[\s-]\d{3,4}[\s-]\d{3,4}`)
	hoursPattern      = regexp.MustCompile(`(?i)(opening|office|clinic|business) hours|hours of operation|診療時間|\b(mon|tue|wed|thu|fri|sat|sun)[a-z]*\.?\s*[-–:]?\s*\d{1,2}(:\d{2})?\s*(am|pm)?\s*[-–]\s*\d{1,2}(:\d{2})?`)
	directionsPattern = regexp.MustCompile(`(?i)\bdirections\b|\bparking\b|how to get here|getting here|アクセス|交通案内`)
)

// mapHosts identify embedded or linked maps.
var mapHosts = []string{"google.com/maps", "maps.google", "goo.gl/maps", "maps.app.goo.gl", "openstreetmap.org", "bing.com/maps", "maps.apple.com"}

// ExtractLocal finds local-SEO indicators on one page. schema is the
// page's already extracted JSON-LD record.
func ExtractLocal(htmlText string, schema model.SchemaSignals) model.LocalSignals {
	doc := parseDocument(htmlText)
	bodyText := doc.Find("body").Text()
	var sig model.LocalSignals

	sig.HasAddress = doc.Find(`address, [itemprop="address"], [itemprop="streetAddress"]`).Length() > 0 ||
		streetPattern.MatchString(bodyText)
	sig.HasPhone = doc.Find(`a[href^="tel:"], [itemprop="telephone"]`).Length() > 0 ||
		phonePattern.MatchString(bodyText)
	sig.HasOpeningHours = doc.Find(`[itemprop="openingHours"], [itemprop="openingHoursSpecification"]`).Length() > 0 ||
		hoursPattern.MatchString(bodyText)
	sig.HasDirections = directionsPattern.MatchString(bodyText)

	doc.Find("iframe[src], a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		target := attrLower(s, "src")
		if target == "" {
			target = attrLower(s, "href")
		}
		if containsAny(target, mapHosts...) {
			sig.HasMap = true
			return false
		}
		return true
	})

	for _, t := range LocalBusinessSchemaTypes {
		if schema.IsValid(t) {
			sig.HasLocalBusinessSchema = true
			break
		}
	}
	return sig
}
