package model

import "fmt"

// Priority ranks a recommendation by its expected impact on the score.
type Priority int

const (
	// PriorityLow marks polish items with a small score effect.
	PriorityLow Priority = iota
	// PriorityMedium marks items that move one category noticeably.
	PriorityMedium
	// PriorityHigh marks items that block AI crawlers or cost a whole
	// category its credit.
	PriorityHigh
)

// String returns a human-readable representation of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "LOW"
	case PriorityMedium:
		return "MEDIUM"
	case PriorityHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Priority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Priority) UnmarshalText(text []byte) error {
	switch string(text) {
	case "LOW":
		*p = PriorityLow
	case "MEDIUM":
		*p = PriorityMedium
	case "HIGH":
		*p = PriorityHigh
	default:
		return fmt.Errorf("unknown priority %q", text)
	}
	return nil
}

// RecommendationInfo is the catalog entry for one recommendation rule.
type RecommendationInfo struct {
	Priority Priority
	Text     string
}

// recommendationCatalog maps rule IDs to their priority and text.
// Aggregators refer to rules by ID so the wording lives in one place.
var recommendationCatalog = map[string]RecommendationInfo{
	// structure
	"structure_no_h1":        {PriorityHigh, "Add a single descriptive H1 heading to every key page."},
	"structure_few_headings": {PriorityMedium, "Break long pages into sections with H2 subheadings so AI engines can quote them."},
	"structure_no_lists":     {PriorityLow, "Use bulleted or numbered lists for symptoms, treatments and steps."},
	"structure_no_faq":       {PriorityMedium, "Add an FAQ section answering common patient questions."},

	// text quality
	"text_thin_content":    {PriorityHigh, "Expand thin pages to at least 300 words of original content."},
	"text_duplicates":      {PriorityHigh, "Rewrite duplicated pages so each page has unique content."},
	"text_long_sentences":  {PriorityLow, "Shorten sentences to improve readability for patients and AI summaries."},
	"text_little_readable": {PriorityMedium, "Move important text out of scripts and images into readable HTML."},

	// authority
	"authority_no_doctor_pages": {PriorityHigh, "Publish a profile page for each doctor with qualifications and specialties."},
	"authority_no_credentials":  {PriorityMedium, "List board certifications and medical credentials on doctor profiles."},
	"authority_no_citations":    {PriorityMedium, "Cite medical sources and guidelines in health articles."},
	"authority_no_backlinks":    {PriorityLow, "Earn links from local organizations and medical directories."},

	// trust
	"trust_no_byline":         {PriorityHigh, "Add an author byline to every blog post and article."},
	"trust_no_reviewer":       {PriorityMedium, "Show a \"medically reviewed by\" line on health content."},
	"trust_no_privacy_policy": {PriorityHigh, "Publish a privacy policy and link it from every page."},
	"trust_no_about":          {PriorityLow, "Add an about page describing the clinic and its team."},
	"trust_no_last_updated":   {PriorityLow, "Display a last updated date on medical articles."},
	"trust_no_https":          {PriorityHigh, "Serve the whole site over HTTPS."},

	// reputation
	"reputation_unavailable": {PriorityLow, "Claim and complete the clinic's business profile so ratings can be verified."},
	"reputation_low_rating":  {PriorityMedium, "Respond to reviews and ask satisfied patients for feedback to raise the rating."},
	"reputation_few_reviews": {PriorityMedium, "Grow the number of patient reviews to at least 50."},

	// experience
	"experience_no_photos":       {PriorityLow, "Use original photos of the clinic and staff instead of stock images."},
	"experience_no_case_content": {PriorityMedium, "Publish first-hand patient guidance written by the clinic's doctors."},

	// local
	"local_no_address":         {PriorityHigh, "Show the clinic's full address on the homepage and contact page."},
	"local_no_phone":           {PriorityHigh, "Show a clickable phone number on every page."},
	"local_no_hours":           {PriorityMedium, "List opening hours in text and in LocalBusiness schema."},
	"local_no_directions":      {PriorityLow, "Add a directions or access page with a map."},
	"local_no_business_schema": {PriorityMedium, "Add MedicalClinic or LocalBusiness JSON-LD markup."},

	// technical
	"technical_slow":          {PriorityMedium, "Reduce server response time below one second."},
	"technical_no_hsts":       {PriorityLow, "Enable HTTP Strict Transport Security."},
	"technical_no_compress":   {PriorityLow, "Enable gzip or brotli compression for HTML responses."},
	"technical_fetch_failure": {PriorityHigh, "Fix pages that fail to load; AI crawlers skip unreachable pages."},

	// meta
	"meta_no_title":           {PriorityHigh, "Add a title tag to the homepage."},
	"meta_title_length":       {PriorityMedium, "Keep the homepage title between 30 and 60 characters."},
	"meta_no_description":     {PriorityHigh, "Add a meta description to the homepage."},
	"meta_description_length": {PriorityMedium, "Keep the meta description between 120 and 160 characters."},
	"meta_no_canonical":       {PriorityLow, "Declare a canonical URL on the homepage."},

	// schema
	"schema_none":         {PriorityHigh, "Add schema.org JSON-LD markup describing the clinic."},
	"schema_invalid":      {PriorityMedium, "Fix JSON-LD blocks that fail to parse or miss required fields."},
	"schema_no_physician": {PriorityMedium, "Mark up doctor profiles with Physician schema."},
	"schema_no_faq":       {PriorityLow, "Mark up FAQ sections with FAQPage schema."},

	// AI access
	"ai_blocks_everything": {PriorityHigh, "robots.txt blocks all crawlers; allow at least the public pages."},
	"ai_bots_blocked":      {PriorityHigh, "robots.txt blocks AI crawlers; allow them to index public pages."},
	"ai_no_robots":         {PriorityMedium, "Publish a robots.txt that references the sitemap."},
	"ai_no_llms":           {PriorityMedium, "Publish an llms.txt describing the clinic for AI assistants."},
	"ai_llms_thin":         {PriorityLow, "Expand llms.txt with services, doctors and location details."},

	// visibility
	"visibility_no_queries": {PriorityLow, "Configure tracked search queries to measure AI visibility."},
	"visibility_not_found":  {PriorityHigh, "The site does not appear for tracked queries; target them with dedicated pages."},
	"visibility_low_rank":   {PriorityMedium, "Improve content for tracked queries where the site ranks below the top three."},
}

// GetRecommendationInfo returns the catalog entry for a rule ID.
func GetRecommendationInfo(id string) (RecommendationInfo, bool) {
	info, ok := recommendationCatalog[id]
	return info, ok
}

// NewRecommendation builds a Recommendation from a catalog rule ID.
// Unknown IDs produce a low-priority recommendation whose text is the ID.
func NewRecommendation(category, id string) Recommendation {
	info, ok := recommendationCatalog[id]
	if !ok {
		return Recommendation{Category: category, Priority: PriorityLow, Text: id}
	}
	return Recommendation{Category: category, Priority: info.Priority, Text: info.Text}
}
