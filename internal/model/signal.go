package model

import (
	"sort"
	"time"
)

// MetaSignals is the signal record produced from a page's <head>.
// A tag that exists but is empty is Present with Optimal false.
type MetaSignals struct {
	TitlePresent       bool   `json:"title_present"`
	Title              string `json:"title,omitempty"`
	TitleLength        int    `json:"title_length"`
	TitleOptimal       bool   `json:"title_optimal"`
	DescriptionPresent bool   `json:"description_present"`
	Description        string `json:"description,omitempty"`
	DescriptionLength  int    `json:"description_length"`
	DescriptionOptimal bool   `json:"description_optimal"`
	CanonicalPresent   bool   `json:"canonical_present"`
	ViewportPresent    bool   `json:"viewport_present"`
	OpenGraphCount     int    `json:"open_graph_count"`
	Lang               string `json:"lang,omitempty"`
}

// SchemaTypeSignal describes the JSON-LD instances of one schema.org type.
// Count increments per instance; Present and Valid do not change with it.
type SchemaTypeSignal struct {
	Present bool `json:"present"`
	Valid   bool `json:"valid"`
	Count   int  `json:"count"`
}

// SchemaSignals is the signal record produced from JSON-LD blocks.
// Types only contains entries for types in the known catalog.
type SchemaSignals struct {
	Types         map[string]SchemaTypeSignal `json:"types,omitempty"`
	BlockCount    int                         `json:"block_count"`
	InvalidBlocks int                         `json:"invalid_blocks"`
}

// Has reports whether the given schema type was found.
func (s SchemaSignals) Has(schemaType string) bool {
	return s.Types[schemaType].Present
}

// IsValid reports whether the given schema type was found with at least
// one of its required fields.
func (s SchemaSignals) IsValid(schemaType string) bool {
	return s.Types[schemaType].Valid
}

// ValidTypes returns the names of valid types in sorted order.
func (s SchemaSignals) ValidTypes() []string {
	names := make([]string, 0, len(s.Types))
	for name, sig := range s.Types {
		if sig.Valid {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// RobotsSignals is the signal record produced from robots.txt.
// A fetched but empty file is Present and Empty.
type RobotsSignals struct {
	Present          bool     `json:"present"`
	Empty            bool     `json:"empty"`
	BlocksEverything bool     `json:"blocks_everything"`
	BlockedAIBots    []string `json:"blocked_ai_bots,omitempty"`
	AllowedAIBots    []string `json:"allowed_ai_bots,omitempty"`
	Sitemaps         []string `json:"sitemaps,omitempty"`
	GroupCount       int      `json:"group_count"`
}

// LLMSSignals is the signal record produced from llms.txt.
type LLMSSignals struct {
	Present       bool `json:"present"`
	ContentLength int  `json:"content_length"`
	NonTrivial    bool `json:"non_trivial"`
	Oversized     bool `json:"oversized"`
}

// ContentSignals describes the structure and text of one page.
type ContentSignals struct {
	WordCount          int     `json:"word_count"`
	HeadingCount       int     `json:"heading_count"`
	H1Count            int     `json:"h1_count"`
	H2Count            int     `json:"h2_count"`
	ListCount          int     `json:"list_count"`
	ParagraphCount     int     `json:"paragraph_count"`
	FAQPresent         bool    `json:"faq_present"`
	AvgSentenceLength  float64 `json:"avg_sentence_length"`
	ReadableTextLength int     `json:"readable_text_length"`

	// Fingerprint is a hash of the normalized main text. Pages with equal
	// fingerprints are considered duplicates. Empty when no text was found.
	Fingerprint string `json:"fingerprint,omitempty"`

	InternalLinks int      `json:"internal_links"`
	ExternalLinks int      `json:"external_links"`
	ImageCount    int      `json:"image_count"`
	ImagesWithAlt int      `json:"images_with_alt"`
	ImageURLs     []string `json:"-"`
}

// TrustSignals holds E-E-A-T indicators found on one page.
type TrustSignals struct {
	HasAuthorByline    bool `json:"has_author_byline"`
	HasMedicalReviewer bool `json:"has_medical_reviewer"`
	HasCredentials     bool `json:"has_credentials"`
	HasPrivacyPolicy   bool `json:"has_privacy_policy"`
	HasTermsPage       bool `json:"has_terms_page"`
	HasContactInfo     bool `json:"has_contact_info"`
	HasAboutPage       bool `json:"has_about_page"`
	HasCitations       bool `json:"has_citations"`
	CitationCount      int  `json:"citation_count"`
	HasLastUpdated     bool `json:"has_last_updated"`
	HasHTTPS           bool `json:"has_https"`
}

// LocalSignals holds local-SEO indicators found on one page.
type LocalSignals struct {
	HasAddress             bool `json:"has_address"`
	HasPhone               bool `json:"has_phone"`
	HasMap                 bool `json:"has_map"`
	HasOpeningHours        bool `json:"has_opening_hours"`
	HasDirections          bool `json:"has_directions"`
	HasLocalBusinessSchema bool `json:"has_local_business_schema"`
}

// TechnicalSignals is derived from the HTTP response of one page.
type TechnicalSignals struct {
	HTTPS                  bool          `json:"https"`
	StatusCode             int           `json:"status_code"`
	ResponseTime           time.Duration `json:"response_time"`
	HasHSTS                bool          `json:"has_hsts"`
	HasCSP                 bool          `json:"has_csp"`
	HasXContentTypeOptions bool          `json:"has_x_content_type_options"`
	Compressed             bool          `json:"compressed"`
	ContentLength          int           `json:"content_length"`
}

// ImagerySignals summarizes EXIF metadata of same-site images.
// OriginalPhotos counts images carrying a camera make or model, which
// stock and generated images usually lack.
type ImagerySignals struct {
	ImagesChecked  int      `json:"images_checked"`
	OriginalPhotos int      `json:"original_photos"`
	CameraMakes    []string `json:"camera_makes,omitempty"`
}

// RankingSignal is the visibility of the site for one tracked query.
// Rank and TotalResults are zero when Visible is false.
type RankingSignal struct {
	Query           string  `json:"query"`
	Visible         bool    `json:"visible"`
	Rank            int     `json:"rank,omitempty"`
	TotalResults    int     `json:"total_results,omitempty"`
	CompetitorScore float64 `json:"competitor_score"`
}

// EnrichmentSignals holds data from third-party services. Nil pointers
// and an empty Rankings slice mean the source was unavailable.
type EnrichmentSignals struct {
	Rating        *float64        `json:"rating,omitempty"`
	ReviewCount   *int            `json:"review_count,omitempty"`
	BacklinkCount *int            `json:"backlink_count,omitempty"`
	Rankings      []RankingSignal `json:"rankings,omitempty"`
}

// PageSignals is every signal record extracted from one fetched page.
type PageSignals struct {
	URL       string           `json:"url"`
	Kind      PageKind         `json:"kind"`
	Meta      MetaSignals      `json:"meta"`
	Schema    SchemaSignals    `json:"schema"`
	Content   ContentSignals   `json:"content"`
	Trust     TrustSignals     `json:"trust"`
	Local     LocalSignals     `json:"local"`
	Technical TechnicalSignals `json:"technical"`
}

// SiteSignals is the input of the category aggregators: every page that
// was fetched plus the site-wide records.
type SiteSignals struct {
	RootURL       string                `json:"root_url"`
	Robots        RobotsSignals         `json:"robots"`
	LLMS          LLMSSignals           `json:"llms"`
	Homepage      *PageSignals          `json:"homepage,omitempty"`
	Pages         []PageSignals         `json:"pages,omitempty"`
	Imagery       ImagerySignals        `json:"imagery"`
	Enrichment    EnrichmentSignals     `json:"enrichment"`
	Discovery     PageDiscoveryManifest `json:"discovery"`
	FetchFailures []FetchFailure        `json:"fetch_failures,omitempty"`
}

// PagesOfKind returns the fetched pages of the given kind in input order.
func (s *SiteSignals) PagesOfKind(kind PageKind) []PageSignals {
	var out []PageSignals
	for _, p := range s.Pages {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}

// CandidatesOfKind returns how many discovered URLs belong to the given
// kind, whether or not they were fetched. It never returns less than the
// number of fetched pages of that kind.
func (s *SiteSignals) CandidatesOfKind(kind PageKind) int {
	n := 0
	for _, u := range s.Discovery.CandidateURLs {
		if ClassifyURL(u) == kind {
			n++
		}
	}
	if fetched := len(s.PagesOfKind(kind)); fetched > n {
		return fetched
	}
	return n
}

// AllPages returns the homepage (when fetched and not already listed)
// followed by Pages.
func (s *SiteSignals) AllPages() []PageSignals {
	if s.Homepage == nil {
		return s.Pages
	}
	for _, p := range s.Pages {
		if p.URL == s.Homepage.URL {
			return s.Pages
		}
	}
	out := make([]PageSignals, 0, len(s.Pages)+1)
	out = append(out, *s.Homepage)
	return append(out, s.Pages...)
}
