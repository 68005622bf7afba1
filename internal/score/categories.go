package score

import (
	"errors"
	"fmt"
)

var (
	structureFormula   = mustFormula("structure", 0.30, 0.25, 0.20, 0.25)
	textQualityFormula = mustFormula("text_quality", 0.35, 0.30, 0.20, 0.15)
	authorityFormula   = mustFormula("authority", 0.30, 0.25, 0.25, 0.20)
	trustFormula       = mustFormula("trust", 0.25, 0.15, 0.20, 0.20, 0.10, 0.10)
	reputationFormula  = mustFormula("reputation", 0.60, 0.40)
	experienceFormula  = mustFormula("experience", 0.40, 0.30, 0.30)
	localFormula       = mustFormula("local", 0.25, 0.20, 0.15, 0.15, 0.25)
	technicalFormula   = mustFormula("technical", 0.25, 0.20, 0.30, 0.25)
	metaFormula        = mustFormula("meta", 0.30, 0.30, 0.15, 0.10, 0.15)
	schemaFormula      = mustFormula("schema", 0.35, 0.25, 0.15, 0.10, 0.15)
	aiAccessFormula    = mustFormula("ai_access", 0.60, 0.40)
)

// Formulas returns every category formula. Tests use it to check sums.
func Formulas() []Formula {
	return []Formula{
		structureFormula, textQualityFormula, authorityFormula, trustFormula,
		reputationFormula, experienceFormula, localFormula, technicalFormula,
		metaFormula, schemaFormula, aiAccessFormula,
	}
}

type percent struct {
	name  string
	value float64
}

type count struct {
	name  string
	value int
}

func validatePercents(fields ...percent) error {
	for _, f := range fields {
		if err := ValidatePercent(f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}

func validateCounts(fields ...count) error {
	for _, f := range fields {
		if err := ValidateCount(f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}

// StructureInput describes heading and layout coverage across pages.
type StructureInput struct {
	SingleH1Pct float64 // pages with exactly one H1
	H2Pct       float64 // pages with at least one H2
	ListPct     float64 // pages with at least one list
	HasFAQ      bool
}

// Structure scores page structure.
//
//	single H1 30% (linear), subheadings 25% (>=80 full, >=50 60, >0 30),
//	lists 20% (>=50 full, >=20 50), FAQ 25%.
func Structure(in StructureInput) (float64, error) {
	if err := validatePercents(percent{"singleH1Pct", in.SingleH1Pct}, percent{"h2Pct", in.H2Pct}, percent{"listPct", in.ListPct}); err != nil {
		return 0, err
	}
	subheadings := Step(in.H2Pct,
		Band{Min: 80, Score: 100},
		Band{Min: 50, Score: 60},
		Band{Min: 0, Score: 30, Exclusive: true},
	)
	lists := Step(in.ListPct,
		Band{Min: 50, Score: 100},
		Band{Min: 20, Score: 50},
	)
	return structureFormula.apply(in.SingleH1Pct, subheadings, lists, BoolScore(in.HasFAQ)), nil
}

// TextQualityInput describes the text of the fetched pages.
type TextQualityInput struct {
	AvgWordCount      int
	UniquenessPct     float64 // pages whose text fingerprint is unique
	AvgSentenceLength float64 // words per sentence, 0 when no text
	ReadablePct       float64 // pages where main text could be extracted
}

// Word count and uniqueness breakpoints used by the recommendation rules.
const (
	ThinContentWords     = 300
	UniquenessFullCredit = 95
	UniquenessPartial    = 80
	LongSentenceWords    = 25
)

// TextQuality scores content depth and originality.
//
//	depth 35% (>=800 words full, >=300 70, >=150 40),
//	uniqueness 30% (>=95% full, >=80% 60),
//	sentence length 20% (<=20 full, <=25 70, <=30 40, else 10; no text 0),
//	readable ratio 15% (linear).
func TextQuality(in TextQualityInput) (float64, error) {
	if err := ValidateCount("avgWordCount", in.AvgWordCount); err != nil {
		return 0, err
	}
	if err := validatePercents(percent{"uniquenessPct", in.UniquenessPct}, percent{"readablePct", in.ReadablePct}); err != nil {
		return 0, err
	}
	if in.AvgSentenceLength < 0 {
		return 0, fmt.Errorf("%w: avgSentenceLength must not be negative, got %v", ErrInvalidInput, in.AvgSentenceLength)
	}
	depth := Step(float64(in.AvgWordCount),
		Band{Min: 800, Score: 100},
		Band{Min: ThinContentWords, Score: 70},
		Band{Min: 150, Score: 40},
	)
	uniqueness := Step(in.UniquenessPct,
		Band{Min: UniquenessFullCredit, Score: 100},
		Band{Min: UniquenessPartial, Score: 60},
	)
	sentences := 0.0
	if in.AvgSentenceLength > 0 {
		sentences = StepBelow(in.AvgSentenceLength, 10,
			Ceiling{Max: 20, Score: 100},
			Ceiling{Max: LongSentenceWords, Score: 70},
			Ceiling{Max: 30, Score: 40},
		)
	}
	return textQualityFormula.apply(depth, uniqueness, sentences, in.ReadablePct), nil
}

// AuthorityInput describes expertise signals.
type AuthorityInput struct {
	DoctorPages    int
	CredentialsPct float64 // doctor pages listing credentials
	CitationsPct   float64 // blog and article pages citing sources
	Backlinks      *int    // nil when no backlink source is available
}

// Authority scores expertise.
//
//	doctor pages 30% (>=3 full, >=1 60), credentials 25% (linear),
//	citations 25% (>=50 full, >=20 60, >0 30),
//	backlinks 20% (>=50 full, >=10 70, >=1 40; unavailable neutral).
func Authority(in AuthorityInput) (float64, error) {
	if err := ValidateCount("doctorPages", in.DoctorPages); err != nil {
		return 0, err
	}
	if err := validatePercents(percent{"credentialsPct", in.CredentialsPct}, percent{"citationsPct", in.CitationsPct}); err != nil {
		return 0, err
	}
	doctors := Step(float64(in.DoctorPages),
		Band{Min: 3, Score: 100},
		Band{Min: 1, Score: 60},
	)
	citations := Step(in.CitationsPct,
		Band{Min: 50, Score: 100},
		Band{Min: 20, Score: 60},
		Band{Min: 0, Score: 30, Exclusive: true},
	)
	backlinks := NeutralScore
	if in.Backlinks != nil {
		if err := ValidateCount("backlinks", *in.Backlinks); err != nil {
			return 0, err
		}
		backlinks = Step(float64(*in.Backlinks),
			Band{Min: 50, Score: 100},
			Band{Min: 10, Score: 70},
			Band{Min: 1, Score: 40},
		)
	}
	return authorityFormula.apply(doctors, in.CredentialsPct, citations, backlinks), nil
}

// TrustInput describes E-E-A-T trust signals.
type TrustInput struct {
	BylinePct        float64 // blog and article pages with an author byline
	ReviewerPct      float64 // blog and article pages with a medical reviewer
	HasPrivacyPolicy bool
	HTTPS            bool
	HasAbout         bool
	HasContact       bool
	LastUpdatedPct   float64
}

// Trust scores trustworthiness.
//
//	byline 25%, reviewer 15%, privacy policy 20%, HTTPS 20%,
//	about/contact 10% (half each), last updated 10%.
func Trust(in TrustInput) (float64, error) {
	if err := validatePercents(percent{"bylinePct", in.BylinePct}, percent{"reviewerPct", in.ReviewerPct}, percent{"lastUpdatedPct", in.LastUpdatedPct}); err != nil {
		return 0, err
	}
	identity := BoolScore(in.HasAbout)/2 + BoolScore(in.HasContact)/2
	return trustFormula.apply(
		in.BylinePct,
		in.ReviewerPct,
		BoolScore(in.HasPrivacyPolicy),
		BoolScore(in.HTTPS),
		identity,
		in.LastUpdatedPct,
	), nil
}

// ReputationInput holds business-profile data. Nil fields are unavailable.
type ReputationInput struct {
	Rating      *float64 // 0..5
	ReviewCount *int
}

// Reputation scores third-party reputation.
//
//	rating 60% (>=4.5 full, >=4.0 80, >=3.5 60, >=3.0 40, else 20),
//	volume 40% (>=100 full, >=50 80, >=10 50, >=1 20).
//
// An unavailable source contributes NeutralScore for its partial.
func Reputation(in ReputationInput) (float64, error) {
	rating := NeutralScore
	if in.Rating != nil {
		r := *in.Rating
		if r < 0 || r > 5 {
			return 0, fmt.Errorf("%w: rating must be within [0,5], got %v", ErrInvalidInput, r)
		}
		rating = Step(r,
			Band{Min: 4.5, Score: 100},
			Band{Min: 4.0, Score: 80},
			Band{Min: 3.5, Score: 60},
			Band{Min: 3.0, Score: 40},
			Band{Min: 0, Score: 20, Exclusive: true},
		)
	}
	volume := NeutralScore
	if in.ReviewCount != nil {
		if err := ValidateCount("reviewCount", *in.ReviewCount); err != nil {
			return 0, err
		}
		volume = Step(float64(*in.ReviewCount),
			Band{Min: 100, Score: 100},
			Band{Min: 50, Score: 80},
			Band{Min: 10, Score: 50},
			Band{Min: 1, Score: 20},
		)
		if *in.ReviewCount == 0 && in.Rating != nil {
			rating = 0
		}
	}
	return reputationFormula.apply(rating, volume), nil
}

// ExperienceInput describes first-hand experience signals.
type ExperienceInput struct {
	ImagesChecked     int
	OriginalPhotoPct  float64
	ContentPages      int     // blog and article pages
	DoctorAuthoredPct float64 // content pages with a byline and a credential or reviewer
}

// Experience scores first-hand experience.
//
//	original photos 40% (>=50 full, >=20 60, >0 30; none checked 0),
//	content volume 30% (>=10 full, >=5 70, >=1 40),
//	doctor-authored 30% (linear).
func Experience(in ExperienceInput) (float64, error) {
	if err := validateCounts(count{"imagesChecked", in.ImagesChecked}, count{"contentPages", in.ContentPages}); err != nil {
		return 0, err
	}
	if err := validatePercents(percent{"originalPhotoPct", in.OriginalPhotoPct}, percent{"doctorAuthoredPct", in.DoctorAuthoredPct}); err != nil {
		return 0, err
	}
	photos := 0.0
	if in.ImagesChecked > 0 {
		photos = Step(in.OriginalPhotoPct,
			Band{Min: 50, Score: 100},
			Band{Min: 20, Score: 60},
			Band{Min: 0, Score: 30, Exclusive: true},
		)
	}
	volume := Step(float64(in.ContentPages),
		Band{Min: 10, Score: 100},
		Band{Min: 5, Score: 70},
		Band{Min: 1, Score: 40},
	)
	return experienceFormula.apply(photos, volume, in.DoctorAuthoredPct), nil
}

// LocalInput describes local-SEO signals across the site.
type LocalInput struct {
	HasAddress        bool
	HasPhone          bool
	HasHours          bool
	HasMap            bool
	DirectionsPages   int
	HasBusinessSchema bool
}

// Local scores local-SEO readiness.
//
//	address 25%, phone 20%, hours 15%,
//	map and directions 15% (map half, >=1 directions page half),
//	LocalBusiness schema 25%.
func Local(in LocalInput) (float64, error) {
	if err := ValidateCount("directionsPages", in.DirectionsPages); err != nil {
		return 0, err
	}
	directions := BoolScore(in.HasMap)/2 + Step(float64(in.DirectionsPages), Band{Min: 1, Score: 50})
	return localFormula.apply(
		BoolScore(in.HasAddress),
		BoolScore(in.HasPhone),
		BoolScore(in.HasHours),
		directions,
		BoolScore(in.HasBusinessSchema),
	), nil
}

// TechnicalInput describes technical health.
type TechnicalInput struct {
	HTTPS          bool
	AvgResponseMs  int // 0 when nothing was fetched
	SuccessRatePct float64
	HasHSTS        bool
	Compressed     bool
	HasCSP         bool
}

// SlowResponseMs is the response time above which a recommendation fires.
const SlowResponseMs = 1000

// Technical scores technical health.
//
//	HTTPS 25%, speed 20% (<=500ms full, <=1000 80, <=2000 50, <=4000 20, else 0;
//	unmeasured 0), fetch success 30% (linear),
//	headers 25% (HSTS 40, compression 40, CSP 20).
func Technical(in TechnicalInput) (float64, error) {
	if err := ValidateCount("avgResponseMs", in.AvgResponseMs); err != nil {
		return 0, err
	}
	if err := ValidatePercent("successRatePct", in.SuccessRatePct); err != nil {
		return 0, err
	}
	speed := 0.0
	if in.AvgResponseMs > 0 {
		speed = StepBelow(float64(in.AvgResponseMs), 0,
			Ceiling{Max: 500, Score: 100},
			Ceiling{Max: SlowResponseMs, Score: 80},
			Ceiling{Max: 2000, Score: 50},
			Ceiling{Max: 4000, Score: 20},
		)
	}
	headers := BoolScore(in.HasHSTS)*0.4 + BoolScore(in.Compressed)*0.4 + BoolScore(in.HasCSP)*0.2
	return technicalFormula.apply(BoolScore(in.HTTPS), speed, in.SuccessRatePct, headers), nil
}

// MetaInput describes the homepage meta tags.
type MetaInput struct {
	TitlePresent       bool
	TitleOptimal       bool
	DescriptionPresent bool
	DescriptionOptimal bool
	Canonical          bool
	Viewport           bool
	OpenGraphCount     int
}

// Meta scores meta tags.
//
//	title 30% (present half, optimal half), description 30% (same),
//	canonical 15%, viewport 10%, Open Graph 15% (>=3 full, >=1 50).
func Meta(in MetaInput) (float64, error) {
	if err := ValidateCount("openGraphCount", in.OpenGraphCount); err != nil {
		return 0, err
	}
	title := BoolScore(in.TitlePresent)/2 + BoolScore(in.TitlePresent && in.TitleOptimal)/2
	desc := BoolScore(in.DescriptionPresent)/2 + BoolScore(in.DescriptionPresent && in.DescriptionOptimal)/2
	og := Step(float64(in.OpenGraphCount),
		Band{Min: 3, Score: 100},
		Band{Min: 1, Score: 50},
	)
	return metaFormula.apply(title, desc, BoolScore(in.Canonical), BoolScore(in.Viewport), og), nil
}

// SchemaInput describes JSON-LD coverage across the site.
type SchemaInput struct {
	ValidTypes      int
	HasOrganization bool // MedicalClinic, LocalBusiness or Organization
	HasPhysician    bool
	HasFAQ          bool
	TotalBlocks     int
	InvalidBlocks   int
}

// Schema scores structured data.
//
//	coverage 35% (>=4 valid types full, >=2 70, >=1 40), organization 25%,
//	physician 15%, FAQ 10%, validity 15% (share of blocks that parse; none 0).
func Schema(in SchemaInput) (float64, error) {
	if err := validateCounts(count{"validTypes", in.ValidTypes}, count{"totalBlocks", in.TotalBlocks}, count{"invalidBlocks", in.InvalidBlocks}); err != nil {
		return 0, err
	}
	if in.InvalidBlocks > in.TotalBlocks {
		return 0, fmt.Errorf("%w: invalidBlocks %d exceeds totalBlocks %d", ErrInvalidInput, in.InvalidBlocks, in.TotalBlocks)
	}
	coverage := Step(float64(in.ValidTypes),
		Band{Min: 4, Score: 100},
		Band{Min: 2, Score: 70},
		Band{Min: 1, Score: 40},
	)
	validity := Ratio(in.TotalBlocks-in.InvalidBlocks, in.TotalBlocks)
	return schemaFormula.apply(
		coverage,
		BoolScore(in.HasOrganization),
		BoolScore(in.HasPhysician),
		BoolScore(in.HasFAQ),
		validity,
	), nil
}

// RobotsInput describes the robots.txt analysis.
type RobotsInput struct {
	Present          bool
	Empty            bool
	BlocksEverything bool
	BlockedAIBots    int
	KnownAIBots      int
	SitemapDeclared  bool
}

// Robots scores robots.txt.
//
//	absent 0; fetched but empty 50; blocks everything 0;
//	otherwise 60 base + 20 when a sitemap is declared
//	+ 20 scaled by the share of known AI bots that are not blocked.
func Robots(in RobotsInput) (float64, error) {
	if err := validateCounts(count{"blockedAIBots", in.BlockedAIBots}, count{"knownAIBots", in.KnownAIBots}); err != nil {
		return 0, err
	}
	if in.KnownAIBots > 0 && in.BlockedAIBots > in.KnownAIBots {
		return 0, fmt.Errorf("%w: blockedAIBots %d exceeds knownAIBots %d", ErrInvalidInput, in.BlockedAIBots, in.KnownAIBots)
	}
	switch {
	case !in.Present:
		return 0, nil
	case in.BlocksEverything:
		return 0, nil
	case in.Empty:
		return 50, nil
	}
	v := 60.0
	if in.SitemapDeclared {
		v += 20
	}
	if in.KnownAIBots > 0 {
		v += 20 * (1 - float64(in.BlockedAIBots)/float64(in.KnownAIBots))
	} else {
		v += 20
	}
	return finalize(v), nil
}

// LLMSInput describes the llms.txt check.
type LLMSInput struct {
	Present    bool
	NonTrivial bool
	Oversized  bool
}

// LLMS scores llms.txt: presence 40, non-trivial content 60 more.
// An oversized file keeps only the presence credit.
func LLMS(in LLMSInput) float64 {
	if !in.Present {
		return 0
	}
	v := 40.0
	if in.NonTrivial && !in.Oversized {
		v += 60
	}
	return finalize(v)
}

// AIAccess combines robots (60%) and llms.txt (40%).
func AIAccess(robots RobotsInput, llms LLMSInput) (float64, error) {
	r, err := Robots(robots)
	if err != nil {
		return 0, err
	}
	return aiAccessFormula.apply(r, LLMS(llms)), nil
}

// IsInvalidInput reports whether err is an ErrInvalidInput.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
