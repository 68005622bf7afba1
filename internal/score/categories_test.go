package score

import (
	"errors"
	"testing"
)

func intPtr(n int) *int           { return &n }
func floatPtr(f float64) *float64 { return &f }

func TestStructure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   StructureInput
		want float64
	}{
		{"full credit", StructureInput{SingleH1Pct: 100, H2Pct: 80, ListPct: 50, HasFAQ: true}, 100},
		{"nothing", StructureInput{}, 0},
		{"partial bands", StructureInput{SingleH1Pct: 50, H2Pct: 60, ListPct: 25}, 15 + 15 + 10},
		{"any subheading earns the lowest band", StructureInput{H2Pct: 1}, 7.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Structure(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Structure = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := Structure(StructureInput{SingleH1Pct: 120}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestTextQuality(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   TextQualityInput
		want float64
	}{
		{"excellent", TextQualityInput{AvgWordCount: 800, UniquenessPct: 100, AvgSentenceLength: 15, ReadablePct: 100}, 100},
		{"middle bands", TextQualityInput{AvgWordCount: 300, UniquenessPct: 80, ReadablePct: 50}, 50},
		{"duplicates below partial band", TextQualityInput{AvgWordCount: 800, UniquenessPct: 79, AvgSentenceLength: 15, ReadablePct: 100}, 70},
		{"very long sentences keep a floor", TextQualityInput{AvgSentenceLength: 45}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := TextQuality(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("TextQuality = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := TextQuality(TextQualityInput{AvgWordCount: -1}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for negative count, got %v", err)
	}
	if _, err := TextQuality(TextQualityInput{UniquenessPct: -1}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for negative percent, got %v", err)
	}
}

func TestAuthority(t *testing.T) {
	t.Parallel()

	got, err := Authority(AuthorityInput{DoctorPages: 3, CredentialsPct: 100, CitationsPct: 50})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 90 {
		t.Errorf("Authority with unknown backlinks = %v, want 90", got)
	}

	got, err = Authority(AuthorityInput{DoctorPages: 3, CredentialsPct: 100, CitationsPct: 50, Backlinks: intPtr(0)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 80 {
		t.Errorf("Authority with zero backlinks = %v, want 80", got)
	}

	if _, err := Authority(AuthorityInput{Backlinks: intPtr(-2)}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestTrust(t *testing.T) {
	t.Parallel()

	got, err := Trust(TrustInput{
		BylinePct:        50,
		HasPrivacyPolicy: true,
		HTTPS:            true,
		HasAbout:         true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 57.5 {
		t.Errorf("Trust = %v, want 57.5", got)
	}
}

func TestReputation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   ReputationInput
		want float64
	}{
		{"unavailable is neutral", ReputationInput{}, 50},
		{"excellent", ReputationInput{Rating: floatPtr(4.6), ReviewCount: intPtr(120)}, 100},
		{"rating without reviews", ReputationInput{Rating: floatPtr(4.6), ReviewCount: intPtr(0)}, 0},
		{"only rating known", ReputationInput{Rating: floatPtr(4.0)}, 48 + 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Reputation(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Reputation = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := Reputation(ReputationInput{Rating: floatPtr(6)}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestExperience(t *testing.T) {
	t.Parallel()

	got, err := Experience(ExperienceInput{ContentPages: 10, DoctorAuthoredPct: 50})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 45 {
		t.Errorf("Experience = %v, want 45", got)
	}

	got, err = Experience(ExperienceInput{ImagesChecked: 4, OriginalPhotoPct: 50, ContentPages: 10, DoctorAuthoredPct: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 100 {
		t.Errorf("Experience = %v, want 100", got)
	}
}

func TestLocal(t *testing.T) {
	t.Parallel()

	got, err := Local(LocalInput{HasAddress: true, HasPhone: true, HasHours: true, HasMap: true, DirectionsPages: 1, HasBusinessSchema: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 100 {
		t.Errorf("Local = %v, want 100", got)
	}

	got, err = Local(LocalInput{})
	if err != nil || got != 0 {
		t.Errorf("Local(empty) = %v, %v; want 0, nil", got, err)
	}

	if _, err := Local(LocalInput{DirectionsPages: -1}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestTechnical(t *testing.T) {
	t.Parallel()

	got, err := Technical(TechnicalInput{HTTPS: true, AvgResponseMs: 400, SuccessRatePct: 100, HasHSTS: true, Compressed: true, HasCSP: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 100 {
		t.Errorf("Technical = %v, want 100", got)
	}

	got, err = Technical(TechnicalInput{HTTPS: true, SuccessRatePct: 100, HasHSTS: true, Compressed: true, HasCSP: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 80 {
		t.Errorf("Technical without timing = %v, want 80", got)
	}
}

func TestMeta(t *testing.T) {
	t.Parallel()

	got, err := Meta(MetaInput{TitlePresent: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 15 {
		t.Errorf("Meta with empty title = %v, want 15", got)
	}

	got, err = Meta(MetaInput{
		TitlePresent: true, TitleOptimal: true,
		DescriptionPresent: true, DescriptionOptimal: true,
		Canonical: true, Viewport: true, OpenGraphCount: 4,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 100 {
		t.Errorf("Meta = %v, want 100", got)
	}
}

func TestSchema(t *testing.T) {
	t.Parallel()

	got, err := Schema(SchemaInput{ValidTypes: 4, HasOrganization: true, HasPhysician: true, HasFAQ: true, TotalBlocks: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 100 {
		t.Errorf("Schema = %v, want 100", got)
	}

	got, err = Schema(SchemaInput{ValidTypes: 1, HasOrganization: true, TotalBlocks: 2, InvalidBlocks: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 46.5 {
		t.Errorf("Schema = %v, want 46.5", got)
	}

	if _, err := Schema(SchemaInput{TotalBlocks: 1, InvalidBlocks: 2}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRobots(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   RobotsInput
		want float64
	}{
		{"absent", RobotsInput{}, 0},
		{"fetched but empty is reduced", RobotsInput{Present: true, Empty: true}, 50},
		{"blocks everything", RobotsInput{Present: true, BlocksEverything: true, SitemapDeclared: true}, 0},
		{"open with sitemap", RobotsInput{Present: true, KnownAIBots: 14, SitemapDeclared: true}, 100},
		{"half of AI bots blocked", RobotsInput{Present: true, KnownAIBots: 14, BlockedAIBots: 7}, 70},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Robots(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Robots = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := Robots(RobotsInput{Present: true, KnownAIBots: 2, BlockedAIBots: 3}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestLLMS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   LLMSInput
		want float64
	}{
		{"absent", LLMSInput{}, 0},
		{"present only", LLMSInput{Present: true}, 40},
		{"present with content", LLMSInput{Present: true, NonTrivial: true}, 100},
		{"oversized keeps presence credit", LLMSInput{Present: true, NonTrivial: true, Oversized: true}, 40},
	}

	for _, tt := range tests {
		if got := LLMS(tt.in); got != tt.want {
			t.Errorf("%s: LLMS = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestAIAccess(t *testing.T) {
	t.Parallel()

	got, err := AIAccess(
		RobotsInput{Present: true, KnownAIBots: 14, SitemapDeclared: true},
		LLMSInput{Present: true},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 76 {
		t.Errorf("AIAccess = %v, want 76", got)
	}
}

func TestCalculatorsAreBounded(t *testing.T) {
	t.Parallel()

	pcts := []float64{0, 33.3, 100}
	for _, a := range pcts {
		for _, b := range pcts {
			for _, c := range pcts {
				checks := []func() (float64, error){
					func() (float64, error) { return Structure(StructureInput{SingleH1Pct: a, H2Pct: b, ListPct: c, HasFAQ: true}) },
					func() (float64, error) {
						return TextQuality(TextQualityInput{AvgWordCount: 1000, UniquenessPct: a, AvgSentenceLength: b, ReadablePct: c})
					},
					func() (float64, error) { return Trust(TrustInput{BylinePct: a, ReviewerPct: b, LastUpdatedPct: c, HTTPS: true}) },
					func() (float64, error) { return Authority(AuthorityInput{DoctorPages: 10, CredentialsPct: a, CitationsPct: b}) },
				}
				for _, check := range checks {
					got, err := check()
					if err != nil {
						t.Fatalf("unexpected error: %v", err)
					}
					if got < 0 || got > 100 {
						t.Fatalf("score out of bounds: %v", got)
					}
				}
			}
		}
	}
}
