package aggregate

import (
	"math"
	"time"

	"github.com/nao1215/aiaudit/internal/model"
	"github.com/nao1215/aiaudit/internal/score"
	"github.com/nao1215/aiaudit/internal/signal"
	"github.com/samber/lo"
)

// Rule thresholds shared by several categories.
const (
	lowCoveragePct  = 50
	minReviewCount  = 50
	lowRating       = 4.0
	topRank         = 3
	minPhotoPct     = 20
	minCitationsPct = 20
)

func defaultAggregators() []Aggregator {
	return []Aggregator{
		structureAggregator(),
		textQualityAggregator(),
		authorityAggregator(),
		trustAggregator(),
		reputationAggregator(),
		experienceAggregator(),
		localAggregator(),
		technicalAggregator(),
		metaAggregator(),
		schemaAggregator(),
		aiAccessAggregator(),
		visibilityAggregator(),
	}
}

// pageRefs names the per-page records a score was computed from.
func pageRefs(pages []model.PageSignals, record string) []string {
	return lo.Map(pages, func(p model.PageSignals, _ int) string {
		return "page:" + p.URL + "#" + record
	})
}

func structureAggregator() Aggregator {
	return &category[score.StructureInput]{
		name:      model.CategoryStructure,
		component: ComponentContent,
		collect: func(site *model.SiteSignals) score.StructureInput {
			pages := site.AllPages()
			n := len(pages)
			return score.StructureInput{
				SingleH1Pct: ratio(pages, n, func(p model.PageSignals) bool { return p.Content.H1Count == 1 }),
				H2Pct:       ratio(pages, n, func(p model.PageSignals) bool { return p.Content.H2Count > 0 }),
				ListPct:     ratio(pages, n, func(p model.PageSignals) bool { return p.Content.ListCount > 0 }),
				HasFAQ: anyPage(site, func(p model.PageSignals) bool {
					return p.Content.FAQPresent || p.Schema.IsValid("FAQPage")
				}),
			}
		},
		score: score.Structure,
		signals: func(site *model.SiteSignals, _ score.StructureInput) []string {
			return pageRefs(site.AllPages(), "content")
		},
		rules: []rule[score.StructureInput]{
			{"structure_no_h1", func(in score.StructureInput) bool { return in.SingleH1Pct < 80 }},
			{"structure_few_headings", func(in score.StructureInput) bool { return in.H2Pct < lowCoveragePct }},
			{"structure_no_lists", func(in score.StructureInput) bool { return in.ListPct < 20 }},
			{"structure_no_faq", func(in score.StructureInput) bool { return !in.HasFAQ }},
		},
	}
}

// textInput extends the calculator input with the page count the rules
// need.
type textInput struct {
	score.TextQualityInput
	pages int
}

func textQualityAggregator() Aggregator {
	return &category[textInput]{
		name:      model.CategoryTextQuality,
		component: ComponentContent,
		collect: func(site *model.SiteSignals) textInput {
			pages := site.AllPages()
			in := textInput{pages: len(pages)}
			if len(pages) == 0 {
				return in
			}

			words := lo.SumBy(pages, func(p model.PageSignals) int { return p.Content.WordCount })
			in.AvgWordCount = int(math.Round(float64(words) / float64(len(pages))))

			withText := lo.Filter(pages, func(p model.PageSignals, _ int) bool { return p.Content.Fingerprint != "" })
			seen := lo.CountValuesBy(withText, func(p model.PageSignals) string { return p.Content.Fingerprint })
			in.UniquenessPct = ratio(withText, len(withText), func(p model.PageSignals) bool {
				return seen[p.Content.Fingerprint] == 1
			})

			sentences := lo.FilterMap(pages, func(p model.PageSignals, _ int) (float64, bool) {
				return p.Content.AvgSentenceLength, p.Content.AvgSentenceLength > 0
			})
			in.AvgSentenceLength = score.Mean(sentences...)

			in.ReadablePct = ratio(pages, len(pages), func(p model.PageSignals) bool { return p.Content.ReadableTextLength > 0 })
			return in
		},
		score: func(in textInput) (float64, error) { return score.TextQuality(in.TextQualityInput) },
		signals: func(site *model.SiteSignals, _ textInput) []string {
			return pageRefs(site.AllPages(), "content")
		},
		rules: []rule[textInput]{
			{"text_thin_content", func(in textInput) bool { return in.AvgWordCount < score.ThinContentWords }},
			{"text_duplicates", func(in textInput) bool { return in.pages > 1 && in.UniquenessPct < score.UniquenessPartial }},
			{"text_long_sentences", func(in textInput) bool { return in.AvgSentenceLength > score.LongSentenceWords }},
			{"text_little_readable", func(in textInput) bool { return in.pages > 0 && in.ReadablePct < lowCoveragePct }},
		},
	}
}

type authorityInput struct {
	score.AuthorityInput
	contentPages int
}

func authorityAggregator() Aggregator {
	return &category[authorityInput]{
		name:      model.CategoryAuthority,
		component: ComponentTrust,
		collect: func(site *model.SiteSignals) authorityInput {
			doctors := site.PagesOfKind(model.PageKindDoctor)
			content := contentPages(site)
			return authorityInput{
				AuthorityInput: score.AuthorityInput{
					DoctorPages: len(doctors),
					CredentialsPct: ratio(doctors, site.CandidatesOfKind(model.PageKindDoctor), func(p model.PageSignals) bool {
						return p.Trust.HasCredentials
					}),
					CitationsPct: ratio(content, contentCandidates(site), func(p model.PageSignals) bool {
						return p.Trust.HasCitations
					}),
					Backlinks: site.Enrichment.BacklinkCount,
				},
				contentPages: len(content),
			}
		},
		score: func(in authorityInput) (float64, error) { return score.Authority(in.AuthorityInput) },
		signals: func(site *model.SiteSignals, in authorityInput) []string {
			refs := pageRefs(append(site.PagesOfKind(model.PageKindDoctor), contentPages(site)...), "trust")
			if in.Backlinks != nil {
				refs = append(refs, "enrichment#backlinks")
			}
			return refs
		},
		rules: []rule[authorityInput]{
			{"authority_no_doctor_pages", func(in authorityInput) bool { return in.DoctorPages == 0 }},
			{"authority_no_credentials", func(in authorityInput) bool {
				return in.DoctorPages > 0 && in.CredentialsPct < lowCoveragePct
			}},
			{"authority_no_citations", func(in authorityInput) bool {
				return in.contentPages > 0 && in.CitationsPct < minCitationsPct
			}},
			{"authority_no_backlinks", func(in authorityInput) bool { return in.Backlinks != nil && *in.Backlinks < 10 }},
		},
	}
}

type trustInput struct {
	score.TrustInput
	contentPages int
}

func trustAggregator() Aggregator {
	return &category[trustInput]{
		name:      model.CategoryTrust,
		component: ComponentTrust,
		collect: func(site *model.SiteSignals) trustInput {
			content := contentPages(site)
			total := contentCandidates(site)
			return trustInput{
				TrustInput: score.TrustInput{
					BylinePct:        ratio(content, total, func(p model.PageSignals) bool { return p.Trust.HasAuthorByline }),
					ReviewerPct:      ratio(content, total, func(p model.PageSignals) bool { return p.Trust.HasMedicalReviewer }),
					HasPrivacyPolicy: anyPage(site, func(p model.PageSignals) bool { return p.Trust.HasPrivacyPolicy }),
					HTTPS:            siteHTTPS(site),
					HasAbout:         anyPage(site, func(p model.PageSignals) bool { return p.Trust.HasAboutPage }),
					HasContact: anyPage(site, func(p model.PageSignals) bool {
						return p.Trust.HasContactInfo || p.Kind == model.PageKindContact
					}),
					LastUpdatedPct: ratio(content, total, func(p model.PageSignals) bool { return p.Trust.HasLastUpdated }),
				},
				contentPages: len(content),
			}
		},
		score: func(in trustInput) (float64, error) { return score.Trust(in.TrustInput) },
		signals: func(site *model.SiteSignals, _ trustInput) []string {
			return pageRefs(site.AllPages(), "trust")
		},
		rules: []rule[trustInput]{
			{"trust_no_byline", func(in trustInput) bool { return in.contentPages > 0 && in.BylinePct < lowCoveragePct }},
			{"trust_no_reviewer", func(in trustInput) bool { return in.contentPages > 0 && in.ReviewerPct < lowCoveragePct }},
			{"trust_no_privacy_policy", func(in trustInput) bool { return !in.HasPrivacyPolicy }},
			{"trust_no_about", func(in trustInput) bool { return !in.HasAbout }},
			{"trust_no_last_updated", func(in trustInput) bool { return in.contentPages > 0 && in.LastUpdatedPct < lowCoveragePct }},
			{"trust_no_https", func(in trustInput) bool { return !in.HTTPS }},
		},
	}
}

func reputationAggregator() Aggregator {
	return &category[score.ReputationInput]{
		name:      model.CategoryReputation,
		component: ComponentLocal,
		collect: func(site *model.SiteSignals) score.ReputationInput {
			return score.ReputationInput{
				Rating:      site.Enrichment.Rating,
				ReviewCount: site.Enrichment.ReviewCount,
			}
		},
		score: score.Reputation,
		signals: func(_ *model.SiteSignals, in score.ReputationInput) []string {
			var refs []string
			if in.Rating != nil {
				refs = append(refs, "enrichment#rating")
			}
			if in.ReviewCount != nil {
				refs = append(refs, "enrichment#review_count")
			}
			return refs
		},
		rules: []rule[score.ReputationInput]{
			{"reputation_unavailable", func(in score.ReputationInput) bool { return in.Rating == nil && in.ReviewCount == nil }},
			{"reputation_low_rating", func(in score.ReputationInput) bool { return in.Rating != nil && *in.Rating < lowRating }},
			{"reputation_few_reviews", func(in score.ReputationInput) bool {
				return in.ReviewCount != nil && *in.ReviewCount < minReviewCount
			}},
		},
	}
}

func experienceAggregator() Aggregator {
	return &category[score.ExperienceInput]{
		name:      model.CategoryExperience,
		component: ComponentTrust,
		collect: func(site *model.SiteSignals) score.ExperienceInput {
			content := contentPages(site)
			return score.ExperienceInput{
				ImagesChecked:    site.Imagery.ImagesChecked,
				OriginalPhotoPct: score.Ratio(site.Imagery.OriginalPhotos, site.Imagery.ImagesChecked),
				ContentPages:     len(content),
				DoctorAuthoredPct: ratio(content, contentCandidates(site), func(p model.PageSignals) bool {
					return p.Trust.HasAuthorByline && (p.Trust.HasCredentials || p.Trust.HasMedicalReviewer)
				}),
			}
		},
		score: score.Experience,
		signals: func(site *model.SiteSignals, in score.ExperienceInput) []string {
			refs := pageRefs(contentPages(site), "trust")
			if in.ImagesChecked > 0 {
				refs = append(refs, "site#imagery")
			}
			return refs
		},
		rules: []rule[score.ExperienceInput]{
			{"experience_no_photos", func(in score.ExperienceInput) bool {
				return in.ImagesChecked > 0 && in.OriginalPhotoPct < minPhotoPct
			}},
			{"experience_no_case_content", func(in score.ExperienceInput) bool {
				return in.ContentPages == 0 || in.DoctorAuthoredPct < lowCoveragePct
			}},
		},
	}
}

func localAggregator() Aggregator {
	return &category[score.LocalInput]{
		name:      model.CategoryLocal,
		component: ComponentLocal,
		collect: func(site *model.SiteSignals) score.LocalInput {
			pages := site.AllPages()
			return score.LocalInput{
				HasAddress: anyPage(site, func(p model.PageSignals) bool { return p.Local.HasAddress }),
				HasPhone:   anyPage(site, func(p model.PageSignals) bool { return p.Local.HasPhone }),
				HasHours:   anyPage(site, func(p model.PageSignals) bool { return p.Local.HasOpeningHours }),
				HasMap:     anyPage(site, func(p model.PageSignals) bool { return p.Local.HasMap }),
				DirectionsPages: lo.CountBy(pages, func(p model.PageSignals) bool {
					return p.Local.HasDirections || p.Kind == model.PageKindLocation
				}),
				HasBusinessSchema: anyPage(site, func(p model.PageSignals) bool { return p.Local.HasLocalBusinessSchema }),
			}
		},
		score: score.Local,
		signals: func(site *model.SiteSignals, _ score.LocalInput) []string {
			return pageRefs(site.AllPages(), "local")
		},
		rules: []rule[score.LocalInput]{
			{"local_no_address", func(in score.LocalInput) bool { return !in.HasAddress }},
			{"local_no_phone", func(in score.LocalInput) bool { return !in.HasPhone }},
			{"local_no_hours", func(in score.LocalInput) bool { return !in.HasHours }},
			{"local_no_directions", func(in score.LocalInput) bool { return in.DirectionsPages == 0 && !in.HasMap }},
			{"local_no_business_schema", func(in score.LocalInput) bool { return !in.HasBusinessSchema }},
		},
	}
}

type technicalInput struct {
	score.TechnicalInput
	failed int
}

func technicalAggregator() Aggregator {
	return &category[technicalInput]{
		name:      model.CategoryTechnical,
		component: ComponentTech,
		collect: func(site *model.SiteSignals) technicalInput {
			pages := site.AllPages()
			home := homepage(site)
			in := technicalInput{
				TechnicalInput: score.TechnicalInput{
					HTTPS:      siteHTTPS(site),
					HasHSTS:    home.Technical.HasHSTS,
					Compressed: home.Technical.Compressed,
					HasCSP:     home.Technical.HasCSP,
				},
				failed: len(site.FetchFailures),
			}
			if len(pages) > 0 {
				total := lo.SumBy(pages, func(p model.PageSignals) time.Duration { return p.Technical.ResponseTime })
				in.AvgResponseMs = int((total / time.Duration(len(pages))).Milliseconds())
			}
			in.SuccessRatePct = score.Ratio(len(pages), len(pages)+in.failed)
			return in
		},
		score: func(in technicalInput) (float64, error) { return score.Technical(in.TechnicalInput) },
		signals: func(site *model.SiteSignals, _ technicalInput) []string {
			return pageRefs(site.AllPages(), "technical")
		},
		rules: []rule[technicalInput]{
			{"technical_slow", func(in technicalInput) bool { return in.AvgResponseMs > score.SlowResponseMs }},
			{"technical_no_hsts", func(in technicalInput) bool { return in.HTTPS && !in.HasHSTS }},
			{"technical_no_compress", func(in technicalInput) bool { return !in.Compressed }},
			{"technical_fetch_failure", func(in technicalInput) bool { return in.failed > 0 }},
		},
	}
}

func metaAggregator() Aggregator {
	return &category[score.MetaInput]{
		name:      model.CategoryMeta,
		component: ComponentTech,
		collect: func(site *model.SiteSignals) score.MetaInput {
			meta := homepage(site).Meta
			return score.MetaInput{
				TitlePresent:       meta.TitlePresent,
				TitleOptimal:       meta.TitleOptimal,
				DescriptionPresent: meta.DescriptionPresent,
				DescriptionOptimal: meta.DescriptionOptimal,
				Canonical:          meta.CanonicalPresent,
				Viewport:           meta.ViewportPresent,
				OpenGraphCount:     meta.OpenGraphCount,
			}
		},
		score: score.Meta,
		signals: func(site *model.SiteSignals, _ score.MetaInput) []string {
			if home := homepage(site); home.URL != "" {
				return []string{"page:" + home.URL + "#meta"}
			}
			return nil
		},
		rules: []rule[score.MetaInput]{
			{"meta_no_title", func(in score.MetaInput) bool { return !in.TitlePresent }},
			{"meta_title_length", func(in score.MetaInput) bool { return in.TitlePresent && !in.TitleOptimal }},
			{"meta_no_description", func(in score.MetaInput) bool { return !in.DescriptionPresent }},
			{"meta_description_length", func(in score.MetaInput) bool { return in.DescriptionPresent && !in.DescriptionOptimal }},
			{"meta_no_canonical", func(in score.MetaInput) bool { return !in.Canonical }},
		},
	}
}

type schemaInput struct {
	score.SchemaInput
	doctorPages int
	hasFAQText  bool
}

func schemaAggregator() Aggregator {
	return &category[schemaInput]{
		name:      model.CategorySchema,
		component: ComponentTech,
		collect: func(site *model.SiteSignals) schemaInput {
			pages := site.AllPages()
			valid := make(map[string]bool)
			in := schemaInput{doctorPages: len(site.PagesOfKind(model.PageKindDoctor))}
			for _, p := range pages {
				for _, t := range p.Schema.ValidTypes() {
					valid[t] = true
				}
				in.TotalBlocks += p.Schema.BlockCount
				in.InvalidBlocks += p.Schema.InvalidBlocks
				in.hasFAQText = in.hasFAQText || p.Content.FAQPresent
			}
			in.ValidTypes = len(valid)
			in.HasOrganization = lo.SomeBy(signal.OrganizationSchemaTypes, func(t string) bool { return valid[t] })
			in.HasPhysician = valid["Physician"]
			in.HasFAQ = valid["FAQPage"]
			return in
		},
		score: func(in schemaInput) (float64, error) { return score.Schema(in.SchemaInput) },
		signals: func(site *model.SiteSignals, _ schemaInput) []string {
			return pageRefs(site.AllPages(), "schema")
		},
		rules: []rule[schemaInput]{
			{"schema_none", func(in schemaInput) bool { return in.ValidTypes == 0 }},
			{"schema_invalid", func(in schemaInput) bool { return in.InvalidBlocks > 0 }},
			{"schema_no_physician", func(in schemaInput) bool { return in.doctorPages > 0 && !in.HasPhysician }},
			{"schema_no_faq", func(in schemaInput) bool { return in.hasFAQText && !in.HasFAQ }},
		},
	}
}

type aiAccessInput struct {
	robots score.RobotsInput
	llms   score.LLMSInput
}

func aiAccessAggregator() Aggregator {
	return &category[aiAccessInput]{
		name:      model.CategoryAIAccess,
		component: ComponentTech,
		collect: func(site *model.SiteSignals) aiAccessInput {
			r := site.Robots
			return aiAccessInput{
				robots: score.RobotsInput{
					Present:          r.Present,
					Empty:            r.Empty,
					BlocksEverything: r.BlocksEverything,
					BlockedAIBots:    len(r.BlockedAIBots),
					KnownAIBots:      len(signal.KnownAIBots),
					SitemapDeclared:  len(r.Sitemaps) > 0,
				},
				llms: score.LLMSInput{
					Present:    site.LLMS.Present,
					NonTrivial: site.LLMS.NonTrivial,
					Oversized:  site.LLMS.Oversized,
				},
			}
		},
		score: func(in aiAccessInput) (float64, error) { return score.AIAccess(in.robots, in.llms) },
		signals: func(site *model.SiteSignals, _ aiAccessInput) []string {
			var refs []string
			if site.Robots.Present {
				refs = append(refs, "site#robots")
			}
			if site.LLMS.Present {
				refs = append(refs, "site#llms")
			}
			return refs
		},
		rules: []rule[aiAccessInput]{
			{"ai_blocks_everything", func(in aiAccessInput) bool { return in.robots.Present && in.robots.BlocksEverything }},
			{"ai_bots_blocked", func(in aiAccessInput) bool {
				return in.robots.Present && !in.robots.BlocksEverything && in.robots.BlockedAIBots > 0
			}},
			{"ai_no_robots", func(in aiAccessInput) bool { return !in.robots.Present }},
			{"ai_no_llms", func(in aiAccessInput) bool { return !in.llms.Present }},
			{"ai_llms_thin", func(in aiAccessInput) bool {
				return in.llms.Present && (!in.llms.NonTrivial || in.llms.Oversized)
			}},
		},
	}
}

func visibilityAggregator() Aggregator {
	return &category[[]model.RankingSignal]{
		name:      model.CategoryVisibility,
		component: ComponentVisibility,
		collect: func(site *model.SiteSignals) []model.RankingSignal {
			return site.Enrichment.Rankings
		},
		score: func(rankings []model.RankingSignal) (float64, error) {
			items := lo.Map(rankings, func(r model.RankingSignal, _ int) score.Item {
				return score.Item{
					Visible:         r.Visible,
					Rank:            r.Rank,
					TotalResults:    r.TotalResults,
					CompetitorScore: r.CompetitorScore,
				}
			})
			return score.Visibility(items)
		},
		signals: func(_ *model.SiteSignals, rankings []model.RankingSignal) []string {
			return lo.Map(rankings, func(r model.RankingSignal, _ int) string { return "ranking:" + r.Query })
		},
		rules: []rule[[]model.RankingSignal]{
			{"visibility_no_queries", func(r []model.RankingSignal) bool { return len(r) == 0 }},
			{"visibility_not_found", func(r []model.RankingSignal) bool {
				return len(r) > 0 && !lo.SomeBy(r, func(s model.RankingSignal) bool { return s.Visible })
			}},
			{"visibility_low_rank", func(r []model.RankingSignal) bool {
				return lo.SomeBy(r, func(s model.RankingSignal) bool { return s.Visible && s.Rank > topRank })
			}},
		},
	}
}
