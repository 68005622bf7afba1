package trend

import (
	"fmt"
	"slices"
	"strings"

	"github.com/nao1215/aiaudit/internal/model"
	"github.com/nao1215/aiaudit/internal/score"
	"github.com/samber/lo"
)

// MetricComposite is the metric name of the composite score.
const MetricComposite = "composite"

// Threshold is the percentage change beyond which a metric counts as
// improved or declined.
const Threshold = 5.0

// Summary sentences.
const (
	summaryNoBaseline = "No previous audit available; this audit is the baseline."
	summaryBoth       = "Improved: %s. Declined: %s."
	summaryImproved   = "Improved: %s. No metric declined."
	summaryDeclined   = "Declined: %s. No metric improved."
	summaryStable     = "All metrics are stable within 5%."
)

// Compare computes the trend from prev to cur. A nil prev yields an empty
// report that names cur as the baseline.
func Compare(prev, cur *model.AuditResult) model.TrendReport {
	if prev == nil || cur == nil {
		return model.TrendReport{Deltas: []model.TrendDelta{}, Summary: summaryNoBaseline}
	}

	deltas := []model.TrendDelta{Delta(MetricComposite, prev.Composite, cur.Composite)}
	for _, name := range sharedCategories(prev, cur) {
		deltas = append(deltas, Delta(name, prev.Categories[name].Value, cur.Categories[name].Value))
	}

	report := model.TrendReport{Deltas: deltas, HasBaseline: true}
	for _, d := range deltas {
		switch d.Direction {
		case model.DirectionImproved:
			report.Improved = append(report.Improved, d.Metric)
		case model.DirectionDeclined:
			report.Declined = append(report.Declined, d.Metric)
		default:
			report.Stable = append(report.Stable, d.Metric)
		}
	}
	report.Summary = summarize(report.Improved, report.Declined)
	return report
}

// Delta computes the change of one metric.
func Delta(metric string, prev, cur float64) model.TrendDelta {
	pct := Percent(prev, cur)
	return model.TrendDelta{
		Metric:    metric,
		Previous:  prev,
		Current:   cur,
		Absolute:  score.Round2(cur - prev),
		Percent:   &pct,
		Direction: Classify(pct),
	}
}

// Percent returns the percentage change from prev to cur, rounded to two
// decimals.
func Percent(prev, cur float64) float64 {
	if prev == 0 {
		if cur > 0 {
			return 100
		}
		return 0
	}
	return score.Round2((cur - prev) / prev * 100)
}

// Classify buckets a percentage change.
func Classify(pct float64) model.Direction {
	switch {
	case pct > Threshold:
		return model.DirectionImproved
	case pct < -Threshold:
		return model.DirectionDeclined
	default:
		return model.DirectionStable
	}
}

// sharedCategories returns the category names present in both results,
// sorted ascending.
func sharedCategories(prev, cur *model.AuditResult) []string {
	names := lo.Filter(lo.Keys(cur.Categories), func(name string, _ int) bool {
		_, ok := prev.Categories[name]
		return ok
	})
	slices.Sort(names)
	return names
}

func summarize(improved, declined []string) string {
	switch {
	case len(improved) > 0 && len(declined) > 0:
		return fmt.Sprintf(summaryBoth, strings.Join(improved, ", "), strings.Join(declined, ", "))
	case len(improved) > 0:
		return fmt.Sprintf(summaryImproved, strings.Join(improved, ", "))
	case len(declined) > 0:
		return fmt.Sprintf(summaryDeclined, strings.Join(declined, ", "))
	default:
		return summaryStable
	}
}
