package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/nao1215/aiaudit/internal/model"
)

const ruleWidth = 70

// SimpleWriter outputs human-readable text reports.
type SimpleWriter struct {
	baseWriter

	// verbose adds failed pages and contributing signal counts.
	verbose bool

	// color enables ANSI colors for scores and priorities.
	color bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// WithColor enables colored output.
func WithColor(enabled bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.color = enabled
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the result in human-readable format.
func (w *SimpleWriter) Write(result *model.AuditResult) (int, error) {
	var sb strings.Builder

	w.writeBanner(&sb, "AI VISIBILITY AUDIT")
	w.writeHeader(&sb, result)
	w.writeCategories(&sb, result)
	w.writeRecommendations(&sb, result)
	if w.verbose {
		w.writeFailures(&sb, result)
	}
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// WriteComparison outputs the trend between two results.
func (w *SimpleWriter) WriteComparison(c *Comparison) (int, error) {
	var sb strings.Builder

	w.writeBanner(&sb, "AUDIT COMPARISON")
	if c.Current != nil {
		fmt.Fprintf(&sb, "Site:           %s\n", c.Current.RootURL)
		fmt.Fprintf(&sb, "Current:        %s\n", c.Current.Timestamp.Format("2006-01-02 15:04:05 MST"))
	}
	if c.Previous != nil {
		fmt.Fprintf(&sb, "Previous:       %s\n", c.Previous.Timestamp.Format("2006-01-02 15:04:05 MST"))
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "%s\n\n", c.Trend.Summary)

	if len(c.Trend.Deltas) > 0 {
		w.writeSection(&sb, "DELTAS")
		fmt.Fprintf(&sb, "  %-14s %9s %9s %9s %10s  %s\n", "METRIC", "PREVIOUS", "CURRENT", "CHANGE", "PERCENT", "TREND")
		for _, d := range c.Trend.Deltas {
			fmt.Fprintf(&sb, "  %-14s %9.2f %9.2f %+9.2f %10s  %s\n",
				d.Metric, d.Previous, d.Current, d.Absolute, formatPercent(d.Percent), w.direction(d.Direction))
		}
		sb.WriteString("\n")
	}
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeBanner(sb *strings.Builder, title string) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	pad := max((ruleWidth-len(title))/2, 0)
	sb.WriteString(strings.Repeat(" ", pad) + title + "\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(title + "\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, result *model.AuditResult) {
	fmt.Fprintf(sb, "Site:           %s\n", result.RootURL)
	fmt.Fprintf(sb, "Audit Date:     %s\n", result.Timestamp.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Pages Fetched:  %d (%d failed)\n", result.FetchedPages, len(result.FailedPages))
	fmt.Fprintf(sb, "Discovery:      %s", result.Discovery.Source)
	if result.Discovery.Truncated {
		sb.WriteString(" (truncated)")
	}
	sb.WriteString("\n")

	switch {
	case result.TimedOut:
		sb.WriteString("Status:         TIMED OUT (partial results)\n")
	case len(result.Degraded) > 0:
		fmt.Fprintf(sb, "Status:         Degraded (%s unavailable)\n", strings.Join(result.Degraded, ", "))
	default:
		sb.WriteString("Status:         Complete\n")
	}
	sb.WriteString("\n")

	fmt.Fprintf(sb, "COMPOSITE SCORE: %s / 100 (%s)\n\n", w.score(result.Composite), Grade(result.Composite))
}

func (w *SimpleWriter) writeCategories(sb *strings.Builder, result *model.AuditResult) {
	w.writeSection(sb, "CATEGORY SCORES")
	for _, name := range result.CategoryNames() {
		cs := result.Categories[name]
		fmt.Fprintf(sb, "  %-14s %s  weight %.4f", name, w.score(cs.Value), cs.Weight)
		if w.verbose {
			fmt.Fprintf(sb, "  signals %d", len(cs.ContributingSignals))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeRecommendations(sb *strings.Builder, result *model.AuditResult) {
	w.writeSection(sb, "RECOMMENDATIONS")
	if len(result.Recommendations) == 0 {
		sb.WriteString("  No recommendations\n\n")
		return
	}
	for _, p := range priorities {
		recs := result.RecommendationsByPriority(p)
		if len(recs) == 0 {
			continue
		}
		fmt.Fprintf(sb, "[%s]\n", w.priority(p))
		for _, rec := range recs {
			fmt.Fprintf(sb, "  * (%s) %s\n", rec.Category, rec.Text)
		}
		sb.WriteString("\n")
	}
}

func (w *SimpleWriter) writeFailures(sb *strings.Builder, result *model.AuditResult) {
	if len(result.FailedPages) == 0 {
		return
	}
	w.writeSection(sb, "FAILED PAGES")
	for _, f := range result.FailedPages {
		fmt.Fprintf(sb, "  [-] %s\n      %s\n", f.URL, f.Reason)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("Report generated by aiaudit\n")
	sb.WriteString("https://github.com/nao1215/aiaudit\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
}

// paint applies attributes when color is enabled.
func (w *SimpleWriter) paint(s string, attrs ...color.Attribute) string {
	if !w.color {
		return s
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(s)
}

func (w *SimpleWriter) score(v float64) string {
	s := fmt.Sprintf("%6.2f", v)
	switch {
	case v >= 80:
		return w.paint(s, color.FgGreen, color.Bold)
	case v >= 60:
		return w.paint(s, color.FgGreen)
	case v >= 40:
		return w.paint(s, color.FgYellow)
	default:
		return w.paint(s, color.FgRed)
	}
}

func (w *SimpleWriter) priority(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return w.paint(p.String(), color.FgRed, color.Bold)
	case model.PriorityMedium:
		return w.paint(p.String(), color.FgYellow)
	default:
		return w.paint(p.String(), color.FgCyan)
	}
}

func (w *SimpleWriter) direction(d model.Direction) string {
	switch d {
	case model.DirectionImproved:
		return w.paint(string(d), color.FgGreen)
	case model.DirectionDeclined:
		return w.paint(string(d), color.FgRed)
	default:
		return string(d)
	}
}
