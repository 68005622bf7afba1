package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/aiaudit/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs reports in GitHub-flavored markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the result in markdown.
func (w *MarkdownWriter) Write(result *model.AuditResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, result)
	w.writeCategories(md, result)
	w.writeRecommendations(md, result)
	w.writeFailures(md, result)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteComparison outputs the trend between two results in markdown.
func (w *MarkdownWriter) WriteComparison(c *Comparison) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Audit Comparison")
	md.PlainText("")
	if c.Current != nil && c.Previous != nil {
		md.Table(markdown.TableSet{
			Header: []string{"Property", "Value"},
			Rows: [][]string{
				{"Site", c.Current.RootURL},
				{"Previous Audit", c.Previous.Timestamp.Format("2006-01-02 15:04:05 MST")},
				{"Current Audit", c.Current.Timestamp.Format("2006-01-02 15:04:05 MST")},
			},
		})
		md.PlainText("")
	}

	switch {
	case !c.Trend.HasBaseline:
		md.Note(c.Trend.Summary)
	case len(c.Trend.Declined) > 0:
		md.Warning(c.Trend.Summary)
	case len(c.Trend.Improved) > 0:
		md.Tip(c.Trend.Summary)
	default:
		md.Note(c.Trend.Summary)
	}
	md.PlainText("")

	if len(c.Trend.Deltas) > 0 {
		rows := make([][]string, 0, len(c.Trend.Deltas))
		for _, d := range c.Trend.Deltas {
			rows = append(rows, []string{
				d.Metric,
				strconv.FormatFloat(d.Previous, 'f', 2, 64),
				strconv.FormatFloat(d.Current, 'f', 2, 64),
				fmt.Sprintf("%+.2f", d.Absolute),
				formatPercent(d.Percent),
				string(d.Direction),
			})
		}
		md.H2("Deltas")
		md.PlainText("")
		md.Table(markdown.TableSet{
			Header: []string{"Metric", "Previous", "Current", "Change", "Percent", "Trend"},
			Rows:   rows,
		})
		md.PlainText("")
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, result *model.AuditResult) {
	md.H1("AI Visibility Audit")
	md.PlainText("")

	source := string(result.Discovery.Source)
	if result.Discovery.Truncated {
		source += " (truncated)"
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Site", result.RootURL},
			{"Audit Date", result.Timestamp.Format("2006-01-02 15:04:05 MST")},
			{"Pages Fetched", strconv.Itoa(result.FetchedPages)},
			{"Pages Failed", strconv.Itoa(len(result.FailedPages))},
			{"Discovery", source},
			{"Composite Score", fmt.Sprintf("**%.2f** (%s)", result.Composite, Grade(result.Composite))},
		},
	})
	md.PlainText("")

	switch {
	case result.TimedOut:
		md.Caution("The audit timed out; scores reflect the pages fetched before the deadline.")
	case len(result.Degraded) > 0:
		md.Importantf("Some signal sources were unavailable: %v. Affected categories use neutral defaults.", result.Degraded)
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeCategories(md *markdown.Markdown, result *model.AuditResult) {
	md.H2("Category Scores")
	md.PlainText("")

	names := result.CategoryNames()
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		cs := result.Categories[name]
		rows = append(rows, []string{
			name,
			strconv.FormatFloat(cs.Value, 'f', 2, 64),
			strconv.FormatFloat(cs.Weight, 'f', 4, 64),
			Grade(cs.Value),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Category", "Score", "Weight", "Grade"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeRecommendations(md *markdown.Markdown, result *model.AuditResult) {
	md.H2("Recommendations")
	md.PlainText("")

	if len(result.Recommendations) == 0 {
		md.Tip("No recommendations. Every rule passed.")
		md.PlainText("")
		return
	}

	w.writePieChart(md, result)

	for _, p := range priorities {
		recs := result.RecommendationsByPriority(p)
		if len(recs) == 0 {
			continue
		}
		md.H3(p.String())
		md.PlainText("")
		items := make([]string, 0, len(recs))
		for _, rec := range recs {
			items = append(items, fmt.Sprintf("**%s**: %s", rec.Category, rec.Text))
		}
		md.BulletList(items...)
		md.PlainText("")
	}
}

// writePieChart writes a mermaid pie chart of recommendation priorities.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, result *model.AuditResult) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Recommendations by Priority"),
		piechart.WithShowData(true),
	)
	for _, p := range priorities {
		if n := len(result.RecommendationsByPriority(p)); n > 0 {
			chart.LabelAndIntValue(p.String(), uint64(n))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, result *model.AuditResult) {
	if len(result.FailedPages) == 0 {
		return
	}
	md.H2("Failed Pages")
	md.PlainText("")

	rows := make([][]string, 0, len(result.FailedPages))
	for _, f := range result.FailedPages {
		rows = append(rows, []string{truncateString(f.URL, 80), truncateString(f.Reason, 60)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Reason"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [aiaudit](https://github.com/nao1215/aiaudit)*")
}
