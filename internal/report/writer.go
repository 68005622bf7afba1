package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/nao1215/aiaudit/internal/model"
)

// ErrUnknownFormat is returned by NewWriter for an unsupported format.
var ErrUnknownFormat = errors.New("unknown report format")

// Format names an output format.
type Format string

// Output formats.
const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Comparison is the input of Writer.WriteComparison.
type Comparison struct {
	Previous *model.AuditResult
	Current  *model.AuditResult
	Trend    model.TrendReport
}

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs one audit result.
	Write(result *model.AuditResult) (int, error)

	// WriteComparison outputs the trend between two results.
	WriteComparison(c *Comparison) (int, error)
}

// WriterOptions are the settings NewWriter passes to the writer it builds.
type WriterOptions struct {
	Version string
	Verbose bool
	Color   bool
}

// NewWriter creates a Writer for format.
func NewWriter(format Format, output io.Writer, opts WriterOptions) (Writer, error) {
	switch format {
	case FormatText, "":
		return NewSimpleWriter(output, WithVerbose(opts.Verbose), WithColor(opts.Color)), nil
	case FormatJSON:
		return NewFullJSONWriter(output, opts.Version, WithPrettyPrint()), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// MultiWriter writes to multiple Writers in order and stops at the first
// error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the result to all configured Writers.
func (m *MultiWriter) Write(result *model.AuditResult) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(result)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteComparison outputs the comparison to all configured Writers.
func (m *MultiWriter) WriteComparison(c *Comparison) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteComparison(c)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// Grade labels a 0..100 score.
func Grade(score float64) string {
	switch {
	case score >= 80:
		return "Excellent"
	case score >= 60:
		return "Good"
	case score >= 40:
		return "Needs work"
	default:
		return "Poor"
	}
}

// priorities lists recommendation priorities from most to least urgent.
var priorities = []model.Priority{model.PriorityHigh, model.PriorityMedium, model.PriorityLow}

func formatPercent(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%+.2f%%", *p)
}

// truncateString truncates a string to maxLen bytes with an ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
