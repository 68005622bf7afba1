package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/aiaudit/internal/model"
)

// JSONWriter outputs results in JSON format.
type JSONWriter struct {
	baseWriter

	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the result. Raw signals are included when the result
// carries them.
func (w *JSONWriter) Write(result *model.AuditResult) (int, error) {
	return w.writeJSON(result)
}

// WriteComparison outputs the comparison.
func (w *JSONWriter) WriteComparison(c *Comparison) (int, error) {
	return w.writeJSON(newJSONComparison(c))
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	return w.output.Write(data)
}

// jsonComparison is the JSON shape of a Comparison.
type jsonComparison struct {
	PreviousID string            `json:"previous_id,omitempty"`
	CurrentID  string            `json:"current_id,omitempty"`
	Key        string            `json:"key,omitempty"`
	Trend      model.TrendReport `json:"trend"`
}

func newJSONComparison(c *Comparison) jsonComparison {
	out := jsonComparison{Trend: c.Trend}
	if c.Previous != nil {
		out.PreviousID = c.Previous.ID
	}
	if c.Current != nil {
		out.CurrentID = c.Current.ID
		out.Key = c.Current.Key
	}
	return out
}

// JSONReport wraps a result with the version of the tool that produced
// it.
type JSONReport struct {
	Version string             `json:"version"`
	Grade   string             `json:"grade"`
	Result  *model.AuditResult `json:"result"`
}

// FullJSONWriter outputs results wrapped with metadata.
type FullJSONWriter struct {
	*JSONWriter

	version string
}

// NewFullJSONWriter creates a writer for results with metadata.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs the result wrapped with metadata. Raw signals are left
// out.
func (w *FullJSONWriter) Write(result *model.AuditResult) (int, error) {
	trimmed := *result
	trimmed.Signals = nil
	return w.writeJSON(&JSONReport{
		Version: w.version,
		Grade:   Grade(result.Composite),
		Result:  &trimmed,
	})
}
