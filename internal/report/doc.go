// Package report renders audit results and audit comparisons.
//
// This package contains writers for different output formats:
//   - SimpleWriter: human-readable text for the terminal, optionally colored
//   - JSONWriter: structured JSON for tool integration
//   - MarkdownWriter: GitHub-flavored markdown for sharing
//
// Writers implement the Writer interface so they can be used
// interchangeably and composed with MultiWriter.
package report
