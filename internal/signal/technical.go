package signal

import (
	"net/url"
	"strings"

	"github.com/nao1215/aiaudit/internal/model"
)

// ExtractTechnical derives technical health signals from a fetched page.
func ExtractTechnical(page model.FetchedPage) model.TechnicalSignals {
	sig := model.TechnicalSignals{
		StatusCode:    page.StatusCode,
		ResponseTime:  page.Elapsed,
		ContentLength: len(page.Body),
	}
	if u, err := url.Parse(page.URL); err == nil {
		sig.HTTPS = u.Scheme == "https"
	}
	sig.HasHSTS = page.GetHeader("Strict-Transport-Security") != ""
	sig.HasCSP = page.GetHeader("Content-Security-Policy") != ""
	sig.HasXContentTypeOptions = strings.EqualFold(page.GetHeader("X-Content-Type-Options"), "nosniff")

	switch strings.ToLower(page.GetHeader("Content-Encoding")) {
	case "gzip", "br", "deflate", "zstd":
		sig.Compressed = true
	}
	return sig
}
