package signal

import "github.com/nao1215/aiaudit/internal/model"

// ExtractPage runs every per-page extractor over a fetched page.
func ExtractPage(page model.FetchedPage) model.PageSignals {
	body := string(page.Body)
	schema := ExtractSchema(body)
	return model.PageSignals{
		URL:       page.URL,
		Kind:      model.ClassifyURL(page.URL),
		Meta:      ExtractMeta(body),
		Schema:    schema,
		Content:   ExtractContent(body, page.URL),
		Trust:     ExtractTrust(body, page.URL),
		Local:     ExtractLocal(body, schema),
		Technical: ExtractTechnical(page),
	}
}
