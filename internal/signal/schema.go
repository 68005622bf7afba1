package signal

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nao1215/aiaudit/internal/model"
)

// schemaCatalog lists the schema.org types the audit looks for and their
// required fields. An instance is valid when at least one required field
// has a non-empty value.
var schemaCatalog = map[string][]string{
	"MedicalClinic":       {"name", "address", "telephone"},
	"MedicalOrganization": {"name", "address"},
	"Hospital":            {"name", "address"},
	"Dentist":             {"name", "address"},
	"Physician":           {"name", "medicalSpecialty"},
	"LocalBusiness":       {"name", "address"},
	"Organization":        {"name", "url"},
	"Person":              {"name"},
	"FAQPage":             {"mainEntity"},
	"Article":             {"headline", "author"},
	"BlogPosting":         {"headline", "author"},
	"MedicalWebPage":      {"about", "lastReviewed", "reviewedBy"},
	"BreadcrumbList":      {"itemListElement"},
	"WebSite":             {"name", "url"},
	"Review":              {"reviewRating", "author"},
	"AggregateRating":     {"ratingValue"},
}

// OrganizationSchemaTypes are the catalog types that describe the clinic
// itself.
var OrganizationSchemaTypes = []string{
	"MedicalClinic", "MedicalOrganization", "Hospital", "Dentist", "LocalBusiness", "Organization",
}

// LocalBusinessSchemaTypes are the catalog types that carry a physical
// location.
var LocalBusinessSchemaTypes = []string{
	"MedicalClinic", "Hospital", "Dentist", "LocalBusiness",
}

// SchemaCatalog returns the catalog type names in sorted order.
func SchemaCatalog() []string {
	names := make([]string, 0, len(schemaCatalog))
	for name := range schemaCatalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExtractSchema scans JSON-LD blocks for catalog types. Blocks that are
// not valid JSON are counted in InvalidBlocks and otherwise ignored.
func ExtractSchema(htmlText string) model.SchemaSignals {
	doc := parseDocument(htmlText)
	sig := model.SchemaSignals{Types: make(map[string]model.SchemaTypeSignal)}

	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if attrLower(s, "type") != "application/ld+json" {
			return
		}
		sig.BlockCount++

		var data any
		if err := json.Unmarshal([]byte(strings.TrimSpace(s.Text())), &data); err != nil {
			sig.InvalidBlocks++
			return
		}
		walkSchema(data, sig.Types)
	})

	return sig
}

// walkSchema records every typed object found anywhere in v, including
// @graph members and nested values.
func walkSchema(v any, types map[string]model.SchemaTypeSignal) {
	switch node := v.(type) {
	case []any:
		for _, item := range node {
			walkSchema(item, types)
		}
	case map[string]any:
		for _, t := range schemaTypes(node["@type"]) {
			required, ok := schemaCatalog[t]
			if !ok {
				continue
			}
			entry := types[t]
			entry.Present = true
			entry.Count++
			if hasAnyField(node, required) {
				entry.Valid = true
			}
			types[t] = entry
		}
		for key, child := range node {
			if key == "@type" || key == "@context" {
				continue
			}
			walkSchema(child, types)
		}
	}
}

// schemaTypes normalizes @type, which may be a string or a list, and
// strips a schema.org URL prefix.
func schemaTypes(v any) []string {
	var out []string
	add := func(s string) {
		s = strings.TrimPrefix(s, "https://schema.org/")
		s = strings.TrimPrefix(s, "http://schema.org/")
		if s != "" {
			out = append(out, s)
		}
	}
	switch t := v.(type) {
	case string:
		add(t)
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	}
	return out
}

// hasAnyField reports whether node has a non-empty value for any key.
func hasAnyField(node map[string]any, keys []string) bool {
	for _, k := range keys {
		switch v := node[k].(type) {
		case nil:
			continue
		case string:
			if strings.TrimSpace(v) != "" {
				return true
			}
		case []any:
			if len(v) > 0 {
				return true
			}
		case map[string]any:
			if len(v) > 0 {
				return true
			}
		default:
			return true
		}
	}
	return false
}
