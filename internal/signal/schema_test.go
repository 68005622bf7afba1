package signal

import "testing"

func TestExtractSchema(t *testing.T) {
	t.Parallel()

	t.Run("counts valid and invalid blocks", func(t *testing.T) {
		t.Parallel()

		html := `<html><head>
			<script type="application/ld+json">{"@context":"https://schema.org","@type":"MedicalClinic","name":"Riverside"}</script>
			<script type="application/ld+json">{not json</script>
			<script type="application/ld+json">{"@type":"Physician"}</script>
			</head></html>`

		sig := ExtractSchema(html)
		if sig.BlockCount != 3 {
			t.Errorf("expected 3 blocks, got %d", sig.BlockCount)
		}
		if sig.InvalidBlocks != 1 {
			t.Errorf("expected 1 invalid block, got %d", sig.InvalidBlocks)
		}
		if !sig.IsValid("MedicalClinic") {
			t.Error("expected valid MedicalClinic")
		}
		if !sig.Has("Physician") || sig.IsValid("Physician") {
			t.Error("expected Physician present but invalid without required fields")
		}
	})

	t.Run("walks graph and nested objects", func(t *testing.T) {
		t.Parallel()

		html := `<script type="application/ld+json">{"@graph":[
			{"@type":["Organization","MedicalOrganization"],"name":"Acme Health","url":"https://acme.example"},
			{"@type":"FAQPage","mainEntity":[{"@type":"Question","name":"Q"}]},
			{"@type":"Article","headline":"H","author":{"@type":"Person","name":"Dr. Lee"}}
		]}</script>`

		sig := ExtractSchema(html)
		for _, name := range []string{"Organization", "MedicalOrganization", "FAQPage", "Article", "Person"} {
			if !sig.IsValid(name) {
				t.Errorf("expected valid %s", name)
			}
		}
		if _, ok := sig.Types["Question"]; ok {
			t.Error("types outside the catalog must not be recorded")
		}
	})

	t.Run("count increments per instance", func(t *testing.T) {
		t.Parallel()

		html := `<script type="application/ld+json">[{"@type":"Person","name":"A"},{"@type":"Person","name":"B"}]</script>`
		sig := ExtractSchema(html)
		if got := sig.Types["Person"].Count; got != 2 {
			t.Errorf("expected count 2, got %d", got)
		}
	})

	t.Run("schema.org prefixed type", func(t *testing.T) {
		t.Parallel()

		sig := ExtractSchema(`<script type="application/ld+json">{"@type":"https://schema.org/Dentist","name":"Smile"}</script>`)
		if !sig.IsValid("Dentist") {
			t.Error("expected prefixed type to be recognized")
		}
	})

	t.Run("no blocks", func(t *testing.T) {
		t.Parallel()

		sig := ExtractSchema(`<html><body>plain</body></html>`)
		if sig.BlockCount != 0 || len(sig.ValidTypes()) != 0 {
			t.Errorf("expected empty signals, got %+v", sig)
		}
	})
}

func TestSchemaCatalogSorted(t *testing.T) {
	t.Parallel()

	names := SchemaCatalog()
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Fatalf("catalog not sorted at %d: %q > %q", i, names[i-1], names[i])
		}
	}
}
