package signal

import (
	"strings"
	"testing"
)

func TestExtractMeta(t *testing.T) {
	t.Parallel()

	t.Run("optimal title and description", func(t *testing.T) {
		t.Parallel()

		title := "Riverside Family Clinic | Primary Care"
		desc := strings.Repeat("a", 140)
		html := `<html lang="en"><head><title>` + title + `</title>
			<meta name="description" content="` + desc + `">
			<meta name="viewport" content="width=device-width">
			<meta property="og:title" content="x"><meta property="og:type" content="website">
			<link rel="canonical" href="https://clinic.example/">
			</head><body></body></html>`

		sig := ExtractMeta(html)
		if !sig.TitlePresent || !sig.TitleOptimal {
			t.Errorf("expected optimal title, got %+v", sig)
		}
		if sig.TitleLength != len(title) {
			t.Errorf("expected title length %d, got %d", len(title), sig.TitleLength)
		}
		if !sig.DescriptionPresent || !sig.DescriptionOptimal {
			t.Errorf("expected optimal description, got %+v", sig)
		}
		if !sig.CanonicalPresent || !sig.ViewportPresent {
			t.Error("expected canonical and viewport")
		}
		if sig.OpenGraphCount != 2 {
			t.Errorf("expected 2 og tags, got %d", sig.OpenGraphCount)
		}
		if sig.Lang != "en" {
			t.Errorf("expected lang en, got %q", sig.Lang)
		}
	})

	t.Run("empty tags are present but not optimal", func(t *testing.T) {
		t.Parallel()

		sig := ExtractMeta(`<html><head><title></title><meta name="description" content=""></head></html>`)
		if !sig.TitlePresent || sig.TitleOptimal {
			t.Errorf("expected present, non-optimal title: %+v", sig)
		}
		if !sig.DescriptionPresent || sig.DescriptionOptimal {
			t.Errorf("expected present, non-optimal description: %+v", sig)
		}
	})

	t.Run("title length counts characters not bytes", func(t *testing.T) {
		t.Parallel()

		title := strings.Repeat("診", 30)
		sig := ExtractMeta(`<title>` + title + `</title>`)
		if sig.TitleLength != 30 || !sig.TitleOptimal {
			t.Errorf("expected 30 characters and optimal, got %d", sig.TitleLength)
		}
	})

	t.Run("malformed markup does not panic", func(t *testing.T) {
		t.Parallel()

		sig := ExtractMeta(`<<<title>broken</ti`)
		if sig.CanonicalPresent {
			t.Error("expected no canonical")
		}
	})
}
