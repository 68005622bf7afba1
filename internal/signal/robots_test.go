package signal

import (
	"slices"
	"strings"
	"testing"
)

func TestAnalyzeRobots(t *testing.T) {
	t.Parallel()

	t.Run("not fetched", func(t *testing.T) {
		t.Parallel()

		sig := AnalyzeRobots("User-agent: *\nDisallow: /", false)
		if sig.Present {
			t.Error("expected absent robots.txt")
		}
	})

	t.Run("empty file is present and empty", func(t *testing.T) {
		t.Parallel()

		sig := AnalyzeRobots("\n# nothing here\n", true)
		if !sig.Present || !sig.Empty {
			t.Errorf("expected present and empty, got %+v", sig)
		}
	})

	t.Run("html soft 404 is treated as absent", func(t *testing.T) {
		t.Parallel()

		sig := AnalyzeRobots("<!DOCTYPE html><html><head><title>Home</title></head></html>", true)
		if sig.Present {
			t.Error("expected HTML body to be treated as absent")
		}
	})

	t.Run("wildcard disallow blocks every bot", func(t *testing.T) {
		t.Parallel()

		sig := AnalyzeRobots("User-agent: *\nDisallow: /\n", true)
		if !sig.BlocksEverything {
			t.Error("expected BlocksEverything")
		}
		if len(sig.BlockedAIBots) != len(KnownAIBots) {
			t.Errorf("expected all %d bots blocked, got %d", len(KnownAIBots), len(sig.BlockedAIBots))
		}
	})

	t.Run("specific groups override wildcard", func(t *testing.T) {
		t.Parallel()

		text := strings.Join([]string{
			"User-agent: GPTBot",
			"User-agent: CCBot",
			"Disallow: /",
			"",
			"User-agent: ClaudeBot",
			"Allow: /",
			"",
			"User-agent: *",
			"Disallow: /private/",
			"",
			"Sitemap: https://clinic.example/sitemap.xml",
		}, "\n")

		sig := AnalyzeRobots(text, true)
		if sig.BlocksEverything {
			t.Error("wildcard only blocks /private/")
		}
		if !slices.Contains(sig.BlockedAIBots, "GPTBot") || !slices.Contains(sig.BlockedAIBots, "CCBot") {
			t.Errorf("expected GPTBot and CCBot blocked, got %v", sig.BlockedAIBots)
		}
		if !slices.Contains(sig.AllowedAIBots, "ClaudeBot") {
			t.Errorf("expected ClaudeBot allowed, got %v", sig.AllowedAIBots)
		}
		if sig.GroupCount != 3 {
			t.Errorf("expected 3 groups, got %d", sig.GroupCount)
		}
		if len(sig.Sitemaps) != 1 {
			t.Errorf("expected 1 sitemap, got %v", sig.Sitemaps)
		}
	})

	t.Run("empty disallow allows everything", func(t *testing.T) {
		t.Parallel()

		sig := AnalyzeRobots("User-agent: *\nDisallow:\n", true)
		if sig.BlocksEverything || len(sig.BlockedAIBots) != 0 {
			t.Errorf("expected nothing blocked, got %+v", sig)
		}
	})
}

func TestParseSitemapDirectives(t *testing.T) {
	t.Parallel()

	got := ParseSitemapDirectives("Sitemap: https://a.example/s1.xml\nsitemap:https://a.example/s2.xml # second\n")
	want := []string{"https://a.example/s1.xml", "https://a.example/s2.xml"}
	if !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestCheckLLMS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		text       string
		fetched    bool
		present    bool
		nonTrivial bool
		oversized  bool
	}{
		{name: "missing", text: "", fetched: false},
		{name: "short", text: "# Clinic\n", fetched: true, present: true},
		{name: "substantial", text: "# Clinic\n" + strings.Repeat("word ", 40), fetched: true, present: true, nonTrivial: true},
		{name: "whitespace does not count", text: strings.Repeat(" \n", 200), fetched: true, present: true},
		{name: "oversized", text: strings.Repeat("x", LLMSMaxBytes+1), fetched: true, present: true, nonTrivial: true, oversized: true},
		{name: "html", text: "<html><head></head></html>", fetched: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sig := CheckLLMS(tt.text, tt.fetched)
			if sig.Present != tt.present || sig.NonTrivial != tt.nonTrivial || sig.Oversized != tt.oversized {
				t.Errorf("got %+v", sig)
			}
		})
	}
}
