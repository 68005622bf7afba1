package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/aiaudit/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *AuditDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

var baseTime = time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

func newResult(key string, composite float64, at time.Time) *model.AuditResult {
	r := model.NewAuditResult(key+"/", key)
	r.Composite = composite
	r.Timestamp = at
	r.Categories[model.CategoryTrust] = model.CategoryScore{Name: model.CategoryTrust, Value: composite, Weight: 0.05}
	r.Recommendations = []model.Recommendation{model.NewRecommendation(model.CategoryTrust, "trust_no_byline")}
	r.FetchedPages = 1
	r.FailedPages = []model.FetchFailure{{URL: key + "/slow", Reason: "context deadline exceeded"}}
	r.Degraded = []string{"reputation"}
	r.Signals = &model.SiteSignals{
		RootURL: key,
		Pages: []model.PageSignals{{
			URL:       key + "/blog/a",
			Kind:      model.PageKindBlog,
			Technical: model.TechnicalSignals{StatusCode: 200},
		}},
	}
	return r
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("Path() = %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "nonexistent-db")
		_, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err == nil {
			t.Fatal("expected error when database does not exist")
		}
		if !strings.Contains(err.Error(), "database not found") {
			t.Errorf("unexpected error %q", err)
		}
		if _, statErr := os.Stat(dbDir); !os.IsNotExist(statErr) {
			t.Error("database directory should not have been created")
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "existing-db")
		db1, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		_ = db1.Close()

		db2, err := Open(dbDir, Options{CreateIfNotExists: false})
		if err != nil {
			t.Fatalf("failed to open existing database: %v", err)
		}
		_ = db2.Close()
	})
}

func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	if !opts.CreateIfNotExists || !opts.EnableWAL {
		t.Errorf("unexpected defaults %+v", opts)
	}
}

func TestSaveAndLatestResults(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	key := "https://clinic.example"

	first := newResult(key, 60, baseTime)
	second := newResult(key, 65, baseTime.Add(24*time.Hour))
	third := newResult(key, 70, baseTime.Add(48*time.Hour))
	other := newResult("https://other.example", 10, baseTime)

	// Saved out of order on purpose.
	for _, r := range []*model.AuditResult{second, other, third, first} {
		if err := db.SaveAuditResult(ctx, r); err != nil {
			t.Fatalf("SaveAuditResult() error = %v", err)
		}
	}

	got, err := db.LatestResults(ctx, key, 2)
	if err != nil {
		t.Fatalf("LatestResults() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].ID != third.ID || got[1].ID != second.ID {
		t.Errorf("results not newest first: %s, %s", got[0].ID, got[1].ID)
	}

	r := got[0]
	if r.Composite != 70 || r.Key != key || !r.Timestamp.Equal(third.Timestamp) {
		t.Errorf("unexpected result %+v", r)
	}
	if r.Signals != nil {
		t.Error("raw signals should not be stored")
	}
	if len(r.Recommendations) != 1 || r.Recommendations[0].Priority != model.PriorityHigh {
		t.Errorf("unexpected recommendations %+v", r.Recommendations)
	}
	if r.Categories[model.CategoryTrust].Value != 70 {
		t.Errorf("unexpected categories %+v", r.Categories)
	}

	none, err := db.LatestResults(ctx, "https://unknown.example", 2)
	if err != nil {
		t.Fatalf("LatestResults() error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no results, got %d", len(none))
	}
}

func TestSaveDuplicateID(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	r := newResult("https://clinic.example", 50, baseTime)
	if err := db.SaveAuditResult(context.Background(), r); err != nil {
		t.Fatalf("SaveAuditResult() error = %v", err)
	}
	if err := db.SaveAuditResult(context.Background(), r); err == nil {
		t.Error("expected error when saving the same run twice")
	}
}

func TestListAuditedSites(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	for _, key := range []string{"https://b.example", "https://a.example", "https://b.example"} {
		if err := db.SaveAuditResult(ctx, newResult(key, 50, baseTime)); err != nil {
			t.Fatalf("SaveAuditResult() error = %v", err)
		}
	}

	sites, err := db.ListAuditedSites(ctx)
	if err != nil {
		t.Fatalf("ListAuditedSites() error = %v", err)
	}
	if len(sites) != 2 || sites[0] != "https://a.example" || sites[1] != "https://b.example" {
		t.Errorf("unexpected sites %v", sites)
	}
}

func TestGetAuditHistoryWithMetadata(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	key := "https://clinic.example"
	older := newResult(key, 40, baseTime)
	newer := newResult(key, 55, baseTime.Add(time.Hour))
	for _, r := range []*model.AuditResult{older, newer} {
		if err := db.SaveAuditResult(ctx, r); err != nil {
			t.Fatalf("SaveAuditResult() error = %v", err)
		}
	}

	history, err := db.GetAuditHistoryWithMetadata(ctx, key)
	if err != nil {
		t.Fatalf("GetAuditHistoryWithMetadata() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history))
	}

	meta := history[0]
	if meta.ID != newer.ID || meta.Composite != 55 {
		t.Errorf("unexpected first entry %+v", meta)
	}
	if !meta.Timestamp.Equal(newer.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", meta.Timestamp, newer.Timestamp)
	}
	if meta.SavedAt.IsZero() {
		t.Error("expected SavedAt to be set")
	}
	if meta.FetchedPages != 1 || meta.FailedPages != 1 {
		t.Errorf("unexpected page counts %+v", meta)
	}
	if len(meta.Degraded) != 1 || meta.Degraded[0] != "reputation" {
		t.Errorf("unexpected degraded %v", meta.Degraded)
	}
}

func TestGetAuditResultByID(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	r := newResult("https://clinic.example", 50, baseTime)
	if err := db.SaveAuditResult(ctx, r); err != nil {
		t.Fatalf("SaveAuditResult() error = %v", err)
	}

	got, err := db.GetAuditResultByID(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetAuditResultByID() error = %v", err)
	}
	if got.ID != r.ID || got.RootURL != r.RootURL {
		t.Errorf("unexpected result %+v", got)
	}

	_, err = db.GetAuditResultByID(ctx, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAuditPages(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	r := newResult("https://clinic.example", 50, baseTime)
	if err := db.SaveAuditResult(ctx, r); err != nil {
		t.Fatalf("SaveAuditResult() error = %v", err)
	}

	pages, err := db.AuditPages(ctx, r.ID)
	if err != nil {
		t.Fatalf("AuditPages() error = %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if pages[0].Kind != "blog" || pages[0].StatusCode != 200 || pages[0].FailureReason != "" {
		t.Errorf("unexpected fetched page %+v", pages[0])
	}
	if pages[1].FailureReason != "context deadline exceeded" {
		t.Errorf("unexpected failed page %+v", pages[1])
	}
}

func TestHasRecentAudit(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	key := "https://clinic.example"
	if err := db.SaveAuditResult(ctx, newResult(key, 50, baseTime)); err != nil {
		t.Fatalf("SaveAuditResult() error = %v", err)
	}

	recent, err := db.HasRecentAudit(ctx, key, time.Hour, baseTime.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("HasRecentAudit() error = %v", err)
	}
	if !recent {
		t.Error("expected a recent audit")
	}

	recent, err = db.HasRecentAudit(ctx, key, time.Hour, baseTime.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("HasRecentAudit() error = %v", err)
	}
	if recent {
		t.Error("expected no recent audit")
	}
}

func TestPrune(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	key := "https://clinic.example"
	var newest *model.AuditResult
	for i := range 4 {
		newest = newResult(key, float64(50+i), baseTime.Add(time.Duration(i)*time.Hour))
		if err := db.SaveAuditResult(ctx, newest); err != nil {
			t.Fatalf("SaveAuditResult() error = %v", err)
		}
	}

	removed, err := db.Prune(ctx, key, 2)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("removed %d, want 2", removed)
	}

	history, err := db.GetAuditHistoryWithMetadata(ctx, key)
	if err != nil {
		t.Fatalf("GetAuditHistoryWithMetadata() error = %v", err)
	}
	if len(history) != 2 || history[0].ID != newest.ID {
		t.Errorf("unexpected history after prune %+v", history)
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		zero bool
	}{
		{"2026-09-01 10:00:00", false},
		{"2026-09-01T10:00:00Z", false},
		{"2026-09-01T10:00:00.123456789Z", false},
		{"yesterday", true},
	}
	for _, tt := range tests {
		if got := parseTimestamp(tt.in); got.IsZero() != tt.zero {
			t.Errorf("parseTimestamp(%q) = %v", tt.in, got)
		}
	}
}
