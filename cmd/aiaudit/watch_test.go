package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/aiaudit/internal/config"
	"github.com/nao1215/aiaudit/internal/crawler"
	"github.com/nao1215/aiaudit/internal/database"
)

func newTestWatcher(t *testing.T, targets []string, minInterval time.Duration) (*watcher, *database.AuditDB, *bytes.Buffer) {
	t.Helper()

	cfg := config.NewConfig()
	cfg.Targets = targets
	cfg.CrawlDelay = 0
	cfg.DBDir = t.TempDir()

	db, err := openDB(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	var out bytes.Buffer
	w, err := newWatcher(cfg, db, minInterval, &out, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatal(err)
	}
	return w, db, &out
}

func TestWatcherRound(t *testing.T) {
	t.Parallel()

	srv := newClinicServer(t)
	key := crawler.Key(srv.URL)
	w, db, out := newTestWatcher(t, []string{srv.URL}, 0)

	w.round(context.Background())
	if !strings.Contains(out.String(), "baseline") {
		t.Errorf("first round should report a baseline: %s", out.String())
	}

	w.round(context.Background())
	history, err := db.GetAuditHistoryWithMetadata(context.Background(), key)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 {
		t.Errorf("expected 2 stored audits, got %d", len(history))
	}
	if !strings.Contains(out.String(), "stable") {
		t.Errorf("second round should report the trend: %s", out.String())
	}
}

func TestWatcherSkipsRecentAudits(t *testing.T) {
	t.Parallel()

	srv := newClinicServer(t)
	w, db, _ := newTestWatcher(t, []string{srv.URL}, time.Hour)

	w.round(context.Background())
	w.round(context.Background())

	history, err := db.GetAuditHistoryWithMetadata(context.Background(), crawler.Key(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 {
		t.Errorf("second round should skip the recently audited site, got %d audits", len(history))
	}
}

func TestWatcherPrunes(t *testing.T) {
	t.Parallel()

	srv := newClinicServer(t)
	w, db, _ := newTestWatcher(t, []string{srv.URL}, 0)
	w.cfg.HistoryKeep = 1

	for range 3 {
		w.round(context.Background())
	}

	history, err := db.GetAuditHistoryWithMetadata(context.Background(), crawler.Key(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 {
		t.Errorf("expected 1 audit after pruning, got %d", len(history))
	}
}

func TestCronLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := cronLogger{logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))}

	l.Info("wake", "now", "09:00")
	l.Error(errors.New("panic in job"), "job failed")

	out := buf.String()
	if !strings.Contains(out, "level=DEBUG msg=\"cron: wake\"") {
		t.Errorf("expected debug line: %s", out)
	}
	if !strings.Contains(out, "level=ERROR") || !strings.Contains(out, "panic in job") {
		t.Errorf("expected error line: %s", out)
	}
}
