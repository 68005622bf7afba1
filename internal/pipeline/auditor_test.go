package pipeline

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/aiaudit/internal/fetch"
	"github.com/nao1215/aiaudit/internal/metrics"
	"github.com/nao1215/aiaudit/internal/model"
	"github.com/prometheus/client_golang/prometheus"
)

const testRoot = "https://clinic.example"

// siteClient serves a fixed site from memory. URLs listed in block wait
// until the request context is done.
type siteClient struct {
	pages map[string]string
	block map[string]bool

	mu    sync.Mutex
	calls map[string]int
}

func newSiteClient(pages map[string]string) *siteClient {
	return &siteClient{pages: pages, block: make(map[string]bool), calls: make(map[string]int)}
}

func (c *siteClient) Fetch(ctx context.Context, rawURL string) (*fetch.Response, error) {
	c.mu.Lock()
	c.calls[rawURL]++
	c.mu.Unlock()

	if c.block[rawURL] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	body, ok := c.pages[rawURL]
	if !ok {
		return &fetch.Response{URL: rawURL, StatusCode: http.StatusNotFound}, nil
	}
	return &fetch.Response{
		URL:        rawURL,
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"text/html"}},
		Body:       []byte(body),
		Elapsed:    10 * time.Millisecond,
	}, nil
}

func (c *siteClient) callsFor(rawURL string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[rawURL]
}

const testHomepage = `<html lang="en"><head><title>Shibuya Family Clinic | Internal medicine</title>
<meta name="description" content="Family clinic"></head>
<body><h1>Shibuya Family Clinic</h1><p>We care for families.</p>
<a href="/blog/first-visit">Blog</a></body></html>`

func testSite() map[string]string {
	return map[string]string{
		testRoot + "/sitemap.xml": `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://clinic.example/</loc></url>
  <url><loc>https://clinic.example/blog/first-visit</loc></url>
  <url><loc>https://clinic.example/doctors/tanaka</loc></url>
</urlset>`,
		testRoot + "/robots.txt": "User-agent: GPTBot\nDisallow: /\n\nUser-agent: *\nAllow: /\n",
		testRoot + "/llms.txt":   "# Clinic\n> Family medicine clinic in Shibuya. Open weekdays 9:00-18:00, Saturdays until noon.\n",
		testRoot:                 testHomepage,
		testRoot + "/":           testHomepage,
		testRoot + "/blog/first-visit": `<html><body><article><h1>Your first visit</h1>
<p class="byline">By Dr. Tanaka, MD</p><p>Bring your insurance card.</p></article></body></html>`,
		testRoot + "/doctors/tanaka": `<html><body><h1>Dr. Tanaka</h1><p>Board-certified internist.</p></body></html>`,
	}
}

func fixedClock() time.Time {
	return time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
}

func TestAuditorAudit(t *testing.T) {
	t.Parallel()

	client := newSiteClient(testSite())
	reg := prometheus.NewRegistry()
	auditor := NewAuditor(client,
		WithClock(fixedClock),
		WithRecorder(metrics.New(reg)),
		WithFetchOptions(fetch.Options{MaxConcurrent: 2, PerRequestTimeout: time.Second}),
	)

	result, err := auditor.Audit(context.Background(), Target{URL: testRoot})
	if err != nil {
		t.Fatalf("Audit() error = %v", err)
	}

	if result.Key != testRoot {
		t.Errorf("Key = %q, want %q", result.Key, testRoot)
	}
	if !result.Timestamp.Equal(fixedClock()) {
		t.Errorf("Timestamp = %v", result.Timestamp)
	}
	if result.FetchedPages != 3 || len(result.FailedPages) != 0 {
		t.Errorf("fetched %d, failed %d; want 3 and 0", result.FetchedPages, len(result.FailedPages))
	}
	if result.Discovery.Source != model.SourceSitemapAndCrawl && result.Discovery.Source != model.SourceSitemap {
		t.Errorf("unexpected discovery source %q", result.Discovery.Source)
	}
	if len(result.Categories) != 12 {
		t.Errorf("expected 12 categories, got %d", len(result.Categories))
	}
	if result.Composite < 0 || result.Composite > 100 {
		t.Errorf("composite %v out of range", result.Composite)
	}
	if result.TimedOut {
		t.Error("audit should not time out")
	}
	for _, src := range []string{"reputation", "backlinks", "visibility"} {
		if !slices.Contains(result.Degraded, src) {
			t.Errorf("expected %s to be degraded without enrichment, got %v", src, result.Degraded)
		}
	}

	site := result.Signals
	if site.Homepage == nil || site.Homepage.URL != testRoot+"/" {
		t.Fatalf("expected homepage signals, got %+v", site.Homepage)
	}
	if !slices.Contains(site.Robots.BlockedAIBots, "GPTBot") {
		t.Errorf("expected GPTBot to be blocked, got %v", site.Robots.BlockedAIBots)
	}
	if !site.LLMS.Present {
		t.Error("expected llms.txt to be present")
	}

	// Discovery, well-known checks and page fetches share one response.
	for _, u := range []string{testRoot + "/robots.txt", testRoot + "/"} {
		if n := client.callsFor(u); n != 1 {
			t.Errorf("%s fetched %d times, want 1", u, n)
		}
	}
}

func TestAuditorTimeout(t *testing.T) {
	t.Parallel()

	client := newSiteClient(testSite())
	client.block[testRoot+"/doctors/tanaka"] = true

	auditor := NewAuditor(client,
		WithAuditTimeout(200*time.Millisecond),
		WithFetchOptions(fetch.Options{MaxConcurrent: 5, PerRequestTimeout: 10 * time.Second}),
	)

	result, err := auditor.Audit(context.Background(), Target{URL: testRoot})
	if err != nil {
		t.Fatalf("Audit() error = %v", err)
	}
	if !result.TimedOut {
		t.Error("expected the result to be marked as timed out")
	}
	if result.FetchedPages != 2 {
		t.Errorf("expected the 2 unblocked pages to be scored, got %d", result.FetchedPages)
	}
	if len(result.FailedPages) != 1 || result.FailedPages[0].URL != testRoot+"/doctors/tanaka" {
		t.Errorf("unexpected failed pages %+v", result.FailedPages)
	}
}

// delayedClient answers through next after a per-URL delay.
type delayedClient struct {
	next  fetch.Client
	delay map[string]time.Duration
}

func (c *delayedClient) Fetch(ctx context.Context, rawURL string) (*fetch.Response, error) {
	select {
	case <-time.After(c.delay[rawURL]):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return c.next.Fetch(ctx, rawURL)
}

// exifWithMake builds a minimal TIFF block carrying a camera Make tag.
func exifWithMake(cameraMake string) string {
	value := append([]byte(cameraMake), 0)
	buf := []byte{'I', 'I', 0x2a, 0x00}
	buf = binary.LittleEndian.AppendUint32(buf, 8)
	buf = binary.LittleEndian.AppendUint16(buf, 1)
	buf = binary.LittleEndian.AppendUint16(buf, 0x010f)
	buf = binary.LittleEndian.AppendUint16(buf, 2)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(value)))
	buf = binary.LittleEndian.AppendUint32(buf, 26)
	buf = binary.LittleEndian.AppendUint32(buf, 0)
	return string(append(buf, value...))
}

// photoSite has one page of camera photos and one page of stock images.
func photoSite() map[string]string {
	pages := map[string]string{
		testRoot + "/sitemap.xml": `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://clinic.example/</loc></url>
  <url><loc>https://clinic.example/a</loc></url>
  <url><loc>https://clinic.example/b</loc></url>
</urlset>`,
		testRoot + "/": testHomepage,
		testRoot:       testHomepage,
	}
	for _, name := range []string{"a", "b"} {
		body := "<html><body><h1>Gallery</h1>"
		for i := range 3 {
			img := fmt.Sprintf("/img/%s%d.jpg", name, i)
			body += fmt.Sprintf(`<img src="%s" alt="room">`, img)
			if name == "a" {
				pages[testRoot+img] = exifWithMake("Canon")
			} else {
				pages[testRoot+img] = "stock image"
			}
		}
		pages[testRoot+"/"+name] = body + "</body></html>"
	}
	return pages
}

func TestAuditorResultIndependentOfFetchTiming(t *testing.T) {
	t.Parallel()

	run := func(slow string) *model.AuditResult {
		t.Helper()

		client := &delayedClient{
			next:  newSiteClient(photoSite()),
			delay: map[string]time.Duration{testRoot + slow: 150 * time.Millisecond},
		}
		auditor := NewAuditor(client,
			WithClock(fixedClock),
			WithMaxImages(3),
			WithFetchOptions(fetch.Options{MaxConcurrent: 3, PerRequestTimeout: 5 * time.Second}),
		)
		result, err := auditor.Audit(context.Background(), Target{URL: testRoot})
		if err != nil {
			t.Fatalf("Audit() error = %v", err)
		}
		return result
	}

	slowA := run("/a")
	slowB := run("/b")

	if slowA.Signals.Imagery.OriginalPhotos != 3 {
		t.Errorf("expected the first listed page's photos to be sampled, got %+v", slowA.Signals.Imagery)
	}
	if !reflect.DeepEqual(slowA.Signals.Imagery, slowB.Signals.Imagery) {
		t.Errorf("imagery differs: %+v vs %+v", slowA.Signals.Imagery, slowB.Signals.Imagery)
	}
	if slowA.Composite != slowB.Composite {
		t.Errorf("composite differs: %v vs %v", slowA.Composite, slowB.Composite)
	}
	if !reflect.DeepEqual(slowA.Categories, slowB.Categories) {
		t.Errorf("category scores differ:\n%+v\n%+v", slowA.Categories, slowB.Categories)
	}

	var urlsA, urlsB []string
	for _, p := range slowA.Signals.Pages {
		urlsA = append(urlsA, p.URL)
	}
	for _, p := range slowB.Signals.Pages {
		urlsB = append(urlsB, p.URL)
	}
	want := []string{testRoot + "/", testRoot + "/a", testRoot + "/b"}
	if !slices.Equal(urlsA, want) || !slices.Equal(urlsB, want) {
		t.Errorf("pages should follow the manifest: %v and %v, want %v", urlsA, urlsB, want)
	}
}

func TestAuditorDeadlineDuringDiscovery(t *testing.T) {
	t.Parallel()

	client := newSiteClient(testSite())
	client.block[testRoot+"/sitemap.xml"] = true

	var logs bytes.Buffer
	auditor := NewAuditor(client,
		WithAuditLogger(slog.New(slog.NewTextHandler(&logs, nil))),
		WithAuditTimeout(100*time.Millisecond),
		WithFetchOptions(fetch.Options{MaxConcurrent: 2, PerRequestTimeout: 10 * time.Second}),
	)

	result, err := auditor.Audit(context.Background(), Target{URL: testRoot})
	if err != nil {
		t.Fatalf("Audit() error = %v", err)
	}
	if !result.TimedOut {
		t.Error("expected the result to be marked as timed out")
	}
	if result.FetchedPages != 0 {
		t.Errorf("no page should be fetched after the deadline, got %d", result.FetchedPages)
	}

	want := withRoot(testRoot, result.Discovery.CandidateURLs)
	if len(result.FailedPages) != len(want) {
		t.Fatalf("expected %d abandoned pages, got %+v", len(want), result.FailedPages)
	}
	for i, f := range result.FailedPages {
		if f.URL != want[i] || f.Reason != fetch.ErrAbandoned.Error() {
			t.Errorf("failed page %d = %+v, want %s abandoned", i, f, want[i])
		}
	}
	if !strings.Contains(logs.String(), "fetch abandoned") {
		t.Errorf("expected a fetch abandoned event, got logs:\n%s", logs.String())
	}
}

func TestAuditorTargetClient(t *testing.T) {
	t.Parallel()

	shared := newSiteClient(nil)
	site := newSiteClient(testSite())
	auditor := NewAuditor(shared, WithClock(fixedClock))

	result, err := auditor.Audit(context.Background(), Target{URL: testRoot, Client: site})
	if err != nil {
		t.Fatalf("Audit() error = %v", err)
	}
	if result.FetchedPages != 3 {
		t.Errorf("expected pages from the target client, got %d", result.FetchedPages)
	}
	if n := shared.callsFor(testRoot + "/robots.txt"); n != 0 {
		t.Errorf("auditor client should not be used, got %d calls", n)
	}
}

func TestAuditorSharesInFlightAudits(t *testing.T) {
	t.Parallel()

	client := newSiteClient(testSite())
	client.block[testRoot+"/doctors/tanaka"] = true
	auditor := NewAuditor(client, WithAuditTimeout(300*time.Millisecond))

	var (
		wg      sync.WaitGroup
		results [2]*model.AuditResult
	)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = auditor.Audit(context.Background(), Target{URL: testRoot})
		}()
		time.Sleep(20 * time.Millisecond)
	}
	wg.Wait()

	if results[0] == nil || results[0] != results[1] {
		t.Error("overlapping audits of one site should share a result")
	}
	if n := client.callsFor(testRoot + "/llms.txt"); n != 1 {
		t.Errorf("llms.txt fetched %d times, want 1", n)
	}
}

func TestInFlight(t *testing.T) {
	t.Parallel()

	var (
		f       InFlight
		calls   atomic.Int32
		release = make(chan struct{})
		started = make(chan struct{})
		wg      sync.WaitGroup
	)
	want := model.NewAuditResult(testRoot, testRoot)
	fn := func() (*model.AuditResult, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return want, nil
	}

	var sharedCount atomic.Int32
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, shared, err := f.Do("k", fn)
			if err != nil || got != want {
				t.Errorf("Do() = %v, %v", got, err)
			}
			if shared {
				sharedCount.Add(1)
			}
		}()
	}
	<-started
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("fn ran %d times, want 1", calls.Load())
	}
	if sharedCount.Load() != 3 {
		t.Errorf("expected all 3 callers to share, got %d", sharedCount.Load())
	}

	if got, shared, _ := f.Do("k", func() (*model.AuditResult, error) { return nil, nil }); got != nil || shared {
		t.Error("a finished key should run again")
	}
}
