package extractor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/LexiconIndonesia/jobscout-service/common/browser"
	"github.com/LexiconIndonesia/jobscout-service/common/config"
	"github.com/LexiconIndonesia/jobscout-service/common/models"
)

// seqPage serves a fixed sequence of listing snapshots. ClickNext advances
// through the sequence, Navigate serves from byURL.
type seqPage struct {
	snapshots []string
	idx       int
	url       string
	byURL     map[string]string
}

func (p *seqPage) HTML() (string, error) {
	if p.idx >= len(p.snapshots) {
		return "", errors.New("seqPage: no snapshot")
	}
	return p.snapshots[p.idx], nil
}

func (p *seqPage) URL() string { return p.url }

func (p *seqPage) Navigate(_ context.Context, url string) error {
	html, ok := p.byURL[url]
	if !ok {
		return fmt.Errorf("seqPage: no page at %s", url)
	}
	p.url = url
	p.snapshots = []string{html}
	p.idx = 0
	return nil
}

func (p *seqPage) ClickNext(context.Context, models.Selector) (bool, error) {
	if p.idx+1 >= len(p.snapshots) {
		return false, nil
	}
	p.idx++
	return true, nil
}

func (p *seqPage) Close() error { return nil }

// seqBrowser hands out the listing page for the seed URL and static pages
// for everything else.
type seqBrowser struct {
	seedURL string
	listing *seqPage
	pages   map[string]string
}

func (b *seqBrowser) Open(_ context.Context, url string) (browser.Page, error) {
	if url == b.seedURL {
		return b.listing, nil
	}
	html, ok := b.pages[url]
	if !ok {
		return nil, fmt.Errorf("seqBrowser: no page at %s", url)
	}
	return &seqPage{snapshots: []string{html}, url: url}, nil
}

func (b *seqBrowser) Close() error { return nil }

// stallBrowser hangs Open for one URL until the caller's context expires.
type stallBrowser struct {
	*seqBrowser
	stallURL string
}

func (b *stallBrowser) Open(ctx context.Context, url string) (browser.Page, error) {
	if url == b.stallURL {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return b.seqBrowser.Open(ctx, url)
}

func listingPage(jobs ...string) string {
	body := ""
	for i, title := range jobs {
		body += fmt.Sprintf(`<div class="job">
			<h3>%s</h3>
			<span class="loc">Jakarta</span>
			<a href="/jobs/%s-%d">View</a>
		</div>`, title, title, i)
	}
	return "<html><body>" + body + `<a class="next">Next</a></body></html>`
}

func testExtractorConfig() config.ScraperConfig {
	return config.ScraperConfig{
		MaxPages:       20,
		StallThreshold: 2,
		DetailTimeout:  5 * time.Second,
	}
}

func testSiteConfig() models.SiteConfig {
	return models.SiteConfig{
		SiteID:        "acme_corp",
		CompanyName:   "Acme Corp",
		SchemaVersion: models.SiteConfigSchemaVersion,
		ListingSelectors: models.ListingSelectors{
			Container: models.Selector{Kind: models.SelectorCSS, Value: "div.job"},
			Title:     models.Selector{Kind: models.SelectorCSS, Value: "h3"},
			Location:  models.Selector{Kind: models.SelectorCSS, Value: "span.loc"},
			JobURL:    models.Selector{Kind: models.SelectorCSS, Value: "a"},
		},
		Pagination: models.Pagination{
			Strategy: models.PaginationNext,
			Next:     models.Selector{Kind: models.SelectorCSS, Value: "a.next"},
		},
	}
}

const seedURL = "https://acme.example/careers"

func collect(t *testing.T, stream *Stream) ([]models.JobRecord, Result) {
	t.Helper()

	var records []models.JobRecord
	for rec := range stream.Records() {
		records = append(records, rec)
	}
	return records, stream.Result()
}

func TestExtractSinglePage(t *testing.T) {
	b := &seqBrowser{
		seedURL: seedURL,
		listing: &seqPage{snapshots: []string{listingPage("engineer")}, url: seedURL},
	}
	e := New(b, testExtractorConfig())

	cfg := testSiteConfig()
	cfg.Pagination = models.Pagination{Strategy: models.PaginationNone}

	records, result := collect(t, e.Extract(context.Background(), cfg, seedURL, Options{Profile: models.ProfileListing}))

	if result.Err != nil {
		t.Fatalf("Unexpected run error: %v", result.Err)
	}
	if len(records) != 1 || result.Records != 1 {
		t.Fatalf("Got %d records (result says %d), want 1", len(records), result.Records)
	}
	if result.PagesVisited != 1 {
		t.Errorf("PagesVisited = %d, want 1", result.PagesVisited)
	}

	rec := records[0]
	if rec.Title != "engineer" || rec.Company != "Acme Corp" {
		t.Errorf("Record = %+v", rec)
	}
	if rec.Location == nil || *rec.Location != "Jakarta" {
		t.Errorf("Location = %v", rec.Location)
	}
	if rec.JobURL == nil || *rec.JobURL != "https://acme.example/jobs/engineer-0" {
		t.Errorf("JobURL = %v, want absolutized link", rec.JobURL)
	}
	if rec.JobID == nil || *rec.JobID != "engineer" {
		t.Errorf("JobID = %v, want one derived from the job link", rec.JobID)
	}
	if rec.PreviewDescription != nil {
		t.Errorf("Unmatched optional field should stay null, got %v", *rec.PreviewDescription)
	}
}

func TestExtractFollowsNextPages(t *testing.T) {
	b := &seqBrowser{
		seedURL: seedURL,
		listing: &seqPage{
			snapshots: []string{listingPage("engineer", "analyst"), listingPage("designer", "manager")},
			url:       seedURL,
		},
	}
	e := New(b, testExtractorConfig())

	records, result := collect(t, e.Extract(context.Background(), testSiteConfig(), seedURL, Options{Profile: models.ProfileListing}))

	if result.Err != nil {
		t.Fatalf("Unexpected run error: %v", result.Err)
	}
	if len(records) != 4 {
		t.Fatalf("Got %d records, want 4 across both pages", len(records))
	}
	if result.PagesVisited != 2 {
		t.Errorf("PagesVisited = %d, want 2", result.PagesVisited)
	}
	if result.Stalled {
		t.Error("A run that exhausted pagination is not stalled")
	}
}

func TestExtractPagedStrategy(t *testing.T) {
	page2URL := seedURL + "?page=2"
	b := &seqBrowser{
		seedURL: seedURL,
		listing: &seqPage{
			snapshots: []string{listingPage("engineer")},
			url:       seedURL,
			byURL:     map[string]string{page2URL: listingPage("analyst")},
		},
	}
	e := New(b, testExtractorConfig())

	cfg := testSiteConfig()
	cfg.Pagination = models.Pagination{
		Strategy:  models.PaginationPages,
		PageParam: "page",
		PageCount: 2,
	}

	records, result := collect(t, e.Extract(context.Background(), cfg, seedURL, Options{Profile: models.ProfileListing}))

	if result.Err != nil {
		t.Fatalf("Unexpected run error: %v", result.Err)
	}
	if len(records) != 2 {
		t.Fatalf("Got %d records, want 2", len(records))
	}
	if result.PagesVisited != 2 {
		t.Errorf("PagesVisited = %d, want the configured page count of 2", result.PagesVisited)
	}
}

func TestExtractDedupesAcrossPages(t *testing.T) {
	// Page two repeats one job from page one and adds a new one.
	b := &seqBrowser{
		seedURL: seedURL,
		listing: &seqPage{
			snapshots: []string{listingPage("engineer", "analyst"), listingPage("engineer", "designer")},
			url:       seedURL,
		},
	}
	e := New(b, testExtractorConfig())

	records, result := collect(t, e.Extract(context.Background(), testSiteConfig(), seedURL, Options{Profile: models.ProfileListing}))

	if result.Err != nil {
		t.Fatalf("Unexpected run error: %v", result.Err)
	}
	if len(records) != 3 {
		t.Fatalf("Got %d records, want 3 unique", len(records))
	}
}

func TestExtractStallStopsPagination(t *testing.T) {
	// Every page after the first repeats the same jobs. With a threshold of
	// two the run must stop instead of walking all twenty pages.
	same := listingPage("engineer", "analyst")
	b := &seqBrowser{
		seedURL: seedURL,
		listing: &seqPage{
			snapshots: []string{same, same, same, same, same},
			url:       seedURL,
		},
	}
	e := New(b, testExtractorConfig())

	records, result := collect(t, e.Extract(context.Background(), testSiteConfig(), seedURL, Options{Profile: models.ProfileListing}))

	if result.Err != nil {
		t.Fatalf("Unexpected run error: %v", result.Err)
	}
	if !result.Stalled {
		t.Fatal("Expected the run to report a stall")
	}
	if len(records) != 2 {
		t.Errorf("Got %d records, want the 2 from the first page", len(records))
	}
	if result.PagesVisited != 3 {
		t.Errorf("PagesVisited = %d, want 3 (first page plus two stalled)", result.PagesVisited)
	}
}

func TestExtractZeroRecordStallIsDrift(t *testing.T) {
	// The container selector matches nothing anywhere. The persisted config
	// no longer describes the site.
	empty := `<html><body><p>We have moved our jobs board.</p></body></html>`
	b := &seqBrowser{
		seedURL: seedURL,
		listing: &seqPage{snapshots: []string{empty, empty, empty}, url: seedURL},
	}
	e := New(b, testExtractorConfig())

	records, result := collect(t, e.Extract(context.Background(), testSiteConfig(), seedURL, Options{Profile: models.ProfileListing}))

	if len(records) != 0 {
		t.Fatalf("Got %d records, want none", len(records))
	}
	if !errors.Is(result.Err, ErrSelectorDrift) {
		t.Errorf("Expected ErrSelectorDrift, got %v", result.Err)
	}
}

func TestExtractMaxPagesBound(t *testing.T) {
	snapshots := make([]string, 10)
	for i := range snapshots {
		snapshots[i] = listingPage(fmt.Sprintf("role%d", i))
	}
	b := &seqBrowser{
		seedURL: seedURL,
		listing: &seqPage{snapshots: snapshots, url: seedURL},
	}
	e := New(b, testExtractorConfig())

	records, result := collect(t, e.Extract(context.Background(), testSiteConfig(), seedURL, Options{
		Profile:  models.ProfileListing,
		MaxPages: 3,
	}))

	if result.PagesVisited != 3 {
		t.Errorf("PagesVisited = %d, want the MaxPages bound of 3", result.PagesVisited)
	}
	if len(records) != 3 {
		t.Errorf("Got %d records, want 3", len(records))
	}
}

func TestExtractSeedLoadFailure(t *testing.T) {
	b := &seqBrowser{seedURL: "https://other.example"}
	e := New(b, testExtractorConfig())

	records, result := collect(t, e.Extract(context.Background(), testSiteConfig(), seedURL, Options{Profile: models.ProfileListing}))

	if len(records) != 0 {
		t.Fatalf("Got %d records from a dead site", len(records))
	}
	if !errors.Is(result.Err, ErrPageLoad) {
		t.Errorf("Expected ErrPageLoad, got %v", result.Err)
	}
}

func TestExtractEnrichment(t *testing.T) {
	detail := `<html><body>
		<div class="desc"><p>Build <strong>services</strong>.</p></div>
		<span class="type">Full-time</span>
	</body></html>`

	b := &seqBrowser{
		seedURL: seedURL,
		listing: &seqPage{snapshots: []string{listingPage("engineer")}, url: seedURL},
		pages:   map[string]string{"https://acme.example/jobs/engineer-0": detail},
	}
	e := New(b, testExtractorConfig())

	cfg := testSiteConfig()
	cfg.Pagination = models.Pagination{Strategy: models.PaginationNone}
	cfg.DetailSelectors = models.DetailSelectors{
		FullDescription: models.Selector{Kind: models.SelectorCSS, Value: "div.desc"},
		JobType:         models.Selector{Kind: models.SelectorCSS, Value: "span.type"},
	}

	records, result := collect(t, e.Extract(context.Background(), cfg, seedURL, Options{Profile: models.ProfileListingPlusDetail}))

	if result.Err != nil {
		t.Fatalf("Unexpected run error: %v", result.Err)
	}
	if len(records) != 1 {
		t.Fatalf("Got %d records, want 1", len(records))
	}

	rec := records[0]
	if rec.FullDescription == nil || *rec.FullDescription != "Build **services**." {
		t.Errorf("FullDescription = %v, want markdown conversion", rec.FullDescription)
	}
	if rec.JobType == nil || *rec.JobType != "Full-time" {
		t.Errorf("JobType = %v", rec.JobType)
	}
	if result.EnrichFailures != 0 || result.Partial() {
		t.Errorf("Clean enrichment reported failures: %+v", result)
	}
}

func TestExtractEnrichmentFailureDegradesRecord(t *testing.T) {
	// One of three detail pages hangs past the detail timeout. The other two
	// records still enrich and all three are emitted.
	detail := `<html><body><div class="desc"><p>Ship things.</p></div></body></html>`

	b := &stallBrowser{
		seqBrowser: &seqBrowser{
			seedURL: seedURL,
			listing: &seqPage{snapshots: []string{listingPage("engineer", "analyst", "designer")}, url: seedURL},
			pages: map[string]string{
				"https://acme.example/jobs/engineer-0": detail,
				"https://acme.example/jobs/designer-2": detail,
			},
		},
		stallURL: "https://acme.example/jobs/analyst-1",
	}

	ecfg := testExtractorConfig()
	ecfg.DetailTimeout = 50 * time.Millisecond
	e := New(b, ecfg)

	cfg := testSiteConfig()
	cfg.Pagination = models.Pagination{Strategy: models.PaginationNone}
	cfg.DetailSelectors = models.DetailSelectors{
		FullDescription: models.Selector{Kind: models.SelectorCSS, Value: "div.desc"},
	}

	records, result := collect(t, e.Extract(context.Background(), cfg, seedURL, Options{Profile: models.ProfileListingPlusDetail}))

	if result.Err != nil {
		t.Fatalf("Enrichment failure must not fail the run: %v", result.Err)
	}
	if len(records) != 3 {
		t.Fatalf("Got %d records, want all 3 despite one dead detail page", len(records))
	}

	byTitle := make(map[string]models.JobRecord, len(records))
	for _, rec := range records {
		byTitle[rec.Title] = rec
	}

	if rec := byTitle["analyst"]; rec.FullDescription != nil {
		t.Error("Record with the hanging detail page should keep listing fields only")
	}
	for _, title := range []string{"engineer", "designer"} {
		if rec := byTitle[title]; rec.FullDescription == nil {
			t.Errorf("Record %q lost its enrichment", title)
		}
	}

	if result.EnrichFailures != 1 {
		t.Errorf("EnrichFailures = %d, want 1", result.EnrichFailures)
	}
	if !result.Partial() {
		t.Error("A finished run with enrichment failures is partial")
	}
}

func TestExtractEnrichmentSelectorMiss(t *testing.T) {
	// The detail page exists but none of the configured selectors match.
	b := &seqBrowser{
		seedURL: seedURL,
		listing: &seqPage{snapshots: []string{listingPage("engineer")}, url: seedURL},
		pages:   map[string]string{"https://acme.example/jobs/engineer-0": "<html><body><p>redesigned</p></body></html>"},
	}
	e := New(b, testExtractorConfig())

	cfg := testSiteConfig()
	cfg.Pagination = models.Pagination{Strategy: models.PaginationNone}
	cfg.DetailSelectors = models.DetailSelectors{
		FullDescription: models.Selector{Kind: models.SelectorCSS, Value: "div.desc"},
	}

	records, result := collect(t, e.Extract(context.Background(), cfg, seedURL, Options{Profile: models.ProfileListingPlusDetail}))

	if result.Err != nil {
		t.Fatalf("Enrichment failure must not fail the run: %v", result.Err)
	}
	if len(records) != 1 {
		t.Fatalf("Degraded record must still be emitted, got %d", len(records))
	}
	if records[0].FullDescription != nil {
		t.Error("Degraded record should keep listing fields only")
	}
	if result.EnrichFailures != 1 {
		t.Errorf("EnrichFailures = %d, want 1", result.EnrichFailures)
	}
}

func TestExtractContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := &seqBrowser{
		seedURL: seedURL,
		listing: &seqPage{snapshots: []string{listingPage("engineer")}, url: seedURL},
	}
	e := New(b, testExtractorConfig())

	_, result := collect(t, e.Extract(ctx, testSiteConfig(), seedURL, Options{Profile: models.ProfileListing}))

	if !errors.Is(result.Err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", result.Err)
	}
}

func TestPagedURL(t *testing.T) {
	tests := []struct {
		current string
		param   string
		page    int
		want    string
	}{
		{"https://acme.example/careers", "page", 2, "https://acme.example/careers?page=2"},
		{"https://acme.example/careers?page=2", "page", 3, "https://acme.example/careers?page=3"},
		{"https://acme.example/careers?dept=eng", "p", 2, "https://acme.example/careers?dept=eng&p=2"},
		{"https://acme.example/careers", "", 4, "https://acme.example/careers?page=4"},
	}

	for _, tc := range tests {
		got, err := pagedURL(tc.current, tc.param, tc.page)
		if err != nil {
			t.Fatalf("pagedURL(%q) failed: %v", tc.current, err)
		}
		if got != tc.want {
			t.Errorf("pagedURL(%q, %q, %d) = %q, want %q", tc.current, tc.param, tc.page, got, tc.want)
		}
	}
}
