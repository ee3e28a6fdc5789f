package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	mdp "github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/LexiconIndonesia/jobscout-service/common/browser"
	"github.com/LexiconIndonesia/jobscout-service/common/config"
	"github.com/LexiconIndonesia/jobscout-service/common/models"
	"github.com/LexiconIndonesia/jobscout-service/common/utils"
)

var (
	// ErrPageLoad signals the seed listing page could not be loaded.
	ErrPageLoad = errors.New("extractor: listing page load failed")
	// ErrSelectorDrift signals the configured selectors stopped matching,
	// detected when consecutive pages yield no new job containers.
	ErrSelectorDrift = errors.New("extractor: selector drift, pages yield no new records")
)

// runState tracks where a site run is in its lifecycle.
type runState string

const (
	stateNotStarted runState = "not_started"
	statePaginating runState = "paginating"
	stateEnriching  runState = "enriching"
	stateDone       runState = "done"
	stateFailed     runState = "failed"
)

// Options tune one extraction run.
type Options struct {
	// MaxPages bounds pagination. Zero means the configured default.
	MaxPages int
	// Profile selects listing-only or listing+detail extraction.
	Profile models.ExtractionProfile
}

// Result summarizes a finished extraction run.
type Result struct {
	Records        int
	PagesVisited   int
	EnrichFailures int
	Stalled        bool
	Err            error
}

// Partial reports whether the run finished but some records were degraded
// to listing-only fields.
func (r Result) Partial() bool {
	return r.Err == nil && r.EnrichFailures > 0
}

// Stream delivers records as they are extracted. Consume Records() until
// closed, then read Result() for the summary. Result blocks until the run
// finishes.
type Stream struct {
	records chan models.JobRecord
	done    chan struct{}
	result  Result
}

func newStream() *Stream {
	return &Stream{
		records: make(chan models.JobRecord),
		done:    make(chan struct{}),
	}
}

// Records is the channel of extracted records. It closes when the run ends.
func (s *Stream) Records() <-chan models.JobRecord {
	return s.records
}

// Result blocks until the run finishes and returns its summary.
func (s *Stream) Result() Result {
	<-s.done
	return s.result
}

func (s *Stream) finish(r Result) {
	s.result = r
	close(s.records)
	close(s.done)
}

// Extractor walks a site's listing pages applying a selector config and
// optionally enriches each record from its detail page.
type Extractor struct {
	browser   browser.Browser
	cfg       config.ScraperConfig
	converter *md.Converter
}

// New creates an Extractor backed by the given browser.
func New(b browser.Browser, cfg config.ScraperConfig) *Extractor {
	converter := md.NewConverter("", true, nil)
	converter.Use(mdp.GitHubFlavored())

	return &Extractor{
		browser:   b,
		cfg:       cfg,
		converter: converter,
	}
}

// Extract starts an extraction run and returns its stream. Each invocation
// restarts from the first listing page.
func (e *Extractor) Extract(ctx context.Context, siteCfg models.SiteConfig, seedURL string, opts Options) *Stream {
	stream := newStream()
	go e.run(ctx, siteCfg, seedURL, opts, stream)
	return stream
}

func (e *Extractor) run(ctx context.Context, siteCfg models.SiteConfig, seedURL string, opts Options, stream *Stream) {
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = e.cfg.MaxPages
	}
	threshold := e.cfg.StallThreshold
	if threshold <= 0 {
		threshold = 2
	}
	enrich := opts.Profile == models.ProfileListingPlusDetail && siteCfg.HasDetailSelectors()

	state := stateNotStarted
	var result Result

	logger := log.With().Str("site", siteCfg.SiteID).Logger()
	logger.Info().Int("max_pages", maxPages).Bool("enrich", enrich).Msg("Starting extraction")

	page, err := e.browser.Open(ctx, seedURL)
	if err != nil {
		state = stateFailed
		result.Err = fmt.Errorf("%w: %s: %v", ErrPageLoad, seedURL, err)
		logger.Error().Err(result.Err).Str("state", string(state)).Msg("Extraction failed")
		stream.finish(result)
		return
	}
	defer page.Close()

	state = statePaginating
	seen := make(map[string]struct{})
	stallStreak := 0

	for pageNum := 1; pageNum <= maxPages; pageNum++ {
		if ctx.Err() != nil {
			result.Err = ctx.Err()
			break
		}

		records, pageErr := e.extractPage(page, siteCfg)
		result.PagesVisited++

		if pageErr != nil {
			// A page whose containers or titles all fail to match is
			// skipped, it still counts toward the stall streak.
			logger.Warn().Int("page", pageNum).Err(pageErr).Msg("Listing page yielded nothing")
		}

		fresh := 0
		for _, rec := range records {
			key := recordKey(rec)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			fresh++

			if enrich {
				state = stateEnriching
				if err := e.enrichRecord(ctx, &rec, siteCfg.DetailSelectors); err != nil {
					result.EnrichFailures++
					logger.Warn().Str("title", rec.Title).Err(err).Msg("Detail enrichment failed, keeping listing fields")
				}
				state = statePaginating
			}

			select {
			case stream.records <- rec:
				result.Records++
			case <-ctx.Done():
				result.Err = ctx.Err()
				stream.finish(result)
				return
			}
		}

		if fresh == 0 {
			stallStreak++
			if stallStreak >= threshold {
				result.Stalled = true
				logger.Warn().Int("streak", stallStreak).Msg("Stall detected, stopping pagination")
				break
			}
		} else {
			stallStreak = 0
		}

		more, err := e.advance(ctx, page, siteCfg.Pagination, pageNum)
		if err != nil {
			logger.Warn().Int("page", pageNum).Err(err).Msg("Pagination failed, stopping")
			break
		}
		if !more {
			break
		}
	}

	if result.Stalled && result.Records == 0 && result.Err == nil {
		// Zero records across the whole run means the persisted selectors
		// no longer describe the site.
		result.Err = ErrSelectorDrift
	}

	if result.Err != nil {
		state = stateFailed
	} else {
		state = stateDone
	}

	logger.Info().
		Str("state", string(state)).
		Int("records", result.Records).
		Int("pages", result.PagesVisited).
		Int("enrich_failures", result.EnrichFailures).
		Msg("Extraction finished")

	stream.finish(result)
}

// extractPage snapshots the current listing page and applies the config's
// listing selectors. Field selectors apply independently, a missing match
// leaves that field null rather than dropping the record.
func (e *Extractor) extractPage(page browser.Page, siteCfg models.SiteConfig) ([]models.JobRecord, error) {
	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("reading page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}

	sel := siteCfg.ListingSelectors
	items := Find(doc.Selection, sel.Container)
	if len(items) == 0 {
		return nil, fmt.Errorf("container selector %q matched nothing", sel.Container)
	}

	baseURL := page.URL()
	scrapedAt := time.Now().UTC()

	var records []models.JobRecord
	for _, item := range items {
		title := Text(item, sel.Title)
		if title == "" {
			continue
		}

		rec := models.JobRecord{
			Company:   siteCfg.CompanyName,
			Title:     title,
			ScrapedAt: scrapedAt,
		}

		rec.Location = nullable(Text(item, sel.Location))
		rec.PreviewDescription = nullable(Text(item, sel.Description))

		if href := Href(item, sel.JobURL); href != "" {
			rec.JobURL = nullable(utils.AbsoluteURL(baseURL, href))
		}

		id := ExtractJobID(item, sel.JobID)
		if id == "" && rec.JobURL != nil {
			id = jobIDFromURL(*rec.JobURL)
		}
		rec.JobID = nullable(id)

		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("title selector %q matched nothing inside %d containers", sel.Title, len(items))
	}

	return records, nil
}

// enrichRecord loads the record's detail page and fills the detail fields.
// Any failure leaves the record with its listing fields only.
func (e *Extractor) enrichRecord(ctx context.Context, rec *models.JobRecord, sel models.DetailSelectors) error {
	if rec.JobURL == nil {
		return nil
	}

	detailCtx, cancel := context.WithTimeout(ctx, e.cfg.DetailTimeout)
	defer cancel()

	page, err := e.browser.Open(detailCtx, *rec.JobURL)
	if err != nil {
		return fmt.Errorf("opening detail page: %w", err)
	}
	defer page.Close()

	html, err := page.HTML()
	if err != nil {
		return fmt.Errorf("reading detail page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("parsing detail page: %w", err)
	}

	root := doc.Selection

	rec.FullDescription = nullable(e.markdownOf(root, sel.FullDescription))
	rec.Requirements = nullable(e.markdownOf(root, sel.Requirements))
	rec.JobType = nullable(Text(root, sel.JobType))
	rec.ExperienceLevel = nullable(Text(root, sel.ExperienceLevel))
	rec.Salary = nullable(Text(root, sel.Salary))
	rec.Skills = nullable(Text(root, sel.Skills))

	if rec.FullDescription == nil && rec.Requirements == nil && rec.JobType == nil &&
		rec.ExperienceLevel == nil && rec.Salary == nil && rec.Skills == nil {
		return fmt.Errorf("no detail selector matched on %s", *rec.JobURL)
	}

	return nil
}

// markdownOf converts the first match's HTML to markdown, falling back to
// plain text when conversion fails.
func (e *Extractor) markdownOf(root *goquery.Selection, sel models.Selector) string {
	m := First(root, sel)
	if m == nil {
		return ""
	}

	html, err := m.Html()
	if err != nil {
		return strings.TrimSpace(m.Text())
	}

	converted, err := e.converter.ConvertString(html)
	if err != nil {
		return strings.TrimSpace(m.Text())
	}

	return strings.TrimSpace(converted)
}

// advance moves to the next listing page according to the pagination
// strategy. Returns false when there is no further page.
func (e *Extractor) advance(ctx context.Context, page browser.Page, p models.Pagination, pageNum int) (bool, error) {
	switch p.Strategy {
	case models.PaginationNext:
		return page.ClickNext(ctx, p.Next)

	case models.PaginationPages:
		if p.PageCount > 0 && pageNum >= p.PageCount {
			return false, nil
		}
		next, err := pagedURL(page.URL(), p.PageParam, pageNum+1)
		if err != nil {
			return false, err
		}
		if err := page.Navigate(ctx, next); err != nil {
			return false, err
		}
		return true, nil

	default:
		return false, nil
	}
}

func recordKey(rec models.JobRecord) string {
	if rec.JobID != nil && *rec.JobID != "" {
		return "id:" + *rec.JobID
	}
	url := ""
	if rec.JobURL != nil {
		url = *rec.JobURL
	}
	return "t:" + rec.Title + "|" + url
}

func nullable(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
