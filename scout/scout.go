package scout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/LexiconIndonesia/jobscout-service/common/ai"
	"github.com/LexiconIndonesia/jobscout-service/common/browser"
	"github.com/LexiconIndonesia/jobscout-service/common/config"
	"github.com/LexiconIndonesia/jobscout-service/common/models"
	"github.com/LexiconIndonesia/jobscout-service/common/sites"
	"github.com/LexiconIndonesia/jobscout-service/common/storage"
	"github.com/LexiconIndonesia/jobscout-service/common/utils"
	"github.com/LexiconIndonesia/jobscout-service/extractor"
)

// ErrUnresolvable signals the model could not produce usable selectors
// within the retry budget, or the site could not be reached at all.
var ErrUnresolvable = errors.New("scout: site structure unresolvable")

// Scout derives a selector config for a site by showing its rendered
// markup to an AI model. It never writes to the config store itself, the
// caller decides persistence.
type Scout struct {
	client    ai.Client
	browser   browser.Browser
	policy    ai.Policy
	archive   storage.StorageService
	maxBytes  int
	maxFixups int
}

// New creates a Scout. The archive is optional, when set the raw markup of
// every scouted page is stored for later debugging of bad selector sets.
func New(client ai.Client, b browser.Browser, cfg config.Config, archive storage.StorageService) *Scout {
	fixups := cfg.Scraper.CorrectiveTries
	if fixups < 1 {
		fixups = 1
	}
	return &Scout{
		client:    client,
		browser:   b,
		policy:    ai.PolicyFromConfig(cfg.AI),
		archive:   archive,
		maxBytes:  cfg.AI.MaxPromptBytes,
		maxFixups: fixups,
	}
}

// listingAnswer mirrors the JSON shape the listing prompt demands.
type listingAnswer struct {
	JobItem        *string `json:"job_item"`
	Title          *string `json:"title"`
	Location       *string `json:"location"`
	JobLink        *string `json:"job_link"`
	JobID          *string `json:"job_id"`
	Description    *string `json:"description"`
	PaginationNext *string `json:"pagination_next"`
}

// detailAnswer mirrors the JSON shape the detail prompt demands.
type detailAnswer struct {
	FullDescription *string `json:"full_description"`
	Requirements    *string `json:"requirements"`
	JobType         *string `json:"job_type"`
	ExperienceLevel *string `json:"experience_level"`
	Salary          *string `json:"salary"`
	Skills          *string `json:"skills"`
}

// Discover analyzes a site and returns a complete, validated selector
// config. With the listing+detail profile it also samples one detail page,
// either detailSampleURL or the first job link found on the listing page.
func (s *Scout) Discover(ctx context.Context, site sites.Site, detailSampleURL string, profile models.ExtractionProfile) (models.SiteConfig, error) {
	log.Info().Str("site", site.ID()).Str("url", site.CareerURL).Msg("Scouting site structure")

	page, err := s.browser.Open(ctx, site.CareerURL)
	if err != nil {
		return models.SiteConfig{}, fmt.Errorf("%w: opening %s: %v", ErrUnresolvable, site.CareerURL, err)
	}
	defer page.Close()

	rawHTML, err := page.HTML()
	if err != nil {
		return models.SiteConfig{}, fmt.Errorf("%w: reading %s: %v", ErrUnresolvable, site.CareerURL, err)
	}

	s.archiveMarkup(ctx, site.ID(), "listing", rawHTML)

	markup, err := CleanMarkup(rawHTML, s.maxBytes)
	if err != nil {
		return models.SiteConfig{}, fmt.Errorf("%w: cleaning markup: %v", ErrUnresolvable, err)
	}

	listing, pagination, err := s.discoverListing(ctx, site.ID(), markup)
	if err != nil {
		return models.SiteConfig{}, err
	}

	cfg := models.SiteConfig{
		SiteID:           site.ID(),
		CompanyName:      site.Name,
		SchemaVersion:    models.SiteConfigSchemaVersion,
		ListingSelectors: listing,
		Pagination:       pagination,
		DiscoveredAt:     time.Now().UTC(),
	}

	if profile == models.ProfileListingPlusDetail {
		detailURL := detailSampleURL
		if detailURL == "" {
			detailURL = s.sampleDetailURL(rawHTML, site.CareerURL, listing)
		}

		if detailURL == "" {
			log.Warn().Str("site", site.ID()).Msg("No detail page could be sampled, config stays listing-only")
		} else {
			detail, err := s.discoverDetail(ctx, site.ID(), detailURL)
			if err != nil {
				// Listing selectors are still usable on their own.
				log.Warn().Str("site", site.ID()).Err(err).Msg("Detail discovery failed, config stays listing-only")
			} else {
				cfg.DetailSelectors = detail
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return models.SiteConfig{}, fmt.Errorf("%w: %v", ErrUnresolvable, err)
	}

	log.Info().
		Str("site", site.ID()).
		Bool("detail", cfg.HasDetailSelectors()).
		Str("pagination", string(cfg.Pagination.Strategy)).
		Msg("Scout produced selector config")

	return cfg, nil
}

func (s *Scout) discoverListing(ctx context.Context, siteID, markup string) (models.ListingSelectors, models.Pagination, error) {
	var answer listingAnswer
	err := s.converse(ctx, siteID, ai.ListingPrompt, markup, func(raw string) error {
		var a listingAnswer
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			return fmt.Errorf("response is not a JSON object: %w", err)
		}
		if deref(a.JobItem) == "" {
			return fmt.Errorf(`mandatory key "job_item" is null or empty`)
		}
		if deref(a.Title) == "" {
			return fmt.Errorf(`mandatory key "title" is null or empty`)
		}
		candidate := models.ListingSelectors{
			Container: models.ParseSelector(deref(a.JobItem)),
			Title:     models.ParseSelector(deref(a.Title)),
		}
		if err := candidate.Container.Validate(); err != nil {
			return fmt.Errorf(`key "job_item": %w`, err)
		}
		if err := candidate.Title.Validate(); err != nil {
			return fmt.Errorf(`key "title": %w`, err)
		}
		answer = a
		return nil
	})
	if err != nil {
		return models.ListingSelectors{}, models.Pagination{}, err
	}

	listing := models.ListingSelectors{
		Container:   models.ParseSelector(deref(answer.JobItem)),
		Title:       models.ParseSelector(deref(answer.Title)),
		Location:    parseOptional(answer.Location),
		JobID:       parseOptional(answer.JobID),
		JobURL:      parseOptional(answer.JobLink),
		Description: parseOptional(answer.Description),
	}

	pagination := models.Pagination{Strategy: models.PaginationNone}
	if next := parseOptional(answer.PaginationNext); !next.IsZero() {
		pagination = models.Pagination{
			Strategy: models.PaginationNext,
			Next:     next,
		}
	}

	return listing, pagination, nil
}

func (s *Scout) discoverDetail(ctx context.Context, siteID, detailURL string) (models.DetailSelectors, error) {
	page, err := s.browser.Open(ctx, detailURL)
	if err != nil {
		return models.DetailSelectors{}, fmt.Errorf("opening detail sample %s: %w", detailURL, err)
	}
	defer page.Close()

	rawHTML, err := page.HTML()
	if err != nil {
		return models.DetailSelectors{}, fmt.Errorf("reading detail sample %s: %w", detailURL, err)
	}

	s.archiveMarkup(ctx, siteID, "detail", rawHTML)

	markup, err := CleanMarkup(rawHTML, s.maxBytes)
	if err != nil {
		return models.DetailSelectors{}, fmt.Errorf("cleaning detail markup: %w", err)
	}

	var answer detailAnswer
	err = s.converse(ctx, siteID, ai.DetailPrompt, markup, func(raw string) error {
		var a detailAnswer
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			return fmt.Errorf("response is not a JSON object: %w", err)
		}
		answer = a
		return nil
	})
	if err != nil {
		return models.DetailSelectors{}, err
	}

	return models.DetailSelectors{
		FullDescription: parseOptional(answer.FullDescription),
		Requirements:    parseOptional(answer.Requirements),
		JobType:         parseOptional(answer.JobType),
		ExperienceLevel: parseOptional(answer.ExperienceLevel),
		Salary:          parseOptional(answer.Salary),
		Skills:          parseOptional(answer.Skills),
	}, nil
}

// converse submits a prompt and parses the answer, issuing corrective
// follow-ups when the answer is malformed. The parse callback decides what
// counts as usable.
func (s *Scout) converse(ctx context.Context, siteID, basePrompt, markup string, parse func(raw string) error) error {
	prompt := basePrompt

	var lastErr error
	for attempt := 1; attempt <= s.maxFixups; attempt++ {
		res := ai.Retry(ctx, s.policy, func(ctx context.Context) (string, error) {
			return s.client.Generate(ctx, prompt, markup)
		})
		if res.IsError() {
			return fmt.Errorf("%w: model call failed: %v", ErrUnresolvable, res.Error())
		}

		raw := ai.CleanMarkdownJSON(res.MustGet())
		if err := parse(raw); err != nil {
			lastErr = err
			log.Warn().
				Str("site", siteID).
				Int("attempt", attempt).
				Err(err).
				Msg("Model answer rejected, issuing corrective prompt")
			prompt = ai.CorrectivePrompt(basePrompt, raw, err)
			continue
		}

		return nil
	}

	return fmt.Errorf("%w: answer still malformed after %d attempts: %v", ErrUnresolvable, s.maxFixups, lastErr)
}

// sampleDetailURL pulls the first job link from the listing snapshot so
// detail discovery has a page to look at.
func (s *Scout) sampleDetailURL(rawHTML, baseURL string, listing models.ListingSelectors) string {
	if listing.JobURL.IsZero() {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}

	items := extractor.Find(doc.Selection, listing.Container)
	for _, item := range items {
		if href := extractor.Href(item, listing.JobURL); href != "" {
			return utils.AbsoluteURL(baseURL, href)
		}
	}
	return ""
}

func (s *Scout) archiveMarkup(ctx context.Context, siteID, kind, html string) {
	if s.archive == nil {
		return
	}

	key := fmt.Sprintf("markup/%s/%s-%d.html", siteID, kind, time.Now().UnixNano())
	if err := s.archive.Save(ctx, key, []byte(html), "text/html"); err != nil {
		log.Warn().Str("site", siteID).Str("key", key).Err(err).Msg("Failed to archive markup")
	}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func parseOptional(p *string) models.Selector {
	v := deref(p)
	if v == "" || strings.EqualFold(v, "null") {
		return models.Selector{}
	}
	return models.ParseSelector(v)
}
