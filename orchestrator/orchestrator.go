package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/LexiconIndonesia/jobscout-service/common/config"
	"github.com/LexiconIndonesia/jobscout-service/common/models"
	"github.com/LexiconIndonesia/jobscout-service/common/sites"
	"github.com/LexiconIndonesia/jobscout-service/common/work"
	"github.com/LexiconIndonesia/jobscout-service/configstore"
	"github.com/LexiconIndonesia/jobscout-service/extractor"
	"github.com/LexiconIndonesia/jobscout-service/scout"
	"github.com/LexiconIndonesia/jobscout-service/sink"
)

// Mode selects what a batch run does per site.
type Mode string

const (
	// ModeScoutOnly discovers and persists configs without extracting.
	ModeScoutOnly Mode = "scout_only"
	// ModeScrapeOnly extracts using persisted configs, never scouting.
	ModeScrapeOnly Mode = "scrape_only"
	// ModeFull scouts sites without a config, then extracts everything.
	ModeFull Mode = "full"
)

// RunOptions tune one batch run.
type RunOptions struct {
	// Profile selects listing-only or listing+detail extraction.
	Profile models.ExtractionProfile
	// MaxPages bounds pagination per site. Zero means the configured
	// default.
	MaxPages int
	// DetailSampleURL points Scout at a known detail page instead of
	// sampling one off the listing. Only meaningful for single-site runs.
	DetailSampleURL string
	// ForceRescout discards persisted configs and scouts again. This is
	// the only path that re-scouts an already-configured site.
	ForceRescout bool
}

// SinkFactory builds a fresh sink per site run. Sinks hold per-run state
// like open files, so they cannot be shared between concurrent workers.
type SinkFactory func() sink.Sink

// Orchestrator sequences scouting and extraction across a batch of sites.
// One broken site never aborts the batch, its failure lands in the report
// and the remaining sites proceed.
type Orchestrator struct {
	store     *configstore.Store
	scout     *scout.Scout
	extractor *extractor.Extractor
	sinks     SinkFactory
	tracker   *work.RunTracker
	cfg       config.ScraperConfig
}

// New wires an Orchestrator. The tracker may be nil, in which case runs
// are not serialized across processes.
func New(store *configstore.Store, sc *scout.Scout, ex *extractor.Extractor, sinks SinkFactory, tracker *work.RunTracker, cfg config.ScraperConfig) *Orchestrator {
	return &Orchestrator{
		store:     store,
		scout:     sc,
		extractor: ex,
		sinks:     sinks,
		tracker:   tracker,
		cfg:       cfg,
	}
}

// Run processes the batch on a bounded worker pool and aggregates a
// report. Site outcomes keep the input order.
func (o *Orchestrator) Run(ctx context.Context, batch []sites.Site, mode Mode, opts RunOptions) models.BatchReport {
	runID := newRunID()
	report := models.BatchReport{
		RunID:     runID,
		Mode:      string(mode),
		StartedAt: time.Now().UTC(),
	}

	log.Info().
		Str("run", runID).
		Str("mode", string(mode)).
		Int("sites", len(batch)).
		Msg("Batch run started")

	if len(batch) == 0 {
		report.FinishedAt = time.Now().UTC()
		return report
	}

	workers := o.cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(batch) {
		workers = len(batch)
	}

	pool, err := work.NewPool[models.SiteOutcome](workers, len(batch), o.cfg.SiteTimeout)
	if err != nil {
		// Only reachable with a broken worker count, treat the whole
		// batch as failed rather than panic.
		for _, site := range batch {
			report.Sites = append(report.Sites, models.SiteOutcome{
				SiteID:      site.ID(),
				CompanyName: site.Name,
				Status:      models.OutcomeSkipped,
				Error:       err.Error(),
			})
		}
		report.FinishedAt = time.Now().UTC()
		return report
	}

	pool.Start(ctx, runID)

	for _, site := range batch {
		site := site
		task := work.MustNewTask(
			func(taskCtx context.Context) (models.SiteOutcome, error) {
				return o.processSite(taskCtx, site, mode, opts), nil
			},
			work.WithID[models.SiteOutcome](site.ID()),
		)
		if err := pool.Submit(ctx, task); err != nil {
			report.Sites = append(report.Sites, models.SiteOutcome{
				SiteID:      site.ID(),
				CompanyName: site.Name,
				Status:      models.OutcomeSkipped,
				Error:       fmt.Sprintf("submitting site task: %v", err),
			})
		}
	}

	go pool.Stop()

	outcomes := make(map[string]models.SiteOutcome, len(batch))
	for res := range pool.Results() {
		outcome := res.Result
		if res.Error != nil && outcome.SiteID == "" {
			// The task itself died, usually the per-site timeout.
			outcome = models.SiteOutcome{
				SiteID: res.TaskID,
				Status: models.OutcomeExtractionFailed,
				Error:  res.Error.Error(),
			}
		}
		outcome.Elapsed = res.Duration
		outcomes[outcome.SiteID] = outcome
	}

	for _, site := range batch {
		if outcome, ok := outcomes[site.ID()]; ok {
			report.Sites = append(report.Sites, outcome)
		}
	}

	report.FinishedAt = time.Now().UTC()

	log.Info().
		Str("run", runID).
		Int("records", report.TotalRecords()).
		Int("failures", report.Failures()).
		Dur("elapsed", report.FinishedAt.Sub(report.StartedAt)).
		Msg("Batch run finished")

	return report
}

// processSite runs one site through the mode's pipeline. It always returns
// an outcome, never an error, failure is a reported state.
func (o *Orchestrator) processSite(ctx context.Context, site sites.Site, mode Mode, opts RunOptions) models.SiteOutcome {
	outcome := models.SiteOutcome{
		SiteID:      site.ID(),
		CompanyName: site.Name,
	}

	if o.tracker != nil {
		if err := o.tracker.Start(ctx, site.ID()); err != nil {
			outcome.Status = models.OutcomeSkipped
			outcome.Error = err.Error()
			return outcome
		}
		defer func() {
			if err := o.tracker.Complete(context.WithoutCancel(ctx), site.ID()); err != nil {
				log.Warn().Str("site", site.ID()).Err(err).Msg("Failed to release run lock")
			}
		}()
	}

	siteCfg, cached := o.store.Get(site.ID())
	if opts.ForceRescout {
		cached = false
	}

	// Sites with a valid persisted config are never re-scouted unless the
	// caller forces it.
	if !cached && mode != ModeScrapeOnly {
		fresh, err := o.scout.Discover(ctx, site, opts.DetailSampleURL, opts.Profile)
		if err != nil {
			outcome.Status = models.OutcomeScoutFailed
			outcome.Error = err.Error()
			return outcome
		}

		// Persist before extracting so the discovery survives a later
		// extraction failure.
		if err := o.store.Put(fresh); err != nil {
			outcome.Status = models.OutcomeScoutFailed
			outcome.Error = fmt.Sprintf("persisting config: %v", err)
			return outcome
		}

		siteCfg = fresh
		outcome.ConfigPersisted = true
	}

	switch mode {
	case ModeScoutOnly:
		if cached {
			outcome.Status = models.OutcomeSkipped
			return outcome
		}
		outcome.Status = models.OutcomeScouted
		return outcome

	case ModeScrapeOnly:
		if !cached {
			outcome.Status = models.OutcomeSkipped
			outcome.Error = "no persisted config, scout the site first"
			return outcome
		}
	}

	o.extractSite(ctx, site, siteCfg, opts, &outcome)

	if outcome.Status == "" {
		if cached {
			outcome.Status = models.OutcomeFromCache
		} else {
			outcome.Status = models.OutcomeScouted
		}
	}

	return outcome
}

// extractSite streams one site's records into a fresh sink and fills the
// outcome's extraction fields.
func (o *Orchestrator) extractSite(ctx context.Context, site sites.Site, siteCfg models.SiteConfig, opts RunOptions, outcome *models.SiteOutcome) {
	out := o.sinks()
	if err := out.Begin(ctx, site.ID(), site.Name); err != nil {
		outcome.Status = models.OutcomeExtractionFailed
		outcome.Error = fmt.Sprintf("opening sink: %v", err)
		return
	}
	defer func() {
		if err := out.Close(context.WithoutCancel(ctx)); err != nil {
			log.Warn().Str("site", site.ID()).Err(err).Msg("Failed to close sink")
		}
	}()

	stream := o.extractor.Extract(ctx, siteCfg, site.CareerURL, extractor.Options{
		MaxPages: opts.MaxPages,
		Profile:  opts.Profile,
	})

	for rec := range stream.Records() {
		if err := out.Write(ctx, rec); err != nil {
			log.Warn().Str("site", site.ID()).Err(err).Msg("Sink write failed")
		}
	}

	result := stream.Result()
	outcome.Records = result.Records
	outcome.PagesVisited = result.PagesVisited
	outcome.EnrichFailures = result.EnrichFailures

	switch {
	case result.Err != nil:
		outcome.Status = models.OutcomeExtractionFailed
		outcome.Error = result.Err.Error()
	case result.Partial():
		outcome.Status = models.OutcomePartial
	}
}

func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
