package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/LexiconIndonesia/jobscout-service/common/messaging"
	"github.com/LexiconIndonesia/jobscout-service/common/models"
	"github.com/LexiconIndonesia/jobscout-service/common/sites"
)

// Runner consumes scrape requests from NATS and feeds them to the
// Orchestrator. The HTTP layer publishes and returns immediately, the
// runner does the slow work.
type Runner struct {
	orchestrator *Orchestrator
	broker       *messaging.NatsBroker
	rosterPath   string

	consumers []jetstream.ConsumeContext
}

// NewRunner wires a Runner.
func NewRunner(o *Orchestrator, broker *messaging.NatsBroker, rosterPath string) *Runner {
	return &Runner{
		orchestrator: o,
		broker:       broker,
		rosterPath:   rosterPath,
	}
}

// Start subscribes to all scraper subjects. Messages are acked after the
// run finishes so a crashed worker's requests are redelivered.
func (r *Runner) Start(ctx context.Context) error {
	subscriptions := []struct {
		subject string
		handle  func(context.Context, []byte) error
	}{
		{messaging.SubjectScoutRun, r.handleScout},
		{messaging.SubjectScrapeRun, r.handleScrape},
		{messaging.SubjectBatchRun, r.handleBatch},
	}

	for _, sub := range subscriptions {
		sub := sub
		consumer, err := r.broker.DurableConsumer(messaging.StreamName, sub.subject)
		if err != nil {
			return fmt.Errorf("creating consumer for %s: %w", sub.subject, err)
		}

		consumeCtx, err := r.broker.Consume(consumer, func(msg jetstream.Msg) {
			if err := sub.handle(ctx, msg.Data()); err != nil {
				log.Error().Str("subject", sub.subject).Err(err).Msg("Request failed")
			}
			if err := msg.Ack(); err != nil {
				log.Warn().Str("subject", sub.subject).Err(err).Msg("Failed to ack message")
			}
		})
		if err != nil {
			return fmt.Errorf("consuming %s: %w", sub.subject, err)
		}

		r.consumers = append(r.consumers, consumeCtx)
	}

	log.Info().Int("subjects", len(subscriptions)).Msg("Orchestrator runner started")
	return nil
}

// Stop halts message delivery.
func (r *Runner) Stop() {
	for _, c := range r.consumers {
		c.Stop()
	}
	r.consumers = nil
}

func (r *Runner) handleScout(ctx context.Context, data []byte) error {
	var msg messaging.ScoutRunMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("decoding scout request: %w", err)
	}

	batch := []sites.Site{{Name: msg.CompanyName, CareerURL: msg.CareerURL}}
	report := r.orchestrator.Run(ctx, batch, ModeScoutOnly, RunOptions{
		Profile:         profileFor(msg.Enhanced),
		ForceRescout:    msg.Force,
		DetailSampleURL: msg.DetailSampleURL,
	})

	return reportError(report)
}

func (r *Runner) handleScrape(ctx context.Context, data []byte) error {
	var msg messaging.ScrapeRunMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("decoding scrape request: %w", err)
	}

	batch := []sites.Site{{Name: msg.CompanyName, CareerURL: msg.CareerURL}}
	report := r.orchestrator.Run(ctx, batch, ModeFull, RunOptions{
		Profile:  profileFor(msg.Enhanced),
		MaxPages: msg.MaxPages,
	})

	return reportError(report)
}

func (r *Runner) handleBatch(ctx context.Context, data []byte) error {
	var msg messaging.BatchRunMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("decoding batch request: %w", err)
	}

	roster, err := sites.Load(r.rosterPath)
	if err != nil {
		return fmt.Errorf("loading site roster: %w", err)
	}

	mode := ModeFull
	switch Mode(msg.Mode) {
	case ModeScoutOnly, ModeScrapeOnly, ModeFull:
		mode = Mode(msg.Mode)
	}

	report := r.orchestrator.Run(ctx, roster, mode, RunOptions{
		Profile:      profileFor(msg.Enhanced),
		MaxPages:     msg.MaxPages,
		ForceRescout: msg.Force,
	})

	log.Info().
		Str("run", report.RunID).
		Int("sites", len(report.Sites)).
		Int("failures", report.Failures()).
		Msg("Batch request finished")

	return nil
}

func profileFor(enhanced bool) models.ExtractionProfile {
	if enhanced {
		return models.ProfileListingPlusDetail
	}
	return models.ProfileListing
}

// reportError surfaces single-site run failures to the message handler.
func reportError(report models.BatchReport) error {
	for _, site := range report.Sites {
		if site.Failed() {
			return fmt.Errorf("site %s: %s: %s", site.SiteID, site.Status, site.Error)
		}
	}
	return nil
}
