package models

import (
	"time"

	"github.com/samber/lo"
)

// OutcomeStatus classifies how one site fared in a batch run.
type OutcomeStatus string

const (
	// OutcomeFromCache means the site was extracted with a cached config.
	OutcomeFromCache OutcomeStatus = "configured_from_cache"
	// OutcomeScouted means a config was discovered (and, in Full mode,
	// extraction ran with it).
	OutcomeScouted OutcomeStatus = "scouted"
	// OutcomeScoutFailed means selector discovery gave up for the site.
	OutcomeScoutFailed OutcomeStatus = "scout_failed"
	// OutcomeExtractionFailed means extraction produced no usable records.
	OutcomeExtractionFailed OutcomeStatus = "extraction_failed"
	// OutcomePartial means records were produced but some were degraded,
	// usually by detail enrichment failures.
	OutcomePartial OutcomeStatus = "partial"
	// OutcomeSkipped means the mode required nothing for the site.
	OutcomeSkipped OutcomeStatus = "skipped"
)

// SiteOutcome is the per-site row of a BatchReport.
type SiteOutcome struct {
	SiteID          string        `json:"site_id"`
	CompanyName     string        `json:"company_name"`
	Status          OutcomeStatus `json:"status"`
	Records         int           `json:"records"`
	PagesVisited    int           `json:"pages_visited"`
	EnrichFailures  int           `json:"enrich_failures"`
	ConfigPersisted bool          `json:"config_persisted"`
	Elapsed         time.Duration `json:"elapsed"`
	Error           string        `json:"error,omitempty"`
}

// Failed reports whether the site produced no usable result.
func (o SiteOutcome) Failed() bool {
	return o.Status == OutcomeScoutFailed || o.Status == OutcomeExtractionFailed
}

// BatchReport aggregates one orchestrator run. A run always completes and
// always reports every site, even when every site fails.
type BatchReport struct {
	RunID      string        `json:"run_id"`
	Mode       string        `json:"mode"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Sites      []SiteOutcome `json:"sites"`
}

// TotalRecords sums record counts across all sites.
func (r BatchReport) TotalRecords() int {
	return lo.SumBy(r.Sites, func(s SiteOutcome) int { return s.Records })
}

// Failures counts sites that produced no usable result.
func (r BatchReport) Failures() int {
	return lo.CountBy(r.Sites, func(s SiteOutcome) bool { return s.Failed() })
}
