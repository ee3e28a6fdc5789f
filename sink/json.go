package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/LexiconIndonesia/jobscout-service/common/models"
)

// companyExport is the JSON document written per site, one file per site
// that later runs overwrite.
type companyExport struct {
	CompanyName string             `json:"company_name"`
	TotalJobs   int                `json:"total_jobs"`
	ScrapedAt   time.Time          `json:"scraped_at"`
	Jobs        []models.JobRecord `json:"jobs"`
}

// JSONSink buffers a run's records and writes <site_id>.json under dir on
// Close.
type JSONSink struct {
	dir     string
	siteID  string
	company string
	jobs    []models.JobRecord
}

// NewJSONSink creates a JSON sink rooted at dir.
func NewJSONSink(dir string) *JSONSink {
	return &JSONSink{dir: dir}
}

func (s *JSONSink) Begin(ctx context.Context, siteID, companyName string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("sink: creating data dir: %w", err)
	}
	s.siteID = siteID
	s.company = companyName
	s.jobs = nil
	return nil
}

func (s *JSONSink) Write(ctx context.Context, rec models.JobRecord) error {
	if s.siteID == "" {
		return fmt.Errorf("sink: json sink not begun")
	}
	s.jobs = append(s.jobs, rec)
	return nil
}

func (s *JSONSink) Close(ctx context.Context) error {
	if s.siteID == "" {
		return nil
	}
	defer func() { s.siteID = "" }()

	if len(s.jobs) == 0 {
		return nil
	}

	export := companyExport{
		CompanyName: s.company,
		TotalJobs:   len(s.jobs),
		ScrapedAt:   time.Now().UTC(),
		Jobs:        s.jobs,
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("sink: encoding json export: %w", err)
	}

	path := filepath.Join(s.dir, s.siteID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("sink: writing %s: %w", path, err)
	}

	log.Info().Str("file", path).Int("records", len(s.jobs)).Msg("JSON export written")
	return nil
}
