package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/LexiconIndonesia/jobscout-service/common/models"
)

var csvHeader = []string{
	"title", "location", "company", "job_id", "job_url", "preview_description",
	"full_description", "requirements", "job_type", "experience_level",
	"salary", "skills", "scraped_date",
}

// CSVSink writes one timestamped CSV file per site run under dir.
type CSVSink struct {
	dir    string
	file   *os.File
	writer *csv.Writer
	count  int
}

// NewCSVSink creates a CSV sink rooted at dir.
func NewCSVSink(dir string) *CSVSink {
	return &CSVSink{dir: dir}
}

func (s *CSVSink) Begin(ctx context.Context, siteID, companyName string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("sink: creating results dir: %w", err)
	}

	name := fmt.Sprintf("%s_jobs_%s.csv", siteID, time.Now().Format("20060102_150405"))
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("sink: creating %s: %w", path, err)
	}

	s.file = f
	s.writer = csv.NewWriter(f)
	s.count = 0

	return s.writer.Write(csvHeader)
}

func (s *CSVSink) Write(ctx context.Context, rec models.JobRecord) error {
	if s.writer == nil {
		return fmt.Errorf("sink: csv sink not begun")
	}

	row := []string{
		rec.Title,
		str(rec.Location),
		rec.Company,
		str(rec.JobID),
		str(rec.JobURL),
		str(rec.PreviewDescription),
		str(rec.FullDescription),
		str(rec.Requirements),
		str(rec.JobType),
		str(rec.ExperienceLevel),
		str(rec.Salary),
		str(rec.Skills),
		rec.ScrapedAt.Format("2006-01-02"),
	}

	if err := s.writer.Write(row); err != nil {
		return fmt.Errorf("sink: writing csv row: %w", err)
	}
	s.count++
	return nil
}

func (s *CSVSink) Close(ctx context.Context) error {
	if s.writer == nil {
		return nil
	}

	s.writer.Flush()
	flushErr := s.writer.Error()
	closeErr := s.file.Close()

	if s.count > 0 {
		log.Info().Str("file", s.file.Name()).Int("records", s.count).Msg("CSV export written")
	} else {
		// Empty runs leave no file behind.
		os.Remove(s.file.Name())
	}

	s.writer = nil
	s.file = nil

	if flushErr != nil {
		return fmt.Errorf("sink: flushing csv: %w", flushErr)
	}
	return closeErr
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
