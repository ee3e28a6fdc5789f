package sink

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/LexiconIndonesia/jobscout-service/common/db"
	"github.com/LexiconIndonesia/jobscout-service/common/models"
)

const upsertJobRecord = `
INSERT INTO job_records (
	id, site_id, company, title, location, job_id, job_url,
	preview_description, full_description, requirements, job_type,
	experience_level, salary, skills, scraped_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
)
ON CONFLICT (site_id, job_key) DO UPDATE SET
	title = EXCLUDED.title,
	location = EXCLUDED.location,
	job_url = EXCLUDED.job_url,
	preview_description = EXCLUDED.preview_description,
	full_description = EXCLUDED.full_description,
	requirements = EXCLUDED.requirements,
	job_type = EXCLUDED.job_type,
	experience_level = EXCLUDED.experience_level,
	salary = EXCLUDED.salary,
	skills = EXCLUDED.skills,
	scraped_at = EXCLUDED.scraped_at
`

// PostgresSink upserts records into the job_records table. Rows are keyed
// by site plus the job's natural key, so re-scraping refreshes instead of
// duplicating.
type PostgresSink struct {
	db     *db.DB
	siteID string
}

// NewPostgresSink creates a sink writing to the given database.
func NewPostgresSink(database *db.DB) *PostgresSink {
	return &PostgresSink{db: database}
}

func (s *PostgresSink) Begin(ctx context.Context, siteID, companyName string) error {
	if s.db == nil {
		return fmt.Errorf("sink: postgres sink has no database")
	}
	s.siteID = siteID
	return nil
}

func (s *PostgresSink) Write(ctx context.Context, rec models.JobRecord) error {
	if s.siteID == "" {
		return fmt.Errorf("sink: postgres sink not begun")
	}

	_, err := s.db.Pool.Exec(ctx, upsertJobRecord,
		uuid.NewString(),
		s.siteID,
		rec.Company,
		rec.Title,
		rec.Location,
		rec.JobID,
		rec.JobURL,
		rec.PreviewDescription,
		rec.FullDescription,
		rec.Requirements,
		rec.JobType,
		rec.ExperienceLevel,
		rec.Salary,
		rec.Skills,
		rec.ScrapedAt,
	)
	if err != nil {
		return fmt.Errorf("sink: upserting job record: %w", err)
	}
	return nil
}

func (s *PostgresSink) Close(ctx context.Context) error {
	s.siteID = ""
	return nil
}
