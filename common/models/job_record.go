package models

import "time"

// ExtractionProfile selects how much of a job posting is extracted.
type ExtractionProfile string

const (
	// ProfileListing extracts only the fields visible on listing pages.
	ProfileListing ExtractionProfile = "listing"
	// ProfileListingPlusDetail additionally visits each job's detail page.
	ProfileListingPlusDetail ExtractionProfile = "listing+detail"
)

// JobRecord is one extracted job posting. Every field except Title may be
// absent; a nil pointer is a valid terminal state, not an error.
type JobRecord struct {
	Company            string    `json:"company"`
	Title              string    `json:"title"`
	Location           *string   `json:"location,omitempty"`
	JobID              *string   `json:"job_id,omitempty"`
	JobURL             *string   `json:"job_url,omitempty"`
	PreviewDescription *string   `json:"preview_description,omitempty"`
	FullDescription    *string   `json:"full_description,omitempty"`
	Requirements       *string   `json:"requirements,omitempty"`
	JobType            *string   `json:"job_type,omitempty"`
	ExperienceLevel    *string   `json:"experience_level,omitempty"`
	Salary             *string   `json:"salary,omitempty"`
	Skills             *string   `json:"skills,omitempty"`
	ScrapedAt          time.Time `json:"scraped_at"`
}
