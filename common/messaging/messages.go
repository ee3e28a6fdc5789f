package messaging

// StreamName is the JetStream stream carrying all scraper subjects.
const StreamName = "JOBSCOUT"

// NATS subjects for scraper requests.
const (
	SubjectScoutRun  = "jobscout.scout.run"
	SubjectScrapeRun = "jobscout.scrape.run"
	SubjectBatchRun  = "jobscout.batch.run"
)

// ScoutRunMessage asks the worker to scout one site.
type ScoutRunMessage struct {
	CompanyName     string `json:"company_name"`
	CareerURL       string `json:"career_url"`
	DetailSampleURL string `json:"detail_sample_url,omitempty"`
	Enhanced        bool   `json:"enhanced,omitempty"`
	Force           bool   `json:"force,omitempty"`
}

// ScrapeRunMessage asks the worker to scrape one site.
type ScrapeRunMessage struct {
	CompanyName string `json:"company_name"`
	CareerURL   string `json:"career_url"`
	Enhanced    bool   `json:"enhanced,omitempty"`
	MaxPages    int    `json:"max_pages,omitempty"`
}

// BatchRunMessage asks the worker to run the whole site roster.
type BatchRunMessage struct {
	Mode     string `json:"mode"`
	Enhanced bool   `json:"enhanced,omitempty"`
	MaxPages int    `json:"max_pages,omitempty"`
	Force    bool   `json:"force,omitempty"`
}
