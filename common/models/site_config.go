package models

import (
	"errors"
	"fmt"
	"time"
)

// SiteConfigSchemaVersion is the version written by this build. Entries with a
// higher version are treated as needing a re-scout, not as a parse error.
const SiteConfigSchemaVersion = 1

// ErrConfigInvalid is returned when a site configuration is missing a
// mandatory selector.
var ErrConfigInvalid = errors.New("site config invalid")

// PaginationStrategy selects how the extractor advances between listing pages.
type PaginationStrategy string

const (
	// PaginationNone disables pagination; only the seed page is processed.
	PaginationNone PaginationStrategy = "none"
	// PaginationNext follows a "next page" control after each page.
	PaginationNext PaginationStrategy = "next"
	// PaginationPages increments a page query parameter up to a known bound.
	PaginationPages PaginationStrategy = "pages"
)

// Pagination describes the navigation strategy for a site's listing pages.
type Pagination struct {
	Strategy PaginationStrategy `json:"strategy"`
	// Next locates the next-page control. Required for PaginationNext.
	Next Selector `json:"next_selector,omitempty"`
	// PageParam is the query parameter incremented by PaginationPages.
	PageParam string `json:"page_param,omitempty"`
	// PageCount bounds PaginationPages when the site exposes a total.
	PageCount int `json:"page_count,omitempty"`
}

// ListingSelectors locates job fields on a listing page. Container and Title
// are mandatory; every other field is optional and degrades to a null record
// field when it does not match.
type ListingSelectors struct {
	Container   Selector `json:"container"`
	Title       Selector `json:"title"`
	Location    Selector `json:"location,omitempty"`
	JobID       Selector `json:"job_id,omitempty"`
	JobURL      Selector `json:"job_url,omitempty"`
	Description Selector `json:"description,omitempty"`
}

// DetailSelectors locates extended fields on a job's own detail page. All
// fields are optional.
type DetailSelectors struct {
	FullDescription Selector `json:"full_description,omitempty"`
	Requirements    Selector `json:"requirements,omitempty"`
	JobType         Selector `json:"job_type,omitempty"`
	ExperienceLevel Selector `json:"experience_level,omitempty"`
	Salary          Selector `json:"salary,omitempty"`
	Skills          Selector `json:"skills,omitempty"`
}

// SiteConfig is the persisted, reusable selector configuration for one site.
type SiteConfig struct {
	SiteID           string           `json:"site_id"`
	CompanyName      string           `json:"company_name"`
	SchemaVersion    int              `json:"schema_version"`
	ListingSelectors ListingSelectors `json:"listing_selectors"`
	DetailSelectors  DetailSelectors  `json:"detail_selectors,omitempty"`
	Pagination       Pagination       `json:"pagination"`
	DiscoveredAt     time.Time        `json:"discovered_at"`
}

// Validate enforces the mandatory-selector invariant and checks that every
// populated selector compiles. A config that fails Validate must never be
// persisted.
func (c SiteConfig) Validate() error {
	if c.SiteID == "" {
		return fmt.Errorf("%w: missing site id", ErrConfigInvalid)
	}
	if c.ListingSelectors.Container.IsZero() {
		return fmt.Errorf("%w: missing container selector", ErrConfigInvalid)
	}
	if c.ListingSelectors.Title.IsZero() {
		return fmt.Errorf("%w: missing title selector", ErrConfigInvalid)
	}
	for _, sel := range []Selector{
		c.ListingSelectors.Container,
		c.ListingSelectors.Title,
	} {
		if err := sel.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrConfigInvalid, err)
		}
	}
	for _, sel := range []Selector{
		c.ListingSelectors.Location,
		c.ListingSelectors.JobID,
		c.ListingSelectors.JobURL,
		c.ListingSelectors.Description,
		c.DetailSelectors.FullDescription,
		c.DetailSelectors.Requirements,
		c.DetailSelectors.JobType,
		c.DetailSelectors.ExperienceLevel,
		c.DetailSelectors.Salary,
		c.DetailSelectors.Skills,
		c.Pagination.Next,
	} {
		if sel.IsZero() {
			continue
		}
		if err := sel.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrConfigInvalid, err)
		}
	}
	if c.Pagination.Strategy == PaginationNext && c.Pagination.Next.IsZero() {
		return fmt.Errorf("%w: next strategy without a next selector", ErrConfigInvalid)
	}
	return nil
}

// HasDetailSelectors reports whether at least one detail selector is set.
func (c SiteConfig) HasDetailSelectors() bool {
	for _, sel := range []Selector{
		c.DetailSelectors.FullDescription,
		c.DetailSelectors.Requirements,
		c.DetailSelectors.JobType,
		c.DetailSelectors.ExperienceLevel,
		c.DetailSelectors.Salary,
		c.DetailSelectors.Skills,
	} {
		if !sel.IsZero() {
			return true
		}
	}
	return false
}
