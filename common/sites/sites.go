package sites

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/LexiconIndonesia/jobscout-service/common/utils"
)

// Site is one career page to scrape.
type Site struct {
	Name      string `json:"name" validate:"required"`
	CareerURL string `json:"career_url" validate:"required,url"`
}

// ID returns the normalized identifier used to key persisted selector
// configs and run locks for this site.
func (s Site) ID() string {
	return utils.SafeName(s.Name)
}

// Load reads the site roster from a JSON file. The file holds an array of
// objects with name and career_url fields.
func Load(path string) ([]Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading site roster %s: %w", path, err)
	}

	var sites []Site
	if err := json.Unmarshal(data, &sites); err != nil {
		return nil, fmt.Errorf("parsing site roster %s: %w", path, err)
	}

	seen := make(map[string]struct{}, len(sites))
	for _, s := range sites {
		if s.Name == "" || s.CareerURL == "" {
			return nil, fmt.Errorf("site roster %s: entries need both name and career_url", path)
		}
		id := s.ID()
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("site roster %s: duplicate site %q", path, id)
		}
		seen[id] = struct{}{}
	}

	return sites, nil
}
