package configstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/LexiconIndonesia/jobscout-service/common/models"
)

// ErrCorrupted signals the persisted config file exists but cannot be
// parsed. The store refuses to start rather than silently discard configs.
var ErrCorrupted = errors.New("configstore: persisted config file is corrupted")

// Store persists discovered selector configs in a single JSON file keyed by
// site ID. All writes rewrite the whole file atomically, so a crash leaves
// either the old or the new contents, never a torn file.
type Store struct {
	mu      sync.RWMutex
	path    string
	configs map[string]models.SiteConfig
}

// New loads the store from path. A missing file yields an empty store. A
// present but unparseable file is an error.
func New(path string) (*Store, error) {
	s := &Store{
		path:    path,
		configs: make(map[string]models.SiteConfig),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("configstore: reading %s: %w", path, err)
	}

	var raw map[string]models.SiteConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupted, path, err)
	}

	for id, cfg := range raw {
		if cfg.SchemaVersion != models.SiteConfigSchemaVersion {
			// Configs written by other schema versions are treated as
			// absent so the site gets re-scouted.
			log.Warn().
				Str("site", id).
				Int("schema_version", cfg.SchemaVersion).
				Msg("Ignoring persisted config with unknown schema version")
			continue
		}
		s.configs[id] = cfg
	}

	log.Info().Str("path", path).Int("configs", len(s.configs)).Msg("Selector config store loaded")
	return s, nil
}

// Get returns the config for a site ID. The second return is false when no
// usable config is stored.
func (s *Store) Get(siteID string) (models.SiteConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.configs[siteID]
	return cfg, ok
}

// Put validates, stores and persists a config. The in-memory map is only
// updated after the file write succeeds.
func (s *Store) Put(cfg models.SiteConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]models.SiteConfig, len(s.configs)+1)
	for id, c := range s.configs {
		next[id] = c
	}
	next[cfg.SiteID] = cfg

	if err := s.writeFile(next); err != nil {
		return err
	}

	s.configs = next
	return nil
}

// Delete removes a site's config, forcing a re-scout on the next run.
func (s *Store) Delete(siteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.configs[siteID]; !ok {
		return nil
	}

	next := make(map[string]models.SiteConfig, len(s.configs))
	for id, c := range s.configs {
		if id != siteID {
			next[id] = c
		}
	}

	if err := s.writeFile(next); err != nil {
		return err
	}

	s.configs = next
	return nil
}

// List returns all stored configs keyed by site ID.
func (s *Store) List() map[string]models.SiteConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]models.SiteConfig, len(s.configs))
	for id, cfg := range s.configs {
		out[id] = cfg
	}
	return out
}

func (s *Store) writeFile(configs map[string]models.SiteConfig) error {
	data, err := json.MarshalIndent(configs, "", "  ")
	if err != nil {
		return fmt.Errorf("configstore: encoding configs: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("configstore: creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("configstore: creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("configstore: writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("configstore: syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("configstore: closing temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("configstore: replacing %s: %w", s.path, err)
	}

	return nil
}
