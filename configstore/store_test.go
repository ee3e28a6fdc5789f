package configstore

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/LexiconIndonesia/jobscout-service/common/models"
)

func testConfig(siteID string) models.SiteConfig {
	return models.SiteConfig{
		SiteID:        siteID,
		CompanyName:   "Acme Corp",
		SchemaVersion: models.SiteConfigSchemaVersion,
		ListingSelectors: models.ListingSelectors{
			Container: models.Selector{Kind: models.SelectorCSS, Value: "div.job"},
			Title:     models.Selector{Kind: models.SelectorCSS, Value: "h2"},
		},
		Pagination:   models.Pagination{Strategy: models.PaginationNone},
		DiscoveredAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestNewMissingFile(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "configurations.json"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if _, ok := store.Get("anything"); ok {
		t.Error("Empty store should hold no configs")
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configurations.json")

	store, err := New(path)
	if err != nil {
		t.Fatal(err)
	}

	cfg := testConfig("acme_corp")
	if err := store.Put(cfg); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok := store.Get("acme_corp")
	if !ok {
		t.Fatal("Expected config after Put")
	}
	if got.CompanyName != cfg.CompanyName {
		t.Errorf("CompanyName = %q, want %q", got.CompanyName, cfg.CompanyName)
	}

	// A fresh store must see the persisted entry.
	reloaded, err := New(path)
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if _, ok := reloaded.Get("acme_corp"); !ok {
		t.Error("Config did not survive a reload")
	}
}

func TestPutRejectsInvalidConfig(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "configurations.json"))
	if err != nil {
		t.Fatal(err)
	}

	cfg := testConfig("acme_corp")
	cfg.ListingSelectors.Title = models.Selector{}

	if err := store.Put(cfg); !errors.Is(err, models.ErrConfigInvalid) {
		t.Errorf("Expected ErrConfigInvalid, got %v", err)
	}
	if _, ok := store.Get("acme_corp"); ok {
		t.Error("Invalid config must not be stored")
	}
}

func TestPutReplacesExisting(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "configurations.json"))
	if err != nil {
		t.Fatal(err)
	}

	first := testConfig("acme_corp")
	if err := store.Put(first); err != nil {
		t.Fatal(err)
	}

	second := testConfig("acme_corp")
	second.ListingSelectors.Title = models.Selector{Kind: models.SelectorCSS, Value: "h3.updated"}
	if err := store.Put(second); err != nil {
		t.Fatal(err)
	}

	got, _ := store.Get("acme_corp")
	if got.ListingSelectors.Title.Value != "h3.updated" {
		t.Errorf("Re-scouted config should replace the old one, got %q", got.ListingSelectors.Title.Value)
	}
}

func TestCorruptedFileFailsLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configurations.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := New(path); !errors.Is(err, ErrCorrupted) {
		t.Errorf("Expected ErrCorrupted, got %v", err)
	}
}

func TestUnknownSchemaVersionIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configurations.json")

	cfg := testConfig("acme_corp")
	cfg.SchemaVersion = 99
	data, err := json.Marshal(map[string]models.SiteConfig{"acme_corp": cfg})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	store, err := New(path)
	if err != nil {
		t.Fatalf("Unknown version must not fail the load: %v", err)
	}

	// The site reads as unconfigured so the next run re-scouts it.
	if _, ok := store.Get("acme_corp"); ok {
		t.Error("Config with unknown schema version should be treated as absent")
	}
}

func TestDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configurations.json")

	store, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Put(testConfig("acme_corp")); err != nil {
		t.Fatal(err)
	}

	if err := store.Delete("acme_corp"); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.Get("acme_corp"); ok {
		t.Error("Config should be gone after Delete")
	}

	// Deleting a missing entry is a no-op.
	if err := store.Delete("never_existed"); err != nil {
		t.Errorf("Delete of missing entry should not fail: %v", err)
	}

	reloaded, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := reloaded.Get("acme_corp"); ok {
		t.Error("Deletion did not persist")
	}
}

func TestList(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "configurations.json"))
	if err != nil {
		t.Fatal(err)
	}

	for _, id := range []string{"a", "b", "c"} {
		if err := store.Put(testConfig(id)); err != nil {
			t.Fatal(err)
		}
	}

	if got := len(store.List()); got != 3 {
		t.Errorf("List returned %d configs, want 3", got)
	}
}
