package work

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/LexiconIndonesia/jobscout-service/common/redis"
)

const (
	runStateKeyPrefix = "run:state:"
	runningState      = "running"
	// runTimeout keeps a run lock from surviving a crashed process forever.
	runTimeout = 6 * time.Hour
)

// RunTracker serializes runs per site through Redis locks. Two concurrent
// scrapes of the same site would race the browser and the sinks, the lock
// makes the second request fail fast instead.
type RunTracker struct {
	redis *redis.RedisClient
}

// NewRunTracker creates a RunTracker backed by the given Redis client.
func NewRunTracker(client *redis.RedisClient) *RunTracker {
	return &RunTracker{redis: client}
}

func (rt *RunTracker) runKey(siteID string) string {
	return runStateKeyPrefix + siteID
}

// Start marks a site's run as in progress. It fails when the site already
// has one.
func (rt *RunTracker) Start(ctx context.Context, siteID string) error {
	ok, err := rt.redis.SetNX(ctx, rt.runKey(siteID), runningState, runTimeout)
	if err != nil {
		return fmt.Errorf("failed to start run for site %s: %w", siteID, err)
	}
	if !ok {
		return fmt.Errorf("site %s already has a run in progress", siteID)
	}
	return nil
}

// IsRunning checks if a site currently has a run in progress.
func (rt *RunTracker) IsRunning(ctx context.Context, siteID string) (bool, error) {
	state, err := rt.redis.Get(ctx, rt.runKey(siteID))
	if err != nil {
		if redis.IsNil(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get run state for site %s: %w", siteID, err)
	}
	return state == runningState, nil
}

// Complete releases a site's run lock.
func (rt *RunTracker) Complete(ctx context.Context, siteID string) error {
	if err := rt.redis.Delete(ctx, rt.runKey(siteID)); err != nil {
		return fmt.Errorf("failed to complete run for site %s: %w", siteID, err)
	}
	return nil
}

// ListRunning returns the IDs of all sites with a run in progress.
func (rt *RunTracker) ListRunning(ctx context.Context) ([]string, error) {
	keys, err := rt.redis.ScanKeys(ctx, runStateKeyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("failed to scan for running sites: %w", err)
	}

	siteIDs := make([]string, 0, len(keys))
	for _, key := range keys {
		siteIDs = append(siteIDs, strings.TrimPrefix(key, runStateKeyPrefix))
	}
	return siteIDs, nil
}
