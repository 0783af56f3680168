/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package activity memoizes activity summaries for schedule rendering.
// Summaries are immutable for the life of an editing session, so the memo
// only ever grows and never re-fetches a known id.
package activity

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/friendsincode/campday/internal/models"
)

// Fetcher loads one activity summary from the backing service.
type Fetcher interface {
	FetchActivity(ctx context.Context, activityID string) (*models.ActivitySummary, error)
}

// Cache is an append-only memo of activity summaries keyed by id.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*models.ActivitySummary

	fetcher Fetcher
	logger  zerolog.Logger
}

func NewCache(fetcher Fetcher, logger zerolog.Logger) *Cache {
	return &Cache{
		entries: make(map[string]*models.ActivitySummary),
		fetcher: fetcher,
		logger:  logger.With().Str("component", "activity_cache").Logger(),
	}
}

// Get returns the memoized summary for activityID, or nil when it has not
// been loaded. Get never blocks on the network.
func (c *Cache) Get(activityID string) *models.ActivitySummary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[activityID]
}

// Load fetches every id not already memoized, in parallel, and stores the
// results. Individual fetch failures are logged and skipped so one missing
// activity cannot block the rest of the schedule; a later Load will try the
// failed ids again. Duplicate and empty ids are ignored.
func (c *Cache) Load(ctx context.Context, activityIDs []string) {
	missing := c.missing(activityIDs)
	if len(missing) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, id := range missing {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			summary, err := c.fetcher.FetchActivity(ctx, id)
			if err != nil {
				c.logger.Warn().Err(err).Str("activity_id", id).Msg("activity summary fetch failed")
				return
			}
			c.mu.Lock()
			c.entries[id] = summary
			c.mu.Unlock()
		}(id)
	}
	wg.Wait()
}

// Len reports how many summaries are memoized.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) missing(activityIDs []string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]bool, len(activityIDs))
	var missing []string
	for _, id := range activityIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if _, ok := c.entries[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
