/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package activity

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/friendsincode/campday/internal/models"
)

type fakeFetcher struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{calls: make(map[string]int), fail: make(map[string]error)}
}

func (f *fakeFetcher) FetchActivity(_ context.Context, id string) (*models.ActivitySummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[id]++
	if err := f.fail[id]; err != nil {
		return nil, err
	}
	return &models.ActivitySummary{ID: id, Name: "Activity " + id, DurationMinutes: 45}, nil
}

func (f *fakeFetcher) callCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func TestLoadFetchesOnlyMisses(t *testing.T) {
	fetcher := newFakeFetcher()
	cache := NewCache(fetcher, zerolog.Nop())

	cache.Load(context.Background(), []string{"a1", "a2"})
	if got := cache.Len(); got != 2 {
		t.Fatalf("expected 2 memoized summaries, got %d", got)
	}

	cache.Load(context.Background(), []string{"a1", "a2", "a3"})
	if got := cache.Len(); got != 3 {
		t.Fatalf("expected 3 memoized summaries, got %d", got)
	}
	if n := fetcher.callCount("a1"); n != 1 {
		t.Fatalf("a1 fetched %d times, want 1", n)
	}
	if n := fetcher.callCount("a3"); n != 1 {
		t.Fatalf("a3 fetched %d times, want 1", n)
	}
}

func TestLoadIgnoresDuplicateAndEmptyIDs(t *testing.T) {
	fetcher := newFakeFetcher()
	cache := NewCache(fetcher, zerolog.Nop())

	cache.Load(context.Background(), []string{"a1", "a1", "", "a1"})
	if n := fetcher.callCount("a1"); n != 1 {
		t.Fatalf("a1 fetched %d times, want 1", n)
	}
	if got := cache.Len(); got != 1 {
		t.Fatalf("expected 1 memoized summary, got %d", got)
	}
}

func TestLoadSkipsFailedFetches(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.fail["bad"] = fmt.Errorf("boom")
	cache := NewCache(fetcher, zerolog.Nop())

	cache.Load(context.Background(), []string{"good", "bad"})

	if cache.Get("good") == nil {
		t.Fatal("expected good summary to be memoized")
	}
	if cache.Get("bad") != nil {
		t.Fatal("failed fetch must not be memoized")
	}

	// A later load retries the failed id.
	delete(fetcher.fail, "bad")
	cache.Load(context.Background(), []string{"good", "bad"})
	if cache.Get("bad") == nil {
		t.Fatal("expected bad summary after retry")
	}
	if n := fetcher.callCount("good"); n != 1 {
		t.Fatalf("good fetched %d times, want 1", n)
	}
}

func TestGetReturnsNilForUnknownID(t *testing.T) {
	cache := NewCache(newFakeFetcher(), zerolog.Nop())
	if cache.Get("missing") != nil {
		t.Fatal("expected nil for an unloaded id")
	}
}
