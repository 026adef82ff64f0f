package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/fortuna/totals/internal/cache"
	"github.com/fortuna/totals/internal/ingest/odds"
)

// OddsFetcher fetches a fresh live odds snapshot
type OddsFetcher interface {
	FetchTotals(ctx context.Context) ([]odds.LiveGame, error)
}

// SnapshotCache stores the last snapshot between polls
type SnapshotCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// LiveIngester serves live odds snapshots.
// Primary: Redis cache (shared between REST reads and scheduler polls)
// Fallback: the odds API
type LiveIngester struct {
	fetcher OddsFetcher
	cache   SnapshotCache
	ttl     time.Duration
}

// NewLiveIngester creates an ingester; snapshotCache may be nil
func NewLiveIngester(fetcher OddsFetcher, snapshotCache SnapshotCache, ttl time.Duration) *LiveIngester {
	return &LiveIngester{
		fetcher: fetcher,
		cache:   snapshotCache,
		ttl:     ttl,
	}
}

// IngestLiveGames returns the cached snapshot when fresh, otherwise fetches
// and caches a new one.
func (li *LiveIngester) IngestLiveGames(ctx context.Context) ([]odds.LiveGame, error) {
	if li.cache != nil {
		var games []odds.LiveGame
		err := li.cache.GetJSON(ctx, cache.LiveOddsKey, &games)
		switch {
		case err == nil:
			return games, nil
		case !errors.Is(err, cache.ErrMiss):
			log.Printf("[live-odds] ⚠️  cache read failed: %v (falling back to odds API)", err)
		}
	}

	return li.Refresh(ctx)
}

// Refresh bypasses the cache, fetches a new snapshot and stores it
func (li *LiveIngester) Refresh(ctx context.Context) ([]odds.LiveGame, error) {
	if li.fetcher == nil {
		return nil, errors.New("no odds fetcher configured")
	}

	games, err := li.fetcher.FetchTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching live odds: %w", err)
	}

	if li.cache != nil {
		if err := li.cache.SetJSON(ctx, cache.LiveOddsKey, games, li.ttl); err != nil {
			log.Printf("[live-odds] ⚠️  cache write failed: %v", err)
		}
	}

	return games, nil
}
