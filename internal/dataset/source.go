package dataset

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/fortuna/totals/internal/store"
)

// ErrSeasonNotFound is returned when a source has no data for a season
var ErrSeasonNotFound = errors.New("season not found")

// Source loads raw season datasets
type Source interface {
	Load(ctx context.Context, season string) ([]store.RawMatch, error)
	Seasons(ctx context.Context) ([]string, error)
}

// FallbackSource tries each source in order and returns the first that has the season
type FallbackSource struct {
	sources []Source
}

// NewFallbackSource skips nil sources so callers can pass optional ones
func NewFallbackSource(sources ...Source) *FallbackSource {
	fs := &FallbackSource{}
	for _, s := range sources {
		if s != nil {
			fs.sources = append(fs.sources, s)
		}
	}
	return fs
}

// Load returns the first successful load, or the last error
func (fs *FallbackSource) Load(ctx context.Context, season string) ([]store.RawMatch, error) {
	lastErr := fmt.Errorf("%w: %s", ErrSeasonNotFound, season)
	for i, s := range fs.sources {
		matches, err := s.Load(ctx, season)
		if err == nil {
			return matches, nil
		}
		if i < len(fs.sources)-1 {
			log.Printf("[dataset] ⚠️  source %d failed for %s: %v (falling back)", i+1, season, err)
		}
		lastErr = err
	}
	return nil, lastErr
}

// Seasons merges the seasons every reachable source offers
func (fs *FallbackSource) Seasons(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var errs []error
	for _, s := range fs.sources {
		seasons, err := s.Seasons(ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, season := range seasons {
			seen[season] = true
		}
	}
	if len(seen) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	seasons := make([]string, 0, len(seen))
	for s := range seen {
		seasons = append(seasons, s)
	}
	sort.Strings(seasons)
	return seasons, nil
}
