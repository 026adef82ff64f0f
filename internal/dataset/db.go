package dataset

import (
	"context"
	"fmt"

	"github.com/fortuna/totals/internal/store"
	"github.com/fortuna/totals/internal/store/repository"
)

// DBSource reads season datasets imported into Postgres
type DBSource struct {
	repo *repository.MatchRepository
}

// NewDBSource creates a database-backed source
func NewDBSource(db *store.Database) *DBSource {
	return &DBSource{repo: repository.NewMatchRepository(db)}
}

// Load reads a season; an empty season is reported as not found
func (d *DBSource) Load(ctx context.Context, season string) ([]store.RawMatch, error) {
	matches, err := d.repo.LoadSeason(ctx, season)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s (database)", ErrSeasonNotFound, season)
	}
	return matches, nil
}

// Seasons lists imported seasons
func (d *DBSource) Seasons(ctx context.Context) ([]string, error) {
	return d.repo.ListSeasons(ctx)
}
