package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/fortuna/totals/internal/store"
)

// MatchRepository stores raw season datasets, one JSONB row per match
type MatchRepository struct {
	db *store.Database
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(db *store.Database) *MatchRepository {
	return &MatchRepository{db: db}
}

// UpsertSeason replaces a season's matches with the given records, keeping
// their order. Returns the number of rows written.
func (r *MatchRepository) UpsertSeason(ctx context.Context, season string, matches []store.RawMatch) (int, error) {
	tx, err := r.db.DB().BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin season upsert: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM season_matches WHERE season = $1`, season); err != nil {
		return 0, fmt.Errorf("clearing season %s: %w", season, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO season_matches (season, match_id, ordinal, match_date, home_team, away_team, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (season, match_id) DO UPDATE SET
			ordinal = EXCLUDED.ordinal,
			match_date = EXCLUDED.match_date,
			home_team = EXCLUDED.home_team,
			away_team = EXCLUDED.away_team,
			payload = EXCLUDED.payload,
			imported_at = NOW()
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing match insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range matches {
		payload, err := json.Marshal(m)
		if err != nil {
			return 0, fmt.Errorf("encoding match %s: %w", m.MatchID, err)
		}
		id := m.MatchID
		if id == "" {
			id = fmt.Sprintf("%s-%d", season, i)
		}
		if _, err := stmt.ExecContext(ctx, season, id, i, m.Date, m.HomeTeam, m.AwayTeam, payload); err != nil {
			return 0, fmt.Errorf("inserting match %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit season upsert: %w", err)
	}
	return len(matches), nil
}

// LoadSeason returns a season's matches in their original order
func (r *MatchRepository) LoadSeason(ctx context.Context, season string) ([]store.RawMatch, error) {
	bySeason, err := r.LoadSeasons(ctx, []string{season})
	if err != nil {
		return nil, err
	}
	return bySeason[season], nil
}

// LoadSeasons returns matches for several seasons keyed by season
func (r *MatchRepository) LoadSeasons(ctx context.Context, seasons []string) (map[string][]store.RawMatch, error) {
	query := `
		SELECT season, payload
		FROM season_matches
		WHERE season = ANY($1)
		ORDER BY season, ordinal
	`

	rows, err := r.db.DB().QueryContext(ctx, query, pq.Array(seasons))
	if err != nil {
		return nil, fmt.Errorf("querying season matches: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]store.RawMatch, len(seasons))
	for rows.Next() {
		var season string
		var payload []byte
		if err := rows.Scan(&season, &payload); err != nil {
			return nil, fmt.Errorf("scanning season match: %w", err)
		}

		var m store.RawMatch
		if err := json.Unmarshal(payload, &m); err != nil {
			return nil, fmt.Errorf("decoding season match: %w", err)
		}
		result[season] = append(result[season], m)
	}

	return result, rows.Err()
}

// ListSeasons returns every season with stored matches
func (r *MatchRepository) ListSeasons(ctx context.Context) ([]string, error) {
	rows, err := r.db.DB().QueryContext(ctx, `SELECT DISTINCT season FROM season_matches ORDER BY season`)
	if err != nil {
		return nil, fmt.Errorf("querying seasons: %w", err)
	}
	defer rows.Close()

	var seasons []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scanning season: %w", err)
		}
		seasons = append(seasons, s)
	}
	return seasons, rows.Err()
}
