package dataset_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/fortuna/totals/internal/dataset"
	"github.com/fortuna/totals/internal/store"
)

const seasonJSON = `[
  {"match_id":"m1","date":"10.01.2025","home_team":"Boston Celtics","away_team":"Miami Heat",
   "home_score":"112","away_score":108,
   "quarter_scores":{"Q1":{"home":"28","away":"25"},"OT":{"home":"6","away":"4"}},
   "quarter_stats":{"Q1":{"home":{"field_goals_made":"10","field_goals_attempted":22,"three_point_pct":"37.5%"},"away":null}},
   "odds":{"total_line":"224.5","over_odds":"1.91"}}
]`

func writeSeason(t *testing.T, dir, season, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, season+".json"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFileSourceLoad(t *testing.T) {
	dir := t.TempDir()
	writeSeason(t, dir, "2024-25", seasonJSON)

	src := dataset.NewFileSource(dir)
	matches, err := src.Load(context.Background(), "2024-25")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matches", len(matches))
	}

	m := matches[0]
	if m.AwayScore != "108" || m.HomeScore != "112" {
		t.Errorf("scores = %q/%q", m.HomeScore, m.AwayScore)
	}
	if _, ok := m.QuarterScores["OT"]; !ok {
		t.Error("missing OT period")
	}
	q1 := m.QuarterStats["Q1"]
	if q1.Home == nil || q1.Home.FieldGoalsAttempted != "22" || q1.Away != nil {
		t.Errorf("Q1 stats = %+v", q1)
	}
	if m.Odds.UnderOdds != "" {
		t.Errorf("absent under_odds should be empty, got %q", m.Odds.UnderOdds)
	}
}

func TestFileSourceErrors(t *testing.T) {
	dir := t.TempDir()
	writeSeason(t, dir, "broken", `{"not":"an array"`)
	src := dataset.NewFileSource(dir)

	if _, err := src.Load(context.Background(), "2019-20"); !errors.Is(err, dataset.ErrSeasonNotFound) {
		t.Errorf("expected ErrSeasonNotFound, got %v", err)
	}
	if _, err := src.Load(context.Background(), "broken"); err == nil || errors.Is(err, dataset.ErrSeasonNotFound) {
		t.Errorf("expected parse error, got %v", err)
	}
	if _, err := src.Load(context.Background(), "../etc/passwd"); err == nil {
		t.Error("expected error for path traversal")
	}
}

func TestFileSourceSeasons(t *testing.T) {
	dir := t.TempDir()
	writeSeason(t, dir, "2024-25", "[]")
	writeSeason(t, dir, "2023-24", "[]")
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)

	seasons, err := dataset.NewFileSource(dir).Seasons(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(seasons, []string{"2023-24", "2024-25"}) {
		t.Errorf("Seasons = %v", seasons)
	}
}

type stubSource struct {
	matches []store.RawMatch
	seasons []string
	err     error
	calls   int
}

func (s *stubSource) Load(ctx context.Context, season string) ([]store.RawMatch, error) {
	s.calls++
	return s.matches, s.err
}

func (s *stubSource) Seasons(ctx context.Context) ([]string, error) {
	return s.seasons, s.err
}

func TestFallbackSource(t *testing.T) {
	primary := &stubSource{err: errors.New("connection refused")}
	secondary := &stubSource{matches: []store.RawMatch{{MatchID: "x"}}, seasons: []string{"2024-25"}}

	fs := dataset.NewFallbackSource(nil, primary, secondary)
	matches, err := fs.Load(context.Background(), "2024-25")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 || primary.calls != 1 || secondary.calls != 1 {
		t.Errorf("fallback not used: %d matches, calls %d/%d", len(matches), primary.calls, secondary.calls)
	}

	seasons, err := fs.Seasons(context.Background())
	if err != nil || !reflect.DeepEqual(seasons, []string{"2024-25"}) {
		t.Errorf("Seasons = %v, %v", seasons, err)
	}

	if _, err := dataset.NewFallbackSource().Load(context.Background(), "2024-25"); !errors.Is(err, dataset.ErrSeasonNotFound) {
		t.Errorf("empty fallback should report not found, got %v", err)
	}
}
