package strategy_test

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fortuna/totals/internal/ingest/odds"
	"github.com/fortuna/totals/internal/store"
	"github.com/fortuna/totals/internal/strategy"
)

func day(d int) time.Time {
	return time.Date(2025, time.January, d, 0, 0, 0, 0, time.UTC)
}

func match(id string, d int, home, away string, total int, line float64) store.ProcessedMatch {
	return store.ProcessedMatch{
		ID:         id,
		Date:       day(d),
		HomeTeam:   home,
		AwayTeam:   away,
		HomeScore:  total / 2,
		AwayScore:  total - total/2,
		TotalScore: total,
		Line:       line,
		OverOdds:   1.91,
		UnderOdds:  1.91,
	}
}

func float(v float64) *float64 { return &v }

func TestParse(t *testing.T) {
	tests := []struct {
		id   string
		p    strategy.Params
		want strategy.Strategy
	}{
		{"blind_over", strategy.Params{}, strategy.BlindOver{}},
		{"blind_under", strategy.Params{}, strategy.BlindUnder{}},
		{"reversion", strategy.Params{Margin: float(7)}, strategy.Reversion{Margin: 7}},
		{"team_trends", strategy.Params{}, strategy.TeamTrends{Margin: strategy.DefaultMargin}},
		{"high_efficiency", strategy.Params{Threshold: float(90)}, strategy.HighEfficiency{Threshold: 90}},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, err := strategy.Parse(tt.id, tt.p)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %#v, want %#v", tt.id, got, tt.want)
			}
		})
	}

	if _, err := strategy.Parse("martingale", strategy.Params{}); !errors.Is(err, strategy.ErrUnknownStrategy) {
		t.Errorf("expected ErrUnknownStrategy, got %v", err)
	}
}

func TestRequestConfig(t *testing.T) {
	cfg, err := strategy.Request{Strategy: "reversion", From: "2025-01-01", To: "2025-01-31"}.Config()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Wager != strategy.DefaultWager || !cfg.From.Equal(day(1)) || !cfg.To.Equal(day(31)) {
		t.Errorf("unexpected config %+v", cfg)
	}

	if _, err := (strategy.Request{Strategy: "reversion", From: "01.01.2025"}).Config(); !errors.Is(err, strategy.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest for malformed date, got %v", err)
	}
	if _, err := (strategy.Request{Strategy: "reversion", From: "2025-02-01", To: "2025-01-01"}).Config(); !errors.Is(err, strategy.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest for inverted range, got %v", err)
	}
}

func TestReversionPicks(t *testing.T) {
	// Dataset average: (230*3 + 236 + 224 + 230) / 6 = 230
	matches := []store.ProcessedMatch{
		match("under", 6, "A", "B", 236, 236),
		match("over", 5, "C", "D", 224, 224),
		match("none", 4, "A", "C", 230, 230),
		match("f1", 3, "B", "D", 230, 240.5),
		match("f2", 2, "A", "D", 230, 219.5),
		match("f3", 1, "B", "C", 230, 230),
	}
	cfg := strategy.Config{Strategy: strategy.Reversion{Margin: 5}, Wager: 100}

	res := strategy.RunBacktest(cfg, matches, nil)
	if res.LeagueAverage != 230 {
		t.Fatalf("LeagueAverage = %f, want 230", res.LeagueAverage)
	}

	picks := map[string]strategy.Side{}
	for _, rec := range res.Log {
		picks[rec.MatchID] = rec.Side
	}
	if picks["under"] != strategy.SideUnder {
		t.Errorf("line 236 should be Under, got %q", picks["under"])
	}
	if picks["over"] != strategy.SideOver {
		t.Errorf("line 224 should be Over, got %q", picks["over"])
	}
	if _, ok := picks["none"]; ok {
		t.Error("line 230 should not bet")
	}
	// Lines equal to their totals all push
	if res.Pushes != 2 || res.BetsPlaced != 4 {
		t.Errorf("pushes/bets = %d/%d", res.Pushes, res.BetsPlaced)
	}
}

func TestLeagueAverageFallback(t *testing.T) {
	if got := strategy.LeagueAverage(nil); got != strategy.FallbackLeagueAverage {
		t.Errorf("LeagueAverage(nil) = %f, want 230", got)
	}
}

func TestHighEfficiencyStrictThreshold(t *testing.T) {
	teams := store.NewTeamIndex([]store.TeamStats{
		{Team: "A", GamesPlayed: 5, AvgFGPct: 47.5},
		{Team: "B", GamesPlayed: 5, AvgFGPct: 47.5},
	})
	matches := []store.ProcessedMatch{match("m", 1, "A", "B", 230, 220)}

	equal := strategy.RunBacktest(strategy.Config{Strategy: strategy.HighEfficiency{Threshold: 95}, Wager: 100}, matches, teams)
	if equal.BetsPlaced != 0 {
		t.Errorf("combined FG%% equal to threshold should not bet, placed %d", equal.BetsPlaced)
	}

	below := strategy.RunBacktest(strategy.Config{Strategy: strategy.HighEfficiency{Threshold: 94}, Wager: 100}, matches, teams)
	if below.BetsPlaced != 1 || below.Log[0].Side != strategy.SideOver {
		t.Errorf("one unit above threshold should bet Over, got %+v", below.Log)
	}
}

func TestTeamTrendsRequiresBothTeams(t *testing.T) {
	teams := store.NewTeamIndex([]store.TeamStats{
		{Team: "A", GamesPlayed: 3, AvgPointsFor: 118, AvgPointsAgainst: 114},
		{Team: "B", GamesPlayed: 3, AvgPointsFor: 116, AvgPointsAgainst: 110},
	})
	matches := []store.ProcessedMatch{
		match("ab", 2, "A", "B", 240, 220),
		match("ac", 1, "A", "C", 240, 200),
	}

	res := strategy.RunBacktest(strategy.Config{Strategy: strategy.TeamTrends{Margin: 5}, Wager: 100}, matches, teams)
	if res.BetsPlaced != 1 || res.Log[0].MatchID != "ab" {
		t.Fatalf("expected only the A-B match, got %+v", res.Log)
	}
	// ((118+114) + (116+110)) / 4 * 2 = 229
	if res.Log[0].Reason != "Model Proj 229.0 > Line 220.0" {
		t.Errorf("Reason = %q", res.Log[0].Reason)
	}
}

func TestBacktestROI(t *testing.T) {
	matches := []store.ProcessedMatch{
		match("win", 2, "A", "B", 230, 220),
		match("loss", 1, "A", "B", 210, 220),
	}

	res := strategy.RunBacktest(strategy.Config{Strategy: strategy.BlindOver{}, Wager: 100}, matches, nil)
	if res.Wins != 1 || res.Losses != 1 || res.BetsPlaced != 2 {
		t.Fatalf("W/L/bets = %d/%d/%d", res.Wins, res.Losses, res.BetsPlaced)
	}
	if !res.Log[0].Profit.Equal(decimal.NewFromInt(91)) || !res.Log[1].Profit.Equal(decimal.NewFromInt(-100)) {
		t.Errorf("per-bet profit = %s, %s", res.Log[0].Profit, res.Log[1].Profit)
	}
	if !res.Profit.Equal(decimal.NewFromInt(-9)) {
		t.Errorf("Profit = %s, want -9", res.Profit)
	}
	if !res.ROI.Equal(decimal.NewFromFloat(-4.5)) {
		t.Errorf("ROI = %s, want -4.5", res.ROI)
	}
}

func TestBacktestPushCountsAsPlaced(t *testing.T) {
	matches := []store.ProcessedMatch{
		match("push", 2, "A", "B", 220, 220),
		match("loss", 1, "A", "B", 210, 220),
	}

	res := strategy.RunBacktest(strategy.Config{Strategy: strategy.BlindOver{}, Wager: 100}, matches, nil)
	if res.Wins != 0 || res.Losses != 1 || res.Pushes != 1 || res.BetsPlaced != 2 {
		t.Fatalf("W/L/P/bets = %d/%d/%d/%d", res.Wins, res.Losses, res.Pushes, res.BetsPlaced)
	}
	if res.Log[0].Outcome != strategy.OutcomePush || !res.Log[0].Profit.IsZero() {
		t.Errorf("push bet = %s with profit %s", res.Log[0].Outcome, res.Log[0].Profit)
	}
	if !res.Profit.Equal(decimal.NewFromInt(-100)) {
		t.Errorf("Profit = %s, want -100", res.Profit)
	}
	if !res.ROI.Equal(decimal.NewFromInt(-50)) {
		t.Errorf("ROI = %s, want -50", res.ROI)
	}
}

func TestBacktestNoBets(t *testing.T) {
	res := strategy.RunBacktest(strategy.Config{Strategy: strategy.Reversion{Margin: 50}, Wager: 100}, nil, nil)
	if res.BetsPlaced != 0 || !res.ROI.IsZero() || res.LeagueAverage != strategy.FallbackLeagueAverage {
		t.Errorf("unexpected empty result %+v", res)
	}
	if res.Log == nil {
		t.Error("Log should be empty, not nil")
	}
}

func TestBacktestFilterAndDeterminism(t *testing.T) {
	matches := []store.ProcessedMatch{
		match("1", 1, "A", "B", 220, 221),
		match("3", 3, "C", "A", 225, 221),
		match("5", 5, "B", "C", 230, 221),
		match("7", 7, "A", "C", 215, 221),
		match("9", 9, "A", "B", 240, 221),
	}
	cfg := strategy.Config{Strategy: strategy.BlindUnder{}, Wager: 50, Team: "A", From: day(3), To: day(7)}

	first := strategy.RunBacktest(cfg, matches, nil)
	second := strategy.RunBacktest(cfg, matches, nil)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("RunBacktest is not deterministic")
	}

	var ids []string
	for _, rec := range first.Log {
		ids = append(ids, rec.MatchID)
	}
	if !reflect.DeepEqual(ids, []string{"7", "3"}) {
		t.Errorf("log order = %v, want [7 3]", ids)
	}
	if first.MatchesEvaluated != 2 {
		t.Errorf("MatchesEvaluated = %d", first.MatchesEvaluated)
	}
}

func TestBacktestTeamsUsesFilteredDataset(t *testing.T) {
	filtered := []store.ProcessedMatch{match("x", 1, "A", "B", 220, 221)}
	teams := strategy.BacktestTeams(filtered)
	if _, ok := teams.Lookup("A"); !ok {
		t.Error("expected A in backtest team index")
	}
	if _, ok := teams.Lookup("C"); ok {
		t.Error("C is not in the filtered dataset")
	}
}

func TestEvaluateLiveSignals(t *testing.T) {
	teams := store.NewTeamIndex([]store.TeamStats{
		{Team: "A", GamesPlayed: 10, AvgPointsFor: 120, AvgPointsAgainst: 118, AvgFGPct: 49, Avg3PPct: 37},
		{Team: "B", GamesPlayed: 10, AvgPointsFor: 119, AvgPointsAgainst: 117, AvgFGPct: 48, Avg3PPct: 36},
	})
	defaults := []store.ProcessedMatch{match("d1", 1, "A", "B", 220, 220), match("d2", 2, "A", "B", 220, 220)}

	quoted := func(id, home, away string, line float64) odds.LiveGame {
		return odds.LiveGame{
			ID: id, HomeTeam: home, AwayTeam: away,
			Bookmakers: []odds.Bookmaker{{Key: "book", Markets: []odds.Market{{Key: "totals", Outcomes: []odds.Outcome{
				{Name: "Over", Price: 1.9, Point: line},
				{Name: "Under", Price: 1.9, Point: line},
			}}}}},
		}
	}
	games := []odds.LiveGame{
		quoted("g1", "A", "B", 228),
		quoted("g2", "A", "Unknown", 210),
		{ID: "no-market", HomeTeam: "A", AwayTeam: "B"},
	}

	signals := strategy.EvaluateLiveSignals(strategy.DefaultLiveConfig(), games, teams, defaults)
	if len(signals) != 2 {
		t.Fatalf("got %d signals, want 2", len(signals))
	}

	g1 := signals[0]
	// projection (238 + 236) / 2 = 237 > 228+5; avg 220, 228 > 225; FG% 97 > 95
	wantTags := []strategy.PickTag{strategy.TagModelEdge, strategy.TagReversion, strategy.TagEfficiency}
	if len(g1.Picks) != len(wantTags) {
		t.Fatalf("g1 picks = %+v", g1.Picks)
	}
	for i, tag := range wantTags {
		if g1.Picks[i].Tag != tag {
			t.Errorf("pick %d = %s, want %s", i, g1.Picks[i].Tag, tag)
		}
	}
	if g1.Picks[0].Side != strategy.SideOver || g1.Picks[1].Side != strategy.SideUnder {
		t.Errorf("unexpected sides %+v", g1.Picks)
	}
	if g1.Projection == nil || *g1.Projection != 237 {
		t.Errorf("Projection = %v", g1.Projection)
	}
	if g1.LeagueAverage != 220 {
		t.Errorf("LeagueAverage = %f", g1.LeagueAverage)
	}

	g2 := signals[1]
	if g2.Projection != nil || len(g2.Matchup) != 0 {
		t.Errorf("unknown team should skip model and matchup: %+v", g2)
	}
	if len(g2.Picks) != 1 || g2.Picks[0].Tag != strategy.TagReversion || g2.Picks[0].Side != strategy.SideOver {
		t.Errorf("g2 picks = %+v", g2.Picks)
	}
}
