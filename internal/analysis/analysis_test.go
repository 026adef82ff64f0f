package analysis_test

import (
	"math"
	"testing"
	"time"

	"github.com/fortuna/totals/internal/analysis"
	"github.com/fortuna/totals/internal/store"
)

func day(d int) time.Time {
	return time.Date(2025, time.January, d, 0, 0, 0, 0, time.UTC)
}

func team(name string) store.TeamStats {
	return store.TeamStats{
		Team:             name,
		GamesPlayed:      10,
		AvgPointsFor:     110,
		AvgPointsAgainst: 110,
		Avg3PPct:         36,
		AvgFGA:           85,
		AvgFouls:         19,
		AvgFTM:           16,
	}
}

func hasType(insights []analysis.MatchupInsight, typ analysis.InsightType) int {
	n := 0
	for _, i := range insights {
		if i.Type == typ {
			n++
		}
	}
	return n
}

func TestAnalyzeMatchupShootingDrought(t *testing.T) {
	tests := []struct {
		name   string
		a, b   float64
		firing bool
	}{
		{"Both below", 30, 32, true},
		{"One at threshold", 33, 32, false},
		{"Both above", 36, 37, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := team("A"), team("B")
			a.Avg3PPct, b.Avg3PPct = tt.a, tt.b

			got := hasType(analysis.AnalyzeMatchup(a, b), analysis.InsightShootingDrought) == 1
			if got != tt.firing {
				t.Errorf("drought fired = %v, want %v", got, tt.firing)
			}
		})
	}
}

func TestAnalyzeMatchupRules(t *testing.T) {
	a, b := team("A"), team("B")
	if got := analysis.AnalyzeMatchup(a, b); len(got) != 0 {
		t.Fatalf("baseline should fire nothing, got %v", got)
	}

	a.AvgFGA, b.AvgFGA = 88, 88
	a.AvgFouls, b.AvgFouls = 21, 20
	a.AvgFTM, b.AvgFTM = 18, 18
	a.AvgPointsFor, b.AvgPointsAgainst = 118, 117
	b.AvgPointsFor, a.AvgPointsAgainst = 119, 116

	got := analysis.AnalyzeMatchup(a, b)
	want := []analysis.InsightType{
		analysis.InsightPaceClash,
		analysis.InsightFoulHeavy,
		analysis.InsightMismatch,
		analysis.InsightMismatch,
	}
	if len(got) != len(want) {
		t.Fatalf("got %d insights, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i].Type != want[i] {
			t.Errorf("insight %d = %s, want %s", i, got[i].Type, want[i])
		}
	}
	if got[2].Title != "A Offensive Mismatch" || got[3].Title != "B Offensive Mismatch" {
		t.Errorf("mismatch direction order wrong: %q, %q", got[2].Title, got[3].Title)
	}
}

func TestAnalyzeMatchupDefensiveGrind(t *testing.T) {
	a, b := team("A"), team("B")
	a.AvgPointsAgainst, b.AvgPointsAgainst = 105, 107.9

	if hasType(analysis.AnalyzeMatchup(a, b), analysis.InsightDefensiveGrind) != 1 {
		t.Error("expected defensive grind")
	}

	b.AvgPointsAgainst = 108
	if hasType(analysis.AnalyzeMatchup(a, b), analysis.InsightDefensiveGrind) != 0 {
		t.Error("108 allowed should not be a grind")
	}
}

func TestAnalyzeMatchupMissingTeam(t *testing.T) {
	a := team("A")
	a.Avg3PPct = 20
	got := analysis.AnalyzeMatchup(a, store.TeamStats{Team: "B"})
	if got == nil || len(got) != 0 {
		t.Errorf("missing team should yield empty insights, got %v", got)
	}
}

func TestCalculateMarketInsights(t *testing.T) {
	matches := []store.ProcessedMatch{
		{HomeTeam: "A", AwayTeam: "B", TotalScore: 230, Line: 220, Result: store.ResultOver},
		{HomeTeam: "C", AwayTeam: "A", TotalScore: 210, Line: 212, Result: store.ResultUnder},
		{HomeTeam: "B", AwayTeam: "C", TotalScore: 215, Line: 215, Result: store.ResultPush},
	}

	got := analysis.CalculateMarketInsights(matches)
	if len(got.Profiles) != 3 || got.Profiles[0].Team != "A" || got.Profiles[1].Team != "B" || got.Profiles[2].Team != "C" {
		t.Fatalf("profiles not in first-appearance order: %+v", got.Profiles)
	}

	// A: (10+2)/2=6, B: (10+0)/2=5, C: (2+0)/2=1
	if got.MostVolatile.Team != "A" || math.Abs(got.MostVolatile.Volatility-6) > 0.0001 {
		t.Errorf("MostVolatile = %+v", got.MostVolatile)
	}
	if got.MostPredictable.Team != "C" {
		t.Errorf("MostPredictable = %+v", got.MostPredictable)
	}
	// A and B tie at 50% over; A appears first
	if got.MostOver.Team != "A" || got.MostOver.OverPct != 50 {
		t.Errorf("MostOver = %+v", got.MostOver)
	}
	if got.MostUnder.Team != "C" || got.MostUnder.OverPct != 0 {
		t.Errorf("MostUnder = %+v", got.MostUnder)
	}
}

func TestCalculateMarketInsightsEmpty(t *testing.T) {
	got := analysis.CalculateMarketInsights(nil)
	if got.MostVolatile != nil || got.MostPredictable != nil || got.MostOver != nil || got.MostUnder != nil {
		t.Errorf("expected nil rankings, got %+v", got)
	}
}

func TestRelevantHistoryExcludesSameDate(t *testing.T) {
	target := store.ProcessedMatch{ID: "t", Date: day(10), HomeTeam: "A", AwayTeam: "B"}
	all := []store.ProcessedMatch{
		target,
		{ID: "same-day", Date: day(10), HomeTeam: "A", AwayTeam: "C"},
		{ID: "later", Date: day(12), HomeTeam: "B", AwayTeam: "C"},
		{ID: "other-teams", Date: day(5), HomeTeam: "C", AwayTeam: "D"},
		{ID: "older", Date: day(3), HomeTeam: "C", AwayTeam: "B"},
		{ID: "prior", Date: day(9), HomeTeam: "A", AwayTeam: "D"},
	}

	got := analysis.RelevantHistory(target, all)
	if len(got) != 2 || got[0].ID != "prior" || got[1].ID != "older" {
		t.Errorf("history = %+v", got)
	}
}

func TestGenerateMatchInsights(t *testing.T) {
	target := store.ProcessedMatch{ID: "t", Date: day(20), HomeTeam: "A", AwayTeam: "B"}
	all := []store.ProcessedMatch{
		{Date: day(1), HomeTeam: "A", AwayTeam: "C", TotalScore: 250, PeriodsRecorded: 4, QuarterTotals: [4]int{60, 60, 60, 70}},
		{Date: day(2), HomeTeam: "B", AwayTeam: "C", TotalScore: 230, PeriodsRecorded: 4, QuarterTotals: [4]int{60, 60, 60, 50}},
		{Date: day(3), HomeTeam: "C", AwayTeam: "A", TotalScore: 210, PeriodsRecorded: 4, QuarterTotals: [4]int{50, 50, 50, 60}},
	}

	got := analysis.GenerateMatchInsights(target, all)
	if got.HistoryCount != 3 {
		t.Fatalf("HistoryCount = %d, want 3", got.HistoryCount)
	}
	if math.Abs(got.Mean15-230) > 0.0001 {
		t.Errorf("Mean15 = %f, want 230", got.Mean15)
	}
	if math.Abs(got.SD15-20) > 0.0001 {
		t.Errorf("SD15 = %f, want 20", got.SD15)
	}
	if math.Abs(got.HighScoringRate-1.0/3) > 0.0001 {
		t.Errorf("HighScoringRate = %f", got.HighScoringRate)
	}
	// deltas: +10, -10, +10
	if math.Abs(got.Q4TrendValue-10.0/3) > 0.0001 || got.Q4Trend != analysis.TrendHighIntensity {
		t.Errorf("Q4 trend = %s (%f)", got.Q4Trend, got.Q4TrendValue)
	}
}

func TestGenerateMatchInsightsWindows(t *testing.T) {
	target := store.ProcessedMatch{ID: "t", Date: day(25), HomeTeam: "A", AwayTeam: "B"}

	var all []store.ProcessedMatch
	for d := 1; d <= 20; d++ {
		m := store.ProcessedMatch{Date: day(d), HomeTeam: "A", AwayTeam: "C", PeriodsRecorded: 4}
		switch {
		case d <= 5: // outside both windows
			m.TotalScore = 100
			m.QuarterTotals = [4]int{25, 25, 25, 25}
		case d <= 10: // in the 15 window only
			m.TotalScore = 250
			m.QuarterTotals = [4]int{50, 50, 50, 70}
		case d%2 == 0 && d <= 18:
			m.TotalScore = 240
			m.QuarterTotals = [4]int{60, 60, 60, 50}
		default:
			m.TotalScore = 241
			m.QuarterTotals = [4]int{60, 60, 60, 50}
		}
		all = append(all, m)
	}

	got := analysis.GenerateMatchInsights(target, all)
	if got.HistoryCount != 20 {
		t.Fatalf("HistoryCount = %d, want 20", got.HistoryCount)
	}
	// last 15: five at 250, six at 241, four at 240
	if want := 3656.0 / 15; math.Abs(got.Mean15-want) > 0.0001 {
		t.Errorf("Mean15 = %f, want %f", got.Mean15, want)
	}
	// last 10: 240 is not above the threshold
	if math.Abs(got.HighScoringRate-0.6) > 0.0001 {
		t.Errorf("HighScoringRate = %f, want 0.6", got.HighScoringRate)
	}
	if math.Abs(got.Q4TrendValue-(-10)) > 0.0001 || got.Q4Trend != analysis.TrendFade {
		t.Errorf("Q4 trend = %s (%f), want fade (-10)", got.Q4Trend, got.Q4TrendValue)
	}
}

func TestGenerateMatchInsightsSkipsOvertimeForQ4Trend(t *testing.T) {
	target := store.ProcessedMatch{ID: "t", Date: day(20), HomeTeam: "A", AwayTeam: "B"}
	all := []store.ProcessedMatch{
		{Date: day(1), HomeTeam: "A", AwayTeam: "C", TotalScore: 230, PeriodsRecorded: 4, QuarterTotals: [4]int{60, 60, 60, 50}},
		{Date: day(2), HomeTeam: "B", AwayTeam: "C", TotalScore: 270, PeriodsRecorded: 4, HasOvertime: true, QuarterTotals: [4]int{50, 50, 50, 80}},
	}

	got := analysis.GenerateMatchInsights(target, all)
	if math.Abs(got.Q4TrendValue-(-10)) > 0.0001 || got.Q4Trend != analysis.TrendFade {
		t.Errorf("Q4 trend = %s (%f), want fade (-10)", got.Q4Trend, got.Q4TrendValue)
	}
}

func TestGenerateMatchInsightsShortHistory(t *testing.T) {
	target := store.ProcessedMatch{ID: "t", Date: day(20), HomeTeam: "A", AwayTeam: "B"}
	all := []store.ProcessedMatch{
		{Date: day(1), HomeTeam: "A", AwayTeam: "C", TotalScore: 221, PeriodsRecorded: 3, QuarterTotals: [4]int{60, 60, 60, 0}},
	}

	got := analysis.GenerateMatchInsights(target, all)
	if got.SD15 != 0 {
		t.Errorf("SD15 with one sample = %f, want 0", got.SD15)
	}
	if got.Mean15 != 221 {
		t.Errorf("Mean15 = %f", got.Mean15)
	}
	if got.Q4Trend != analysis.TrendNeutral || got.Q4TrendValue != 0 {
		t.Errorf("incomplete periods should not count toward Q4 trend: %s %f", got.Q4Trend, got.Q4TrendValue)
	}

	empty := analysis.GenerateMatchInsights(target, nil)
	if empty.HistoryCount != 0 || empty.Mean15 != 0 || empty.HighScoringRate != 0 {
		t.Errorf("empty history = %+v", empty)
	}
}
