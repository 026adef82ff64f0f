package summary

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/fortuna/totals/internal/analysis"
	"github.com/fortuna/totals/internal/store"
)

// Result is a match summary and where it came from
type Result struct {
	MatchID   string `json:"match_id"`
	Text      string `json:"text"`
	Generated bool   `json:"generated"` // false when the template fallback was used
}

// MatchLine is the one-line description of a settled match
func MatchLine(m store.ProcessedMatch) string {
	line := fmt.Sprintf("%s %d - %d %s (total %d vs line %.1f, %s",
		m.HomeTeam, m.HomeScore, m.AwayScore, m.AwayTeam, m.TotalScore, m.Line, m.Result)
	if m.HasOvertime {
		line += ", overtime"
	}
	return line + ")"
}

// TeamLine is the one-line description of a team's season averages
func TeamLine(t store.TeamStats) string {
	return fmt.Sprintf("%s: %.1f scored, %.1f allowed, pace %.1f, FG%% %.1f, 3P%% %.1f, overs %.0f%% over %d games",
		t.Team, t.AvgPointsFor, t.AvgPointsAgainst, t.AvgPace, t.AvgFGPct, t.Avg3PPct, t.OverRate, t.GamesPlayed)
}

// Describe summarizes a match from its summary strings. It never fails: a nil
// summarizer, an error, or an empty answer all fall back to a template.
func Describe(ctx context.Context, s Summarizer, m store.ProcessedMatch, home, away *store.TeamStats, insights analysis.MatchInsights) Result {
	var b strings.Builder
	b.WriteString("Match: " + MatchLine(m) + "\n")
	if home != nil {
		b.WriteString("Home: " + TeamLine(*home) + "\n")
	}
	if away != nil {
		b.WriteString("Away: " + TeamLine(*away) + "\n")
	}
	fmt.Fprintf(&b, "Prior history: %d games, mean total %.1f (sd %.1f), fourth quarter trend %s\n",
		insights.HistoryCount, insights.Mean15, insights.SD15, insights.Q4Trend)
	b.WriteString("Explain in plain words why this game finished where it did relative to the line.")

	if s != nil {
		text, err := s.Summarize(ctx, b.String())
		if err == nil && text != "" {
			return Result{MatchID: m.ID, Text: text, Generated: true}
		}
		if err != nil {
			log.Printf("[summary] ⚠️  summarizer failed for %s: %v (using template)", m.ID, err)
		}
	}

	return Result{MatchID: m.ID, Text: template(m, insights)}
}

func template(m store.ProcessedMatch, insights analysis.MatchInsights) string {
	text := fmt.Sprintf("%s finished %s the line by %.1f points.", MatchLine(m), strings.ToLower(string(m.Result)), math.Abs(m.Deviation))
	if m.Result == store.ResultPush {
		text = MatchLine(m) + " landed exactly on the line."
	}
	if insights.HistoryCount > 0 {
		text += fmt.Sprintf(" The previous %d relevant games averaged %.1f combined points.", min(insights.HistoryCount, 15), insights.Mean15)
	}
	return text
}
