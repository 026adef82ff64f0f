package analysis

import (
	"fmt"

	"github.com/fortuna/totals/internal/store"
)

// InsightType tags a matchup signal
type InsightType string

const (
	InsightPaceClash       InsightType = "pace_clash"
	InsightShootingDrought InsightType = "shooting_drought"
	InsightFoulHeavy       InsightType = "foul_heavy"
	InsightMismatch        InsightType = "mismatch"
	InsightDefensiveGrind  InsightType = "defensive_grind"
)

// Fixed matchup thresholds
const (
	paceClashFGA       = 175.0
	droughtThreePct    = 33.0
	foulHeavyFouls     = 40.0
	foulHeavyFTM       = 35.0
	mismatchPoints     = 115.0
	defensiveGrindPtsA = 108.0
)

// MatchupInsight is one qualitative signal derived from two teams' aggregates
type MatchupInsight struct {
	Type  InsightType `json:"type"`
	Title string      `json:"title"`
	Text  string      `json:"text"`
}

// AnalyzeMatchup evaluates every matchup rule independently; zero or more may fire.
// Order: pace clash, shooting drought, foul heavy, a→b mismatch, b→a mismatch, defensive grind.
// A team without games yields no signals.
func AnalyzeMatchup(a, b store.TeamStats) []MatchupInsight {
	insights := []MatchupInsight{}
	if a.GamesPlayed == 0 || b.GamesPlayed == 0 {
		return insights
	}

	if fga := a.AvgFGA + b.AvgFGA; fga > paceClashFGA {
		insights = append(insights, MatchupInsight{
			Type:  InsightPaceClash,
			Title: "Pace Clash",
			Text:  fmt.Sprintf("Combined %.1f field goal attempts per game. Both teams shoot often, creating more scoring chances.", fga),
		})
	}

	if a.Avg3PPct < droughtThreePct && b.Avg3PPct < droughtThreePct {
		insights = append(insights, MatchupInsight{
			Type:  InsightShootingDrought,
			Title: "Shooting Drought Risk",
			Text:  fmt.Sprintf("%s (%.1f%%) and %s (%.1f%%) both shoot under %.0f%% from three.", a.Team, a.Avg3PPct, b.Team, b.Avg3PPct, droughtThreePct),
		})
	}

	fouls, ftm := a.AvgFouls+b.AvgFouls, a.AvgFTM+b.AvgFTM
	if fouls > foulHeavyFouls && ftm > foulHeavyFTM {
		insights = append(insights, MatchupInsight{
			Type:  InsightFoulHeavy,
			Title: "Foul-Heavy Game",
			Text:  fmt.Sprintf("Combined %.1f fouls and %.1f free throws made per game. Frequent stoppages and free points favor the Over.", fouls, ftm),
		})
	}

	if m, ok := mismatch(a, b); ok {
		insights = append(insights, m)
	}
	if m, ok := mismatch(b, a); ok {
		insights = append(insights, m)
	}

	if a.AvgPointsAgainst < defensiveGrindPtsA && b.AvgPointsAgainst < defensiveGrindPtsA {
		insights = append(insights, MatchupInsight{
			Type:  InsightDefensiveGrind,
			Title: "Defensive Grind",
			Text:  fmt.Sprintf("%s allows %.1f and %s allows %.1f points per game. Expect a lower total.", a.Team, a.AvgPointsAgainst, b.Team, b.AvgPointsAgainst),
		})
	}

	return insights
}

func mismatch(offense, defense store.TeamStats) (MatchupInsight, bool) {
	if offense.AvgPointsFor <= mismatchPoints || defense.AvgPointsAgainst <= mismatchPoints {
		return MatchupInsight{}, false
	}
	return MatchupInsight{
		Type:  InsightMismatch,
		Title: fmt.Sprintf("%s Offensive Mismatch", offense.Team),
		Text: fmt.Sprintf("%s scores %.1f per game against a %s defense allowing %.1f.",
			offense.Team, offense.AvgPointsFor, defense.Team, defense.AvgPointsAgainst),
	}, true
}
