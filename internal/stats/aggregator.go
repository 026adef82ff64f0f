package stats

import (
	"sort"

	"github.com/fortuna/totals/internal/store"
)

// teamAccumulator holds running sums for one team
type teamAccumulator struct {
	games         int
	overs         int
	pointsFor     float64
	pointsAgainst float64
	pace          float64
	tsPct         float64
	fgPct         float64
	threePct      float64
	fouls         float64
	ftm           float64
	fta           float64
	fga           float64
	turnovers     float64
	rebounds      float64
}

// AggregateTeamStats folds every raw match into per-team season averages.
// Derived match values come from the processed record with the same ID when
// present. Without raw data the result is empty: period-level averages cannot
// be rebuilt from processed matches alone. Output is sorted by team name.
func AggregateTeamStats(processed []store.ProcessedMatch, raw []store.RawMatch) []store.TeamStats {
	if len(raw) == 0 {
		return []store.TeamStats{}
	}

	byID := make(map[string]store.ProcessedMatch, len(processed))
	for _, m := range processed {
		if m.ID != "" {
			byID[m.ID] = m
		}
	}

	acc := make(map[string]*teamAccumulator)
	get := func(team string) *teamAccumulator {
		a, ok := acc[team]
		if !ok {
			a = &teamAccumulator{}
			acc[team] = a
		}
		return a
	}

	for _, r := range raw {
		m, ok := byID[r.MatchID]
		if !ok || m.HomeTeam != r.HomeTeam || m.AwayTeam != r.AwayTeam {
			m = ProcessMatch(r)
		}
		lines := sumTeamLines(r)
		over := float64(m.TotalScore) > m.Line

		home := get(r.HomeTeam)
		home.add(m.HomeScore, m.AwayScore, m.Pace, m.HomeTSPct, m.HomeFGPct,
			threePointPct(lines.home, lines.homeThreePcts), lines.home, over)

		away := get(r.AwayTeam)
		away.add(m.AwayScore, m.HomeScore, m.Pace, m.AwayTSPct, m.AwayFGPct,
			threePointPct(lines.away, lines.awayThreePcts), lines.away, over)
	}

	return finalize(acc)
}

// AggregateFromMatches builds dataset-scoped team averages from processed
// matches only. Period-level fields (3P%, fouls, free throws, FGA, turnovers,
// rebounds) are unavailable here and stay zero.
func AggregateFromMatches(matches []store.ProcessedMatch) []store.TeamStats {
	acc := make(map[string]*teamAccumulator)
	get := func(team string) *teamAccumulator {
		a, ok := acc[team]
		if !ok {
			a = &teamAccumulator{}
			acc[team] = a
		}
		return a
	}

	for _, m := range matches {
		over := float64(m.TotalScore) > m.Line
		get(m.HomeTeam).add(m.HomeScore, m.AwayScore, m.Pace, m.HomeTSPct, m.HomeFGPct, 0, LineTotals{}, over)
		get(m.AwayTeam).add(m.AwayScore, m.HomeScore, m.Pace, m.AwayTSPct, m.AwayFGPct, 0, LineTotals{}, over)
	}

	return finalize(acc)
}

func (a *teamAccumulator) add(pointsFor, pointsAgainst int, pace, ts, fg, threePct float64, lines LineTotals, over bool) {
	a.games++
	if over {
		a.overs++
	}
	a.pointsFor += float64(pointsFor)
	a.pointsAgainst += float64(pointsAgainst)
	a.pace += pace
	a.tsPct += ts
	a.fgPct += fg
	a.threePct += threePct
	a.fouls += float64(lines.Fouls)
	a.ftm += float64(lines.FTM)
	a.fta += float64(lines.FTA)
	a.fga += float64(lines.FGA)
	a.turnovers += float64(lines.Turnovers)
	a.rebounds += float64(lines.Rebounds)
}

func finalize(acc map[string]*teamAccumulator) []store.TeamStats {
	teams := make([]store.TeamStats, 0, len(acc))
	for name, a := range acc {
		if a.games == 0 {
			continue
		}
		n := float64(a.games)
		teams = append(teams, store.TeamStats{
			Team:             name,
			GamesPlayed:      a.games,
			AvgPointsFor:     a.pointsFor / n,
			AvgPointsAgainst: a.pointsAgainst / n,
			AvgPace:          a.pace / n,
			AvgTSPct:         a.tsPct / n,
			OverRate:         float64(a.overs) / n * 100,
			AvgFGPct:         a.fgPct / n,
			Avg3PPct:         a.threePct / n,
			AvgFouls:         a.fouls / n,
			AvgFTM:           a.ftm / n,
			AvgFTA:           a.fta / n,
			AvgFGA:           a.fga / n,
			AvgTurnovers:     a.turnovers / n,
			AvgRebounds:      a.rebounds / n,
		})
	}

	sort.Slice(teams, func(i, j int) bool {
		return teams[i].Team < teams[j].Team
	})
	return teams
}
