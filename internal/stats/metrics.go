package stats

import (
	"sort"

	"github.com/fortuna/totals/internal/store"
)

// LineTotals is the numeric form of one or more summed box-score lines
type LineTotals struct {
	FGM       int
	FGA       int
	ThreePM   int
	ThreePA   int
	FTM       int
	FTA       int
	ORB       int
	Rebounds  int
	Turnovers int
	Fouls     int
}

// Totals converts a box-score line to numbers; a nil line is all zeros
func Totals(b *store.BoxLine) LineTotals {
	if b == nil {
		return LineTotals{}
	}
	return LineTotals{
		FGM:       ParseInt(b.FieldGoalsMade),
		FGA:       ParseInt(b.FieldGoalsAttempted),
		ThreePM:   ParseInt(b.ThreePointersMade),
		ThreePA:   ParseInt(b.ThreePointersAttempted),
		FTM:       ParseInt(b.FreeThrowsMade),
		FTA:       ParseInt(b.FreeThrowsAttempted),
		ORB:       ParseInt(b.OffensiveRebounds),
		Rebounds:  ParseInt(b.TotalRebounds),
		Turnovers: ParseInt(b.Turnovers),
		Fouls:     ParseInt(b.PersonalFouls),
	}
}

// Add returns the field-wise sum
func (t LineTotals) Add(o LineTotals) LineTotals {
	return LineTotals{
		FGM:       t.FGM + o.FGM,
		FGA:       t.FGA + o.FGA,
		ThreePM:   t.ThreePM + o.ThreePM,
		ThreePA:   t.ThreePA + o.ThreePA,
		FTM:       t.FTM + o.FTM,
		FTA:       t.FTA + o.FTA,
		ORB:       t.ORB + o.ORB,
		Rebounds:  t.Rebounds + o.Rebounds,
		Turnovers: t.Turnovers + o.Turnovers,
		Fouls:     t.Fouls + o.Fouls,
	}
}

// Possessions estimates one team's possessions from a box-score line:
// 0.96 * (FGA + 0.44*FTA - ORB + TOV)
func Possessions(b *store.BoxLine) float64 {
	if b == nil {
		return 0
	}
	t := Totals(b)
	return 0.96 * (float64(t.FGA) + 0.44*float64(t.FTA) - float64(t.ORB) + float64(t.Turnovers))
}

// TrueShootingPct returns points / (2 * (FGA + 0.44*FTA)) * 100
func TrueShootingPct(points, fga, fta int) float64 {
	if points == 0 {
		return 0
	}
	denominator := 2.0 * (float64(fga) + 0.44*float64(fta))
	if denominator == 0 {
		return 0
	}
	return float64(points) / denominator * 100
}

// FieldGoalPct returns FGM/FGA * 100, or 0 without attempts
func FieldGoalPct(fgm, fga int) float64 {
	if fga <= 0 {
		return 0
	}
	return float64(fgm) / float64(fga) * 100
}

// teamLines is a match's per-team box-score data summed over every recorded period
type teamLines struct {
	home, away         LineTotals
	homePoss, awayPoss float64
	homeThreePcts      []float64
	awayThreePcts      []float64
}

func sumTeamLines(r store.RawMatch) teamLines {
	var tl teamLines
	for _, period := range periodKeys(r.QuarterStats) {
		ps := r.QuarterStats[period]

		tl.home = tl.home.Add(Totals(ps.Home))
		tl.away = tl.away.Add(Totals(ps.Away))
		tl.homePoss += Possessions(ps.Home)
		tl.awayPoss += Possessions(ps.Away)

		if ps.Home != nil && ps.Home.ThreePointPct != "" {
			tl.homeThreePcts = append(tl.homeThreePcts, ParsePercent(ps.Home.ThreePointPct))
		}
		if ps.Away != nil && ps.Away.ThreePointPct != "" {
			tl.awayThreePcts = append(tl.awayThreePcts, ParsePercent(ps.Away.ThreePointPct))
		}
	}
	return tl
}

// pace is the mean of both teams' estimated possessions
func (tl teamLines) pace() float64 {
	return (tl.homePoss + tl.awayPoss) / 2
}

// threePointPct prefers made/attempted and falls back to the mean of
// reported period percentages for records without attempt counts
func threePointPct(t LineTotals, reported []float64) float64 {
	if t.ThreePA > 0 {
		return float64(t.ThreePM) / float64(t.ThreePA) * 100
	}
	if len(reported) == 0 {
		return 0
	}
	var sum float64
	for _, p := range reported {
		sum += p
	}
	return sum / float64(len(reported))
}

// periodKeys orders period labels Q1..Q4, OT, then anything else alphabetically,
// so float accumulation order never depends on map iteration.
func periodKeys[V any](m map[string]V) []string {
	rank := func(k string) int {
		switch k {
		case store.PeriodQ1:
			return 0
		case store.PeriodQ2:
			return 1
		case store.PeriodQ3:
			return 2
		case store.PeriodQ4:
			return 3
		case store.PeriodOT:
			return 4
		}
		return 5
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, rj := rank(keys[i]), rank(keys[j])
		if ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})
	return keys
}
