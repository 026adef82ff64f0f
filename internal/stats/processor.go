package stats

import (
	"sort"
	"strings"
	"time"

	"github.com/fortuna/totals/internal/store"
)

const (
	// DefaultDecimalOdds is used when a record carries no price (-110 American)
	DefaultDecimalOdds = 1.91

	// matchDateLayout is the dataset's DD.MM.YYYY format; single-digit parts are accepted
	matchDateLayout = "2.1.2006"
)

// ProcessMatches derives a ProcessedMatch for every raw record and returns
// them sorted by date, most recent first. Records sharing a date keep input order.
func ProcessMatches(raw []store.RawMatch) []store.ProcessedMatch {
	processed := make([]store.ProcessedMatch, 0, len(raw))
	for _, r := range raw {
		processed = append(processed, ProcessMatch(r))
	}

	SortByDateDesc(processed)
	return processed
}

// ProcessMatch derives the canonical record for a single raw match
func ProcessMatch(r store.RawMatch) store.ProcessedMatch {
	m := store.ProcessedMatch{
		ID:        r.MatchID,
		Date:      ParseMatchDate(r.Date),
		HomeTeam:  r.HomeTeam,
		AwayTeam:  r.AwayTeam,
		HomeScore: ParseInt(r.HomeScore),
		AwayScore: ParseInt(r.AwayScore),
		Line:      ParseFloat(r.Odds.TotalLine),
		OverOdds:  priceOrDefault(r.Odds.OverOdds),
		UnderOdds: priceOrDefault(r.Odds.UnderOdds),
	}
	m.TotalScore = m.HomeScore + m.AwayScore

	for i, period := range store.RegulationPeriods {
		ps, ok := r.QuarterScores[period]
		if !ok {
			continue
		}
		m.PeriodsRecorded++
		home, away := ParseInt(ps.Home), ParseInt(ps.Away)
		m.HomeQuarters[i] = home
		m.AwayQuarters[i] = away
		m.QuarterTotals[i] = home + away
		m.RegulationTotal += home + away
	}
	_, m.HasOvertime = r.QuarterScores[store.PeriodOT]
	if m.HasOvertime {
		m.OvertimeTotal = m.TotalScore - m.RegulationTotal
	}

	lines := sumTeamLines(r)
	m.Pace = lines.pace()
	m.HomeTSPct = TrueShootingPct(m.HomeScore, lines.home.FGA, lines.home.FTA)
	m.AwayTSPct = TrueShootingPct(m.AwayScore, lines.away.FGA, lines.away.FTA)
	m.HomeFGPct = FieldGoalPct(lines.home.FGM, lines.home.FGA)
	m.AwayFGPct = FieldGoalPct(lines.away.FGM, lines.away.FGA)

	m.Result = SettleTotal(m.TotalScore, m.Line)
	m.Deviation = float64(m.TotalScore) - m.Line

	return m
}

// SettleTotal grades a combined score against a totals line.
// Equality is exact: only total == line is a push.
func SettleTotal(total int, line float64) store.Result {
	t := float64(total)
	switch {
	case t > line:
		return store.ResultOver
	case t < line:
		return store.ResultUnder
	default:
		return store.ResultPush
	}
}

// ParseMatchDate reads a DD.MM.YYYY date (an optional trailing time is ignored).
// Unparseable input yields the zero time.
func ParseMatchDate(s string) time.Time {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return time.Time{}
	}
	t, err := time.Parse(matchDateLayout, fields[0])
	if err != nil {
		return time.Time{}
	}
	return t
}

// SortByDateDesc orders matches most recent first, stable for equal dates
func SortByDateDesc(matches []store.ProcessedMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Date.After(matches[j].Date)
	})
}

func priceOrDefault(v store.FlexString) float64 {
	if p := ParseFloat(v); p > 0 {
		return p
	}
	return DefaultDecimalOdds
}
