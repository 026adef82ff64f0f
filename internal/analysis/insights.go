package analysis

import (
	"math"
	"sort"

	"github.com/fortuna/totals/internal/store"
)

// Q4 trend classifications
const (
	TrendHighIntensity = "high-intensity"
	TrendFade          = "fade"
	TrendNeutral       = "neutral"
)

const (
	recentTotalsWindow = 15
	recentFormWindow   = 10
	highScoringTotal   = 240
	q4TrendThreshold   = 2.0
)

// MatchInsights are rolling statistics over a match's prior history
type MatchInsights struct {
	MatchID         string  `json:"match_id"`
	HistoryCount    int     `json:"history_count"`
	Mean15          float64 `json:"mean_15"`
	SD15            float64 `json:"sd_15"`
	HighScoringRate float64 `json:"high_scoring_rate"` // fraction of the last 10 above 240
	Q4Trend         string  `json:"q4_trend"`
	Q4TrendValue    float64 `json:"q4_trend_value"`
}

// RelevantHistory returns matches strictly before target's date that involve
// either of its teams, most recent first.
func RelevantHistory(target store.ProcessedMatch, all []store.ProcessedMatch) []store.ProcessedMatch {
	var history []store.ProcessedMatch
	for _, m := range all {
		if !m.Date.Before(target.Date) {
			continue
		}
		if m.Involves(target.HomeTeam) || m.Involves(target.AwayTeam) {
			history = append(history, m)
		}
	}

	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Date.After(history[j].Date)
	})
	return history
}

// GenerateMatchInsights computes recent-total mean and deviation, the
// high-scoring rate and the fourth-quarter trend from the match's prior history.
func GenerateMatchInsights(target store.ProcessedMatch, all []store.ProcessedMatch) MatchInsights {
	history := RelevantHistory(target, all)

	insights := MatchInsights{
		MatchID:      target.ID,
		HistoryCount: len(history),
		Q4Trend:      TrendNeutral,
	}

	last15 := history[:min(len(history), recentTotalsWindow)]
	totals := make([]float64, len(last15))
	for i, m := range last15 {
		totals[i] = float64(m.TotalScore)
	}
	insights.Mean15 = mean(totals)
	insights.SD15 = sampleStdDev(totals)

	last10 := history[:min(len(history), recentFormWindow)]
	if len(last10) > 0 {
		high := 0
		for _, m := range last10 {
			if m.TotalScore > highScoringTotal {
				high++
			}
		}
		insights.HighScoringRate = float64(high) / float64(len(last10))
	}

	var deltas []float64
	for _, m := range last10 {
		// overtime games have a fifth period
		if m.PeriodsRecorded != 4 || m.HasOvertime {
			continue
		}
		early := float64(m.QuarterTotals[0]+m.QuarterTotals[1]+m.QuarterTotals[2]) / 3
		deltas = append(deltas, float64(m.QuarterTotals[3])-early)
	}
	insights.Q4TrendValue = mean(deltas)
	switch {
	case insights.Q4TrendValue > q4TrendThreshold:
		insights.Q4Trend = TrendHighIntensity
	case insights.Q4TrendValue < -q4TrendThreshold:
		insights.Q4Trend = TrendFade
	}

	return insights
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStdDev uses the n-1 divisor; fewer than two values yield 0
func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	avg := mean(values)
	var variance float64
	for _, v := range values {
		diff := v - avg
		variance += diff * diff
	}
	return math.Sqrt(variance / float64(len(values)-1))
}
