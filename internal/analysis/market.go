package analysis

import (
	"math"
	"sort"

	"github.com/fortuna/totals/internal/store"
)

// TeamMarketProfile summarizes how a team's games settle against the line
type TeamMarketProfile struct {
	Team       string  `json:"team"`
	Games      int     `json:"games"`
	Volatility float64 `json:"volatility"` // mean |total - line|
	OverPct    float64 `json:"over_pct"`
}

// MarketInsights holds the four market rankings. Every pointer is nil when
// there are no matches.
type MarketInsights struct {
	MostVolatile    *TeamMarketProfile  `json:"most_volatile"`
	MostPredictable *TeamMarketProfile  `json:"most_predictable"`
	MostOver        *TeamMarketProfile  `json:"most_over"`
	MostUnder       *TeamMarketProfile  `json:"most_under"`
	Profiles        []TeamMarketProfile `json:"profiles"`
}

// CalculateMarketInsights ranks teams by line volatility and over tendency.
// Profiles appear in order of each team's first appearance; ties keep that order.
func CalculateMarketInsights(matches []store.ProcessedMatch) MarketInsights {
	type acc struct {
		games     int
		overs     int
		deviation float64
	}

	var order []string
	byTeam := make(map[string]*acc)
	add := func(team string, m store.ProcessedMatch) {
		a, ok := byTeam[team]
		if !ok {
			a = &acc{}
			byTeam[team] = a
			order = append(order, team)
		}
		a.games++
		a.deviation += math.Abs(float64(m.TotalScore) - m.Line)
		if m.Result == store.ResultOver {
			a.overs++
		}
	}

	for _, m := range matches {
		add(m.HomeTeam, m)
		add(m.AwayTeam, m)
	}

	result := MarketInsights{Profiles: make([]TeamMarketProfile, 0, len(order))}
	if len(order) == 0 {
		return result
	}

	for _, team := range order {
		a := byTeam[team]
		result.Profiles = append(result.Profiles, TeamMarketProfile{
			Team:       team,
			Games:      a.games,
			Volatility: a.deviation / float64(a.games),
			OverPct:    float64(a.overs) / float64(a.games) * 100,
		})
	}

	result.MostVolatile = top(result.Profiles, func(x, y TeamMarketProfile) bool { return x.Volatility > y.Volatility })
	result.MostPredictable = top(result.Profiles, func(x, y TeamMarketProfile) bool { return x.Volatility < y.Volatility })
	result.MostOver = top(result.Profiles, func(x, y TeamMarketProfile) bool { return x.OverPct > y.OverPct })
	result.MostUnder = top(result.Profiles, func(x, y TeamMarketProfile) bool { return x.OverPct < y.OverPct })

	return result
}

// top stable-sorts a copy and returns its first element
func top(profiles []TeamMarketProfile, less func(x, y TeamMarketProfile) bool) *TeamMarketProfile {
	sorted := make([]TeamMarketProfile, len(profiles))
	copy(sorted, profiles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})
	first := sorted[0]
	return &first
}
