package strategy

import (
	"time"

	"github.com/fortuna/totals/internal/analysis"
	"github.com/fortuna/totals/internal/ingest/odds"
	"github.com/fortuna/totals/internal/store"
)

// PickTag labels which rule family produced a live pick
type PickTag string

const (
	TagModelEdge  PickTag = "model_edge"
	TagReversion  PickTag = "reversion"
	TagEfficiency PickTag = "efficiency"
)

// LiveConfig holds the thresholds for live evaluation
type LiveConfig struct {
	ModelMargin         float64 `json:"model_margin" yaml:"model_margin"`
	ReversionMargin     float64 `json:"reversion_margin" yaml:"reversion_margin"`
	EfficiencyThreshold float64 `json:"efficiency_threshold" yaml:"efficiency_threshold"`
}

// DefaultLiveConfig returns the standard live thresholds
func DefaultLiveConfig() LiveConfig {
	return LiveConfig{
		ModelMargin:         DefaultMargin,
		ReversionMargin:     DefaultMargin,
		EfficiencyThreshold: DefaultEfficiencyThreshold,
	}
}

// Pick is one advisory recommendation
type Pick struct {
	Tag    PickTag `json:"tag"`
	Side   Side    `json:"side"`
	Reason string  `json:"reason"`
}

// LiveSignal is the evaluation of one live game. It is advisory: nothing is settled.
type LiveSignal struct {
	GameID        string                    `json:"game_id"`
	HomeTeam      string                    `json:"home_team"`
	AwayTeam      string                    `json:"away_team"`
	CommenceTime  time.Time                 `json:"commence_time"`
	Quote         odds.Quote                `json:"quote"`
	LeagueAverage float64                   `json:"league_average"`
	Projection    *float64                  `json:"projection,omitempty"`
	Picks         []Pick                    `json:"picks"`
	Matchup       []analysis.MatchupInsight `json:"matchup"`
}

// EvaluateLiveSignals applies the model, reversion and efficiency rules to
// each game's first quoted totals line. Team aggregates are the default
// season's full TeamStats and the reversion average comes from the default
// season's matches. Games without a totals market are skipped.
func EvaluateLiveSignals(cfg LiveConfig, games []odds.LiveGame, teams store.TeamIndex, defaultMatches []store.ProcessedMatch) []LiveSignal {
	leagueAverage := LeagueAverage(defaultMatches)
	ec := evalContext{leagueAverage: leagueAverage, teams: teams}

	rules := []struct {
		tag      PickTag
		strategy Strategy
	}{
		{TagModelEdge, TeamTrends{Margin: cfg.ModelMargin}},
		{TagReversion, Reversion{Margin: cfg.ReversionMargin}},
		{TagEfficiency, HighEfficiency{Threshold: cfg.EfficiencyThreshold}},
	}

	signals := make([]LiveSignal, 0, len(games))
	for _, g := range games {
		quote, err := odds.TotalsQuote(g)
		if err != nil {
			continue
		}

		sig := LiveSignal{
			GameID:        g.ID,
			HomeTeam:      g.HomeTeam,
			AwayTeam:      g.AwayTeam,
			CommenceTime:  g.CommenceTime,
			Quote:         quote,
			LeagueAverage: leagueAverage,
			Picks:         []Pick{},
			Matchup:       []analysis.MatchupInsight{},
		}

		if p, ok := Projection(teams, g.HomeTeam, g.AwayTeam); ok {
			sig.Projection = &p
		}

		for _, rule := range rules {
			d, ok := decide(rule.strategy, quote.Line, g.HomeTeam, g.AwayTeam, ec)
			if !ok {
				continue
			}
			sig.Picks = append(sig.Picks, Pick{Tag: rule.tag, Side: d.side, Reason: d.reason})
		}

		home, okHome := teams.Lookup(g.HomeTeam)
		away, okAway := teams.Lookup(g.AwayTeam)
		if okHome && okAway {
			sig.Matchup = analysis.AnalyzeMatchup(home, away)
		}

		signals = append(signals, sig)
	}

	return signals
}
