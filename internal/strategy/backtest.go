package strategy

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fortuna/totals/internal/stats"
	"github.com/fortuna/totals/internal/store"
)

// Outcome is a settled bet's result
type Outcome string

const (
	OutcomeWin  Outcome = "WIN"
	OutcomeLoss Outcome = "LOSS"
	OutcomePush Outcome = "PUSH"
)

// BetRecord is one audit log entry for a placed bet
type BetRecord struct {
	MatchID  string          `json:"match_id"`
	Date     time.Time       `json:"date"`
	HomeTeam string          `json:"home_team"`
	AwayTeam string          `json:"away_team"`
	Total    int             `json:"total"`
	Line     float64         `json:"line"`
	Side     Side            `json:"side"`
	Odds     float64         `json:"odds"`
	Outcome  Outcome         `json:"outcome"`
	Profit   decimal.Decimal `json:"profit"`
	Reason   string          `json:"reason"`
}

// ConfigEcho is the configuration a result was produced with
type ConfigEcho struct {
	Strategy Strategy `json:"params"`
	Wager    float64  `json:"wager"`
	Team     string   `json:"team,omitempty"`
	From     string   `json:"from,omitempty"`
	To       string   `json:"to,omitempty"`
}

// BacktestResult is the outcome of replaying one strategy over a match set
type BacktestResult struct {
	RunID            string          `json:"run_id,omitempty"`
	Season           string          `json:"season,omitempty"`
	Strategy         Kind            `json:"strategy"`
	Config           ConfigEcho      `json:"config"`
	MatchesEvaluated int             `json:"matches_evaluated"`
	Wins             int             `json:"wins"`
	Losses           int             `json:"losses"`
	Pushes           int             `json:"pushes"`
	BetsPlaced       int             `json:"bets_placed"`
	Profit           decimal.Decimal `json:"profit"`
	ROI              decimal.Decimal `json:"roi"`
	LeagueAverage    float64         `json:"league_average"`
	Log              []BetRecord     `json:"log"`
}

// Filter keeps matches involving cfg.Team (when set) inside the inclusive
// date range, most recent first.
func Filter(cfg Config, matches []store.ProcessedMatch) []store.ProcessedMatch {
	filtered := make([]store.ProcessedMatch, 0, len(matches))
	for _, m := range matches {
		if cfg.Team != "" && !m.Involves(cfg.Team) {
			continue
		}
		if !cfg.From.IsZero() && m.Date.Before(cfg.From) {
			continue
		}
		if !cfg.To.IsZero() && m.Date.After(cfg.To) {
			continue
		}
		filtered = append(filtered, m)
	}

	stats.SortByDateDesc(filtered)
	return filtered
}

// BacktestTeams aggregates team averages from the filtered backtest dataset
// only. This is the team input for backtests; live evaluation uses the
// default season's full TeamStats instead.
func BacktestTeams(filtered []store.ProcessedMatch) store.TeamIndex {
	return store.NewTeamIndex(stats.AggregateFromMatches(filtered))
}

// RunBacktest replays cfg.Strategy over matches and settles every placed bet.
// The same config, matches and teams always yield the same result and log order.
func RunBacktest(cfg Config, matches []store.ProcessedMatch, teams store.TeamIndex) BacktestResult {
	filtered := Filter(cfg, matches)
	ec := evalContext{
		leagueAverage: LeagueAverage(filtered),
		teams:         teams,
	}

	result := BacktestResult{
		Config:           echo(cfg),
		MatchesEvaluated: len(filtered),
		Profit:           decimal.Zero,
		ROI:              decimal.Zero,
		LeagueAverage:    ec.leagueAverage,
		Log:              []BetRecord{},
	}
	if cfg.Strategy == nil {
		return result
	}
	result.Strategy = cfg.Strategy.Kind()

	wager := decimal.NewFromFloat(cfg.Wager)
	for _, m := range filtered {
		d, ok := decide(cfg.Strategy, m.Line, m.HomeTeam, m.AwayTeam, ec)
		if !ok {
			continue
		}

		rec := settle(m, d, wager)
		result.BetsPlaced++
		switch rec.Outcome {
		case OutcomeWin:
			result.Wins++
		case OutcomeLoss:
			result.Losses++
		case OutcomePush:
			result.Pushes++
		}
		result.Profit = result.Profit.Add(rec.Profit)
		result.Log = append(result.Log, rec)
	}

	if result.BetsPlaced > 0 && wager.IsPositive() {
		staked := wager.Mul(decimal.NewFromInt(int64(result.BetsPlaced)))
		result.ROI = result.Profit.Div(staked).Mul(decimal.NewFromInt(100))
	}

	return result
}

// settle grades one bet: a win pays wager*(odds-1), a loss costs the wager, a push refunds it
func settle(m store.ProcessedMatch, d decision, wager decimal.Decimal) BetRecord {
	odds := m.OverOdds
	if d.side == SideUnder {
		odds = m.UnderOdds
	}

	rec := BetRecord{
		MatchID:  m.ID,
		Date:     m.Date,
		HomeTeam: m.HomeTeam,
		AwayTeam: m.AwayTeam,
		Total:    m.TotalScore,
		Line:     m.Line,
		Side:     d.side,
		Odds:     odds,
		Reason:   d.reason,
	}

	total := float64(m.TotalScore)
	won := (d.side == SideOver && total > m.Line) || (d.side == SideUnder && total < m.Line)
	switch {
	case total == m.Line:
		rec.Outcome = OutcomePush
		rec.Profit = decimal.Zero
	case won:
		rec.Outcome = OutcomeWin
		rec.Profit = wager.Mul(decimal.NewFromFloat(odds).Sub(decimal.NewFromInt(1)))
	default:
		rec.Outcome = OutcomeLoss
		rec.Profit = wager.Neg()
	}
	return rec
}

func echo(cfg Config) ConfigEcho {
	e := ConfigEcho{Strategy: cfg.Strategy, Wager: cfg.Wager, Team: cfg.Team}
	if !cfg.From.IsZero() {
		e.From = cfg.From.Format(time.DateOnly)
	}
	if !cfg.To.IsZero() {
		e.To = cfg.To.Format(time.DateOnly)
	}
	return e
}
