package strategy

import (
	"errors"
	"fmt"
	"time"

	"github.com/fortuna/totals/internal/store"
)

// ErrUnknownStrategy is returned when a strategy id has no matching kind
var ErrUnknownStrategy = errors.New("unknown strategy")

// ErrInvalidRequest is returned for malformed backtest request fields
var ErrInvalidRequest = errors.New("invalid backtest request")

// Kind identifies a strategy
type Kind string

const (
	KindBlindOver      Kind = "blind_over"
	KindBlindUnder     Kind = "blind_under"
	KindReversion      Kind = "reversion"
	KindTeamTrends     Kind = "team_trends"
	KindHighEfficiency Kind = "high_efficiency"
)

// Defaults applied when a request leaves a parameter unset
const (
	DefaultWager               = 100.0
	DefaultMargin              = 5.0
	DefaultEfficiencyThreshold = 95.0

	// FallbackLeagueAverage is used when no matches are available
	FallbackLeagueAverage = 230.0
)

// Side is the side of a totals bet
type Side string

const (
	SideOver  Side = "OVER"
	SideUnder Side = "UNDER"
)

// Strategy is one of BlindOver, BlindUnder, Reversion, TeamTrends or HighEfficiency.
// Each variant carries only its own parameters.
type Strategy interface {
	Kind() Kind
	sealed()
}

// BlindOver bets the Over on every match
type BlindOver struct{}

// BlindUnder bets the Under on every match
type BlindUnder struct{}

// Reversion bets against lines more than Margin away from the league average
type Reversion struct {
	Margin float64 `json:"margin"`
}

// TeamTrends bets when the team-average projection clears the line by Margin
type TeamTrends struct {
	Margin float64 `json:"margin"`
}

// HighEfficiency bets the Over when the teams' combined average FG% exceeds Threshold
type HighEfficiency struct {
	Threshold float64 `json:"threshold"`
}

func (BlindOver) Kind() Kind      { return KindBlindOver }
func (BlindUnder) Kind() Kind     { return KindBlindUnder }
func (Reversion) Kind() Kind      { return KindReversion }
func (TeamTrends) Kind() Kind     { return KindTeamTrends }
func (HighEfficiency) Kind() Kind { return KindHighEfficiency }

func (BlindOver) sealed()      {}
func (BlindUnder) sealed()     {}
func (Reversion) sealed()      {}
func (TeamTrends) sealed()     {}
func (HighEfficiency) sealed() {}

// Params are the loosely specified numeric parameters of a strategy request
type Params struct {
	Margin    *float64 `json:"margin,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
}

// Parse builds a Strategy from its id and parameters
func Parse(id string, p Params) (Strategy, error) {
	margin := DefaultMargin
	if p.Margin != nil {
		margin = *p.Margin
	}
	threshold := DefaultEfficiencyThreshold
	if p.Threshold != nil {
		threshold = *p.Threshold
	}

	switch Kind(id) {
	case KindBlindOver:
		return BlindOver{}, nil
	case KindBlindUnder:
		return BlindUnder{}, nil
	case KindReversion:
		return Reversion{Margin: margin}, nil
	case KindTeamTrends:
		return TeamTrends{Margin: margin}, nil
	case KindHighEfficiency:
		return HighEfficiency{Threshold: threshold}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, id)
}

// Config is one backtest evaluation's configuration
type Config struct {
	Strategy Strategy
	Wager    float64
	Team     string    // empty means every team
	From     time.Time // zero means unbounded
	To       time.Time // zero means unbounded, inclusive otherwise
}

// Request is the wire form of a backtest configuration
type Request struct {
	Strategy  string   `json:"strategy"`
	Wager     float64  `json:"wager,omitempty"`
	Margin    *float64 `json:"margin,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
	Team      string   `json:"team,omitempty"`
	From      string   `json:"from,omitempty"` // YYYY-MM-DD
	To        string   `json:"to,omitempty"`
	Season    string   `json:"season,omitempty"`
}

// Config validates the request and converts it to a Config
func (r Request) Config() (Config, error) {
	s, err := Parse(r.Strategy, Params{Margin: r.Margin, Threshold: r.Threshold})
	if err != nil {
		return Config{}, err
	}

	cfg := Config{Strategy: s, Wager: r.Wager, Team: r.Team}
	if cfg.Wager <= 0 {
		cfg.Wager = DefaultWager
	}

	if r.From != "" {
		if cfg.From, err = time.Parse(time.DateOnly, r.From); err != nil {
			return Config{}, fmt.Errorf("%w: from date %q: %v", ErrInvalidRequest, r.From, err)
		}
	}
	if r.To != "" {
		if cfg.To, err = time.Parse(time.DateOnly, r.To); err != nil {
			return Config{}, fmt.Errorf("%w: to date %q: %v", ErrInvalidRequest, r.To, err)
		}
	}
	if !cfg.From.IsZero() && !cfg.To.IsZero() && cfg.To.Before(cfg.From) {
		return Config{}, fmt.Errorf("%w: date range ends (%s) before it starts (%s)", ErrInvalidRequest, r.To, r.From)
	}

	return cfg, nil
}

// decision is a strategy's verdict on one match
type decision struct {
	side   Side
	reason string
}

// evalContext is everything a strategy may consult besides the line and teams
type evalContext struct {
	leagueAverage float64
	teams         store.TeamIndex
}

// decide evaluates s against a line and the two teams; ok is false for no bet.
func decide(s Strategy, line float64, home, away string, ec evalContext) (decision, bool) {
	switch s := s.(type) {
	case BlindOver:
		return decision{side: SideOver, reason: "Blind Over"}, true

	case BlindUnder:
		return decision{side: SideUnder, reason: "Blind Under"}, true

	case Reversion:
		return reversionPick(line, ec.leagueAverage, s.Margin)

	case TeamTrends:
		projection, ok := Projection(ec.teams, home, away)
		if !ok {
			return decision{}, false
		}
		return modelPick(projection, line, s.Margin)

	case HighEfficiency:
		combined, ok := CombinedFGPct(ec.teams, home, away)
		if !ok {
			return decision{}, false
		}
		return efficiencyPick(combined, s.Threshold)
	}
	return decision{}, false
}

func reversionPick(line, average, margin float64) (decision, bool) {
	switch {
	case line > average+margin:
		return decision{
			side:   SideUnder,
			reason: fmt.Sprintf("Line %.1f > League Avg %.1f + %.1f", line, average, margin),
		}, true
	case line < average-margin:
		return decision{
			side:   SideOver,
			reason: fmt.Sprintf("Line %.1f < League Avg %.1f - %.1f", line, average, margin),
		}, true
	}
	return decision{}, false
}

func modelPick(projection, line, margin float64) (decision, bool) {
	switch {
	case projection > line+margin:
		return decision{
			side:   SideOver,
			reason: fmt.Sprintf("Model Proj %.1f > Line %.1f", projection, line),
		}, true
	case projection < line-margin:
		return decision{
			side:   SideUnder,
			reason: fmt.Sprintf("Model Proj %.1f < Line %.1f", projection, line),
		}, true
	}
	return decision{}, false
}

func efficiencyPick(combined, threshold float64) (decision, bool) {
	if combined > threshold {
		return decision{
			side:   SideOver,
			reason: fmt.Sprintf("Combined FG%% %.1f > %.1f", combined, threshold),
		}, true
	}
	return decision{}, false
}

// Projection is the team-trends projected total:
// ((homeFor + homeAgainst) + (awayFor + awayAgainst)) / 4 * 2
func Projection(teams store.TeamIndex, home, away string) (float64, bool) {
	h, ok := teams.Lookup(home)
	if !ok {
		return 0, false
	}
	a, ok := teams.Lookup(away)
	if !ok {
		return 0, false
	}
	return ((h.AvgPointsFor + h.AvgPointsAgainst) + (a.AvgPointsFor + a.AvgPointsAgainst)) / 4 * 2, true
}

// CombinedFGPct sums both teams' average FG%
func CombinedFGPct(teams store.TeamIndex, home, away string) (float64, bool) {
	h, ok := teams.Lookup(home)
	if !ok {
		return 0, false
	}
	a, ok := teams.Lookup(away)
	if !ok {
		return 0, false
	}
	return h.AvgFGPct + a.AvgFGPct, true
}

// LeagueAverage is the mean combined total, or FallbackLeagueAverage without matches
func LeagueAverage(matches []store.ProcessedMatch) float64 {
	if len(matches) == 0 {
		return FallbackLeagueAverage
	}
	var sum float64
	for _, m := range matches {
		sum += float64(m.TotalScore)
	}
	return sum / float64(len(matches))
}
