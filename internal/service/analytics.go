package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/fortuna/totals/internal/analysis"
	"github.com/fortuna/totals/internal/ingest/odds"
	"github.com/fortuna/totals/internal/reconciliation"
	"github.com/fortuna/totals/internal/store"
	"github.com/fortuna/totals/internal/strategy"
	"github.com/fortuna/totals/internal/summary"
)

var (
	ErrMatchNotFound = errors.New("match not found")
	ErrTeamNotFound  = errors.New("team not found")
)

// EventPublisher receives completed backtests and live evaluations
type EventPublisher interface {
	PublishBacktest(ctx context.Context, result interface{}) error
	PublishLiveSignals(ctx context.Context, signals interface{}) error
}

// AnalyticsService answers every read and evaluation over the season snapshots
type AnalyticsService struct {
	seasons    *SeasonService
	live       strategy.LiveConfig
	summarizer summary.Summarizer
	events     EventPublisher
	logger     *log.Logger
}

// Options are the optional collaborators of an AnalyticsService
type Options struct {
	Live       strategy.LiveConfig
	Summarizer summary.Summarizer
	Events     EventPublisher
	Logger     *log.Logger
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(seasons *SeasonService, opts Options) *AnalyticsService {
	if opts.Logger == nil {
		opts.Logger = log.New(log.Writer(), "[analytics] ", log.LstdFlags)
	}
	if opts.Live == (strategy.LiveConfig{}) {
		opts.Live = strategy.DefaultLiveConfig()
	}
	return &AnalyticsService{
		seasons:    seasons,
		live:       opts.Live,
		summarizer: opts.Summarizer,
		events:     opts.Events,
		logger:     opts.Logger,
	}
}

// Seasons exposes the underlying season service
func (s *AnalyticsService) Seasons() *SeasonService {
	return s.seasons
}

// MatchupReport is the matchup view of two teams
type MatchupReport struct {
	Home       *store.TeamStats          `json:"home"`
	Away       *store.TeamStats          `json:"away"`
	Projection *float64                  `json:"projection,omitempty"`
	Insights   []analysis.MatchupInsight `json:"insights"`
}

// Backtest runs a strategy over the requested season (the active one by
// default). Team aggregates come from the filtered backtest matches only.
func (s *AnalyticsService) Backtest(ctx context.Context, req strategy.Request) (strategy.BacktestResult, error) {
	cfg, err := req.Config()
	if err != nil {
		return strategy.BacktestResult{}, err
	}

	snap, err := s.seasons.Snapshot(ctx, req.Season)
	if err != nil {
		return strategy.BacktestResult{}, err
	}

	filtered := strategy.Filter(cfg, snap.Matches)
	result := strategy.RunBacktest(cfg, filtered, strategy.BacktestTeams(filtered))
	result.RunID = uuid.NewString()
	result.Season = snap.Season

	s.logger.Printf("✓ Backtest %s (%s on %s): %d bets, profit %s, ROI %s%%",
		result.RunID, result.Strategy, result.Season, result.BetsPlaced, result.Profit.StringFixed(2), result.ROI.StringFixed(2))

	if s.events != nil {
		if err := s.events.PublishBacktest(ctx, result); err != nil {
			s.logger.Printf("⚠️  Failed to publish backtest %s: %v", result.RunID, err)
		}
	}
	return result, nil
}

// LiveSignals evaluates live games against the default season. Feed team
// names are first reconciled to the dataset's names.
func (s *AnalyticsService) LiveSignals(ctx context.Context, games []odds.LiveGame) ([]strategy.LiveSignal, error) {
	def, err := s.seasons.Default()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(def.Teams))
	for _, t := range def.Teams {
		names = append(names, t.Team)
	}
	games = reconciliation.NewMatcher(names).ReconcileGames(games)

	return strategy.EvaluateLiveSignals(s.live, games, def.TeamIndex, def.Matches), nil
}

// PublishLiveSignals forwards an evaluation to the event stream when configured
func (s *AnalyticsService) PublishLiveSignals(ctx context.Context, signals []strategy.LiveSignal) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishLiveSignals(ctx, signals); err != nil {
		s.logger.Printf("⚠️  Failed to publish live signals: %v", err)
	}
}

// Matches returns the active season's matches, optionally for one team
func (s *AnalyticsService) Matches(team string) ([]store.ProcessedMatch, error) {
	snap, err := s.seasons.Active()
	if err != nil {
		return nil, err
	}
	if team == "" {
		return snap.Matches, nil
	}

	matches := []store.ProcessedMatch{}
	for _, m := range snap.Matches {
		if m.Involves(team) {
			matches = append(matches, m)
		}
	}
	return matches, nil
}

// MatchInsights computes rolling insights for one match of the active season
func (s *AnalyticsService) MatchInsights(matchID string) (analysis.MatchInsights, error) {
	snap, err := s.seasons.Active()
	if err != nil {
		return analysis.MatchInsights{}, err
	}
	m, ok := snap.Match(matchID)
	if !ok {
		return analysis.MatchInsights{}, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	return analysis.GenerateMatchInsights(m, snap.Matches), nil
}

// MatchSummary describes a match in prose, falling back to a template
func (s *AnalyticsService) MatchSummary(ctx context.Context, matchID string) (summary.Result, error) {
	snap, err := s.seasons.Active()
	if err != nil {
		return summary.Result{}, err
	}
	m, ok := snap.Match(matchID)
	if !ok {
		return summary.Result{}, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}

	var home, away *store.TeamStats
	if t, ok := snap.TeamIndex.Lookup(m.HomeTeam); ok {
		home = &t
	}
	if t, ok := snap.TeamIndex.Lookup(m.AwayTeam); ok {
		away = &t
	}
	return summary.Describe(ctx, s.summarizer, m, home, away, analysis.GenerateMatchInsights(m, snap.Matches)), nil
}

// Teams returns every team aggregate of the active season
func (s *AnalyticsService) Teams() ([]store.TeamStats, error) {
	snap, err := s.seasons.Active()
	if err != nil {
		return nil, err
	}
	return snap.Teams, nil
}

// Team returns one team's aggregate from the active season
func (s *AnalyticsService) Team(name string) (store.TeamStats, error) {
	snap, err := s.seasons.Active()
	if err != nil {
		return store.TeamStats{}, err
	}
	t, ok := snap.TeamIndex.Lookup(name)
	if !ok {
		return store.TeamStats{}, fmt.Errorf("%w: %s", ErrTeamNotFound, name)
	}
	return t, nil
}

// Matchup analyzes two teams of the active season. Unknown teams produce an
// empty report rather than an error.
func (s *AnalyticsService) Matchup(home, away string) (MatchupReport, error) {
	snap, err := s.seasons.Active()
	if err != nil {
		return MatchupReport{}, err
	}

	report := MatchupReport{Insights: []analysis.MatchupInsight{}}
	h, okHome := snap.TeamIndex.Lookup(home)
	a, okAway := snap.TeamIndex.Lookup(away)
	if okHome {
		report.Home = &h
	}
	if okAway {
		report.Away = &a
	}
	if okHome && okAway {
		report.Insights = analysis.AnalyzeMatchup(h, a)
		if p, ok := strategy.Projection(snap.TeamIndex, home, away); ok {
			report.Projection = &p
		}
	}
	return report, nil
}

// MarketInsights ranks the active season's teams against the market
func (s *AnalyticsService) MarketInsights() (analysis.MarketInsights, error) {
	snap, err := s.seasons.Active()
	if err != nil {
		return analysis.MarketInsights{}, err
	}
	return analysis.CalculateMarketInsights(snap.Matches), nil
}
