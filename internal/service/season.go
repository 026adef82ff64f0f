package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fortuna/totals/internal/dataset"
	"github.com/fortuna/totals/internal/stats"
	"github.com/fortuna/totals/internal/store"
)

// ErrSeasonNotLoaded is returned before any season snapshot exists
var ErrSeasonNotLoaded = errors.New("season not loaded")

// Snapshot is an immutable, fully derived view of one season
type Snapshot struct {
	Season    string
	Raw       []store.RawMatch
	Matches   []store.ProcessedMatch
	Teams     []store.TeamStats
	TeamIndex store.TeamIndex
	LoadedAt  time.Time
}

// BuildSnapshot derives processed matches and team aggregates from raw records
func BuildSnapshot(season string, raw []store.RawMatch) *Snapshot {
	matches := stats.ProcessMatches(raw)
	teams := stats.AggregateTeamStats(matches, raw)
	return &Snapshot{
		Season:    season,
		Raw:       raw,
		Matches:   matches,
		Teams:     teams,
		TeamIndex: store.NewTeamIndex(teams),
		LoadedAt:  time.Now(),
	}
}

// Match finds a processed match by ID
func (s *Snapshot) Match(id string) (store.ProcessedMatch, bool) {
	for _, m := range s.Matches {
		if m.ID == id {
			return m, true
		}
	}
	return store.ProcessedMatch{}, false
}

// SeasonService owns the default and active season snapshots. The default
// season feeds live evaluation; the active season feeds backtests and the
// historical views. Snapshots are replaced, never mutated.
type SeasonService struct {
	source        dataset.Source
	defaultSeason string
	logger        *log.Logger

	def    atomic.Pointer[Snapshot]
	active atomic.Pointer[Snapshot]

	mu        sync.Mutex
	requested uint64
	applied   uint64
}

// NewSeasonService creates a season service; logger may be nil
func NewSeasonService(source dataset.Source, defaultSeason string, logger *log.Logger) *SeasonService {
	if logger == nil {
		logger = log.New(log.Writer(), "[season] ", log.LstdFlags)
	}
	return &SeasonService{
		source:        source,
		defaultSeason: defaultSeason,
		logger:        logger,
	}
}

// DefaultSeason returns the configured default season name
func (s *SeasonService) DefaultSeason() string {
	return s.defaultSeason
}

// LoadDefault loads the default season and makes it active as well.
// On failure both snapshots are empty and the error is returned.
func (s *SeasonService) LoadDefault(ctx context.Context) error {
	gen := s.nextGeneration()
	snap, err := s.build(ctx, s.defaultSeason)
	s.def.Store(snap)
	s.install(gen, snap, err)
	return err
}

// ReloadDefault rebuilds the default snapshot, for example after the
// default season was re-imported. The active snapshot is replaced only when
// it is the default season and no switch is in flight. On failure the
// existing snapshots are kept.
func (s *SeasonService) ReloadDefault(ctx context.Context) error {
	snap, err := s.build(ctx, s.defaultSeason)
	if err != nil {
		return err
	}
	s.def.Store(snap)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.requested != s.applied {
		return nil
	}
	if active := s.active.Load(); active == nil || active.Season == s.defaultSeason {
		s.active.Store(snap)
	}
	s.logger.Printf("✓ Reloaded default season %s: %d matches", snap.Season, len(snap.Matches))
	return nil
}

// Switch recomputes the active snapshot for season. When calls overlap, the
// most recently requested season wins and older results are discarded.
// A load failure installs an empty snapshot and returns the error.
func (s *SeasonService) Switch(ctx context.Context, season string) (*Snapshot, error) {
	gen := s.nextGeneration()
	snap, err := s.build(ctx, season)
	s.install(gen, snap, err)
	return snap, err
}

func (s *SeasonService) nextGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requested++
	return s.requested
}

// install makes snap active unless a later request has already been applied
func (s *SeasonService) install(gen uint64, snap *Snapshot, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen < s.applied {
		s.logger.Printf("⊘ Discarding superseded load of %s", snap.Season)
		return
	}
	s.applied = gen
	s.active.Store(snap)
	if err == nil {
		s.logger.Printf("✓ Active season %s: %d matches, %d teams", snap.Season, len(snap.Matches), len(snap.Teams))
	}
}

// Snapshot returns a snapshot for season without changing any state,
// reusing the default or active one when it matches.
func (s *SeasonService) Snapshot(ctx context.Context, season string) (*Snapshot, error) {
	if season == "" {
		return s.Active()
	}
	for _, snap := range []*Snapshot{s.active.Load(), s.def.Load()} {
		if snap != nil && snap.Season == season {
			return snap, nil
		}
	}
	return s.build(ctx, season)
}

// Default returns the default season snapshot
func (s *SeasonService) Default() (*Snapshot, error) {
	if snap := s.def.Load(); snap != nil {
		return snap, nil
	}
	return nil, ErrSeasonNotLoaded
}

// Active returns the snapshot backing backtests and historical views
func (s *SeasonService) Active() (*Snapshot, error) {
	if snap := s.active.Load(); snap != nil {
		return snap, nil
	}
	return nil, ErrSeasonNotLoaded
}

// Seasons lists the seasons the dataset source offers
func (s *SeasonService) Seasons(ctx context.Context) ([]string, error) {
	return s.source.Seasons(ctx)
}

func (s *SeasonService) build(ctx context.Context, season string) (*Snapshot, error) {
	raw, err := s.source.Load(ctx, season)
	if err != nil {
		s.logger.Printf("⚠️  Failed to load season %s: %v", season, err)
		return BuildSnapshot(season, nil), fmt.Errorf("loading season %s: %w", season, err)
	}
	return BuildSnapshot(season, raw), nil
}
