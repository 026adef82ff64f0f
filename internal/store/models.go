package store

import (
	"bytes"
	"encoding/json"
	"time"
)

// Period labels used by the season datasets
const (
	PeriodQ1 = "Q1"
	PeriodQ2 = "Q2"
	PeriodQ3 = "Q3"
	PeriodQ4 = "Q4"
	PeriodOT = "OT"
)

// RegulationPeriods lists the four regulation quarters in order
var RegulationPeriods = [4]string{PeriodQ1, PeriodQ2, PeriodQ3, PeriodQ4}

// FlexString holds a numeric-but-loosely-typed dataset value.
// It accepts JSON strings and JSON numbers; null or absent stays empty.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}

	// Numbers and booleans are kept verbatim
	*f = FlexString(data)
	return nil
}

// String returns the raw value
func (f FlexString) String() string {
	return string(f)
}

// PeriodScore is one team pair's score for a single period
type PeriodScore struct {
	Home FlexString `json:"home"`
	Away FlexString `json:"away"`
}

// BoxLine is one team's box-score line for a single period.
// Older records omit steals/blocks/turnovers/fouls.
type BoxLine struct {
	FieldGoalsMade         FlexString `json:"field_goals_made,omitempty"`
	FieldGoalsAttempted    FlexString `json:"field_goals_attempted,omitempty"`
	ThreePointersMade      FlexString `json:"three_pointers_made,omitempty"`
	ThreePointersAttempted FlexString `json:"three_pointers_attempted,omitempty"`
	ThreePointPct          FlexString `json:"three_point_pct,omitempty"`
	FreeThrowsMade         FlexString `json:"free_throws_made,omitempty"`
	FreeThrowsAttempted    FlexString `json:"free_throws_attempted,omitempty"`
	OffensiveRebounds      FlexString `json:"offensive_rebounds,omitempty"`
	TotalRebounds          FlexString `json:"total_rebounds,omitempty"`
	Turnovers              FlexString `json:"turnovers,omitempty"`
	PersonalFouls          FlexString `json:"personal_fouls,omitempty"`
	Steals                 FlexString `json:"steals,omitempty"`
	Blocks                 FlexString `json:"blocks,omitempty"`
}

// PeriodStats pairs both teams' box-score lines for one period
type PeriodStats struct {
	Home *BoxLine `json:"home,omitempty"`
	Away *BoxLine `json:"away,omitempty"`
}

// MarketOdds is the totals market captured when the match was scraped
type MarketOdds struct {
	TotalLine FlexString `json:"total_line"`
	OverOdds  FlexString `json:"over_odds,omitempty"`
	UnderOdds FlexString `json:"under_odds,omitempty"`
}

// RawMatch is one completed game exactly as it appears in a season file
type RawMatch struct {
	MatchID       string                 `json:"match_id"`
	Date          string                 `json:"date"` // DD.MM.YYYY
	HomeTeam      string                 `json:"home_team"`
	AwayTeam      string                 `json:"away_team"`
	HomeScore     FlexString             `json:"home_score"`
	AwayScore     FlexString             `json:"away_score"`
	QuarterScores map[string]PeriodScore `json:"quarter_scores,omitempty"`
	QuarterStats  map[string]PeriodStats `json:"quarter_stats,omitempty"`
	Odds          MarketOdds             `json:"odds"`
}

// Result is the settled outcome of a totals market
type Result string

const (
	ResultOver  Result = "OVER"
	ResultUnder Result = "UNDER"
	ResultPush  Result = "PUSH"
)

// ProcessedMatch is the canonical derived record for one RawMatch
type ProcessedMatch struct {
	ID              string    `json:"id"`
	Date            time.Time `json:"date"`
	HomeTeam        string    `json:"home_team"`
	AwayTeam        string    `json:"away_team"`
	HomeScore       int       `json:"home_score"`
	AwayScore       int       `json:"away_score"`
	TotalScore      int       `json:"total_score"`
	RegulationTotal int       `json:"regulation_total"`
	OvertimeTotal   int       `json:"overtime_total"`
	Line            float64   `json:"line"`
	OverOdds        float64   `json:"over_odds"`
	UnderOdds       float64   `json:"under_odds"`
	Result          Result    `json:"result"`
	Deviation       float64   `json:"deviation"`
	Pace            float64   `json:"pace"`
	HomeTSPct       float64   `json:"home_ts_pct"`
	AwayTSPct       float64   `json:"away_ts_pct"`
	HomeFGPct       float64   `json:"home_fg_pct"`
	AwayFGPct       float64   `json:"away_fg_pct"`
	QuarterTotals   [4]int    `json:"quarter_totals"`
	HomeQuarters    [4]int    `json:"home_quarters"`
	AwayQuarters    [4]int    `json:"away_quarters"`
	PeriodsRecorded int       `json:"periods_recorded"`
	HasOvertime     bool      `json:"has_overtime"`
}

// Involves reports whether team played in the match
func (m ProcessedMatch) Involves(team string) bool {
	return m.HomeTeam == team || m.AwayTeam == team
}

// TeamStats is one team's season averages over a match set
type TeamStats struct {
	Team             string  `json:"team"`
	GamesPlayed      int     `json:"games_played"`
	AvgPointsFor     float64 `json:"avg_points_for"`
	AvgPointsAgainst float64 `json:"avg_points_against"`
	AvgPace          float64 `json:"avg_pace"`
	AvgTSPct         float64 `json:"avg_ts_pct"`
	OverRate         float64 `json:"over_rate"`
	AvgFGPct         float64 `json:"avg_fg_pct"`
	Avg3PPct         float64 `json:"avg_3p_pct"`
	AvgFouls         float64 `json:"avg_fouls"`
	AvgFTM           float64 `json:"avg_ftm"`
	AvgFTA           float64 `json:"avg_fta"`
	AvgFGA           float64 `json:"avg_fga"`
	AvgTurnovers     float64 `json:"avg_turnovers"`
	AvgRebounds      float64 `json:"avg_rebounds"`
}

// TeamIndex maps team name to its aggregate
type TeamIndex map[string]TeamStats

// NewTeamIndex indexes a slice of aggregates by team name
func NewTeamIndex(teams []TeamStats) TeamIndex {
	idx := make(TeamIndex, len(teams))
	for _, t := range teams {
		idx[t.Team] = t
	}
	return idx
}

// Lookup returns a team's aggregate when it has at least one game
func (idx TeamIndex) Lookup(team string) (TeamStats, bool) {
	t, ok := idx[team]
	if !ok || t.GamesPlayed == 0 {
		return TeamStats{}, false
	}
	return t, true
}
