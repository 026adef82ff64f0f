package odds

import "time"

// Market keys and outcome names used by the totals feed
const (
	MarketTotals = "totals"
	OutcomeOver  = "Over"
	OutcomeUnder = "Under"
)

// LiveGame is one upcoming or in-progress game with its bookmaker quotes
type LiveGame struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key,omitempty"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	CommenceTime time.Time   `json:"commence_time"`
	Bookmakers   []Bookmaker `json:"bookmakers"`
}

// Bookmaker is one book's set of markets for a game
type Bookmaker struct {
	Key        string    `json:"key"`
	Title      string    `json:"title"`
	LastUpdate time.Time `json:"last_update,omitempty"`
	Markets    []Market  `json:"markets"`
}

// Market is a single market (h2h, spreads, totals) at a bookmaker
type Market struct {
	Key      string    `json:"key"`
	Outcomes []Outcome `json:"outcomes"`
}

// Outcome is one side of a market. Point carries the line for totals.
type Outcome struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Point float64 `json:"point,omitempty"`
}
