package odds

import "errors"

// ErrNoTotalsMarket is returned when no bookmaker quotes both sides of a total
var ErrNoTotalsMarket = errors.New("no totals market")

// Quote is the totals line and prices taken from one bookmaker
type Quote struct {
	Bookmaker  string  `json:"bookmaker"`
	Line       float64 `json:"line"`
	OverPrice  float64 `json:"over_price"`
	UnderPrice float64 `json:"under_price"`
}

// TotalsQuote returns the first bookmaker, in listed order, whose totals
// market carries both an Over and an Under outcome.
func TotalsQuote(game LiveGame) (Quote, error) {
	for _, book := range game.Bookmakers {
		for _, market := range book.Markets {
			if market.Key != MarketTotals {
				continue
			}

			var over, under *Outcome
			for i := range market.Outcomes {
				switch market.Outcomes[i].Name {
				case OutcomeOver:
					over = &market.Outcomes[i]
				case OutcomeUnder:
					under = &market.Outcomes[i]
				}
			}
			if over == nil || under == nil {
				continue
			}

			return Quote{
				Bookmaker:  book.Key,
				Line:       over.Point,
				OverPrice:  over.Price,
				UnderPrice: under.Price,
			}, nil
		}
	}
	return Quote{}, ErrNoTotalsMarket
}
