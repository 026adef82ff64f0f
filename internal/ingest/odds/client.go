package odds

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

const (
	BaseURL       = "https://api.the-odds-api.com/v4"
	BasketballNBA = "basketball_nba"
)

// Client fetches live totals from an Odds API v4 compatible endpoint
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates an odds client with a custom base URL
func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = BaseURL
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// NewClient creates an odds client against the public API
func NewClient(apiKey string) *Client {
	return New(BaseURL, apiKey)
}

// FetchTotals fetches every NBA game with its totals market in decimal odds
func (c *Client) FetchTotals(ctx context.Context) ([]LiveGame, error) {
	params := url.Values{}
	params.Set("regions", "us")
	params.Set("markets", MarketTotals)
	params.Set("oddsFormat", "decimal")
	params.Set("apiKey", c.apiKey)

	endpoint := fmt.Sprintf("%s/sports/%s/odds?%s", c.baseURL, BasketballNBA, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch odds: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("odds API returned %d: %s", resp.StatusCode, string(body))
	}

	var games []LiveGame
	if err := json.NewDecoder(resp.Body).Decode(&games); err != nil {
		return nil, fmt.Errorf("decode odds response: %w", err)
	}

	if remaining := resp.Header.Get("x-requests-remaining"); remaining != "" {
		log.Printf("[odds-client] ✓ %d games fetched (%s requests remaining)", len(games), remaining)
	}

	return games, nil
}
