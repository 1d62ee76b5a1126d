package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Vodeneev/goalscout/internal/pkg/config"
	"github.com/Vodeneev/goalscout/internal/pkg/models"
)

// OddsAPI fetches bookmaker quotes from the-odds-api.com (v4).
type OddsAPI struct {
	baseURL    string
	apiKey     string
	regions    string
	markets    string
	httpClient *http.Client
}

// NewOddsAPI creates a client from config.
func NewOddsAPI(cfg *config.OddsAPIConfig) *OddsAPI {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &OddsAPI{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		regions: cfg.Regions,
		markets: cfg.Markets,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Configured reports whether an API key is set.
func (c *OddsAPI) Configured() bool {
	return c != nil && c.apiKey != ""
}

type oddsEvent struct {
	ID           string             `json:"id"`
	SportKey     string             `json:"sport_key"`
	CommenceTime string             `json:"commence_time"`
	HomeTeam     string             `json:"home_team"`
	AwayTeam     string             `json:"away_team"`
	Bookmakers   []models.Bookmaker `json:"bookmakers"`
}

// BookmakerOdds returns the bookmakers quoting the first soccer event whose team
// names contain home and away (case-insensitive). No matching event yields nil.
func (c *OddsAPI) BookmakerOdds(ctx context.Context, home, away string) ([]models.Bookmaker, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	u, err := url.Parse(c.baseURL + "/sports/soccer/odds/")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	q := url.Values{}
	q.Set("apiKey", c.apiKey)
	q.Set("regions", c.regions)
	q.Set("markets", c.markets)
	u.RawQuery = q.Encode()

	body, err := doGet(ctx, c.httpClient, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("odds-api: %w", err)
	}

	var events []oddsEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("odds-api: failed to decode response: %w", err)
	}

	for _, ev := range events {
		if containsFold(ev.HomeTeam, home) && containsFold(ev.AwayTeam, away) {
			return ev.Bookmakers, nil
		}
	}
	return nil, nil
}

// containsFold reports whether s contains substr ignoring case and repeated whitespace.
func containsFold(s, substr string) bool {
	s = strings.Join(strings.Fields(strings.ToLower(s)), " ")
	substr = strings.Join(strings.Fields(strings.ToLower(substr)), " ")
	if substr == "" {
		return false
	}
	return strings.Contains(s, substr)
}
