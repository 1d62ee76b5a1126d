package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Vodeneev/goalscout/internal/pkg/config"
	"github.com/Vodeneev/goalscout/internal/pkg/models"
)

// Source is the football match feed consumed by the analyzer.
type Source interface {
	Competitions(ctx context.Context) ([]models.Competition, error)
	UpcomingFixtures(ctx context.Context, competitionID int, from, to time.Time) ([]models.Fixture, error)
	Standings(ctx context.Context, competitionID int) ([]models.Standing, error)
	RecentMatches(ctx context.Context, teamID, limit int) ([]models.MatchResult, error)
}

// FootballData fetches competitions, fixtures, standings and results from football-data.org (v4).
type FootballData struct {
	baseURL    string
	apiKey     string
	allowList  map[string]bool
	httpClient *http.Client
}

var _ Source = (*FootballData)(nil)

// NewFootballData creates a client from config.
func NewFootballData(cfg *config.FootballDataConfig) *FootballData {
	allow := make(map[string]bool, len(cfg.Competitions))
	for _, name := range cfg.Competitions {
		allow[name] = true
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &FootballData{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		allowList: allow,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type fdTeam struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type fdGoals struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

type fdMatch struct {
	ID       int    `json:"id"`
	UTCDate  string `json:"utcDate"`
	Status   string `json:"status"`
	HomeTeam fdTeam `json:"homeTeam"`
	AwayTeam fdTeam `json:"awayTeam"`
	Score    struct {
		FullTime fdGoals `json:"fullTime"`
		HalfTime fdGoals `json:"halfTime"`
	} `json:"score"`
}

type matchesResponse struct {
	Matches []fdMatch `json:"matches"`
}

type competitionsResponse struct {
	Competitions []struct {
		ID            int             `json:"id"`
		Name          string          `json:"name"`
		Code          string          `json:"code"`
		CurrentSeason json.RawMessage `json:"currentSeason"`
	} `json:"competitions"`
}

type standingsResponse struct {
	Standings []struct {
		Type  string `json:"type"`
		Table []struct {
			Position     int    `json:"position"`
			Team         fdTeam `json:"team"`
			PlayedGames  int    `json:"playedGames"`
			Points       int    `json:"points"`
			GoalsFor     int    `json:"goalsFor"`
			GoalsAgainst int    `json:"goalsAgainst"`
		} `json:"table"`
	} `json:"standings"`
}

// Competitions returns allow-listed competitions with a running season, in feed order.
func (c *FootballData) Competitions(ctx context.Context) ([]models.Competition, error) {
	var resp competitionsResponse
	if err := c.get(ctx, "competitions", nil, &resp); err != nil {
		return nil, err
	}

	var out []models.Competition
	for _, comp := range resp.Competitions {
		if !c.allowList[comp.Name] {
			continue
		}
		if len(comp.CurrentSeason) == 0 || string(comp.CurrentSeason) == "null" {
			continue
		}
		out = append(out, models.Competition{ID: comp.ID, Name: comp.Name, Code: comp.Code})
	}
	return out, nil
}

// UpcomingFixtures returns the competition's matches between from and to (dates, inclusive).
func (c *FootballData) UpcomingFixtures(ctx context.Context, competitionID int, from, to time.Time) ([]models.Fixture, error) {
	q := url.Values{}
	q.Set("dateFrom", from.Format("2006-01-02"))
	q.Set("dateTo", to.Format("2006-01-02"))

	var resp matchesResponse
	if err := c.get(ctx, fmt.Sprintf("competitions/%d/matches", competitionID), q, &resp); err != nil {
		return nil, err
	}

	out := make([]models.Fixture, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		out = append(out, models.Fixture{
			ID:           m.ID,
			HomeTeamID:   m.HomeTeam.ID,
			HomeTeamName: m.HomeTeam.Name,
			AwayTeamID:   m.AwayTeam.ID,
			AwayTeamName: m.AwayTeam.Name,
			Status:       m.Status,
			UTCKickoff:   parseUTC(m.UTCDate),
		})
	}
	return out, nil
}

// Standings returns the competition table. When the feed reports TOTAL tables
// only those are returned; home/away splits are skipped.
func (c *FootballData) Standings(ctx context.Context, competitionID int) ([]models.Standing, error) {
	var resp standingsResponse
	if err := c.get(ctx, fmt.Sprintf("competitions/%d/standings", competitionID), nil, &resp); err != nil {
		return nil, err
	}

	hasTotal := false
	for _, group := range resp.Standings {
		if group.Type == "TOTAL" {
			hasTotal = true
			break
		}
	}

	var out []models.Standing
	for _, group := range resp.Standings {
		if hasTotal && group.Type != "TOTAL" {
			continue
		}
		for _, row := range group.Table {
			out = append(out, models.Standing{
				TeamID:       row.Team.ID,
				TeamName:     row.Team.Name,
				Position:     row.Position,
				PlayedGames:  row.PlayedGames,
				GoalsFor:     row.GoalsFor,
				GoalsAgainst: row.GoalsAgainst,
				Points:       row.Points,
			})
		}
	}
	return out, nil
}

// RecentMatches returns up to limit finished matches of the team, in feed order.
func (c *FootballData) RecentMatches(ctx context.Context, teamID, limit int) ([]models.MatchResult, error) {
	q := url.Values{}
	q.Set("status", models.StatusFinished)
	q.Set("limit", strconv.Itoa(limit))

	var resp matchesResponse
	if err := c.get(ctx, fmt.Sprintf("teams/%d/matches", teamID), q, &resp); err != nil {
		return nil, err
	}

	out := make([]models.MatchResult, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		out = append(out, models.MatchResult{
			ID:                m.ID,
			UTCDate:           parseUTC(m.UTCDate),
			HomeTeamID:        m.HomeTeam.ID,
			HomeTeamName:      m.HomeTeam.Name,
			AwayTeamID:        m.AwayTeam.ID,
			AwayTeamName:      m.AwayTeam.Name,
			HomeGoalsFullTime: intOrZero(m.Score.FullTime.Home),
			AwayGoalsFullTime: intOrZero(m.Score.FullTime.Away),
			HomeGoalsHalfTime: intOrZero(m.Score.HalfTime.Home),
			AwayGoalsHalfTime: intOrZero(m.Score.HalfTime.Away),
		})
	}
	return out, nil
}

func (c *FootballData) get(ctx context.Context, endpoint string, q url.Values, dst any) error {
	if c == nil || c.apiKey == "" {
		return ErrNotConfigured
	}

	u, err := url.Parse(c.baseURL + "/" + endpoint)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if q != nil {
		u.RawQuery = q.Encode()
	}

	body, err := doGet(ctx, c.httpClient, u.String(), map[string]string{"X-Auth-Token": c.apiKey})
	if err != nil {
		return fmt.Errorf("football-data %s: %w", endpoint, err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("football-data %s: failed to decode response: %w", endpoint, err)
	}
	return nil
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func parseUTC(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
