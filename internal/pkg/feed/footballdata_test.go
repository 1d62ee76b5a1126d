package feed

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vodeneev/goalscout/internal/pkg/config"
)

const competitionsJSON = `{"competitions":[
	{"id":2021,"name":"Premier League","code":"PL","currentSeason":{"id":1}},
	{"id":2013,"name":"Campeonato Brasileiro Série A","code":"BSA","currentSeason":{"id":2}},
	{"id":2019,"name":"Serie A","code":"SA","currentSeason":null},
	{"id":2002,"name":"Bundesliga","code":"BL1","currentSeason":{"id":3}}
]}`

const standingsJSON = `{"standings":[
	{"type":"TOTAL","table":[
		{"position":1,"team":{"id":57,"name":"Arsenal FC"},"playedGames":10,"points":25,"goalsFor":21,"goalsAgainst":7},
		{"position":2,"team":{"id":61,"name":"Chelsea FC"},"playedGames":10,"points":20,"goalsFor":18,"goalsAgainst":11}
	]},
	{"type":"HOME","table":[
		{"position":1,"team":{"id":57,"name":"Arsenal FC"},"playedGames":5,"points":15,"goalsFor":12,"goalsAgainst":2}
	]}
]}`

const teamMatchesJSON = `{"matches":[
	{"id":1,"utcDate":"2026-10-04T14:00:00Z","status":"FINISHED",
	 "homeTeam":{"id":57,"name":"Arsenal FC"},"awayTeam":{"id":61,"name":"Chelsea FC"},
	 "score":{"fullTime":{"home":2,"away":1},"halfTime":{"home":1,"away":0}}},
	{"id":2,"utcDate":"2026-09-27T14:00:00Z","status":"FINISHED",
	 "homeTeam":{"id":64,"name":"Liverpool FC"},"awayTeam":{"id":57,"name":"Arsenal FC"},
	 "score":{"fullTime":{"home":null,"away":3},"halfTime":{"home":null,"away":null}}}
]}`

func newTestServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Auth-Token"))
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(baseURL string) *FootballData {
	return NewFootballData(&config.FootballDataConfig{
		BaseURL:      baseURL,
		APIKey:       "secret",
		Competitions: config.DefaultCompetitions,
	})
}

func TestFootballData_Competitions(t *testing.T) {
	srv := newTestServer(t, map[string]string{"/competitions": competitionsJSON})

	comps, err := newClient(srv.URL).Competitions(context.Background())
	require.NoError(t, err)
	require.Len(t, comps, 2)
	assert.Equal(t, "Premier League", comps[0].Name)
	assert.Equal(t, 2021, comps[0].ID)
	assert.Equal(t, "Bundesliga", comps[1].Name)
}

func TestFootballData_StandingsUsesTotalTable(t *testing.T) {
	srv := newTestServer(t, map[string]string{"/competitions/2021/standings": standingsJSON})

	table, err := newClient(srv.URL).Standings(context.Background(), 2021)
	require.NoError(t, err)
	require.Len(t, table, 2)
	assert.Equal(t, 57, table[0].TeamID)
	assert.Equal(t, 10, table[0].PlayedGames)
	assert.Equal(t, 21, table[0].GoalsFor)
}

func TestFootballData_RecentMatchesNormalizesNullScores(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(teamMatchesJSON))
	}))
	defer srv.Close()

	matches, err := newClient(srv.URL).RecentMatches(context.Background(), 57, 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "limit=10&status=FINISHED", gotQuery)

	assert.Equal(t, 3, matches[0].TotalGoals())
	assert.Equal(t, 1, matches[0].FirstHalfGoals())
	assert.Equal(t, 0, matches[1].HomeGoalsFullTime)
	assert.Equal(t, 3, matches[1].AwayGoalsFullTime)
	assert.Equal(t, 0, matches[1].FirstHalfGoals())
	assert.Equal(t, time.Date(2026, 10, 4, 14, 0, 0, 0, time.UTC), matches[0].UTCDate)
}

func TestFootballData_UpcomingFixturesQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"matches":[{"id":9,"utcDate":"2026-10-18T11:30:00Z","status":"TIMED",
			"homeTeam":{"id":57,"name":"Arsenal FC"},"awayTeam":{"id":61,"name":"Chelsea FC"},
			"score":{"fullTime":{"home":null,"away":null},"halfTime":{"home":null,"away":null}}}]}`))
	}))
	defer srv.Close()

	from := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	fixtures, err := newClient(srv.URL).UpcomingFixtures(context.Background(), 2021, from, from.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Equal(t, "dateFrom=2026-10-17&dateTo=2026-10-24", gotQuery)
	require.Len(t, fixtures, 1)
	assert.True(t, fixtures[0].IsUpcoming())
	assert.Equal(t, "Arsenal FC vs Chelsea FC", fixtures[0].Name())
}

func TestFootballData_StatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
		{"unauthorized", http.StatusForbidden, ErrUnauthorized},
		{"server error", http.StatusInternalServerError, ErrUnexpectedStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := newClient(srv.URL).Standings(context.Background(), 2021)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFootballData_NotConfigured(t *testing.T) {
	c := NewFootballData(&config.FootballDataConfig{BaseURL: "http://127.0.0.1:1"})
	_, err := c.Competitions(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestFootballData_DecodesBrotli(t *testing.T) {
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	_, err := w.Write([]byte(competitionsJSON))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Encoding", "br")
		_, _ = rw.Write(buf.Bytes())
	}))
	defer srv.Close()

	comps, err := newClient(srv.URL).Competitions(context.Background())
	require.NoError(t, err)
	assert.Len(t, comps, 2)
}
