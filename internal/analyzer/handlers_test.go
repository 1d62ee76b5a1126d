package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vodeneev/goalscout/internal/pkg/cache"
	"github.com/Vodeneev/goalscout/internal/pkg/config"
	"github.com/Vodeneev/goalscout/internal/pkg/feed"
	"github.com/Vodeneev/goalscout/internal/pkg/models"
)

type fakeOdds struct {
	books []models.Bookmaker
}

func (f fakeOdds) BookmakerOdds(context.Context, string, string) ([]models.Bookmaker, error) {
	return f.books, nil
}

type fakeNotifier struct {
	alerts    []ValueAlert
	shortlist []ScreenedFixture
}

func (n *fakeNotifier) SendValueAlerts(_ context.Context, alerts []ValueAlert) error {
	n.alerts = append(n.alerts, alerts...)
	return nil
}

func (n *fakeNotifier) SendShortlist(_ context.Context, list []ScreenedFixture) error {
	n.shortlist = list
	return nil
}

func newTestServer(t *testing.T, deps ServerDeps) *httptest.Server {
	t.Helper()
	src := &fakeFeed{
		competitions: []models.Competition{{ID: 2021, Name: "Premier League", Code: "PL"}},
		fixtures: map[int][]models.Fixture{2021: {
			fixture(1, 57, 61, models.StatusTimed),
			fixture(2, 64, 65, models.StatusFinished),
		}},
		recent: map[int][]models.MatchResult{57: {meeting(57, 61, 2, 1)}},
	}
	profiles := NewProfileBuilder(src, nil, time.Hour)
	if deps.Engine == nil {
		deps.Engine = NewEngine(profiles, staticH2H(DefaultHeadToHead()), EngineOptions{})
	}
	deps.HeadToHead = NewHeadToHeadAnalyzer(src, nil, time.Hour, 20)
	deps.Screener = NewScreener(src, profiles, ScreenOptions{})
	deps.Fixtures = src
	deps.Alerts = AlertOptions{MinEV: 0.1, ReferenceOdd: 2}

	srv := httptest.NewServer(NewServer(deps).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, target, body string, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, target, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t, ServerDeps{})
	for _, path := range []string{"/ping", "/health", "/metrics"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestServer_CompetitionsAndFixtures(t *testing.T) {
	srv := newTestServer(t, ServerDeps{})

	var comps []models.Competition
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/competitions", "", &comps))
	require.Len(t, comps, 1)
	assert.Equal(t, "PL", comps[0].Code)

	var fixtures []models.Fixture
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/competitions/2021/fixtures", "", &fixtures))
	require.Len(t, fixtures, 1, "finished fixtures are dropped")
	assert.Equal(t, 1, fixtures[0].ID)

	var errBody map[string]string
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodGet, srv.URL+"/competitions/abc/fixtures", "", &errBody))
	assert.Equal(t, "invalid competition id", errBody["error"])
}

func TestServer_ProfileAndH2H(t *testing.T) {
	srv := newTestServer(t, ServerDeps{})

	var p TeamProfile
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/teams/57/profile?competition=2021", "", &p))
	assert.Equal(t, 57, p.TeamID)
	assert.Equal(t, 100, p.BTTS)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodGet, srv.URL+"/teams/57/profile", "", nil))

	var h2h HeadToHeadStats
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/h2h?home=57&away=61", "", &h2h))
	assert.Equal(t, 1, h2h.Meetings)
	assert.Equal(t, 100.0, h2h.BTTSRate)
}

func TestServer_AnalyzeAndHistory(t *testing.T) {
	session := NewSession(10, nil)
	srv := newTestServer(t, ServerDeps{Session: session})

	body := `{"home_team":"Arsenal FC","away_team":"Chelsea FC","competition":"Premier League","home_id":57,"away_id":61,"competition_id":2021,"markets":["btts"]}`
	var a MatchAnalysis
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, srv.URL+"/analyze", body, &a))
	assert.Len(t, a.Markets, len(AllMarkets))
	require.Len(t, a.Recommendations, 1)
	assert.NotEmpty(t, a.ID)

	var errBody map[string]string
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPost, srv.URL+"/analyze", `{"home_team":"x"}`, &errBody))
	assert.Equal(t, "analysis failed", errBody["error"])
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPost, srv.URL+"/analyze", `{`, nil))

	var records []models.AnalysisRecord
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/history?limit=5", "", &records))
	require.Len(t, records, 1)
	assert.Equal(t, a.ID, records[0].ID)

	assert.Equal(t, http.StatusServiceUnavailable, doJSON(t, http.MethodGet, srv.URL+"/history?source=store", "", nil))
}

func TestServer_ScreenIsCached(t *testing.T) {
	notifier := &fakeNotifier{}
	srv := newTestServer(t, ServerDeps{
		Cache:        cache.New(cache.NewMemory(), "t:"),
		ShortlistTTL: time.Minute,
		Notifier:     notifier,
	})

	var list []ScreenedFixture
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/screen", "", &list))
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].FixtureID)

	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, srv.URL+"/screen/notify", "", nil))
	require.Len(t, notifier.shortlist, 1)
}

func TestServer_ScreenNotifyWithoutNotifier(t *testing.T) {
	srv := newTestServer(t, ServerDeps{})
	assert.Equal(t, http.StatusServiceUnavailable, doJSON(t, http.MethodPost, srv.URL+"/screen/notify", "", nil))
}

func TestServer_Value(t *testing.T) {
	srv := newTestServer(t, ServerDeps{})

	var eval struct {
		ExpectedValue      float64 `json:"expected_value"`
		ImpliedProbability float64 `json:"implied_probability"`
		Label              string  `json:"label"`
	}
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/value?probability=60&odd=2", "", &eval))
	assert.Equal(t, 0.2, eval.ExpectedValue)
	assert.Equal(t, 50.0, eval.ImpliedProbability)
	assert.Equal(t, "strong value", eval.Label)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodGet, srv.URL+"/value?probability=60&odd=0", "", nil))
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodGet, srv.URL+"/value?probability=x&odd=2", "", nil))
}

func TestServer_Odds(t *testing.T) {
	srv := newTestServer(t, ServerDeps{})
	assert.Equal(t, http.StatusServiceUnavailable, doJSON(t, http.MethodGet, srv.URL+"/odds?home=a&away=b", "", nil))

	srv = newTestServer(t, ServerDeps{Odds: fakeOdds{books: []models.Bookmaker{
		totalsBook("One", 2.0, 1.8),
		totalsBook("Two", 2.1, 1.7),
		totalsBook("Three", 2.2, 1.6),
	}}})
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodGet, srv.URL+"/odds?home=a", "", nil))

	var resp oddsResponse
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/odds?home=Arsenal&away=Chelsea", "", &resp))
	assert.Len(t, resp.Bookmakers, DefaultOddsBookmakers)
	assert.Empty(t, resp.Totals)

	oddsURL := srv.URL + "/odds?home=Arsenal&away=Chelsea&home_id=57&away_id=61&competition_id=2021&competition=Premier+League&limit=3"
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, oddsURL, "", &resp))
	require.Len(t, resp.Totals, 3)
	assert.Equal(t, "Three", resp.Totals[2].Bookmaker)
	require.NotNil(t, resp.Totals[0].Over25)
}

func TestServer_OddsUpstreamDownHidesKey(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := upstream.URL
	upstream.Close()

	odds := feed.NewOddsAPI(&config.OddsAPIConfig{BaseURL: base, APIKey: "SECRET-ODDS-KEY", Regions: "eu", Markets: "totals"})
	srv := newTestServer(t, ServerDeps{Odds: odds})

	resp, err := http.Get(srv.URL + "/odds?home=A&away=B")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.NotContains(t, string(body), "SECRET-ODDS-KEY")
	assert.NotContains(t, string(body), base)
}

func TestWriteError_StatusAndDetails(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		details string
	}{
		{"invalid request", fmt.Errorf("%w: bad ids", ErrInvalidRequest), http.StatusBadRequest, "analyzer: invalid request: bad ids"},
		{"not configured", feed.ErrNotConfigured, http.StatusServiceUnavailable, feed.ErrNotConfigured.Error()},
		{"rate limited", fmt.Errorf("football-data: %w", feed.ErrRateLimited), http.StatusBadGateway, feed.ErrRateLimited.Error()},
		{"transport", fmt.Errorf("request failed: %w", &url.Error{Op: "Get", URL: "http://x/?apiKey=k", Err: errors.New("connection refused")}), http.StatusBadGateway, "upstream unreachable"},
		{"unknown", errors.New("boom: internal detail"), http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, "failed", tt.err)
			assert.Equal(t, tt.status, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "failed", body["error"])
			assert.Equal(t, tt.details, body["details"])
		})
	}
}

func TestServer_Watchlist(t *testing.T) {
	notifier := &fakeNotifier{}
	hot := DefaultProfile(1, 2002)
	hot.Style, hot.Attack, hot.Defense = StyleOffensive, 9, 4
	hot.BTTS, hot.Over25, hot.Over15 = 80, 80, 100
	engine := NewEngine(staticProfiles{1: hot, 2: hot}, staticH2H(DefaultHeadToHead()), EngineOptions{})
	srv := newTestServer(t, ServerDeps{Engine: engine, Notifier: notifier})

	var entry WatchEntry
	assert.Equal(t, http.StatusCreated, doJSON(t, http.MethodPost, srv.URL+"/watchlist",
		`{"label":"Hot vs Hot II","home_id":1,"away_id":2,"competition_id":2002,"competition":"Bundesliga"}`, &entry))
	assert.Equal(t, "Hot", entry.HomeTeam)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPost, srv.URL+"/watchlist", `{"label":"nope"}`, nil))

	var list []WatchEntry
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/watchlist", "", &list))
	require.Len(t, list, 1)

	var alerts alertsResponse
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, srv.URL+"/watchlist/alerts", "", &alerts))
	assert.NotEmpty(t, alerts.Alerts)
	assert.True(t, alerts.Sent)
	assert.Len(t, notifier.alerts, len(alerts.Alerts))

	assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodDelete, srv.URL+"/watchlist/3", "", nil))
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodDelete, srv.URL+"/watchlist/0", "", nil))
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/watchlist", "", &list))
	assert.Empty(t, list)
}
