package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Vodeneev/goalscout/internal/pkg/cache"
	"github.com/Vodeneev/goalscout/internal/pkg/feed"
	"github.com/Vodeneev/goalscout/internal/pkg/models"
	"github.com/Vodeneev/goalscout/internal/pkg/oddsmath"
)

const requestTimeout = 30 * time.Second

// OddsSource returns bookmaker quotes for a fixture.
type OddsSource interface {
	BookmakerOdds(ctx context.Context, home, away string) ([]models.Bookmaker, error)
}

// HistoryLister reads persisted history records, newest first.
type HistoryLister interface {
	ListRecords(ctx context.Context, limit int) ([]models.AnalysisRecord, error)
}

// ServerDeps wires the HTTP server. Odds, PersistedHistory, Notifier and Cache are optional.
type ServerDeps struct {
	Engine           *Engine
	HeadToHead       *HeadToHeadAnalyzer
	Screener         *Screener
	Fixtures         FixtureSource
	Odds             OddsSource
	Session          *Session
	PersistedHistory HistoryLister
	Notifier         Notifier
	Cache            *cache.Cache
	ShortlistTTL     time.Duration
	WindowDays       int
	AllowedOrigins   []string
	Alerts           AlertOptions
}

// Server exposes the analyzer over HTTP.
type Server struct {
	deps ServerDeps
	now  func() time.Time
}

func NewServer(deps ServerDeps) *Server {
	if deps.WindowDays <= 0 {
		deps.WindowDays = DefaultWindowDays
	}
	if deps.Session == nil {
		deps.Session = NewSession(DefaultHistorySize, nil)
	}
	return &Server{deps: deps, now: time.Now}
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if len(s.deps.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.deps.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("pong\n"))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/competitions", s.handleCompetitions)
	r.Get("/competitions/{competitionID}/fixtures", s.handleFixtures)
	r.Get("/teams/{teamID}/profile", s.handleProfile)
	r.Get("/h2h", s.handleHeadToHead)
	r.Post("/analyze", s.handleAnalyze)
	r.Get("/screen", s.handleScreen)
	r.Post("/screen/notify", s.handleScreenNotify)
	r.Get("/history", s.handleHistory)
	r.Get("/odds", s.handleOdds)
	r.Get("/value", s.handleValue)
	r.Get("/watchlist", s.handleWatchlist)
	r.Post("/watchlist", s.handleWatchlistAdd)
	r.Delete("/watchlist/{index}", s.handleWatchlistRemove)
	r.Post("/watchlist/alerts", s.handleWatchlistAlerts)
	return r
}

func (s *Server) handleCompetitions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	comps, err := s.deps.Fixtures.Competitions(ctx)
	if err != nil {
		writeError(w, "failed to fetch competitions", err)
		return
	}
	if comps == nil {
		comps = []models.Competition{}
	}
	writeJSON(w, http.StatusOK, comps)
}

func (s *Server) handleFixtures(w http.ResponseWriter, r *http.Request) {
	compID, err := strconv.Atoi(chi.URLParam(r, "competitionID"))
	if err != nil || compID <= 0 {
		writeError(w, "invalid competition id", ErrInvalidRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	from := s.now().UTC()
	fixtures, err := s.deps.Fixtures.UpcomingFixtures(ctx, compID, from, from.AddDate(0, 0, s.deps.WindowDays))
	if err != nil {
		writeError(w, "failed to fetch fixtures", err)
		return
	}
	upcoming := make([]models.Fixture, 0, len(fixtures))
	for _, f := range fixtures {
		if f.IsUpcoming() {
			upcoming = append(upcoming, f)
		}
	}
	writeJSON(w, http.StatusOK, upcoming)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	teamID, err := strconv.Atoi(chi.URLParam(r, "teamID"))
	if err != nil || teamID <= 0 {
		writeError(w, "invalid team id", ErrInvalidRequest)
		return
	}
	compID, ok := positiveQuery(r, "competition")
	if !ok {
		writeError(w, "competition query parameter is required", ErrInvalidRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	writeJSON(w, http.StatusOK, s.deps.Engine.Profile(ctx, teamID, compID))
}

func (s *Server) handleHeadToHead(w http.ResponseWriter, r *http.Request) {
	home, okHome := positiveQuery(r, "home")
	away, okAway := positiveQuery(r, "away")
	if !okHome || !okAway {
		writeError(w, "home and away team ids are required", ErrInvalidRequest)
		return
	}
	limit, _ := positiveQuery(r, "limit")

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	writeJSON(w, http.StatusOK, s.deps.HeadToHead.Stats(ctx, home, away, limit))
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid JSON body", errors.Join(ErrInvalidRequest, err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	analysis, err := s.deps.Engine.Analyze(ctx, s.deps.Session.History, req)
	if err != nil {
		writeError(w, "analysis failed", err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) shortlist(ctx context.Context) ([]ScreenedFixture, error) {
	return cache.Load(ctx, s.deps.Cache, cache.Key("shortlist"), s.deps.ShortlistTTL,
		func(ctx context.Context) ([]ScreenedFixture, error) {
			return s.deps.Screener.Screen(ctx, nil)
		})
}

func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*requestTimeout)
	defer cancel()

	list, err := s.shortlist(ctx)
	if err != nil {
		writeError(w, "screening failed", err)
		return
	}
	if list == nil {
		list = []ScreenedFixture{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleScreenNotify(w http.ResponseWriter, r *http.Request) {
	if s.deps.Notifier == nil {
		writeError(w, "notifier is not configured", feed.ErrNotConfigured)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*requestTimeout)
	defer cancel()

	list, err := s.shortlist(ctx)
	if err != nil {
		writeError(w, "screening failed", err)
		return
	}
	if err := s.deps.Notifier.SendShortlist(ctx, list); err != nil {
		writeError(w, "failed to send shortlist", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "sent", "fixtures": len(list)})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := positiveQuery(r, "limit")
	if !ok {
		limit = 10
	}

	if r.URL.Query().Get("source") == "store" {
		if s.deps.PersistedHistory == nil {
			writeError(w, "history storage is not configured", feed.ErrNotConfigured)
			return
		}
		records, err := s.deps.PersistedHistory.ListRecords(r.Context(), limit)
		if err != nil {
			writeError(w, "failed to read history", err)
			return
		}
		if records == nil {
			records = []models.AnalysisRecord{}
		}
		writeJSON(w, http.StatusOK, records)
		return
	}

	writeJSON(w, http.StatusOK, s.deps.Session.History.Last(limit))
}

type oddsResponse struct {
	Bookmakers []models.Bookmaker `json:"bookmakers"`
	Totals     []BookmakerTotals  `json:"totals,omitempty"`
}

// handleOdds returns bookmaker quotes; with home_id, away_id and competition_id
// the Over/Under 2.5 prices are also compared against a fresh analysis.
func (s *Server) handleOdds(w http.ResponseWriter, r *http.Request) {
	if s.deps.Odds == nil {
		writeError(w, "odds feed is not configured", feed.ErrNotConfigured)
		return
	}
	q := r.URL.Query()
	home, away := q.Get("home"), q.Get("away")
	if home == "" || away == "" {
		writeError(w, "home and away team names are required", ErrInvalidRequest)
		return
	}
	limit, ok := positiveQuery(r, "limit")
	if !ok {
		limit = DefaultOddsBookmakers
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	books, err := s.deps.Odds.BookmakerOdds(ctx, home, away)
	if err != nil {
		writeError(w, "failed to fetch odds", err)
		return
	}
	if len(books) > limit {
		books = books[:limit]
	}
	resp := oddsResponse{Bookmakers: books}
	if resp.Bookmakers == nil {
		resp.Bookmakers = []models.Bookmaker{}
	}

	homeID, okHome := positiveQuery(r, "home_id")
	awayID, okAway := positiveQuery(r, "away_id")
	compID, okComp := positiveQuery(r, "competition_id")
	if okHome && okAway && okComp {
		analysis, err := s.deps.Engine.Analyze(ctx, nil, AnalysisRequest{
			HomeTeam:      home,
			AwayTeam:      away,
			Competition:   q.Get("competition"),
			HomeID:        homeID,
			AwayID:        awayID,
			CompetitionID: compID,
		})
		if err != nil {
			writeError(w, "analysis failed", err)
			return
		}
		resp.Totals = CompareTotals(analysis, books, limit)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleValue(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	prob, err1 := strconv.ParseFloat(q.Get("probability"), 64)
	odd, err2 := strconv.ParseFloat(q.Get("odd"), 64)
	if err1 != nil || err2 != nil {
		writeError(w, "probability and odd must be numbers", ErrInvalidRequest)
		return
	}
	eval, ok := oddsmath.Evaluate(prob, odd)
	if !ok {
		writeError(w, "odd and probability must be positive", ErrInvalidRequest)
		return
	}
	writeJSON(w, http.StatusOK, eval)
}

func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Session.Watchlist.List())
}

func (s *Server) handleWatchlistAdd(w http.ResponseWriter, r *http.Request) {
	var entry WatchEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		writeError(w, "invalid JSON body", errors.Join(ErrInvalidRequest, err))
		return
	}
	added, err := s.deps.Session.Watchlist.Add(entry)
	if err != nil {
		writeError(w, "failed to add watchlist entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleWatchlistRemove(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, "invalid index", ErrInvalidRequest)
		return
	}
	removed, err := s.deps.Session.Watchlist.Remove(index)
	if err != nil {
		writeError(w, "failed to remove watchlist entry", err)
		return
	}
	writeJSON(w, http.StatusOK, removed)
}

type alertsResponse struct {
	Alerts []ValueAlert `json:"alerts"`
	Errors []string     `json:"errors,omitempty"`
	Sent   bool         `json:"sent"`
}

func (s *Server) handleWatchlistAlerts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*requestTimeout)
	defer cancel()

	alerts, errs := WatchlistAlerts(ctx, s.deps.Engine, s.deps.Session.History, s.deps.Session.Watchlist.List(), s.deps.Alerts)
	resp := alertsResponse{Alerts: alerts}
	if resp.Alerts == nil {
		resp.Alerts = []ValueAlert{}
	}
	for _, err := range errs {
		resp.Errors = append(resp.Errors, err.Error())
	}

	if s.deps.Notifier != nil && len(alerts) > 0 {
		if err := s.deps.Notifier.SendValueAlerts(ctx, alerts); err != nil {
			slog.Error("Failed to send watchlist alerts", "error", err)
			resp.Errors = append(resp.Errors, err.Error())
		} else {
			resp.Sent = true
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func positiveQuery(r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code and writes {"error", "details"}.
// Server-side failures only expose the matching sentinel, never the raw error.
func writeError(w http.ResponseWriter, msg string, err error) {
	status := http.StatusInternalServerError
	var urlErr *url.Error
	var netErr net.Error
	switch {
	case errors.Is(err, ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, ErrWatchIndex):
		status = http.StatusNotFound
	case errors.Is(err, feed.ErrNotConfigured):
		status = http.StatusServiceUnavailable
	case errors.Is(err, ErrAnalysisFailed),
		errors.Is(err, feed.ErrRateLimited),
		errors.Is(err, feed.ErrUnauthorized),
		errors.Is(err, feed.ErrUnexpectedStatus),
		errors.As(err, &urlErr),
		errors.As(err, &netErr):
		status = http.StatusBadGateway
	}

	body := map[string]string{"error": msg}
	if status < http.StatusInternalServerError {
		body["details"] = err.Error()
	} else {
		slog.Error(msg, "error", err, "status", status)
		if reason := publicReason(err); reason != "" {
			body["details"] = reason
		}
	}
	writeJSON(w, status, body)
}

// publicReasons are the errors whose text is safe to return to clients.
var publicReasons = []error{
	feed.ErrNotConfigured,
	feed.ErrRateLimited,
	feed.ErrUnauthorized,
	feed.ErrUnexpectedStatus,
	ErrAnalysisFailed,
	context.DeadlineExceeded,
}

func publicReason(err error) string {
	for _, target := range publicReasons {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return "upstream unreachable"
	}
	return ""
}
