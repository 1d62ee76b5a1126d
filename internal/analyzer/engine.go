package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/Vodeneev/goalscout/internal/pkg/models"
	"github.com/Vodeneev/goalscout/internal/pkg/oddsmath"
)

var (
	// ErrInvalidRequest is returned for requests that fail validation.
	ErrInvalidRequest = errors.New("analyzer: invalid request")
	// ErrAnalysisFailed is returned when an analysis could not be completed.
	ErrAnalysisFailed = errors.New("analyzer: analysis failed")
)

// ProfileSource returns team profiles; it must not fail.
type ProfileSource interface {
	Profile(ctx context.Context, teamID, competitionID int) TeamProfile
}

// HeadToHeadSource returns H2H stats; it must not fail.
type HeadToHeadSource interface {
	Stats(ctx context.Context, homeID, awayID, limit int) HeadToHeadStats
}

// AnalysisRequest describes one fixture to analyse.
type AnalysisRequest struct {
	HomeTeam      string   `json:"home_team"`
	AwayTeam      string   `json:"away_team"`
	Competition   string   `json:"competition"`
	HomeID        int      `json:"home_id"`
	AwayID        int      `json:"away_id"`
	CompetitionID int      `json:"competition_id"`
	Markets       []Market `json:"markets,omitempty"`
}

// Validate checks ids, names and market keys.
func (r AnalysisRequest) Validate() error {
	var problems []string
	if strings.TrimSpace(r.HomeTeam) == "" || strings.TrimSpace(r.AwayTeam) == "" {
		problems = append(problems, "team names are required")
	}
	if r.HomeID <= 0 || r.AwayID <= 0 || r.CompetitionID <= 0 {
		problems = append(problems, "home_id, away_id and competition_id must be positive")
	}
	if r.HomeID > 0 && r.HomeID == r.AwayID {
		problems = append(problems, "home and away teams must differ")
	}
	for _, m := range r.Markets {
		if _, ok := ParseMarket(string(m)); !ok {
			problems = append(problems, fmt.Sprintf("unknown market %q", m))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(problems, "; "))
	}
	return nil
}

// MarketEstimate is the final estimate for one market.
type MarketEstimate struct {
	Market      Market  `json:"market"`
	Label       string  `json:"label"`
	Base        float64 `json:"base"`
	Adjustment  float64 `json:"adjustment"`
	Probability float64 `json:"probability"`
	FairOdd     float64 `json:"fair_odd"`

	// clamped probability before display rounding
	raw float64
}

// MatchAnalysis is the result of one engine run.
type MatchAnalysis struct {
	ID                     string           `json:"id"`
	CreatedAt              time.Time        `json:"created_at"`
	HomeTeam               string           `json:"home_team"`
	AwayTeam               string           `json:"away_team"`
	Competition            string           `json:"competition"`
	HomeProfile            TeamProfile      `json:"home_profile"`
	AwayProfile            TeamProfile      `json:"away_profile"`
	HeadToHead             HeadToHeadStats  `json:"head_to_head"`
	StyleAdjustments       Adjustments      `json:"style_adjustments"`
	CompetitionAdjustments Adjustments      `json:"competition_adjustments"`
	Markets                []MarketEstimate `json:"markets"`
	Explanation            []string         `json:"explanation"`
	Recommendations        []Recommendation `json:"recommendations"`
}

// Estimate returns the estimate for m.
func (a *MatchAnalysis) Estimate(m Market) (MarketEstimate, bool) {
	for _, e := range a.Markets {
		if e.Market == m {
			return e, true
		}
	}
	return MarketEstimate{}, false
}

// Probability returns the displayed probability for m, or 0.
func (a *MatchAnalysis) Probability(m Market) float64 {
	e, _ := a.Estimate(m)
	return e.Probability
}

// Estimate combines profiles, H2H stats and the competition name into final
// market estimates. It is deterministic and performs no I/O.
func Estimate(competition string, home, away TeamProfile, h2h HeadToHeadStats) ([]MarketEstimate, Adjustments, Adjustments, error) {
	style := StyleAdjustment(home, away)
	bias := CompetitionBias(competition)
	total := style.Add(bias)

	out := make([]MarketEstimate, 0, len(AllMarkets))
	for _, m := range AllMarkets {
		base := (home.Rate(m) + away.Rate(m)) / 2
		adj := total.Get(m)
		switch m {
		case MarketBTTS:
			adj += (h2h.BTTSRate - defaultH2HRate) / 10
		case MarketOver25:
			adj += (h2h.Over25Rate - defaultH2HRate) / 10
		}
		if math.IsNaN(base) || math.IsNaN(adj) {
			return nil, style, bias, fmt.Errorf("%w: %s probability is not a number", ErrAnalysisFailed, m)
		}

		p := ClampProbability(m, base+adj)
		fair, ok := oddsmath.FairOdd(p)
		if !ok {
			return nil, style, bias, fmt.Errorf("%w: no fair odd for %s at %.2f%%", ErrAnalysisFailed, m, p)
		}
		out = append(out, MarketEstimate{
			Market:      m,
			Label:       m.Label(),
			Base:        base,
			Adjustment:  adj,
			Probability: oddsmath.Round(p, 1),
			FairOdd:     fair,
			raw:         p,
		})
	}
	return out, style, bias, nil
}

// EngineOptions tunes the engine.
type EngineOptions struct {
	H2HLimit       int
	DefaultMarkets []Market
}

// Engine orchestrates profiles, H2H and adjustments into a MatchAnalysis.
type Engine struct {
	profiles ProfileSource
	h2h      HeadToHeadSource
	opts     EngineOptions
	now      func() time.Time
}

// NewEngine creates an engine.
func NewEngine(profiles ProfileSource, h2h HeadToHeadSource, opts EngineOptions) *Engine {
	if opts.H2HLimit <= 0 {
		opts.H2HLimit = DefaultH2HLimit
	}
	if len(opts.DefaultMarkets) == 0 {
		opts.DefaultMarkets = DefaultMarkets
	}
	return &Engine{profiles: profiles, h2h: h2h, opts: opts, now: time.Now}
}

// Profile exposes the engine's profile source.
func (e *Engine) Profile(ctx context.Context, teamID, competitionID int) TeamProfile {
	return e.profiles.Profile(ctx, teamID, competitionID)
}

// Analyze runs a full analysis. When hist is not nil a lightweight record is appended to it.
func (e *Engine) Analyze(ctx context.Context, hist *History, req AnalysisRequest) (*MatchAnalysis, error) {
	if err := req.Validate(); err != nil {
		analysesTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}
	markets := req.Markets
	if len(markets) == 0 {
		markets = e.opts.DefaultMarkets
	}

	start := time.Now()
	home := e.profiles.Profile(ctx, req.HomeID, req.CompetitionID)
	away := e.profiles.Profile(ctx, req.AwayID, req.CompetitionID)
	h2h := e.h2h.Stats(ctx, req.HomeID, req.AwayID, e.opts.H2HLimit)
	if err := ctx.Err(); err != nil {
		analysesTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	estimates, style, bias, err := Estimate(req.Competition, home, away, h2h)
	if err != nil {
		analysesTotal.WithLabelValues("failed").Inc()
		slog.Error("Analysis failed", "home", req.HomeTeam, "away", req.AwayTeam, "error", err)
		return nil, err
	}

	a := &MatchAnalysis{
		CreatedAt:              e.now().UTC(),
		HomeTeam:               req.HomeTeam,
		AwayTeam:               req.AwayTeam,
		Competition:            req.Competition,
		HomeProfile:            home,
		AwayProfile:            away,
		HeadToHead:             h2h,
		StyleAdjustments:       style,
		CompetitionAdjustments: bias,
		Markets:                estimates,
	}
	a.Explanation = Explain(req.HomeTeam, req.AwayTeam, home, away, h2h)
	a.Recommendations = Recommend(estimates, markets)

	if hist != nil {
		rec := hist.Append(ctx, models.AnalysisRecord{
			CreatedAt:  a.CreatedAt,
			HomeTeam:   a.HomeTeam,
			AwayTeam:   a.AwayTeam,
			ProbBTTS:   a.Probability(MarketBTTS),
			ProbOver25: a.Probability(MarketOver25),
		})
		a.ID = rec.ID
	}

	analysesTotal.WithLabelValues("ok").Inc()
	slog.Info("Match analysed",
		"home", req.HomeTeam,
		"away", req.AwayTeam,
		"competition", req.Competition,
		"btts", a.Probability(MarketBTTS),
		"over25", a.Probability(MarketOver25),
		"duration", time.Since(start))
	return a, nil
}
