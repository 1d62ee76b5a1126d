package analyzer

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() AnalysisRequest {
	return AnalysisRequest{
		HomeTeam:      "Arsenal FC",
		AwayTeam:      "Chelsea FC",
		Competition:   "Premier League",
		HomeID:        57,
		AwayID:        61,
		CompetitionID: 2021,
	}
}

func newTestEngine(profiles staticProfiles, h2h HeadToHeadStats) *Engine {
	e := NewEngine(profiles, staticH2H(h2h), EngineOptions{})
	e.now = func() time.Time { return time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC) }
	return e
}

func TestAnalysisRequest_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *AnalysisRequest)
	}{
		{"missing home name", func(r *AnalysisRequest) { r.HomeTeam = " " }},
		{"missing away id", func(r *AnalysisRequest) { r.AwayID = 0 }},
		{"missing competition id", func(r *AnalysisRequest) { r.CompetitionID = -1 }},
		{"same teams", func(r *AnalysisRequest) { r.AwayID = r.HomeID }},
		{"unknown market", func(r *AnalysisRequest) { r.Markets = []Market{"corners"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRequest()
			tt.mutate(&r)
			assert.ErrorIs(t, r.Validate(), ErrInvalidRequest)
		})
	}
	assert.NoError(t, validRequest().Validate())
}

func TestEngine_AnalyzeDefaultsInPremierLeague(t *testing.T) {
	e := newTestEngine(staticProfiles{}, HeadToHeadStats{BTTSRate: 70, Over25Rate: 30, Meetings: 3})
	hist := NewHistory(10, nil)

	a, err := e.Analyze(context.Background(), hist, validRequest())
	require.NoError(t, err)

	want := map[Market]struct{ prob, fair float64 }{
		MarketBTTS:           {52, 1.92},
		MarketOver25:         {53, 1.89},
		MarketOver15:         {73, 1.37},
		MarketUnder35:        {68, 1.47},
		MarketUnder25:        {49, 2.04},
		MarketSecondHalfMore: {52, 1.92},
	}
	require.Len(t, a.Markets, len(AllMarkets))
	for m, w := range want {
		est, ok := a.Estimate(m)
		require.True(t, ok, m)
		assert.InDelta(t, w.prob, est.Probability, 1e-9, m)
		assert.InDelta(t, w.fair, est.FairOdd, 1e-9, m)
	}

	var tiers []Tier
	for _, r := range a.Recommendations {
		tiers = append(tiers, r.Tier)
	}
	// default markets: btts, over25, over15, under35, second_half_more
	assert.Equal(t, []Tier{TierModerate, TierModerate, TierModerate, TierModerate, TierModerate}, tiers)
	assert.Equal(t, "BTTS: moderate candidate - worth a look", a.Recommendations[0].Text)

	require.Equal(t, 1, hist.Len())
	rec := hist.Last(1)[0]
	assert.Equal(t, a.ID, rec.ID)
	assert.Equal(t, 52.0, rec.ProbBTTS)
	assert.Equal(t, 53.0, rec.ProbOver25)
	assert.Equal(t, "Arsenal FC", rec.HomeTeam)
}

func TestEngine_RecommendationsFollowSelectedMarkets(t *testing.T) {
	e := newTestEngine(staticProfiles{}, DefaultHeadToHead())
	req := validRequest()
	req.Markets = []Market{MarketUnder25, MarketBTTS}

	a, err := e.Analyze(context.Background(), nil, req)
	require.NoError(t, err)
	require.Len(t, a.Recommendations, 2)
	assert.Equal(t, MarketBTTS, a.Recommendations[0].Market, "fixed market order")
	assert.Equal(t, MarketUnder25, a.Recommendations[1].Market)
	assert.Equal(t, TierWeak, a.Recommendations[1].Tier)
	assert.Empty(t, a.ID, "no history, no id")
}

func TestEngine_ProbabilitiesStayWithinBounds(t *testing.T) {
	hot := DefaultProfile(57, 2021)
	hot.Style, hot.Attack, hot.Defense = StyleOffensive, 10, 1
	hot.BTTS, hot.Over25, hot.Over15, hot.Under35, hot.Under25, hot.SecondHalfMore = 100, 100, 100, 0, 0, 100
	cold := DefaultProfile(61, 2021)
	cold.Style, cold.Attack, cold.Defense = StyleDefensive, 1, 10
	cold.BTTS, cold.Over25, cold.Over15, cold.Under35, cold.Under25, cold.SecondHalfMore = 0, 0, 0, 100, 100, 0

	for _, pair := range [][2]TeamProfile{{hot, hot}, {cold, cold}, {hot, cold}} {
		for _, comp := range []string{"Bundesliga", "Serie A", ""} {
			for _, h2h := range []HeadToHeadStats{{BTTSRate: 100, Over25Rate: 100}, {}} {
				estimates, _, _, err := Estimate(comp, pair[0], pair[1], h2h)
				require.NoError(t, err)
				for _, e := range estimates {
					b := probabilityBounds[e.Market]
					assert.GreaterOrEqual(t, e.Probability, b[0], e.Market)
					assert.LessOrEqual(t, e.Probability, b[1], e.Market)
				}
			}
		}
	}
}

func TestClampProbability_Pathological(t *testing.T) {
	for _, m := range AllMarkets {
		b := probabilityBounds[m]
		assert.Equal(t, b[1], ClampProbability(m, 1e12))
		assert.Equal(t, b[0], ClampProbability(m, -1e12))
		assert.Equal(t, b[1], ClampProbability(m, math.Inf(1)))
		assert.Equal(t, b[0], ClampProbability(m, math.NaN()))
	}
}

func TestEngine_Deterministic(t *testing.T) {
	home := DefaultProfile(57, 2021)
	home.Style, home.Attack, home.Defense, home.BTTS = StyleOffensive, 8, 6, 63
	profiles := staticProfiles{57: home}
	h2h := HeadToHeadStats{BTTSRate: 60, Over25Rate: 80, Meetings: 5}

	a1, err := newTestEngine(profiles, h2h).Analyze(context.Background(), nil, validRequest())
	require.NoError(t, err)
	a2, err := newTestEngine(profiles, h2h).Analyze(context.Background(), nil, validRequest())
	require.NoError(t, err)
	assert.Equal(t, a1, a2)
}

func TestEngine_CancelledContext(t *testing.T) {
	e := newTestEngine(staticProfiles{}, DefaultHeadToHead())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	hist := NewHistory(5, nil)
	_, err := e.Analyze(ctx, hist, validRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAnalysisFailed))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, hist.Len(), "failed analyses are not recorded")
}

func TestEngine_InvalidRequest(t *testing.T) {
	e := newTestEngine(staticProfiles{}, DefaultHeadToHead())
	_, err := e.Analyze(context.Background(), nil, AnalysisRequest{})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestExplain(t *testing.T) {
	home := profileWith(StyleOffensive, 8, 5)
	away := profileWith(StyleOffensive, 7, 6)
	lines := Explain("Arsenal", "Chelsea", home, away, HeadToHeadStats{BTTSRate: 66.6, Over25Rate: 40})

	assert.Equal(t, []string{
		"Arsenal: OFFENSIVE team (attack 8/10, defense 5/10)",
		"Chelsea: OFFENSIVE team (attack 7/10, defense 6/10)",
		"Recent H2H: BTTS 67% | Over 2.5 40%",
		"Matchup: two offensive teams, high chance of goals",
		"Arsenal has a very strong attack",
		"Arsenal has a vulnerable defense",
	}, lines)

	lines = Explain("A", "B", profileWith(StyleDefensive, 5, 8), profileWith(StyleDefensive, 5, 8), DefaultHeadToHead())
	assert.Contains(t, lines, "Matchup: two defensive teams, low chance of goals")
	lines = Explain("A", "B", profileWith(StyleBalanced, 6, 6), profileWith(StyleDefensive, 5, 8), DefaultHeadToHead())
	assert.Contains(t, lines, "Matchup: different styles, balanced game")
}

func TestTierFor(t *testing.T) {
	assert.Equal(t, TierStrong, TierFor(MarketOver15, 80))
	assert.Equal(t, TierModerate, TierFor(MarketOver15, 79.99))
	assert.Equal(t, TierWeak, TierFor(MarketOver15, 69.9))
	assert.Equal(t, TierStrong, TierFor(MarketUnder35, 70))
	assert.Equal(t, TierModerate, TierFor(MarketUnder35, 60))
	assert.Equal(t, TierWeak, TierFor(MarketBTTS, 49.99))
}

func TestRecommend_UsesUnroundedProbability(t *testing.T) {
	est := []MarketEstimate{{Market: MarketBTTS, Label: "BTTS", Probability: 60, raw: 59.96}}
	recs := Recommend(est, []Market{MarketBTTS})
	require.Len(t, recs, 1)
	assert.Equal(t, TierModerate, recs[0].Tier)
}
