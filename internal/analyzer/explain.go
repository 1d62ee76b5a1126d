package analyzer

import (
	"fmt"
	"strings"
)

// Tier grades a recommendation.
type Tier string

const (
	TierStrong   Tier = "strong"
	TierModerate Tier = "moderate"
	TierWeak     Tier = "weak"
)

// Recommendation is the verdict for one selected market.
type Recommendation struct {
	Market Market `json:"market"`
	Tier   Tier   `json:"tier"`
	Text   string `json:"text"`
}

// tierRule holds the thresholds and wording of one market.
type tierRule struct {
	strong, moderate float64
	text             [3]string
}

var tierRules = map[Market]tierRule{
	MarketBTTS: {60, 50, [3]string{
		"strong candidate - high probability",
		"moderate candidate - worth a look",
		"low probability - better avoided",
	}},
	MarketOver25: {60, 50, [3]string{
		"strong candidate - high chance of goals",
		"moderate candidate - good opportunity",
		"low probability - few goals expected",
	}},
	MarketOver15: {80, 70, [3]string{
		"strong candidate - very likely",
		"moderate candidate - fairly safe",
		"moderate probability - analyse further",
	}},
	MarketUnder35: {70, 60, [3]string{
		"strong candidate - controlled game expected",
		"moderate candidate - low risk of many goals",
		"low probability - open game possible",
	}},
	MarketUnder25: {60, 50, [3]string{
		"strong candidate - few goals expected",
		"moderate candidate",
		"low probability",
	}},
	MarketSecondHalfMore: {60, 50, [3]string{
		"strong candidate - more goals after the break",
		"moderate candidate",
		"low probability",
	}},
}

// TierFor grades probability p for market m.
func TierFor(m Market, p float64) Tier {
	rule := tierRules[m]
	switch {
	case p >= rule.strong:
		return TierStrong
	case p >= rule.moderate:
		return TierModerate
	default:
		return TierWeak
	}
}

// Recommend builds recommendations for the selected markets, in AllMarkets order.
// Tiers use the clamped probability before display rounding.
func Recommend(estimates []MarketEstimate, selected []Market) []Recommendation {
	want := make(map[Market]bool, len(selected))
	for _, m := range selected {
		want[m] = true
	}

	out := make([]Recommendation, 0, len(selected))
	for _, e := range estimates {
		if !want[e.Market] {
			continue
		}
		p := e.raw
		// decoded estimates carry only the rounded value
		if p == 0 {
			p = e.Probability
		}
		tier := TierFor(e.Market, p)
		idx := 2
		switch tier {
		case TierStrong:
			idx = 0
		case TierModerate:
			idx = 1
		}
		out = append(out, Recommendation{
			Market: e.Market,
			Tier:   tier,
			Text:   fmt.Sprintf("%s: %s", e.Label, tierRules[e.Market].text[idx]),
		})
	}
	return out
}

// Explain builds the narrative lines shown next to an analysis.
func Explain(homeTeam, awayTeam string, home, away TeamProfile, h2h HeadToHeadStats) []string {
	lines := []string{
		fmt.Sprintf("%s: %s team (attack %d/10, defense %d/10)", homeTeam, strings.ToUpper(string(home.Style)), home.Attack, home.Defense),
		fmt.Sprintf("%s: %s team (attack %d/10, defense %d/10)", awayTeam, strings.ToUpper(string(away.Style)), away.Attack, away.Defense),
		fmt.Sprintf("Recent H2H: BTTS %.0f%% | Over 2.5 %.0f%%", h2h.BTTSRate, h2h.Over25Rate),
	}

	switch {
	case home.Style == StyleOffensive && away.Style == StyleOffensive:
		lines = append(lines, "Matchup: two offensive teams, high chance of goals")
	case home.Style == StyleDefensive && away.Style == StyleDefensive:
		lines = append(lines, "Matchup: two defensive teams, low chance of goals")
	default:
		lines = append(lines, "Matchup: different styles, balanced game")
	}

	if home.Attack >= 8 {
		lines = append(lines, homeTeam+" has a very strong attack")
	}
	if away.Attack >= 8 {
		lines = append(lines, awayTeam+" has a very strong attack")
	}
	if home.Defense <= 5 {
		lines = append(lines, homeTeam+" has a vulnerable defense")
	}
	if away.Defense <= 5 {
		lines = append(lines, awayTeam+" has a vulnerable defense")
	}
	return lines
}
