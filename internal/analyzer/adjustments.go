package analyzer

import "strings"

var (
	bothOffensive = Adjustments{BTTS: 8, Over25: 12, Over15: 5, Under35: -10, Under25: -8, SecondHalfMore: 5}
	mixedStyles   = Adjustments{BTTS: 3, Over25: 2, Over15: 2, Under35: -3, Under25: -2, SecondHalfMore: 3}
	bothDefensive = Adjustments{BTTS: -10, Over25: -15, Over15: -5, Under35: 12, Under25: 10, SecondHalfMore: -5}

	// strongAttackWeakDefense applies once per side whose attack meets a leaky defence.
	strongAttackWeakDefense = Adjustments{BTTS: 5, Over25: 8, Over15: 4, Under35: -6, Under25: -5, SecondHalfMore: 4}
)

// StyleAdjustment maps the pair of team profiles to per-market deltas.
func StyleAdjustment(home, away TeamProfile) Adjustments {
	var adj Adjustments
	switch {
	case home.Style == StyleOffensive && away.Style == StyleOffensive:
		adj = bothOffensive
	case home.Style == StyleOffensive && away.Style == StyleDefensive,
		home.Style == StyleDefensive && away.Style == StyleOffensive:
		adj = mixedStyles
	case home.Style == StyleDefensive && away.Style == StyleDefensive:
		adj = bothDefensive
	}

	if home.Attack >= 8 && away.Defense <= 5 {
		adj = adj.Add(strongAttackWeakDefense)
	}
	if away.Attack >= 8 && home.Defense <= 5 {
		adj = adj.Add(strongAttackWeakDefense)
	}
	return adj
}

type competitionBias struct {
	match string
	adj   Adjustments
}

// competitionBiases are checked in order; the first name match wins.
var competitionBiases = []competitionBias{
	{"Premier League", Adjustments{Over25: 5, Over15: 3, Under35: -2, Under25: -1, SecondHalfMore: 2}},
	{"Serie A", Adjustments{BTTS: -3, Over25: -2, Over15: -1, Under35: 4, Under25: 3, SecondHalfMore: -2}},
	{"Bundesliga", Adjustments{BTTS: 5, Over25: 8, Over15: 5, Under35: -8, Under25: -7, SecondHalfMore: 5}},
}

// CompetitionBias returns the league-specific deltas for a competition name.
func CompetitionBias(competition string) Adjustments {
	for _, b := range competitionBiases {
		if strings.Contains(competition, b.match) {
			return b.adj
		}
	}
	return Adjustments{}
}
