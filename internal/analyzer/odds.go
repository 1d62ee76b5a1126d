package analyzer

import (
	"github.com/Vodeneev/goalscout/internal/pkg/models"
	"github.com/Vodeneev/goalscout/internal/pkg/oddsmath"
)

// DefaultOddsBookmakers is how many bookmakers CompareTotals inspects by default.
const DefaultOddsBookmakers = 2

const totalsLine = 2.5

// PriceCheck compares one quoted price with our probability for the same outcome.
type PriceCheck struct {
	Market             Market              `json:"market"`
	Price              float64             `json:"price"`
	ImpliedProbability float64             `json:"implied_probability"`
	Probability        float64             `json:"probability"`
	ExpectedValue      *float64            `json:"expected_value,omitempty"`
	Label              oddsmath.ValueLabel `json:"label"`
}

// BookmakerTotals are the Over/Under 2.5 checks of one bookmaker. Either side
// is nil when the bookmaker does not quote it.
type BookmakerTotals struct {
	Bookmaker string      `json:"bookmaker"`
	Over25    *PriceCheck `json:"over25,omitempty"`
	Under25   *PriceCheck `json:"under25,omitempty"`
}

// CompareTotals checks the Over/Under 2.5 prices of the first limit bookmakers
// against the analysis. Bookmakers without a totals market are skipped.
func CompareTotals(a *MatchAnalysis, bookmakers []models.Bookmaker, limit int) []BookmakerTotals {
	if limit <= 0 {
		limit = DefaultOddsBookmakers
	}
	if len(bookmakers) > limit {
		bookmakers = bookmakers[:limit]
	}

	var out []BookmakerTotals
	for _, b := range bookmakers {
		totals, ok := b.Market("totals")
		if !ok {
			continue
		}
		row := BookmakerTotals{Bookmaker: b.Title}
		if price, ok := totals.Price("Over", totalsLine); ok {
			row.Over25 = checkPrice(MarketOver25, price, a.Probability(MarketOver25))
		}
		if price, ok := totals.Price("Under", totalsLine); ok {
			row.Under25 = checkPrice(MarketUnder25, price, a.Probability(MarketUnder25))
		}
		out = append(out, row)
	}
	return out
}

func checkPrice(m Market, price, probability float64) *PriceCheck {
	c := &PriceCheck{Market: m, Price: price, Probability: probability, Label: oddsmath.NoValue}
	if implied, ok := oddsmath.ImpliedProbability(price); ok {
		c.ImpliedProbability = implied
	}
	if ev, ok := oddsmath.ExpectedValue(probability, price); ok {
		c.ExpectedValue = &ev
		c.Label = oddsmath.Label(ev)
	}
	return c
}
