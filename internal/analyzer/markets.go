package analyzer

import "math"

// Market identifies a goals market the engine estimates.
type Market string

const (
	MarketBTTS           Market = "btts"
	MarketOver25         Market = "over25"
	MarketOver15         Market = "over15"
	MarketUnder35        Market = "under35"
	MarketUnder25        Market = "under25"
	MarketSecondHalfMore Market = "second_half_more"
)

// AllMarkets lists every market in presentation order.
var AllMarkets = []Market{
	MarketBTTS,
	MarketOver25,
	MarketOver15,
	MarketUnder35,
	MarketUnder25,
	MarketSecondHalfMore,
}

// DefaultMarkets are recommended when a request selects none.
var DefaultMarkets = []Market{
	MarketBTTS,
	MarketOver25,
	MarketOver15,
	MarketUnder35,
	MarketSecondHalfMore,
}

// ParseMarket validates a market key.
func ParseMarket(s string) (Market, bool) {
	for _, m := range AllMarkets {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

// Label is the human-readable market name.
func (m Market) Label() string {
	switch m {
	case MarketBTTS:
		return "BTTS"
	case MarketOver25:
		return "Over 2.5"
	case MarketOver15:
		return "Over 1.5"
	case MarketUnder35:
		return "Under 3.5"
	case MarketUnder25:
		return "Under 2.5"
	case MarketSecondHalfMore:
		return "2nd Half More Goals"
	}
	return string(m)
}

// probabilityBounds keep final probabilities away from 0% and 100%.
var probabilityBounds = map[Market][2]float64{
	MarketBTTS:           {15, 85},
	MarketOver25:         {20, 80},
	MarketOver15:         {40, 95},
	MarketUnder35:        {30, 90},
	MarketUnder25:        {25, 85},
	MarketSecondHalfMore: {20, 80},
}

// ClampProbability limits p to the market's bounds. NaN maps to the lower bound.
func ClampProbability(m Market, p float64) float64 {
	b, ok := probabilityBounds[m]
	if !ok {
		return clamp(p, 0, 100)
	}
	return clamp(p, b[0], b[1])
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Adjustments holds signed percentage-point deltas per market.
type Adjustments struct {
	BTTS           float64 `json:"btts"`
	Over25         float64 `json:"over25"`
	Over15         float64 `json:"over15"`
	Under35        float64 `json:"under35"`
	Under25        float64 `json:"under25"`
	SecondHalfMore float64 `json:"second_half_more"`
}

// Add returns the element-wise sum.
func (a Adjustments) Add(b Adjustments) Adjustments {
	return Adjustments{
		BTTS:           a.BTTS + b.BTTS,
		Over25:         a.Over25 + b.Over25,
		Over15:         a.Over15 + b.Over15,
		Under35:        a.Under35 + b.Under35,
		Under25:        a.Under25 + b.Under25,
		SecondHalfMore: a.SecondHalfMore + b.SecondHalfMore,
	}
}

// Get returns the delta for m.
func (a Adjustments) Get(m Market) float64 {
	switch m {
	case MarketBTTS:
		return a.BTTS
	case MarketOver25:
		return a.Over25
	case MarketOver15:
		return a.Over15
	case MarketUnder35:
		return a.Under35
	case MarketUnder25:
		return a.Under25
	case MarketSecondHalfMore:
		return a.SecondHalfMore
	}
	return 0
}
