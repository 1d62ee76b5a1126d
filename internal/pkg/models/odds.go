package models

import "time"

// Bookmaker holds the quotes of one bookmaker for one event.
type Bookmaker struct {
	Key        string       `json:"key"`
	Title      string       `json:"title"`
	LastUpdate time.Time    `json:"last_update"`
	Markets    []OddsMarket `json:"markets"`
}

// OddsMarket is one market ("h2h", "totals") of a bookmaker.
type OddsMarket struct {
	Key      string        `json:"key"`
	Outcomes []OddsOutcome `json:"outcomes"`
}

// OddsOutcome is one priced outcome. Point is set for totals markets.
type OddsOutcome struct {
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Point *float64 `json:"point,omitempty"`
}

// Market returns the market with the given key, if the bookmaker quotes it.
func (b Bookmaker) Market(key string) (OddsMarket, bool) {
	for _, m := range b.Markets {
		if m.Key == key {
			return m, true
		}
	}
	return OddsMarket{}, false
}

// Price returns the price of outcome name at line point (e.g. "Over", 2.5).
func (m OddsMarket) Price(name string, point float64) (float64, bool) {
	for _, o := range m.Outcomes {
		if o.Name == name && o.Point != nil && *o.Point == point {
			return o.Price, true
		}
	}
	return 0, false
}
