package oddsmath

import "math"

// ValueLabel classifies an expected value.
type ValueLabel string

const (
	StrongValue ValueLabel = "strong value"
	SmallValue  ValueLabel = "small value"
	NoValue     ValueLabel = "no value"
)

// StrongValueThreshold is the EV above which a price is strong value.
const StrongValueThreshold = 0.05

// ExpectedValue returns odd * (probability/100) - 1 rounded to 3 decimals.
// probability is a percentage. ok is false when the odd is not positive or
// the probability is missing (zero or negative).
//
// ExpectedValue(60, 2.0) = 0.2
// ExpectedValue(50, 1.5) = -0.25
func ExpectedValue(probability, odd float64) (ev float64, ok bool) {
	if odd <= 0 || probability <= 0 || !finite(odd) || !finite(probability) {
		return 0, false
	}
	return Round(odd*(probability/100)-1, 3), true
}

// ImpliedProbability returns 100/odd rounded to 2 decimals.
// ImpliedProbability(2.0) = 50
func ImpliedProbability(odd float64) (float64, bool) {
	if odd <= 0 || !finite(odd) {
		return 0, false
	}
	return Round(100/odd, 2), true
}

// FairOdd returns the break-even decimal price 100/probability rounded to 2 decimals.
func FairOdd(probability float64) (float64, bool) {
	if probability <= 0 || !finite(probability) {
		return 0, false
	}
	return Round(100/probability, 2), true
}

// Label maps an expected value to its value label.
func Label(ev float64) ValueLabel {
	switch {
	case ev > StrongValueThreshold:
		return StrongValue
	case ev > 0:
		return SmallValue
	default:
		return NoValue
	}
}

// Evaluation is the full comparison of a quoted price against an estimated probability.
type Evaluation struct {
	Probability        float64    `json:"probability"`
	Odd                float64    `json:"odd"`
	ImpliedProbability float64    `json:"implied_probability"`
	FairOdd            float64    `json:"fair_odd"`
	ExpectedValue      float64    `json:"expected_value"`
	Label              ValueLabel `json:"label"`
}

// Evaluate compares odd against probability. ok is false when either input is unusable.
func Evaluate(probability, odd float64) (Evaluation, bool) {
	ev, ok := ExpectedValue(probability, odd)
	if !ok {
		return Evaluation{}, false
	}
	implied, _ := ImpliedProbability(odd)
	fair, _ := FairOdd(probability)
	return Evaluation{
		Probability:        probability,
		Odd:                odd,
		ImpliedProbability: implied,
		FairOdd:            fair,
		ExpectedValue:      ev,
		Label:              Label(ev),
	}, true
}

// Round rounds x half to even to the given number of decimal places.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.RoundToEven(x*p) / p
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
