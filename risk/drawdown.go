package risk

import (
	"github.com/etnz/riskplan"
	"github.com/etnz/riskplan/date"
)

// Drawdown returns, for every day of the history, the relative distance of the price to its
// running maximum: 0 at a new high, -0.25 when 25% below the highest price seen so far.
func Drawdown(prices *date.History[float64]) (Series, error) {
	if prices == nil || prices.Len() == 0 {
		return Series{}, &riskplan.InsufficientDataError{What: "prices", Need: 1, Got: 0}
	}
	var s Series
	peak := 0.0
	for on, p := range prices.Values() {
		peak = max(peak, p)
		s.Days = append(s.Days, on)
		s.Values = append(s.Values, p/peak-1)
	}
	return s, nil
}

// MaxDrawdown returns the deepest drawdown of the history (a value ≤ 0).
func MaxDrawdown(prices *date.History[float64]) (float64, error) {
	s, err := Drawdown(prices)
	if err != nil {
		return 0, err
	}
	worst := 0.0
	for _, d := range s.Values {
		worst = min(worst, d)
	}
	return worst, nil
}
