package risk

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/etnz/riskplan"
)

// DefaultConfidences are the confidence levels reported by default.
var DefaultConfidences = []float64{0.95, 0.99}

func checkReturns(returns []float64) error {
	if len(returns) == 0 {
		return &riskplan.InsufficientDataError{What: "returns", Need: 1, Got: 0}
	}
	return nil
}

func checkConfidence(confidence float64) error {
	if !(confidence > 0 && confidence < 1) {
		return riskplan.Configf("confidence", confidence, "must be in (0, 1) exclusive")
	}
	return nil
}

// AnnualizedVolatility returns the sample standard deviation of returns scaled by
// sqrt(tradingDays). A single return has no standard deviation: the result is NaN.
func AnnualizedVolatility(returns []float64, tradingDays int) (float64, error) {
	if err := checkReturns(returns); err != nil {
		return math.NaN(), err
	}
	return stat.StdDev(returns, nil) * math.Sqrt(float64(tradingDays)), nil
}

// ParametricVaR returns the value-at-risk at the given confidence assuming normally
// distributed returns: mean + stddev × Φ⁻¹(1 − confidence).
//
// VaR is expressed as a return: a loss is negative.
func ParametricVaR(returns []float64, confidence float64) (float64, error) {
	if err := checkConfidence(confidence); err != nil {
		return math.NaN(), err
	}
	if err := checkReturns(returns); err != nil {
		return math.NaN(), err
	}
	mean, std := stat.MeanStdDev(returns, nil)
	return mean + std*distuv.UnitNormal.Quantile(1-confidence), nil
}

// HistoricalVaR returns the empirical (1 − confidence) quantile of returns.
func HistoricalVaR(returns []float64, confidence float64) (float64, error) {
	if err := checkConfidence(confidence); err != nil {
		return math.NaN(), err
	}
	if err := checkReturns(returns); err != nil {
		return math.NaN(), err
	}
	sorted := slices.Clone(returns)
	slices.Sort(sorted)
	return Quantile(sorted, 1-confidence), nil
}

// ConditionalVaR returns the expected shortfall: the mean of the returns at or below the
// historical VaR. When no return falls in the tail it is the VaR itself.
func ConditionalVaR(returns []float64, confidence float64) (float64, error) {
	threshold, err := HistoricalVaR(returns, confidence)
	if err != nil {
		return math.NaN(), err
	}
	var sum float64
	var n int
	for _, r := range returns {
		if r <= threshold {
			sum += r
			n++
		}
	}
	if n == 0 {
		return threshold, nil
	}
	return sum / float64(n), nil
}

// SharpeRatio returns (annualised mean − riskFreeRate) / annualised volatility.
// It is NaN when the volatility is zero.
func SharpeRatio(returns []float64, riskFreeRate float64, tradingDays int) (float64, error) {
	vol, err := AnnualizedVolatility(returns, tradingDays)
	if err != nil {
		return math.NaN(), err
	}
	if vol == 0 {
		return math.NaN(), nil
	}
	return (stat.Mean(returns, nil)*float64(tradingDays) - riskFreeRate) / vol, nil
}

// Quantile returns the p-quantile of sorted values, interpolating linearly between the order
// statistics around (n−1)p. sorted must be in increasing order.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	switch {
	case n == 0:
		return math.NaN()
	case p <= 0:
		return sorted[0]
	case p >= 1:
		return sorted[n-1]
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo+1 >= n {
		return sorted[n-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
