package risk

import (
	"iter"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/etnz/riskplan"
)

// DefaultWindows are the rolling windows reported by default: about one and three months of
// trading days.
var DefaultWindows = []int{21, 63}

// RollingVolatility returns the sequence of (index, annualised volatility over the trailing
// window ending at index), for every index ≥ window−1.
//
// The sequence is lazy and can be iterated several times.
func RollingVolatility(returns []float64, window, tradingDays int) (iter.Seq2[int, float64], error) {
	if window <= 0 || window > len(returns) {
		return nil, riskplan.Configf("window", window, "must be in [1, %d]", len(returns))
	}
	scale := math.Sqrt(float64(tradingDays))
	return func(yield func(int, float64) bool) {
		for i := window - 1; i < len(returns); i++ {
			vol := stat.StdDev(returns[i-window+1:i+1], nil) * scale
			if !yield(i, vol) {
				return
			}
		}
	}, nil
}

// LatestRollingVolatility returns the last value of the rolling volatility.
func LatestRollingVolatility(returns []float64, window, tradingDays int) (float64, error) {
	seq, err := RollingVolatility(returns[max(0, len(returns)-window):], window, tradingDays)
	if err != nil {
		return math.NaN(), err
	}
	last := math.NaN()
	for _, vol := range seq {
		last = vol
	}
	return last, nil
}
