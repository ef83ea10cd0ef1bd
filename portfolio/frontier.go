package portfolio

import (
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/etnz/riskplan"
)

// Point is a portfolio of the efficient frontier.
type Point struct {
	TargetReturn float64
	Return       float64 // achieved, equal to TargetReturn within the solver tolerance
	Volatility   float64
	Weights      Weights
}

// Frontier is the efficient frontier: the least volatile portfolio for a range of target
// returns, together with the global minimum volatility and maximum Sharpe portfolios.
type Frontier struct {
	Points        []Point // by increasing target return
	MinVolatility Point
	MaxSharpe     Point
}

func newPoint(target float64, w Weights, mu []float64, cov mat.Symmetric) Point {
	return Point{TargetReturn: target, Return: Return(w, mu), Volatility: Volatility(w, cov), Weights: w}
}

// Frontier computes numPoints portfolios with target returns evenly spaced between the lowest
// and the highest mean return of the instruments.
//
// Each point is the least volatile long-only portfolio whose return is the target. Targets the
// solver cannot reach are skipped. When every instrument has the same mean return, the
// frontier is reduced to the minimum volatility portfolio.
func (o *Optimizer) Frontier(mu []float64, cov mat.Symmetric, riskFreeRate float64, numPoints int) (*Frontier, error) {
	if err := checkInputs(mu, cov); err != nil {
		return nil, err
	}
	if numPoints < 2 {
		return nil, riskplan.Configf("points", numPoints, "must be at least 2")
	}
	if _, err := o.factorize("frontier", cov, Attempt{Instruments: len(mu), RiskFreeRate: riskFreeRate}); err != nil {
		return nil, err
	}

	minVol, err := o.Optimize(mu, cov, riskFreeRate, MinimizeVolatility)
	if err != nil {
		return nil, err
	}
	maxSharpe, err := o.Optimize(mu, cov, riskFreeRate, MaximizeSharpe)
	if err != nil {
		return nil, err
	}
	f := &Frontier{
		MinVolatility: newPoint(Return(minVol, mu), minVol, mu, cov),
		MaxSharpe:     newPoint(Return(maxSharpe, mu), maxSharpe, mu, cov),
	}

	lo, hi := floats.Min(mu), floats.Max(mu)
	if lo == hi {
		f.Points = []Point{f.MinVolatility}
		return f, nil
	}

	for i := 0; i < numPoints; i++ {
		target := lo + (hi-lo)*float64(i)/float64(numPoints-1)
		var w Weights
		switch i {
		case 0:
			w, err = o.extreme(mu, cov, lo)
		case numPoints - 1:
			w, err = o.extreme(mu, cov, hi)
		default:
			w, err = o.targetReturn(mu, cov, target)
		}
		if err != nil {
			o.log.Debug("frontier target skipped", zap.Float64("target", target), zap.Error(err))
			continue
		}
		f.Points = append(f.Points, newPoint(target, w, mu, cov))
	}
	return f, nil
}

// extreme returns the least volatile portfolio among the instruments whose mean return is
// exactly target: the only portfolios reaching the lowest (or highest) mean return.
func (o *Optimizer) extreme(mu []float64, cov mat.Symmetric, target float64) (Weights, error) {
	var indexes []int
	for i, m := range mu {
		if m == target {
			indexes = append(indexes, i)
		}
	}
	subMu := make([]float64, len(indexes))
	for j, i := range indexes {
		subMu[j] = mu[i]
	}
	subW, err := o.Optimize(subMu, sub(cov, indexes), 0, MinimizeVolatility)
	if err != nil {
		return nil, err
	}
	w := make(Weights, len(mu))
	for j, i := range indexes {
		w[i] = subW[j]
	}
	return w, nil
}

// targetReturn returns the least volatile long-only portfolio with return target, strictly
// between the lowest and the highest mean. The search starts from the mix of the lowest and
// the highest mean instruments that reaches the target.
func (o *Optimizer) targetReturn(mu []float64, cov mat.Symmetric, target float64) (Weights, error) {
	lo, hi := floats.MinIdx(mu), floats.MaxIdx(mu)
	start := make([]float64, len(mu))
	start[lo] = (mu[hi] - target) / (mu[hi] - mu[lo])
	start[hi] = (target - mu[lo]) / (mu[hi] - mu[lo])
	w, err := o.leastVariance(cov, [][]float64{ones(len(mu)), mu}, start)
	if err != nil {
		attempt := Attempt{Objective: "min-volatility", TargetReturn: target, Instruments: len(mu)}
		return nil, o.fail("frontier", attempt, "solver did not converge", err)
	}
	return cleanWeights(w), nil
}
