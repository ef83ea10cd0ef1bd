// Package portfolio builds long-only mean-variance portfolios: weights normalisation, portfolio
// return and volatility, optimal allocations and the efficient frontier.
//
// Mean returns and covariance are expected annualised (see risk.AnnualizedInputs). Weights are
// always on the simplex: non negative and summing to one.
package portfolio

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/etnz/riskplan"
)

// Weights are portfolio weights aligned with a list of instruments.
type Weights []float64

// NormalizeWeights divides every weight by their sum.
//
// Short positions are not allowed: a negative weight is an error, so is a zero sum.
func NormalizeWeights(raw []float64) (Weights, error) {
	if len(raw) == 0 {
		return nil, riskplan.Configf("weights", raw, "must not be empty")
	}
	for _, x := range raw {
		if x < 0 || math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, riskplan.Configf("weights", raw, "must be finite and non negative (short selling is not allowed)")
		}
	}
	sum := floats.Sum(raw)
	if sum == 0 {
		return nil, riskplan.Configf("weights", raw, "must not sum to zero")
	}
	w := make(Weights, len(raw))
	floats.ScaleTo(w, 1/sum, raw)
	return w, nil
}

// EqualWeights returns n equal weights: the fallback allocation when optimisation fails.
func EqualWeights(n int) Weights {
	w := make(Weights, n)
	for i := range w {
		w[i] = 1 / float64(n)
	}
	return w
}

// Return returns the expected return of the portfolio: Σ wᵢμᵢ.
func Return(w Weights, mu []float64) float64 { return floats.Dot(w, mu) }

// Volatility returns the volatility of the portfolio: sqrt(wᵀΣw).
func Volatility(w Weights, cov mat.Symmetric) float64 {
	v := mat.NewVecDense(len(w), w)
	return math.Sqrt(math.Max(0, mat.Inner(v, cov, v)))
}

// Summary describes a portfolio.
type Summary struct {
	ExpectedReturn float64
	Volatility     float64
	SharpeRatio    float64 // NaN when the volatility is zero
}

// Summarize computes the summary of a portfolio.
func Summarize(w Weights, mu []float64, cov mat.Symmetric, riskFreeRate float64) Summary {
	s := Summary{
		ExpectedReturn: Return(w, mu),
		Volatility:     Volatility(w, cov),
		SharpeRatio:    math.NaN(),
	}
	if s.Volatility > 0 {
		s.SharpeRatio = (s.ExpectedReturn - riskFreeRate) / s.Volatility
	}
	return s
}

// checkInputs verifies that mu and cov describe the same instruments.
func checkInputs(mu []float64, cov mat.Symmetric) error {
	if len(mu) == 0 {
		return riskplan.Configf("mean returns", mu, "must not be empty")
	}
	if cov == nil || cov.SymmetricDim() != len(mu) {
		dim := 0
		if cov != nil {
			dim = cov.SymmetricDim()
		}
		return riskplan.Configf("covariance", dim, "dimension must match the %d mean returns", len(mu))
	}
	for _, m := range mu {
		if math.IsNaN(m) || math.IsInf(m, 0) {
			return riskplan.Configf("mean returns", mu, "must be finite")
		}
	}
	return nil
}
