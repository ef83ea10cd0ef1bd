package risk

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/etnz/riskplan"
)

// CorrelationMatrix is the Pearson correlation between the instruments of a Frame.
type CorrelationMatrix struct {
	Instruments []string
	*mat.SymDense
}

// observations returns the frame as a matrix with one row per day and one column per
// instrument.
func (f *Frame) observations() *mat.Dense {
	n, m := f.Len(), len(f.Instruments)
	data := make([]float64, 0, n*m)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			data = append(data, f.Columns[j][i])
		}
	}
	return mat.NewDense(n, m, data)
}

// Correlation computes the correlation matrix of the frame.
//
// The matrix is symmetric, its diagonal is exactly 1 and every entry lies in [-1, 1]. An
// instrument with a constant return has no defined correlation: it is reported as 0 with every
// other instrument.
func Correlation(f *Frame) CorrelationMatrix {
	m := len(f.Instruments)
	corr := mat.NewSymDense(m, nil)
	if f.Len() >= 2 {
		stat.CorrelationMatrix(corr, f.observations(), nil)
	}
	for i := 0; i < m; i++ {
		for j := i; j < m; j++ {
			c := corr.At(i, j)
			switch {
			case i == j:
				c = 1
			case math.IsNaN(c):
				c = 0
			default:
				c = math.Max(-1, math.Min(1, c))
			}
			corr.SetSym(i, j, c)
		}
	}
	return CorrelationMatrix{Instruments: f.Instruments, SymDense: corr}
}

// AnnualizedInputs returns the inputs of the portfolio optimiser: the annualised mean returns
// (mean × tradingDays) and the annualised sample covariance matrix (covariance × tradingDays).
func AnnualizedInputs(f *Frame, tradingDays int) (mu []float64, cov *mat.SymDense, err error) {
	if f.Len() < 2 {
		return nil, nil, &riskplan.InsufficientDataError{What: "aligned returns", Need: 2, Got: f.Len()}
	}
	mu = make([]float64, len(f.Instruments))
	for j, col := range f.Columns {
		mu[j] = stat.Mean(col, nil) * float64(tradingDays)
	}
	cov = new(mat.SymDense)
	stat.CovarianceMatrix(cov, f.observations(), nil)
	cov.ScaleSym(float64(tradingDays), cov)
	return mu, cov, nil
}
