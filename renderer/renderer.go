// Package renderer formats risk indicators, optimised portfolios and retirement simulations as
// markdown reports, ordered JSON documents and charts.
package renderer

import (
	"fmt"
	"math"

	"github.com/etnz/riskplan"
)

// pct formats a ratio (0.125) as a percentage (12.50%).
func pct(r float64) string { return riskplan.Ratio(r).String() }

// signedPct formats a ratio as a signed percentage, used for losses and returns.
func signedPct(r float64) string { return riskplan.Ratio(r).SignedString() }

// number formats a dimensionless figure like a Sharpe ratio or a correlation.
func number(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", x)
}

// confidence formats a confidence level (0.95) as a column label (95%).
func confidence(c float64) string { return fmt.Sprintf("%g%%", c*100) }

// weights formats the weights in percent, in the order of the instruments.
func weightRows(instruments []string, w []float64) [][]string {
	rows := make([][]string, 0, len(instruments))
	for i, ticker := range instruments {
		rows = append(rows, []string{ticker, pct(w[i])})
	}
	return rows
}
