package renderer

import (
	"encoding/json"
	"fmt"

	"github.com/etnz/riskplan"
	"github.com/etnz/riskplan/date"
	"github.com/etnz/riskplan/portfolio"
	"github.com/etnz/riskplan/retirement"
	"github.com/etnz/riskplan/risk"
)

// keyed builds an object with one entry per instrument, in the instruments order.
func keyed(instruments []string, values []float64) *riskplan.ObjectWriter {
	var w riskplan.ObjectWriter
	for i, ticker := range instruments {
		w.Append(ticker, values[i])
	}
	return &w
}

// byConfidence builds an object keyed by confidence level ("0.95").
func byConfidence(confidences, values []float64) *riskplan.ObjectWriter {
	var w riskplan.ObjectWriter
	for i, c := range confidences {
		w.Append(fmt.Sprint(c), values[i])
	}
	return &w
}

// MetricsJSON exports the risk indicators.
func MetricsJSON(period date.Range, metrics []risk.Metrics) ([]byte, error) {
	rows := make([]json.RawMessage, 0, len(metrics))
	for _, m := range metrics {
		var w riskplan.ObjectWriter
		w.Append("instrument", m.Instrument)
		if m.Err != nil {
			w.Append("error", m.Err.Error())
		} else {
			w.Append("observations", m.Observations).
				Append("annualized_volatility", m.AnnualizedVolatility).
				Append("parametric_var", byConfidence(m.Confidences, m.ParametricVaR)).
				Append("historical_var", byConfidence(m.Confidences, m.HistoricalVaR)).
				Append("conditional_var", byConfidence(m.Confidences, m.ConditionalVaR)).
				Append("sharpe_ratio", m.SharpeRatio).
				Append("max_drawdown", m.MaxDrawdown)
			var rolling riskplan.ObjectWriter
			for i, window := range m.Windows {
				rolling.Append(fmt.Sprint(window), m.RollingVolatility[i])
			}
			w.Append("rolling_volatility", &rolling)
		}
		row, err := w.MarshalJSON()
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	var w riskplan.ObjectWriter
	w.Append("from", period.From).
		Append("to", period.To).
		Append("metrics", rows)
	return w.MarshalJSON()
}

// CorrelationJSON exports the correlation matrix, rows and columns in the instruments order.
func CorrelationJSON(c risk.CorrelationMatrix) ([]byte, error) {
	n := len(c.Instruments)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		for j := range matrix[i] {
			matrix[i][j] = c.At(i, j)
		}
	}
	var w riskplan.ObjectWriter
	w.Append("instruments", c.Instruments).
		Append("matrix", matrix)
	return w.MarshalJSON()
}

// PortfolioJSON exports a portfolio and its summary. The objective is omitted when empty.
func PortfolioJSON(objective string, instruments []string, weights portfolio.Weights, s portfolio.Summary) ([]byte, error) {
	var w riskplan.ObjectWriter
	w.Optional("objective", objective).
		Append("expected_return", s.ExpectedReturn).
		Append("volatility", s.Volatility).
		Append("sharpe_ratio", s.SharpeRatio).
		Append("weights", keyed(instruments, weights))
	return w.MarshalJSON()
}

func pointJSON(instruments []string, p portfolio.Point) *riskplan.ObjectWriter {
	var w riskplan.ObjectWriter
	w.Append("target_return", p.TargetReturn).
		Append("return", p.Return).
		Append("volatility", p.Volatility).
		Append("weights", keyed(instruments, p.Weights))
	return &w
}

// FrontierJSON exports the efficient frontier.
func FrontierJSON(instruments []string, f *portfolio.Frontier) ([]byte, error) {
	points := make([]*riskplan.ObjectWriter, 0, len(f.Points))
	for _, p := range f.Points {
		points = append(points, pointJSON(instruments, p))
	}
	var w riskplan.ObjectWriter
	w.Append("min_volatility", pointJSON(instruments, f.MinVolatility)).
		Append("max_sharpe", pointJSON(instruments, f.MaxSharpe)).
		Append("points", points)
	return w.MarshalJSON()
}

// SimulationJSON exports the statistics of a simulation. Paths are not exported.
func SimulationJSON(res *retirement.Result, currency string) ([]byte, error) {
	var fan riskplan.ObjectWriter
	for i, q := range retirement.FanPercentiles {
		fan.Append(fmt.Sprintf("p%g", q), res.Fan[i])
	}
	var final riskplan.ObjectWriter
	for i, q := range retirement.FinalPercentiles {
		final.Append(fmt.Sprintf("p%g", q), riskplan.M(res.FinalDistribution[i], currency))
	}
	var w riskplan.ObjectWriter
	w.Append("parameters", res.Parameters).
		Append("paths", len(res.Paths)).
		Append("target_wealth", riskplan.M(res.TargetWealth, currency)).
		Append("success_probability", res.SuccessProbability).
		Append("ruin_probability", res.RuinProbability).
		Append("estimated_required_contribution", riskplan.M(res.EstimatedRequiredContribution, currency)).
		Append("final_distribution", &final).
		Append("ages", res.Ages).
		Append("fan", &fan)
	return w.MarshalJSON()
}
