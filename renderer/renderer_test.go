package renderer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"gonum.org/v1/gonum/mat"

	"github.com/etnz/riskplan/date"
	"github.com/etnz/riskplan/docs"
	"github.com/etnz/riskplan/portfolio"
	"github.com/etnz/riskplan/retirement"
	"github.com/etnz/riskplan/risk"
)

// outline is the structure of a markdown document: its headings and the number of body rows of
// each table.
type outline struct {
	headings []string
	rows     []int
}

func parse(t *testing.T, markdown string) outline {
	t.Helper()
	source := []byte(markdown)
	doc := goldmark.New(goldmark.WithExtensions(extension.Table)).Parser().Parse(text.NewReader(source))

	var o outline
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindHeading:
			o.headings = append(o.headings, string(n.Text(source)))
			return ast.WalkSkipChildren, nil
		case extast.KindTable:
			rows := 0
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				if c.Kind() == extast.KindTableRow {
					rows++
				}
			}
			o.rows = append(o.rows, rows)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	require.NoError(t, err)
	return o
}

var period = date.NewRange(date.New(2025, 1, 1), date.New(2025, 6, 30))

func metrics() []risk.Metrics {
	return []risk.Metrics{
		{
			Instrument:           "AAA",
			Observations:         120,
			AnnualizedVolatility: 0.2,
			Confidences:          []float64{0.95, 0.99},
			ParametricVaR:        []float64{-0.02, -0.03},
			HistoricalVaR:        []float64{-0.018, -0.029},
			ConditionalVaR:       []float64{-0.025, -0.035},
			SharpeRatio:          math.NaN(),
			MaxDrawdown:          -0.15,
			Windows:              []int{21, 63},
			RollingVolatility:    []float64{0.18, math.NaN()},
		},
		{Instrument: "BBB", Err: errors.New("not enough prices")},
	}
}

func TestRiskMarkdown(t *testing.T) {
	got := RiskMarkdown(period, metrics())
	o := parse(t, got)

	assert.Equal(t, []string{"Risk Indicators 2025-01-01..2025-06-30", "Rolling Volatility", "Not Measured"}, o.headings)
	assert.Equal(t, []int{1, 1}, o.rows)
	for _, want := range []string{"VaR 95%", "CVaR 99%", "20.00%", "-2.00%", "-15.00%", "n/a", "not enough prices"} {
		assert.Contains(t, got, want)
	}
}

func TestRiskMarkdownAllFailed(t *testing.T) {
	got := RiskMarkdown(period, metrics()[1:])
	o := parse(t, got)

	assert.Equal(t, []string{"Risk Indicators 2025-01-01..2025-06-30", "Not Measured"}, o.headings)
	assert.Empty(t, o.rows)
}

func TestCorrelationMarkdown(t *testing.T) {
	c := risk.CorrelationMatrix{
		Instruments: []string{"AAA", "BBB", "CCC"},
		SymDense: mat.NewSymDense(3, []float64{
			1, 0.5, -0.25,
			0.5, 1, 0,
			-0.25, 0, 1,
		}),
	}
	got := CorrelationMarkdown(period, c)
	o := parse(t, got)

	assert.Equal(t, []string{"Correlation 2025-01-01..2025-06-30"}, o.headings)
	assert.Equal(t, []int{3}, o.rows)
	assert.Contains(t, got, "-0.25")
	assert.Contains(t, got, "1.00")
}

func TestOptimizeMarkdown(t *testing.T) {
	w := portfolio.Weights{0.6, 0.4}
	s := portfolio.Summary{ExpectedReturn: 0.084, Volatility: 0.12, SharpeRatio: 0.5333}
	got := OptimizeMarkdown(portfolio.MaximizeSharpe, []string{"AAA", "BBB"}, w, s)
	o := parse(t, got)

	assert.Equal(t, []string{"Optimal Portfolio (max-sharpe)", "Weights"}, o.headings)
	assert.Equal(t, []int{2, 2}, o.rows)
	for _, want := range []string{"+8.40%", "12.00%", "0.53", "60.00%", "40.00%"} {
		assert.Contains(t, got, want)
	}
}

func frontier() *portfolio.Frontier {
	minVol := portfolio.Point{TargetReturn: 0.07, Return: 0.07, Volatility: 0.1, Weights: portfolio.Weights{0.25, 0.75}}
	maxSharpe := portfolio.Point{TargetReturn: 0.084, Return: 0.084, Volatility: 0.12, Weights: portfolio.Weights{0.6, 0.4}}
	return &portfolio.Frontier{
		Points: []portfolio.Point{
			{TargetReturn: 0.06, Return: 0.06, Volatility: 0.15, Weights: portfolio.Weights{0, 1}},
			minVol,
			{TargetReturn: 0.1, Return: 0.1, Volatility: 0.2, Weights: portfolio.Weights{1, 0}},
		},
		MinVolatility: minVol,
		MaxSharpe:     maxSharpe,
	}
}

func TestFrontierMarkdown(t *testing.T) {
	got := FrontierMarkdown([]string{"AAA", "BBB"}, frontier())
	o := parse(t, got)

	assert.Equal(t, []string{"Efficient Frontier", "Points"}, o.headings)
	assert.Equal(t, []int{2, 3}, o.rows)
	assert.Contains(t, got, "Minimum Volatility")
	assert.Contains(t, got, "75.00%")
}

func simulation(t *testing.T) *retirement.Result {
	t.Helper()
	p := retirement.Parameters{
		CurrentAge:         30,
		RetirementAge:      40,
		HorizonAge:         50,
		InitialWealth:      10000,
		Income:             60000,
		Expenses:           40000,
		ContributionGrowth: 0.02,
		WithdrawalRate:     0.04,
		Inflation:          0.03,
		AssumedReturn:      0.05,
		AssumedVolatility:  0.12,
		PathCount:          200,
		Seed:               7,
	}
	res, err := retirement.NewSimulator().Run(context.Background(), p)
	require.NoError(t, err)
	return res
}

func TestSimulationMarkdown(t *testing.T) {
	res := simulation(t)
	got := SimulationMarkdown(res, "USD")
	o := parse(t, got)

	assert.Equal(t, []string{"Retirement Simulation (200 paths)", "Plan", "Final Wealth", "Projection"}, o.headings)
	// the contribution was not searched for: no row for it.
	assert.Equal(t, []int{2, 10, len(retirement.FinalPercentiles), 20}, o.rows)
	assert.NotContains(t, got, "Required Extra Contribution")
	assert.Contains(t, got, "$10,000.00")

	res.EstimatedRequiredContribution = 1234
	got = SimulationMarkdown(res, "USD")
	assert.Equal(t, 3, parse(t, got).rows[0])
	assert.Contains(t, got, "$1,234.00")
}

func TestMetricsJSON(t *testing.T) {
	raw, err := MetricsJSON(period, metrics())
	require.NoError(t, err)

	var got struct {
		From    string `json:"from"`
		To      string `json:"to"`
		Metrics []struct {
			Instrument         string              `json:"instrument"`
			Error              string              `json:"error"`
			ParametricVaR      map[string]float64  `json:"parametric_var"`
			SharpeRatio        *float64            `json:"sharpe_ratio"`
			RollingVolatility  map[string]*float64 `json:"rolling_volatility"`
			AnnualizedVolality float64             `json:"annualized_volatility"`
		} `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "2025-01-01", got.From)
	assert.Equal(t, "2025-06-30", got.To)
	require.Len(t, got.Metrics, 2)

	a := got.Metrics[0]
	assert.Equal(t, "AAA", a.Instrument)
	assert.Equal(t, 0.2, a.AnnualizedVolality)
	assert.Equal(t, map[string]float64{"0.95": -0.02, "0.99": -0.03}, a.ParametricVaR)
	assert.Nil(t, a.SharpeRatio, "NaN is exported as null")
	require.NotNil(t, a.RollingVolatility["21"])
	assert.Equal(t, 0.18, *a.RollingVolatility["21"])
	assert.Nil(t, a.RollingVolatility["63"])

	assert.Equal(t, "BBB", got.Metrics[1].Instrument)
	assert.Equal(t, "not enough prices", got.Metrics[1].Error)

	// key order follows the writing order.
	assert.Less(t, bytes.Index(raw, []byte(`"parametric_var"`)), bytes.Index(raw, []byte(`"historical_var"`)))
}

func TestFrontierJSON(t *testing.T) {
	raw, err := FrontierJSON([]string{"AAA", "BBB"}, frontier())
	require.NoError(t, err)

	var got struct {
		MinVolatility struct {
			Volatility float64            `json:"volatility"`
			Weights    map[string]float64 `json:"weights"`
		} `json:"min_volatility"`
		Points []json.RawMessage `json:"points"`
	}
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, 0.1, got.MinVolatility.Volatility)
	assert.Equal(t, map[string]float64{"AAA": 0.25, "BBB": 0.75}, got.MinVolatility.Weights)
	assert.Len(t, got.Points, 3)
}

func TestPortfolioJSON(t *testing.T) {
	raw, err := PortfolioJSON("", []string{"AAA", "BBB"}, portfolio.Weights{0.5, 0.5}, portfolio.Summary{SharpeRatio: math.NaN()})
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(raw), "objective"), "empty objective is omitted")
	assert.Contains(t, string(raw), `"sharpe_ratio":null`)
	assert.Contains(t, string(raw), `"weights":{"AAA":0.5,"BBB":0.5}`)
}

func TestSimulationJSON(t *testing.T) {
	res := simulation(t)
	raw, err := SimulationJSON(res, "EUR")
	require.NoError(t, err)

	var got struct {
		Parameters retirement.Parameters `json:"parameters"`
		Paths      int                   `json:"paths"`
		Required   struct {
			Currency string   `json:"currency"`
			Amount   *float64 `json:"amount"`
		} `json:"estimated_required_contribution"`
		Ages []int                `json:"ages"`
		Fan  map[string][]float64 `json:"fan"`
	}
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, res.Parameters, got.Parameters)
	assert.Equal(t, 200, got.Paths)
	assert.Equal(t, "EUR", got.Required.Currency)
	assert.Nil(t, got.Required.Amount)
	assert.Equal(t, res.Ages, got.Ages)
	assert.Len(t, got.Fan, len(retirement.FanPercentiles))
	assert.Len(t, got.Fan["p50"], 20)
}

func TestFanChart(t *testing.T) {
	buf, err := FanChart(simulation(t))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf, []byte("\x89PNG")), "chart is a PNG image")

	_, err = FanChart(&retirement.Result{})
	assert.Error(t, err)
}

func TestTopicsMarkdown(t *testing.T) {
	topics := []docs.Topic{{Name: "risk", Title: "Risk indicators"}, {Name: "simulate", Title: "Retirement simulation"}}
	got := TopicsMarkdown(topics)

	o := parse(t, got)
	assert.Equal(t, []string{"Topics"}, o.headings)
	assert.Equal(t, []int{2}, o.rows)
	assert.Contains(t, got, "`simulate`")
	assert.Contains(t, got, "Retirement simulation")
}
