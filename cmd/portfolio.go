package cmd

import (
	"context"
	"flag"
	"slices"
	"strconv"
	"strings"

	"github.com/google/subcommands"
	"gonum.org/v1/gonum/mat"

	"github.com/etnz/riskplan"
	"github.com/etnz/riskplan/config"
	"github.com/etnz/riskplan/portfolio"
	"github.com/etnz/riskplan/renderer"
	"github.com/etnz/riskplan/risk"
)

// inputs are the annualized returns and covariance of the instruments of the market.
type inputs struct {
	instruments []string
	mu          []float64
	cov         *mat.SymDense
}

// loadInputs estimates the optimiser inputs over the lookback window, restricted to tickers
// when some are given.
func loadInputs(cfg *config.Config, lookback string, tickers ...string) (*inputs, error) {
	m, _, err := loadMarket(cfg, lookback)
	if err != nil {
		return nil, err
	}
	if m, err = m.Select(tickers...); err != nil {
		return nil, riskplan.Configf("weights", tickers, "%v", err)
	}
	fr, err := frame(cfg, m)
	if err != nil {
		return nil, err
	}
	mu, cov, err := risk.AnnualizedInputs(fr, cfg.Risk.TradingDays)
	if err != nil {
		return nil, err
	}
	return &inputs{instruments: fr.Instruments, mu: mu, cov: cov}, nil
}

func newOptimizer(cfg *config.Config) *portfolio.Optimizer {
	return portfolio.NewOptimizer(
		portfolio.WithLogger(newLogger(cfg)),
		portfolio.WithMaxIterations(cfg.Portfolio.MaxIterations),
	)
}

// parseWeights parses "AAA=2,BBB=1" into tickers and raw weights.
func parseWeights(s string) (tickers []string, raw []float64, err error) {
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		ticker, value, ok := strings.Cut(item, "=")
		ticker = strings.TrimSpace(ticker)
		if !ok || ticker == "" {
			return nil, nil, riskplan.Configf("weights", item, "want TICKER=WEIGHT")
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, nil, riskplan.Configf("weights", item, "invalid weight: %v", err)
		}
		if slices.Contains(tickers, ticker) {
			return nil, nil, riskplan.Configf("weights", ticker, "duplicated ticker")
		}
		tickers = append(tickers, ticker)
		raw = append(raw, w)
	}
	if len(tickers) == 0 {
		return nil, nil, riskplan.Configf("weights", s, "no weight, use -w TICKER=WEIGHT,...")
	}
	return tickers, raw, nil
}

// align orders the raw weights like the instruments.
func align(instruments, tickers []string, raw []float64) []float64 {
	aligned := make([]float64, len(instruments))
	for i, ticker := range tickers {
		aligned[slices.Index(instruments, ticker)] = raw[i]
	}
	return aligned
}

// summaryCmd holds the flags for the 'summary' subcommand.
type summaryCmd struct {
	weights  string
	lookback string
	rf       float64
	json     bool
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "display the expected return and risk of a portfolio" }
func (*summaryCmd) Usage() string {
	return `rplan summary -w TICKER=WEIGHT,... [-lookback -6m] [-rf <rate>] [-json]

  Displays the expected return, volatility and Sharpe ratio of a portfolio. Weights are
  relative, they are normalized to sum to 100%.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.weights, "w", "", "Weights of the portfolio, e.g. AAA=2,BBB=1.")
	f.StringVar(&c.lookback, "lookback", "", "Start of the window, relative to the last day (e.g. -6m) or absolute. Defaults to the configuration.")
	f.Float64Var(&c.rf, "rf", 0, "Annual risk free rate. Defaults to the configuration.")
	f.BoolVar(&c.json, "json", false, "Export the summary as JSON.")
}

func (c *summaryCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	tickers, raw, err := parseWeights(c.weights)
	if err != nil {
		return status("parsing weights", err)
	}
	cfg, err := loadConfig()
	if err != nil {
		return status("loading configuration", err)
	}
	if isSet(f, "rf") {
		cfg.Risk.RiskFreeRate = c.rf
	}
	in, err := loadInputs(cfg, c.lookback, tickers...)
	if err != nil {
		return status("estimating returns", err)
	}
	w, err := portfolio.NormalizeWeights(align(in.instruments, tickers, raw))
	if err != nil {
		return status("normalizing weights", err)
	}
	s := portfolio.Summarize(w, in.mu, in.cov, cfg.Risk.RiskFreeRate)

	if c.json {
		return printJSON(renderer.PortfolioJSON("", in.instruments, w, s))
	}
	printMarkdown(renderer.SummaryMarkdown("Portfolio Summary", in.instruments, w, s))
	return subcommands.ExitSuccess
}

// optimizeCmd holds the flags for the 'optimize' subcommand.
type optimizeCmd struct {
	objective string
	lookback  string
	rf        float64
	json      bool
}

func (*optimizeCmd) Name() string     { return "optimize" }
func (*optimizeCmd) Synopsis() string { return "find the optimal long only portfolio" }
func (*optimizeCmd) Usage() string {
	return `rplan optimize [-objective max-sharpe|min-volatility] [-lookback -6m] [-rf <rate>] [-json]

  Finds the long only portfolio of the market instruments maximizing the Sharpe ratio or
  minimizing the volatility.
`
}

func (c *optimizeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.objective, "objective", "", "max-sharpe or min-volatility. Defaults to the configuration.")
	f.StringVar(&c.lookback, "lookback", "", "Start of the window, relative to the last day (e.g. -6m) or absolute. Defaults to the configuration.")
	f.Float64Var(&c.rf, "rf", 0, "Annual risk free rate. Defaults to the configuration.")
	f.BoolVar(&c.json, "json", false, "Export the portfolio as JSON.")
}

func (c *optimizeCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		return status("loading configuration", err)
	}
	if c.objective != "" {
		cfg.Portfolio.Objective = c.objective
	}
	if isSet(f, "rf") {
		cfg.Risk.RiskFreeRate = c.rf
	}
	objective, err := cfg.Objective()
	if err != nil {
		return status("parsing objective", err)
	}
	in, err := loadInputs(cfg, c.lookback)
	if err != nil {
		return status("estimating returns", err)
	}
	w, err := newOptimizer(cfg).Optimize(in.mu, in.cov, cfg.Risk.RiskFreeRate, objective)
	if err != nil {
		return status("optimizing", err)
	}
	s := portfolio.Summarize(w, in.mu, in.cov, cfg.Risk.RiskFreeRate)

	if c.json {
		return printJSON(renderer.PortfolioJSON(objective.String(), in.instruments, w, s))
	}
	printMarkdown(renderer.OptimizeMarkdown(objective, in.instruments, w, s))
	return subcommands.ExitSuccess
}

// frontierCmd holds the flags for the 'frontier' subcommand.
type frontierCmd struct {
	points   int
	lookback string
	rf       float64
	json     bool
}

func (*frontierCmd) Name() string     { return "frontier" }
func (*frontierCmd) Synopsis() string { return "compute the efficient frontier" }
func (*frontierCmd) Usage() string {
	return `rplan frontier [-points 30] [-lookback -6m] [-rf <rate>] [-json]

  Computes the least volatile long only portfolio for evenly spaced target returns, and the
  minimum volatility and maximum Sharpe portfolios.
`
}

func (c *frontierCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.points, "points", 0, "Number of frontier points. Defaults to the configuration.")
	f.StringVar(&c.lookback, "lookback", "", "Start of the window, relative to the last day (e.g. -6m) or absolute. Defaults to the configuration.")
	f.Float64Var(&c.rf, "rf", 0, "Annual risk free rate. Defaults to the configuration.")
	f.BoolVar(&c.json, "json", false, "Export the frontier as JSON.")
}

func (c *frontierCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		return status("loading configuration", err)
	}
	if isSet(f, "points") {
		cfg.Portfolio.FrontierPoints = c.points
	}
	if isSet(f, "rf") {
		cfg.Risk.RiskFreeRate = c.rf
	}
	in, err := loadInputs(cfg, c.lookback)
	if err != nil {
		return status("estimating returns", err)
	}
	fr, err := newOptimizer(cfg).Frontier(in.mu, in.cov, cfg.Risk.RiskFreeRate, cfg.Portfolio.FrontierPoints)
	if err != nil {
		return status("computing frontier", err)
	}

	if c.json {
		return printJSON(renderer.FrontierJSON(in.instruments, fr))
	}
	printMarkdown(renderer.FrontierMarkdown(in.instruments, fr))
	return subcommands.ExitSuccess
}
