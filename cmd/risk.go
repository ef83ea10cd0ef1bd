package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"github.com/etnz/riskplan/renderer"
	"github.com/etnz/riskplan/risk"
)

// isSet reports whether the flag name was given on the command line. Flags that are not set
// leave the configuration value untouched.
func isSet(f *flag.FlagSet, name string) bool {
	set := false
	f.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			set = true
		}
	})
	return set
}

// riskCmd holds the flags for the 'risk' subcommand.
type riskCmd struct {
	lookback string
	rf       float64
	method   string
	json     bool
}

func (*riskCmd) Name() string     { return "risk" }
func (*riskCmd) Synopsis() string { return "display the risk indicators of every instrument" }
func (*riskCmd) Usage() string {
	return `rplan risk [-lookback -6m] [-rf <rate>] [-method simple|log] [-json]

  Displays the annualized volatility, Value at Risk, CVaR, Sharpe ratio, maximum drawdown and
  rolling volatility of every instrument of the market file.
`
}

func (c *riskCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.lookback, "lookback", "", "Start of the window, relative to the last day (e.g. -6m) or absolute. Defaults to the configuration.")
	f.Float64Var(&c.rf, "rf", 0, "Annual risk free rate. Defaults to the configuration.")
	f.StringVar(&c.method, "method", "", "Returns method: simple or log. Defaults to the configuration.")
	f.BoolVar(&c.json, "json", false, "Export the indicators as JSON.")
}

func (c *riskCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		return status("loading configuration", err)
	}
	if isSet(f, "rf") {
		cfg.Risk.RiskFreeRate = c.rf
	}
	if c.method != "" {
		cfg.Risk.Method = c.method
	}
	opts, err := cfg.RiskOptions()
	if err != nil {
		return status("parsing options", err)
	}

	m, period, err := loadMarket(cfg, c.lookback)
	if err != nil {
		return status("loading market", err)
	}
	metrics := risk.Table(m.Histories(), opts)

	if c.json {
		return printJSON(renderer.MetricsJSON(period, metrics))
	}
	printMarkdown(renderer.RiskMarkdown(period, metrics))
	return subcommands.ExitSuccess
}

// correlationCmd holds the flags for the 'correlation' subcommand.
type correlationCmd struct {
	lookback string
	json     bool
}

func (*correlationCmd) Name() string     { return "correlation" }
func (*correlationCmd) Synopsis() string { return "display the correlation matrix of the instruments" }
func (*correlationCmd) Usage() string {
	return `rplan correlation [-lookback -6m] [-json]

  Displays the Pearson correlation of the instruments returns, on their common days.
`
}

func (c *correlationCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.lookback, "lookback", "", "Start of the window, relative to the last day (e.g. -6m) or absolute. Defaults to the configuration.")
	f.BoolVar(&c.json, "json", false, "Export the matrix as JSON.")
}

func (c *correlationCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		return status("loading configuration", err)
	}
	m, period, err := loadMarket(cfg, c.lookback)
	if err != nil {
		return status("loading market", err)
	}
	fr, err := frame(cfg, m)
	if err != nil {
		return status("aligning returns", err)
	}
	corr := risk.Correlation(fr)

	if c.json {
		return printJSON(renderer.CorrelationJSON(corr))
	}
	printMarkdown(renderer.CorrelationMarkdown(period, corr))
	return subcommands.ExitSuccess
}
