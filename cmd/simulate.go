package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/etnz/riskplan"
	"github.com/etnz/riskplan/config"
	"github.com/etnz/riskplan/portfolio"
	"github.com/etnz/riskplan/renderer"
	"github.com/etnz/riskplan/retirement"
)

// simulateCmd holds the flags for the 'simulate' subcommand that are not plan parameters.
// Plan parameters are read back from the flag set, only when set.
type simulateCmd struct {
	chart         string
	fromPortfolio bool
	noSearch      bool
	json          bool
}

func (*simulateCmd) Name() string     { return "simulate" }
func (*simulateCmd) Synopsis() string { return "project a retirement plan with a Monte Carlo simulation" }
func (*simulateCmd) Usage() string {
	return `rplan simulate [plan flags] [-paths 10000] [-seed 42] [-chart fan.png] [-from-portfolio] [-json]

  Simulates the wealth of a retirement plan, reports the probability to reach the target
  wealth, the percentiles of wealth for every age, and the extra yearly contribution reaching
  the target probability. Plan flags default to the configuration.
`
}

func (c *simulateCmd) SetFlags(f *flag.FlagSet) {
	f.Int("current-age", 0, "Current age.")
	f.Int("retirement-age", 0, "Age of retirement.")
	f.Int("horizon-age", 0, "Last simulated age.")
	f.Float64("initial-wealth", 0, "Wealth today.")
	f.Float64("income", 0, "Yearly income until retirement.")
	f.Float64("expenses", 0, "Yearly expenses until retirement.")
	f.Float64("extra-contribution", 0, "Yearly contribution on top of the savings.")
	f.Float64("contribution-growth", 0, "Yearly growth of the contributions, e.g. 0.02.")
	f.Float64("retirement-income", 0, "Wished first year retirement income, in today's money. Defaults to the expenses.")
	f.Float64("withdrawal-rate", 0, "Share of the wealth at retirement withdrawn the first year, e.g. 0.04.")
	f.Float64("inflation", 0, "Yearly inflation, e.g. 0.03.")
	f.Float64("return", 0, "Assumed yearly return, e.g. 0.06.")
	f.Float64("volatility", 0, "Assumed yearly volatility, e.g. 0.12.")
	f.Int("paths", 0, "Number of simulated paths.")
	f.Uint64("seed", 0, "Seed of the simulation.")
	f.Int("workers", 0, "Number of concurrent workers, 0 for one per CPU.")
	f.Float64("target-probability", 0, "Success probability the required contribution aims at, e.g. 0.8.")

	f.StringVar(&c.chart, "chart", "", "Write the wealth percentiles as a PNG chart to this file.")
	f.BoolVar(&c.fromPortfolio, "from-portfolio", false, "Use the return and volatility of the optimal portfolio of the market file.")
	f.BoolVar(&c.noSearch, "no-search", false, "Do not search for the required contribution.")
	f.BoolVar(&c.json, "json", false, "Export the result as JSON.")
}

// applyPlanFlags overrides the configuration with the plan flags that were set.
func applyPlanFlags(cfg *config.Config, f *flag.FlagSet) {
	p := &cfg.Planning
	ints := map[string]*int{
		"current-age":    &p.CurrentAge,
		"retirement-age": &p.RetirementAge,
		"horizon-age":    &p.HorizonAge,
		"paths":          &cfg.Simulation.PathCount,
		"workers":        &cfg.Simulation.Workers,
	}
	floats := map[string]*float64{
		"initial-wealth":      &p.InitialWealth,
		"income":              &p.Income,
		"expenses":            &p.Expenses,
		"extra-contribution":  &p.ExtraContribution,
		"contribution-growth": &p.ContributionGrowth,
		"retirement-income":   &p.RetirementIncome,
		"withdrawal-rate":     &p.WithdrawalRate,
		"inflation":           &p.Inflation,
		"return":              &p.AssumedReturn,
		"volatility":          &p.AssumedVolatility,
		"target-probability":  &cfg.Simulation.Search.Target,
	}
	f.Visit(func(fl *flag.Flag) {
		value := fl.Value.(flag.Getter).Get()
		if target, ok := ints[fl.Name]; ok {
			*target = value.(int)
		}
		if target, ok := floats[fl.Name]; ok {
			*target = value.(float64)
		}
		if fl.Name == "seed" {
			cfg.Simulation.Seed = value.(uint64)
		}
	})
}

// assumeOptimalPortfolio replaces the assumed return and volatility by the ones of the optimal
// portfolio of the market.
func assumeOptimalPortfolio(cfg *config.Config) error {
	objective, err := cfg.Objective()
	if err != nil {
		return err
	}
	in, err := loadInputs(cfg, "")
	if err != nil {
		return err
	}
	w, err := newOptimizer(cfg).Optimize(in.mu, in.cov, cfg.Risk.RiskFreeRate, objective)
	if err != nil {
		return err
	}
	s := portfolio.Summarize(w, in.mu, in.cov, cfg.Risk.RiskFreeRate)
	cfg.Planning.AssumedReturn = s.ExpectedReturn
	cfg.Planning.AssumedVolatility = s.Volatility
	return nil
}

func (c *simulateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		return status("loading configuration", err)
	}
	applyPlanFlags(cfg, f)
	if c.fromPortfolio {
		if err := assumeOptimalPortfolio(cfg); err != nil {
			return status("optimizing portfolio", err)
		}
	}

	sim := retirement.NewSimulator(
		retirement.WithLogger(newLogger(cfg)),
		retirement.WithWorkers(cfg.Simulation.Workers),
	)
	var res *retirement.Result
	if c.noSearch {
		res, err = sim.Run(ctx, cfg.Parameters())
	} else {
		res, err = sim.Plan(ctx, cfg.Parameters(), cfg.Simulation.Search)
	}
	switch {
	case res == nil:
		return status("simulating", err)
	case err != nil && errors.Is(err, riskplan.ErrOptimization):
		// the simulation is valid, only the contribution could not be found.
		fmt.Fprintf(os.Stderr, "Warning: no required contribution: %v\n", err)
	case err != nil:
		return status("searching the required contribution", err)
	}

	if c.chart != "" {
		png, err := renderer.FanChart(res)
		if err != nil {
			return status("rendering chart", err)
		}
		if err := os.WriteFile(c.chart, png, 0644); err != nil {
			return status("writing chart", err)
		}
	}

	if c.json {
		return printJSON(renderer.SimulationJSON(res, cfg.Currency))
	}
	printMarkdown(renderer.SimulationMarkdown(res, cfg.Currency))
	return subcommands.ExitSuccess
}
