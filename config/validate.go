package config

import (
	"errors"

	"github.com/etnz/riskplan"
	"github.com/etnz/riskplan/date"
	"github.com/etnz/riskplan/portfolio"
	"github.com/etnz/riskplan/risk"
)

// Validate checks every setting and returns all the problems found.
func (c *Config) Validate() error {
	var errs []error
	check := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	if _, err := date.ParseRelative(c.Market.Lookback, date.Today()); err != nil {
		check(riskplan.Configf("market.lookback", c.Market.Lookback, "%v", err))
	}

	if len(c.Risk.ConfidenceLevels) == 0 {
		check(riskplan.Configf("risk.confidence_levels", c.Risk.ConfidenceLevels, "must not be empty"))
	}
	for _, level := range c.Risk.ConfidenceLevels {
		if !(level > 0 && level < 1) {
			check(riskplan.Configf("risk.confidence_levels", level, "must be in (0, 1) exclusive"))
		}
	}
	for _, window := range c.Risk.RollingWindows {
		if window <= 0 {
			check(riskplan.Configf("risk.rolling_windows", window, "must be positive"))
		}
	}
	if _, err := risk.ParseMethod(c.Risk.Method); err != nil {
		check(err)
	}
	if c.Risk.TradingDays <= 0 {
		check(riskplan.Configf("risk.trading_days", c.Risk.TradingDays, "must be positive"))
	}

	if _, err := portfolio.ParseObjective(c.Portfolio.Objective); err != nil {
		check(err)
	}
	if !c.Portfolio.NoShortSelling {
		check(riskplan.Configf("portfolio.no_short_selling", false, "short selling is not supported"))
	}
	if c.Portfolio.FrontierPoints < 2 {
		check(riskplan.Configf("portfolio.frontier_points", c.Portfolio.FrontierPoints, "must be at least 2"))
	}
	if c.Portfolio.MaxIterations <= 0 {
		check(riskplan.Configf("portfolio.max_iterations", c.Portfolio.MaxIterations, "must be positive"))
	}

	if c.Simulation.Workers < 0 {
		check(riskplan.Configf("simulation.workers", c.Simulation.Workers, "must not be negative"))
	}
	if s := c.Simulation.Search; !(s.Target > 0 && s.Target <= 1) {
		check(riskplan.Configf("simulation.search.target", s.Target, "must be in (0, 1]"))
	}
	check(c.Parameters().Validate())

	return errors.Join(errs...)
}
