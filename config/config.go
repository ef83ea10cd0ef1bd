// Package config loads the settings of rplan from a YAML file and RPLAN_* environment
// variables.
//
// Every key has a default (see Default), so an empty or missing file yields a valid
// configuration. Environment variables override the file: the key "risk.risk_free_rate" is
// read from RPLAN_RISK_RISK_FREE_RATE.
package config

import (
	"github.com/etnz/riskplan/date"
	"github.com/etnz/riskplan/portfolio"
	"github.com/etnz/riskplan/retirement"
	"github.com/etnz/riskplan/risk"
)

// Config is the whole configuration of rplan.
type Config struct {
	Currency   string           `mapstructure:"currency"`
	Log        LogConfig        `mapstructure:"log"`
	Market     MarketConfig     `mapstructure:"market"`
	Risk       RiskConfig       `mapstructure:"risk"`
	Portfolio  PortfolioConfig  `mapstructure:"portfolio"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	// Planning describes the retirement plan. Its path count and seed come from Simulation.
	Planning retirement.Parameters `mapstructure:"planning"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Verbose bool `mapstructure:"verbose"`
}

// MarketConfig locates the price file and the part of it to analyse.
type MarketConfig struct {
	File     string   `mapstructure:"file"`
	Select   string   `mapstructure:"select"`   // JSONPath of the rows in a JSON document, empty for JSONL
	Lookback string   `mapstructure:"lookback"` // e.g. "-6m", relative to the last day
	Tickers  []string `mapstructure:"tickers"`  // empty for all
}

// RiskConfig parameterises the risk indicators.
type RiskConfig struct {
	ConfidenceLevels []float64 `mapstructure:"confidence_levels"`
	RiskFreeRate     float64   `mapstructure:"risk_free_rate"`
	RollingWindows   []int     `mapstructure:"rolling_windows"`
	Method           string    `mapstructure:"method"`
	TradingDays      int       `mapstructure:"trading_days"`
}

// PortfolioConfig parameterises the optimiser.
type PortfolioConfig struct {
	Objective      string `mapstructure:"objective"`
	NoShortSelling bool   `mapstructure:"no_short_selling"`
	FrontierPoints int    `mapstructure:"frontier_points"`
	MaxIterations  int    `mapstructure:"max_iterations"`
}

// SimulationConfig parameterises the Monte Carlo engine.
type SimulationConfig struct {
	PathCount int               `mapstructure:"path_count"`
	Seed      uint64            `mapstructure:"seed"`
	Workers   int               `mapstructure:"workers"` // 0 for one per CPU
	Search    retirement.Search `mapstructure:"search"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Currency: "USD",
		Market: MarketConfig{
			Lookback: "-6m",
		},
		Risk: RiskConfig{
			ConfidenceLevels: []float64{0.95, 0.99},
			RiskFreeRate:     0,
			RollingWindows:   []int{21, 63},
			Method:           "simple",
			TradingDays:      risk.TradingDays,
		},
		Portfolio: PortfolioConfig{
			Objective:      "max-sharpe",
			NoShortSelling: true,
			FrontierPoints: 30,
			MaxIterations:  portfolio.DefaultMaxIterations,
		},
		Simulation: SimulationConfig{
			PathCount: 10000,
			Seed:      42,
			Search: retirement.Search{
				Target:        retirement.DefaultTargetProbability,
				Tolerance:     1,
				MaxIterations: 64,
			},
		},
		Planning: retirement.Parameters{
			CurrentAge:         30,
			RetirementAge:      65,
			HorizonAge:         90,
			InitialWealth:      0,
			Income:             60000,
			Expenses:           40000,
			ContributionGrowth: 0.02,
			WithdrawalRate:     0.04,
			Inflation:          0.03,
			AssumedReturn:      0.06,
			AssumedVolatility:  0.12,
		},
	}
}

// RiskOptions returns the options of the risk metrics table.
func (c *Config) RiskOptions() (risk.Options, error) {
	method, err := risk.ParseMethod(c.Risk.Method)
	if err != nil {
		return risk.Options{}, err
	}
	return risk.Options{
		Method:       method,
		Confidences:  c.Risk.ConfidenceLevels,
		Windows:      c.Risk.RollingWindows,
		RiskFreeRate: c.Risk.RiskFreeRate,
		TradingDays:  c.Risk.TradingDays,
	}, nil
}

// Objective returns the optimisation objective.
func (c *Config) Objective() (portfolio.Objective, error) {
	return portfolio.ParseObjective(c.Portfolio.Objective)
}

// Parameters returns the retirement plan with the simulation path count and seed.
func (c *Config) Parameters() retirement.Parameters {
	p := c.Planning
	p.PathCount = c.Simulation.PathCount
	p.Seed = c.Simulation.Seed
	return p
}

// LookbackRange returns the analysed range ending on 'last'.
func (c *Config) LookbackRange(last date.Date) (date.Range, error) {
	return date.Lookback(last, c.Market.Lookback)
}
