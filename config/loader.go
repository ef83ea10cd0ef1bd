package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix of every setting.
const envPrefix = "RPLAN"

// newViper builds a Viper instance reading YAML, with RPLAN_ environment overrides. The key
// replacer maps "." to "_" so that "simulation.path_count" resolves to
// RPLAN_SIMULATION_PATH_COUNT.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v, Default())
	return v
}

// setDefaults registers every key of cfg as a default. Viper only binds the environment of
// the keys it knows.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("currency", cfg.Currency)
	v.SetDefault("log.verbose", cfg.Log.Verbose)

	v.SetDefault("market.file", cfg.Market.File)
	v.SetDefault("market.select", cfg.Market.Select)
	v.SetDefault("market.lookback", cfg.Market.Lookback)
	v.SetDefault("market.tickers", cfg.Market.Tickers)

	v.SetDefault("risk.confidence_levels", cfg.Risk.ConfidenceLevels)
	v.SetDefault("risk.risk_free_rate", cfg.Risk.RiskFreeRate)
	v.SetDefault("risk.rolling_windows", cfg.Risk.RollingWindows)
	v.SetDefault("risk.method", cfg.Risk.Method)
	v.SetDefault("risk.trading_days", cfg.Risk.TradingDays)

	v.SetDefault("portfolio.objective", cfg.Portfolio.Objective)
	v.SetDefault("portfolio.no_short_selling", cfg.Portfolio.NoShortSelling)
	v.SetDefault("portfolio.frontier_points", cfg.Portfolio.FrontierPoints)
	v.SetDefault("portfolio.max_iterations", cfg.Portfolio.MaxIterations)

	v.SetDefault("simulation.path_count", cfg.Simulation.PathCount)
	v.SetDefault("simulation.seed", cfg.Simulation.Seed)
	v.SetDefault("simulation.workers", cfg.Simulation.Workers)
	v.SetDefault("simulation.search.target", cfg.Simulation.Search.Target)
	v.SetDefault("simulation.search.min", cfg.Simulation.Search.Min)
	v.SetDefault("simulation.search.max", cfg.Simulation.Search.Max)
	v.SetDefault("simulation.search.tolerance", cfg.Simulation.Search.Tolerance)
	v.SetDefault("simulation.search.max_iterations", cfg.Simulation.Search.MaxIterations)

	p := cfg.Planning
	v.SetDefault("planning.current_age", p.CurrentAge)
	v.SetDefault("planning.retirement_age", p.RetirementAge)
	v.SetDefault("planning.horizon_age", p.HorizonAge)
	v.SetDefault("planning.initial_wealth", p.InitialWealth)
	v.SetDefault("planning.income", p.Income)
	v.SetDefault("planning.expenses", p.Expenses)
	v.SetDefault("planning.extra_contribution", p.ExtraContribution)
	v.SetDefault("planning.contribution_growth", p.ContributionGrowth)
	v.SetDefault("planning.retirement_income", p.RetirementIncome)
	v.SetDefault("planning.withdrawal_rate", p.WithdrawalRate)
	v.SetDefault("planning.inflation", p.Inflation)
	v.SetDefault("planning.assumed_return", p.AssumedReturn)
	v.SetDefault("planning.assumed_volatility", p.AssumedVolatility)
}

// Load reads the YAML file at configPath, merges the RPLAN_* environment overrides and
// validates the result. An empty configPath only reads the defaults and the environment.
func Load(configPath string) (*Config, error) {
	v := newViper()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
		}
	}
	return unmarshalAndFinalize(v)
}

// unmarshalAndFinalize unmarshals viper state into a Config and validates it.
func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}
