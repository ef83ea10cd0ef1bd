package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etnz/riskplan"
	"github.com/etnz/riskplan/portfolio"
	"github.com/etnz/riskplan/risk"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rplan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	want := Default()
	assert.Equal(t, want.Currency, cfg.Currency)
	assert.Equal(t, want.Market.Lookback, cfg.Market.Lookback)
	assert.Equal(t, want.Risk, cfg.Risk)
	assert.Equal(t, want.Portfolio, cfg.Portfolio)
	assert.Equal(t, want.Simulation, cfg.Simulation)
	assert.Equal(t, want.Planning, cfg.Planning)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
currency: EUR
market:
  file: prices.jsonl
  lookback: -1y
  tickers: [PETR4.SA, WEGE3.SA]
risk:
  confidence_levels: [0.9, 0.975]
  risk_free_rate: 0.1
portfolio:
  objective: min-volatility
simulation:
  path_count: 2000
  seed: 7
planning:
  current_age: 40
  retirement_age: 60
  retirement_income: 50000
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "EUR", cfg.Currency)
	assert.Equal(t, "-1y", cfg.Market.Lookback)
	assert.Equal(t, []string{"PETR4.SA", "WEGE3.SA"}, cfg.Market.Tickers)
	assert.Equal(t, []float64{0.9, 0.975}, cfg.Risk.ConfidenceLevels)
	assert.Equal(t, 0.1, cfg.Risk.RiskFreeRate)
	// unset keys keep their defaults
	assert.Equal(t, []int{21, 63}, cfg.Risk.RollingWindows)
	assert.Equal(t, 90, cfg.Planning.HorizonAge)

	objective, err := cfg.Objective()
	require.NoError(t, err)
	assert.Equal(t, portfolio.MinimizeVolatility, objective)

	p := cfg.Parameters()
	assert.Equal(t, 2000, p.PathCount)
	assert.Equal(t, uint64(7), p.Seed)
	assert.Equal(t, 40, p.CurrentAge)
	assert.Equal(t, 50000.0, p.RetirementIncome)

	opts, err := cfg.RiskOptions()
	require.NoError(t, err)
	assert.Equal(t, risk.Simple, opts.Method)
	assert.Equal(t, 252, opts.TradingDays)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("RPLAN_SIMULATION_PATH_COUNT", "123")
	t.Setenv("RPLAN_RISK_RISK_FREE_RATE", "0.05")
	t.Setenv("RPLAN_PLANNING_INFLATION", "0.02")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 123, cfg.Simulation.PathCount)
	assert.Equal(t, 0.05, cfg.Risk.RiskFreeRate)
	assert.Equal(t, 0.02, cfg.Planning.Inflation)
}

func TestLoadInvalid(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{"confidence", "risk:\n  confidence_levels: [0.95, 1.0]\n"},
		{"window", "risk:\n  rolling_windows: [0]\n"},
		{"method", "risk:\n  method: arithmetic\n"},
		{"short selling", "portfolio:\n  no_short_selling: false\n"},
		{"objective", "portfolio:\n  objective: max-return\n"},
		{"frontier", "portfolio:\n  frontier_points: 1\n"},
		{"ages", "planning:\n  current_age: 70\n"},
		{"paths", "simulation:\n  path_count: 0\n"},
		{"lookback", "market:\n  lookback: six months\n"},
		{"target", "simulation:\n  search:\n    target: 2\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			assert.ErrorIs(t, err, riskplan.ErrConfiguration)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
