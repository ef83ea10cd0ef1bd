// Package retirement projects a retirement plan with a Monte Carlo simulation.
//
// Every path starts at the current age with the initial wealth. Until the retirement age the
// plan accumulates: each year the wealth earns a random return and receives the net savings.
// From the retirement age on the plan withdraws: the first withdrawal is a fixed share of the
// wealth at retirement, and grows with inflation. Paths are independent and reproducible: the
// return of a given path and year only depends on the seed.
package retirement

import (
	"math"

	"github.com/etnz/riskplan"
)

// Parameters describe a retirement plan. All amounts are annual.
type Parameters struct {
	CurrentAge    int `mapstructure:"current_age" json:"current_age"`
	RetirementAge int `mapstructure:"retirement_age" json:"retirement_age"`
	HorizonAge    int `mapstructure:"horizon_age" json:"horizon_age"`

	InitialWealth      float64 `mapstructure:"initial_wealth" json:"initial_wealth"`
	Income             float64 `mapstructure:"income" json:"income"`
	Expenses           float64 `mapstructure:"expenses" json:"expenses"`
	ExtraContribution  float64 `mapstructure:"extra_contribution" json:"extra_contribution"`
	ContributionGrowth float64 `mapstructure:"contribution_growth" json:"contribution_growth"` // yearly growth of the net savings

	// RetirementIncome is the income wished for the first year of retirement, in today's money.
	// It defaults to Expenses.
	RetirementIncome float64 `mapstructure:"retirement_income" json:"retirement_income"`
	WithdrawalRate   float64 `mapstructure:"withdrawal_rate" json:"withdrawal_rate"`
	Inflation        float64 `mapstructure:"inflation" json:"inflation"`

	AssumedReturn     float64 `mapstructure:"assumed_return" json:"assumed_return"`
	AssumedVolatility float64 `mapstructure:"assumed_volatility" json:"assumed_volatility"`

	PathCount int    `mapstructure:"path_count" json:"path_count"`
	Seed      uint64 `mapstructure:"seed" json:"seed"`
}

// Years returns the number of simulated years.
func (p Parameters) Years() int { return p.HorizonAge - p.CurrentAge }

// AccumulationYears returns the number of years before retirement.
func (p Parameters) AccumulationYears() int { return p.RetirementAge - p.CurrentAge }

// TargetWealth returns the wealth that sustains the wished retirement income at the withdrawal
// rate. Like the simulated returns, it is expressed in today's money.
func (p Parameters) TargetWealth() float64 {
	income := p.RetirementIncome
	if income == 0 {
		income = p.Expenses
	}
	return income / p.WithdrawalRate
}

// Validate checks that the plan can be simulated.
func (p Parameters) Validate() error {
	switch {
	case p.CurrentAge < 0:
		return riskplan.Configf("current_age", p.CurrentAge, "must not be negative")
	case p.RetirementAge <= p.CurrentAge:
		return riskplan.Configf("retirement_age", p.RetirementAge, "must be after the current age %d", p.CurrentAge)
	case p.HorizonAge < p.RetirementAge:
		return riskplan.Configf("horizon_age", p.HorizonAge, "must not be before the retirement age %d", p.RetirementAge)
	case p.PathCount <= 0:
		return riskplan.Configf("path_count", p.PathCount, "must be positive")
	case !(p.WithdrawalRate > 0 && p.WithdrawalRate <= 1):
		return riskplan.Configf("withdrawal_rate", p.WithdrawalRate, "must be in (0, 1]")
	case !(p.AssumedVolatility >= 0):
		return riskplan.Configf("assumed_volatility", p.AssumedVolatility, "must not be negative")
	case !(p.AssumedReturn > -1):
		return riskplan.Configf("assumed_return", p.AssumedReturn, "must be greater than -100%%")
	case !(p.Inflation > -1):
		return riskplan.Configf("inflation", p.Inflation, "must be greater than -100%%")
	case !(p.ContributionGrowth > -1):
		return riskplan.Configf("contribution_growth", p.ContributionGrowth, "must be greater than -100%%")
	case !(p.InitialWealth >= 0):
		return riskplan.Configf("initial_wealth", p.InitialWealth, "must not be negative")
	case p.Income < 0 || p.Expenses < 0 || p.RetirementIncome < 0:
		return riskplan.Configf("income", p.Income, "income and expenses must not be negative")
	case math.IsNaN(p.ExtraContribution) || math.IsInf(p.ExtraContribution, 0):
		return riskplan.Configf("extra_contribution", p.ExtraContribution, "must be finite")
	}
	return nil
}
