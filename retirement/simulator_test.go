package retirement

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etnz/riskplan"
)

// plan is a typical plan, tests amend it.
func plan() Parameters {
	return Parameters{
		CurrentAge:         30,
		RetirementAge:      40,
		HorizonAge:         60,
		InitialWealth:      10000,
		Income:             60000,
		Expenses:           40000,
		ContributionGrowth: 0.02,
		WithdrawalRate:     0.04,
		Inflation:          0.03,
		AssumedReturn:      0.05,
		AssumedVolatility:  0.12,
		PathCount:          500,
		Seed:               42,
	}
}

func TestDeterministicMarket(t *testing.T) {
	p := plan()
	p.AssumedVolatility = 0
	p.PathCount = 20

	res, err := NewSimulator().Run(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, res.Ages, 30)
	assert.Equal(t, 31, res.Ages[0])
	assert.Equal(t, 60, res.Ages[29])

	r, g, i := p.AssumedReturn, p.ContributionGrowth, p.Inflation
	c := p.Income - p.Expenses
	want := make([]float64, p.Years())
	// accumulation: compound growth of the initial wealth plus a growing annuity.
	for y := 0; y < p.AccumulationYears(); y++ {
		n := float64(y + 1)
		want[y] = p.InitialWealth*math.Pow(1+r, n) + c*(math.Pow(1+r, n)-math.Pow(1+g, n))/(r-g)
	}
	// withdrawal: compound growth minus an annuity growing with inflation.
	v := want[p.AccumulationYears()-1]
	w0 := v * p.WithdrawalRate
	for m := 1; m <= p.Years()-p.AccumulationYears(); m++ {
		k := float64(m)
		want[p.AccumulationYears()+m-1] = v*math.Pow(1+r, k) - w0*(math.Pow(1+r, k)-math.Pow(1+i, k))/(r-i)
	}

	for _, path := range res.Paths {
		for y := range want {
			assert.InDelta(t, want[y], path[y], 1e-9*want[y], "year %d", y)
		}
	}
	for _, band := range res.Fan {
		for y := range want {
			assert.InDelta(t, want[y], band[y], 1e-9*want[y], "year %d", y)
		}
	}
	assert.Equal(t, 0.0, res.RuinProbability)
}

func TestReproducible(t *testing.T) {
	p := plan()
	a, err := NewSimulator(WithWorkers(1)).Run(context.Background(), p)
	require.NoError(t, err)
	b, err := NewSimulator(WithWorkers(8)).Run(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, a.Fan, b.Fan)
	assert.Equal(t, a.Paths, b.Paths)
	assert.Equal(t, a.SuccessProbability, b.SuccessProbability)

	p.Seed++
	c, err := NewSimulator().Run(context.Background(), p)
	require.NoError(t, err)
	assert.NotEqual(t, a.Fan, c.Fan)
}

func TestPercentileMonotonicity(t *testing.T) {
	res, err := NewSimulator().Run(context.Background(), plan())
	require.NoError(t, err)

	for y := range res.Ages {
		for i := 1; i < len(FanPercentiles); i++ {
			if res.Fan[i-1][y] > res.Fan[i][y] {
				t.Errorf("year %d: p%v = %v > p%v = %v", y, FanPercentiles[i-1], res.Fan[i-1][y], FanPercentiles[i], res.Fan[i][y])
			}
		}
	}
	for i := 1; i < len(res.FinalDistribution); i++ {
		assert.LessOrEqual(t, res.FinalDistribution[i-1], res.FinalDistribution[i])
	}
	assert.Equal(t, res.Fan[2], res.MedianProjection)
	assert.Equal(t, res.FinalDistribution[3], res.MedianProjection[len(res.MedianProjection)-1])
	assert.GreaterOrEqual(t, res.SuccessProbability, 0.0)
	assert.LessOrEqual(t, res.SuccessProbability, 1.0)

	// the median projection is a copy of the p50 row.
	median := res.Fan[2][0]
	res.MedianProjection[0] = -1
	assert.Equal(t, median, res.Fan[2][0])
}

func TestRuin(t *testing.T) {
	p := plan()
	p.AssumedVolatility = 0
	p.AssumedReturn = 0
	p.WithdrawalRate = 1 // everything is withdrawn the first year of retirement
	res, err := NewSimulator().Run(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, 1.0, res.RuinProbability)
	for _, path := range res.Paths {
		for y := p.AccumulationYears(); y < p.Years(); y++ {
			assert.Equal(t, 0.0, path[y], "wealth after ruin must stay zero")
		}
	}
}

func TestNegativeSavingsFloor(t *testing.T) {
	p := plan()
	p.InitialWealth = 0
	p.Income, p.Expenses = 10000, 20000
	res, err := NewSimulator().Run(context.Background(), p)
	require.NoError(t, err)
	for _, path := range res.Paths {
		for _, w := range path {
			assert.GreaterOrEqual(t, w, 0.0)
		}
	}
}

func TestTargetWealth(t *testing.T) {
	p := plan()
	// expenses of 40000 withdrawn at 4%, in today's money: inflation does not change it.
	assert.InDelta(t, 1e6, p.TargetWealth(), 1e-6)
	p.Inflation = 0.10
	assert.InDelta(t, 1e6, p.TargetWealth(), 1e-6)
	p.RetirementIncome = 30000
	assert.InDelta(t, 750000, p.TargetWealth(), 1e-6)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name  string
		amend func(p *Parameters)
	}{
		{"retired already", func(p *Parameters) { p.RetirementAge = 30 }},
		{"horizon before retirement", func(p *Parameters) { p.HorizonAge = 35 }},
		{"no path", func(p *Parameters) { p.PathCount = 0 }},
		{"zero withdrawal", func(p *Parameters) { p.WithdrawalRate = 0 }},
		{"negative volatility", func(p *Parameters) { p.AssumedVolatility = -0.1 }},
		{"total loss", func(p *Parameters) { p.AssumedReturn = -1 }},
		{"negative wealth", func(p *Parameters) { p.InitialWealth = -1 }},
		{"nan", func(p *Parameters) { p.Inflation = math.NaN() }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := plan()
			tc.amend(&p)
			_, err := NewSimulator().Run(context.Background(), p)
			assert.ErrorIs(t, err, riskplan.ErrConfiguration)
		})
	}
	assert.NoError(t, plan().Validate())
}

func TestCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSimulator().Run(ctx, plan())
	assert.ErrorIs(t, err, context.Canceled)
}
