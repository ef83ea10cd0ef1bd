package retirement

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/etnz/riskplan/risk"
)

// FanPercentiles are the percentiles of wealth reported for every year.
var FanPercentiles = []float64{10, 25, 50, 75, 90}

// FinalPercentiles are the percentiles of the terminal wealth distribution.
var FinalPercentiles = []float64{5, 10, 25, 50, 75, 90, 95}

// minReturn is the lowest yearly return: a path can lose 99% of its wealth in a year, not more.
const minReturn = -0.99

// Result is the outcome of a simulation.
type Result struct {
	Parameters Parameters

	// Ages[y] is the age at the end of simulated year y.
	Ages []int
	// Paths[p][y] is the wealth of path p at the end of year y.
	Paths [][]float64
	// Fan[i][y] is the FanPercentiles[i] percentile of wealth at the end of year y.
	Fan              [][]float64
	MedianProjection []float64

	TargetWealth       float64
	SuccessProbability float64 // share of paths ending with at least TargetWealth
	RuinProbability    float64 // share of paths running out of money after retirement

	FinalDistribution []float64 // aligned with FinalPercentiles

	// EstimatedRequiredContribution is the extra yearly contribution reaching the target success
	// probability, NaN when it was not searched for or not found.
	EstimatedRequiredContribution float64
}

// Simulator runs Monte Carlo simulations of retirement plans.
type Simulator struct {
	log     *zap.Logger
	workers int
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithLogger sets the logger used to report runs.
func WithLogger(log *zap.Logger) Option {
	return func(s *Simulator) { s.log = log.Named("simulator") }
}

// WithWorkers sets the number of paths simulated concurrently. Results do not depend on it.
func WithWorkers(n int) Option {
	return func(s *Simulator) {
		if n > 0 {
			s.workers = n
		}
	}
}

// NewSimulator returns a Simulator using all the CPUs by default.
func NewSimulator(opts ...Option) *Simulator {
	s := &Simulator{
		log:     zap.NewNop(),
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run simulates the plan.
//
// Paths are simulated concurrently, each one writing only its own row of Result.Paths, then
// aggregated once they are all done. The context cancels the run between two paths.
func (s *Simulator) Run(ctx context.Context, p Parameters) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	years := p.Years()

	paths := make([][]float64, p.PathCount)
	arena := make([]float64, p.PathCount*years)
	ruined := make([]bool, p.PathCount)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range paths {
		paths[i] = arena[i*years : (i+1)*years : (i+1)*years]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ruined[i] = simulatePath(paths[i], p, i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("simulation interrupted: %w", err)
	}

	res := aggregate(p, paths, ruined)
	res.EstimatedRequiredContribution = math.NaN()
	s.log.Debug("simulation done",
		zap.Int("paths", p.PathCount), zap.Int("years", years),
		zap.Float64("success", res.SuccessProbability), zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

// simulatePath fills wealth with the end of year wealth of path i. It returns true if the
// path ran out of money after retirement.
func simulatePath(wealth []float64, p Parameters, i int) (ruined bool) {
	pcg := rand.NewPCG(0, 0)
	rng := rand.New(pcg)

	savings := p.Income - p.Expenses + p.ExtraContribution
	retirement := p.AccumulationYears()
	w := p.InitialWealth
	var withdrawal float64
	for y := range wealth {
		pcg.Seed(p.Seed, mix(uint64(i), uint64(y)))
		r := math.Max(minReturn, p.AssumedReturn+p.AssumedVolatility*rng.NormFloat64())

		if y < retirement {
			inflow := savings * math.Pow(1+p.ContributionGrowth, float64(y))
			w = math.Max(0, w*(1+r)+inflow)
		} else {
			if y == retirement {
				withdrawal = w * p.WithdrawalRate
			} else {
				withdrawal *= 1 + p.Inflation
			}
			w = math.Max(0, w*(1+r)-withdrawal)
			ruined = ruined || w == 0
		}
		wealth[y] = w
	}
	return ruined
}

// mix derives the stream of a (path, year) pair, using the splitmix64 finalizer.
func mix(path, year uint64) uint64 {
	z := path*0x9e3779b97f4a7c15 + year + 1
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// aggregate computes the statistics of the completed paths.
func aggregate(p Parameters, paths [][]float64, ruined []bool) *Result {
	years := p.Years()
	res := &Result{
		Parameters:   p,
		Ages:         make([]int, years),
		Paths:        paths,
		Fan:          make([][]float64, len(FanPercentiles)),
		TargetWealth: p.TargetWealth(),
	}
	for y := range res.Ages {
		res.Ages[y] = p.CurrentAge + y + 1
	}
	for i := range res.Fan {
		res.Fan[i] = make([]float64, years)
	}

	column := make([]float64, len(paths))
	for y := 0; y < years; y++ {
		for i, path := range paths {
			column[i] = path[y]
		}
		slices.Sort(column)
		for i, pct := range FanPercentiles {
			res.Fan[i][y] = risk.Quantile(column, pct/100)
		}
	}
	res.MedianProjection = slices.Clone(res.Fan[slices.Index(FanPercentiles, 50)])

	// column now holds the sorted terminal wealth.
	for _, pct := range FinalPercentiles {
		res.FinalDistribution = append(res.FinalDistribution, risk.Quantile(column, pct/100))
	}
	var success, ruin int
	for i, path := range paths {
		if path[years-1] >= res.TargetWealth {
			success++
		}
		if ruined[i] {
			ruin++
		}
	}
	res.SuccessProbability = float64(success) / float64(len(paths))
	res.RuinProbability = float64(ruin) / float64(len(paths))
	return res
}
