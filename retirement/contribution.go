package retirement

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/etnz/riskplan"
)

// DefaultTargetProbability is the success probability the contribution search aims at.
const DefaultTargetProbability = 0.8

// Search bounds the search of the required contribution.
type Search struct {
	Target        float64 `mapstructure:"target"`         // success probability, defaults to DefaultTargetProbability
	Min           float64 `mapstructure:"min"`            // lowest extra contribution
	Max           float64 `mapstructure:"max"`            // highest extra contribution, 0 for twice the target wealth spread over the accumulation
	Tolerance     float64 `mapstructure:"tolerance"`      // width of the final bracket, defaults to 1 (currency unit)
	MaxIterations int     `mapstructure:"max_iterations"` // defaults to 64
}

// withDefaults returns the search with its zero values replaced by the defaults for p.
func (s Search) withDefaults(p Parameters) Search {
	if s.Target == 0 {
		s.Target = DefaultTargetProbability
	}
	if s.Max == 0 {
		s.Max = 2 * p.TargetWealth() / float64(p.AccumulationYears())
	}
	if s.Tolerance <= 0 {
		s.Tolerance = 1
	}
	if s.MaxIterations <= 0 {
		s.MaxIterations = 64
	}
	return s
}

func (s Search) validate() error {
	switch {
	case !(s.Target > 0 && s.Target <= 1):
		return riskplan.Configf("target", s.Target, "success probability must be in (0, 1]")
	case !(s.Min <= s.Max):
		return riskplan.Configf("max", s.Max, "must not be lower than min %v", s.Min)
	}
	return nil
}

// RequiredContribution returns the smallest extra yearly contribution in [search.Min,
// search.Max] for which the success probability reaches search.Target, within
// search.Tolerance. Every other parameter is kept.
//
// The success probability never decreases with the contribution (paths share their random
// returns), so the contribution is found by bisection. It fails with an OptimizationError when
// even search.Max does not reach the target.
func (s *Simulator) RequiredContribution(ctx context.Context, p Parameters, search Search) (float64, error) {
	if err := p.Validate(); err != nil {
		return math.NaN(), err
	}
	search = search.withDefaults(p)
	if err := search.validate(); err != nil {
		return math.NaN(), err
	}

	success := func(c float64) (float64, error) {
		q := p
		q.ExtraContribution = c
		res, err := s.Run(ctx, q)
		if err != nil {
			return math.NaN(), err
		}
		return res.SuccessProbability, nil
	}

	lo, hi := search.Min, search.Max
	plo, err := success(lo)
	if err != nil {
		return math.NaN(), err
	}
	if plo >= search.Target {
		return lo, nil
	}
	phi, err := success(hi)
	if err != nil {
		return math.NaN(), err
	}
	if phi < search.Target {
		return math.NaN(), &riskplan.OptimizationError{
			Op:      "required contribution",
			Attempt: search,
			Reason:  "the maximum contribution does not reach the target success probability",
		}
	}

	for i := 0; hi-lo > search.Tolerance; i++ {
		if i >= search.MaxIterations {
			return math.NaN(), &riskplan.OptimizationError{
				Op:      "required contribution",
				Attempt: search,
				Reason:  "bisection did not reach the tolerance within its iteration budget",
			}
		}
		mid := lo + (hi-lo)/2
		pmid, err := success(mid)
		if err != nil {
			return math.NaN(), err
		}
		s.log.Debug("bisection step", zap.Int("iteration", i), zap.Float64("contribution", mid), zap.Float64("success", pmid))
		if pmid >= search.Target {
			hi = mid
		} else {
			lo = mid
		}
	}
	return hi, nil
}

// Plan simulates the plan and searches for the required contribution.
//
// A failed search does not invalidate the simulation: the result is returned together with
// the search error, and its EstimatedRequiredContribution is NaN.
func (s *Simulator) Plan(ctx context.Context, p Parameters, search Search) (*Result, error) {
	res, err := s.Run(ctx, p)
	if err != nil {
		return nil, err
	}
	c, err := s.RequiredContribution(ctx, p, search)
	res.EstimatedRequiredContribution = c
	return res, err
}
