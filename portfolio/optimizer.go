package portfolio

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/etnz/riskplan"
)

// Objective is the goal of an optimisation.
type Objective int

const (
	MaximizeSharpe Objective = iota
	MinimizeVolatility
)

func (o Objective) String() string {
	switch o {
	case MaximizeSharpe:
		return "max-sharpe"
	case MinimizeVolatility:
		return "min-volatility"
	default:
		panic(fmt.Sprintf("unknown objective %d", o))
	}
}

// ParseObjective parses "max-sharpe" or "min-volatility".
func ParseObjective(s string) (Objective, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "max-sharpe", "sharpe", "":
		return MaximizeSharpe, nil
	case "min-volatility", "min-vol", "volatility":
		return MinimizeVolatility, nil
	default:
		return MaximizeSharpe, riskplan.Configf("objective", s, "must be one of max-sharpe or min-volatility")
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Objective) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Objective) UnmarshalText(text []byte) error {
	v, err := ParseObjective(string(text))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// DefaultMaxIterations is the default iteration budget of the solver.
const DefaultMaxIterations = 1000

// maxCondition is the condition number above which a covariance matrix is deemed singular.
const maxCondition = 1e12

// Optimizer solves long-only mean-variance problems.
type Optimizer struct {
	log           *zap.Logger
	maxIterations int
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithLogger sets the logger used to report solver progress.
func WithLogger(log *zap.Logger) Option {
	return func(o *Optimizer) { o.log = log.Named("optimizer") }
}

// WithMaxIterations sets the iteration budget of a single solve.
func WithMaxIterations(n int) Option {
	return func(o *Optimizer) {
		if n > 0 {
			o.maxIterations = n
		}
	}
}

// NewOptimizer returns an Optimizer.
func NewOptimizer(opts ...Option) *Optimizer {
	o := &Optimizer{
		log:           zap.NewNop(),
		maxIterations: DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Attempt is the configuration of a failed optimisation, carried by its OptimizationError.
type Attempt struct {
	Objective     string
	RiskFreeRate  float64
	TargetReturn  float64 // frontier targets only
	Instruments   int
	MaxIterations int
}

func (o *Optimizer) fail(op string, attempt Attempt, reason string, err error) error {
	attempt.MaxIterations = o.maxIterations
	return &riskplan.OptimizationError{Op: op, Attempt: attempt, Reason: reason, Err: err}
}

// factorize checks that the covariance is positive definite and well conditioned.
func (o *Optimizer) factorize(op string, cov mat.Symmetric, attempt Attempt) (*mat.Cholesky, error) {
	chol := new(mat.Cholesky)
	if ok := chol.Factorize(cov); !ok {
		return nil, o.fail(op, attempt, "covariance matrix is singular or not positive definite", nil)
	}
	if c := chol.Cond(); c > maxCondition || math.IsNaN(c) {
		return nil, o.fail(op, attempt, fmt.Sprintf("covariance matrix is singular (condition number %.3g)", c), nil)
	}
	return chol, nil
}

// Optimize returns the long-only portfolio that best achieves the objective.
//
// When the unconstrained optimum (Σ⁻¹1 for the minimum volatility, Σ⁻¹(μ − rf) for the
// maximum Sharpe ratio) is already long-only it is returned directly. Otherwise the minimum
// volatility is solved as a quadratic program, and so is the maximum Sharpe ratio when an
// instrument beats the risk free rate: it is then the least variance y ≥ 0 with (μ − rf)ᵀy = 1,
// scaled to sum to 1. The remaining case is solved numerically starting from equal weights.
//
// It fails with an OptimizationError when the covariance is singular or when the solver does
// not converge within its iteration budget. EqualWeights is the usual fallback.
func (o *Optimizer) Optimize(mu []float64, cov mat.Symmetric, riskFreeRate float64, objective Objective) (Weights, error) {
	if err := checkInputs(mu, cov); err != nil {
		return nil, err
	}
	attempt := Attempt{Objective: objective.String(), RiskFreeRate: riskFreeRate, Instruments: len(mu)}
	chol, err := o.factorize("optimize", cov, attempt)
	if err != nil {
		return nil, err
	}
	n := len(mu)
	if n == 1 {
		return Weights{1}, nil
	}

	// closed form
	b := ones(n)
	if objective == MaximizeSharpe {
		for i := range b {
			b[i] = mu[i] - riskFreeRate
		}
	}
	var x mat.VecDense
	if err := chol.SolveVecTo(&x, mat.NewVecDense(n, b)); err == nil {
		if w, ok := longOnly(x.RawVector().Data); ok {
			o.log.Debug("closed form solution is long-only", zap.Stringer("objective", objective), zap.Float64s("weights", w))
			return w, nil
		}
	}

	var w Weights
	switch {
	case objective == MinimizeVolatility:
		w, err = o.minVolatility(cov)
	case floats.Max(b) > 0:
		w, err = o.tangency(cov, b)
	default:
		f, g := negativeSharpe(mu, cov, riskFreeRate)
		w, err = o.minimize(n, f, g)
	}
	if err != nil {
		return nil, o.fail("optimize", attempt, "solver did not converge", err)
	}
	return w, nil
}

// minVolatility solves the least variance portfolio, starting from the least volatile
// instrument.
func (o *Optimizer) minVolatility(cov mat.Symmetric) (Weights, error) {
	n := cov.SymmetricDim()
	start := make([]float64, n)
	k := 0
	for i := 1; i < n; i++ {
		if cov.At(i, i) < cov.At(k, k) {
			k = i
		}
	}
	start[k] = 1
	w, err := o.leastVariance(cov, [][]float64{ones(n)}, start)
	if err != nil {
		return nil, err
	}
	return cleanWeights(w), nil
}

// tangency solves the maximum Sharpe portfolio for excess returns with a positive maximum.
func (o *Optimizer) tangency(cov mat.Symmetric, excess []float64) (Weights, error) {
	k := floats.MaxIdx(excess)
	start := make([]float64, len(excess))
	start[k] = 1 / excess[k]
	y, err := o.leastVariance(cov, [][]float64{excess}, start)
	if err != nil {
		return nil, err
	}
	floats.Scale(1/floats.Sum(y), y)
	return cleanWeights(y), nil
}

// negativeSharpe returns −(μᵀw − rf)/σ and its gradient −μ/σ + (μᵀw − rf)Σw/σ³.
func negativeSharpe(mu []float64, cov mat.Symmetric, rf float64) (func(w []float64) float64, func(grad, w []float64)) {
	n := len(mu)
	f := func(w []float64) float64 {
		v := mat.NewVecDense(n, w)
		sigma := math.Sqrt(mat.Inner(v, cov, v))
		return -(floats.Dot(mu, w) - rf) / sigma
	}
	g := func(grad, w []float64) {
		v := mat.NewVecDense(n, w)
		sw := mat.NewVecDense(n, grad)
		sw.MulVec(cov, v) // grad = Σw
		sigma2 := mat.Inner(v, cov, v)
		sigma := math.Sqrt(sigma2)
		excess := floats.Dot(mu, w) - rf
		for i := range grad {
			grad[i] = -mu[i]/sigma + excess*grad[i]/(sigma2*sigma)
		}
	}
	return f, g
}

// converged are the solver statuses accepted as a solution.
var converged = map[optimize.Status]bool{
	optimize.Success:             true,
	optimize.GradientThreshold:   true,
	optimize.FunctionConvergence: true,
}

// maxRestarts bounds the restarts of minimize.
const maxRestarts = 5

// minimize minimises f over the simplex, f and g being the function and its gradient with
// respect to the weights, starting from equal weights. It returns the weights found.
//
// The softmax gradient of a weight driven to zero vanishes whatever f, so a solution is only
// accepted when no zeroed weight would decrease f; otherwise the zeroed weights are re-inflated
// and the solve restarts from there.
func (o *Optimizer) minimize(n int, f func(w []float64) float64, g func(grad, w []float64)) (Weights, error) {
	w, gw := make([]float64, n), make([]float64, n)
	var z []float64
	for restart := 0; ; restart++ {
		var err error
		z, err = o.solve(softmaxProblem(f, g, w, gw), z, n)
		if err != nil {
			return nil, err
		}
		res := make([]float64, n)
		softmax(res, z)
		g(gw, res)
		k := stalled(res, gw)
		if k < 0 {
			return cleanWeights(res), nil
		}
		if restart == maxRestarts {
			return nil, fmt.Errorf("weight %d is stuck at zero although it would improve the objective", k)
		}
		o.log.Debug("zeroed weight improves the objective, restarting", zap.Int("instrument", k), zap.Int("restart", restart))
		zmax := floats.Max(z)
		for i, x := range res {
			if x < zeroWeight {
				z[i] = zmax - 3
			}
		}
	}
}

// stalled returns the first zeroed weight k along which f decreases on the simplex,
// gₖ < Σ wⱼgⱼ, or -1 when the weights satisfy the optimality conditions.
func stalled(w, g []float64) int {
	wg := floats.Dot(w, g)
	tol := 1e-7 * (1 + floats.Norm(g, math.Inf(1)))
	for k, x := range w {
		if x < zeroWeight && g[k]-wg < -tol {
			return k
		}
	}
	return -1
}

// softmaxProblem expresses f, a function of the weights with gradient g, as a function of the
// softmax variables. w and gw are scratch buffers.
func softmaxProblem(f func(w []float64) float64, g func(grad, w []float64), w, gw []float64) optimize.Problem {
	return optimize.Problem{
		Func: func(z []float64) float64 {
			softmax(w, z)
			return f(w)
		},
		Grad: func(grad, z []float64) {
			softmax(w, z)
			g(gw, w)
			softmaxGrad(grad, w, gw)
		},
	}
}

// solve runs BFGS, then NelderMead if BFGS did not converge, and returns the location found.
func (o *Optimizer) solve(problem optimize.Problem, z0 []float64, n int) ([]float64, error) {
	initial := make([]float64, n)
	copy(initial, z0)
	settings := &optimize.Settings{
		MajorIterations:   o.maxIterations,
		GradientThreshold: 1e-10,
	}

	result, err := optimize.Minimize(problem, initial, settings, &optimize.BFGS{})
	if accepted(problem, result, err) {
		o.log.Debug("bfgs converged", zap.Stringer("status", result.Status), zap.Int("iterations", result.Stats.MajorIterations), zap.Float64("f", result.F))
		return result.X, nil
	}
	o.log.Debug("bfgs did not converge, trying nelder-mead", zap.Error(statusError(result, err)))

	settings = &optimize.Settings{MajorIterations: o.maxIterations * n}
	result, err = optimize.Minimize(problem, initial, settings, &optimize.NelderMead{})
	if accepted(problem, result, err) {
		o.log.Debug("nelder-mead converged", zap.Stringer("status", result.Status), zap.Int("iterations", result.Stats.MajorIterations), zap.Float64("f", result.F))
		return result.X, nil
	}
	return nil, statusError(result, err)
}

// accepted reports whether a solver result can be used. A line search that cannot make any
// progress at a point where the gradient vanishes has found the optimum to machine precision.
func accepted(problem optimize.Problem, result *optimize.Result, err error) bool {
	if result == nil || result.X == nil || math.IsNaN(result.F) {
		return false
	}
	if err == nil && converged[result.Status] {
		return true
	}
	if result.Status == optimize.IterationLimit || result.Status == optimize.FunctionEvaluationLimit {
		return false
	}
	grad := make([]float64, len(result.X))
	problem.Grad(grad, result.X)
	return floats.Norm(grad, math.Inf(1)) < 1e-7
}

func statusError(result *optimize.Result, err error) error {
	if err != nil {
		return err
	}
	if result == nil {
		return errors.New("no result")
	}
	return fmt.Errorf("solver stopped with status %v after %d iterations", result.Status, result.Stats.MajorIterations)
}
