package portfolio

import (
	"errors"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// The least variance problems of the optimiser are convex quadratic programs
//
//	minimise wᵀΣw subject to Aw = b and w ≥ 0
//
// solved exactly by a primal active-set method: the instruments whose weight is pinned to zero
// form the working set, and every iteration solves the equality constrained problem on the
// other instruments.

const (
	// stepTolerance is the largest step deemed null.
	stepTolerance = 1e-12
	// multiplierTolerance is the most negative multiplier of a pinned weight deemed optimal.
	multiplierTolerance = 1e-10
)

// leastVariance returns the w ≥ 0 minimising wᵀΣw among the portfolios with the same rows·w
// as start. start must be a non negative solution of the constraints, and Σ positive definite.
func (o *Optimizer) leastVariance(cov mat.Symmetric, rows [][]float64, start []float64) ([]float64, error) {
	n := len(start)
	w := slices.Clone(start)
	pinned := make([]bool, n)
	for k, x := range w {
		pinned[k] = x == 0
	}
	gw := make([]float64, n)
	for it := 0; it < o.maxIterations; it++ {
		var free []int
		for k := range w {
			if !pinned[k] {
				free = append(free, k)
			}
		}
		cons := independentRows(rows, free)
		p, nu, err := equalityStep(cov, cons, free, w)
		if err != nil {
			return nil, err
		}

		if floats.Norm(p, math.Inf(1)) < stepTolerance {
			// w is optimal on the free instruments: release the pinned weight with the most
			// negative multiplier, or stop.
			gradient(gw, cov, w)
			release, most := -1, -multiplierTolerance
			for k := range w {
				if !pinned[k] {
					continue
				}
				eta := gw[k]
				for r, row := range cons {
					eta -= nu[r] * row[k]
				}
				if eta < most {
					release, most = k, eta
				}
			}
			if release < 0 {
				return w, nil
			}
			pinned[release] = false
			continue
		}

		// move along p until a free weight reaches zero.
		alpha, block := 1.0, -1
		for _, k := range free {
			if p[k] < 0 {
				if a := -w[k] / p[k]; a < alpha {
					alpha, block = a, k
				}
			}
		}
		floats.AddScaled(w, alpha, p)
		for _, k := range free {
			w[k] = math.Max(0, w[k])
		}
		if block >= 0 {
			w[block] = 0
			pinned[block] = true
		}
	}
	return nil, errors.New("active set did not converge within its iteration budget")
}

// gradient writes 2Σw into dst.
func gradient(dst []float64, cov mat.Symmetric, w []float64) {
	v := mat.NewVecDense(len(dst), dst)
	v.MulVec(cov, mat.NewVecDense(len(w), w))
	floats.Scale(2, dst)
}

// independentRows returns the rows that stay linearly independent once restricted to the free
// instruments. With a single free instrument, or free instruments sharing the same mean,
// the return row adds nothing to the budget row.
func independentRows(rows [][]float64, free []int) [][]float64 {
	var kept, basis [][]float64
	for _, row := range rows {
		v := make([]float64, len(free))
		for i, k := range free {
			v[i] = row[k]
		}
		norm := floats.Norm(v, 2)
		for _, b := range basis {
			floats.AddScaled(v, -floats.Dot(v, b), b)
		}
		if r := floats.Norm(v, 2); r > 0 && r > 1e-9*norm {
			floats.Scale(1/r, v)
			basis = append(basis, v)
			kept = append(kept, row)
		}
	}
	return kept
}

// equalityStep minimises the variance over the free instruments, the pinned ones staying at
// zero, subject to rows·p = 0. It returns the step p from w to that minimum, and the
// multipliers ν of the rows: 2Σ(w+p) = Σᵣ νᵣ rowᵣ on the free instruments.
func equalityStep(cov mat.Symmetric, rows [][]float64, free []int, w []float64) (p, nu []float64, err error) {
	m, r := len(free), len(rows)
	kkt := mat.NewDense(m+r, m+r, nil)
	rhs := mat.NewVecDense(m+r, nil)
	g := make([]float64, len(w))
	gradient(g, cov, w)
	for i, a := range free {
		for j, b := range free {
			kkt.Set(i, j, 2*cov.At(a, b))
		}
		for c, row := range rows {
			kkt.Set(i, m+c, -row[a])
			kkt.Set(m+c, i, row[a])
		}
		rhs.SetVec(i, -g[a])
	}
	var x mat.VecDense
	if err := x.SolveVec(kkt, rhs); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, nil, err
		}
	}
	p = make([]float64, len(w))
	for i, a := range free {
		p[a] = x.AtVec(i)
	}
	nu = make([]float64, r)
	for c := range rows {
		nu[c] = x.AtVec(m + c)
	}
	return p, nu, nil
}

func ones(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	return v
}
