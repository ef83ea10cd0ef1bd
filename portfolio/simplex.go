package portfolio

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// The optimiser works on unconstrained variables z mapped to the simplex through the softmax
// w = exp(z) / Σ exp(z). Any z is a valid long-only portfolio, and z = 0 is the equal weights
// portfolio.

// softmax writes the weights of z into w.
func softmax(w, z []float64) {
	m := floats.Max(z)
	for i, x := range z {
		w[i] = math.Exp(x - m)
	}
	floats.Scale(1/floats.Sum(w), w)
}

// softmaxGrad writes into grad the gradient with respect to z of a function whose gradient
// with respect to w is g: ∂f/∂zₖ = wₖ(gₖ − Σ wⱼgⱼ).
func softmaxGrad(grad, w, g []float64) {
	wg := floats.Dot(w, g)
	for k := range grad {
		grad[k] = w[k] * (g[k] - wg)
	}
}

// zeroWeight is the weight under which an instrument is dropped.
const zeroWeight = 1e-8

// cleanWeights zeroes the weights below zeroWeight and renormalises the rest.
func cleanWeights(w []float64) Weights {
	res := make(Weights, len(w))
	for i, x := range w {
		if x >= zeroWeight {
			res[i] = x
		}
	}
	sum := floats.Sum(res)
	if sum == 0 {
		return EqualWeights(len(w))
	}
	floats.Scale(1/sum, res)
	return res
}

// longOnly returns the normalised x if it is a long-only portfolio.
func longOnly(x []float64) (Weights, bool) {
	sum := floats.Sum(x)
	if !(sum > 0) {
		return nil, false
	}
	w := make([]float64, len(x))
	floats.ScaleTo(w, 1/sum, x)
	for _, v := range w {
		if v < -1e-12 {
			return nil, false
		}
	}
	return cleanWeights(w), true
}

// sub returns the covariance restricted to the given indexes.
func sub(cov mat.Symmetric, indexes []int) *mat.SymDense {
	s := mat.NewSymDense(len(indexes), nil)
	for i, a := range indexes {
		for j := i; j < len(indexes); j++ {
			s.SetSym(i, j, cov.At(a, indexes[j]))
		}
	}
	return s
}
