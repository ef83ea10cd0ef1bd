package risk

import (
	"math/rand/v2"

	"github.com/etnz/riskplan/date"
)

// history builds a daily price history starting on 2025-01-01.
func history(prices ...float64) *date.History[float64] {
	h := new(date.History[float64])
	day := date.New(2025, 1, 1)
	for _, p := range prices {
		h.Append(day, p)
		day = day.Add(1)
	}
	return h
}

// randomWalk returns n prices following a seeded geometric random walk.
func randomWalk(seed uint64, n int) []float64 {
	rng := rand.New(rand.NewPCG(seed, 0))
	prices := make([]float64, n)
	p := 100.0
	for i := range prices {
		p *= 1 + 0.01*rng.NormFloat64()
		prices[i] = p
	}
	return prices
}
