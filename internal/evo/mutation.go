package evo

import (
	"fmt"
	"math/rand"
)

// Mutator perturbs child genomes gene by gene. Each gene mutates with
// probability Rate; a mutation adds a uniform delta in [-Magnitude, Magnitude].
type Mutator struct {
	Rate      float64
	Magnitude float64
}

// NewMutator validates the mutation parameters. A zero rate yields a mutator
// that copies genomes unchanged.
func NewMutator(rate, magnitude float64) (Mutator, error) {
	if rate < 0 || rate > 1 {
		return Mutator{}, fmt.Errorf("mutation rate %v outside [0, 1]", rate)
	}
	if rate > 0 && magnitude <= 0 {
		return Mutator{}, fmt.Errorf("mutation magnitude %v must be positive when rate is nonzero", magnitude)
	}
	return Mutator{Rate: rate, Magnitude: magnitude}, nil
}

// Apply returns a mutated copy of weights. The input slice is not modified.
func (m Mutator) Apply(rng *rand.Rand, weights []float64) []float64 {
	out := append([]float64(nil), weights...)
	if m.Rate == 0 {
		return out
	}
	for i := range out {
		if rng.Float64() < m.Rate {
			out[i] += (rng.Float64()*2 - 1) * m.Magnitude
		}
	}
	return out
}
