package evo

import (
	"fmt"
	"math/rand"

	"birdbrain/internal/model"
)

// Crossover combines two parents into one child weight vector of the same
// length. Parents are never modified.
type Crossover interface {
	Name() string
	Combine(rng *rand.Rand, a, b model.Genome) ([]float64, error)
}

// UniformCrossover draws each child gene independently from either parent
// with equal probability.
type UniformCrossover struct{}

func (UniformCrossover) Name() string { return "uniform" }

func (UniformCrossover) Combine(rng *rand.Rand, a, b model.Genome) ([]float64, error) {
	if err := checkParents(a, b); err != nil {
		return nil, err
	}
	child := make([]float64, len(a.Weights))
	for i := range child {
		if rng.Intn(2) == 0 {
			child[i] = a.Weights[i]
		} else {
			child[i] = b.Weights[i]
		}
	}
	return child, nil
}

// SinglePointCrossover takes a prefix from one parent and the remainder from
// the other, with the cut point drawn uniformly.
type SinglePointCrossover struct{}

func (SinglePointCrossover) Name() string { return "single-point" }

func (SinglePointCrossover) Combine(rng *rand.Rand, a, b model.Genome) ([]float64, error) {
	if err := checkParents(a, b); err != nil {
		return nil, err
	}
	cut := rng.Intn(len(a.Weights) + 1)
	child := make([]float64, len(a.Weights))
	copy(child[:cut], a.Weights[:cut])
	copy(child[cut:], b.Weights[cut:])
	return child, nil
}

func checkParents(a, b model.Genome) error {
	if len(a.Weights) == 0 {
		return fmt.Errorf("crossover: parent %s has no weights", a.ID)
	}
	if len(a.Weights) != len(b.Weights) {
		return fmt.Errorf("crossover: parent lengths differ: %s=%d %s=%d", a.ID, len(a.Weights), b.ID, len(b.Weights))
	}
	return nil
}

// CrossoverByName resolves the configuration name of a crossover strategy.
// Empty means the default, uniform.
func CrossoverByName(name string) (Crossover, error) {
	switch name {
	case "", "uniform":
		return UniformCrossover{}, nil
	case "single-point":
		return SinglePointCrossover{}, nil
	default:
		return nil, fmt.Errorf("unknown crossover %q", name)
	}
}
