// Package evo implements the generational training loop: parallel fitness
// evaluation, parent selection, crossover, and mutation over flat weight
// genomes.
package evo

import (
	"fmt"
	"math/rand"

	"birdbrain/internal/model"
	"birdbrain/internal/scape"
)

// ScoredGenome pairs a genome with the fitness and trace it earned this
// generation. Rankings sort these best-first.
type ScoredGenome struct {
	Genome  model.Genome
	Fitness float64
	Trace   scape.Trace
}

// Selector picks one parent from a scored population. Implementations draw
// from the supplied rng only, so a seeded run is reproducible.
type Selector interface {
	Name() string
	PickParent(rng *rand.Rand, scored []ScoredGenome) (model.Genome, error)
}

// RouletteSelector performs fitness-proportionate selection. When fitness
// mass is zero, as in an all-dead first generation, it falls back to a
// uniform draw so breeding never stalls.
type RouletteSelector struct{}

func (RouletteSelector) Name() string { return "roulette" }

func (RouletteSelector) PickParent(rng *rand.Rand, scored []ScoredGenome) (model.Genome, error) {
	if len(scored) == 0 {
		return model.Genome{}, fmt.Errorf("roulette selection: empty population")
	}
	var total float64
	for _, s := range scored {
		if s.Fitness < 0 {
			return model.Genome{}, fmt.Errorf("roulette selection: negative fitness %v for genome %s", s.Fitness, s.Genome.ID)
		}
		total += s.Fitness
	}
	if total <= 0 {
		return scored[rng.Intn(len(scored))].Genome.Clone(), nil
	}
	target := rng.Float64() * total
	for _, s := range scored {
		target -= s.Fitness
		if target < 0 {
			return s.Genome.Clone(), nil
		}
	}
	return scored[len(scored)-1].Genome.Clone(), nil
}

// TournamentSelector draws Size contestants with replacement and keeps the
// fittest, giving steeper selection pressure than roulette.
type TournamentSelector struct {
	Size int
}

func (s TournamentSelector) Name() string { return "tournament" }

func (s TournamentSelector) PickParent(rng *rand.Rand, scored []ScoredGenome) (model.Genome, error) {
	if len(scored) == 0 {
		return model.Genome{}, fmt.Errorf("tournament selection: empty population")
	}
	size := s.Size
	if size <= 0 {
		size = 3
	}
	best := scored[rng.Intn(len(scored))]
	for i := 1; i < size; i++ {
		c := scored[rng.Intn(len(scored))]
		if c.Fitness > best.Fitness {
			best = c
		}
	}
	return best.Genome.Clone(), nil
}

// SelectorByName resolves the configuration name of a selection strategy.
// Empty means the default, roulette.
func SelectorByName(name string) (Selector, error) {
	switch name {
	case "", "roulette":
		return RouletteSelector{}, nil
	case "tournament":
		return TournamentSelector{}, nil
	default:
		return nil, fmt.Errorf("unknown selector %q", name)
	}
}
