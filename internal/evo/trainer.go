package evo

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"birdbrain/internal/model"
	"birdbrain/internal/scape"
	"birdbrain/internal/telemetry"
)

// Stop reasons reported in RunResult and persisted with the run record.
const (
	StopGenerationCap = "generation_cap"
	StopFitnessGoal   = "fitness_goal"
	StopPlateau       = "plateau"
)

// Config parameterizes one training run. Zero values select defaults where a
// default exists; everything else is validated by NewTrainer.
type Config struct {
	Scape          scape.Scape
	PopulationSize int
	Generations    int
	// EliteCount genomes survive each generation unchanged.
	EliteCount        int
	Selector          Selector
	Crossover         Crossover
	MutationRate      float64
	MutationMagnitude float64
	WeightCount       int
	// Workers bounds concurrent evaluations. Zero means serial.
	Workers int
	Seed    int64
	// FitnessGoal stops the run early once the best fitness reaches it.
	// Zero disables the goal.
	FitnessGoal float64
	// PlateauWindow stops the run after this many consecutive generations
	// without improvement of the best fitness. Zero disables the check.
	PlateauWindow int
	// OnGeneration, if set, observes each generation's summary after
	// evaluation and before breeding.
	OnGeneration func(telemetry.GenerationStats)
}

// RunResult is everything a finished run produced.
type RunResult struct {
	BestByGeneration []ScoredGenome
	Diagnostics      []telemetry.GenerationStats
	FinalPopulation  []ScoredGenome
	StopReason       string
	Generations      int
}

// Best returns the fittest genome seen across the whole run.
func (r RunResult) Best() (ScoredGenome, bool) {
	if len(r.BestByGeneration) == 0 {
		return ScoredGenome{}, false
	}
	best := r.BestByGeneration[0]
	for _, s := range r.BestByGeneration[1:] {
		if s.Fitness > best.Fitness {
			best = s
		}
	}
	return best, true
}

// Trainer runs the generational loop against one scape.
type Trainer struct {
	cfg     Config
	mutator Mutator
	rng     *rand.Rand
}

// NewTrainer validates the configuration and seeds the run's random source.
func NewTrainer(cfg Config) (*Trainer, error) {
	if cfg.Scape == nil {
		return nil, fmt.Errorf("trainer: scape is required")
	}
	if cfg.PopulationSize <= 0 {
		return nil, fmt.Errorf("trainer: population size %d must be positive", cfg.PopulationSize)
	}
	if cfg.Generations <= 0 {
		return nil, fmt.Errorf("trainer: generations %d must be positive", cfg.Generations)
	}
	if cfg.EliteCount < 0 || cfg.EliteCount > cfg.PopulationSize {
		return nil, fmt.Errorf("trainer: elite count %d outside [0, %d]", cfg.EliteCount, cfg.PopulationSize)
	}
	if cfg.WeightCount <= 0 {
		return nil, fmt.Errorf("trainer: weight count %d must be positive", cfg.WeightCount)
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("trainer: workers %d must not be negative", cfg.Workers)
	}
	if cfg.PlateauWindow < 0 {
		return nil, fmt.Errorf("trainer: plateau window %d must not be negative", cfg.PlateauWindow)
	}
	mutator, err := NewMutator(cfg.MutationRate, cfg.MutationMagnitude)
	if err != nil {
		return nil, fmt.Errorf("trainer: %w", err)
	}
	if cfg.Workers == 0 {
		cfg.Workers = 1
	}
	if cfg.Selector == nil {
		cfg.Selector = RouletteSelector{}
	}
	if cfg.Crossover == nil {
		cfg.Crossover = UniformCrossover{}
	}
	return &Trainer{
		cfg:     cfg,
		mutator: mutator,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// Run executes the training loop. A nil initial population is seeded with
// random genomes; a provided one must match the configured size and weight
// count. The loop stops at the generation cap, the fitness goal, a fitness
// plateau, or context cancellation, whichever comes first.
func (t *Trainer) Run(ctx context.Context, initial []model.Genome) (RunResult, error) {
	population, err := t.seedPopulation(initial)
	if err != nil {
		return RunResult{}, err
	}

	var result RunResult
	bestEver := model.UnevaluatedFitness
	sinceImprovement := 0

	for gen := 0; gen < t.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return RunResult{}, err
		}

		scored, err := t.evaluatePopulation(ctx, population)
		if err != nil {
			return RunResult{}, fmt.Errorf("generation %d: %w", gen, err)
		}
		sort.SliceStable(scored, func(i, j int) bool {
			return scored[i].Fitness > scored[j].Fitness
		})

		stats := t.summarize(gen, scored)
		result.Diagnostics = append(result.Diagnostics, stats)
		result.BestByGeneration = append(result.BestByGeneration, scored[0])
		result.FinalPopulation = scored
		result.Generations = gen + 1
		if t.cfg.OnGeneration != nil {
			t.cfg.OnGeneration(stats)
		}

		if scored[0].Fitness > bestEver {
			bestEver = scored[0].Fitness
			sinceImprovement = 0
		} else {
			sinceImprovement++
		}

		if t.cfg.FitnessGoal > 0 && scored[0].Fitness >= t.cfg.FitnessGoal {
			result.StopReason = StopFitnessGoal
			return result, nil
		}
		if t.cfg.PlateauWindow > 0 && sinceImprovement >= t.cfg.PlateauWindow {
			result.StopReason = StopPlateau
			return result, nil
		}
		if gen == t.cfg.Generations-1 {
			break
		}

		population, err = t.breed(gen, scored)
		if err != nil {
			return RunResult{}, fmt.Errorf("generation %d: %w", gen, err)
		}
	}

	result.StopReason = StopGenerationCap
	return result, nil
}

func (t *Trainer) seedPopulation(initial []model.Genome) ([]model.Genome, error) {
	if initial == nil {
		population := make([]model.Genome, t.cfg.PopulationSize)
		for i := range population {
			population[i] = model.NewRandomGenome(t.rng, fmt.Sprintf("g0-i%d", i), t.cfg.WeightCount)
		}
		return population, nil
	}
	if len(initial) != t.cfg.PopulationSize {
		return nil, fmt.Errorf("trainer: initial population size %d, configured %d", len(initial), t.cfg.PopulationSize)
	}
	population := make([]model.Genome, len(initial))
	for i, g := range initial {
		if len(g.Weights) != t.cfg.WeightCount {
			return nil, fmt.Errorf("trainer: genome %s has %d weights, configured %d", g.ID, len(g.Weights), t.cfg.WeightCount)
		}
		population[i] = g.Clone()
	}
	return population, nil
}

// evaluatePopulation scores every genome, fanning episodes out over the
// worker pool. Results keep population order so ties rank deterministically.
func (t *Trainer) evaluatePopulation(ctx context.Context, population []model.Genome) ([]ScoredGenome, error) {
	type job struct {
		index  int
		genome model.Genome
	}
	type outcome struct {
		index   int
		fitness scape.Fitness
		trace   scape.Trace
		err     error
	}

	jobs := make(chan job)
	results := make(chan outcome, len(population))

	var wg sync.WaitGroup
	for w := 0; w < t.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := ctx.Err(); err != nil {
					results <- outcome{index: j.index, err: err}
					continue
				}
				fit, trace, err := t.cfg.Scape.Evaluate(ctx, j.genome.Weights)
				results <- outcome{index: j.index, fitness: fit, trace: trace, err: err}
			}
		}()
	}

	for i, g := range population {
		jobs <- job{index: i, genome: g}
	}
	close(jobs)
	wg.Wait()
	close(results)

	scored := make([]ScoredGenome, len(population))
	for out := range results {
		if out.err != nil {
			return nil, fmt.Errorf("evaluate genome %s: %w", population[out.index].ID, out.err)
		}
		g := population[out.index]
		g.Fitness = float64(out.fitness)
		scored[out.index] = ScoredGenome{Genome: g, Fitness: float64(out.fitness), Trace: out.trace}
	}
	return scored, nil
}

func (t *Trainer) summarize(gen int, scored []ScoredGenome) telemetry.GenerationStats {
	fitnesses := make([]float64, len(scored))
	truncated := 0
	for i, s := range scored {
		fitnesses[i] = s.Fitness
		if v, ok := s.Trace[scape.TraceTruncated].(bool); ok && v {
			truncated++
		}
	}
	stats := telemetry.Summarize(gen, fitnesses)
	stats.BestGenomeID = scored[0].Genome.ID
	stats.Truncated = truncated
	if v, ok := scored[0].Trace[scape.TraceWallBounces].(int); ok {
		stats.BestBounces = v
	}
	return stats
}

// breed builds the next generation: elites are carried over as unevaluated
// clones, the rest are offspring of selected parents.
func (t *Trainer) breed(gen int, scored []ScoredGenome) ([]model.Genome, error) {
	next := make([]model.Genome, 0, t.cfg.PopulationSize)
	for i := 0; i < t.cfg.EliteCount; i++ {
		elite := scored[i].Genome.Clone()
		elite.Fitness = model.UnevaluatedFitness
		next = append(next, elite)
	}
	for i := len(next); i < t.cfg.PopulationSize; i++ {
		mother, err := t.cfg.Selector.PickParent(t.rng, scored)
		if err != nil {
			return nil, fmt.Errorf("select mother: %w", err)
		}
		father, err := t.cfg.Selector.PickParent(t.rng, scored)
		if err != nil {
			return nil, fmt.Errorf("select father: %w", err)
		}
		weights, err := t.cfg.Crossover.Combine(t.rng, mother, father)
		if err != nil {
			return nil, fmt.Errorf("crossover: %w", err)
		}
		next = append(next, model.Genome{
			ID:      fmt.Sprintf("g%d-i%d", gen+1, i),
			Weights: t.mutator.Apply(t.rng, weights),
			Fitness: model.UnevaluatedFitness,
		})
	}
	return next, nil
}
