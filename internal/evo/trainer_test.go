package evo

import (
	"context"
	"testing"

	"birdbrain/internal/model"
	"birdbrain/internal/policy"
	"birdbrain/internal/scape"
)

// sumScape scores a genome by the clamped sum of its weights. It is
// deterministic and trivially optimizable, which makes loop behavior easy to
// assert without running game episodes.
type sumScape struct{}

func (sumScape) Name() string { return "sum" }

func (sumScape) Evaluate(ctx context.Context, weights []float64) (scape.Fitness, scape.Trace, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}
	var total float64
	for _, w := range weights {
		total += w
	}
	if total < 0 {
		total = 0
	}
	return scape.Fitness(total), scape.Trace{scape.TraceTruncated: false}, nil
}

func baseConfig() Config {
	return Config{
		Scape:             sumScape{},
		PopulationSize:    12,
		Generations:       8,
		EliteCount:        2,
		MutationRate:      0.2,
		MutationMagnitude: 0.1,
		WeightCount:       4,
		Workers:           3,
		Seed:              7,
	}
}

func TestRunKeepsPopulationSize(t *testing.T) {
	tr, err := NewTrainer(baseConfig())
	if err != nil {
		t.Fatal(err)
	}
	res, err := tr.Run(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.FinalPopulation) != 12 {
		t.Fatalf("final population size = %d, want 12", len(res.FinalPopulation))
	}
	if res.Generations != 8 || res.StopReason != StopGenerationCap {
		t.Fatalf("generations=%d stop=%q", res.Generations, res.StopReason)
	}
	if len(res.Diagnostics) != 8 || len(res.BestByGeneration) != 8 {
		t.Fatalf("diagnostics=%d best=%d, want 8 each", len(res.Diagnostics), len(res.BestByGeneration))
	}
}

func TestElitismKeepsBestMonotonic(t *testing.T) {
	tr, err := NewTrainer(baseConfig())
	if err != nil {
		t.Fatal(err)
	}
	res, err := tr.Run(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(res.Diagnostics); i++ {
		if res.Diagnostics[i].BestFitness < res.Diagnostics[i-1].BestFitness {
			t.Fatalf("generation %d best %v dropped below %v despite elitism",
				i, res.Diagnostics[i].BestFitness, res.Diagnostics[i-1].BestFitness)
		}
	}
}

func TestRunSeededDeterminism(t *testing.T) {
	run := func() RunResult {
		tr, err := NewTrainer(baseConfig())
		if err != nil {
			t.Fatal(err)
		}
		res, err := tr.Run(context.Background(), nil)
		if err != nil {
			t.Fatal(err)
		}
		return res
	}
	a, b := run(), run()
	for i := range a.Diagnostics {
		if a.Diagnostics[i] != b.Diagnostics[i] {
			t.Fatalf("generation %d diverged under identical seeds:\n%+v\n%+v",
				i, a.Diagnostics[i], b.Diagnostics[i])
		}
	}
}

func TestRunWithProvidedPopulation(t *testing.T) {
	cfg := baseConfig()
	cfg.PopulationSize = 3
	cfg.Generations = 2
	cfg.EliteCount = 1
	tr, err := NewTrainer(cfg)
	if err != nil {
		t.Fatal(err)
	}
	initial := []model.Genome{
		{ID: "x", Weights: []float64{1, 1, 1, 1}, Fitness: model.UnevaluatedFitness},
		{ID: "y", Weights: []float64{0, 0, 0, 0}, Fitness: model.UnevaluatedFitness},
		{ID: "z", Weights: []float64{-1, 0, 0, 0}, Fitness: model.UnevaluatedFitness},
	}
	res, err := tr.Run(context.Background(), initial)
	if err != nil {
		t.Fatal(err)
	}
	if res.Diagnostics[0].BestGenomeID != "x" {
		t.Fatalf("generation 0 best = %s, want x", res.Diagnostics[0].BestGenomeID)
	}

	// Size and weight-count mismatches are rejected before any evaluation.
	if _, err := tr.Run(context.Background(), initial[:2]); err == nil {
		t.Fatal("expected size mismatch error")
	}
	bad := []model.Genome{
		{ID: "x", Weights: []float64{1}},
		{ID: "y", Weights: []float64{1}},
		{ID: "z", Weights: []float64{1}},
	}
	if _, err := tr.Run(context.Background(), bad); err == nil {
		t.Fatal("expected weight count mismatch error")
	}
}

func TestFitnessGoalStopsEarly(t *testing.T) {
	cfg := baseConfig()
	cfg.Generations = 100
	cfg.FitnessGoal = 0.01
	tr, err := NewTrainer(cfg)
	if err != nil {
		t.Fatal(err)
	}
	res, err := tr.Run(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.StopReason != StopFitnessGoal {
		t.Fatalf("stop reason = %q, want %q", res.StopReason, StopFitnessGoal)
	}
	if res.Generations == 100 {
		t.Fatal("run did not stop early")
	}
}

func TestPlateauStops(t *testing.T) {
	cfg := baseConfig()
	cfg.Generations = 100
	cfg.MutationRate = 0
	cfg.MutationMagnitude = 0
	cfg.PlateauWindow = 3
	tr, err := NewTrainer(cfg)
	if err != nil {
		t.Fatal(err)
	}
	res, err := tr.Run(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.StopReason != StopPlateau {
		t.Fatalf("stop reason = %q, want %q", res.StopReason, StopPlateau)
	}
}

func TestSingleGenomeZeroRateIsStationary(t *testing.T) {
	tr, err := NewTrainer(Config{
		Scape:          scape.NewSpikesScape(11, 8, 200),
		PopulationSize: 1,
		Generations:    3,
		EliteCount:     1,
		MutationRate:   0,
		WeightCount:    policy.WeightCount(),
		Seed:           3,
	})
	if err != nil {
		t.Fatal(err)
	}
	res, err := tr.Run(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.BestByGeneration) != 3 {
		t.Fatalf("generations recorded = %d, want 3", len(res.BestByGeneration))
	}

	// A lone elite with zero mutation is reproduced exactly, so every
	// generation re-evaluates the identical genome to the identical fitness.
	first := res.BestByGeneration[0]
	for gen, scored := range res.BestByGeneration[1:] {
		if scored.Fitness != first.Fitness {
			t.Fatalf("generation %d fitness %v, want %v", gen+1, scored.Fitness, first.Fitness)
		}
		if scored.Genome.ID != first.Genome.ID {
			t.Fatalf("generation %d genome id %s, want %s", gen+1, scored.Genome.ID, first.Genome.ID)
		}
		for i := range first.Genome.Weights {
			if scored.Genome.Weights[i] != first.Genome.Weights[i] {
				t.Fatalf("generation %d weight %d changed", gen+1, i)
			}
		}
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	tr, err := NewTrainer(baseConfig())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := tr.Run(ctx, nil); err == nil {
		t.Fatal("expected context error")
	}
}

func TestNewTrainerValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"nil scape", func(c *Config) { c.Scape = nil }},
		{"zero population", func(c *Config) { c.PopulationSize = 0 }},
		{"zero generations", func(c *Config) { c.Generations = 0 }},
		{"negative elites", func(c *Config) { c.EliteCount = -1 }},
		{"elites exceed population", func(c *Config) { c.EliteCount = 13 }},
		{"zero weights", func(c *Config) { c.WeightCount = 0 }},
		{"negative workers", func(c *Config) { c.Workers = -1 }},
		{"bad mutation rate", func(c *Config) { c.MutationRate = 1.5 }},
		{"negative plateau window", func(c *Config) { c.PlateauWindow = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := baseConfig()
			tc.mutate(&cfg)
			if _, err := NewTrainer(cfg); err == nil {
				t.Fatal("expected configuration error")
			}
		})
	}
}
