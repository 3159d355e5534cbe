// Package telemetry aggregates per-generation training statistics and writes
// them to structured logs and run artifact files.
package telemetry

import (
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// GenerationStats summarizes one generation after evaluation. Field tags
// drive both the JSON artifacts and the CSV history file.
type GenerationStats struct {
	Generation   int     `json:"generation" csv:"generation"`
	BestFitness  float64 `json:"best_fitness" csv:"best_fitness"`
	MeanFitness  float64 `json:"mean_fitness" csv:"mean_fitness"`
	MinFitness   float64 `json:"min_fitness" csv:"min_fitness"`
	StdDev       float64 `json:"std_dev" csv:"std_dev"`
	BestGenomeID string  `json:"best_genome_id" csv:"best_genome_id"`
	BestBounces  int     `json:"best_bounces" csv:"best_bounces"`
	Truncated    int     `json:"truncated" csv:"truncated"`
}

// Summarize computes the distribution statistics for one generation's
// fitness values. The caller fills in the identity fields afterwards.
func Summarize(generation int, fitnesses []float64) GenerationStats {
	s := GenerationStats{Generation: generation}
	if len(fitnesses) == 0 {
		return s
	}
	s.BestFitness = fitnesses[0]
	s.MinFitness = fitnesses[0]
	for _, f := range fitnesses {
		if f > s.BestFitness {
			s.BestFitness = f
		}
		if f < s.MinFitness {
			s.MinFitness = f
		}
	}
	s.MeanFitness = stat.Mean(fitnesses, nil)
	if len(fitnesses) > 1 {
		s.StdDev = stat.StdDev(fitnesses, nil)
	}
	return s
}

// LogGeneration emits the generation summary at info level.
func LogGeneration(l *slog.Logger, s GenerationStats) {
	if l == nil {
		return
	}
	l.Info("generation complete",
		"generation", s.Generation,
		"best", s.BestFitness,
		"mean", s.MeanFitness,
		"min", s.MinFitness,
		"stddev", s.StdDev,
		"best_genome", s.BestGenomeID,
		"truncated", s.Truncated,
	)
}
