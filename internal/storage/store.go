package storage

import (
	"context"

	"birdbrain/internal/model"
	"birdbrain/internal/telemetry"
)

// Store persists training runs: genomes, populations, per-run fitness
// history, generation statistics, leaderboards, and the run index.
type Store interface {
	Init(ctx context.Context) error
	SaveGenome(ctx context.Context, genome model.Genome) error
	GetGenome(ctx context.Context, id string) (model.Genome, bool, error)
	SavePopulation(ctx context.Context, population model.Population) error
	GetPopulation(ctx context.Context, id string) (model.Population, bool, error)
	SaveFitnessHistory(ctx context.Context, runID string, history []float64) error
	GetFitnessHistory(ctx context.Context, runID string) ([]float64, bool, error)
	SaveGenerationStats(ctx context.Context, runID string, stats []telemetry.GenerationStats) error
	GetGenerationStats(ctx context.Context, runID string) ([]telemetry.GenerationStats, bool, error)
	SaveTopGenomes(ctx context.Context, runID string, top []model.TopGenomeRecord) error
	GetTopGenomes(ctx context.Context, runID string) ([]model.TopGenomeRecord, bool, error)
	SaveRunRecord(ctx context.Context, record model.RunRecord) error
	GetRunRecord(ctx context.Context, runID string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
}
