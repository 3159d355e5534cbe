package model

import (
	"math/rand"
	"time"
)

// CreatedAtLayout keeps a fixed-width fractional second so the lexicographic
// order of stored timestamps matches chronological order.
const CreatedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatCreatedAt renders a run timestamp in UTC with the fixed-width layout.
func FormatCreatedAt(t time.Time) string {
	return t.UTC().Format(CreatedAtLayout)
}

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// UnevaluatedFitness marks a genome that has not been scored this generation.
// Real fitness is survival ticks and therefore never negative.
const UnevaluatedFitness = -1.0

// Genome is a fixed-length weight vector plus the fitness it earned in its
// generation. It is the unit of heredity: selection copies genomes, it never
// aliases them across populations.
type Genome struct {
	VersionedRecord
	ID      string    `json:"id"`
	Weights []float64 `json:"weights"`
	Fitness float64   `json:"fitness"`
}

// Clone returns a deep copy with an independent weight slice.
func (g Genome) Clone() Genome {
	out := g
	out.Weights = append([]float64(nil), g.Weights...)
	return out
}

// Evaluated reports whether the genome has been scored this generation.
func (g Genome) Evaluated() bool {
	return g.Fitness != UnevaluatedFitness
}

// NewRandomGenome draws every weight uniformly from [-1, 1).
func NewRandomGenome(rng *rand.Rand, id string, weightCount int) Genome {
	weights := make([]float64, weightCount)
	for i := range weights {
		weights[i] = rng.Float64()*2 - 1
	}
	return Genome{ID: id, Weights: weights, Fitness: UnevaluatedFitness}
}

type Population struct {
	VersionedRecord
	ID         string   `json:"id"`
	Generation int      `json:"generation"`
	Genomes    []Genome `json:"genomes"`
}

type TopGenomeRecord struct {
	Rank    int     `json:"rank"`
	Fitness float64 `json:"fitness"`
	Genome  Genome  `json:"genome"`
}

// RunRecord is the per-run index entry listed by the runs command.
type RunRecord struct {
	VersionedRecord
	RunID            string  `json:"run_id"`
	CreatedAtUTC     string  `json:"created_at_utc"`
	Scape            string  `json:"scape"`
	Seed             int64   `json:"seed"`
	CourseSeed       int64   `json:"course_seed"`
	CourseApproaches int     `json:"course_approaches"`
	MaxTicks         int     `json:"max_ticks"`
	Population       int     `json:"population"`
	Generations      int     `json:"generations"`
	BestFitness      float64 `json:"best_fitness"`
	StopReason       string  `json:"stop_reason"`
}
