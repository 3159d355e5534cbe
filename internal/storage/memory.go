package storage

import (
	"context"
	"sort"
	"sync"

	"birdbrain/internal/model"
	"birdbrain/internal/telemetry"
)

type MemoryStore struct {
	mu          sync.RWMutex
	genomes     map[string]model.Genome
	populations map[string]model.Population
	history     map[string][]float64
	stats       map[string][]telemetry.GenerationStats
	topGenomes  map[string][]model.TopGenomeRecord
	runs        map[string]model.RunRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.genomes = make(map[string]model.Genome)
	s.populations = make(map[string]model.Population)
	s.history = make(map[string][]float64)
	s.stats = make(map[string][]telemetry.GenerationStats)
	s.topGenomes = make(map[string][]model.TopGenomeRecord)
	s.runs = make(map[string]model.RunRecord)
	return nil
}

func (s *MemoryStore) SaveGenome(_ context.Context, genome model.Genome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.genomes[genome.ID] = genome.Clone()
	return nil
}

func (s *MemoryStore) GetGenome(_ context.Context, id string) (model.Genome, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	genome, ok := s.genomes[id]
	if !ok {
		return model.Genome{}, false, nil
	}
	return genome.Clone(), true, nil
}

func (s *MemoryStore) SavePopulation(_ context.Context, population model.Population) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := population
	copied.Genomes = make([]model.Genome, len(population.Genomes))
	for i, g := range population.Genomes {
		copied.Genomes[i] = g.Clone()
	}
	s.populations[population.ID] = copied
	return nil
}

func (s *MemoryStore) GetPopulation(_ context.Context, id string) (model.Population, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	population, ok := s.populations[id]
	if !ok {
		return model.Population{}, false, nil
	}
	copied := population
	copied.Genomes = make([]model.Genome, len(population.Genomes))
	for i, g := range population.Genomes {
		copied.Genomes[i] = g.Clone()
	}
	return copied, true, nil
}

func (s *MemoryStore) SaveFitnessHistory(_ context.Context, runID string, history []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history[runID] = append([]float64(nil), history...)
	return nil
}

func (s *MemoryStore) GetFitnessHistory(_ context.Context, runID string) ([]float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.history[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]float64(nil), history...), true, nil
}

func (s *MemoryStore) SaveGenerationStats(_ context.Context, runID string, stats []telemetry.GenerationStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]telemetry.GenerationStats, len(stats))
	copy(copied, stats)
	s.stats[runID] = copied
	return nil
}

func (s *MemoryStore) GetGenerationStats(_ context.Context, runID string) ([]telemetry.GenerationStats, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats, ok := s.stats[runID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]telemetry.GenerationStats, len(stats))
	copy(copied, stats)
	return copied, true, nil
}

func (s *MemoryStore) SaveTopGenomes(_ context.Context, runID string, top []model.TopGenomeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]model.TopGenomeRecord, len(top))
	for i, record := range top {
		record.Genome = record.Genome.Clone()
		copied[i] = record
	}
	s.topGenomes[runID] = copied
	return nil
}

func (s *MemoryStore) GetTopGenomes(_ context.Context, runID string) ([]model.TopGenomeRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	top, ok := s.topGenomes[runID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]model.TopGenomeRecord, len(top))
	for i, record := range top {
		record.Genome = record.Genome.Clone()
		copied[i] = record
	}
	return copied, true, nil
}

func (s *MemoryStore) SaveRunRecord(_ context.Context, record model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[record.RunID] = record
	return nil
}

func (s *MemoryStore) GetRunRecord(_ context.Context, runID string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.runs[runID]
	return record, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]model.RunRecord, 0, len(s.runs))
	for _, record := range s.runs {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAtUTC != records[j].CreatedAtUTC {
			return records[i].CreatedAtUTC < records[j].CreatedAtUTC
		}
		return records[i].RunID < records[j].RunID
	})
	return records, nil
}
