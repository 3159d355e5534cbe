package storage

import (
	"context"
	"testing"

	"birdbrain/internal/model"
	"birdbrain/internal/telemetry"
)

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	if err := s.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestGenomeRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	genome := model.Genome{
		VersionedRecord: Stamp(),
		ID:              "g0-i3",
		Weights:         []float64{0.1, -0.2, 0.3},
		Fitness:         42,
	}
	if err := s.SaveGenome(ctx, genome); err != nil {
		t.Fatal(err)
	}

	got, ok, err := s.GetGenome(ctx, "g0-i3")
	if err != nil || !ok {
		t.Fatalf("GetGenome: ok=%v err=%v", ok, err)
	}
	if got.Fitness != 42 || len(got.Weights) != 3 {
		t.Fatalf("got %+v", got)
	}

	// Stored weights are isolated from the caller's slice.
	genome.Weights[0] = 99
	got2, _, _ := s.GetGenome(ctx, "g0-i3")
	if got2.Weights[0] == 99 {
		t.Fatal("store aliases caller weights")
	}

	if _, ok, err := s.GetGenome(ctx, "missing"); ok || err != nil {
		t.Fatalf("missing genome: ok=%v err=%v", ok, err)
	}
}

func TestPopulationRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	population := model.Population{
		VersionedRecord: Stamp(),
		ID:              "run-1-final",
		Generation:      5,
		Genomes: []model.Genome{
			{VersionedRecord: Stamp(), ID: "a", Weights: []float64{1}},
			{VersionedRecord: Stamp(), ID: "b", Weights: []float64{2}},
		},
	}
	if err := s.SavePopulation(ctx, population); err != nil {
		t.Fatal(err)
	}
	got, ok, err := s.GetPopulation(ctx, "run-1-final")
	if err != nil || !ok {
		t.Fatalf("GetPopulation: ok=%v err=%v", ok, err)
	}
	if got.Generation != 5 || len(got.Genomes) != 2 {
		t.Fatalf("got %+v", got)
	}
}

func TestRunArtifacts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveFitnessHistory(ctx, "run-1", []float64{10, 20, 35}); err != nil {
		t.Fatal(err)
	}
	history, ok, err := s.GetFitnessHistory(ctx, "run-1")
	if err != nil || !ok || len(history) != 3 {
		t.Fatalf("history: %v ok=%v err=%v", history, ok, err)
	}

	stats := []telemetry.GenerationStats{{Generation: 0, BestFitness: 10}, {Generation: 1, BestFitness: 20}}
	if err := s.SaveGenerationStats(ctx, "run-1", stats); err != nil {
		t.Fatal(err)
	}
	gotStats, ok, err := s.GetGenerationStats(ctx, "run-1")
	if err != nil || !ok || len(gotStats) != 2 || gotStats[1].BestFitness != 20 {
		t.Fatalf("stats: %v ok=%v err=%v", gotStats, ok, err)
	}

	top := []model.TopGenomeRecord{{Rank: 1, Fitness: 35, Genome: model.Genome{VersionedRecord: Stamp(), ID: "best", Weights: []float64{1}}}}
	if err := s.SaveTopGenomes(ctx, "run-1", top); err != nil {
		t.Fatal(err)
	}
	gotTop, ok, err := s.GetTopGenomes(ctx, "run-1")
	if err != nil || !ok || gotTop[0].Genome.ID != "best" {
		t.Fatalf("top: %v ok=%v err=%v", gotTop, ok, err)
	}

	if _, ok, _ := s.GetFitnessHistory(ctx, "run-2"); ok {
		t.Fatal("unexpected history for unknown run")
	}
}

func TestRunRecordsListSorted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, r := range []model.RunRecord{
		{VersionedRecord: Stamp(), RunID: "b", CreatedAtUTC: "2026-08-23T12:00:00Z"},
		{VersionedRecord: Stamp(), RunID: "a", CreatedAtUTC: "2026-08-23T10:00:00Z"},
	} {
		if err := s.SaveRunRecord(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].RunID != "a" || runs[1].RunID != "b" {
		t.Fatalf("runs = %+v", runs)
	}

	got, ok, err := s.GetRunRecord(ctx, "a")
	if err != nil || !ok || got.CreatedAtUTC != "2026-08-23T10:00:00Z" {
		t.Fatalf("record: %+v ok=%v err=%v", got, ok, err)
	}
}

func TestCodecVersionCheck(t *testing.T) {
	genome := model.Genome{ID: "g", Weights: []float64{1}}
	genome.SchemaVersion = 2
	genome.CodecVersion = 1

	payload, err := EncodeGenome(genome)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeGenome(payload); err == nil {
		t.Fatal("expected version mismatch error")
	}

	genome.VersionedRecord = Stamp()
	payload, err = EncodeGenome(genome)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeGenome(payload); err != nil {
		t.Fatal(err)
	}
}

func TestFactory(t *testing.T) {
	store, err := NewStore("memory", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := store.(*MemoryStore); !ok {
		t.Fatalf("kind memory produced %T", store)
	}
	if _, err := NewStore("bolt", ""); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if err := CloseIfSupported(store); err != nil {
		t.Fatal(err)
	}
}
