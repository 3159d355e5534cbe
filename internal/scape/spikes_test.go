package scape

import (
	"context"
	"math/rand"
	"testing"

	"birdbrain/internal/policy"
)

func randomWeights(seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	weights := make([]float64, policy.WeightCount())
	for i := range weights {
		weights[i] = rng.Float64()*2 - 1
	}
	return weights
}

func TestSpikesEvaluateDeterministic(t *testing.T) {
	s := NewSpikesScape(42, 16, 0)
	weights := randomWeights(5)

	first, firstTrace, err := s.Evaluate(context.Background(), weights)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		got, trace, err := s.Evaluate(context.Background(), weights)
		if err != nil {
			t.Fatal(err)
		}
		if got != first {
			t.Fatalf("repeat %d: fitness %v, want %v", i, got, first)
		}
		if trace[TraceWallBounces] != firstTrace[TraceWallBounces] {
			t.Fatalf("repeat %d: bounces %v, want %v", i, trace[TraceWallBounces], firstTrace[TraceWallBounces])
		}
	}
}

func TestOpenSkyAlwaysTruncates(t *testing.T) {
	s := NewOpenSkyScape(500)
	fit, trace, err := s.Evaluate(context.Background(), randomWeights(9))
	if err != nil {
		t.Fatal(err)
	}
	if fit != 500 {
		t.Fatalf("open-sky fitness = %v, want 500", fit)
	}
	if trace[TraceTruncated] != true {
		t.Fatalf("open-sky trace truncated = %v, want true", trace[TraceTruncated])
	}
}

func TestEvaluateRejectsBadWeights(t *testing.T) {
	s := NewSpikesScape(1, 8, 100)
	if _, _, err := s.Evaluate(context.Background(), []float64{1, 2, 3}); err == nil {
		t.Fatal("expected error for wrong weight count")
	}
}

func TestEvaluateHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewOpenSkyScape(0)
	if _, _, err := s.Evaluate(ctx, randomWeights(2)); err == nil {
		t.Fatal("expected context error")
	}
}

func TestReplayMatchesEvaluate(t *testing.T) {
	s := NewSpikesScape(13, 16, 300)
	weights := randomWeights(21)

	fit, _, err := s.Evaluate(context.Background(), weights)
	if err != nil {
		t.Fatal(err)
	}
	final, err := Replay(context.Background(), s.Course(), s.MaxTicks(), weights)
	if err != nil {
		t.Fatal(err)
	}
	if Fitness(final.Ticks) != fit {
		t.Fatalf("replay ticks = %d, evaluate fitness = %v", final.Ticks, fit)
	}
}
