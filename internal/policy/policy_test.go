package policy

import (
	"math/rand"
	"testing"

	"birdbrain/internal/sim"
)

func TestWeightCount(t *testing.T) {
	want := NumInputs*NumHidden + NumHidden + NumHidden + 1
	if got := WeightCount(); got != want {
		t.Fatalf("WeightCount() = %d, want %d", got, want)
	}
}

func TestNewNetworkRejectsWrongLength(t *testing.T) {
	for _, n := range []int{0, 1, WeightCount() - 1, WeightCount() + 1} {
		if _, err := NewNetwork(make([]float64, n)); err == nil {
			t.Errorf("NewNetwork with %d weights: expected error", n)
		}
	}
}

func TestDecideDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	weights := make([]float64, WeightCount())
	for i := range weights {
		weights[i] = rng.Float64()*2 - 1
	}
	a, err := NewNetwork(weights)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewNetwork(append([]float64(nil), weights...))
	if err != nil {
		t.Fatal(err)
	}

	course := sim.NewCourse(11, 8)
	state := sim.NewState()
	for tick := 0; tick < 100; tick++ {
		obs := Observe(state, course)
		if a.Decide(obs) != b.Decide(obs) {
			t.Fatalf("tick %d: identical weights decided differently", tick)
		}
		state = sim.Step(state, course, a.Decide(obs))
	}
}

func TestZeroWeightsScoreIsHalf(t *testing.T) {
	net, err := NewNetwork(make([]float64, WeightCount()))
	if err != nil {
		t.Fatal(err)
	}
	obs := Observe(sim.NewState(), sim.OpenCourse())
	if got := net.Score(obs); got != 0.5 {
		t.Fatalf("all-zero network score = %v, want 0.5", got)
	}
	if net.Decide(obs) {
		t.Fatal("score exactly at threshold must not jump")
	}
}

func TestObserveRanges(t *testing.T) {
	course := sim.NewCourse(3, 16)
	state := sim.NewState()
	for tick := 0; tick < 50 && state.Alive; tick++ {
		obs := Observe(state, course)
		if obs[4] != 1 && obs[4] != -1 {
			t.Fatalf("tick %d: direction component = %v", tick, obs[4])
		}
		if obs[2] < 0 || obs[2] > 1 {
			t.Fatalf("tick %d: wall distance component = %v outside [0,1]", tick, obs[2])
		}
		state = sim.Step(state, course, tick%9 == 0)
	}
}
