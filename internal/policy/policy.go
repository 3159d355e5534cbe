// Package policy maps observed game state to a jump decision through a
// fixed-topology feed-forward network whose weights form the genome.
package policy

import (
	"fmt"
	"math"

	"birdbrain/internal/sim"
)

// Fixed network topology. The genome length is a function of these and never
// varies within a run.
const (
	NumInputs = 5
	NumHidden = 8
)

// WeightCount is the genome length implied by the topology: hidden-layer
// weights and biases plus output-layer weights and bias.
func WeightCount() int {
	return NumInputs*NumHidden + NumHidden + NumHidden + 1
}

// Observation is the fixed-size numeric view of game state handed to the
// network. The raw obstacle stream never crosses this boundary.
type Observation [NumInputs]float64

// Observe derives the observation from a state: normalized vertical position
// and velocity, distance to the wall being approached, offset from the next
// gap center, and travel direction.
func Observe(s sim.State, course sim.Course) Observation {
	wallDist := s.X / sim.CourseWidth
	if s.Dir > 0 {
		wallDist = (sim.CourseWidth - (s.X + sim.BirdWidth)) / sim.CourseWidth
	}
	gap, _ := course.GapCenter(s.Bounces)
	gapOffset := (gap - (s.Y + sim.BirdHeight/2)) / sim.CourseHeight

	return Observation{
		s.Y / sim.CourseHeight,
		s.VY / sim.JumpImpulse,
		wallDist,
		gapOffset,
		s.Dir,
	}
}

// Network is a 5-8-1 sigmoid feed-forward scorer. It holds no mutable state,
// so identical (weights, observation) pairs always decide identically.
type Network struct {
	inputHidden  []float64
	hiddenBias   []float64
	hiddenOutput []float64
	outputBias   float64
}

// NewNetwork slices a flat weight vector into the fixed topology. A wrong
// length is a programming or configuration error and fails immediately.
func NewNetwork(weights []float64) (*Network, error) {
	if len(weights) != WeightCount() {
		return nil, fmt.Errorf("policy weights length mismatch: got=%d want=%d", len(weights), WeightCount())
	}

	offset := 0
	take := func(n int) []float64 {
		out := weights[offset : offset+n]
		offset += n
		return out
	}
	return &Network{
		inputHidden:  take(NumInputs * NumHidden),
		hiddenBias:   take(NumHidden),
		hiddenOutput: take(NumHidden),
		outputBias:   take(1)[0],
	}, nil
}

// Score runs the forward pass and returns the sigmoid output in (0, 1).
func (n *Network) Score(obs Observation) float64 {
	total := n.outputBias
	for h := 0; h < NumHidden; h++ {
		sum := n.hiddenBias[h]
		for i := 0; i < NumInputs; i++ {
			sum += n.inputHidden[h*NumInputs+i] * obs[i]
		}
		total += n.hiddenOutput[h] * sigmoid(sum)
	}
	return sigmoid(total)
}

// Decide thresholds the score into the jump action.
func (n *Network) Decide(obs Observation) bool {
	return n.Score(obs) > 0.5
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
