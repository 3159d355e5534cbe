package scape

import (
	"context"
	"fmt"

	"birdbrain/internal/policy"
	"birdbrain/internal/sim"
)

// DefaultMaxTicks caps an episode so that agents which never die still
// terminate.
const DefaultMaxTicks = 500

// Trace keys produced by the spike scapes.
const (
	TraceSurvivalTicks = "survival_ticks"
	TraceWallBounces   = "wall_bounces"
	TraceTruncated     = "truncated"
)

// SpikesScape runs one episode of the spike course per evaluation. The course
// is fixed at construction, so every genome in a run faces the same obstacle
// stream.
type SpikesScape struct {
	course   sim.Course
	maxTicks int
}

// NewSpikesScape builds the standard evaluation scape. maxTicks <= 0 selects
// the default episode cap.
func NewSpikesScape(courseSeed int64, approaches, maxTicks int) *SpikesScape {
	if maxTicks <= 0 {
		maxTicks = DefaultMaxTicks
	}
	return &SpikesScape{course: sim.NewCourse(courseSeed, approaches), maxTicks: maxTicks}
}

func (s *SpikesScape) Name() string { return "spikes" }

func (s *SpikesScape) Evaluate(ctx context.Context, weights []float64) (Fitness, Trace, error) {
	return runEpisode(ctx, s.course, s.maxTicks, weights)
}

// Course exposes the obstacle stream so replays can rerun the exact episode.
func (s *SpikesScape) Course() sim.Course { return s.course }

// MaxTicks is the episode cap the scape evaluates under.
func (s *SpikesScape) MaxTicks() int { return s.maxTicks }

// OpenSkyScape evaluates on an obstacle-free course. Nothing kills, so every
// episode runs to the tick cap; it exists for smoke tests and as a floor for
// fitness calibration.
type OpenSkyScape struct {
	maxTicks int
}

func NewOpenSkyScape(maxTicks int) *OpenSkyScape {
	if maxTicks <= 0 {
		maxTicks = DefaultMaxTicks
	}
	return &OpenSkyScape{maxTicks: maxTicks}
}

func (s *OpenSkyScape) Name() string { return "open-sky" }

func (s *OpenSkyScape) Evaluate(ctx context.Context, weights []float64) (Fitness, Trace, error) {
	return runEpisode(ctx, sim.OpenCourse(), s.maxTicks, weights)
}

func (s *OpenSkyScape) Course() sim.Course { return sim.OpenCourse() }

func (s *OpenSkyScape) MaxTicks() int { return s.maxTicks }

// runEpisode plays one episode to death or the tick cap and scores it by
// ticks survived. Truncation at the cap is a normal outcome, not an error.
func runEpisode(ctx context.Context, course sim.Course, maxTicks int, weights []float64) (Fitness, Trace, error) {
	net, err := policy.NewNetwork(weights)
	if err != nil {
		return 0, nil, fmt.Errorf("build policy network: %w", err)
	}

	state := sim.NewState()
	for state.Alive && state.Ticks < maxTicks {
		if err := ctx.Err(); err != nil {
			return 0, nil, err
		}
		state = sim.Step(state, course, net.Decide(policy.Observe(state, course)))
	}

	trace := Trace{
		TraceSurvivalTicks: state.Ticks,
		TraceWallBounces:   state.Bounces,
		TraceTruncated:     state.Alive,
	}
	return Fitness(state.Ticks), trace, nil
}

// Replay reruns one episode on a course and returns the final state, for
// inspecting what a stored genome actually does.
func Replay(ctx context.Context, course sim.Course, maxTicks int, weights []float64) (sim.State, error) {
	if maxTicks <= 0 {
		maxTicks = DefaultMaxTicks
	}
	net, err := policy.NewNetwork(weights)
	if err != nil {
		return sim.State{}, fmt.Errorf("build policy network: %w", err)
	}
	state := sim.NewState()
	for state.Alive && state.Ticks < maxTicks {
		if err := ctx.Err(); err != nil {
			return sim.State{}, err
		}
		state = sim.Step(state, course, net.Decide(policy.Observe(state, course)))
	}
	return state, nil
}
