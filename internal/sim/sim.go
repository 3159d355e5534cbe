// Package sim implements the deterministic spike-dodging game used for
// fitness evaluation. State is a plain value and Step is a pure function, so
// independent episodes can run concurrently without coordination.
package sim

// Playfield geometry and physics constants, taken from the arcade original:
// a 1080x900 field, gravity of one unit of velocity per tick and a fixed
// upward impulse on jump.
const (
	CourseWidth  = 1080.0
	CourseHeight = 900.0

	BirdWidth  = 100.0
	BirdHeight = 65.0

	Gravity     = 1.0
	JumpImpulse = 8.0
	BirdMass    = 2.0
	ScrollSpeed = 10.0

	// SpikeBand is the depth of the ceiling and floor spike strips.
	SpikeBand = 65.0
	// GapHalfHeight is half the safe opening at each wall approach.
	GapHalfHeight = 140.0
)

// State is one tick of the bird's physical situation. Coordinates follow the
// original's screen convention: Y grows downward and Y is the bird's top edge.
// Only Step produces successor states.
type State struct {
	Y       float64
	VY      float64
	X       float64
	Dir     float64
	Alive   bool
	Ticks   int
	Bounces int
}

// NewState spawns the bird centered in the field, rising with a full impulse,
// moving right.
func NewState() State {
	return State{
		Y:     CourseHeight/2 - BirdHeight,
		VY:    JumpImpulse,
		X:     (CourseWidth - BirdWidth) / 2,
		Dir:   1,
		Alive: true,
	}
}

// Step advances the state by one fixed tick. It is deterministic and has no
// side effects. Gravity decrements vertical velocity every tick; a jump resets
// it to the upward impulse, but only while the bird is not already rising.
// Collision uses closed obstacle regions: contact at exactly an obstacle edge
// kills, everywhere, on every run.
func Step(s State, course Course, jump bool) State {
	if !s.Alive {
		return s
	}

	next := s
	next.Ticks++

	if jump && next.VY <= 0 {
		next.VY = JumpImpulse
	}
	next.X += ScrollSpeed * next.Dir
	next.Y -= BirdMass * next.VY
	next.VY -= Gravity

	if next.Dir > 0 && next.X+BirdWidth >= CourseWidth {
		next = crossWall(next, course, CourseWidth-BirdWidth, -1)
	} else if next.Dir < 0 && next.X <= 0 {
		next = crossWall(next, course, 0, 1)
	}
	if !next.Alive {
		return next
	}

	if course.HasBands() && (next.Y <= SpikeBand || next.Y+BirdHeight >= CourseHeight-SpikeBand) {
		next.Alive = false
	}
	return next
}

// crossWall resolves a wall contact: death inside the wall's spike region,
// otherwise a bounce that flips direction and advances the obstacle stream.
func crossWall(s State, course Course, clampX, newDir float64) State {
	if gap, ok := course.GapCenter(s.Bounces); ok {
		top := gap - GapHalfHeight
		bottom := gap + GapHalfHeight
		if s.Y <= top || s.Y+BirdHeight >= bottom {
			s.Alive = false
			return s
		}
	}
	s.X = clampX
	s.Dir = newDir
	s.Bounces++
	return s
}
