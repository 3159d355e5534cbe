package sim

import "math/rand"

const defaultApproaches = 64

// Course is the immutable obstacle stream for one episode: the ceiling and
// floor spike bands plus a seed-determined sequence of wall gap centers, one
// per wall approach. A Course is built once and only read afterwards, so any
// number of episodes may share it.
type Course struct {
	gaps  []float64
	bands bool
}

// NewCourse generates a spike course from a seed. The gap sequence cycles
// after the given number of approaches; approaches <= 0 selects a default.
func NewCourse(seed int64, approaches int) Course {
	if approaches <= 0 {
		approaches = defaultApproaches
	}
	rng := rand.New(rand.NewSource(seed))
	lo := SpikeBand + GapHalfHeight
	hi := CourseHeight - SpikeBand - GapHalfHeight
	gaps := make([]float64, approaches)
	for i := range gaps {
		gaps[i] = lo + rng.Float64()*(hi-lo)
	}
	return Course{gaps: gaps, bands: true}
}

// OpenCourse has no obstacles at all: walls still bounce, nothing kills.
// Episodes on it always end at the tick cap.
func OpenCourse() Course {
	return Course{}
}

// GapCenter returns the gap center for the nth wall approach. ok is false
// when the course has no wall spikes, in which case every approach is safe.
func (c Course) GapCenter(bounce int) (center float64, ok bool) {
	if len(c.gaps) == 0 {
		return CourseHeight / 2, false
	}
	return c.gaps[bounce%len(c.gaps)], true
}

// HasBands reports whether the ceiling and floor spike bands are present.
func (c Course) HasBands() bool {
	return c.bands
}
