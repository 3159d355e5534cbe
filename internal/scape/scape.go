// Package scape defines the evaluation environments a genome can be scored
// in. A scape is the only place fitness is produced; the rest of the system
// treats it as an opaque scorer.
package scape

import "context"

// Fitness is a scalar score where higher is better. In the spike scapes it is
// the number of ticks survived.
type Fitness float64

// Trace carries scape-specific diagnostics from an evaluation. Keys are
// stable per scape; selection never reads them.
type Trace map[string]any

// Scape scores a weight vector. Evaluate must be safe for concurrent use and
// deterministic: the same weights on the same scape yield the same fitness.
type Scape interface {
	Name() string
	Evaluate(ctx context.Context, weights []float64) (Fitness, Trace, error)
}
