package dataset

import (
	"fmt"
	"math/rand"

	"github.com/san-kum/efc/internal/efc"
)

// Synthesize builds a dataset from the evaluator's own velocity curve.
// With noise > 0 each velocity is perturbed by Gaussian noise of that
// standard deviation drawn from a source seeded with seed, and the noise
// level is recorded as the point uncertainty. The same inputs always give
// the same dataset.
func Synthesize(ev *efc.Evaluator, id string, radii []float64, noise float64, seed int64) (*Dataset, error) {
	if noise < 0 {
		return nil, fmt.Errorf("noise must be >= 0, got %v", noise)
	}
	field, err := ev.Evaluate(radii)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(seed))
	ds := &Dataset{ID: id, Points: make([]Point, field.Len()), weighted: noise > 0}
	for i := range ds.Points {
		p := Point{Radius: field.Radii[i], Velocity: field.Velocity[i]}
		if noise > 0 {
			p.Velocity += noise * rng.NormFloat64()
			p.Uncertainty = noise
		}
		ds.Points[i] = p
	}
	return ds, nil
}
