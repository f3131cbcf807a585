package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/efc/internal/dataset"
	"github.com/san-kum/efc/internal/efc"
	"github.com/san-kum/efc/internal/validate"
)

// ErrNoCandidate is returned when every grid point was rejected.
var ErrNoCandidate = errors.New("optim: no valid parameter combination")

// GridSearch walks the cartesian product of named parameter values.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Outcome is the best candidate found by a search.
type Outcome struct {
	Params    efc.Parameters
	Result    *validate.Result
	Evaluated int
	Skipped   int
}

// Linspace returns n evenly spaced values on [lo, hi].
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

// Search validates every combination against ds and keeps the one with
// the lowest fit metric. Combinations that fail parameter validation are
// skipped; evaluator failures abort the search.
func (g *GridSearch) Search(ctx context.Context, base efc.Parameters, ds *dataset.Dataset) (*Outcome, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, fmt.Errorf("optim: %d names for %d ranges", len(g.paramNames), len(g.ranges))
	}
	known := base.Map()
	for _, name := range g.paramNames {
		if _, ok := known[name]; !ok {
			return nil, fmt.Errorf("optim: unknown parameter %q", name)
		}
	}

	v := validate.New()
	out := &Outcome{}
	best := math.Inf(1)

	err := g.searchRecursive(ctx, 0, base, func(p efc.Parameters) error {
		res, err := v.Validate(p, ds)
		if err != nil {
			return err
		}
		out.Evaluated++
		if res.FitMetric < best {
			best = res.FitMetric
			out.Params = p
			out.Result = res
		}
		return nil
	}, &out.Skipped)
	if err != nil {
		return nil, err
	}
	if out.Result == nil {
		return nil, ErrNoCandidate
	}
	return out, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current efc.Parameters,
	visit func(efc.Parameters) error,
	skipped *int,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		return visit(current)
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next, err := current.With(name, val)
		if err != nil {
			if errors.Is(err, efc.ErrInvalidParameter) {
				*skipped++
				continue
			}
			return err
		}
		if err := g.searchRecursive(ctx, depth+1, next, visit, skipped); err != nil {
			return err
		}
	}
	return nil
}
