package validate

import (
	"context"
	"fmt"
	"sync"

	"github.com/san-kum/efc/internal/dataset"
	"github.com/san-kum/efc/internal/efc"
)

// Batch validates independent datasets concurrently against the same
// parameters. Results are returned in input order. The first failure, in
// input order, is returned wrapped with its dataset id.
func (v *Validator) Batch(ctx context.Context, p efc.Parameters, datasets []*dataset.Dataset) ([]*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	results := make([]*Result, len(datasets))
	errs := make([]error, len(datasets))

	var wg sync.WaitGroup
	for i, ds := range datasets {
		wg.Add(1)
		go func(idx int, ds *dataset.Dataset) {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = v.Validate(p, ds)
		}(i, ds)
	}

	wg.Wait()

	for i, err := range errs {
		if err != nil {
			id := ""
			if datasets[i] != nil {
				id = datasets[i].ID
			}
			return nil, fmt.Errorf("dataset %q: %w", id, err)
		}
	}

	return results, nil
}
