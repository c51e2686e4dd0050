package singularity

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/njchilds90/singularity/cas"
)

// System is one propagator / system matrix pair to analyse.
type System struct {
	Name string
	P    *cas.Matrix
	A    *cas.Matrix
}

// DetectAll analyses independent systems concurrently, at most the
// configured concurrency at a time. Reports are returned in input order. The
// first failure cancels the remaining work and is returned annotated with
// the system's position and name.
func (d *Detector) DetectAll(ctx context.Context, systems []System) ([]Report, error) {
	reports := make([]Report, len(systems))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	for i, sys := range systems {
		i, sys := i, sys
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := d.Detect(sys.P, sys.A)
			if err != nil {
				return fmt.Errorf("system %d (%s): %w", i, sys.Name, err)
			}
			r.Name = sys.Name
			reports[i] = r
			return nil
		})
	}

	// Wait for all goroutines with early cancellation on first failure
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
