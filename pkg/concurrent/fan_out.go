package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// FanOut runs jobFunc on every job at once and joins the results in job order.
// It is fail-fast: the first error cancels the context handed to the other jobs and
// FanOut returns that error without any result.
func FanOut[T any, G any](ctx context.Context, jobs []T, jobFunc func(ctx context.Context, job T) (G, error)) ([]G, error) {
	results := make([]G, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			res, err := jobFunc(gctx, job)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
