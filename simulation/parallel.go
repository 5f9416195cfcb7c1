package simulation

import (
	"github.com/sarchlab/devs/modeling"
)

// A ParallelCoordinator runs the children of the root model on a worker
// pool. The output and the transition phases each end with a barrier, and
// coupling propagation runs alone between them, so the results are the same
// as with a sequential Coordinator.
//
// A coupled child runs its own subtree sequentially inside one task. The
// Builder flattens the model first unless told otherwise, so that every
// atomic model is a task of its own.
type ParallelCoordinator struct {
	*Coordinator

	pool *workerPool
}

func newParallelCoordinator(
	clock *Clock,
	model modeling.Coupled,
	numWorkers int,
) (*ParallelCoordinator, error) {
	pool := newWorkerPool(numWorkers)

	c, err := newCoordinator(clock, model, pool)
	if err != nil {
		return nil, err
	}

	return &ParallelCoordinator{Coordinator: c, pool: pool}, nil
}

// NumWorkers returns the size of the worker pool.
func (c *ParallelCoordinator) NumWorkers() int {
	return c.pool.numWorkers
}

// Close stops the workers. Runs stop them when they end, so Close only
// matters when the coordinator is driven phase by phase through Lambda and
// DeltFcn. It must not be called while a run is in progress.
func (c *ParallelCoordinator) Close() {
	c.pool.stop()
}
