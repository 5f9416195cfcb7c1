package simulation

import (
	"runtime"

	"github.com/sarchlab/devs/modeling"
)

// Builder can be used to build coordinators.
type Builder struct {
	clock       *Clock
	initialTime float64
	numWorkers  int
	timeScale   float64
	flatten     *bool
}

// MakeBuilder creates a new builder with a new clock starting at 0, one
// worker per usable CPU, and one wall-clock second per time unit.
func MakeBuilder() Builder {
	return Builder{
		numWorkers: runtime.GOMAXPROCS(0),
		timeScale:  1,
	}
}

// WithClock shares an existing clock instead of creating one.
func (b Builder) WithClock(clock *Clock) Builder {
	b.clock = clock
	return b
}

// WithInitialTime sets the start time of the new clock. It is ignored when a
// clock is given with WithClock.
func (b Builder) WithInitialTime(t float64) Builder {
	b.initialTime = t
	return b
}

// WithNumWorkers sets the size of the worker pool of parallel coordinators.
func (b Builder) WithNumWorkers(n int) Builder {
	b.numWorkers = n
	return b
}

// WithTimeScale sets how many wall-clock seconds a real-time coordinator
// spends per simulation time unit.
func (b Builder) WithTimeScale(s float64) Builder {
	b.timeScale = s
	return b
}

// WithFlatten chooses whether the model is flattened with modeling.Flatten
// before the coordinator is built. Parallel and real-time coordinators
// flatten by default so that every atomic model is a task of the pool.
// Sequential coordinators keep the hierarchy by default.
func (b Builder) WithFlatten(flatten bool) Builder {
	b.flatten = &flatten
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.numWorkers < 1 {
		panic("number of workers must be at least 1")
	}

	if !(b.timeScale > 0) {
		panic("time scale must be positive")
	}
}

func (b Builder) buildClock() *Clock {
	if b.clock != nil {
		return b.clock
	}

	return NewClock(b.initialTime)
}

func (b Builder) prepare(model modeling.Coupled, flattenByDefault bool) error {
	b.parametersMustBeValid()

	flatten := flattenByDefault
	if b.flatten != nil {
		flatten = *b.flatten
	}

	if !flatten {
		return nil
	}

	return modeling.Flatten(model)
}

// Build creates a sequential coordinator.
func (b Builder) Build(model modeling.Coupled) (*Coordinator, error) {
	if err := b.prepare(model, false); err != nil {
		return nil, err
	}

	return newCoordinator(b.buildClock(), model, sequentialRunner{})
}

// BuildParallel creates a coordinator that runs the children of the model
// on a worker pool.
func (b Builder) BuildParallel(
	model modeling.Coupled,
) (*ParallelCoordinator, error) {
	if err := b.prepare(model, true); err != nil {
		return nil, err
	}

	return newParallelCoordinator(b.buildClock(), model, b.numWorkers)
}

// BuildRealTime creates a parallel coordinator that follows the wall clock.
func (b Builder) BuildRealTime(
	model modeling.Coupled,
) (*RealTimeCoordinator, error) {
	if err := b.prepare(model, true); err != nil {
		return nil, err
	}

	return newRealTimeCoordinator(
		b.buildClock(), model, b.numWorkers, b.timeScale)
}
