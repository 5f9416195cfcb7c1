package simulation

import (
	"fmt"
	"runtime/debug"
	"sync"
)

// A phaseRunner runs the per-child work of one phase and returns when all of
// it has finished.
type phaseRunner interface {
	run(n int, task func(i int) error) error
	stop()
}

// sequentialRunner runs tasks in order on the calling goroutine and stops at
// the first error.
type sequentialRunner struct{}

func (sequentialRunner) run(n int, task func(i int) error) error {
	for i := 0; i < n; i++ {
		if err := task(i); err != nil {
			return err
		}
	}

	return nil
}

func (sequentialRunner) stop() {}

type poolTask struct {
	fn    func(i int) error
	index int
	errs  []error
	done  *sync.WaitGroup
}

// workerPool runs the tasks of a phase on a fixed number of goroutines.
// Workers are started by the first phase that needs them and stopped by
// stop. Both run and stop are called only by the goroutine driving the run.
type workerPool struct {
	numWorkers int
	tasks      chan poolTask
	workers    sync.WaitGroup
}

func newWorkerPool(numWorkers int) *workerPool {
	return &workerPool{numWorkers: numWorkers}
}

// run executes task(0) to task(n-1) and waits for all of them, even when some
// fail. It returns the error of the lowest failing index.
func (p *workerPool) run(n int, task func(i int) error) error {
	switch n {
	case 0:
		return nil
	case 1:
		return runTask(task, 0)
	}

	p.start()

	errs := make([]error, n)

	var done sync.WaitGroup
	done.Add(n)

	for i := 0; i < n; i++ {
		p.tasks <- poolTask{fn: task, index: i, errs: errs, done: &done}
	}

	done.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	return nil
}

func (p *workerPool) start() {
	if p.tasks != nil {
		return
	}

	p.tasks = make(chan poolTask, p.numWorkers)

	p.workers.Add(p.numWorkers)
	for i := 0; i < p.numWorkers; i++ {
		go p.work()
	}
}

func (p *workerPool) work() {
	defer p.workers.Done()

	for t := range p.tasks {
		t.errs[t.index] = runTask(t.fn, t.index)
		t.done.Done()
	}
}

func (p *workerPool) stop() {
	if p.tasks == nil {
		return
	}

	close(p.tasks)
	p.workers.Wait()
	p.tasks = nil
}

func (p *workerPool) running() bool {
	return p.tasks != nil
}

func runTask(task func(i int) error, i int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v\n%s", ErrTaskPanic, r, debug.Stack())
		}
	}()

	return task(i)
}
