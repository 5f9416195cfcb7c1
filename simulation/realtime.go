package simulation

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/devs/modeling"
)

// A RealTimeCoordinator drives a ParallelCoordinator on its own goroutine and
// waits before each cycle until the wall clock catches up with the
// simulation time of that cycle.
//
// Cycles that start late run immediately. Nothing is skipped to catch up.
type RealTimeCoordinator struct {
	*ParallelCoordinator

	timeScale float64
	wake      chan struct{}

	lock    sync.Mutex
	running bool
	done    chan struct{}
	err     error
}

func newRealTimeCoordinator(
	clock *Clock,
	model modeling.Coupled,
	numWorkers int,
	timeScale float64,
) (*RealTimeCoordinator, error) {
	pc, err := newParallelCoordinator(clock, model, numWorkers)
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	close(done)

	return &RealTimeCoordinator{
		ParallelCoordinator: pc,
		timeScale:           timeScale,
		wake:                make(chan struct{}, 1),
		done:                done,
	}, nil
}

// TimeScale returns the number of wall-clock seconds per simulation time
// unit.
func (c *RealTimeCoordinator) TimeScale() float64 {
	return c.timeScale
}

// Start begins a run that covers timeInterval simulation time units after
// the next scheduled event. It returns immediately. The run ends when the
// interval is covered, when the model becomes quiescent, when Stop is
// called, or when ctx is done.
func (c *RealTimeCoordinator) Start(ctx context.Context, timeInterval float64) error {
	return c.start(ctx, timeInterval, -1)
}

// start begins a run bounded by timeInterval and by maxIterations cycles. A
// negative maxIterations sets no bound on the number of cycles.
func (c *RealTimeCoordinator) start(
	ctx context.Context,
	timeInterval float64,
	maxIterations int,
) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.running {
		return ErrAlreadyRunning
	}

	c.running = true
	c.err = nil
	c.done = make(chan struct{})
	c.stopped.Store(false)

	select {
	case <-c.wake:
	default:
	}

	go c.drive(ctx, timeInterval, maxIterations, c.done)

	return nil
}

// Wait blocks until the current run ends and returns its error.
func (c *RealTimeCoordinator) Wait() error {
	c.lock.Lock()
	done := c.done
	c.lock.Unlock()

	<-done

	c.lock.Lock()
	defer c.lock.Unlock()

	return c.err
}

// Done returns a channel that is closed when the current run ends.
func (c *RealTimeCoordinator) Done() <-chan struct{} {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.done
}

// Stop asks the run to stop at the next cycle boundary. A run waiting for
// the wall clock stops right away.
func (c *RealTimeCoordinator) Stop() {
	c.Coordinator.Stop()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// SimulateTime runs in real time and blocks until the run ends.
func (c *RealTimeCoordinator) SimulateTime(timeInterval float64) error {
	if err := c.Start(context.Background(), timeInterval); err != nil {
		return err
	}

	return c.Wait()
}

// SimulateIterations runs up to n cycles in real time and blocks until the
// run ends.
func (c *RealTimeCoordinator) SimulateIterations(n int) error {
	if n < 0 {
		n = 0
	}

	if err := c.start(context.Background(), math.Inf(1), n); err != nil {
		return err
	}

	return c.Wait()
}

func (c *RealTimeCoordinator) drive(
	ctx context.Context,
	timeInterval float64,
	maxIterations int,
	done chan struct{},
) {
	err := c.runRealTime(ctx, timeInterval, maxIterations)

	c.pool.stop()

	c.lock.Lock()
	c.err = err
	c.running = false
	c.lock.Unlock()

	close(done)
}

func (c *RealTimeCoordinator) runRealTime(
	ctx context.Context,
	timeInterval float64,
	maxIterations int,
) error {
	if math.IsInf(c.tN, 1) || maxIterations == 0 {
		c.logFinished()
		return nil
	}

	simAnchor := c.tL
	wallAnchor := time.Now()

	c.clock.SetTime(c.tN)
	stopTime := c.clock.Time() + timeInterval

	c.log.WithFields(logrus.Fields{
		"until":      stopTime,
		"iterations": maxIterations,
		"time_scale": c.timeScale,
	}).Info("real-time simulation started")

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for n := maxIterations; n != 0; n-- {
		if c.tN == math.Inf(1) || c.tN >= stopTime || c.stopRequested() {
			break
		}

		deadline := wallAnchor.Add(c.wallDuration(c.tN - simAnchor))

		if err := c.sleepUntil(ctx, timer, deadline); err != nil {
			return c.abort(err)
		}

		if c.stopRequested() {
			break
		}

		if err := c.cycle(); err != nil {
			return c.abort(err)
		}
	}

	c.logFinished()

	return nil
}

func (c *RealTimeCoordinator) wallDuration(simDuration float64) time.Duration {
	return time.Duration(simDuration * c.timeScale * float64(time.Second))
}

// sleepUntil blocks until the deadline, until Stop is called, or until ctx is
// done, whichever happens first. Only the last case is an error.
func (c *RealTimeCoordinator) sleepUntil(
	ctx context.Context,
	timer *time.Timer,
	deadline time.Time,
) error {
	delay := time.Until(deadline)
	if delay <= 0 {
		if delay < 0 && logrus.IsLevelEnabled(logrus.DebugLevel) {
			c.log.WithField("behind", -delay).Debug("cycle started late")
		}

		return ctx.Err()
	}

	timer.Reset(delay)

	select {
	case <-timer.C:
		return nil
	case <-c.wake:
		timer.Stop()
		return nil
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	}
}
