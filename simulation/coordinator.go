package simulation

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/devs/hooking"
	"github.com/sarchlab/devs/modeling"
)

// A Coordinator runs the DEVS protocol of a coupled model. It owns one
// processor per child, built recursively, and all of them share the clock of
// the root coordinator.
//
// A Coordinator created by the Builder is a root coordinator and can drive a
// run. Runs must be driven from one goroutine at a time. Pause, Continue,
// Stop, and the accessors may be called from any goroutine.
type Coordinator struct {
	*hooking.HookableBase

	clock      *Clock
	model      modeling.Coupled
	processors []Processor
	selected   []Processor
	runner     phaseRunner
	tL         float64
	tN         float64

	pauseLock  sync.Mutex
	stopped    atomic.Bool
	iterations atomic.Int64
	log        *logrus.Entry
}

func newCoordinator(
	clock *Clock,
	model modeling.Coupled,
	runner phaseRunner,
) (*Coordinator, error) {
	c := &Coordinator{
		HookableBase: hooking.NewHookableBase(),
		clock:        clock,
		model:        model,
		runner:       runner,
		tL:           clock.Time(),
		tN:           math.Inf(1),
		log:          logrus.WithField("model", model.QualifiedName()),
	}

	for _, comp := range model.Components() {
		p, err := newProcessor(clock, comp)
		if err != nil {
			return nil, err
		}

		c.processors = append(c.processors, p)
	}

	return c, nil
}

// NewCoordinator creates a sequential root coordinator with a new clock
// starting at 0.
func NewCoordinator(model modeling.Coupled) (*Coordinator, error) {
	return MakeBuilder().Build(model)
}

// Model returns the coupled model.
func (c *Coordinator) Model() modeling.Component {
	return c.model
}

// Coupled returns the coupled model.
func (c *Coordinator) Coupled() modeling.Coupled {
	return c.model
}

// Processors returns the processors of the children, in the order of the
// children.
func (c *Coordinator) Processors() []Processor {
	return c.processors
}

// Clock returns the shared clock.
func (c *Coordinator) Clock() *Clock {
	return c.clock
}

// TL returns the time of the last transition in the subtree.
func (c *Coordinator) TL() float64 {
	return c.tL
}

// TN returns the earliest next-event time in the subtree.
func (c *Coordinator) TN() float64 {
	return c.tN
}

// TA returns the time left until the earliest next event in the subtree.
func (c *Coordinator) TA() float64 {
	return c.minTN() - c.clock.Time()
}

// Iterations returns the number of cycles completed by this coordinator.
func (c *Coordinator) Iterations() int64 {
	return c.iterations.Load()
}

// AcceptHook registers the hook on the coordinator and on every processor
// below it.
func (c *Coordinator) AcceptHook(hook hooking.Hook) {
	c.HookableBase.AcceptHook(hook)

	for _, p := range c.processors {
		p.AcceptHook(hook)
	}
}

// Initialize initializes every model of the subtree.
func (c *Coordinator) Initialize() error {
	if err := c.model.Initialize(); err != nil {
		return fmt.Errorf("%s: initialize: %w", c.model.QualifiedName(), err)
	}

	for _, p := range c.processors {
		if err := p.Initialize(); err != nil {
			return err
		}
	}

	c.tL = c.clock.Time()
	c.tN = c.minTN()
	c.clock.setEventTimes(c.tL, c.tN)

	return nil
}

// Exit calls Exit on every model of the subtree, even if some of them fail.
func (c *Coordinator) Exit() error {
	var errs []error

	for _, p := range c.processors {
		if err := p.Exit(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := c.model.Exit(); err != nil {
		errs = append(errs, fmt.Errorf("%s: exit: %w",
			c.model.QualifiedName(), err))
	}

	return errors.Join(errs...)
}

// Lambda computes the output of the imminent children and then propagates
// the internal and external output couplings.
func (c *Coordinator) Lambda() error {
	now := c.clock.Time()

	c.selected = c.selected[:0]
	for _, p := range c.processors {
		if p.TN() == now {
			c.selected = append(c.selected, p)
		}
	}

	selected := c.selected
	err := c.runner.run(len(selected), func(i int) error {
		return selected[i].Lambda()
	})
	if err != nil {
		return err
	}

	c.propagateOutput()

	return nil
}

func (c *Coordinator) propagateOutput() {
	for _, coupling := range c.model.IC() {
		coupling.Propagate()
	}

	for _, coupling := range c.model.EOC() {
		coupling.Propagate()
	}
}

// DeltFcn propagates the external input couplings and then runs the
// transitions of the children that are imminent or have input.
func (c *Coordinator) DeltFcn() error {
	c.propagateInput()

	now := c.clock.Time()

	c.selected = c.selected[:0]
	for _, p := range c.processors {
		if p.TN() == now || !p.Model().IsInputEmpty() {
			c.selected = append(c.selected, p)
		}
	}

	selected := c.selected
	err := c.runner.run(len(selected), func(i int) error {
		return selected[i].DeltFcn()
	})
	if err != nil {
		return err
	}

	c.tL = now
	c.tN = c.minTN()

	return nil
}

func (c *Coordinator) propagateInput() {
	for _, coupling := range c.model.EIC() {
		coupling.Propagate()
	}
}

// Clear empties every port of the subtree. Clearing twice is harmless.
func (c *Coordinator) Clear() {
	for _, p := range c.processors {
		p.Clear()
	}

	for _, port := range c.model.InPorts() {
		port.Clear()
	}

	for _, port := range c.model.OutPorts() {
		port.Clear()
	}
}

func (c *Coordinator) minTN() float64 {
	tN := math.Inf(1)

	for _, p := range c.processors {
		if t := p.TN(); t < tN {
			tN = t
		}
	}

	return tN
}

// Pause blocks the run at the next cycle boundary until Continue is called.
func (c *Coordinator) Pause() {
	c.pauseLock.Lock()
}

// Continue resumes a paused run.
func (c *Coordinator) Continue() {
	c.pauseLock.Unlock()
}

// Stop asks the running simulation to stop at the next cycle boundary.
func (c *Coordinator) Stop() {
	c.stopped.Store(true)
}

func (c *Coordinator) stopRequested() bool {
	return c.stopped.Load()
}

// SimulateIterations runs up to n cycles. It returns early when the model
// becomes quiescent or when Stop is called.
func (c *Coordinator) SimulateIterations(n int) error {
	c.stopped.Store(false)
	defer c.runner.stop()

	c.log.WithField("iterations", n).Info("simulation started")

	for ; n > 0 && c.tN < math.Inf(1) && !c.stopRequested(); n-- {
		if err := c.cycle(); err != nil {
			return c.abort(err)
		}
	}

	c.logFinished()

	return nil
}

// SimulateTime moves the clock to the next event and runs every cycle
// scheduled before that time plus timeInterval. The clock is then moved to the
// end of the interval.
func (c *Coordinator) SimulateTime(timeInterval float64) error {
	c.stopped.Store(false)
	defer c.runner.stop()

	if c.tN < math.Inf(1) {
		c.clock.SetTime(c.tN)
	}

	tF := c.clock.Time() + timeInterval

	c.log.WithField("until", tF).Info("simulation started")

	for c.tN < math.Inf(1) && c.tN < tF && !c.stopRequested() {
		if err := c.cycle(); err != nil {
			return c.abort(err)
		}
	}

	if !c.stopRequested() && !math.IsInf(tF, 1) {
		c.clock.SetTime(tF)
	}

	c.logFinished()

	return nil
}

// Inject adds values to an input port of the root model e time units after
// the last transition and runs one cycle at that time. It fails if that time
// is before the last transition or later than the next scheduled event.
func (c *Coordinator) Inject(e float64, port modeling.Port, values ...any) error {
	t := c.tL + e
	if !(t >= c.tL && t <= c.tN) {
		return fmt.Errorf("time %g, elapsed %g, next event %g: %w",
			c.tL, e, c.tN, ErrInjectOutOfBounds)
	}

	if port == nil || c.model.InPort(port.Name()) != port {
		return fmt.Errorf("%s: %w", port, ErrInjectPort)
	}

	if err := port.AddAny(values...); err != nil {
		return err
	}

	defer c.runner.stop()

	c.pauseLock.Lock()
	defer c.pauseLock.Unlock()

	c.clock.SetTime(t)

	if err := c.Lambda(); err != nil {
		return c.abort(err)
	}

	if err := c.DeltFcn(); err != nil {
		return c.abort(err)
	}

	c.Clear()
	c.clock.setEventTimes(c.tL, c.tN)

	return nil
}

func (c *Coordinator) cycle() error {
	c.pauseLock.Lock()
	defer c.pauseLock.Unlock()

	c.clock.SetTime(c.tN)
	now := c.tN
	info := CycleInfo{Iteration: c.iterations.Load(), Time: now}

	c.invokeHook(HookPosCycleStart, now, info)

	if err := c.Lambda(); err != nil {
		return err
	}

	if err := c.DeltFcn(); err != nil {
		return err
	}

	c.Clear()
	c.clock.setEventTimes(c.tL, c.tN)
	c.iterations.Add(1)

	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		c.log.WithFields(logrus.Fields{
			"sim_time": now,
			"next":     c.tN,
		}).Debug("cycle completed")
	}

	c.invokeHook(HookPosCycleEnd, now, info)

	return nil
}

func (c *Coordinator) invokeHook(pos *hooking.HookPos, now float64, item any) {
	if c.NumHooks() == 0 {
		return
	}

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Now:    now,
		Pos:    pos,
		Item:   item,
	})
}

func (c *Coordinator) abort(err error) error {
	c.log.WithFields(logrus.Fields{
		"sim_time": c.clock.Time(),
		"error":    err,
	}).Error("simulation aborted")

	return err
}

func (c *Coordinator) logFinished() {
	c.log.WithFields(logrus.Fields{
		"sim_time":   c.clock.Time(),
		"next":       c.tN,
		"iterations": c.iterations.Load(),
	}).Info("simulation finished")
}
