package tracing

import (
	"sync"

	"github.com/sarchlab/devs/modeling"
	"github.com/sarchlab/devs/simulation"
)

type phaseSpan struct {
	phase string
	since float64
}

// PhaseTimeTracer measures how long, in simulation time, each atomic model
// stays in each of its phases.
type PhaseTimeTracer struct {
	lock    sync.Mutex
	current map[string]*phaseSpan
	times   map[string]map[string]float64
}

// NewPhaseTimeTracer creates a tracer that starts measuring at time now from
// the current phases of every atomic model under root. It must be created
// after the models are initialized.
func NewPhaseTimeTracer(root modeling.Coupled, now float64) *PhaseTimeTracer {
	t := &PhaseTimeTracer{
		current: make(map[string]*phaseSpan),
		times:   make(map[string]map[string]float64),
	}

	t.track(root, now)

	return t
}

func (t *PhaseTimeTracer) track(c modeling.Coupled, now float64) {
	for _, comp := range c.Components() {
		switch m := comp.(type) {
		case modeling.Coupled:
			t.track(m, now)
		case modeling.Atomic:
			t.current[m.QualifiedName()] = &phaseSpan{phase: m.Phase(), since: now}
			t.times[m.QualifiedName()] = make(map[string]float64)
		}
	}
}

// Output does nothing.
func (t *PhaseTimeTracer) Output(float64, modeling.Atomic) {}

// Transition closes the time spent in the previous phase of the model.
func (t *PhaseTimeTracer) Transition(
	now float64,
	model modeling.Atomic,
	_ simulation.TransitionKind,
) {
	name := model.QualifiedName()

	t.lock.Lock()
	defer t.lock.Unlock()

	span, ok := t.current[name]
	if !ok {
		return
	}

	t.times[name][span.phase] += now - span.since
	span.phase = model.Phase()
	span.since = now
}

// Terminate closes the open phases of every model at time now.
func (t *PhaseTimeTracer) Terminate(now float64) {
	t.lock.Lock()
	defer t.lock.Unlock()

	for name, span := range t.current {
		t.times[name][span.phase] += now - span.since
		span.since = now
	}
}

// PhaseTime returns the time a model spent in a phase. Time spent in the
// current phase is only counted after Terminate.
func (t *PhaseTimeTracer) PhaseTime(model, phase string) float64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.times[model][phase]
}

// TotalTime returns the time all models together spent in a phase.
func (t *PhaseTimeTracer) TotalTime(phase string) float64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	total := 0.0
	for _, phases := range t.times {
		total += phases[phase]
	}

	return total
}
