package tracing

import (
	"sync"

	"github.com/sarchlab/devs/modeling"
	"github.com/sarchlab/devs/simulation"
)

type transitionCount struct {
	internal, external, confluent uint64
}

// TransitionCountTracer counts the transitions of each model.
type TransitionCountTracer struct {
	lock       sync.Mutex
	modelNames []string
	counts     map[string]*transitionCount
	outputs    map[string]uint64
}

// NewTransitionCountTracer creates a new TransitionCountTracer.
func NewTransitionCountTracer() *TransitionCountTracer {
	return &TransitionCountTracer{
		counts:  make(map[string]*transitionCount),
		outputs: make(map[string]uint64),
	}
}

// ModelNames returns the qualified names of the models seen so far, in the
// order they were first seen.
func (t *TransitionCountTracer) ModelNames() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	return append([]string(nil), t.modelNames...)
}

// Count returns how many transitions of a kind a model ran.
func (t *TransitionCountTracer) Count(
	model string,
	kind simulation.TransitionKind,
) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	c, ok := t.counts[model]
	if !ok {
		return 0
	}

	switch kind {
	case simulation.TransitionInternal:
		return c.internal
	case simulation.TransitionExternal:
		return c.external
	case simulation.TransitionConfluent:
		return c.confluent
	}

	return 0
}

// OutputCount returns how many times a model computed its output.
func (t *TransitionCountTracer) OutputCount(model string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.outputs[model]
}

// Total returns the number of transitions of all kinds over all models.
func (t *TransitionCountTracer) Total() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	var total uint64
	for _, c := range t.counts {
		total += c.internal + c.external + c.confluent
	}

	return total
}

// Output counts the output computation.
func (t *TransitionCountTracer) Output(_ float64, model modeling.Atomic) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.outputs[model.QualifiedName()]++
}

// Transition counts the transition.
func (t *TransitionCountTracer) Transition(
	_ float64,
	model modeling.Atomic,
	kind simulation.TransitionKind,
) {
	name := model.QualifiedName()

	t.lock.Lock()
	defer t.lock.Unlock()

	c, ok := t.counts[name]
	if !ok {
		c = &transitionCount{}
		t.counts[name] = c
		t.modelNames = append(t.modelNames, name)
	}

	switch kind {
	case simulation.TransitionInternal:
		c.internal++
	case simulation.TransitionExternal:
		c.external++
	case simulation.TransitionConfluent:
		c.confluent++
	}
}
