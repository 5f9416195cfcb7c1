package modeling

import (
	"fmt"
	"math"
)

// Infinity is the time advance of a model that waits for external events
// only.
var Infinity = math.Inf(1)

// Conventional phase names.
const (
	PhaseActive  = "active"
	PhasePassive = "passive"
)

// An Atomic model is a leaf of the model tree that owns its state and
// transition functions.
type Atomic interface {
	Component

	// TA returns the time until the next internal transition. It must not be
	// negative. Infinity means the model is passive.
	TA() float64

	// DeltInt is the internal transition, applied when the model is
	// imminent and has no input.
	DeltInt() error

	// DeltExt is the external transition, applied when the model has input
	// and is not imminent. e is the time elapsed since the last transition.
	DeltExt(e float64) error

	// Lambda writes the output of the model into its output ports. It is
	// only called when the model is imminent.
	Lambda() error

	Phase() string
	Sigma() float64
	ShowState() string
}

// A Confluent model decides what happens when it is imminent and receives
// input at the same time. Atomic models that do not implement it get an
// internal transition followed by an external transition with zero elapsed
// time.
type Confluent interface {
	DeltCon(e float64) error
}

// AtomicBase provides the phase and sigma state most atomic models need.
// Concrete models embed it and implement DeltInt, DeltExt, and Lambda.
type AtomicBase struct {
	*ComponentBase

	phase string
	sigma float64
}

// NewAtomicBase creates a passive AtomicBase.
func NewAtomicBase(name string) *AtomicBase {
	return &AtomicBase{
		ComponentBase: NewComponentBase(name),
		phase:         PhasePassive,
		sigma:         Infinity,
	}
}

// TA returns sigma.
func (a *AtomicBase) TA() float64 {
	return a.sigma
}

// Phase returns the current phase.
func (a *AtomicBase) Phase() string {
	return a.phase
}

// SetPhase changes the phase without touching sigma.
func (a *AtomicBase) SetPhase(phase string) {
	a.phase = phase
}

// PhaseIs checks the current phase.
func (a *AtomicBase) PhaseIs(phase string) bool {
	return a.phase == phase
}

// Sigma returns the time left in the current phase.
func (a *AtomicBase) Sigma() float64 {
	return a.sigma
}

// SetSigma changes sigma without touching the phase.
func (a *AtomicBase) SetSigma(sigma float64) {
	a.sigma = sigma
}

// HoldIn sets both the phase and sigma.
func (a *AtomicBase) HoldIn(phase string, sigma float64) {
	a.phase = phase
	a.sigma = sigma
}

// Activate holds the model in the active phase with zero sigma.
func (a *AtomicBase) Activate() {
	a.HoldIn(PhaseActive, 0)
}

// Passivate holds the model in the passive phase forever.
func (a *AtomicBase) Passivate() {
	a.HoldIn(PhasePassive, Infinity)
}

// PassivateIn holds the model in the given phase forever.
func (a *AtomicBase) PassivateIn(phase string) {
	a.HoldIn(phase, Infinity)
}

// ShowState renders the name, the phase and sigma.
func (a *AtomicBase) ShowState() string {
	return fmt.Sprintf("%s [ phase: %s sigma: %g ]", a.Name(), a.phase, a.sigma)
}
