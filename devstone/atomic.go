package devstone

import (
	"time"

	"github.com/sarchlab/devs/modeling"
)

// Atomic is the model at the leaves of a DEVStone tree. It stays passive
// until it receives input, then waits for the preparation time and emits a
// single value. Each transition burns CPU for the configured delay.
type Atomic struct {
	*modeling.AtomicBase

	in  *modeling.TypedPort[int]
	out *modeling.TypedPort[int]

	intDelay time.Duration
	extDelay time.Duration
	prepTime float64

	intCount int
	extCount int
}

func newAtomic(name string, p Params) *Atomic {
	a := &Atomic{
		AtomicBase: modeling.NewAtomicBase(name),
		in:         modeling.NewPort[int]("in"),
		out:        modeling.NewPort[int]("out"),
		intDelay:   p.IntDelay,
		extDelay:   p.ExtDelay,
		prepTime:   p.PrepTime,
	}

	mustSucceed(a.AddInPort(a.in))
	mustSucceed(a.AddOutPort(a.out))

	return a
}

// IntCount returns the number of internal transitions, counting the
// internal half of confluent transitions.
func (a *Atomic) IntCount() int {
	return a.intCount
}

// ExtCount returns the number of external transitions, counting the
// external half of confluent transitions.
func (a *Atomic) ExtCount() int {
	return a.extCount
}

func (a *Atomic) Initialize() error {
	a.intCount = 0
	a.extCount = 0
	a.Passivate()

	return nil
}

func (a *Atomic) Lambda() error {
	a.out.AddValue(0)
	return nil
}

func (a *Atomic) DeltInt() error {
	a.intCount++
	burn(a.intDelay)
	a.Passivate()

	return nil
}

func (a *Atomic) DeltExt(float64) error {
	a.extCount++
	burn(a.extDelay)
	a.HoldIn(modeling.PhaseActive, a.prepTime)

	return nil
}

// burn keeps the CPU busy for d.
func burn(d time.Duration) {
	if d <= 0 {
		return
	}

	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
	}
}
