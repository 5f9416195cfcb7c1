package simulation

import (
	"fmt"

	"github.com/sarchlab/devs/hooking"
	"github.com/sarchlab/devs/modeling"
)

// A Processor executes the DEVS protocol for one component. A Simulator
// runs an atomic model and a Coordinator runs a coupled model, so a
// coordinator can treat leaves and subtrees the same way.
type Processor interface {
	hooking.Hookable

	Model() modeling.Component
	Clock() *Clock

	// TL returns the time of the last transition.
	TL() float64

	// TN returns the time of the next scheduled transition.
	TN() float64

	// TA returns the time left until TN.
	TA() float64

	Initialize() error
	Exit() error
	Lambda() error
	DeltFcn() error
	Clear()
}

func newProcessor(clock *Clock, comp modeling.Component) (Processor, error) {
	switch m := comp.(type) {
	case modeling.Coupled:
		return newCoordinator(clock, m, sequentialRunner{})
	case modeling.Atomic:
		return NewSimulator(clock, m), nil
	}

	return nil, fmt.Errorf("%s: %w", comp.QualifiedName(), ErrUnsupportedModel)
}
