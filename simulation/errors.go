package simulation

import "errors"

var (
	// ErrNegativeTimeAdvance is returned when a model reports a negative or
	// NaN time advance.
	ErrNegativeTimeAdvance = errors.New("negative time advance")

	// ErrInjectOutOfBounds is returned when an injection would happen after
	// the next scheduled event.
	ErrInjectOutOfBounds = errors.New("injection time out of bounds")

	// ErrInjectPort is returned when values are injected into a port that is
	// not an input port of the root model.
	ErrInjectPort = errors.New("not an input port of the root model")

	// ErrUnsupportedModel is returned when a component is neither atomic nor
	// coupled.
	ErrUnsupportedModel = errors.New("component is neither atomic nor coupled")

	// ErrTaskPanic wraps a panic recovered from a worker task.
	ErrTaskPanic = errors.New("task panicked")

	// ErrAlreadyRunning is returned when a real-time run is started twice.
	ErrAlreadyRunning = errors.New("simulation is already running")
)
