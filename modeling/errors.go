package modeling

import "errors"

// Configuration errors reported while a model tree is being built. They are
// always wrapped with the names involved, so test for them with errors.Is.
var (
	ErrNilPort            = errors.New("port is nil")
	ErrNilComponent       = errors.New("component is nil")
	ErrDuplicatePort      = errors.New("duplicated port name")
	ErrDuplicateComponent = errors.New("duplicated component name")
	ErrAlreadyAttached    = errors.New("already attached to another owner")
	ErrPortNotAttached    = errors.New("port is not attached to a component")
	ErrIncompatiblePorts  = errors.New("ports carry different value types")
	ErrCouplingScope      = errors.New("coupling endpoint outside of the coupled model scope")
	ErrDuplicateCoupling  = errors.New("duplicated coupling")
	ErrComponentNotFound  = errors.New("component not found")
	ErrPortNotFound       = errors.New("port not found")
	ErrValueType          = errors.New("value does not match the port type")
)
