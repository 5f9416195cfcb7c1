package modeling

import "fmt"

// CouplingKind tells where the endpoints of a coupling live relative to the
// coupled model that declares it.
type CouplingKind int

// The three kinds of couplings.
const (
	// InternalCoupling connects a child output port to a child input port.
	InternalCoupling CouplingKind = iota

	// ExternalInputCoupling connects an input port of the coupled model to
	// a child input port.
	ExternalInputCoupling

	// ExternalOutputCoupling connects a child output port to an output port
	// of the coupled model.
	ExternalOutputCoupling
)

func (k CouplingKind) String() string {
	switch k {
	case InternalCoupling:
		return "IC"
	case ExternalInputCoupling:
		return "EIC"
	case ExternalOutputCoupling:
		return "EOC"
	default:
		return fmt.Sprintf("CouplingKind(%d)", int(k))
	}
}

// A Coupling is a directed link that copies values from one port to another.
type Coupling struct {
	from Port
	to   Port
	kind CouplingKind
}

func newCoupling(from, to Port, kind CouplingKind) (*Coupling, error) {
	if from.ValueType() != to.ValueType() {
		return nil, fmt.Errorf("%w: %s (%s) -> %s (%s)",
			ErrIncompatiblePorts,
			from.QualifiedName(), from.ValueType(),
			to.QualifiedName(), to.ValueType())
	}

	return &Coupling{from: from, to: to, kind: kind}, nil
}

// From returns the source port.
func (c *Coupling) From() Port {
	return c.from
}

// To returns the destination port.
func (c *Coupling) To() Port {
	return c.to
}

// Kind returns the kind of the coupling.
func (c *Coupling) Kind() CouplingKind {
	return c.kind
}

// Propagate appends the values of the source port to the destination port.
// The source port is left untouched.
func (c *Coupling) Propagate() {
	if c.from.IsEmpty() {
		return
	}

	c.from.propagateTo(c.to)
}

func (c *Coupling) String() string {
	return fmt.Sprintf("(%s -> %s)", c.from.QualifiedName(), c.to.QualifiedName())
}
