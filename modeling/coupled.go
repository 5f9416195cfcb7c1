package modeling

import (
	"fmt"
	"strings"
)

// A Coupled model is an inner node of the model tree. It owns child
// components and the couplings between them.
type Coupled interface {
	Component

	Components() []Component
	ComponentByName(name string) Component
	AddComponent(comp Component) error
	AddCoupling(from, to Port) error
	AddCouplingByName(fromComp, fromPort, toComp, toPort string) error

	// Couplings returns all couplings in declaration order.
	Couplings() []*Coupling
	IC() []*Coupling
	EIC() []*Coupling
	EOC() []*Coupling

	// CountComponents counts the atomic and coupled models of the subtree,
	// including the receiver.
	CountComponents() (numAtomic, numCoupled int)

	// CountCouplings counts the couplings of the subtree by kind.
	CountCouplings() (numIC, numEIC, numEOC int)

	coupled() *CoupledBase
}

type couplingKey struct {
	from Port
	to   Port
}

// CoupledBase implements Coupled. Users either use it directly or embed it
// in a struct that builds its children in a constructor.
type CoupledBase struct {
	*ComponentBase

	components []Component
	couplings  []*Coupling
	ic         []*Coupling
	eic        []*Coupling
	eoc        []*Coupling
	linked     map[couplingKey]bool
}

// NewCoupledBase creates an empty coupled model.
func NewCoupledBase(name string) *CoupledBase {
	return &CoupledBase{
		ComponentBase: NewComponentBase(name),
		linked:        make(map[couplingKey]bool),
	}
}

// Components returns the children in the order they were added.
func (c *CoupledBase) Components() []Component {
	return c.components
}

// ComponentByName returns the child with the given name, or nil.
func (c *CoupledBase) ComponentByName(name string) Component {
	for _, comp := range c.components {
		if comp.Name() == name {
			return comp
		}
	}

	return nil
}

// AddComponent makes comp a child of the coupled model.
func (c *CoupledBase) AddComponent(comp Component) error {
	if comp == nil {
		return fmt.Errorf("coupled %s: %w", c.QualifiedName(), ErrNilComponent)
	}

	b := comp.base()
	if b.parent != nil || b == c.ComponentBase {
		return fmt.Errorf("coupled %s, component %s: %w",
			c.QualifiedName(), comp.Name(), ErrAlreadyAttached)
	}

	if c.ComponentByName(comp.Name()) != nil {
		return fmt.Errorf("coupled %s, component %s: %w",
			c.QualifiedName(), comp.Name(), ErrDuplicateComponent)
	}

	b.parent = c
	c.components = append(c.components, comp)

	return nil
}

// AddCoupling links two ports. The kind of coupling is derived from the
// owners of the ports. Both ports must carry the same value type.
func (c *CoupledBase) AddCoupling(from, to Port) error {
	if from == nil || to == nil {
		return fmt.Errorf("coupled %s: %w", c.QualifiedName(), ErrNilPort)
	}

	if c.linked[couplingKey{from: from, to: to}] {
		return fmt.Errorf("coupled %s, coupling (%s -> %s): %w",
			c.QualifiedName(), from.QualifiedName(), to.QualifiedName(),
			ErrDuplicateCoupling)
	}

	return c.appendCoupling(from, to)
}

func (c *CoupledBase) couplingKind(from, to Port) (CouplingKind, error) {
	fromOwner := portOwner(from)
	toOwner := portOwner(to)

	if fromOwner == nil || toOwner == nil {
		return 0, fmt.Errorf("coupled %s, coupling (%s -> %s): %w",
			c.QualifiedName(), from.QualifiedName(), to.QualifiedName(),
			ErrPortNotAttached)
	}

	self := c.ComponentBase

	switch {
	case fromOwner == self && toOwner.parent == c &&
		self.ownsInPort(from) && toOwner.ownsInPort(to):
		return ExternalInputCoupling, nil
	case toOwner == self && fromOwner.parent == c &&
		fromOwner.ownsOutPort(from) && self.ownsOutPort(to):
		return ExternalOutputCoupling, nil
	case fromOwner.parent == c && toOwner.parent == c &&
		fromOwner.ownsOutPort(from) && toOwner.ownsInPort(to):
		return InternalCoupling, nil
	}

	return 0, fmt.Errorf("coupled %s, coupling (%s -> %s): %w",
		c.QualifiedName(), from.QualifiedName(), to.QualifiedName(),
		ErrCouplingScope)
}

func portOwner(p Port) *ComponentBase {
	owner := p.Owner()
	if owner == nil {
		return nil
	}

	return owner.base()
}

// AddCouplingByName links two ports identified by component and port names.
// Using the name of the coupled model itself refers to its own ports: its
// input ports as a source and its output ports as a destination.
func (c *CoupledBase) AddCouplingByName(
	fromComp, fromPort, toComp, toPort string,
) error {
	from, err := c.lookupPort(fromComp, fromPort, true)
	if err != nil {
		return err
	}

	to, err := c.lookupPort(toComp, toPort, false)
	if err != nil {
		return err
	}

	return c.AddCoupling(from, to)
}

func (c *CoupledBase) lookupPort(
	compName, portName string,
	isSource bool,
) (Port, error) {
	var (
		comp Component
		port Port
	)

	if compName == c.Name() {
		comp = c
	} else {
		comp = c.ComponentByName(compName)
	}

	if comp == nil {
		return nil, fmt.Errorf("coupled %s, component %s: %w",
			c.QualifiedName(), compName, ErrComponentNotFound)
	}

	isSelf := comp.base() == c.ComponentBase
	if isSelf == isSource {
		port = comp.InPort(portName)
	} else {
		port = comp.OutPort(portName)
	}

	if port == nil {
		return nil, fmt.Errorf("coupled %s, port %s.%s: %w",
			c.QualifiedName(), compName, portName, ErrPortNotFound)
	}

	return port, nil
}

// Couplings returns all couplings in declaration order.
func (c *CoupledBase) Couplings() []*Coupling {
	return c.couplings
}

// IC returns the internal couplings in declaration order.
func (c *CoupledBase) IC() []*Coupling {
	return c.ic
}

// EIC returns the external input couplings in declaration order.
func (c *CoupledBase) EIC() []*Coupling {
	return c.eic
}

// EOC returns the external output couplings in declaration order.
func (c *CoupledBase) EOC() []*Coupling {
	return c.eoc
}

// CountComponents counts atomic and coupled models in the subtree.
func (c *CoupledBase) CountComponents() (numAtomic, numCoupled int) {
	numCoupled = 1

	for _, comp := range c.components {
		switch child := comp.(type) {
		case Coupled:
			a, cp := child.CountComponents()
			numAtomic += a
			numCoupled += cp
		case Atomic:
			numAtomic++
		}
	}

	return numAtomic, numCoupled
}

// CountCouplings counts the couplings in the subtree.
func (c *CoupledBase) CountCouplings() (numIC, numEIC, numEOC int) {
	numIC, numEIC, numEOC = len(c.ic), len(c.eic), len(c.eoc)

	for _, comp := range c.components {
		if child, ok := comp.(Coupled); ok {
			ic, eic, eoc := child.CountCouplings()
			numIC += ic
			numEIC += eic
			numEOC += eoc
		}
	}

	return numIC, numEIC, numEOC
}

func (c *CoupledBase) String() string {
	var sb strings.Builder

	sb.WriteString(c.ComponentBase.String())

	for _, coupling := range c.couplings {
		sb.WriteString("\n  ")
		sb.WriteString(coupling.kind.String())
		sb.WriteString(" ")
		sb.WriteString(coupling.String())
	}

	return sb.String()
}

func (c *CoupledBase) coupled() *CoupledBase {
	return c
}
