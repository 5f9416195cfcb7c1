package modeling

import (
	"fmt"
	"strings"
)

// A Component is a node of the model tree, either an atomic model or a
// coupled model. Components are created by embedding *AtomicBase or
// *CoupledBase.
type Component interface {
	Name() string
	QualifiedName() string
	Parent() Coupled
	InPorts() []Port
	OutPorts() []Port
	InPort(name string) Port
	OutPort(name string) Port
	AddInPort(port Port) error
	AddOutPort(port Port) error
	IsInputEmpty() bool

	// Initialize is called once before the first simulation cycle.
	Initialize() error

	// Exit is called once after the last simulation cycle.
	Exit() error

	String() string

	base() *ComponentBase
}

// ComponentBase holds the name, the parent, and the ports of a component.
type ComponentBase struct {
	name     string
	parent   *CoupledBase
	inPorts  []Port
	outPorts []Port
}

// NewComponentBase creates a new ComponentBase.
func NewComponentBase(name string) *ComponentBase {
	return &ComponentBase{name: name}
}

// Name returns the name of the component.
func (c *ComponentBase) Name() string {
	return c.name
}

// QualifiedName returns the dot-joined names from the root of the tree.
func (c *ComponentBase) QualifiedName() string {
	if c.parent == nil {
		return c.name
	}

	return c.parent.QualifiedName() + "." + c.name
}

// Parent returns the coupled model that contains the component, or nil for
// the root.
func (c *ComponentBase) Parent() Coupled {
	if c.parent == nil {
		return nil
	}

	return c.parent
}

// InPorts returns the input ports in the order they were added.
func (c *ComponentBase) InPorts() []Port {
	return c.inPorts
}

// OutPorts returns the output ports in the order they were added.
func (c *ComponentBase) OutPorts() []Port {
	return c.outPorts
}

// InPort returns the input port with the given name, or nil.
func (c *ComponentBase) InPort(name string) Port {
	return findPort(c.inPorts, name)
}

// OutPort returns the output port with the given name, or nil.
func (c *ComponentBase) OutPort(name string) Port {
	return findPort(c.outPorts, name)
}

// AddInPort attaches an input port to the component.
func (c *ComponentBase) AddInPort(port Port) error {
	if err := c.attachPort(port); err != nil {
		return err
	}

	c.inPorts = append(c.inPorts, port)

	return nil
}

// AddOutPort attaches an output port to the component.
func (c *ComponentBase) AddOutPort(port Port) error {
	if err := c.attachPort(port); err != nil {
		return err
	}

	c.outPorts = append(c.outPorts, port)

	return nil
}

func (c *ComponentBase) attachPort(port Port) error {
	if port == nil {
		return fmt.Errorf("component %s: %w", c.QualifiedName(), ErrNilPort)
	}

	if c.hasPortName(port.Name()) {
		return fmt.Errorf("component %s, port %s: %w",
			c.QualifiedName(), port.Name(), ErrDuplicatePort)
	}

	return port.attach(c)
}

func (c *ComponentBase) hasPortName(name string) bool {
	return findPort(c.inPorts, name) != nil || findPort(c.outPorts, name) != nil
}

// IsInputEmpty returns true if none of the input ports holds a value.
func (c *ComponentBase) IsInputEmpty() bool {
	for _, p := range c.inPorts {
		if !p.IsEmpty() {
			return false
		}
	}

	return true
}

// Initialize does nothing by default.
func (c *ComponentBase) Initialize() error {
	return nil
}

// Exit does nothing by default.
func (c *ComponentBase) Exit() error {
	return nil
}

func (c *ComponentBase) String() string {
	var sb strings.Builder

	sb.WriteString(c.name)
	sb.WriteString(": InPorts [")
	writePortNames(&sb, c.inPorts)
	sb.WriteString(" ] OutPorts [")
	writePortNames(&sb, c.outPorts)
	sb.WriteString(" ]")

	return sb.String()
}

func (c *ComponentBase) base() *ComponentBase {
	return c
}

func (c *ComponentBase) ownsInPort(p Port) bool {
	return containsPort(c.inPorts, p)
}

func (c *ComponentBase) ownsOutPort(p Port) bool {
	return containsPort(c.outPorts, p)
}

func writePortNames(sb *strings.Builder, ports []Port) {
	for _, p := range ports {
		sb.WriteString(" ")
		sb.WriteString(p.Name())
	}
}

func findPort(ports []Port, name string) Port {
	for _, p := range ports {
		if p.Name() == name {
			return p
		}
	}

	return nil
}

func containsPort(ports []Port, port Port) bool {
	for _, p := range ports {
		if p == port {
			return true
		}
	}

	return false
}
