package modeling

import (
	"fmt"
	"iter"
	"reflect"
)

// A Port is a typed bag of values that a component reads or writes during
// one simulation cycle.
//
// Ports are not safe for concurrent use. The kernel guarantees that a port
// has a single writer per cycle phase, which is what makes that sufficient.
type Port interface {
	// Name returns the name of the port, unique within its owner.
	Name() string

	// QualifiedName returns the dot-joined path from the root component.
	QualifiedName() string

	// Owner returns the component the port is attached to, or nil.
	Owner() Component

	// ValueType returns the type of the values the port carries.
	ValueType() reflect.Type

	// Len returns the number of values stored in the port.
	Len() int

	// IsEmpty returns true if the port does not hold any value.
	IsEmpty() bool

	// Clear removes all the values. Clearing an empty port is a no-op.
	Clear()

	// AnyValues iterates over the stored values in insertion order.
	AnyValues() iter.Seq[any]

	// AddAny appends untyped values. It fails without modifying the port if
	// any of the values does not have the port's value type.
	AddAny(values ...any) error

	String() string

	attach(owner *ComponentBase) error
	propagateTo(dst Port)
}

// TypedPort is the Port implementation carrying values of type E.
type TypedPort[E any] struct {
	name   string
	owner  *ComponentBase
	values []E
}

// NewPort creates a new, unattached port.
func NewPort[E any](name string) *TypedPort[E] {
	return &TypedPort[E]{name: name}
}

// Name returns the name of the port.
func (p *TypedPort[E]) Name() string {
	return p.name
}

// QualifiedName returns the name of the port prefixed by its owner path.
func (p *TypedPort[E]) QualifiedName() string {
	if p.owner == nil {
		return p.name
	}

	return p.owner.QualifiedName() + "." + p.name
}

// Owner returns the component that the port is attached to.
func (p *TypedPort[E]) Owner() Component {
	if p.owner == nil {
		return nil
	}

	return p.owner
}

// ValueType returns the type E.
func (p *TypedPort[E]) ValueType() reflect.Type {
	return reflect.TypeFor[E]()
}

// Len returns the number of values in the port.
func (p *TypedPort[E]) Len() int {
	return len(p.values)
}

// IsEmpty returns true if the port holds no value.
func (p *TypedPort[E]) IsEmpty() bool {
	return len(p.values) == 0
}

// Clear removes all the values stored in the port.
func (p *TypedPort[E]) Clear() {
	p.values = nil
}

// AddValue appends one value.
func (p *TypedPort[E]) AddValue(v E) {
	p.values = append(p.values, v)
}

// AddValues appends values, preserving their order.
func (p *TypedPort[E]) AddValues(vs ...E) {
	p.values = append(p.values, vs...)
}

// AddAny appends untyped values after checking all of them.
func (p *TypedPort[E]) AddAny(values ...any) error {
	typed := make([]E, 0, len(values))

	for _, v := range values {
		e, ok := v.(E)
		if !ok {
			return fmt.Errorf("%w: %T into %s (%s)",
				ErrValueType, v, p.QualifiedName(), p.ValueType())
		}

		typed = append(typed, e)
	}

	p.values = append(p.values, typed...)

	return nil
}

// Values returns the stored values. The returned slice must be treated as
// read-only and must not be retained after the port is cleared.
func (p *TypedPort[E]) Values() []E {
	return p.values
}

// SingleValue returns the first value of the port, and false if the port is
// empty.
func (p *TypedPort[E]) SingleValue() (E, bool) {
	if len(p.values) == 0 {
		var zero E
		return zero, false
	}

	return p.values[0], true
}

// All iterates over the values in insertion order.
func (p *TypedPort[E]) All() iter.Seq[E] {
	return func(yield func(E) bool) {
		for _, v := range p.values {
			if !yield(v) {
				return
			}
		}
	}
}

// AnyValues iterates over the values as untyped values.
func (p *TypedPort[E]) AnyValues() iter.Seq[any] {
	return func(yield func(any) bool) {
		for _, v := range p.values {
			if !yield(v) {
				return
			}
		}
	}
}

func (p *TypedPort[E]) String() string {
	return p.QualifiedName()
}

func (p *TypedPort[E]) attach(owner *ComponentBase) error {
	if p.owner != nil {
		return fmt.Errorf("port %s: %w", p.QualifiedName(), ErrAlreadyAttached)
	}

	p.owner = owner

	return nil
}

// propagateTo copies the values into dst. The value types of both ports are
// checked when the coupling is created.
func (p *TypedPort[E]) propagateTo(dst Port) {
	d := dst.(*TypedPort[E])
	d.values = append(d.values, p.values...)
}
