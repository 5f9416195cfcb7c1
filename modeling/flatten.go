package modeling

import "fmt"

// Flatten moves every atomic model of the tree directly under root and
// replaces the couplings of the tree with couplings between the atomic
// models and the ports of root. The coupled models in between are emptied
// and detached. Coordinators no longer call their Initialize and Exit.
//
// Each path of couplings from a source port to a destination port becomes
// one coupling. A destination receives the same values as in the original
// tree and in the same order, except that values coming from the input ports
// of root arrive after the values produced by the atomic models.
//
// The atomic models keep their names, which must be unique in the tree.
func Flatten(root Coupled) error {
	f := &flattener{
		root:      root.coupled(),
		coupledOf: make(map[*ComponentBase]*CoupledBase),
	}

	f.collect(f.root)

	if len(f.removed) == 0 {
		return nil
	}

	names := make(map[string]bool, len(f.leaves))
	for _, leaf := range f.leaves {
		if names[leaf.Name()] {
			return fmt.Errorf("flatten %s, component %s: %w",
				f.root.QualifiedName(), leaf.Name(), ErrDuplicateComponent)
		}

		names[leaf.Name()] = true
	}

	links := f.links()

	for _, c := range f.removed {
		c.components = nil
		c.resetCouplings()
		c.parent = nil
	}

	f.root.components = f.leaves
	for _, leaf := range f.leaves {
		leaf.base().parent = f.root
	}

	f.root.resetCouplings()

	for _, l := range links {
		if err := f.root.appendCoupling(l.from, l.to); err != nil {
			return err
		}
	}

	return nil
}

type flatLink struct {
	from Port
	to   Port
}

type flattener struct {
	root      *CoupledBase
	leaves    []Component
	removed   []*CoupledBase
	coupledOf map[*ComponentBase]*CoupledBase
}

// collect lists the leaves depth first in declaration order.
func (f *flattener) collect(c *CoupledBase) {
	for _, comp := range c.components {
		child, ok := comp.(Coupled)
		if !ok {
			f.leaves = append(f.leaves, comp)
			continue
		}

		cb := child.coupled()
		f.coupledOf[cb.ComponentBase] = cb
		f.removed = append(f.removed, cb)
		f.collect(cb)
	}
}

func (f *flattener) links() []flatLink {
	var links []flatLink

	for _, leaf := range f.leaves {
		parent := leaf.base().parent

		for _, in := range leaf.InPorts() {
			for _, from := range f.into(parent, in) {
				links = append(links, flatLink{from: from, to: in})
			}
		}
	}

	for _, out := range f.root.OutPorts() {
		for _, k := range f.root.eoc {
			if k.to != out {
				continue
			}

			for _, from := range f.fromOutput(k.from) {
				links = append(links, flatLink{from: from, to: out})
			}
		}
	}

	return links
}

// into lists the sources that reach port through the couplings of c.
// Internal couplings deliver in the output phase, before external input
// couplings.
func (f *flattener) into(c *CoupledBase, port Port) []Port {
	var sources []Port

	for _, k := range c.ic {
		if k.to == port {
			sources = append(sources, f.fromOutput(k.from)...)
		}
	}

	for _, k := range c.eic {
		if k.to == port {
			sources = append(sources, f.fromInput(k.from)...)
		}
	}

	return sources
}

// fromOutput resolves an output port of a child down to leaf output ports.
func (f *flattener) fromOutput(port Port) []Port {
	c, ok := f.coupledOf[portOwner(port)]
	if !ok {
		return []Port{port}
	}

	var sources []Port

	for _, k := range c.eoc {
		if k.to == port {
			sources = append(sources, f.fromOutput(k.from)...)
		}
	}

	return sources
}

// fromInput resolves an input port of a coupled model up to leaf output
// ports and input ports of root.
func (f *flattener) fromInput(port Port) []Port {
	owner := portOwner(port)
	if owner == f.root.ComponentBase {
		return []Port{port}
	}

	return f.into(owner.parent, port)
}

func (c *CoupledBase) resetCouplings() {
	c.couplings = nil
	c.ic = nil
	c.eic = nil
	c.eoc = nil
	c.linked = make(map[couplingKey]bool)
}

// appendCoupling adds a coupling without rejecting duplicates. Parallel paths
// of the original tree become duplicated couplings.
func (c *CoupledBase) appendCoupling(from, to Port) error {
	kind, err := c.couplingKind(from, to)
	if err != nil {
		return err
	}

	coupling, err := newCoupling(from, to, kind)
	if err != nil {
		return fmt.Errorf("coupled %s: %w", c.QualifiedName(), err)
	}

	c.linked[couplingKey{from: from, to: to}] = true
	c.couplings = append(c.couplings, coupling)

	switch kind {
	case InternalCoupling:
		c.ic = append(c.ic, coupling)
	case ExternalInputCoupling:
		c.eic = append(c.eic, coupling)
	case ExternalOutputCoupling:
		c.eoc = append(c.eoc, coupling)
	}

	return nil
}
