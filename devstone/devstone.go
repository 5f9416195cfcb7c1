// Package devstone builds DEVStone models, the synthetic benchmark of DEVS
// simulators. A DEVStone model is a chain of nested coupled models, one per
// level of depth, each holding a row (or, for HOmod, a triangle) of atomic
// models whose wiring depends on the topology.
package devstone

import (
	"fmt"
	"time"

	"github.com/sarchlab/devs/modeling"
)

// Topology selects how the atomic models of a level are wired.
type Topology string

// DEVStone topologies.
const (
	// LI feeds every atomic model from the input of its level.
	LI Topology = "LI"
	// HI also chains the atomic models of a level.
	HI Topology = "HI"
	// HO has a second input and a second output per level.
	HO Topology = "HO"
	// HOmod wires a triangle of atomic models back into the next level.
	HOmod Topology = "HOmod"
)

// Topologies lists the supported topologies.
var Topologies = []Topology{LI, HI, HO, HOmod}

func checkTopology(t Topology) error {
	for _, known := range Topologies {
		if t == known {
			return nil
		}
	}

	return TopologyError(t)
}

// Params describes a DEVStone model.
type Params struct {
	Topology Topology
	Depth    int
	Width    int

	// IntDelay and ExtDelay are the wall-clock CPU time burnt by every
	// internal and external transition.
	IntDelay time.Duration
	ExtDelay time.Duration

	// PrepTime is the simulation time between an input and the output it
	// causes.
	PrepTime float64
}

// Validate checks the shape and timing of the model.
func (p Params) Validate() error {
	if err := checkTopology(p.Topology); err != nil {
		return err
	}

	if p.Depth < 1 {
		return &DimensionError{Topology: p.Topology, Field: "depth", Value: p.Depth}
	}

	if p.Width < 1 {
		return &DimensionError{Topology: p.Topology, Field: "width", Value: p.Width}
	}

	switch {
	case p.IntDelay < 0:
		return &TimingConfigError{Field: "int delay", Value: p.IntDelay.Seconds()}
	case p.ExtDelay < 0:
		return &TimingConfigError{Field: "ext delay", Value: p.ExtDelay.Seconds()}
	case !(p.PrepTime >= 0):
		return &TimingConfigError{Field: "prep time", Value: p.PrepTime}
	}

	return nil
}

// ExpectedComponents returns the number of atomic and coupled models of the
// model described by p.
func (p Params) ExpectedComponents() (numAtomic, numCoupled int) {
	d, w := p.Depth, p.Width

	if p.Topology == HOmod {
		return 1 + (d-1)*(w-1+w*(w-1)/2), d
	}

	return 1 + (d-1)*(w-1), d
}

// ExpectedCouplings returns the number of couplings of each kind of the
// model described by p.
func (p Params) ExpectedCouplings() (numIC, numEIC, numEOC int) {
	d, w := p.Depth, p.Width

	switch p.Topology {
	case LI:
		return 0, 1 + (d-1)*w, d
	case HI:
		return (d - 1) * max(w-2, 0), 1 + (d-1)*w, d
	case HO:
		return (d - 1) * max(w-2, 0), 1 + (d-1)*(w+1), 1 + (d-1)*w
	}

	ic := (w-1)*(w-1) + (w - 1) + (w-2)*(w-1)/2

	return (d - 1) * ic, 1 + (d-1)*(2*(w-1)+1), d
}

// ExpectedTransitions returns the number of internal transitions, equal to
// the number of external ones, of a run in which every input port of the
// root receives one value at time 0.
func (p Params) ExpectedTransitions() int {
	d, w := p.Depth, p.Width

	switch p.Topology {
	case LI:
		return 1 + (d-1)*(w-1)
	case HI, HO:
		return 1 + (d-1)*(w-1)*w/2
	}

	perRow := w * (w - 1) / 2
	total := 1

	for level := 1; level < d; level++ {
		inputs := 1 + (level-1)*(w-1)
		total += inputs*perRow + (w-1)*(inputs+w-1)
	}

	return total
}

// A Model is one level of a DEVStone model.
type Model struct {
	*modeling.CoupledBase

	params  Params
	sub     *Model
	atomics []*Atomic

	in, in2   *modeling.TypedPort[int]
	out, out2 *modeling.TypedPort[int]
}

// New builds a DEVStone model.
func New(name string, p Params) (*Model, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	return newLevel(name, p)
}

func newLevel(name string, p Params) (*Model, error) {
	m := &Model{
		CoupledBase: modeling.NewCoupledBase(name),
		params:      p,
		in:          modeling.NewPort[int]("in"),
		out:         modeling.NewPort[int]("out"),
	}

	l := &linker{c: m.CoupledBase}
	l.inPort(m.in)
	l.outPort(m.out)

	if p.Topology == HO || p.Topology == HOmod {
		m.in2 = modeling.NewPort[int]("in2")
		l.inPort(m.in2)
	}

	if p.Topology == HO {
		m.out2 = modeling.NewPort[int]("out2")
		l.outPort(m.out2)
	}

	if l.err != nil {
		return nil, l.err
	}

	if p.Depth == 1 {
		a := m.newAtomic("atomic_0_0")
		l.add(a)
		l.couple(m.in, a.in)
		l.couple(a.out, m.out)

		return m, l.err
	}

	subParams := p
	subParams.Depth--

	sub, err := newLevel(fmt.Sprintf("coupled_%d", subParams.Depth), subParams)
	if err != nil {
		return nil, err
	}

	m.sub = sub
	l.add(sub)
	l.couple(m.in, sub.in)
	l.couple(sub.out, m.out)

	switch p.Topology {
	case LI:
		m.buildLI(l)
	case HI:
		m.buildHI(l)
	case HO:
		m.buildHO(l)
	case HOmod:
		m.buildHOmod(l)
	}

	if l.err != nil {
		return nil, l.err
	}

	return m, nil
}

func (m *Model) newAtomic(name string) *Atomic {
	a := newAtomic(name, m.params)
	m.atomics = append(m.atomics, a)

	return a
}

func (m *Model) row(l *linker) []*Atomic {
	row := make([]*Atomic, 0, m.params.Width-1)

	for i := 0; i < m.params.Width-1; i++ {
		a := m.newAtomic(fmt.Sprintf("atomic_%d_%d", m.params.Depth-1, i))
		l.add(a)
		row = append(row, a)
	}

	return row
}

func (m *Model) buildLI(l *linker) {
	for _, a := range m.row(l) {
		l.couple(m.in, a.in)
	}
}

func (m *Model) buildHI(l *linker) {
	row := m.row(l)

	for i, a := range row {
		l.couple(m.in, a.in)

		if i > 0 {
			l.couple(row[i-1].out, a.in)
		}
	}
}

func (m *Model) buildHO(l *linker) {
	l.couple(m.in, m.sub.in2)

	row := m.row(l)

	for i, a := range row {
		l.couple(m.in2, a.in)
		l.couple(a.out, m.out2)

		if i > 0 {
			l.couple(row[i-1].out, a.in)
		}
	}
}

// buildHOmod lays the atomic models out in rows. The first two rows are
// full. Every later row is one model shorter than the previous one.
func (m *Model) buildHOmod(l *linker) {
	w := m.params.Width
	rows := make([][]*Atomic, w)

	for i := 0; i < w; i++ {
		first := 0
		if i >= 2 {
			first = i - 1
		}

		for j := first; j < w-1; j++ {
			a := m.newAtomic(fmt.Sprintf("atomic_%d_%d_%d", m.params.Depth-1, i, j))
			l.add(a)
			rows[i] = append(rows[i], a)
		}
	}

	for _, a := range rows[0] {
		l.couple(m.in2, a.in)
		l.couple(a.out, m.sub.in2)
	}

	for i := 1; i < w; i++ {
		if len(rows[i]) > 0 {
			l.couple(m.in2, rows[i][0].in)
		}
	}

	if w > 1 {
		for _, from := range rows[1] {
			for _, to := range rows[0] {
				l.couple(from.out, to.in)
			}
		}
	}

	for i := 2; i < w; i++ {
		for j, from := range rows[i] {
			l.couple(from.out, rows[i-1][j+1].in)
		}
	}
}

// Params returns the parameters of the level.
func (m *Model) Params() Params {
	return m.params
}

// In returns the main input port.
func (m *Model) In() modeling.Port {
	return m.in
}

// In2 returns the second input port, or nil if the topology has none.
func (m *Model) In2() modeling.Port {
	if m.in2 == nil {
		return nil
	}

	return m.in2
}

// Out returns the output port.
func (m *Model) Out() modeling.Port {
	return m.out
}

// Sub returns the next level, or nil at the innermost level.
func (m *Model) Sub() *Model {
	return m.sub
}

// Atomics returns the atomic models of this level only.
func (m *Model) Atomics() []*Atomic {
	return m.atomics
}

// EventCount sums the transitions of all the atomic models of the tree.
func (m *Model) EventCount() (intCount, extCount int) {
	for level := m; level != nil; level = level.sub {
		for _, a := range level.atomics {
			intCount += a.intCount
			extCount += a.extCount
		}
	}

	return intCount, extCount
}

// An Injector accepts input into the root model.
type Injector interface {
	Inject(e float64, port modeling.Port, values ...any) error
}

// Stimulate injects one value into every input port of the root at the time
// of the last transition.
func (m *Model) Stimulate(c Injector) error {
	if err := c.Inject(0, m.In(), 0); err != nil {
		return err
	}

	if in2 := m.In2(); in2 != nil {
		return c.Inject(0, in2, 0)
	}

	return nil
}

type linker struct {
	c   *modeling.CoupledBase
	err error
}

func (l *linker) inPort(p modeling.Port) {
	if l.err == nil {
		l.err = l.c.AddInPort(p)
	}
}

func (l *linker) outPort(p modeling.Port) {
	if l.err == nil {
		l.err = l.c.AddOutPort(p)
	}
}

func (l *linker) add(comp modeling.Component) {
	if l.err == nil {
		l.err = l.c.AddComponent(comp)
	}
}

func (l *linker) couple(from, to modeling.Port) {
	if l.err == nil {
		l.err = l.c.AddCoupling(from, to)
	}
}

func mustSucceed(err error) {
	if err != nil {
		panic(err)
	}
}
