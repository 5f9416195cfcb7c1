package simulation

import (
	"fmt"
	"sync/atomic"

	. "github.com/onsi/gomega"

	"github.com/sarchlab/devs/modeling"
)

// generator emits burst values every period. It stops after limit firings
// when limit is positive.
type generator struct {
	*modeling.AtomicBase

	out    *modeling.TypedPort[int]
	period float64
	burst  int
	limit  int
	fired  int
}

func newGenerator(name string, period float64) *generator {
	g := &generator{
		AtomicBase: modeling.NewAtomicBase(name),
		out:        modeling.NewPort[int]("out"),
		period:     period,
		burst:      1,
	}

	Expect(g.AddOutPort(g.out)).To(Succeed())

	return g
}

func (g *generator) Initialize() error {
	g.fired = 0
	g.HoldIn(modeling.PhaseActive, g.period)

	return nil
}

func (g *generator) Lambda() error {
	for k := 0; k < g.burst; k++ {
		g.out.AddValue(g.fired*g.burst + k)
	}

	return nil
}

func (g *generator) DeltInt() error {
	g.fired++

	if g.limit > 0 && g.fired >= g.limit {
		g.Passivate()
		return nil
	}

	g.HoldIn(modeling.PhaseActive, g.period)

	return nil
}

func (g *generator) DeltExt(e float64) error {
	g.SetSigma(g.Sigma() - e)
	return nil
}

// counter accumulates everything it receives.
type counter struct {
	*modeling.AtomicBase

	in       *modeling.TypedPort[int]
	received []int
}

func newCounter(name string) *counter {
	c := &counter{
		AtomicBase: modeling.NewAtomicBase(name),
		in:         modeling.NewPort[int]("in"),
	}

	Expect(c.AddInPort(c.in)).To(Succeed())

	return c
}

func (c *counter) Count() int {
	return len(c.received)
}

func (c *counter) Lambda() error {
	return nil
}

func (c *counter) DeltInt() error {
	c.Passivate()
	return nil
}

func (c *counter) DeltExt(e float64) error {
	c.received = append(c.received, c.in.Values()...)
	c.Passivate()

	return nil
}

// ticker logs the transitions it runs.
type ticker struct {
	*modeling.AtomicBase

	in     *modeling.TypedPort[int]
	period float64
	log    []string
}

func newTicker(name string, period float64) *ticker {
	t := &ticker{
		AtomicBase: modeling.NewAtomicBase(name),
		in:         modeling.NewPort[int]("in"),
		period:     period,
	}

	Expect(t.AddInPort(t.in)).To(Succeed())

	return t
}

func (t *ticker) Initialize() error {
	t.HoldIn(modeling.PhaseActive, t.period)
	return nil
}

func (t *ticker) Lambda() error {
	return nil
}

func (t *ticker) DeltInt() error {
	t.log = append(t.log, "int")
	t.HoldIn(modeling.PhaseActive, t.period)

	return nil
}

func (t *ticker) DeltExt(e float64) error {
	t.log = append(t.log, fmt.Sprintf("ext %g", e))
	t.SetSigma(t.Sigma() - e)

	return nil
}

// confluentTicker decides itself what happens on collisions.
type confluentTicker struct {
	*ticker
}

func (t *confluentTicker) DeltCon(e float64) error {
	t.log = append(t.log, fmt.Sprintf("con %g", e))
	t.HoldIn(modeling.PhaseActive, t.period)

	return nil
}

// faulty becomes imminent at time 1 and fails in its internal transition.
type faulty struct {
	*modeling.AtomicBase

	err         error
	panicMsg    string
	delay       float64
	transitions atomic.Int32
}

func newFaulty(name string, err error) *faulty {
	return &faulty{
		AtomicBase: modeling.NewAtomicBase(name),
		err:        err,
		delay:      1,
	}
}

func (f *faulty) Initialize() error {
	f.HoldIn(modeling.PhaseActive, f.delay)
	return nil
}

func (f *faulty) Lambda() error {
	return nil
}

func (f *faulty) DeltInt() error {
	f.transitions.Add(1)

	if f.panicMsg != "" {
		panic(f.panicMsg)
	}

	return f.err
}

func (f *faulty) DeltExt(e float64) error {
	return nil
}

func leafTNs(p Processor) []float64 {
	switch p := p.(type) {
	case *Coordinator:
		var tNs []float64
		for _, child := range p.Processors() {
			tNs = append(tNs, leafTNs(child)...)
		}

		return tNs
	case *Simulator:
		return []float64{p.TN()}
	}

	return nil
}

func minOf(values []float64) float64 {
	m := modeling.Infinity
	for _, v := range values {
		m = min(m, v)
	}

	return m
}

type network struct {
	top        *modeling.CoupledBase
	generators []*generator
	counters   []*counter
}

// buildNetwork creates a nested model where generators of several periods
// feed counters at every level.
func buildNetwork() *network {
	n := &network{top: modeling.NewCoupledBase("top")}

	inner := modeling.NewCoupledBase("inner")
	innerOut := modeling.NewPort[int]("out")
	Expect(inner.AddOutPort(innerOut)).To(Succeed())

	innermost := modeling.NewCoupledBase("innermost")
	innermostIn := modeling.NewPort[int]("in")
	innermostOut := modeling.NewPort[int]("out")
	Expect(innermost.AddInPort(innermostIn)).To(Succeed())
	Expect(innermost.AddOutPort(innermostOut)).To(Succeed())

	periods := []float64{0.5, 0.75, 1, 1.25, 2, 3}
	for i, period := range periods {
		g := newGenerator(fmt.Sprintf("g%d", i), period)
		g.burst = i%3 + 1
		n.generators = append(n.generators, g)
	}

	for i := 0; i < 3; i++ {
		n.counters = append(n.counters, newCounter(fmt.Sprintf("c%d", i)))
	}

	g, c := n.generators, n.counters

	Expect(innermost.AddComponent(g[4])).To(Succeed())
	Expect(innermost.AddComponent(c[2])).To(Succeed())
	Expect(innermost.AddCoupling(g[4].out, innermostOut)).To(Succeed())
	Expect(innermost.AddCoupling(innermostIn, c[2].in)).To(Succeed())

	Expect(inner.AddComponent(g[2])).To(Succeed())
	Expect(inner.AddComponent(g[3])).To(Succeed())
	Expect(inner.AddComponent(innermost)).To(Succeed())
	Expect(inner.AddComponent(c[1])).To(Succeed())
	Expect(inner.AddCoupling(g[2].out, innermostIn)).To(Succeed())
	Expect(inner.AddCoupling(g[3].out, c[1].in)).To(Succeed())
	Expect(inner.AddCoupling(innermostOut, c[1].in)).To(Succeed())
	Expect(inner.AddCoupling(innermostOut, innerOut)).To(Succeed())
	Expect(inner.AddCoupling(g[3].out, innerOut)).To(Succeed())

	Expect(n.top.AddComponent(g[0])).To(Succeed())
	Expect(n.top.AddComponent(inner)).To(Succeed())
	Expect(n.top.AddComponent(g[1])).To(Succeed())
	Expect(n.top.AddComponent(g[5])).To(Succeed())
	Expect(n.top.AddComponent(c[0])).To(Succeed())
	Expect(n.top.AddCoupling(g[0].out, c[0].in)).To(Succeed())
	Expect(n.top.AddCoupling(innerOut, c[0].in)).To(Succeed())
	Expect(n.top.AddCoupling(g[1].out, c[0].in)).To(Succeed())
	Expect(n.top.AddCoupling(g[5].out, c[0].in)).To(Succeed())

	return n
}

// echo answers every value it receives with the next integer one time unit
// later, up to limit.
type echo struct {
	*modeling.AtomicBase

	in, out  *modeling.TypedPort[int]
	limit    int
	value    int
	received []int
}

func newEcho(name string, limit int) *echo {
	e := &echo{
		AtomicBase: modeling.NewAtomicBase(name),
		in:         modeling.NewPort[int]("in"),
		out:        modeling.NewPort[int]("out"),
		limit:      limit,
	}

	Expect(e.AddInPort(e.in)).To(Succeed())
	Expect(e.AddOutPort(e.out)).To(Succeed())

	return e
}

func (e *echo) Lambda() error {
	e.out.AddValue(e.value + 1)
	return nil
}

func (e *echo) DeltInt() error {
	e.Passivate()
	return nil
}

func (e *echo) DeltExt(float64) error {
	e.value, _ = e.in.SingleValue()
	e.received = append(e.received, e.value)

	if e.value < e.limit {
		e.HoldIn(modeling.PhaseActive, 1)
	} else {
		e.Passivate()
	}

	return nil
}
