package simulation

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Simulator", func() {
	var (
		clock *Clock
		g     *generator
		s     *Simulator
	)

	BeforeEach(func() {
		clock = NewClock(0)
		g = newGenerator("gen", 2)
		s = NewSimulator(clock, g)
		Expect(s.Initialize()).To(Succeed())
	})

	It("should schedule the first transition", func() {
		Expect(s.TL()).To(Equal(0.0))
		Expect(s.TN()).To(Equal(2.0))
		Expect(s.TA()).To(Equal(2.0))
		Expect(s.Model()).To(BeIdenticalTo(g))
		Expect(s.Atomic()).To(BeIdenticalTo(g))
	})

	It("should not compute output before the model is imminent", func() {
		clock.SetTime(1)

		Expect(s.Lambda()).To(Succeed())

		Expect(g.out.IsEmpty()).To(BeTrue())
	})

	It("should do nothing without input before the model is imminent", func() {
		clock.SetTime(1)

		Expect(s.DeltFcn()).To(Succeed())

		Expect(s.TL()).To(Equal(0.0))
		Expect(g.fired).To(Equal(0))
	})

	It("should run the internal transition when imminent", func() {
		clock.SetTime(2)

		Expect(s.Lambda()).To(Succeed())
		Expect(g.out.Values()).To(Equal([]int{0}))

		Expect(s.DeltFcn()).To(Succeed())
		Expect(g.fired).To(Equal(1))
		Expect(s.TL()).To(Equal(2.0))
		Expect(s.TN()).To(Equal(4.0))

		s.Clear()
		Expect(g.out.IsEmpty()).To(BeTrue())
	})
})
