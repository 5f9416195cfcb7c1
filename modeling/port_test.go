package modeling

import (
	"reflect"
	"slices"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("TypedPort", func() {
	var port *TypedPort[int]

	BeforeEach(func() {
		port = NewPort[int]("in")
	})

	It("should start empty", func() {
		Expect(port.IsEmpty()).To(BeTrue())
		Expect(port.Len()).To(Equal(0))
		_, ok := port.SingleValue()
		Expect(ok).To(BeFalse())
	})

	It("should keep insertion order", func() {
		port.AddValue(3)
		port.AddValues(1, 2)

		Expect(port.Values()).To(Equal([]int{3, 1, 2}))
		Expect(slices.Collect(port.All())).To(Equal([]int{3, 1, 2}))
		v, ok := port.SingleValue()
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(3))
	})

	It("should clear values", func() {
		port.AddValues(1, 2)

		port.Clear()
		port.Clear()

		Expect(port.IsEmpty()).To(BeTrue())
	})

	It("should report the value type", func() {
		Expect(port.ValueType()).To(Equal(reflect.TypeOf(0)))
	})

	It("should add untyped values", func() {
		Expect(port.AddAny(1, 2)).To(Succeed())
		Expect(slices.Collect(port.AnyValues())).To(Equal([]any{1, 2}))
	})

	It("should reject untyped values of another type", func() {
		err := port.AddAny(1, "two")

		Expect(err).To(MatchError(ErrValueType))
		Expect(port.IsEmpty()).To(BeTrue())
	})

	It("should use the owner in the qualified name", func() {
		Expect(port.QualifiedName()).To(Equal("in"))
		Expect(port.Owner()).To(BeNil())

		r := NewAtomicBase("gen")
		Expect(r.AddInPort(port)).To(Succeed())

		Expect(port.QualifiedName()).To(Equal("gen.in"))
		Expect(port.Owner()).To(BeIdenticalTo(r.ComponentBase))
	})

	It("should not attach twice", func() {
		a := NewAtomicBase("a")
		b := NewAtomicBase("b")
		Expect(a.AddInPort(port)).To(Succeed())

		Expect(b.AddInPort(port)).To(MatchError(ErrAlreadyAttached))
	})
})

var _ = Describe("Coupling", func() {
	var (
		top    *CoupledBase
		r1, r2 *relay
	)

	BeforeEach(func() {
		top = NewCoupledBase("top")
		r1 = newRelay("r1")
		r2 = newRelay("r2")
		Expect(top.AddComponent(r1)).To(Succeed())
		Expect(top.AddComponent(r2)).To(Succeed())
		Expect(top.AddCoupling(r1.out, r2.in)).To(Succeed())
	})

	It("should copy values without consuming them", func() {
		c := top.IC()[0]
		r1.out.AddValues(1, 2)
		r2.in.AddValue(0)

		c.Propagate()

		Expect(r2.in.Values()).To(Equal([]int{0, 1, 2}))
		Expect(r1.out.Values()).To(Equal([]int{1, 2}))
	})

	It("should not alias the source values", func() {
		c := top.IC()[0]
		r1.out.AddValue(1)

		c.Propagate()
		r1.out.Clear()

		Expect(r2.in.Values()).To(Equal([]int{1}))
	})

	It("should be printable", func() {
		c := top.IC()[0]

		Expect(c.String()).To(Equal("(top.r1.out -> top.r2.in)"))
		Expect(c.Kind().String()).To(Equal("IC"))
		Expect(c.From()).To(BeIdenticalTo(r1.out))
		Expect(c.To()).To(BeIdenticalTo(r2.in))
	})
})
