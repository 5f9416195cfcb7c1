package modeling

import (
	"slices"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Iterators", func() {
	It("should concatenate sequences", func() {
		seq := Concat(slices.Values([]int{1, 2}), slices.Values([]int{}),
			slices.Values([]int{3}))

		Expect(slices.Collect(seq)).To(Equal([]int{1, 2, 3}))
	})

	It("should stop early", func() {
		var got []int
		for v := range Concat(slices.Values([]int{1, 2}), slices.Values([]int{3})) {
			got = append(got, v)
			if v == 2 {
				break
			}
		}

		Expect(got).To(Equal([]int{1, 2}))
	})

	It("should walk port values", func() {
		a := NewPort[int]("a")
		b := NewPort[string]("b")
		a.AddValues(1, 2)
		b.AddValue("x")

		var names []string
		var values []any
		for p, v := range PortValues([]Port{a, b}) {
			names = append(names, p.Name())
			values = append(values, v)
		}

		Expect(names).To(Equal([]string{"a", "a", "b"}))
		Expect(values).To(Equal([]any{1, 2, "x"}))
	})
})
