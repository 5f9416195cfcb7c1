package simulation

import (
	"errors"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("workerPool", func() {
	var pool *workerPool

	BeforeEach(func() {
		pool = newWorkerPool(3)
	})

	AfterEach(func() {
		pool.stop()
	})

	It("should run every task", func() {
		var sum atomic.Int64

		err := pool.run(100, func(i int) error {
			sum.Add(int64(i))
			return nil
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(sum.Load()).To(Equal(int64(4950)))
		Expect(pool.running()).To(BeTrue())
	})

	It("should not start workers for a single task", func() {
		Expect(pool.run(1, func(int) error { return nil })).To(Succeed())

		Expect(pool.running()).To(BeFalse())
	})

	It("should report the failure of the lowest index", func() {
		var ran atomic.Int32
		err3 := errors.New("3")
		err7 := errors.New("7")

		err := pool.run(10, func(i int) error {
			ran.Add(1)

			switch i {
			case 3:
				return err3
			case 7:
				return err7
			}

			return nil
		})

		Expect(err).To(BeIdenticalTo(err3))
		Expect(ran.Load()).To(Equal(int32(10)))
	})

	It("should recover panics", func() {
		err := pool.run(4, func(i int) error {
			if i == 2 {
				panic("bad task")
			}

			return nil
		})

		Expect(err).To(MatchError(ErrTaskPanic))
	})

	It("should be restartable", func() {
		Expect(pool.run(5, func(int) error { return nil })).To(Succeed())
		pool.stop()
		pool.stop()

		Expect(pool.run(5, func(int) error { return nil })).To(Succeed())
		Expect(pool.running()).To(BeTrue())
	})
})

var _ = Describe("sequentialRunner", func() {
	It("should stop at the first error", func() {
		var ran []int
		errBoom := errors.New("boom")

		err := sequentialRunner{}.run(5, func(i int) error {
			ran = append(ran, i)
			if i == 1 {
				return errBoom
			}

			return nil
		})

		Expect(err).To(BeIdenticalTo(errBoom))
		Expect(ran).To(Equal([]int{0, 1}))
	})
})
