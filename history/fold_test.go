package history_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/condpred/history"
)

var _ = Describe("Folding", func() {
	var r *history.Register

	BeforeEach(func() {
		r = history.NewRegister(32)
	})

	It("should fold bit i onto position i mod width", func() {
		// ages 0..5 = 1,0,1,1,0,1
		push(r, true, false, true, true, false, true)

		// width 4: ages 0,2,3 set -> 0b1101; age 5 folds onto bit 1.
		Expect(history.Fold(r, 6, 4)).To(Equal(uint64(0b1111)))
		// length limits the bits folded
		Expect(history.Fold(r, 3, 4)).To(Equal(uint64(0b0101)))
	})

	It("should cancel repeated bits on the same position", func() {
		push(r, true, true)
		Expect(history.Fold(r, 2, 1)).To(Equal(uint64(0)))
	})

	It("should be a pure function of contents, length and width", func() {
		other := history.NewRegister(64)
		for i := 0; i < 40; i++ {
			r.Advance(i%5 < 2)
			other.Advance(i%5 < 2)
		}

		for _, length := range []int{4, 10, 16, 32} {
			Expect(history.Fold(r, length, 7)).To(Equal(history.Fold(other, length, 7)))
			Expect(history.Fold(r, length, 7)).To(Equal(history.Fold(r.Snapshot(), length, 7)))
		}
	})

	It("should ignore bits beyond the register", func() {
		push(r, true)
		Expect(history.Fold(r, 100, 8)).To(Equal(uint64(1)))
	})

	Describe("View", func() {
		It("should hide the youngest bits", func() {
			push(r, true, false, false)
			v := history.Skip(r, 2)

			Expect(v.Len()).To(Equal(1))
			Expect(v.Bit(0)).To(BeTrue())
			Expect(v.Bit(1)).To(BeFalse())
		})

		It("should fold like the register it was taken from", func() {
			push(r, true, false, true, true)
			snap := r.Snapshot()
			push(r, false, false, true)

			Expect(history.Fold(history.Skip(r, 3), 4, 3)).
				To(Equal(history.Fold(snap, 4, 3)))
		})

		It("should clamp oversized skips", func() {
			push(r, true)
			Expect(history.Skip(r, 5).Len()).To(Equal(0))
			Expect(history.Skip(r, -2).Len()).To(Equal(1))
		})
	})

	It("should convert bits to signs youngest first", func() {
		push(r, true, false)
		Expect(history.Signs(r, 3)).To(Equal([]int8{-1, 1, -1}))
	})
})
